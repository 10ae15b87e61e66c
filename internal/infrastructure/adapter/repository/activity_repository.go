package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/fairwaymarket/escrow-processor/internal/domain/entity"
	errs "github.com/fairwaymarket/escrow-processor/internal/domain/error"
	coreport "github.com/fairwaymarket/escrow-processor/internal/domain/port/core"
	"github.com/fairwaymarket/escrow-processor/internal/infrastructure/adapter/model"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// ActivityRepository implements the ActivityRepository port using GORM
type ActivityRepository struct {
	db     *gorm.DB
	logger coreport.Logger
}

// NewActivityRepository creates a new ActivityRepository instance
func NewActivityRepository(db *gorm.DB, logger coreport.Logger) *ActivityRepository {
	return &ActivityRepository{
		db:     db,
		logger: logger,
	}
}

// Append writes one audit entry
func (r *ActivityRepository) Append(ctx context.Context, activity *entity.Activity) error {
	var metadata datatypes.JSON
	if activity.Metadata != nil {
		raw, err := json.Marshal(activity.Metadata)
		if err != nil {
			return fmt.Errorf("marshal activity metadata: %w", err)
		}
		metadata = datatypes.JSON(raw)
	}

	activityModel := model.Activity{
		ID:            activity.ID,
		Actor:         activity.Actor,
		EventType:     activity.EventType,
		TransactionID: activity.TransactionID,
		Metadata:      metadata,
		CreatedAt:     activity.CreatedAt,
	}

	result := r.db.WithContext(ctx).Create(&activityModel)
	if result.Error != nil {
		r.logger.Error("Failed to append activity", map[string]any{
			"event_type":     activity.EventType,
			"transaction_id": activity.TransactionID,
			"error":          result.Error.Error(),
		})
		return fmt.Errorf("%w: %s", errs.ErrDatabaseConnection, result.Error.Error())
	}

	return nil
}
