package migration

import (
	"context"
	"errors"
	"time"

	coreport "github.com/fairwaymarket/escrow-processor/internal/domain/port/core"
	"github.com/fairwaymarket/escrow-processor/internal/infrastructure/adapter/model"
	"gorm.io/gorm"
)

const (
	// CurrentSchemaVersion represents the current database schema version
	CurrentSchemaVersion = "1.0.0"
)

// MigrationManager manages database migrations
type MigrationManager struct {
	db           *gorm.DB
	logger       coreport.Logger
	timeProvider coreport.TimeProvider
}

// NewMigrationManager creates a new migration manager
func NewMigrationManager(db *gorm.DB, logger coreport.Logger, timeProvider coreport.TimeProvider) *MigrationManager {
	return &MigrationManager{
		db:           db,
		logger:       logger,
		timeProvider: timeProvider,
	}
}

// MigrateAll performs all migrations
func (m *MigrationManager) MigrateAll() error {
	m.logger.Info("Starting database migrations", map[string]any{
		"target_version": CurrentSchemaVersion,
	})

	if err := m.db.AutoMigrate(&model.MigrationVersion{}); err != nil {
		m.logger.Error("Failed to create migration version table", map[string]any{
			"error": err.Error(),
		})
		return err
	}

	currentVersion, err := m.GetCurrentVersion(context.Background())
	if err != nil {
		m.logger.Error("Failed to check current schema version", map[string]any{
			"error": err.Error(),
		})
		return err
	}

	if currentVersion == CurrentSchemaVersion {
		m.logger.Info("Database already at target version, skipping migration", map[string]any{
			"version": currentVersion,
		})
		return nil
	}

	if err := m.autoMigrateModels(); err != nil {
		m.logger.Error("Failed to auto-migrate models", map[string]any{
			"error": err.Error(),
		})
		return err
	}

	if err := m.createIndexes(); err != nil {
		m.logger.Error("Failed to create indexes", map[string]any{
			"error": err.Error(),
		})
		return err
	}

	if err := m.setVersion(context.Background(), CurrentSchemaVersion, "Full schema migration"); err != nil {
		m.logger.Error("Failed to update schema version", map[string]any{
			"error":   err.Error(),
			"version": CurrentSchemaVersion,
		})
		return err
	}

	m.logger.Info("Database migrations completed successfully", map[string]any{
		"version": CurrentSchemaVersion,
	})
	return nil
}

// GetCurrentVersion gets the current migration version
func (m *MigrationManager) GetCurrentVersion(ctx context.Context) (string, error) {
	if ctx.Err() != nil {
		return "", ctx.Err()
	}

	var version model.MigrationVersion
	result := m.db.WithContext(ctx).Order("applied_at desc").First(&version)

	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return "", nil
		}
		return "", result.Error
	}

	return version.Version, nil
}

// setVersion records a new migration version
func (m *MigrationManager) setVersion(ctx context.Context, version string, details string) error {
	var appliedAt time.Time
	if m.timeProvider != nil {
		appliedAt = m.timeProvider.Now()
	} else {
		appliedAt = time.Now()
	}

	migrationVersion := model.MigrationVersion{
		Version:   version,
		AppliedAt: appliedAt,
		Details:   details,
	}

	result := m.db.WithContext(ctx).Create(&migrationVersion)
	return result.Error
}

// autoMigrateModels auto-migrates database models
func (m *MigrationManager) autoMigrateModels() error {
	m.logger.Info("Auto-migrating database models", nil)

	return m.db.AutoMigrate(
		&model.Seller{},
		&model.Product{},
		&model.Transaction{},
		&model.PaymentHold{},
		&model.Payout{},
		&model.Activity{},
	)
}

// createIndexes creates the indexes the engine's correctness depends on
func (m *MigrationManager) createIndexes() error {
	m.logger.Info("Creating database indexes", nil)

	// At most one completed payout per transaction. This partial unique
	// index is the idempotency floor: whatever the application does, a
	// duplicate completed payout cannot be written.
	if err := m.db.Exec(`
		CREATE UNIQUE INDEX IF NOT EXISTS idx_payouts_completed_per_transaction
		ON payouts (transaction_id)
		WHERE status = 'completed'
	`).Error; err != nil {
		return err
	}

	// Sweep due query: released holds with a scheduled or failed envelope.
	if err := m.db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_holds_sweep_due
		ON payment_holds (payout_scheduled_at)
		WHERE status = 'released' AND payout_status IN ('scheduled', 'failed')
	`).Error; err != nil {
		return err
	}

	// Stale claim recovery.
	if err := m.db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_holds_claimed
		ON payment_holds (payout_claimed_at)
		WHERE payout_status = 'processing'
	`).Error; err != nil {
		return err
	}

	// Auto-release pass.
	if err := m.db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_holds_auto_release
		ON payment_holds (auto_release_eligible_at)
		WHERE status = 'held' AND seller_release_requested = true
	`).Error; err != nil {
		return err
	}

	// Delivery promotion pass.
	if err := m.db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_transactions_delivery_due
		ON transactions (estimated_delivery_at)
		WHERE hold_status = 'shipped'
	`).Error; err != nil {
		return err
	}

	return nil
}
