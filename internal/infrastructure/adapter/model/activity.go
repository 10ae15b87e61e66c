package model

import (
	"time"

	"gorm.io/datatypes"
)

// Activity represents the database model for append-only audit entries
type Activity struct {
	ID            string         `gorm:"primaryKey;size:36"`
	Actor         string         `gorm:"not null;size:255"`
	EventType     string         `gorm:"not null;index;size:100"`
	TransactionID string         `gorm:"not null;index;size:36"`
	Metadata      datatypes.JSON `gorm:"type:jsonb"`
	CreatedAt     time.Time      `gorm:"not null"`
}

// TableName specifies the table name for Activity
func (Activity) TableName() string {
	return "activities"
}
