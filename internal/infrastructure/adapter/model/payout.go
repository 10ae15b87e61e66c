package model

import (
	"time"
)

// Payout represents the database model for money-movement attempts. The
// partial unique index on transaction_id where status = completed is the
// hard idempotency guarantee: a second completed payout cannot be written.
type Payout struct {
	ID            string `gorm:"primaryKey;size:36"`
	TransactionID string `gorm:"not null;index;size:36"`
	SellerID      string `gorm:"not null;index;size:36"`
	Rail          string `gorm:"not null;size:50"`

	GrossAmount      int64  `gorm:"not null"`
	CommissionAmount int64  `gorm:"not null"`
	ProcessingFee    int64  `gorm:"not null"`
	NetAmount        int64  `gorm:"not null"`
	Currency         string `gorm:"not null;size:3"`

	Status        string `gorm:"not null;index;size:50"`
	TransferID    string `gorm:"size:255"`
	FailureReason string `gorm:"type:text"`

	CreatedAt   time.Time `gorm:"not null"`
	ProcessedAt *time.Time
}

// TableName specifies the table name for Payout
func (Payout) TableName() string {
	return "payouts"
}
