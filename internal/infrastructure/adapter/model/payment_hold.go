package model

import (
	"time"
)

// PaymentHold represents the database model for escrow holds. The payout
// envelope is flattened into payout_* columns; the partial index on
// (payout_status, payout_scheduled_at) serves the sweep's due query.
type PaymentHold struct {
	ID            string `gorm:"primaryKey;size:36"`
	TransactionID string `gorm:"uniqueIndex;not null;size:36"`
	HeldAmount    int64  `gorm:"not null"`
	Currency      string `gorm:"not null;size:3"`
	Status        string `gorm:"not null;index;size:50"`
	Reason        string `gorm:"not null;size:100"`

	CommissionHeld    int64 `gorm:"not null"`
	ProcessingFeeHeld int64 `gorm:"not null"`

	HeldAt     time.Time `gorm:"not null"`
	ReleasedAt *time.Time

	DisputeRaised   bool `gorm:"not null;default:false"`
	DisputeRaisedBy string `gorm:"size:255"`
	DisputeRaisedAt *time.Time
	DisputeReason   string `gorm:"type:text"`

	SellerReleaseRequested   bool `gorm:"not null;default:false"`
	SellerReleaseRequestedAt *time.Time
	AutoReleaseEligibleAt    *time.Time `gorm:"index"`

	PayoutScheduledAt *time.Time `gorm:"index:idx_holds_payout_due"`
	PayoutStatus      string     `gorm:"size:50;index:idx_holds_payout_due"`
	PayoutMethod      string     `gorm:"size:50"`
	PayoutTransferRef string     `gorm:"size:255"`
	PayoutClaimedAt   *time.Time
	PayoutLastError   string     `gorm:"type:text"`

	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

// TableName specifies the table name for PaymentHold
func (PaymentHold) TableName() string {
	return "payment_holds"
}
