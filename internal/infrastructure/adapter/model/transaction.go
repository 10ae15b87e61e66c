package model

import (
	"time"
)

// Transaction represents the database model for marketplace transactions
type Transaction struct {
	ID               string `gorm:"primaryKey;size:36"`
	CorrelationID    string `gorm:"uniqueIndex;not null;size:255"`
	ProductID        string `gorm:"not null;index;size:36"`
	SellerID         string `gorm:"not null;index;size:36"`
	BuyerEmail       string `gorm:"not null;size:255"`
	Amount           int64  `gorm:"not null"`
	CommissionRate   string `gorm:"not null;size:20"`
	CommissionAmount int64  `gorm:"not null"`
	SellerAmount     int64  `gorm:"not null"`
	Currency         string `gorm:"not null;size:3"`
	HoldStatus       string `gorm:"not null;index;size:50"`

	Carrier        string `gorm:"size:100"`
	TrackingNumber string `gorm:"size:255"`

	PaidAt              *time.Time
	ShippedAt           *time.Time
	EstimatedDeliveryAt *time.Time `gorm:"index"`
	DeliveredAt         *time.Time
	DeliveryConfirmedAt *time.Time
	DisputedAt          *time.Time
	ReleaseRequestedAt  *time.Time
	ReleasedAt          *time.Time
	TransferredAt       *time.Time
	FailedAt            *time.Time

	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

// TableName specifies the table name for Transaction
func (Transaction) TableName() string {
	return "transactions"
}
