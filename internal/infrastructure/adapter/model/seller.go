package model

import (
	"time"
)

// Seller is the read-side projection of seller accounts this engine needs:
// tier for commission and the configured payout destinations. Owned by the
// account subsystem; this service only reads it.
type Seller struct {
	ID             string `gorm:"primaryKey;size:36"`
	Email          string `gorm:"not null;size:255"`
	Tier           string `gorm:"not null;size:50"`
	BankAccountRef string `gorm:"size:255"`
	WalletHandle   string `gorm:"size:255"`

	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

// TableName specifies the table name for Seller
func (Seller) TableName() string {
	return "sellers"
}
