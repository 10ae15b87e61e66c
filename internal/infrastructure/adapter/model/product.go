package model

import (
	"time"
)

// Product is the catalog row this engine touches. Only the status column is
// ever written here; everything else belongs to the catalog subsystem.
type Product struct {
	ID       string `gorm:"primaryKey;size:36"`
	SellerID string `gorm:"not null;index;size:36"`
	Status   string `gorm:"not null;index;size:50"`

	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

// TableName specifies the table name for Product
func (Product) TableName() string {
	return "products"
}
