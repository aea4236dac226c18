package models

import "time"

// CustomerRate defines the price charged to one customer for one
// vendor/service combination.
type CustomerRate struct {
	ID uint64 `gorm:"primaryKey;autoIncrement"` // Primary key.

	CustomerID uint64 `gorm:"not null;index"`   // Customer scope.
	VendorID   string `gorm:"type:text;index"`  // Vendor scope.
	Service    string `gorm:"type:text"`        // Service label.

	RatePerGB      *float64 `gorm:"type:decimal(12,4)"`            // Price per gigabyte.
	RatePerRequest *float64 `gorm:"type:decimal(12,6)"`            // Price per request.
	Currency       string   `gorm:"type:text;not null;default:USD"` // ISO currency code.

	CreatedAt time.Time `gorm:"not null;autoCreateTime"` // Creation timestamp.
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime"` // Last update timestamp.
}
