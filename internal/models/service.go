package models

import "time"

// Service is one product offered by a vendor (e.g. residential, mobile).
type Service struct {
	ID uint64 `gorm:"primaryKey;autoIncrement"` // Primary key.

	VendorID    string `gorm:"type:text;not null;index"` // Owning vendor.
	Name        string `gorm:"type:text;not null"`       // Display name.
	Slug        string `gorm:"type:text;index"`          // Stable identifier.
	Description string `gorm:"type:text"`                // Free-form description.
	Enabled     bool   `gorm:"not null;default:true"`    // Offered when true.

	CreatedAt time.Time `gorm:"not null;autoCreateTime"` // Creation timestamp.
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime"` // Last update timestamp.
}
