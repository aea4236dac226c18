package models

import "time"

// Customer roles.
const (
	// RoleAdmin grants access to admin endpoints.
	RoleAdmin = "admin"
	// RoleCustomer is the default dashboard role.
	RoleCustomer = "customer"
)

// Customer is a reseller end customer and dashboard account.
type Customer struct {
	ID uint64 `gorm:"primaryKey;autoIncrement"` // Primary key.

	Email        string `gorm:"type:text;not null;uniqueIndex"` // Login identifier.
	CustomerName string `gorm:"type:text"`                      // Display name.
	Role         string `gorm:"type:text;not null;default:customer"` // admin or customer.
	Password     string `gorm:"type:text"`                      // bcrypt hash.

	// Legacy single-vendor binding, superseded by CustomerVendorService rows.
	VendorID  string `gorm:"type:text;index"` // Bound vendor id.
	SubuserID string `gorm:"type:text"`       // Vendor-side sub-account.
	Service   string `gorm:"type:text"`       // Bound service label.

	CreatedAt time.Time `gorm:"not null;autoCreateTime"` // Creation timestamp.
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime"` // Last update timestamp.
}
