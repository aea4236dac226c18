package models

import "time"

// BillingDetail holds invoicing details for one customer; at most one row per
// customer email, maintained by upsert.
type BillingDetail struct {
	ID uint64 `gorm:"primaryKey;autoIncrement"` // Primary key.

	CustomerEmail string `gorm:"type:text;not null;uniqueIndex"` // Owning customer.

	CompanyName  string `gorm:"type:text"` // Billed company name.
	AddressLine1 string `gorm:"type:text"` // Street address.
	AddressLine2 string `gorm:"type:text"` // Street address, continued.
	City         string `gorm:"type:text"` // City.
	State        string `gorm:"type:text"` // State or province.
	PostalCode   string `gorm:"type:text"` // Postal code.
	Country      string `gorm:"type:text"` // Country.
	TaxID        string `gorm:"type:text"` // VAT or tax identifier.

	CreatedAt time.Time `gorm:"not null;autoCreateTime"` // Creation timestamp.
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime"` // Last update timestamp.
}
