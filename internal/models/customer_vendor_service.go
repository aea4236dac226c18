package models

import "time"

// CustomerVendorService binds a customer to a vendor service through the
// vendor-side subuser account used to scope usage queries.
type CustomerVendorService struct {
	ID uint64 `gorm:"primaryKey;autoIncrement"` // Primary key.

	CustomerEmail string `gorm:"type:text;not null;index:idx_cvs_binding,unique"` // Bound customer.
	VendorID      string `gorm:"type:text;not null;index:idx_cvs_binding,unique"` // Bound vendor.
	ServiceID     uint64 `gorm:"not null;index:idx_cvs_binding,unique"`           // Bound service.
	SubuserID     string `gorm:"type:text"`                                       // Vendor-side sub-account.

	CreatedAt time.Time `gorm:"not null;autoCreateTime"` // Creation timestamp.
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime"` // Last update timestamp.
}
