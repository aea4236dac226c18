package models

import "time"

// UsageSnapshot is one canonical usage row persisted by the background
// syncer, keyed by vendor, subuser, service, and period label.
type UsageSnapshot struct {
	ID uint64 `gorm:"primaryKey;autoIncrement"` // Primary key.

	VendorID  string `gorm:"type:text;not null;index:idx_usage_snapshot,unique"` // Source vendor.
	SubuserID string `gorm:"type:text;not null;index:idx_usage_snapshot,unique"` // Vendor-side sub-account.
	Service   string `gorm:"type:text;not null;index:idx_usage_snapshot,unique"` // Service label.
	Date      string `gorm:"type:text;not null;index:idx_usage_snapshot,unique"` // Vendor-reported period label.

	TrafficGB float64 `gorm:"not null;default:0"` // Traffic in gigabytes.
	Requests  int64   `gorm:"not null;default:0"` // Request count.

	FetchedAt time.Time `gorm:"not null"`                // Time of the last sync.
	CreatedAt time.Time `gorm:"not null;autoCreateTime"` // Creation timestamp.
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime"` // Last update timestamp.
}
