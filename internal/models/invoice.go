package models

import "time"

// Invoice statuses.
const (
	// InvoiceStatusDraft marks an invoice not yet sent.
	InvoiceStatusDraft = "draft"
	// InvoiceStatusSent marks an invoice delivered to the customer.
	InvoiceStatusSent = "sent"
	// InvoiceStatusPaid marks a settled invoice.
	InvoiceStatusPaid = "paid"
)

// Invoice is a billing document issued to a customer.
type Invoice struct {
	ID uint64 `gorm:"primaryKey;autoIncrement"` // Primary key.

	InvoiceNumber string `gorm:"type:text;not null;uniqueIndex"` // Generated invoice number.
	CustomerEmail string `gorm:"type:text;not null;index"`       // Billed customer.

	InvoiceDate time.Time  `gorm:"not null;index"` // Issue date.
	DueDate     *time.Time ``                      // Optional due date.

	Amount   float64 `gorm:"type:decimal(12,2);not null;default:0"` // Invoice total.
	Currency string  `gorm:"type:text;not null;default:USD"`        // ISO currency code.
	Status   string  `gorm:"type:text;not null;default:draft"`      // Invoice status.
	Notes    string  `gorm:"type:text"`                             // Free-form notes.

	CreatedAt time.Time `gorm:"not null;autoCreateTime"` // Creation timestamp.
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime"` // Last update timestamp.
}
