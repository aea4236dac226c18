package models

import "time"

// Payment statuses.
const (
	// PaymentStatusPending marks an expected but unsettled payment.
	PaymentStatusPending = "pending"
	// PaymentStatusPaid marks a settled payment.
	PaymentStatusPaid = "paid"
	// PaymentStatusOverdue marks a payment past its due date.
	PaymentStatusOverdue = "overdue"
)

// CustomerPayment records one monthly payment owed or settled by a customer
// for a vendor service.
type CustomerPayment struct {
	ID uint64 `gorm:"primaryKey;autoIncrement"` // Primary key.

	CustomerEmail string `gorm:"type:text;not null;index"` // Paying customer.
	VendorID      string `gorm:"type:text;index"`          // Vendor scope.
	Service       string `gorm:"type:text"`                // Service label.
	Month         string `gorm:"type:text;not null;index"` // Billing month, YYYY-MM.

	Amount        float64    `gorm:"type:decimal(12,2);not null;default:0"` // Payment amount.
	Currency      string     `gorm:"type:text;not null;default:USD"`        // ISO currency code.
	PaymentStatus string     `gorm:"type:text;not null;default:pending"`    // Payment status.
	PaidAt        *time.Time ``                                             // Settlement timestamp.

	CreatedAt time.Time `gorm:"not null;autoCreateTime"` // Creation timestamp.
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime"` // Last update timestamp.
}
