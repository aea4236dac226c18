package models

import "time"

// Ticket statuses.
const (
	// TicketStatusOpen marks a ticket awaiting handling.
	TicketStatusOpen = "open"
	// TicketStatusInProgress marks a ticket being worked on.
	TicketStatusInProgress = "in_progress"
	// TicketStatusClosed marks a resolved ticket.
	TicketStatusClosed = "closed"
)

// SupportTicket is a customer-raised issue scoped to a vendor service.
type SupportTicket struct {
	ID uint64 `gorm:"primaryKey;autoIncrement"` // Primary key.

	TicketNumber string `gorm:"type:text;not null;uniqueIndex"` // Generated ticket number.

	CustomerID    *uint64 `gorm:"index"`           // Raising customer, when known.
	CustomerEmail string  `gorm:"type:text;index"` // Raising customer email.
	CustomerName  string  `gorm:"type:text"`       // Raising customer name.

	VendorID    string  `gorm:"type:text;index"` // Affected vendor.
	VendorName  string  `gorm:"type:text"`       // Affected vendor name.
	ServiceID   *uint64 `gorm:"index"`           // Affected service, when known.
	ServiceName string  `gorm:"type:text"`       // Affected service name.

	IssueDetails string `gorm:"type:text"`                      // Problem description.
	Status       string `gorm:"type:text;not null;default:open"` // Ticket status.

	CreatedAt time.Time `gorm:"not null;autoCreateTime"` // Creation timestamp.
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime"` // Last update timestamp.
}
