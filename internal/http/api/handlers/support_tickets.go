package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/proxydash/proxydash/internal/models"
)

// SupportTicketHandler manages customer support tickets.
type SupportTicketHandler struct {
	db *gorm.DB // Database handle for ticket records.
}

// NewSupportTicketHandler constructs a support ticket handler.
func NewSupportTicketHandler(db *gorm.DB) *SupportTicketHandler {
	return &SupportTicketHandler{db: db}
}

// supportTicketRequest captures the payload for creating or updating a ticket.
type supportTicketRequest struct {
	CustomerID    *uint64 `json:"customer_id"`    // Raising customer, when known.
	CustomerEmail string  `json:"customer_email"` // Raising customer email.
	CustomerName  string  `json:"customer_name"`  // Raising customer name.
	VendorID      string  `json:"vendor_id"`      // Affected vendor.
	VendorName    string  `json:"vendor_name"`    // Affected vendor name.
	ServiceID     *uint64 `json:"service_id"`     // Affected service, when known.
	ServiceName   string  `json:"service_name"`   // Affected service name.
	IssueDetails  string  `json:"issue_details"`  // Problem description.
	Status        string  `json:"status"`         // Ticket status.
}

// List returns tickets optionally filtered by customer and status.
func (h *SupportTicketHandler) List(c *gin.Context) {
	q := h.db.WithContext(c.Request.Context()).Model(&models.SupportTicket{})
	if emailQ := strings.ToLower(strings.TrimSpace(c.Query("customer_email"))); emailQ != "" {
		q = q.Where("customer_email = ?", emailQ)
	}
	if statusQ := strings.TrimSpace(c.Query("status")); statusQ != "" {
		q = q.Where("status = ?", statusQ)
	}

	var rows []models.SupportTicket
	if errFind := q.Order("created_at DESC").Find(&rows).Error; errFind != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "list tickets failed"})
		return
	}

	out := make([]gin.H, 0, len(rows))
	for i := range rows {
		out = append(out, supportTicketRow(&rows[i]))
	}
	c.JSON(http.StatusOK, gin.H{"tickets": out})
}

// Create validates and inserts a new ticket with a generated number.
func (h *SupportTicketHandler) Create(c *gin.Context) {
	var body supportTicketRequest
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	if strings.TrimSpace(body.IssueDetails) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "issue_details is required"})
		return
	}

	now := time.Now().UTC()
	row := models.SupportTicket{
		TicketNumber:  newTicketNumber(now),
		CustomerID:    body.CustomerID,
		CustomerEmail: strings.ToLower(strings.TrimSpace(body.CustomerEmail)),
		CustomerName:  body.CustomerName,
		VendorID:      strings.TrimSpace(body.VendorID),
		VendorName:    body.VendorName,
		ServiceID:     body.ServiceID,
		ServiceName:   body.ServiceName,
		IssueDetails:  body.IssueDetails,
		Status:        models.TicketStatusOpen,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	if errCreate := h.db.WithContext(c.Request.Context()).Create(&row).Error; errCreate != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "create ticket failed"})
		return
	}

	c.JSON(http.StatusCreated, supportTicketRow(&row))
}

// Update modifies an existing ticket by ID.
func (h *SupportTicketHandler) Update(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	var row models.SupportTicket
	if errFind := h.db.WithContext(c.Request.Context()).First(&row, "id = ?", id).Error; errFind != nil {
		if errors.Is(errFind, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "ticket not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "fetch ticket failed"})
		return
	}

	var body supportTicketRequest
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}

	if body.IssueDetails != "" {
		row.IssueDetails = body.IssueDetails
	}
	if status := strings.TrimSpace(body.Status); status != "" {
		if !validTicketStatus(status) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid status"})
			return
		}
		row.Status = status
	}

	row.UpdatedAt = time.Now().UTC()
	if errSave := h.db.WithContext(c.Request.Context()).Save(&row).Error; errSave != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "update ticket failed"})
		return
	}

	c.JSON(http.StatusOK, supportTicketRow(&row))
}

// Delete removes a ticket by ID.
func (h *SupportTicketHandler) Delete(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	if errDelete := h.db.WithContext(c.Request.Context()).Delete(&models.SupportTicket{}, "id = ?", id).Error; errDelete != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "delete ticket failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"deleted": true})
}

// newTicketNumber generates a unique ticket number.
func newTicketNumber(now time.Time) string {
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:6])
	return fmt.Sprintf("TKT-%s-%s", now.Format("20060102"), suffix)
}

// validTicketStatus reports whether the status is one of the known values.
func validTicketStatus(status string) bool {
	switch status {
	case models.TicketStatusOpen, models.TicketStatusInProgress, models.TicketStatusClosed:
		return true
	default:
		return false
	}
}

// supportTicketRow converts a ticket model into a response payload.
func supportTicketRow(row *models.SupportTicket) gin.H {
	if row == nil {
		return gin.H{}
	}
	return gin.H{
		"id":             row.ID,
		"ticket_number":  row.TicketNumber,
		"customer_id":    row.CustomerID,
		"customer_email": row.CustomerEmail,
		"customer_name":  row.CustomerName,
		"vendor_id":      row.VendorID,
		"vendor_name":    row.VendorName,
		"service_id":     row.ServiceID,
		"service_name":   row.ServiceName,
		"issue_details":  row.IssueDetails,
		"status":         row.Status,
		"created_at":     row.CreatedAt,
		"updated_at":     row.UpdatedAt,
	}
}
