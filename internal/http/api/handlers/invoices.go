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

// InvoiceHandler manages invoice CRUD endpoints.
type InvoiceHandler struct {
	db *gorm.DB // Database handle for invoice records.
}

// NewInvoiceHandler constructs an invoice handler.
func NewInvoiceHandler(db *gorm.DB) *InvoiceHandler {
	return &InvoiceHandler{db: db}
}

// invoiceRequest captures the payload for creating or updating an invoice.
type invoiceRequest struct {
	CustomerEmail string   `json:"customer_email"` // Billed customer, required on create.
	InvoiceDate   string   `json:"invoice_date"`   // Issue date, YYYY-MM-DD.
	DueDate       string   `json:"due_date"`       // Optional due date, YYYY-MM-DD.
	Amount        *float64 `json:"amount"`         // Invoice total.
	Currency      string   `json:"currency"`       // ISO currency code.
	Status        string   `json:"status"`         // Invoice status.
	Notes         string   `json:"notes"`          // Free-form notes.
}

// List returns invoices optionally filtered by customer and status.
func (h *InvoiceHandler) List(c *gin.Context) {
	q := h.db.WithContext(c.Request.Context()).Model(&models.Invoice{})
	if emailQ := strings.ToLower(strings.TrimSpace(c.Query("customer_email"))); emailQ != "" {
		q = q.Where("customer_email = ?", emailQ)
	}
	if statusQ := strings.TrimSpace(c.Query("status")); statusQ != "" {
		q = q.Where("status = ?", statusQ)
	}

	var rows []models.Invoice
	if errFind := q.Order("invoice_date DESC").Find(&rows).Error; errFind != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "list invoices failed"})
		return
	}

	out := make([]gin.H, 0, len(rows))
	for i := range rows {
		out = append(out, invoiceRow(&rows[i]))
	}
	c.JSON(http.StatusOK, gin.H{"invoices": out})
}

// Get returns one invoice by ID.
func (h *InvoiceHandler) Get(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	var row models.Invoice
	if errFind := h.db.WithContext(c.Request.Context()).First(&row, "id = ?", id).Error; errFind != nil {
		if errors.Is(errFind, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "invoice not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "fetch invoice failed"})
		return
	}

	c.JSON(http.StatusOK, invoiceRow(&row))
}

// Create validates and inserts a new invoice with a generated number.
func (h *InvoiceHandler) Create(c *gin.Context) {
	var body invoiceRequest
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}

	email := strings.ToLower(strings.TrimSpace(body.CustomerEmail))
	if email == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "customer_email is required"})
		return
	}

	invoiceDate := time.Now().UTC()
	if body.InvoiceDate != "" {
		parsed, errParse := time.Parse("2006-01-02", body.InvoiceDate)
		if errParse != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid invoice_date"})
			return
		}
		invoiceDate = parsed
	}
	var dueDate *time.Time
	if body.DueDate != "" {
		parsed, errParse := time.Parse("2006-01-02", body.DueDate)
		if errParse != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid due_date"})
			return
		}
		dueDate = &parsed
	}

	status := strings.TrimSpace(body.Status)
	if status == "" {
		status = models.InvoiceStatusDraft
	}
	if !validInvoiceStatus(status) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid status"})
		return
	}

	now := time.Now().UTC()
	row := models.Invoice{
		InvoiceNumber: newInvoiceNumber(invoiceDate),
		CustomerEmail: email,
		InvoiceDate:   invoiceDate,
		DueDate:       dueDate,
		Currency:      "USD",
		Status:        status,
		Notes:         body.Notes,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if body.Amount != nil {
		row.Amount = *body.Amount
	}
	if body.Currency != "" {
		row.Currency = body.Currency
	}

	if errCreate := h.db.WithContext(c.Request.Context()).Create(&row).Error; errCreate != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "create invoice failed"})
		return
	}

	c.JSON(http.StatusCreated, invoiceRow(&row))
}

// Update modifies an existing invoice by ID.
func (h *InvoiceHandler) Update(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	var row models.Invoice
	if errFind := h.db.WithContext(c.Request.Context()).First(&row, "id = ?", id).Error; errFind != nil {
		if errors.Is(errFind, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "invoice not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "fetch invoice failed"})
		return
	}

	var body invoiceRequest
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}

	if body.DueDate != "" {
		parsed, errParse := time.Parse("2006-01-02", body.DueDate)
		if errParse != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid due_date"})
			return
		}
		row.DueDate = &parsed
	}
	if status := strings.TrimSpace(body.Status); status != "" {
		if !validInvoiceStatus(status) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid status"})
			return
		}
		row.Status = status
	}
	if body.Amount != nil {
		row.Amount = *body.Amount
	}
	if body.Currency != "" {
		row.Currency = body.Currency
	}
	if body.Notes != "" {
		row.Notes = body.Notes
	}

	row.UpdatedAt = time.Now().UTC()
	if errSave := h.db.WithContext(c.Request.Context()).Save(&row).Error; errSave != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "update invoice failed"})
		return
	}

	c.JSON(http.StatusOK, invoiceRow(&row))
}

// Delete removes an invoice by ID.
func (h *InvoiceHandler) Delete(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	if errDelete := h.db.WithContext(c.Request.Context()).Delete(&models.Invoice{}, "id = ?", id).Error; errDelete != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "delete invoice failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"deleted": true})
}

// newInvoiceNumber generates a unique invoice number for the issue date.
func newInvoiceNumber(invoiceDate time.Time) string {
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:8])
	return fmt.Sprintf("INV-%s-%s", invoiceDate.Format("200601"), suffix)
}

// validInvoiceStatus reports whether the status is one of the known values.
func validInvoiceStatus(status string) bool {
	switch status {
	case models.InvoiceStatusDraft, models.InvoiceStatusSent, models.InvoiceStatusPaid:
		return true
	default:
		return false
	}
}

// invoiceRow converts an invoice model into a response payload.
func invoiceRow(row *models.Invoice) gin.H {
	if row == nil {
		return gin.H{}
	}
	return gin.H{
		"id":             row.ID,
		"invoice_number": row.InvoiceNumber,
		"customer_email": row.CustomerEmail,
		"invoice_date":   row.InvoiceDate,
		"due_date":       row.DueDate,
		"amount":         row.Amount,
		"currency":       row.Currency,
		"status":         row.Status,
		"notes":          row.Notes,
		"created_at":     row.CreatedAt,
		"updated_at":     row.UpdatedAt,
	}
}
