package handlers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/proxydash/proxydash/internal/models"
)

// CustomerPaymentHandler manages monthly payment records.
type CustomerPaymentHandler struct {
	db *gorm.DB // Database handle for payment records.
}

// NewCustomerPaymentHandler constructs a customer payment handler.
func NewCustomerPaymentHandler(db *gorm.DB) *CustomerPaymentHandler {
	return &CustomerPaymentHandler{db: db}
}

// customerPaymentRequest captures the payload for creating or updating a
// payment record.
type customerPaymentRequest struct {
	CustomerEmail string   `json:"customer_email"` // Paying customer, required on create.
	VendorID      *string  `json:"vendor_id"`      // Vendor scope.
	Service       *string  `json:"service"`        // Service label.
	Month         string   `json:"month"`          // Billing month, YYYY-MM, required on create.
	Amount        *float64 `json:"amount"`         // Payment amount.
	Currency      string   `json:"currency"`       // ISO currency code.
	PaymentStatus string   `json:"payment_status"` // Payment status.
}

// List returns payments filtered by customer, vendor, month, and status.
func (h *CustomerPaymentHandler) List(c *gin.Context) {
	q := h.db.WithContext(c.Request.Context()).Model(&models.CustomerPayment{})
	if emailQ := strings.ToLower(strings.TrimSpace(c.Query("customer_email"))); emailQ != "" {
		q = q.Where("customer_email = ?", emailQ)
	}
	if vendorQ := strings.TrimSpace(c.Query("vendor_id")); vendorQ != "" {
		q = q.Where("vendor_id = ?", vendorQ)
	}
	if monthQ := strings.TrimSpace(c.Query("month")); monthQ != "" {
		q = q.Where("month = ?", monthQ)
	}
	if statusQ := strings.TrimSpace(c.Query("payment_status")); statusQ != "" {
		q = q.Where("payment_status = ?", statusQ)
	}

	var rows []models.CustomerPayment
	if errFind := q.Order("month DESC, created_at DESC").Find(&rows).Error; errFind != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "list payments failed"})
		return
	}

	out := make([]gin.H, 0, len(rows))
	for i := range rows {
		out = append(out, customerPaymentRow(&rows[i]))
	}
	c.JSON(http.StatusOK, gin.H{"payments": out})
}

// Create validates and inserts a new payment record.
func (h *CustomerPaymentHandler) Create(c *gin.Context) {
	var body customerPaymentRequest
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}

	email := strings.ToLower(strings.TrimSpace(body.CustomerEmail))
	month := strings.TrimSpace(body.Month)
	if email == "" || month == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "customer_email and month are required"})
		return
	}
	if _, errParse := time.Parse("2006-01", month); errParse != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid month"})
		return
	}

	status := strings.TrimSpace(body.PaymentStatus)
	if status == "" {
		status = models.PaymentStatusPending
	}
	if !validPaymentStatus(status) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payment_status"})
		return
	}

	now := time.Now().UTC()
	row := models.CustomerPayment{
		CustomerEmail: email,
		Month:         month,
		Currency:      "USD",
		PaymentStatus: status,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if body.VendorID != nil {
		row.VendorID = *body.VendorID
	}
	if body.Service != nil {
		row.Service = *body.Service
	}
	if body.Amount != nil {
		row.Amount = *body.Amount
	}
	if body.Currency != "" {
		row.Currency = body.Currency
	}
	if status == models.PaymentStatusPaid {
		row.PaidAt = &now
	}

	if errCreate := h.db.WithContext(c.Request.Context()).Create(&row).Error; errCreate != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "create payment failed"})
		return
	}

	c.JSON(http.StatusCreated, customerPaymentRow(&row))
}

// Update modifies an existing payment record by ID.
func (h *CustomerPaymentHandler) Update(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	var row models.CustomerPayment
	if errFind := h.db.WithContext(c.Request.Context()).First(&row, "id = ?", id).Error; errFind != nil {
		if errors.Is(errFind, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "payment not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "fetch payment failed"})
		return
	}

	var body customerPaymentRequest
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}

	if body.VendorID != nil {
		row.VendorID = *body.VendorID
	}
	if body.Service != nil {
		row.Service = *body.Service
	}
	if body.Amount != nil {
		row.Amount = *body.Amount
	}
	if body.Currency != "" {
		row.Currency = body.Currency
	}
	if status := strings.TrimSpace(body.PaymentStatus); status != "" {
		if !validPaymentStatus(status) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payment_status"})
			return
		}
		if status == models.PaymentStatusPaid && row.PaymentStatus != models.PaymentStatusPaid {
			now := time.Now().UTC()
			row.PaidAt = &now
		}
		row.PaymentStatus = status
	}

	row.UpdatedAt = time.Now().UTC()
	if errSave := h.db.WithContext(c.Request.Context()).Save(&row).Error; errSave != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "update payment failed"})
		return
	}

	c.JSON(http.StatusOK, customerPaymentRow(&row))
}

// Delete removes a payment record by ID.
func (h *CustomerPaymentHandler) Delete(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	if errDelete := h.db.WithContext(c.Request.Context()).Delete(&models.CustomerPayment{}, "id = ?", id).Error; errDelete != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "delete payment failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"deleted": true})
}

// validPaymentStatus reports whether the status is one of the known values.
func validPaymentStatus(status string) bool {
	switch status {
	case models.PaymentStatusPending, models.PaymentStatusPaid, models.PaymentStatusOverdue:
		return true
	default:
		return false
	}
}

// customerPaymentRow converts a payment model into a response payload.
func customerPaymentRow(row *models.CustomerPayment) gin.H {
	if row == nil {
		return gin.H{}
	}
	return gin.H{
		"id":             row.ID,
		"customer_email": row.CustomerEmail,
		"vendor_id":      row.VendorID,
		"service":        row.Service,
		"month":          row.Month,
		"amount":         row.Amount,
		"currency":       row.Currency,
		"payment_status": row.PaymentStatus,
		"paid_at":        row.PaidAt,
		"created_at":     row.CreatedAt,
		"updated_at":     row.UpdatedAt,
	}
}
