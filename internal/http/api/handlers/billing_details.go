package handlers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/proxydash/proxydash/internal/models"
)

// BillingDetailHandler manages per-customer invoicing details. Each customer
// has at most one record, maintained by upsert.
type BillingDetailHandler struct {
	db *gorm.DB // Database handle for billing detail records.
}

// NewBillingDetailHandler constructs a billing detail handler.
func NewBillingDetailHandler(db *gorm.DB) *BillingDetailHandler {
	return &BillingDetailHandler{db: db}
}

// billingDetailRequest captures the upsert payload.
type billingDetailRequest struct {
	CustomerEmail string `json:"customer_email"` // Owning customer, required.
	CompanyName   string `json:"company_name"`   // Billed company name.
	AddressLine1  string `json:"address_line1"`  // Street address.
	AddressLine2  string `json:"address_line2"`  // Street address, continued.
	City          string `json:"city"`           // City.
	State         string `json:"state"`          // State or province.
	PostalCode    string `json:"postal_code"`    // Postal code.
	Country       string `json:"country"`        // Country.
	TaxID         string `json:"tax_id"`         // VAT or tax identifier.
}

// Get returns billing details for a customer email.
func (h *BillingDetailHandler) Get(c *gin.Context) {
	email := strings.ToLower(strings.TrimSpace(c.Query("customer_email")))
	if email == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "customer_email is required"})
		return
	}

	var row models.BillingDetail
	if errFind := h.db.WithContext(c.Request.Context()).First(&row, "customer_email = ?", email).Error; errFind != nil {
		if errors.Is(errFind, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "billing details not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "fetch billing details failed"})
		return
	}

	c.JSON(http.StatusOK, billingDetailRow(&row))
}

// Upsert creates or replaces billing details for a customer email.
func (h *BillingDetailHandler) Upsert(c *gin.Context) {
	var body billingDetailRequest
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}

	email := strings.ToLower(strings.TrimSpace(body.CustomerEmail))
	if email == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "customer_email is required"})
		return
	}

	now := time.Now().UTC()
	row := models.BillingDetail{
		CustomerEmail: email,
		CompanyName:   body.CompanyName,
		AddressLine1:  body.AddressLine1,
		AddressLine2:  body.AddressLine2,
		City:          body.City,
		State:         body.State,
		PostalCode:    body.PostalCode,
		Country:       body.Country,
		TaxID:         body.TaxID,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	errUpsert := h.db.WithContext(c.Request.Context()).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "customer_email"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"company_name", "address_line1", "address_line2", "city",
			"state", "postal_code", "country", "tax_id", "updated_at",
		}),
	}).Create(&row).Error
	if errUpsert != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "save billing details failed"})
		return
	}

	if errFind := h.db.WithContext(c.Request.Context()).First(&row, "customer_email = ?", email).Error; errFind != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "fetch billing details failed"})
		return
	}
	c.JSON(http.StatusOK, billingDetailRow(&row))
}

// billingDetailRow converts a billing detail model into a response payload.
func billingDetailRow(row *models.BillingDetail) gin.H {
	if row == nil {
		return gin.H{}
	}
	return gin.H{
		"id":             row.ID,
		"customer_email": row.CustomerEmail,
		"company_name":   row.CompanyName,
		"address_line1":  row.AddressLine1,
		"address_line2":  row.AddressLine2,
		"city":           row.City,
		"state":          row.State,
		"postal_code":    row.PostalCode,
		"country":        row.Country,
		"tax_id":         row.TaxID,
		"created_at":     row.CreatedAt,
		"updated_at":     row.UpdatedAt,
	}
}
