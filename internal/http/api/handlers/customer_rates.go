package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/proxydash/proxydash/internal/models"
)

// CustomerRateHandler manages per-customer pricing CRUD endpoints.
type CustomerRateHandler struct {
	db *gorm.DB // Database handle for rate records.
}

// NewCustomerRateHandler constructs a customer rate handler.
func NewCustomerRateHandler(db *gorm.DB) *CustomerRateHandler {
	return &CustomerRateHandler{db: db}
}

// customerRateRequest captures the payload for creating or updating a rate.
type customerRateRequest struct {
	CustomerID     *uint64  `json:"customer_id"`      // Customer scope, required on create.
	VendorID       *string  `json:"vendor_id"`        // Vendor scope.
	Service        *string  `json:"service"`          // Service label.
	RatePerGB      *float64 `json:"rate_per_gb"`      // Price per gigabyte.
	RatePerRequest *float64 `json:"rate_per_request"` // Price per request.
	Currency       *string  `json:"currency"`         // ISO currency code.
}

// List returns rates optionally filtered by customer and vendor.
func (h *CustomerRateHandler) List(c *gin.Context) {
	q := h.db.WithContext(c.Request.Context()).Model(&models.CustomerRate{})
	if customerQ := strings.TrimSpace(c.Query("customer_id")); customerQ != "" {
		customerID, errParse := strconv.ParseUint(customerQ, 10, 64)
		if errParse != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid customer_id"})
			return
		}
		q = q.Where("customer_id = ?", customerID)
	}
	if vendorQ := strings.TrimSpace(c.Query("vendor_id")); vendorQ != "" {
		q = q.Where("vendor_id = ?", vendorQ)
	}

	var rows []models.CustomerRate
	if errFind := q.Order("created_at DESC").Find(&rows).Error; errFind != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "list rates failed"})
		return
	}

	out := make([]gin.H, 0, len(rows))
	for i := range rows {
		out = append(out, customerRateRow(&rows[i]))
	}
	c.JSON(http.StatusOK, gin.H{"rates": out})
}

// Create validates and inserts a new rate.
func (h *CustomerRateHandler) Create(c *gin.Context) {
	var body customerRateRequest
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	if body.CustomerID == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "customer_id is required"})
		return
	}
	if body.RatePerGB == nil && body.RatePerRequest == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "rate_per_gb or rate_per_request is required"})
		return
	}

	now := time.Now().UTC()
	row := models.CustomerRate{
		CustomerID:     *body.CustomerID,
		RatePerGB:      body.RatePerGB,
		RatePerRequest: body.RatePerRequest,
		Currency:       "USD",
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if body.VendorID != nil {
		row.VendorID = *body.VendorID
	}
	if body.Service != nil {
		row.Service = *body.Service
	}
	if body.Currency != nil && *body.Currency != "" {
		row.Currency = *body.Currency
	}

	if errCreate := h.db.WithContext(c.Request.Context()).Create(&row).Error; errCreate != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "create rate failed"})
		return
	}

	c.JSON(http.StatusCreated, customerRateRow(&row))
}

// Update modifies an existing rate by ID.
func (h *CustomerRateHandler) Update(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	var row models.CustomerRate
	if errFind := h.db.WithContext(c.Request.Context()).First(&row, "id = ?", id).Error; errFind != nil {
		if errors.Is(errFind, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "rate not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "fetch rate failed"})
		return
	}

	var body customerRateRequest
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
	if body.RatePerGB != nil {
		row.RatePerGB = body.RatePerGB
	}
	if body.RatePerRequest != nil {
		row.RatePerRequest = body.RatePerRequest
	}
	if body.Currency != nil && *body.Currency != "" {
		row.Currency = *body.Currency
	}

	row.UpdatedAt = time.Now().UTC()
	if errSave := h.db.WithContext(c.Request.Context()).Save(&row).Error; errSave != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "update rate failed"})
		return
	}

	c.JSON(http.StatusOK, customerRateRow(&row))
}

// Delete removes a rate by ID.
func (h *CustomerRateHandler) Delete(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	if errDelete := h.db.WithContext(c.Request.Context()).Delete(&models.CustomerRate{}, "id = ?", id).Error; errDelete != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "delete rate failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"deleted": true})
}

// customerRateRow converts a rate model into a response payload.
func customerRateRow(row *models.CustomerRate) gin.H {
	if row == nil {
		return gin.H{}
	}
	return gin.H{
		"id":               row.ID,
		"customer_id":      row.CustomerID,
		"vendor_id":        row.VendorID,
		"service":          row.Service,
		"rate_per_gb":      row.RatePerGB,
		"rate_per_request": row.RatePerRequest,
		"currency":         row.Currency,
		"created_at":       row.CreatedAt,
		"updated_at":       row.UpdatedAt,
	}
}
