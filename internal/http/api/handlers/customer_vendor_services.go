package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/proxydash/proxydash/internal/models"
)

// CustomerVendorServiceHandler manages customer-to-vendor-service bindings.
type CustomerVendorServiceHandler struct {
	db *gorm.DB // Database handle for binding records.
}

// NewCustomerVendorServiceHandler constructs a binding handler.
func NewCustomerVendorServiceHandler(db *gorm.DB) *CustomerVendorServiceHandler {
	return &CustomerVendorServiceHandler{db: db}
}

// customerVendorServiceRequest captures the payload for creating a binding.
type customerVendorServiceRequest struct {
	CustomerEmail string `json:"customer_email"` // Bound customer, required.
	VendorID      string `json:"vendor_id"`      // Bound vendor, required.
	ServiceID     uint64 `json:"service_id"`     // Bound service, required.
	SubuserID     string `json:"subuser_id"`     // Vendor-side sub-account.
}

// List returns bindings optionally filtered by customer and vendor.
func (h *CustomerVendorServiceHandler) List(c *gin.Context) {
	q := h.db.WithContext(c.Request.Context()).Model(&models.CustomerVendorService{})
	if emailQ := strings.ToLower(strings.TrimSpace(c.Query("customer_email"))); emailQ != "" {
		q = q.Where("customer_email = ?", emailQ)
	}
	if vendorQ := strings.TrimSpace(c.Query("vendor_id")); vendorQ != "" {
		q = q.Where("vendor_id = ?", vendorQ)
	}

	var rows []models.CustomerVendorService
	if errFind := q.Order("created_at ASC").Find(&rows).Error; errFind != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "list bindings failed"})
		return
	}

	out := make([]gin.H, 0, len(rows))
	for i := range rows {
		out = append(out, customerVendorServiceRow(&rows[i]))
	}
	c.JSON(http.StatusOK, gin.H{"bindings": out})
}

// Create validates and inserts a new binding.
func (h *CustomerVendorServiceHandler) Create(c *gin.Context) {
	var body customerVendorServiceRequest
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}

	email := strings.ToLower(strings.TrimSpace(body.CustomerEmail))
	vendorID := strings.TrimSpace(body.VendorID)
	if email == "" || vendorID == "" || body.ServiceID == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "customer_email, vendor_id and service_id are required"})
		return
	}

	now := time.Now().UTC()
	row := models.CustomerVendorService{
		CustomerEmail: email,
		VendorID:      vendorID,
		ServiceID:     body.ServiceID,
		SubuserID:     strings.TrimSpace(body.SubuserID),
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	if errCreate := h.db.WithContext(c.Request.Context()).Create(&row).Error; errCreate != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "create binding failed"})
		return
	}

	c.JSON(http.StatusCreated, customerVendorServiceRow(&row))
}

// Delete removes a binding by ID.
func (h *CustomerVendorServiceHandler) Delete(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	if errDelete := h.db.WithContext(c.Request.Context()).Delete(&models.CustomerVendorService{}, "id = ?", id).Error; errDelete != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "delete binding failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"deleted": true})
}

// customerVendorServiceRow converts a binding model into a response payload.
func customerVendorServiceRow(row *models.CustomerVendorService) gin.H {
	if row == nil {
		return gin.H{}
	}
	return gin.H{
		"id":             row.ID,
		"customer_email": row.CustomerEmail,
		"vendor_id":      row.VendorID,
		"service_id":     row.ServiceID,
		"subuser_id":     row.SubuserID,
		"created_at":     row.CreatedAt,
		"updated_at":     row.UpdatedAt,
	}
}
