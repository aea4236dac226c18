package handlers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	dbutil "github.com/proxydash/proxydash/internal/db"
	"github.com/proxydash/proxydash/internal/models"
	"github.com/proxydash/proxydash/internal/security"
)

// CustomerHandler manages customer account CRUD endpoints.
type CustomerHandler struct {
	db *gorm.DB // Database handle for customer records.
}

// NewCustomerHandler constructs a customer handler.
func NewCustomerHandler(db *gorm.DB) *CustomerHandler {
	return &CustomerHandler{db: db}
}

// customerRequest captures the payload for creating or updating a customer.
type customerRequest struct {
	Email        string  `json:"email"`         // Login identifier.
	CustomerName string  `json:"customer_name"` // Display name.
	Role         string  `json:"role"`          // admin or customer.
	Password     string  `json:"password"`      // Plaintext password, hashed before storage.
	VendorID     *string `json:"vendor_id"`     // Legacy single-vendor binding.
	SubuserID    *string `json:"subuser_id"`    // Vendor-side sub-account.
	Service      *string `json:"service"`       // Bound service label.
}

// List returns customers filtered by keyword.
func (h *CustomerHandler) List(c *gin.Context) {
	keywordQ := strings.TrimSpace(c.Query("keyword"))

	q := h.db.WithContext(c.Request.Context()).Model(&models.Customer{})
	if keywordQ != "" {
		pattern := dbutil.NormalizeLikePattern(h.db, "%"+keywordQ+"%")
		q = q.Where(
			h.db.Where(dbutil.CaseInsensitiveLikeExpr(h.db, "email"), pattern).
				Or(dbutil.CaseInsensitiveLikeExpr(h.db, "customer_name"), pattern),
		)
	}

	var rows []models.Customer
	if errFind := q.Order("created_at DESC").Find(&rows).Error; errFind != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "list customers failed"})
		return
	}

	out := make([]gin.H, 0, len(rows))
	for i := range rows {
		out = append(out, customerRow(&rows[i]))
	}
	c.JSON(http.StatusOK, gin.H{"customers": out})
}

// Get returns one customer by ID.
func (h *CustomerHandler) Get(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	var row models.Customer
	if errFind := h.db.WithContext(c.Request.Context()).First(&row, "id = ?", id).Error; errFind != nil {
		if errors.Is(errFind, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "customer not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "fetch customer failed"})
		return
	}

	c.JSON(http.StatusOK, customerRow(&row))
}

// Create validates and inserts a new customer.
func (h *CustomerHandler) Create(c *gin.Context) {
	var body customerRequest
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}

	email := strings.ToLower(strings.TrimSpace(body.Email))
	if email == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "email is required"})
		return
	}
	role := strings.TrimSpace(body.Role)
	if role == "" {
		role = models.RoleCustomer
	}
	if role != models.RoleCustomer && role != models.RoleAdmin {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid role"})
		return
	}

	now := time.Now().UTC()
	row := models.Customer{
		Email:        email,
		CustomerName: body.CustomerName,
		Role:         role,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if body.Password != "" {
		hash, errHash := security.HashPassword(body.Password)
		if errHash != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "create customer failed"})
			return
		}
		row.Password = hash
	}
	if body.VendorID != nil {
		row.VendorID = *body.VendorID
	}
	if body.SubuserID != nil {
		row.SubuserID = *body.SubuserID
	}
	if body.Service != nil {
		row.Service = *body.Service
	}

	if errCreate := h.db.WithContext(c.Request.Context()).Create(&row).Error; errCreate != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "create customer failed"})
		return
	}

	c.JSON(http.StatusCreated, customerRow(&row))
}

// Update modifies an existing customer.
func (h *CustomerHandler) Update(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	var row models.Customer
	if errFind := h.db.WithContext(c.Request.Context()).First(&row, "id = ?", id).Error; errFind != nil {
		if errors.Is(errFind, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "customer not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "fetch customer failed"})
		return
	}

	var body customerRequest
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}

	if email := strings.ToLower(strings.TrimSpace(body.Email)); email != "" {
		row.Email = email
	}
	if body.CustomerName != "" {
		row.CustomerName = body.CustomerName
	}
	if role := strings.TrimSpace(body.Role); role != "" {
		if role != models.RoleCustomer && role != models.RoleAdmin {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid role"})
			return
		}
		row.Role = role
	}
	if body.Password != "" {
		hash, errHash := security.HashPassword(body.Password)
		if errHash != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "update customer failed"})
			return
		}
		row.Password = hash
	}
	if body.VendorID != nil {
		row.VendorID = *body.VendorID
	}
	if body.SubuserID != nil {
		row.SubuserID = *body.SubuserID
	}
	if body.Service != nil {
		row.Service = *body.Service
	}

	row.UpdatedAt = time.Now().UTC()
	if errSave := h.db.WithContext(c.Request.Context()).Save(&row).Error; errSave != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "update customer failed"})
		return
	}

	c.JSON(http.StatusOK, customerRow(&row))
}

// Delete removes a customer by ID.
func (h *CustomerHandler) Delete(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	if errDelete := h.db.WithContext(c.Request.Context()).Delete(&models.Customer{}, "id = ?", id).Error; errDelete != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "delete customer failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"deleted": true})
}

// customerRow converts a customer model into a response payload. The password
// hash is never echoed back.
func customerRow(row *models.Customer) gin.H {
	if row == nil {
		return gin.H{}
	}
	return gin.H{
		"id":            row.ID,
		"email":         row.Email,
		"customer_name": row.CustomerName,
		"role":          row.Role,
		"vendor_id":     row.VendorID,
		"subuser_id":    row.SubuserID,
		"service":       row.Service,
		"created_at":    row.CreatedAt,
		"updated_at":    row.UpdatedAt,
	}
}
