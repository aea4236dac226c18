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

// ServiceHandler manages the per-vendor service catalog.
type ServiceHandler struct {
	db *gorm.DB // Database handle for service records.
}

// NewServiceHandler constructs a service handler.
func NewServiceHandler(db *gorm.DB) *ServiceHandler {
	return &ServiceHandler{db: db}
}

// serviceRequest captures the payload for creating or updating a service.
type serviceRequest struct {
	VendorID    string `json:"vendor_id"`   // Owning vendor, required on create.
	Name        string `json:"name"`        // Display name, required on create.
	Slug        string `json:"slug"`        // Stable identifier.
	Description string `json:"description"` // Free-form description.
	Enabled     *bool  `json:"enabled"`     // Offered when true.
}

// List returns services optionally filtered by vendor.
func (h *ServiceHandler) List(c *gin.Context) {
	q := h.db.WithContext(c.Request.Context()).Model(&models.Service{})
	if vendorQ := strings.TrimSpace(c.Query("vendor_id")); vendorQ != "" {
		q = q.Where("vendor_id = ?", vendorQ)
	}

	var rows []models.Service
	if errFind := q.Order("created_at ASC").Find(&rows).Error; errFind != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "list services failed"})
		return
	}

	out := make([]gin.H, 0, len(rows))
	for i := range rows {
		out = append(out, serviceRow(&rows[i]))
	}
	c.JSON(http.StatusOK, gin.H{"services": out})
}

// Create validates and inserts a new service.
func (h *ServiceHandler) Create(c *gin.Context) {
	var body serviceRequest
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	if strings.TrimSpace(body.VendorID) == "" || strings.TrimSpace(body.Name) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "vendor_id and name are required"})
		return
	}

	enabled := true
	if body.Enabled != nil {
		enabled = *body.Enabled
	}
	now := time.Now().UTC()
	row := models.Service{
		VendorID:    strings.TrimSpace(body.VendorID),
		Name:        strings.TrimSpace(body.Name),
		Slug:        strings.TrimSpace(body.Slug),
		Description: body.Description,
		Enabled:     enabled,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if errCreate := h.db.WithContext(c.Request.Context()).Create(&row).Error; errCreate != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "create service failed"})
		return
	}

	c.JSON(http.StatusCreated, serviceRow(&row))
}

// Update modifies an existing service by ID.
func (h *ServiceHandler) Update(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	var row models.Service
	if errFind := h.db.WithContext(c.Request.Context()).First(&row, "id = ?", id).Error; errFind != nil {
		if errors.Is(errFind, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "service not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "fetch service failed"})
		return
	}

	var body serviceRequest
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}

	if name := strings.TrimSpace(body.Name); name != "" {
		row.Name = name
	}
	if slug := strings.TrimSpace(body.Slug); slug != "" {
		row.Slug = slug
	}
	if body.Description != "" {
		row.Description = body.Description
	}
	if body.Enabled != nil {
		row.Enabled = *body.Enabled
	}

	row.UpdatedAt = time.Now().UTC()
	if errSave := h.db.WithContext(c.Request.Context()).Save(&row).Error; errSave != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "update service failed"})
		return
	}

	c.JSON(http.StatusOK, serviceRow(&row))
}

// Delete removes a service by ID.
func (h *ServiceHandler) Delete(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	if errDelete := h.db.WithContext(c.Request.Context()).Delete(&models.Service{}, "id = ?", id).Error; errDelete != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "delete service failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"deleted": true})
}

// serviceRow converts a service model into a response payload.
func serviceRow(row *models.Service) gin.H {
	if row == nil {
		return gin.H{}
	}
	return gin.H{
		"id":          row.ID,
		"vendor_id":   row.VendorID,
		"name":        row.Name,
		"slug":        row.Slug,
		"description": row.Description,
		"enabled":     row.Enabled,
		"created_at":  row.CreatedAt,
		"updated_at":  row.UpdatedAt,
	}
}
