package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/proxydash/proxydash/internal/models"
)

// UsageSnapshotHandler serves usage rows persisted by the background syncer.
type UsageSnapshotHandler struct {
	db *gorm.DB // Database handle for snapshot records.
}

// NewUsageSnapshotHandler constructs a usage snapshot handler.
func NewUsageSnapshotHandler(db *gorm.DB) *UsageSnapshotHandler {
	return &UsageSnapshotHandler{db: db}
}

// List returns snapshots filtered by vendor, subuser, and service.
func (h *UsageSnapshotHandler) List(c *gin.Context) {
	q := h.db.WithContext(c.Request.Context()).Model(&models.UsageSnapshot{})
	if vendorQ := strings.TrimSpace(c.Query("vendor_id")); vendorQ != "" {
		q = q.Where("vendor_id = ?", vendorQ)
	}
	if subuserQ := strings.TrimSpace(c.Query("subuser_id")); subuserQ != "" {
		q = q.Where("subuser_id = ?", subuserQ)
	}
	if serviceQ := strings.TrimSpace(c.Query("service")); serviceQ != "" {
		q = q.Where("service = ?", serviceQ)
	}

	var rows []models.UsageSnapshot
	if errFind := q.Order("date DESC").Find(&rows).Error; errFind != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "list usage failed"})
		return
	}

	out := make([]gin.H, 0, len(rows))
	for i := range rows {
		out = append(out, usageSnapshotRow(&rows[i]))
	}
	c.JSON(http.StatusOK, gin.H{"usage": out})
}

// usageSnapshotRow converts a snapshot model into a response payload.
func usageSnapshotRow(row *models.UsageSnapshot) gin.H {
	if row == nil {
		return gin.H{}
	}
	return gin.H{
		"id":         row.ID,
		"vendor_id":  row.VendorID,
		"subuser_id": row.SubuserID,
		"service":    row.Service,
		"date":       row.Date,
		"trafficGb":  row.TrafficGB,
		"requests":   row.Requests,
		"fetched_at": row.FetchedAt,
	}
}
