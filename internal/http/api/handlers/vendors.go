package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/proxydash/proxydash/internal/models"
	"github.com/proxydash/proxydash/internal/vendor"
)

// VendorHandler manages vendor records and proxies usage queries to the
// configured vendor adapters.
type VendorHandler struct {
	db      *gorm.DB        // Database handle for vendor records.
	store   *vendor.Store   // Vendor persistence helper.
	vendors *vendor.Manager // Adapter registry.
}

// NewVendorHandler constructs a vendor handler.
func NewVendorHandler(db *gorm.DB, vendors *vendor.Manager) *VendorHandler {
	return &VendorHandler{db: db, store: vendor.NewStore(db), vendors: vendors}
}

// vendorRequest captures the payload for creating or updating a vendor.
type vendorRequest struct {
	ID             string            `json:"id"`              // Vendor identifier, required on create.
	Name           string            `json:"name"`            // Display name.
	Slug           string            `json:"slug"`            // Adapter selector.
	Enabled        *bool             `json:"enabled"`         // Participates in sync when true.
	AuthType       string            `json:"auth_type"`       // Authentication strategy.
	TokenEndpoint  string            `json:"token_endpoint"`  // Credential acquisition endpoint.
	APIBaseURL     string            `json:"api_base_url"`    // Usage API base URL.
	Credentials    map[string]string `json:"credentials"`     // Auth-type-specific secret bundle.
	DefaultHeaders map[string]string `json:"default_headers"` // Headers attached to every request.
	TokenTTLField  string            `json:"token_ttl_field"` // Token response field carrying the TTL.
}

// List returns all vendor records with credentials redacted.
func (h *VendorHandler) List(c *gin.Context) {
	var rows []models.Vendor
	if errFind := h.db.WithContext(c.Request.Context()).Order("created_at ASC").Find(&rows).Error; errFind != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "list vendors failed"})
		return
	}

	out := make([]gin.H, 0, len(rows))
	for i := range rows {
		out = append(out, vendorRow(&rows[i]))
	}
	c.JSON(http.StatusOK, gin.H{"vendors": out})
}

// Get returns one vendor record by ID.
func (h *VendorHandler) Get(c *gin.Context) {
	id := strings.TrimSpace(c.Param("id"))

	var row models.Vendor
	if errFind := h.db.WithContext(c.Request.Context()).First(&row, "id = ?", id).Error; errFind != nil {
		if errors.Is(errFind, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "vendor not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "fetch vendor failed"})
		return
	}

	c.JSON(http.StatusOK, vendorRow(&row))
}

// Create validates and inserts a new vendor record, then reloads the
// adapter registry.
func (h *VendorHandler) Create(c *gin.Context) {
	var body vendorRequest
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	if strings.TrimSpace(body.ID) == "" || strings.TrimSpace(body.Slug) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "id and slug are required"})
		return
	}

	enabled := true
	if body.Enabled != nil {
		enabled = *body.Enabled
	}
	cfg := vendor.Config{
		ID:             strings.TrimSpace(body.ID),
		Name:           body.Name,
		Slug:           strings.TrimSpace(body.Slug),
		Enabled:        enabled,
		AuthType:       body.AuthType,
		TokenEndpoint:  body.TokenEndpoint,
		APIBaseURL:     body.APIBaseURL,
		Credentials:    body.Credentials,
		DefaultHeaders: body.DefaultHeaders,
		TokenTTLField:  body.TokenTTLField,
	}

	if errSeed := h.store.Seed(c.Request.Context(), []vendor.Config{cfg}); errSeed != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "create vendor failed"})
		return
	}
	h.reloadRegistry(c)

	var row models.Vendor
	if errFind := h.db.WithContext(c.Request.Context()).First(&row, "id = ?", cfg.ID).Error; errFind != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "fetch vendor failed"})
		return
	}
	c.JSON(http.StatusCreated, vendorRow(&row))
}

// Update modifies an existing vendor record, then reloads the adapter
// registry.
func (h *VendorHandler) Update(c *gin.Context) {
	id := strings.TrimSpace(c.Param("id"))

	var row models.Vendor
	if errFind := h.db.WithContext(c.Request.Context()).First(&row, "id = ?", id).Error; errFind != nil {
		if errors.Is(errFind, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "vendor not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "fetch vendor failed"})
		return
	}

	existing, errConfig := vendor.ConfigFromModel(&row)
	if errConfig != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "fetch vendor failed"})
		return
	}

	var body vendorRequest
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}

	if body.Name != "" {
		existing.Name = body.Name
	}
	if body.Slug != "" {
		existing.Slug = strings.TrimSpace(body.Slug)
	}
	if body.Enabled != nil {
		existing.Enabled = *body.Enabled
	}
	if body.AuthType != "" {
		existing.AuthType = body.AuthType
	}
	if body.TokenEndpoint != "" {
		existing.TokenEndpoint = body.TokenEndpoint
	}
	if body.APIBaseURL != "" {
		existing.APIBaseURL = body.APIBaseURL
	}
	if body.Credentials != nil {
		existing.Credentials = body.Credentials
	}
	if body.DefaultHeaders != nil {
		existing.DefaultHeaders = body.DefaultHeaders
	}
	if body.TokenTTLField != "" {
		existing.TokenTTLField = body.TokenTTLField
	}

	if errSeed := h.store.Seed(c.Request.Context(), []vendor.Config{existing}); errSeed != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "update vendor failed"})
		return
	}
	h.reloadRegistry(c)

	if errFind := h.db.WithContext(c.Request.Context()).First(&row, "id = ?", id).Error; errFind != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "fetch vendor failed"})
		return
	}
	c.JSON(http.StatusOK, vendorRow(&row))
}

// Delete removes a vendor record, then reloads the adapter registry.
func (h *VendorHandler) Delete(c *gin.Context) {
	id := strings.TrimSpace(c.Param("id"))

	if errDelete := h.db.WithContext(c.Request.Context()).Delete(&models.Vendor{}, "id = ?", id).Error; errDelete != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "delete vendor failed"})
		return
	}
	h.reloadRegistry(c)

	c.JSON(http.StatusOK, gin.H{"deleted": true})
}

// Usage returns canonical usage rows for a vendor. The adapter must support
// usage fetching; vendors without that capability are a client error, not a
// server one.
func (h *VendorHandler) Usage(c *gin.Context) {
	adapter, ok := h.vendors.Adapter(strings.TrimSpace(c.Param("id")))
	if !ok {
		fail(c, http.StatusNotFound, "Vendor not found")
		return
	}

	fetcher, ok := adapter.(vendor.UsageFetcher)
	if !ok {
		fail(c, http.StatusBadRequest, "Vendor does not support usage reporting")
		return
	}

	rows, errFetch := fetcher.FetchUsage(c.Request.Context(), vendor.UsageParamsFromQuery(c.Request.URL.Query()))
	if errFetch != nil {
		log.WithError(errFetch).Warnf("vendors: usage fetch failed for %s", adapter.Config().ID)
		fail(c, http.StatusInternalServerError, errFetch.Error())
		return
	}

	okData(c, rows)
}

// Fetch proxies an arbitrary authenticated request to the vendor API and
// returns the adapter-normalized response.
func (h *VendorHandler) Fetch(c *gin.Context) {
	adapter, ok := h.vendors.Adapter(strings.TrimSpace(c.Param("id")))
	if !ok {
		fail(c, http.StatusNotFound, "Vendor not found")
		return
	}

	query := c.Request.URL.Query()
	path := strings.TrimSpace(query.Get("path"))
	if path == "" {
		fail(c, http.StatusBadRequest, "path query parameter is required")
		return
	}
	query.Del("path")

	data, errFetch := adapter.FetchData(c.Request.Context(), path, query)
	if errFetch != nil {
		log.WithError(errFetch).Warnf("vendors: fetch failed for %s", adapter.Config().ID)
		fail(c, http.StatusInternalServerError, errFetch.Error())
		return
	}

	okData(c, data)
}

// reloadRegistry rebuilds the adapter registry from stored vendors.
func (h *VendorHandler) reloadRegistry(c *gin.Context) {
	configs, errLoad := h.store.LoadConfigs(c.Request.Context())
	if errLoad != nil {
		log.WithError(errLoad).Warn("vendors: reload registry failed")
		return
	}
	h.vendors.Reload(configs)
}

// vendorRow converts a vendor model into a response payload. Credentials are
// never echoed back.
func vendorRow(row *models.Vendor) gin.H {
	if row == nil {
		return gin.H{}
	}
	return gin.H{
		"id":              row.ID,
		"name":            row.Name,
		"slug":            row.Slug,
		"enabled":         row.Enabled,
		"auth_type":       row.AuthType,
		"token_endpoint":  row.TokenEndpoint,
		"api_base_url":    row.APIBaseURL,
		"has_credentials": len(row.Credentials) > 0,
		"created_at":      row.CreatedAt,
		"updated_at":      row.UpdatedAt,
	}
}
