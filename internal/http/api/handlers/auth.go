package handlers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/proxydash/proxydash/internal/models"
	"github.com/proxydash/proxydash/internal/security"
)

// AuthHandler manages login and session introspection.
type AuthHandler struct {
	db        *gorm.DB      // Database handle for customer accounts.
	jwtSecret string        // HMAC signing secret.
	jwtExpiry time.Duration // Token lifetime.
}

// NewAuthHandler constructs an auth handler.
func NewAuthHandler(db *gorm.DB, jwtSecret string, jwtExpiry time.Duration) *AuthHandler {
	return &AuthHandler{db: db, jwtSecret: jwtSecret, jwtExpiry: jwtExpiry}
}

// loginRequest captures the login payload.
type loginRequest struct {
	Email    string `json:"email"`    // Account email.
	Password string `json:"password"` // Plaintext password.
}

// Login verifies credentials and issues a JWT.
func (h *AuthHandler) Login(c *gin.Context) {
	var body loginRequest
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}

	email := strings.ToLower(strings.TrimSpace(body.Email))
	if email == "" || body.Password == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "email and password are required"})
		return
	}

	var row models.Customer
	if errFind := h.db.WithContext(c.Request.Context()).First(&row, "email = ?", email).Error; errFind != nil {
		if errors.Is(errFind, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "login failed"})
		return
	}

	if !security.CheckPassword(row.Password, body.Password) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
		return
	}

	token, errToken := security.GenerateToken(h.jwtSecret, row.ID, row.Email, row.CustomerName, row.Role, h.jwtExpiry)
	if errToken != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "login failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"token": token,
		"customer": gin.H{
			"id":    row.ID,
			"email": row.Email,
			"name":  row.CustomerName,
			"role":  row.Role,
		},
	})
}

// Me returns the authenticated account from the request claims.
func (h *AuthHandler) Me(c *gin.Context) {
	claims := ClaimsFromContext(c)
	if claims == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var row models.Customer
	if errFind := h.db.WithContext(c.Request.Context()).First(&row, "id = ?", claims.CustomerID).Error; errFind != nil {
		if errors.Is(errFind, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "fetch account failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"id":    row.ID,
		"email": row.Email,
		"name":  row.CustomerName,
		"role":  row.Role,
	})
}

// claimsContextKey is the gin context key carrying parsed JWT claims.
const claimsContextKey = "auth.claims"

// SetClaims stores parsed claims on the request context.
func SetClaims(c *gin.Context, claims *security.CustomerClaims) {
	c.Set(claimsContextKey, claims)
}

// ClaimsFromContext returns the parsed claims, or nil when unauthenticated.
func ClaimsFromContext(c *gin.Context) *security.CustomerClaims {
	value, ok := c.Get(claimsContextKey)
	if !ok {
		return nil
	}
	claims, ok := value.(*security.CustomerClaims)
	if !ok {
		return nil
	}
	return claims
}
