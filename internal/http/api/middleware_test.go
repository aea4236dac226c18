package api

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/proxydash/proxydash/internal/models"
	"github.com/proxydash/proxydash/internal/security"
)

func newAuthedRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	r := gin.New()
	authed := r.Group("", AuthRequired("secret"))
	authed.GET("/me", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})
	admin := authed.Group("", AdminRequired())
	admin.GET("/admin", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})
	return r
}

func TestAuthRequiredRejectsMissingToken(t *testing.T) {
	r := newAuthedRouter(t)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/me", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestAuthRequiredAcceptsValidToken(t *testing.T) {
	r := newAuthedRouter(t)

	token, errToken := security.GenerateToken("secret", 1, "a@b.c", "", models.RoleCustomer, time.Hour)
	if errToken != nil {
		t.Fatalf("generate token: %v", errToken)
	}

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestAdminRequiredRejectsCustomerRole(t *testing.T) {
	r := newAuthedRouter(t)

	token, errToken := security.GenerateToken("secret", 1, "a@b.c", "", models.RoleCustomer, time.Hour)
	if errToken != nil {
		t.Fatalf("generate token: %v", errToken)
	}

	req := httptest.NewRequest(http.MethodGet, "/admin", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", rec.Code)
	}
}

func TestAdminRequiredAcceptsAdminRole(t *testing.T) {
	r := newAuthedRouter(t)

	token, errToken := security.GenerateToken("secret", 1, "a@b.c", "", models.RoleAdmin, time.Hour)
	if errToken != nil {
		t.Fatalf("generate token: %v", errToken)
	}

	req := httptest.NewRequest(http.MethodGet, "/admin", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}
