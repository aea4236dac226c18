package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/proxydash/proxydash/internal/models"
	"github.com/proxydash/proxydash/internal/security"
)

func TestLoginIssuesToken(t *testing.T) {
	gin.SetMode(gin.TestMode)
	conn := newTestDB(t)

	hash, errHash := security.HashPassword("hunter2")
	if errHash != nil {
		t.Fatalf("hash: %v", errHash)
	}
	seed := models.Customer{Email: "alice@example.com", CustomerName: "Alice", Role: models.RoleCustomer, Password: hash}
	if errCreate := conn.Create(&seed).Error; errCreate != nil {
		t.Fatalf("seed customer: %v", errCreate)
	}

	h := NewAuthHandler(conn, "secret", time.Hour)
	r := gin.New()
	r.POST("/api/auth/login", h.Login)

	req := httptest.NewRequest(http.MethodPost, "/api/auth/login", strings.NewReader(`{"email":"Alice@Example.com","password":"hunter2"}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d body=%s", rec.Code, rec.Body.String())
	}
	var body struct {
		Token    string `json:"token"`
		Customer struct {
			Email string `json:"email"`
			Role  string `json:"role"`
		} `json:"customer"`
	}
	if errDecode := json.Unmarshal(rec.Body.Bytes(), &body); errDecode != nil {
		t.Fatalf("decode: %v", errDecode)
	}
	if body.Token == "" || body.Customer.Email != "alice@example.com" {
		t.Fatalf("unexpected body %+v", body)
	}

	claims, errParse := security.ParseToken("secret", body.Token)
	if errParse != nil {
		t.Fatalf("parse issued token: %v", errParse)
	}
	if claims.CustomerID != seed.ID || claims.Role != models.RoleCustomer {
		t.Fatalf("unexpected claims %+v", claims)
	}
}

func TestLoginRejectsBadPassword(t *testing.T) {
	gin.SetMode(gin.TestMode)
	conn := newTestDB(t)

	hash, _ := security.HashPassword("hunter2")
	if errCreate := conn.Create(&models.Customer{Email: "alice@example.com", Password: hash, Role: models.RoleCustomer}).Error; errCreate != nil {
		t.Fatalf("seed customer: %v", errCreate)
	}

	h := NewAuthHandler(conn, "secret", time.Hour)
	r := gin.New()
	r.POST("/api/auth/login", h.Login)

	for _, payload := range []string{
		`{"email":"alice@example.com","password":"wrong"}`,
		`{"email":"nobody@example.com","password":"hunter2"}`,
	} {
		req := httptest.NewRequest(http.MethodPost, "/api/auth/login", strings.NewReader(payload))
		req.Header.Set("Content-Type", "application/json")
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("expected 401 for %s, got %d", payload, rec.Code)
		}
	}
}
