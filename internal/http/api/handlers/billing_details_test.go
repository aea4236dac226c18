package handlers

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/proxydash/proxydash/internal/models"
)

func TestBillingDetailUpsertReplacesExistingRecord(t *testing.T) {
	gin.SetMode(gin.TestMode)
	conn := newTestDB(t)

	h := NewBillingDetailHandler(conn)
	r := gin.New()
	r.PUT("/api/billing-details", h.Upsert)
	r.GET("/api/billing-details", h.Get)

	put := func(payload string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPut, "/api/billing-details", strings.NewReader(payload))
		req.Header.Set("Content-Type", "application/json")
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)
		return rec
	}

	if rec := put(`{"customer_email":"Alice@Example.com","company_name":"Acme","city":"Lisbon"}`); rec.Code != http.StatusOK {
		t.Fatalf("first upsert: expected 200, got %d body=%s", rec.Code, rec.Body.String())
	}
	if rec := put(`{"customer_email":"alice@example.com","company_name":"Acme Ltd","city":"Porto"}`); rec.Code != http.StatusOK {
		t.Fatalf("second upsert: expected 200, got %d body=%s", rec.Code, rec.Body.String())
	}

	var count int64
	if errCount := conn.Model(&models.BillingDetail{}).Count(&count).Error; errCount != nil {
		t.Fatalf("count: %v", errCount)
	}
	if count != 1 {
		t.Fatalf("expected a single record after upsert, got %d", count)
	}

	var row models.BillingDetail
	if errFind := conn.First(&row, "customer_email = ?", "alice@example.com").Error; errFind != nil {
		t.Fatalf("find: %v", errFind)
	}
	if row.CompanyName != "Acme Ltd" || row.City != "Porto" {
		t.Fatalf("record not replaced: %+v", row)
	}
}

func TestBillingDetailGetRequiresEmail(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h := NewBillingDetailHandler(newTestDB(t))
	r := gin.New()
	r.GET("/api/billing-details", h.Get)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/billing-details", nil))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}
