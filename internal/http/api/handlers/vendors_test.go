package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"gorm.io/gorm"

	"github.com/proxydash/proxydash/internal/db"
	"github.com/proxydash/proxydash/internal/token"
	"github.com/proxydash/proxydash/internal/vendor"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	conn, errOpen := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if errOpen != nil {
		t.Fatalf("open sqlite: %v", errOpen)
	}
	if errMigrate := db.Migrate(conn); errMigrate != nil {
		t.Fatalf("migrate: %v", errMigrate)
	}
	return conn
}

func newVendorRouter(t *testing.T, conn *gorm.DB, configs []vendor.Config) (*gin.Engine, *VendorHandler) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	manager := vendor.NewManager(configs, token.NewManager(nil))
	h := NewVendorHandler(conn, manager)

	r := gin.New()
	r.GET("/api/vendors/:id/usage", h.Usage)
	r.GET("/api/vendors/:id/fetch", h.Fetch)
	r.POST("/api/vendors", h.Create)
	r.GET("/api/vendors", h.List)
	r.DELETE("/api/vendors/:id", h.Delete)
	return r, h
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	if errDecode := json.Unmarshal(rec.Body.Bytes(), &body); errDecode != nil {
		t.Fatalf("decode response: %v", errDecode)
	}
	return body
}

func TestVendorUsageUnknownVendor(t *testing.T) {
	r, _ := newVendorRouter(t, newTestDB(t), nil)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/vendors/nope/usage", nil))

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
	body := decodeEnvelope(t, rec)
	if body["ok"] != false || body["error"] != "Vendor not found" {
		t.Fatalf("unexpected body %v", body)
	}
}

func TestVendorUsageCapabilityMissing(t *testing.T) {
	configs := []vendor.Config{{ID: "v1", Slug: "generic", AuthType: vendor.AuthTypeNone}}
	r, _ := newVendorRouter(t, newTestDB(t), configs)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/vendors/v1/usage", nil))

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	body := decodeEnvelope(t, rec)
	if body["ok"] != false {
		t.Fatalf("unexpected body %v", body)
	}
}

func TestVendorUsageSuccess(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/reseller/user/token/get", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"token":"di-token","expires_in":3600}`))
	})
	mux.HandleFunc("/reseller/sub-user/usage-stat", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer di-token" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		_, _ = w.Write([]byte(`{"usage":[{"d_usage":"2025-11-24","traffic":1776,"request":27831}]}`))
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	configs := []vendor.Config{{
		ID:            "di-1",
		Name:          "DataImpulse",
		Slug:          vendor.SlugDataImpulse,
		AuthType:      "custom",
		TokenEndpoint: server.URL + "/reseller/user/token/get",
		APIBaseURL:    server.URL,
		Credentials:   map[string]string{"login": "reseller", "password": "secret"},
	}}
	r, _ := newVendorRouter(t, newTestDB(t), configs)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/vendors/di-1/usage?subuserId=42&period=week", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d body=%s", rec.Code, rec.Body.String())
	}
	body := decodeEnvelope(t, rec)
	if body["ok"] != true {
		t.Fatalf("unexpected body %v", body)
	}
	rows, ok := body["data"].([]any)
	if !ok || len(rows) != 1 {
		t.Fatalf("unexpected data %v", body["data"])
	}
	row, _ := rows[0].(map[string]any)
	if row["trafficGb"] != 1.78 || row["requests"] != float64(27831) {
		t.Fatalf("unexpected row %v", row)
	}
}

func TestVendorUsageUpstreamFailure(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/reseller/user/token/get", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"token":"di-token"}`))
	})
	mux.HandleFunc("/reseller/sub-user/usage-stat", func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "upstream exploded", http.StatusBadGateway)
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	configs := []vendor.Config{{
		ID:            "di-1",
		Slug:          vendor.SlugDataImpulse,
		TokenEndpoint: server.URL + "/reseller/user/token/get",
		APIBaseURL:    server.URL,
		Credentials:   map[string]string{"login": "reseller", "password": "secret"},
	}}
	r, _ := newVendorRouter(t, newTestDB(t), configs)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/vendors/di-1/usage?subuserId=42", nil))

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
	body := decodeEnvelope(t, rec)
	if body["ok"] != false {
		t.Fatalf("unexpected body %v", body)
	}
}

func TestVendorFetchRequiresPath(t *testing.T) {
	configs := []vendor.Config{{ID: "v1", Slug: "generic", AuthType: vendor.AuthTypeNone}}
	r, _ := newVendorRouter(t, newTestDB(t), configs)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/vendors/v1/fetch", nil))

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestVendorCreateRegistersAdapter(t *testing.T) {
	conn := newTestDB(t)
	r, h := newVendorRouter(t, conn, nil)

	payload := `{"id":"di-2","name":"DataImpulse","slug":"dataimpulse","auth_type":"custom","api_base_url":"https://api.example.com","credentials":{"login":"a","password":"b"}}`
	req := httptest.NewRequest(http.MethodPost, "/api/vendors", strings.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d body=%s", rec.Code, rec.Body.String())
	}

	adapter, ok := h.vendors.Adapter("di-2")
	if !ok {
		t.Fatalf("adapter not registered after create")
	}
	if _, ok := adapter.(vendor.UsageFetcher); !ok {
		t.Fatalf("expected dataimpulse adapter to support usage fetching")
	}
	if adapter.Config().Credentials["password"] != "b" {
		t.Fatalf("credentials not round-tripped: %+v", adapter.Config().Credentials)
	}
}

func TestVendorDeleteUnregistersAdapter(t *testing.T) {
	conn := newTestDB(t)
	r, h := newVendorRouter(t, conn, nil)

	payload := `{"id":"v9","slug":"generic","auth_type":"none"}`
	req := httptest.NewRequest(http.MethodPost, "/api/vendors", strings.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/api/vendors/v9", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if _, ok := h.vendors.Adapter("v9"); ok {
		t.Fatalf("adapter still registered after delete")
	}
}
