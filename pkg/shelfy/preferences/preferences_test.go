package preferences

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/shelfy/shelfy/pkg/shelfy/models"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("Failed to connect to test database: %v", err)
	}
	models.AutoMigrate(db)
	return db
}

func setupTestRouter(db *gorm.DB) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	handler := NewHandler(db)
	api := r.Group("/api")
	handler.RegisterPublicRoutes(api)
	handler.RegisterRoutes(api)
	return r
}

func doJSON(t *testing.T, router *gin.Engine, method, path string, body interface{}) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("Failed to encode body: %v", err)
		}
	}
	req, _ := http.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	return resp
}

func TestUpsertAndGet(t *testing.T) {
	db := setupTestDB(t)
	router := setupTestRouter(db)

	resp := doJSON(t, router, "POST", "/api/preferences", UpsertRequest{Key: "theme", Value: "dark"})
	if resp.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", resp.Code, resp.Body.String())
	}

	resp = doJSON(t, router, "GET", "/api/preferences?key=theme", nil)
	var result struct {
		Key   string  `json:"key"`
		Value *string `json:"value"`
	}
	json.Unmarshal(resp.Body.Bytes(), &result)
	if result.Value == nil || *result.Value != "dark" {
		t.Errorf("Expected value dark, got %v", result.Value)
	}
}

func TestUpsertOverwrites(t *testing.T) {
	db := setupTestDB(t)
	router := setupTestRouter(db)

	doJSON(t, router, "POST", "/api/preferences", UpsertRequest{Key: "theme", Value: "dark"})
	doJSON(t, router, "POST", "/api/preferences", UpsertRequest{Key: "theme", Value: "light"})

	var pref models.Preference
	if err := db.First(&pref, "key = ?", "theme").Error; err != nil {
		t.Fatalf("Expected preference to exist: %v", err)
	}
	if pref.Value != "light" {
		t.Errorf("Expected overwritten value light, got %q", pref.Value)
	}

	var count int64
	db.Model(&models.Preference{}).Count(&count)
	if count != 1 {
		t.Errorf("Expected a single row after upsert, got %d", count)
	}
}

func TestGetMissingKeyIsNull(t *testing.T) {
	db := setupTestDB(t)
	router := setupTestRouter(db)

	resp := doJSON(t, router, "GET", "/api/preferences?key=nope", nil)
	if resp.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", resp.Code)
	}
	var result map[string]interface{}
	json.Unmarshal(resp.Body.Bytes(), &result)
	if result["value"] != nil {
		t.Errorf("Expected null value for missing key, got %v", result["value"])
	}
}

func TestGetAll(t *testing.T) {
	db := setupTestDB(t)
	router := setupTestRouter(db)

	doJSON(t, router, "POST", "/api/preferences", UpsertRequest{Key: "theme", Value: "dark"})
	doJSON(t, router, "POST", "/api/preferences", UpsertRequest{Key: "layout", Value: "grid"})

	resp := doJSON(t, router, "GET", "/api/preferences", nil)
	var all map[string]string
	json.Unmarshal(resp.Body.Bytes(), &all)
	if len(all) != 2 || all["theme"] != "dark" || all["layout"] != "grid" {
		t.Errorf("Unexpected preferences map: %v", all)
	}
}

func TestDeletePreference(t *testing.T) {
	db := setupTestDB(t)
	router := setupTestRouter(db)

	doJSON(t, router, "POST", "/api/preferences", UpsertRequest{Key: "theme", Value: "dark"})
	resp := doJSON(t, router, "DELETE", "/api/preferences", DeleteRequest{Key: "theme"})
	if resp.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", resp.Code)
	}

	var count int64
	db.Model(&models.Preference{}).Count(&count)
	if count != 0 {
		t.Errorf("Expected preference removed, %d rows remain", count)
	}
}

func TestUpsertMissingKey(t *testing.T) {
	db := setupTestDB(t)
	router := setupTestRouter(db)

	resp := doJSON(t, router, "POST", "/api/preferences", map[string]string{"value": "x"})
	if resp.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400, got %d", resp.Code)
	}
}
