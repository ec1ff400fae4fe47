package track

import (
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
	NewHandler(db).RegisterRoutes(r)
	return r
}

func createTestProduct(t *testing.T, db *gorm.DB) models.Product {
	collection := models.Collection{ID: "promo", Name: "Promo", Slug: "promo", Theme: "blue"}
	if err := db.Create(&collection).Error; err != nil {
		t.Fatalf("Failed to create test collection: %v", err)
	}
	product := models.Product{
		CollectionID:   "promo",
		Name:           "gadget",
		AffiliateLink:  "https://merchant.example.com/gadget?aff=123",
		SequenceNumber: 1,
	}
	if err := db.Create(&product).Error; err != nil {
		t.Fatalf("Failed to create test product: %v", err)
	}
	return product
}

func TestGoRedirectsAndRecords(t *testing.T) {
	db := setupTestDB(t)
	router := setupTestRouter(db)
	product := createTestProduct(t, db)

	req, _ := http.NewRequest("GET", "/go/1", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusFound {
		t.Fatalf("Expected status 302, got %d", resp.Code)
	}
	if loc := resp.Header().Get("Location"); loc != product.AffiliateLink {
		t.Errorf("Expected redirect to %s, got %s", product.AffiliateLink, loc)
	}

	var updated models.Product
	db.First(&updated, product.ID)
	if updated.Clicks != 1 {
		t.Errorf("Expected 1 click, got %d", updated.Clicks)
	}

	var events int64
	db.Model(&models.ClickEvent{}).Where("product_id = ?", product.ID).Count(&events)
	if events != 1 {
		t.Errorf("Expected 1 click event, got %d", events)
	}
}

func TestGoUnknownProduct(t *testing.T) {
	db := setupTestDB(t)
	router := setupTestRouter(db)

	req, _ := http.NewRequest("GET", "/go/999", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusNotFound {
		t.Errorf("Expected status 404, got %d", resp.Code)
	}
}

func TestGoInvalidID(t *testing.T) {
	db := setupTestDB(t)
	router := setupTestRouter(db)

	req, _ := http.NewRequest("GET", "/go/abc", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400, got %d", resp.Code)
	}
}
