package importexport

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/shelfy/shelfy/pkg/shelfy/models"
	"github.com/xuri/excelize/v2"
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
	NewHandler(db).RegisterRoutes(r.Group("/api"))
	return r
}

func createTestCollection(t *testing.T, db *gorm.DB, id string) models.Collection {
	collection := models.Collection{ID: id, Name: id, Slug: id, Theme: "blue"}
	if err := db.Create(&collection).Error; err != nil {
		t.Fatalf("Failed to create test collection: %v", err)
	}
	return collection
}

func createTestProduct(t *testing.T, db *gorm.DB, collectionID, name string, seq int) models.Product {
	product := models.Product{
		CollectionID:   collectionID,
		Name:           name,
		AffiliateLink:  "https://example.com/" + name,
		Category:       "Uncategorized",
		SequenceNumber: seq,
	}
	if err := db.Create(&product).Error; err != nil {
		t.Fatalf("Failed to create test product: %v", err)
	}
	return product
}

// buildXLSX builds a spreadsheet in memory from a header row plus data rows.
func buildXLSX(t *testing.T, rows [][]string) []byte {
	f := excelize.NewFile()
	defer f.Close()
	sheet := f.GetSheetName(0)
	for r, row := range rows {
		for c, val := range row {
			cell, err := excelize.CoordinatesToCellName(c+1, r+1)
			if err != nil {
				t.Fatalf("Failed to compute cell name: %v", err)
			}
			f.SetCellValue(sheet, cell, val)
		}
	}
	buf, err := f.WriteToBuffer()
	if err != nil {
		t.Fatalf("Failed to serialize spreadsheet: %v", err)
	}
	return buf.Bytes()
}

func doImport(t *testing.T, router *gin.Engine, collectionID, mode string, file []byte) *httptest.ResponseRecorder {
	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	if collectionID != "" {
		w.WriteField("collection_id", collectionID)
	}
	if mode != "" {
		w.WriteField("mode", mode)
	}
	if file != nil {
		fw, err := w.CreateFormFile("file", "products.xlsx")
		if err != nil {
			t.Fatalf("Failed to create form file: %v", err)
		}
		fw.Write(file)
	}
	w.Close()

	req, _ := http.NewRequest("POST", "/api/import", &body)
	req.Header.Set("Content-Type", w.FormDataContentType())
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	return resp
}

func TestImportReplaceWithWarnings(t *testing.T) {
	db := setupTestDB(t)
	router := setupTestRouter(db)
	createTestCollection(t, db, "promo")
	createTestProduct(t, db, "promo", "stale", 1)

	file := buildXLSX(t, [][]string{
		{"Product Name", "Category", "Affiliate Link", "Badge", "Clicks"},
		{"Widget", "Tech", "https://example.com/widget", "Hot", "12"},
		{"", "Tech", "https://example.com/mystery", "", ""},
		{"Gizmo", "Tech", "https://example.com/gizmo", "", "3"},
		{"Broken", "", "", "", ""},
	})

	resp := doImport(t, router, "promo", ModeReplace, file)
	if resp.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", resp.Code, resp.Body.String())
	}

	var result ImportResult
	json.Unmarshal(resp.Body.Bytes(), &result)
	if !result.Success || result.Imported != 2 || result.Total != 2 {
		t.Errorf("Unexpected result: %+v", result)
	}
	if len(result.Warnings) != 2 {
		t.Fatalf("Expected 2 warnings, got %d: %v", len(result.Warnings), result.Warnings)
	}
	if result.Warnings[0] != "row 3: Product Name and Affiliate Link are required" {
		t.Errorf("Unexpected warning text: %q", result.Warnings[0])
	}

	var items []models.Product
	db.Where("collection_id = ?", "promo").Order("sequence_number ASC").Find(&items)
	if len(items) != 2 {
		t.Fatalf("Expected 2 products after replace, got %d", len(items))
	}
	if items[0].Name != "Widget" || items[0].SequenceNumber != 1 {
		t.Errorf("Unexpected first product: %+v", items[0])
	}
	if items[1].Name != "Gizmo" || items[1].SequenceNumber != 2 {
		t.Errorf("Unexpected second product: %+v", items[1])
	}
	if items[0].Clicks != 12 {
		t.Errorf("Expected imported clicks 12, got %d", items[0].Clicks)
	}
}

func TestImportNewContinuesSequence(t *testing.T) {
	db := setupTestDB(t)
	router := setupTestRouter(db)
	createTestCollection(t, db, "promo")
	createTestProduct(t, db, "promo", "existing", 1)
	createTestProduct(t, db, "promo", "existing2", 2)

	file := buildXLSX(t, [][]string{
		{"name", "url"},
		{"Widget", "https://example.com/widget"},
	})

	resp := doImport(t, router, "promo", ModeNew, file)
	if resp.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", resp.Code, resp.Body.String())
	}

	var widget models.Product
	db.First(&widget, "name = ?", "Widget")
	if widget.SequenceNumber != 3 {
		t.Errorf("Expected appended sequence 3, got %d", widget.SequenceNumber)
	}
	if widget.Category != "Uncategorized" {
		t.Errorf("Expected default category, got %q", widget.Category)
	}

	var total int64
	db.Model(&models.Product{}).Where("collection_id = ?", "promo").Count(&total)
	if total != 3 {
		t.Errorf("Expected 3 products after append, got %d", total)
	}
}

func TestImportNonNumericClicksWarn(t *testing.T) {
	db := setupTestDB(t)
	router := setupTestRouter(db)
	createTestCollection(t, db, "promo")

	file := buildXLSX(t, [][]string{
		{"Product Name", "Affiliate Link", "Clicks"},
		{"Widget", "https://example.com/widget", "lots"},
	})

	resp := doImport(t, router, "promo", ModeNew, file)
	if resp.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", resp.Code, resp.Body.String())
	}

	var result ImportResult
	json.Unmarshal(resp.Body.Bytes(), &result)
	if result.Imported != 1 {
		t.Errorf("Expected the row imported despite the bad cell, got %d", result.Imported)
	}
	if len(result.Warnings) != 1 || result.Warnings[0] != `row 2: invalid Clicks value "lots", using 0` {
		t.Errorf("Expected a warning naming the bad Clicks cell, got %v", result.Warnings)
	}

	var widget models.Product
	db.First(&widget, "name = ?", "Widget")
	if widget.Clicks != 0 {
		t.Errorf("Expected clicks 0, got %d", widget.Clicks)
	}
}

func TestImportZeroValidRowsIsFatal(t *testing.T) {
	db := setupTestDB(t)
	router := setupTestRouter(db)
	createTestCollection(t, db, "promo")
	createTestProduct(t, db, "promo", "survivor", 1)

	file := buildXLSX(t, [][]string{
		{"Product Name", "Affiliate Link"},
		{"MissingLink", ""},
		{"", "https://example.com/nameless"},
	})

	resp := doImport(t, router, "promo", ModeReplace, file)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("Expected status 400, got %d: %s", resp.Code, resp.Body.String())
	}

	// replace must not have touched anything
	var count int64
	db.Model(&models.Product{}).Where("collection_id = ?", "promo").Count(&count)
	if count != 1 {
		t.Errorf("Expected existing products untouched, got %d", count)
	}
}

func TestImportHeaderOnlyFile(t *testing.T) {
	db := setupTestDB(t)
	router := setupTestRouter(db)
	createTestCollection(t, db, "promo")

	file := buildXLSX(t, [][]string{{"Product Name", "Affiliate Link"}})
	resp := doImport(t, router, "promo", ModeNew, file)
	if resp.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400, got %d", resp.Code)
	}
}

func TestImportValidations(t *testing.T) {
	db := setupTestDB(t)
	router := setupTestRouter(db)
	createTestCollection(t, db, "promo")
	file := buildXLSX(t, [][]string{
		{"Product Name", "Affiliate Link"},
		{"Widget", "https://example.com/widget"},
	})

	if resp := doImport(t, router, "", ModeNew, file); resp.Code != http.StatusBadRequest {
		t.Errorf("Missing collection: expected 400, got %d", resp.Code)
	}
	if resp := doImport(t, router, "promo", "sideways", file); resp.Code != http.StatusBadRequest {
		t.Errorf("Bad mode: expected 400, got %d", resp.Code)
	}
	if resp := doImport(t, router, "nope", ModeNew, file); resp.Code != http.StatusNotFound {
		t.Errorf("Unknown collection: expected 404, got %d", resp.Code)
	}
	if resp := doImport(t, router, "promo", ModeNew, nil); resp.Code != http.StatusBadRequest {
		t.Errorf("Missing file: expected 400, got %d", resp.Code)
	}
	if resp := doImport(t, router, "promo", ModeNew, []byte("not a spreadsheet")); resp.Code != http.StatusBadRequest {
		t.Errorf("Garbage file: expected 400, got %d", resp.Code)
	}
}

func TestExport(t *testing.T) {
	db := setupTestDB(t)
	router := setupTestRouter(db)
	createTestCollection(t, db, "promo")
	createTestCollection(t, db, "other")
	createTestProduct(t, db, "promo", "Widget", 1)
	createTestProduct(t, db, "promo", "Gizmo", 2)
	createTestProduct(t, db, "other", "Elsewhere", 1)

	req, _ := http.NewRequest("GET", "/api/export?collectionId=promo", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", resp.Code)
	}
	if cd := resp.Header().Get("Content-Disposition"); cd == "" {
		t.Error("Expected attachment disposition header")
	}

	f, err := excelize.OpenReader(bytes.NewReader(resp.Body.Bytes()))
	if err != nil {
		t.Fatalf("Export is not a readable spreadsheet: %v", err)
	}
	defer f.Close()

	rows, err := f.GetRows("Products")
	if err != nil {
		t.Fatalf("Missing Products sheet: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("Expected header + 2 rows, got %d", len(rows))
	}
	if rows[0][1] != "Product Name" || rows[0][3] != "Affiliate Link" {
		t.Errorf("Unexpected header row: %v", rows[0])
	}
	if rows[1][1] != "Widget" || rows[2][1] != "Gizmo" {
		t.Errorf("Expected sequence order [Widget Gizmo], got [%s %s]", rows[1][1], rows[2][1])
	}
}

func TestExportUnknownCollection(t *testing.T) {
	db := setupTestDB(t)
	router := setupTestRouter(db)

	req, _ := http.NewRequest("GET", "/api/export?collectionId=nope", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusNotFound {
		t.Errorf("Expected status 404, got %d", resp.Code)
	}
}

func TestImportExportRoundTrip(t *testing.T) {
	db := setupTestDB(t)
	router := setupTestRouter(db)
	createTestCollection(t, db, "promo")
	p := createTestProduct(t, db, "promo", "Widget", 1)
	db.Model(&p).Update("badge", "Hot")

	req, _ := http.NewRequest("GET", "/api/export?collectionId=promo", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("Export failed with status %d", resp.Code)
	}

	importResp := doImport(t, router, "promo", ModeReplace, resp.Body.Bytes())
	if importResp.Code != http.StatusOK {
		t.Fatalf("Re-import failed with status %d: %s", importResp.Code, importResp.Body.String())
	}

	var items []models.Product
	db.Where("collection_id = ?", "promo").Find(&items)
	if len(items) != 1 {
		t.Fatalf("Expected 1 product after round trip, got %d", len(items))
	}
	if items[0].Name != "Widget" || items[0].Badge != "Hot" {
		t.Errorf("Round trip lost fields: %+v", items[0])
	}
}
