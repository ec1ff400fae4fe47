package importexport

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shelfy/shelfy/pkg/shelfy/models"
	"github.com/shelfy/shelfy/pkg/shelfy/products"
	"github.com/xuri/excelize/v2"
	"gorm.io/gorm"
)

// Import modes.
const (
	ModeReplace = "replace"
	ModeNew     = "new"
)

// exportHeaders is the spreadsheet column schema, shared by import and
// export for round-trip compatibility.
var exportHeaders = []string{"ID", "Product Name", "Category", "Affiliate Link", "Badge", "Clicks", "Created At"}

// Handler handles spreadsheet import/export requests
type Handler struct {
	db *gorm.DB
}

// NewHandler creates a new import/export handler
func NewHandler(db *gorm.DB) *Handler {
	return &Handler{db: db}
}

// ImportResult represents the result of an import operation
type ImportResult struct {
	Success  bool     `json:"success"`
	Mode     string   `json:"mode"`
	Imported int      `json:"imported"`
	Total    int      `json:"total"`
	Warnings []string `json:"warnings,omitempty"`
}

// importRow is one parsed spreadsheet row, already normalized to the
// canonical field names. Legacy column aliases ("name", "url", "link") are
// resolved here, at the boundary, and nowhere else.
type importRow struct {
	Name          string
	Category      string
	AffiliateLink string
	Badge         string
	Clicks        uint
}

// columnIndex maps the header row to column positions, case-insensitively
// and accepting legacy aliases.
func columnIndex(header []string) map[string]int {
	idx := make(map[string]int)
	for i, raw := range header {
		switch strings.ToLower(strings.TrimSpace(raw)) {
		case "product name", "name":
			idx["name"] = i
		case "affiliate link", "url", "link":
			idx["link"] = i
		case "category":
			idx["category"] = i
		case "badge":
			idx["badge"] = i
		case "clicks":
			idx["clicks"] = i
		}
	}
	return idx
}

func cell(row []string, i int, ok bool) string {
	if !ok || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

// parseRows walks the data rows, splitting them into valid rows and
// warnings. Row numbers in warnings are the spreadsheet's own (header is
// row 1).
func parseRows(rows [][]string, idx map[string]int) ([]importRow, []string) {
	var valid []importRow
	var warnings []string

	nameIdx, hasName := idx["name"]
	linkIdx, hasLink := idx["link"]
	categoryIdx, hasCategory := idx["category"]
	badgeIdx, hasBadge := idx["badge"]
	clicksIdx, hasClicks := idx["clicks"]

	for i, row := range rows {
		rowNum := i + 2

		name := cell(row, nameIdx, hasName)
		link := cell(row, linkIdx, hasLink)
		if name == "" && link == "" && len(strings.Join(row, "")) == 0 {
			// blank padding row
			continue
		}
		if name == "" || link == "" {
			warnings = append(warnings, fmt.Sprintf("row %d: Product Name and Affiliate Link are required", rowNum))
			continue
		}

		category := cell(row, categoryIdx, hasCategory)
		if category == "" {
			category = "Uncategorized"
		}

		var clicks uint
		if raw := cell(row, clicksIdx, hasClicks); raw != "" {
			n, err := strconv.ParseUint(raw, 10, 32)
			if err != nil {
				warnings = append(warnings, fmt.Sprintf("row %d: invalid Clicks value %q, using 0", rowNum, raw))
			} else {
				clicks = uint(n)
			}
		}

		valid = append(valid, importRow{
			Name:          name,
			Category:      category,
			AffiliateLink: link,
			Badge:         cell(row, badgeIdx, hasBadge),
			Clicks:        clicks,
		})
	}

	return valid, warnings
}

// Import loads products from an uploaded xlsx file into a collection.
// Replace mode clears the collection first and numbers rows 1..N in file
// order; new mode appends, continuing from the current maximum sequence
// number. An unreadable file or a file with zero valid rows is a fatal
// error with no partial effect.
func (h *Handler) Import(c *gin.Context) {
	collectionID := c.PostForm("collection_id")
	if collectionID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Collection ID required"})
		return
	}

	mode := c.PostForm("mode")
	if mode == "" {
		mode = ModeNew
	}
	if mode != ModeReplace && mode != ModeNew {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Mode must be 'replace' or 'new'"})
		return
	}

	var collection models.Collection
	if err := h.db.First(&collection, "id = ?", collectionID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Collection not found"})
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "File required"})
		return
	}
	file, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to read file"})
		return
	}
	defer file.Close()

	f, err := excelize.OpenReader(file)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "File is empty or not a valid spreadsheet"})
		return
	}
	defer f.Close()

	rows, err := f.GetRows(f.GetSheetName(0))
	if err != nil || len(rows) < 2 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "File is empty or not a valid spreadsheet"})
		return
	}

	valid, warnings := parseRows(rows[1:], columnIndex(rows[0]))
	if len(valid) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":    "No valid rows to import",
			"warnings": warnings,
		})
		return
	}

	err = h.db.Transaction(func(tx *gorm.DB) error {
		start := 0
		if mode == ModeReplace {
			if err := tx.Where("collection_id = ?", collectionID).Delete(&models.Product{}).Error; err != nil {
				return err
			}
		} else {
			next, err := products.NextSequence(tx, collectionID)
			if err != nil {
				return err
			}
			start = next - 1
		}

		for i, row := range valid {
			product := models.Product{
				CollectionID:   collectionID,
				Name:           row.Name,
				AffiliateLink:  row.AffiliateLink,
				Category:       row.Category,
				Badge:          row.Badge,
				Clicks:         row.Clicks,
				SequenceNumber: start + i + 1,
			}
			if err := tx.Create(&product).Error; err != nil {
				return err
			}
		}

		_, err := products.Resequence(tx, collectionID)
		return err
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to import products"})
		return
	}

	var total int64
	h.db.Model(&models.Product{}).Where("collection_id = ?", collectionID).Count(&total)

	c.JSON(http.StatusOK, ImportResult{
		Success:  true,
		Mode:     mode,
		Imported: len(valid),
		Total:    int(total),
		Warnings: warnings,
	})
}

// Export streams the products of a collection (or all products) as an
// xlsx attachment in the shared column schema.
func (h *Handler) Export(c *gin.Context) {
	query := h.db.Order("sequence_number ASC, id ASC")
	if collectionID := c.Query("collectionId"); collectionID != "" {
		var collection models.Collection
		if err := h.db.First(&collection, "id = ?", collectionID).Error; err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "Collection not found"})
			return
		}
		query = query.Where("collection_id = ?", collectionID)
	}

	var items []models.Product
	if err := query.Find(&items).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch products"})
		return
	}

	f := excelize.NewFile()
	defer f.Close()

	sheetName := "Products"
	index, err := f.NewSheet(sheetName)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to build spreadsheet"})
		return
	}
	f.DeleteSheet("Sheet1")

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#E0E0E0"}, Pattern: 1},
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to build spreadsheet"})
		return
	}

	for i, header := range exportHeaders {
		col := string(rune('A' + i))
		f.SetCellValue(sheetName, col+"1", header)
		f.SetCellStyle(sheetName, col+"1", col+"1", headerStyle)
	}

	for rowIdx, p := range items {
		row := rowIdx + 2
		f.SetCellValue(sheetName, fmt.Sprintf("A%d", row), p.ID)
		f.SetCellValue(sheetName, fmt.Sprintf("B%d", row), p.Name)
		f.SetCellValue(sheetName, fmt.Sprintf("C%d", row), p.Category)
		f.SetCellValue(sheetName, fmt.Sprintf("D%d", row), p.AffiliateLink)
		f.SetCellValue(sheetName, fmt.Sprintf("E%d", row), p.Badge)
		f.SetCellValue(sheetName, fmt.Sprintf("F%d", row), p.Clicks)
		f.SetCellValue(sheetName, fmt.Sprintf("G%d", row), p.CreatedAt.Format(time.RFC3339))
	}

	widths := []float64{8, 30, 20, 50, 15, 10, 25}
	for i, w := range widths {
		col := string(rune('A' + i))
		f.SetColWidth(sheetName, col, col, w)
	}
	f.SetActiveSheet(index)

	filename := fmt.Sprintf("shelfy-products-%s.xlsx", time.Now().Format("2006-01-02"))
	c.Header("Content-Disposition", "attachment; filename="+filename)
	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")

	if err := f.Write(c.Writer); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to write spreadsheet"})
		return
	}
}

// RegisterRoutes registers import/export routes
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/import", h.Import)
	rg.GET("/export", h.Export)
}
