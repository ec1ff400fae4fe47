package analytics

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shelfy/shelfy/pkg/shelfy/models"
	"gorm.io/gorm"
)

// Caps on history reads. These mirror the remote store's query limits, not
// a retention policy; the fallback store applies its own configurable caps.
const (
	ClickQueryLimit = 1000
	ViewQueryLimit  = 2000
)

// Handler handles analytics requests
type Handler struct {
	db *gorm.DB
}

// NewHandler creates a new analytics handler
func NewHandler(db *gorm.DB) *Handler {
	return &Handler{db: db}
}

// RecordRequest represents an analytics event to record
type RecordRequest struct {
	Type         string `json:"type" binding:"required"`
	ProductID    uint   `json:"product_id"`
	CollectionID string `json:"collection_id"`
}

// Get returns recent analytics rows by type
func (h *Handler) Get(c *gin.Context) {
	switch c.Query("type") {
	case "clicks":
		var clicks []models.ClickEvent
		if err := h.db.Order("created_at DESC, id DESC").Limit(ClickQueryLimit).Find(&clicks).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch click history"})
			return
		}
		c.JSON(http.StatusOK, clicks)
	case "views":
		var views []models.CollectionView
		if err := h.db.Order("created_at DESC, id DESC").Limit(ViewQueryLimit).Find(&views).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch view history"})
			return
		}
		c.JSON(http.StatusOK, views)
	case "pageviews":
		var pv models.PageView
		if err := h.db.First(&pv, 1).Error; err != nil {
			c.JSON(http.StatusOK, gin.H{"count": 0})
			return
		}
		c.JSON(http.StatusOK, gin.H{"count": pv.Count})
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid type"})
	}
}

// Record stores an analytics event. Clicks also bump the product's click
// counter as part of the same transaction.
func (h *Handler) Record(c *gin.Context) {
	var req RecordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	now := time.Now()

	switch req.Type {
	case "click":
		var product models.Product
		if err := h.db.First(&product, req.ProductID).Error; err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "Product not found"})
			return
		}
		err := h.db.Transaction(func(tx *gorm.DB) error {
			event := models.ClickEvent{
				ProductID:    product.ID,
				CollectionID: product.CollectionID,
				Date:         now.Format("2006-01-02"),
				Hour:         now.Hour(),
			}
			if err := tx.Create(&event).Error; err != nil {
				return err
			}
			return tx.Model(&product).UpdateColumn("clicks", gorm.Expr("clicks + 1")).Error
		})
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to record click"})
			return
		}
	case "view":
		if req.CollectionID == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Collection ID required"})
			return
		}
		view := models.CollectionView{
			CollectionID: req.CollectionID,
			Date:         now.Format("2006-01-02"),
			Hour:         now.Hour(),
		}
		if err := h.db.Create(&view).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to record view"})
			return
		}
	case "pageview":
		err := h.db.Model(&models.PageView{}).
			Where("id = ?", 1).
			Updates(map[string]interface{}{
				"count":      gorm.Expr("count + 1"),
				"updated_at": now,
			}).Error
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to record page view"})
			return
		}
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid type"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}

// EnsurePageViewCounter seeds the singleton page-view row
func EnsurePageViewCounter(db *gorm.DB) error {
	var count int64
	if err := db.Model(&models.PageView{}).Where("id = ?", 1).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}
	return db.Create(&models.PageView{ID: 1, Count: 0}).Error
}

// RegisterPublicRoutes registers event recording, which the microsite
// calls without a session
func (h *Handler) RegisterPublicRoutes(rg *gin.RouterGroup) {
	rg.POST("/analytics", h.Record)
}

// RegisterRoutes registers history reads, which only the admin dashboard
// consumes
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/analytics", h.Get)
}
