package preferences

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shelfy/shelfy/pkg/shelfy/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Handler handles user preference requests
type Handler struct {
	db *gorm.DB
}

// NewHandler creates a new preferences handler
func NewHandler(db *gorm.DB) *Handler {
	return &Handler{db: db}
}

// UpsertRequest represents the request to set a preference
type UpsertRequest struct {
	Key   string `json:"key" binding:"required"`
	Value string `json:"value"`
}

// DeleteRequest represents the request to delete a preference
type DeleteRequest struct {
	Key string `json:"key" binding:"required"`
}

// Get returns a single preference by key, or all preferences as a
// key-to-value object when no key is given. A missing key yields a null
// value, not an error.
func (h *Handler) Get(c *gin.Context) {
	if key := c.Query("key"); key != "" {
		var pref models.Preference
		if err := h.db.First(&pref, "key = ?", key).Error; err != nil {
			c.JSON(http.StatusOK, gin.H{"key": key, "value": nil})
			return
		}
		c.JSON(http.StatusOK, gin.H{"key": key, "value": pref.Value})
		return
	}

	var prefs []models.Preference
	if err := h.db.Find(&prefs).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch preferences"})
		return
	}

	result := make(map[string]string, len(prefs))
	for _, p := range prefs {
		result[p.Key] = p.Value
	}
	c.JSON(http.StatusOK, result)
}

// Upsert inserts or overwrites a preference value by key
func (h *Handler) Upsert(c *gin.Context) {
	var req UpsertRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Key is required"})
		return
	}

	pref := models.Preference{Key: req.Key, Value: req.Value, UpdatedAt: time.Now()}
	err := h.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&pref).Error
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save preference"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "key": req.Key, "value": req.Value})
}

// Delete removes a preference by key
func (h *Handler) Delete(c *gin.Context) {
	var req DeleteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Key is required"})
		return
	}

	if err := h.db.Delete(&models.Preference{}, "key = ?", req.Key).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete preference"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}

// RegisterPublicRoutes registers preference read routes
func (h *Handler) RegisterPublicRoutes(rg *gin.RouterGroup) {
	rg.GET("/preferences", h.Get)
}

// RegisterRoutes registers preference mutation routes
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/preferences", h.Upsert)
	rg.DELETE("/preferences", h.Delete)
}
