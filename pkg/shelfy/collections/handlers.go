package collections

import (
	"net/http"
	"regexp"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/shelfy/shelfy/pkg/shelfy/models"
	"gorm.io/gorm"
)

var slugRegex = regexp.MustCompile(`^[a-z0-9_-]*$`)

// Handler handles collection-related requests
type Handler struct {
	db *gorm.DB
}

// NewHandler creates a new collections handler
func NewHandler(db *gorm.DB) *Handler {
	return &Handler{db: db}
}

// CreateCollectionRequest represents the request to create a collection
type CreateCollectionRequest struct {
	Name        string `json:"name" binding:"required"`
	Slug        string `json:"slug" binding:"omitempty,max=50"`
	Description string `json:"description"`
	Theme       string `json:"theme"`
}

// UpdateCollectionRequest represents the request to update a collection
type UpdateCollectionRequest struct {
	ID          string  `json:"id" binding:"required"`
	Name        string  `json:"name"`
	Slug        *string `json:"slug"`
	Description *string `json:"description"`
	Theme       string  `json:"theme"`
}

// DeleteCollectionRequest represents the request to delete a collection
type DeleteCollectionRequest struct {
	ID string `json:"id" binding:"required"`
}

// Slugify derives a URL slug from a collection name.
func Slugify(name string) string {
	slug := strings.ToLower(strings.TrimSpace(name))
	slug = strings.Join(strings.Fields(slug), "")
	var b strings.Builder
	for _, r := range slug {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '-' || r == '_' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// List returns all collections, each with its products nested in display order
func (h *Handler) List(c *gin.Context) {
	var collections []models.Collection
	err := h.db.
		Preload("Products", func(db *gorm.DB) *gorm.DB {
			return db.Order("sequence_number ASC, id ASC")
		}).
		Order("is_default DESC, created_at ASC").
		Find(&collections).Error
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch collections"})
		return
	}

	// Keep "products" an empty array rather than null for empty collections
	for i := range collections {
		if collections[i].Products == nil {
			collections[i].Products = []models.Product{}
		}
	}

	c.JSON(http.StatusOK, collections)
}

// Create creates a new (non-default) collection
func (h *Handler) Create(c *gin.Context) {
	var req CreateCollectionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	slug := req.Slug
	if slug == "" {
		slug = Slugify(req.Name)
	}
	if !slugRegex.MatchString(slug) || slug == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Slug must contain only lowercase letters, numbers, hyphens, and underscores"})
		return
	}

	theme := req.Theme
	if theme == "" {
		theme = "blue"
	}

	var existing models.Collection
	if err := h.db.First(&existing, "id = ?", slug).Error; err == nil {
		c.JSON(http.StatusConflict, gin.H{"error": "A collection with this slug already exists"})
		return
	}

	collection := models.Collection{
		ID:          slug,
		Name:        req.Name,
		Slug:        slug,
		Description: req.Description,
		Theme:       theme,
		IsDefault:   false,
		Products:    []models.Product{},
	}

	if err := h.db.Create(&collection).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create collection"})
		return
	}

	c.JSON(http.StatusCreated, collection)
}

// Update updates collection fields by id
func (h *Handler) Update(c *gin.Context) {
	var req UpdateCollectionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var collection models.Collection
	if err := h.db.First(&collection, "id = ?", req.ID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Collection not found"})
		return
	}

	if req.Name != "" {
		collection.Name = req.Name
	}
	if req.Slug != nil {
		// The default collection may have an empty slug (the root path)
		if !slugRegex.MatchString(*req.Slug) || (*req.Slug == "" && !collection.IsDefault) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid slug"})
			return
		}
		collection.Slug = *req.Slug
	}
	if req.Description != nil {
		collection.Description = *req.Description
	}
	if req.Theme != "" {
		collection.Theme = req.Theme
	}

	if err := h.db.Save(&collection).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update collection"})
		return
	}

	c.JSON(http.StatusOK, collection)
}

// Delete removes a collection and everything referencing it.
// The default collection is protected and always rejected with 403.
func (h *Handler) Delete(c *gin.Context) {
	var req DeleteCollectionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var collection models.Collection
	if err := h.db.First(&collection, "id = ?", req.ID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Collection not found"})
		return
	}

	if collection.IsDefault {
		c.JSON(http.StatusForbidden, gin.H{"error": "Cannot delete default collection"})
		return
	}

	err := h.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("collection_id = ?", collection.ID).Delete(&models.ClickEvent{}).Error; err != nil {
			return err
		}
		if err := tx.Where("collection_id = ?", collection.ID).Delete(&models.CollectionView{}).Error; err != nil {
			return err
		}
		if err := tx.Where("collection_id = ?", collection.ID).Delete(&models.Product{}).Error; err != nil {
			return err
		}
		return tx.Delete(&collection).Error
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete collection"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}

// RegisterPublicRoutes registers collection read routes
func (h *Handler) RegisterPublicRoutes(rg *gin.RouterGroup) {
	rg.GET("/collections", h.List)
	rg.HEAD("/collections", func(c *gin.Context) { c.Status(http.StatusOK) })
}

// RegisterRoutes registers collection mutation routes
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/collections", h.Create)
	rg.PUT("/collections", h.Update)
	rg.DELETE("/collections", h.Delete)
}
