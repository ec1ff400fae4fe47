package products

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shelfy/shelfy/pkg/shelfy/models"
	"gorm.io/gorm"
)

// Handler handles product-related requests
type Handler struct {
	db *gorm.DB
}

// NewHandler creates a new products handler
func NewHandler(db *gorm.DB) *Handler {
	return &Handler{db: db}
}

// CreateProductRequest represents the request to create a product
type CreateProductRequest struct {
	CollectionID  string  `json:"collection_id" binding:"required"`
	Name          string  `json:"name" binding:"required"`
	Description   string  `json:"description"`
	Price         float64 `json:"price"`
	AffiliateLink string  `json:"affiliate_link" binding:"required,url"`
	ImageURL      string  `json:"image_url"`
	Category      string  `json:"category"`
	Badge         string  `json:"badge"`
	Clicks        uint    `json:"clicks"`
}

// UpdateProductRequest represents the request to update a product
type UpdateProductRequest struct {
	ID            uint     `json:"id" binding:"required"`
	Name          string   `json:"name"`
	Description   *string  `json:"description"`
	Price         *float64 `json:"price"`
	AffiliateLink string   `json:"affiliate_link" binding:"omitempty,url"`
	ImageURL      *string  `json:"image_url"`
	Category      string   `json:"category"`
	Badge         *string  `json:"badge"`
}

// DeleteProductRequest represents the request to delete a product
type DeleteProductRequest struct {
	ID uint `json:"id" binding:"required"`
}

// RenumberRequest represents the request to resequence one collection
type RenumberRequest struct {
	CollectionID string `json:"collection_id" binding:"required"`
}

// List returns products ordered by sequence number, optionally filtered
// by collection
func (h *Handler) List(c *gin.Context) {
	query := h.db.Order("sequence_number ASC, id ASC")
	if collectionID := c.Query("collectionId"); collectionID != "" {
		query = query.Where("collection_id = ?", collectionID)
	}

	var products []models.Product
	if err := query.Find(&products).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch products"})
		return
	}

	c.JSON(http.StatusOK, products)
}

// Create creates a new product, assigning the next sequence number in its
// collection
func (h *Handler) Create(c *gin.Context) {
	var req CreateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var collection models.Collection
	if err := h.db.First(&collection, "id = ?", req.CollectionID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Collection not found"})
		return
	}

	category := req.Category
	if category == "" {
		category = "Uncategorized"
	}

	product := models.Product{
		CollectionID:  req.CollectionID,
		Name:          req.Name,
		Description:   req.Description,
		Price:         req.Price,
		AffiliateLink: req.AffiliateLink,
		ImageURL:      req.ImageURL,
		Category:      category,
		Badge:         req.Badge,
		Clicks:        req.Clicks,
	}

	err := h.db.Transaction(func(tx *gorm.DB) error {
		seq, err := NextSequence(tx, req.CollectionID)
		if err != nil {
			return err
		}
		product.SequenceNumber = seq
		return tx.Create(&product).Error
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create product"})
		return
	}

	c.JSON(http.StatusCreated, product)
}

// Update updates product fields by id
func (h *Handler) Update(c *gin.Context) {
	var req UpdateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var product models.Product
	if err := h.db.First(&product, req.ID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Product not found"})
		return
	}

	if req.Name != "" {
		product.Name = req.Name
	}
	if req.Description != nil {
		product.Description = *req.Description
	}
	if req.Price != nil {
		product.Price = *req.Price
	}
	if req.AffiliateLink != "" {
		product.AffiliateLink = req.AffiliateLink
	}
	if req.ImageURL != nil {
		product.ImageURL = *req.ImageURL
	}
	if req.Category != "" {
		product.Category = req.Category
	}
	if req.Badge != nil {
		product.Badge = *req.Badge
	}

	if err := h.db.Save(&product).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update product"})
		return
	}

	c.JSON(http.StatusOK, product)
}

// Delete removes a product and resequences its collection in the same
// transaction, so the displayed numbering stays dense
func (h *Handler) Delete(c *gin.Context) {
	var req DeleteProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var product models.Product
	if err := h.db.First(&product, req.ID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Product not found"})
		return
	}

	err := h.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Delete(&product).Error; err != nil {
			return err
		}
		_, err := Resequence(tx, product.CollectionID)
		return err
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete product"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}

// Renumber runs a resequence pass over one collection
func (h *Handler) Renumber(c *gin.Context) {
	var req RenumberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Collection ID required"})
		return
	}

	var collection models.Collection
	if err := h.db.First(&collection, "id = ?", req.CollectionID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Collection not found"})
		return
	}

	var renumbered int
	err := h.db.Transaction(func(tx *gorm.DB) error {
		var err error
		renumbered, err = Resequence(tx, req.CollectionID)
		return err
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to renumber products"})
		return
	}

	message := fmt.Sprintf("Resequenced %d products", renumbered)
	if renumbered == 0 {
		message = "No products needed resequencing"
	}

	c.JSON(http.StatusOK, gin.H{
		"success":       true,
		"renumbered":    renumbered,
		"collection_id": req.CollectionID,
		"message":       message,
	})
}

// ResetSequence clears the products autoincrement counter, but only when
// the products table is globally empty. With products present anywhere the
// counter is left alone and current counts are reported instead.
func (h *Handler) ResetSequence(c *gin.Context) {
	var req RenumberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Collection ID required"})
		return
	}

	var total int64
	if err := h.db.Model(&models.Product{}).Count(&total).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to count products"})
		return
	}

	if total == 0 {
		if err := h.db.Exec("DELETE FROM sqlite_sequence WHERE name = 'products'").Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to reset sequence"})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"success": true,
			"reset":   true,
			"message": "Sequence reset to 1",
		})
		return
	}

	var inCollection int64
	if err := h.db.Model(&models.Product{}).Where("collection_id = ?", req.CollectionID).Count(&inCollection).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to count products"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":             true,
		"reset":               false,
		"total_products":      total,
		"collection_products": inCollection,
		"message":             "Products exist in other collections, sequence not reset",
	})
}

// RegisterPublicRoutes registers product read routes
func (h *Handler) RegisterPublicRoutes(rg *gin.RouterGroup) {
	rg.GET("/products", h.List)
}

// RegisterRoutes registers product mutation routes
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/products", h.Create)
	rg.PUT("/products", h.Update)
	rg.DELETE("/products", h.Delete)
	rg.POST("/products/renumber", h.Renumber)
	rg.POST("/products/reset-sequence", h.ResetSequence)
}
