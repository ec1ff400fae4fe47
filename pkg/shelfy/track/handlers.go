package track

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shelfy/shelfy/pkg/shelfy/models"
	"gorm.io/gorm"
)

// Handler handles public click-through redirects
type Handler struct {
	db *gorm.DB
}

// NewHandler creates a new track handler
func NewHandler(db *gorm.DB) *Handler {
	return &Handler{db: db}
}

// Go records a click for the product and redirects to its affiliate link.
// The click event and the counter bump happen in one transaction before
// the redirect, so history and counters never drift apart.
func (h *Handler) Go(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid product ID"})
		return
	}

	var product models.Product
	if err := h.db.First(&product, uint(id)).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Product not found"})
		return
	}

	now := time.Now()
	err = h.db.Transaction(func(tx *gorm.DB) error {
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

	c.Redirect(http.StatusFound, product.AffiliateLink)
}

// RegisterRoutes registers the click-through route on the root router
func (h *Handler) RegisterRoutes(r *gin.Engine) {
	r.GET("/go/:id", h.Go)
}
