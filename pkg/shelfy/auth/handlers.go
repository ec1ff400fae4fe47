package auth

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shelfy/shelfy/pkg/shelfy/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// PasswordHashKey is the preference key holding the admin password hash.
const PasswordHashKey = "admin_password_hash"

// Handler handles admin authentication requests
type Handler struct {
	db     *gorm.DB
	secret string
	ttl    time.Duration
}

// NewHandler creates a new auth handler issuing tokens signed with secret
// and valid for ttl
func NewHandler(db *gorm.DB, secret string, ttl time.Duration) *Handler {
	return &Handler{db: db, secret: secret, ttl: ttl}
}

// LoginRequest represents the login request body
type LoginRequest struct {
	Password string `json:"password" binding:"required"`
}

// ChangePasswordRequest represents the password change request body
type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password" binding:"required"`
	NewPassword     string `json:"new_password" binding:"required,min=8"`
}

// Login verifies the admin password and returns a session token
func (h *Handler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var pref models.Preference
	if err := h.db.First(&pref, "key = ?", PasswordHashKey).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Admin password not configured"})
		return
	}

	if !CheckPassword(req.Password, pref.Value) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid password"})
		return
	}

	token, err := GenerateToken(h.secret, h.ttl)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate token"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"token": token})
}

// ChangePassword verifies the current admin password and stores a new hash
func (h *Handler) ChangePassword(c *gin.Context) {
	var req ChangePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var pref models.Preference
	if err := h.db.First(&pref, "key = ?", PasswordHashKey).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Admin password not configured"})
		return
	}

	if !CheckPassword(req.CurrentPassword, pref.Value) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid password"})
		return
	}

	hash, err := HashPassword(req.NewPassword)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to process password"})
		return
	}

	if err := SetPasswordHash(h.db, hash); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update password"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Password updated"})
}

// SetPasswordHash upserts the stored admin password hash
func SetPasswordHash(db *gorm.DB, hash string) error {
	pref := models.Preference{Key: PasswordHashKey, Value: hash, UpdatedAt: time.Now()}
	return db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&pref).Error
}

// EnsurePasswordHash seeds the admin password hash if none is stored yet
func EnsurePasswordHash(db *gorm.DB, defaultPassword string) error {
	var count int64
	if err := db.Model(&models.Preference{}).Where("key = ?", PasswordHashKey).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}
	hash, err := HashPassword(defaultPassword)
	if err != nil {
		return err
	}
	return SetPasswordHash(db, hash)
}

// RegisterRoutes registers public auth routes
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/login", h.Login)
}

// RegisterProtectedRoutes registers auth routes requiring a valid session
func (h *Handler) RegisterProtectedRoutes(rg *gin.RouterGroup) {
	rg.POST("/password", h.ChangePassword)
}
