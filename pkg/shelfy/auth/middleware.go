package auth

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// ContextKeyAdmin is the key for the admin flag in gin context
const ContextKeyAdmin = "admin"

// AuthMiddleware validates admin JWT tokens against the signing secret
// and sets the admin flag in context
func AuthMiddleware(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Authorization header required"})
			c.Abort()
			return
		}

		// Expect "Bearer <token>"
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid authorization header format"})
			c.Abort()
			return
		}

		claims, err := ValidateToken(secret, parts[1])
		if err != nil {
			if err == ErrExpiredToken {
				c.JSON(http.StatusUnauthorized, gin.H{"error": "Token has expired"})
			} else {
				c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid token"})
			}
			c.Abort()
			return
		}

		c.Set(ContextKeyAdmin, claims.Admin)
		c.Next()
	}
}

// IsAdmin returns whether the current request carries a valid admin session
func IsAdmin(c *gin.Context) bool {
	admin, exists := c.Get(ContextKeyAdmin)
	if !exists {
		return false
	}
	return admin.(bool)
}
