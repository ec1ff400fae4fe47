package main

import (
	"fmt"
	"log"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/shelfy/shelfy/pkg/shelfy/analytics"
	"github.com/shelfy/shelfy/pkg/shelfy/auth"
	"github.com/shelfy/shelfy/pkg/shelfy/collections"
	"github.com/shelfy/shelfy/pkg/shelfy/config"
	"github.com/shelfy/shelfy/pkg/shelfy/database"
	"github.com/shelfy/shelfy/pkg/shelfy/importexport"
	"github.com/shelfy/shelfy/pkg/shelfy/models"
	"github.com/shelfy/shelfy/pkg/shelfy/preferences"
	"github.com/shelfy/shelfy/pkg/shelfy/products"
	"github.com/shelfy/shelfy/pkg/shelfy/track"
	"gorm.io/gorm"
)

func main() {
	// .env is optional; real deployments set the environment directly
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	db, err := database.Connect(cfg.DBPath)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	if err := models.AutoMigrate(db); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}
	log.Println("Database migrations completed")

	if err := ensureDefaultCollection(db); err != nil {
		log.Fatalf("Failed to ensure default collection exists: %v", err)
	}

	if err := auth.EnsurePasswordHash(db, cfg.AdminPassword); err != nil {
		log.Fatalf("Failed to ensure admin password exists: %v", err)
	}

	if err := analytics.EnsurePageViewCounter(db); err != nil {
		log.Fatalf("Failed to ensure page view counter exists: %v", err)
	}

	// Set up Gin router
	r := gin.Default()

	// Health check endpoint
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status": "ok",
		})
	})

	// API routes
	api := r.Group("/api")
	{
		// Auth routes (public)
		authHandler := auth.NewHandler(db, cfg.JWTSecret, cfg.TokenTTL)
		authHandler.RegisterRoutes(api.Group("/auth"))
		authHandler.RegisterProtectedRoutes(api.Group("/auth", auth.AuthMiddleware(cfg.JWTSecret)))

		// Public site surface: reads plus analytics event recording
		collectionsHandler := collections.NewHandler(db)
		collectionsHandler.RegisterPublicRoutes(api)

		productsHandler := products.NewHandler(db)
		productsHandler.RegisterPublicRoutes(api)

		analyticsHandler := analytics.NewHandler(db)
		analyticsHandler.RegisterPublicRoutes(api)

		preferencesHandler := preferences.NewHandler(db)
		preferencesHandler.RegisterPublicRoutes(api)

		// Admin surface: mutations and analytics reads require a session token
		admin := api.Group("", auth.AuthMiddleware(cfg.JWTSecret))
		collectionsHandler.RegisterRoutes(admin)
		productsHandler.RegisterRoutes(admin)
		analyticsHandler.RegisterRoutes(admin)
		preferencesHandler.RegisterRoutes(admin)

		importExportHandler := importexport.NewHandler(db)
		importExportHandler.RegisterRoutes(admin)
	}

	// Click-through routes (public, registered last to avoid conflicts)
	trackHandler := track.NewHandler(db)
	trackHandler.RegisterRoutes(r)

	log.Printf("Starting shelfy server on :%d", cfg.Port)
	if err := r.Run(fmt.Sprintf(":%d", cfg.Port)); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}

// ensureDefaultCollection creates the "home" collection if it doesn't
// exist. It is the landing page bucket: its slug is the empty string (the
// root path) and it can never be deleted.
func ensureDefaultCollection(db *gorm.DB) error {
	var existing models.Collection
	if err := db.Where("is_default = ?", true).First(&existing).Error; err == nil {
		return nil
	}

	home := models.Collection{
		ID:          "home",
		Name:        "Home",
		Slug:        "",
		Description: "Products on the landing page",
		Theme:       "blue",
		IsDefault:   true,
	}
	if err := db.Create(&home).Error; err != nil {
		return err
	}

	log.Printf("Created default collection: %s (ID: %s)", home.Name, home.ID)
	return nil
}
