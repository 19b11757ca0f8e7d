package main

import (
	"log"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/photocard-archive/api-go/config"
	"github.com/photocard-archive/api-go/middleware"
	"github.com/photocard-archive/api-go/routes"
	"github.com/photocard-archive/api-go/storage"
)

func main() {
	// Set up logging to stdout
	log.SetOutput(os.Stdout)
	log.SetFlags(log.LstdFlags | log.Lshortfile)

	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, reading configuration from the environment")
	}

	cfg := config.GetAppConfig()
	if !cfg.IsDevelopment() {
		gin.SetMode(gin.ReleaseMode)
	}

	// Initialize database
	db := config.InitDB()

	var images storage.ImageStore
	if r2 := config.GetR2Config(); r2.Configured() {
		images = storage.NewR2Store(r2)
	} else {
		log.Println("WARNING: Cloudflare R2 is not configured, images are kept in memory")
		images = storage.NewMemoryStore()
	}

	r := gin.New()
	r.Use(gin.LoggerWithWriter(os.Stdout), gin.Recovery())
	r.Use(middleware.ErrorHandler(cfg))

	routes.SetupRoutes(r, db, images, cfg)

	log.Printf("Starting server on port %s (%s)", cfg.Port, cfg.Env)
	if err := r.Run(":" + cfg.Port); err != nil {
		log.Fatalf("Server stopped: %v", err)
	}
}
