package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/epeers/ownership/config"
	_ "github.com/epeers/ownership/docs"
	"github.com/epeers/ownership/internal/app"
	"github.com/epeers/ownership/internal/handlers"
	"github.com/epeers/ownership/internal/middleware"
	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// @title Ownership Filings API
// @version 1.0
// @description Ingests 13F and Schedule 13G ownership filings and serves the merged holdings.
// @BasePath /
func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	app.ConfigureLogging(cfg.LogLevel)

	// Create context for initialization
	ctx := context.Background()

	// Wire database, cache, archive client and parsers
	pipeline, err := app.New(ctx, cfg, true)
	if err != nil {
		log.Fatalf("Failed to initialize: %v", err)
	}
	defer pipeline.Close()

	// Initialize handlers
	adminHandler := handlers.NewAdminHandler(pipeline.Ingest, pipeline.TimeSeries, pipeline.Funds)
	queryHandler := handlers.NewQueryHandler(pipeline.Funds, pipeline.Filings, pipeline.Holdings, pipeline.Series)
	cacheHandler := handlers.NewCacheHandler(pipeline.Results)

	// Setup Gin router
	router := gin.Default()

	// Health check endpoint
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// Swagger UI
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Read routes
	router.GET("/funds", queryHandler.ListFunds)
	router.GET("/funds/:cik/timeseries", queryHandler.GetFundTimeSeries)
	router.GET("/filings/:accession", queryHandler.GetFiling)

	// Admin routes
	admin := router.Group("/admin", middleware.RequireAdminToken(cfg.AdminToken))
	admin.POST("/ingest", adminHandler.Ingest)
	admin.POST("/timeseries/rebuild", adminHandler.RebuildTimeSeries)
	admin.POST("/funds/upload", adminHandler.UploadFunds)
	admin.GET("/cache/:accession", cacheHandler.GetEntry)
	admin.DELETE("/cache/:accession", cacheHandler.Invalidate)

	if cfg.AdminToken == "" {
		log.Warn("ADMIN_TOKEN is not set; admin routes are unauthenticated")
	}

	// Create HTTP server
	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	// Start server in goroutine
	go func() {
		log.Infof("Starting server on port %s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal for graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	// Give outstanding requests 30 seconds to complete
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Errorf("Server forced to shutdown: %v", err)
	}

	log.Info("Server exited")
}
