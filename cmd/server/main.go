package main

import (
	"flag"
	"log"
	"path/filepath"
	"time"

	"inventory-ledger/internal/auth"
	"inventory-ledger/internal/config"
	"inventory-ledger/internal/database"
	"inventory-ledger/internal/handlers"
	"inventory-ledger/internal/middleware"
	"inventory-ledger/internal/reports"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	seedOnly := flag.Bool("seed-only", false, "apply migrations, ensure the admin account, then exit")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("❌ Config error: %v", err)
	}
	auth.Configure(cfg.JWT.Secret, cfg.TokenTTL())
	reports.Configure(cfg.Reports.UnicodeFont)

	// 1. Database, schema and bootstrap admin
	database.Connect(cfg.DSN(), cfg.Database.MaxRetries, cfg.Log.SQL)
	if _, err := database.Migrate(database.DB); err != nil {
		log.Fatalf("❌ Migration failed: %v", err)
	}

	if _, err := database.EnsureAdmin(database.DB, cfg.Admin.Username, cfg.Admin.Password); err != nil {
		log.Fatalf("❌ Admin bootstrap failed: %v", err)
	}
	if *seedOnly {
		log.Println("✅ Setup complete")
		return
	}

	// 2. Router
	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery(), middleware.RequestID(), middleware.Metrics())
	r.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.Server.CorsAllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", middleware.RequestIDHeader},
		ExposeHeaders:    []string{"Content-Length", "Content-Disposition", middleware.RequestIDHeader},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	handlers.RegisterRoutes(r)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// 3. Serve the web client
	static := cfg.Server.StaticDir
	r.Static("/assets", filepath.Join(static, "assets"))

	// SPA Catch-All: unknown paths get index.html so the client router can take over
	r.NoRoute(func(c *gin.Context) {
		c.File(filepath.Join(static, "index.html"))
	})

	log.Println("🚀 Server starting on " + cfg.Addr())
	if err := r.Run(cfg.Addr()); err != nil {
		log.Fatal("Server failed to start:", err)
	}
}
