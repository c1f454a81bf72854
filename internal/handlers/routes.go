package handlers

import (
	"inventory-ledger/internal/middleware"
	"inventory-ledger/internal/models"

	"github.com/gin-gonic/gin"
)

// RegisterRoutes mounts the JSON API under /api
func RegisterRoutes(r *gin.Engine) {
	// --- PUBLIC ROUTES ---
	r.GET("/api/health", HealthCheck)
	r.POST("/api/auth/login", Login)

	// --- PROTECTED ROUTES ---
	api := r.Group("/api")
	api.Use(middleware.AuthMiddleware())

	adminOnly := middleware.RequireRole(models.RoleAdmin)

	authGroup := api.Group("/auth")
	{
		authGroup.GET("/verify", Verify)
		authGroup.POST("/change-password", ChangePassword)

		users := authGroup.Group("/users", adminOnly)
		users.GET("", GetUsers)
		users.POST("", CreateUser)
		users.DELETE("/:id", DeleteUser)
		users.PUT("/:id/reset-password", ResetPassword)
	}

	items := api.Group("/items")
	{
		items.GET("", GetItems)
		items.GET("/stats", GetItemStats)
		items.GET("/export", ExportStock)
		items.GET("/reconcile", adminOnly, ReconcileItems)
		items.POST("", AddItem)
		items.DELETE("/:id", DeleteItem)
	}

	entries := api.Group("/entries")
	{
		entries.GET("", GetEntries)
		entries.GET("/today", GetTodayEntries)
		entries.POST("", CreateEntry)
		entries.POST("/truck", CreateTruckEntry)
		entries.GET("/trucks", GetTrucks)
		entries.GET("/trucks/:id", GetTruckDetails)
		entries.DELETE("/cleanup", adminOnly, CleanupTrucks)
	}

	crateGroup := api.Group("/crates")
	{
		crateGroup.GET("/customers", GetCrateCustomers)
		crateGroup.POST("/customers", CreateCrateCustomer)
		crateGroup.PUT("/customers/:id", UpdateCrateCustomer)
		crateGroup.DELETE("/customers/:id", DeleteCrateCustomer)

		crateGroup.GET("/entries", GetCrateEntries)
		crateGroup.POST("/entries", CreateCrateEntry)
		crateGroup.POST("/entries/bulk", CreateBulkCrateEntries)
		crateGroup.DELETE("/entries/:id", DeleteCrateEntry)

		crateGroup.GET("/ledger/:id", GetCrateLedger)
		crateGroup.GET("/ledger/:id/pdf", GetCrateLedgerPDF)
		crateGroup.GET("/stats", GetCrateStats)
	}
}
