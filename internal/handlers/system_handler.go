package handlers

import (
	"net/http"

	"inventory-ledger/internal/database"

	"github.com/gin-gonic/gin"
)

// HealthCheck reports whether the database answers a ping
func HealthCheck(c *gin.Context) {
	status := database.CheckHealth(c.Request.Context(), database.DB)
	code := http.StatusOK
	if status.Status != "healthy" {
		code = http.StatusServiceUnavailable
	}
	c.JSON(code, status)
}
