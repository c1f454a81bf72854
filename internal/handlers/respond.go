package handlers

import (
	"errors"
	"log"
	"net/http"
	"strconv"

	"inventory-ledger/internal/apperr"
	"inventory-ledger/internal/middleware"

	"github.com/gin-gonic/gin"
)

// respondError turns a ledger error into its JSON response. Unexpected errors
// are logged with the request id and answered with a generic message.
func respondError(c *gin.Context, err error) {
	status := apperr.Status(err)
	if status == http.StatusInternalServerError {
		log.Printf("❌ [%s] %s %s: %v", c.GetString(middleware.RequestIDKey), c.Request.Method, c.FullPath(), err)
		c.JSON(status, gin.H{"error": "Internal server error"})
		return
	}

	body := gin.H{"error": err.Error()}

	var stock *apperr.InsufficientStockError
	var noSuccess *apperr.NoSuccessError
	switch {
	case errors.As(err, &stock):
		body["item_id"] = stock.ItemID
		body["available"] = stock.Available
		body["requested"] = stock.Requested
	case errors.As(err, &noSuccess):
		body["errors"] = noSuccess.Details
	}
	c.JSON(status, body)
}

func badRequest(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, gin.H{"error": message})
}

// paramID reads a positive numeric :id path parameter
func paramID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		badRequest(c, "Invalid ID")
		return 0, false
	}
	return uint(id), true
}

// queryInt reads an optional integer query parameter
func queryInt(c *gin.Context, name string) (int, bool) {
	raw := c.Query(name)
	if raw == "" {
		return 0, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		badRequest(c, "Invalid "+name)
		return 0, false
	}
	return n, true
}
