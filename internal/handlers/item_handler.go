package handlers

import (
	"net/http"

	"inventory-ledger/internal/database"
	"inventory-ledger/internal/inventory"

	"github.com/gin-gonic/gin"
)

func stockLedger() *inventory.Ledger {
	return inventory.NewLedger(database.DB)
}

// --- GET: List all items ---
func GetItems(c *gin.Context) {
	items, err := stockLedger().ListItems(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, items)
}

// --- GET: Dashboard counters ---
func GetItemStats(c *gin.Context) {
	stats, err := stockLedger().Stats(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

// --- POST: Add a new item ---
func AddItem(c *gin.Context) {
	var input inventory.NewItem

	// 1. Parse JSON Input
	if err := c.ShouldBindJSON(&input); err != nil {
		badRequest(c, "Invalid input")
		return
	}

	// 2. Save, booking any opening stock
	item, err := stockLedger().CreateItem(c.Request.Context(), input)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, item)
}

// --- DELETE: Remove an item, keeping its history ---
func DeleteItem(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}

	result, err := stockLedger().DeleteItem(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}

	message := "Item deleted successfully"
	if result.HistoryPreserved {
		message = "Item deleted successfully. Historical entries were preserved."
	}
	c.JSON(http.StatusOK, gin.H{
		"message":           message,
		"item":              result.Item,
		"history_preserved": result.HistoryPreserved,
		"entries_count":     result.EntriesCount,
	})
}

// --- GET: Compare stored quantities with the entry history (admin) ---
func ReconcileItems(c *gin.Context) {
	report, err := stockLedger().Reconcile(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}
