package handlers

import (
	"net/http"
	"strings"
	"time"

	"inventory-ledger/internal/inventory"
	"inventory-ledger/internal/models"
	"inventory-ledger/internal/timeutil"

	"github.com/gin-gonic/gin"
)

func entryType(raw string) models.EntryType {
	return models.EntryType(strings.ToUpper(strings.TrimSpace(raw)))
}

// --- GET: /api/entries?type=&date=&limit= ---
func GetEntries(c *gin.Context) {
	limit, ok := queryInt(c, "limit")
	if !ok {
		return
	}
	date, err := timeutil.ParseOptionalDate(c.Query("date"))
	if err != nil {
		badRequest(c, err.Error())
		return
	}

	entries, err := stockLedger().ListEntries(c.Request.Context(), inventory.EntryFilter{
		Type:  entryType(c.Query("type")),
		Date:  date,
		Limit: limit,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, entries)
}

// --- GET: /api/entries/today?type= ---
func GetTodayEntries(c *gin.Context) {
	today := timeutil.Today()
	entries, err := stockLedger().ListEntries(c.Request.Context(), inventory.EntryFilter{
		Type: entryType(c.Query("type")),
		Date: &today,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, entries)
}

// --- POST: single movement (by item_id, or name + variety) ---
func CreateEntry(c *gin.Context) {
	var input inventory.SingleEntryRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		badRequest(c, "Invalid input")
		return
	}
	input.Type = entryType(string(input.Type))

	result, err := stockLedger().CreateSingleEntry(c.Request.Context(), input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, result)
}

type TruckEntryRequest struct {
	Type            string                `json:"type"`
	Remark          string                `json:"remark"`
	TransactionDate string                `json:"transaction_date"`
	Items           []inventory.TruckLine `json:"items"`
}

// --- POST: one truck moving several items ---
func CreateTruckEntry(c *gin.Context) {
	var input TruckEntryRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		badRequest(c, "Invalid request body")
		return
	}

	var date time.Time
	if strings.TrimSpace(input.TransactionDate) != "" {
		parsed, err := timeutil.ParseDateTime(input.TransactionDate)
		if err != nil {
			badRequest(c, "Invalid transaction_date")
			return
		}
		date = parsed
	}

	result, err := stockLedger().CreateTruckTransaction(c.Request.Context(), inventory.TruckRequest{
		Type:            entryType(input.Type),
		Remark:          input.Remark,
		TransactionDate: date,
		Items:           input.Items,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	message := "Truck transaction created successfully"
	if len(result.Errors) > 0 {
		message = "Truck transaction created with some errors"
	}
	c.JSON(http.StatusCreated, gin.H{
		"message":              message,
		"truck_transaction_id": result.TruckTransactionID,
		"type":                 result.Type,
		"transaction_date":     result.TransactionDate,
		"items_processed":      result.ItemsProcessed,
		"entries":              result.Entries,
		"errors":               result.Errors,
	})
}

// --- GET: /api/entries/trucks?type=&limit=&non_empty= ---
func GetTrucks(c *gin.Context) {
	limit, ok := queryInt(c, "limit")
	if !ok {
		return
	}
	trucks, err := stockLedger().ListTrucks(c.Request.Context(), inventory.TruckFilter{
		Type:     entryType(c.Query("type")),
		Limit:    limit,
		NonEmpty: c.Query("non_empty") == "true",
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, trucks)
}

func GetTruckDetails(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}
	details, err := stockLedger().GetTruckDetails(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, details)
}

// --- DELETE: drop truck transactions left without entries (admin) ---
func CleanupTrucks(c *gin.Context) {
	result, err := stockLedger().CleanupOrphans(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}
