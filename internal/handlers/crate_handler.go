package handlers

import (
	"net/http"
	"strconv"
	"time"

	"inventory-ledger/internal/crates"
	"inventory-ledger/internal/database"
	"inventory-ledger/internal/timeutil"

	"github.com/gin-gonic/gin"
)

func crateLedger() *crates.Ledger {
	return crates.NewLedger(database.DB)
}

// --- Customers ---

func GetCrateCustomers(c *gin.Context) {
	customers, err := crateLedger().ListCustomers(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, customers)
}

func CreateCrateCustomer(c *gin.Context) {
	var input crates.CustomerInput
	if err := c.ShouldBindJSON(&input); err != nil {
		badRequest(c, "Invalid input")
		return
	}
	customer, err := crateLedger().CreateCustomer(c.Request.Context(), input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, customer)
}

func UpdateCrateCustomer(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}
	var input crates.CustomerInput
	if err := c.ShouldBindJSON(&input); err != nil {
		badRequest(c, "Invalid input")
		return
	}
	customer, err := crateLedger().UpdateCustomer(c.Request.Context(), id, input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, customer)
}

// DeleteCrateCustomer removes the customer and every one of their entries
func DeleteCrateCustomer(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}
	result, err := crateLedger().DeleteCustomer(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message":         "Customer and all entries deleted",
		"customer":        result.Customer,
		"entries_deleted": result.EntriesDeleted,
	})
}

// --- Entries ---

func GetCrateEntries(c *gin.Context) {
	limit, ok := queryInt(c, "limit")
	if !ok {
		return
	}
	var customerID uint
	if raw := c.Query("customer_id"); raw != "" {
		id, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			badRequest(c, "Invalid customer_id")
			return
		}
		customerID = uint(id)
	}

	entries, err := crateLedger().ListEntries(c.Request.Context(), crates.EntryFilter{CustomerID: customerID, Limit: limit})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, entries)
}

func CreateCrateEntry(c *gin.Context) {
	var input crates.EntryInput
	if err := c.ShouldBindJSON(&input); err != nil {
		badRequest(c, "Invalid input")
		return
	}
	input.Type = entryType(string(input.Type))

	entry, err := crateLedger().CreateEntry(c.Request.Context(), input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, entry)
}

type BulkCrateRequest struct {
	CustomerID uint                `json:"customer_id"`
	Entries    []crates.EntryInput `json:"entries"`
}

func CreateBulkCrateEntries(c *gin.Context) {
	var input BulkCrateRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		badRequest(c, "Invalid input")
		return
	}
	for i := range input.Entries {
		input.Entries[i].Type = entryType(string(input.Entries[i].Type))
	}

	result, err := crateLedger().CreateBulkEntries(c.Request.Context(), input.CustomerID, input.Entries)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"message":  strconv.Itoa(result.Created) + " entries added successfully",
		"created":  result.Created,
		"entries":  result.Entries,
		"warnings": result.Warnings,
	})
}

func DeleteCrateEntry(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}
	if err := crateLedger().DeleteEntry(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Entry deleted successfully"})
}

// --- Ledger and stats ---

// ledgerRange reads the optional ?from=&to= business dates
func ledgerRange(c *gin.Context) (from, to *time.Time, ok bool) {
	var err error
	if from, err = timeutil.ParseOptionalDate(c.Query("from")); err != nil {
		badRequest(c, "Invalid from date: "+err.Error())
		return nil, nil, false
	}
	if to, err = timeutil.ParseOptionalDate(c.Query("to")); err != nil {
		badRequest(c, "Invalid to date: "+err.Error())
		return nil, nil, false
	}
	return from, to, true
}

func GetCrateLedger(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}
	from, to, ok := ledgerRange(c)
	if !ok {
		return
	}

	statement, err := crateLedger().ComputeLedger(c.Request.Context(), id, from, to)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, statement)
}

func GetCrateStats(c *gin.Context) {
	stats, err := crateLedger().ComputeGlobalStats(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}
