package handlers

import (
	"fmt"
	"net/http"

	"inventory-ledger/internal/inventory"
	"inventory-ledger/internal/reports"
	"inventory-ledger/internal/timeutil"

	"github.com/gin-gonic/gin"
)

const (
	xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	exportTruckRows = 1000
)

// --- GET: /api/items/export ---
// ExportStock downloads the catalog and truck history as a workbook
func ExportStock(c *gin.Context) {
	ledger := stockLedger()
	ctx := c.Request.Context()

	// 1. Load both sheets
	items, err := ledger.ListItems(ctx)
	if err != nil {
		respondError(c, err)
		return
	}
	trucks, err := ledger.ListTrucks(ctx, inventory.TruckFilter{Limit: exportTruckRows})
	if err != nil {
		respondError(c, err)
		return
	}

	// 2. Render
	data, err := reports.StockWorkbook(items, trucks)
	if err != nil {
		respondError(c, err)
		return
	}

	filename := fmt.Sprintf("stock-%s.xlsx", timeutil.Today().Format(timeutil.DateLayout))
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	c.Data(http.StatusOK, xlsxContentType, data)
}

// --- GET: /api/crates/ledger/:id/pdf?from=&to= ---
func GetCrateLedgerPDF(c *gin.Context) {
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
	data, err := reports.CrateStatementPDF(statement)
	if err != nil {
		respondError(c, err)
		return
	}

	filename := fmt.Sprintf("crate-ledger-%d.pdf", id)
	c.Header("Content-Disposition", fmt.Sprintf(`inline; filename="%s"`, filename))
	c.Data(http.StatusOK, "application/pdf", data)
}
