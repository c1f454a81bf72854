package reports

import (
	"bytes"
	"fmt"

	"inventory-ledger/internal/inventory"
	"inventory-ledger/internal/models"
	"inventory-ledger/internal/timeutil"

	"github.com/xuri/excelize/v2"
)

const (
	StockSheet  = "Stock"
	TrucksSheet = "Trucks"
)

// StockWorkbook writes the catalog and the truck history to an XLSX file
func StockWorkbook(items []models.Item, trucks []inventory.TruckSummary) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", StockSheet); err != nil {
		return nil, err
	}
	if _, err := f.NewSheet(TrucksSheet); err != nil {
		return nil, err
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, err
	}

	stockRows := [][]any{{"Item", "Variety", "Quantity"}}
	var total int
	for _, it := range items {
		stockRows = append(stockRows, []any{it.Name, it.Variety, it.Quantity})
		total += it.Quantity
	}
	stockRows = append(stockRows, []any{"Total", "", total})
	if err := writeRows(f, StockSheet, stockRows); err != nil {
		return nil, err
	}

	truckRows := [][]any{{"ID", "Date", "Type", "Items", "Total Quantity", "Remark"}}
	for _, t := range trucks {
		remark := ""
		if t.Remark != nil {
			remark = *t.Remark
		}
		truckRows = append(truckRows, []any{
			t.ID,
			t.TransactionDate.In(timeutil.IST).Format(timeutil.DateTimeLayout),
			string(t.Type),
			t.ItemCount,
			t.TotalQuantity,
			remark,
		})
	}
	if err := writeRows(f, TrucksSheet, truckRows); err != nil {
		return nil, err
	}

	for _, sheet := range []string{StockSheet, TrucksSheet} {
		if err := f.SetRowStyle(sheet, 1, 1, bold); err != nil {
			return nil, err
		}
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("write stock workbook: %w", err)
	}
	return buf.Bytes(), nil
}

func writeRows(f *excelize.File, sheet string, rows [][]any) error {
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return err
		}
	}
	return nil
}
