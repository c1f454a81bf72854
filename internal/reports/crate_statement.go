// Package reports renders printable and downloadable views of both ledgers.
package reports

import (
	"bytes"
	"fmt"
	"time"
	"unicode"

	"inventory-ledger/internal/crates"
	"inventory-ledger/internal/models"
	"inventory-ledger/internal/timeutil"

	"github.com/jung-kurt/gofpdf/v2"
)

const unicodeFamily = "unicode"

var unicodeFont string

// Configure sets an optional UTF-8 TrueType font for names and remarks.
// Without one the core fonts are used and non-Latin secondary names are left out.
func Configure(fontFile string) {
	unicodeFont = fontFile
}

// CrateStatementPDF renders a customer's crate statement on A4 portrait
func CrateStatementPDF(st *crates.Statement) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(10, 10, 10)

	tr := pdf.UnicodeTranslatorFromDescriptor("")
	textFont := "Arial"
	if unicodeFont != "" {
		pdf.AddUTF8Font(unicodeFamily, "", unicodeFont)
		if err := pdf.Error(); err != nil {
			return nil, fmt.Errorf("load statement font: %w", err)
		}
		textFont = unicodeFamily
		tr = func(s string) string { return s }
	}
	pdf.AddPage()

	// Header
	pdf.SetFont("Arial", "B", 16)
	pdf.CellFormat(190, 10, "Crate Ledger Statement", "", 1, "C", false, 0, "")
	pdf.SetFont("Arial", "", 10)
	pdf.CellFormat(190, 6, fmt.Sprintf("Generated: %s", st.GeneratedAt.In(timeutil.IST).Format("02-Jan-2006 03:04 PM")), "", 1, "C", false, 0, "")
	pdf.CellFormat(190, 6, "Period: "+periodText(st.DateRange), "", 1, "C", false, 0, "")
	pdf.Ln(4)

	// Customer
	pdf.SetFillColor(240, 240, 240)
	pdf.SetFont("Arial", "B", 12)
	pdf.CellFormat(190, 8, "Customer", "1", 1, "L", true, 0, "")
	pdf.SetFont(textFont, "", 11)
	secondary := secondaryName(st.Customer, textFont == unicodeFamily)
	pdf.CellFormat(95, 7, tr("Name: "+st.Customer.NamePrimary), "LB", 0, "L", false, 0, "")
	pdf.CellFormat(95, 7, tr(secondary), "RB", 1, "L", false, 0, "")
	pdf.Ln(4)

	// Entries
	pdf.SetFont("Arial", "B", 10)
	pdf.SetFillColor(200, 200, 200)
	widths := []float64{28, 18, 22, 22, 22, 26, 52}
	for i, h := range []string{"Date", "Type", "WG", "Sada", "Total", "Balance", "Remark"} {
		pdf.CellFormat(widths[i], 7, h, "1", 0, "C", true, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont(textFont, "", 10)
	running := st.Summary.OpeningBalance.Total
	pdf.CellFormat(widths[0]+widths[1]+widths[2]+widths[3]+widths[4], 6, "Opening balance", "1", 0, "L", false, 0, "")
	pdf.CellFormat(widths[5], 6, fmt.Sprintf("%d", running), "1", 0, "R", false, 0, "")
	pdf.CellFormat(widths[6], 6, "", "1", 1, "L", false, 0, "")
	for _, e := range st.Entries {
		if e.Type == models.EntryOut {
			running += int64(e.Quantity)
		} else {
			running -= int64(e.Quantity)
		}
		remark := ""
		if e.Remark != nil {
			remark = *e.Remark
		}
		pdf.CellFormat(widths[0], 6, time.Time(e.EntryDate).Format("02-Jan-2006"), "1", 0, "C", false, 0, "")
		pdf.CellFormat(widths[1], 6, string(e.Type), "1", 0, "C", false, 0, "")
		pdf.CellFormat(widths[2], 6, fmt.Sprintf("%d", e.QuantityWG), "1", 0, "R", false, 0, "")
		pdf.CellFormat(widths[3], 6, fmt.Sprintf("%d", e.QuantitySada), "1", 0, "R", false, 0, "")
		pdf.CellFormat(widths[4], 6, fmt.Sprintf("%d", e.Quantity), "1", 0, "R", false, 0, "")
		pdf.CellFormat(widths[5], 6, fmt.Sprintf("%d", running), "1", 0, "R", false, 0, "")
		pdf.CellFormat(widths[6], 6, tr(remark), "1", 1, "L", false, 0, "")
	}
	pdf.Ln(4)

	// Summary
	pdf.SetFillColor(240, 240, 240)
	pdf.SetFont("Arial", "B", 12)
	pdf.CellFormat(190, 8, "Summary", "1", 1, "L", true, 0, "")
	pdf.SetFont("Arial", "B", 10)
	for i, h := range []string{"", "Total", "WG", "Sada"} {
		w := 40.0
		if i == 0 {
			w = 70
		}
		pdf.CellFormat(w, 7, h, "1", 0, "C", true, 0, "")
	}
	pdf.Ln(-1)
	pdf.SetFont("Arial", "", 10)
	for _, row := range []struct {
		label string
		t     crates.Tally
	}{
		{"Opening balance", st.Summary.OpeningBalance},
		{"Crates given (OUT)", st.Summary.TotalOut},
		{"Crates returned (IN)", st.Summary.TotalIn},
	} {
		tallyRow(pdf, row.label, row.t)
	}

	net := st.Summary.NetBalance
	if net.Total > 0 {
		pdf.SetFillColor(255, 200, 200) // customer holds crates
	} else {
		pdf.SetFillColor(200, 255, 200)
	}
	pdf.SetFont("Arial", "B", 11)
	pdf.CellFormat(70, 8, "Net balance", "1", 0, "L", true, 0, "")
	pdf.CellFormat(40, 8, fmt.Sprintf("%d", net.Total), "1", 0, "R", true, 0, "")
	pdf.CellFormat(40, 8, fmt.Sprintf("%d", net.WG), "1", 0, "R", true, 0, "")
	pdf.CellFormat(40, 8, fmt.Sprintf("%d", net.Sada), "1", 1, "R", true, 0, "")

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("render crate statement: %w", err)
	}
	return buf.Bytes(), nil
}

// secondaryName is empty when the name has characters the core fonts cannot draw
func secondaryName(c models.CrateCustomer, utf8Font bool) string {
	if c.NameSecondary == nil {
		return ""
	}
	name := *c.NameSecondary
	if utf8Font {
		return name
	}
	for _, r := range name {
		if r > unicode.MaxLatin1 {
			return ""
		}
	}
	return name
}

func tallyRow(pdf *gofpdf.Fpdf, label string, t crates.Tally) {
	pdf.CellFormat(70, 7, label, "1", 0, "L", false, 0, "")
	pdf.CellFormat(40, 7, fmt.Sprintf("%d", t.Total), "1", 0, "R", false, 0, "")
	pdf.CellFormat(40, 7, fmt.Sprintf("%d", t.WG), "1", 0, "R", false, 0, "")
	pdf.CellFormat(40, 7, fmt.Sprintf("%d", t.Sada), "1", 1, "R", false, 0, "")
}

func periodText(r crates.DateRange) string {
	switch {
	case r.From == nil && r.To == nil:
		return "All entries"
	case r.From == nil:
		return "Up to " + *r.To
	case r.To == nil:
		return "From " + *r.From
	default:
		return *r.From + " to " + *r.To
	}
}
