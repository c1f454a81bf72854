package crates

import (
	"context"
	"time"

	"inventory-ledger/internal/models"
	"inventory-ledger/internal/timeutil"

	"gorm.io/datatypes"
)

const sumColumns = "COALESCE(SUM(quantity), 0) AS total, " +
	"COALESCE(SUM(quantity_wg), 0) AS wg, " +
	"COALESCE(SUM(quantity_sada), 0) AS sada"

// typeSums is one row of a SUM ... GROUP BY type query
type typeSums struct {
	CustomerID uint
	Type       models.EntryType
	Total      int64
	WG         int64 `gorm:"column:wg"`
	Sada       int64
}

func (s typeSums) tally() Tally {
	return Tally{Total: s.Total, WG: s.WG, Sada: s.Sada}
}

func (s typeSums) signed() Tally {
	if s.Type == models.EntryIn {
		return Tally{}.Minus(s.tally())
	}
	return s.tally()
}

// Summary - the figures of one statement. OpeningBalance is the balance
// carried into the window: the customer's opening plus everything before From.
type Summary struct {
	OpeningBalance Tally `json:"opening_balance"`
	TotalOut       Tally `json:"total_out"`
	TotalIn        Tally `json:"total_in"`
	NetBalance     Tally `json:"net_balance"`
}

type DateRange struct {
	From *string `json:"from"`
	To   *string `json:"to"`
}

type Statement struct {
	Customer    models.CrateCustomer `json:"customer"`
	Entries     []models.CrateEntry  `json:"entries"`
	Summary     Summary              `json:"summary"`
	DateRange   DateRange            `json:"date_range"`
	GeneratedAt time.Time            `json:"generated_at"`
}

// ComputeLedger builds the customer's statement, optionally limited to
// from <= entry_date <= to. The net balance is
// opening + out - in over every entry up to the window end, so moving From
// only changes how the total is attributed.
func (l *Ledger) ComputeLedger(ctx context.Context, customerID uint, from, to *time.Time) (*Statement, error) {
	db := l.db.WithContext(ctx)

	st := &Statement{Entries: []models.CrateEntry{}, GeneratedAt: timeutil.Now()}
	if err := findCustomer(db, customerID, &st.Customer); err != nil {
		return nil, err
	}

	// 1. Balance carried in from before the window
	carried := openingOf(st.Customer)
	if from != nil {
		var rows []typeSums
		if err := db.Model(&models.CrateEntry{}).
			Select("type, " + sumColumns).
			Where("customer_id = ? AND entry_date < ?", customerID, datatypes.Date(*from)).
			Group("type").
			Scan(&rows).Error; err != nil {
			return nil, err
		}
		for _, r := range rows {
			carried = carried.Plus(r.signed())
		}
	}

	// 2. Entries inside the window in display order
	query := db.Where("customer_id = ?", customerID)
	if from != nil {
		query = query.Where("entry_date >= ?", datatypes.Date(*from))
	}
	if to != nil {
		query = query.Where("entry_date <= ?", datatypes.Date(*to))
	}
	if err := query.Order("entry_date ASC, created_at ASC, id ASC").Find(&st.Entries).Error; err != nil {
		return nil, err
	}

	// 3. Window totals
	st.Summary.OpeningBalance = carried
	for _, e := range st.Entries {
		t := Tally{Total: int64(e.Quantity), WG: int64(e.QuantityWG), Sada: int64(e.QuantitySada)}
		if e.Type == models.EntryOut {
			st.Summary.TotalOut = st.Summary.TotalOut.Plus(t)
		} else {
			st.Summary.TotalIn = st.Summary.TotalIn.Plus(t)
		}
	}
	st.Summary.NetBalance = carried.Plus(st.Summary.TotalOut).Minus(st.Summary.TotalIn)

	st.DateRange = DateRange{From: formatDate(from), To: formatDate(to)}
	return st, nil
}

func formatDate(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.Format(timeutil.DateLayout)
	return &s
}

// GlobalStats - the system-wide balance. NetPending is positive while
// customers hold crates.
type GlobalStats struct {
	TotalCustomers      int64 `json:"total_customers"`
	TotalOpeningBalance int64 `json:"total_opening_balance"`
	TotalOut            int64 `json:"total_out"`
	TotalIn             int64 `json:"total_in"`
	NetPending          int64 `json:"net_pending"`
}

func (l *Ledger) ComputeGlobalStats(ctx context.Context) (*GlobalStats, error) {
	db := l.db.WithContext(ctx)
	var stats GlobalStats

	if err := db.Model(&models.CrateCustomer{}).Count(&stats.TotalCustomers).Error; err != nil {
		return nil, err
	}
	if err := db.Model(&models.CrateCustomer{}).
		Select("COALESCE(SUM(opening_balance), 0)").
		Scan(&stats.TotalOpeningBalance).Error; err != nil {
		return nil, err
	}

	var rows []typeSums
	if err := db.Model(&models.CrateEntry{}).
		Select("type, " + sumColumns).
		Group("type").
		Scan(&rows).Error; err != nil {
		return nil, err
	}
	for _, r := range rows {
		if r.Type == models.EntryOut {
			stats.TotalOut = r.Total
		} else {
			stats.TotalIn = r.Total
		}
	}

	stats.NetPending = stats.TotalOpeningBalance + stats.TotalOut - stats.TotalIn
	return &stats, nil
}
