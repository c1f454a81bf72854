package crates_test

import (
	"context"
	"encoding/json"
	"math"
	"testing"
	"time"

	"inventory-ledger/internal/apperr"
	"inventory-ledger/internal/crates"
	"inventory-ledger/internal/database/dbtest"
	"inventory-ledger/internal/models"
	"inventory-ledger/internal/timeutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newLedger(t *testing.T) (*crates.Ledger, *gorm.DB) {
	t.Helper()
	db := dbtest.Open(t)
	return crates.NewLedger(db), db
}

func date(t *testing.T, s string) *time.Time {
	t.Helper()
	d, err := timeutil.ParseDate(s)
	require.NoError(t, err)
	return &d
}

// seedStatement builds the reference customer: opening 10 (6 WG, 4 Sada),
// 5 out on 2024-01-01 and 3 back on 2024-01-05.
func seedStatement(t *testing.T, l *crates.Ledger) *models.CrateCustomer {
	t.Helper()
	ctx := context.Background()
	customer, err := l.CreateCustomer(ctx, crates.CustomerInput{
		NamePrimary:        "Ramesh Traders",
		OpeningBalanceWG:   6,
		OpeningBalanceSada: 4,
	})
	require.NoError(t, err)

	_, err = l.CreateEntry(ctx, crates.EntryInput{CustomerID: customer.ID, Type: models.EntryOut, QuantityWG: 3, QuantitySada: 2, EntryDate: "2024-01-01"})
	require.NoError(t, err)
	_, err = l.CreateEntry(ctx, crates.EntryInput{CustomerID: customer.ID, Type: models.EntryIn, QuantityWG: 1, QuantitySada: 2, EntryDate: "2024-01-05"})
	require.NoError(t, err)
	return customer
}

func TestLedgerWithoutFilters(t *testing.T) {
	l, _ := newLedger(t)
	customer := seedStatement(t, l)

	st, err := l.ComputeLedger(context.Background(), customer.ID, nil, nil)
	require.NoError(t, err)

	assert.Equal(t, crates.Tally{Total: 10, WG: 6, Sada: 4}, st.Summary.OpeningBalance)
	assert.Equal(t, crates.Tally{Total: 5, WG: 3, Sada: 2}, st.Summary.TotalOut)
	assert.Equal(t, crates.Tally{Total: 3, WG: 1, Sada: 2}, st.Summary.TotalIn)
	assert.Equal(t, crates.Tally{Total: 12, WG: 8, Sada: 4}, st.Summary.NetBalance)
	require.Len(t, st.Entries, 2)
	assert.Equal(t, models.EntryOut, st.Entries[0].Type)
	assert.Nil(t, st.DateRange.From)
}

func TestLedgerFromDateCarriesBalance(t *testing.T) {
	l, _ := newLedger(t)
	customer := seedStatement(t, l)

	st, err := l.ComputeLedger(context.Background(), customer.ID, date(t, "2024-01-03"), nil)
	require.NoError(t, err)

	assert.Equal(t, int64(15), st.Summary.OpeningBalance.Total)
	assert.Equal(t, int64(0), st.Summary.TotalOut.Total)
	assert.Equal(t, int64(3), st.Summary.TotalIn.Total)
	assert.Equal(t, int64(12), st.Summary.NetBalance.Total)
	assert.Equal(t, crates.Tally{Total: 12, WG: 8, Sada: 4}, st.Summary.NetBalance)
	require.Len(t, st.Entries, 1)
	require.NotNil(t, st.DateRange.From)
	assert.Equal(t, "2024-01-03", *st.DateRange.From)
}

func TestLedgerWindowBounds(t *testing.T) {
	l, _ := newLedger(t)
	customer := seedStatement(t, l)

	// Both bounds are inclusive
	st, err := l.ComputeLedger(context.Background(), customer.ID, date(t, "2024-01-01"), date(t, "2024-01-01"))
	require.NoError(t, err)
	require.Len(t, st.Entries, 1)
	assert.Equal(t, int64(10), st.Summary.OpeningBalance.Total)
	assert.Equal(t, int64(15), st.Summary.NetBalance.Total)

	_, err = l.ComputeLedger(context.Background(), 999, nil, nil)
	assert.Equal(t, 404, apperr.Status(err))
}

func TestLedgerOrdersByBusinessDateThenCreation(t *testing.T) {
	ctx := context.Background()
	l, _ := newLedger(t)
	customer, err := l.CreateCustomer(ctx, crates.CustomerInput{NamePrimary: "Asha"})
	require.NoError(t, err)

	for _, in := range []crates.EntryInput{
		{Type: models.EntryOut, QuantityWG: 1, EntryDate: "2024-02-10", Remark: "late"},
		{Type: models.EntryOut, QuantityWG: 2, EntryDate: "2024-02-01", Remark: "backdated"},
		{Type: models.EntryIn, QuantitySada: 1, EntryDate: "2024-02-10", Remark: "same day"},
	} {
		in.CustomerID = customer.ID
		_, err := l.CreateEntry(ctx, in)
		require.NoError(t, err)
	}

	st, err := l.ComputeLedger(ctx, customer.ID, nil, nil)
	require.NoError(t, err)
	require.Len(t, st.Entries, 3)
	assert.Equal(t, "backdated", *st.Entries[0].Remark)
	assert.Equal(t, "late", *st.Entries[1].Remark)
	assert.Equal(t, "same day", *st.Entries[2].Remark)
	assert.Equal(t, crates.Tally{Total: 2, WG: 3, Sada: -1}, st.Summary.NetBalance)
}

func TestCustomerValidationAndOpeningInvariant(t *testing.T) {
	ctx := context.Background()
	l, _ := newLedger(t)

	_, err := l.CreateCustomer(ctx, crates.CustomerInput{NamePrimary: "  "})
	var validation *apperr.ValidationError
	assert.ErrorAs(t, err, &validation)

	_, err = l.CreateCustomer(ctx, crates.CustomerInput{NamePrimary: "X", OpeningBalanceSada: -1})
	assert.ErrorAs(t, err, &validation)

	_, err = l.CreateCustomer(ctx, crates.CustomerInput{NamePrimary: "X", OpeningBalanceWG: math.MaxInt, OpeningBalanceSada: 1})
	assert.ErrorAs(t, err, &validation)

	largest, err := l.CreateCustomer(ctx, crates.CustomerInput{NamePrimary: "Big", OpeningBalanceWG: models.MaxQuantity, OpeningBalanceSada: models.MaxQuantity})
	require.NoError(t, err)
	assert.Equal(t, 2*models.MaxQuantity, largest.OpeningBalance)

	customer, err := l.CreateCustomer(ctx, crates.CustomerInput{NamePrimary: "Suresh", NameSecondary: "सुरेश", OpeningBalanceWG: 7, OpeningBalanceSada: 2})
	require.NoError(t, err)
	assert.Equal(t, 9, customer.OpeningBalance)

	updated, err := l.UpdateCustomer(ctx, customer.ID, crates.CustomerInput{NamePrimary: "Suresh Bros"})
	require.NoError(t, err)
	assert.Equal(t, "Suresh Bros", updated.NamePrimary)
	assert.Nil(t, updated.NameSecondary)
	assert.Equal(t, 0, updated.OpeningBalance)
	assert.Equal(t, 0, updated.OpeningBalanceWG)

	_, err = l.UpdateCustomer(ctx, 999, crates.CustomerInput{NamePrimary: "Nobody"})
	assert.Equal(t, 404, apperr.Status(err))
}

func TestEntryValidation(t *testing.T) {
	ctx := context.Background()
	l, db := newLedger(t)
	customer, err := l.CreateCustomer(ctx, crates.CustomerInput{NamePrimary: "Asha"})
	require.NoError(t, err)

	var validation *apperr.ValidationError
	for _, in := range []crates.EntryInput{
		{CustomerID: customer.ID, Type: models.EntryOut},
		{CustomerID: customer.ID, Type: models.EntryOut, QuantityWG: -1, QuantitySada: 3},
		{CustomerID: customer.ID, Type: models.EntryOut, QuantityWG: math.MaxInt, QuantitySada: 1},
		{CustomerID: customer.ID, Type: "LEND", QuantityWG: 1},
		{CustomerID: customer.ID, Type: models.EntryIn, QuantityWG: 1, EntryDate: "05/01/2024"},
		{Type: models.EntryIn, QuantityWG: 1},
	} {
		_, err := l.CreateEntry(ctx, in)
		assert.ErrorAs(t, err, &validation, "%+v", in)
	}

	_, err = l.CreateEntry(ctx, crates.EntryInput{CustomerID: customer.ID, Type: models.EntryOut, QuantityWG: math.MaxInt, QuantitySada: 1})
	require.ErrorAs(t, err, &validation)
	assert.Contains(t, validation.Message, "between 0 and")

	_, err = l.CreateEntry(ctx, crates.EntryInput{CustomerID: 999, Type: models.EntryOut, QuantityWG: 1})
	assert.Equal(t, 404, apperr.Status(err))

	entry, err := l.CreateEntry(ctx, crates.EntryInput{CustomerID: customer.ID, Type: models.EntryOut, QuantitySada: 4})
	require.NoError(t, err)
	assert.Equal(t, 4, entry.Quantity)
	assert.Equal(t, timeutil.Today(), time.Time(entry.EntryDate))

	var stored []models.CrateEntry
	require.NoError(t, db.Find(&stored).Error)
	for _, e := range stored {
		assert.Equal(t, e.QuantityWG+e.QuantitySada, e.Quantity)
		assert.Positive(t, e.Quantity)
	}
}

func TestBulkEntries(t *testing.T) {
	ctx := context.Background()
	l, db := newLedger(t)
	customer, err := l.CreateCustomer(ctx, crates.CustomerInput{NamePrimary: "Asha"})
	require.NoError(t, err)

	res, err := l.CreateBulkEntries(ctx, customer.ID, []crates.EntryInput{
		{Type: models.EntryOut, QuantityWG: 5, EntryDate: "2024-03-01"},
		{Type: models.EntryOut},
		{Type: models.EntryIn, QuantitySada: 2, EntryDate: "2024-03-02"},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, res.Created)
	require.Len(t, res.Warnings, 1)
	assert.Contains(t, res.Warnings[0], "Entry 2:")

	_, err = l.CreateBulkEntries(ctx, customer.ID, []crates.EntryInput{
		{Type: models.EntryOut},
		{Type: "X", QuantityWG: 1},
	})
	var noSuccess *apperr.NoSuccessError
	require.ErrorAs(t, err, &noSuccess)
	assert.Len(t, noSuccess.Details, 2)

	var count int64
	require.NoError(t, db.Model(&models.CrateEntry{}).Count(&count).Error)
	assert.Equal(t, int64(2), count)

	_, err = l.CreateBulkEntries(ctx, 999, []crates.EntryInput{{Type: models.EntryOut, QuantityWG: 1}})
	assert.Equal(t, 404, apperr.Status(err))

	_, err = l.CreateBulkEntries(ctx, customer.ID, nil)
	assert.Equal(t, 400, apperr.Status(err))
}

func TestDeleteCustomerCascades(t *testing.T) {
	ctx := context.Background()
	l, db := newLedger(t)
	customer := seedStatement(t, l)
	other, err := l.CreateCustomer(ctx, crates.CustomerInput{NamePrimary: "Other"})
	require.NoError(t, err)
	_, err = l.CreateEntry(ctx, crates.EntryInput{CustomerID: other.ID, Type: models.EntryOut, QuantityWG: 1})
	require.NoError(t, err)

	deleted, err := l.DeleteCustomer(ctx, customer.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), deleted.EntriesDeleted)

	var remaining int64
	require.NoError(t, db.Model(&models.CrateEntry{}).Count(&remaining).Error)
	assert.Equal(t, int64(1), remaining)

	_, err = l.GetCustomer(ctx, customer.ID)
	assert.Equal(t, 404, apperr.Status(err))
}

func TestDeleteAndListEntries(t *testing.T) {
	ctx := context.Background()
	l, _ := newLedger(t)
	customer := seedStatement(t, l)

	entries, err := l.ListEntries(ctx, crates.EntryFilter{CustomerID: customer.ID})
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "Ramesh Traders", entries[0].CustomerName)
	assert.Equal(t, models.EntryIn, entries[0].Type)

	require.NoError(t, l.DeleteEntry(ctx, entries[0].ID))
	assert.Equal(t, 404, apperr.Status(l.DeleteEntry(ctx, entries[0].ID)))

	entries, err = l.ListEntries(ctx, crates.EntryFilter{Limit: 10})
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestCustomersAndGlobalStats(t *testing.T) {
	ctx := context.Background()
	l, _ := newLedger(t)
	seedStatement(t, l)
	second, err := l.CreateCustomer(ctx, crates.CustomerInput{NamePrimary: "Anil", OpeningBalanceWG: 2})
	require.NoError(t, err)
	_, err = l.CreateEntry(ctx, crates.EntryInput{CustomerID: second.ID, Type: models.EntryIn, QuantityWG: 4})
	require.NoError(t, err)

	customers, err := l.ListCustomers(ctx)
	require.NoError(t, err)
	require.Len(t, customers, 2)
	assert.Equal(t, "Anil", customers[0].NamePrimary)
	assert.Equal(t, crates.Tally{Total: -2, WG: -2}, customers[0].CurrentBalance)
	assert.Equal(t, crates.Tally{Total: 12, WG: 8, Sada: 4}, customers[1].CurrentBalance)

	stats, err := l.ComputeGlobalStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, crates.GlobalStats{
		TotalCustomers:      2,
		TotalOpeningBalance: 12,
		TotalOut:            5,
		TotalIn:             7,
		NetPending:          10,
	}, *stats)
}

func TestInputsAcceptLegacyFieldNames(t *testing.T) {
	var customer crates.CustomerInput
	require.NoError(t, json.Unmarshal([]byte(`{"name_en":"Ramesh","name_hi":"रमेश","opening_balance_wg":6,"opening_balance_normal":4}`), &customer))
	assert.Equal(t, crates.CustomerInput{NamePrimary: "Ramesh", NameSecondary: "रमेश", OpeningBalanceWG: 6, OpeningBalanceSada: 4}, customer)

	require.NoError(t, json.Unmarshal([]byte(`{"name_primary":"Current","name_en":"Legacy"}`), &customer))
	assert.Equal(t, "Current", customer.NamePrimary)

	var entry crates.EntryInput
	require.NoError(t, json.Unmarshal([]byte(`{"customer_id":3,"type":"OUT","wg_quantity":2,"normal_quantity":5,"entry_date":"2024-01-01"}`), &entry))
	assert.Equal(t, crates.EntryInput{CustomerID: 3, Type: models.EntryOut, QuantityWG: 2, QuantitySada: 5, EntryDate: "2024-01-01"}, entry)

	var bulk struct {
		Entries []crates.EntryInput `json:"entries"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"entries":[{"type":"IN","quantity_sada":1,"normal_quantity":9}]}`), &bulk))
	require.Len(t, bulk.Entries, 1)
	assert.Equal(t, 1, bulk.Entries[0].QuantitySada)
}
