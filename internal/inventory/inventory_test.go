package inventory_test

import (
	"context"
	"math"
	"testing"

	"inventory-ledger/internal/apperr"
	"inventory-ledger/internal/database/dbtest"
	"inventory-ledger/internal/inventory"
	"inventory-ledger/internal/models"
	"inventory-ledger/internal/timeutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newLedger(t *testing.T) (*inventory.Ledger, *gorm.DB) {
	t.Helper()
	db := dbtest.Open(t)
	return inventory.NewLedger(db), db
}

func createItem(t *testing.T, l *inventory.Ledger, name, variety string, qty int) *models.Item {
	t.Helper()
	item, err := l.CreateItem(context.Background(), inventory.NewItem{Name: name, Variety: variety, Quantity: qty})
	require.NoError(t, err)
	return item
}

func truck(typ models.EntryType, lines ...inventory.TruckLine) inventory.TruckRequest {
	return inventory.TruckRequest{Type: typ, Items: lines}
}

func quantityOf(t *testing.T, db *gorm.DB, id uint) int {
	t.Helper()
	var item models.Item
	require.NoError(t, db.First(&item, id).Error)
	return item.Quantity
}

func countRows(t *testing.T, db *gorm.DB, model any) int64 {
	t.Helper()
	var n int64
	require.NoError(t, db.Model(model).Count(&n).Error)
	return n
}

func TestAppleScenario(t *testing.T) {
	ctx := context.Background()
	l, db := newLedger(t)
	apple := createItem(t, l, "Apple", "No2", 0)
	assert.Equal(t, 0, apple.Quantity)

	res, err := l.CreateTruckTransaction(ctx, truck(models.EntryIn, inventory.TruckLine{ItemID: apple.ID, Quantity: 50}))
	require.NoError(t, err)
	assert.Equal(t, 1, res.ItemsProcessed)
	assert.Empty(t, res.Errors)
	assert.Equal(t, 50, quantityOf(t, db, apple.ID))

	_, err = l.CreateTruckTransaction(ctx, truck(models.EntryOut, inventory.TruckLine{ItemID: apple.ID, Quantity: 20}))
	require.NoError(t, err)
	assert.Equal(t, 30, quantityOf(t, db, apple.ID))

	_, err = l.CreateTruckTransaction(ctx, truck(models.EntryOut, inventory.TruckLine{ItemID: apple.ID, Quantity: 100}))
	var noSuccess *apperr.NoSuccessError
	require.ErrorAs(t, err, &noSuccess)
	lines, ok := noSuccess.Details.([]inventory.LineError)
	require.True(t, ok)
	require.Len(t, lines, 1)
	assert.Equal(t, "Insufficient stock", lines[0].Error)
	assert.Equal(t, 30, *lines[0].Available)
	assert.Equal(t, 100, *lines[0].Requested)

	assert.Equal(t, 30, quantityOf(t, db, apple.ID))
	assert.Equal(t, int64(2), countRows(t, db, &models.TruckTransaction{}))
}

func TestTruckPartialFailureKeepsSuccessfulLines(t *testing.T) {
	ctx := context.Background()
	l, db := newLedger(t)
	apple := createItem(t, l, "Apple", "No2", 10)
	mango := createItem(t, l, "Mango", "Alphonso", 5)

	res, err := l.CreateTruckTransaction(ctx, inventory.TruckRequest{
		Type:   models.EntryOut,
		Remark: "Truck MH12",
		Items: []inventory.TruckLine{
			{ItemID: apple.ID, Quantity: 4},
			{ItemID: 9999, Quantity: 1},
			{ItemID: mango.ID, Quantity: 6},
			{ItemID: mango.ID, Quantity: 5},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, res.ItemsProcessed)
	require.Len(t, res.Errors, 2)
	assert.Equal(t, 2, res.Errors[0].Line)
	assert.Equal(t, "Item not found", res.Errors[0].Error)
	assert.Equal(t, 3, res.Errors[1].Line)
	assert.Equal(t, "Insufficient stock", res.Errors[1].Error)

	assert.Equal(t, 6, quantityOf(t, db, apple.ID))
	assert.Equal(t, 0, quantityOf(t, db, mango.ID))

	var lines int64
	require.NoError(t, db.Model(&models.StockEntry{}).Where("truck_transaction_id = ?", res.TruckTransactionID).Count(&lines).Error)
	assert.Equal(t, int64(2), lines)
}

func TestTruckAllLinesFailRollsBackHeader(t *testing.T) {
	ctx := context.Background()
	l, db := newLedger(t)
	apple := createItem(t, l, "Apple", "No2", 3)
	entriesBefore := countRows(t, db, &models.StockEntry{})

	_, err := l.CreateTruckTransaction(ctx, truck(models.EntryOut,
		inventory.TruckLine{ItemID: apple.ID, Quantity: 4},
		inventory.TruckLine{ItemID: 12345, Quantity: 1},
		inventory.TruckLine{ItemID: apple.ID, Quantity: 0},
	))
	var noSuccess *apperr.NoSuccessError
	require.ErrorAs(t, err, &noSuccess)
	assert.Equal(t, 400, apperr.Status(err))
	assert.Len(t, noSuccess.Details, 3)

	assert.Zero(t, countRows(t, db, &models.TruckTransaction{}))
	assert.Equal(t, entriesBefore, countRows(t, db, &models.StockEntry{}))
	assert.Equal(t, 3, quantityOf(t, db, apple.ID))
}

func TestTruckValidation(t *testing.T) {
	ctx := context.Background()
	l, _ := newLedger(t)

	_, err := l.CreateTruckTransaction(ctx, truck("SIDEWAYS", inventory.TruckLine{ItemID: 1, Quantity: 1}))
	var validation *apperr.ValidationError
	assert.ErrorAs(t, err, &validation)

	_, err = l.CreateTruckTransaction(ctx, truck(models.EntryIn))
	assert.ErrorAs(t, err, &validation)
}

func TestQuantityUpperBound(t *testing.T) {
	ctx := context.Background()
	l, db := newLedger(t)
	apple := createItem(t, l, "Apple", "No2", 10)

	res, err := l.CreateTruckTransaction(ctx, truck(models.EntryIn,
		inventory.TruckLine{ItemID: apple.ID, Quantity: math.MaxInt},
		inventory.TruckLine{ItemID: apple.ID, Quantity: models.MaxQuantity},
		inventory.TruckLine{ItemID: apple.ID, Quantity: 5},
	))
	require.NoError(t, err)
	assert.Equal(t, 1, res.ItemsProcessed)
	require.Len(t, res.Errors, 2)
	assert.Equal(t, 1, res.Errors[0].Line)
	assert.Contains(t, res.Errors[0].Error, "cannot exceed")
	assert.Equal(t, 2, res.Errors[1].Line)
	assert.Equal(t, "Apple (No2)", res.Errors[1].Name)
	assert.Equal(t, 15, quantityOf(t, db, apple.ID))

	_, err = l.CreateTruckTransaction(ctx, truck(models.EntryOut, inventory.TruckLine{ItemID: apple.ID, Quantity: 1}))
	require.NoError(t, err)

	var validation *apperr.ValidationError
	_, err = l.CreateSingleEntry(ctx, inventory.SingleEntryRequest{ItemID: apple.ID, Type: models.EntryIn, Quantity: math.MaxInt})
	assert.ErrorAs(t, err, &validation)

	filled, err := l.CreateSingleEntry(ctx, inventory.SingleEntryRequest{ItemID: apple.ID, Type: models.EntryIn, Quantity: models.MaxQuantity - 14})
	require.NoError(t, err)
	assert.Equal(t, models.MaxQuantity, filled.CurrentStock)

	_, err = l.CreateSingleEntry(ctx, inventory.SingleEntryRequest{ItemID: apple.ID, Type: models.EntryIn, Quantity: 1})
	assert.ErrorAs(t, err, &validation)
	assert.Equal(t, models.MaxQuantity, quantityOf(t, db, apple.ID))

	_, err = l.CreateItem(ctx, inventory.NewItem{Name: "Pear", Variety: "Nashi", Quantity: math.MaxInt})
	assert.ErrorAs(t, err, &validation)
}

// No idempotency key exists: the same payload submitted twice applies twice.
func TestTruckDoubleSubmitDoublesStock(t *testing.T) {
	ctx := context.Background()
	l, db := newLedger(t)
	apple := createItem(t, l, "Apple", "No2", 0)
	req := truck(models.EntryIn, inventory.TruckLine{ItemID: apple.ID, Quantity: 25})

	first, err := l.CreateTruckTransaction(ctx, req)
	require.NoError(t, err)
	second, err := l.CreateTruckTransaction(ctx, req)
	require.NoError(t, err)

	assert.NotEqual(t, first.TruckTransactionID, second.TruckTransactionID)
	assert.Equal(t, 50, quantityOf(t, db, apple.ID))
}

func TestCreateItemDuplicateAndOpeningStock(t *testing.T) {
	ctx := context.Background()
	l, db := newLedger(t)
	item := createItem(t, l, " Apple ", "No2", 12)
	assert.Equal(t, "Apple", item.Name)
	assert.Equal(t, 12, quantityOf(t, db, item.ID))

	var opening models.StockEntry
	require.NoError(t, db.Where("item_id = ?", item.ID).First(&opening).Error)
	assert.Equal(t, models.EntryIn, opening.Type)
	assert.Equal(t, 12, opening.Quantity)
	assert.Nil(t, opening.TruckTransactionID)

	_, err := l.CreateItem(ctx, inventory.NewItem{Name: "Apple", Variety: "No2"})
	var duplicate *apperr.DuplicateError
	assert.ErrorAs(t, err, &duplicate)

	_, err = l.CreateItem(ctx, inventory.NewItem{Name: "Apple"})
	var validation *apperr.ValidationError
	assert.ErrorAs(t, err, &validation)

	_, err = l.CreateItem(ctx, inventory.NewItem{Name: "Pear", Variety: "A", Quantity: -1})
	assert.ErrorAs(t, err, &validation)
}

func TestSingleEntryByName(t *testing.T) {
	ctx := context.Background()
	l, db := newLedger(t)

	res, err := l.CreateSingleEntry(ctx, inventory.SingleEntryRequest{Name: "Grapes", Variety: "Black", Type: models.EntryIn, Quantity: 8})
	require.NoError(t, err)
	assert.True(t, res.ItemCreated)
	assert.Equal(t, 8, res.CurrentStock)
	assert.Nil(t, res.Entry.TruckTransactionID)

	res, err = l.CreateSingleEntry(ctx, inventory.SingleEntryRequest{Name: "Grapes", Variety: "Black", Type: models.EntryOut, Quantity: 3})
	require.NoError(t, err)
	assert.False(t, res.ItemCreated)
	assert.Equal(t, 5, res.CurrentStock)
	assert.Equal(t, 5, quantityOf(t, db, *res.Entry.ItemID))

	_, err = l.CreateSingleEntry(ctx, inventory.SingleEntryRequest{Name: "Kiwi", Variety: "Gold", Type: models.EntryOut, Quantity: 1})
	var notFound *apperr.NotFoundError
	require.ErrorAs(t, err, &notFound)
	assert.Equal(t, int64(1), countRows(t, db, &models.Item{}))

	_, err = l.CreateSingleEntry(ctx, inventory.SingleEntryRequest{ItemID: *res.Entry.ItemID, Type: models.EntryOut, Quantity: 6})
	var stock *apperr.InsufficientStockError
	require.ErrorAs(t, err, &stock)
	assert.Equal(t, 5, stock.Available)

	_, err = l.CreateSingleEntry(ctx, inventory.SingleEntryRequest{Type: models.EntryIn, Quantity: 1})
	var validation *apperr.ValidationError
	assert.ErrorAs(t, err, &validation)
}

func TestDeleteItemKeepsHistory(t *testing.T) {
	ctx := context.Background()
	l, db := newLedger(t)
	apple := createItem(t, l, "Apple", "No2", 0)

	res, err := l.CreateTruckTransaction(ctx, truck(models.EntryIn, inventory.TruckLine{ItemID: apple.ID, Quantity: 50}))
	require.NoError(t, err)

	deleted, err := l.DeleteItem(ctx, apple.ID)
	require.NoError(t, err)
	assert.True(t, deleted.HistoryPreserved)
	assert.Equal(t, int64(1), deleted.EntriesCount)
	assert.Zero(t, countRows(t, db, &models.Item{}))

	details, err := l.GetTruckDetails(ctx, res.TruckTransactionID)
	require.NoError(t, err)
	require.Len(t, details.Items, 1)
	assert.Equal(t, "Apple (No2)", details.Items[0].DisplayName)
	assert.Nil(t, details.Items[0].ItemID)
	assert.Equal(t, 50, details.TotalQuantity)

	_, err = l.DeleteItem(ctx, apple.ID)
	assert.Equal(t, 404, apperr.Status(err))
}

func TestListTrucksAndCleanup(t *testing.T) {
	ctx := context.Background()
	l, db := newLedger(t)
	apple := createItem(t, l, "Apple", "No2", 0)

	_, err := l.CreateTruckTransaction(ctx, truck(models.EntryIn,
		inventory.TruckLine{ItemID: apple.ID, Quantity: 10},
		inventory.TruckLine{ItemID: apple.ID, Quantity: 5},
	))
	require.NoError(t, err)

	// An empty header as left behind by older data
	empty := models.TruckTransaction{Type: models.EntryOut, TransactionDate: timeutil.Now()}
	require.NoError(t, db.Create(&empty).Error)

	trucks, err := l.ListTrucks(ctx, inventory.TruckFilter{})
	require.NoError(t, err)
	require.Len(t, trucks, 2)

	trucks, err = l.ListTrucks(ctx, inventory.TruckFilter{NonEmpty: true})
	require.NoError(t, err)
	require.Len(t, trucks, 1)
	assert.Equal(t, int64(2), trucks[0].ItemCount)
	assert.Equal(t, int64(15), trucks[0].TotalQuantity)

	trucks, err = l.ListTrucks(ctx, inventory.TruckFilter{Type: models.EntryOut})
	require.NoError(t, err)
	require.Len(t, trucks, 1)
	assert.Equal(t, empty.ID, trucks[0].ID)
	assert.Zero(t, trucks[0].ItemCount)

	cleaned, err := l.CleanupOrphans(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, cleaned.Cleaned)
	assert.Equal(t, []uint{empty.ID}, cleaned.CleanedIDs)
	assert.Equal(t, int64(1), countRows(t, db, &models.TruckTransaction{}))

	_, err = l.GetTruckDetails(ctx, empty.ID)
	assert.Equal(t, 404, apperr.Status(err))
}

func TestStatsAndEntries(t *testing.T) {
	ctx := context.Background()
	l, _ := newLedger(t)
	apple := createItem(t, l, "Apple", "No2", 7)
	createItem(t, l, "Mango", "Kesar", 3)

	_, err := l.CreateSingleEntry(ctx, inventory.SingleEntryRequest{ItemID: apple.ID, Type: models.EntryOut, Quantity: 2})
	require.NoError(t, err)

	stats, err := l.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(8), stats.TotalStock)
	assert.Equal(t, int64(2), stats.ItemCount)
	assert.Equal(t, int64(3), stats.TodayEntries)

	entries, err := l.ListEntries(ctx, inventory.EntryFilter{Type: models.EntryOut})
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "Apple", entries[0].ItemName)

	today := timeutil.Today()
	entries, err = l.ListEntries(ctx, inventory.EntryFilter{Date: &today})
	require.NoError(t, err)
	assert.Len(t, entries, 3)

	lastYear := today.AddDate(-1, 0, 0)
	entries, err = l.ListEntries(ctx, inventory.EntryFilter{Date: &lastYear})
	require.NoError(t, err)
	assert.Empty(t, entries)

	entries, err = l.ListEntries(ctx, inventory.EntryFilter{Limit: 1})
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestReconcile(t *testing.T) {
	ctx := context.Background()
	l, db := newLedger(t)
	apple := createItem(t, l, "Apple", "No2", 10)
	mango := createItem(t, l, "Mango", "Kesar", 0)

	_, err := l.CreateTruckTransaction(ctx, truck(models.EntryOut, inventory.TruckLine{ItemID: apple.ID, Quantity: 4}))
	require.NoError(t, err)

	report, err := l.Reconcile(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, report.ItemsChecked)
	assert.Empty(t, report.Discrepancies)

	require.NoError(t, db.Model(&models.Item{}).Where("id = ?", mango.ID).Update("quantity", 9).Error)

	report, err = l.Reconcile(ctx)
	require.NoError(t, err)
	require.Len(t, report.Discrepancies, 1)
	assert.Equal(t, mango.ID, report.Discrepancies[0].ItemID)
	assert.Equal(t, int64(9), report.Discrepancies[0].Difference)
}
