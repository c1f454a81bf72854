package inventory

import (
	"context"
	"errors"
	"time"

	"inventory-ledger/internal/apperr"
	"inventory-ledger/internal/models"
	"inventory-ledger/internal/timeutil"

	"gorm.io/gorm"
)

const (
	defaultEntryLimit = 100
	defaultTruckLimit = 50
)

// EntryFilter narrows the entry list. Date is an IST calendar day.
type EntryFilter struct {
	Type  models.EntryType
	Date  *time.Time
	Limit int
}

// ListEntries returns movements newest first, named by their snapshot so
// entries of deleted items still read correctly.
func (l *Ledger) ListEntries(ctx context.Context, f EntryFilter) ([]models.StockEntry, error) {
	query := l.db.WithContext(ctx).Model(&models.StockEntry{})
	if f.Type != "" {
		if !f.Type.Valid() {
			return nil, apperr.Validation("Type must be IN or OUT")
		}
		query = query.Where("type = ?", f.Type)
	}
	if f.Date != nil {
		start, end := dayBounds(*f.Date)
		query = query.Where("created_at >= ? AND created_at < ?", start, end)
	}
	limit := f.Limit
	if limit <= 0 {
		limit = defaultEntryLimit
	}

	var entries []models.StockEntry
	err := query.Order("created_at DESC, id DESC").Limit(limit).Find(&entries).Error
	return entries, err
}

// dayBounds returns [00:00, 24:00) IST of date, in UTC
func dayBounds(date time.Time) (time.Time, time.Time) {
	start := timeutil.StartOfDay(date).UTC()
	return start, start.Add(24 * time.Hour)
}

type Stats struct {
	TotalStock   int64 `json:"total_stock"`
	ItemCount    int64 `json:"item_count"`
	TodayEntries int64 `json:"today_entries"`
}

func (l *Ledger) Stats(ctx context.Context) (*Stats, error) {
	db := l.db.WithContext(ctx)
	var stats Stats

	if err := db.Model(&models.Item{}).Count(&stats.ItemCount).Error; err != nil {
		return nil, err
	}
	if err := db.Model(&models.Item{}).Select("COALESCE(SUM(quantity), 0)").Scan(&stats.TotalStock).Error; err != nil {
		return nil, err
	}

	start, end := dayBounds(timeutil.Today())
	if err := db.Model(&models.StockEntry{}).
		Where("created_at >= ? AND created_at < ?", start, end).
		Count(&stats.TodayEntries).Error; err != nil {
		return nil, err
	}
	return &stats, nil
}

type TruckFilter struct {
	Type     models.EntryType
	Limit    int
	NonEmpty bool
}

// TruckSummary - one truck with the aggregate of its surviving entries
type TruckSummary struct {
	ID              uint             `json:"id"`
	Type            models.EntryType `json:"type"`
	Remark          *string          `json:"remark"`
	TransactionDate time.Time        `json:"transaction_date"`
	CreatedAt       time.Time        `json:"created_at"`
	ItemCount       int64            `json:"item_count"`
	TotalQuantity   int64            `json:"total_quantity"`
}

// ListTrucks returns truck transactions newest first. Trucks with no entries
// are valid and included unless NonEmpty is set.
func (l *Ledger) ListTrucks(ctx context.Context, f TruckFilter) ([]TruckSummary, error) {
	query := l.db.WithContext(ctx).
		Table("truck_transactions AS t").
		Select("t.id, t.type, t.remark, t.transaction_date, t.created_at, " +
			"COUNT(e.id) AS item_count, COALESCE(SUM(e.quantity), 0) AS total_quantity").
		Joins("LEFT JOIN entries AS e ON e.truck_transaction_id = t.id").
		Group("t.id, t.type, t.remark, t.transaction_date, t.created_at")

	if f.Type != "" {
		if !f.Type.Valid() {
			return nil, apperr.Validation("Type must be IN or OUT")
		}
		query = query.Where("t.type = ?", f.Type)
	}
	if f.NonEmpty {
		query = query.Having("COUNT(e.id) > 0")
	}
	limit := f.Limit
	if limit <= 0 {
		limit = defaultTruckLimit
	}

	var trucks []TruckSummary
	err := query.Order("t.transaction_date DESC, t.id DESC").Limit(limit).Scan(&trucks).Error
	return trucks, err
}

type TruckLineView struct {
	ID          uint    `json:"id"`
	ItemID      *uint   `json:"item_id"`
	Name        string  `json:"name"`
	Variety     string  `json:"variety"`
	DisplayName string  `json:"display_name"`
	Quantity    int     `json:"quantity"`
	Remark      *string `json:"remark"`
}

type TruckDetails struct {
	models.TruckTransaction
	TotalQuantity int             `json:"total_quantity"`
	Items         []TruckLineView `json:"items"`
}

func (l *Ledger) GetTruckDetails(ctx context.Context, id uint) (*TruckDetails, error) {
	db := l.db.WithContext(ctx)

	var details TruckDetails
	if err := db.First(&details.TruckTransaction, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("truck transaction", id)
		}
		return nil, err
	}

	var entries []models.StockEntry
	if err := db.Where("truck_transaction_id = ?", id).
		Order("item_name, item_variety, id").
		Find(&entries).Error; err != nil {
		return nil, err
	}

	details.Items = make([]TruckLineView, 0, len(entries))
	for _, e := range entries {
		details.Items = append(details.Items, TruckLineView{
			ID:          e.ID,
			ItemID:      e.ItemID,
			Name:        e.ItemName,
			Variety:     e.ItemVariety,
			DisplayName: models.DisplayName(e.ItemName, e.ItemVariety),
			Quantity:    e.Quantity,
			Remark:      e.Remark,
		})
		details.TotalQuantity += e.Quantity
	}
	return &details, nil
}

type CleanupResult struct {
	Cleaned    int    `json:"cleaned"`
	CleanedIDs []uint `json:"cleaned_ids"`
}

// CleanupOrphans deletes truck transactions that have no entries left
func (l *Ledger) CleanupOrphans(ctx context.Context) (*CleanupResult, error) {
	result := &CleanupResult{CleanedIDs: []uint{}}
	err := l.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Table("truck_transactions AS t").
			Joins("LEFT JOIN entries AS e ON e.truck_transaction_id = t.id").
			Where("e.id IS NULL").
			Order("t.id").
			Pluck("t.id", &result.CleanedIDs).Error; err != nil {
			return err
		}
		if len(result.CleanedIDs) == 0 {
			return nil
		}
		return tx.Where("id IN ?", result.CleanedIDs).Delete(&models.TruckTransaction{}).Error
	})
	if err != nil {
		return nil, err
	}
	result.Cleaned = len(result.CleanedIDs)
	return result, nil
}

// Discrepancy - an item whose stored quantity disagrees with its entries
type Discrepancy struct {
	ItemID         uint   `json:"item_id"`
	Name           string `json:"name"`
	Variety        string `json:"variety"`
	Quantity       int64  `json:"quantity"`
	LedgerQuantity int64  `json:"ledger_quantity"`
	Difference     int64  `json:"difference"`
}

type ReconcileReport struct {
	ItemsChecked  int           `json:"items_checked"`
	Discrepancies []Discrepancy `json:"discrepancies"`
}

// Reconcile compares every item quantity with ΣIN − ΣOUT of its entries
func (l *Ledger) Reconcile(ctx context.Context) (*ReconcileReport, error) {
	var rows []Discrepancy
	err := l.db.WithContext(ctx).
		Table("items AS i").
		Select("i.id AS item_id, i.name, i.variety, i.quantity, " +
			"COALESCE(SUM(CASE WHEN e.type = 'IN' THEN e.quantity WHEN e.type = 'OUT' THEN -e.quantity ELSE 0 END), 0) AS ledger_quantity").
		Joins("LEFT JOIN entries AS e ON e.item_id = i.id").
		Group("i.id, i.name, i.variety, i.quantity").
		Order("i.name, i.variety").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	report := &ReconcileReport{ItemsChecked: len(rows), Discrepancies: []Discrepancy{}}
	for _, row := range rows {
		if row.Quantity != row.LedgerQuantity {
			row.Difference = row.Quantity - row.LedgerQuantity
			report.Discrepancies = append(report.Discrepancies, row)
		}
	}
	return report, nil
}
