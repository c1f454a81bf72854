// Package inventory is the stock ledger: the item catalog and the IN/OUT
// movements (single entries and truck transactions) that keep its quantities.
package inventory

import (
	"context"
	"errors"
	"strings"

	"inventory-ledger/internal/apperr"
	"inventory-ledger/internal/models"

	"gorm.io/gorm"
)

type Ledger struct {
	db *gorm.DB
}

func NewLedger(db *gorm.DB) *Ledger {
	return &Ledger{db: db}
}

type NewItem struct {
	Name     string `json:"name"`
	Variety  string `json:"variety"`
	Quantity int    `json:"quantity"`
}

// CreateItem adds a catalog line. A positive starting quantity is booked as an
// opening IN entry so the quantity always equals the sum of its entries.
func (l *Ledger) CreateItem(ctx context.Context, in NewItem) (*models.Item, error) {
	name := strings.TrimSpace(in.Name)
	variety := strings.TrimSpace(in.Variety)
	if name == "" || variety == "" {
		return nil, apperr.Validation("Name and variety are required")
	}
	if in.Quantity < 0 || in.Quantity > models.MaxQuantity {
		return nil, apperr.Validation("Quantity must be between 0 and %d", models.MaxQuantity)
	}

	item := models.Item{Name: name, Variety: variety}
	err := l.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing int64
		if err := tx.Model(&models.Item{}).
			Where("name = ? AND variety = ?", name, variety).
			Count(&existing).Error; err != nil {
			return err
		}
		if existing > 0 {
			return duplicateItem()
		}

		if err := tx.Create(&item).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return duplicateItem()
			}
			return err
		}

		if in.Quantity > 0 {
			_, err := applyMovement(tx, &item, models.EntryIn, in.Quantity, nil, models.StringPtr("Opening stock"))
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func duplicateItem() error {
	return &apperr.DuplicateError{Message: "Duplicate entry: This item already exists"}
}

func (l *Ledger) ListItems(ctx context.Context) ([]models.Item, error) {
	var items []models.Item
	err := l.db.WithContext(ctx).Order("name, variety").Find(&items).Error
	return items, err
}

type DeletedItem struct {
	Item             models.Item `json:"item"`
	HistoryPreserved bool        `json:"history_preserved"`
	EntriesCount     int64       `json:"entries_count"`
}

// DeleteItem removes the item but keeps its entries: their item_id is cleared
// and the snapshot name/variety stays, so reports still show the movement.
func (l *Ledger) DeleteItem(ctx context.Context, id uint) (*DeletedItem, error) {
	var result DeletedItem
	err := l.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&result.Item, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperr.NotFound("item", id)
			}
			return err
		}

		if err := tx.Model(&models.StockEntry{}).Where("item_id = ?", id).Count(&result.EntriesCount).Error; err != nil {
			return err
		}
		result.HistoryPreserved = result.EntriesCount > 0

		if err := tx.Model(&models.StockEntry{}).
			Where("item_id = ?", id).
			Update("item_id", gorm.Expr("NULL")).Error; err != nil {
			return err
		}

		return tx.Delete(&models.Item{}, id).Error
	})
	if err != nil {
		return nil, err
	}
	return &result, nil
}
