package inventory

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"inventory-ledger/internal/apperr"
	"inventory-ledger/internal/metrics"
	"inventory-ledger/internal/models"
	"inventory-ledger/internal/timeutil"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// applyMovement moves qty units of item inside tx and writes the matching
// StockEntry. The caller must hold a row lock on item.
func applyMovement(tx *gorm.DB, item *models.Item, typ models.EntryType, qty int, truckID *uint, remark *string) (*models.StockEntry, error) {
	if typ == models.EntryIn && qty > models.MaxQuantity-item.Quantity {
		return nil, apperr.Validation("Stock of %s cannot exceed %d", item.DisplayName(), models.MaxQuantity)
	}
	newQuantity := item.Quantity + qty
	if typ == models.EntryOut {
		if item.Quantity < qty {
			return nil, &apperr.InsufficientStockError{
				ItemID:    item.ID,
				Name:      item.DisplayName(),
				Available: item.Quantity,
				Requested: qty,
			}
		}
		newQuantity = item.Quantity - qty
	}

	if err := tx.Model(&models.Item{}).Where("id = ?", item.ID).Update("quantity", newQuantity).Error; err != nil {
		return nil, err
	}
	item.Quantity = newQuantity

	itemID := item.ID
	entry := models.StockEntry{
		ItemID:             &itemID,
		ItemName:           item.Name,
		ItemVariety:        item.Variety,
		TruckTransactionID: truckID,
		Type:               typ,
		Quantity:           qty,
		Remark:             remark,
	}
	if err := tx.Create(&entry).Error; err != nil {
		return nil, err
	}
	return &entry, nil
}

func quantityProblem(qty int) string {
	switch {
	case qty <= 0:
		return "Quantity must be greater than 0"
	case qty > models.MaxQuantity:
		return fmt.Sprintf("Quantity cannot exceed %d", models.MaxQuantity)
	}
	return ""
}

// lockItem loads an item with a row lock held until tx ends
func lockItem(tx *gorm.DB, id uint) (*models.Item, error) {
	var item models.Item
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&item, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("item", id)
		}
		return nil, err
	}
	return &item, nil
}

type TruckLine struct {
	ItemID   uint   `json:"item_id"`
	Quantity int    `json:"quantity"`
	Remark   string `json:"remark"`
}

// TruckRequest - one truck arriving (IN) or leaving (OUT) with several items.
// A zero TransactionDate means now.
type TruckRequest struct {
	Type            models.EntryType
	Remark          string
	TransactionDate time.Time
	Items           []TruckLine
}

// LineError explains why one line of a truck transaction was skipped.
// Line is 1-based.
type LineError struct {
	Line      int    `json:"line"`
	ItemID    uint   `json:"item_id"`
	Name      string `json:"name,omitempty"`
	Error     string `json:"error"`
	Available *int   `json:"available,omitempty"`
	Requested *int   `json:"requested,omitempty"`
}

type TruckResult struct {
	TruckTransactionID uint                `json:"truck_transaction_id"`
	Type               models.EntryType    `json:"type"`
	TransactionDate    time.Time           `json:"transaction_date"`
	ItemsProcessed     int                 `json:"items_processed"`
	Entries            []models.StockEntry `json:"entries"`
	Errors             []LineError         `json:"errors"`
}

// CreateTruckTransaction books every valid line under one truck header.
// Lines that fail are reported and skipped. When no line succeeds the header
// is rolled back too and a NoSuccessError carrying the line errors is returned.
func (l *Ledger) CreateTruckTransaction(ctx context.Context, req TruckRequest) (*TruckResult, error) {
	if !req.Type.Valid() {
		return nil, apperr.Validation("Type must be IN or OUT")
	}
	if len(req.Items) == 0 {
		return nil, apperr.Validation("At least one item is required")
	}
	date := req.TransactionDate
	if date.IsZero() {
		date = timeutil.Now()
	}

	result := &TruckResult{Type: req.Type, TransactionDate: date, Errors: []LineError{}}
	err := l.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// 1. Header first so every line can point at it
		truck := models.TruckTransaction{
			Type:            req.Type,
			Remark:          models.StringPtr(strings.TrimSpace(req.Remark)),
			TransactionDate: date,
		}
		if err := tx.Create(&truck).Error; err != nil {
			return err
		}
		result.TruckTransactionID = truck.ID

		// 2. Lines are independent: a bad one is recorded, the rest continue
		for i, line := range req.Items {
			lineErr := LineError{Line: i + 1, ItemID: line.ItemID}
			if line.ItemID == 0 {
				lineErr.Error = "item_id is required"
				result.Errors = append(result.Errors, lineErr)
				continue
			}
			if msg := quantityProblem(line.Quantity); msg != "" {
				lineErr.Error = msg
				result.Errors = append(result.Errors, lineErr)
				continue
			}

			item, err := lockItem(tx, line.ItemID)
			if err != nil {
				var notFound *apperr.NotFoundError
				if errors.As(err, &notFound) {
					lineErr.Error = "Item not found"
					result.Errors = append(result.Errors, lineErr)
					continue
				}
				return err
			}

			entry, err := applyMovement(tx, item, req.Type, line.Quantity, &truck.ID, models.StringPtr(strings.TrimSpace(line.Remark)))
			if err != nil {
				var stock *apperr.InsufficientStockError
				var validation *apperr.ValidationError
				switch {
				case errors.As(err, &stock):
					lineErr.Name = stock.Name
					lineErr.Error = "Insufficient stock"
					lineErr.Available = &stock.Available
					lineErr.Requested = &stock.Requested
				case errors.As(err, &validation):
					lineErr.Name = item.DisplayName()
					lineErr.Error = validation.Message
				default:
					return err
				}
				result.Errors = append(result.Errors, lineErr)
				continue
			}
			result.Entries = append(result.Entries, *entry)
		}

		// 3. Nothing went through: drop the header as well
		result.ItemsProcessed = len(result.Entries)
		if result.ItemsProcessed == 0 {
			return &apperr.NoSuccessError{Message: "No items were processed", Details: result.Errors}
		}
		return nil
	})

	metrics.RejectedLinesTotal.WithLabelValues("stock").Add(float64(len(result.Errors)))
	if err != nil {
		metrics.TruckTransactionsTotal.WithLabelValues(string(req.Type), "rejected").Inc()
		return nil, err
	}
	metrics.TruckTransactionsTotal.WithLabelValues(string(req.Type), "committed").Inc()
	return result, nil
}

// SingleEntryRequest is the one-item path. The item is chosen by ItemID, or by
// Name and Variety when ItemID is zero.
type SingleEntryRequest struct {
	ItemID   uint             `json:"item_id"`
	Name     string           `json:"name"`
	Variety  string           `json:"variety"`
	Type     models.EntryType `json:"type"`
	Quantity int              `json:"quantity"`
	Remark   string           `json:"remark"`
}

type SingleEntryResult struct {
	Entry        models.StockEntry `json:"entry"`
	CurrentStock int               `json:"current_stock"`
	ItemCreated  bool              `json:"item_created"`
}

// CreateSingleEntry books one movement without a truck header. Looking an item
// up by name creates it on IN and fails on OUT.
func (l *Ledger) CreateSingleEntry(ctx context.Context, req SingleEntryRequest) (*SingleEntryResult, error) {
	if !req.Type.Valid() {
		return nil, apperr.Validation("Type must be IN or OUT")
	}
	if msg := quantityProblem(req.Quantity); msg != "" {
		return nil, apperr.Validation("%s", msg)
	}
	name := strings.TrimSpace(req.Name)
	variety := strings.TrimSpace(req.Variety)
	if req.ItemID == 0 && (name == "" || variety == "") {
		return nil, apperr.Validation("Either item_id or name and variety are required")
	}

	var result SingleEntryResult
	err := l.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		item, created, err := resolveItem(tx, req.ItemID, name, variety, req.Type)
		if err != nil {
			return err
		}
		result.ItemCreated = created

		entry, err := applyMovement(tx, item, req.Type, req.Quantity, nil, models.StringPtr(strings.TrimSpace(req.Remark)))
		if err != nil {
			return err
		}
		result.Entry = *entry
		result.CurrentStock = item.Quantity
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &result, nil
}

func resolveItem(tx *gorm.DB, id uint, name, variety string, typ models.EntryType) (*models.Item, bool, error) {
	if id != 0 {
		item, err := lockItem(tx, id)
		return item, false, err
	}

	var item models.Item
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("name = ? AND variety = ?", name, variety).
		First(&item).Error
	if err == nil {
		return &item, false, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, err
	}

	if typ == models.EntryOut {
		return nil, false, apperr.NotFound("item", models.DisplayName(name, variety))
	}
	item = models.Item{Name: name, Variety: variety}
	if err := tx.Create(&item).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, false, duplicateItem()
		}
		return nil, false, err
	}
	return &item, true, nil
}
