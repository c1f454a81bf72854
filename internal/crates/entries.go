package crates

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"inventory-ledger/internal/apperr"
	"inventory-ledger/internal/metrics"
	"inventory-ledger/internal/models"
	"inventory-ledger/internal/timeutil"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const defaultEntryLimit = 100

// EntryInput - one lending (OUT) or return (IN). EntryDate is YYYY-MM-DD and
// defaults to today in IST.
type EntryInput struct {
	CustomerID   uint             `json:"customer_id"`
	Type         models.EntryType `json:"type"`
	QuantityWG   int              `json:"quantity_wg"`
	QuantitySada int              `json:"quantity_sada"`
	EntryDate    string           `json:"entry_date"`
	Remark       string           `json:"remark"`
}

// UnmarshalJSON also accepts the older wg_quantity and normal_quantity names
func (in *EntryInput) UnmarshalJSON(data []byte) error {
	type plain EntryInput
	var aux struct {
		plain
		WG     *int `json:"wg_quantity"`
		Normal *int `json:"normal_quantity"`
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	*in = EntryInput(aux.plain)
	if in.QuantityWG == 0 && aux.WG != nil {
		in.QuantityWG = *aux.WG
	}
	if in.QuantitySada == 0 && aux.Normal != nil {
		in.QuantitySada = *aux.Normal
	}
	return nil
}

func (in EntryInput) toModel(customerID uint) (models.CrateEntry, error) {
	if !in.Type.Valid() {
		return models.CrateEntry{}, apperr.Validation("Type must be IN or OUT")
	}
	if !inRange(in.QuantityWG) || !inRange(in.QuantitySada) {
		return models.CrateEntry{}, apperr.Validation("Quantities must be between 0 and %d", models.MaxQuantity)
	}
	if in.QuantityWG+in.QuantitySada == 0 {
		return models.CrateEntry{}, apperr.Validation("At least one of WG or Sada quantity must be greater than 0")
	}

	date := timeutil.Today()
	if strings.TrimSpace(in.EntryDate) != "" {
		parsed, err := timeutil.ParseDate(in.EntryDate)
		if err != nil {
			return models.CrateEntry{}, apperr.Validation("Invalid entry_date: %v", err)
		}
		date = parsed
	}

	return models.CrateEntry{
		CustomerID:   customerID,
		Type:         in.Type,
		Quantity:     in.QuantityWG + in.QuantitySada,
		QuantityWG:   in.QuantityWG,
		QuantitySada: in.QuantitySada,
		EntryDate:    datatypes.Date(date),
		Remark:       models.StringPtr(strings.TrimSpace(in.Remark)),
	}, nil
}

func (l *Ledger) CreateEntry(ctx context.Context, in EntryInput) (*models.CrateEntry, error) {
	if in.CustomerID == 0 {
		return nil, apperr.Validation("customer_id is required")
	}
	entry, err := in.toModel(in.CustomerID)
	if err != nil {
		return nil, err
	}

	err = l.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var customer models.CrateCustomer
		if err := findCustomer(tx, in.CustomerID, &customer); err != nil {
			return err
		}
		return tx.Create(&entry).Error
	})
	if err != nil {
		return nil, err
	}
	metrics.CrateEntriesTotal.WithLabelValues(string(entry.Type)).Inc()
	return &entry, nil
}

type BulkResult struct {
	Created  int                 `json:"created"`
	Entries  []models.CrateEntry `json:"entries"`
	Warnings []string            `json:"warnings"`
}

// CreateBulkEntries writes several entries for one customer in a single
// transaction. Invalid entries become warnings; if none is valid nothing is
// written and a NoSuccessError is returned.
func (l *Ledger) CreateBulkEntries(ctx context.Context, customerID uint, entries []EntryInput) (*BulkResult, error) {
	if customerID == 0 {
		return nil, apperr.Validation("customer_id is required")
	}
	if len(entries) == 0 {
		return nil, apperr.Validation("At least one entry is required")
	}

	result := &BulkResult{Entries: []models.CrateEntry{}, Warnings: []string{}}
	err := l.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var customer models.CrateCustomer
		if err := findCustomer(tx, customerID, &customer); err != nil {
			return err
		}

		for i, in := range entries {
			entry, err := in.toModel(customerID)
			if err != nil {
				var validation *apperr.ValidationError
				if errors.As(err, &validation) {
					result.Warnings = append(result.Warnings, fmt.Sprintf("Entry %d: %s", i+1, validation.Message))
					continue
				}
				return err
			}
			if err := tx.Create(&entry).Error; err != nil {
				return err
			}
			result.Entries = append(result.Entries, entry)
		}

		result.Created = len(result.Entries)
		if result.Created == 0 {
			return &apperr.NoSuccessError{Message: "No valid entries to insert", Details: result.Warnings}
		}
		return nil
	})

	metrics.RejectedLinesTotal.WithLabelValues("crates").Add(float64(len(result.Warnings)))
	if err != nil {
		return nil, err
	}
	for _, e := range result.Entries {
		metrics.CrateEntriesTotal.WithLabelValues(string(e.Type)).Inc()
	}
	return result, nil
}

func (l *Ledger) DeleteEntry(ctx context.Context, id uint) error {
	res := l.db.WithContext(ctx).Delete(&models.CrateEntry{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return apperr.NotFound("crate entry", id)
	}
	return nil
}

type EntryFilter struct {
	CustomerID uint
	Limit      int
}

// EntryView - an entry with its customer's name for list screens
type EntryView struct {
	models.CrateEntry
	CustomerName string `json:"customer_name"`
}

// ListEntries returns entries newest business date first
func (l *Ledger) ListEntries(ctx context.Context, f EntryFilter) ([]EntryView, error) {
	query := l.db.WithContext(ctx).
		Table("crate_entries AS e").
		Select("e.*, c.name_primary AS customer_name").
		Joins("JOIN crate_customers AS c ON c.id = e.customer_id")
	if f.CustomerID != 0 {
		query = query.Where("e.customer_id = ?", f.CustomerID)
	}
	limit := f.Limit
	if limit <= 0 {
		limit = defaultEntryLimit
	}

	var entries []EntryView
	err := query.Order("e.entry_date DESC, e.created_at DESC, e.id DESC").Limit(limit).Scan(&entries).Error
	return entries, err
}
