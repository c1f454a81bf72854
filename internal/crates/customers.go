// Package crates is the crate lending ledger: customers, the crates they take
// (OUT) and return (IN), and their running balances split into WG and Sada.
package crates

import (
	"context"
	"encoding/json"
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

// Tally is one figure kept as a combined total and per category
type Tally struct {
	Total int64 `json:"total"`
	WG    int64 `json:"wg"`
	Sada  int64 `json:"sada"`
}

func (t Tally) Plus(o Tally) Tally {
	return Tally{Total: t.Total + o.Total, WG: t.WG + o.WG, Sada: t.Sada + o.Sada}
}

func (t Tally) Minus(o Tally) Tally {
	return Tally{Total: t.Total - o.Total, WG: t.WG - o.WG, Sada: t.Sada - o.Sada}
}

func inRange(n int) bool {
	return n >= 0 && n <= models.MaxQuantity
}

func openingOf(c models.CrateCustomer) Tally {
	return Tally{Total: int64(c.OpeningBalance), WG: int64(c.OpeningBalanceWG), Sada: int64(c.OpeningBalanceSada)}
}

type CustomerInput struct {
	NamePrimary        string `json:"name_primary"`
	NameSecondary      string `json:"name_secondary"`
	OpeningBalanceWG   int    `json:"opening_balance_wg"`
	OpeningBalanceSada int    `json:"opening_balance_sada"`
}

// UnmarshalJSON also accepts the older field names name_en, name_hi and
// opening_balance_normal. The current names win when both are sent.
func (in *CustomerInput) UnmarshalJSON(data []byte) error {
	type plain CustomerInput
	var aux struct {
		plain
		NameEN        *string `json:"name_en"`
		NameHI        *string `json:"name_hi"`
		OpeningNormal *int    `json:"opening_balance_normal"`
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	*in = CustomerInput(aux.plain)
	if in.NamePrimary == "" && aux.NameEN != nil {
		in.NamePrimary = *aux.NameEN
	}
	if in.NameSecondary == "" && aux.NameHI != nil {
		in.NameSecondary = *aux.NameHI
	}
	if in.OpeningBalanceSada == 0 && aux.OpeningNormal != nil {
		in.OpeningBalanceSada = *aux.OpeningNormal
	}
	return nil
}

func (in CustomerInput) toModel() (models.CrateCustomer, error) {
	name := strings.TrimSpace(in.NamePrimary)
	if name == "" {
		return models.CrateCustomer{}, apperr.Validation("Primary name is required")
	}
	if !inRange(in.OpeningBalanceWG) || !inRange(in.OpeningBalanceSada) {
		return models.CrateCustomer{}, apperr.Validation("Opening balances must be between 0 and %d", models.MaxQuantity)
	}
	return models.CrateCustomer{
		NamePrimary:        name,
		NameSecondary:      models.StringPtr(strings.TrimSpace(in.NameSecondary)),
		OpeningBalance:     in.OpeningBalanceWG + in.OpeningBalanceSada,
		OpeningBalanceWG:   in.OpeningBalanceWG,
		OpeningBalanceSada: in.OpeningBalanceSada,
	}, nil
}

func (l *Ledger) CreateCustomer(ctx context.Context, in CustomerInput) (*models.CrateCustomer, error) {
	customer, err := in.toModel()
	if err != nil {
		return nil, err
	}
	if err := l.db.WithContext(ctx).Create(&customer).Error; err != nil {
		return nil, err
	}
	return &customer, nil
}

// UpdateCustomer replaces every editable field; the combined opening balance
// is derived again from the two categories.
func (l *Ledger) UpdateCustomer(ctx context.Context, id uint, in CustomerInput) (*models.CrateCustomer, error) {
	changes, err := in.toModel()
	if err != nil {
		return nil, err
	}

	var customer models.CrateCustomer
	err = l.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := findCustomer(tx, id, &customer); err != nil {
			return err
		}
		if err := tx.Model(&customer).
			Select("name_primary", "name_secondary", "opening_balance", "opening_balance_wg", "opening_balance_sada").
			Updates(&changes).Error; err != nil {
			return err
		}
		return tx.First(&customer, id).Error
	})
	if err != nil {
		return nil, err
	}
	return &customer, nil
}

type DeletedCustomer struct {
	Customer       models.CrateCustomer `json:"customer"`
	EntriesDeleted int64                `json:"entries_deleted"`
}

// DeleteCustomer removes the customer together with all of their entries.
// Unlike stock history, crate history does not outlive its customer.
func (l *Ledger) DeleteCustomer(ctx context.Context, id uint) (*DeletedCustomer, error) {
	var result DeletedCustomer
	err := l.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := findCustomer(tx, id, &result.Customer); err != nil {
			return err
		}
		res := tx.Where("customer_id = ?", id).Delete(&models.CrateEntry{})
		if res.Error != nil {
			return res.Error
		}
		result.EntriesDeleted = res.RowsAffected
		return tx.Delete(&models.CrateCustomer{}, id).Error
	})
	if err != nil {
		return nil, err
	}
	return &result, nil
}

func (l *Ledger) GetCustomer(ctx context.Context, id uint) (*models.CrateCustomer, error) {
	var customer models.CrateCustomer
	if err := findCustomer(l.db.WithContext(ctx), id, &customer); err != nil {
		return nil, err
	}
	return &customer, nil
}

func findCustomer(db *gorm.DB, id uint, dest *models.CrateCustomer) error {
	if err := db.First(dest, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperr.NotFound("customer", id)
		}
		return err
	}
	return nil
}

// CustomerBalance - a customer with lifetime movement totals.
// CurrentBalance is opening + out - in; positive means the customer holds crates.
type CustomerBalance struct {
	models.CrateCustomer
	TotalOut       Tally `json:"total_out"`
	TotalIn        Tally `json:"total_in"`
	CurrentBalance Tally `json:"current_balance"`
}

func (l *Ledger) ListCustomers(ctx context.Context) ([]CustomerBalance, error) {
	db := l.db.WithContext(ctx)

	var customers []models.CrateCustomer
	if err := db.Order("name_primary, id").Find(&customers).Error; err != nil {
		return nil, err
	}

	var rows []typeSums
	if err := db.Model(&models.CrateEntry{}).
		Select("customer_id, type, " + sumColumns).
		Group("customer_id, type").
		Scan(&rows).Error; err != nil {
		return nil, err
	}
	out := map[uint]Tally{}
	in := map[uint]Tally{}
	for _, r := range rows {
		if r.Type == models.EntryOut {
			out[r.CustomerID] = r.tally()
		} else {
			in[r.CustomerID] = r.tally()
		}
	}

	balances := make([]CustomerBalance, 0, len(customers))
	for _, c := range customers {
		balances = append(balances, CustomerBalance{
			CrateCustomer:  c,
			TotalOut:       out[c.ID],
			TotalIn:        in[c.ID],
			CurrentBalance: openingOf(c).Plus(out[c.ID]).Minus(in[c.ID]),
		})
	}
	return balances, nil
}
