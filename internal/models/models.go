package models

import (
	"fmt"
	"math"
	"time"

	"gorm.io/datatypes"
)

// EntryType is the direction of a movement: IN adds stock (or returns crates),
// OUT removes stock (or lends crates out).
type EntryType string

const (
	EntryIn  EntryType = "IN"
	EntryOut EntryType = "OUT"
)

func (t EntryType) Valid() bool {
	return t == EntryIn || t == EntryOut
}

// MaxQuantity caps any one quantity, stock level or opening balance
const MaxQuantity = math.MaxInt32

// Roles carried in the token
const (
	RoleAdmin = "admin"
	RoleUser  = "user"
)

// User - an operator who can sign in
type User struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	Username     string    `gorm:"uniqueIndex;size:50;not null" json:"username"`
	PasswordHash string    `gorm:"size:255;not null" json:"-"` // Never return this in JSON
	Role         string    `gorm:"size:20;not null;default:user" json:"role"`
	CreatedAt    time.Time `json:"created_at"`
}

// Item - one product line in the catalog.
// Quantity is kept in sync by the stock ledger only.
type Item struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"size:100;not null;uniqueIndex:unique_item" json:"name"`
	Variety   string    `gorm:"size:100;not null;uniqueIndex:unique_item" json:"variety"`
	Quantity  int       `gorm:"not null;default:0" json:"quantity"`
	CreatedAt time.Time `json:"created_at"`
}

// DisplayName renders "Apple (No2)"
func (i Item) DisplayName() string {
	return DisplayName(i.Name, i.Variety)
}

func DisplayName(name, variety string) string {
	return fmt.Sprintf("%s (%s)", name, variety)
}

// TruckTransaction - the header for one truck arriving or leaving
type TruckTransaction struct {
	ID              uint         `gorm:"primaryKey" json:"id"`
	Type            EntryType    `gorm:"size:3;not null;index" json:"type"`
	Remark          *string      `gorm:"size:255" json:"remark"`
	TransactionDate time.Time    `gorm:"not null;index" json:"transaction_date"`
	CreatedAt       time.Time    `json:"created_at"`
	Entries         []StockEntry `gorm:"foreignKey:TruckTransactionID;constraint:OnDelete:SET NULL" json:"-"`
}

// StockEntry - one item movement. ItemName/ItemVariety are a snapshot taken
// when the row is written and are never updated afterwards.
type StockEntry struct {
	ID                 uint      `gorm:"primaryKey" json:"id"`
	ItemID             *uint     `gorm:"index" json:"item_id"` // NULL once the item is deleted
	ItemName           string    `gorm:"size:100;not null" json:"item_name"`
	ItemVariety        string    `gorm:"size:100;not null" json:"item_variety"`
	TruckTransactionID *uint     `gorm:"index" json:"truck_transaction_id"`
	Type               EntryType `gorm:"size:3;not null;index" json:"type"`
	Quantity           int       `gorm:"not null" json:"quantity"`
	Remark             *string   `gorm:"size:255" json:"remark"`
	CreatedAt          time.Time `gorm:"index" json:"created_at"`
}

func (StockEntry) TableName() string { return "entries" }

// CrateCustomer - a counterparty who borrows crates.
// OpeningBalance is always OpeningBalanceWG + OpeningBalanceSada.
type CrateCustomer struct {
	ID                 uint         `gorm:"primaryKey" json:"id"`
	NamePrimary        string       `gorm:"size:100;not null;index" json:"name_primary"`
	NameSecondary      *string      `gorm:"size:100" json:"name_secondary"`
	OpeningBalance     int          `gorm:"not null;default:0" json:"opening_balance"`
	OpeningBalanceWG   int          `gorm:"column:opening_balance_wg;not null;default:0" json:"opening_balance_wg"`
	OpeningBalanceSada int          `gorm:"not null;default:0" json:"opening_balance_sada"`
	CreatedAt          time.Time    `json:"created_at"`
	Entries            []CrateEntry `gorm:"foreignKey:CustomerID;constraint:OnDelete:CASCADE" json:"-"`
}

// CrateEntry - crates lent (OUT) or returned (IN) on a business date
type CrateEntry struct {
	ID           uint           `gorm:"primaryKey" json:"id"`
	CustomerID   uint           `gorm:"not null;index" json:"customer_id"`
	Type         EntryType      `gorm:"size:3;not null" json:"type"`
	Quantity     int            `gorm:"not null" json:"quantity"`
	QuantityWG   int            `gorm:"column:quantity_wg;not null;default:0" json:"quantity_wg"`
	QuantitySada int            `gorm:"not null;default:0" json:"quantity_sada"`
	EntryDate    datatypes.Date `gorm:"not null;index" json:"entry_date"`
	Remark       *string        `gorm:"size:255" json:"remark"`
	CreatedAt    time.Time      `json:"created_at"`
}

// SchemaMigration - one applied schema version
type SchemaMigration struct {
	Version   uint      `gorm:"primaryKey;autoIncrement:false"`
	Name      string    `gorm:"size:100;not null"`
	AppliedAt time.Time `gorm:"not null"`
}

// StringPtr returns nil for blank strings so optional text columns stay NULL
func StringPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
