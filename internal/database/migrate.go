package database

import (
	"fmt"
	"log"
	"time"

	"inventory-ledger/internal/models"

	"gorm.io/gorm"
)

// Migration is one schema version. Versions are applied in order, once.
type Migration struct {
	Version uint
	Name    string
	Up      func(tx *gorm.DB) error
}

// Migrations is the full schema history. Append new versions; never edit applied ones.
var Migrations = []Migration{
	{
		Version: 1,
		Name:    "create_stock_ledger",
		Up: func(tx *gorm.DB) error {
			return tx.AutoMigrate(&models.Item{}, &models.TruckTransaction{}, &models.StockEntry{})
		},
	},
	{
		Version: 2,
		Name:    "create_users",
		Up: func(tx *gorm.DB) error {
			return tx.AutoMigrate(&models.User{})
		},
	},
	{
		Version: 3,
		Name:    "create_crate_ledger",
		Up: func(tx *gorm.DB) error {
			return tx.AutoMigrate(&models.CrateCustomer{}, &models.CrateEntry{})
		},
	},
	{
		Version: 4,
		Name:    "index_crate_entries_customer_date",
		Up: func(tx *gorm.DB) error {
			if tx.Migrator().HasIndex(&models.CrateEntry{}, "idx_crate_entries_customer_date") {
				return nil
			}
			return tx.Exec("CREATE INDEX idx_crate_entries_customer_date ON crate_entries (customer_id, entry_date)").Error
		},
	},
}

// Migrate applies every migration that is not yet recorded in schema_migrations.
// It returns the number of versions applied by this call.
func Migrate(db *gorm.DB) (int, error) {
	if err := db.AutoMigrate(&models.SchemaMigration{}); err != nil {
		return 0, fmt.Errorf("failed to create migrations table: %w", err)
	}

	var applied []models.SchemaMigration
	if err := db.Find(&applied).Error; err != nil {
		return 0, fmt.Errorf("failed to get applied migrations: %w", err)
	}
	done := make(map[uint]bool, len(applied))
	for _, m := range applied {
		done[m.Version] = true
	}

	ran := 0
	for _, m := range Migrations {
		if done[m.Version] {
			continue
		}

		log.Printf("  → Running migration %03d_%s", m.Version, m.Name)
		if err := m.Up(db); err != nil {
			return ran, fmt.Errorf("failed to run migration %d (%s): %w", m.Version, m.Name, err)
		}

		record := models.SchemaMigration{Version: m.Version, Name: m.Name, AppliedAt: time.Now()}
		if err := db.Create(&record).Error; err != nil {
			return ran, fmt.Errorf("failed to record migration %d: %w", m.Version, err)
		}
		ran++
	}

	if ran > 0 {
		log.Printf("✅ Applied %d new migration(s)", ran)
	} else {
		log.Println("✅ Database schema is up to date")
	}
	return ran, nil
}
