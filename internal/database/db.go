package database

import (
	"log"
	"time"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var DB *gorm.DB

// Connect opens the MySQL pool, retrying while the database comes up
func Connect(dsn string, maxRetries int, logSQL bool) {
	if dsn == "" {
		log.Fatal("❌ Error: database DSN is empty. Please configure your database.")
	}
	if maxRetries < 1 {
		maxRetries = 1
	}

	level := logger.Warn
	if logSQL {
		level = logger.Info
	}

	var err error
	for i := 0; i < maxRetries; i++ {
		DB, err = gorm.Open(mysql.Open(dsn), &gorm.Config{
			Logger:         logger.Default.LogMode(level),
			TranslateError: true,
		})
		if err == nil {
			break
		}
		log.Printf("Failed to connect to database. Retrying in 2 seconds... (%d/%d)", i+1, maxRetries)
		time.Sleep(2 * time.Second)
	}

	if err != nil {
		log.Fatalf("Failed to connect to database after %d attempts: %v", maxRetries, err)
	}

	sqlDB, err := DB.DB()
	if err != nil {
		log.Fatalf("Failed to get database handle: %v", err)
	}
	sqlDB.SetMaxOpenConns(10)
	sqlDB.SetMaxIdleConns(5)
	sqlDB.SetConnMaxLifetime(time.Hour)

	log.Println("✅ Successfully connected to MySQL!")
}
