package database

import (
	"context"
	"time"

	"gorm.io/gorm"
)

type HealthStatus struct {
	Status       string `json:"status"`
	Database     string `json:"database"`
	ResponseTime int64  `json:"response_time_ms"`
}

// CheckHealth pings the database with a short timeout
func CheckHealth(ctx context.Context, db *gorm.DB) HealthStatus {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	start := time.Now()
	err := ping(ctx, db)
	elapsed := time.Since(start).Milliseconds()

	if err != nil {
		return HealthStatus{Status: "unhealthy", Database: "unreachable", ResponseTime: elapsed}
	}
	return HealthStatus{Status: "healthy", Database: "connected", ResponseTime: elapsed}
}

func ping(ctx context.Context, db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}
