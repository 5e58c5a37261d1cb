package main

import (
	"log"
	"os"

	"shopnest-be/internal/model"
	"shopnest-be/pkg/database"

	"github.com/joho/godotenv"
)

func main() {
	// 1. Load Environment Variables
	if err := godotenv.Load(); err != nil {
		log.Println("Info: No .env file found, using system env")
	}

	dsn := os.Getenv("DB_CONNECTION_STRING")
	if dsn == "" {
		log.Fatal("Error: DB_CONNECTION_STRING is not set")
	}

	// 2. Connect to Database
	db, err := database.NewGormDBFromDSN(dsn)
	if err != nil {
		log.Fatal("Error: Failed to connect to database:", err)
	}

	log.Println("Starting GORM Migration...")

	// 3. Pre-Migration: Extensions
	log.Println("Step 1: Setting up Extensions...")

	setupSQL := []string{
		`CREATE EXTENSION IF NOT EXISTS pgcrypto;`,
		`CREATE EXTENSION IF NOT EXISTS "uuid-ossp";`,
	}

	for _, sql := range setupSQL {
		if err := db.Exec(sql).Error; err != nil {
			log.Printf("Warn: Failed to execute setup SQL: %v. Continuing...", err)
		}
	}

	// 4. AutoMigrate All Models
	log.Println("Step 2: Running AutoMigrate...")

	models := []interface{}{
		&model.AdminUser{},
		&model.ResolutionRequest{},
		&model.TimelineEntry{},
		&model.AuditLog{},
		&model.CourierEvent{},
		&model.RefundTransaction{},
		&model.StockLevel{},
		&model.StockAdjustment{},
	}

	if err := db.AutoMigrate(models...); err != nil {
		log.Fatalf("Error: AutoMigrate failed: %v", err)
	}

	// 5. Post-Migration: Views
	log.Println("Step 3: Creating Views...")

	postMigrationSQL := []string{
		// View: open resolution workload per status, for the ops dashboard
		`CREATE OR REPLACE VIEW resolution_workload AS
		 SELECT status, type, COUNT(*) AS open_requests, MIN(request_date) AS oldest_request
		 FROM resolution_requests
		 WHERE status NOT IN ('rejected', 'refunded', 'delivered')
		 GROUP BY status, type;`,
	}

	for _, sql := range postMigrationSQL {
		if err := db.Exec(sql).Error; err != nil {
			log.Printf("Warn: Failed to execute post-migration SQL: %v", err)
		}
	}

	log.Println("Success: Database migration completed via GORM.")
}
