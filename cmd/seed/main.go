package main

import (
	"log"
	"os"

	"shopnest-be/internal/model"
	"shopnest-be/pkg/database"

	"github.com/fatih/color"
	"github.com/joho/godotenv"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

func main() {
	// Load Environment Variables
	if err := godotenv.Load(); err != nil {
		log.Println("Info: No .env file found, using system env")
	}

	dsn := os.Getenv("DB_CONNECTION_STRING")
	if dsn == "" {
		log.Fatal("Error: DB_CONNECTION_STRING is not set")
	}

	db, err := database.NewGormDBFromDSN(dsn)
	if err != nil {
		log.Fatal("Error: Failed to connect to database:", err)
	}

	color.Cyan("Seeding ShopNest resolution backoffice...")

	seedAdmin(db)
	seedStock(db)

	color.Green("Seeding completed!")
}

func seedAdmin(db *gorm.DB) {
	email := os.Getenv("SEED_ADMIN_EMAIL")
	if email == "" {
		email = "ops@shopnest.example.com"
	}
	password := os.Getenv("SEED_ADMIN_PASSWORD")
	if password == "" {
		password = "changeme123"
		color.Yellow("SEED_ADMIN_PASSWORD not set, using default (change it in production)")
	}

	var existing model.AdminUser
	if err := db.Where("email = ?", email).First(&existing).Error; err == nil {
		color.Yellow("Admin '%s' already exists, skipping...", email)
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		log.Fatalf("Error hashing admin password: %v", err)
	}

	admin := model.AdminUser{
		Email:        email,
		PasswordHash: string(hash),
		FullName:     "Resolution Ops",
		Role:         "admin",
	}
	if err := db.Create(&admin).Error; err != nil {
		log.Fatalf("Error creating admin user: %v", err)
	}
	color.Green("Created admin user: %s", email)
}

func seedStock(db *gorm.DB) {
	levels := []model.StockLevel{
		{Sku: "SNK-RUN-42-BLK", Name: "Runner Sneaker 42 Black", Available: 120},
		{Sku: "SNK-RUN-43-BLK", Name: "Runner Sneaker 43 Black", Available: 95},
		{Sku: "TSH-CRW-M-WHT", Name: "Crew T-Shirt M White", Available: 400},
		{Sku: "TSH-CRW-L-WHT", Name: "Crew T-Shirt L White", Available: 380},
		{Sku: "BAG-TOT-CNV", Name: "Canvas Tote Bag", Available: 210},
		{Sku: "HDP-BT-NC", Name: "Noise Cancelling Headphones", Available: 55},
	}

	for _, level := range levels {
		var existing model.StockLevel
		if err := db.Where("sku = ?", level.Sku).First(&existing).Error; err == nil {
			color.Yellow("Stock '%s' already exists, skipping...", level.Sku)
			continue
		}

		if err := db.Create(&level).Error; err != nil {
			color.Red("Error creating stock '%s': %v", level.Sku, err)
		} else {
			color.Green("Created stock level: %s (%d available)", level.Sku, level.Available)
		}
	}
}
