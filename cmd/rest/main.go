package main

import (
	"context"
	"log"

	"shopnest-be/internal/bootstrap"
	"shopnest-be/internal/config"
	"shopnest-be/internal/server"
	"shopnest-be/internal/tracer"
	"shopnest-be/pkg/database"
)

func main() {
	// 0. Initialize Tracer
	shutdownTracer := tracer.InitTracer()
	defer shutdownTracer(context.Background())

	// 1. Load Configuration
	cfg := config.Load()

	// 2. Initialize Database
	gormDB, err := database.NewGormDBFromDSN(cfg.Database.Connection)
	if err != nil {
		log.Panicf("Unable to connect to GORM DB: %v", err)
	}

	// 3. Bootstrap Dependencies (Container)
	container := bootstrap.NewContainer(gormDB, cfg)

	// 4. Start Background Services
	ctx := context.Background()

	go func() {
		log.Println("Background: Starting Refund Reconciliation Consumer...")
		if err := container.ReconciliationService.Consume(ctx); err != nil {
			log.Printf("Background Reconciliation Error: %v", err)
		}
	}()
	container.ReconciliationService.StartSweeper(ctx)

	go func() {
		log.Println("Background: Starting Resolution Feed Service...")
		if err := container.FeedService.Start(); err != nil {
			log.Printf("Background Feed Error: %v", err)
		}
	}()

	// 5. Initialize Server
	srv := server.New(cfg, container)

	// 6. Run Server
	log.Fatal(srv.Run())
}
