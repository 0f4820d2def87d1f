package main

import (
	"context"
	"log"

	"rag-notes-be/internal/bootstrap"
	"rag-notes-be/internal/config"
	"rag-notes-be/pkg/database"
)

// One-shot sweep between the notes table and the vector index.
func main() {
	cfg := config.Load()
	if cfg.Database.Connection == "" {
		log.Fatal("Error: DB_CONNECTION_STRING is not set, nothing to reconcile")
	}

	db, err := database.NewGormDBFromDSN(cfg.Database.Connection, cfg.IsProduction())
	if err != nil {
		log.Fatal("Error: Failed to connect to database:", err)
	}

	ctx := context.Background()
	container, err := bootstrap.NewContainer(ctx, db, cfg)
	if err != nil {
		log.Fatalf("Error: Unable to build container: %v", err)
	}
	defer container.Close()

	report, err := container.ReconcileService.Sweep(ctx)
	if err != nil {
		log.Fatalf("Error: Sweep failed: %v", err)
	}

	log.Printf("Orphan vectors deleted: %d", report.OrphanVectorsDeleted)
	log.Printf("Missing vectors filled: %d", report.MissingVectorsFilled)
	log.Printf("Failures: %d", report.Failures)
}
