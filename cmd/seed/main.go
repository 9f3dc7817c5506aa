// seed inserts development sample listings for local testing.
// Idempotent: skips inserts when the demo tenant already has listings.
package main

import (
	"context"
	"log"
	"os"
	"time"

	"github.com/google/uuid"

	"eventfair/backend/internal/config"
	"eventfair/backend/internal/db"
	listingdomain "eventfair/backend/internal/listing/domain"
	listingrepo "eventfair/backend/internal/listing/repository"
)

const demoTenantID = "demo-organizer-001"

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	if cfg.DatabaseURL == "" {
		log.Println("DATABASE_URL is not set; nothing to seed")
		os.Exit(1)
	}

	ctx := context.Background()
	database, err := db.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer database.Close()
	repo := listingrepo.NewPostgresRepository(database)

	existing, err := repo.ListByTenant(ctx, demoTenantID, 1, 0)
	if err != nil {
		log.Fatalf("seed check: %v", err)
	}
	if len(existing) > 0 {
		log.Println("seed: demo tenant already has listings, skipping")
		return
	}

	now := time.Now().UTC()
	samples := []listingdomain.Listing{
		{Title: "Sala Palatului", Kind: listingdomain.KindVenue, City: "Bucharest", Capacity: 4000, PriceCents: 2_500_000},
		{Title: "Form Space", Kind: listingdomain.KindVenue, City: "Cluj-Napoca", Capacity: 1200, PriceCents: 900_000},
		{Title: "Jazz in the Park", Kind: listingdomain.KindEvent, City: "Cluj-Napoca", Capacity: 15000, PriceCents: 12_000, Published: true},
	}
	for _, l := range samples {
		l.ID = uuid.New().String()
		l.TenantID = demoTenantID
		l.CreatedAt = now
		l.UpdatedAt = now
		if err := l.Validate(); err != nil {
			log.Fatalf("seed: invalid sample %q: %v", l.Title, err)
		}
		if err := repo.Create(ctx, &l); err != nil {
			log.Fatalf("seed: insert %q: %v", l.Title, err)
		}
		log.Printf("seed: created %s (%s)", l.Title, l.Kind)
	}
}
