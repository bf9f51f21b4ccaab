// Command seed populates the database with demo data for development.
package main

import (
	"flag"
	"log"
	"time"

	"linkparty/internal/config"
	"linkparty/internal/database"
	"linkparty/internal/seed"
)

func main() {
	numUsers := flag.Int("users", 20, "number of demo users to create")
	numParties := flag.Int("parties", 5, "number of demo parties to create")
	clean := flag.Bool("clean", false, "delete existing rows before seeding")
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if cfg.Env == "production" {
		log.Fatal("Refusing to seed a production database")
	}

	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatalf("Database connection failed: %v", err)
	}
	if err := database.Migrate(db); err != nil {
		log.Fatalf("Migration failed: %v", err)
	}

	seeder := seed.NewSeeder(db, seed.Options{
		NumUsers:    *numUsers,
		NumParties:  *numParties,
		ShouldClean: *clean,
		PartyTTL:    time.Duration(cfg.PartyTTLHours) * time.Hour,
	})
	if err := seeder.Run(); err != nil {
		log.Fatalf("Seeding failed: %v", err)
	}
}
