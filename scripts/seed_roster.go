// seed_roster.go: standalone script to load a roster YAML file into Postgres.
//
// Usage:
//
//	go run scripts/seed_roster.go -roster internal/roster/profiles.yaml -database-url postgres://localhost/kindred
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/MikeSquared-Agency/Kindred/internal/roster"
	"github.com/MikeSquared-Agency/Kindred/internal/store"
)

func main() {
	rosterPath := flag.String("roster", "", "path to roster YAML (embedded default when empty)")
	databaseURL := flag.String("database-url", os.Getenv("KINDRED_DATABASE_URL"), "Postgres connection URL")
	dryRun := flag.Bool("dry-run", false, "print profiles without writing")
	flag.Parse()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	src := store.FileSource{Path: *rosterPath}
	r, err := src.LoadRoster(ctx)
	if err != nil {
		log.Fatalf("load roster: %v", err)
	}
	log.Printf("parsed %d profiles from %s (version %s)", r.Len(), src.Name(), r.Version())

	if *dryRun {
		for i, p := range r.All() {
			fmt.Printf("[%d] %s (%s, category=%s%s)\n", i+1, p.Name, p.ID, p.Category, hiddenNote(p))
		}
		return
	}

	if *databaseURL == "" {
		log.Fatal("database URL required: set -database-url or KINDRED_DATABASE_URL")
	}

	db, err := store.NewPostgresStore(ctx, *databaseURL)
	if err != nil {
		log.Fatalf("connect: %v", err)
	}
	defer db.Close()

	if err := db.EnsureSchema(ctx); err != nil {
		log.Fatalf("ensure schema: %v", err)
	}
	if err := db.ReplaceRoster(ctx, r); err != nil {
		log.Fatalf("replace roster: %v", err)
	}

	log.Printf("done: roster %s stored with %d profiles", r.Version(), r.Len())
}

func hiddenNote(p roster.Profile) string {
	if p.Hidden {
		return ", hidden"
	}
	return ""
}
