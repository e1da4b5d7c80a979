package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/google/uuid"
	"github.com/poiesic/regindex"
	"github.com/poiesic/regindex/core"
)

// Sample operations manual sections used to exercise a fresh database.
var policySections = []struct {
	number   string
	title    string
	section  string
	content  string
	refs     []string
	keywords []string
}{
	{
		number:   "1010",
		title:    "Policy 1010 - Pilot Currency",
		section:  "3.1",
		content:  "Pilots must complete a flight review every 24 months and log at least three takeoffs and landings within the preceding 90 days before carrying out operations.",
		refs:     []string{"CARs 901.56"},
		keywords: []string{"currency", "flight review", "training"},
	},
	{
		number:   "1009",
		title:    "Policy 1009 - Pre-flight Inspection",
		section:  "2.4",
		content:  "Equipment is inspected before each flight. The pilot in command confirms airworthiness, battery condition, and firmware version against the maintenance log.",
		refs:     []string{"CARs 901.29"},
		keywords: []string{"inspection", "maintenance", "battery"},
	},
	{
		number:   "1012",
		title:    "Policy 1012 - Emergency Procedures",
		section:  "5.2",
		content:  "Crew members follow the emergency checklist for lost link, flyaway, and battery fire events, and report all incidents within 24 hours.",
		refs:     []string{"CARs 901.49"},
		keywords: []string{"emergency", "incident", "checklist"},
	},
	{
		number:   "1015",
		title:    "Policy 1015 - Site Survey",
		section:  "4.1",
		content:  "A site survey and risk assessment are completed before operations at a new location, recording airspace class, obstacles, and nearby aerodromes.",
		refs:     []string{"CARs 901.27"},
		keywords: []string{"site survey", "risk assessment", "airspace"},
	},
}

func main() {
	dbPath := flag.String("db", "./regindex_db", "Path to BadgerDB database directory")
	tenant := flag.String("tenant", "demo-org", "Tenant id to seed")
	flag.Parse()

	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo})
	slog.SetDefault(slog.New(handler))

	db, err := regindex.NewDatabase(*dbPath)
	if err != nil {
		slog.Error("failed to open database", "err", err)
		os.Exit(1)
	}
	defer db.Close()

	chunks := make([]*core.Chunk, 0, len(policySections))
	for _, section := range policySections {
		chunks = append(chunks, &core.Chunk{
			SourceType:     core.SourceTypePolicy,
			SourceId:       uuid.NewString(),
			SourceTitle:    section.title,
			SourceNumber:   section.number,
			Section:        section.section,
			Content:        section.content,
			RegulatoryRefs: section.refs,
			Keywords:       section.keywords,
			Categories:     []string{"operations"},
			Version:        1,
		})
	}

	ctx := context.Background()
	result, err := db.ChunkRepository().PutBatch(ctx, *tenant, chunks)
	if err != nil {
		slog.Error("seeding failed", "created", len(result.Created), "err", err)
		os.Exit(1)
	}

	tracker, err := db.NewStatusTracker()
	if err != nil {
		slog.Error("failed to create status tracker", "err", err)
		os.Exit(1)
	}
	defer tracker.Close()

	snapshot, err := tracker.Refresh(ctx, *tenant)
	if err != nil {
		slog.Error("status refresh failed", "err", err)
		os.Exit(1)
	}

	fmt.Printf("Seeded %d chunks for %s (%d sources)\n", snapshot.TotalChunks, *tenant, snapshot.UniqueSources)
}
