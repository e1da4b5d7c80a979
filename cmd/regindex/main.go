// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"log/slog"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/poiesic/regindex"
	"github.com/poiesic/regindex/core"
	"github.com/poiesic/regindex/search"
	"github.com/urfave/cli/v2"
)

func main() {
	// A .env file may provide REGINDEX_DB; absence is not an error.
	_ = godotenv.Load()

	dbFlag := &cli.StringFlag{
		Name:    "db",
		Aliases: []string{"d"},
		Usage:   "Path to BadgerDB database directory",
		EnvVars: []string{"REGINDEX_DB"},
		Value:   "./regindex_db",
	}
	tenantFlag := &cli.StringFlag{
		Name:     "tenant",
		Aliases:  []string{"t"},
		Usage:    "Tenant (organization) id",
		Required: true,
	}

	app := &cli.App{
		Name:  "regindex",
		Usage: "Compliance documentation index and retrieval engine",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error)",
				Value:   "info",
			},
		},
		Before:   setupLogger,
		Commands: []*cli.Command{
			{
				Name:   "index",
				Usage:  "Index chunks from a JSON file",
				Action: indexCommand,
				Flags: []cli.Flag{
					dbFlag,
					tenantFlag,
					&cli.StringFlag{
						Name:     "file",
						Aliases:  []string{"f"},
						Usage:    "Path to a JSON file holding an array of chunks",
						Required: true,
					},
				},
			},
			{
				Name:   "search",
				Usage:  "Search indexed chunks with a free-text query",
				Action: searchCommand,
				Flags: []cli.Flag{
					dbFlag,
					tenantFlag,
					&cli.StringSliceFlag{
						Name:  "source-type",
						Usage: "Restrict to source types (policy, project, equipment, crew, upload)",
					},
					&cli.StringSliceFlag{
						Name:  "category",
						Usage: "Keep only chunks tagged with at least one category",
					},
					&cli.StringFlag{
						Name:  "ref",
						Usage: "Keep only chunks citing this regulatory reference",
					},
					&cli.IntFlag{
						Name:  "max-results",
						Usage: "Maximum number of results",
						Value: search.DefaultMaxResults,
					},
				},
			},
			{
				Name:   "resolve",
				Usage:  "Resolve a compliance requirement against the index",
				Action: resolveCommand,
				Flags: []cli.Flag{
					dbFlag,
					tenantFlag,
					&cli.StringFlag{
						Name:  "text",
						Usage: "Requirement text",
					},
					&cli.StringFlag{
						Name:  "short-text",
						Usage: "Condensed requirement phrasing, preferred for search",
					},
					&cli.StringFlag{
						Name:  "ref",
						Usage: "Regulatory reference of the requirement",
					},
					&cli.StringFlag{
						Name:  "guidance",
						Usage: "Guidance text mined for known compliance keywords",
					},
					&cli.StringSliceFlag{
						Name:  "suggested-policy",
						Usage: "Policy numbers that should document this requirement",
					},
				},
			},
			{
				Name:   "status",
				Usage:  "Recompute and print the tenant's index status",
				Action: statusCommand,
				Flags:  []cli.Flag{dbFlag, tenantFlag},
			},
			{
				Name:   "delete-source",
				Usage:  "Delete every chunk of one source document",
				Action: deleteSourceCommand,
				Flags: []cli.Flag{
					dbFlag,
					tenantFlag,
					&cli.StringFlag{
						Name:     "source-type",
						Usage:    "Source type of the document",
						Required: true,
					},
					&cli.StringFlag{
						Name:     "source-id",
						Usage:    "Source id of the document",
						Required: true,
					},
				},
			},
			{
				Name:   "clear",
				Usage:  "Delete every chunk for the tenant",
				Action: clearCommand,
				Flags:  []cli.Flag{dbFlag, tenantFlag},
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

// chunkInput is the wire shape of one chunk in an index file.
type chunkInput struct {
	SourceType     string   `json:"sourceType"`
	SourceId       string   `json:"sourceId"`
	SourceTitle    string   `json:"sourceTitle"`
	SourceNumber   string   `json:"sourceNumber,omitempty"`
	Section        string   `json:"section,omitempty"`
	SectionTitle   string   `json:"sectionTitle,omitempty"`
	Content        string   `json:"content"`
	PageNumber     int      `json:"pageNumber,omitempty"`
	Keywords       []string `json:"keywords,omitempty"`
	RegulatoryRefs []string `json:"regulatoryRefs,omitempty"`
	Categories     []string `json:"categories,omitempty"`
	Version        int      `json:"version,omitempty"`
}

func (in *chunkInput) toChunk() *core.Chunk {
	sourceType, err := core.ParseSourceType(in.SourceType)
	if err != nil {
		// Let repository validation produce the per-item error.
		sourceType = 0
	}
	return &core.Chunk{
		SourceType:     sourceType,
		SourceId:       in.SourceId,
		SourceTitle:    in.SourceTitle,
		SourceNumber:   in.SourceNumber,
		Section:        in.Section,
		SectionTitle:   in.SectionTitle,
		Content:        in.Content,
		PageNumber:     in.PageNumber,
		Keywords:       in.Keywords,
		RegulatoryRefs: in.RegulatoryRefs,
		Categories:     in.Categories,
		Version:        in.Version,
	}
}

func indexCommand(c *cli.Context) error {
	data, err := os.ReadFile(c.String("file"))
	if err != nil {
		return fmt.Errorf("failed to read chunk file: %w", err)
	}

	var inputs []chunkInput
	if err := json.Unmarshal(data, &inputs); err != nil {
		return fmt.Errorf("failed to parse chunk file: %w", err)
	}

	chunks := make([]*core.Chunk, len(inputs))
	for i := range inputs {
		chunks[i] = inputs[i].toChunk()
	}

	db, err := regindex.NewDatabase(c.String("db"))
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	result, err := db.ChunkRepository().PutBatch(context.Background(), c.String("tenant"), chunks)
	if err != nil {
		return fmt.Errorf("indexing failed after %d chunks: %w", len(result.Created), err)
	}

	fmt.Printf("Indexed %d chunks\n", len(result.Created))
	for _, batchErr := range result.Errors {
		fmt.Printf("  skipped %q: %v\n", batchErr.Chunk.SourceTitle, batchErr.Err)
	}
	return nil
}

func searchCommand(c *cli.Context) error {
	db, err := regindex.NewDatabase(c.String("db"))
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	searcher, err := db.NewSearcher()
	if err != nil {
		return err
	}
	defer searcher.Release()

	opts := &search.Options{
		Categories:    c.StringSlice("category"),
		RegulatoryRef: c.String("ref"),
		MaxResults:    c.Int("max-results"),
	}
	for _, name := range c.StringSlice("source-type") {
		sourceType, err := core.ParseSourceType(name)
		if err != nil {
			return fmt.Errorf("unknown source type %q", name)
		}
		opts.SourceTypes = append(opts.SourceTypes, sourceType)
	}

	query := strings.Join(c.Args().Slice(), " ")
	results, err := searcher.Search(context.Background(), c.String("tenant"), query, opts)
	if err != nil {
		return err
	}

	fmt.Printf("Found %d hits\n", len(results))
	for i, hit := range results {
		fmt.Printf("%d: [%d] %s: %s\n", i+1, hit.RelevanceScore, hit.Chunk.SourceTitle, hit.Chunk.ContentPreview)
	}
	return nil
}

func resolveCommand(c *cli.Context) error {
	db, err := regindex.NewDatabase(c.String("db"))
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	searcher, err := db.NewSearcher()
	if err != nil {
		return err
	}
	defer searcher.Release()

	resolver, err := db.NewResolver(searcher)
	if err != nil {
		return err
	}

	requirement := &core.Requirement{
		Text:              c.String("text"),
		ShortText:         c.String("short-text"),
		RegulatoryRef:     c.String("ref"),
		Guidance:          c.String("guidance"),
		SuggestedPolicies: c.StringSlice("suggested-policy"),
	}

	result, err := resolver.Resolve(context.Background(), c.String("tenant"), requirement)
	if err != nil {
		return err
	}

	fmt.Printf("Direct matches: %d\n", len(result.DirectMatches))
	for _, hit := range result.DirectMatches {
		fmt.Printf("  [%d] %s\n", hit.RelevanceScore, hit.Chunk.SourceTitle)
	}
	fmt.Printf("Related matches: %d\n", len(result.RelatedMatches))
	for _, hit := range result.RelatedMatches {
		fmt.Printf("  [%d] %s\n", hit.RelevanceScore, hit.Chunk.SourceTitle)
	}
	for _, check := range result.SuggestedPolicies {
		if check.Found {
			fmt.Printf("Policy %s: documented (%d chunks)\n", check.PolicyNumber, len(check.Chunks))
		} else {
			fmt.Printf("Policy %s: NOT documented\n", check.PolicyNumber)
		}
	}
	for _, gap := range result.Gaps {
		fmt.Printf("GAP: %s %s\n", gap.Type, gap.PolicyNumber)
	}
	return nil
}

func statusCommand(c *cli.Context) error {
	db, err := regindex.NewDatabase(c.String("db"))
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	tracker, err := db.NewStatusTracker()
	if err != nil {
		return err
	}
	defer tracker.Close()

	snapshot, err := tracker.Refresh(context.Background(), c.String("tenant"))
	if err != nil {
		return err
	}

	fmt.Printf("Indexed: %v\n", snapshot.IsIndexed)
	fmt.Printf("Chunks: %d across %d sources\n", snapshot.TotalChunks, snapshot.UniqueSources)
	if snapshot.IsIndexed {
		fmt.Printf("Last indexed: %s\n", snapshot.LastIndexedAt.Format("2006-01-02 15:04:05"))
	}
	for sourceType, count := range snapshot.BySourceType {
		fmt.Printf("  %s: %d\n", sourceType, count)
	}
	if len(snapshot.RegulatoryRefs) > 0 {
		fmt.Printf("References: %s\n", strings.Join(snapshot.RegulatoryRefs, ", "))
	}
	return nil
}

func deleteSourceCommand(c *cli.Context) error {
	sourceType, err := core.ParseSourceType(c.String("source-type"))
	if err != nil {
		return fmt.Errorf("unknown source type %q", c.String("source-type"))
	}

	db, err := regindex.NewDatabase(c.String("db"))
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	deleted, err := db.ChunkRepository().DeleteBySource(context.Background(), c.String("tenant"), sourceType, c.String("source-id"))
	if err != nil {
		return err
	}
	fmt.Printf("Deleted %d chunks\n", deleted)
	return nil
}

func clearCommand(c *cli.Context) error {
	db, err := regindex.NewDatabase(c.String("db"))
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	deleted, err := db.ChunkRepository().ClearAll(context.Background(), c.String("tenant"))
	if err != nil {
		return err
	}
	fmt.Printf("Deleted %d chunks\n", deleted)
	return nil
}

func setupLogger(c *cli.Context) error {
	// Get log level from flag and normalize to lowercase
	levelStr := strings.ToLower(c.String("log-level"))

	// Map string to slog.Level
	var level slog.Level
	switch levelStr {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		return fmt.Errorf("invalid log level %q: must be one of debug, info, warn, error", levelStr)
	}

	// Configure slog with the specified level
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	return nil
}
