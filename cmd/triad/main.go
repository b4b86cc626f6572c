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
	"path/filepath"
	"strings"
	"time"

	"github.com/poiesic/triad"
	"github.com/poiesic/triad/ai"
	"github.com/poiesic/triad/ai/openai"
	"github.com/poiesic/triad/core"
	"github.com/poiesic/triad/graph"
	"github.com/poiesic/triad/ingestion"
	"github.com/poiesic/triad/reembed"
	"github.com/poiesic/triad/storage/badger"
	"github.com/urfave/cli/v2"
)

func main() {
	app := &cli.App{
		Name:  "triad",
		Usage: "Knowledge graph construction and hybrid retrieval over text corpora",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error)",
				Value:   "info",
			},
		},
		Before: setupLogger,
		Commands: []*cli.Command{
			{
				Name:      "ingest",
				Usage:     "Ingest a triples file (.json) or a text document into the database",
				Action:    ingestCommand,
				ArgsUsage: "<file>",
				Flags:     append(databaseFlags(), aiFlags()...),
			},
			{
				Name:      "query",
				Usage:     "Run a hybrid retrieval query against the database",
				Action:    queryCommand,
				ArgsUsage: "<query>",
				Flags: append(append(databaseFlags(), aiFlags()...),
					&cli.IntFlag{
						Name:  "depth",
						Usage: "Graph expansion depth (clamped to 1-5)",
						Value: 2,
					},
					&cli.IntFlag{
						Name:  "top-k",
						Usage: "Maximum number of passages to retrieve",
						Value: 5,
					},
				),
			},
			{
				Name:   "rebuild",
				Usage:  "Rebuild the knowledge graph from stored document chunks",
				Action: rebuildCommand,
				Flags:  append(append(databaseFlags(), aiFlags()...), batchFlags("chunks")...),
			},
			{
				Name:   "reembed",
				Usage:  "Reembed all passages with new embeddings",
				Action: reembedCommand,
				Flags: append(append(databaseFlags(),
					&cli.StringFlag{
						Name:  "embedding-host",
						Usage: "Embedding service host URL",
						Value: "http://localhost:11434/v1",
					},
					&cli.StringFlag{
						Name:     "embedding-model",
						Usage:    "Embedding model name",
						Required: true,
					},
				), batchFlags("passages")...),
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func databaseFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:     "db",
			Aliases:  []string{"d"},
			Usage:    "Path to BadgerDB database directory",
			Required: true,
		},
	}
}

func aiFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:  "host",
			Usage: "OpenAI-compatible service host URL for embeddings and extraction",
			Value: "http://localhost:11434/v1",
		},
		&cli.StringFlag{
			Name:  "embedding-model",
			Usage: "Embedding model name",
			Value: "embeddinggemma",
		},
		&cli.StringFlag{
			Name:  "extractor-model",
			Usage: "Extraction model name",
			Value: "qwen2.5:3b",
		},
		&cli.Float64Flag{
			Name:  "min-confidence",
			Usage: "Minimum confidence for extracted triples",
			Value: 0.5,
		},
	}
}

func batchFlags(noun string) []cli.Flag {
	return []cli.Flag{
		&cli.IntFlag{
			Name:  "batch-size",
			Usage: fmt.Sprintf("Number of %s to process in each batch", noun),
			Value: 100,
		},
		&cli.IntFlag{
			Name:  "report-interval",
			Usage: fmt.Sprintf("Report progress every N %s", noun),
			Value: 100,
		},
		&cli.IntFlag{
			Name:  "max-retries",
			Usage: "Maximum retry attempts for failed operations",
			Value: 3,
		},
		&cli.DurationFlag{
			Name:  "retry-delay",
			Usage: "Base delay for exponential backoff",
			Value: 1 * time.Second,
		},
	}
}

func aiConfigFromFlags(c *cli.Context) *ai.Config {
	return ai.NewConfig(
		ai.WithHost(c.String("host")),
		ai.WithEmbeddingModel(c.String("embedding-model")),
		ai.WithExtractorModel(c.String("extractor-model")),
		ai.WithMinConfidence(float32(c.Float64("min-confidence"))),
	)
}

func reembedConfigFromFlags(c *cli.Context) (*reembed.Config, error) {
	config := &reembed.Config{
		BatchSize:      c.Int("batch-size"),
		ReportInterval: c.Int("report-interval"),
		MaxRetries:     c.Int("max-retries"),
		RetryDelay:     c.Duration("retry-delay"),
	}

	if config.BatchSize <= 0 {
		return nil, fmt.Errorf("batch-size must be greater than 0")
	}
	if config.ReportInterval <= 0 {
		return nil, fmt.Errorf("report-interval must be greater than 0")
	}
	if config.MaxRetries <= 0 {
		return nil, fmt.Errorf("max-retries must be greater than 0")
	}

	return config, nil
}

// rawTriple is the on-disk input format for the ingest command:
// a JSON array of these.
type rawTriple struct {
	Subject    string  `json:"subject"`
	Predicate  string  `json:"predicate"`
	Object     string  `json:"object"`
	Confidence float32 `json:"confidence"`
	Source     string  `json:"source"`
}

func ingestCommand(c *cli.Context) error {
	ctx := context.Background()

	if c.NArg() != 1 {
		return fmt.Errorf("expected exactly one input file argument")
	}
	inputPath := c.Args().First()

	aiConfig := aiConfigFromFlags(c)
	if err := aiConfig.Validate(); err != nil {
		return fmt.Errorf("invalid AI configuration: %w", err)
	}

	db, err := triad.NewDatabase(c.String("db"), triad.WithAIConfig(aiConfig))
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	pipeline, err := db.NewIngestionPipeline()
	if err != nil {
		return fmt.Errorf("failed to create pipeline: %w", err)
	}
	defer pipeline.Release()

	data, err := os.ReadFile(inputPath)
	if err != nil {
		return fmt.Errorf("failed to read input: %w", err)
	}

	var stats *ingestion.Stats
	if strings.HasSuffix(inputPath, ".json") {
		var raw []rawTriple
		if err := json.Unmarshal(data, &raw); err != nil {
			return fmt.Errorf("failed to parse triples file: %w", err)
		}

		triples := make([]core.Triple, len(raw))
		for i, rt := range raw {
			source := rt.Source
			if source == "" {
				source = filepath.Base(inputPath)
			}
			triples[i] = core.Triple{
				Subject:    rt.Subject,
				Predicate:  rt.Predicate,
				Object:     rt.Object,
				Confidence: rt.Confidence,
				Source:     source,
			}
		}

		stats, err = pipeline.IngestTriples(ctx, triples)
	} else {
		stats, err = pipeline.IngestDocument(ctx, filepath.Base(inputPath), string(data), nil)
	}
	if err != nil {
		return fmt.Errorf("ingestion failed: %w", err)
	}

	// Let the async embedder drain before the pool is released
	time.Sleep(500 * time.Millisecond)

	fmt.Printf("Ingested: %d triples applied, %d new edges, %d skipped, %d passages\n",
		stats.Applied, stats.NewEdges, stats.Skipped, stats.Chunks)

	entities, relations, err := db.GraphStore().Counts(ctx)
	if err != nil {
		return err
	}
	fmt.Printf("Graph: %d entities, %d relations\n", entities, relations)

	return nil
}

func queryCommand(c *cli.Context) error {
	ctx := context.Background()

	if c.NArg() != 1 {
		return fmt.Errorf("expected exactly one query argument")
	}
	query := c.Args().First()

	aiConfig := aiConfigFromFlags(c)
	if err := aiConfig.Validate(); err != nil {
		return fmt.Errorf("invalid AI configuration: %w", err)
	}

	db, err := triad.NewDatabase(c.String("db"), triad.WithAIConfig(aiConfig))
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	retriever, err := db.NewRetriever()
	if err != nil {
		return fmt.Errorf("failed to create retriever: %w", err)
	}

	result, err := retriever.Retrieve(ctx, query, c.Int("depth"), c.Int("top-k"))
	if err != nil {
		return fmt.Errorf("retrieval failed: %w", err)
	}

	fmt.Fprintf(os.Stderr, "Subgraph: %d nodes, %d edges; %d passages (depth %d)\n\n",
		len(result.Subgraph.Nodes), len(result.Subgraph.Edges),
		len(result.Passages), graph.ClampDepth(c.Int("depth")))
	fmt.Println(result.FusedText)

	return nil
}

func rebuildCommand(c *cli.Context) error {
	ctx := context.Background()

	aiConfig := aiConfigFromFlags(c)
	if err := aiConfig.Validate(); err != nil {
		return fmt.Errorf("invalid AI configuration: %w", err)
	}

	rebuildConfig, err := reembedConfigFromFlags(c)
	if err != nil {
		return err
	}

	db, err := triad.NewDatabase(c.String("db"), triad.WithAIConfig(aiConfig))
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	rebuilder := reembed.NewGraphRebuilder(
		db.GraphStore(),
		db.PassageRepository(),
		db.Provider().Embedder(),
		db.Provider().TripleExtractor(),
		rebuildConfig,
		os.Stderr,
	)

	fmt.Fprintf(os.Stderr, "Database: %s\n", c.String("db"))
	fmt.Fprintf(os.Stderr, "Host: %s\n", c.String("host"))
	fmt.Fprintf(os.Stderr, "Extractor model: %s\n", c.String("extractor-model"))
	fmt.Fprintln(os.Stderr)

	if err := rebuilder.Run(ctx); err != nil {
		return fmt.Errorf("rebuild failed: %w", err)
	}

	return nil
}

func reembedCommand(c *cli.Context) error {
	ctx := context.Background()

	// Validate flags
	dbPath := c.String("db")
	if dbPath == "" {
		return fmt.Errorf("database path is required")
	}

	// Open database
	backend, err := badger.OpenBackend(dbPath, false)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer backend.Close()

	repo, err := badger.NewPassageRepository(backend)
	if err != nil {
		return fmt.Errorf("failed to create repository: %w", err)
	}
	defer repo.Close()

	// Create AI config
	aiConfig := ai.NewConfig(
		ai.WithEmbeddingHost(c.String("embedding-host")),
		ai.WithEmbeddingModel(c.String("embedding-model")),
		// Use dummy extractor values (not needed for reembedding)
		ai.WithExtractorHost(c.String("embedding-host")),
		ai.WithExtractorModel("dummy"),
	)

	if err := aiConfig.Validate(); err != nil {
		return fmt.Errorf("invalid AI configuration: %w", err)
	}

	// Create embedder
	embedder, err := openai.NewEmbedder(aiConfig)
	if err != nil {
		return fmt.Errorf("failed to create embedder: %w", err)
	}

	reembedConfig, err := reembedConfigFromFlags(c)
	if err != nil {
		return err
	}

	// Create reembedder
	reembedder := reembed.NewReembedder(repo, embedder, reembedConfig, os.Stderr)

	// Run reembedding
	fmt.Fprintf(os.Stderr, "Database: %s\n", dbPath)
	fmt.Fprintf(os.Stderr, "Embedding host: %s\n", c.String("embedding-host"))
	fmt.Fprintf(os.Stderr, "Embedding model: %s\n", c.String("embedding-model"))
	fmt.Fprintln(os.Stderr)

	if err := reembedder.Run(ctx); err != nil {
		return fmt.Errorf("reembedding failed: %w", err)
	}

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
