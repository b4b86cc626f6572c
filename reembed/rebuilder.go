package reembed

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/poiesic/triad/ai"
	"github.com/poiesic/triad/core"
	"github.com/poiesic/triad/graph"
	"github.com/poiesic/triad/storage"
)

// GraphRebuilder orchestrates a wholesale rebuild of the knowledge graph
// from the document chunks already in the database. The existing graph is
// cleared first; chunks are then re-extracted with the configured extractor
// and their triples applied fresh.
type GraphRebuilder struct {
	store     *graph.Store
	repo      storage.PassageRepository
	config    *Config
	progress  io.Writer
	processor *GraphRebuildProcessor
	iterator  *PassageIterator
}

// NewGraphRebuilder creates a new graph rebuilder.
// progress: where to write progress output (typically os.Stderr)
func NewGraphRebuilder(
	store *graph.Store,
	repo storage.PassageRepository,
	embedder ai.Embedder,
	extractor ai.TripleExtractor,
	config *Config,
	progress io.Writer,
) *GraphRebuilder {
	if config == nil {
		config = DefaultConfig()
	}

	processor := NewGraphRebuildProcessor(
		store,
		repo,
		embedder,
		extractor,
		config.MaxRetries,
		config.RetryDelay,
	)
	iterator := NewPassageIterator(repo, config.BatchSize)

	return &GraphRebuilder{
		store:     store,
		repo:      repo,
		config:    config,
		progress:  progress,
		processor: processor,
		iterator:  iterator,
	}
}

// Run executes the graph rebuild.
// The existing graph is cleared, then every document chunk in the database is
// re-extracted and its triples applied. Progress is reported to the
// configured writer.
func (r *GraphRebuilder) Run(ctx context.Context) error {
	// First, count total chunks
	allPassages, err := r.repo.GetAllPassages(ctx)
	if err != nil {
		return fmt.Errorf("failed to query passages: %w", err)
	}

	totalChunks := 0
	for _, passage := range allPassages {
		if passage.TripleId == 0 {
			totalChunks++
		}
	}
	if totalChunks == 0 {
		fmt.Fprintf(r.progress, "No document chunks found in database (0 chunks)\n")
		return nil
	}

	if err := r.store.Clear(ctx); err != nil {
		return fmt.Errorf("failed to clear graph: %w", err)
	}

	fmt.Fprintf(r.progress, "Starting graph rebuild from %d chunks (batch size: %d)\n",
		totalChunks, r.config.BatchSize)

	// Initialize progress tracker
	tracker := NewProgressTracker(r.progress, totalChunks, r.config.ReportInterval)
	tracker.Start()

	processed := 0

	// Process all chunks in batches
	err = r.iterator.ForEach(ctx, func(passages []*core.Passage) error {
		// Process this batch
		if err := r.processor.Process(ctx, passages); err != nil {
			return fmt.Errorf("failed to process batch: %w", err)
		}

		// Update progress
		for _, passage := range passages {
			if passage.TripleId == 0 {
				processed++
			}
		}
		tracker.Update(processed)

		return nil
	})

	if err != nil {
		return err
	}

	// Finish progress tracking
	tracker.Finish()

	applied, newEdges, skipped := r.processor.Stats()
	elapsed := tracker.Elapsed()
	fmt.Fprintf(r.progress, "Rebuild complete. %d chunks, %d triples applied (%d edges, %d skipped) in %v\n",
		totalChunks, applied, newEdges, skipped, elapsed.Round(time.Second))

	return nil
}
