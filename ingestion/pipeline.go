package ingestion

import (
	"context"
	"errors"
	"log/slog"
	"runtime"
	"strings"

	"github.com/panjf2000/ants/v2"
	"github.com/poiesic/triad/ai"
	"github.com/poiesic/triad/core"
	"github.com/poiesic/triad/graph"
	"github.com/poiesic/triad/storage"
)

// Pipeline orchestrates graph construction and passage indexing.
// Graph writes run sequentially on the caller's goroutine; passage
// embedding is submitted to a worker pool and completes asynchronously.
type Pipeline struct {
	store                *graph.Store
	passageRepository    storage.PassageRepository
	checkpointRepository storage.CheckpointRepository
	extractor            ai.TripleExtractor
	embeddingPool        *ants.Pool
	embeddingProc        processor
	chunkSize            int
	chunkOverlap         int
	logger               *slog.Logger
}

// Option configures a Pipeline.
type Option func(*Pipeline) error

// WithPoolSize sets the worker pool size for passage embedding.
// Default is runtime.NumCPU() / 2, with a minimum of 1.
func WithPoolSize(size int) Option {
	return func(p *Pipeline) error {
		if size < 1 {
			size = 1
		}

		if p.embeddingPool != nil {
			p.embeddingPool.Release()
		}

		pool, err := ants.NewPool(size)
		if err != nil {
			return err
		}
		p.embeddingPool = pool
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) error {
		if logger == nil {
			logger = slog.Default()
		}
		p.logger = logger
		return nil
	}
}

// WithChunking sets the document chunk size and overlap, in bytes.
// Defaults are 1000 and 100.
func WithChunking(size, overlap int) Option {
	return func(p *Pipeline) error {
		if size >= 1 {
			p.chunkSize = size
		}
		if overlap >= 0 && overlap < p.chunkSize {
			p.chunkOverlap = overlap
		}
		return nil
	}
}

// WithCheckpoints enables embedding progress checkpoints through the given
// repository, so interrupted runs can be diagnosed and resumed.
func WithCheckpoints(repository storage.CheckpointRepository) Option {
	return func(p *Pipeline) error {
		p.checkpointRepository = repository
		return nil
	}
}

// NewPipeline creates a new ingestion pipeline.
func NewPipeline(
	store *graph.Store,
	passageRepository storage.PassageRepository,
	provider ai.AIProvider,
	opts ...Option,
) (*Pipeline, error) {
	if store == nil {
		return nil, ErrGraphStoreRequired
	}
	if passageRepository == nil {
		return nil, ErrPassageRepositoryRequired
	}
	if provider == nil {
		return nil, ErrAIProviderRequired
	}

	// Default pool size
	poolSize := runtime.NumCPU() / 2
	if poolSize < 1 {
		poolSize = 1
	}

	embeddingPool, err := ants.NewPool(poolSize)
	if err != nil {
		return nil, err
	}

	// Create pipeline with defaults
	p := &Pipeline{
		store:             store,
		passageRepository: passageRepository,
		extractor:         provider.TripleExtractor(),
		embeddingPool:     embeddingPool,
		chunkSize:         defaultChunkSize,
		chunkOverlap:      defaultChunkOverlap,
		logger:            slog.Default(),
	}

	// Apply options (may override defaults)
	for _, opt := range opts {
		if optErr := opt(p); optErr != nil {
			p.Release()
			return nil, optErr
		}
	}

	// Create the processor after options are applied (so it gets final config)
	embeddingProc, err := newPassageEmbeddingProcessor(passageRepository, p.checkpointRepository, provider.Embedder(), p.logger)
	if err != nil {
		p.Release()
		return nil, err
	}
	p.embeddingProc = embeddingProc

	return p, nil
}

// Stats summarizes one ingestion call, for build-time diagnostics.
type Stats struct {
	Applied  int // triples applied against the graph
	NewEdges int // relations that were not duplicates
	Skipped  int // malformed triples dropped
	Chunks   int // passages queued for embedding
}

// IngestTriples applies raw triples against the graph sequentially.
// Malformed triples (empty subject, predicate or object after folding) are
// skipped and counted, never inserted and never fatal. Every new edge also
// queues a one-sentence passage carrying the relation id as provenance, so
// retrieval can dedup it against subgraph facts later.
func (p *Pipeline) IngestTriples(ctx context.Context, triples []core.Triple) (*Stats, error) {
	stats := &Stats{}
	var passages []*core.Passage

	for _, triple := range triples {
		relation, added, err := p.store.UpsertRelation(ctx, triple)
		if errors.Is(err, core.ErrMalformedTriple) {
			stats.Skipped++
			p.logger.Warn("skipping malformed triple",
				"subject", triple.Subject,
				"predicate", triple.Predicate,
				"object", triple.Object)
			continue
		}
		if err != nil {
			return stats, err
		}

		stats.Applied++
		if !added {
			continue
		}
		stats.NewEdges++

		passages = append(passages, &core.Passage{
			Text:     renderTripleSentence(triple, relation.Predicate),
			Source:   triple.Source,
			TripleId: relation.Id,
		})
	}

	if err := p.indexPassages(ctx, passages, stats); err != nil {
		return stats, err
	}

	p.logger.Info("ingested triples",
		"applied", stats.Applied,
		"newEdges", stats.NewEdges,
		"skipped", stats.Skipped)
	return stats, nil
}

// DocumentOptions holds optional parameters for document ingestion.
type DocumentOptions struct {
	// SkipExtraction indexes the document's chunks without running the
	// triple extractor, leaving the graph untouched.
	SkipExtraction bool
}

// IngestDocument chunks a document, optionally extracts triples from each
// chunk into the graph, and indexes the chunks as passages.
// Extraction failures on individual chunks degrade to chunk-only indexing
// and are logged, not returned.
func (p *Pipeline) IngestDocument(ctx context.Context, source, text string, opts *DocumentOptions) (*Stats, error) {
	if opts == nil {
		opts = &DocumentOptions{}
	}

	stats := &Stats{}
	chunks := chunkText(source, text, p.chunkSize, p.chunkOverlap)

	for _, c := range chunks {
		if opts.SkipExtraction || p.extractor == nil {
			continue
		}

		extracted, err := p.extractor.ExtractTriples(ctx, c.text)
		if err != nil {
			p.logger.Warn("triple extraction failed for chunk, indexing text only",
				"source", c.source, "err", err)
			continue
		}

		chunkStats, err := p.ingestExtracted(ctx, c.source, extracted)
		if err != nil {
			return stats, err
		}
		stats.Applied += chunkStats.Applied
		stats.NewEdges += chunkStats.NewEdges
		stats.Skipped += chunkStats.Skipped
		stats.Chunks += chunkStats.Chunks
	}

	passages := make([]*core.Passage, 0, len(chunks))
	for _, c := range chunks {
		passages = append(passages, &core.Passage{
			Text:   c.text,
			Source: c.source,
		})
	}
	if err := p.indexPassages(ctx, passages, stats); err != nil {
		return stats, err
	}

	p.logger.Info("ingested document",
		"source", source,
		"chunks", len(chunks),
		"newEdges", stats.NewEdges,
		"skipped", stats.Skipped)
	return stats, nil
}

// ingestExtracted applies extractor output, feeding the type hints into the
// entity records before the relations land.
func (p *Pipeline) ingestExtracted(ctx context.Context, source string, extracted []ai.ExtractedTriple) (*Stats, error) {
	triples := make([]core.Triple, 0, len(extracted))
	for _, et := range extracted {
		if _, err := p.store.UpsertEntity(ctx, et.Subject, et.SubjectType); err != nil && !errors.Is(err, core.ErrMalformedTriple) {
			return &Stats{}, err
		}
		if _, err := p.store.UpsertEntity(ctx, et.Object, et.ObjectType); err != nil && !errors.Is(err, core.ErrMalformedTriple) {
			return &Stats{}, err
		}
		triples = append(triples, core.Triple{
			Subject:    et.Subject,
			Predicate:  et.Predicate,
			Object:     et.Object,
			Confidence: et.Confidence,
			Source:     source,
		})
	}
	return p.IngestTriples(ctx, triples)
}

// indexPassages stores passages without vectors and submits their ids for
// asynchronous embedding. Errors during async embedding are logged but do
// not fail the ingestion.
func (p *Pipeline) indexPassages(ctx context.Context, passages []*core.Passage, stats *Stats) error {
	if len(passages) == 0 {
		return nil
	}

	added, err := p.passageRepository.AddPassages(ctx, passages...)
	if err != nil {
		return err
	}
	stats.Chunks += len(added)

	ids := make([]core.ID, len(added))
	for i, passage := range added {
		ids[i] = passage.Id
	}

	return p.embeddingPool.Submit(func() {
		if err := p.embeddingProc.process(context.Background(), ids...); err != nil {
			p.logger.Error("error embedding passages", "err", err)
			return
		}
		if err := p.embeddingProc.checkpoint(); err != nil {
			p.logger.Error("error applying embedding checkpoint", "err", err)
		}
	})
}

// renderTripleSentence is the textual form of a relation used for its
// provenance passage. It keeps the raw surface forms so the embedding sees
// the mention as written, with the canonical predicate in between.
func renderTripleSentence(triple core.Triple, predicate string) string {
	return strings.TrimSpace(triple.Subject) + " " + predicate + " " + strings.TrimSpace(triple.Object) + "."
}

// Release releases resources including the worker pool.
// The pipeline should not be used after calling Release.
func (p *Pipeline) Release() {
	if p.embeddingPool != nil {
		p.embeddingPool.Release()
	}
}
