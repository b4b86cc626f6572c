package retrieve

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/poiesic/triad/ai"
	"github.com/poiesic/triad/core"
	"github.com/poiesic/triad/graph"
	"github.com/poiesic/triad/storage"
)

const (
	// defaultVectorTimeout bounds the embedding call plus similarity query.
	// On timeout the retriever degrades to structured-only context.
	defaultVectorTimeout = 5 * time.Second

	// defaultMinSimilarity is the similarity floor for passage hits.
	defaultMinSimilarity = 0.60

	// defaultMaxFusedLength is the combined length ceiling, in bytes, of the
	// rendered context payload.
	defaultMaxFusedLength = 4000
)

// Retriever fuses graph expansion and passage similarity into one
// retrieval context per query.
type Retriever struct {
	expander       *graph.Expander
	passages       storage.PassageRepository
	embedder       ai.Embedder
	vectorTimeout  time.Duration
	minSimilarity  float32
	maxFusedLength int
	logger         *slog.Logger
}

// Option configures a Retriever.
type Option func(*Retriever) error

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(r *Retriever) error {
		if logger == nil {
			logger = slog.Default()
		}
		r.logger = logger
		return nil
	}
}

// WithVectorTimeout bounds the passage similarity stage. Zero or negative
// disables the bound.
func WithVectorTimeout(timeout time.Duration) Option {
	return func(r *Retriever) error {
		r.vectorTimeout = timeout
		return nil
	}
}

// WithMinSimilarity sets the similarity floor for passage hits.
func WithMinSimilarity(min float32) Option {
	return func(r *Retriever) error {
		r.minSimilarity = min
		return nil
	}
}

// WithMaxFusedLength sets the combined length ceiling of the fused payload.
// Values below 1 are ignored.
func WithMaxFusedLength(n int) Option {
	return func(r *Retriever) error {
		if n >= 1 {
			r.maxFusedLength = n
		}
		return nil
	}
}

// NewRetriever creates a hybrid retriever.
func NewRetriever(
	expander *graph.Expander,
	passages storage.PassageRepository,
	embedder ai.Embedder,
	opts ...Option,
) (*Retriever, error) {
	if expander == nil {
		return nil, ErrExpanderRequired
	}
	if passages == nil {
		return nil, ErrPassageRepositoryRequired
	}
	if embedder == nil {
		return nil, ErrEmbedderRequired
	}

	r := &Retriever{
		expander:       expander,
		passages:       passages,
		embedder:       embedder,
		vectorTimeout:  defaultVectorTimeout,
		minSimilarity:  defaultMinSimilarity,
		maxFusedLength: defaultMaxFusedLength,
		logger:         slog.Default(),
	}

	// Apply options
	for _, opt := range opts {
		if err := opt(r); err != nil {
			return nil, err
		}
	}

	return r, nil
}

// Retrieve answers a query with fused graph and passage context.
//
// The subgraph expansion runs first; an empty subgraph just means no entity
// matched and retrieval falls back to passages alone. The passage stage is
// the only remotely expensive call and runs under the configured timeout;
// on failure or timeout retrieval degrades to structured-only context.
// Only when both sources are empty does Retrieve return ErrNoContext.
func (r *Retriever) Retrieve(ctx context.Context, query string, maxDepth, topK int) (*core.RetrievalContext, error) {
	subgraph, err := r.expander.Expand(ctx, query, maxDepth)
	if err != nil {
		r.logger.Error("error expanding query subgraph", "query", query, "err", err)
		return nil, err
	}

	passages := r.findPassages(ctx, query, topK)
	passages = r.dedupAgainstSubgraph(subgraph, passages)

	if subgraph.Empty() && len(passages) == 0 {
		return nil, ErrNoContext
	}

	result := &core.RetrievalContext{
		Subgraph:  subgraph,
		Passages:  passages,
		FusedText: r.fuse(subgraph, passages),
	}

	r.logger.Debug("retrieved context",
		"query", query,
		"nodes", len(subgraph.Nodes),
		"edges", len(subgraph.Edges),
		"passages", len(passages),
		"fusedLength", len(result.FusedText))

	return result, nil
}

// findPassages runs the similarity stage. Failures degrade to no passages;
// the graph side of the query still answers.
func (r *Retriever) findPassages(ctx context.Context, query string, topK int) []*core.ScoredPassage {
	if topK < 1 {
		return nil
	}

	if r.vectorTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.vectorTimeout)
		defer cancel()
	}

	embedding, err := r.embedder.EmbedText(ctx, query)
	if err != nil {
		r.logger.Warn("embedding query failed, degrading to structured-only context", "err", err)
		return nil
	}

	matches, err := r.passages.FindSimilar(ctx, embedding, r.minSimilarity, topK)
	if err != nil {
		r.logger.Warn("passage search failed, degrading to structured-only context", "err", err)
		return nil
	}
	return matches
}

// dedupAgainstSubgraph drops passages that restate a relation already in the
// subgraph. The link is the passage's provenance relation id; passages
// without provenance (plain document chunks) are never skipped.
func (r *Retriever) dedupAgainstSubgraph(subgraph *core.Subgraph, passages []*core.ScoredPassage) []*core.ScoredPassage {
	if subgraph.Empty() || len(passages) == 0 {
		return passages
	}

	covered := make(map[core.ID]bool, len(subgraph.Edges))
	for _, edge := range subgraph.Edges {
		covered[edge.RelationId] = true
	}

	kept := make([]*core.ScoredPassage, 0, len(passages))
	for _, passage := range passages {
		if passage.Passage.TripleId != 0 && covered[passage.Passage.TripleId] {
			continue
		}
		kept = append(kept, passage)
	}
	return kept
}

// fuse renders the context payload: structured facts first, then passage
// text, under the combined length ceiling. Facts are one line per edge,
// rendered from node labels so downstream synthesis sees display forms,
// not canonical keys.
func (r *Retriever) fuse(subgraph *core.Subgraph, passages []*core.ScoredPassage) string {
	var b strings.Builder

	if !subgraph.Empty() && len(subgraph.Edges) > 0 {
		labels := make(map[core.ID]string, len(subgraph.Nodes))
		for _, node := range subgraph.Nodes {
			labels[node.Id] = node.Label
		}

		b.WriteString("Facts:\n")
		for _, edge := range subgraph.Edges {
			line := "- " + labels[edge.SubjectId] + " " + edge.Predicate + " " + labels[edge.ObjectId] + "\n"
			if b.Len()+len(line) > r.maxFusedLength {
				return strings.TrimRight(b.String(), "\n")
			}
			b.WriteString(line)
		}
	}

	for i, passage := range passages {
		section := passage.Passage.Text + "\n"
		if i == 0 {
			header := "Passages:\n"
			if b.Len() > 0 {
				header = "\n" + header
			}
			section = header + section
		}
		if b.Len()+len(section) > r.maxFusedLength {
			break
		}
		b.WriteString(section)
	}

	return strings.TrimRight(b.String(), "\n")
}
