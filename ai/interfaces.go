package ai

import "context"

// Embedder generates vector embeddings from text for semantic similarity search.
// Implementations must be thread-safe for concurrent use.
type Embedder interface {
	// EmbedText generates a vector embedding for a single text string.
	// The returned vector represents the semantic meaning of the text.
	// Returns an error if the embedding generation fails.
	EmbedText(ctx context.Context, text string) ([]float32, error)

	// EmbedTexts generates vector embeddings for multiple text strings in a batch.
	// Batch processing is more efficient than calling EmbedText multiple times.
	// The returned slice contains embeddings in the same order as the input texts.
	// Returns an error if any embedding generation fails.
	EmbedTexts(ctx context.Context, texts []string) ([][]float32, error)
}

// TripleExtractor extracts entity-relation triples from text.
// Implementations must be thread-safe for concurrent use.
type TripleExtractor interface {
	// ExtractTriples analyzes text and extracts (subject, predicate, object)
	// statements with entity types and a confidence score. Triples represent
	// factual relationships explicitly stated in the text.
	// Returns an empty slice if no triples are found.
	// Returns an error if extraction fails.
	ExtractTriples(ctx context.Context, text string) ([]ExtractedTriple, error)
}

// ExtractedTriple represents one factual statement identified in text.
// Subject and Object are raw mentions; canonicalization happens downstream
// in the graph store, not here.
type ExtractedTriple struct {
	// Subject is the raw subject mention, e.g. "INSAT-3D".
	Subject string

	// SubjectType categorizes the subject (e.g. "satellite", "organization").
	// Should match one of the predefined entity types; may be empty.
	SubjectType string

	// Predicate is the raw relation label, e.g. "carries".
	Predicate string

	// Object is the raw object mention, e.g. "Imager".
	Object string

	// ObjectType categorizes the object; may be empty.
	ObjectType string

	// Confidence is the extractor's confidence in the statement, 0.0-1.0.
	Confidence float32
}

// AIProvider aggregates AI services for convenient initialization and lifecycle management.
// A provider creates and manages Embedder and TripleExtractor instances,
// ensuring they share configuration and resources appropriately.
type AIProvider interface {
	// Embedder returns the text embedding service.
	// The returned Embedder is safe for concurrent use.
	Embedder() Embedder

	// TripleExtractor returns the triple extraction service.
	// The returned TripleExtractor is safe for concurrent use.
	TripleExtractor() TripleExtractor

	// Close releases resources held by the provider and its services.
	// After Close is called, the provider and its services should not be used.
	Close() error
}
