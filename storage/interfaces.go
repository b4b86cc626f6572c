package storage

import (
	"context"

	"github.com/poiesic/triad/core"
)

// Repository provides common storage operations shared across all repositories.
// Implementations must be thread-safe and support concurrent access.
type Repository interface {
	// WithTransaction executes a function within a transaction.
	// If fn returns an error, the transaction is rolled back.
	// If fn returns nil, the transaction is committed.
	// The context passed to fn may contain transaction state.
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error

	// Close closes the storage backend and releases resources.
	Close() error
}

// GraphRepository persists canonical entities, deduplicated relations and
// the adjacency index. Records arrive already canonical; normalization
// policy lives above this layer, in graph.Store.
type GraphRepository interface {
	Repository

	// PutEntity stores an entity record, overwriting any previous record
	// with the same id, and maintains the alias index entries for it.
	PutEntity(ctx context.Context, entity *core.Entity) error

	// GetEntity retrieves a single entity by ID.
	// Returns ErrNotFound if the entity doesn't exist.
	GetEntity(ctx context.Context, id core.ID) (*core.Entity, error)

	// GetEntities retrieves multiple entities by their IDs.
	// Returns only the entities that exist (no error for missing entities).
	GetEntities(ctx context.Context, ids ...core.ID) ([]*core.Entity, error)

	// FindEntityByKey resolves a canonical key (or indexed alias key) to
	// its entity. Returns ErrNotFound if no entity is indexed under it.
	FindEntityByKey(ctx context.Context, key string) (*core.Entity, error)

	// PutRelation stores a relation if its id is not already present and
	// writes adjacency index entries for both endpoints.
	// Returns true when a new edge was added, false for a duplicate.
	PutRelation(ctx context.Context, relation *core.Relation) (bool, error)

	// GetRelation retrieves a single relation by ID.
	// Returns ErrNotFound if the relation doesn't exist.
	GetRelation(ctx context.Context, id core.ID) (*core.Relation, error)

	// Neighbors returns all relations touching the entity, incoming and
	// outgoing, in deterministic (relation id) order. O(degree) via the
	// adjacency index.
	Neighbors(ctx context.Context, id core.ID) ([]*core.Relation, error)

	// ForEachEntity iterates all entities in key order.
	// Iteration stops on the first error from fn.
	ForEachEntity(ctx context.Context, fn func(*core.Entity) error) error

	// Counts returns the number of stored entities and relations,
	// for build-time diagnostics.
	Counts(ctx context.Context) (entities, relations int, err error)

	// Clear removes all entities, relations and index entries.
	// Used by wholesale graph rebuilds.
	Clear(ctx context.Context) error
}

// PassageRepository persists embedded text passages and serves similarity
// queries over their vectors. This is the vector-index contract consumed
// by the retriever: AddPassages at build time, FindSimilar at query time.
type PassageRepository interface {
	Repository

	// AddPassages adds one or more passages to storage.
	// For passages with ID=0, derives a content-based ID from the text.
	// Sets InsertedAt timestamp if not already set.
	// Returns the passages with IDs and timestamps populated.
	AddPassages(ctx context.Context, passages ...*core.Passage) ([]*core.Passage, error)

	// UpdatePassages updates existing passages.
	// Updates the UpdatedAt timestamp automatically.
	// Returns ErrNotFound if any passage doesn't exist.
	UpdatePassages(ctx context.Context, passages ...*core.Passage) ([]*core.Passage, error)

	// GetPassage retrieves a single passage by ID.
	// Returns ErrNotFound if the passage doesn't exist.
	GetPassage(ctx context.Context, id core.ID) (*core.Passage, error)

	// GetAllPassages retrieves all passages in storage key order.
	GetAllPassages(ctx context.Context) ([]*core.Passage, error)

	// FindSimilar finds passages similar to the given vector.
	// Returns passages with similarity >= minSimilarity, up to limit results,
	// ordered by similarity score descending with ties broken by id order
	// so repeated identical queries return identical rankings.
	FindSimilar(ctx context.Context, vector []float32, minSimilarity float32, limit int) ([]*core.ScoredPassage, error)
}

// CheckpointRepository persists batch-processor progress markers.
type CheckpointRepository interface {
	// SaveCheckpoint persists a checkpoint for a processor type.
	SaveCheckpoint(ctx context.Context, checkpoint *core.Checkpoint) error

	// LoadCheckpoint retrieves the checkpoint for a processor type.
	// Returns nil, nil if no checkpoint exists.
	LoadCheckpoint(ctx context.Context, processorType string) (*core.Checkpoint, error)
}
