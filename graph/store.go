package graph

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"

	"github.com/poiesic/triad/core"
	"github.com/poiesic/triad/normalize"
	"github.com/poiesic/triad/storage"
)

// Store is the canonicalizing facade over the persisted knowledge graph.
// It owns the normalization policy: callers hand it raw mentions and raw
// predicates, and it resolves them to deduplicated entities and relations.
type Store struct {
	repository storage.GraphRepository
	synonyms   normalize.SynonymTable
	logger     *slog.Logger
}

// StoreOption configures a Store.
type StoreOption func(*Store) error

// WithStoreLogger sets a custom logger.
// Default is slog.Default().
func WithStoreLogger(logger *slog.Logger) StoreOption {
	return func(s *Store) error {
		if logger == nil {
			logger = slog.Default()
		}
		s.logger = logger
		return nil
	}
}

// WithSynonyms sets the relation synonym table.
// Default is normalize.DefaultSynonyms().
func WithSynonyms(table normalize.SynonymTable) StoreOption {
	return func(s *Store) error {
		s.synonyms = table
		return nil
	}
}

// NewStore creates a graph store over the given repository.
func NewStore(repository storage.GraphRepository, opts ...StoreOption) (*Store, error) {
	if repository == nil {
		return nil, ErrGraphRepositoryRequired
	}

	s := &Store{
		repository: repository,
		synonyms:   normalize.DefaultSynonyms(),
		logger:     slog.Default(),
	}

	// Apply options
	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}

	return s, nil
}

// UpsertEntity resolves a raw mention to its canonical entity, creating it
// on first sight and merging the mention into the alias set otherwise.
// The canonical id never changes for a previously seen alias: it is derived
// from the folded key, and alias growth is append-only.
//
// A mention that folds to nothing returns core.ErrMalformedTriple.
func (s *Store) UpsertEntity(ctx context.Context, rawMention, typeHint string) (*core.Entity, error) {
	key := normalize.Entity(rawMention)
	if key == "" {
		return nil, fmt.Errorf("%w: mention %q folds to empty key", core.ErrMalformedTriple, rawMention)
	}

	entity, err := s.repository.FindEntityByKey(ctx, key)
	switch {
	case errors.Is(err, storage.ErrNotFound):
		entity = &core.Entity{
			Id:      core.IDFromContent(key),
			Key:     key,
			Label:   rawMention,
			Type:    typeHint,
			Aliases: []string{rawMention},
		}
	case err != nil:
		return nil, err
	default:
		changed := false
		if !slices.Contains(entity.Aliases, rawMention) {
			entity.Aliases = append(entity.Aliases, rawMention)
			changed = true
		}
		if entity.Type == "" && typeHint != "" {
			entity.Type = typeHint
			changed = true
		}
		if !changed {
			return entity, nil
		}
	}

	if err := s.repository.PutEntity(ctx, entity); err != nil {
		return nil, err
	}
	return entity, nil
}

// UpsertRelation resolves both endpoints of a raw triple, normalizes the
// predicate through the synonym table, and inserts the relation if the
// canonical triple is not already present.
// Returns the canonical relation record and whether a new edge was added.
//
// A triple whose subject, predicate or object folds to nothing returns
// core.ErrMalformedTriple without touching the graph.
func (s *Store) UpsertRelation(ctx context.Context, triple core.Triple) (*core.Relation, bool, error) {
	predicate := s.synonyms.Relation(triple.Predicate)
	if predicate == "" {
		return nil, false, fmt.Errorf("%w: predicate %q folds to empty", core.ErrMalformedTriple, triple.Predicate)
	}
	// Validate both endpoints before writing either, so a malformed object
	// doesn't leave a dangling subject upsert behind.
	if normalize.Entity(triple.Subject) == "" || normalize.Entity(triple.Object) == "" {
		return nil, false, fmt.Errorf("%w: subject %q / object %q", core.ErrMalformedTriple, triple.Subject, triple.Object)
	}

	subject, err := s.UpsertEntity(ctx, triple.Subject, "")
	if err != nil {
		return nil, false, err
	}
	object, err := s.UpsertEntity(ctx, triple.Object, "")
	if err != nil {
		return nil, false, err
	}

	relation := &core.Relation{
		SubjectId:  subject.Id,
		Predicate:  predicate,
		ObjectId:   object.Id,
		Source:     triple.Source,
		Confidence: triple.Confidence,
	}
	relation.Id = core.IDFromContent(relation.TripleKey())

	added, err := s.repository.PutRelation(ctx, relation)
	if err != nil {
		return nil, false, err
	}
	if added {
		s.logger.Debug("relation added",
			"subject", subject.Key,
			"predicate", predicate,
			"object", object.Key)
	}
	return relation, added, nil
}

// Resolve looks up the entity a mention folds to.
// Returns storage.ErrNotFound if no entity is known under that key.
func (s *Store) Resolve(ctx context.Context, mention string) (*core.Entity, error) {
	key := normalize.Entity(mention)
	if key == "" {
		return nil, storage.ErrNotFound
	}
	return s.repository.FindEntityByKey(ctx, key)
}

// Entities loads entity records by id, skipping ids that don't resolve.
func (s *Store) Entities(ctx context.Context, ids ...core.ID) ([]*core.Entity, error) {
	return s.repository.GetEntities(ctx, ids...)
}

// Neighbors returns the adjacency of an entity in both directions, in
// deterministic relation-id order. Traversal treats the graph as undirected;
// Outgoing records which side of the stored edge the origin entity is on.
func (s *Store) Neighbors(ctx context.Context, id core.ID) ([]core.Neighbor, error) {
	relations, err := s.repository.Neighbors(ctx, id)
	if err != nil {
		return nil, err
	}

	neighbors := make([]core.Neighbor, 0, len(relations))
	for _, relation := range relations {
		if relation.SubjectId == id {
			neighbors = append(neighbors, core.Neighbor{
				Relation:   relation,
				NeighborId: relation.ObjectId,
				Outgoing:   true,
			})
		} else {
			neighbors = append(neighbors, core.Neighbor{
				Relation:   relation,
				NeighborId: relation.SubjectId,
				Outgoing:   false,
			})
		}
	}
	return neighbors, nil
}

// Counts reports the number of canonical entities and deduplicated relations.
func (s *Store) Counts(ctx context.Context) (entities, relations int, err error) {
	return s.repository.Counts(ctx)
}

// Clear removes the whole graph. Used by wholesale rebuilds.
func (s *Store) Clear(ctx context.Context) error {
	return s.repository.Clear(ctx)
}
