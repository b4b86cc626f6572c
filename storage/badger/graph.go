package badger

import (
	"context"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/triad/core"
	"github.com/poiesic/triad/storage"
)

// GraphRepository implements storage.GraphRepository for BadgerDB.
type GraphRepository struct {
	backend *Backend
}

var _ storage.GraphRepository = (*GraphRepository)(nil)

// NewGraphRepository creates a new GraphRepository.
func NewGraphRepository(backend *Backend) (storage.GraphRepository, error) {
	return &GraphRepository{
		backend: backend,
	}, nil
}

// Close releases resources. GraphRepository has no resources to release.
func (r *GraphRepository) Close() error {
	return nil
}

// WithTransaction delegates to the backend.
func (r *GraphRepository) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return r.backend.WithTransaction(ctx, fn)
}

// PutEntity stores an entity record and its canonical-key index entry.
func (r *GraphRepository) PutEntity(ctx context.Context, entity *core.Entity) error {
	if err := core.ValidateEntity(entity); err != nil {
		return err
	}

	return r.backend.WithTx(func(tx *badger.Txn) error {
		now := time.Now().UTC()
		if entity.InsertedAt.IsZero() {
			entity.InsertedAt = now
		}
		entity.UpdatedAt = now

		key := makeEntityKey(entity.Id)
		value := storage.MarshalEntity(entity)
		if err := tx.Set(key, value); err != nil {
			return err
		}

		lookupKey := makeEntityLookupKey(entity.Key)
		if err := tx.Set(lookupKey, storage.MarshalID(entity.Id)); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
}

// GetEntity retrieves a single entity by ID.
func (r *GraphRepository) GetEntity(ctx context.Context, id core.ID) (*core.Entity, error) {
	var result *core.Entity
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		var err error
		result, err = readEntity(tx, makeEntityKey(id))
		if err != nil {
			return err
		}
		if result == nil {
			return storage.ErrNotFound
		}
		return nil
	}, false)
	return result, err
}

// GetEntities retrieves multiple entities by their IDs.
func (r *GraphRepository) GetEntities(ctx context.Context, ids ...core.ID) ([]*core.Entity, error) {
	var result []*core.Entity
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		for _, id := range ids {
			entity, err := readEntity(tx, makeEntityKey(id))
			if err != nil {
				return err
			}
			if entity != nil {
				result = append(result, entity)
			}
		}
		return nil
	}, false)
	return result, err
}

// FindEntityByKey resolves a canonical key to its entity via the key index.
func (r *GraphRepository) FindEntityByKey(ctx context.Context, key string) (*core.Entity, error) {
	var result *core.Entity
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		item, err := tx.Get(makeEntityLookupKey(key))
		if err != nil {
			if err == badger.ErrKeyNotFound {
				return storage.ErrNotFound
			}
			return err
		}

		var entityID core.ID
		err = item.Value(func(val []byte) error {
			entityID, err = storage.UnmarshalID(val)
			return err
		})
		if err != nil {
			return err
		}

		result, err = readEntity(tx, makeEntityKey(entityID))
		if err != nil {
			return err
		}
		if result == nil {
			return storage.ErrNotFound
		}
		return nil
	}, false)
	return result, err
}

// PutRelation stores a relation if absent and writes adjacency entries for
// both endpoints. Returns true when a new edge was added.
func (r *GraphRepository) PutRelation(ctx context.Context, relation *core.Relation) (bool, error) {
	if err := core.ValidateRelation(relation); err != nil {
		return false, err
	}

	added := false
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		key := makeRelationKey(relation.Id)

		// Duplicate triple: no-op by contract.
		_, err := tx.Get(key)
		if err == nil {
			return nil
		}
		if err != badger.ErrKeyNotFound {
			return err
		}

		relation.InsertedAt = time.Now().UTC()
		if err := tx.Set(key, storage.MarshalRelation(relation)); err != nil {
			return err
		}

		// Adjacency entries for both endpoints; for self-loops the keys
		// coincide and the second Set is a harmless overwrite.
		idValue := storage.MarshalID(relation.Id)
		if err := tx.Set(makeAdjacencyKey(relation.SubjectId, relation.Id), idValue); err != nil {
			return err
		}
		if err := tx.Set(makeAdjacencyKey(relation.ObjectId, relation.Id), idValue); err != nil {
			return err
		}

		added = true
		return tx.Commit()
	}, true)

	return added, err
}

// GetRelation retrieves a single relation by ID.
func (r *GraphRepository) GetRelation(ctx context.Context, id core.ID) (*core.Relation, error) {
	var result *core.Relation
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		var err error
		result, err = readRelation(tx, makeRelationKey(id))
		if err != nil {
			return err
		}
		if result == nil {
			return storage.ErrNotFound
		}
		return nil
	}, false)
	return result, err
}

// Neighbors returns all relations touching the entity via the adjacency
// index, in relation-id order.
func (r *GraphRepository) Neighbors(ctx context.Context, id core.ID) ([]*core.Relation, error) {
	var relationIDs []core.ID

	err := r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = makePartialAdjacencyKey(id)
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			err := iter.Item().Value(func(val []byte) error {
				relationID, err := storage.UnmarshalID(val)
				if err != nil {
					return err
				}
				relationIDs = append(relationIDs, relationID)
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	}, false)
	if err != nil {
		return nil, err
	}

	var relations []*core.Relation
	err = r.backend.WithTx(func(tx *badger.Txn) error {
		for _, relationID := range relationIDs {
			relation, err := readRelation(tx, makeRelationKey(relationID))
			if err != nil {
				return err
			}
			if relation != nil {
				relations = append(relations, relation)
			}
		}
		return nil
	}, false)
	return relations, err
}

// ForEachEntity iterates all entities in key order.
func (r *GraphRepository) ForEachEntity(ctx context.Context, fn func(*core.Entity) error) error {
	return r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(entityRecordPrefix + ":")
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			var entity *core.Entity
			err := iter.Item().Value(func(val []byte) error {
				var err error
				entity, err = storage.UnmarshalEntity(val)
				return err
			})
			if err != nil {
				return err
			}
			if entity == nil {
				continue
			}
			if err := fn(entity); err != nil {
				return err
			}
		}
		return nil
	}, false)
}

// Counts returns the number of stored entities and relations.
func (r *GraphRepository) Counts(ctx context.Context) (int, int, error) {
	var entities, relations int
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		entities = countPrefix(tx, []byte(entityRecordPrefix+":"))
		relations = countPrefix(tx, []byte(relationRecordPrefix+":"))
		return nil
	}, false)
	return entities, relations, err
}

// Clear removes all graph records and index entries.
func (r *GraphRepository) Clear(ctx context.Context) error {
	return r.backend.DropPrefixes(
		[]byte(entityRecordPrefix+":"),
		[]byte(entityKeyPrefix+":"),
		[]byte(relationRecordPrefix+":"),
		[]byte(adjacencyPrefix+":"),
	)
}

// Helper methods

// countPrefix counts keys under a prefix without loading values.
func countPrefix(tx *badger.Txn, prefix []byte) int {
	opts := badger.DefaultIteratorOptions
	opts.Prefix = prefix
	opts.PrefetchValues = false
	iter := tx.NewIterator(opts)
	defer iter.Close()

	count := 0
	for iter.Rewind(); iter.Valid(); iter.Next() {
		count++
	}
	return count
}

// readEntity reads an entity from the transaction.
func readEntity(tx *badger.Txn, key []byte) (*core.Entity, error) {
	item, err := tx.Get(key)
	if err != nil {
		if err == badger.ErrKeyNotFound {
			return nil, nil
		}
		return nil, err
	}

	var entity *core.Entity
	err = item.Value(func(val []byte) error {
		var err error
		entity, err = storage.UnmarshalEntity(val)
		return err
	})
	return entity, err
}

// readRelation reads a relation from the transaction.
func readRelation(tx *badger.Txn, key []byte) (*core.Relation, error) {
	item, err := tx.Get(key)
	if err != nil {
		if err == badger.ErrKeyNotFound {
			return nil, nil
		}
		return nil, err
	}

	var relation *core.Relation
	err = item.Value(func(val []byte) error {
		var err error
		relation, err = storage.UnmarshalRelation(val)
		return err
	})
	return relation, err
}
