package graph

import (
	"context"
	"testing"

	"github.com/poiesic/triad/core"
	badgerstore "github.com/poiesic/triad/storage/badger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()

	graphRepo, passageRepo, backend, err := badgerstore.NewMemoryRepositories()
	require.NoError(t, err)
	t.Cleanup(func() {
		passageRepo.Close()
		graphRepo.Close()
		backend.Close()
	})

	store, err := NewStore(graphRepo)
	require.NoError(t, err)
	return store
}

func TestNewStore_RequiresRepository(t *testing.T) {
	_, err := NewStore(nil)
	assert.ErrorIs(t, err, ErrGraphRepositoryRequired)
}

func TestStore_UpsertEntity_AliasConvergence(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	first, err := store.UpsertEntity(ctx, "INSAT-3D", "satellite")
	require.NoError(t, err)

	// All spellings fold to the same canonical entity.
	for _, mention := range []string{"INSAT 3D", "insat_3d", "INSAT-3D"} {
		entity, err := store.UpsertEntity(ctx, mention, "")
		require.NoError(t, err)
		assert.Equal(t, first.Id, entity.Id, "mention %q should resolve to the same entity", mention)
		assert.Equal(t, "insat 3d", entity.Key)
	}

	// Label stays at the first raw mention; aliases grow append-only.
	entity, err := store.Resolve(ctx, "insat 3d")
	require.NoError(t, err)
	assert.Equal(t, "INSAT-3D", entity.Label)
	assert.Equal(t, []string{"INSAT-3D", "INSAT 3D", "insat_3d"}, entity.Aliases)
	assert.Equal(t, "satellite", entity.Type)
}

func TestStore_UpsertEntity_TypeHint(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	// First sight without a hint leaves the type unset.
	entity, err := store.UpsertEntity(ctx, "Imager", "")
	require.NoError(t, err)
	assert.Empty(t, entity.Type)

	// A later hint fills it in.
	entity, err = store.UpsertEntity(ctx, "Imager", "instrument")
	require.NoError(t, err)
	assert.Equal(t, "instrument", entity.Type)

	// A conflicting hint never overwrites an assigned type.
	entity, err = store.UpsertEntity(ctx, "Imager", "satellite")
	require.NoError(t, err)
	assert.Equal(t, "instrument", entity.Type)
}

func TestStore_UpsertEntity_EmptyMention(t *testing.T) {
	store := newTestStore(t)

	for _, mention := range []string{"", "---", "  ", "!?"} {
		_, err := store.UpsertEntity(context.Background(), mention, "")
		assert.ErrorIs(t, err, core.ErrMalformedTriple, "mention %q", mention)
	}
}

func TestStore_UpsertRelation_Dedup(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	triple := core.Triple{Subject: "INSAT-3D", Predicate: "operates", Object: "SAC"}

	_, added, err := store.UpsertRelation(ctx, triple)
	require.NoError(t, err)
	assert.True(t, added)

	_, added, err = store.UpsertRelation(ctx, triple)
	require.NoError(t, err)
	assert.False(t, added)

	_, relations, err := store.Counts(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, relations)
}

func TestStore_UpsertRelation_SynonymConvergence(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	_, added, err := store.UpsertRelation(ctx, core.Triple{Subject: "ISRO", Predicate: "operates", Object: "INSAT-3D"})
	require.NoError(t, err)
	assert.True(t, added)

	// "manages" and "runs" fold to the same canonical predicate.
	for _, predicate := range []string{"manages", "runs"} {
		_, added, err = store.UpsertRelation(ctx, core.Triple{Subject: "ISRO", Predicate: predicate, Object: "INSAT-3D"})
		require.NoError(t, err)
		assert.False(t, added, "predicate %q should dedup against operates", predicate)
	}

	_, relations, err := store.Counts(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, relations)
}

func TestStore_UpsertRelation_AliasedEndpoints(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	_, added, err := store.UpsertRelation(ctx, core.Triple{Subject: "INSAT-3D", Predicate: "carries", Object: "Imager"})
	require.NoError(t, err)
	assert.True(t, added)

	// Different spelling of the subject is the same canonical edge.
	_, added, err = store.UpsertRelation(ctx, core.Triple{Subject: "insat_3d", Predicate: "carries", Object: "Imager"})
	require.NoError(t, err)
	assert.False(t, added)
}

func TestStore_UpsertRelation_Malformed(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	_, _, err := store.UpsertRelation(ctx, core.Triple{Subject: "INSAT-3D", Predicate: "carries", Object: "--"})
	assert.ErrorIs(t, err, core.ErrMalformedTriple)

	_, _, err = store.UpsertRelation(ctx, core.Triple{Subject: "", Predicate: "carries", Object: "Imager"})
	assert.ErrorIs(t, err, core.ErrMalformedTriple)

	_, _, err = store.UpsertRelation(ctx, core.Triple{Subject: "INSAT-3D", Predicate: "", Object: "Imager"})
	assert.ErrorIs(t, err, core.ErrMalformedTriple)

	// A malformed triple must not leave partial state behind.
	entities, relations, err := store.Counts(ctx)
	require.NoError(t, err)
	assert.Zero(t, entities)
	assert.Zero(t, relations)
}

func TestStore_Neighbors_Direction(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	_, _, err := store.UpsertRelation(ctx, core.Triple{Subject: "INSAT-3D", Predicate: "operates", Object: "SAC"})
	require.NoError(t, err)
	_, _, err = store.UpsertRelation(ctx, core.Triple{Subject: "ISRO", Predicate: "launched by", Object: "INSAT-3D"})
	require.NoError(t, err)

	insat, err := store.Resolve(ctx, "INSAT-3D")
	require.NoError(t, err)

	neighbors, err := store.Neighbors(ctx, insat.Id)
	require.NoError(t, err)
	require.Len(t, neighbors, 2)

	directions := make(map[string]bool)
	for _, neighbor := range neighbors {
		directions[neighbor.Relation.Predicate] = neighbor.Outgoing
		assert.NotEqual(t, insat.Id, neighbor.NeighborId)
	}
	assert.True(t, directions["operates"])
	assert.False(t, directions["launched by"])
}

func TestStore_Clear(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	_, _, err := store.UpsertRelation(ctx, core.Triple{Subject: "INSAT-3D", Predicate: "carries", Object: "Imager"})
	require.NoError(t, err)

	require.NoError(t, store.Clear(ctx))

	entities, relations, err := store.Counts(ctx)
	require.NoError(t, err)
	assert.Zero(t, entities)
	assert.Zero(t, relations)
}
