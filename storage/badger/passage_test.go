package badger

import (
	"context"
	"testing"

	"github.com/poiesic/triad/core"
	"github.com/poiesic/triad/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPassageRepository_AddAndGet(t *testing.T) {
	graphRepo, passageRepo, backend, err := NewMemoryRepositories()
	require.NoError(t, err)
	defer func() {
		passageRepo.Close()
		graphRepo.Close()
		backend.Close()
	}()

	ctx := context.Background()

	passage := &core.Passage{
		Text:   "INSAT-3D is operated by ISRO from the Master Control Facility.",
		Source: "overview.md_0",
	}

	added, err := passageRepo.AddPassages(ctx, passage)
	require.NoError(t, err)
	require.Len(t, added, 1)
	assert.NotZero(t, added[0].Id)
	assert.False(t, added[0].InsertedAt.IsZero())

	got, err := passageRepo.GetPassage(ctx, added[0].Id)
	require.NoError(t, err)
	assert.Equal(t, passage.Text, got.Text)
	assert.Equal(t, "overview.md_0", got.Source)
}

func TestPassageRepository_ContentID_Stable(t *testing.T) {
	graphRepo, passageRepo, backend, err := NewMemoryRepositories()
	require.NoError(t, err)
	defer func() {
		passageRepo.Close()
		graphRepo.Close()
		backend.Close()
	}()

	ctx := context.Background()

	// Same text upserted twice lands on the same record.
	first, err := passageRepo.AddPassages(ctx, &core.Passage{Text: "identical chunk"})
	require.NoError(t, err)
	second, err := passageRepo.AddPassages(ctx, &core.Passage{Text: "identical chunk"})
	require.NoError(t, err)
	assert.Equal(t, first[0].Id, second[0].Id)

	all, err := passageRepo.GetAllPassages(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestPassageRepository_AddRejectsEmptyText(t *testing.T) {
	graphRepo, passageRepo, backend, err := NewMemoryRepositories()
	require.NoError(t, err)
	defer func() {
		passageRepo.Close()
		graphRepo.Close()
		backend.Close()
	}()

	_, err = passageRepo.AddPassages(context.Background(), &core.Passage{Source: "x.md_0"})
	assert.ErrorIs(t, err, core.ErrInvalidPassage)
}

func TestPassageRepository_Update(t *testing.T) {
	graphRepo, passageRepo, backend, err := NewMemoryRepositories()
	require.NoError(t, err)
	defer func() {
		passageRepo.Close()
		graphRepo.Close()
		backend.Close()
	}()

	ctx := context.Background()

	added, err := passageRepo.AddPassages(ctx, &core.Passage{Text: "chunk to reembed"})
	require.NoError(t, err)

	added[0].Vector = []float32{0.5, 0.5, 0.0}
	_, err = passageRepo.UpdatePassages(ctx, added[0])
	require.NoError(t, err)

	got, err := passageRepo.GetPassage(ctx, added[0].Id)
	require.NoError(t, err)
	assert.Equal(t, []float32{0.5, 0.5, 0.0}, got.Vector)
}

func TestPassageRepository_Update_NotFound(t *testing.T) {
	graphRepo, passageRepo, backend, err := NewMemoryRepositories()
	require.NoError(t, err)
	defer func() {
		passageRepo.Close()
		graphRepo.Close()
		backend.Close()
	}()

	missing := &core.Passage{Id: core.ID(999), Text: "never stored"}
	_, err = passageRepo.UpdatePassages(context.Background(), missing)
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestCheckpointRepository_SaveLoad(t *testing.T) {
	backend, err := OpenBackend("", true)
	require.NoError(t, err)
	defer backend.Close()

	ctx := context.Background()
	repo := NewCheckpointRepository(backend)

	// No checkpoint yet.
	got, err := repo.LoadCheckpoint(ctx, "reembed")
	require.NoError(t, err)
	assert.Nil(t, got)

	require.NoError(t, repo.SaveCheckpoint(ctx, &core.Checkpoint{
		ProcessorType: "reembed",
		LastId:        core.ID(42),
	}))

	got, err = repo.LoadCheckpoint(ctx, "reembed")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, core.ID(42), got.LastId)
	assert.False(t, got.UpdatedAt.IsZero())
}
