package reembed

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/poiesic/triad/ai"
	"github.com/poiesic/triad/core"
	"github.com/poiesic/triad/graph"
	"github.com/poiesic/triad/storage"
	"github.com/poiesic/triad/storage/badger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockTripleExtractor for testing
type mockTripleExtractor struct {
	responses   map[string][]ai.ExtractedTriple
	errorOnText string
}

func (m *mockTripleExtractor) ExtractTriples(ctx context.Context, text string) ([]ai.ExtractedTriple, error) {
	if text == m.errorOnText {
		return nil, errors.New("extraction error")
	}
	if triples, ok := m.responses[text]; ok {
		return triples, nil
	}
	return []ai.ExtractedTriple{}, nil
}

func setupRebuildFixture(t *testing.T) (*graph.Store, storage.PassageRepository) {
	graphRepo, passageRepo, backend, err := badger.NewMemoryRepositories()
	require.NoError(t, err)
	t.Cleanup(func() {
		passageRepo.Close()
		graphRepo.Close()
		backend.Close()
	})

	store, err := graph.NewStore(graphRepo)
	require.NoError(t, err)
	return store, passageRepo
}

func fastConfig() *Config {
	return &Config{
		BatchSize:      10,
		ReportInterval: 10,
		MaxRetries:     2,
		RetryDelay:     1 * time.Millisecond,
	}
}

func TestGraphRebuilder_Run(t *testing.T) {
	store, passageRepo := setupRebuildFixture(t)
	ctx := context.Background()

	// A stale graph that the rebuild must replace.
	_, _, err := store.UpsertRelation(ctx, core.Triple{Subject: "Old", Predicate: "relates to", Object: "Stale"})
	require.NoError(t, err)

	chunkText := "INSAT-3D carries an Imager and a Sounder."
	_, err = passageRepo.AddPassages(ctx, &core.Passage{Text: chunkText, Source: "insat.md_0"})
	require.NoError(t, err)

	extractor := &mockTripleExtractor{
		responses: map[string][]ai.ExtractedTriple{
			chunkText: {
				{Subject: "INSAT-3D", SubjectType: "satellite", Predicate: "carries", Object: "Imager", ObjectType: "instrument", Confidence: 0.9},
				{Subject: "INSAT-3D", SubjectType: "satellite", Predicate: "carries", Object: "Sounder", ObjectType: "instrument", Confidence: 0.85},
			},
		},
	}

	var output bytes.Buffer
	rebuilder := NewGraphRebuilder(store, passageRepo, &mockEmbedder{}, extractor, fastConfig(), &output)
	require.NoError(t, rebuilder.Run(ctx))

	// Old graph content is gone, re-extracted content is present.
	entities, relations, err := store.Counts(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, entities)
	assert.Equal(t, 2, relations)

	_, err = store.Resolve(ctx, "Old")
	assert.ErrorIs(t, err, storage.ErrNotFound)

	insat, err := store.Resolve(ctx, "INSAT-3D")
	require.NoError(t, err)
	assert.Equal(t, "satellite", insat.Type)

	// New edges got embedded provenance passages alongside the chunk.
	passages, err := passageRepo.GetAllPassages(ctx)
	require.NoError(t, err)
	require.Len(t, passages, 3)
	var provenance int
	for _, passage := range passages {
		if passage.TripleId != 0 {
			provenance++
			assert.NotEmpty(t, passage.Vector)
		}
	}
	assert.Equal(t, 2, provenance)

	assert.Contains(t, output.String(), "Rebuild complete")
}

func TestGraphRebuilder_Run_EmptyDatabase(t *testing.T) {
	store, passageRepo := setupRebuildFixture(t)
	ctx := context.Background()

	// Existing graph stays untouched when there is nothing to rebuild from.
	_, _, err := store.UpsertRelation(ctx, core.Triple{Subject: "INSAT-3D", Predicate: "carries", Object: "Imager"})
	require.NoError(t, err)

	var output bytes.Buffer
	rebuilder := NewGraphRebuilder(store, passageRepo, &mockEmbedder{}, &mockTripleExtractor{}, fastConfig(), &output)
	require.NoError(t, rebuilder.Run(ctx))

	assert.Contains(t, output.String(), "No document chunks found")

	_, relations, err := store.Counts(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, relations)
}

func TestGraphRebuildProcessor_SkipsProvenancePassages(t *testing.T) {
	store, passageRepo := setupRebuildFixture(t)
	ctx := context.Background()

	// Provenance passages are outputs of a build, never extraction sources.
	extractor := &mockTripleExtractor{responses: map[string][]ai.ExtractedTriple{
		"INSAT-3D carries Imager.": {
			{Subject: "Should", Predicate: "not", Object: "happen", Confidence: 1},
		},
	}}

	processor := NewGraphRebuildProcessor(store, passageRepo, &mockEmbedder{}, extractor, 1, time.Millisecond)
	err := processor.Process(ctx, []*core.Passage{
		{Id: 1, Text: "INSAT-3D carries Imager.", TripleId: 42},
	})
	require.NoError(t, err)

	applied, _, _ := processor.Stats()
	assert.Zero(t, applied)
}

func TestGraphRebuildProcessor_ExtractionFailureContinues(t *testing.T) {
	store, passageRepo := setupRebuildFixture(t)
	ctx := context.Background()

	goodText := "Oceansat-2 carries a Scatterometer."
	extractor := &mockTripleExtractor{
		responses: map[string][]ai.ExtractedTriple{
			goodText: {
				{Subject: "Oceansat-2", Predicate: "carries", Object: "Scatterometer", Confidence: 0.9},
			},
		},
		errorOnText: "broken chunk",
	}

	processor := NewGraphRebuildProcessor(store, passageRepo, &mockEmbedder{}, extractor, 1, time.Millisecond)
	err := processor.Process(ctx, []*core.Passage{
		{Id: 1, Text: "broken chunk"},
		{Id: 2, Text: goodText},
	})

	// The failure is reported, but the good chunk still landed.
	require.Error(t, err)
	assert.Contains(t, err.Error(), "extraction failed")

	applied, newEdges, skipped := processor.Stats()
	assert.Equal(t, 1, applied)
	assert.Equal(t, 1, newEdges)
	assert.Zero(t, skipped)
}

func TestGraphRebuildProcessor_MalformedTriplesSkipped(t *testing.T) {
	store, passageRepo := setupRebuildFixture(t)
	ctx := context.Background()

	text := "chunk with a broken triple"
	extractor := &mockTripleExtractor{
		responses: map[string][]ai.ExtractedTriple{
			text: {
				{Subject: "INSAT-3D", Predicate: "carries", Object: "--", Confidence: 0.9},
				{Subject: "INSAT-3D", Predicate: "carries", Object: "Imager", Confidence: 0.9},
			},
		},
	}

	processor := NewGraphRebuildProcessor(store, passageRepo, &mockEmbedder{}, extractor, 1, time.Millisecond)
	err := processor.Process(ctx, []*core.Passage{{Id: 1, Text: text}})
	require.NoError(t, err)

	applied, newEdges, skipped := processor.Stats()
	assert.Equal(t, 1, applied)
	assert.Equal(t, 1, newEdges)
	assert.Equal(t, 1, skipped)
}
