package reembed

import (
	"bytes"
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/poiesic/triad/ai"
	"github.com/poiesic/triad/core"
	"github.com/poiesic/triad/graph"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestIntegration_FullMaintenanceWorkflow runs the complete maintenance cycle
// against an in-memory database: rebuild the graph from stored chunks, then
// reembed every passage, and verify both retrieval paths work afterwards.
func TestIntegration_FullMaintenanceWorkflow(t *testing.T) {
	// Skip if short tests
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	ctx := context.Background()
	store, passageRepo := setupRebuildFixture(t)

	// Seed the database with document chunks WITHOUT embeddings
	chunks := make([]*core.Passage, 0, 20)
	responses := make(map[string][]ai.ExtractedTriple)
	for i := 0; i < 20; i++ {
		text := fmt.Sprintf("Observation note %d about the INSAT-3D mission.", i)
		chunks = append(chunks, &core.Passage{Text: text, Source: fmt.Sprintf("notes.md_%d", i)})
		responses[text] = []ai.ExtractedTriple{
			{Subject: "INSAT-3D", SubjectType: "satellite", Predicate: "carries", Object: "Imager", ObjectType: "instrument", Confidence: 0.9},
		}
	}
	_, err := passageRepo.AddPassages(ctx, chunks...)
	require.NoError(t, err)

	config := &Config{
		BatchSize:      5,
		ReportInterval: 10,
		MaxRetries:     3,
		RetryDelay:     1 * time.Millisecond,
	}
	embedder := &mockEmbedder{}
	extractor := &mockTripleExtractor{responses: responses}

	// Phase 1: rebuild the graph from the chunks
	var rebuildOutput bytes.Buffer
	rebuilder := NewGraphRebuilder(store, passageRepo, embedder, extractor, config, &rebuildOutput)
	require.NoError(t, rebuilder.Run(ctx))

	// Every chunk extracts the same triple, so the graph converges on one edge.
	entities, relations, err := store.Counts(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, entities)
	assert.Equal(t, 1, relations)

	// Phase 2: reembed everything, chunks and provenance passages alike
	var reembedOutput bytes.Buffer
	reembedder := NewReembedder(passageRepo, embedder, config, &reembedOutput)
	require.NoError(t, reembedder.Run(ctx))

	passages, err := passageRepo.GetAllPassages(ctx)
	require.NoError(t, err)
	require.Len(t, passages, 21) // 20 chunks plus 1 provenance passage
	for _, passage := range passages {
		require.NotEmpty(t, passage.Vector, "passage %q should be embedded", passage.Source)
	}

	// Graph expansion reaches the rebuilt edge
	expander, err := graph.NewExpander(store)
	require.NoError(t, err)
	subgraph, err := expander.Expand(ctx, "INSAT-3D status", 1)
	require.NoError(t, err)
	assert.Len(t, subgraph.Nodes, 2)
	assert.Len(t, subgraph.Edges, 1)

	// Similarity search works against the reembedded vectors
	query := NormalizeVector([]float32{1.0, 2.0, 2.0})
	hits, err := passageRepo.FindSimilar(ctx, query, 0.9, 5)
	require.NoError(t, err)
	assert.NotEmpty(t, hits)

	assert.Contains(t, rebuildOutput.String(), "Rebuild complete")
	assert.Contains(t, reembedOutput.String(), "Reembedding complete")
}
