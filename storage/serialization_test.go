package storage

import (
	"testing"
	"time"

	"github.com/poiesic/triad/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarshalUnmarshalID(t *testing.T) {
	tests := []struct {
		name string
		id   core.ID
	}{
		{"zero ID", core.ID(0)},
		{"small ID", core.ID(42)},
		{"large ID", core.ID(18446744073709551615)}, // max uint64
		{"content-based ID", core.IDFromContent("insat 3d")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data := MarshalID(tt.id)
			require.NotEmpty(t, data)

			decoded, err := UnmarshalID(data)
			require.NoError(t, err)
			assert.Equal(t, tt.id, decoded)
		})
	}
}

func TestUnmarshalID_Invalid(t *testing.T) {
	_, err := UnmarshalID([]byte{})
	assert.Error(t, err)
}

func TestMarshalUnmarshalEntity(t *testing.T) {
	now := time.Now().UTC().Truncate(time.Microsecond)

	entity := &core.Entity{
		Id:         core.IDFromContent("insat 3d"),
		Key:        "insat 3d",
		Label:      "INSAT-3D",
		Type:       "satellite",
		Aliases:    []string{"INSAT-3D", "INSAT 3D", "insat_3d"},
		InsertedAt: now,
		UpdatedAt:  now,
	}

	data := MarshalEntity(entity)
	require.NotEmpty(t, data)

	decoded, err := UnmarshalEntity(data)
	require.NoError(t, err)
	assert.Equal(t, entity, decoded)

	// Decoded timestamps come back in UTC, preserving the instant.
	assert.Equal(t, time.UTC, decoded.InsertedAt.Location())
	assert.True(t, decoded.UpdatedAt.Equal(now))
}

func TestMarshalUnmarshalRelation(t *testing.T) {
	now := time.Now().UTC().Truncate(time.Microsecond)

	relation := &core.Relation{
		SubjectId:  core.IDFromContent("insat 3d"),
		Predicate:  "carries",
		ObjectId:   core.IDFromContent("imager"),
		Source:     "payloads.md",
		Confidence: 0.92,
		InsertedAt: now,
	}
	relation.Id = core.IDFromContent(relation.TripleKey())

	data := MarshalRelation(relation)
	require.NotEmpty(t, data)

	decoded, err := UnmarshalRelation(data)
	require.NoError(t, err)
	assert.Equal(t, relation, decoded)
}

func TestMarshalUnmarshalPassage(t *testing.T) {
	now := time.Now().UTC().Truncate(time.Microsecond)

	passage := &core.Passage{
		Id:         core.IDFromContent("payloads.md_0"),
		Text:       "INSAT-3D carries a six channel Imager and a nineteen channel Sounder.",
		Source:     "payloads.md_0",
		Vector:     []float32{0.1, 0.2, 0.3},
		InsertedAt: now,
		UpdatedAt:  now,
	}

	data := MarshalPassage(passage)
	require.NotEmpty(t, data)

	decoded, err := UnmarshalPassage(data)
	require.NoError(t, err)
	assert.Equal(t, passage, decoded)
}

func TestMarshalUnmarshalCheckpoint(t *testing.T) {
	now := time.Now().UTC().Truncate(time.Microsecond)

	checkpoint := &core.Checkpoint{
		ProcessorType: "reembed",
		LastId:        core.ID(77),
		UpdatedAt:     now,
	}

	data := MarshalCheckpoint(checkpoint)
	require.NotEmpty(t, data)

	decoded, err := UnmarshalCheckpoint(data)
	require.NoError(t, err)
	assert.Equal(t, checkpoint, decoded)
}
