package badger

import (
	"encoding/binary"
	"fmt"

	"github.com/poiesic/triad/core"
)

// Key prefixes for different data types
const (
	entityRecordPrefix   = "entrec"
	entityKeyPrefix      = "entkey"
	relationRecordPrefix = "relrec"
	adjacencyPrefix      = "reladj"
	passageRecordPrefix  = "pasrec"
)

// makeEntityKey generates a key for an entity by ID.
func makeEntityKey(id core.ID) []byte {
	return []byte(fmt.Sprintf("%s:%d", entityRecordPrefix, id))
}

// makeEntityLookupKey generates a key for the canonical-key index.
// Every alias of an entity folds to the same canonical key, so a single
// index entry per entity resolves all of its aliases.
// Format: prefix:canonicalKey
func makeEntityLookupKey(canonicalKey string) []byte {
	return []byte(entityKeyPrefix + ":" + canonicalKey)
}

// makeRelationKey generates a key for a relation by ID.
func makeRelationKey(id core.ID) []byte {
	return []byte(fmt.Sprintf("%s:%d", relationRecordPrefix, id))
}

// makeAdjacencyKey generates a composite key for the adjacency index.
// One entry exists per (endpoint, relation) pair, so a prefix scan on the
// endpoint yields its full neighborhood in relation-id order.
// Format: prefix:entityID:relationID
func makeAdjacencyKey(entityID, relationID core.ID) []byte {
	prefix := adjacencyPrefix + ":"
	prefixBytes := []byte(prefix)
	prefixSize := len(prefixBytes)
	totalSize := prefixSize + 16 // 8 bytes for entityID + 8 bytes for relationID
	buf := make([]byte, totalSize)
	offset := copy(buf, prefixBytes)
	// Write in BigEndian order so lexicographic sort works correctly
	binary.BigEndian.PutUint64(buf[offset:], uint64(entityID))
	offset += 8
	binary.BigEndian.PutUint64(buf[offset:], uint64(relationID))
	return buf
}

// makePartialAdjacencyKey generates a partial key for neighborhood scans.
// Format: prefix:entityID
func makePartialAdjacencyKey(entityID core.ID) []byte {
	prefix := adjacencyPrefix + ":"
	prefixBytes := []byte(prefix)
	prefixSize := len(prefixBytes)
	totalSize := prefixSize + 8 // 8 bytes for entityID
	buf := make([]byte, totalSize)
	offset := copy(buf, prefixBytes)
	// Write in BigEndian order so lexicographic sort works correctly
	binary.BigEndian.PutUint64(buf[offset:], uint64(entityID))
	return buf
}

// makePassageKey generates a key for a passage by ID.
func makePassageKey(id core.ID) []byte {
	return []byte(fmt.Sprintf("%s:%d", passageRecordPrefix, id))
}

// makeCheckpointKey generates a key for processor checkpoints.
func makeCheckpointKey(processorType string) []byte {
	return []byte(fmt.Sprintf("%s:chkpt", processorType))
}
