package core

//go:generate go run ../cmd/musgen

import (
	"encoding/binary"
	"time"

	"github.com/go-crypt/x/blake2b"
)

// ID is a unique identifier for domain records.
// It is generated by content-based hashing so that equivalent content
// always resolves to the same identifier.
type ID uint64

// IDFromContent generates a deterministic ID from text content using BLAKE2b hashing.
// This ensures that identical content produces identical IDs.
func IDFromContent(text string) ID {
	h, _ := blake2b.New(8, nil) // 8 bytes = 64 bits
	h.Write([]byte(text))
	sum := h.Sum(nil)
	return ID(binary.LittleEndian.Uint64(sum))
}

// Entity is a canonical node in the knowledge graph.
// Key is the normalized form of the entity mention; Id is derived from Key,
// so every alias that folds to the same Key resolves to the same entity.
type Entity struct {
	Id         ID
	Key        string   // canonical normalized form, e.g. "insat 3d"
	Label      string   // display label, the first raw mention seen
	Type       string   // type tag, e.g. "satellite"; empty means unset
	Aliases    []string // raw mentions that mapped to this entity, append-only
	InsertedAt time.Time
	UpdatedAt  time.Time
}

// Relation is a directed, deduplicated edge between two entities.
// Id is derived from the canonical (subject, predicate, object) triple,
// so inserting an equivalent triple twice yields the same record.
type Relation struct {
	Id         ID
	SubjectId  ID
	Predicate  string // canonical predicate
	ObjectId   ID
	Source     string  // provenance: originating document or mention, may be empty
	Confidence float32 // extraction confidence, 0 when unknown
	InsertedAt time.Time
}

// TripleKey returns the canonical dedup key for a relation as
// "(subjectId|predicate|objectId)". It is the input to IDFromContent.
func (r *Relation) TripleKey() string {
	return TripleKey(r.SubjectId, r.Predicate, r.ObjectId)
}

// TripleKey builds the canonical dedup key for a (subject, predicate, object)
// triple over already-canonical identifiers.
func TripleKey(subject ID, predicate string, object ID) string {
	buf := make([]byte, 0, len(predicate)+20)
	buf = append(buf, '(')
	buf = binary.BigEndian.AppendUint64(buf, uint64(subject))
	buf = append(buf, '|')
	buf = append(buf, predicate...)
	buf = append(buf, '|')
	buf = binary.BigEndian.AppendUint64(buf, uint64(object))
	buf = append(buf, ')')
	return string(buf)
}

// Triple is a raw extracted statement before normalization.
// This is the ingestion input format.
type Triple struct {
	Subject    string
	Predicate  string
	Object     string
	Confidence float32
	Source     string
}

// Passage is an embedded text fragment used for similarity search.
// Passages derived from a relation carry that relation's id in TripleId
// so retrieval can skip them when the relation is already in the subgraph;
// document chunks carry TripleId zero.
type Passage struct {
	Id         ID
	Text       string
	Source     string // originating document, e.g. "faq.md_3"
	TripleId   ID     // provenance relation id, 0 for plain chunks
	Vector     []float32
	InsertedAt time.Time
	UpdatedAt  time.Time
}

// Checkpoint records batch-processor progress for resumable runs.
type Checkpoint struct {
	ProcessorType string
	LastId        ID
	UpdatedAt     time.Time
}

// Neighbor is one adjacency entry: the connecting relation and the entity
// on its far side. Outgoing is true when the origin entity is the subject.
type Neighbor struct {
	Relation   *Relation
	NeighborId ID
	Outgoing   bool
}

// SubgraphNode is an entity reached by expansion, tagged with its BFS depth
// from the nearest seed. Seeds are depth 0 and Seed=true.
type SubgraphNode struct {
	Id    ID
	Label string
	Type  string
	Seed  bool
	Depth int
}

// SubgraphEdge is a relation whose endpoints were both visited.
type SubgraphEdge struct {
	RelationId ID
	SubjectId  ID
	Predicate  string
	ObjectId   ID
}

// Subgraph is the bounded connected neighborhood produced by expansion.
// Nodes are in deterministic discovery order; an empty subgraph signals
// that no entity matched the query.
type Subgraph struct {
	Nodes []SubgraphNode
	Edges []SubgraphEdge
}

// Empty reports whether the expansion matched nothing.
func (s *Subgraph) Empty() bool {
	return s == nil || len(s.Nodes) == 0
}

// Node returns the node with the given id, or nil.
func (s *Subgraph) Node(id ID) *SubgraphNode {
	for i := range s.Nodes {
		if s.Nodes[i].Id == id {
			return &s.Nodes[i]
		}
	}
	return nil
}

// ScoredPassage is a similarity hit returned by the passage index.
type ScoredPassage struct {
	Passage *Passage
	Score   float32
}

// RetrievalContext is the fused output of one hybrid retrieval:
// the expanded subgraph, the similarity hits that survived dedup,
// and the rendered context text handed to answer synthesis.
type RetrievalContext struct {
	Subgraph  *Subgraph
	Passages  []*ScoredPassage
	FusedText string
}
