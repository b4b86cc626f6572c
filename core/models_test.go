package core

import (
	"testing"
)

func TestIDFromContent(t *testing.T) {
	tests := []struct {
		name     string
		content  string
		wantSame bool
	}{
		{
			name:     "same content produces same ID",
			content:  "insat 3d",
			wantSame: true,
		},
		{
			name:     "empty string",
			content:  "",
			wantSame: true,
		},
		{
			name:     "long content",
			content:  "a much longer canonical key that should still hash consistently",
			wantSame: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id1 := IDFromContent(tt.content)
			id2 := IDFromContent(tt.content)

			if tt.wantSame && id1 != id2 {
				t.Errorf("IDFromContent() produced different IDs for same content: %d vs %d", id1, id2)
			}
		})
	}
}

func TestIDFromContent_Different(t *testing.T) {
	id1 := IDFromContent("insat 3d")
	id2 := IDFromContent("insat 3dr")

	if id1 == id2 {
		t.Errorf("IDFromContent() produced same ID for different content")
	}
}

func TestTripleKey(t *testing.T) {
	subject := IDFromContent("insat 3d")
	object := IDFromContent("sac")

	key1 := TripleKey(subject, "operates", object)
	key2 := TripleKey(subject, "operates", object)
	if key1 != key2 {
		t.Errorf("TripleKey() not deterministic: %q vs %q", key1, key2)
	}

	reversed := TripleKey(object, "operates", subject)
	if key1 == reversed {
		t.Errorf("TripleKey() should be direction-sensitive")
	}

	otherPredicate := TripleKey(subject, "carries", object)
	if key1 == otherPredicate {
		t.Errorf("TripleKey() should distinguish predicates")
	}
}

func TestRelation_TripleKey(t *testing.T) {
	r := &Relation{
		SubjectId: IDFromContent("insat 3d"),
		Predicate: "carries",
		ObjectId:  IDFromContent("imager"),
	}

	want := TripleKey(r.SubjectId, r.Predicate, r.ObjectId)
	if got := r.TripleKey(); got != want {
		t.Errorf("Relation.TripleKey() = %q, want %q", got, want)
	}
}

func TestSubgraph_Empty(t *testing.T) {
	var nilGraph *Subgraph
	if !nilGraph.Empty() {
		t.Errorf("nil subgraph should be empty")
	}

	empty := &Subgraph{}
	if !empty.Empty() {
		t.Errorf("subgraph without nodes should be empty")
	}

	populated := &Subgraph{
		Nodes: []SubgraphNode{{Id: 1, Label: "INSAT-3D", Seed: true}},
	}
	if populated.Empty() {
		t.Errorf("subgraph with nodes should not be empty")
	}
}

func TestSubgraph_Node(t *testing.T) {
	sg := &Subgraph{
		Nodes: []SubgraphNode{
			{Id: 1, Label: "INSAT-3D", Seed: true, Depth: 0},
			{Id: 2, Label: "SAC", Depth: 1},
		},
	}

	if node := sg.Node(2); node == nil || node.Label != "SAC" {
		t.Errorf("Node(2) = %v, want SAC", node)
	}
	if node := sg.Node(99); node != nil {
		t.Errorf("Node(99) = %v, want nil", node)
	}
}
