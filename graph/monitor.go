package graph

import "github.com/poiesic/triad/core"

// ExpandMonitor provides hooks to observe the expansion process.
// Implement this interface to track intermediate steps during traversal.
type ExpandMonitor interface {
	Start(query string, maxDepth int)
	SeedMatched(span string, id core.ID)
	AfterSeedMatching(seeds []core.ID)
	LevelExpanded(depth int, discovered []core.ID)
	Finish(subgraph *core.Subgraph)
}

// noopMonitor is a no-op implementation of ExpandMonitor
type noopMonitor struct{}

var _ ExpandMonitor = (*noopMonitor)(nil)

func (n *noopMonitor) Start(_ string, _ int)             {}
func (n *noopMonitor) SeedMatched(_ string, _ core.ID)   {}
func (n *noopMonitor) AfterSeedMatching(_ []core.ID)     {}
func (n *noopMonitor) LevelExpanded(_ int, _ []core.ID)  {}
func (n *noopMonitor) Finish(_ *core.Subgraph)           {}
