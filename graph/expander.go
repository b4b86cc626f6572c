package graph

import (
	"context"
	"errors"
	"log/slog"
	"slices"

	"github.com/poiesic/triad/core"
	"github.com/poiesic/triad/normalize"
	"github.com/poiesic/triad/storage"
)

const (
	// MinDepth and MaxDepth bound the traversal. Requested depths outside
	// the range are clamped, not rejected.
	MinDepth = 1
	MaxDepth = 5

	// defaultMaxSeedTokens bounds the n-gram spans tried during seed
	// matching. Entity keys in the corpus rarely exceed four tokens.
	defaultMaxSeedTokens = 4
)

// Expander matches queries against the graph and grows bounded subgraphs
// around the matched seeds via breadth-first traversal.
type Expander struct {
	store         *Store
	maxSeedTokens int
	logger        *slog.Logger
}

// ExpanderOption configures an Expander.
type ExpanderOption func(*Expander) error

// WithExpanderLogger sets a custom logger.
// Default is slog.Default().
func WithExpanderLogger(logger *slog.Logger) ExpanderOption {
	return func(e *Expander) error {
		if logger == nil {
			logger = slog.Default()
		}
		e.logger = logger
		return nil
	}
}

// WithMaxSeedTokens sets the longest entity span, in tokens, tried during
// seed matching. Values below 1 are ignored.
func WithMaxSeedTokens(n int) ExpanderOption {
	return func(e *Expander) error {
		if n >= 1 {
			e.maxSeedTokens = n
		}
		return nil
	}
}

// NewExpander creates an expander over the given store.
func NewExpander(store *Store, opts ...ExpanderOption) (*Expander, error) {
	if store == nil {
		return nil, ErrStoreRequired
	}

	e := &Expander{
		store:         store,
		maxSeedTokens: defaultMaxSeedTokens,
		logger:        slog.Default(),
	}

	// Apply options
	for _, opt := range opts {
		if err := opt(e); err != nil {
			return nil, err
		}
	}

	return e, nil
}

// ClampDepth forces a requested depth into the valid [MinDepth, MaxDepth] range.
func ClampDepth(depth int) int {
	if depth < MinDepth {
		return MinDepth
	}
	if depth > MaxDepth {
		return MaxDepth
	}
	return depth
}

// Expand matches the query against entity keys and aliases, then runs a
// breadth-first traversal from all matched seeds simultaneously up to
// maxDepth hops. An empty subgraph means no entity matched the query and
// signals fallback to vector-only retrieval; it is not an error.
func (e *Expander) Expand(ctx context.Context, query string, maxDepth int) (*core.Subgraph, error) {
	return e.ExpandWithMonitor(ctx, query, maxDepth, nil)
}

// ExpandWithMonitor is Expand with observation hooks.
// The monitor receives callbacks at each stage of the traversal.
func (e *Expander) ExpandWithMonitor(ctx context.Context, query string, maxDepth int, monitor ExpandMonitor) (*core.Subgraph, error) {
	// Use noop monitor if none provided
	if monitor == nil {
		monitor = &noopMonitor{}
	}

	maxDepth = ClampDepth(maxDepth)
	monitor.Start(query, maxDepth)

	seeds, err := e.matchSeeds(ctx, query, monitor)
	if err != nil {
		return nil, err
	}
	monitor.AfterSeedMatching(seeds)

	if len(seeds) == 0 {
		e.logger.Debug("no seed matched query", "query", query)
		subgraph := &core.Subgraph{}
		monitor.Finish(subgraph)
		return subgraph, nil
	}

	subgraph, err := e.traverse(ctx, seeds, maxDepth, monitor)
	if err != nil {
		return nil, err
	}

	monitor.Finish(subgraph)
	return subgraph, nil
}

// matchSeeds finds entities whose canonical key matches an n-gram span of
// the query. Spans are tried longest-first per start position, so "insat 3d"
// wins over "insat"; entities already matched by an earlier span are not
// re-added. Seed order follows span order, which keeps traversal
// deterministic for a fixed query.
func (e *Expander) matchSeeds(ctx context.Context, query string, monitor ExpandMonitor) ([]core.ID, error) {
	seen := make(map[core.ID]bool)
	seeds := make([]core.ID, 0, 4)

	for _, span := range normalize.Spans(query, e.maxSeedTokens) {
		entity, err := e.store.Resolve(ctx, span)
		if errors.Is(err, storage.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		if seen[entity.Id] {
			continue
		}
		seen[entity.Id] = true
		seeds = append(seeds, entity.Id)
		monitor.SeedMatched(span, entity.Id)
	}

	return seeds, nil
}

// traverse runs the breadth-first expansion. Every node is visited at most
// once and recorded at the minimum depth at which it was first reached;
// the visited set is what guarantees termination on cyclic graphs. Edges
// are exactly the relations crossed during traversal whose endpoints both
// ended up visited.
func (e *Expander) traverse(ctx context.Context, seeds []core.ID, maxDepth int, monitor ExpandMonitor) (*core.Subgraph, error) {
	visited := make(map[core.ID]int, len(seeds)*8)
	seedSet := make(map[core.ID]bool, len(seeds))
	order := make([]core.ID, 0, len(seeds)*8)

	for _, seed := range seeds {
		if _, ok := visited[seed]; ok {
			continue
		}
		visited[seed] = 0
		seedSet[seed] = true
		order = append(order, seed)
	}

	type candidateEdge struct {
		relation *core.Relation
		far      core.ID
	}
	var candidates []candidateEdge
	edgeSeen := make(map[core.ID]bool)

	frontier := slices.Clone(order)
	for depth := 1; depth <= maxDepth && len(frontier) > 0; depth++ {
		next := make([]core.ID, 0, len(frontier)*2)

		for _, id := range frontier {
			neighbors, err := e.store.Neighbors(ctx, id)
			if err != nil {
				return nil, err
			}

			for _, neighbor := range neighbors {
				if !edgeSeen[neighbor.Relation.Id] {
					edgeSeen[neighbor.Relation.Id] = true
					candidates = append(candidates, candidateEdge{
						relation: neighbor.Relation,
						far:      neighbor.NeighborId,
					})
				}

				if _, ok := visited[neighbor.NeighborId]; ok {
					continue
				}
				visited[neighbor.NeighborId] = depth
				order = append(order, neighbor.NeighborId)
				next = append(next, neighbor.NeighborId)
			}
		}

		monitor.LevelExpanded(depth, next)
		frontier = next
	}

	// Keep only edges whose far endpoint was actually visited. Candidates
	// were collected in traversal order, so edge order is deterministic.
	edges := make([]core.SubgraphEdge, 0, len(candidates))
	for _, candidate := range candidates {
		if _, ok := visited[candidate.far]; !ok {
			continue
		}
		edges = append(edges, core.SubgraphEdge{
			RelationId: candidate.relation.Id,
			SubjectId:  candidate.relation.SubjectId,
			Predicate:  candidate.relation.Predicate,
			ObjectId:   candidate.relation.ObjectId,
		})
	}

	nodes, err := e.buildNodes(ctx, order, visited, seedSet)
	if err != nil {
		return nil, err
	}

	return &core.Subgraph{Nodes: nodes, Edges: edges}, nil
}

// buildNodes loads entity records for the visited ids and tags each with
// its discovery depth and seed flag, preserving discovery order.
func (e *Expander) buildNodes(ctx context.Context, order []core.ID, visited map[core.ID]int, seedSet map[core.ID]bool) ([]core.SubgraphNode, error) {
	entities, err := e.store.Entities(ctx, order...)
	if err != nil {
		return nil, err
	}

	byId := make(map[core.ID]*core.Entity, len(entities))
	for _, entity := range entities {
		byId[entity.Id] = entity
	}

	nodes := make([]core.SubgraphNode, 0, len(order))
	for _, id := range order {
		node := core.SubgraphNode{
			Id:    id,
			Seed:  seedSet[id],
			Depth: visited[id],
		}
		if entity, ok := byId[id]; ok {
			node.Label = entity.Label
			node.Type = entity.Type
		}
		nodes = append(nodes, node)
	}
	return nodes, nil
}
