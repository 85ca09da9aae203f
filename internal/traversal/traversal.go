// Package traversal orders events in time and restricts edges to those that
// point forward (or sideways) in that order.
package traversal

import (
	"cmp"
	"slices"
	"time"

	"github.com/danielpatrickdp/war-games/go-engine/internal/world"
)

// #region order

// Order returns event ids ascending by date. Events on the same date are
// ordered by id. An unparsable date sorts as the zero time.
func Order(w world.World) []string {
	type keyed struct {
		id string
		at time.Time
	}
	items := make([]keyed, 0, len(w.Nodes))
	for id, ev := range w.Nodes {
		at, _ := ev.Time()
		items = append(items, keyed{id: id, at: at})
	}
	slices.SortFunc(items, func(a, b keyed) int {
		if c := a.at.Compare(b.at); c != 0 {
			return c
		}
		return cmp.Compare(a.id, b.id)
	})
	ids := make([]string, len(items))
	for i, it := range items {
		ids[i] = it.id
	}
	return ids
}

// Positions maps each id in order to its index.
func Positions(order []string) map[string]int {
	idx := make(map[string]int, len(order))
	for i, id := range order {
		idx[id] = i
	}
	return idx
}

// #endregion order

// #region admissible

// AdmissibleEdges keeps the edges whose source does not come after their
// destination in order. Edges with an endpoint missing from order are
// dropped. The world's own edge list is not modified.
func AdmissibleEdges(w world.World, order []string) []world.Edge {
	idx := Positions(order)
	var out []world.Edge
	for _, e := range w.Edges {
		si, okS := idx[e.Src]
		di, okD := idx[e.Dst]
		if !okS || !okD || si > di {
			continue
		}
		out = append(out, e)
	}
	return out
}

// Outgoing groups edges by source id, preserving their relative order.
func Outgoing(edges []world.Edge) map[string][]world.Edge {
	out := make(map[string][]world.Edge)
	for _, e := range edges {
		out[e.Src] = append(out[e.Src], e)
	}
	return out
}

// #endregion admissible

// #region walk

// WalkResult holds the events reached from an entry, in visit order, with
// the product of edge weights along the first path that reached each one.
type WalkResult struct {
	IDs    []string
	Scores []float64
}

// Walk performs a BFS over admissible edges from entryID, up to maxDepth
// hops (unbounded when maxDepth <= 0). An unknown entry yields an empty
// result.
func Walk(w world.World, entryID string, maxDepth int) WalkResult {
	if _, ok := w.Nodes[entryID]; !ok {
		return WalkResult{}
	}
	out := Outgoing(AdmissibleEdges(w, Order(w)))

	result := WalkResult{
		IDs:    []string{entryID},
		Scores: []float64{1.0},
	}
	visited := map[string]bool{entryID: true}

	type queueItem struct {
		id    string
		depth int
		score float64
	}
	queue := []queueItem{{entryID, 0, 1.0}}

	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]

		if maxDepth > 0 && current.depth >= maxDepth {
			continue
		}
		for _, e := range out[current.id] {
			if visited[e.Dst] {
				continue
			}
			visited[e.Dst] = true
			score := current.score * e.Weight
			result.IDs = append(result.IDs, e.Dst)
			result.Scores = append(result.Scores, score)
			queue = append(queue, queueItem{e.Dst, current.depth + 1, score})
		}
	}
	return result
}

// Reachable returns the set of events reachable from entryID, entry included.
func Reachable(w world.World, entryID string) map[string]bool {
	res := Walk(w, entryID, 0)
	set := make(map[string]bool, len(res.IDs))
	for _, id := range res.IDs {
		set[id] = true
	}
	return set
}

// #endregion walk
