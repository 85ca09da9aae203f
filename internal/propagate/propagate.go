// Package propagate diffuses a state delta from one event through the
// causal graph in a single forward pass over time.
package propagate

import (
	"github.com/danielpatrickdp/war-games/go-engine/internal/decay"
	"github.com/danielpatrickdp/war-games/go-engine/internal/state"
	"github.com/danielpatrickdp/war-games/go-engine/internal/traversal"
	"github.com/danielpatrickdp/war-games/go-engine/internal/world"
)

// #region propagate

// Propagate runs Run with DefaultConfig and returns only the new world.
func Propagate(w world.World, sourceID string, delta state.Delta) world.World {
	return Run(w, sourceID, delta, DefaultConfig()).World
}

// Run is a pure function: w is deep-copied and never mutated.
//
// Events are visited once, in Order. An event holding a pending delta at its
// turn commits it (merge, clamp, casualty floor) and pushes
// scale(mechanism, pending) * weight * decay(years) to every admissible
// successor. A contribution aimed at an event that has already had its turn
// is dropped. An unknown sourceID leaves the copy untouched.
func Run(w world.World, sourceID string, delta state.Delta, cfg Config) Result {
	cfg = cfg.withDefaults()
	out := w.Clone()
	var m Metrics

	order := traversal.Order(out)
	pos := traversal.Positions(order)
	outgoing := traversal.Outgoing(traversal.AdmissibleEdges(out, order))

	pending := make(map[string]state.Delta)
	if _, ok := out.Nodes[sourceID]; ok {
		pending[sourceID] = delta
		m.SourceFound = true
	}

	for _, id := range order {
		local, ok := pending[id]
		if !ok {
			continue
		}
		delete(pending, id)

		ev := out.Nodes[id]
		before := ev.State
		ev.State = state.Commit(ev.State, local)
		out.Nodes[id] = ev
		m.Visited++
		if !ev.State.Equal(before) {
			m.Changed = append(m.Changed, id)
		}

		for _, e := range outgoing[id] {
			if pos[e.Dst] <= pos[id] {
				m.Dropped++
				continue
			}
			dst := out.Nodes[e.Dst]
			factor := e.Weight * decay.Factor(cfg.DecayLambda, yearsBetween(ev, dst))
			contribution := state.Scale(cfg.Table.Scale(e.Mechanism, local), factor)

			acc := pending[e.Dst]
			acc.Accumulate(contribution)
			pending[e.Dst] = acc
			m.EdgesFollowed++
		}
	}

	return Result{World: out, Metrics: m}
}

// #endregion propagate

// #region helpers
// yearsBetween is zero when either date does not parse.
func yearsBetween(src, dst world.Event) float64 {
	a, okA := src.Time()
	b, okB := dst.Time()
	if !okA || !okB {
		return 0
	}
	return decay.YearsBetween(a, b)
}

// #endregion helpers
