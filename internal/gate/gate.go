// Package gate decides whether a proposed world may replace the current one.
package gate

import (
	"fmt"

	"github.com/danielpatrickdp/war-games/go-engine/internal/state"
	"github.com/danielpatrickdp/war-games/go-engine/internal/world"
)

// #region gate
// Evaluate checks hard vetoes first: the proposed world must keep the same
// events and edges, and every committed state must satisfy its bounds.
// A proposal that changes nothing is a no_op.
func Evaluate(old, proposed world.World) Decision {
	var vetoes []VetoSignal

	if len(old.Nodes) != len(proposed.Nodes) {
		vetoes = append(vetoes, VetoSignal{
			Type:   VetoShape,
			Reason: fmt.Sprintf("event count changed from %d to %d", len(old.Nodes), len(proposed.Nodes)),
		})
	}
	if len(old.Edges) != len(proposed.Edges) {
		vetoes = append(vetoes, VetoSignal{
			Type:   VetoShape,
			Reason: fmt.Sprintf("edge count changed from %d to %d", len(old.Edges), len(proposed.Edges)),
		})
	}

	changed := 0
	for _, id := range proposed.IDs() {
		ev := proposed.Nodes[id]
		prev, ok := old.Nodes[id]
		if !ok {
			vetoes = append(vetoes, VetoSignal{Type: VetoShape, EventID: id, Reason: "event not present before"})
			continue
		}
		if err := ev.State.Check(); err != nil {
			t := VetoBounds
			if c, has := ev.State.Get(state.CasualtiesExpected); has && (c < 0 || c != float64(int64(c))) {
				t = VetoCasualty
			}
			vetoes = append(vetoes, VetoSignal{Type: t, EventID: id, Reason: err.Error()})
		}
		if !ev.State.Equal(prev.State) || ev.Title != prev.Title {
			changed++
		}
	}

	if len(vetoes) > 0 {
		return Decision{
			Action:      ActionReject,
			Reason:      fmt.Sprintf("hard veto: %s", vetoes[0].Reason),
			Vetoed:      true,
			VetoSignals: vetoes,
			Changed:     changed,
		}
	}
	if changed == 0 {
		return Decision{Action: ActionNoOp, Reason: "no state change", Changed: 0}
	}
	return Decision{
		Action:  ActionCommit,
		Reason:  fmt.Sprintf("passed gate: %d events changed", changed),
		Changed: changed,
	}
}

// #endregion gate
