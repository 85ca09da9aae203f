package gate

import (
	"testing"

	"github.com/danielpatrickdp/war-games/go-engine/internal/state"
	"github.com/danielpatrickdp/war-games/go-engine/internal/world"
)

func baseWorld() world.World {
	return world.World{
		Nodes: map[string]world.Event{
			"a": {ID: "a", Title: "A", Date: "1914-01-01", State: state.Vector{}.With(state.WarEscalation, 0.1)},
			"b": {ID: "b", Title: "B", Date: "1914-02-01"},
		},
		Edges: []world.Edge{{Src: "a", Dst: "b", Weight: 1, Mechanism: world.Military}},
	}
}

func TestEvaluateCommit(t *testing.T) {
	old := baseWorld()
	proposed := old.Clone()
	ev := proposed.Nodes["a"]
	ev.State.Set(state.WarEscalation, 0.6)
	proposed.Nodes["a"] = ev

	d := Evaluate(old, proposed)
	if d.Action != ActionCommit || d.Changed != 1 {
		t.Fatalf("expected commit with 1 change, got %+v", d)
	}
}

func TestEvaluateNoOp(t *testing.T) {
	old := baseWorld()
	if d := Evaluate(old, old.Clone()); d.Action != ActionNoOp {
		t.Fatalf("expected no_op, got %+v", d)
	}
}

func TestEvaluateTitleOnlyChangeCommits(t *testing.T) {
	old := baseWorld()
	proposed := old.Clone()
	ev := proposed.Nodes["b"]
	ev.Title = "B rewritten"
	proposed.Nodes["b"] = ev

	if d := Evaluate(old, proposed); d.Action != ActionCommit {
		t.Fatalf("expected commit, got %+v", d)
	}
}

func TestEvaluateVetoes(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(w *world.World)
		want   VetoType
	}{
		{"bounded-out-of-range", func(w *world.World) {
			ev := w.Nodes["a"]
			ev.State.Set(state.PublicSupport, 1.2)
			w.Nodes["a"] = ev
		}, VetoBounds},
		{"negative-casualties", func(w *world.World) {
			ev := w.Nodes["b"]
			ev.State.Set(state.CasualtiesExpected, -4)
			w.Nodes["b"] = ev
		}, VetoCasualty},
		{"event-added", func(w *world.World) {
			w.Nodes["c"] = world.Event{ID: "c", Date: "1915-01-01"}
		}, VetoShape},
		{"edge-removed", func(w *world.World) { w.Edges = nil }, VetoShape},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			old := baseWorld()
			proposed := old.Clone()
			tt.mutate(&proposed)

			d := Evaluate(old, proposed)
			if d.Action != ActionReject || !d.Vetoed {
				t.Fatalf("expected reject, got %+v", d)
			}
			if d.VetoSignals[0].Type != tt.want {
				t.Fatalf("expected veto %s, got %s", tt.want, d.VetoSignals[0].Type)
			}
		})
	}
}
