package eval

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/danielpatrickdp/war-games/go-engine/internal/state"
	"github.com/danielpatrickdp/war-games/go-engine/internal/world"
)

func makeWorld() world.World {
	return world.World{
		Nodes: map[string]world.Event{
			"a": {ID: "a", Date: "1914-06-28", State: state.Vector{}.
				With(state.WarEscalation, 0.2).
				With(state.CasualtiesExpected, 30000)},
			"b": {ID: "b", Date: "1917-04-06", State: state.Vector{}.
				With(state.WarEscalation, 0.6).
				With(state.CasualtiesExpected, 10000)},
			"c": {ID: "c", Date: "1918-11-11", State: state.Vector{}.
				With(state.PublicSupport, 0.9)},
		},
	}
}

func metric(key string, target any, weight float64, dir string) world.GoalMetric {
	raw, _ := json.Marshal(target)
	return world.GoalMetric{Key: key, Target: raw, Weight: weight, Direction: dir}
}

func approx(a, b float64) bool { return math.Abs(a-b) < 1e-9 }

func TestScoreDirections(t *testing.T) {
	tests := []struct {
		name string
		m    world.GoalMetric
		want float64
	}{
		{"max-mean", metric("war_escalation", 1, 1, "max"), 0.4},
		{"min-mean", metric("war_escalation", 0, 1, "min"), 0.6},
		{"close-target", metric("war_escalation", 0.3, 1, "close"), 0.9},
		{"default-is-close", metric("public_support", 0.8, 1, ""), 0.9},
		{"casualties-normalized", metric("casualties_expected", 40000, 1, "close"), 0.5},
		{"casualties-min", metric("casualties_expected", 40000, 1, "min"), 0.5},
		{"end-by-date-met", metric("end_by_date", "1918-12-31", 1, ""), 1},
		{"end-by-date-missed", metric("end_by_date", "1918-01-01", 1, ""), 0},
	}
	w := makeWorld()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gs := Score(w, world.Goal{ID: "g", Metrics: []world.GoalMetric{tt.m}})
			if len(gs.Metrics) != 1 || gs.Metrics[0].Skipped {
				t.Fatalf("metric unexpectedly skipped: %+v", gs.Metrics)
			}
			if !approx(gs.Score, tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, gs.Score)
			}
		})
	}
}

func TestScoreWeightedAverageSkipsMissingData(t *testing.T) {
	g := world.Goal{ID: "g", Name: "contain", Metrics: []world.GoalMetric{
		metric("war_escalation", 0, 3, "min"),
		metric("public_support", 1, 1, "max"),
		metric("intel_leak_risk", 0, 5, "min"),
		metric("not_a_dimension", 0, 5, "min"),
		metric("casualties_expected", 0, 5, "close"),
	}}
	gs := Score(makeWorld(), g)

	want := (0.6*3 + 0.9*1) / 4
	if !approx(gs.Score, want) {
		t.Fatalf("expected %v, got %v", want, gs.Score)
	}
	skipped := 0
	for _, m := range gs.Metrics {
		if m.Skipped {
			skipped++
		}
	}
	if skipped != 3 {
		t.Fatalf("expected 3 skipped metrics, got %d", skipped)
	}
	if !gs.Passed {
		t.Fatal("expected goal to pass the default threshold")
	}
}

func TestScoreAllKeepsGoalOrder(t *testing.T) {
	w := makeWorld()
	w.Goals = []world.Goal{
		{ID: "second", Metrics: []world.GoalMetric{metric("war_escalation", 0, 1, "min")}},
		{ID: "first", Metrics: []world.GoalMetric{metric("war_escalation", 1, 1, "max")}},
	}
	scores := ScoreAll(w)
	if len(scores) != 2 || scores[0].GoalID != "second" || scores[1].GoalID != "first" {
		t.Fatalf("unexpected order: %+v", scores)
	}
}

func TestScoreGoalWithoutDataFails(t *testing.T) {
	h := NewEvalHarness(EvalConfig{PassThreshold: 0})
	gs := h.Score(world.World{}, world.Goal{ID: "empty", Metrics: []world.GoalMetric{
		metric("war_escalation", 0, 1, "min"),
	}})
	if gs.Passed || gs.Score != 0 {
		t.Fatalf("expected unscored goal to fail, got %+v", gs)
	}
}
