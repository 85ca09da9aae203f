package replay

import (
	"github.com/danielpatrickdp/war-games/go-engine/internal/gate"
	"github.com/danielpatrickdp/war-games/go-engine/internal/intervene"
	"github.com/danielpatrickdp/war-games/go-engine/internal/propagate"
	"github.com/danielpatrickdp/war-games/go-engine/internal/world"
)

// #region types
// Intervention is a single recorded headline edit.
type Intervention struct {
	EventID string
	Text    string
}

// ReplayConfig holds the engine options for a replay run.
type ReplayConfig struct {
	Engine intervene.Options
}

// DefaultReplayConfig returns the default engine options.
func DefaultReplayConfig() ReplayConfig {
	return ReplayConfig{Engine: intervene.DefaultOptions()}
}

const (
	ActionCommit       = gate.ActionCommit
	ActionReject       = gate.ActionReject
	ActionNoOp         = gate.ActionNoOp
	ActionUnknownEvent = "unknown_event"
)

// ReplayResult captures the outcome of replaying one intervention.
type ReplayResult struct {
	EventID string
	Action  string // "commit" | "reject" | "no_op" | "unknown_event"
	Reason  string

	Tag   intervene.Tag
	Shift float64
	Title string

	Metrics      propagate.Metrics
	GateDecision *gate.Decision // nil for unknown events
}

// ReplaySummary provides aggregate stats from a replay run.
type ReplaySummary struct {
	Total      int
	Commits    int
	Rejects    int
	NoOps      int
	Unknown    int
	Tags       map[intervene.Tag]int
	Mismatches []Mismatch
	FinalWorld world.World
}

// #endregion types

// #region replay
// Replay applies each intervention in order, entirely in memory:
// intervene → gate → commit or keep the previous world. It returns the
// per-intervention results and the final world.
func Replay(start world.World, interventions []Intervention, config ReplayConfig) ([]ReplayResult, world.World) {
	current := start.Clone()
	results := make([]ReplayResult, 0, len(interventions))

	for _, in := range interventions {
		out := intervene.Run(current, in.EventID, in.Text, config.Engine)
		if !out.Found {
			results = append(results, ReplayResult{
				EventID: in.EventID,
				Action:  ActionUnknownEvent,
				Reason:  "event not in world",
				Tag:     intervene.TagNone,
			})
			continue
		}

		decision := gate.Evaluate(current, out.World)
		if decision.Action == gate.ActionCommit {
			current = out.World
		}
		results = append(results, ReplayResult{
			EventID:      in.EventID,
			Action:       decision.Action,
			Reason:       decision.Reason,
			Tag:          out.Tag,
			Shift:        out.Shift,
			Title:        out.Title,
			Metrics:      out.Metrics,
			GateDecision: &decision,
		})
	}
	return results, current
}

// Summarize computes aggregate stats from replay results.
func Summarize(results []ReplayResult, expected []FixtureExpected, final world.World) ReplaySummary {
	s := ReplaySummary{
		Total:      len(results),
		Tags:       map[intervene.Tag]int{},
		FinalWorld: final,
	}
	for _, r := range results {
		switch r.Action {
		case ActionCommit:
			s.Commits++
		case ActionReject:
			s.Rejects++
		case ActionNoOp:
			s.NoOps++
		case ActionUnknownEvent:
			s.Unknown++
		}
		s.Tags[r.Tag]++
	}
	if expected != nil {
		s.Mismatches = Compare(results, expected)
	}
	return s
}

// #endregion replay
