// Package eval scores a world against the goals it carries.
package eval

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/danielpatrickdp/war-games/go-engine/internal/state"
	"github.com/danielpatrickdp/war-games/go-engine/internal/world"
)

// #region eval-harness
// EvalHarness scores worlds against their goals.
type EvalHarness struct {
	config EvalConfig
}

// NewEvalHarness creates an eval harness with the given configuration.
func NewEvalHarness(config EvalConfig) *EvalHarness {
	return &EvalHarness{config: config}
}

// Score computes the weighted satisfaction of g in [0,1]. Metrics that
// cannot be evaluated are reported as skipped and left out of the average.
func (h *EvalHarness) Score(w world.World, g world.Goal) GoalScore {
	out := GoalScore{GoalID: g.ID, Name: g.Name}
	var sum, weights float64
	for _, m := range g.Metrics {
		ms := scoreMetric(w, m)
		out.Metrics = append(out.Metrics, ms)
		if ms.Skipped {
			continue
		}
		sum += ms.Score * ms.Weight
		weights += ms.Weight
	}
	if weights > 0 {
		out.Score = sum / weights
	}
	out.Passed = weights > 0 && out.Score >= h.config.PassThreshold
	return out
}

// ScoreAll scores every goal in declaration order.
func (h *EvalHarness) ScoreAll(w world.World) []GoalScore {
	out := make([]GoalScore, 0, len(w.Goals))
	for _, g := range w.Goals {
		out = append(out, h.Score(w, g))
	}
	return out
}

// Score uses the default configuration.
func Score(w world.World, g world.Goal) GoalScore {
	return NewEvalHarness(DefaultEvalConfig()).Score(w, g)
}

// ScoreAll uses the default configuration.
func ScoreAll(w world.World) []GoalScore {
	return NewEvalHarness(DefaultEvalConfig()).ScoreAll(w)
}

// #endregion eval-harness

// #region metrics
func scoreMetric(w world.World, m world.GoalMetric) MetricScore {
	ms := MetricScore{Key: m.Key, Direction: direction(m.Direction), Weight: m.Weight}
	if ms.Weight <= 0 {
		ms.Weight = 1
	}

	if m.Key == world.EndByDateKey {
		return scoreEndByDate(w, m, ms)
	}

	dim, ok := state.ParseDimension(m.Key)
	if !ok {
		return skip(ms, fmt.Sprintf("unknown metric key %q", m.Key))
	}
	var total float64
	for _, ev := range w.Nodes {
		if x, has := ev.State.Get(dim); has {
			total += x
			ms.Samples++
		}
	}
	if ms.Samples == 0 {
		return skip(ms, "no events carry "+m.Key)
	}
	ms.Value = total / float64(ms.Samples)

	var target float64
	hasTarget := len(m.Target) > 0 && json.Unmarshal(m.Target, &target) == nil
	if ms.Direction == DirectionClose && !hasTarget {
		return skip(ms, "close metric without numeric target")
	}

	v := ms.Value
	if !dim.Bounded() {
		// Casualties are unbounded; compare them as a fraction of the target.
		if !hasTarget || target <= 0 {
			return skip(ms, "casualty metric needs a positive target")
		}
		v = ms.Value / target
		target = 1
	}

	switch ms.Direction {
	case DirectionMax:
		ms.Score = clamp01(v)
	case DirectionMin:
		ms.Score = 1 - clamp01(v)
	default:
		ms.Score = clamp01(1 - math.Abs(v-target))
	}
	return ms
}

func scoreEndByDate(w world.World, m world.GoalMetric, ms MetricScore) MetricScore {
	var raw string
	if err := json.Unmarshal(m.Target, &raw); err != nil {
		return skip(ms, "end_by_date target is not a date string")
	}
	target, ok := world.ParseDate(raw)
	if !ok {
		return skip(ms, fmt.Sprintf("unparsable end_by_date %q", raw))
	}
	var latest time.Time
	for _, ev := range w.Nodes {
		if t, ok := ev.Time(); ok {
			ms.Samples++
			if t.After(latest) {
				latest = t
			}
		}
	}
	if ms.Samples == 0 {
		return skip(ms, "no dated events")
	}
	if !latest.After(target) {
		ms.Value, ms.Score = 1, 1
	}
	return ms
}

// #endregion metrics

// #region helpers
func direction(d string) string {
	switch strings.ToLower(d) {
	case DirectionMax:
		return DirectionMax
	case DirectionMin:
		return DirectionMin
	}
	return DirectionClose
}

func skip(ms MetricScore, reason string) MetricScore {
	ms.Skipped = true
	ms.Reason = reason
	return ms
}

func clamp01(x float64) float64 {
	return math.Max(0, math.Min(1, x))
}

// #endregion helpers
