package eval

// #region eval-config
// EvalConfig holds thresholds for goal scoring.
type EvalConfig struct {
	PassThreshold float64 // a goal passes when its score reaches this
}

// DefaultEvalConfig returns the default scoring thresholds.
func DefaultEvalConfig() EvalConfig {
	return EvalConfig{PassThreshold: 0.5}
}

// #endregion eval-config

// #region directions
const (
	DirectionMax   = "max"
	DirectionMin   = "min"
	DirectionClose = "close"
)

// #endregion directions

// #region metric-score
// MetricScore captures a single goal metric result.
type MetricScore struct {
	Key       string  `json:"key"`
	Direction string  `json:"direction"`
	Value     float64 `json:"value"` // mean over events, or 1/0 for end_by_date
	Samples   int     `json:"samples"`
	Score     float64 `json:"score"`
	Weight    float64 `json:"weight"`
	Skipped   bool    `json:"skipped,omitempty"`
	Reason    string  `json:"reason,omitempty"`
}

// #endregion metric-score

// #region goal-score
// GoalScore is the weighted satisfaction of one goal.
type GoalScore struct {
	GoalID  string        `json:"goal_id"`
	Name    string        `json:"name"`
	Score   float64       `json:"score"`
	Passed  bool          `json:"passed"`
	Metrics []MetricScore `json:"metrics"`
}

// #endregion goal-score
