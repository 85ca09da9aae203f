package gate

// #region veto-type
// VetoType enumerates hard veto categories.
type VetoType string

const (
	VetoShape     VetoType = "shape_changed"
	VetoBounds    VetoType = "bounds_violation"
	VetoCasualty  VetoType = "casualty_violation"
	VetoUnchanged VetoType = "unchanged"
)

// #endregion veto-type

// #region veto-signal
// VetoSignal represents a detected hard veto condition.
type VetoSignal struct {
	Type    VetoType `json:"type"`
	EventID string   `json:"event_id,omitempty"`
	Reason  string   `json:"reason"`
}

// #endregion veto-signal

// #region actions
const (
	ActionCommit = "commit"
	ActionReject = "reject"
	ActionNoOp   = "no_op"
)

// #endregion actions

// #region gate-decision
// Decision is the output of the gate evaluation.
type Decision struct {
	Action      string       `json:"action"` // "commit" | "reject" | "no_op"
	Reason      string       `json:"reason"`
	Vetoed      bool         `json:"vetoed"`
	VetoSignals []VetoSignal `json:"veto_signals,omitempty"`
	Changed     int          `json:"changed"` // events whose state or title differ
}

// #endregion gate-decision
