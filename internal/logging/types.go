package logging

import "time"

// #region triggers
const (
	TriggerIntervene = "intervene"
	TriggerPropagate = "propagate"
	TriggerRewrite   = "rewrite"
	TriggerRollback  = "rollback"
	TriggerImport    = "import"
)

// #endregion triggers

// #region provenance-entry
// ProvenanceEntry is a single row in the provenance_log table.
type ProvenanceEntry struct {
	VersionID   string // empty when the decision did not produce a version
	EventID     string
	TriggerType string
	InputText   string
	DeltaJSON   string
	RecordJSON  string
	Decision    string // "commit" | "reject" | "no_op"
	Reason      string
	CreatedAt   time.Time
}

// #endregion provenance-entry

// #region intervention-record
// InterventionRecord captures what an intervention did, serialized as JSON
// into provenance_log.record_json so a run can be audited without the
// world snapshots.
type InterventionRecord struct {
	RequestID   string   `json:"request_id"`
	EventID     string   `json:"event_id"`
	RuleVersion string   `json:"rule_version,omitempty"`
	Matches     []string `json:"matches,omitempty"` // rule:keyword

	Tag   string  `json:"tag,omitempty"`
	Shift float64 `json:"shift"`

	// Propagation metrics
	Visited       int      `json:"visited"`
	EdgesFollowed int      `json:"edges_followed"`
	Dropped       int      `json:"dropped"`
	Changed       []string `json:"changed,omitempty"`

	// Gate output
	GateAction string `json:"gate_action"`
	GateVetoed bool   `json:"gate_vetoed"`
	GateReason string `json:"gate_reason"`

	Rewrites int `json:"rewrites,omitempty"`
}

// #endregion intervention-record
