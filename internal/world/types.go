package world

import (
	"encoding/json"
	"time"

	"github.com/danielpatrickdp/war-games/go-engine/internal/state"
)

// #region mechanism
// Mechanism is the channel through which an edge transmits influence.
type Mechanism string

const (
	Military      Mechanism = "military"
	Diplomatic    Mechanism = "diplomatic"
	Economic      Mechanism = "economic"
	Informational Mechanism = "informational"
	Technological Mechanism = "technological"
)

// Mechanisms lists every known mechanism.
func Mechanisms() []Mechanism {
	return []Mechanism{Military, Diplomatic, Economic, Informational, Technological}
}

// Valid reports whether m is one of the five known mechanisms.
func (m Mechanism) Valid() bool {
	switch m {
	case Military, Diplomatic, Economic, Informational, Technological:
		return true
	}
	return false
}

// #endregion mechanism

// #region event
// Event is one historical occurrence in the timeline.
type Event struct {
	ID       string       `json:"id"`
	Title    string       `json:"title"`
	Date     string       `json:"date"` // ISO calendar date
	Location string       `json:"location,omitempty"`
	Actors   []string     `json:"actors"`
	Summary  string       `json:"summary,omitempty"`
	State    state.Vector `json:"state"`
	Sources  []string     `json:"sources,omitempty"`
}

// Time parses Date. The second result is false when Date is not a
// recognised ISO date.
func (e Event) Time() (time.Time, bool) {
	return ParseDate(e.Date)
}

// #endregion event

// #region edge
// Edge is a directed causal link between two events.
type Edge struct {
	Src       string    `json:"src"`
	Dst       string    `json:"dst"`
	Weight    float64   `json:"weight"` // 0..1
	Mechanism Mechanism `json:"mechanism"`
}

// #endregion edge

// #region goal
// Goal is scenario-level intent carried alongside the graph.
type Goal struct {
	ID          string       `json:"id"`
	Name        string       `json:"name"`
	Description string       `json:"description"`
	Metrics     []GoalMetric `json:"metrics"`
}

// GoalMetric targets either a state dimension or, with Key "end_by_date",
// a calendar date. Target keeps its raw JSON form so that both shapes
// survive a round trip unchanged.
type GoalMetric struct {
	Key       string          `json:"key"`
	Target    json.RawMessage `json:"target"`
	Weight    float64         `json:"weight"`
	Direction string          `json:"direction,omitempty"` // "min" | "max" | "close"
}

// EndByDateKey is the GoalMetric key for a date target.
const EndByDateKey = "end_by_date"

// #endregion goal

// #region world
// World is the full graph at one point in the intervention history.
type World struct {
	Nodes map[string]Event `json:"nodes"`
	Edges []Edge           `json:"edges"`
	Goals []Goal           `json:"goals"`
}

// #endregion world
