package replay

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/danielpatrickdp/war-games/go-engine/internal/world"
)

// #region fixture-types

// Fixture is the top-level JSON structure for a replay fixture.
type Fixture struct {
	Description   string                `json:"description"`
	World         world.World           `json:"world"`
	Config        FixtureConfig         `json:"config"`
	Interventions []FixtureIntervention `json:"interventions"`
	Expected      []FixtureExpected     `json:"expected"`
}

// FixtureConfig overrides engine parameters; zero fields keep the defaults.
type FixtureConfig struct {
	DecayLambda  float64 `json:"decay_lambda,omitempty"`
	TagThreshold float64 `json:"tag_threshold,omitempty"`
}

// FixtureIntervention is one recorded headline edit.
type FixtureIntervention struct {
	EventID string `json:"event_id"`
	Text    string `json:"text"`
}

// FixtureExpected captures the expected outcome per intervention. Empty
// fields are not checked.
type FixtureExpected struct {
	EventID string `json:"event_id"`
	Action  string `json:"action,omitempty"`
	Tag     string `json:"tag,omitempty"`
	Title   string `json:"title,omitempty"`
}

// #endregion fixture-types

// #region fixture-loader

// LoadFixture reads and parses a JSON fixture file.
func LoadFixture(path string) (*Fixture, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read fixture %s: %w", path, err)
	}
	var f Fixture
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse fixture %s: %w", path, err)
	}
	if f.World.Nodes == nil {
		f.World.Nodes = map[string]world.Event{}
	}
	if err := world.Validate(f.World); err != nil {
		return nil, fmt.Errorf("fixture %s: %w", path, err)
	}
	return &f, nil
}

// ToInterventions converts the recorded edits to domain interventions.
func (f *Fixture) ToInterventions() []Intervention {
	out := make([]Intervention, len(f.Interventions))
	for i, fi := range f.Interventions {
		out[i] = Intervention{EventID: fi.EventID, Text: fi.Text}
	}
	return out
}

// ToReplayConfig converts a FixtureConfig to a domain ReplayConfig.
func (fc *FixtureConfig) ToReplayConfig() ReplayConfig {
	cfg := DefaultReplayConfig()
	if fc.DecayLambda > 0 {
		cfg.Engine.Propagation.DecayLambda = fc.DecayLambda
	}
	if fc.TagThreshold > 0 {
		cfg.Engine.Threshold = fc.TagThreshold
	}
	return cfg
}

// #endregion fixture-loader

// #region compare

// Mismatch is one expectation a replay did not meet.
type Mismatch struct {
	Index   int    `json:"index"`
	EventID string `json:"event_id"`
	Field   string `json:"field"`
	Want    string `json:"want"`
	Got     string `json:"got"`
}

// Compare checks results against expected outcomes position by position.
func Compare(results []ReplayResult, expected []FixtureExpected) []Mismatch {
	var out []Mismatch
	if len(results) != len(expected) {
		out = append(out, Mismatch{
			Index: -1,
			Field: "count",
			Want:  fmt.Sprint(len(expected)),
			Got:   fmt.Sprint(len(results)),
		})
	}
	for i, exp := range expected {
		if i >= len(results) {
			break
		}
		r := results[i]
		check := func(field, want, got string) {
			if want != "" && want != got {
				out = append(out, Mismatch{Index: i, EventID: exp.EventID, Field: field, Want: want, Got: got})
			}
		}
		check("event_id", exp.EventID, r.EventID)
		check("action", exp.Action, r.Action)
		check("tag", exp.Tag, string(r.Tag))
		check("title", exp.Title, r.Title)
	}
	return out
}

// #endregion compare
