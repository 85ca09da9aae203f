package extract

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// #region rule-types

// Mode controls how a rule counts keyword hits.
type Mode string

const (
	// PerKeyword applies the effects once for every keyword found.
	PerKeyword Mode = "per_keyword"
	// AnyKeyword applies the effects once if at least one keyword is found.
	AnyKeyword Mode = "any_keyword"
)

// Rule maps a keyword set to state increments keyed by dimension name.
type Rule struct {
	Name     string             `yaml:"name" json:"name"`
	Mode     Mode               `yaml:"mode" json:"mode"`
	Keywords []string           `yaml:"keywords" json:"keywords"`
	Effects  map[string]float64 `yaml:"effects" json:"effects"`
}

// Ruleset is a versioned keyword-to-effect table.
type Ruleset struct {
	Version     string  `yaml:"version" json:"version"`
	CasualtyCap float64 `yaml:"casualty_cap" json:"casualty_cap"`
	Rules       []Rule  `yaml:"rules" json:"rules"`
}

// #endregion rule-types

// #region default-rules

// DefaultVersion identifies the built-in ruleset.
const DefaultVersion = "headline-keywords/v1"

var escalationKeywords = []string{
	"assassinated", "assassin", "kill", "massacre", "offensive", "invasion",
	"attack", "u-boat", "gas", "mobilize", "declare war",
}

var deescalationKeywords = []string{
	"ceasefire", "armistice", "truce", "peace", "survives", "foiled",
	"fails", "withdraw", "retreat", "neutral", "talks", "negotiat",
}

var intelligenceKeywords = []string{"telegram", "intercept", "propaganda"}

var logisticsKeywords = []string{"blockade", "supply"}

var allianceKeywords = []string{"alliance", "joins"}

// DefaultRuleset returns the built-in headline heuristic.
func DefaultRuleset() Ruleset {
	return Ruleset{
		Version:     DefaultVersion,
		CasualtyCap: 50000,
		Rules: []Rule{
			{
				Name:     "escalation",
				Mode:     PerKeyword,
				Keywords: escalationKeywords,
				Effects: map[string]float64{
					"war_escalation":      0.25,
					"mobilization_level":  0.2,
					"casualties_expected": 10000,
				},
			},
			{
				Name:     "deescalation",
				Mode:     PerKeyword,
				Keywords: deescalationKeywords,
				Effects: map[string]float64{
					"war_escalation":      -0.35,
					"political_stability": 0.2,
					"casualties_expected": -8000,
				},
			},
			{
				Name:     "intelligence",
				Mode:     AnyKeyword,
				Keywords: intelligenceKeywords,
				Effects: map[string]float64{
					"intel_leak_risk": 0.3,
					"public_support":  0.15,
				},
			},
			{
				Name:     "logistics",
				Mode:     AnyKeyword,
				Keywords: logisticsKeywords,
				Effects: map[string]float64{
					"logistics_capacity": -0.2,
				},
			},
			{
				Name:     "alliance",
				Mode:     AnyKeyword,
				Keywords: allianceKeywords,
				Effects: map[string]float64{
					"alliances_cohesion": 0.2,
				},
			},
		},
	}
}

// #endregion default-rules

// #region load

// LoadRuleset reads a YAML ruleset file.
func LoadRuleset(path string) (Ruleset, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Ruleset{}, fmt.Errorf("read ruleset %s: %w", path, err)
	}
	var rs Ruleset
	if err := yaml.Unmarshal(data, &rs); err != nil {
		return Ruleset{}, fmt.Errorf("parse ruleset %s: %w", path, err)
	}
	return rs, nil
}

// #endregion load
