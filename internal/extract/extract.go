// Package extract turns an edited headline into a raw state delta using a
// deterministic keyword heuristic. No model call is involved.
package extract

import (
	"fmt"
	"math"
	"strings"

	"github.com/danielpatrickdp/war-games/go-engine/internal/state"
)

// #region types

// Match records one rule firing on one keyword.
type Match struct {
	Rule    string `json:"rule"`
	Keyword string `json:"keyword"`
}

// Extraction is the delta together with the hits that produced it.
type Extraction struct {
	Delta   state.Delta `json:"delta"`
	Matches []Match     `json:"matches"`
	Version string      `json:"version"`
}

type compiledRule struct {
	name     string
	mode     Mode
	keywords []string
	effect   state.Delta
}

// Extractor applies a compiled Ruleset.
type Extractor struct {
	version     string
	casualtyCap float64
	rules       []compiledRule
}

// #endregion types

// #region constructor

// New compiles rs. Keywords are lower-cased; effect keys must name known
// dimensions.
func New(rs Ruleset) (*Extractor, error) {
	if rs.CasualtyCap < 0 {
		return nil, fmt.Errorf("ruleset %s: negative casualty cap", rs.Version)
	}
	e := &Extractor{version: rs.Version, casualtyCap: rs.CasualtyCap}
	for _, r := range rs.Rules {
		mode := r.Mode
		if mode == "" {
			mode = PerKeyword
		}
		if mode != PerKeyword && mode != AnyKeyword {
			return nil, fmt.Errorf("rule %q: unknown mode %q", r.Name, r.Mode)
		}
		cr := compiledRule{name: r.Name, mode: mode}
		for _, k := range r.Keywords {
			k = strings.ToLower(strings.TrimSpace(k))
			if k != "" {
				cr.keywords = append(cr.keywords, k)
			}
		}
		for key, amt := range r.Effects {
			d, ok := state.ParseDimension(key)
			if !ok {
				return nil, fmt.Errorf("rule %q: unknown dimension %q", r.Name, key)
			}
			cr.effect.Set(d, amt)
		}
		e.rules = append(e.rules, cr)
	}
	return e, nil
}

var defaultExtractor = mustNew(DefaultRuleset())

func mustNew(rs Ruleset) *Extractor {
	e, err := New(rs)
	if err != nil {
		panic(err)
	}
	return e
}

// Default returns the extractor for the built-in ruleset.
func Default() *Extractor {
	return defaultExtractor
}

// Version identifies the ruleset this extractor was built from.
func (e *Extractor) Version() string {
	return e.version
}

// #endregion constructor

// #region extract

// Extract returns the delta for an edited headline.
func (e *Extractor) Extract(text string) state.Delta {
	return e.Explain(text).Delta
}

// Explain scans text case-insensitively and accumulates every rule's
// effects. Casualties, when touched at all, are capped to
// [-CasualtyCap, +CasualtyCap]; a zero cap disables the bound.
func (e *Extractor) Explain(text string) Extraction {
	lower := strings.ToLower(text)
	out := Extraction{Version: e.version}

	for _, r := range e.rules {
		hits := 0
		for _, k := range r.keywords {
			if !strings.Contains(lower, k) {
				continue
			}
			out.Matches = append(out.Matches, Match{Rule: r.name, Keyword: k})
			hits++
			if r.mode == AnyKeyword {
				break
			}
		}
		for i := 0; i < hits; i++ {
			out.Delta.Accumulate(r.effect)
		}
	}

	if c, ok := out.Delta.Get(state.CasualtiesExpected); ok && e.casualtyCap > 0 {
		out.Delta.Set(state.CasualtiesExpected, math.Max(-e.casualtyCap, math.Min(e.casualtyCap, c)))
	}
	return out
}

// Extract runs the default extractor.
func Extract(text string) state.Delta {
	return defaultExtractor.Extract(text)
}

// #endregion extract
