// Package mechanism translates a generic delta into the share of it that
// actually crosses an edge of a given mechanism.
package mechanism

import (
	"github.com/danielpatrickdp/war-games/go-engine/internal/state"
	"github.com/danielpatrickdp/war-games/go-engine/internal/world"
)

// DefaultLeakage is the multiplier for a dimension a mechanism does not list.
const DefaultLeakage = 0.2

// #region table
// Table maps a mechanism to its per-dimension transmission multipliers.
type Table map[world.Mechanism]map[state.Dimension]float64

// DefaultTable returns the static scaling table. Callers get a fresh copy.
func DefaultTable() Table {
	return Table{
		world.Informational: {
			state.PublicSupport:      1.0,
			state.WarEscalation:      0.4,
			state.PoliticalStability: 0.3,
		},
		world.Diplomatic: {
			state.AlliancesCohesion:  1.0,
			state.PoliticalStability: 0.6,
			state.WarEscalation:      0.2,
		},
		world.Military: {
			state.MobilizationLevel:  1.0,
			state.CasualtiesExpected: 1.0,
			state.WarEscalation:      0.7,
			state.LogisticsCapacity:  0.3,
		},
		world.Economic: {
			state.LogisticsCapacity:  1.0,
			state.PublicSupport:      0.3,
			state.PoliticalStability: 0.2,
		},
		world.Technological: {
			state.LogisticsCapacity: 0.8,
		},
	}
}

// #endregion table

// #region scale
// Multiplier returns the factor applied to d on an m edge. Unlisted
// dimensions, and every dimension of an unknown mechanism, leak at
// DefaultLeakage.
func (t Table) Multiplier(m world.Mechanism, d state.Dimension) float64 {
	if f, ok := t[m][d]; ok {
		return f
	}
	return DefaultLeakage
}

// Scale returns delta with each present dimension multiplied by its
// mechanism factor. Absent dimensions stay absent and the frontline tag
// does not cross edges.
func (t Table) Scale(m world.Mechanism, delta state.Delta) state.Delta {
	var out state.Delta
	for _, d := range delta.Present() {
		out.Set(d, delta.Value(d)*t.Multiplier(m, d))
	}
	return out
}

var defaultTable = DefaultTable()

// Scale applies the default table.
func Scale(m world.Mechanism, delta state.Delta) state.Delta {
	return defaultTable.Scale(m, delta)
}

// #endregion scale
