package propagate

import (
	"github.com/danielpatrickdp/war-games/go-engine/internal/decay"
	"github.com/danielpatrickdp/war-games/go-engine/internal/mechanism"
	"github.com/danielpatrickdp/war-games/go-engine/internal/world"
)

// #region config
// Config holds the decay rate and scaling table for a propagation pass.
// Each zero field falls back to its default on its own: a zero DecayLambda
// means decay.Lambda and a nil Table means mechanism.DefaultTable. Set
// NoDecay to propagate without attenuation.
type Config struct {
	DecayLambda float64
	Table       mechanism.Table
	NoDecay     bool
}

// DefaultConfig returns lambda 0.25 and the default mechanism table.
func DefaultConfig() Config {
	return Config{
		DecayLambda: decay.Lambda,
		Table:       mechanism.DefaultTable(),
	}
}

// withDefaults fills the unset fields of c.
func (c Config) withDefaults() Config {
	if c.Table == nil {
		c.Table = mechanism.DefaultTable()
	}
	switch {
	case c.NoDecay:
		c.DecayLambda = 0
	case c.DecayLambda == 0:
		c.DecayLambda = decay.Lambda
	}
	return c
}

// #endregion config

// #region metrics
// Metrics captures telemetry from one propagation pass.
type Metrics struct {
	SourceFound   bool     `json:"source_found"`
	Visited       int      `json:"visited"`        // events that committed a pending delta
	EdgesFollowed int      `json:"edges_followed"` // contributions pushed downstream
	Dropped       int      `json:"dropped"`        // contributions aimed at already committed events
	Changed       []string `json:"changed"`        // events whose state differs afterwards, in time order
}

// #endregion metrics

// #region result
// Result bundles the new world and the pass metrics.
type Result struct {
	World   world.World
	Metrics Metrics
}

// #endregion result
