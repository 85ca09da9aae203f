package service

import (
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/danielpatrickdp/war-games/go-engine/internal/eval"
	"github.com/danielpatrickdp/war-games/go-engine/internal/gate"
	"github.com/danielpatrickdp/war-games/go-engine/internal/intervene"
	"github.com/danielpatrickdp/war-games/go-engine/internal/metrics"
	"github.com/danielpatrickdp/war-games/go-engine/internal/propagate"
	"github.com/danielpatrickdp/war-games/go-engine/internal/rewrite"
	"github.com/danielpatrickdp/war-games/go-engine/internal/world"
)

var (
	// ErrUnknownEvent is returned when the target event is not in the world.
	ErrUnknownEvent = errors.New("unknown event")
	// ErrUnsupported is returned for history operations on a store without history.
	ErrUnsupported = errors.New("store does not keep versions")
)

// #region options
// Options wires the service's collaborators. Zero values fall back to
// defaults; a nil Rewriter disables cascade rewrites.
type Options struct {
	Engine          intervene.Options
	Eval            eval.EvalConfig
	Rewriter        rewrite.Rewriter
	RewriterBackend string
	RewriteTimeout  time.Duration
	Logger          *zap.Logger
	Metrics         *metrics.Metrics
}

// #endregion options

// #region result
// Result is what one intervention or propagation produced.
type Result struct {
	World     world.World       `json:"world"`
	VersionID string            `json:"version_id,omitempty"`
	Decision  gate.Decision     `json:"decision"`
	Tag       intervene.Tag     `json:"tag,omitempty"`
	Shift     float64           `json:"shift"`
	Metrics   propagate.Metrics `json:"metrics"`

	Rewrites         []rewrite.Update `json:"rewrites,omitempty"`
	RewriteVersionID string           `json:"rewrite_version_id,omitempty"`
	RewriteError     string           `json:"rewrite_error,omitempty"`
}

// #endregion result
