// Package intervene is the entry point for a single headline edit: it
// extracts a delta, propagates it, and tags the edited title.
package intervene

import (
	"math"
	"strings"

	"github.com/danielpatrickdp/war-games/go-engine/internal/extract"
	"github.com/danielpatrickdp/war-games/go-engine/internal/propagate"
	"github.com/danielpatrickdp/war-games/go-engine/internal/state"
	"github.com/danielpatrickdp/war-games/go-engine/internal/world"
)

// #region tags

// Tag names the coarse direction of the edit's effect on its own event.
type Tag string

const (
	TagNone Tag = "none"
	TagRise Tag = "rise"
	TagEase Tag = "ease"
)

const (
	SuffixRise = " (tensions rise)"
	SuffixEase = " (tensions ease)"
)

// DefaultThreshold is the war_escalation shift above which a title is tagged.
const DefaultThreshold = 0.2

// Suffix returns the display suffix for t, empty for TagNone.
func (t Tag) Suffix() string {
	switch t {
	case TagRise:
		return SuffixRise
	case TagEase:
		return SuffixEase
	}
	return ""
}

// #endregion tags

// #region options

// Options configures Run. Each zero field uses its default, so Options{}
// behaves like DefaultOptions.
type Options struct {
	Extractor   *extract.Extractor
	Propagation propagate.Config
	Threshold   float64
}

// DefaultOptions returns the built-in extractor, default propagation and a
// 0.2 threshold.
func DefaultOptions() Options {
	return Options{
		Extractor:   extract.Default(),
		Propagation: propagate.DefaultConfig(),
		Threshold:   DefaultThreshold,
	}
}

// #endregion options

// #region outcome

// Outcome is everything an intervention produced.
type Outcome struct {
	World      world.World
	Found      bool
	Title      string
	Tag        Tag
	Shift      float64 // war_escalation after minus before, absent counted as 0
	Extraction extract.Extraction
	Metrics    propagate.Metrics
}

// #endregion outcome

// #region intervene

// Intervene applies editedText to eventID with the default options.
func Intervene(w world.World, eventID, editedText string) world.World {
	return Run(w, eventID, editedText, DefaultOptions()).World
}

// Run extracts a delta from editedText, propagates it from eventID and sets
// the event's title. The title gets a rise or ease suffix when
// war_escalation at the event moved by more than the threshold, unless the
// text already ends with it. An unknown eventID returns an untouched copy.
func Run(w world.World, eventID, editedText string, opts Options) Outcome {
	if opts.Extractor == nil {
		opts.Extractor = extract.Default()
	}
	if opts.Threshold <= 0 {
		opts.Threshold = DefaultThreshold
	}

	src, ok := w.Nodes[eventID]
	if !ok {
		return Outcome{World: w.Clone(), Tag: TagNone}
	}
	prior := src.State.Value(state.WarEscalation)

	x := opts.Extractor.Explain(editedText)
	res := propagate.Run(w, eventID, x.Delta, opts.Propagation)

	ev := res.World.Nodes[eventID]
	shift := ev.State.Value(state.WarEscalation) - prior
	tag := classify(shift, opts.Threshold)
	ev.Title = Title(editedText, tag)
	res.World.Nodes[eventID] = ev

	return Outcome{
		World:      res.World,
		Found:      true,
		Title:      ev.Title,
		Tag:        tag,
		Shift:      shift,
		Extraction: x,
		Metrics:    res.Metrics,
	}
}

// Title appends the suffix for tag to text unless text already ends with it.
func Title(text string, tag Tag) string {
	suffix := tag.Suffix()
	if suffix == "" || strings.HasSuffix(text, suffix) {
		return text
	}
	return text + suffix
}

// #endregion intervene

// #region helpers
func classify(shift, threshold float64) Tag {
	if math.Abs(shift) <= threshold {
		return TagNone
	}
	if shift < 0 {
		return TagEase
	}
	return TagRise
}

// #endregion helpers
