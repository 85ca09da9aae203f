package world

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"slices"
	"time"
)

// ErrInvalid is wrapped by every Validate failure.
var ErrInvalid = errors.New("invalid world")

// #region dates
var dateLayouts = []string{"2006-01-02", time.RFC3339, "2006-01-02T15:04:05", "2006-01", "2006"}

// ParseDate accepts a calendar date, an RFC3339 timestamp, or a bare
// year-month or year.
func ParseDate(s string) (time.Time, bool) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}

// #endregion dates

// #region clone
// Clone returns a deep copy; nothing in the result aliases w.
func (w World) Clone() World {
	out := World{
		Nodes: make(map[string]Event, len(w.Nodes)),
		Edges: slices.Clone(w.Edges),
		Goals: make([]Goal, len(w.Goals)),
	}
	for id, ev := range w.Nodes {
		ev.Actors = slices.Clone(ev.Actors)
		ev.Sources = slices.Clone(ev.Sources)
		out.Nodes[id] = ev // state.Vector is a value type
	}
	for i, g := range w.Goals {
		g.Metrics = slices.Clone(g.Metrics)
		for j := range g.Metrics {
			g.Metrics[j].Target = slices.Clone(g.Metrics[j].Target)
		}
		out.Goals[i] = g
	}
	if w.Goals == nil {
		out.Goals = nil
	}
	return out
}

// #endregion clone

// #region lookups
// Event returns the event with id and whether it exists.
func (w World) Event(id string) (Event, bool) {
	ev, ok := w.Nodes[id]
	return ev, ok
}

// HasEdgeEndpoints reports whether both ends of e exist in w.
func (w World) HasEdgeEndpoints(e Edge) bool {
	_, src := w.Nodes[e.Src]
	_, dst := w.Nodes[e.Dst]
	return src && dst
}

// IDs returns the event ids sorted lexically.
func (w World) IDs() []string {
	ids := make([]string, 0, len(w.Nodes))
	for id := range w.Nodes {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// #endregion lookups

// #region validate
// Validate rejects malformed input before it reaches the engine. Dangling
// edges are tolerated; the traversal drops them.
func Validate(w World) error {
	if w.Nodes == nil {
		return fmt.Errorf("%w: missing nodes", ErrInvalid)
	}
	for _, key := range w.IDs() {
		ev := w.Nodes[key]
		if ev.ID == "" {
			return fmt.Errorf("%w: node %q has empty id", ErrInvalid, key)
		}
		if ev.ID != key {
			return fmt.Errorf("%w: node key %q does not match id %q", ErrInvalid, key, ev.ID)
		}
		if _, ok := ev.Time(); !ok {
			return fmt.Errorf("%w: node %q has unparsable date %q", ErrInvalid, key, ev.Date)
		}
		if err := ev.State.Check(); err != nil {
			return fmt.Errorf("%w: node %q state: %v", ErrInvalid, key, err)
		}
	}
	for i, e := range w.Edges {
		if !e.Mechanism.Valid() {
			return fmt.Errorf("%w: edge %d (%s->%s) has unknown mechanism %q", ErrInvalid, i, e.Src, e.Dst, e.Mechanism)
		}
		if math.IsNaN(e.Weight) || e.Weight < 0 || e.Weight > 1 {
			return fmt.Errorf("%w: edge %d (%s->%s) weight %g outside [0,1]", ErrInvalid, i, e.Src, e.Dst, e.Weight)
		}
	}
	return nil
}

// #endregion validate

// #region codec
// Decode reads a world in its JSON form.
func Decode(r io.Reader) (World, error) {
	var w World
	if err := json.NewDecoder(r).Decode(&w); err != nil {
		return World{}, fmt.Errorf("decode world: %w", err)
	}
	if w.Nodes == nil {
		w.Nodes = map[string]Event{}
	}
	return w, nil
}

// Encode writes w as indented JSON.
func Encode(out io.Writer, w World) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	if err := enc.Encode(w); err != nil {
		return fmt.Errorf("encode world: %w", err)
	}
	return nil
}

// #endregion codec
