package rewrite

import (
	"github.com/danielpatrickdp/war-games/go-engine/internal/traversal"
	"github.com/danielpatrickdp/war-games/go-engine/internal/world"
)

// #region timeline
// Timeline lists every event in time order with its forward influences.
func Timeline(w world.World) []TimelineEntry {
	return timeline(w, nil)
}

// Subtree lists the changed event and everything reachable from it, in
// time order. An unknown id yields nil.
func Subtree(w world.World, changedID string) []TimelineEntry {
	keep := traversal.Reachable(w, changedID)
	if len(keep) == 0 {
		return nil
	}
	return timeline(w, keep)
}

// NewRequest builds a request carrying the subtree of changedID.
func NewRequest(w world.World, changedID, newText string) Request {
	return Request{ChangedID: changedID, NewText: newText, Timeline: Subtree(w, changedID)}
}

func timeline(w world.World, keep map[string]bool) []TimelineEntry {
	order := traversal.Order(w)
	out := traversal.Outgoing(traversal.AdmissibleEdges(w, order))

	var entries []TimelineEntry
	for _, id := range order {
		if keep != nil && !keep[id] {
			continue
		}
		ev := w.Nodes[id]
		entry := TimelineEntry{ID: id, Text: ev.Title, Influences: []string{}}
		if t, ok := ev.Time(); ok {
			entry.Year = t.Year()
		}
		for _, e := range out[id] {
			if e.Dst == id || (keep != nil && !keep[e.Dst]) {
				continue
			}
			entry.Influences = append(entry.Influences, e.Dst)
		}
		entries = append(entries, entry)
	}
	return entries
}

// #endregion timeline
