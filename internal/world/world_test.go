package world

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/danielpatrickdp/war-games/go-engine/internal/state"
)

const sampleJSON = `{
  "nodes": {
    "sarajevo": {"id": "sarajevo", "title": "Archduke visits Sarajevo", "date": "1914-06-28",
                 "actors": ["Austria-Hungary"], "state": {"war_escalation": 0.2}},
    "ultimatum": {"id": "ultimatum", "title": "July Ultimatum", "date": "1914-07-23",
                  "actors": ["Austria-Hungary", "Serbia"], "state": {}}
  },
  "edges": [
    {"src": "sarajevo", "dst": "ultimatum", "weight": 0.8, "mechanism": "diplomatic"},
    {"src": "sarajevo", "dst": "ghost", "weight": 0.5, "mechanism": "military"}
  ],
  "goals": [
    {"id": "g1", "name": "Avoid war", "description": "keep escalation low",
     "metrics": [{"key": "war_escalation", "target": 0, "weight": 1, "direction": "min"},
                 {"key": "end_by_date", "target": "1918-11-11", "weight": 0.5}]}
  ]
}`

func TestDecodeAndValidate(t *testing.T) {
	w, err := Decode(strings.NewReader(sampleJSON))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if len(w.Nodes) != 2 || len(w.Edges) != 2 || len(w.Goals) != 1 {
		t.Fatalf("unexpected shape: %d nodes, %d edges, %d goals", len(w.Nodes), len(w.Edges), len(w.Goals))
	}
	// The dangling edge to "ghost" is tolerated.
	if err := Validate(w); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if w.HasEdgeEndpoints(w.Edges[1]) {
		t.Fatal("edge to ghost should be reported as dangling")
	}
	if got := string(w.Goals[0].Metrics[1].Target); got != `"1918-11-11"` {
		t.Fatalf("date target not preserved: %s", got)
	}
}

func TestValidateRejects(t *testing.T) {
	base := func() World {
		w, err := Decode(strings.NewReader(sampleJSON))
		if err != nil {
			t.Fatalf("Decode: %v", err)
		}
		return w
	}

	tests := []struct {
		name   string
		mutate func(w *World)
	}{
		{"key-mismatch", func(w *World) {
			ev := w.Nodes["sarajevo"]
			ev.ID = "other"
			w.Nodes["sarajevo"] = ev
		}},
		{"bad-date", func(w *World) {
			ev := w.Nodes["ultimatum"]
			ev.Date = "late July"
			w.Nodes["ultimatum"] = ev
		}},
		{"bad-mechanism", func(w *World) { w.Edges[0].Mechanism = "cultural" }},
		{"bad-weight", func(w *World) { w.Edges[0].Weight = 1.5 }},
		{"bad-state", func(w *World) {
			ev := w.Nodes["ultimatum"]
			ev.State.Set(state.PublicSupport, 2)
			w.Nodes["ultimatum"] = ev
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := base()
			tt.mutate(&w)
			err := Validate(w)
			if !errors.Is(err, ErrInvalid) {
				t.Fatalf("expected ErrInvalid, got %v", err)
			}
		})
	}
}

func TestCloneIsDeep(t *testing.T) {
	w, err := Decode(strings.NewReader(sampleJSON))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	c := w.Clone()

	ev := c.Nodes["sarajevo"]
	ev.Title = "changed"
	ev.Actors[0] = "Serbia"
	ev.State.Set(state.WarEscalation, 0.9)
	c.Nodes["sarajevo"] = ev
	c.Edges[0].Weight = 0.1
	c.Goals[0].Metrics[0].Weight = 9

	orig := w.Nodes["sarajevo"]
	if orig.Title != "Archduke visits Sarajevo" || orig.Actors[0] != "Austria-Hungary" {
		t.Fatal("clone aliases event fields")
	}
	if orig.State.Value(state.WarEscalation) != 0.2 {
		t.Fatal("clone aliases state")
	}
	if w.Edges[0].Weight != 0.8 || w.Goals[0].Metrics[0].Weight != 1 {
		t.Fatal("clone aliases edges or goals")
	}
}

func TestEncodeRoundTrip(t *testing.T) {
	w, err := Decode(strings.NewReader(sampleJSON))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	var buf bytes.Buffer
	if err := Encode(&buf, w); err != nil {
		t.Fatalf("Encode: %v", err)
	}
	back, err := Decode(&buf)
	if err != nil {
		t.Fatalf("Decode again: %v", err)
	}
	if !back.Nodes["sarajevo"].State.Equal(w.Nodes["sarajevo"].State) {
		t.Fatal("state changed across encode/decode")
	}
	if back.Nodes["ultimatum"].State.Len() != 0 {
		t.Fatal("empty state should stay empty")
	}
}

func TestParseDate(t *testing.T) {
	for _, s := range []string{"1914-06-28", "1914-06-28T10:45:00Z", "1914-06", "1914"} {
		if _, ok := ParseDate(s); !ok {
			t.Errorf("expected %q to parse", s)
		}
	}
	if _, ok := ParseDate("June 1914"); ok {
		t.Error("expected free text to be rejected")
	}
}
