package store

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"go.uber.org/goleak"

	"github.com/danielpatrickdp/war-games/go-engine/internal/logging"
	"github.com/danielpatrickdp/war-games/go-engine/internal/state"
	"github.com/danielpatrickdp/war-games/go-engine/internal/world"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func tempDB(t *testing.T) *SQLiteStore {
	t.Helper()
	dir := t.TempDir()
	s, err := OpenSQLite(filepath.Join(dir, "test.db"))
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func sampleWorld() world.World {
	return world.World{
		Nodes: map[string]world.Event{
			"sarajevo": {ID: "sarajevo", Title: "Archduke visits Sarajevo", Date: "1914-06-28",
				Actors: []string{"Austria-Hungary"},
				State:  state.Vector{}.With(state.WarEscalation, 0.2)},
			"ultimatum": {ID: "ultimatum", Title: "July Ultimatum", Date: "1914-07-23",
				Actors: []string{"Austria-Hungary", "Serbia"}},
		},
		Edges: []world.Edge{{Src: "sarajevo", Dst: "ultimatum", Weight: 0.8, Mechanism: world.Diplomatic}},
	}
}

func TestLoadBeforeSave(t *testing.T) {
	s := tempDB(t)
	if _, err := s.Load(context.Background()); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestSaveAndLoad(t *testing.T) {
	s := tempDB(t)
	ctx := context.Background()
	w := sampleWorld()

	id, err := s.Save(ctx, w, Meta{Trigger: logging.TriggerImport, Note: "seed"})
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if id == "" {
		t.Fatal("expected non-empty version ID")
	}

	got, err := s.Load(ctx)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if diff := cmp.Diff(w, got); diff != "" {
		t.Fatalf("world mismatch (-want +got):\n%s", diff)
	}

	active, err := s.ActiveVersion(ctx)
	if err != nil || active != id {
		t.Fatalf("expected active %s, got %s (%v)", id, active, err)
	}
}

func TestVersionsAndRollback(t *testing.T) {
	s := tempDB(t)
	ctx := context.Background()

	w1 := sampleWorld()
	v1, err := s.Save(ctx, w1, Meta{Trigger: logging.TriggerImport})
	if err != nil {
		t.Fatalf("Save v1: %v", err)
	}

	w2 := w1.Clone()
	ev := w2.Nodes["ultimatum"]
	ev.Title = "July Ultimatum (tensions rise)"
	w2.Nodes["ultimatum"] = ev
	v2, err := s.Save(ctx, w2, Meta{Trigger: logging.TriggerIntervene})
	if err != nil {
		t.Fatalf("Save v2: %v", err)
	}

	versions, err := s.Versions(ctx, 10)
	if err != nil {
		t.Fatalf("Versions: %v", err)
	}
	if len(versions) != 2 {
		t.Fatalf("expected 2 versions, got %d", len(versions))
	}
	if versions[0].VersionID != v2 || versions[0].ParentID != v1 || !versions[0].Active {
		t.Fatalf("unexpected newest version: %+v", versions[0])
	}
	if versions[1].VersionID != v1 || versions[1].ParentID != "" || versions[1].Active {
		t.Fatalf("unexpected oldest version: %+v", versions[1])
	}
	if versions[0].Events != 2 || versions[0].Edges != 1 || versions[0].Trigger != logging.TriggerIntervene {
		t.Fatalf("unexpected summary: %+v", versions[0])
	}

	if err := s.Rollback(ctx, v1); err != nil {
		t.Fatalf("Rollback: %v", err)
	}
	got, err := s.Load(ctx)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got.Nodes["ultimatum"].Title != "July Ultimatum" {
		t.Fatalf("expected rolled back title, got %q", got.Nodes["ultimatum"].Title)
	}

	// A save after rollback branches from the rolled-back version.
	v3, err := s.Save(ctx, got, Meta{Trigger: logging.TriggerIntervene})
	if err != nil {
		t.Fatalf("Save v3: %v", err)
	}
	_, meta, err := s.Version(ctx, v3)
	if err != nil {
		t.Fatalf("Version: %v", err)
	}
	if meta.ParentID != v1 {
		t.Fatalf("expected parent %s, got %s", v1, meta.ParentID)
	}
}

func TestRollbackUnknownVersion(t *testing.T) {
	s := tempDB(t)
	if err := s.Rollback(context.Background(), "nope"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if _, _, err := s.Version(context.Background(), "nope"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestProvenanceSharesDatabase(t *testing.T) {
	s := tempDB(t)
	ctx := context.Background()
	id, err := s.Save(ctx, sampleWorld(), Meta{Trigger: logging.TriggerImport})
	if err != nil {
		t.Fatalf("Save: %v", err)
	}

	err = logging.LogDecision(s.DB(), logging.ProvenanceEntry{
		VersionID:   id,
		EventID:     "sarajevo",
		TriggerType: logging.TriggerIntervene,
		Decision:    "commit",
	})
	if err != nil {
		t.Fatalf("LogDecision: %v", err)
	}
	// Rejected interventions have no version.
	err = logging.LogDecision(s.DB(), logging.ProvenanceEntry{
		TriggerType: logging.TriggerIntervene,
		Decision:    "reject",
	})
	if err != nil {
		t.Fatalf("LogDecision without version: %v", err)
	}

	entries, err := logging.ListProvenance(s.DB(), 10)
	if err != nil {
		t.Fatalf("ListProvenance: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
}

func TestFileStoreRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "world.json")
	s := NewFileStore(path)
	ctx := context.Background()

	if _, err := s.Load(ctx); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	w := sampleWorld()
	if _, err := s.Save(ctx, w, Meta{}); err != nil {
		t.Fatalf("Save: %v", err)
	}
	got, err := s.Load(ctx)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if diff := cmp.Diff(w, got); diff != "" {
		t.Fatalf("world mismatch (-want +got):\n%s", diff)
	}

	entries, err := os.ReadDir(filepath.Dir(path))
	if err != nil {
		t.Fatalf("ReadDir: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected only the world file, found %d entries", len(entries))
	}
}

func TestReadWorldFileRejectsInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.json")
	body := `{"nodes": {"a": {"id": "a", "title": "A", "date": "not a date", "actors": [], "state": {}}}, "edges": []}`
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := ReadWorldFile(path); !errors.Is(err, world.ErrInvalid) {
		t.Fatalf("expected world.ErrInvalid, got %v", err)
	}
}
