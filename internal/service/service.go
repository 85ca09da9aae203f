// Package service serializes interventions against a world store and
// records what each one did.
package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/danielpatrickdp/war-games/go-engine/internal/eval"
	"github.com/danielpatrickdp/war-games/go-engine/internal/extract"
	"github.com/danielpatrickdp/war-games/go-engine/internal/gate"
	"github.com/danielpatrickdp/war-games/go-engine/internal/intervene"
	"github.com/danielpatrickdp/war-games/go-engine/internal/logging"
	"github.com/danielpatrickdp/war-games/go-engine/internal/mechanism"
	"github.com/danielpatrickdp/war-games/go-engine/internal/metrics"
	"github.com/danielpatrickdp/war-games/go-engine/internal/propagate"
	"github.com/danielpatrickdp/war-games/go-engine/internal/rewrite"
	"github.com/danielpatrickdp/war-games/go-engine/internal/state"
	"github.com/danielpatrickdp/war-games/go-engine/internal/store"
	"github.com/danielpatrickdp/war-games/go-engine/internal/world"
)

// #region service-struct
// Service is the single writer for one world store.
type Service struct {
	mu      sync.Mutex
	store   store.Store
	db      *sql.DB // provenance log, nil when the store has none
	opts    Options
	scorer  *eval.EvalHarness
	logger  *zap.Logger
	metrics *metrics.Metrics
}

// New wires a service around st.
func New(st store.Store, opts Options) *Service {
	if opts.Engine.Extractor == nil {
		opts.Engine.Extractor = extract.Default()
	}
	if opts.Engine.Threshold <= 0 {
		opts.Engine.Threshold = intervene.DefaultThreshold
	}
	if opts.Engine.Propagation.Table == nil {
		opts.Engine.Propagation.Table = mechanism.DefaultTable()
	}
	if opts.Eval == (eval.EvalConfig{}) {
		opts.Eval = eval.DefaultEvalConfig()
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Metrics == nil {
		opts.Metrics = metrics.New()
	}

	s := &Service{
		store:   st,
		opts:    opts,
		scorer:  eval.NewEvalHarness(opts.Eval),
		logger:  opts.Logger,
		metrics: opts.Metrics,
	}
	if p, ok := st.(interface{ DB() *sql.DB }); ok {
		s.db = p.DB()
	}
	return s
}

// Metrics returns the collectors the service reports to.
func (s *Service) Metrics() *metrics.Metrics { return s.metrics }

// #endregion service-struct

// #region intervene
// Intervene applies an edited headline to eventID, gates the result and
// commits it as a new snapshot. When a rewriter is configured, its
// headline updates for other events are committed as a second snapshot.
func (s *Service) Intervene(ctx context.Context, eventID, text string) (Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	start := time.Now()
	cur, err := s.store.Load(ctx)
	if err != nil {
		return Result{}, fmt.Errorf("load world: %w", err)
	}
	if _, ok := cur.Nodes[eventID]; !ok {
		return Result{}, fmt.Errorf("intervene %q: %w", eventID, ErrUnknownEvent)
	}

	out := intervene.Run(cur, eventID, text, s.opts.Engine)
	res, err := s.commit(ctx, cur, out.World, commitInfo{
		trigger: logging.TriggerIntervene,
		eventID: eventID,
		text:    text,
		delta:   out.Extraction.Delta,
		record: logging.InterventionRecord{
			EventID:     eventID,
			RuleVersion: out.Extraction.Version,
			Matches:     matchNames(out.Extraction.Matches),
			Tag:         string(out.Tag),
			Shift:       out.Shift,
		},
		metrics: out.Metrics,
	})
	if err != nil {
		return Result{}, err
	}
	res.Tag = out.Tag
	res.Shift = out.Shift
	s.metrics.ObserveIntervention(logging.TriggerIntervene, res.Decision.Action, string(out.Tag), time.Since(start))

	if res.Decision.Action == gate.ActionCommit && s.opts.Rewriter != nil {
		s.cascade(ctx, &res, eventID, text)
	}
	return res, nil
}

// #endregion intervene

// #region propagate
// Propagate pushes an explicit delta from eventID without touching titles.
func (s *Service) Propagate(ctx context.Context, eventID string, delta state.Delta) (Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	start := time.Now()
	cur, err := s.store.Load(ctx)
	if err != nil {
		return Result{}, fmt.Errorf("load world: %w", err)
	}
	if _, ok := cur.Nodes[eventID]; !ok {
		return Result{}, fmt.Errorf("propagate %q: %w", eventID, ErrUnknownEvent)
	}

	out := propagate.Run(cur, eventID, delta, s.opts.Engine.Propagation)
	res, err := s.commit(ctx, cur, out.World, commitInfo{
		trigger: logging.TriggerPropagate,
		eventID: eventID,
		delta:   delta,
		record:  logging.InterventionRecord{EventID: eventID},
		metrics: out.Metrics,
	})
	if err != nil {
		return Result{}, err
	}
	s.metrics.ObserveIntervention(logging.TriggerPropagate, res.Decision.Action, "", time.Since(start))
	return res, nil
}

// #endregion propagate

// #region commit
type commitInfo struct {
	trigger string
	eventID string
	text    string
	delta   state.Delta
	record  logging.InterventionRecord
	metrics propagate.Metrics
}

// commit gates proposed against cur, saves it on commit and writes the
// provenance row. The caller holds s.mu.
func (s *Service) commit(ctx context.Context, cur, proposed world.World, info commitInfo) (Result, error) {
	decision := gate.Evaluate(cur, proposed)
	res := Result{World: cur, Decision: decision, Metrics: info.metrics}

	if decision.Action == gate.ActionCommit {
		id, err := s.store.Save(ctx, proposed, store.Meta{Trigger: info.trigger, Note: info.eventID})
		if err != nil {
			return Result{}, fmt.Errorf("save world: %w", err)
		}
		res.World = proposed
		res.VersionID = id
	}

	rec := info.record
	rec.RequestID = uuid.New().String()
	rec.Visited = info.metrics.Visited
	rec.EdgesFollowed = info.metrics.EdgesFollowed
	rec.Dropped = info.metrics.Dropped
	rec.Changed = info.metrics.Changed
	rec.GateAction = decision.Action
	rec.GateVetoed = decision.Vetoed
	rec.GateReason = decision.Reason
	s.logProvenance(res.VersionID, info, rec)

	if info.trigger != logging.TriggerRewrite {
		s.metrics.ObservePropagation(info.metrics.Visited, info.metrics.Dropped)
	}
	s.logger.Info("world update",
		zap.String("trigger", info.trigger),
		zap.String("event_id", info.eventID),
		zap.String("decision", decision.Action),
		zap.String("reason", decision.Reason),
		zap.String("version_id", res.VersionID),
		zap.Int("visited", info.metrics.Visited),
		zap.Int("dropped", info.metrics.Dropped),
		zap.String("tag", rec.Tag),
	)
	return res, nil
}

func (s *Service) logProvenance(versionID string, info commitInfo, rec logging.InterventionRecord) {
	if s.db == nil {
		return
	}
	entry := logging.ProvenanceEntry{
		VersionID:   versionID,
		EventID:     info.eventID,
		TriggerType: info.trigger,
		InputText:   info.text,
		Decision:    rec.GateAction,
		Reason:      rec.GateReason,
	}
	if !info.delta.IsEmpty() {
		if b, err := json.Marshal(info.delta); err == nil {
			entry.DeltaJSON = string(b)
		}
	}
	if b, err := json.Marshal(rec); err == nil {
		entry.RecordJSON = string(b)
	}
	if err := logging.LogDecision(s.db, entry); err != nil {
		s.logger.Warn("provenance write failed", zap.Error(err))
	}
}

// #endregion commit

// #region cascade
// cascade asks the rewriter for headline updates and commits those that
// target other known events. Failures are reported on res, never returned.
func (s *Service) cascade(ctx context.Context, res *Result, eventID, text string) {
	if s.opts.RewriteTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.opts.RewriteTimeout)
		defer cancel()
	}

	updates, err := s.opts.Rewriter.Rewrite(ctx, rewrite.NewRequest(res.World, eventID, text))
	s.metrics.ObserveRewrite(s.opts.RewriterBackend, err)
	if err != nil {
		res.RewriteError = err.Error()
		s.logger.Warn("cascade rewrite failed", zap.String("event_id", eventID), zap.Error(err))
		return
	}

	next := res.World.Clone()
	var applied []rewrite.Update
	for _, u := range updates {
		ev, ok := next.Nodes[u.ID]
		if !ok || u.ID == eventID || u.NewText == "" || u.NewText == ev.Title {
			continue
		}
		ev.Title = u.NewText
		next.Nodes[u.ID] = ev
		applied = append(applied, u)
	}
	if len(applied) == 0 {
		return
	}

	out, err := s.commit(ctx, res.World, next, commitInfo{
		trigger: logging.TriggerRewrite,
		eventID: eventID,
		text:    text,
		record:  logging.InterventionRecord{EventID: eventID, Rewrites: len(applied)},
	})
	if err != nil {
		res.RewriteError = err.Error()
		return
	}
	if out.Decision.Action == gate.ActionCommit {
		res.World = out.World
		res.Rewrites = applied
		res.RewriteVersionID = out.VersionID
	}
}

// #endregion cascade

// #region reads
// World returns the active world.
func (s *Service) World(ctx context.Context) (world.World, error) {
	w, err := s.store.Load(ctx)
	if err != nil {
		return world.World{}, fmt.Errorf("load world: %w", err)
	}
	return w, nil
}

// Scores evaluates every goal of the active world.
func (s *Service) Scores(ctx context.Context) ([]eval.GoalScore, error) {
	w, err := s.World(ctx)
	if err != nil {
		return nil, err
	}
	scores := s.scorer.ScoreAll(w)
	for _, g := range scores {
		s.metrics.SetGoalScore(g.GoalID, g.Score)
	}
	return scores, nil
}

// Versions lists recent snapshots, newest first.
func (s *Service) Versions(ctx context.Context, limit int) ([]store.Version, error) {
	v, ok := s.store.(store.Versioned)
	if !ok {
		return nil, ErrUnsupported
	}
	return v.Versions(ctx, limit)
}

// Provenance lists recent provenance entries, newest first.
func (s *Service) Provenance(limit int) ([]logging.ProvenanceEntry, error) {
	if s.db == nil {
		return nil, ErrUnsupported
	}
	return logging.ListProvenance(s.db, limit)
}

// #endregion reads

// #region writes
// Rollback makes versionID the active snapshot and returns its world.
func (s *Service) Rollback(ctx context.Context, versionID string) (world.World, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	v, ok := s.store.(store.Versioned)
	if !ok {
		return world.World{}, ErrUnsupported
	}
	if err := v.Rollback(ctx, versionID); err != nil {
		return world.World{}, err
	}
	s.logProvenance(versionID, commitInfo{trigger: logging.TriggerRollback}, logging.InterventionRecord{
		GateAction: gate.ActionCommit,
		GateReason: "rollback to " + versionID,
	})
	s.logger.Info("world rolled back", zap.String("version_id", versionID))

	w, err := s.store.Load(ctx)
	if err != nil {
		return world.World{}, fmt.Errorf("load world: %w", err)
	}
	return w, nil
}

// Import validates w and saves it as the active snapshot.
func (s *Service) Import(ctx context.Context, w world.World) (string, error) {
	return s.Save(ctx, w, store.Meta{Trigger: logging.TriggerImport})
}

// Save validates w and saves it under meta. It lets the service stand in
// for a store.Saver, so file watches go through the same lock and log.
func (s *Service) Save(ctx context.Context, w world.World, meta store.Meta) (string, error) {
	if err := world.Validate(w); err != nil {
		return "", err
	}
	if meta.Trigger == "" {
		meta.Trigger = logging.TriggerImport
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	id, err := s.store.Save(ctx, w, meta)
	if err != nil {
		return "", fmt.Errorf("save world: %w", err)
	}
	s.logProvenance(id, commitInfo{trigger: meta.Trigger, text: meta.Note}, logging.InterventionRecord{
		GateAction: gate.ActionCommit,
		GateReason: fmt.Sprintf("imported %d events, %d edges", len(w.Nodes), len(w.Edges)),
	})
	s.metrics.ObserveImport()
	s.logger.Info("world imported",
		zap.String("version_id", id),
		zap.String("trigger", meta.Trigger),
		zap.Int("events", len(w.Nodes)),
		zap.Int("edges", len(w.Edges)),
	)
	return id, nil
}

// #endregion writes

// #region helpers
func matchNames(ms []extract.Match) []string {
	out := make([]string, 0, len(ms))
	for _, m := range ms {
		out = append(out, m.Rule+":"+m.Keyword)
	}
	return out
}

// #endregion helpers
