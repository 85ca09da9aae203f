// Package rewrite asks an external collaborator to rewrite the headlines of
// events downstream of an edit. The engine never depends on it.
package rewrite

import (
	"context"
	"errors"
)

// ErrMalformed is returned when a backend answers with something that is
// not an {"updates": [...]} document.
var ErrMalformed = errors.New("malformed rewrite response")

// #region types
const (
	SeverityMajor = "major"
	SeverityMinor = "minor"
)

// TimelineEntry is one event as the rewriter sees it.
type TimelineEntry struct {
	ID         string   `json:"id"`
	Year       int      `json:"year"`
	Text       string   `json:"text"`
	Influences []string `json:"influences"`
}

// Request names the edited event and carries the timeline around it.
type Request struct {
	ChangedID string          `json:"changedId"`
	NewText   string          `json:"newText,omitempty"`
	Timeline  []TimelineEntry `json:"timeline"`
}

// Update is one proposed headline change.
type Update struct {
	ID         string   `json:"id"`
	NewText    string   `json:"newText"`
	Confidence *float64 `json:"confidence,omitempty"`
	Reason     string   `json:"reason,omitempty"`
	Severity   string   `json:"severity,omitempty"`
}

// Response is the wire form of a rewrite answer.
type Response struct {
	Updates []Update `json:"updates"`
}

// #endregion types

// #region rewriter
// Rewriter proposes headline updates for a changed event.
type Rewriter interface {
	Rewrite(ctx context.Context, req Request) ([]Update, error)
}

// Func adapts a function to Rewriter.
type Func func(ctx context.Context, req Request) ([]Update, error)

// Rewrite calls f.
func (f Func) Rewrite(ctx context.Context, req Request) ([]Update, error) {
	return f(ctx, req)
}

// #endregion rewriter
