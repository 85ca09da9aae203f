// Package store persists world snapshots.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/danielpatrickdp/war-games/go-engine/internal/world"
)

// ErrNotFound is returned when no world or version exists for a lookup.
var ErrNotFound = errors.New("not found")

// #region store-interface
// Store loads the active world and saves new snapshots.
type Store interface {
	Load(ctx context.Context) (world.World, error)
	Save(ctx context.Context, w world.World, meta Meta) (string, error)
	Close() error
}

// Saver is the write half of Store.
type Saver interface {
	Save(ctx context.Context, w world.World, meta Meta) (string, error)
}

// Versioned is implemented by stores that keep every snapshot.
type Versioned interface {
	Store
	Versions(ctx context.Context, limit int) ([]Version, error)
	Version(ctx context.Context, id string) (world.World, Version, error)
	Rollback(ctx context.Context, id string) error
}

// #endregion store-interface

// #region meta
// Meta describes why a snapshot was saved.
type Meta struct {
	Trigger string // logging.Trigger* value
	Note    string
}

// Version is one row of the snapshot history, without the world body.
type Version struct {
	VersionID string    `json:"version_id"`
	ParentID  string    `json:"parent_id,omitempty"`
	Trigger   string    `json:"trigger"`
	Note      string    `json:"note,omitempty"`
	Events    int       `json:"events"`
	Edges     int       `json:"edges"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"created_at"`
}

// #endregion meta
