// Package storage defines the persistence boundaries owned by the
// reconciler: the roster snapshot baseline and the display message
// reference. Backends carry no business logic.
package storage

import (
	"context"

	"github.com/staffwatch/staffwatch/internal/roster"
)

// SnapshotStore persists the roster baseline used for the next diff.
//
// Load returns the empty snapshot when nothing usable is persisted
// (missing or malformed data is a first-run default, not a failure).
type SnapshotStore interface {
	Load(ctx context.Context) (roster.Snapshot, error)
	Save(ctx context.Context, snapshot roster.Snapshot) error
}

// MessageRefStore persists the identifier of the display message so it
// can be edited in place across runs. Load returns the empty string
// when no identifier is persisted.
type MessageRefStore interface {
	Load(ctx context.Context) (string, error)
	Save(ctx context.Context, messageID string) error
}
