// Package store is the boundary to the realtime session state. The core
// never assumes in-process access: everything goes through SessionStore so
// the backend can be swapped (in-memory for single-node and tests, Redis
// for shared deployments).
package store

import (
	"context"

	"github.com/cinematch/engine/internal/core/model"
)

// SessionStore holds the per-session swipe log. AppendSwipe upserts by
// (user, movie): re-swiping a card replaces the earlier verdict instead of
// growing the log.
type SessionStore interface {
	AppendSwipe(ctx context.Context, rec model.SwipeRecord) error

	// Swipes returns the whole session log, one latest-wins record per
	// (user, movie), in append order.
	Swipes(ctx context.Context, sessionID string) ([]model.SwipeRecord, error)

	// UserSwipes returns one user's records within a session.
	UserSwipes(ctx context.Context, sessionID, userName string) ([]model.SwipeRecord, error)

	// Participants returns the distinct users that have swiped in the
	// session.
	Participants(ctx context.Context, sessionID string) ([]string, error)

	// ClearSession drops all session state.
	ClearSession(ctx context.Context, sessionID string) error
}
