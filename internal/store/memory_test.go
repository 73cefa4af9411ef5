package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cinematch/engine/internal/core/model"
)

func swipe(session, user string, movieID int, action model.SwipeAction) model.SwipeRecord {
	return model.SwipeRecord{
		SessionID: session,
		UserName:  user,
		MovieID:   movieID,
		Action:    action,
		Round:     1,
		Timestamp: time.Now().UTC(),
	}
}

func TestMemoryStoreAppendAndRead(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	require.NoError(t, s.AppendSwipe(ctx, swipe("s1", "ada", 1, model.SwipeLike)))
	require.NoError(t, s.AppendSwipe(ctx, swipe("s1", "ada", 2, model.SwipeDislike)))
	require.NoError(t, s.AppendSwipe(ctx, swipe("s1", "grace", 1, model.SwipeSkip)))

	all, err := s.Swipes(ctx, "s1")
	require.NoError(t, err)
	assert.Len(t, all, 3)

	mine, err := s.UserSwipes(ctx, "s1", "ada")
	require.NoError(t, err)
	require.Len(t, mine, 2)
	assert.Equal(t, 1, mine[0].MovieID)
	assert.Equal(t, 2, mine[1].MovieID)
}

func TestMemoryStoreReswipeReplacesVerdict(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	require.NoError(t, s.AppendSwipe(ctx, swipe("s1", "ada", 1, model.SwipeDislike)))
	require.NoError(t, s.AppendSwipe(ctx, swipe("s1", "ada", 1, model.SwipeLike)))

	mine, err := s.UserSwipes(ctx, "s1", "ada")
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, model.SwipeLike, mine[0].Action)
}

func TestMemoryStoreParticipantsSorted(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	require.NoError(t, s.AppendSwipe(ctx, swipe("s1", "zoe", 1, model.SwipeLike)))
	require.NoError(t, s.AppendSwipe(ctx, swipe("s1", "ada", 2, model.SwipeLike)))

	users, err := s.Participants(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, []string{"ada", "zoe"}, users)
}

func TestMemoryStoreSessionsAreIsolated(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	require.NoError(t, s.AppendSwipe(ctx, swipe("s1", "ada", 1, model.SwipeLike)))
	require.NoError(t, s.AppendSwipe(ctx, swipe("s2", "ada", 2, model.SwipeLike)))

	all, err := s.Swipes(ctx, "s1")
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, 1, all[0].MovieID)
}

func TestMemoryStoreClearSession(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	require.NoError(t, s.AppendSwipe(ctx, swipe("s1", "ada", 1, model.SwipeLike)))
	require.NoError(t, s.ClearSession(ctx, "s1"))

	all, err := s.Swipes(ctx, "s1")
	require.NoError(t, err)
	assert.Empty(t, all)

	users, err := s.Participants(ctx, "s1")
	require.NoError(t, err)
	assert.Empty(t, users)
}
