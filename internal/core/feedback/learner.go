// Package feedback turns swipe verdicts into per-user preference vectors
// that re-weight the next retrieval round. Every update is a bounded,
// re-normalized step, so the vector stays finite-norm no matter how long a
// session runs.
package feedback

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"go.uber.org/zap"

	"github.com/cinematch/engine/internal/core/model"
	"github.com/cinematch/engine/internal/core/vecmath"
	"github.com/cinematch/engine/internal/store"
)

// EmbeddingSource resolves a movie id to its stored embedding; the vector
// index satisfies it.
type EmbeddingSource interface {
	Embedding(ctx context.Context, movieID int) ([]float32, error)
}

type Params struct {
	// LikeRate is the step size toward a liked movie's embedding,
	// DislikeRate the (weaker) step away from a disliked one.
	LikeRate    float64
	DislikeRate float64
	// MinSwipes gates AdjustedQuery: below it the mood query goes out
	// unmodified, to avoid overfitting a tiny noisy sample.
	MinSwipes int
	// BlendWeight is the learned vector's share in the adjusted query.
	BlendWeight float64
}

func DefaultParams() Params {
	return Params{LikeRate: 0.25, DislikeRate: 0.15, MinSwipes: 5, BlendWeight: 0.5}
}

// Learner owns the per-(session,user) preference vectors. Swipe records
// themselves live in the session store; vectors are in-memory state
// dropped on ClearSession.
type Learner struct {
	store      store.SessionStore
	embeddings EmbeddingSource
	params     Params
	log        *zap.Logger

	mu    sync.Mutex
	users map[string]*userState

	cacheMu sync.RWMutex
	cache   map[int][]float32
}

// userState serializes all mutation for one (session,user) pair: the
// preference update is read-modify-write, so concurrent swipes from the
// same user must not interleave.
type userState struct {
	mu      sync.Mutex
	vector  []float32
	applied map[int]model.SwipeAction
}

func NewLearner(st store.SessionStore, embeddings EmbeddingSource, params Params, log *zap.Logger) *Learner {
	if log == nil {
		log = zap.NewNop()
	}
	return &Learner{
		store:      st,
		embeddings: embeddings,
		params:     params,
		log:        log,
		users:      make(map[string]*userState),
		cache:      make(map[int][]float32),
	}
}

func userKey(sessionID, userName string) string {
	return sessionID + "\x00" + userName
}

// state returns (creating if needed) the per-user state. A never-seen
// (session,user) pair gets a fresh one; the first swipe always succeeds.
func (l *Learner) state(sessionID, userName string) *userState {
	l.mu.Lock()
	defer l.mu.Unlock()
	key := userKey(sessionID, userName)
	st, ok := l.users[key]
	if !ok {
		st = &userState{applied: make(map[int]model.SwipeAction)}
		l.users[key] = st
	}
	return st
}

// RecordSwipe appends (or replaces) one verdict and folds it into the
// user's preference vector when one exists. Returns the user's total
// swipe count and whether feedback is ready.
func (l *Learner) RecordSwipe(ctx context.Context, rec model.SwipeRecord) (int, bool, error) {
	if !rec.Action.Valid() {
		return 0, false, fmt.Errorf("invalid swipe action %q", rec.Action)
	}

	st := l.state(rec.SessionID, rec.UserName)
	st.mu.Lock()
	defer st.mu.Unlock()

	if err := l.store.AppendSwipe(ctx, rec); err != nil {
		return 0, false, fmt.Errorf("append swipe: %w", err)
	}

	// Only a committed like/dislike moves the vector, and only once per
	// verdict: a retried identical swipe is a no-op.
	if st.vector != nil && rec.Action != model.SwipeSkip && st.applied[rec.MovieID] != rec.Action {
		l.stepLocked(ctx, st, rec.MovieID, rec.Action)
	}

	swipes, err := l.store.UserSwipes(ctx, rec.SessionID, rec.UserName)
	if err != nil {
		return 0, false, fmt.Errorf("count swipes: %w", err)
	}
	total := len(swipes)
	return total, total >= l.params.MinSwipes, nil
}

// stepLocked applies one bounded step for a verdict. A missing embedding
// is logged and skipped; it must not fail the swipe.
func (l *Learner) stepLocked(ctx context.Context, st *userState, movieID int, action model.SwipeAction) {
	emb, err := l.movieEmbedding(ctx, movieID)
	if err != nil {
		l.log.Warn("skipping preference update, embedding unavailable",
			zap.Int("movie_id", movieID), zap.Error(err))
		return
	}
	rate := l.params.LikeRate
	if action == model.SwipeDislike {
		rate = -l.params.DislikeRate
	}
	st.vector = vecmath.Normalize(vecmath.Step(st.vector, emb, rate))
	st.applied[movieID] = action
}

// AdjustedQuery blends the learned preference vector into the base query
// embedding once the user has swiped enough. Below the threshold (or for
// unknown users) the base vector comes back untouched with applied=false.
//
// The vector is initialized lazily from the base query embedding and the
// logged swipes replayed onto it, so a learner restarted mid-session
// reaches the same state.
func (l *Learner) AdjustedQuery(ctx context.Context, sessionID, userName string, base []float32) ([]float32, bool, error) {
	swipes, err := l.store.UserSwipes(ctx, sessionID, userName)
	if err != nil {
		return base, false, fmt.Errorf("load swipes: %w", err)
	}
	if len(swipes) < l.params.MinSwipes {
		return base, false, nil
	}

	st := l.state(sessionID, userName)
	st.mu.Lock()
	defer st.mu.Unlock()

	if st.vector == nil {
		st.vector = vecmath.Normalize(base)
	}
	for _, rec := range swipes {
		if rec.Action == model.SwipeSkip || st.applied[rec.MovieID] == rec.Action {
			continue
		}
		l.stepLocked(ctx, st, rec.MovieID, rec.Action)
	}

	return vecmath.Blend(st.vector, base, l.params.BlendWeight), true, nil
}

// FeedbackReady reports whether the user has reached the swipe threshold.
func (l *Learner) FeedbackReady(ctx context.Context, sessionID, userName string) (bool, error) {
	swipes, err := l.store.UserSwipes(ctx, sessionID, userName)
	if err != nil {
		return false, err
	}
	return len(swipes) >= l.params.MinSwipes, nil
}

// SeenMovies returns every movie anyone in the session has swiped on,
// sorted ascending. These are excluded from the next retrieval round.
func (l *Learner) SeenMovies(ctx context.Context, sessionID string) ([]int, error) {
	swipes, err := l.store.Swipes(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	set := make(map[int]bool)
	for _, rec := range swipes {
		set[rec.MovieID] = true
	}
	ids := make([]int, 0, len(set))
	for id := range set {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids, nil
}

// UserSwipes exposes one user's log, for the reranker's swipe digest.
func (l *Learner) UserSwipes(ctx context.Context, sessionID, userName string) ([]model.SwipeRecord, error) {
	return l.store.UserSwipes(ctx, sessionID, userName)
}

// Stats returns per-user swipe counts for a session.
func (l *Learner) Stats(ctx context.Context, sessionID string) (map[string]model.SwipeStats, error) {
	users, err := l.store.Participants(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	out := make(map[string]model.SwipeStats, len(users))
	for _, name := range users {
		swipes, err := l.store.UserSwipes(ctx, sessionID, name)
		if err != nil {
			return nil, err
		}
		var s model.SwipeStats
		for _, rec := range swipes {
			s.Total++
			switch rec.Action {
			case model.SwipeLike:
				s.Likes++
			case model.SwipeDislike:
				s.Dislikes++
			case model.SwipeSkip:
				s.Skips++
			}
		}
		out[name] = s
	}
	return out, nil
}

// ClearSession drops the session's preference vectors and delegates log
// clearing to the store.
func (l *Learner) ClearSession(ctx context.Context, sessionID string) error {
	l.mu.Lock()
	prefix := sessionID + "\x00"
	for key := range l.users {
		if len(key) >= len(prefix) && key[:len(prefix)] == prefix {
			delete(l.users, key)
		}
	}
	l.mu.Unlock()
	return l.store.ClearSession(ctx, sessionID)
}

func (l *Learner) movieEmbedding(ctx context.Context, movieID int) ([]float32, error) {
	l.cacheMu.RLock()
	emb, ok := l.cache[movieID]
	l.cacheMu.RUnlock()
	if ok {
		return emb, nil
	}
	emb, err := l.embeddings.Embedding(ctx, movieID)
	if err != nil {
		return nil, err
	}
	l.cacheMu.Lock()
	l.cache[movieID] = emb
	l.cacheMu.Unlock()
	return emb, nil
}
