// Package retrieval issues nearest-neighbor queries against the vector
// index, one per participant. Exclusions are applied before truncation so
// topK always means up-to-topK novel results, and unavailability is
// retried with backoff before surfacing — never masked as an empty list.
package retrieval

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/cinematch/engine/internal/core/model"
	"github.com/cinematch/engine/internal/index"
)

// ErrAllParticipantsFailed means no participant's retrieval came back; the
// pipeline turns it into the one user-facing error this system produces.
var ErrAllParticipantsFailed = errors.New("retrieval unavailable for all participants")

type Retriever struct {
	idx        index.Index
	maxRetries int
	backoff    time.Duration
	timeout    time.Duration
	log        *zap.Logger
}

func NewRetriever(idx index.Index, maxRetries int, backoff, timeout time.Duration, log *zap.Logger) *Retriever {
	if log == nil {
		log = zap.NewNop()
	}
	return &Retriever{idx: idx, maxRetries: maxRetries, backoff: backoff, timeout: timeout, log: log}
}

// Retrieve runs one user's nearest-neighbor query. The index is
// over-fetched by the exclusion count so filtering never eats into topK.
func (r *Retriever) Retrieve(ctx context.Context, vector []float32, exclude map[int]bool, topK int) ([]model.CandidateScore, error) {
	fetch := topK + len(exclude)

	candidates, err := r.searchWithRetry(ctx, vector, fetch)
	if err != nil {
		return nil, err
	}

	out := make([]model.CandidateScore, 0, topK)
	for _, c := range candidates {
		if exclude[c.MovieID] {
			continue
		}
		out = append(out, c)
		if len(out) == topK {
			break
		}
	}
	return out, nil
}

func (r *Retriever) searchWithRetry(ctx context.Context, vector []float32, topK int) ([]model.CandidateScore, error) {
	var lastErr error
	for attempt := 0; attempt <= r.maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(r.backoff * time.Duration(attempt)):
			}
		}
		candidates, err := r.idx.Search(ctx, vector, topK)
		if err == nil {
			return candidates, nil
		}
		lastErr = err
		if !errors.Is(err, index.ErrUnavailable) {
			break
		}
		r.log.Warn("index search failed, retrying",
			zap.Int("attempt", attempt+1), zap.Error(err))
	}
	return nil, fmt.Errorf("index search: %w", lastErr)
}

// UserQuery is one participant's ready-to-search embedding.
type UserQuery struct {
	Name   string
	Vector []float32
}

// GroupResult holds every participant's candidate list plus which of them
// came back degraded (failed or timed out, treated as empty per the
// merge rule).
type GroupResult struct {
	PerUser  map[string][]model.CandidateScore
	Degraded map[string]bool
}

// RetrieveGroup fans out one retrieval per participant. The calls are
// independent and run concurrently; the barrier here waits for all of
// them (or the per-request timeout) before the aggregator may run. A
// failed or timed-out participant contributes an empty, degraded-flagged
// list; only a full wipeout is an error.
func (r *Retriever) RetrieveGroup(ctx context.Context, queries []UserQuery, exclude map[int]bool, topK int) (*GroupResult, error) {
	result := &GroupResult{
		PerUser:  make(map[string][]model.CandidateScore, len(queries)),
		Degraded: make(map[string]bool),
	}

	gctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(gctx)

	for _, q := range queries {
		q := q
		g.Go(func() error {
			candidates, err := r.Retrieve(gctx, q.Vector, exclude, topK)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				r.log.Warn("participant retrieval degraded",
					zap.String("participant", q.Name), zap.Error(err))
				result.PerUser[q.Name] = nil
				result.Degraded[q.Name] = true
				return nil // degrade, don't cancel the others
			}
			result.PerUser[q.Name] = candidates
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	if len(queries) > 0 && len(result.Degraded) == len(queries) {
		return nil, ErrAllParticipantsFailed
	}
	return result, nil
}
