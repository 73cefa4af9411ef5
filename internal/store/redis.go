package store

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/redis/go-redis/v9"

	"github.com/cinematch/engine/internal/core/model"
)

// RedisStore keeps each session's swipe log in one hash keyed by
// (user, movie), so the upsert semantics come for free from HSET and a
// whole-session read is a single HGETALL.
type RedisStore struct {
	client *redis.Client
}

func NewRedisStore(addr, password string, db int) *RedisStore {
	return &RedisStore{
		client: redis.NewClient(&redis.Options{
			Addr:     addr,
			Password: password,
			DB:       db,
		}),
	}
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}

func sessionKey(sessionID string) string {
	return "cinematch:session:" + sessionID + ":swipes"
}

func fieldKey(userName string, movieID int) string {
	return fmt.Sprintf("%s\x00%d", userName, movieID)
}

func (s *RedisStore) AppendSwipe(ctx context.Context, rec model.SwipeRecord) error {
	payload, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal swipe: %w", err)
	}
	if err := s.client.HSet(ctx, sessionKey(rec.SessionID), fieldKey(rec.UserName, rec.MovieID), payload).Err(); err != nil {
		return fmt.Errorf("append swipe: %w", err)
	}
	return nil
}

func (s *RedisStore) Swipes(ctx context.Context, sessionID string) ([]model.SwipeRecord, error) {
	raw, err := s.client.HGetAll(ctx, sessionKey(sessionID)).Result()
	if err != nil {
		return nil, fmt.Errorf("read session %s: %w", sessionID, err)
	}

	records := make([]model.SwipeRecord, 0, len(raw))
	for _, payload := range raw {
		var rec model.SwipeRecord
		if err := json.Unmarshal([]byte(payload), &rec); err != nil {
			return nil, fmt.Errorf("decode swipe in session %s: %w", sessionID, err)
		}
		records = append(records, rec)
	}
	// Hash iteration order is arbitrary; sort for stable output.
	sort.Slice(records, func(i, j int) bool {
		if records[i].UserName != records[j].UserName {
			return records[i].UserName < records[j].UserName
		}
		return records[i].MovieID < records[j].MovieID
	})
	return records, nil
}

func (s *RedisStore) UserSwipes(ctx context.Context, sessionID, userName string) ([]model.SwipeRecord, error) {
	all, err := s.Swipes(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	var out []model.SwipeRecord
	for _, rec := range all {
		if rec.UserName == userName {
			out = append(out, rec)
		}
	}
	return out, nil
}

func (s *RedisStore) Participants(ctx context.Context, sessionID string) ([]string, error) {
	fields, err := s.client.HKeys(ctx, sessionKey(sessionID)).Result()
	if err != nil {
		return nil, fmt.Errorf("session participants %s: %w", sessionID, err)
	}
	seen := make(map[string]bool)
	var names []string
	for _, f := range fields {
		name, _, ok := strings.Cut(f, "\x00")
		if !ok || seen[name] {
			continue
		}
		seen[name] = true
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

func (s *RedisStore) ClearSession(ctx context.Context, sessionID string) error {
	if err := s.client.Del(ctx, sessionKey(sessionID)).Err(); err != nil {
		return fmt.Errorf("clear session %s: %w", sessionID, err)
	}
	return nil
}
