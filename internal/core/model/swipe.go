package model

import "time"

// SwipeAction is the user's verdict on one movie card.
type SwipeAction string

const (
	SwipeLike    SwipeAction = "like"
	SwipeDislike SwipeAction = "dislike"
	// SwipeSkip is "not reviewed", not a preference signal; it never
	// mutates the preference vector and never counts as a vote.
	SwipeSkip SwipeAction = "skip"
)

// Valid reports whether the action is one of the known verbs.
func (a SwipeAction) Valid() bool {
	switch a {
	case SwipeLike, SwipeDislike, SwipeSkip:
		return true
	}
	return false
}

// SwipeRecord is one entry of the append-only per-session swipe log.
type SwipeRecord struct {
	SessionID string      `json:"session_id"`
	UserName  string      `json:"user_name"`
	MovieID   int         `json:"movie_id"`
	Action    SwipeAction `json:"action"`
	Round     int         `json:"round,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
}

// SwipeStats counts one user's swipes within a session.
type SwipeStats struct {
	Total    int `json:"total"`
	Likes    int `json:"likes"`
	Dislikes int `json:"dislikes"`
	Skips    int `json:"skips"`
}

// MovieMatch is a movie the group agreed on, with the votes that got it
// there. Percentage is likes over total session users.
type MovieMatch struct {
	MovieID     int                    `json:"movie_id"`
	Title       string                 `json:"title,omitempty"`
	PosterURL   string                 `json:"poster_url,omitempty"`
	Votes       map[string]SwipeAction `json:"votes"`
	Percentage  float64                `json:"match_percentage"`
	LikedCount  int                    `json:"liked_count,omitempty"`
	TotalVoters int                    `json:"total_voters,omitempty"`
}

// SessionMatches splits matches into unanimous and majority buckets.
type SessionMatches struct {
	Perfect  []MovieMatch `json:"perfect"`
	Majority []MovieMatch `json:"majority"`
}
