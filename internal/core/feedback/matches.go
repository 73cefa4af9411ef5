package feedback

import (
	"context"
	"sort"

	"github.com/cinematch/engine/internal/core/model"
)

const majorityThreshold = 75.0

// Matches computes the group's agreed movies from the session log.
//
// Rules: a like is a vote for, a dislike is a veto (blocks the match
// outright), a skip is not a vote. Perfect = every session user liked it;
// majority = at least 75% liked it with nobody vetoing.
func (l *Learner) Matches(ctx context.Context, sessionID string) (model.SessionMatches, error) {
	out := model.SessionMatches{Perfect: []model.MovieMatch{}, Majority: []model.MovieMatch{}}

	users, err := l.store.Participants(ctx, sessionID)
	if err != nil {
		return out, err
	}
	if len(users) == 0 {
		return out, nil
	}

	swipes, err := l.store.Swipes(ctx, sessionID)
	if err != nil {
		return out, err
	}

	// movie -> user -> latest verdict
	votes := make(map[int]map[string]model.SwipeAction)
	for _, rec := range swipes {
		m, ok := votes[rec.MovieID]
		if !ok {
			m = make(map[string]model.SwipeAction)
			votes[rec.MovieID] = m
		}
		m[rec.UserName] = rec.Action
	}

	movieIDs := make([]int, 0, len(votes))
	for id := range votes {
		movieIDs = append(movieIDs, id)
	}
	sort.Ints(movieIDs)

	for _, movieID := range movieIDs {
		likeCount := 0
		voters := 0
		vetoed := false
		recorded := make(map[string]model.SwipeAction)

		for _, user := range users {
			action, ok := votes[movieID][user]
			if !ok {
				continue
			}
			recorded[user] = action
			switch action {
			case model.SwipeLike:
				likeCount++
				voters++
			case model.SwipeDislike:
				vetoed = true
				voters++
			}
		}

		if vetoed || likeCount == 0 {
			continue
		}

		percentage := float64(likeCount) / float64(len(users)) * 100

		match := model.MovieMatch{
			MovieID:     movieID,
			Votes:       recorded,
			Percentage:  percentage,
			LikedCount:  likeCount,
			TotalVoters: voters,
		}

		switch {
		case likeCount == len(users):
			match.Percentage = 100
			out.Perfect = append(out.Perfect, match)
		case percentage >= majorityThreshold:
			out.Majority = append(out.Majority, match)
		}
	}

	return out, nil
}
