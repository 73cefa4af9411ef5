package model

// Recommendation is one movie in the final, user-facing list, with the
// re-ranker's (or fallback's) explanation of why it fits the group.
type Recommendation struct {
	ID          int      `json:"id"`
	Title       string   `json:"title"`
	Why         string   `json:"why"`
	PosterURL   string   `json:"poster_url,omitempty"`
	Overview    string   `json:"overview,omitempty"`
	VoteAverage float64  `json:"vote_average,omitempty"`
	ReleaseYear string   `json:"release_year,omitempty"`
	Genres      []string `json:"genres"`
	TrailerKey  string   `json:"trailer_key,omitempty"`
}
