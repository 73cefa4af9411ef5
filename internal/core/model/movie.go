package model

// MovieRecord is the immutable reference data for one movie. Loaded once
// from the catalog and owned by the retrieval index.
type MovieRecord struct {
	ID          int      `json:"id"`
	Title       string   `json:"title"`
	Genres      []string `json:"genres"`
	Overview    string   `json:"overview"`
	ReleaseYear string   `json:"release_year,omitempty"`
	VoteAverage float64  `json:"vote_average,omitempty"`
	PosterURL   string   `json:"poster_url,omitempty"`
	TrailerKey  string   `json:"trailer_key,omitempty"`
}

// HasGenre reports whether the movie carries any of the given genres.
func (m MovieRecord) HasGenre(genres []string) bool {
	for _, want := range genres {
		for _, g := range m.Genres {
			if g == want {
				return true
			}
		}
	}
	return false
}
