// Package data owns the movie catalog: a JSON reference file read once at
// startup. The repository serves full records to the API layer and
// genre/year metadata to the evaluation harness; ranking itself never
// touches it.
package data

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/cinematch/engine/internal/core/model"
)

type Repository struct {
	movies []model.MovieRecord
	byID   map[int]model.MovieRecord
}

// LoadRepository reads the catalog JSON. Duplicate ids keep the first
// occurrence.
func LoadRepository(path string) (*Repository, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog %s: %w", path, err)
	}
	var movies []model.MovieRecord
	if err := json.Unmarshal(raw, &movies); err != nil {
		return nil, fmt.Errorf("parse catalog %s: %w", path, err)
	}
	return NewRepository(movies), nil
}

// NewRepository builds a repository from in-memory records, de-duplicated
// by id.
func NewRepository(movies []model.MovieRecord) *Repository {
	r := &Repository{byID: make(map[int]model.MovieRecord, len(movies))}
	for _, m := range movies {
		if _, seen := r.byID[m.ID]; seen {
			continue
		}
		r.byID[m.ID] = m
		r.movies = append(r.movies, m)
	}
	return r
}

func (r *Repository) GetByID(id int) (model.MovieRecord, bool) {
	m, ok := r.byID[id]
	return m, ok
}

// GetByIDs returns records for the ids that exist, preserving input order.
func (r *Repository) GetByIDs(ids []int) []model.MovieRecord {
	out := make([]model.MovieRecord, 0, len(ids))
	for _, id := range ids {
		if m, ok := r.byID[id]; ok {
			out = append(out, m)
		}
	}
	return out
}

func (r *Repository) All() []model.MovieRecord {
	return r.movies
}

func (r *Repository) Len() int {
	return len(r.movies)
}
