// Package mood owns the fixed mood vocabulary: the query-expansion phrases
// used to build retrieval queries and the expected-genre sets used only by
// the evaluation harness. Both tables must cover every enumerated mood;
// Validate enforces that at startup.
package mood

import (
	"fmt"
	"strings"

	"github.com/cinematch/engine/internal/core/model"
)

// expansion maps each mood to a phrase of semantically adjacent words.
// Bare mood words sit too far in embedding space from movie descriptions;
// the expansions were tuned against the genre-alignment metric.
var expansion = map[model.MoodTag]string{
	model.MoodUplifting:   "uplifting feel-good heartwarming inspiring positive comedy family",
	model.MoodNostalgic:   "nostalgic classic retro coming-of-age childhood memories drama romance",
	model.MoodCozy:        "cozy warm comfort feel-good light-hearted family comedy romance",
	model.MoodMindBending: "mind-bending complex twist puzzle science fiction mystery thriller",
	model.MoodDark:        "dark gritty noir disturbing crime horror thriller",
	model.MoodEmotional:   "emotional moving tearjerker heartbreaking drama romance",
	model.MoodAdventurous: "adventurous epic journey quest exploration adventure action fantasy",
	model.MoodRelaxed:     "relaxed easy-going laid-back light comedy drama feel-good",
	model.MoodIntense:     "intense gripping suspenseful high-stakes action thriller crime",
	model.MoodThrilling:   "thrilling suspenseful edge-of-seat tension thriller action horror",
	model.MoodRomantic:    "romantic love story relationship passion romance drama",
	model.MoodFunny:       "funny hilarious comedy humor laugh entertaining",
}

// expectedGenres maps each mood to the genres the evaluation harness
// accepts as aligned. Separate from the expansion table on purpose: one
// shapes queries, the other judges results.
var expectedGenres = map[model.MoodTag][]string{
	model.MoodRomantic:    {"Romance", "Drama"},
	model.MoodFunny:       {"Comedy"},
	model.MoodRelaxed:     {"Comedy", "Drama", "Romance", "Family"},
	model.MoodIntense:     {"Action", "Thriller", "Crime"},
	model.MoodThrilling:   {"Thriller", "Action", "Horror", "Mystery"},
	model.MoodMindBending: {"Science Fiction", "Mystery", "Thriller"},
	model.MoodEmotional:   {"Drama", "Romance"},
	model.MoodAdventurous: {"Adventure", "Action", "Fantasy"},
	model.MoodDark:        {"Horror", "Thriller", "Crime"},
	model.MoodUplifting:   {"Comedy", "Family", "Animation"},
	model.MoodNostalgic:   {"Drama", "Family", "Romance"},
	model.MoodCozy:        {"Comedy", "Romance", "Family", "Animation"},
}

// Validate checks both tables cover the full vocabulary with non-empty
// entries. A miss is a configuration error: fatal at startup, never
// silently defaulted at request time.
func Validate() error {
	for _, m := range model.AllMoods() {
		phrase, ok := expansion[m]
		if !ok || strings.TrimSpace(phrase) == "" {
			return fmt.Errorf("mood %q has no expansion phrase", m)
		}
		genres, ok := expectedGenres[m]
		if !ok || len(genres) == 0 {
			return fmt.Errorf("mood %q has no expected genres", m)
		}
	}
	return nil
}

// Expand returns the expansion phrase for a mood. Unknown moods fall back
// to the raw tag so a note-only or free-form request still searches.
func Expand(m model.MoodTag) string {
	if phrase, ok := expansion[m]; ok {
		return phrase
	}
	return string(m)
}

// ExpectedGenres returns the evaluation genre set for a mood, or nil for
// unknown moods.
func ExpectedGenres(m model.MoodTag) []string {
	return expectedGenres[m]
}

// BuildQuery turns a participant's moods and free-text note into one
// retrieval query string. Moods are expanded; the note is appended
// verbatim. Pure function of its inputs.
func BuildQuery(moods []model.MoodTag, note string) string {
	parts := make([]string, 0, len(moods)+1)
	for _, m := range moods {
		parts = append(parts, Expand(m))
	}
	if n := strings.TrimSpace(note); n != "" {
		parts = append(parts, n)
	}
	return strings.Join(parts, " ")
}
