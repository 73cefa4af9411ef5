package mood

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cinematch/engine/internal/core/model"
)

func TestValidateShippedTables(t *testing.T) {
	assert.NoError(t, Validate())
}

func TestExpandKnownMood(t *testing.T) {
	phrase := Expand(model.MoodRelaxed)
	assert.NotEqual(t, string(model.MoodRelaxed), phrase)
	assert.NotEmpty(t, phrase)
}

func TestExpandUnknownMoodFallsBackToTag(t *testing.T) {
	assert.Equal(t, "melancholic", Expand(model.MoodTag("melancholic")))
}

func TestExpectedGenres(t *testing.T) {
	genres := ExpectedGenres(model.MoodFunny)
	require.NotEmpty(t, genres)
	assert.Contains(t, genres, "Comedy")

	assert.Nil(t, ExpectedGenres(model.MoodTag("unknown")))
}

func TestBuildQueryJoinsExpansionsAndNote(t *testing.T) {
	q := BuildQuery([]model.MoodTag{model.MoodRomantic, model.MoodFunny}, "  date night  ")

	assert.Contains(t, q, Expand(model.MoodRomantic))
	assert.Contains(t, q, Expand(model.MoodFunny))
	assert.True(t, strings.HasSuffix(q, "date night"))
}

func TestBuildQueryNoteOnly(t *testing.T) {
	assert.Equal(t, "something scary", BuildQuery(nil, "something scary"))
}

func TestBuildQueryEmpty(t *testing.T) {
	assert.Equal(t, "", BuildQuery(nil, "   "))
}

func TestBuildQueryIsDeterministic(t *testing.T) {
	moods := []model.MoodTag{model.MoodDark, model.MoodThrilling}
	first := BuildQuery(moods, "slow burn")
	for i := 0; i < 5; i++ {
		assert.Equal(t, first, BuildQuery(moods, "slow burn"))
	}
}
