package common

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type payload struct {
	Name  string `json:"name"`
	Value int    `json:"value"`
}

func TestParseJSONObject(t *testing.T) {
	got, err := ParseJSON[payload](`{"name": "a", "value": 2}`)
	require.NoError(t, err)
	assert.Equal(t, payload{Name: "a", Value: 2}, got)
}

func TestParseJSONArray(t *testing.T) {
	got, err := ParseJSON[[]payload](`[{"name": "a", "value": 1}, {"name": "b", "value": 2}]`)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "b", got[1].Name)
}

func TestParseJSONStripsMarkdownFence(t *testing.T) {
	resp := "```json\n[{\"name\": \"a\", \"value\": 1}]\n```"
	got, err := ParseJSON[[]payload](resp)
	require.NoError(t, err)
	require.Len(t, got, 1)
}

func TestParseJSONToleratesProse(t *testing.T) {
	resp := "Sure! Here is the list you asked for:\n[{\"name\": \"a\", \"value\": 1}]\nLet me know."
	got, err := ParseJSON[[]payload](resp)
	require.NoError(t, err)
	require.Len(t, got, 1)
}

func TestParseJSONArrayOfObjectsPicksArray(t *testing.T) {
	// The array opens before any object brace closes; the slice must
	// cover the whole array, not the first object.
	resp := `result: [{"name": "a", "value": 1}, {"name": "b", "value": 2}] done`
	got, err := ParseJSON[[]payload](resp)
	require.NoError(t, err)
	assert.Len(t, got, 2)
}

func TestParseJSONMissingValue(t *testing.T) {
	_, err := ParseJSON[payload]("no json here")
	assert.Error(t, err)

	_, err = ParseJSON[payload]("{ truncated")
	assert.Error(t, err)
}

func TestParseJSONMalformed(t *testing.T) {
	_, err := ParseJSON[payload](`{"name": }`)
	assert.Error(t, err)
}
