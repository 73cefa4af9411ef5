package model

// MoodTag is one entry of the fixed mood vocabulary. Every tag must map to
// a query-expansion phrase and an expected-genre set; completeness is
// checked at startup.
type MoodTag string

const (
	MoodRelaxed     MoodTag = "relaxed"
	MoodIntense     MoodTag = "intense"
	MoodFunny       MoodTag = "funny"
	MoodRomantic    MoodTag = "romantic"
	MoodMindBending MoodTag = "mind-bending"
	MoodDark        MoodTag = "dark"
	MoodUplifting   MoodTag = "uplifting"
	MoodNostalgic   MoodTag = "nostalgic"
	MoodAdventurous MoodTag = "adventurous"
	MoodEmotional   MoodTag = "emotional"
	MoodCozy        MoodTag = "cozy"
	MoodThrilling   MoodTag = "thrilling"
)

// AllMoods lists the full vocabulary in a stable order.
func AllMoods() []MoodTag {
	return []MoodTag{
		MoodRelaxed, MoodIntense, MoodFunny, MoodRomantic,
		MoodMindBending, MoodDark, MoodUplifting, MoodNostalgic,
		MoodAdventurous, MoodEmotional, MoodCozy, MoodThrilling,
	}
}

// Participant is one person's preferences for a single request. Ephemeral;
// never persisted beyond the session.
type Participant struct {
	Name  string    `json:"name"`
	Moods []MoodTag `json:"moods"`
	Note  string    `json:"note,omitempty"`
}
