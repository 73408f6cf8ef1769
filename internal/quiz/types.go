package quiz

import "time"

// OptionCount is the number of answer options every question carries.
const OptionCount = 4

// Difficulty is a closed set of question difficulty tags.
type Difficulty string

const (
	DifficultyEasy     Difficulty = "easy"
	DifficultyMedium   Difficulty = "medium"
	DifficultyHard     Difficulty = "hard"
	DifficultyVeryHard Difficulty = "very_hard"
)

// CoerceDifficulty maps an arbitrary tag onto the closed set. Unknown values
// become medium rather than being rejected.
func CoerceDifficulty(tag string) Difficulty {
	switch Difficulty(tag) {
	case DifficultyEasy, DifficultyMedium, DifficultyHard, DifficultyVeryHard:
		return Difficulty(tag)
	default:
		return DifficultyMedium
	}
}

// Question is a single generated multiple-choice item. Options always holds
// exactly OptionCount entries and CorrectIndex points into it.
type Question struct {
	ID           string     `json:"id"`
	Text         string     `json:"question"`
	Options      []string   `json:"options"`
	CorrectIndex int        `json:"correct_index"`
	Difficulty   Difficulty `json:"difficulty"`
	Explanation  string     `json:"explanation"`
}

// Fragment is one source document's extracted text as a unit of proportional
// question allocation.
type Fragment struct {
	Name      string `json:"name"`
	Text      string `json:"text"`
	WordCount int    `json:"word_count"`
	CharCount int    `json:"char_count,omitempty"`
}

// JobPayload is the unit of work a submitted job carries. A single-source
// job holds exactly one fragment; a multi-source job holds several and is
// dispatched through the proportional allocator.
type JobPayload struct {
	Title     string     `json:"title,omitempty"`
	Count     int        `json:"count"`
	Fragments []Fragment `json:"fragments"`
}

// Meta carries display metadata for a rendered quiz.
type Meta struct {
	Title       string
	SourceNames []string
	GeneratedAt time.Time
}
