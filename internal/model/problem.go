package model

import "time"

// Difficulty levels accepted for a problem.
const (
	DifficultyEasy   = "Easy"
	DifficultyMedium = "Medium"
	DifficultyHard   = "Hard"
)

// ValidDifficulty reports whether d is one of the accepted difficulty levels.
func ValidDifficulty(d string) bool {
	return d == DifficultyEasy || d == DifficultyMedium || d == DifficultyHard
}

// Reactions counts the two reaction types a problem can receive.
type Reactions struct {
	Fire  uint32 `json:"fire"`
	Check uint32 `json:"check"`
}

// ProblemPost is a comment or a proposed answer attached to a problem.
type ProblemPost struct {
	ID        uint64    `json:"id"`
	Username  string    `json:"username"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"timestamp"`
}

// Problem mirrors the 'problems' table plus its attached comments and answers.
type Problem struct {
	ID          uint64        `json:"id"`
	Title       string        `json:"title"`
	Description string        `json:"description"`
	Tags        []string      `json:"tags"`
	Difficulty  string        `json:"difficulty"`
	Reactions   Reactions     `json:"reactions"`
	Comments    []ProblemPost `json:"comments"`
	Answers     []ProblemPost `json:"answers"`
	CreatedAt   time.Time     `json:"createdAt"`
	UpdatedAt   time.Time     `json:"updatedAt"`
}
