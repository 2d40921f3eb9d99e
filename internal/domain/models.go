package domain

import (
	"fmt"
	"strings"
)

// Level is the difficulty tag attached to every question.
type Level string

const (
	LevelBasic        Level = "basic"
	LevelIntermediate Level = "intermediate"
	LevelAdvanced     Level = "advanced"
)

// Levels lists the supported difficulty levels in ascending order.
var Levels = []Level{LevelBasic, LevelIntermediate, LevelAdvanced}

// ParseLevel accepts the level names case-insensitively ("Basic", "basic", ...).
func ParseLevel(raw string) (Level, error) {
	switch Level(strings.ToLower(strings.TrimSpace(raw))) {
	case LevelBasic:
		return LevelBasic, nil
	case LevelIntermediate:
		return LevelIntermediate, nil
	case LevelAdvanced:
		return LevelAdvanced, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidLevel, raw)
}

// QuizDefinition identifies a quiz. Process is the grouping key (turning, milling, ...).
type QuizDefinition struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Process     string `json:"process"`
	Available   bool   `json:"available"`
}

// Question is a multiple choice question with a single correct option.
type Question struct {
	ID            string   `json:"id"`
	Prompt        string   `json:"question_text"`
	Options       []string `json:"options"`
	CorrectOption int      `json:"correct_option"`
	Explanation   string   `json:"explanation"`
	Level         Level    `json:"level"`
}

// Valid reports whether the question has at least two options and CorrectOption indexes one of them.
func (q Question) Valid() bool {
	return len(q.Options) >= 2 && q.CorrectOption >= 0 && q.CorrectOption < len(q.Options)
}

// ProgressEntry is the persisted per-quiz record. BestScore is a percentage (0-100).
type ProgressEntry struct {
	Completed bool `json:"completed"`
	BestScore *int `json:"bestScore,omitempty"`
}

// Achievement is one entry of the fixed achievement catalog. Only Unlocked and Date change.
type Achievement struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Icon        string `json:"icon"`
	Unlocked    bool   `json:"unlocked"`
	Date        string `json:"date,omitempty"`
}

// ActivityLog maps an ISO date (YYYY-MM-DD) to the number of completions on that day.
type ActivityLog map[string]int
