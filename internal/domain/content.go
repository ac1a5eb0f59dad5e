package domain

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// LearnContent is a video lesson attached to a milestone
type LearnContent struct {
	ID                  int            `json:"id"`
	Milestone           string         `json:"milestone"`
	Title               string         `json:"title"`
	VideoURL            string         `json:"video_url"`
	AudioURL            *string        `json:"audio_url"`
	Transcript          string         `json:"transcript"`
	AdditionalResources map[string]any `json:"additional_resources"`
	Order               int            `json:"order"`
	IsAdditional        bool           `json:"is_additional"`
}

// SortLearnContents orders lessons by Order in place
func SortLearnContents(cs []LearnContent) {
	sort.SliceStable(cs, func(i, j int) bool {
		return cs[i].Order < cs[j].Order
	})
}

// CodeQuestion is the coding task of a milestone
type CodeQuestion struct {
	ID          string  `json:"id"`
	Milestone   string  `json:"milestone"`
	Question    string  `json:"question"`
	ExampleCode string  `json:"example_code"`
	Hint        string  `json:"hint"`
	VideoURL    *string `json:"video_url"`
	AudioURL    *string `json:"audio_url"`
}

// MCQQuestion is one multiple-choice question. Options maps an option key
// such as "A" to its label.
type MCQQuestion struct {
	ID            string            `json:"id"`
	Milestone     string            `json:"milestone"`
	QuestionText  string            `json:"question_text"`
	Options       map[string]string `json:"options"`
	CorrectAnswer string            `json:"correct_answer"`
	Explanation   string            `json:"explanation"`
	Order         int               `json:"order"`
}

// OptionKeys returns the option keys in lexical order
func (q MCQQuestion) OptionKeys() []string {
	keys := make([]string, 0, len(q.Options))
	for k := range q.Options {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// NormalizeOption upper-cases and validates an option key against the question
func (q MCQQuestion) NormalizeOption(option string) (string, error) {
	key := cases.Upper(language.Und).String(strings.TrimSpace(option))
	if _, ok := q.Options[key]; !ok {
		return "", fmt.Errorf("%w: option %q not offered by question %s", ErrInvalidInput, option, q.ID)
	}
	return key, nil
}

// SortMCQQuestions orders questions by Order in place
func SortMCQQuestions(qs []MCQQuestion) {
	sort.SliceStable(qs, func(i, j int) bool {
		return qs[i].Order < qs[j].Order
	})
}

// CodeSubmission is the judge's verdict for a code run
type CodeSubmission struct {
	UserCode    string `json:"user_code"`
	Output      string `json:"output"`
	Hints       string `json:"hints"`
	Suggestions string `json:"suggestions"`
	IsCorrect   bool   `json:"is_correct"`
	Attempts    int    `json:"attempts"`
	Status      string `json:"status,omitempty"`
	Message     string `json:"message,omitempty"`
}

// MCQResult is the judge's verdict for one quiz answer
type MCQResult struct {
	IsCorrect     bool   `json:"is_correct"`
	CorrectAnswer string `json:"correct_answer"`
	Explanation   string `json:"explanation"`
}

// Difficulty of a personalized exercise
type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

// ParseDifficulty parses a difficulty, defaulting to easy
func ParseDifficulty(s string) (Difficulty, error) {
	switch Difficulty(strings.ToLower(strings.TrimSpace(s))) {
	case "", DifficultyEasy:
		return DifficultyEasy, nil
	case DifficultyMedium:
		return DifficultyMedium, nil
	case DifficultyHard:
		return DifficultyHard, nil
	}
	return "", fmt.Errorf("%w: unknown difficulty %q", ErrInvalidInput, s)
}

// PersonalizedExercise is a practice task generated for a single learner
type PersonalizedExercise struct {
	ID            string     `json:"id"`
	Question      string     `json:"question"`
	GeneratedCode string     `json:"generated_code"`
	Difficulty    Difficulty `json:"difficulty"`
	Output        string     `json:"output"`
	Hints         string     `json:"hints"`
	Suggestions   string     `json:"suggestions"`
	IsCompleted   bool       `json:"is_completed"`
	Attempts      int        `json:"attempts"`
	Encouragement string     `json:"encouragement,omitempty"`
	FocusArea     string     `json:"focus_area,omitempty"`
	CreatedAt     time.Time  `json:"created_at,omitempty"`
}
