package domain

import (
	"errors"
	"reflect"
	"testing"
)

func TestMCQQuestion_NormalizeOption(t *testing.T) {
	q := MCQQuestion{ID: "q1", Options: map[string]string{"A": "print", "B": "echo"}}

	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{"A", "A", false},
		{"b", "B", false},
		{" a ", "A", false},
		{"C", "", true},
		{"", "", true},
	}
	for _, tt := range tests {
		got, err := q.NormalizeOption(tt.in)
		if tt.wantErr {
			if !errors.Is(err, ErrInvalidInput) {
				t.Errorf("NormalizeOption(%q) error = %v, want ErrInvalidInput", tt.in, err)
			}
			continue
		}
		if err != nil || got != tt.want {
			t.Errorf("NormalizeOption(%q) = %q, %v, want %q", tt.in, got, err, tt.want)
		}
	}

	if keys := q.OptionKeys(); !reflect.DeepEqual(keys, []string{"A", "B"}) {
		t.Errorf("OptionKeys() = %v", keys)
	}
}

func TestParseDifficulty(t *testing.T) {
	tests := map[string]Difficulty{
		"":       DifficultyEasy,
		"easy":   DifficultyEasy,
		"Medium": DifficultyMedium,
		" hard ": DifficultyHard,
	}
	for in, want := range tests {
		got, err := ParseDifficulty(in)
		if err != nil || got != want {
			t.Errorf("ParseDifficulty(%q) = %q, %v, want %q", in, got, err, want)
		}
	}
	if _, err := ParseDifficulty("expert"); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("ParseDifficulty(expert) error = %v, want ErrInvalidInput", err)
	}
}

func TestSortContent(t *testing.T) {
	qs := []MCQQuestion{{ID: "b", Order: 2}, {ID: "a", Order: 1}}
	SortMCQQuestions(qs)
	if qs[0].ID != "a" {
		t.Errorf("SortMCQQuestions() first = %s, want a", qs[0].ID)
	}

	ls := []LearnContent{{ID: 2, Order: 3}, {ID: 1, Order: 1}}
	SortLearnContents(ls)
	if ls[0].ID != 1 {
		t.Errorf("SortLearnContents() first = %d, want 1", ls[0].ID)
	}
}
