package service

import (
	"context"
	"errors"
	"strings"
	"testing"
)

const validBatch = `[
	{"question": "What is 2+2?", "options": ["3", "4", "5", "6"], "correct_letter": "B", "explanation": "Basic addition."},
	{"question": "What is 3*3?", "options": ["6", "8", "9", "12"], "correct_letter": "C", "explanation": "Basic multiplication."}
]`

func TestParseQuestionBatch(t *testing.T) {
	questions, err := ParseQuestionBatch(validBatch)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(questions) != 2 {
		t.Fatalf("len = %d, want 2", len(questions))
	}
	if questions[0].CorrectLetter != "B" {
		t.Errorf("correct_letter = %q, want B", questions[0].CorrectLetter)
	}
}

func TestParseQuestionBatchStripsFences(t *testing.T) {
	fenced := "```json\n" + validBatch + "\n```"
	questions, err := ParseQuestionBatch(fenced)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(questions) != 2 {
		t.Fatalf("len = %d, want 2", len(questions))
	}
}

func TestParseQuestionBatchRejectsMalformed(t *testing.T) {
	cases := []struct {
		name  string
		input string
	}{
		{"not json", "here are your questions:"},
		{"empty array", `[]`},
		{"empty question text", `[{"question": " ", "options": ["a","b","c","d"], "correct_letter": "A", "explanation": "x"}]`},
		{"three options", `[{"question": "q", "options": ["a","b","c"], "correct_letter": "A", "explanation": "x"}]`},
		{"five options", `[{"question": "q", "options": ["a","b","c","d","e"], "correct_letter": "A", "explanation": "x"}]`},
		{"blank option", `[{"question": "q", "options": ["a","","c","d"], "correct_letter": "A", "explanation": "x"}]`},
		{"letter out of range", `[{"question": "q", "options": ["a","b","c","d"], "correct_letter": "E", "explanation": "x"}]`},
		{"missing explanation", `[{"question": "q", "options": ["a","b","c","d"], "correct_letter": "A", "explanation": ""}]`},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := ParseQuestionBatch(tc.input); err == nil {
				t.Error("expected error, got nil")
			}
		})
	}
}

// One bad question poisons the whole batch.
func TestParseQuestionBatchAllOrNothing(t *testing.T) {
	mixed := `[
		{"question": "good", "options": ["a","b","c","d"], "correct_letter": "A", "explanation": "x"},
		{"question": "bad", "options": ["a","b"], "correct_letter": "A", "explanation": "x"}
	]`
	_, err := ParseQuestionBatch(mixed)
	if err == nil {
		t.Fatal("expected whole batch to fail")
	}
	if !strings.Contains(err.Error(), "question 1") {
		t.Errorf("error should name the offending question, got %v", err)
	}
}

func TestCorrectIndexFromLetter(t *testing.T) {
	for letter, want := range map[string]int{"A": 0, "b": 1, " C ": 2, "d": 3} {
		got, err := CorrectIndexFromLetter(letter)
		if err != nil {
			t.Fatalf("letter %q: %v", letter, err)
		}
		if got != want {
			t.Errorf("letter %q = %d, want %d", letter, got, want)
		}
	}

	for _, bad := range []string{"", "E", "AB", "1"} {
		if _, err := CorrectIndexFromLetter(bad); err == nil {
			t.Errorf("letter %q: expected error", bad)
		}
	}
}

func TestGenerateRejectsShortSource(t *testing.T) {
	s := &GenerationService{}
	_, err := s.Generate(context.Background(), "too short", 10, "medium")
	if !errors.Is(err, ErrSourceTooShort) {
		t.Fatalf("err = %v, want ErrSourceTooShort", err)
	}
}
