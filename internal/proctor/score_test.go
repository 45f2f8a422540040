package proctor

import "testing"

func questionsWithKey(key []int) []Question {
	qs := make([]Question, len(key))
	for i, c := range key {
		qs[i] = Question{
			Text:         "q",
			Options:      []string{"a", "b", "c", "d"},
			CorrectIndex: c,
			Explanation:  "because",
		}
	}
	return qs
}

func TestScoreReferenceCase(t *testing.T) {
	key := []int{0, 1, 2, 3, 0, 1, 2, 3, 0, 2}
	answers := []int{0, 1, 2, -1, 0, 1, 2, 3, 0, 1}

	score, correct, breakdown := scoreAnswers(questionsWithKey(key), answers)

	if correct != 8 {
		t.Fatalf("correct = %d, want 8", correct)
	}
	if score != 80.00 {
		t.Fatalf("score = %v, want 80.00", score)
	}
	if breakdown[3].IsCorrect {
		t.Error("unanswered question graded correct")
	}
	if breakdown[3].SelectedIndex != Unanswered {
		t.Errorf("breakdown[3].SelectedIndex = %d, want -1", breakdown[3].SelectedIndex)
	}
	if breakdown[9].IsCorrect {
		t.Error("mismatched answer graded correct")
	}
	if breakdown[0].Explanation != "because" {
		t.Error("explanation not carried into breakdown")
	}
}

func TestScoreRoundsToTwoDecimals(t *testing.T) {
	// 1 of 3 correct = 33.333... -> 33.33
	key := []int{0, 0, 0}
	answers := []int{0, 1, 1}

	score, correct, _ := scoreAnswers(questionsWithKey(key), answers)
	if correct != 1 {
		t.Fatalf("correct = %d, want 1", correct)
	}
	if score != 33.33 {
		t.Errorf("score = %v, want 33.33", score)
	}

	// 2 of 3 = 66.666... -> 66.67
	answers = []int{0, 0, 1}
	score, _, _ = scoreAnswers(questionsWithKey(key), answers)
	if score != 66.67 {
		t.Errorf("score = %v, want 66.67", score)
	}
}

func TestScoreAllUnansweredNeverPanics(t *testing.T) {
	key := []int{1, 2}
	score, correct, breakdown := scoreAnswers(questionsWithKey(key), []int{-1, -1})

	if correct != 0 || score != 0 {
		t.Errorf("score/correct = %v/%d, want 0/0", score, correct)
	}
	if len(breakdown) != 2 {
		t.Errorf("breakdown length = %d, want 2", len(breakdown))
	}
}

func TestGeneratedDurationPolicy(t *testing.T) {
	p := DefaultPolicy()

	if got := p.GeneratedDuration(3); got != p.MinDurationSeconds {
		t.Errorf("duration for 3 questions = %d, want floor %d", got, p.MinDurationSeconds)
	}
	if got := p.GeneratedDuration(20); got != 20*p.SecondsPerQuestion {
		t.Errorf("duration for 20 questions = %d, want %d", got, 20*p.SecondsPerQuestion)
	}
}
