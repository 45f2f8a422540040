package service

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/proctorly/proctorly-backend/internal/model"
)

func TestBuildPaperRedactsAnswers(t *testing.T) {
	quiz := &model.Quiz{
		ID:              uuid.New(),
		Title:           "Algebra Basics",
		DurationMinutes: 45,
	}
	questions := []model.Question{
		{
			ID:           uuid.New(),
			QuestionText: "What is x if 2x = 8?",
			Options:      []string{"2", "4", "6", "8"},
			CorrectIndex: 1,
			Explanation:  "Divide both sides by 2.",
			OrderNum:     1,
		},
		{
			ID:           uuid.New(),
			QuestionText: "What is 5-3?",
			Options:      []string{"1", "2", "3", "4"},
			CorrectIndex: 1,
			Explanation:  "Subtraction.",
			OrderNum:     2,
		},
	}

	paper := BuildPaper(quiz, questions)

	if paper.QuizID != quiz.ID {
		t.Error("quiz ID not carried")
	}
	if paper.DurationMinutes != 45 {
		t.Errorf("duration = %d, want 45", paper.DurationMinutes)
	}
	if len(paper.Questions) != 2 {
		t.Fatalf("questions = %d, want 2", len(paper.Questions))
	}
	if paper.Questions[0].QuestionText != questions[0].QuestionText {
		t.Error("question text not carried")
	}

	// The serialized paper is what reaches the browser. It must not
	// contain the key or the explanations in any form.
	raw, err := json.Marshal(paper)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	for _, leak := range []string{"correct_index", "explanation", "Divide both sides"} {
		if strings.Contains(string(raw), leak) {
			t.Errorf("paper leaks %q", leak)
		}
	}
}

func TestBuildPaperEmptyQuiz(t *testing.T) {
	paper := BuildPaper(&model.Quiz{ID: uuid.New()}, nil)
	if paper.Questions == nil {
		t.Error("questions should be an empty slice, not nil")
	}
	if len(paper.Questions) != 0 {
		t.Errorf("questions = %d, want 0", len(paper.Questions))
	}
}
