package service

import (
	"testing"

	"github.com/proctorly/proctorly-backend/internal/model"
	"github.com/proctorly/proctorly-backend/internal/proctor"
)

func mockPolicy() proctor.Policy {
	return proctor.Policy{SecondsPerQuestion: 60, MinDurationSeconds: 300}
}

func generatedQuestion(letter string) model.GeneratedQuestion {
	return model.GeneratedQuestion{
		Question:      "What is 2+2?",
		Options:       []string{"3", "4", "5", "6"},
		CorrectLetter: letter,
		Explanation:   "Basic addition.",
	}
}

func TestBuildMockMaterialNormalizesLetters(t *testing.T) {
	material, err := buildMockMaterial(7, []model.GeneratedQuestion{
		generatedQuestion("B"),
		generatedQuestion("d"),
		generatedQuestion(" A "),
	}, mockPolicy())
	if err != nil {
		t.Fatalf("buildMockMaterial: %v", err)
	}

	want := []int{1, 3, 0}
	for i, w := range want {
		if material.Questions[i].CorrectIndex != w {
			t.Errorf("question %d correct index = %d, want %d", i, material.Questions[i].CorrectIndex, w)
		}
	}
	if material.StudentID != 7 {
		t.Errorf("student = %d, want 7", material.StudentID)
	}
	if material.SessionID == "" {
		t.Error("missing session ID")
	}
	if material.Questions[0].Explanation == "" {
		t.Error("explanation dropped during normalization")
	}
}

func TestBuildMockMaterialDuration(t *testing.T) {
	cases := []struct {
		questions int
		want      int
	}{
		{2, 300},  // floor applies below 5 questions
		{5, 300},  // exactly at the floor
		{10, 600}, // per-question budget above it
	}

	for _, tc := range cases {
		batch := make([]model.GeneratedQuestion, tc.questions)
		for i := range batch {
			batch[i] = generatedQuestion("A")
		}
		material, err := buildMockMaterial(7, batch, mockPolicy())
		if err != nil {
			t.Fatalf("buildMockMaterial(%d): %v", tc.questions, err)
		}
		if material.DurationSeconds != tc.want {
			t.Errorf("%d questions: duration = %d, want %d", tc.questions, material.DurationSeconds, tc.want)
		}
	}
}

func TestBuildMockMaterialRejectsBadLetter(t *testing.T) {
	_, err := buildMockMaterial(7, []model.GeneratedQuestion{
		generatedQuestion("A"),
		generatedQuestion("E"),
	}, mockPolicy())
	if err == nil {
		t.Fatal("expected error for out-of-range letter")
	}
}
