package proctor

import "math"

// Question is the controller's view of a single quiz question. The option
// set and correct index are fixed at session start.
type Question struct {
	Text         string   `json:"text"`
	Options      []string `json:"options"`
	CorrectIndex int      `json:"correct_index"`
	Explanation  string   `json:"explanation,omitempty"`
}

// QuestionResult is one entry of the per-question review breakdown. It
// reflects the answers exactly as they stood when submission began.
type QuestionResult struct {
	QuestionText  string   `json:"question_text"`
	Options       []string `json:"options"`
	SelectedIndex int      `json:"selected_index"`
	CorrectIndex  int      `json:"correct_index"`
	IsCorrect     bool     `json:"is_correct"`
	Explanation   string   `json:"explanation,omitempty"`
}

// Result is the final bundle handed to the submission collaborator.
type Result struct {
	QuizID           string                `json:"quiz_id"`
	StudentID        int                   `json:"student_id"`
	Score            float64               `json:"score"`
	CorrectCount     int                   `json:"correct_count"`
	TotalCount       int                   `json:"total_count"`
	TimeTakenSeconds int                   `json:"time_taken_seconds"`
	TabSwitchCount   int                   `json:"tab_switch_count"`
	Violations       map[ViolationKind]int `json:"violations"`
	Breakdown        []QuestionResult      `json:"breakdown"`
}

// scoreAnswers grades answers against questions. Unanswered entries (-1)
// count as incorrect and never panic. The percentage is rounded to two
// decimal places; the denominator is always the fixed question count.
func scoreAnswers(questions []Question, answers []int) (score float64, correct int, breakdown []QuestionResult) {
	breakdown = make([]QuestionResult, len(questions))

	for i, q := range questions {
		selected := Unanswered
		if i < len(answers) {
			selected = answers[i]
		}
		ok := selected == q.CorrectIndex && selected != Unanswered
		if ok {
			correct++
		}
		breakdown[i] = QuestionResult{
			QuestionText:  q.Text,
			Options:       q.Options,
			SelectedIndex: selected,
			CorrectIndex:  q.CorrectIndex,
			IsCorrect:     ok,
			Explanation:   q.Explanation,
		}
	}

	score = math.Round(float64(correct)/float64(len(questions))*100*100) / 100
	return score, correct, breakdown
}
