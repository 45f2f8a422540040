package model

// GenerateQuizRequest asks the generation collaborator for a mock test.
// Source text comes either from the request body or from an uploaded PDF.
type GenerateQuizRequest struct {
	SourceText string `json:"source_text" binding:"omitempty,max=100000"`
	Count      int    `json:"count" binding:"required,min=1,max=50"`
	Difficulty string `json:"difficulty" binding:"omitempty,oneof=easy medium hard"`
}

// GeneratedQuestion is one question as produced by the LLM. The correct
// answer arrives as a letter (A-D) rather than a numeric index and always
// carries an explanation for the review screen.
type GeneratedQuestion struct {
	Question      string   `json:"question"`
	Options       []string `json:"options"`
	CorrectLetter string   `json:"correct_letter"`
	Explanation   string   `json:"explanation"`
}

// MockSessionRequest asks for an ad-hoc practice session generated from
// study material. Unlike teacher generation, the batch goes straight into
// a live proctored session instead of the quiz catalog.
type MockSessionRequest struct {
	SourceText string `json:"source_text" binding:"required,max=100000"`
	Count      int    `json:"count" binding:"required,min=1,max=50"`
	Difficulty string `json:"difficulty" binding:"omitempty,oneof=easy medium hard"`
}

// InterviewRequest asks for streamed mock-interview Q&A.
type InterviewRequest struct {
	JobRole    string `json:"job_role" binding:"required,min=2,max=200"`
	Experience string `json:"experience" binding:"omitempty,max=50"`
	Count      int    `json:"count" binding:"omitempty,min=1,max=20"`
}
