package service

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/rs/zerolog"
	"github.com/proctorly/proctorly-backend/internal/config"
	"github.com/proctorly/proctorly-backend/internal/model"
)

// Common generation errors.
var (
	ErrSourceTooShort   = errors.New("source text too short")
	ErrGenerationFailed = errors.New("generation failed")
)

const minSourceLength = 200

// GenerationService produces quiz questions and mock-interview content by
// calling an OpenAI-compatible chat completions endpoint.
type GenerationService struct {
	cfg    *config.Config
	client *http.Client
	log    zerolog.Logger
}

// NewGenerationService creates a new GenerationService.
func NewGenerationService(cfg *config.Config, log zerolog.Logger) *GenerationService {
	return &GenerationService{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.LLMTimeout},
		log:    log.With().Str("component", "generation_service").Logger(),
	}
}

// ─── Chat completions wire types ────────────────────────────────────

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
	Stream   bool          `json:"stream,omitempty"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

type chatStreamChunk struct {
	Choices []struct {
		Delta struct {
			Content string `json:"content"`
		} `json:"delta"`
	} `json:"choices"`
}

// ─── Quiz generation ────────────────────────────────────────────────

// Generate produces count multiple-choice questions from the source text.
// The LLM output is parsed strictly; any malformed question fails the
// whole batch rather than silently returning a partial quiz.
func (s *GenerationService) Generate(ctx context.Context, sourceText string, count int, difficulty string) ([]model.GeneratedQuestion, error) {
	if len(strings.TrimSpace(sourceText)) < minSourceLength {
		return nil, ErrSourceTooShort
	}
	if difficulty == "" {
		difficulty = "medium"
	}

	prompt := fmt.Sprintf(
		`Generate exactly %d %s-difficulty multiple-choice questions from the study material below.
Respond with a JSON array only, no prose and no markdown fences. Each element must have:
"question" (string), "options" (array of exactly 4 strings), "correct_letter" ("A", "B", "C" or "D"),
"explanation" (string, why the answer is correct).

Study material:
%s`, count, difficulty, sourceText)

	content, err := s.complete(ctx, []chatMessage{
		{Role: "system", Content: "You are a test author. You output strictly valid JSON."},
		{Role: "user", Content: prompt},
	})
	if err != nil {
		return nil, err
	}

	questions, err := ParseQuestionBatch(content)
	if err != nil {
		s.log.Warn().Err(err).Msg("rejected malformed generation output")
		return nil, fmt.Errorf("%w: %v", ErrGenerationFailed, err)
	}
	return questions, nil
}

// ParseQuestionBatch validates and decodes an LLM question batch. Every
// question must carry exactly four options, a correct letter within range
// and a non-empty explanation.
func ParseQuestionBatch(content string) ([]model.GeneratedQuestion, error) {
	content = stripCodeFences(content)

	var questions []model.GeneratedQuestion
	if err := json.Unmarshal([]byte(content), &questions); err != nil {
		return nil, fmt.Errorf("decode batch: %w", err)
	}
	if len(questions) == 0 {
		return nil, errors.New("empty batch")
	}

	for i, q := range questions {
		if strings.TrimSpace(q.Question) == "" {
			return nil, fmt.Errorf("question %d: empty text", i)
		}
		if len(q.Options) != 4 {
			return nil, fmt.Errorf("question %d: expected 4 options, got %d", i, len(q.Options))
		}
		for j, opt := range q.Options {
			if strings.TrimSpace(opt) == "" {
				return nil, fmt.Errorf("question %d: option %d is empty", i, j)
			}
		}
		if _, err := CorrectIndexFromLetter(q.CorrectLetter); err != nil {
			return nil, fmt.Errorf("question %d: %w", i, err)
		}
		if strings.TrimSpace(q.Explanation) == "" {
			return nil, fmt.Errorf("question %d: missing explanation", i)
		}
	}
	return questions, nil
}

// CorrectIndexFromLetter maps an answer letter (A-D, case-insensitive)
// to its option index.
func CorrectIndexFromLetter(letter string) (int, error) {
	switch strings.ToUpper(strings.TrimSpace(letter)) {
	case "A":
		return 0, nil
	case "B":
		return 1, nil
	case "C":
		return 2, nil
	case "D":
		return 3, nil
	default:
		return 0, fmt.Errorf("invalid correct letter %q", letter)
	}
}

// ─── Mock interview streaming ───────────────────────────────────────

// StreamInterview streams mock-interview questions and model answers for a
// job role, invoking emit for every content chunk as it arrives.
func (s *GenerationService) StreamInterview(ctx context.Context, req *model.InterviewRequest, emit func(chunk string) error) error {
	count := req.Count
	if count == 0 {
		count = 5
	}
	prompt := fmt.Sprintf(
		"Act as an interviewer for a %s position", req.JobRole)
	if req.Experience != "" {
		prompt += fmt.Sprintf(" at %s level", req.Experience)
	}
	prompt += fmt.Sprintf(". Ask %d realistic interview questions one at a time, and after each question provide a strong model answer.", count)

	return s.completeStream(ctx, []chatMessage{
		{Role: "system", Content: "You are an experienced technical interviewer."},
		{Role: "user", Content: prompt},
	}, emit)
}

// ─── HTTP plumbing ──────────────────────────────────────────────────

func (s *GenerationService) complete(ctx context.Context, messages []chatMessage) (string, error) {
	resp, err := s.post(ctx, chatRequest{Model: s.cfg.LLMModel, Messages: messages})
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		s.log.Error().Int("status", resp.StatusCode).Bytes("body", body).Msg("LLM request failed")
		return "", ErrGenerationFailed
	}

	var parsed chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}
	if len(parsed.Choices) == 0 {
		return "", ErrGenerationFailed
	}
	return parsed.Choices[0].Message.Content, nil
}

func (s *GenerationService) completeStream(ctx context.Context, messages []chatMessage, emit func(string) error) error {
	resp, err := s.post(ctx, chatRequest{Model: s.cfg.LLMModel, Messages: messages, Stream: true})
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return ErrGenerationFailed
	}

	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		if !strings.HasPrefix(line, "data: ") {
			continue
		}
		data := strings.TrimPrefix(line, "data: ")
		if data == "[DONE]" {
			return nil
		}

		var chunk chatStreamChunk
		if err := json.Unmarshal([]byte(data), &chunk); err != nil {
			continue
		}
		if len(chunk.Choices) == 0 || chunk.Choices[0].Delta.Content == "" {
			continue
		}
		if err := emit(chunk.Choices[0].Delta.Content); err != nil {
			return err
		}
	}
	return scanner.Err()
}

func (s *GenerationService) post(ctx context.Context, payload chatRequest) (*http.Response, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		strings.TrimRight(s.cfg.LLMBaseURL, "/")+"/chat/completions", bytes.NewReader(raw))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.cfg.LLMAPIKey)

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("call LLM: %w", err)
	}
	return resp, nil
}

func stripCodeFences(content string) string {
	content = strings.TrimSpace(content)
	if strings.HasPrefix(content, "```") {
		content = strings.TrimPrefix(content, "```json")
		content = strings.TrimPrefix(content, "```")
		content = strings.TrimSuffix(strings.TrimSpace(content), "```")
	}
	return strings.TrimSpace(content)
}
