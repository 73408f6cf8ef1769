package generate

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/quizforge/quizforge/internal/quiz"
)

type rawQuestion struct {
	Question     string   `json:"question"`
	Options      []string `json:"options"`
	CorrectIndex *int     `json:"correct_index"`
	Difficulty   string   `json:"difficulty"`
	Explanation  string   `json:"explanation"`
}

type rawBatch struct {
	Questions []rawQuestion `json:"questions"`
}

// parseQuestions decodes a model response that may be wrapped in markdown
// fencing or surrounding prose. Items missing a prompt, a correct index, or
// exactly four options are dropped individually; the call fails only when
// nothing decodable or no valid item remains.
func parseQuestions(raw string) ([]quiz.Question, error) {
	text := stripFences(strings.TrimSpace(raw))
	// Bare newlines inside JSON strings are a common model defect.
	text = strings.ReplaceAll(text, "\n", " ")
	text = strings.ReplaceAll(text, "\r", "")

	var batch rawBatch
	if err := json.Unmarshal([]byte(text), &batch); err != nil {
		obj, extractErr := outermostObject(text)
		if extractErr != nil {
			return nil, fmt.Errorf("decoding model response: %w", err)
		}
		if err := json.Unmarshal([]byte(obj), &batch); err != nil {
			return nil, fmt.Errorf("decoding extracted JSON object: %w", err)
		}
	}

	if batch.Questions == nil {
		return nil, errors.New(`model response missing "questions" field`)
	}

	questions := make([]quiz.Question, 0, len(batch.Questions))
	for _, rq := range batch.Questions {
		if strings.TrimSpace(rq.Question) == "" || rq.CorrectIndex == nil {
			continue
		}
		if len(rq.Options) != quiz.OptionCount {
			continue
		}

		options := make([]string, quiz.OptionCount)
		for i, opt := range rq.Options {
			options[i] = strings.TrimSpace(opt)
		}

		difficulty := rq.Difficulty
		if difficulty == "" {
			difficulty = string(quiz.DifficultyMedium)
		}

		questions = append(questions, quiz.Question{
			ID:           fmt.Sprintf("q_%d", len(questions)+1),
			Text:         strings.TrimSpace(rq.Question),
			Options:      options,
			CorrectIndex: *rq.CorrectIndex,
			Difficulty:   quiz.Difficulty(difficulty),
			Explanation:  strings.TrimSpace(rq.Explanation),
		})
	}

	if len(questions) == 0 {
		return nil, errors.New("no valid questions in model response")
	}

	return questions, nil
}

// stripFences removes a ```json ... ``` (or plain ```) wrapper if present.
func stripFences(text string) string {
	if idx := strings.Index(text, "```json"); idx >= 0 {
		text = text[idx+len("```json"):]
		if end := strings.Index(text, "```"); end >= 0 {
			text = text[:end]
		}
		return strings.TrimSpace(text)
	}
	if idx := strings.Index(text, "```"); idx >= 0 {
		text = text[idx+len("```"):]
		if end := strings.Index(text, "```"); end >= 0 {
			text = text[:end]
		}
		return strings.TrimSpace(text)
	}
	return text
}

// outermostObject locates the first brace-matched top-level JSON object in
// text. Returns an error when no opening brace exists or the object never
// closes (truncated response).
func outermostObject(text string) (string, error) {
	start := strings.Index(text, "{")
	if start < 0 {
		return "", errors.New("no JSON object found")
	}

	depth := 0
	for i := start; i < len(text); i++ {
		switch text[i] {
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return text[start : i+1], nil
			}
		}
	}
	return "", errors.New("incomplete JSON object")
}
