package generate

import (
	"fmt"
	"strings"
)

const systemPrompt = "You are an expert author of multiple-choice exam questions. " +
	"You always answer with a single valid JSON object and nothing else."

// buildPrompt assembles the generation prompt, truncating the source text to
// maxChars. Truncation is silent: word counts reported to callers reflect the
// full text, not what was actually fed to the model.
func buildPrompt(text string, count int, sourceName string, maxChars int) string {
	if len(text) > maxChars {
		text = text[:maxChars] + "..."
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Create exactly %d multiple-choice questions from the following text", count))
	if sourceName != "" {
		sb.WriteString(fmt.Sprintf(" (taken from the file %q)", sourceName))
	}
	sb.WriteString(":\n\n")
	sb.WriteString(text)
	sb.WriteString("\n\nRequirements:\n")
	sb.WriteString("1. Every question has exactly 4 answer options\n")
	sb.WriteString("2. Exactly one option is correct\n")
	sb.WriteString("3. Difficulty distribution: 10% easy, 20% medium, 40% hard, 30% very_hard\n")
	sb.WriteString("4. Questions must rely only on knowledge present in the text\n")
	sb.WriteString("5. Questions must be clear and unambiguous\n")
	sb.WriteString("6. Wrong options must be plausible distractors\n")
	sb.WriteString("\nReturn only a valid, complete JSON object with no text before or after it.\n")
	sb.WriteString("Make sure every string is properly quoted and closed.\n\n")
	sb.WriteString(`Required JSON format:
{
  "questions": [
    {
      "question": "question text",
      "options": ["option 1", "option 2", "option 3", "option 4"],
      "correct_index": 0,
      "difficulty": "medium",
      "explanation": "why the answer is correct"
    }
  ]
}

Return only the JSON, nothing else.`)

	return sb.String()
}
