package analysis

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/xhad/ideascout/internal/types"
)

// Refiner drives the idea refinement loop: naming a fresh idea and
// revising it through follow-up questions and answers.
type Refiner struct {
	oracle types.Completer
	logger *slog.Logger
}

func NewRefiner(oracle types.Completer, logger *slog.Logger) *Refiner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Refiner{oracle: oracle, logger: logger}
}

func questionThemes() string {
	var b strings.Builder
	for _, theme := range startupQuestionThemes {
		fmt.Fprintf(&b, "- %s\n", theme)
	}
	return b.String()
}

// NameAndQuestion generates a short name for the idea and the first
// clarifying question to the founder.
func (r *Refiner) NameAndQuestion(ctx context.Context, description string) (name, question string, err error) {
	userPrompt := fmt.Sprintf(`Given this startup idea: %s
1. Generate a few words that summarize the idea (2-4 words max)
2. Generate 1 critical question to the founder about the idea to better understand and refine the idea (Use you to refer to the founder)

Consider these general questions as guidance:
%s
Respond with a JSON object containing:
{
  "name": "your generated name",
  "question": "your generated question"
}`, description, questionThemes())

	text, err := r.oracle.Complete(ctx, startupAdvisorPrompt, userPrompt, true)
	if err != nil {
		return "", "", fmt.Errorf("name and question: %w", err)
	}

	var parsed struct {
		Name     string `json:"name"`
		Question string `json:"question"`
	}
	if err := json.Unmarshal([]byte(text), &parsed); err != nil {
		return "", "", fmt.Errorf("name and question: %w: %v", ErrMalformed, err)
	}
	return parsed.Name, parsed.Question, nil
}

// Followup revises the description with the founder's answer and
// produces the next question. Unparseable oracle output degrades to
// empty fields rather than an error; callers should treat an empty
// question as a refinement failure to retry.
func (r *Refiner) Followup(ctx context.Context, description, previousQuestion, answer string) (updatedDescription, nextQuestion string, err error) {
	userPrompt := fmt.Sprintf(`Original idea: "%s"
Previous question: "%s"
Answer received: "%s"

Based on this answer, provide:
1. An updated version of the original idea incorporating the new information (two sentences max, keep it concise)
2. A new critical follow-up question to the founder about the idea to better understand and refine the idea (Use you to refer to the founder)

Respond with a JSON object containing:
- updatedDescription: the updated description incorporating the answer
- nextQuestion: your follow-up question

Consider these general themes for questions:
%s`, description, previousQuestion, answer, questionThemes())

	text, err := r.oracle.Complete(ctx, startupAdvisorFollowupPrompt, userPrompt, true)
	if err != nil {
		return "", "", fmt.Errorf("followup: %w", err)
	}

	var parsed struct {
		UpdatedDescription string `json:"updatedDescription"`
		NextQuestion       string `json:"nextQuestion"`
	}
	if err := json.Unmarshal([]byte(text), &parsed); err != nil {
		r.logger.Warn("followup response unparseable, degrading to empty fields", "error", err)
		return "", "", nil
	}
	return parsed.UpdatedDescription, parsed.NextQuestion, nil
}

// RandomIdea generates a one or two sentence startup idea.
func (r *Refiner) RandomIdea(ctx context.Context) (string, error) {
	return r.oracle.Complete(ctx, "", generateRandomIdeaPrompt, false)
}
