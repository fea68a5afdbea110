package grading

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/openai/openai-go/v3"

	"pandai/pkg/schema"
)

const gradePrompt = `You grade short free-text answers inside an Indonesian conversation lesson aimed at Japanese speakers.

You receive the character's dialogue, the expected answer (if the author wrote one), and the learner's answer. Decide whether the learner's answer is an acceptable reply in context. Spelling close to correct counts as correct; an answer that dodges the question does not.

Respond with a single JSON object:
- "isCorrect": boolean verdict.
- "reaction": one or two sentences, in character, in Indonesian.
- "feedback": a short teacher's note, mainly in Japanese, explaining why.

Output only the JSON object.`

// gradeWithModel asks the configured inferencer for a structured verdict.
func (g *Grader) gradeWithModel(ctx context.Context, scene schema.Scene, answer string) (schema.TextAnswerResponse, error) {
	var b strings.Builder
	fmt.Fprintf(&b, "Character: %s\nDialogue: %q\n", scene.CharacterName, scene.Dialogue)
	if scene.Expected != "" {
		fmt.Fprintf(&b, "Expected answer: %q\n", scene.Expected)
	}
	fmt.Fprintf(&b, "Learner's answer: %q", answer)

	params := &openai.ChatCompletionNewParams{
		ResponseFormat: schema.GradeResponseFormat(),
	}
	out, err := g.inf.Infer(ctx, params, gradePrompt, b.String())
	if err != nil {
		return schema.TextAnswerResponse{}, fmt.Errorf("grading inference: %w", err)
	}

	var result schema.GradeResult
	if err := json.Unmarshal([]byte(cleanJSON(out)), &result); err != nil {
		return schema.TextAnswerResponse{}, fmt.Errorf("grading parse: %w", err)
	}
	return schema.TextAnswerResponse{
		IsCorrect: result.IsCorrect,
		Reaction:  result.Reaction,
		Feedback:  result.Feedback,
	}, nil
}

// cleanJSON strips markdown code fences some models wrap around JSON.
func cleanJSON(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "```") {
		lines := strings.Split(s, "\n")
		if len(lines) >= 2 {
			if strings.HasPrefix(lines[0], "```") {
				lines = lines[1:]
			}
			if len(lines) > 0 && strings.HasPrefix(lines[len(lines)-1], "```") {
				lines = lines[:len(lines)-1]
			}
			s = strings.Join(lines, "\n")
		}
	}
	return strings.TrimSpace(s)
}
