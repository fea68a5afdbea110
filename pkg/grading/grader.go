package grading

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/charmbracelet/log"

	"pandai/pkg/inference"
	"pandai/pkg/schema"
	"pandai/pkg/utils"
)

// nearMissThreshold: answers this close to the expected text get a
// spelling hint appended to the feedback.
const nearMissThreshold = 0.8

// Grader checks free-text answers against a lesson's authored rules,
// falling back to an LLM verdict when one is configured and no rule
// matches. It implements playback.AnswerChecker.
type Grader struct {
	lesson *schema.Lesson
	inf    inference.Inferencer
	rules  map[int][]compiledRule
}

type compiledRule struct {
	schema.AnswerRule
	pattern *regexp.Regexp
}

// Option configures a Grader.
type Option func(*Grader)

// WithInferencer enables LLM grading for answers no rule covers.
func WithInferencer(inf inference.Inferencer) Option {
	return func(g *Grader) { g.inf = inf }
}

// New compiles the lesson's answer rules. Invalid rule patterns fail here
// rather than on the first unlucky answer.
func New(lesson *schema.Lesson, opts ...Option) (*Grader, error) {
	g := &Grader{
		lesson: lesson,
		rules:  make(map[int][]compiledRule),
	}
	for _, opt := range opts {
		opt(g)
	}
	for i, scene := range lesson.Scenes {
		if scene.InputType != schema.InputText {
			continue
		}
		compiled := make([]compiledRule, 0, len(scene.Rules))
		for j, rule := range scene.Rules {
			cr := compiledRule{AnswerRule: rule}
			if rule.Pattern != "" {
				rx, err := regexp.Compile(rule.Pattern)
				if err != nil {
					return nil, fmt.Errorf("grading: lesson %q scene %d rule %d: %w", lesson.ID, i, j, err)
				}
				cr.pattern = rx
			}
			compiled = append(compiled, cr)
		}
		g.rules[i] = compiled
	}
	return g, nil
}

// CheckText grades one answer. Rules run in authored order; catch-alls are
// held back until both specific rules and the LLM (if any) have passed.
func (g *Grader) CheckText(ctx context.Context, sceneIndex int, answer string) (schema.TextAnswerResponse, error) {
	if sceneIndex < 0 || sceneIndex >= len(g.lesson.Scenes) {
		return schema.TextAnswerResponse{}, fmt.Errorf("grading: scene index %d out of range", sceneIndex)
	}
	scene := g.lesson.Scenes[sceneIndex]
	if scene.InputType != schema.InputText {
		return schema.TextAnswerResponse{}, fmt.Errorf("grading: scene %d is not a text scene", sceneIndex)
	}

	answer = strings.TrimSpace(answer)
	if answer == "" {
		return schema.TextAnswerResponse{}, fmt.Errorf("grading: empty answer")
	}
	norm := strings.ToLower(answer)

	var catchAll *compiledRule
	for i, rule := range g.rules[sceneIndex] {
		if rule.CatchAll() {
			if catchAll == nil {
				catchAll = &g.rules[sceneIndex][i]
			}
			continue
		}
		if rule.matches(norm) {
			return g.respond(scene, rule.AnswerRule, answer), nil
		}
	}

	if g.inf != nil {
		resp, err := g.gradeWithModel(ctx, scene, answer)
		if err == nil {
			return resp, nil
		}
		log.Warnf("model grading failed, using authored fallback: %v", err)
	}

	if catchAll != nil {
		return g.respond(scene, catchAll.AnswerRule, answer), nil
	}
	return schema.TextAnswerResponse{}, fmt.Errorf("grading: no rule matched scene %d", sceneIndex)
}

func (r compiledRule) matches(norm string) bool {
	if r.pattern != nil {
		return r.pattern.MatchString(norm)
	}
	for _, kw := range r.Keywords {
		if strings.Contains(norm, strings.ToLower(kw)) {
			return true
		}
	}
	return false
}

// respond builds the wire verdict from a rule, appending a spelling hint
// when a wrong answer is a near miss of the expected one.
func (g *Grader) respond(scene schema.Scene, rule schema.AnswerRule, answer string) schema.TextAnswerResponse {
	resp := schema.TextAnswerResponse{
		IsCorrect:     rule.IsCorrect,
		Reaction:      rule.Reaction,
		Feedback:      rule.Feedback,
		ReactionImage: rule.ReactionImage,
	}
	if !rule.IsCorrect && scene.Expected != "" {
		if utils.Similarity(answer, scene.Expected) >= nearMissThreshold {
			resp.Feedback = strings.TrimSpace(resp.Feedback + " " + Hint(scene.Expected, answer))
		}
	}
	return resp
}
