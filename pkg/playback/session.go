package playback

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/segmentio/ksuid"

	"pandai/pkg/schema"
)

// State is the per-scene playback state.
type State int

const (
	StatePresenting State = iota
	StateAwaitingInput
	StateResolving
	StateFeedbackCorrect
	StateFeedbackIncorrect
	StateCompleted
	StateClosed
)

func (s State) String() string {
	switch s {
	case StatePresenting:
		return "presenting"
	case StateAwaitingInput:
		return "awaiting-input"
	case StateResolving:
		return "resolving"
	case StateFeedbackCorrect:
		return "feedback-correct"
	case StateFeedbackIncorrect:
		return "feedback-incorrect"
	case StateCompleted:
		return "completed"
	case StateClosed:
		return "closed"
	}
	return "unknown"
}

var (
	// ErrEmptyAnswer rejects whitespace-only text submissions before any
	// request is made. The session state does not change.
	ErrEmptyAnswer = errors.New("playback: empty answer")
	// ErrWrongState rejects an operation the current state does not allow.
	ErrWrongState = errors.New("playback: operation not allowed in current state")
	// ErrStaleAnswer marks a grading response that arrived after the
	// session moved on; the outcome was discarded.
	ErrStaleAnswer = errors.New("playback: stale answer discarded")
	// ErrNoChecker means the session has no grading backend for text scenes.
	ErrNoChecker = errors.New("playback: no answer checker configured")
)

// AnswerChecker grades a free-text answer for one scene. Implemented by
// the HTTP client and, server-side, by the grading package.
type AnswerChecker interface {
	CheckText(ctx context.Context, sceneIndex int, answer string) (schema.TextAnswerResponse, error)
}

// Outcome is the normalized result of either answer path. It is built,
// rendered, and discarded within one resolution; nothing stores it.
type Outcome struct {
	IsCorrect     bool
	ReactionText  string
	UserResponse  string
	ReactionImage string
}

// Mood resolves the feedback mood: the reaction image when present,
// otherwise the fixed correct/incorrect glyph.
func (o Outcome) Mood() schema.Mood {
	if o.ReactionImage != "" {
		return schema.ImageMood(o.ReactionImage)
	}
	if o.IsCorrect {
		return schema.GlyphMood(GlyphCorrect)
	}
	return schema.GlyphMood(GlyphIncorrect)
}

// Session owns the playback cursor for one lesson run and drives a
// Surface through the scene lifecycle:
//
//	Presenting → AwaitingInput → Resolving → FeedbackCorrect  → next scene
//	                                       → FeedbackIncorrect → same scene
//
// All cursor mutations happen under the session lock; a correct outcome on
// the final scene moves the session to StateCompleted.
type Session struct {
	id       string
	lesson   *schema.Lesson
	surface  Surface
	checker  AnswerChecker
	revealer *Revealer

	mu      sync.Mutex
	state   State
	index   int
	attempt string
}

// SessionOption configures a Session at construction.
type SessionOption func(*Session)

// WithRevealInterval overrides the per-character reveal delay.
func WithRevealInterval(d time.Duration) SessionOption {
	return func(s *Session) {
		s.revealer = NewRevealer(d, s.surface.SetDialogue)
	}
}

// NewSession validates the lesson and prepares a session at scene 0.
// Nothing is rendered until Start.
func NewSession(lesson *schema.Lesson, surface Surface, checker AnswerChecker, opts ...SessionOption) (*Session, error) {
	if err := lesson.Validate(); err != nil {
		return nil, fmt.Errorf("playback: %w", err)
	}
	s := &Session{
		id:      ksuid.New().String(),
		lesson:  lesson,
		surface: surface,
		checker: checker,
		state:   StatePresenting,
	}
	s.revealer = NewRevealer(DefaultRevealInterval, surface.SetDialogue)
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

func (s *Session) ID() string { return s.id }

func (s *Session) Lesson() *schema.Lesson { return s.lesson }

func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// SceneIndex is the current cursor position. Valid only before completion.
func (s *Session) SceneIndex() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.index
}

// Scene returns the scene under the cursor.
func (s *Session) Scene() schema.Scene {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lesson.Scenes[s.index]
}

// Start renders the first scene.
func (s *Session) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	log.Debugf("session %s: starting lesson %q (%d scenes)", s.id, s.lesson.ID, len(s.lesson.Scenes))
	s.renderLocked()
}

// renderLocked (re-)enters Presenting for the scene under the cursor and
// hands the frame to the surface. Re-entry on retry goes through here too,
// so the reveal restarts every time.
func (s *Session) renderLocked() {
	scene := s.lesson.Scenes[s.index]

	s.state = StatePresenting
	frame := SceneFrame{
		Index:         s.index,
		CharacterName: scene.CharacterName,
		Mood:          scene.CharacterMood,
		Input:         scene.InputType,
	}
	if scene.InputType == schema.InputChoice {
		frame.Options = make([]string, len(scene.Options))
		for i, opt := range scene.Options {
			frame.Options[i] = opt.Text
		}
	}
	s.surface.ShowScene(frame)
	s.revealer.Start(scene.Dialogue)
	s.state = StateAwaitingInput
}

// Choose resolves a choice scene locally. Correctness is precomputed in
// the option; no network round trip happens. Any call outside
// AwaitingInput is rejected, which is what keeps a second submission out.
func (s *Session) Choose(optionIndex int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateAwaitingInput {
		return fmt.Errorf("%w: state %s", ErrWrongState, s.state)
	}
	scene := s.lesson.Scenes[s.index]
	if scene.InputType != schema.InputChoice {
		return fmt.Errorf("%w: scene %d takes text input", ErrWrongState, s.index)
	}
	if optionIndex < 0 || optionIndex >= len(scene.Options) {
		return fmt.Errorf("playback: option %d out of range", optionIndex)
	}

	opt := scene.Options[optionIndex]
	s.resolveLocked(Outcome{
		IsCorrect:     opt.IsCorrect,
		ReactionText:  opt.Reaction,
		UserResponse:  opt.Text,
		ReactionImage: opt.ReactionImage,
	})
	return nil
}

// SubmitText grades a free-text answer through the checker. Empty or
// whitespace-only input is rejected without a request or state change.
// While the check is in flight the session sits in Resolving and rejects
// further submissions. A response that comes back after the session has
// moved on (new scene, closed) is discarded.
func (s *Session) SubmitText(ctx context.Context, answer string) error {
	answer = strings.TrimSpace(answer)
	if answer == "" {
		return ErrEmptyAnswer
	}

	s.mu.Lock()
	if s.state != StateAwaitingInput {
		s.mu.Unlock()
		return fmt.Errorf("%w: state %s", ErrWrongState, s.state)
	}
	scene := s.lesson.Scenes[s.index]
	if scene.InputType != schema.InputText {
		s.mu.Unlock()
		return fmt.Errorf("%w: scene %d takes choice input", ErrWrongState, s.index)
	}
	if s.checker == nil {
		s.mu.Unlock()
		return ErrNoChecker
	}

	attempt := ksuid.New().String()
	index := s.index
	s.attempt = attempt
	s.state = StateResolving
	s.mu.Unlock()

	resp, err := s.checker.CheckText(ctx, index, answer)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateResolving || s.attempt != attempt || s.index != index {
		log.Warnf("session %s: discarding stale answer for scene %d", s.id, index)
		return ErrStaleAnswer
	}
	s.attempt = ""

	if err != nil {
		// Leave the interaction exactly as before the attempt: back to
		// AwaitingInput with the input surface still visible.
		s.state = StateAwaitingInput
		return fmt.Errorf("playback: check answer: %w", err)
	}

	s.resolveLocked(Outcome{
		IsCorrect:     resp.IsCorrect,
		ReactionText:  formatReaction(resp.Reaction, resp.Feedback),
		UserResponse:  answer,
		ReactionImage: resp.ReactionImage,
	})
	return nil
}

// formatReaction joins the character reaction with the teacher's note the
// way the feedback panel expects it.
func formatReaction(reaction, feedback string) string {
	if feedback == "" {
		return reaction
	}
	return fmt.Sprintf("%s\n\n(🇯🇵 Sensei: %s)", reaction, feedback)
}

// resolveLocked consumes an outcome: stops the reveal so no stale tick can
// overwrite the reaction, then shows feedback with the follow-up action.
func (s *Session) resolveLocked(o Outcome) {
	s.revealer.Stop()

	frame := OutcomeFrame{
		IsCorrect: o.IsCorrect,
		Reaction:  o.ReactionText,
		Mood:      o.Mood(),
		Action:    ActionTryAgain,
	}
	if o.IsCorrect {
		frame.Action = ActionContinue
		s.state = StateFeedbackCorrect
	} else {
		s.state = StateFeedbackIncorrect
	}
	s.surface.ShowOutcome(frame)
}

// Advance moves past a correctly answered scene. Past the final scene the
// session completes; the cursor never leaves the valid range while a scene
// is displayed.
func (s *Session) Advance() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateFeedbackCorrect {
		return fmt.Errorf("%w: state %s", ErrWrongState, s.state)
	}
	s.index++
	if s.index < len(s.lesson.Scenes) {
		s.renderLocked()
		return nil
	}
	s.index = len(s.lesson.Scenes)
	s.state = StateCompleted
	s.revealer.Stop()
	log.Infof("session %s: lesson %q completed", s.id, s.lesson.ID)
	s.surface.ShowCompleted(s.lesson.Title)
	return nil
}

// Retry re-renders the same scene after an incorrect answer. Scene content
// is unchanged; the reveal starts over.
func (s *Session) Retry() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateFeedbackIncorrect {
		return fmt.Errorf("%w: state %s", ErrWrongState, s.state)
	}
	s.renderLocked()
	return nil
}

// Close abandons the session. Any in-flight grading response is discarded
// on arrival.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.revealer.Stop()
	s.attempt = ""
	s.state = StateClosed
}
