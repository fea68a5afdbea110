package playback

import "pandai/pkg/schema"

// Action labels the single control shown after an outcome.
type Action string

const (
	ActionContinue Action = "Continue"
	ActionTryAgain Action = "Try Again"
)

// Glyphs shown when an outcome carries no reaction image. They override
// the scene's own mood.
const (
	GlyphCorrect   = "✨"
	GlyphIncorrect = "😅"
)

// SceneFrame is everything a surface needs to draw a scene. Dialogue is
// not included; it arrives through SetDialogue as the reveal progresses.
type SceneFrame struct {
	Index         int
	CharacterName string
	Mood          schema.Mood
	Input         schema.InputType
	Options       []string
}

// OutcomeFrame is the feedback view after an answer is resolved. Mood is
// already resolved: the reaction image when one was given, the fixed
// correct/incorrect glyph otherwise.
type OutcomeFrame struct {
	IsCorrect bool
	Reaction  string
	Mood      schema.Mood
	Action    Action
}

// Surface renders playback frames. Implementations: the terminal player,
// the WebSocket transport, and test fakes. Exactly one of the mood's
// glyph/image is populated on every frame, never both.
type Surface interface {
	// ShowScene draws a fresh scene: mood, character, input controls.
	// The dialogue area starts empty.
	ShowScene(frame SceneFrame)
	// SetDialogue replaces the dialogue area. The reveal calls this with
	// growing prefixes; outcomes call it through ShowOutcome instead.
	SetDialogue(text string)
	// ShowOutcome draws correctness feedback and the follow-up action.
	ShowOutcome(frame OutcomeFrame)
	// ShowCompleted marks the end of the lesson.
	ShowCompleted(lessonTitle string)
}
