package schema

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
)

// InputType selects how a scene collects the learner's answer.
type InputType string

const (
	InputChoice InputType = "choice"
	InputText   InputType = "text"
)

// MoodKind discriminates the two representations of a character mood.
type MoodKind int

const (
	MoodGlyph MoodKind = iota
	MoodImage
)

var imageRefRX = regexp.MustCompile(`(?i)\.(png|webp|jpe?g|gif)$`)

// Mood is either a literal glyph (emoji or empty) or a reference to an
// image asset. The variant is decided once, when the lesson is decoded,
// so renderers never have to sniff file extensions.
type Mood struct {
	Kind  MoodKind
	Glyph string
	Image string
}

func GlyphMood(glyph string) Mood { return Mood{Kind: MoodGlyph, Glyph: glyph} }
func ImageMood(ref string) Mood   { return Mood{Kind: MoodImage, Image: ref} }

func (m Mood) IsImage() bool { return m.Kind == MoodImage }

// String returns the wire representation: the asset reference for images,
// the glyph otherwise.
func (m Mood) String() string {
	if m.Kind == MoodImage {
		return m.Image
	}
	return m.Glyph
}

func (m Mood) MarshalJSON() ([]byte, error) {
	return json.Marshal(m.String())
}

func (m *Mood) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	*m = ParseMood(s)
	return nil
}

// ParseMood classifies a raw mood value. Values that look like image file
// names become image references; everything else, including the empty
// string, is a glyph.
func ParseMood(s string) Mood {
	if imageRefRX.MatchString(strings.TrimSpace(s)) {
		return ImageMood(strings.TrimSpace(s))
	}
	return Mood{Kind: MoodGlyph, Glyph: s}
}

// Option is one selectable answer on a choice scene.
type Option struct {
	Text          string `json:"text"`
	Reaction      string `json:"reaction"`
	IsCorrect     bool   `json:"isCorrect"`
	ReactionImage string `json:"reactionImage,omitempty"`
}

// AnswerRule grades a free-text answer on a text scene. A rule matches
// when any keyword is contained in the normalized answer, or when the
// pattern matches. A rule with neither keywords nor a pattern is a
// catch-all and matches everything.
type AnswerRule struct {
	Keywords      []string `json:"keywords,omitempty"`
	Pattern       string   `json:"pattern,omitempty"`
	IsCorrect     bool     `json:"isCorrect"`
	Reaction      string   `json:"reaction"`
	Feedback      string   `json:"feedback"`
	ReactionImage string   `json:"reactionImage,omitempty"`
}

// CatchAll reports whether the rule matches any answer.
func (r AnswerRule) CatchAll() bool {
	return len(r.Keywords) == 0 && r.Pattern == ""
}

// Scene is one unit of lesson content: a line of dialogue plus the
// interaction used to answer it.
type Scene struct {
	InputType     InputType `json:"inputType"`
	CharacterName string    `json:"characterName"`
	CharacterMood Mood      `json:"characterMood"`
	Dialogue      string    `json:"dialogue"`
	Options       []Option  `json:"options,omitempty"`

	// Text scenes only: the canonical correct answer (used for hints)
	// and the grading rules, checked in order.
	Expected string       `json:"expected,omitempty"`
	Rules    []AnswerRule `json:"rules,omitempty"`
}

// CorrectOption returns the first correct option of a choice scene.
func (s *Scene) CorrectOption() (Option, bool) {
	for _, opt := range s.Options {
		if opt.IsCorrect {
			return opt, true
		}
	}
	return Option{}, false
}

// Lesson is an ordered sequence of scenes. Play order is slice order and
// the content is immutable once loaded.
type Lesson struct {
	ID     string  `json:"id"`
	Title  string  `json:"title"`
	Icon   string  `json:"icon,omitempty"`
	Color  string  `json:"color,omitempty"`
	Scenes []Scene `json:"scenes"`
}

// Validate rejects lessons the player cannot run: empty lessons, choice
// scenes without options, and choice scenes without at least one correct
// option. Malformed content fails here, at ingestion, instead of
// misbehaving mid-lesson.
func (l *Lesson) Validate() error {
	if len(l.Scenes) == 0 {
		return fmt.Errorf("lesson %q has no scenes", l.ID)
	}
	for i, scene := range l.Scenes {
		switch scene.InputType {
		case InputChoice:
			if len(scene.Options) == 0 {
				return fmt.Errorf("lesson %q scene %d: choice scene has no options", l.ID, i)
			}
			if _, ok := scene.CorrectOption(); !ok {
				return fmt.Errorf("lesson %q scene %d: choice scene has no correct option", l.ID, i)
			}
		case InputText:
			if len(scene.Rules) == 0 {
				return fmt.Errorf("lesson %q scene %d: text scene has no answer rules", l.ID, i)
			}
		default:
			return fmt.Errorf("lesson %q scene %d: unknown input type %q", l.ID, i, scene.InputType)
		}
	}
	return nil
}
