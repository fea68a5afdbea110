package tutor

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/openai/openai-go/v3"
	"github.com/pkoukk/tiktoken-go"

	"pandai/pkg/schema"
)

type scriptedInferencer struct {
	lastSystem string
	lastUser   string
	out        string
	err        error
}

func (s *scriptedInferencer) Infer(_ context.Context, _ *openai.ChatCompletionNewParams, system, user string) (string, error) {
	s.lastSystem = system
	s.lastUser = user
	return s.out, s.err
}

func choiceScene() schema.Scene {
	return schema.Scene{
		InputType:     schema.InputChoice,
		CharacterName: "Sari",
		CharacterMood: schema.ImageMood("sari_menyapa.png"),
		Dialogue:      "Halo! Siapa namamu?",
		Options: []schema.Option{
			{Text: "Saya umur 12 tahun.", IsCorrect: false},
			{Text: "Nama saya Wira.", IsCorrect: true},
		},
	}
}

func TestSceneContextEmbedsDialogueAndCorrectAnswer(t *testing.T) {
	got := SceneContext(choiceScene())

	for _, want := range []string{
		"Karakter: Sari",
		"Mood: sari_menyapa.png",
		`"Halo! Siapa namamu?"`,
		"Jawaban Benar: Nama saya Wira.",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("context missing %q:\n%s", want, got)
		}
	}
}

func TestSceneContextUsesExpectedForTextScenes(t *testing.T) {
	scene := schema.Scene{
		InputType:     schema.InputText,
		CharacterName: "Sari",
		CharacterMood: schema.GlyphMood("🙂"),
		Dialogue:      "Kamu asalnya dari mana?",
		Expected:      "Saya dari Jepang",
	}
	got := SceneContext(scene)
	if !strings.Contains(got, "Jawaban Benar: Saya dari Jepang") {
		t.Errorf("context missing expected answer:\n%s", got)
	}
}

func TestAskForwardsContextAndQuestion(t *testing.T) {
	inf := &scriptedInferencer{out: "「namamu」は「あなたの名前」という意味です。"}
	tut := New(inf)

	sceneCtx := SceneContext(choiceScene())
	reply := tut.Ask(context.Background(), sceneCtx, "Apa arti namamu?")

	if reply != inf.out {
		t.Errorf("reply = %q", reply)
	}
	if !strings.Contains(inf.lastUser, "Halo! Siapa namamu?") {
		t.Errorf("prompt missing dialogue:\n%s", inf.lastUser)
	}
	if !strings.Contains(inf.lastUser, "Apa arti namamu?") {
		t.Errorf("prompt missing question:\n%s", inf.lastUser)
	}
}

func TestAskFallsBackOnError(t *testing.T) {
	tut := New(&scriptedInferencer{err: errors.New("api down")})
	if got := tut.Ask(context.Background(), "ctx", "question"); got != FallbackReply {
		t.Errorf("reply = %q, want fallback", got)
	}
}

func TestAskCapsContext(t *testing.T) {
	if _, err := tiktoken.EncodingForModel("gpt-4-0613"); err != nil {
		t.Skipf("token encoding unavailable: %v", err)
	}

	inf := &scriptedInferencer{out: "ok"}
	tut := New(inf, WithContextBudget(8))

	long := strings.Repeat("kata panjang sekali ", 200)
	tut.Ask(context.Background(), long, "q")

	if len(inf.lastUser) >= len(long) {
		t.Errorf("context was not trimmed: %d bytes", len(inf.lastUser))
	}
}
