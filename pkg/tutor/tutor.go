package tutor

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/openai/openai-go/v3"
	"github.com/pkoukk/tiktoken-go"

	"pandai/pkg/inference"
	"pandai/pkg/schema"
)

const systemPrompt = `Kamu adalah 'Sensei', asisten guru bahasa Indonesia yang ramah untuk pelajar dari Jepang. Posisikan dirimu sebagai orang Jepang yang berpengalaman mengajar bahasa Indonesia.

Kamu menerima konteks cerita dari pelajaran yang sedang dimainkan, lalu pertanyaan dari pelajar.

Jawablah dengan singkat, jelas, dan ramah (maksimal 2-3 kalimat). Jika pertanyaannya soal bahasa atau grammar, jelaskan alasannya. Gunakan bahasa Jepang sebagai bahasa utama, tetapi campur bahasa Indonesia dan Inggris sesuai bahasa pertanyaannya.`

// FallbackReply is returned when inference fails; the chat panel always
// gets an answer.
const FallbackReply = "Maaf, koneksi otak saya sedang terputus. Coba lagi nanti ya!"

// defaultContextBudget caps the tokens spent on the scene context so the
// learner's question always fits.
const defaultContextBudget = 1024

// Tutor answers learner questions about the scene they are playing.
type Tutor struct {
	inf           inference.Inferencer
	contextBudget int
}

// Option configures a Tutor.
type Option func(*Tutor)

// WithContextBudget overrides the token budget for the scene context.
func WithContextBudget(tokens int) Option {
	return func(t *Tutor) { t.contextBudget = tokens }
}

func New(inf inference.Inferencer, opts ...Option) *Tutor {
	t := &Tutor{inf: inf, contextBudget: defaultContextBudget}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// SceneContext formats the block the chat panel sends along with a
// question: character, mood, the dialogue verbatim, and the correct
// answer verbatim when the scene has one.
func SceneContext(scene schema.Scene) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Karakter: %s\n", scene.CharacterName)
	fmt.Fprintf(&b, "Mood: %s\n", scene.CharacterMood.String())
	fmt.Fprintf(&b, "Dialog Karakter: %q\n", scene.Dialogue)
	if opt, ok := scene.CorrectOption(); ok {
		fmt.Fprintf(&b, "Jawaban Benar: %s\n", opt.Text)
	} else if scene.Expected != "" {
		fmt.Fprintf(&b, "Jawaban Benar: %s\n", scene.Expected)
	}
	return b.String()
}

// Ask sends the question with its scene context to the model. Inference
// failures are logged and answered with FallbackReply so the panel never
// hangs on an error.
func (t *Tutor) Ask(ctx context.Context, sceneContext, userQuery string) string {
	userQuery = strings.TrimSpace(userQuery)
	if userQuery == "" {
		return FallbackReply
	}
	sceneContext = t.capContext(sceneContext)

	user := fmt.Sprintf("[KONTEKS CERITA SAAT INI]\n%s\n\n[PERTANYAAN]\n%s", sceneContext, userQuery)
	reply, err := t.inf.Infer(ctx, &openai.ChatCompletionNewParams{
		MaxCompletionTokens: openai.Int(512),
	}, systemPrompt, user)
	if err != nil {
		log.Errorf("tutor inference: %v", err)
		return FallbackReply
	}
	reply = strings.TrimSpace(reply)
	if reply == "" {
		return "Hmm, saya tidak tahu harus jawab apa."
	}
	return reply
}

// capContext trims the scene context to the token budget. Counting uses
// the gpt-4 encoding as a common yardstick across backends; on encoder
// failure the raw text passes through.
func (t *Tutor) capContext(sceneContext string) string {
	tkm, err := tiktoken.EncodingForModel("gpt-4-0613")
	if err != nil {
		log.Warnf("tutor token encoding: %v", err)
		return sceneContext
	}
	tokens := tkm.Encode(sceneContext, nil, nil)
	if len(tokens) <= t.contextBudget {
		return sceneContext
	}
	return tkm.Decode(tokens[:t.contextBudget])
}
