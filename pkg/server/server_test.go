package server

import (
	"bytes"
	"context"
	"encoding/json"
	"image"
	"image/png"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/openai/openai-go/v3"

	"pandai/pkg/config"
	"pandai/pkg/inference"
	"pandai/pkg/progress"
	"pandai/pkg/schema"
	"pandai/pkg/tutor"
	"pandai/pkg/utils"
)

type scriptedInferencer struct {
	out string
}

func (s *scriptedInferencer) Infer(_ context.Context, _ *openai.ChatCompletionNewParams, _, _ string) (string, error) {
	return s.out, nil
}

func testLesson() schema.Lesson {
	return schema.Lesson{
		ID:    "1",
		Title: "Meeting Sari in Jakarta",
		Icon:  "👋",
		Color: "#06b6d4",
		Scenes: []schema.Scene{
			{
				InputType:     schema.InputChoice,
				CharacterName: "Sari",
				CharacterMood: schema.GlyphMood("👋"),
				Dialogue:      "Siapa namamu?",
				Options: []schema.Option{
					{Text: "Nama saya Wira.", Reaction: "Salam kenal!", IsCorrect: true},
					{Text: "Saya umur 12 tahun.", Reaction: "Aku tanya nama lho.", IsCorrect: false},
				},
			},
			{
				InputType:     schema.InputText,
				CharacterName: "Sari",
				CharacterMood: schema.GlyphMood("🙂"),
				Dialogue:      "Kamu asalnya dari mana?",
				Rules: []schema.AnswerRule{
					{Keywords: []string{"jepang"}, IsCorrect: true, Reaction: "Wah, Jepang!", Feedback: "Benar."},
					{IsCorrect: false, Reaction: "Hmm.", Feedback: "Coba nama negara."},
				},
			},
		},
	}
}

func newTestServer(t *testing.T, inf inference.Inferencer) *Server {
	t.Helper()
	dir := t.TempDir()

	lessonsDir := filepath.Join(dir, "lessons")
	if err := os.MkdirAll(lessonsDir, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := utils.Save(filepath.Join(lessonsDir, "1.json"), testLesson()); err != nil {
		t.Fatal(err)
	}

	store, err := progress.Open(filepath.Join(dir, "progress.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { store.Close() })

	cfg := config.Config{
		LessonsDir: lessonsDir,
		AssetsDir:  dir,
		WebDir:     filepath.Join(dir, "missing-web"),
	}
	s, err := NewServer(context.Background(), cfg, inf, store)
	if err != nil {
		t.Fatal(err)
	}
	return s
}

func doJSON(t *testing.T, s *Server, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			t.Fatal(err)
		}
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	s.Echo.ServeHTTP(rec, req)
	return rec
}

func TestGetState(t *testing.T) {
	s := newTestServer(t, nil)

	rec := doJSON(t, s, http.MethodGet, "/api/state", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body)
	}

	var state schema.AppState
	if err := json.Unmarshal(rec.Body.Bytes(), &state); err != nil {
		t.Fatal(err)
	}
	if state.XP != 1200 || state.StreakDays != 5 {
		t.Errorf("seed stats = xp %d, streak %d", state.XP, state.StreakDays)
	}
	if len(state.Modules) != 1 || state.Modules[0].Title != "Meeting Sari in Jakarta" {
		t.Errorf("modules = %+v", state.Modules)
	}
	if state.CurrentLesson != "Meeting Sari in Jakarta" {
		t.Errorf("currentLesson = %q", state.CurrentLesson)
	}
}

func TestGetLesson(t *testing.T) {
	s := newTestServer(t, nil)

	rec := doJSON(t, s, http.MethodGet, "/api/lesson/1", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var lesson schema.Lesson
	if err := json.Unmarshal(rec.Body.Bytes(), &lesson); err != nil {
		t.Fatal(err)
	}
	if len(lesson.Scenes) != 2 {
		t.Fatalf("scenes = %d", len(lesson.Scenes))
	}
	if lesson.Scenes[0].CharacterMood.Glyph != "👋" {
		t.Errorf("mood glyph = %q", lesson.Scenes[0].CharacterMood.Glyph)
	}

	if rec := doJSON(t, s, http.MethodGet, "/api/lesson/999", nil); rec.Code != http.StatusNotFound {
		t.Errorf("unknown lesson status = %d", rec.Code)
	}
}

func TestCheckText(t *testing.T) {
	s := newTestServer(t, nil)

	rec := doJSON(t, s, http.MethodPost, "/api/check-text", schema.TextAnswerRequest{SceneIndex: 1, Answer: "saya dari jepang"})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body)
	}
	var resp schema.TextAnswerResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if !resp.IsCorrect || resp.Reaction != "Wah, Jepang!" {
		t.Errorf("verdict = %+v", resp)
	}

	rec = doJSON(t, s, http.MethodPost, "/api/check-text", schema.TextAnswerRequest{SceneIndex: 1, Answer: "atlantis"})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.IsCorrect {
		t.Errorf("wrong answer graded correct: %+v", resp)
	}

	if rec := doJSON(t, s, http.MethodPost, "/api/check-text", schema.TextAnswerRequest{SceneIndex: 1, Answer: "   "}); rec.Code != http.StatusBadRequest {
		t.Errorf("blank answer status = %d", rec.Code)
	}
	if rec := doJSON(t, s, http.MethodPost, "/api/check-text", schema.TextAnswerRequest{SceneIndex: 42, Answer: "x"}); rec.Code != http.StatusBadRequest {
		t.Errorf("bad scene status = %d", rec.Code)
	}
	if rec := doJSON(t, s, http.MethodPost, "/api/check-text", schema.TextAnswerRequest{LessonID: "999", SceneIndex: 0, Answer: "x"}); rec.Code != http.StatusNotFound {
		t.Errorf("bad lesson status = %d", rec.Code)
	}
}

func TestAskTutor(t *testing.T) {
	s := newTestServer(t, &scriptedInferencer{out: "「nama」は名前です。"})

	rec := doJSON(t, s, http.MethodPost, "/api/ask-tutor", schema.ChatRequest{Context: "ctx", UserQuery: "apa arti nama?"})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var resp schema.ChatResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.Reply != "「nama」は名前です。" {
		t.Errorf("reply = %q", resp.Reply)
	}
}

func TestAskTutorWithoutInferencer(t *testing.T) {
	s := newTestServer(t, nil)

	rec := doJSON(t, s, http.MethodPost, "/api/ask-tutor", schema.ChatRequest{UserQuery: "halo"})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var resp schema.ChatResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.Reply != tutor.FallbackReply {
		t.Errorf("reply = %q, want fallback", resp.Reply)
	}
}

func TestCompleteModule(t *testing.T) {
	s := newTestServer(t, nil)

	rec := doJSON(t, s, http.MethodPost, "/api/complete", schema.CompleteRequest{ModuleID: "1", XP: 50})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body)
	}

	rec = doJSON(t, s, http.MethodGet, "/api/state", nil)
	var state schema.AppState
	if err := json.Unmarshal(rec.Body.Bytes(), &state); err != nil {
		t.Fatal(err)
	}
	if state.XP != 1250 {
		t.Errorf("xp after completion = %d, want 1250", state.XP)
	}
	if !state.Modules[0].Done {
		t.Error("module not marked done")
	}

	if rec := doJSON(t, s, http.MethodPost, "/api/complete", schema.CompleteRequest{ModuleID: "999"}); rec.Code != http.StatusNotFound {
		t.Errorf("unknown module status = %d", rec.Code)
	}
}

func TestGetImageEncodesWebP(t *testing.T) {
	s := newTestServer(t, nil)

	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(s.assetsDir, "mood.png"), buf.Bytes(), 0o644); err != nil {
		t.Fatal(err)
	}

	rec := doJSON(t, s, http.MethodGet, "/images/mood.png", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "image/webp") {
		t.Errorf("content type = %q", ct)
	}

	if rec := doJSON(t, s, http.MethodGet, "/images/missing.png", nil); rec.Code != http.StatusNotFound {
		t.Errorf("missing image status = %d", rec.Code)
	}
}
