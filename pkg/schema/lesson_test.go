package schema

import (
	"encoding/json"
	"testing"
)

func TestParseMood(t *testing.T) {
	tests := []struct {
		name  string
		raw   string
		kind  MoodKind
		value string
	}{
		{"emoji glyph", "👋", MoodGlyph, "👋"},
		{"empty glyph", "", MoodGlyph, ""},
		{"png image", "Muka_sari_senang.png", MoodImage, "Muka_sari_senang.png"},
		{"webp image", "sari_happy.webp", MoodImage, "sari_happy.webp"},
		{"uppercase extension", "SARI.PNG", MoodImage, "SARI.PNG"},
		{"png mentioned mid-text stays glyph", "not a .png file really", MoodGlyph, "not a .png file really"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := ParseMood(tt.raw)
			if m.Kind != tt.kind {
				t.Fatalf("ParseMood(%q).Kind = %v, want %v", tt.raw, m.Kind, tt.kind)
			}
			if m.String() != tt.value {
				t.Errorf("ParseMood(%q).String() = %q, want %q", tt.raw, m.String(), tt.value)
			}
		})
	}
}

func TestMoodJSONRoundTrip(t *testing.T) {
	var s Scene
	in := `{"inputType":"choice","characterName":"Sari","characterMood":"Muka_sari_menyapa.png","dialogue":"Halo!"}`
	if err := json.Unmarshal([]byte(in), &s); err != nil {
		t.Fatal(err)
	}
	if !s.CharacterMood.IsImage() {
		t.Fatalf("expected image mood, got %+v", s.CharacterMood)
	}

	out, err := json.Marshal(s.CharacterMood)
	if err != nil {
		t.Fatal(err)
	}
	if string(out) != `"Muka_sari_menyapa.png"` {
		t.Errorf("marshal = %s, want original reference", out)
	}
}

func validLesson() *Lesson {
	return &Lesson{
		ID:    "1",
		Title: "Meeting Sari",
		Scenes: []Scene{
			{
				InputType:     InputChoice,
				CharacterName: "Sari",
				CharacterMood: GlyphMood("👋"),
				Dialogue:      "Siapa namamu?",
				Options: []Option{
					{Text: "Nama saya Wira.", Reaction: "Salam kenal!", IsCorrect: true},
					{Text: "Saya umur 12 tahun.", Reaction: "Aku tanya nama lho.", IsCorrect: false},
				},
			},
			{
				InputType:     InputText,
				CharacterName: "Sari",
				CharacterMood: GlyphMood("🙂"),
				Dialogue:      "Kamu asalnya dari mana?",
				Expected:      "Saya dari Jepang",
				Rules: []AnswerRule{
					{Keywords: []string{"jepang", "japan"}, IsCorrect: true, Reaction: "Wah, Jepang!", Feedback: "Benar."},
					{IsCorrect: false, Reaction: "Hmm, belum pernah dengar.", Feedback: "Coba nama negara."},
				},
			},
		},
	}
}

func TestLessonValidate(t *testing.T) {
	if err := validLesson().Validate(); err != nil {
		t.Fatalf("valid lesson rejected: %v", err)
	}

	tests := []struct {
		name   string
		mutate func(*Lesson)
	}{
		{"no scenes", func(l *Lesson) { l.Scenes = nil }},
		{"choice without options", func(l *Lesson) { l.Scenes[0].Options = nil }},
		{"choice without correct option", func(l *Lesson) {
			for i := range l.Scenes[0].Options {
				l.Scenes[0].Options[i].IsCorrect = false
			}
		}},
		{"text without rules", func(l *Lesson) { l.Scenes[1].Rules = nil }},
		{"unknown input type", func(l *Lesson) { l.Scenes[0].InputType = "video" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := validLesson()
			tt.mutate(l)
			if err := l.Validate(); err == nil {
				t.Error("expected validation error, got nil")
			}
		})
	}
}

func TestCorrectOption(t *testing.T) {
	l := validLesson()
	opt, ok := l.Scenes[0].CorrectOption()
	if !ok {
		t.Fatal("no correct option found")
	}
	if opt.Text != "Nama saya Wira." {
		t.Errorf("correct option = %q", opt.Text)
	}

	textScene := &l.Scenes[1]
	if _, ok := textScene.CorrectOption(); ok {
		t.Error("text scene should have no correct option")
	}
}
