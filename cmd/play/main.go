// Command play runs a lesson in the terminal against a pandai server.
// Choice scenes take an option number, text scenes take a typed answer,
// and a line starting with "?" asks the tutor about the current scene.
package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	_ "github.com/joho/godotenv/autoload"

	"pandai/pkg/client"
	"pandai/pkg/playback"
	"pandai/pkg/schema"
	"pandai/pkg/tutor"
)

const lessonXP = 50

func main() {
	server := flag.String("server", "http://localhost:8080", "lesson server base URL")
	lessonID := flag.String("lesson", "", "lesson id (default: first unfinished module)")
	flag.Parse()

	ctx := context.Background()
	c := client.New(*server)

	state, err := c.State(ctx)
	if err != nil {
		log.Fatalf("fetch state: %v", err)
	}
	id := *lessonID
	if id == "" {
		id = pickLesson(state)
	}

	lesson, err := c.Lesson(ctx, id)
	if err != nil {
		log.Fatalf("fetch lesson %s: %v", id, err)
	}

	fmt.Printf("=== %s %s ===\n", lesson.Icon, lesson.Title)
	fmt.Printf("%s | %d XP | %d day streak\n\n", state.Profile.DisplayName, state.XP, state.StreakDays)

	surface := newTermSurface()
	sess, err := playback.NewSession(lesson, surface, c.Checker(lesson.ID))
	if err != nil {
		log.Fatalf("start session: %v", err)
	}
	defer sess.Close()
	sess.Start()

	stdin := bufio.NewScanner(os.Stdin)
	for {
		switch sess.State() {
		case playback.StateAwaitingInput:
			surface.waitFor(sess.Scene().Dialogue, 10*time.Second)
			if !prompt(ctx, c, sess, stdin, surface) {
				return
			}
		case playback.StateFeedbackCorrect:
			fmt.Printf("\n[Enter] %s ", playback.ActionContinue)
			if !stdin.Scan() {
				return
			}
			if err := sess.Advance(); err != nil {
				log.Error(err)
			}
		case playback.StateFeedbackIncorrect:
			fmt.Printf("\n[Enter] %s ", playback.ActionTryAgain)
			if !stdin.Scan() {
				return
			}
			if err := sess.Retry(); err != nil {
				log.Error(err)
			}
		case playback.StateCompleted:
			if err := c.Complete(ctx, lesson.ID, lessonXP); err != nil {
				log.Warnf("record completion: %v", err)
			} else {
				fmt.Printf("+%d XP recorded.\n", lessonXP)
			}
			return
		default:
			time.Sleep(20 * time.Millisecond)
		}
	}
}

// pickLesson returns the first unfinished module, falling back to the
// first module when everything is done.
func pickLesson(state schema.AppState) string {
	if len(state.Modules) == 0 {
		log.Fatal("server has no lessons")
	}
	for _, m := range state.Modules {
		if !m.Done {
			return m.ID
		}
	}
	return state.Modules[0].ID
}

// prompt reads one line of input for the scene awaiting an answer.
// Returns false when stdin is closed.
func prompt(ctx context.Context, c *client.Client, sess *playback.Session, stdin *bufio.Scanner, surface *termSurface) bool {
	scene := sess.Scene()
	if scene.InputType == schema.InputChoice {
		fmt.Print("\n> pilih nomor: ")
	} else {
		fmt.Print("\n> jawab: ")
	}
	if !stdin.Scan() {
		return false
	}
	line := strings.TrimSpace(stdin.Text())

	if after, ok := strings.CutPrefix(line, "?"); ok {
		askTutor(ctx, c, scene, strings.TrimSpace(after))
		return true
	}

	var err error
	if scene.InputType == schema.InputChoice {
		var n int
		n, err = strconv.Atoi(line)
		if err != nil {
			fmt.Println("Masukkan nomor pilihan.")
			return true
		}
		err = sess.Choose(n - 1)
	} else {
		err = sess.SubmitText(ctx, line)
	}
	switch {
	case errors.Is(err, playback.ErrEmptyAnswer):
		fmt.Println("Jawaban tidak boleh kosong.")
	case errors.Is(err, playback.ErrStaleAnswer):
		// Discarded; the session already moved on.
	case err != nil:
		log.Error(err)
	}
	return true
}

func askTutor(ctx context.Context, c *client.Client, scene schema.Scene, query string) {
	if query == "" {
		fmt.Println("Tanya apa? Contoh: ? apa arti nama?")
		return
	}
	reply, err := c.AskTutor(ctx, tutor.SceneContext(scene), query)
	if err != nil {
		log.Warnf("ask tutor: %v", err)
		reply = tutor.FallbackReply
	}
	fmt.Printf("\n🇯🇵 Sensei: %s\n", reply)
}

// termSurface renders playback frames to stdout. Dialogue arrives as
// growing prefixes from the reveal, so only the new suffix is printed.
type termSurface struct {
	mu   sync.Mutex
	last string
}

func newTermSurface() *termSurface { return &termSurface{} }

func (t *termSurface) ShowScene(frame playback.SceneFrame) {
	t.mu.Lock()
	t.last = ""
	t.mu.Unlock()

	fmt.Printf("\n--- Scene %d ---\n", frame.Index+1)
	fmt.Printf("%s %s\n", frame.Mood.String(), frame.CharacterName)
	if frame.Input == schema.InputChoice {
		for i, opt := range frame.Options {
			fmt.Printf("  %d. %s\n", i+1, opt)
		}
	}
}

func (t *termSurface) SetDialogue(text string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if text == "" {
		t.last = ""
		return
	}
	if strings.HasPrefix(text, t.last) {
		fmt.Print(text[len(t.last):])
	} else {
		fmt.Print("\n" + text)
	}
	t.last = text
}

func (t *termSurface) ShowOutcome(frame playback.OutcomeFrame) {
	fmt.Printf("\n\n%s %s\n", frame.Mood.String(), frame.Reaction)
}

func (t *termSurface) ShowCompleted(title string) {
	fmt.Printf("\n🎉 Selamat! Kamu menyelesaikan %q.\n", title)
}

// waitFor blocks until the reveal has emitted the full dialogue or the
// timeout passes. Keeps prompts from interleaving with the reveal.
func (t *termSurface) waitFor(full string, timeout time.Duration) {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		t.mu.Lock()
		done := t.last == full
		t.mu.Unlock()
		if done {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
}
