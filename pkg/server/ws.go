package server

import (
	"errors"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	"pandai/pkg/playback"
	"pandai/pkg/schema"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

type inboundMessage struct {
	Type     string `json:"type"`
	LessonID string `json:"lessonId,omitempty"`
	Option   int    `json:"option,omitempty"`
	Text     string `json:"text,omitempty"`
}

type outboundMessage struct {
	Type string `json:"type"`

	// scene
	Index         int              `json:"index,omitempty"`
	CharacterName string           `json:"characterName,omitempty"`
	Mood          string           `json:"mood,omitempty"`
	MoodIsImage   bool             `json:"moodIsImage,omitempty"`
	Input         schema.InputType `json:"input,omitempty"`
	Options       []string         `json:"options,omitempty"`

	// dialogue
	Text string `json:"text,omitempty"`

	// outcome
	IsCorrect bool            `json:"isCorrect,omitempty"`
	Reaction  string          `json:"reaction,omitempty"`
	Action    playback.Action `json:"action,omitempty"`

	// completed / error
	Title string `json:"title,omitempty"`
	Error string `json:"error,omitempty"`
}

// wsSurface renders playback frames as JSON WebSocket messages. The
// reveal goroutine and the read loop both write, so sends are serialized.
type wsSurface struct {
	mu   sync.Mutex
	conn *websocket.Conn
}

func (w *wsSurface) send(msg outboundMessage) {
	w.mu.Lock()
	defer w.mu.Unlock()
	_ = w.conn.WriteJSON(msg)
}

func (w *wsSurface) ShowScene(frame playback.SceneFrame) {
	w.send(outboundMessage{
		Type:          "scene",
		Index:         frame.Index,
		CharacterName: frame.CharacterName,
		Mood:          frame.Mood.String(),
		MoodIsImage:   frame.Mood.IsImage(),
		Input:         frame.Input,
		Options:       frame.Options,
	})
}

func (w *wsSurface) SetDialogue(text string) {
	w.send(outboundMessage{Type: "dialogue", Text: text})
}

func (w *wsSurface) ShowOutcome(frame playback.OutcomeFrame) {
	w.send(outboundMessage{
		Type:        "outcome",
		IsCorrect:   frame.IsCorrect,
		Reaction:    frame.Reaction,
		Mood:        frame.Mood.String(),
		MoodIsImage: frame.Mood.IsImage(),
		Action:      frame.Action,
	})
}

func (w *wsSurface) ShowCompleted(title string) {
	w.send(outboundMessage{Type: "completed", Title: title})
}

// GET /ws/play
//
// Runs a playback session server-side: the client sends start / choose /
// answer / advance / retry and receives scene, dialogue, outcome, and
// completed frames.
func (s *Server) handleWSPlay(c echo.Context) error {
	conn, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		return err
	}
	defer conn.Close()

	surface := &wsSurface{conn: conn}
	var sess *playback.Session
	defer func() {
		if sess != nil {
			sess.Close()
		}
	}()

	for {
		var msg inboundMessage
		if err := conn.ReadJSON(&msg); err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				c.Logger().Debugf("ws read: %v", err)
			}
			return nil
		}

		switch msg.Type {
		case "start":
			lesson, ok := s.lessonFor(msg.LessonID)
			if !ok {
				surface.send(outboundMessage{Type: "error", Error: "lesson not found"})
				continue
			}
			grader, _ := s.graderFor(lesson.ID)
			if sess != nil {
				sess.Close()
			}
			sess, err = playback.NewSession(lesson, surface, grader)
			if err != nil {
				surface.send(outboundMessage{Type: "error", Error: err.Error()})
				sess = nil
				continue
			}
			sess.Start()

		case "choose":
			if sess == nil {
				surface.send(outboundMessage{Type: "error", Error: "no active session"})
				continue
			}
			if err := sess.Choose(msg.Option); err != nil {
				surface.send(outboundMessage{Type: "error", Error: err.Error()})
			}

		case "answer":
			if sess == nil {
				surface.send(outboundMessage{Type: "error", Error: "no active session"})
				continue
			}
			err := sess.SubmitText(c.Request().Context(), msg.Text)
			switch {
			case errors.Is(err, playback.ErrEmptyAnswer), errors.Is(err, playback.ErrStaleAnswer):
				// Nothing to render; the session state is unchanged.
			case err != nil:
				surface.send(outboundMessage{Type: "error", Error: err.Error()})
			}

		case "advance":
			if sess == nil {
				surface.send(outboundMessage{Type: "error", Error: "no active session"})
				continue
			}
			if err := sess.Advance(); err != nil {
				surface.send(outboundMessage{Type: "error", Error: err.Error()})
			}

		case "retry":
			if sess == nil {
				surface.send(outboundMessage{Type: "error", Error: "no active session"})
				continue
			}
			if err := sess.Retry(); err != nil {
				surface.send(outboundMessage{Type: "error", Error: err.Error()})
			}

		case "quit":
			return nil

		default:
			surface.send(outboundMessage{Type: "error", Error: "unknown message type " + msg.Type})
		}
	}
}
