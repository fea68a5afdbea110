// Package client is the typed HTTP client for the lesson server, used by
// the terminal player and anything else driving playback remotely.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"pandai/pkg/schema"
)

// Client talks to a running lesson server.
type Client struct {
	base string
	http *http.Client
}

// New builds a client for the server at base, e.g. "http://localhost:8080".
func New(base string) *Client {
	return &Client{
		base: strings.TrimRight(base, "/"),
		http: &http.Client{Timeout: 30 * time.Second},
	}
}

// State fetches the dashboard payload.
func (c *Client) State(ctx context.Context) (schema.AppState, error) {
	var state schema.AppState
	err := c.get(ctx, "/api/state", &state)
	return state, err
}

// Lesson fetches and validates one lesson.
func (c *Client) Lesson(ctx context.Context, id string) (*schema.Lesson, error) {
	var lesson schema.Lesson
	if err := c.get(ctx, "/api/lesson/"+url.PathEscape(id), &lesson); err != nil {
		return nil, err
	}
	if err := lesson.Validate(); err != nil {
		return nil, fmt.Errorf("client: server sent unplayable lesson: %w", err)
	}
	return &lesson, nil
}

// AskTutor sends a question with its scene context to the tutor.
func (c *Client) AskTutor(ctx context.Context, sceneContext, query string) (string, error) {
	var resp schema.ChatResponse
	err := c.post(ctx, "/api/ask-tutor", schema.ChatRequest{
		Context:   sceneContext,
		UserQuery: query,
	}, &resp)
	return resp.Reply, err
}

// Complete marks a module finished and awards XP.
func (c *Client) Complete(ctx context.Context, moduleID string, xp int) error {
	return c.post(ctx, "/api/complete", schema.CompleteRequest{ModuleID: moduleID, XP: xp}, nil)
}

// Checker binds the grading endpoint to one lesson so it satisfies
// playback.AnswerChecker.
type Checker struct {
	client   *Client
	lessonID string
}

// Checker returns an answer checker for the given lesson.
func (c *Client) Checker(lessonID string) *Checker {
	return &Checker{client: c, lessonID: lessonID}
}

// CheckText grades a free-text answer for one scene of the bound lesson.
func (ch *Checker) CheckText(ctx context.Context, sceneIndex int, answer string) (schema.TextAnswerResponse, error) {
	var resp schema.TextAnswerResponse
	err := ch.client.post(ctx, "/api/check-text", schema.TextAnswerRequest{
		LessonID:   ch.lessonID,
		SceneIndex: sceneIndex,
		Answer:     answer,
	}, &resp)
	return resp, err
}

func (c *Client) get(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.base+path, nil)
	if err != nil {
		return fmt.Errorf("client: build request: %w", err)
	}
	return c.do(req, out)
}

func (c *Client) post(ctx context.Context, path string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("client: encode request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.base+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("client: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, out)
}

func (c *Client) do(req *http.Request, out any) error {
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("client: %s %s: %w", req.Method, req.URL.Path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("client: %s %s: status %d: %s", req.Method, req.URL.Path, resp.StatusCode, strings.TrimSpace(string(body)))
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("client: decode %s: %w", req.URL.Path, err)
	}
	return nil
}
