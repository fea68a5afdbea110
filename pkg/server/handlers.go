package server

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"pandai/pkg/schema"
	"pandai/pkg/tutor"
	"pandai/pkg/utils"
)

// GET /api/state
func (s *Server) handleGetState(c echo.Context) error {
	ctx := c.Request().Context()

	profile, streak, xp, err := s.Progress.Stats(ctx)
	if err != nil {
		c.Logger().Errorf("load stats: %v", err)
		return c.JSON(http.StatusInternalServerError, utils.ErrJSON("failed loading progress"))
	}
	done, err := s.Progress.Completed(ctx)
	if err != nil {
		c.Logger().Errorf("load completions: %v", err)
		return c.JSON(http.StatusInternalServerError, utils.ErrJSON("failed loading progress"))
	}

	state := schema.AppState{
		StreakDays: streak,
		XP:         xp,
		Profile:    profile,
		Modules:    make([]schema.Module, 0, len(s.catalog)),
	}
	for _, id := range s.catalog {
		lesson := s.lessons[id]
		state.Modules = append(state.Modules, schema.Module{
			ID:    lesson.ID,
			Title: lesson.Title,
			Icon:  lesson.Icon,
			Color: lesson.Color,
			Done:  done[lesson.ID],
		})
		if state.CurrentLesson == "" && !done[lesson.ID] {
			state.CurrentLesson = lesson.Title
		}
	}
	return c.JSON(http.StatusOK, state)
}

// GET /api/lesson/:id
func (s *Server) handleGetLesson(c echo.Context) error {
	lesson, ok := s.lessons[c.Param("id")]
	if !ok {
		return echo.NewHTTPError(http.StatusNotFound, "lesson not found")
	}
	return c.JSON(http.StatusOK, lesson)
}

// POST /api/check-text
func (s *Server) handlePostCheckText(c echo.Context) error {
	var req schema.TextAnswerRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid json")
	}
	grader, ok := s.graderFor(req.LessonID)
	if !ok {
		return echo.NewHTTPError(http.StatusNotFound, "lesson not found")
	}
	if strings.TrimSpace(req.Answer) == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "answer is required")
	}

	resp, err := grader.CheckText(c.Request().Context(), req.SceneIndex, req.Answer)
	if err != nil {
		c.Logger().Warnf("check-text scene %d: %v", req.SceneIndex, err)
		return echo.NewHTTPError(http.StatusBadRequest, "could not grade answer")
	}
	return c.JSON(http.StatusOK, resp)
}

// POST /api/ask-tutor
func (s *Server) handlePostAskTutor(c echo.Context) error {
	var req schema.ChatRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid json")
	}
	if s.Tutor == nil {
		return c.JSON(http.StatusOK, schema.ChatResponse{Reply: tutor.FallbackReply})
	}
	reply := s.Tutor.Ask(c.Request().Context(), req.Context, req.UserQuery)
	return c.JSON(http.StatusOK, schema.ChatResponse{Reply: reply})
}

// POST /api/complete
func (s *Server) handlePostComplete(c echo.Context) error {
	var req schema.CompleteRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid json")
	}
	if _, ok := s.lessons[req.ModuleID]; !ok {
		return echo.NewHTTPError(http.StatusNotFound, "module not found")
	}
	if err := s.Progress.CompleteModule(c.Request().Context(), req.ModuleID, req.XP); err != nil {
		c.Logger().Errorf("complete module %s: %v", req.ModuleID, err)
		return echo.NewHTTPError(http.StatusBadRequest, "could not record completion")
	}
	return c.JSON(http.StatusOK, map[string]any{"success": true})
}
