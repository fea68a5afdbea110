package server

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"pandai/pkg/config"
	"pandai/pkg/flight"
	"pandai/pkg/grading"
	"pandai/pkg/inference"
	"pandai/pkg/progress"
	"pandai/pkg/schema"
	"pandai/pkg/tutor"
	"pandai/pkg/utils"
)

// Server hosts the lesson API: dashboard state, lesson content, free-text
// grading, the tutor chat, module completion, mood image assets, and the
// WebSocket play transport.
type Server struct {
	Echo     *echo.Echo
	Ctx      context.Context
	Tutor    *tutor.Tutor
	Progress *progress.Store

	lessons       map[string]*schema.Lesson
	graders       map[string]*grading.Grader
	catalog       []string // lesson ids in display order
	defaultLesson string

	assetsDir string
	images    *flight.Cache[string, []byte]
}

// NewServer loads and validates every lesson under cfg.LessonsDir and
// wires the routes. A nil inferencer disables LLM grading and the tutor;
// authored rules still grade text answers.
func NewServer(ctx context.Context, cfg config.Config, inf inference.Inferencer, store *progress.Store) (*Server, error) {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.Logger())
	e.Use(middleware.CORS())

	s := &Server{
		Echo:      e,
		Ctx:       ctx,
		Progress:  store,
		lessons:   make(map[string]*schema.Lesson),
		graders:   make(map[string]*grading.Grader),
		assetsDir: cfg.AssetsDir,
	}
	if inf != nil {
		s.Tutor = tutor.New(inf)
	}
	s.images = flight.New(0, s.encodeImage)

	if err := s.loadLessons(cfg.LessonsDir, inf); err != nil {
		return nil, err
	}

	s.registerRoutes(cfg.WebDir)
	return s, nil
}

// loadLessons reads every *.json lesson, rejecting unplayable content at
// startup rather than mid-lesson.
func (s *Server) loadLessons(dir string, inf inference.Inferencer) error {
	paths, err := filepath.Glob(filepath.Join(dir, "*.json"))
	if err != nil {
		return fmt.Errorf("server: scan lessons dir: %w", err)
	}
	if len(paths) == 0 {
		return fmt.Errorf("server: no lessons found in %s", dir)
	}

	for _, path := range paths {
		lesson, err := utils.Load[schema.Lesson](path)
		if err != nil {
			return fmt.Errorf("server: load lesson %s: %w", path, err)
		}
		if lesson.ID == "" {
			lesson.ID = strings.TrimSuffix(filepath.Base(path), ".json")
		}
		if err := lesson.Validate(); err != nil {
			return fmt.Errorf("server: lesson %s: %w", path, err)
		}

		opts := []grading.Option{}
		if inf != nil {
			opts = append(opts, grading.WithInferencer(inf))
		}
		grader, err := grading.New(&lesson, opts...)
		if err != nil {
			return fmt.Errorf("server: lesson %s: %w", path, err)
		}

		l := lesson
		s.lessons[l.ID] = &l
		s.graders[l.ID] = grader
		s.catalog = append(s.catalog, l.ID)
	}

	sort.Strings(s.catalog)
	s.defaultLesson = s.catalog[0]
	log.Infof("Loaded %d lessons from %s", len(s.lessons), dir)
	return nil
}

func (s *Server) registerRoutes(webDir string) {
	api := s.Echo.Group("/api")
	api.GET("/state", s.handleGetState)
	api.GET("/lesson/:id", s.handleGetLesson)
	api.POST("/check-text", s.handlePostCheckText)
	api.POST("/ask-tutor", s.handlePostAskTutor)
	api.POST("/complete", s.handlePostComplete)

	s.Echo.GET("/images/:name", s.handleGetImage)
	s.Echo.GET("/ws/play", s.handleWSPlay)

	if _, err := os.Stat(webDir); err == nil {
		s.Echo.Static("/", webDir)
	}
}

func (s *Server) Start(addr string) error {
	log.Infof("Server listening at %s", addr)
	return s.Echo.Start(addr)
}

func (s *Server) Shutdown(ctx context.Context) error {
	log.Info("Shutting down server...")
	return s.Echo.Shutdown(ctx)
}

// lessonFor resolves an optional lesson id to a loaded lesson.
func (s *Server) lessonFor(id string) (*schema.Lesson, bool) {
	if id == "" {
		id = s.defaultLesson
	}
	l, ok := s.lessons[id]
	return l, ok
}

// graderFor resolves an optional lesson id to its grader.
func (s *Server) graderFor(id string) (*grading.Grader, bool) {
	if id == "" {
		id = s.defaultLesson
	}
	g, ok := s.graders[id]
	return g, ok
}
