package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/charmbracelet/log"
	_ "github.com/joho/godotenv/autoload"
	echolog "github.com/labstack/gommon/log"

	"pandai/pkg/config"
	"pandai/pkg/inference"
	"pandai/pkg/progress"
	"pandai/pkg/server"
)

func main() {
	ctx, done := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)

	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	inf := pickInferencer(cfg)

	store, err := progress.Open(cfg.DBPath)
	if err != nil {
		log.Fatal(err)
	}
	defer store.Close()

	srv, err := server.NewServer(ctx, cfg, inf, store)
	if err != nil {
		log.Fatal(err)
	}
	srv.Echo.Logger.SetLevel(echolog.INFO)

	finishedShutDown := make(chan struct{})
	go func() {
		<-ctx.Done()
		if err := srv.Shutdown(context.Background()); err != nil {
			log.Error(err)
		}
		done()
		close(finishedShutDown)
	}()

	if err := srv.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Error(err)
	}
	<-finishedShutDown
}

// pickInferencer prefers Gemini, then Grok, then OpenAI. With no keys at
// all it points the OpenAI client at a local endpoint so the tutor and
// LLM grading still work against e.g. LM Studio.
func pickInferencer(cfg config.Config) inference.Inferencer {
	if cfg.GeminiKey != "" {
		gem, err := inference.NewGeminiInferencer(cfg.GeminiKey, cfg.GeminiModel)
		if err != nil {
			log.Fatalf("gemini: %v", err)
		}
		return gem
	}
	if cfg.GrokKey != "" {
		return inference.NewGrokInferencer(cfg.GrokKey, cfg.GrokModel)
	}

	openAI := inference.NewOpenAIInferencer(cfg.OpenAIKey, cfg.OpenAIModel)
	if cfg.OpenAIKey == "" {
		openAI.ChangeBaseURL("http://localhost:1234/v1")
		openAI.SetModel("")
	}
	return openAI
}
