// Package config loads server configuration from the environment.
package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

// Config is the lesson server's environment.
type Config struct {
	Port       string `env:"PORT" envDefault:"8080"`
	LessonsDir string `env:"LESSONS_DIR" envDefault:"lessons"`
	WebDir     string `env:"WEB_DIR" envDefault:"web"`
	AssetsDir  string `env:"ASSETS_DIR" envDefault:"web"`
	DBPath     string `env:"DB_PATH" envDefault:"pandai.db"`

	OpenAIKey   string `env:"OPENAI_API_KEY"`
	OpenAIModel string `env:"OPENAI_MODEL" envDefault:"gpt-4o-mini"`
	GeminiKey   string `env:"GEMINI_API_KEY"`
	GeminiModel string `env:"GEMINI_MODEL"`
	GrokKey     string `env:"GROK_API_KEY"`
	GrokModel   string `env:"GROK_MODEL"`
}

// Load parses the environment. godotenv's autoload import in main fills
// the environment from .env first.
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}
