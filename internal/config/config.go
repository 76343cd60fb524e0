package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

type Config struct {
	// Core
	BotToken    string `env:"BOT_TOKEN,required"`
	DatabaseURL string `env:"DATABASE_URL"`

	// Workflow: "cbse" or "simple"
	Workflow string `env:"GRADING_WORKFLOW" envDefault:"cbse"`

	// OpenAI (primary grading + vision)
	OpenAIKey     string `env:"OPENAI_API_KEY"`
	OpenAIBaseURL string `env:"OPENAI_BASE_URL"`
	GradingModel  string `env:"GRADING_MODEL" envDefault:"gpt-4o"`
	VisionModel   string `env:"VISION_MODEL" envDefault:"gpt-4o"`

	// Gemini (backup grading endpoint, optional)
	GeminiKey   string `env:"GEMINI_API_KEY"`
	GeminiModel string `env:"GEMINI_MODEL" envDefault:"gemini-1.5-flash"`

	// Offline mode: canned OCR and deterministic grading, no credentials needed
	DemoMode bool `env:"DEMO_MODE" envDefault:"false"`

	// Retry policy for the grading collaborator
	GradeMaxAttempts int           `env:"GRADE_MAX_ATTEMPTS" envDefault:"3"`
	GradeBaseDelay   time.Duration `env:"GRADE_BASE_DELAY" envDefault:"2s"`

	// Uploaded image storage
	UploadDir     string `env:"UPLOAD_DIR" envDefault:"uploads"`
	UploadBaseURL string `env:"UPLOAD_BASE_URL"`

	// Session inactivity timeout; 0 disables expiry
	SessionTimeout time.Duration `env:"SESSION_TIMEOUT" envDefault:"1h"`

	// Bot behavior
	DropPendingUpdates bool `env:"BOT_DROP_PENDING_UPDATES" envDefault:"false"`
}

func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	return cfg, nil
}

// Validate rejects configurations that cannot serve a single turn. These are
// fatal at startup, never discovered mid-conversation.
func (c *Config) Validate() error {
	if !c.DemoMode && c.OpenAIKey == "" {
		return errors.New("OPENAI_API_KEY is required unless DEMO_MODE is enabled")
	}
	if c.Workflow != "cbse" && c.Workflow != "simple" {
		return fmt.Errorf("unknown workflow %q (want cbse or simple)", c.Workflow)
	}
	if c.GradeMaxAttempts < 1 {
		return errors.New("GRADE_MAX_ATTEMPTS must be at least 1")
	}
	return nil
}
