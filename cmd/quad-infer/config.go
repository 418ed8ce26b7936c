package main

import (
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/caarlos0/env/v8"
	"github.com/theimaginaryfoundation/dimabsa/absa/logging"
	"github.com/theimaginaryfoundation/dimabsa/absa/provider"
)

type Config struct {
	DataPath   string
	InferData  string
	OutputPath string
	Limit      int

	Profile     string
	Provider    string
	Model       string
	APIKey      string
	Delay       time.Duration
	MaxAttempts int
	JSONMode    bool

	LedgerPath string
	Resume     bool

	LogLevel string
	LogJSON  bool
}

// envConfig is read before flags; flags override it.
type envConfig struct {
	GeminiAPIKey string        `env:"GEMINI_API_KEY"`
	GoogleAPIKey string        `env:"GOOGLE_API_KEY"`
	OpenAIAPIKey string        `env:"OPENAI_API_KEY"`
	Profile      string        `env:"DIMABSA_PROFILE" envDefault:"restaurant"`
	Provider     string        `env:"DIMABSA_PROVIDER" envDefault:"gemini"`
	Model        string        `env:"DIMABSA_MODEL"`
	Delay        time.Duration `env:"DIMABSA_DELAY" envDefault:"3s"`
	LogLevel     string        `env:"DIMABSA_LOG_LEVEL" envDefault:"info"`
}

// loadEnv parses the process environment, or environ when it is non-nil.
func loadEnv(environ map[string]string) (envConfig, error) {
	var ev envConfig
	opts := env.Options{}
	if environ != nil {
		opts.Environment = environ
	}
	if err := env.ParseWithOptions(&ev, opts); err != nil {
		return envConfig{}, fmt.Errorf("parse environment: %w", err)
	}
	return ev, nil
}

func (c Config) Validate() error {
	if c.DataPath == "" {
		return errors.New("missing -data-path")
	}
	if c.OutputPath == "" {
		return errors.New("missing -output-path")
	}
	if c.Profile == "" {
		return errors.New("missing -profile")
	}
	if _, err := provider.Normalize(c.Provider); err != nil {
		return err
	}
	if c.Limit < 0 {
		return errors.New("limit must be >= 0")
	}
	if c.Delay < 0 {
		return errors.New("delay must be >= 0")
	}
	if c.MaxAttempts < 1 {
		return errors.New("max attempts must be >= 1")
	}
	if c.Resume && c.LedgerPath == "" {
		return errors.New("-resume requires -ledger")
	}
	if _, err := logging.ParseLevel(c.LogLevel); err != nil {
		return err
	}
	return nil
}

// apiKey prefers -api-key, then the provider's environment variables.
func (c Config) apiKey(ev envConfig) string {
	if c.APIKey != "" {
		return c.APIKey
	}
	name, _ := provider.Normalize(c.Provider)
	if name == provider.OpenAI {
		return ev.OpenAIAPIKey
	}
	if ev.GeminiAPIKey != "" {
		return ev.GeminiAPIKey
	}
	return ev.GoogleAPIKey
}

func defaultConfig(ev envConfig) Config {
	return Config{
		DataPath:    filepath.FromSlash("./dataset/"),
		OutputPath:  filepath.FromSlash("./tasks/"),
		Profile:     ev.Profile,
		Provider:    ev.Provider,
		Model:       ev.Model,
		Delay:       ev.Delay,
		MaxAttempts: 1,
		LogLevel:    ev.LogLevel,
	}
}
