package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// ErrProvider marks any summarization-provider failure: transport errors,
// timeouts, empty or malformed responses. Callers treat it as a signal to
// fall back, never as a request failure.
var ErrProvider = errors.New("llm: provider failure")

// Provider is the single capability this service needs from a summarization
// backend. Implementations are interchangeable and selected once at startup.
type Provider interface {
	// Complete sends a system+user prompt pair and returns the raw text reply.
	Complete(ctx context.Context, system, user string) (string, error)
}

// Config selects and configures a provider.
type Config struct {
	Provider string // "openai", "deepseek", "gemini"
	APIKey   string
	Model    string
	BaseURL  string
}

// New builds the configured provider. Deepseek speaks the OpenAI chat API,
// so it reuses the OpenAI client against its own base URL.
func New(cfg Config) (Provider, error) {
	if strings.TrimSpace(cfg.Model) == "" {
		return nil, errors.New("llm: model is required")
	}
	switch strings.ToLower(strings.TrimSpace(cfg.Provider)) {
	case "openai":
		return NewOpenAI(cfg), nil
	case "deepseek":
		if cfg.BaseURL == "" {
			cfg.BaseURL = "https://api.deepseek.com/v1"
		}
		return NewOpenAI(cfg), nil
	case "gemini":
		return NewGemini(cfg), nil
	}
	return nil, fmt.Errorf("llm: unsupported provider %q", cfg.Provider)
}
