// Package provider builds a text generator from provider settings.
package provider

import (
	"context"
	"fmt"
	"strings"

	"github.com/sweetpotato0/selfrag/agent"
	"github.com/sweetpotato0/selfrag/contrib/provider/claude"
	"github.com/sweetpotato0/selfrag/contrib/provider/gemini"
	"github.com/sweetpotato0/selfrag/contrib/provider/ollama"
	"github.com/sweetpotato0/selfrag/contrib/provider/openai"
	selfragerrors "github.com/sweetpotato0/selfrag/errors"
)

// Provider names.
const (
	OpenAI = "openai"
	Claude = "claude"
	Gemini = "gemini"
	Ollama = "ollama"
	Groq   = "groq"
)

// GroqBaseURL is Groq's OpenAI-compatible endpoint.
const GroqBaseURL = "https://api.groq.com/openai/v1"

// Names lists the supported providers.
func Names() []string {
	return []string{OpenAI, Claude, Gemini, Ollama, Groq}
}

// Settings selects and configures a generation backend.
type Settings struct {
	Provider    string
	Model       string
	APIKey      string
	BaseURL     string
	Temperature float64
	MaxTokens   int
}

// New constructs the generator named by s.Provider.
func New(ctx context.Context, s Settings) (agent.Generator, error) {
	switch strings.ToLower(s.Provider) {
	case OpenAI, "":
		cfg := openai.DefaultConfig().WithAPIKey(s.APIKey).WithBaseURL(s.BaseURL).WithModel(s.Model)
		applyOpenAI(cfg, s)
		return openai.New(cfg), nil
	case Groq:
		base := s.BaseURL
		if base == "" {
			base = GroqBaseURL
		}
		cfg := openai.DefaultConfig().WithAPIKey(s.APIKey).WithBaseURL(base).WithModel(s.Model)
		if s.Model == "" {
			cfg.Model = "llama-3.1-8b-instant"
		}
		applyOpenAI(cfg, s)
		return openai.New(cfg), nil
	case Claude:
		cfg := claude.DefaultConfig(s.APIKey, s.BaseURL)
		if s.Model != "" {
			cfg.Model = s.Model
		}
		if s.Temperature > 0 {
			cfg.Temperature = s.Temperature
		}
		if s.MaxTokens > 0 {
			cfg.MaxTokens = int64(s.MaxTokens)
		}
		return claude.New(cfg), nil
	case Gemini:
		cfg := gemini.DefaultConfig(s.APIKey)
		if s.Model != "" {
			cfg.Model = s.Model
		}
		if s.Temperature > 0 {
			cfg.Temperature = float32(s.Temperature)
		}
		if s.MaxTokens > 0 {
			cfg.MaxTokens = int32(s.MaxTokens)
		}
		return gemini.New(ctx, cfg)
	case Ollama:
		cfg := ollama.DefaultConfig()
		if s.BaseURL != "" {
			cfg.ServerURL = s.BaseURL
		}
		if s.Model != "" {
			cfg.Model = s.Model
		}
		if s.Temperature > 0 {
			cfg.Temperature = s.Temperature
		}
		if s.MaxTokens > 0 {
			cfg.MaxTokens = s.MaxTokens
		}
		return ollama.New(cfg)
	default:
		return nil, fmt.Errorf("%w: unknown generation provider %q", selfragerrors.ErrInvalidInput, s.Provider)
	}
}

func applyOpenAI(cfg *openai.Config, s Settings) {
	if cfg.Model == "" {
		cfg.Model = openai.DefaultConfig().Model
	}
	if s.Temperature > 0 {
		cfg.Temperature = s.Temperature
	}
	if s.MaxTokens > 0 {
		cfg.MaxTokens = int64(s.MaxTokens)
	}
}
