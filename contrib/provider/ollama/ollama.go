package ollama

import (
	"context"
	"fmt"
	"strings"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/ollama"

	"github.com/sweetpotato0/selfrag/agent"
)

var _ agent.Generator = (*Provider)(nil)

// Config holds Ollama provider configuration
type Config struct {
	ServerURL   string
	Model       string
	MaxTokens   int
	Temperature float64
}

// DefaultConfig returns default Ollama configuration
func DefaultConfig() *Config {
	return &Config{
		ServerURL:   "http://localhost:11434",
		Model:       "llama3.2",
		MaxTokens:   256,
		Temperature: 0.2,
	}
}

// Provider generates single-turn completions with a local Ollama server.
type Provider struct {
	config *Config
	llm    *ollama.LLM
}

// New creates a new Ollama provider
func New(config *Config) (*Provider, error) {
	if config == nil {
		config = DefaultConfig()
	}
	if config.Model == "" {
		config.Model = DefaultConfig().Model
	}

	opts := []ollama.Option{ollama.WithModel(config.Model)}
	if config.ServerURL != "" {
		opts = append(opts, ollama.WithServerURL(config.ServerURL))
	}
	llm, err := ollama.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("create ollama client: %w", err)
	}
	return &Provider{config: config, llm: llm}, nil
}

// Model implements agent.Generator.
func (p *Provider) Model() string {
	return p.config.Model
}

// Generate implements agent.Generator.
func (p *Provider) Generate(ctx context.Context, prompt string) (string, error) {
	msgs := []llms.MessageContent{
		llms.TextParts(llms.ChatMessageTypeHuman, prompt),
	}

	var opts []llms.CallOption
	if p.config.Temperature > 0 {
		opts = append(opts, llms.WithTemperature(p.config.Temperature))
	}
	if p.config.MaxTokens > 0 {
		opts = append(opts, llms.WithMaxTokens(p.config.MaxTokens))
	}

	resp, err := p.llm.GenerateContent(ctx, msgs, opts...)
	if err != nil {
		return "", fmt.Errorf("Ollama API error: %w", err)
	}
	if resp == nil || len(resp.Choices) == 0 {
		return "", fmt.Errorf("Ollama API returned no choices")
	}
	return strings.TrimSpace(resp.Choices[0].Content), nil
}
