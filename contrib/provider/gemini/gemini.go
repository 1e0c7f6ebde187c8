package gemini

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"github.com/sweetpotato0/selfrag/agent"
)

var _ agent.Generator = (*Provider)(nil)

// Config holds Gemini provider configuration
type Config struct {
	APIKey      string
	Model       string
	MaxTokens   int32
	Temperature float32
}

// DefaultConfig returns default Gemini configuration
func DefaultConfig(apiKey string) *Config {
	return &Config{
		APIKey:      apiKey,
		Model:       "gemini-1.5-flash",
		MaxTokens:   1024,
		Temperature: 0.2,
	}
}

// Provider generates single-turn completions with Google Gemini.
type Provider struct {
	config *Config
	client *genai.Client
	model  *genai.GenerativeModel
	once   sync.Once
}

// New creates a new Gemini provider
func New(ctx context.Context, config *Config) (*Provider, error) {
	if config == nil {
		config = DefaultConfig("")
	}
	if config.Model == "" {
		config.Model = "gemini-1.5-flash"
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(config.APIKey))
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}

	model := client.GenerativeModel(config.Model)
	if config.Temperature > 0 {
		model.SetTemperature(config.Temperature)
	}
	if config.MaxTokens > 0 {
		model.SetMaxOutputTokens(config.MaxTokens)
	}

	return &Provider{
		config: config,
		client: client,
		model:  model,
	}, nil
}

// Model implements agent.Generator.
func (p *Provider) Model() string {
	return p.config.Model
}

// Generate implements agent.Generator.
func (p *Provider) Generate(ctx context.Context, prompt string) (string, error) {
	resp, err := p.model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", fmt.Errorf("Gemini API error: %w", err)
	}
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", fmt.Errorf("Gemini API returned no candidates")
	}

	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if text, ok := part.(genai.Text); ok {
			sb.WriteString(string(text))
		}
	}
	return strings.TrimSpace(sb.String()), nil
}

// Close releases the underlying client.
func (p *Provider) Close() error {
	var err error
	p.once.Do(func() { err = p.client.Close() })
	return err
}
