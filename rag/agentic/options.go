package agentic

import (
	"github.com/sweetpotato0/selfrag/memory"
	"github.com/sweetpotato0/selfrag/prompt"
	"github.com/sweetpotato0/selfrag/rag/chunking"
	"github.com/sweetpotato0/selfrag/rag/retriever"
	"github.com/sweetpotato0/selfrag/rag/tokenizer"
)

const (
	// DefaultMaxRounds bounds how many revisions one answer may receive.
	DefaultMaxRounds = 2
	// RevisionThreshold is the critique score at or above which an answer is kept.
	RevisionThreshold = 7
)

// Config controls behaviour of the pipeline and its components.
type Config struct {
	Name                 string // Logical name for logging
	TopK                 int    // Neighbours retrieved per step
	MaxRounds            int    // Revision cap per answer
	MaxPromptChars       int    // Answer prompts longer than this are rebuilt
	TruncatedContextSize int    // Context characters kept when rebuilding
	CritiqueContextSize  int    // Context characters shown to critic and reviser
	ChunkSize            int
	ChunkOverlap         int
	ConversationContext  bool // Prepend recent session turns to each answer prompt
	RecentTurns          int

	prompts   *prompt.Manager
	tokenizer tokenizer.Tokenizer
	chunker   chunking.Chunker
	session   *memory.Session
}

// Option customises the pipeline configuration.
type Option func(*Config)

// WithName sets the pipeline name used in logs.
func WithName(name string) Option {
	return func(cfg *Config) {
		if name != "" {
			cfg.Name = name
		}
	}
}

// WithTopK overrides how many chunks each retrieval step fetches.
func WithTopK(k int) Option {
	return func(cfg *Config) {
		if k > 0 {
			cfg.TopK = k
		}
	}
}

// WithMaxRounds caps the number of revisions. Zero disables revision.
func WithMaxRounds(n int) Option {
	return func(cfg *Config) {
		if n >= 0 {
			cfg.MaxRounds = n
		}
	}
}

// WithPromptLimit sets the answer prompt length limit and the context length
// kept when the limit is exceeded.
func WithPromptLimit(maxChars, truncateTo int) Option {
	return func(cfg *Config) {
		if maxChars > 0 && truncateTo > 0 {
			cfg.MaxPromptChars = maxChars
			cfg.TruncatedContextSize = truncateTo
		}
	}
}

// WithChunking configures chunk size and overlap used by Ingest.
func WithChunking(size, overlap int) Option {
	return func(cfg *Config) {
		if size > 0 {
			cfg.ChunkSize = size
		}
		if overlap >= 0 {
			cfg.ChunkOverlap = overlap
		}
	}
}

// WithChunker plugs in a custom chunker implementation.
func WithChunker(ch chunking.Chunker) Option {
	return func(cfg *Config) {
		if ch != nil {
			cfg.chunker = ch
		}
	}
}

// WithConversationContext prepends the last turns of the session to each
// answer prompt's context.
func WithConversationContext(turns int) Option {
	return func(cfg *Config) {
		if turns > 0 {
			cfg.ConversationContext = true
			cfg.RecentTurns = turns
		}
	}
}

// WithSession records runs into an existing session.
func WithSession(s *memory.Session) Option {
	return func(cfg *Config) {
		if s != nil {
			cfg.session = s
		}
	}
}

// WithPrompts replaces the prompt templates.
func WithPrompts(m *prompt.Manager) Option {
	return func(cfg *Config) {
		if m != nil {
			cfg.prompts = m
		}
	}
}

// WithTokenizer sets the tokenizer used to report prompt sizes.
func WithTokenizer(t tokenizer.Tokenizer) Option {
	return func(cfg *Config) {
		if t != nil {
			cfg.tokenizer = t
		}
	}
}

func defaultConfig() *Config {
	return &Config{
		Name:                 "selfrag",
		TopK:                 retriever.DefaultTopK,
		MaxRounds:            DefaultMaxRounds,
		MaxPromptChars:       2000,
		TruncatedContextSize: 1800,
		CritiqueContextSize:  500,
		ChunkSize:            chunking.DefaultChunkSize,
		ChunkOverlap:         chunking.DefaultOverlap,
		RecentTurns:          3,
	}
}

func applyOptions(cfg *Config, opts []Option) *Config {
	if cfg == nil {
		cfg = defaultConfig()
	}
	for _, opt := range opts {
		if opt != nil {
			opt(cfg)
		}
	}
	if cfg.prompts == nil {
		cfg.prompts = prompt.Defaults()
	}
	if cfg.tokenizer == nil {
		cfg.tokenizer = tokenizer.NewSimpleTokenizer()
	}
	if cfg.session == nil {
		cfg.session = memory.NewSession()
	}
	if cfg.chunker == nil {
		cfg.chunker = chunking.NewWindowChunker(
			chunking.WithChunkSize(cfg.ChunkSize),
			chunking.WithOverlap(cfg.ChunkOverlap),
		)
	}
	return cfg
}
