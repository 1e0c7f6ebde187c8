package main

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sweetpotato0/selfrag/agent"
	"github.com/sweetpotato0/selfrag/config"
)

const testDocument = `Study of Remote Learning

The methodology uses a survey of two hundred students across three universities.

The results show that weekly feedback improved completion rates.

The dataset contains anonymised course logs from two semesters.`

const testAnswer = "The methodology uses a survey of two hundred students across three universities."

// stubGenerator answers every question with one grounded sentence.
type stubGenerator struct{}

func (stubGenerator) Generate(_ context.Context, p string) (string, error) {
	switch {
	case strings.HasPrefix(p, "Evaluate this answer"):
		return "The answer is complete.", nil
	case strings.HasPrefix(p, "Combine these partial answers"):
		return testAnswer, nil
	}
	return testAnswer, nil
}

func (stubGenerator) Model() string { return "stub" }

// stubEmbedder maps text onto a few keyword axes.
type stubEmbedder struct{}

func (stubEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	lower := strings.ToLower(text)
	return []float32{
		1,
		float32(strings.Count(lower, "methodology")),
		float32(strings.Count(lower, "result")),
		float32(strings.Count(lower, "dataset")),
	}, nil
}

func (e stubEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, text := range texts {
		v, _ := e.Embed(ctx, text)
		out[i] = v
	}
	return out, nil
}

func (stubEmbedder) Dimension() int { return 4 }

// setupTestServices swaps in scripted backends and resets global flags.
func setupTestServices(t *testing.T) {
	t.Helper()
	t.Setenv("SELFRAG_API_KEY", "")
	t.Setenv("OPENAI_API_KEY", "test-key")
	t.Setenv("SELFRAG_EMBEDDING_DIMENSION", "4")
	t.Setenv("SELFRAG_LOG_LEVEL", "error")
	t.Setenv("SELFRAG_CHUNKING_STRATEGY", "")

	orig := newServices
	newServices = func(*config.Config) *agent.Services {
		return agent.NewServices(
			agent.WithGenerator(stubGenerator{}),
			agent.WithEmbedder(stubEmbedder{}),
		)
	}
	t.Cleanup(func() {
		newServices = orig
		configPath, logLevel = "", ""
		askJSON, askVerbose, chatVerbose, planJSON, inspectJSON = false, false, false, false, false
	})
}

// failServices makes generator construction fail like a misconfigured provider.
func failServices(t *testing.T) {
	t.Helper()
	newServices = func(*config.Config) *agent.Services {
		return agent.NewServices(
			agent.WithGeneratorFactory(func(context.Context) (agent.Generator, error) {
				return nil, errors.New("provider unreachable")
			}, "broken"),
			agent.WithEmbedder(stubEmbedder{}),
		)
	}
}

func executeCommand(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetIn(strings.NewReader(stdin))
	rootCmd.SetArgs(args)
	defer func() {
		rootCmd.SetArgs(nil)
		rootCmd.SetIn(nil)
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
	}()
	err := rootCmd.Execute()
	return buf.String(), err
}

func writeDocument(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "paper.txt")
	if err := os.WriteFile(path, []byte(testDocument), 0o600); err != nil {
		t.Fatalf("write document: %v", err)
	}
	return path
}
