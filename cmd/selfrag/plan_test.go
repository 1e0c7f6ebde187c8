package main

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPlanCommand_RequiresQuestion(t *testing.T) {
	setupTestServices(t)

	_, err := executeCommand(t, "", "plan")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "accepts 1 arg(s)")
}

func TestPlanCommand_SimpleQuestion(t *testing.T) {
	setupTestServices(t)

	out, err := executeCommand(t, "", "plan", "Who wrote the paper?")
	require.NoError(t, err)
	assert.Contains(t, out, "Complexity: simple")
	assert.Contains(t, out, "Plan: passthrough")
	assert.Contains(t, out, "Subtask 1: Who wrote the paper?")
}

func TestPlanCommand_SectionQuestion(t *testing.T) {
	setupTestServices(t)

	out, err := executeCommand(t, "", "plan", "What dataset was used?")
	require.NoError(t, err)
	assert.Contains(t, out, "Plan: sectioned")
	assert.Contains(t, out, "Subtask 1: Find info about the dataset used.")
}

func TestPlanCommand_CompoundQuestion(t *testing.T) {
	setupTestServices(t)

	out, err := executeCommand(t, "", "plan", "Explain the methodology and limitations.")
	require.NoError(t, err)
	assert.Contains(t, out, "Plan: decomposed")
	assert.Contains(t, out, "Subtask 1: Explain the methodology")
	assert.Contains(t, out, "Subtask 2: Limitations.")
	assert.Contains(t, out, "Subtask 3: Combine and summarize findings.")
}

func TestPlanCommand_JSON(t *testing.T) {
	setupTestServices(t)

	out, err := executeCommand(t, "", "plan", "--json", "What are the limitations?")
	require.NoError(t, err)

	var plan map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &plan))
	assert.Equal(t, "passthrough", plan["kind"])
	assert.Equal(t, "What are the limitations?", plan["query"])
	complexity, ok := plan["complexity"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, true, complexity["is_complex"])
}

func TestPlanCommand_RunsWithoutCredentials(t *testing.T) {
	setupTestServices(t)
	t.Setenv("OPENAI_API_KEY", "")

	_, err := executeCommand(t, "", "plan", "What dataset was used?")
	assert.NoError(t, err)
}
