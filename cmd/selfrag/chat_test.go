package main

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	selfragerrors "github.com/sweetpotato0/selfrag/errors"
)

func TestChatCommand_Session(t *testing.T) {
	setupTestServices(t)
	path := writeDocument(t)

	input := strings.Join([]string{
		"history",
		"Describe the methodology",
		"",
		"history",
		"clear",
		"history",
		"exit",
		"Describe the results",
	}, "\n")

	out, err := executeCommand(t, input, "chat", path)
	require.NoError(t, err)
	assert.Contains(t, out, "Indexed "+path)
	assert.Contains(t, out, testAnswer)
	assert.Contains(t, out, "#1 ")
	assert.Contains(t, out, "Session cleared.")
	assert.Equal(t, 2, strings.Count(out, "No previous queries."))
	assert.NotContains(t, out, "#2 ")
}

func TestChatCommand_EndOfInput(t *testing.T) {
	setupTestServices(t)
	path := writeDocument(t)

	out, err := executeCommand(t, "Describe the methodology\n", "chat", path)
	require.NoError(t, err)
	assert.Contains(t, out, testAnswer)
}

func TestChatCommand_QuitAlias(t *testing.T) {
	setupTestServices(t)
	path := writeDocument(t)

	out, err := executeCommand(t, "QUIT\n", "chat", path)
	require.NoError(t, err)
	assert.NotContains(t, out, "Answer:")
}

func TestChatCommand_UnavailableGenerator(t *testing.T) {
	setupTestServices(t)
	failServices(t)
	path := writeDocument(t)

	out, err := executeCommand(t, "Describe the methodology\nDescribe the results\n", "chat", path)
	require.Error(t, err)
	assert.True(t, errors.Is(err, selfragerrors.ErrServiceUnavailable))
	assert.Contains(t, err.Error(), "provider unreachable")
	assert.NotContains(t, out, "Indexed ")
	assert.NotContains(t, out, "> ")
}
