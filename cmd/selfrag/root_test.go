package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCommand_Metadata(t *testing.T) {
	assert.Equal(t, "selfrag", rootCmd.Use)
	assert.NotEmpty(t, rootCmd.Short)
	assert.True(t, rootCmd.SilenceUsage)
}

func TestRootCommand_PersistentFlags(t *testing.T) {
	flag := rootCmd.PersistentFlags().Lookup("config")
	require.NotNil(t, flag)
	assert.Equal(t, "c", flag.Shorthand)
	assert.Equal(t, "", flag.DefValue)

	flag = rootCmd.PersistentFlags().Lookup("log-level")
	require.NotNil(t, flag)
	assert.Equal(t, "", flag.DefValue)
}

func TestRootCommand_Subcommands(t *testing.T) {
	names := make(map[string]bool)
	for _, cmd := range rootCmd.Commands() {
		names[cmd.Name()] = true
	}
	for _, want := range []string{"ask", "chat", "plan", "inspect"} {
		assert.True(t, names[want], "missing subcommand %s", want)
	}
}

func TestRootCommand_InvalidConfigFile(t *testing.T) {
	setupTestServices(t)

	_, err := executeCommand(t, "", "--config", "/nonexistent/selfrag.yaml", "plan", "What is the dataset?")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "read config")
}

func TestRootCommand_LogLevelFlagOverridesConfig(t *testing.T) {
	setupTestServices(t)

	_, err := executeCommand(t, "", "--log-level", "debug", "plan", "What is the dataset?")
	require.NoError(t, err)
	require.NotNil(t, appConfig)
	assert.Equal(t, "debug", appConfig.Logging.Level)
}

func TestVersionCommand(t *testing.T) {
	setupTestServices(t)

	out, err := executeCommand(t, "", "version")
	require.NoError(t, err)
	assert.Contains(t, out, "selfrag version dev")
}
