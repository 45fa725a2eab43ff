package cli_test

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/shellbook/shellbook/cmd/cli"
)

var expectedCommandNames = []string{"save", "list", "show", "remove", "run"}

func TestNewApplicationRegistersScriptCommands(testInstance *testing.T) {
	application, applicationError := cli.NewApplication()
	require.NoError(testInstance, applicationError)
	rootCommand := application.RootCommand()
	require.NotNil(testInstance, rootCommand)

	registeredNames := make(map[string]struct{})
	for _, registeredCommand := range rootCommand.Commands() {
		registeredNames[registeredCommand.Name()] = struct{}{}
	}

	for _, expectedName := range expectedCommandNames {
		require.Contains(testInstance, registeredNames, expectedName)
	}
}

func TestApplicationListUsesCatalogOverride(testInstance *testing.T) {
	catalogPath := filepath.Join(testInstance.TempDir(), "scripts.yaml")

	application, applicationError := cli.NewApplication()
	require.NoError(testInstance, applicationError)
	rootCommand := application.RootCommand()

	var outputBuffer bytes.Buffer
	rootCommand.SetOut(&outputBuffer)
	rootCommand.SetErr(&outputBuffer)
	rootCommand.SetArgs([]string{"list", "--catalog", catalogPath, "--log-level", "error"})

	executionError := rootCommand.Execute()
	require.NoError(testInstance, executionError)
	require.Contains(testInstance, outputBuffer.String(), "No scripts saved yet.")
}

func TestApplicationRejectsUnknownLogLevel(testInstance *testing.T) {
	application, applicationError := cli.NewApplication()
	require.NoError(testInstance, applicationError)
	rootCommand := application.RootCommand()

	var outputBuffer bytes.Buffer
	rootCommand.SetOut(&outputBuffer)
	rootCommand.SetErr(&outputBuffer)
	rootCommand.SetArgs([]string{"list", "--log-level", "verbose"})

	executionError := rootCommand.Execute()
	require.Error(testInstance, executionError)
	require.ErrorContains(testInstance, executionError, "unsupported log level")
}

func TestApplicationSaveAndShowRoundTrip(testInstance *testing.T) {
	catalogPath := filepath.Join(testInstance.TempDir(), "scripts.yaml")

	application, applicationError := cli.NewApplication()
	require.NoError(testInstance, applicationError)
	rootCommand := application.RootCommand()

	var saveBuffer bytes.Buffer
	rootCommand.SetOut(&saveBuffer)
	rootCommand.SetErr(&saveBuffer)
	rootCommand.SetArgs([]string{"save", "greet", "--shell", "sh", "--content", "echo hello", "--catalog", catalogPath, "--log-level", "error"})
	require.NoError(testInstance, rootCommand.Execute())

	var showBuffer bytes.Buffer
	rootCommand.SetOut(&showBuffer)
	rootCommand.SetErr(&showBuffer)
	rootCommand.SetArgs([]string{"show", "greet", "--catalog", catalogPath, "--log-level", "error"})
	require.NoError(testInstance, rootCommand.Execute())
	require.Contains(testInstance, showBuffer.String(), "echo hello")
}
