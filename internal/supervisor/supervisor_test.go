package supervisor_test

import (
	"os"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/shellbook/shellbook/internal/runevents"
	"github.com/shellbook/shellbook/internal/shellplan"
	"github.com/shellbook/shellbook/internal/supervisor"
)

const (
	testScriptIdentifierConstant          = "script-under-test"
	testWindowsSkipReasonConstant         = "test drives a POSIX shell"
	testTerminalEventWaitTimeoutConstant  = 5 * time.Second
	testTerminalEventPollIntervalConstant = 10 * time.Millisecond
)

func skipOnWindows(testInstance *testing.T) {
	testInstance.Helper()
	if runtime.GOOS == "windows" {
		testInstance.Skip(testWindowsSkipReasonConstant)
	}
}

func newPosixShellPlan(testInstance *testing.T, scriptContent string) shellplan.ShellPlan {
	testInstance.Helper()
	resolver := shellplan.NewResolverWithDependencies(runtime.GOOS, nil, os.Getenv)
	resolvedPlan, resolveError := resolver.Resolve(shellplan.ShellKindSh, scriptContent)
	require.NoError(testInstance, resolveError)
	return resolvedPlan
}

func newTestSupervisor(testInstance *testing.T, collectingSink *runevents.CollectingSink) *supervisor.Supervisor {
	testInstance.Helper()
	workingDirectory := testInstance.TempDir()
	processSupervisor, creationError := supervisor.NewSupervisorWithHomeDirectoryProvider(
		zap.NewNop(),
		collectingSink,
		supervisor.NewPlatformTerminator(runtime.GOOS),
		func() (string, error) { return workingDirectory, nil },
	)
	require.NoError(testInstance, creationError)
	return processSupervisor
}

func awaitTerminalEvent(testInstance *testing.T, collectingSink *runevents.CollectingSink, scriptIdentifier string) runevents.Event {
	testInstance.Helper()
	var terminalEvent runevents.Event
	require.Eventually(testInstance, func() bool {
		for _, recordedEvent := range collectingSink.EventsForScript(scriptIdentifier) {
			if recordedEvent.Kind == runevents.KindEnd {
				terminalEvent = recordedEvent
				return true
			}
		}
		return false
	}, testTerminalEventWaitTimeoutConstant, testTerminalEventPollIntervalConstant)
	return terminalEvent
}

func TestSupervisorConstructionValidation(testInstance *testing.T) {
	testCases := []struct {
		name          string
		logger        *zap.Logger
		sink          runevents.Sink
		terminator    supervisor.ProcessTerminator
		expectedError error
	}{
		{
			name:          "MissingLogger",
			sink:          runevents.NewNoopSink(),
			terminator:    supervisor.NewDirectSignalTerminator(),
			expectedError: supervisor.ErrLoggerNotConfigured,
		},
		{
			name:          "MissingSink",
			logger:        zap.NewNop(),
			terminator:    supervisor.NewDirectSignalTerminator(),
			expectedError: supervisor.ErrSinkNotConfigured,
		},
		{
			name:          "MissingTerminator",
			logger:        zap.NewNop(),
			sink:          runevents.NewNoopSink(),
			expectedError: supervisor.ErrTerminatorNotConfigured,
		},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			_, creationError := supervisor.NewSupervisor(testCase.logger, testCase.sink, testCase.terminator)
			require.ErrorIs(testInstance, creationError, testCase.expectedError)
		})
	}
}

func TestStartStreamsOutputAndReportsExitCode(testInstance *testing.T) {
	skipOnWindows(testInstance)

	collectingSink := runevents.NewCollectingSink()
	processSupervisor := newTestSupervisor(testInstance, collectingSink)

	runHandle, startError := processSupervisor.Start(testScriptIdentifierConstant, newPosixShellPlan(testInstance, "printf A; printf B 1>&2"))
	require.NoError(testInstance, startError)
	require.Equal(testInstance, testScriptIdentifierConstant, runHandle.ScriptIdentifier)
	require.NotEmpty(testInstance, runHandle.RunIdentifier)

	terminalEvent := awaitTerminalEvent(testInstance, collectingSink, testScriptIdentifierConstant)
	require.NotNil(testInstance, terminalEvent.ExitCode)
	require.Equal(testInstance, 0, *terminalEvent.ExitCode)

	recordedEvents := collectingSink.EventsForScript(testScriptIdentifierConstant)
	require.Equal(testInstance, runevents.KindStart, recordedEvents[0].Kind)
	require.Contains(testInstance, recordedEvents[0].CommandLine, "sh -c")

	standardOutputText := strings.Builder{}
	standardErrorText := strings.Builder{}
	for _, recordedEvent := range recordedEvents {
		switch recordedEvent.Kind {
		case runevents.KindStdout:
			standardOutputText.WriteString(recordedEvent.Chunk)
		case runevents.KindStderr:
			standardErrorText.WriteString(recordedEvent.Chunk)
		}
	}
	require.Equal(testInstance, "A", standardOutputText.String())
	require.Equal(testInstance, "B", standardErrorText.String())
	require.False(testInstance, processSupervisor.IsRunning(testScriptIdentifierConstant))
}

func TestStartReportsNonZeroExitCode(testInstance *testing.T) {
	skipOnWindows(testInstance)

	collectingSink := runevents.NewCollectingSink()
	processSupervisor := newTestSupervisor(testInstance, collectingSink)

	_, startError := processSupervisor.Start(testScriptIdentifierConstant, newPosixShellPlan(testInstance, "exit 3"))
	require.NoError(testInstance, startError)

	terminalEvent := awaitTerminalEvent(testInstance, collectingSink, testScriptIdentifierConstant)
	require.NotNil(testInstance, terminalEvent.ExitCode)
	require.Equal(testInstance, 3, *terminalEvent.ExitCode)
}

func TestStartRejectsDuplicateRun(testInstance *testing.T) {
	skipOnWindows(testInstance)

	collectingSink := runevents.NewCollectingSink()
	processSupervisor := newTestSupervisor(testInstance, collectingSink)

	firstHandle, firstStartError := processSupervisor.Start(testScriptIdentifierConstant, newPosixShellPlan(testInstance, "sleep 30"))
	require.NoError(testInstance, firstStartError)

	_, secondStartError := processSupervisor.Start(testScriptIdentifierConstant, newPosixShellPlan(testInstance, "printf ignored"))
	require.ErrorIs(testInstance, secondStartError, supervisor.ErrRunAlreadyActive)
	require.True(testInstance, processSupervisor.IsRunning(testScriptIdentifierConstant))

	require.True(testInstance, processSupervisor.Stop(testScriptIdentifierConstant))
	terminalEvent := awaitTerminalEvent(testInstance, collectingSink, testScriptIdentifierConstant)
	require.Equal(testInstance, firstHandle.ScriptIdentifier, terminalEvent.ScriptIdentifier)
}

func TestStopWithoutActiveRunReturnsFalse(testInstance *testing.T) {
	collectingSink := runevents.NewCollectingSink()
	processSupervisor := newTestSupervisor(testInstance, collectingSink)

	require.False(testInstance, processSupervisor.Stop("never-started"))
	require.Empty(testInstance, collectingSink.Events())
}

func TestStopTerminatesRunAndFreesIdentifier(testInstance *testing.T) {
	skipOnWindows(testInstance)

	collectingSink := runevents.NewCollectingSink()
	processSupervisor := newTestSupervisor(testInstance, collectingSink)

	_, startError := processSupervisor.Start(testScriptIdentifierConstant, newPosixShellPlan(testInstance, "sleep 30"))
	require.NoError(testInstance, startError)

	require.True(testInstance, processSupervisor.Stop(testScriptIdentifierConstant))

	terminalEvent := awaitTerminalEvent(testInstance, collectingSink, testScriptIdentifierConstant)
	require.Nil(testInstance, terminalEvent.ExitCode)
	require.False(testInstance, processSupervisor.IsRunning(testScriptIdentifierConstant))

	_, restartError := processSupervisor.Start(testScriptIdentifierConstant, newPosixShellPlan(testInstance, "printf C"))
	require.NoError(testInstance, restartError)
	require.Eventually(testInstance, func() bool {
		return !processSupervisor.IsRunning(testScriptIdentifierConstant)
	}, testTerminalEventWaitTimeoutConstant, testTerminalEventPollIntervalConstant)
}

func TestSpawnFailurePublishesErrorWithoutEnd(testInstance *testing.T) {
	collectingSink := runevents.NewCollectingSink()
	processSupervisor := newTestSupervisor(testInstance, collectingSink)

	missingExecutablePlan := shellplan.ShellPlan{Executable: "shellbook-test-missing-interpreter", Arguments: []string{"-c", "printf A"}}
	_, startError := processSupervisor.Start(testScriptIdentifierConstant, missingExecutablePlan)
	require.NoError(testInstance, startError)

	require.Eventually(testInstance, func() bool {
		for _, recordedEvent := range collectingSink.EventsForScript(testScriptIdentifierConstant) {
			if recordedEvent.Kind == runevents.KindError {
				return true
			}
		}
		return false
	}, testTerminalEventWaitTimeoutConstant, testTerminalEventPollIntervalConstant)

	recordedEvents := collectingSink.EventsForScript(testScriptIdentifierConstant)
	require.Equal(testInstance, runevents.KindStart, recordedEvents[0].Kind)
	for _, recordedEvent := range recordedEvents {
		require.NotEqual(testInstance, runevents.KindEnd, recordedEvent.Kind)
	}
	require.False(testInstance, processSupervisor.IsRunning(testScriptIdentifierConstant))
}

func TestEventSequenceBeginsWithStartAndEndsWithTerminal(testInstance *testing.T) {
	skipOnWindows(testInstance)

	collectingSink := runevents.NewCollectingSink()
	processSupervisor := newTestSupervisor(testInstance, collectingSink)

	_, startError := processSupervisor.Start(testScriptIdentifierConstant, newPosixShellPlan(testInstance, "printf A; exit 0"))
	require.NoError(testInstance, startError)
	awaitTerminalEvent(testInstance, collectingSink, testScriptIdentifierConstant)

	recordedEvents := collectingSink.EventsForScript(testScriptIdentifierConstant)
	require.NotEmpty(testInstance, recordedEvents)
	require.Equal(testInstance, runevents.KindStart, recordedEvents[0].Kind)
	require.True(testInstance, recordedEvents[len(recordedEvents)-1].IsTerminal())
	startEventCount := 0
	terminalEventCount := 0
	for _, recordedEvent := range recordedEvents {
		if recordedEvent.Kind == runevents.KindStart {
			startEventCount++
		}
		if recordedEvent.IsTerminal() {
			terminalEventCount++
		}
	}
	require.Equal(testInstance, 1, startEventCount)
	require.Equal(testInstance, 1, terminalEventCount)
}
