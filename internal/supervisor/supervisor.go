package supervisor

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/shellbook/shellbook/internal/runevents"
	"github.com/shellbook/shellbook/internal/shellplan"
)

const (
	loggerNotConfiguredMessageConstant     = "logger not configured"
	sinkNotConfiguredMessageConstant       = "event sink not configured"
	terminatorNotConfiguredMessageConstant = "process terminator not configured"
	scriptIdentifierEmptyMessageConstant   = "script identifier must not be empty"
	runAlreadyActiveMessageConstant        = "a run is already active for the script"
	runAlreadyActiveTemplateConstant       = "%w: %s"
	spawnFailureTemplateConstant           = "unable to start %s: %s"
	terminationFailedLogMessageConstant    = "process termination request failed"
	runRegisteredLogMessageConstant        = "run registered"
	runCompletedLogMessageConstant         = "run completed"
	logFieldScriptIdentifierConstant       = "script_identifier"
	logFieldRunIdentifierConstant          = "run_identifier"
	logFieldCommandLineConstant            = "command_line"
	logFieldFailureConstant                = "failure"
)

// Registry-level errors reported synchronously by the supervisor.
var (
	// ErrLoggerNotConfigured indicates the supervisor was constructed without a logger.
	ErrLoggerNotConfigured = errors.New(loggerNotConfiguredMessageConstant)
	// ErrSinkNotConfigured indicates the supervisor was constructed without an event sink.
	ErrSinkNotConfigured = errors.New(sinkNotConfiguredMessageConstant)
	// ErrTerminatorNotConfigured indicates the supervisor was constructed without a terminator.
	ErrTerminatorNotConfigured = errors.New(terminatorNotConfiguredMessageConstant)
	// ErrScriptIdentifierEmpty indicates a start request without a script identifier.
	ErrScriptIdentifierEmpty = errors.New(scriptIdentifierEmptyMessageConstant)
	// ErrRunAlreadyActive indicates a start request for a script that is already running.
	ErrRunAlreadyActive = errors.New(runAlreadyActiveMessageConstant)
)

// HomeDirectoryProvider resolves the working directory assigned to child processes.
type HomeDirectoryProvider func() (string, error)

// Supervisor maps script identifiers to live child processes, enforcing a
// single concurrent run per identifier.
type Supervisor struct {
	logger                *zap.Logger
	sink                  runevents.Sink
	terminator            ProcessTerminator
	homeDirectoryProvider HomeDirectoryProvider
	registryMutex         sync.Mutex
	activeRuns            map[string]*activeRun
}

// NewSupervisor constructs a Supervisor publishing events to the provided sink.
func NewSupervisor(logger *zap.Logger, sink runevents.Sink, terminator ProcessTerminator) (*Supervisor, error) {
	return NewSupervisorWithHomeDirectoryProvider(logger, sink, terminator, os.UserHomeDir)
}

// NewSupervisorWithHomeDirectoryProvider constructs a Supervisor with an explicit
// working directory resolver for child processes.
func NewSupervisorWithHomeDirectoryProvider(logger *zap.Logger, sink runevents.Sink, terminator ProcessTerminator, homeDirectoryProvider HomeDirectoryProvider) (*Supervisor, error) {
	if logger == nil {
		return nil, ErrLoggerNotConfigured
	}
	if sink == nil {
		return nil, ErrSinkNotConfigured
	}
	if terminator == nil {
		return nil, ErrTerminatorNotConfigured
	}
	if homeDirectoryProvider == nil {
		homeDirectoryProvider = os.UserHomeDir
	}
	return &Supervisor{
		logger:                logger,
		sink:                  sink,
		terminator:            terminator,
		homeDirectoryProvider: homeDirectoryProvider,
		activeRuns:            map[string]*activeRun{},
	}, nil
}

// Start registers and spawns a run for the script. The handle is registered
// before any output can be observed, closing the race between spawn and stop.
// Spawn failures surface asynchronously through an error event while the
// returned handle remains valid for correlation.
func (processSupervisor *Supervisor) Start(scriptIdentifier string, resolvedPlan shellplan.ShellPlan) (RunHandle, error) {
	if len(scriptIdentifier) == 0 {
		return RunHandle{}, ErrScriptIdentifierEmpty
	}

	registeredRun := &activeRun{
		handle: RunHandle{
			ScriptIdentifier: scriptIdentifier,
			RunIdentifier:    uuid.NewString(),
			StartedAt:        time.Now(),
		},
	}

	processSupervisor.registryMutex.Lock()
	if _, runExists := processSupervisor.activeRuns[scriptIdentifier]; runExists {
		processSupervisor.registryMutex.Unlock()
		return RunHandle{}, fmt.Errorf(runAlreadyActiveTemplateConstant, ErrRunAlreadyActive, scriptIdentifier)
	}
	processSupervisor.activeRuns[scriptIdentifier] = registeredRun
	processSupervisor.registryMutex.Unlock()

	runHandle := registeredRun.handle

	processSupervisor.logger.Debug(
		runRegisteredLogMessageConstant,
		zap.String(logFieldScriptIdentifierConstant, scriptIdentifier),
		zap.String(logFieldRunIdentifierConstant, runHandle.RunIdentifier),
		zap.String(logFieldCommandLineConstant, resolvedPlan.CommandLine()),
	)
	processSupervisor.sink.Publish(runevents.NewStartEvent(scriptIdentifier, runHandle.RunIdentifier, resolvedPlan.CommandLine()))

	childCommand := processSupervisor.buildChildCommand(runHandle, resolvedPlan)

	if startError := childCommand.Start(); startError != nil {
		processSupervisor.deregisterRun(scriptIdentifier, runHandle.RunIdentifier)
		processSupervisor.sink.Publish(runevents.NewErrorEvent(
			scriptIdentifier,
			runHandle.RunIdentifier,
			fmt.Sprintf(spawnFailureTemplateConstant, resolvedPlan.Executable, startError),
		))
		return runHandle, nil
	}

	processSupervisor.registryMutex.Lock()
	registeredRun.process = childCommand.Process
	stopAlreadyRequested := registeredRun.stopRequested
	processSupervisor.registryMutex.Unlock()

	if stopAlreadyRequested {
		processSupervisor.terminateProcess(runHandle, childCommand.Process)
	}

	go processSupervisor.awaitCompletion(runHandle, childCommand)

	return runHandle, nil
}

// Stop signals termination to the script's process if one is running. It
// returns true when a process was signaled and false when no run was active.
// Stop does not wait for the terminal event; callers needing confirmation
// observe the event sequence separately.
func (processSupervisor *Supervisor) Stop(scriptIdentifier string) bool {
	processSupervisor.registryMutex.Lock()
	registeredRun, runExists := processSupervisor.activeRuns[scriptIdentifier]
	if !runExists {
		processSupervisor.registryMutex.Unlock()
		return false
	}
	if registeredRun.process == nil {
		registeredRun.stopRequested = true
		processSupervisor.registryMutex.Unlock()
		return true
	}
	runHandle := registeredRun.handle
	runningProcess := registeredRun.process
	processSupervisor.registryMutex.Unlock()

	processSupervisor.terminateProcess(runHandle, runningProcess)
	return true
}

// IsRunning reports whether a run is currently registered for the script.
func (processSupervisor *Supervisor) IsRunning(scriptIdentifier string) bool {
	processSupervisor.registryMutex.Lock()
	defer processSupervisor.registryMutex.Unlock()
	_, runExists := processSupervisor.activeRuns[scriptIdentifier]
	return runExists
}

// ActiveRunCount reports the number of currently registered runs.
func (processSupervisor *Supervisor) ActiveRunCount() int {
	processSupervisor.registryMutex.Lock()
	defer processSupervisor.registryMutex.Unlock()
	return len(processSupervisor.activeRuns)
}

func (processSupervisor *Supervisor) buildChildCommand(runHandle RunHandle, resolvedPlan shellplan.ShellPlan) *exec.Cmd {
	childCommand := exec.Command(resolvedPlan.Executable, resolvedPlan.Arguments...)
	childCommand.Env = os.Environ()
	if homeDirectory, homeLookupError := processSupervisor.homeDirectoryProvider(); homeLookupError == nil {
		childCommand.Dir = homeDirectory
	}
	childCommand.Stdout = runevents.NewStreamEventWriter(processSupervisor.sink, runevents.KindStdout, runHandle.ScriptIdentifier, runHandle.RunIdentifier)
	childCommand.Stderr = runevents.NewStreamEventWriter(processSupervisor.sink, runevents.KindStderr, runHandle.ScriptIdentifier, runHandle.RunIdentifier)
	return childCommand
}

// awaitCompletion blocks on process exit off the registry mutex, removes the
// registry entry, and publishes the terminal event.
func (processSupervisor *Supervisor) awaitCompletion(runHandle RunHandle, childCommand *exec.Cmd) {
	waitError := childCommand.Wait()

	exitCode, runtimeFailureMessage := interpretWaitOutcome(waitError)

	processSupervisor.deregisterRun(runHandle.ScriptIdentifier, runHandle.RunIdentifier)

	if len(runtimeFailureMessage) > 0 {
		processSupervisor.sink.Publish(runevents.NewErrorEvent(runHandle.ScriptIdentifier, runHandle.RunIdentifier, runtimeFailureMessage))
	}
	processSupervisor.sink.Publish(runevents.NewEndEvent(runHandle.ScriptIdentifier, runHandle.RunIdentifier, exitCode))

	completionFields := []zap.Field{
		zap.String(logFieldScriptIdentifierConstant, runHandle.ScriptIdentifier),
		zap.String(logFieldRunIdentifierConstant, runHandle.RunIdentifier),
	}
	if exitCode != nil {
		completionFields = append(completionFields, zap.Int("exit_code", *exitCode))
	}
	processSupervisor.logger.Debug(runCompletedLogMessageConstant, completionFields...)
}

// deregisterRun removes the registry entry when it still belongs to the given
// run. Removal is idempotent so a stop-triggered exit racing the waiter
// cannot evict a successor run.
func (processSupervisor *Supervisor) deregisterRun(scriptIdentifier string, runIdentifier string) {
	processSupervisor.registryMutex.Lock()
	defer processSupervisor.registryMutex.Unlock()
	registeredRun, runExists := processSupervisor.activeRuns[scriptIdentifier]
	if !runExists {
		return
	}
	if registeredRun.handle.RunIdentifier != runIdentifier {
		return
	}
	delete(processSupervisor.activeRuns, scriptIdentifier)
}

func (processSupervisor *Supervisor) terminateProcess(runHandle RunHandle, runningProcess *os.Process) {
	if terminationError := processSupervisor.terminator.Terminate(runningProcess); terminationError != nil {
		processSupervisor.logger.Warn(
			terminationFailedLogMessageConstant,
			zap.String(logFieldScriptIdentifierConstant, runHandle.ScriptIdentifier),
			zap.String(logFieldRunIdentifierConstant, runHandle.RunIdentifier),
			zap.String(logFieldFailureConstant, terminationError.Error()),
		)
	}
}

// interpretWaitOutcome maps the wait error to an exit code and an optional
// runtime failure message. A nil exit code records termination before a clean
// exit, such as a killed process.
func interpretWaitOutcome(waitError error) (*int, string) {
	if waitError == nil {
		completedCode := 0
		return &completedCode, ""
	}

	exitError := &exec.ExitError{}
	if errors.As(waitError, &exitError) {
		reportedCode := exitError.ExitCode()
		if reportedCode >= 0 {
			return &reportedCode, ""
		}
		return nil, ""
	}

	return nil, waitError.Error()
}
