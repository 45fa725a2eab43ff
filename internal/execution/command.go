package execution

import (
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"runtime"
	"strings"
	"sync"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/shellbook/shellbook/internal/runevents"
	"github.com/shellbook/shellbook/internal/scripts"
	"github.com/shellbook/shellbook/internal/shellplan"
	"github.com/shellbook/shellbook/internal/supervisor"
	"github.com/shellbook/shellbook/internal/ui"
)

const (
	runCommandUseConstant              = "run <script-name>"
	runCommandShortDescriptionConstant = "Run a saved script and stream its output"
	runCommandLongDescriptionConstant  = "run executes the named script with its configured shell, streaming standard output and standard error live. Press Ctrl-C to stop the running script."
	scriptNameEmptyMessageConstant     = "script name must not be empty"
	storeNotConfiguredMessageConstant  = "script store not configured"
	runFailureTemplateConstant         = "run failed: %w"
	nonZeroExitTemplateConstant        = "script %q exited with code %d"
	runtimeFailureTemplateConstant     = "script %q failed: %s"
)

var (
	errScriptNameEmpty   = errors.New(scriptNameEmptyMessageConstant)
	errStoreNotAvailable = errors.New(storeNotConfiguredMessageConstant)
)

// LoggerProvider supplies a zap logger instance.
type LoggerProvider func() *zap.Logger

// StoreProvider supplies the script catalog store.
type StoreProvider func() (scripts.Store, error)

// RunCommandBuilder assembles the Cobra command executing a saved script.
type RunCommandBuilder struct {
	LoggerProvider LoggerProvider
	StoreProvider  StoreProvider
	OutputWriter   io.Writer
	ErrorWriter    io.Writer
}

// Build constructs the run command.
func (builder *RunCommandBuilder) Build() (*cobra.Command, error) {
	command := &cobra.Command{
		Use:   runCommandUseConstant,
		Short: runCommandShortDescriptionConstant,
		Long:  runCommandLongDescriptionConstant,
		Args:  cobra.ExactArgs(1),
		RunE:  builder.run,
	}
	return command, nil
}

func (builder *RunCommandBuilder) run(command *cobra.Command, arguments []string) error {
	scriptName := strings.TrimSpace(arguments[0])
	if len(scriptName) == 0 {
		return errScriptNameEmpty
	}

	logger := builder.resolveLogger()
	catalogStore, storeError := builder.resolveStore()
	if storeError != nil {
		return storeError
	}

	scriptRecord, lookupError := findRecordByNameOrIdentifier(catalogStore, scriptName)
	if lookupError != nil {
		return lookupError
	}

	consoleSink := ui.NewConsoleRunEventLogger(logger, builder.OutputWriter, builder.ErrorWriter)
	completionObserver := newRunCompletionObserver()
	eventSink := runevents.NewFanoutSink(consoleSink, completionObserver)

	processSupervisor, supervisorError := supervisor.NewSupervisor(logger, eventSink, supervisor.NewPlatformTerminator(runtime.GOOS))
	if supervisorError != nil {
		return supervisorError
	}

	executionController, controllerError := NewController(logger, catalogStore, shellplan.NewResolver(), processSupervisor)
	if controllerError != nil {
		return controllerError
	}

	signalContext, stopNotifying := signal.NotifyContext(command.Context(), os.Interrupt)
	defer stopNotifying()

	if _, runError := executionController.Run(signalContext, scriptRecord.Identifier); runError != nil {
		return fmt.Errorf(runFailureTemplateConstant, runError)
	}

	select {
	case <-completionObserver.completed():
	case <-signalContext.Done():
		executionController.Stop(scriptRecord.Identifier)
		<-completionObserver.completed()
	}

	return interpretTerminalEvent(scriptRecord.Name, completionObserver.terminalEvent())
}

func (builder *RunCommandBuilder) resolveLogger() *zap.Logger {
	if builder.LoggerProvider == nil {
		return zap.NewNop()
	}
	providedLogger := builder.LoggerProvider()
	if providedLogger == nil {
		return zap.NewNop()
	}
	return providedLogger
}

func (builder *RunCommandBuilder) resolveStore() (scripts.Store, error) {
	if builder.StoreProvider == nil {
		return nil, errStoreNotAvailable
	}
	return builder.StoreProvider()
}

// findRecordByNameOrIdentifier prefers the unique name and falls back to a
// direct identifier lookup so either form works on the command line.
func findRecordByNameOrIdentifier(catalogStore scripts.Store, nameOrIdentifier string) (scripts.Record, error) {
	namedRecord, nameLookupError := catalogStore.FindByName(nameOrIdentifier)
	if nameLookupError == nil {
		return namedRecord, nil
	}
	if !errors.Is(nameLookupError, scripts.ErrRecordNotFound) {
		return scripts.Record{}, nameLookupError
	}
	return catalogStore.Get(nameOrIdentifier)
}

func interpretTerminalEvent(scriptName string, terminalEvent runevents.Event) error {
	switch terminalEvent.Kind {
	case runevents.KindError:
		return fmt.Errorf(runtimeFailureTemplateConstant, scriptName, terminalEvent.FailureMessage)
	case runevents.KindEnd:
		if terminalEvent.ExitCode != nil && *terminalEvent.ExitCode != 0 {
			return fmt.Errorf(nonZeroExitTemplateConstant, scriptName, *terminalEvent.ExitCode)
		}
	}
	return nil
}

// runCompletionObserver records the first terminal event of a run and closes
// its completion channel, letting the command wait for the run to finish.
type runCompletionObserver struct {
	completionChannel chan struct{}
	closeOnce         sync.Once
	mutex             sync.Mutex
	recordedEvent     runevents.Event
	eventRecorded     bool
}

var _ runevents.Sink = (*runCompletionObserver)(nil)

func newRunCompletionObserver() *runCompletionObserver {
	return &runCompletionObserver{completionChannel: make(chan struct{})}
}

// Publish implements runevents.Sink by watching for the terminal event.
func (observer *runCompletionObserver) Publish(runEvent runevents.Event) {
	if !runEvent.IsTerminal() {
		return
	}
	observer.mutex.Lock()
	if !observer.eventRecorded {
		observer.recordedEvent = runEvent
		observer.eventRecorded = true
	}
	observer.mutex.Unlock()
	observer.closeOnce.Do(func() { close(observer.completionChannel) })
}

func (observer *runCompletionObserver) completed() <-chan struct{} {
	return observer.completionChannel
}

func (observer *runCompletionObserver) terminalEvent() runevents.Event {
	observer.mutex.Lock()
	defer observer.mutex.Unlock()
	return observer.recordedEvent
}
