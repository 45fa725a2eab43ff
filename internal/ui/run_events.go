package ui

import (
	"fmt"
	"io"
	"os"

	"go.uber.org/zap"

	"github.com/shellbook/shellbook/internal/runevents"
	"github.com/shellbook/shellbook/internal/utils"
)

const (
	runStartedMessageTemplateConstant    = "Running %s"
	runCompletedMessageTemplateConstant  = "Script %s exited with code %d"
	runTerminatedMessageTemplateConstant = "Script %s terminated before reporting an exit code"
	runFailureMessageTemplateConstant    = "Script %s failed: %s"
	unknownFailureMessageConstant        = "unknown error"
	chunkWriteFailureLogMessageConstant  = "unable to relay script output chunk"
	logFieldScriptIdentifierConstant     = "script_identifier"
	logFieldRunIdentifierConstant        = "run_identifier"
	logFieldWriteFailureConstant         = "failure"
	logFieldOutputStreamKindConstant     = "stream"
)

// RunEventFormatter builds human-readable messages for run lifecycle events.
type RunEventFormatter struct{}

// BuildStartedMessage formats the message describing a run about to produce output.
func (formatter RunEventFormatter) BuildStartedMessage(startEvent runevents.Event) string {
	return fmt.Sprintf(runStartedMessageTemplateConstant, startEvent.CommandLine)
}

// BuildCompletionMessage formats the message describing a finished run.
func (formatter RunEventFormatter) BuildCompletionMessage(endEvent runevents.Event) string {
	if endEvent.ExitCode == nil {
		return fmt.Sprintf(runTerminatedMessageTemplateConstant, endEvent.ScriptIdentifier)
	}
	return fmt.Sprintf(runCompletedMessageTemplateConstant, endEvent.ScriptIdentifier, *endEvent.ExitCode)
}

// BuildFailureMessage formats the message describing a spawn or runtime failure.
func (formatter RunEventFormatter) BuildFailureMessage(errorEvent runevents.Event) string {
	failureMessage := errorEvent.FailureMessage
	if len(failureMessage) == 0 {
		failureMessage = unknownFailureMessageConstant
	}
	return fmt.Sprintf(runFailureMessageTemplateConstant, errorEvent.ScriptIdentifier, failureMessage)
}

// ConsoleRunEventLogger renders run lifecycle events through a zap logger and
// relays raw output chunks to console writers. It implements runevents.Sink.
type ConsoleRunEventLogger struct {
	logger       *zap.Logger
	formatter    RunEventFormatter
	outputWriter io.Writer
	errorWriter  io.Writer
}

var _ runevents.Sink = (*ConsoleRunEventLogger)(nil)

// NewConsoleRunEventLogger constructs a console event logger backed by the
// provided zap logger and chunk writers. Nil writers default to the process
// standard streams; writers are wrapped to flush after every chunk so output
// appears live.
func NewConsoleRunEventLogger(logger *zap.Logger, outputWriter io.Writer, errorWriter io.Writer) *ConsoleRunEventLogger {
	if logger == nil {
		logger = zap.NewNop()
	}
	if outputWriter == nil {
		outputWriter = os.Stdout
	}
	if errorWriter == nil {
		errorWriter = os.Stderr
	}
	return &ConsoleRunEventLogger{
		logger:       logger,
		formatter:    RunEventFormatter{},
		outputWriter: utils.NewFlushingWriter(outputWriter),
		errorWriter:  utils.NewFlushingWriter(errorWriter),
	}
}

// Publish implements runevents.Sink by rendering the event for the console.
func (eventLogger *ConsoleRunEventLogger) Publish(runEvent runevents.Event) {
	if eventLogger == nil {
		return
	}
	switch runEvent.Kind {
	case runevents.KindStart:
		eventLogger.logger.Info(eventLogger.formatter.BuildStartedMessage(runEvent))
	case runevents.KindStdout:
		eventLogger.relayChunk(eventLogger.outputWriter, runEvent)
	case runevents.KindStderr:
		eventLogger.relayChunk(eventLogger.errorWriter, runEvent)
	case runevents.KindError:
		eventLogger.logger.Error(eventLogger.formatter.BuildFailureMessage(runEvent))
	case runevents.KindEnd:
		eventLogger.logCompletion(runEvent)
	}
}

func (eventLogger *ConsoleRunEventLogger) logCompletion(endEvent runevents.Event) {
	completionMessage := eventLogger.formatter.BuildCompletionMessage(endEvent)
	if endEvent.ExitCode != nil && *endEvent.ExitCode != 0 {
		eventLogger.logger.Warn(completionMessage)
		return
	}
	eventLogger.logger.Info(completionMessage)
}

func (eventLogger *ConsoleRunEventLogger) relayChunk(chunkWriter io.Writer, chunkEvent runevents.Event) {
	if _, writeError := io.WriteString(chunkWriter, chunkEvent.Chunk); writeError != nil {
		eventLogger.logger.Warn(
			chunkWriteFailureLogMessageConstant,
			zap.String(logFieldScriptIdentifierConstant, chunkEvent.ScriptIdentifier),
			zap.String(logFieldRunIdentifierConstant, chunkEvent.RunIdentifier),
			zap.String(logFieldOutputStreamKindConstant, string(chunkEvent.Kind)),
			zap.String(logFieldWriteFailureConstant, writeError.Error()),
		)
	}
}
