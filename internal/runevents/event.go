package runevents

const (
	eventKindStartStringConstant  = "start"
	eventKindStdoutStringConstant = "stdout"
	eventKindStderrStringConstant = "stderr"
	eventKindErrorStringConstant  = "error"
	eventKindEndStringConstant    = "end"
)

// Kind tags the variant of an Event.
type Kind string

// Supported event kind enumerations.
const (
	KindStart  Kind = Kind(eventKindStartStringConstant)
	KindStdout Kind = Kind(eventKindStdoutStringConstant)
	KindStderr Kind = Kind(eventKindStderrStringConstant)
	KindError  Kind = Kind(eventKindErrorStringConstant)
	KindEnd    Kind = Kind(eventKindEndStringConstant)
)

// Event is one entry in the output sequence of a script run. Stdout and
// stderr chunks carry raw text exactly as delivered by the operating system;
// chunks are not guaranteed to be line aligned, and any line splitting for
// display belongs to the consumer.
type Event struct {
	// Kind selects the populated payload fields.
	Kind Kind
	// ScriptIdentifier names the script whose run produced the event.
	ScriptIdentifier string
	// RunIdentifier distinguishes the individual run.
	RunIdentifier string
	// CommandLine carries the resolved invocation; populated for start events.
	CommandLine string
	// Chunk carries raw output text; populated for stdout and stderr events.
	Chunk string
	// FailureMessage carries a human-readable description; populated for error events.
	FailureMessage string
	// ExitCode carries the process exit code for end events. A nil value
	// means the process was terminated before reporting a code.
	ExitCode *int
}

// IsTerminal reports whether the event closes its run's sequence from the
// consumer's point of view. Every error event counts as terminal: when the
// process never spawned no end event follows, and when a runtime failure
// struck after a successful spawn the trailing end event adds nothing the
// error has not already signaled. Consumers treat the first of error or end
// as final.
func (event Event) IsTerminal() bool {
	return event.Kind == KindEnd || event.Kind == KindError
}

// NewStartEvent builds the event announcing a freshly registered run.
func NewStartEvent(scriptIdentifier string, runIdentifier string, commandLine string) Event {
	return Event{
		Kind:             KindStart,
		ScriptIdentifier: scriptIdentifier,
		RunIdentifier:    runIdentifier,
		CommandLine:      commandLine,
	}
}

// NewStdoutEvent builds an event carrying a raw standard output chunk.
func NewStdoutEvent(scriptIdentifier string, runIdentifier string, chunk string) Event {
	return Event{
		Kind:             KindStdout,
		ScriptIdentifier: scriptIdentifier,
		RunIdentifier:    runIdentifier,
		Chunk:            chunk,
	}
}

// NewStderrEvent builds an event carrying a raw standard error chunk.
func NewStderrEvent(scriptIdentifier string, runIdentifier string, chunk string) Event {
	return Event{
		Kind:             KindStderr,
		ScriptIdentifier: scriptIdentifier,
		RunIdentifier:    runIdentifier,
		Chunk:            chunk,
	}
}

// NewErrorEvent builds an event describing a spawn or runtime failure.
func NewErrorEvent(scriptIdentifier string, runIdentifier string, failureMessage string) Event {
	return Event{
		Kind:             KindError,
		ScriptIdentifier: scriptIdentifier,
		RunIdentifier:    runIdentifier,
		FailureMessage:   failureMessage,
	}
}

// NewEndEvent builds the terminal event for a run that spawned. A nil exit
// code records that the process was killed before exiting cleanly.
func NewEndEvent(scriptIdentifier string, runIdentifier string, exitCode *int) Event {
	return Event{
		Kind:             KindEnd,
		ScriptIdentifier: scriptIdentifier,
		RunIdentifier:    runIdentifier,
		ExitCode:         exitCode,
	}
}
