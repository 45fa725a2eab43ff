package supervisor

import (
	"os"
	"time"
)

// RunHandle identifies one live execution of a script. At most one RunHandle
// exists per script identifier at a time; the identifier becomes eligible for
// a new run once the handle's terminal event has been published.
type RunHandle struct {
	// ScriptIdentifier names the script whose process is running.
	ScriptIdentifier string
	// RunIdentifier uniquely labels this execution attempt.
	RunIdentifier string
	// StartedAt records when the run was registered.
	StartedAt time.Time
}

// activeRun pairs the public handle with the supervised process state.
// Fields beyond the handle are mutated only while holding the registry mutex.
type activeRun struct {
	handle        RunHandle
	process       *os.Process
	stopRequested bool
}
