package shellplan

import "strings"

const (
	commandLineJoinSeparatorConstant = " "
)

// ShellPlan describes the concrete interpreter invocation resolved for one run.
// Plans are derived fresh per run and never persisted.
type ShellPlan struct {
	// Executable is the interpreter path or command name handed to the operating system.
	Executable string
	// Arguments holds the ordered interpreter arguments, script content included.
	Arguments []string
	// PlatformNote optionally describes which discovery path produced the plan.
	PlatformNote string
}

// CommandLine renders the resolved invocation for display purposes.
func (plan ShellPlan) CommandLine() string {
	commandParts := append([]string{plan.Executable}, plan.Arguments...)
	return strings.Join(commandParts, commandLineJoinSeparatorConstant)
}
