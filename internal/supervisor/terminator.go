package supervisor

import (
	"os"
	"os/exec"
	"strconv"
)

const (
	windowsOperatingSystemNameConstant      = "windows"
	treeKillExecutableNameConstant          = "taskkill"
	treeKillProcessIdentifierFlagConstant   = "/pid"
	treeKillIncludeChildrenFlagConstant     = "/T"
	treeKillForcefulTerminationFlagConstant = "/F"
)

// ProcessTerminator signals termination to a supervised process. Termination
// is best effort and asynchronous; callers observe completion through the
// run's terminal event.
type ProcessTerminator interface {
	// Terminate requests that the process stop.
	Terminate(processHandle *os.Process) error
}

// DirectSignalTerminator kills the direct child process. Grandchildren
// orphaned by the shell are a known limitation on POSIX hosts.
type DirectSignalTerminator struct{}

// NewDirectSignalTerminator constructs a terminator signaling only the direct child.
func NewDirectSignalTerminator() *DirectSignalTerminator {
	return &DirectSignalTerminator{}
}

// Terminate implements ProcessTerminator by killing the direct child.
func (terminator *DirectSignalTerminator) Terminate(processHandle *os.Process) error {
	return processHandle.Kill()
}

// TreeKillCommandRunner executes the platform tree-kill utility.
type TreeKillCommandRunner func(executableName string, arguments ...string) error

// TreeKillTerminator removes the process together with every descendant,
// keyed by process identifier. Windows shells routinely spawn nested
// sub-processes (for example WSL launching a Linux bash), so signaling the
// direct child alone would leave the tree running.
type TreeKillTerminator struct {
	commandRunner TreeKillCommandRunner
}

// NewTreeKillTerminator constructs a tree terminator backed by the provided runner.
func NewTreeKillTerminator(commandRunner TreeKillCommandRunner) *TreeKillTerminator {
	if commandRunner == nil {
		commandRunner = runTreeKillCommand
	}
	return &TreeKillTerminator{commandRunner: commandRunner}
}

// Terminate implements ProcessTerminator by invoking the tree-kill utility.
func (terminator *TreeKillTerminator) Terminate(processHandle *os.Process) error {
	return terminator.commandRunner(
		treeKillExecutableNameConstant,
		treeKillProcessIdentifierFlagConstant,
		strconv.Itoa(processHandle.Pid),
		treeKillIncludeChildrenFlagConstant,
		treeKillForcefulTerminationFlagConstant,
	)
}

// NewPlatformTerminator selects the termination strategy for the named operating system.
func NewPlatformTerminator(operatingSystemName string) ProcessTerminator {
	if operatingSystemName == windowsOperatingSystemNameConstant {
		return NewTreeKillTerminator(nil)
	}
	return NewDirectSignalTerminator()
}

func runTreeKillCommand(executableName string, arguments ...string) error {
	return exec.Command(executableName, arguments...).Run()
}
