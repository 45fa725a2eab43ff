package shellplan

import (
	"fmt"
	"os"
	"runtime"

	"github.com/spf13/afero"
)

const (
	windowsOperatingSystemNameConstant = "windows"

	posixShellDashCFlagConstant = "-c"

	windowsCmdExecutableNameConstant        = "cmd"
	windowsCmdDisableAutoRunFlagConstant    = "/d"
	windowsCmdRunAndTerminateFlagConstant   = "/c"
	windowsPowerShellExecutableNameConstant = "powershell"

	powerShellNoLogoFlagConstant              = "-NoLogo"
	powerShellNoProfileFlagConstant           = "-NoProfile"
	powerShellExecutionPolicyFlagConstant     = "-ExecutionPolicy"
	powerShellExecutionPolicyBypassConstant   = "Bypass"
	powerShellCommandFlagConstant             = "-Command"
	windowsShellRejectedOnPosixGuidance       = "is only available on Windows hosts"
	unresolvedShellErrorTemplateConstant      = "no interpreter available for shell kind %q: %s"
	posixBashDiscoveryGuidanceMessageConstant = "install Windows Subsystem for Linux (wsl --install) or Git for Windows to provide a bash interpreter"
)

// UnresolvedShellError reports that no viable interpreter exists for the requested shell kind.
type UnresolvedShellError struct {
	// RequestedShell names the shell kind that could not be resolved.
	RequestedShell ShellKind
	// Guidance carries a human-readable remediation hint.
	Guidance string
}

// Error implements the error interface for UnresolvedShellError.
func (unresolvedError UnresolvedShellError) Error() string {
	return fmt.Sprintf(unresolvedShellErrorTemplateConstant, unresolvedError.RequestedShell, unresolvedError.Guidance)
}

// EnvironmentLookup resolves the value of an environment variable by name.
type EnvironmentLookup func(variableName string) string

// Resolver computes ShellPlan values for the host platform. Resolution is pure
// apart from filesystem existence checks; the resolver never spawns a process.
type Resolver struct {
	operatingSystemName string
	fileSystem          afero.Fs
	environmentLookup   EnvironmentLookup
}

// NewResolver constructs a Resolver bound to the current operating system.
func NewResolver() *Resolver {
	return NewResolverWithDependencies(runtime.GOOS, afero.NewOsFs(), os.Getenv)
}

// NewResolverWithDependencies constructs a Resolver with explicit platform dependencies.
func NewResolverWithDependencies(operatingSystemName string, fileSystem afero.Fs, environmentLookup EnvironmentLookup) *Resolver {
	if fileSystem == nil {
		fileSystem = afero.NewOsFs()
	}
	if environmentLookup == nil {
		environmentLookup = os.Getenv
	}
	return &Resolver{
		operatingSystemName: operatingSystemName,
		fileSystem:          fileSystem,
		environmentLookup:   environmentLookup,
	}
}

// Resolve determines the interpreter invocation for the requested shell kind
// and script content, returning UnresolvedShellError when no interpreter is viable.
func (resolver *Resolver) Resolve(requestedShell ShellKind, scriptContent string) (ShellPlan, error) {
	if resolver.operatingSystemName == windowsOperatingSystemNameConstant {
		return resolver.resolveWindowsShell(requestedShell, scriptContent)
	}
	return resolver.resolvePosixShell(requestedShell, scriptContent)
}

func (resolver *Resolver) resolvePosixShell(requestedShell ShellKind, scriptContent string) (ShellPlan, error) {
	switch requestedShell {
	case ShellKindBash, ShellKindSh:
		return ShellPlan{
			Executable: string(requestedShell),
			Arguments:  []string{posixShellDashCFlagConstant, scriptContent},
		}, nil
	default:
		return ShellPlan{}, UnresolvedShellError{
			RequestedShell: requestedShell,
			Guidance:       fmt.Sprintf("%s %s", requestedShell, windowsShellRejectedOnPosixGuidance),
		}
	}
}

func (resolver *Resolver) resolveWindowsShell(requestedShell ShellKind, scriptContent string) (ShellPlan, error) {
	switch requestedShell {
	case ShellKindCmd:
		return ShellPlan{
			Executable: windowsCmdExecutableNameConstant,
			Arguments:  []string{windowsCmdDisableAutoRunFlagConstant, windowsCmdRunAndTerminateFlagConstant, scriptContent},
		}, nil
	case ShellKindPowerShell:
		return ShellPlan{
			Executable: windowsPowerShellExecutableNameConstant,
			Arguments: []string{
				powerShellNoLogoFlagConstant,
				powerShellNoProfileFlagConstant,
				powerShellExecutionPolicyFlagConstant,
				powerShellExecutionPolicyBypassConstant,
				powerShellCommandFlagConstant,
				scriptContent,
			},
		}, nil
	default:
		return resolver.discoverWindowsBash(requestedShell, scriptContent)
	}
}

func (resolver *Resolver) discoverWindowsBash(requestedShell ShellKind, scriptContent string) (ShellPlan, error) {
	quotedContent := quoteForPosixShell(scriptContent)
	for _, discoveryProbe := range windowsBashDiscoveryProbes {
		resolvedPlan, probeSucceeded := discoveryProbe.locate(resolver, quotedContent)
		if probeSucceeded {
			return resolvedPlan, nil
		}
	}
	return ShellPlan{}, UnresolvedShellError{
		RequestedShell: requestedShell,
		Guidance:       posixBashDiscoveryGuidanceMessageConstant,
	}
}

func (resolver *Resolver) fileExists(candidatePath string) bool {
	fileInformation, statError := resolver.fileSystem.Stat(candidatePath)
	if statError != nil {
		return false
	}
	return !fileInformation.IsDir()
}
