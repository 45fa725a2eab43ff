package shellplan

import (
	"path/filepath"
	"strings"
)

const (
	windowsSubsystemLauncherPathConstant = `C:\Windows\System32\wsl.exe`
	windowsBashExecutableNameConstant    = "bash.exe"
	bashLoginCommandFlagConstant         = "-lc"
	bashExecutableNameConstant           = "bash"

	pathEnvironmentVariableNameConstant   = "PATH"
	windowsPathListSeparatorConstant      = ";"
	wslDiscoveryPlatformNoteConstant      = "bash via Windows Subsystem for Linux"
	gitBashDiscoveryPlatformNoteConstant  = "bash via a known POSIX shell distribution"
	pathScanDiscoveryPlatformNoteConstant = "bash discovered on PATH"
)

// windowsBashInstallationPaths lists conventional install locations for
// bash-providing distributions, probed in order.
var windowsBashInstallationPaths = []string{
	`C:\Program Files\Git\bin\bash.exe`,
	`C:\Program Files\Git\usr\bin\bash.exe`,
	`C:\Program Files (x86)\Git\bin\bash.exe`,
	`C:\cygwin64\bin\bash.exe`,
	`C:\cygwin\bin\bash.exe`,
}

// bashDiscoveryProbe locates a POSIX-compatible bash invocation on Windows.
// Probes are evaluated in priority order; the first success wins.
type bashDiscoveryProbe interface {
	locate(resolver *Resolver, quotedContent string) (ShellPlan, bool)
}

// wellKnownPathProbe checks a fixed filesystem location for an interpreter.
type wellKnownPathProbe struct {
	executablePath   string
	leadingArguments []string
	platformNote     string
}

func (probe wellKnownPathProbe) locate(resolver *Resolver, quotedContent string) (ShellPlan, bool) {
	if !resolver.fileExists(probe.executablePath) {
		return ShellPlan{}, false
	}
	invocationArguments := append([]string{}, probe.leadingArguments...)
	invocationArguments = append(invocationArguments, bashLoginCommandFlagConstant, quotedContent)
	return ShellPlan{
		Executable:   probe.executablePath,
		Arguments:    invocationArguments,
		PlatformNote: probe.platformNote,
	}, true
}

// pathScanProbe walks each PATH directory in listed order looking for a bash executable.
type pathScanProbe struct {
	executableName string
	platformNote   string
}

func (probe pathScanProbe) locate(resolver *Resolver, quotedContent string) (ShellPlan, bool) {
	pathVariableValue := resolver.environmentLookup(pathEnvironmentVariableNameConstant)
	for _, pathDirectory := range strings.Split(pathVariableValue, windowsPathListSeparatorConstant) {
		trimmedDirectory := strings.TrimSpace(pathDirectory)
		if len(trimmedDirectory) == 0 {
			continue
		}
		candidatePath := filepath.Join(trimmedDirectory, probe.executableName)
		if !resolver.fileExists(candidatePath) {
			continue
		}
		return ShellPlan{
			Executable:   candidatePath,
			Arguments:    []string{bashLoginCommandFlagConstant, quotedContent},
			PlatformNote: probe.platformNote,
		}, true
	}
	return ShellPlan{}, false
}

// windowsBashDiscoveryProbes orders the fallback chain: the WSL launcher,
// conventional distribution install paths, then a PATH scan.
var windowsBashDiscoveryProbes = buildWindowsBashDiscoveryProbes()

func buildWindowsBashDiscoveryProbes() []bashDiscoveryProbe {
	discoveryProbes := []bashDiscoveryProbe{
		wellKnownPathProbe{
			executablePath:   windowsSubsystemLauncherPathConstant,
			leadingArguments: []string{bashExecutableNameConstant},
			platformNote:     wslDiscoveryPlatformNoteConstant,
		},
	}
	for _, installationPath := range windowsBashInstallationPaths {
		discoveryProbes = append(discoveryProbes, wellKnownPathProbe{
			executablePath: installationPath,
			platformNote:   gitBashDiscoveryPlatformNoteConstant,
		})
	}
	discoveryProbes = append(discoveryProbes, pathScanProbe{
		executableName: windowsBashExecutableNameConstant,
		platformNote:   pathScanDiscoveryPlatformNoteConstant,
	})
	return discoveryProbes
}
