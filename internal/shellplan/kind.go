package shellplan

import (
	"fmt"
	"strings"
)

const (
	shellKindPowerShellStringConstant      = "powershell"
	shellKindCmdStringConstant             = "cmd"
	shellKindBashStringConstant            = "bash"
	shellKindShStringConstant              = "sh"
	unsupportedShellKindTemplateConstant   = "unsupported shell kind: %s"
	shellKindChoicesJoinSeparatorConstant  = ", "
	shellKindNormalizationCutsetWhitespace = " \t\r\n"
)

// ShellKind identifies the command interpreter category requested by a script.
type ShellKind string

// Supported shell kind enumerations.
const (
	ShellKindPowerShell ShellKind = ShellKind(shellKindPowerShellStringConstant)
	ShellKindCmd        ShellKind = ShellKind(shellKindCmdStringConstant)
	ShellKindBash       ShellKind = ShellKind(shellKindBashStringConstant)
	ShellKindSh         ShellKind = ShellKind(shellKindShStringConstant)
)

var supportedShellKinds = []ShellKind{
	ShellKindPowerShell,
	ShellKindCmd,
	ShellKindBash,
	ShellKindSh,
}

// SupportedShellKindNames lists the recognized shell kind identifiers in display order.
func SupportedShellKindNames() []string {
	shellKindNames := make([]string, 0, len(supportedShellKinds))
	for _, shellKind := range supportedShellKinds {
		shellKindNames = append(shellKindNames, string(shellKind))
	}
	return shellKindNames
}

// ParseShellKind converts a textual identifier into a ShellKind.
func ParseShellKind(candidateValue string) (ShellKind, error) {
	normalizedValue := strings.ToLower(strings.Trim(candidateValue, shellKindNormalizationCutsetWhitespace))
	for _, shellKind := range supportedShellKinds {
		if normalizedValue == string(shellKind) {
			return shellKind, nil
		}
	}
	return ShellKind(""), fmt.Errorf(unsupportedShellKindTemplateConstant, candidateValue)
}

// RequiresPosixInterpreter reports whether the shell kind expects a POSIX-compatible interpreter.
func (shellKind ShellKind) RequiresPosixInterpreter() bool {
	return shellKind == ShellKindBash || shellKind == ShellKindSh
}
