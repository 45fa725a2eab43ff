package scripts

import (
	"errors"
	"strings"

	"github.com/shellbook/shellbook/internal/shellplan"
)

const (
	recordNameEmptyMessageConstant    = "script name must not be empty"
	recordContentEmptyMessageConstant = "script content must not be empty"
)

// Record validation errors.
var (
	// ErrRecordNameEmpty indicates a record without a usable name.
	ErrRecordNameEmpty = errors.New(recordNameEmptyMessageConstant)
	// ErrRecordContentEmpty indicates a record without script content.
	ErrRecordContentEmpty = errors.New(recordContentEmptyMessageConstant)
)

// Record is one persisted script. The execution layer treats records as
// immutable input for the duration of a run.
type Record struct {
	// Identifier is the opaque unique key of the record.
	Identifier string `yaml:"identifier"`
	// Name is the user-chosen unique display name.
	Name string `yaml:"name"`
	// Shell selects the interpreter category used to run the content.
	Shell shellplan.ShellKind `yaml:"shell"`
	// Content is the script body handed to the resolved interpreter.
	Content string `yaml:"content"`
}

// Validate reports whether the record carries the fields required for persistence.
func (record Record) Validate() error {
	if len(strings.TrimSpace(record.Name)) == 0 {
		return ErrRecordNameEmpty
	}
	if len(record.Content) == 0 {
		return ErrRecordContentEmpty
	}
	if _, parseError := shellplan.ParseShellKind(string(record.Shell)); parseError != nil {
		return parseError
	}
	return nil
}
