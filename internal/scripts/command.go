package scripts

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/shellbook/shellbook/internal/shellplan"
	"github.com/shellbook/shellbook/internal/utils/flags"
)

const (
	saveCommandUseConstant              = "save <script-name>"
	saveCommandShortDescriptionConstant = "Create or update a named script"
	saveCommandLongDescriptionConstant  = "save stores the script content under a unique name together with the shell used to run it. Saving an existing name updates the stored script in place."
	listCommandUseConstant              = "list"
	listCommandShortDescriptionConstant = "List saved scripts"
	showCommandUseConstant              = "show <script-name>"
	showCommandShortDescriptionConstant = "Print the content of a saved script"
	removeCommandUseConstant            = "remove <script-name>"
	removeCommandShortDescription       = "Delete a saved script"

	flagShellNameConstant          = "shell"
	flagShellDescriptionConstant   = "Shell used to execute the script."
	flagContentNameConstant        = "content"
	flagContentDescriptionConstant = "Inline script content."
	flagFileNameConstant           = "file"
	flagFileDescriptionConstant    = "Path of a file providing the script content."

	commandNameEmptyMessageConstant      = "script name must not be empty"
	commandStoreMissingMessageConstant   = "script store not configured"
	contentSourceMissingMessageConstant  = "provide script content via --content or --file"
	contentSourceConflictMessageConstant = "--content and --file are mutually exclusive"
	contentFileReadErrorTemplateConstant = "unable to read content file: %w"
	saveFailureTemplateConstant          = "save failed: %w"
	removeFailureTemplateConstant        = "remove failed: %w"
	savedConfirmationTemplateConstant    = "Saved script %q (%s)\n"
	removedConfirmationTemplateConstant  = "Removed script %q\n"
	emptyCatalogMessageConstant          = "No scripts saved yet.\n"
	listEntryTemplateConstant            = "%-24s %-12s %s\n"
	listHeaderNameColumnConstant         = "NAME"
	listHeaderShellColumnConstant        = "SHELL"
	listHeaderIdentifierColumnConstant   = "IDENTIFIER"
	scriptSavedLogMessageConstant        = "script saved"
	scriptRemovedLogMessageConstant      = "script removed"
	logFieldScriptIdentifierConstant     = "script_identifier"
	logFieldScriptNameFieldConstant      = "script_name"
	defaultShellFlagValueStringConstant  = "bash"
)

var (
	errCommandNameEmpty      = errors.New(commandNameEmptyMessageConstant)
	errCommandStoreMissing   = errors.New(commandStoreMissingMessageConstant)
	errContentSourceMissing  = errors.New(contentSourceMissingMessageConstant)
	errContentSourceConflict = errors.New(contentSourceConflictMessageConstant)
)

// LoggerProvider supplies a zap logger instance.
type LoggerProvider func() *zap.Logger

// StoreProvider supplies the script catalog store.
type StoreProvider func() (Store, error)

// CommandBuilder assembles the Cobra commands maintaining the script catalog.
type CommandBuilder struct {
	LoggerProvider LoggerProvider
	StoreProvider  StoreProvider
	FileSystem     afero.Fs
}

// BuildSaveCommand constructs the save command.
func (builder *CommandBuilder) BuildSaveCommand() (*cobra.Command, error) {
	command := &cobra.Command{
		Use:   saveCommandUseConstant,
		Short: saveCommandShortDescriptionConstant,
		Long:  saveCommandLongDescriptionConstant,
		Args:  cobra.ExactArgs(1),
		RunE:  builder.runSave,
	}
	shellFlagUsage := flags.FormatChoiceUsage(defaultShellFlagValueStringConstant, shellplan.SupportedShellKindNames(), flagShellDescriptionConstant)
	command.Flags().String(flagShellNameConstant, defaultShellFlagValueStringConstant, shellFlagUsage)
	command.Flags().String(flagContentNameConstant, "", flagContentDescriptionConstant)
	command.Flags().String(flagFileNameConstant, "", flagFileDescriptionConstant)
	return command, nil
}

// BuildListCommand constructs the list command.
func (builder *CommandBuilder) BuildListCommand() (*cobra.Command, error) {
	command := &cobra.Command{
		Use:   listCommandUseConstant,
		Short: listCommandShortDescriptionConstant,
		RunE:  builder.runList,
	}
	return command, nil
}

// BuildShowCommand constructs the show command.
func (builder *CommandBuilder) BuildShowCommand() (*cobra.Command, error) {
	command := &cobra.Command{
		Use:   showCommandUseConstant,
		Short: showCommandShortDescriptionConstant,
		Args:  cobra.ExactArgs(1),
		RunE:  builder.runShow,
	}
	return command, nil
}

// BuildRemoveCommand constructs the remove command.
func (builder *CommandBuilder) BuildRemoveCommand() (*cobra.Command, error) {
	command := &cobra.Command{
		Use:   removeCommandUseConstant,
		Short: removeCommandShortDescription,
		Args:  cobra.ExactArgs(1),
		RunE:  builder.runRemove,
	}
	return command, nil
}

func (builder *CommandBuilder) runSave(command *cobra.Command, arguments []string) error {
	scriptName := strings.TrimSpace(arguments[0])
	if len(scriptName) == 0 {
		return errCommandNameEmpty
	}

	catalogStore, storeError := builder.resolveStore()
	if storeError != nil {
		return storeError
	}

	requestedShellValue, _ := command.Flags().GetString(flagShellNameConstant)
	parsedShellKind, shellParseError := shellplan.ParseShellKind(requestedShellValue)
	if shellParseError != nil {
		return shellParseError
	}

	scriptContent, contentError := builder.resolveContent(command)
	if contentError != nil {
		return contentError
	}

	candidateRecord := Record{
		Name:    scriptName,
		Shell:   parsedShellKind,
		Content: scriptContent,
	}
	if existingRecord, lookupError := catalogStore.FindByName(scriptName); lookupError == nil {
		candidateRecord.Identifier = existingRecord.Identifier
	}

	savedRecord, saveError := catalogStore.Save(candidateRecord)
	if saveError != nil {
		return fmt.Errorf(saveFailureTemplateConstant, saveError)
	}

	builder.resolveLogger().Info(
		scriptSavedLogMessageConstant,
		zap.String(logFieldScriptIdentifierConstant, savedRecord.Identifier),
		zap.String(logFieldScriptNameFieldConstant, savedRecord.Name),
	)
	fmt.Fprintf(command.OutOrStdout(), savedConfirmationTemplateConstant, savedRecord.Name, savedRecord.Shell)
	return nil
}

func (builder *CommandBuilder) runList(command *cobra.Command, arguments []string) error {
	catalogStore, storeError := builder.resolveStore()
	if storeError != nil {
		return storeError
	}

	listedRecords, listError := catalogStore.List()
	if listError != nil {
		return listError
	}
	if len(listedRecords) == 0 {
		fmt.Fprint(command.OutOrStdout(), emptyCatalogMessageConstant)
		return nil
	}

	fmt.Fprintf(command.OutOrStdout(), listEntryTemplateConstant, listHeaderNameColumnConstant, listHeaderShellColumnConstant, listHeaderIdentifierColumnConstant)
	for _, listedRecord := range listedRecords {
		fmt.Fprintf(command.OutOrStdout(), listEntryTemplateConstant, listedRecord.Name, listedRecord.Shell, listedRecord.Identifier)
	}
	return nil
}

func (builder *CommandBuilder) runShow(command *cobra.Command, arguments []string) error {
	catalogStore, storeError := builder.resolveStore()
	if storeError != nil {
		return storeError
	}

	namedRecord, lookupError := catalogStore.FindByName(strings.TrimSpace(arguments[0]))
	if lookupError != nil {
		return lookupError
	}

	fmt.Fprintln(command.OutOrStdout(), namedRecord.Content)
	return nil
}

func (builder *CommandBuilder) runRemove(command *cobra.Command, arguments []string) error {
	catalogStore, storeError := builder.resolveStore()
	if storeError != nil {
		return storeError
	}

	namedRecord, lookupError := catalogStore.FindByName(strings.TrimSpace(arguments[0]))
	if lookupError != nil {
		return lookupError
	}
	if removeError := catalogStore.Remove(namedRecord.Identifier); removeError != nil {
		return fmt.Errorf(removeFailureTemplateConstant, removeError)
	}

	builder.resolveLogger().Info(
		scriptRemovedLogMessageConstant,
		zap.String(logFieldScriptIdentifierConstant, namedRecord.Identifier),
		zap.String(logFieldScriptNameFieldConstant, namedRecord.Name),
	)
	fmt.Fprintf(command.OutOrStdout(), removedConfirmationTemplateConstant, namedRecord.Name)
	return nil
}

func (builder *CommandBuilder) resolveContent(command *cobra.Command) (string, error) {
	inlineContent, _ := command.Flags().GetString(flagContentNameConstant)
	contentFilePath, _ := command.Flags().GetString(flagFileNameConstant)

	inlineProvided := len(inlineContent) > 0
	fileProvided := len(strings.TrimSpace(contentFilePath)) > 0

	switch {
	case inlineProvided && fileProvided:
		return "", errContentSourceConflict
	case inlineProvided:
		return inlineContent, nil
	case fileProvided:
		contentBytes, readError := afero.ReadFile(builder.resolveFileSystem(), contentFilePath)
		if readError != nil {
			return "", fmt.Errorf(contentFileReadErrorTemplateConstant, readError)
		}
		return string(contentBytes), nil
	default:
		return "", errContentSourceMissing
	}
}

func (builder *CommandBuilder) resolveStore() (Store, error) {
	if builder.StoreProvider == nil {
		return nil, errCommandStoreMissing
	}
	return builder.StoreProvider()
}

func (builder *CommandBuilder) resolveLogger() *zap.Logger {
	if builder.LoggerProvider == nil {
		return zap.NewNop()
	}
	providedLogger := builder.LoggerProvider()
	if providedLogger == nil {
		return zap.NewNop()
	}
	return providedLogger
}

func (builder *CommandBuilder) resolveFileSystem() afero.Fs {
	if builder.FileSystem == nil {
		return afero.NewOsFs()
	}
	return builder.FileSystem
}
