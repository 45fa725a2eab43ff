package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"syscall"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/shellbook/shellbook/internal/execution"
	"github.com/shellbook/shellbook/internal/scripts"
	"github.com/shellbook/shellbook/internal/utils"
	pathutils "github.com/shellbook/shellbook/internal/utils/path"
)

const (
	applicationNameConstant                 = "shellbook"
	applicationShortDescriptionConstant     = "Command-line interface for saving and running named shell scripts"
	applicationLongDescriptionConstant      = "shellbook keeps a catalog of named shell scripts and runs them on demand, streaming their output live."
	configFileFlagNameConstant              = "config"
	configFileFlagUsageConstant             = "Optional path to a configuration file (YAML or JSON)."
	logLevelFlagNameConstant                = "log-level"
	logLevelFlagUsageConstant               = "Override the configured log level."
	logFormatFlagNameConstant               = "log-format"
	logFormatFlagUsageConstant              = "Override the configured log format (structured or console)."
	catalogFlagNameConstant                 = "catalog"
	catalogFlagUsageConstant                = "Override the configured script catalog path."
	commonConfigurationKeyConstant          = "common"
	commonLogLevelConfigKeyConstant         = commonConfigurationKeyConstant + ".log_level"
	commonLogFormatConfigKeyConstant        = commonConfigurationKeyConstant + ".log_format"
	scriptsConfigurationKeyConstant         = "scripts"
	scriptsCatalogPathConfigKeyConstant     = scriptsConfigurationKeyConstant + ".catalog_path"
	environmentPrefixConstant               = "SHELLBOOK"
	configurationNameConstant               = "config"
	configurationTypeConstant               = "yaml"
	configurationInitializedMessageConstant = "configuration initialized"
	configurationLogLevelFieldConstant      = "log_level"
	configurationLogFormatFieldConstant     = "log_format"
	configurationFileFieldConstant          = "config_file"
	configurationCatalogFieldConstant       = "catalog_path"
	configurationLoadErrorTemplateConstant  = "unable to load configuration: %w"
	loggerCreationErrorTemplateConstant     = "unable to create logger: %w"
	loggerSyncErrorTemplateConstant         = "unable to flush logger: %w"
	catalogPathErrorTemplateConstant        = "unable to determine catalog path: %w"
	commandBuildErrorTemplateConstant       = "unable to build CLI commands: %w"
	loggerNotInitializedMessageConstant     = "logger not initialized"
	defaultConfigurationSearchPathConstant  = "."
)

// ApplicationConfiguration describes the persisted configuration for the CLI entrypoint.
type ApplicationConfiguration struct {
	Common  ApplicationCommonConfiguration  `mapstructure:"common"`
	Scripts ApplicationScriptsConfiguration `mapstructure:"scripts"`
}

// ApplicationCommonConfiguration stores logging configuration shared across commands.
type ApplicationCommonConfiguration struct {
	LogLevel  string `mapstructure:"log_level"`
	LogFormat string `mapstructure:"log_format"`
}

// ApplicationScriptsConfiguration stores catalog configuration for the script commands.
type ApplicationScriptsConfiguration struct {
	CatalogPath string `mapstructure:"catalog_path"`
}

// Application wires the Cobra root command, configuration loader, and structured logger.
type Application struct {
	rootCommand           *cobra.Command
	configurationLoader   *utils.ConfigurationLoader
	loggerFactory         *utils.LoggerFactory
	homeExpander          *pathutils.HomeExpander
	logger                *zap.Logger
	configuration         ApplicationConfiguration
	configurationMetadata utils.LoadedConfiguration
	configurationFilePath string
	logLevelFlagValue     string
	logFormatFlagValue    string
	catalogFlagValue      string
}

// NewApplication assembles a fully wired CLI application instance. It fails
// when any subcommand builder cannot produce its command, so a broken verb
// surfaces at startup instead of silently vanishing from the command tree.
func NewApplication() (*Application, error) {
	configurationLoader := utils.NewConfigurationLoader(
		configurationNameConstant,
		configurationTypeConstant,
		environmentPrefixConstant,
		[]string{defaultConfigurationSearchPathConstant},
	)

	application := &Application{
		configurationLoader: configurationLoader,
		loggerFactory:       utils.NewLoggerFactory(),
		homeExpander:        pathutils.NewHomeExpander(),
		logger:              zap.NewNop(),
	}

	cobraCommand := &cobra.Command{
		Use:           applicationNameConstant,
		Short:         applicationShortDescriptionConstant,
		Long:          applicationLongDescriptionConstant,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(command *cobra.Command, arguments []string) error {
			return application.initializeConfiguration(command)
		},
		RunE: func(command *cobra.Command, arguments []string) error {
			return application.runRootCommand(command, arguments)
		},
	}

	cobraCommand.SetContext(context.Background())
	cobraCommand.PersistentFlags().StringVar(&application.configurationFilePath, configFileFlagNameConstant, "", configFileFlagUsageConstant)
	cobraCommand.PersistentFlags().StringVar(&application.logLevelFlagValue, logLevelFlagNameConstant, "", logLevelFlagUsageConstant)
	cobraCommand.PersistentFlags().StringVar(&application.logFormatFlagValue, logFormatFlagNameConstant, "", logFormatFlagUsageConstant)
	cobraCommand.PersistentFlags().StringVar(&application.catalogFlagValue, catalogFlagNameConstant, "", catalogFlagUsageConstant)

	catalogCommandBuilder := scripts.CommandBuilder{
		LoggerProvider: func() *zap.Logger {
			return application.logger
		},
		StoreProvider: application.resolveStore,
		FileSystem:    afero.NewOsFs(),
	}
	catalogCommandBuilders := []func() (*cobra.Command, error){
		catalogCommandBuilder.BuildSaveCommand,
		catalogCommandBuilder.BuildListCommand,
		catalogCommandBuilder.BuildShowCommand,
		catalogCommandBuilder.BuildRemoveCommand,
	}
	for _, buildCatalogCommand := range catalogCommandBuilders {
		catalogCommand, catalogBuildError := buildCatalogCommand()
		if catalogBuildError != nil {
			return nil, fmt.Errorf(commandBuildErrorTemplateConstant, catalogBuildError)
		}
		cobraCommand.AddCommand(catalogCommand)
	}

	runCommandBuilder := execution.RunCommandBuilder{
		LoggerProvider: func() *zap.Logger {
			return application.logger
		},
		StoreProvider: application.resolveStore,
		OutputWriter:  cobraCommand.OutOrStdout(),
		ErrorWriter:   cobraCommand.ErrOrStderr(),
	}
	runCommand, runBuildError := runCommandBuilder.Build()
	if runBuildError != nil {
		return nil, fmt.Errorf(commandBuildErrorTemplateConstant, runBuildError)
	}
	cobraCommand.AddCommand(runCommand)

	application.rootCommand = cobraCommand

	return application, nil
}

// RootCommand exposes the assembled Cobra root command for embedding and tests.
func (application *Application) RootCommand() *cobra.Command {
	return application.rootCommand
}

// Execute runs the configured Cobra command hierarchy and ensures logger flushing.
func (application *Application) Execute() error {
	executionError := application.rootCommand.Execute()
	if syncError := application.flushLogger(); syncError != nil {
		return fmt.Errorf(loggerSyncErrorTemplateConstant, syncError)
	}
	return executionError
}

// Execute builds a fresh application instance and executes the root command hierarchy.
func Execute() error {
	application, applicationError := NewApplication()
	if applicationError != nil {
		return applicationError
	}
	return application.Execute()
}

func (application *Application) initializeConfiguration(command *cobra.Command) error {
	defaultValues := map[string]any{
		commonLogLevelConfigKeyConstant:     string(utils.LogLevelInfo),
		commonLogFormatConfigKeyConstant:    string(utils.LogFormatConsole),
		scriptsCatalogPathConfigKeyConstant: "",
	}

	loadedConfiguration, loadError := application.configurationLoader.LoadConfiguration(application.configurationFilePath, defaultValues, &application.configuration)
	if loadError != nil {
		return fmt.Errorf(configurationLoadErrorTemplateConstant, loadError)
	}

	application.configurationMetadata = loadedConfiguration

	if application.persistentFlagChanged(command, logLevelFlagNameConstant) {
		application.configuration.Common.LogLevel = application.logLevelFlagValue
	}

	if application.persistentFlagChanged(command, logFormatFlagNameConstant) {
		application.configuration.Common.LogFormat = application.logFormatFlagValue
	}

	if application.persistentFlagChanged(command, catalogFlagNameConstant) {
		application.configuration.Scripts.CatalogPath = application.catalogFlagValue
	}

	createdLogger, loggerCreationError := application.loggerFactory.CreateLogger(
		utils.LogLevel(application.configuration.Common.LogLevel),
		utils.LogFormat(application.configuration.Common.LogFormat),
	)
	if loggerCreationError != nil {
		return fmt.Errorf(loggerCreationErrorTemplateConstant, loggerCreationError)
	}

	application.logger = createdLogger

	application.logger.Debug(
		configurationInitializedMessageConstant,
		zap.String(configurationLogLevelFieldConstant, application.configuration.Common.LogLevel),
		zap.String(configurationLogFormatFieldConstant, application.configuration.Common.LogFormat),
		zap.String(configurationFileFieldConstant, application.configurationMetadata.ConfigFileUsed),
		zap.String(configurationCatalogFieldConstant, application.configuration.Scripts.CatalogPath),
	)

	return nil
}

func (application *Application) resolveStore() (scripts.Store, error) {
	catalogPath, catalogPathError := application.resolveCatalogPath()
	if catalogPathError != nil {
		return nil, fmt.Errorf(catalogPathErrorTemplateConstant, catalogPathError)
	}
	return scripts.NewCatalogStore(afero.NewOsFs(), catalogPath)
}

func (application *Application) resolveCatalogPath() (string, error) {
	configuredPath := strings.TrimSpace(application.configuration.Scripts.CatalogPath)
	if len(configuredPath) > 0 {
		return application.homeExpander.Expand(configuredPath), nil
	}
	return scripts.DefaultCatalogPath()
}

func (application *Application) runRootCommand(command *cobra.Command, arguments []string) error {
	if application.logger == nil {
		return errors.New(loggerNotInitializedMessageConstant)
	}
	return command.Help()
}

func (application *Application) flushLogger() error {
	if application.logger == nil {
		return nil
	}

	syncError := application.logger.Sync()
	switch {
	case syncError == nil:
		return nil
	case errors.Is(syncError, syscall.ENOTSUP):
		return nil
	case errors.Is(syncError, syscall.EINVAL):
		return nil
	default:
		return syncError
	}
}

func (application *Application) persistentFlagChanged(command *cobra.Command, flagName string) bool {
	if command == nil {
		return false
	}

	flagSetsToInspect := []*pflag.FlagSet{
		command.PersistentFlags(),
		command.InheritedFlags(),
	}

	rootCommand := command.Root()
	if rootCommand != nil {
		flagSetsToInspect = append(flagSetsToInspect, rootCommand.PersistentFlags())
	}

	for _, flagSet := range flagSetsToInspect {
		if flagSet == nil {
			continue
		}

		if flagSet.Changed(flagName) {
			return true
		}
	}

	return false
}
