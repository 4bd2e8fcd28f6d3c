package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime/debug"
	"strings"
	"syscall"
	"time"

	"github.com/adrg/xdg"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/temirov/stati/internal/demo"
	"github.com/temirov/stati/internal/plan"
	"github.com/temirov/stati/internal/progress"
	"github.com/temirov/stati/internal/transfer"
	"github.com/temirov/stati/internal/ui"
	"github.com/temirov/stati/internal/utils"
	flagutils "github.com/temirov/stati/internal/utils/flags"
	pathutils "github.com/temirov/stati/internal/utils/path"
)

const (
	applicationNameConstant                 = "stati"
	applicationShortDescriptionConstant     = "Terminal progress indicators that redraw in place"
	applicationLongDescriptionConstant      = "stati draws bars and spinners below regular output, redrawing them in place while work runs."
	configFileFlagNameConstant              = "config"
	configFileFlagUsageConstant             = "Optional path to a configuration file (YAML or JSON)."
	logLevelFlagNameConstant                = "log-level"
	logLevelFlagUsageConstant               = "Override the configured log level."
	logFormatFlagNameConstant               = "log-format"
	logFormatFlagUsageConstant              = "Override the configured log format."
	closeMethodFlagNameConstant             = "close-method"
	closeMethodFlagUsageConstant            = "Override what finished indicators leave on screen."
	refreshFlagNameConstant                 = "refresh"
	refreshFlagUsageConstant                = "Override the redraw interval."
	noColorFlagNameConstant                 = "no-color"
	noColorFlagUsageConstant                = "Disable colour in finished frames and status lines."
	widthFlagNameConstant                   = "width"
	widthFlagUsageConstant                  = "Fix the terminal width instead of detecting it (0 detects)."
	versionFlagNameConstant                 = "version"
	versionFlagUsageConstant                = "Print the stati version and exit."
	versionOutputTemplateConstant           = "%s version: %s\n"
	developmentVersionConstant              = "dev"
	buildInfoDevelopmentVersionConstant     = "(devel)"
	commonConfigurationKeyConstant          = "common"
	commonLogLevelConfigKeyConstant         = commonConfigurationKeyConstant + ".log_level"
	commonLogFormatConfigKeyConstant        = commonConfigurationKeyConstant + ".log_format"
	progressConfigurationKeyConstant        = "progress"
	environmentPrefixConstant               = "STATI"
	configurationNameConstant               = "config"
	configurationTypeConstant               = "yaml"
	configurationInitializedMessageConstant = "configuration initialized"
	configurationLogLevelFieldConstant      = "log_level"
	configurationLogFormatFieldConstant     = "log_format"
	configurationFileFieldConstant          = "config_file"
	configurationCloseMethodFieldConstant   = "default_close_method"
	configurationRefreshFieldConstant       = "refresh_interval"
	configurationLoadErrorTemplateConstant  = "unable to load configuration: %w"
	closeMethodFlagErrorTemplateConstant    = "invalid --close-method: %w"
	loggerCreationErrorTemplateConstant     = "unable to create logger: %w"
	loggerSyncErrorTemplateConstant         = "unable to flush logger: %w"
	rootCommandDebugMessageConstant         = "no subcommand selected"
	unknownCommandTemplateConstant          = "unknown command %q"
	logFieldCommandNameConstant             = "command"
	logFieldArgumentsConstant               = "arguments"
	loggerNotInitializedMessageConstant     = "logger not initialized"
	defaultConfigurationSearchPathConstant  = "."
	userConfigurationDirectoryNameConstant  = "stati"
)

// ApplicationConfiguration describes the persisted configuration for the CLI entrypoint.
type ApplicationConfiguration struct {
	Common   ApplicationCommonConfiguration `mapstructure:"common"`
	Progress progress.Configuration         `mapstructure:"progress"`
}

// ApplicationCommonConfiguration stores logging configuration shared across commands.
type ApplicationCommonConfiguration struct {
	LogLevel  string `mapstructure:"log_level"`
	LogFormat string `mapstructure:"log_format"`
}

// Application wires the Cobra root command, configuration loader, and structured logger.
type Application struct {
	rootCommand              *cobra.Command
	configurationLoader      *utils.ConfigurationLoader
	loggerFactory            *utils.LoggerFactory
	logger                   *zap.Logger
	configuration            ApplicationConfiguration
	configurationMetadata    utils.LoadedConfiguration
	configurationFilePath    string
	logLevelFlagValue        *flagutils.ChoiceValue
	logFormatFlagValue       *flagutils.ChoiceValue
	closeMethodFlagValue     *flagutils.ChoiceValue
	refreshIntervalFlagValue time.Duration
	noColorFlagValue         bool
	widthFlagValue           int
	versionFlagValue         bool
	versionResolver          func(context.Context) string
	exitFunction             func(int)
}

// NewApplication assembles a fully wired CLI application instance.
func NewApplication() *Application {
	configurationLoader := utils.NewConfigurationLoader(
		configurationNameConstant,
		configurationTypeConstant,
		environmentPrefixConstant,
		configurationSearchPaths(),
	)
	embeddedContent, embeddedType := EmbeddedDefaultConfiguration()
	configurationLoader.SetEmbeddedConfiguration(embeddedContent, embeddedType)

	application := &Application{
		configurationLoader: configurationLoader,
		loggerFactory:       utils.NewLoggerFactory(),
		logger:              zap.NewNop(),
		versionResolver:     resolveBuildVersion,
		exitFunction:        os.Exit,
	}

	cobraCommand := &cobra.Command{
		Use:           applicationNameConstant,
		Short:         applicationShortDescriptionConstant,
		Long:          applicationLongDescriptionConstant,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(command *cobra.Command, arguments []string) error {
			if application.versionFlagValue {
				application.printVersion(command)
				return nil
			}
			return application.initializeConfiguration(command)
		},
		RunE: func(command *cobra.Command, arguments []string) error {
			return application.runRootCommand(command, arguments)
		},
	}

	cobraCommand.SetContext(context.Background())
	persistentFlags := cobraCommand.PersistentFlags()
	persistentFlags.StringVar(&application.configurationFilePath, configFileFlagNameConstant, "", configFileFlagUsageConstant)
	application.logLevelFlagValue = flagutils.AddChoiceFlag(persistentFlags, logLevelFlagNameConstant, string(utils.LogLevelInfo), utils.LogLevelChoices(), logLevelFlagUsageConstant)
	application.logFormatFlagValue = flagutils.AddChoiceFlag(persistentFlags, logFormatFlagNameConstant, string(utils.LogFormatStructured), utils.LogFormatChoices(), logFormatFlagUsageConstant)
	application.closeMethodFlagValue = flagutils.AddChoiceFlag(persistentFlags, closeMethodFlagNameConstant, progress.CloseMethodLeaveBehind.String(), progress.CloseMethodChoices(), closeMethodFlagUsageConstant)
	persistentFlags.DurationVar(&application.refreshIntervalFlagValue, refreshFlagNameConstant, progress.DefaultRefreshInterval, refreshFlagUsageConstant)
	persistentFlags.BoolVar(&application.noColorFlagValue, noColorFlagNameConstant, false, noColorFlagUsageConstant)
	persistentFlags.IntVar(&application.widthFlagValue, widthFlagNameConstant, 0, widthFlagUsageConstant)
	persistentFlags.BoolVar(&application.versionFlagValue, versionFlagNameConstant, false, versionFlagUsageConstant)

	demoBuilder := demo.CommandBuilder{
		LoggerProvider: func() *zap.Logger {
			return application.logger
		},
		ConfigurationProvider: application.progressConfiguration,
	}
	demoCommand, demoBuildError := demoBuilder.Build()
	if demoBuildError == nil {
		cobraCommand.AddCommand(demoCommand)
	}

	planBuilder := plan.CommandBuilder{
		LoggerProvider: func() *zap.Logger {
			return application.logger
		},
		ConfigurationProvider: application.progressConfiguration,
		ObserverFactory: func(manager *progress.Manager, logger *zap.Logger, colored bool) plan.JobEventObserver {
			return ui.NewProgressJobEventReporter(manager, logger, colored)
		},
	}
	planCommand, planBuildError := planBuilder.Build()
	if planBuildError == nil {
		cobraCommand.AddCommand(planCommand)
	}

	transferBuilder := transfer.CommandBuilder{
		LoggerProvider: func() *zap.Logger {
			return application.logger
		},
		ConfigurationProvider: application.progressConfiguration,
		PathResolver:          pathutils.NewPathResolver(),
	}
	transferCommand, transferBuildError := transferBuilder.Build()
	if transferBuildError == nil {
		cobraCommand.AddCommand(transferCommand)
	}

	application.rootCommand = cobraCommand

	return application
}

// Execute runs the command tree, then flushes the logger. A flush failure is
// reported only when the command itself succeeded.
func (application *Application) Execute() error {
	executionError := application.rootCommand.Execute()
	flushError := application.flushLogger()
	if executionError != nil || flushError == nil {
		return executionError
	}
	return fmt.Errorf(loggerSyncErrorTemplateConstant, flushError)
}

// ExecuteContext runs the command hierarchy bound to executionContext, which
// cancels running indicators when it is done.
func (application *Application) ExecuteContext(executionContext context.Context) error {
	application.rootCommand.SetContext(executionContext)
	return application.Execute()
}

// Execute builds a fresh application instance and executes the root command hierarchy.
func Execute() error {
	return NewApplication().Execute()
}

// ExecuteContext builds a fresh application instance bound to executionContext.
func ExecuteContext(executionContext context.Context) error {
	return NewApplication().ExecuteContext(executionContext)
}

// initializeConfiguration resolves configuration for the command about to run:
// built-in defaults, embedded YAML, the configuration file, STATI_* variables
// and finally explicitly set flags. The logger is rebuilt from the result.
func (application *Application) initializeConfiguration(command *cobra.Command) error {
	var loadError error
	application.configurationMetadata, loadError = application.configurationLoader.LoadConfiguration(
		application.configurationFilePath,
		builtinConfigurationValues(),
		&application.configuration,
	)
	if loadError != nil {
		return fmt.Errorf(configurationLoadErrorTemplateConstant, loadError)
	}

	if overrideError := application.applyFlagOverrides(command); overrideError != nil {
		return overrideError
	}
	application.configuration.Progress = application.configuration.Progress.Sanitize()

	common := application.configuration.Common
	logger, loggerCreationError := application.loggerFactory.CreateLogger(utils.LogLevel(common.LogLevel), utils.LogFormat(common.LogFormat))
	if loggerCreationError != nil {
		return fmt.Errorf(loggerCreationErrorTemplateConstant, loggerCreationError)
	}
	application.logger = logger

	progressConfiguration := application.configuration.Progress
	logger.Info(configurationInitializedMessageConstant,
		zap.String(configurationFileFieldConstant, application.configurationMetadata.ConfigFileUsed),
		zap.String(configurationLogLevelFieldConstant, common.LogLevel),
		zap.String(configurationLogFormatFieldConstant, common.LogFormat),
		zap.Stringer(configurationCloseMethodFieldConstant, progressConfiguration.DefaultCloseMethod),
		zap.Duration(configurationRefreshFieldConstant, progressConfiguration.RefreshInterval),
	)
	return nil
}

func builtinConfigurationValues() map[string]any {
	values := progress.DefaultConfigurationValues(progressConfigurationKeyConstant)
	values[commonLogLevelConfigKeyConstant] = string(utils.LogLevelInfo)
	values[commonLogFormatConfigKeyConstant] = string(utils.LogFormatStructured)
	return values
}

func (application *Application) applyFlagOverrides(command *cobra.Command) error {
	if persistentFlagChanged(command, logLevelFlagNameConstant) {
		application.configuration.Common.LogLevel = application.logLevelFlagValue.String()
	}

	if persistentFlagChanged(command, logFormatFlagNameConstant) {
		application.configuration.Common.LogFormat = application.logFormatFlagValue.String()
	}

	if persistentFlagChanged(command, closeMethodFlagNameConstant) {
		closeMethod, parseError := progress.ParseCloseMethod(application.closeMethodFlagValue.String())
		if parseError != nil {
			return fmt.Errorf(closeMethodFlagErrorTemplateConstant, parseError)
		}
		application.configuration.Progress.DefaultCloseMethod = closeMethod
	}

	if persistentFlagChanged(command, refreshFlagNameConstant) {
		application.configuration.Progress.RefreshInterval = application.refreshIntervalFlagValue
	}

	if persistentFlagChanged(command, noColorFlagNameConstant) {
		application.configuration.Progress.NoColor = application.noColorFlagValue
	}

	if persistentFlagChanged(command, widthFlagNameConstant) {
		application.configuration.Progress.Width = application.widthFlagValue
	}

	return nil
}

func (application *Application) progressConfiguration() progress.Configuration {
	return application.configuration.Progress
}

func (application *Application) printVersion(command *cobra.Command) {
	version := developmentVersionConstant
	if application.versionResolver != nil {
		if resolvedVersion := strings.TrimSpace(application.versionResolver(command.Context())); len(resolvedVersion) > 0 {
			version = resolvedVersion
		}
	}
	fmt.Fprintf(command.OutOrStdout(), versionOutputTemplateConstant, applicationNameConstant, version)

	exitFunction := application.exitFunction
	if exitFunction == nil {
		exitFunction = os.Exit
	}
	exitFunction(0)
}

func (application *Application) runRootCommand(command *cobra.Command, arguments []string) error {
	if application.logger == nil {
		return errors.New(loggerNotInitializedMessageConstant)
	}

	application.logger.Debug(
		rootCommandDebugMessageConstant,
		zap.String(logFieldCommandNameConstant, command.Name()),
		zap.Strings(logFieldArgumentsConstant, arguments),
	)
	if len(arguments) > 0 {
		return fmt.Errorf(unknownCommandTemplateConstant, arguments[0])
	}
	return command.Help()
}

// flushLogger syncs the logger. Terminals and pipes reject fsync with
// ENOTSUP or EINVAL, which is not a failure.
func (application *Application) flushLogger() error {
	if application.logger == nil {
		return nil
	}

	syncError := application.logger.Sync()
	if syncError == nil || errors.Is(syncError, syscall.ENOTSUP) || errors.Is(syncError, syscall.EINVAL) {
		return nil
	}
	return syncError
}

// persistentFlagChanged reports whether the user set flagName on the command
// line, whether it was declared on command or inherited from the root.
func persistentFlagChanged(command *cobra.Command, flagName string) bool {
	if command == nil {
		return false
	}

	for _, flagSet := range []*pflag.FlagSet{command.Flags(), command.Root().PersistentFlags()} {
		if changedFlag := flagSet.Lookup(flagName); changedFlag != nil && changedFlag.Changed {
			return true
		}
	}
	return false
}

// configurationSearchPaths lists the working directory followed by
// $XDG_CONFIG_HOME/stati.
func configurationSearchPaths() []string {
	xdg.Reload()
	return []string{
		defaultConfigurationSearchPathConstant,
		filepath.Join(xdg.ConfigHome, userConfigurationDirectoryNameConstant),
	}
}

func resolveBuildVersion(context.Context) string {
	buildInformation, available := debug.ReadBuildInfo()
	if !available {
		return developmentVersionConstant
	}
	mainVersion := strings.TrimSpace(buildInformation.Main.Version)
	if len(mainVersion) == 0 || mainVersion == buildInfoDevelopmentVersionConstant {
		return developmentVersionConstant
	}
	return mainVersion
}
