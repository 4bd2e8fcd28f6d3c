package plan

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/temirov/stati/internal/bars"
	"github.com/temirov/stati/internal/progress"
)

const (
	commandUseConstant                    = "run <plan.yaml>"
	commandShortDescriptionConstant       = "Run a YAML job plan with live progress indicators"
	commandLongDescriptionConstant        = "run loads a YAML job plan and draws one progress indicator per job until every job finishes."
	commandExecutionErrorTemplateConstant = "job plan failed: %w"
	planArgumentMessageConstant           = "run requires exactly one job plan path"
)

var errPlanArgument = errors.New(planArgumentMessageConstant)

// LoggerProvider supplies a zap logger instance.
type LoggerProvider func() *zap.Logger

// ConfigurationProvider supplies the progress settings.
type ConfigurationProvider func() progress.Configuration

// ObserverFactory creates the job observer for a run drawing through manager.
// colored reports whether the output accepts colour.
type ObserverFactory func(manager *progress.Manager, logger *zap.Logger, colored bool) JobEventObserver

// CommandBuilder assembles the Cobra command that runs job plans.
type CommandBuilder struct {
	LoggerProvider        LoggerProvider
	ConfigurationProvider ConfigurationProvider
	ObserverFactory       ObserverFactory
}

// Build constructs the run command.
func (builder *CommandBuilder) Build() (*cobra.Command, error) {
	command := &cobra.Command{
		Use:   commandUseConstant,
		Short: commandShortDescriptionConstant,
		Long:  commandLongDescriptionConstant,
		RunE:  builder.run,
	}
	return command, nil
}

func (builder *CommandBuilder) run(command *cobra.Command, arguments []string) error {
	if len(arguments) != 1 {
		return errPlanArgument
	}

	jobPlan, loadError := LoadPlan(arguments[0])
	if loadError != nil {
		return loadError
	}

	logger := builder.resolveLogger()
	configuration := builder.resolveConfiguration()
	output := command.OutOrStdout()
	manager := configuration.NewManager(output, logger)
	layout := bars.NewLayout(output, configuration)

	runner, runnerError := NewRunner(manager, RunnerSettings{
		Layout:          layout,
		RefreshInterval: configuration.RefreshInterval,
		Observer:        builder.resolveObserver(manager, logger, layout.Style.Colored()),
		Logger:          logger,
	})
	if runnerError != nil {
		return runnerError
	}

	if runError := runner.Run(command.Context(), jobPlan); runError != nil {
		return fmt.Errorf(commandExecutionErrorTemplateConstant, runError)
	}
	return nil
}

func (builder *CommandBuilder) resolveLogger() *zap.Logger {
	if builder.LoggerProvider == nil {
		return zap.NewNop()
	}

	logger := builder.LoggerProvider()
	if logger == nil {
		return zap.NewNop()
	}

	return logger
}

func (builder *CommandBuilder) resolveConfiguration() progress.Configuration {
	if builder.ConfigurationProvider == nil {
		return progress.DefaultConfiguration()
	}
	return builder.ConfigurationProvider().Sanitize()
}

func (builder *CommandBuilder) resolveObserver(manager *progress.Manager, logger *zap.Logger, colored bool) JobEventObserver {
	if builder.ObserverFactory == nil {
		return nil
	}
	return builder.ObserverFactory(manager, logger, colored)
}
