package demo

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/temirov/stati/internal/bars"
	"github.com/temirov/stati/internal/progress"
)

const (
	commandUseConstant                    = "demo"
	commandShortDescriptionConstant       = "Play a walkthrough of every progress indicator"
	commandLongDescriptionConstant        = "demo draws a spinner, an iterator bar, interleaved bars with log lines and bars advanced from two goroutines."
	commandExecutionErrorTemplateConstant = "demo failed: %w"
	unexpectedArgumentsMessageConstant    = "demo does not accept positional arguments"
	flagStepDelayNameConstant             = "step-delay"
	flagStepDelayDescriptionConstant      = "Pause between bar updates"
)

var errUnexpectedArguments = errors.New(unexpectedArgumentsMessageConstant)

// LoggerProvider supplies a zap logger instance.
type LoggerProvider func() *zap.Logger

// ConfigurationProvider supplies the progress settings.
type ConfigurationProvider func() progress.Configuration

// CommandBuilder assembles the Cobra command for the walkthrough.
type CommandBuilder struct {
	LoggerProvider        LoggerProvider
	ConfigurationProvider ConfigurationProvider
}

// Build constructs the demo command.
func (builder *CommandBuilder) Build() (*cobra.Command, error) {
	command := &cobra.Command{
		Use:   commandUseConstant,
		Short: commandShortDescriptionConstant,
		Long:  commandLongDescriptionConstant,
		RunE:  builder.run,
	}

	command.Flags().Duration(flagStepDelayNameConstant, DefaultStepDelay, flagStepDelayDescriptionConstant)

	return command, nil
}

func (builder *CommandBuilder) run(command *cobra.Command, arguments []string) error {
	if len(arguments) > 0 {
		return errUnexpectedArguments
	}

	stepDelay, _ := command.Flags().GetDuration(flagStepDelayNameConstant)
	logger := builder.resolveLogger()
	configuration := builder.resolveConfiguration()
	output := command.OutOrStdout()

	service, serviceError := NewService(configuration.NewManager(output, logger), Settings{
		StepDelay: stepDelay,
		Layout:    bars.NewLayout(output, configuration),
		Logger:    logger,
	})
	if serviceError != nil {
		return serviceError
	}

	if runError := service.Run(command.Context()); runError != nil {
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
