package transfer

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/temirov/stati/internal/bars"
	"github.com/temirov/stati/internal/progress"
	pathutils "github.com/temirov/stati/internal/utils/path"
)

const (
	commandUseConstant                    = "copy <source> <destination>"
	commandShortDescriptionConstant       = "Copy a file while drawing a byte progress bar"
	commandLongDescriptionConstant        = "copy copies a file on a worker goroutine and draws the transferred bytes against the file size."
	commandExecutionErrorTemplateConstant = "copy failed: %w"
	copyArgumentsMessageConstant          = "copy requires a source and a destination path"
)

var errCopyArguments = errors.New(copyArgumentsMessageConstant)

// LoggerProvider supplies a zap logger instance.
type LoggerProvider func() *zap.Logger

// ConfigurationProvider supplies the progress settings.
type ConfigurationProvider func() progress.Configuration

// CommandBuilder assembles the Cobra command for file copies.
type CommandBuilder struct {
	LoggerProvider        LoggerProvider
	ConfigurationProvider ConfigurationProvider
	PathResolver          *pathutils.PathResolver
}

// Build constructs the copy command.
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
	if len(arguments) != 2 {
		return errCopyArguments
	}

	resolver := builder.resolvePathResolver()
	sourcePath, sourceError := resolver.Resolve(arguments[0])
	if sourceError != nil {
		return sourceError
	}
	destinationPath, destinationError := resolver.Resolve(arguments[1])
	if destinationError != nil {
		return destinationError
	}

	logger := builder.resolveLogger()
	configuration := builder.resolveConfiguration()
	output := command.OutOrStdout()

	service, serviceError := NewService(configuration.NewManager(output, logger), Settings{
		Layout:          bars.NewLayout(output, configuration),
		RefreshInterval: configuration.RefreshInterval,
		Logger:          logger,
	})
	if serviceError != nil {
		return serviceError
	}

	if _, copyError := service.Copy(command.Context(), sourcePath, destinationPath); copyError != nil {
		return fmt.Errorf(commandExecutionErrorTemplateConstant, copyError)
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

func (builder *CommandBuilder) resolvePathResolver() *pathutils.PathResolver {
	if builder.PathResolver == nil {
		return pathutils.NewPathResolver()
	}
	return builder.PathResolver
}
