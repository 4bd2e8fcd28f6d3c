package ui

import (
	"fmt"
	"time"

	"github.com/fatih/color"
	"go.uber.org/zap"

	"github.com/temirov/stati/internal/plan"
	"github.com/temirov/stati/internal/progress"
)

const (
	jobStartedMessageTemplateConstant   = "Running %s"
	jobCompletedMessageTemplateConstant = "Completed %s in %s"
	jobFailedMessageTemplateConstant    = "%s failed: %s"
	jobLabelTemplateConstant            = "%s (%s)"
	jobStatusLineTemplateConstant       = "%s %s"
	jobSucceededMarkConstant            = "✓"
	jobFailedMarkConstant               = "✗"
	unknownFailureMessageConstant       = "unknown error"
	elapsedRoundingConstant             = time.Millisecond
)

// JobEventFormatter builds human-readable messages for job lifecycle events.
type JobEventFormatter struct{}

// BuildStartedMessage formats the message describing a job whose indicator was registered.
func (formatter JobEventFormatter) BuildStartedMessage(job plan.JobDefinition) string {
	return fmt.Sprintf(jobStartedMessageTemplateConstant, formatter.formatJobLabel(job))
}

// BuildSuccessMessage formats the message describing a job that ran all of its steps.
func (formatter JobEventFormatter) BuildSuccessMessage(job plan.JobDefinition, elapsed time.Duration) string {
	return fmt.Sprintf(jobCompletedMessageTemplateConstant, formatter.formatJobLabel(job), elapsed.Round(elapsedRoundingConstant))
}

// BuildFailureMessage formats the message describing a job that stopped early.
func (formatter JobEventFormatter) BuildFailureMessage(job plan.JobDefinition, failure error) string {
	failureMessage := unknownFailureMessageConstant
	if failure != nil {
		failureMessage = failure.Error()
	}
	return fmt.Sprintf(jobFailedMessageTemplateConstant, formatter.formatJobLabel(job), failureMessage)
}

func (formatter JobEventFormatter) formatJobLabel(job plan.JobDefinition) string {
	return fmt.Sprintf(jobLabelTemplateConstant, job.Name, job.Kind)
}

// ConsoleJobEventLogger renders job lifecycle events using a zap logger configured for human-readable output.
type ConsoleJobEventLogger struct {
	logger    *zap.Logger
	formatter JobEventFormatter
}

// NewConsoleJobEventLogger constructs a console event logger backed by the provided zap logger.
func NewConsoleJobEventLogger(logger *zap.Logger) *ConsoleJobEventLogger {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ConsoleJobEventLogger{logger: logger, formatter: JobEventFormatter{}}
}

// JobStarted implements plan.JobEventObserver by logging job start notifications.
func (eventLogger *ConsoleJobEventLogger) JobStarted(job plan.JobDefinition) {
	if eventLogger == nil {
		return
	}
	eventLogger.logger.Info(eventLogger.formatter.BuildStartedMessage(job))
}

// JobCompleted implements plan.JobEventObserver by logging job completion notifications.
func (eventLogger *ConsoleJobEventLogger) JobCompleted(job plan.JobDefinition, elapsed time.Duration) {
	if eventLogger == nil {
		return
	}
	eventLogger.logger.Info(eventLogger.formatter.BuildSuccessMessage(job, elapsed))
}

// JobFailed implements plan.JobEventObserver by logging job failures.
func (eventLogger *ConsoleJobEventLogger) JobFailed(job plan.JobDefinition, failure error) {
	if eventLogger == nil {
		return
	}
	eventLogger.logger.Error(eventLogger.formatter.BuildFailureMessage(job, failure))
}

// ProgressJobEventReporter prints a status line above the indicators for
// every finished job and forwards all events to a ConsoleJobEventLogger.
type ProgressJobEventReporter struct {
	manager      *progress.Manager
	eventLogger  *ConsoleJobEventLogger
	formatter    JobEventFormatter
	successColor *color.Color
	failureColor *color.Color
}

// NewProgressJobEventReporter constructs a reporter queueing status lines on manager.
func NewProgressJobEventReporter(manager *progress.Manager, logger *zap.Logger, colored bool) *ProgressJobEventReporter {
	successColor := color.New(color.FgGreen)
	failureColor := color.New(color.FgRed)
	if colored {
		successColor.EnableColor()
		failureColor.EnableColor()
	} else {
		successColor.DisableColor()
		failureColor.DisableColor()
	}
	return &ProgressJobEventReporter{
		manager:      manager,
		eventLogger:  NewConsoleJobEventLogger(logger),
		formatter:    JobEventFormatter{},
		successColor: successColor,
		failureColor: failureColor,
	}
}

// JobStarted implements plan.JobEventObserver.
func (reporter *ProgressJobEventReporter) JobStarted(job plan.JobDefinition) {
	if reporter == nil {
		return
	}
	reporter.eventLogger.JobStarted(job)
}

// JobCompleted implements plan.JobEventObserver.
func (reporter *ProgressJobEventReporter) JobCompleted(job plan.JobDefinition, elapsed time.Duration) {
	if reporter == nil {
		return
	}
	reporter.queueStatus(reporter.successColor.Sprint(jobSucceededMarkConstant), reporter.formatter.BuildSuccessMessage(job, elapsed))
	reporter.eventLogger.JobCompleted(job, elapsed)
}

// JobFailed implements plan.JobEventObserver.
func (reporter *ProgressJobEventReporter) JobFailed(job plan.JobDefinition, failure error) {
	if reporter == nil {
		return
	}
	reporter.queueStatus(reporter.failureColor.Sprint(jobFailedMarkConstant), reporter.formatter.BuildFailureMessage(job, failure))
	reporter.eventLogger.JobFailed(job, failure)
}

func (reporter *ProgressJobEventReporter) queueStatus(mark string, message string) {
	if reporter.manager == nil {
		return
	}
	reporter.manager.Println(fmt.Sprintf(jobStatusLineTemplateConstant, mark, message))
}
