package plan

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/temirov/stati/internal/bars"
	"github.com/temirov/stati/internal/progress"
)

const (
	managerNotConfiguredMessageConstant = "progress manager not configured"
	spinnerStepSubtaskTemplateConstant  = "step %d/%d"
	runStartedMessageConstant           = "job plan started"
	runFinishedMessageConstant          = "job plan finished"
	logFieldJobCountConstant            = "jobs"
	logFieldThreadSafeCountConstant     = "thread_safe_jobs"
	logFieldElapsedConstant             = "elapsed"
	fullPercentageConstant              = 100
)

// ErrManagerNotConfigured indicates NewRunner received no manager.
var ErrManagerNotConfigured = errors.New(managerNotConfiguredMessageConstant)

// RunnerSettings configures a Runner.
type RunnerSettings struct {
	// Layout sizes and styles the job indicators.
	Layout bars.Layout
	// RefreshInterval is the redraw cadence. Defaults to progress.DefaultRefreshInterval.
	RefreshInterval time.Duration
	// Observer receives job lifecycle events on the goroutine calling Run.
	Observer JobEventObserver
	// Logger receives diagnostics.
	Logger *zap.Logger
}

// Runner executes plans against a progress manager. The manager must not be
// used by other goroutines while Run is active.
type Runner struct {
	manager         *progress.Manager
	layout          bars.Layout
	refreshInterval time.Duration
	observer        JobEventObserver
	logger          *zap.Logger
}

// NewRunner constructs a Runner drawing through manager.
func NewRunner(manager *progress.Manager, settings RunnerSettings) (*Runner, error) {
	if manager == nil {
		return nil, ErrManagerNotConfigured
	}

	runner := &Runner{
		manager:         manager,
		layout:          settings.Layout,
		refreshInterval: settings.RefreshInterval,
		observer:        settings.Observer,
		logger:          settings.Logger,
	}
	if runner.refreshInterval <= 0 {
		runner.refreshInterval = progress.DefaultRefreshInterval
	}
	if runner.observer == nil {
		runner.observer = noopJobEventObserver{}
	}
	if runner.logger == nil {
		runner.logger = zap.NewNop()
	}
	return runner, nil
}

// jobHandle is the subset of progress.Handle and progress.ThreadHandle a job drives.
type jobHandle interface {
	SetProgress(progress int) error
	SetSubtask(subtask string) error
	Release()
}

type jobOutcome struct {
	job     *runningJob
	failure error
}

type runningJob struct {
	definition     JobDefinition
	handle         jobHandle
	completedSteps int
	nextStepAt     time.Time
	finished       bool
}

// advance performs one step and reports whether the job is complete.
func (job *runningJob) advance() (bool, error) {
	job.completedSteps++
	steps := job.definition.Steps

	var stepError error
	switch job.definition.Kind {
	case JobKindBar:
		stepError = job.handle.SetProgress(fullPercentageConstant * job.completedSteps / steps)
	case JobKindCustom:
		stepError = job.handle.SetProgress(job.completedSteps)
	case JobKindBytes:
		stepError = job.handle.SetProgress(job.completedSteps * job.definition.ChunkSize)
	case JobKindSpinner:
		stepError = job.handle.SetSubtask(job.subtask())
	}
	return job.completedSteps >= steps, stepError
}

func (job *runningJob) subtask() string {
	if len(job.definition.Subtasks) == 0 {
		return fmt.Sprintf(spinnerStepSubtaskTemplateConstant, job.completedSteps, job.definition.Steps)
	}
	return job.definition.Subtasks[(job.completedSteps-1)%len(job.definition.Subtasks)]
}

// work runs a thread-safe job on its own goroutine and reports exactly one outcome.
func (job *runningJob) work(executionContext context.Context, outcomes chan<- jobOutcome) {
	stepTimer := time.NewTimer(job.definition.Delay)
	defer stepTimer.Stop()

	for {
		select {
		case <-executionContext.Done():
			outcomes <- jobOutcome{job: job, failure: executionContext.Err()}
			return
		case <-stepTimer.C:
		}

		complete, stepError := job.advance()
		if stepError != nil {
			outcomes <- jobOutcome{job: job, failure: stepError}
			return
		}
		if complete {
			outcomes <- jobOutcome{job: job}
			return
		}
		stepTimer.Reset(job.definition.Delay)
	}
}

// Run registers an indicator per job and redraws until every job has
// completed or failed. A failed redraw stops the remaining jobs. Cancelling
// the context stops all jobs; Run then returns the context error after a
// final redraw.
func (runner *Runner) Run(executionContext context.Context, jobPlan Plan) error {
	startedAt := time.Now()
	runContext, cancelRun := context.WithCancel(executionContext)
	defer cancelRun()

	outcomes := make(chan jobOutcome, len(jobPlan.Jobs))
	var workerGroup errgroup.Group

	drivenJobs := make([]*runningJob, 0, len(jobPlan.Jobs))
	threadSafeJobCount := 0
	for _, definition := range jobPlan.Jobs {
		job := runner.startJob(definition, startedAt)
		runner.observer.JobStarted(definition)
		if definition.ThreadSafe {
			threadSafeJobCount++
			workerGroup.Go(func() error {
				job.work(runContext, outcomes)
				return nil
			})
			continue
		}
		drivenJobs = append(drivenJobs, job)
	}

	runner.logger.Debug(
		runStartedMessageConstant,
		zap.Int(logFieldJobCountConstant, len(jobPlan.Jobs)),
		zap.Int(logFieldThreadSafeCountConstant, threadSafeJobCount),
	)

	ticker := time.NewTicker(runner.refreshInterval)
	defer ticker.Stop()

	var runErrors []error
	recordOutcome := func(outcome jobOutcome) {
		runner.finishJob(outcome, startedAt)
		if outcome.failure != nil && runContext.Err() == nil {
			runErrors = append(runErrors, outcome.failure)
		}
	}

	remainingJobs := len(jobPlan.Jobs)
	for remainingJobs > 0 {
		select {
		case outcome := <-outcomes:
			recordOutcome(outcome)
			remainingJobs--
		case tickTime := <-ticker.C:
			for _, job := range drivenJobs {
				if job.finished {
					continue
				}
				outcome, settled := runner.stepDrivenJob(runContext, job, tickTime)
				if settled {
					recordOutcome(outcome)
					remainingJobs--
				}
			}
			if printError := runner.manager.TryPrint(); printError != nil {
				runErrors = append(runErrors, printError)
				cancelRun()
			}
		}
	}

	_ = workerGroup.Wait()
	if printError := runner.manager.TryPrint(); printError != nil {
		runErrors = append(runErrors, printError)
	}

	runner.logger.Debug(runFinishedMessageConstant, zap.Duration(logFieldElapsedConstant, time.Since(startedAt)))
	if contextError := executionContext.Err(); contextError != nil {
		return contextError
	}
	return errors.Join(runErrors...)
}

func (runner *Runner) startJob(definition JobDefinition, startedAt time.Time) *runningJob {
	indicator := runner.buildIndicator(definition)
	job := &runningJob{definition: definition, nextStepAt: startedAt.Add(definition.Delay)}
	if definition.ThreadSafe {
		job.handle = progress.RegisterThreadSafe[progress.Renderer](runner.manager, indicator)
	} else {
		job.handle = progress.Register[progress.Renderer](runner.manager, indicator)
	}
	return job
}

func (runner *Runner) buildIndicator(definition JobDefinition) progress.Renderer {
	switch definition.Kind {
	case JobKindSpinner:
		builder := bars.NewSpinnerBuilder(definition.Name).Layout(runner.layout)
		if definition.CloseMethod != progress.CloseMethodDefault {
			builder.CloseMethod(definition.CloseMethod)
		}
		return builder.Build()
	case JobKindCustom:
		builder := bars.NewCustomBarBuilder(definition.Name).Hint(definition.Steps).Layout(runner.layout)
		if len(definition.Unit) > 0 {
			builder.Unit(definition.Unit)
		}
		if definition.CloseMethod != progress.CloseMethodDefault {
			builder.CloseMethod(definition.CloseMethod)
		}
		return builder.Build()
	case JobKindBytes:
		byteBar := bars.NewByteBar(definition.Name, definition.Steps*definition.ChunkSize, runner.layout)
		byteBar.SetCloseMethod(definition.CloseMethod)
		return byteBar
	default:
		simpleBar := bars.NewSimpleBar(definition.Name, definition.Steps, runner.layout)
		if definition.CloseMethod != progress.CloseMethodDefault {
			simpleBar.SetCloseMethod(definition.CloseMethod)
		}
		return simpleBar
	}
}

// stepDrivenJob advances a single-owner job when its delay has elapsed and
// reports whether the job settled.
func (runner *Runner) stepDrivenJob(executionContext context.Context, job *runningJob, tickTime time.Time) (jobOutcome, bool) {
	if contextError := executionContext.Err(); contextError != nil {
		return jobOutcome{job: job, failure: contextError}, true
	}
	if tickTime.Before(job.nextStepAt) {
		return jobOutcome{}, false
	}
	job.nextStepAt = tickTime.Add(job.definition.Delay)

	complete, stepError := job.advance()
	if stepError != nil {
		return jobOutcome{job: job, failure: stepError}, true
	}
	if complete {
		return jobOutcome{job: job}, true
	}
	return jobOutcome{}, false
}

func (runner *Runner) finishJob(outcome jobOutcome, startedAt time.Time) {
	job := outcome.job
	job.finished = true
	job.handle.Release()
	if outcome.failure != nil {
		runner.observer.JobFailed(job.definition, outcome.failure)
		return
	}
	runner.observer.JobCompleted(job.definition, time.Since(startedAt))
}
