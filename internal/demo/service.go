package demo

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/temirov/stati/internal/bars"
	"github.com/temirov/stati/internal/progress"
)

const (
	managerNotConfiguredMessageConstant   = "progress manager not configured"
	spinnerNameConstant                   = "Spinni whee"
	spinnerInitialSubtaskConstant         = "doing thing"
	spinnerClosingSubtaskTemplateConstant = "almost done! %d way there"
	spinnerIterationsConstant             = 1000
	spinnerClosingThresholdConstant       = 700
	iteratorBarNameConstant               = "Iterator"
	iteratorLimitConstant                 = 200
	iteratorProgressTemplateConstant      = "Progressed to %d with iterator\n"
	firstBarNameConstant                  = "bar1"
	secondBarNameConstant                 = "bar2"
	sectionLengthConstant                 = 50
	fullPercentageConstant                = 100
	firstSectionTemplateConstant          = "Progressed to %d in the first section\n"
	secondSectionTemplateConstant         = "Progressed to %d in the second section\n"
	thirdSectionTemplateConstant          = "Progressed to %d in the third section\n"
	managerSummaryTemplateConstant        = "Manager tracks %d indicators (%d drawn last frame)\n"
	mainGoroutineBarNameConstant          = "progressing from main goroutine"
	workerGoroutineBarNameConstant        = "progressing from worker goroutine"
	demoFinishedMessageConstant           = "done!"
	stageStartedMessageConstant           = "demo stage started"
	logFieldStageConstant                 = "stage"
	stageSpinnerConstant                  = "spinner"
	stageIteratorConstant                 = "iterator"
	stageSectionsConstant                 = "sections"
	stageThreadedConstant                 = "threaded"
	spinnerDelayDivisorConstant           = 5
)

// ErrManagerNotConfigured indicates NewService received no manager.
var ErrManagerNotConfigured = errors.New(managerNotConfiguredMessageConstant)

// DefaultStepDelay is the pause between bar updates.
const DefaultStepDelay = 50 * time.Millisecond

// Settings tunes the pacing of the walkthrough.
type Settings struct {
	// StepDelay is the pause between bar updates; the spinner ticks five times as fast.
	// Zero runs without pauses.
	StepDelay time.Duration
	Layout    bars.Layout
	Logger    *zap.Logger
}

// Service drives the walkthrough on a manager owned by the calling goroutine.
type Service struct {
	manager   *progress.Manager
	stepDelay time.Duration
	layout    bars.Layout
	logger    *zap.Logger
}

// NewService constructs the walkthrough service.
func NewService(manager *progress.Manager, settings Settings) (*Service, error) {
	if manager == nil {
		return nil, ErrManagerNotConfigured
	}
	logger := settings.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		manager:   manager,
		stepDelay: max(0, settings.StepDelay),
		layout:    settings.Layout,
		logger:    logger,
	}, nil
}

// Run plays every stage in order and stops at the first failure or when the context ends.
func (service *Service) Run(executionContext context.Context) error {
	stages := []struct {
		name string
		run  func(context.Context) error
	}{
		{name: stageSpinnerConstant, run: service.runSpinnerStage},
		{name: stageIteratorConstant, run: service.runIteratorStage},
		{name: stageSectionsConstant, run: service.runSectionsStage},
		{name: stageThreadedConstant, run: service.runThreadedStage},
	}

	for _, stage := range stages {
		service.logger.Debug(stageStartedMessageConstant, zap.String(logFieldStageConstant, stage.name))
		if stageError := stage.run(executionContext); stageError != nil {
			return stageError
		}
	}

	service.manager.Println(demoFinishedMessageConstant)
	return service.manager.TryPrint()
}

func (service *Service) runSpinnerStage(executionContext context.Context) error {
	spinner := bars.NewSpinnerBuilder(spinnerNameConstant).
		Subtask(spinnerInitialSubtaskConstant).
		CloseMethod(progress.CloseMethodClear).
		Layout(service.layout).
		Build()
	handle := progress.Register(service.manager, spinner)
	defer handle.Release()

	for iteration := range spinnerIterationsConstant {
		if iteration > spinnerClosingThresholdConstant {
			if subtaskError := handle.SetSubtask(fmt.Sprintf(spinnerClosingSubtaskTemplateConstant, iteration)); subtaskError != nil {
				return subtaskError
			}
		}
		if printError := service.manager.TryPrint(); printError != nil {
			return printError
		}
		if pauseError := pause(executionContext, service.stepDelay/spinnerDelayDivisorConstant); pauseError != nil {
			return pauseError
		}
	}
	return handle.Done()
}

func (service *Service) runIteratorStage(executionContext context.Context) error {
	handle := progress.Register(service.manager, bars.NewSimpleBar(iteratorBarNameConstant, iteratorLimitConstant, service.layout))
	for value := range bars.Track(countThrough(iteratorLimitConstant), handle, iteratorLimitConstant) {
		service.manager.Printf(iteratorProgressTemplateConstant, value)
		if printError := service.manager.TryPrint(); printError != nil {
			return printError
		}
		if pauseError := pause(executionContext, service.stepDelay); pauseError != nil {
			return pauseError
		}
	}
	return service.manager.TryPrint()
}

func (service *Service) runSectionsStage(executionContext context.Context) error {
	firstBar := progress.Register(service.manager, bars.NewSimpleBar(firstBarNameConstant, fullPercentageConstant, service.layout))
	defer firstBar.Release()

	for value := range countThrough(sectionLengthConstant) {
		if stepError := service.step(executionContext, firstSectionTemplateConstant, value, func() error {
			return firstBar.SetProgress(value)
		}); stepError != nil {
			return stepError
		}
	}

	secondBar := progress.Register(service.manager, bars.NewSimpleBar(secondBarNameConstant, fullPercentageConstant, service.layout))
	defer secondBar.Release()
	service.manager.Printf(managerSummaryTemplateConstant, service.manager.Len(), service.manager.LastLines())

	for value := range countThrough(sectionLengthConstant) {
		if stepError := service.step(executionContext, secondSectionTemplateConstant, value, func() error {
			return errors.Join(firstBar.SetProgress(value+sectionLengthConstant), secondBar.SetProgress(value))
		}); stepError != nil {
			return stepError
		}
	}
	if doneError := firstBar.Done(); doneError != nil {
		return doneError
	}

	for value := sectionLengthConstant; value <= fullPercentageConstant; value++ {
		if stepError := service.step(executionContext, thirdSectionTemplateConstant, value, func() error {
			return secondBar.SetProgress(value)
		}); stepError != nil {
			return stepError
		}
	}
	return secondBar.Done()
}

// step applies update, queues the progress line and redraws.
func (service *Service) step(executionContext context.Context, template string, value int, update func() error) error {
	if updateError := update(); updateError != nil {
		return updateError
	}
	service.manager.Printf(template, value)
	if printError := service.manager.TryPrint(); printError != nil {
		return printError
	}
	return pause(executionContext, service.stepDelay)
}

// runThreadedStage advances one bar from a worker goroutine and another from
// the goroutine that redraws. Only the redrawing goroutine touches the manager.
func (service *Service) runThreadedStage(executionContext context.Context) error {
	mainBar := progress.RegisterThreadSafe(service.manager, bars.NewSimpleBar(mainGoroutineBarNameConstant, fullPercentageConstant, service.layout))
	workerBar := progress.RegisterThreadSafe(service.manager, bars.NewSimpleBar(workerGoroutineBarNameConstant, fullPercentageConstant, service.layout))

	workerGroup, workerContext := errgroup.WithContext(executionContext)
	workerGroup.Go(func() error {
		for range bars.Track(countThrough(fullPercentageConstant), workerBar, fullPercentageConstant+1) {
			if pauseError := pause(workerContext, service.stepDelay); pauseError != nil {
				return pauseError
			}
		}
		return nil
	})
	workerGroup.Go(func() error {
		defer mainBar.Release()
		return service.driveMainBar(workerContext, mainBar)
	})

	if waitError := workerGroup.Wait(); waitError != nil {
		return waitError
	}
	return service.manager.TryPrint()
}

func (service *Service) driveMainBar(executionContext context.Context, mainBar *progress.ThreadHandle[*bars.SimpleBar]) error {
	for value := range countThrough(fullPercentageConstant) {
		if progressError := mainBar.SetProgress(value); progressError != nil {
			return progressError
		}
		if printError := service.manager.TryPrint(); printError != nil {
			return printError
		}
		if pauseError := pause(executionContext, service.stepDelay); pauseError != nil {
			return pauseError
		}
	}
	return nil
}

// countThrough yields 0 through limit inclusive.
func countThrough(limit int) iter.Seq[int] {
	return func(yield func(int) bool) {
		for value := 0; value <= limit; value++ {
			if !yield(value) {
				return
			}
		}
	}
}

// pause waits for delay or until the context ends.
func pause(executionContext context.Context, delay time.Duration) error {
	if delay <= 0 {
		return executionContext.Err()
	}
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-executionContext.Done():
		return executionContext.Err()
	case <-timer.C:
		return nil
	}
}
