package plan

import "time"

// JobEventObserver receives lifecycle notifications for plan jobs. Every
// notification is delivered on the goroutine that runs the plan.
type JobEventObserver interface {
	// JobStarted notifies observers that the job's indicator is registered.
	JobStarted(job JobDefinition)
	// JobCompleted notifies observers that the job ran all of its steps.
	JobCompleted(job JobDefinition, elapsed time.Duration)
	// JobFailed reports a job that stopped before completing.
	JobFailed(job JobDefinition, failure error)
}

// noopJobEventObserver discards all job events.
type noopJobEventObserver struct{}

// JobStarted implements JobEventObserver for the no-op observer.
func (noopJobEventObserver) JobStarted(JobDefinition) {}

// JobCompleted implements JobEventObserver for the no-op observer.
func (noopJobEventObserver) JobCompleted(JobDefinition, time.Duration) {}

// JobFailed implements JobEventObserver for the no-op observer.
func (noopJobEventObserver) JobFailed(JobDefinition, error) {}
