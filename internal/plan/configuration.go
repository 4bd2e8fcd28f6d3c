package plan

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/temirov/stati/internal/progress"
)

const (
	planLoadErrorTemplateConstant       = "failed to load job plan: %w"
	planParseErrorTemplateConstant      = "failed to parse job plan: %w"
	planPathRequiredMessageConstant     = "job plan path must be provided"
	planEmptyJobsMessageConstant        = "job plan must define at least one job"
	jobValidationErrorTemplateConstant  = "job %d (%s): %s"
	jobNameMissingMessageConstant       = "name must be provided"
	jobDuplicateNameMessageConstant     = "name is already used by another job"
	jobUnknownKindTemplateConstant      = "unsupported kind %q"
	jobStepsNotPositiveMessageConstant  = "steps must be positive"
	jobDelayNegativeMessageConstant     = "delay must not be negative"
	jobChunkSizeNegativeMessageConstant = "chunk_size must not be negative"
	unnamedJobLabelConstant             = "unnamed"
	// DefaultStepDelay applies to jobs without a delay.
	DefaultStepDelay = 50 * time.Millisecond
	// DefaultChunkSize is the byte count a bytes job transfers per step.
	DefaultChunkSize = 64 * 1024
)

// JobKind selects the indicator a job is displayed with.
type JobKind string

// Supported job kinds.
const (
	JobKindBar     JobKind = JobKind("bar")
	JobKindSpinner JobKind = JobKind("spinner")
	JobKindCustom  JobKind = JobKind("custom")
	JobKindBytes   JobKind = JobKind("bytes")
)

var supportedJobKinds = map[JobKind]struct{}{
	JobKindBar:     {},
	JobKindSpinner: {},
	JobKindCustom:  {},
	JobKindBytes:   {},
}

var (
	// ErrPlanPathRequired indicates LoadPlan was called without a path.
	ErrPlanPathRequired = errors.New(planPathRequiredMessageConstant)
	// ErrPlanEmpty indicates a plan without jobs.
	ErrPlanEmpty = errors.New(planEmptyJobsMessageConstant)
)

// JobValidationError reports a job definition that cannot run.
type JobValidationError struct {
	JobIndex int
	JobName  string
	Reason   string
}

// Error describes the invalid job.
func (validationError JobValidationError) Error() string {
	jobName := validationError.JobName
	if len(jobName) == 0 {
		jobName = unnamedJobLabelConstant
	}
	return fmt.Sprintf(jobValidationErrorTemplateConstant, validationError.JobIndex, jobName, validationError.Reason)
}

// Plan lists the jobs to run in display order.
type Plan struct {
	Jobs []JobDefinition `yaml:"jobs"`
}

// JobDefinition describes one simulated job.
type JobDefinition struct {
	Name        string               `yaml:"name"`
	Kind        JobKind              `yaml:"kind"`
	Steps       int                  `yaml:"steps"`
	Delay       time.Duration        `yaml:"delay"`
	ThreadSafe  bool                 `yaml:"thread_safe"`
	CloseMethod progress.CloseMethod `yaml:"close_method"`
	Subtasks    []string             `yaml:"subtasks"`
	Unit        string               `yaml:"unit"`
	ChunkSize   int                  `yaml:"chunk_size"`
}

// LoadPlan reads a plan from disk, accepting the jobs either at the top
// level or below a "plan" key, and validates it.
func LoadPlan(filePath string) (Plan, error) {
	trimmedPath := strings.TrimSpace(filePath)
	if len(trimmedPath) == 0 {
		return Plan{}, ErrPlanPathRequired
	}

	contentBytes, readError := os.ReadFile(trimmedPath)
	if readError != nil {
		return Plan{}, fmt.Errorf(planLoadErrorTemplateConstant, readError)
	}

	return ParsePlan(contentBytes)
}

// ParsePlan decodes and validates plan YAML.
func ParsePlan(contentBytes []byte) (Plan, error) {
	var parsedPlan Plan
	if unmarshalError := yaml.Unmarshal(contentBytes, &parsedPlan); unmarshalError != nil {
		return Plan{}, fmt.Errorf(planParseErrorTemplateConstant, unmarshalError)
	}

	if len(parsedPlan.Jobs) == 0 {
		var wrapper struct {
			Plan Plan `yaml:"plan"`
		}
		if nestedError := yaml.Unmarshal(contentBytes, &wrapper); nestedError == nil {
			parsedPlan = wrapper.Plan
		}
	}

	return parsedPlan.normalize()
}

// normalize trims names, applies defaults and validates every job.
func (plan Plan) normalize() (Plan, error) {
	if len(plan.Jobs) == 0 {
		return Plan{}, ErrPlanEmpty
	}

	normalized := Plan{Jobs: make([]JobDefinition, 0, len(plan.Jobs))}
	seenNames := make(map[string]struct{}, len(plan.Jobs))
	for jobIndex, job := range plan.Jobs {
		job.Name = strings.TrimSpace(job.Name)
		job.Kind = JobKind(strings.ToLower(strings.TrimSpace(string(job.Kind))))
		if len(job.Kind) == 0 {
			job.Kind = JobKindBar
		}
		if job.Delay == 0 {
			job.Delay = DefaultStepDelay
		}
		if job.Kind == JobKindBytes && job.ChunkSize == 0 {
			job.ChunkSize = DefaultChunkSize
		}

		if validationReason := job.validate(seenNames); len(validationReason) > 0 {
			return Plan{}, JobValidationError{JobIndex: jobIndex, JobName: job.Name, Reason: validationReason}
		}

		seenNames[job.Name] = struct{}{}
		normalized.Jobs = append(normalized.Jobs, job)
	}

	return normalized, nil
}

func (job JobDefinition) validate(seenNames map[string]struct{}) string {
	switch {
	case len(job.Name) == 0:
		return jobNameMissingMessageConstant
	case job.Steps <= 0:
		return jobStepsNotPositiveMessageConstant
	case job.Delay < 0:
		return jobDelayNegativeMessageConstant
	case job.ChunkSize < 0:
		return jobChunkSizeNegativeMessageConstant
	}
	if _, supported := supportedJobKinds[job.Kind]; !supported {
		return fmt.Sprintf(jobUnknownKindTemplateConstant, job.Kind)
	}
	if _, duplicate := seenNames[job.Name]; duplicate {
		return jobDuplicateNameMessageConstant
	}
	return ""
}
