package plan_test

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/temirov/stati/internal/plan"
	"github.com/temirov/stati/internal/progress"
)

const (
	testPlanFileNameConstant = "plan.yaml"
	testTopLevelPlanConstant = `
jobs:
  - name: " compile "
    steps: 4
  - name: download
    kind: BYTES
    steps: 3
    thread_safe: true
  - name: index
    kind: spinner
    steps: 2
    delay: 5ms
    close_method: leave-behind
    subtasks: [scan, link]
  - name: upload
    kind: custom
    steps: 10
    unit: files
    close_method: clear
`
	testNestedPlanConstant = `
plan:
  jobs:
    - name: nested
      steps: 1
`
)

func TestParsePlanAppliesDefaults(testInstance *testing.T) {
	parsedPlan, parseError := plan.ParsePlan([]byte(testTopLevelPlanConstant))
	require.NoError(testInstance, parseError)
	require.Len(testInstance, parsedPlan.Jobs, 4)

	compileJob := parsedPlan.Jobs[0]
	require.Equal(testInstance, "compile", compileJob.Name)
	require.Equal(testInstance, plan.JobKindBar, compileJob.Kind)
	require.Equal(testInstance, plan.DefaultStepDelay, compileJob.Delay)
	require.Equal(testInstance, progress.CloseMethodDefault, compileJob.CloseMethod)
	require.Zero(testInstance, compileJob.ChunkSize)

	downloadJob := parsedPlan.Jobs[1]
	require.Equal(testInstance, plan.JobKindBytes, downloadJob.Kind)
	require.Equal(testInstance, plan.DefaultChunkSize, downloadJob.ChunkSize)
	require.True(testInstance, downloadJob.ThreadSafe)

	indexJob := parsedPlan.Jobs[2]
	require.Equal(testInstance, plan.JobKindSpinner, indexJob.Kind)
	require.Equal(testInstance, 5*time.Millisecond, indexJob.Delay)
	require.Equal(testInstance, progress.CloseMethodLeaveBehind, indexJob.CloseMethod)
	require.Equal(testInstance, []string{"scan", "link"}, indexJob.Subtasks)

	uploadJob := parsedPlan.Jobs[3]
	require.Equal(testInstance, plan.JobKindCustom, uploadJob.Kind)
	require.Equal(testInstance, "files", uploadJob.Unit)
	require.Equal(testInstance, progress.CloseMethodClear, uploadJob.CloseMethod)
}

func TestParsePlanAcceptsNestedPlanKey(testInstance *testing.T) {
	parsedPlan, parseError := plan.ParsePlan([]byte(testNestedPlanConstant))
	require.NoError(testInstance, parseError)
	require.Len(testInstance, parsedPlan.Jobs, 1)
	require.Equal(testInstance, "nested", parsedPlan.Jobs[0].Name)
}

func TestParsePlanRejectsInvalidJobs(testInstance *testing.T) {
	testCases := []struct {
		name           string
		content        string
		expectedReason string
		expectedIndex  int
	}{
		{
			name:           "missing_name",
			content:        "jobs:\n  - steps: 2\n",
			expectedReason: "name must be provided",
		},
		{
			name:           "zero_steps",
			content:        "jobs:\n  - name: a\n",
			expectedReason: "steps must be positive",
		},
		{
			name:           "negative_delay",
			content:        "jobs:\n  - name: a\n    steps: 1\n    delay: -1s\n",
			expectedReason: "delay must not be negative",
		},
		{
			name:           "negative_chunk_size",
			content:        "jobs:\n  - name: a\n    kind: bytes\n    steps: 1\n    chunk_size: -5\n",
			expectedReason: "chunk_size must not be negative",
		},
		{
			name:           "unknown_kind",
			content:        "jobs:\n  - name: a\n    kind: gauge\n    steps: 1\n",
			expectedReason: `unsupported kind "gauge"`,
		},
		{
			name:           "duplicate_name",
			content:        "jobs:\n  - name: a\n    steps: 1\n  - name: a\n    steps: 2\n",
			expectedReason: "name is already used by another job",
			expectedIndex:  1,
		},
	}

	for testCaseIndex, testCase := range testCases {
		testInstance.Run(fmt.Sprintf("%d_%s", testCaseIndex, testCase.name), func(testInstance *testing.T) {
			_, parseError := plan.ParsePlan([]byte(testCase.content))
			require.Error(testInstance, parseError)

			var validationError plan.JobValidationError
			require.True(testInstance, errors.As(parseError, &validationError))
			require.Equal(testInstance, testCase.expectedReason, validationError.Reason)
			require.Equal(testInstance, testCase.expectedIndex, validationError.JobIndex)
		})
	}
}

func TestParsePlanRejectsEmptyAndMalformedPlans(testInstance *testing.T) {
	_, emptyError := plan.ParsePlan([]byte("jobs: []\n"))
	require.ErrorIs(testInstance, emptyError, plan.ErrPlanEmpty)

	_, closeMethodError := plan.ParsePlan([]byte("jobs:\n  - name: a\n    steps: 1\n    close_method: sideways\n"))
	require.ErrorContains(testInstance, closeMethodError, "failed to parse job plan")
	require.ErrorContains(testInstance, closeMethodError, "unsupported close method")

	_, syntaxError := plan.ParsePlan([]byte("jobs: [\n"))
	require.ErrorContains(testInstance, syntaxError, "failed to parse job plan")
}

func TestJobValidationErrorNamesUnnamedJobs(testInstance *testing.T) {
	validationError := plan.JobValidationError{JobIndex: 2, Reason: "steps must be positive"}
	require.Equal(testInstance, "job 2 (unnamed): steps must be positive", validationError.Error())
}

func TestLoadPlanReadsFile(testInstance *testing.T) {
	_, missingPathError := plan.LoadPlan("  ")
	require.ErrorIs(testInstance, missingPathError, plan.ErrPlanPathRequired)

	temporaryDirectory := testInstance.TempDir()
	_, readError := plan.LoadPlan(filepath.Join(temporaryDirectory, "absent.yaml"))
	require.ErrorContains(testInstance, readError, "failed to load job plan")
	require.ErrorIs(testInstance, readError, os.ErrNotExist)

	planPath := filepath.Join(temporaryDirectory, testPlanFileNameConstant)
	require.NoError(testInstance, os.WriteFile(planPath, []byte(testTopLevelPlanConstant), 0o600))
	loadedPlan, loadError := plan.LoadPlan(planPath)
	require.NoError(testInstance, loadError)
	require.Len(testInstance, loadedPlan.Jobs, 4)
}
