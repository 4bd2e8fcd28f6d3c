package progress_test

import (
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/temirov/stati/internal/progress"
)

const (
	testRenamedConstant   = "renamed"
	testSubtaskConstant   = "compiling"
	testCleanupWaitLimit  = 2 * time.Second
	testCleanupPollPeriod = 10 * time.Millisecond
)

func TestHandleForwardsMutators(testInstance *testing.T) {
	manager, _ := newTestManager()
	indicator := newRecordingIndicator(testJobNameConstant, progress.CloseMethodDefault)
	handle := progress.Register(manager, indicator)
	defer handle.Release()

	require.NoError(testInstance, handle.SetProgress(42))
	require.NoError(testInstance, handle.SetName(testRenamedConstant))
	require.NoError(testInstance, handle.SetSubtask(testSubtaskConstant))
	require.NoError(testInstance, handle.SetSizeHint(7))

	require.NoError(testInstance, handle.Access(func(accessed *recordingIndicator) error {
		require.Same(testInstance, indicator, accessed)
		require.Equal(testInstance, 42, accessed.progress)
		require.Equal(testInstance, testRenamedConstant, accessed.name)
		require.Equal(testInstance, testSubtaskConstant, accessed.subtask)
		require.Equal(testInstance, 7, accessed.sizeHint)
		return nil
	}))
}

func TestHandleReportsUnsupportedCapabilities(testInstance *testing.T) {
	manager, _ := newTestManager()
	handle := progress.Register(manager, &minimalIndicator{})
	defer handle.Release()

	require.ErrorIs(testInstance, handle.SetProgress(1), progress.ErrUnsupported)
	require.ErrorIs(testInstance, handle.SetName(testRenamedConstant), progress.ErrUnsupported)
	require.ErrorIs(testInstance, handle.SetSubtask(testSubtaskConstant), progress.ErrUnsupported)
	require.ErrorIs(testInstance, handle.SetSizeHint(1), progress.ErrUnsupported)
}

func TestHandleDoneIsIdempotent(testInstance *testing.T) {
	manager, _ := newTestManager()
	handle := progress.Register(manager, newRecordingIndicator(testJobNameConstant, progress.CloseMethodLeaveBehind))
	defer handle.Release()

	require.NoError(testInstance, handle.Done())
	require.NoError(testInstance, handle.Done())

	finished, doneError := handle.IsDone()
	require.NoError(testInstance, doneError)
	require.True(testInstance, finished)

	frame, renderError := manager.Render()
	require.NoError(testInstance, renderError)
	require.Equal(testInstance, testEraseToEndConstant+indicatorLine(testJobNameConstant, 0), frame)
	require.ErrorIs(testInstance, handle.SetProgress(10), progress.ErrIndicatorFinished)
}

func TestHandleNestedAccessFailsInsteadOfBlocking(testInstance *testing.T) {
	manager, _ := newTestManager()
	handle := progress.Register(manager, newRecordingIndicator(testJobNameConstant, progress.CloseMethodDefault))
	defer handle.Release()

	accessError := handle.Access(func(*recordingIndicator) error {
		return handle.SetProgress(5)
	})
	require.ErrorIs(testInstance, accessError, progress.ErrAlreadyBorrowed)
}

func TestHandleReleaseOfLastCloneFinishesIndicator(testInstance *testing.T) {
	manager, _ := newTestManager()
	indicator := newRecordingIndicator(testJobNameConstant, progress.CloseMethodClear)
	handle := progress.Register(manager, indicator)
	clone := handle.Clone()

	handle.Release()
	handle.Release()
	require.False(testInstance, indicator.finished)
	require.ErrorIs(testInstance, handle.SetProgress(1), progress.ErrHandleReleased)

	clone.Release()
	require.True(testInstance, indicator.finished)
	require.Equal(testInstance, 1, indicator.doneCalls)

	frame, renderError := manager.Render()
	require.NoError(testInstance, renderError)
	require.Equal(testInstance, testEraseToEndConstant, frame)
	require.Equal(testInstance, 0, manager.Len())
}

func TestHandleCloneOfReleasedHandleIsReleased(testInstance *testing.T) {
	manager, _ := newTestManager()
	handle := progress.Register(manager, newRecordingIndicator(testJobNameConstant, progress.CloseMethodDefault))
	handle.Release()

	clone := handle.Clone()
	_, doneError := clone.IsDone()
	require.ErrorIs(testInstance, doneError, progress.ErrHandleReleased)
	clone.Release()

	var missing *progress.Handle[*recordingIndicator]
	require.ErrorIs(testInstance, missing.Done(), progress.ErrHandleReleased)
	missing.Release()
}

func TestHandleUnreachableIsReleasedByCollector(testInstance *testing.T) {
	manager, _ := newTestManager()
	registerAndForget(manager)
	require.Equal(testInstance, 1, manager.Len())

	require.Eventually(testInstance, func() bool {
		runtime.GC()
		_, renderError := manager.Render()
		return renderError == nil && manager.Len() == 0
	}, testCleanupWaitLimit, testCleanupPollPeriod)
}

func registerAndForget(manager *progress.Manager) {
	handle := progress.Register(manager, newRecordingIndicator(testJobNameConstant, progress.CloseMethodClear))
	_ = handle.SetProgress(3)
}
