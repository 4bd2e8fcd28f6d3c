package progress_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"github.com/temirov/stati/internal/progress"
)

const (
	testWorkerCountConstant  = 8
	testWorkerStepsConstant  = 50
	testCanceledWaitConstant = 10 * time.Millisecond
)

func TestThreadHandleSerializesConcurrentUpdates(testInstance *testing.T) {
	manager, _ := newTestManager()
	indicator := newRecordingIndicator(testWorkerNameConstant, progress.CloseMethodDefault)
	handle := progress.RegisterThreadSafe(manager, indicator)
	defer handle.Release()

	var workers errgroup.Group
	for workerIndex := 0; workerIndex < testWorkerCountConstant; workerIndex++ {
		workerHandle := handle.Clone()
		workers.Go(func() error {
			defer workerHandle.Release()
			for stepIndex := 0; stepIndex < testWorkerStepsConstant; stepIndex++ {
				accessError := workerHandle.Access(context.Background(), func(locked *recordingIndicator) error {
					locked.progress++
					return nil
				})
				if accessError != nil {
					return accessError
				}
			}
			return nil
		})
		_, renderError := manager.Render()
		require.NoError(testInstance, renderError)
	}
	require.NoError(testInstance, workers.Wait())

	finished, doneError := handle.IsDone()
	require.NoError(testInstance, doneError)
	require.False(testInstance, finished)

	frame, renderError := manager.Render()
	require.NoError(testInstance, renderError)
	require.Contains(testInstance, frame, indicatorLine(testWorkerNameConstant, testWorkerCountConstant*testWorkerStepsConstant))
}

func TestThreadHandleGuardGrantsExclusiveAccess(testInstance *testing.T) {
	manager, _ := newTestManager()
	handle := progress.RegisterThreadSafe(manager, newRecordingIndicator(testWorkerNameConstant, progress.CloseMethodDefault))
	defer handle.Release()

	guard, lockError := handle.Lock(context.Background())
	require.NoError(testInstance, lockError)
	guard.Indicator().SetProgress(64)

	canceledContext, cancel := context.WithTimeout(context.Background(), testCanceledWaitConstant)
	defer cancel()
	accessError := handle.Access(canceledContext, func(*recordingIndicator) error {
		return nil
	})
	require.ErrorIs(testInstance, accessError, context.DeadlineExceeded)

	guard.Unlock()
	guard.Unlock()

	require.NoError(testInstance, handle.SetName(testRenamedConstant))
	frame, renderError := manager.Render()
	require.NoError(testInstance, renderError)
	require.Equal(testInstance, testEraseToEndConstant+indicatorLine(testRenamedConstant, 64), frame)
}

func TestThreadHandleReleaseFinishesIndicator(testInstance *testing.T) {
	manager, _ := newTestManager()
	handle := progress.RegisterThreadSafe(manager, newRecordingIndicator(testWorkerNameConstant, progress.CloseMethodLeaveBehind))
	require.NoError(testInstance, handle.SetProgress(100))
	clone := handle.Clone()

	handle.Release()
	_, renderError := manager.Render()
	require.NoError(testInstance, renderError)
	require.Equal(testInstance, 1, manager.Len())

	clone.Release()
	frame, renderError := manager.Render()
	require.NoError(testInstance, renderError)
	require.Equal(testInstance, testCursorUpOneLineConstant+testEraseToEndConstant+indicatorLine(testWorkerNameConstant, 100), frame)
	require.Equal(testInstance, 0, manager.Len())

	_, lockError := clone.Lock(context.Background())
	require.ErrorIs(testInstance, lockError, progress.ErrHandleReleased)
}

func TestThreadHandleMutatorsRejectFinishedIndicator(testInstance *testing.T) {
	manager, _ := newTestManager()
	handle := progress.RegisterThreadSafe(manager, &minimalIndicator{})
	defer handle.Release()

	require.ErrorIs(testInstance, handle.SetSubtask(testSubtaskConstant), progress.ErrUnsupported)
	require.NoError(testInstance, handle.Done())
	require.NoError(testInstance, handle.Done())
	require.ErrorIs(testInstance, handle.SetSizeHint(3), progress.ErrIndicatorFinished)
}
