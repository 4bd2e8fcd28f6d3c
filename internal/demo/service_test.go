package demo_test

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/temirov/stati/internal/bars"
	"github.com/temirov/stati/internal/demo"
	"github.com/temirov/stati/internal/progress"
	"github.com/temirov/stati/internal/terminal"
)

const (
	testLayoutWidthConstant    = 100
	testFinalFrameConstant     = "\x1b[Jdone!\n"
	testSpinnerClosingConstant = "almost done! 999 way there"
)

func newTestService(testInstance *testing.T, output *bytes.Buffer) (*demo.Service, *progress.Manager) {
	testInstance.Helper()
	manager := progress.NewManager(progress.WithOutput(output))
	service, serviceError := demo.NewService(manager, demo.Settings{
		Layout: bars.Layout{WidthSource: terminal.FixedWidthSource(testLayoutWidthConstant)},
	})
	require.NoError(testInstance, serviceError)
	return service, manager
}

func TestNewServiceRequiresManager(testInstance *testing.T) {
	_, serviceError := demo.NewService(nil, demo.Settings{})
	require.ErrorIs(testInstance, serviceError, demo.ErrManagerNotConfigured)
}

func TestServicePlaysEveryStage(testInstance *testing.T) {
	output := &bytes.Buffer{}
	service, manager := newTestService(testInstance, output)

	require.NoError(testInstance, service.Run(context.Background()))

	rendered := output.String()
	for _, expectedText := range []string{
		testSpinnerClosingConstant,
		"Progressed to 200 with iterator\n",
		"Progressed to 50 in the first section\n",
		"Manager tracks 2 indicators (1 drawn last frame)\n",
		"Progressed to 50 in the second section\n",
		"Progressed to 100 in the third section\n",
		"progressing from main goroutine",
		"progressing from worker goroutine",
	} {
		require.Contains(testInstance, rendered, expectedText)
	}
	require.True(testInstance, strings.HasSuffix(rendered, testFinalFrameConstant))
	require.Zero(testInstance, manager.Len())
	require.Zero(testInstance, manager.LastLines())
}

func TestServiceStopsWhenContextEnds(testInstance *testing.T) {
	output := &bytes.Buffer{}
	service, _ := newTestService(testInstance, output)

	executionContext, cancel := context.WithCancel(context.Background())
	cancel()

	require.ErrorIs(testInstance, service.Run(executionContext), context.Canceled)
	require.NotContains(testInstance, output.String(), "done!")
}
