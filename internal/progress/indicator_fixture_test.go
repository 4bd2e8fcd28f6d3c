package progress_test

import (
	"fmt"

	"github.com/temirov/stati/internal/progress"
)

const (
	testIndicatorLineTemplateConstant = "%s %d%%"
)

// recordingIndicator is a Renderer that renders "<name> <progress>%" and
// records how often it was displayed.
type recordingIndicator struct {
	name         string
	progress     int
	subtask      string
	sizeHint     int
	finished     bool
	doneCalls    int
	displayCalls int
	displayError error
	closeMethod  progress.CloseMethod
}

func newRecordingIndicator(name string, closeMethod progress.CloseMethod) *recordingIndicator {
	return &recordingIndicator{name: name, closeMethod: closeMethod}
}

func (indicator *recordingIndicator) Done() {
	indicator.doneCalls++
	indicator.finished = true
}

func (indicator *recordingIndicator) IsDone() bool {
	return indicator.finished
}

func (indicator *recordingIndicator) Display() (string, error) {
	indicator.displayCalls++
	if indicator.displayError != nil {
		return "", indicator.displayError
	}
	return fmt.Sprintf(testIndicatorLineTemplateConstant, indicator.name, indicator.progress), nil
}

func (indicator *recordingIndicator) CloseMethod() progress.CloseMethod {
	return indicator.closeMethod
}

func (indicator *recordingIndicator) SetProgress(value int) {
	indicator.progress = value
}

func (indicator *recordingIndicator) SetName(name string) {
	indicator.name = name
}

func (indicator *recordingIndicator) SetSubtask(subtask string) {
	indicator.subtask = subtask
}

func (indicator *recordingIndicator) SetSizeHint(hint int) {
	indicator.sizeHint = hint
}

// minimalIndicator implements only the Renderer contract.
type minimalIndicator struct {
	finished bool
}

func (indicator *minimalIndicator) Done() {
	indicator.finished = true
}

func (indicator *minimalIndicator) IsDone() bool {
	return indicator.finished
}

func (indicator *minimalIndicator) Display() (string, error) {
	return "minimal", nil
}

func (indicator *minimalIndicator) CloseMethod() progress.CloseMethod {
	return progress.CloseMethodDefault
}

func indicatorLine(name string, value int) string {
	return fmt.Sprintf(testIndicatorLineTemplateConstant, name, value) + "\n"
}
