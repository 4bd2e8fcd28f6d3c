package bars_test

import (
	"time"

	"github.com/temirov/stati/internal/bars"
	"github.com/temirov/stati/internal/terminal"
)

type steppingClock struct {
	current time.Time
}

func (clock *steppingClock) Now() time.Time {
	return clock.current
}

func (clock *steppingClock) advance(duration time.Duration) {
	clock.current = clock.current.Add(duration)
}

func fixedLayout(columns int) bars.Layout {
	return bars.Layout{WidthSource: terminal.FixedWidthSource(columns)}
}
