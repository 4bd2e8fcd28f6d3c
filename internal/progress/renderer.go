package progress

// Renderer is the capability set every tracked indicator provides.
type Renderer interface {
	// Done marks the indicator finished. Calling it again has no effect.
	Done()
	// IsDone reports whether Done has been called.
	IsDone() bool
	// Display produces the current one-line representation without a
	// trailing newline. The manager calls it exactly once per tracked
	// indicator per redraw, so implementations may advance animation
	// frames or sample rates here.
	Display() (string, error)
	// CloseMethod returns the indicator's preference, or CloseMethodDefault
	// to defer to the manager.
	CloseMethod() CloseMethod
}

// ProgressSetter is implemented by indicators that accept a progress value.
type ProgressSetter interface {
	SetProgress(progress int)
}

// NameSetter is implemented by indicators with a job name.
type NameSetter interface {
	SetName(name string)
}

// SubtaskSetter is implemented by indicators that show a current subtask.
type SubtaskSetter interface {
	SetSubtask(subtask string)
}

// SizeHintSetter is implemented by indicators that accept an expected total.
type SizeHintSetter interface {
	SetSizeHint(hint int)
}

func applyProgress(indicator Renderer, progress int) error {
	setter, supported := indicator.(ProgressSetter)
	if !supported {
		return unsupportedOperation(operationSetProgressConstant)
	}
	setter.SetProgress(progress)
	return nil
}

func applyName(indicator Renderer, name string) error {
	setter, supported := indicator.(NameSetter)
	if !supported {
		return unsupportedOperation(operationSetNameConstant)
	}
	setter.SetName(name)
	return nil
}

func applySubtask(indicator Renderer, subtask string) error {
	setter, supported := indicator.(SubtaskSetter)
	if !supported {
		return unsupportedOperation(operationSetSubtaskConstant)
	}
	setter.SetSubtask(subtask)
	return nil
}

func applySizeHint(indicator Renderer, hint int) error {
	setter, supported := indicator.(SizeHintSetter)
	if !supported {
		return unsupportedOperation(operationSetSizeHintConstant)
	}
	setter.SetSizeHint(hint)
	return nil
}

// mutate runs mutation against an indicator that must still be live.
func mutate(indicator Renderer, mutation func(Renderer) error) error {
	if indicator.IsDone() {
		return ErrIndicatorFinished
	}
	return mutation(indicator)
}
