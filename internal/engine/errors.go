package engine

import "errors"

var (
	ErrRunning = errors.New("engine already running")
	ErrPanic   = errors.New("panic in engine loop")
)
