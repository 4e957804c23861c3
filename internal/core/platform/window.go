package platform

import "errors"

var ErrClosed = errors.New("window closed")

// Window is the event source driving the engine loop. Events is closed once
// the window is gone; receivers must treat that like CloseRequested.
type Window interface {
	Events() <-chan Event
	// RequestRedraw schedules a RedrawRequested. Requests made while one is
	// still pending are merged.
	RequestRedraw()
	Size() (width, height uint32)
	Close() error
}

// Acker is implemented by windows that want to know when the loop consumed
// an event, e.g. to stop merging redraw requests into it.
type Acker interface {
	Delivered(e Event)
}
