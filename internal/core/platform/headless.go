package platform

import (
	"sync"
)

const headlessQueue = 64

var (
	_ Window = (*Headless)(nil)
	_ Acker  = (*Headless)(nil)
)

// Headless is a Window without a display. Tests and the CLI feed it events
// with Push; WithFrameLimit turns it into a fixed-length run.
type Headless struct {
	mu      sync.Mutex
	events  chan Event
	width   uint32
	height  uint32
	pending bool
	closed  bool

	frames     int
	frameLimit int
}

type HeadlessOption func(*Headless)

// WithFrameLimit emits CloseRequested instead of the redraw that would
// exceed n delivered frames. Zero means no limit.
func WithFrameLimit(n int) HeadlessOption {
	return func(h *Headless) {
		h.frameLimit = n
	}
}

// NewHeadless opens a window of the given size. Its first event is Resized.
func NewHeadless(width, height uint32, opts ...HeadlessOption) *Headless {
	h := &Headless{
		events: make(chan Event, headlessQueue),
		width:  width,
		height: height,
	}
	for _, opt := range opts {
		opt(h)
	}
	h.events <- Resized{Width: width, Height: height}
	return h
}

func (h *Headless) Events() <-chan Event {
	return h.events
}

// Push queues e. Resized updates the reported size right away.
func (h *Headless) Push(e Event) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return ErrClosed
	}
	if r, ok := e.(Resized); ok {
		h.width, h.height = r.Width, r.Height
	}
	h.send(e)
	return nil
}

func (h *Headless) RequestRedraw() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed || h.pending {
		return
	}
	if h.frameLimit > 0 && h.frames >= h.frameLimit {
		h.pending = h.send(CloseRequested{})
		return
	}
	if h.send(RedrawRequested{}) {
		h.frames++
		h.pending = true
	}
}

// Delivered tells the window a RedrawRequested was consumed so the next
// request is not merged into it.
func (h *Headless) Delivered(e Event) {
	if _, ok := e.(RedrawRequested); !ok {
		return
	}
	h.mu.Lock()
	h.pending = false
	h.mu.Unlock()
}

// Frames is the number of redraws handed out so far.
func (h *Headless) Frames() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.frames
}

func (h *Headless) Size() (uint32, uint32) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.width, h.height
}

func (h *Headless) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return nil
	}
	h.closed = true
	close(h.events)
	return nil
}

// send drops the event when the queue is full rather than blocking the
// loop that would drain it, and reports whether it was queued.
func (h *Headless) send(e Event) bool {
	select {
	case h.events <- e:
		return true
	default:
		return false
	}
}
