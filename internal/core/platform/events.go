package platform

import "fmt"

// Event is anything a Window delivers. Every event also satisfies bus.Event.
type Event interface {
	Type() string
}

const (
	TypeResized         = "window.resized"
	TypeCloseRequested  = "window.close_requested"
	TypeRedrawRequested = "window.redraw_requested"
	TypeKeyInput        = "input.key"
	TypeCursorMoved     = "input.cursor_moved"
)

type Resized struct {
	Width, Height uint32
}

func (Resized) Type() string { return TypeResized }

func (r Resized) String() string { return fmt.Sprintf("resized(%dx%d)", r.Width, r.Height) }

type CloseRequested struct{}

func (CloseRequested) Type() string { return TypeCloseRequested }

type RedrawRequested struct{}

func (RedrawRequested) Type() string { return TypeRedrawRequested }

type KeyState uint8

const (
	Released KeyState = iota
	Pressed
)

func (s KeyState) String() string {
	if s == Pressed {
		return "pressed"
	}
	return "released"
}

// KeyInput reports a logical key name, e.g. "Escape" or "w".
type KeyInput struct {
	Key   string
	State KeyState
}

func (KeyInput) Type() string { return TypeKeyInput }

type CursorMoved struct {
	X, Y float64
}

func (CursorMoved) Type() string { return TypeCursorMoved }
