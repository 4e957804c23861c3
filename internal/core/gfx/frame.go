package gfx

import (
	"fmt"

	"github.com/gogpu/gputypes"
)

// DefaultClear is opaque black.
var DefaultClear = gputypes.Color{A: 1}

// Frame is the transient resource of one redraw. DRAW stage systems fetch it
// with ecs.MustResource[*gfx.Frame] and record passes against its single
// encoder, one system after the other.
type Frame struct {
	renderer *Renderer
	encoder  CommandEncoder
	surface  SurfaceTexture
	targets  *targets
	width    uint32
	height   uint32
	passes   int
}

func (f *Frame) Renderer() *Renderer {
	return f.renderer
}

func (f *Frame) Encoder() CommandEncoder {
	return f.encoder
}

func (f *Frame) Size() (width, height uint32) {
	return f.width, f.height
}

func (f *Frame) Aspect() float32 {
	return float32(f.width) / float32(f.height)
}

// Passes counts passes begun on this frame.
func (f *Frame) Passes() int {
	return f.passes
}

// BeginPass starts a pass on the frame targets. The first pass clears color
// and depth; later passes load what earlier passes drew.
func (f *Frame) BeginPass(label string, clear gputypes.Color) (RenderPass, error) {
	load := gputypes.LoadOpClear
	if f.passes > 0 {
		load = gputypes.LoadOpLoad
	}
	pass, err := f.encoder.BeginRenderPass(&RenderPassDescriptor{
		Label: label,
		Color: []ColorAttachment{{
			View:          f.targets.colorView,
			ResolveTarget: f.surface.View(),
			Load:          load,
			Store:         gputypes.StoreOpStore,
			Clear:         clear,
		}},
		Depth: &DepthAttachment{
			View:  f.targets.depthView,
			Load:  load,
			Store: gputypes.StoreOpStore,
			Clear: 1,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("begin pass %s: %w", label, err)
	}
	f.passes++
	return pass, nil
}
