// Package headless implements the gfx GPU interfaces without a GPU. Every
// object is plain memory and every command is recorded so tests and the
// headless viewer can inspect what a frame did.
package headless

import (
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/gogpu/gputypes"

	"github.com/zeusync/miau/internal/core/gfx"
)

var (
	ErrDestroyed   = errors.New("object destroyed")
	ErrOutOfBounds = errors.New("write out of bounds")
	ErrUnpresented = errors.New("previous surface texture not presented")
	ErrNotEnded    = errors.New("render pass not ended")
	ErrNoSurface   = errors.New("surface not configured")
)

var nextID atomic.Uint64

type object struct {
	id        uint64
	label     string
	destroyed bool
}

func newObject(label string) object {
	return object{id: nextID.Add(1), label: label}
}

func (o *object) Destroy()      { o.destroyed = true }
func (o *object) ID() uint64    { return o.id }
func (o *object) Label() string { return o.label }
func (o *object) Destroyed() bool {
	return o.destroyed
}

// Buffer keeps its contents in memory.
type Buffer struct {
	object
	Usage gputypes.BufferUsage
	Data  []byte
}

func (b *Buffer) Size() uint64 { return uint64(len(b.Data)) }

type Texture struct {
	object
	size   gputypes.Extent3D
	format gputypes.TextureFormat
	Usage  gputypes.TextureUsage
	Pixels []byte
}

func (t *Texture) Size() gputypes.Extent3D        { return t.size }
func (t *Texture) Format() gputypes.TextureFormat { return t.format }

func (t *Texture) CreateView() (gfx.TextureView, error) {
	if t.destroyed {
		return nil, fmt.Errorf("view of %s: %w", t.label, ErrDestroyed)
	}
	return &TextureView{object: newObject(t.label + "_view"), Texture: t}, nil
}

type TextureView struct {
	object
	Texture *Texture
}

type Sampler struct{ object }

type BindGroupLayout struct {
	object
	Entries []gputypes.BindGroupLayoutEntry
}

type BindGroup struct {
	object
	Layout  gfx.BindGroupLayout
	Entries []gfx.BindGroupEntry
}

type PipelineLayout struct{ object }

type ShaderModule struct {
	object
	SPIRV []byte
}

type RenderPipeline struct {
	object
	Desc gfx.RenderPipelineDescriptor
}
