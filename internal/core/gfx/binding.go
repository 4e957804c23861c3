package gfx

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"reflect"

	"github.com/gogpu/gputypes"

	"github.com/zeusync/miau/pkg/generic"
)

// staging holds the scratch buffers uniform values are encoded into. Queue
// writes copy their input, so a buffer is reusable once the write returns.
var staging = generic.NewPool(
	func() *bytes.Buffer { return new(bytes.Buffer) },
	generic.WithReset(func(b *bytes.Buffer) { b.Reset() }),
)

// Binding mirrors a uniform value of type T on the CPU and on the GPU. The
// GPU copy is one Update away from the CPU copy: Set and Mutate only mark
// the binding dirty, Update uploads when dirty.
type Binding[T any] struct {
	data   T
	dirty  bool
	size   uint64
	buffer Buffer
	group  BindGroup
}

// NewBinding creates the uniform buffer initialized with data and a bind
// group exposing it at binding 0 of layout. T must have a fixed size.
func NewBinding[T any](device Device, layout BindGroupLayout, label string, data T) (*Binding[T], error) {
	n := binary.Size(data)
	if n <= 0 {
		return nil, fmt.Errorf("%w: %s", ErrNotFixedSize, reflect.TypeFor[T]())
	}
	b := &Binding[T]{data: data, size: alignUniform(uint64(n))}

	err := b.encode(func(contents []byte) (err error) {
		b.buffer, err = device.CreateBuffer(&BufferDescriptor{
			Label:    label,
			Size:     b.size,
			Usage:    gputypes.BufferUsageUniform | gputypes.BufferUsageCopyDst,
			Contents: contents,
		})
		if err != nil {
			return fmt.Errorf("create %s buffer: %w", label, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	b.group, err = device.CreateBindGroup(&BindGroupDescriptor{
		Label:   label,
		Layout:  layout,
		Entries: []BindGroupEntry{{Binding: 0, Buffer: b.buffer}},
	})
	if err != nil {
		b.buffer.Destroy()
		return nil, fmt.Errorf("create %s bind group: %w", label, err)
	}
	return b, nil
}

// Data returns the CPU-side value.
func (b *Binding[T]) Data() T {
	return b.data
}

func (b *Binding[T]) Set(v T) {
	b.data = v
	b.dirty = true
}

func (b *Binding[T]) Mutate(fn func(v *T)) {
	fn(&b.data)
	b.dirty = true
}

func (b *Binding[T]) Dirty() bool {
	return b.dirty
}

// Update uploads the CPU-side value when it changed since the last upload
// and reports whether it did.
func (b *Binding[T]) Update(q Queue) (bool, error) {
	if !b.dirty {
		return false, nil
	}
	err := b.encode(func(data []byte) error {
		if err := q.WriteBuffer(b.buffer, 0, data); err != nil {
			return fmt.Errorf("upload binding: %w", err)
		}
		return nil
	})
	if err != nil {
		return false, err
	}
	b.dirty = false
	return true, nil
}

// Bind sets the bind group at index. Callers update first.
func (b *Binding[T]) Bind(pass RenderPass, index uint32) {
	pass.SetBindGroup(index, b.group)
}

func (b *Binding[T]) Buffer() Buffer {
	return b.buffer
}

func (b *Binding[T]) Group() BindGroup {
	return b.group
}

func (b *Binding[T]) Destroy() {
	b.group.Destroy()
	b.buffer.Destroy()
}

// encode lays the value out little-endian, zero-padded to the buffer size,
// and hands the bytes to use. They are only valid during the call.
func (b *Binding[T]) encode(use func(data []byte) error) error {
	buf := staging.Get()
	defer staging.Put(buf)

	buf.Grow(int(b.size))
	if err := binary.Write(buf, binary.LittleEndian, b.data); err != nil {
		return fmt.Errorf("encode %s: %w", reflect.TypeFor[T](), err)
	}
	for uint64(buf.Len()) < b.size {
		buf.WriteByte(0)
	}
	return use(buf.Bytes())
}

// alignUniform rounds n up to the 16 byte alignment of uniform blocks.
func alignUniform(n uint64) uint64 {
	return (n + 15) &^ 15
}
