package gfx

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"github.com/gogpu/gputypes"
)

// Mesh is an indexed triangle list resident on the GPU.
type Mesh struct {
	vertices Buffer
	indices  Buffer
	count    uint32
}

func NewMesh(device Device, vertices []Vertex, indices []uint32) (*Mesh, error) {
	if len(indices) == 0 {
		return nil, ErrEmptyMesh
	}
	var vb bytes.Buffer
	if err := binary.Write(&vb, binary.LittleEndian, vertices); err != nil {
		return nil, fmt.Errorf("encode vertices: %w", err)
	}
	var ib bytes.Buffer
	if err := binary.Write(&ib, binary.LittleEndian, indices); err != nil {
		return nil, fmt.Errorf("encode indices: %w", err)
	}

	vbuf, err := device.CreateBuffer(&BufferDescriptor{
		Label:    "mesh_vertices",
		Size:     uint64(vb.Len()),
		Usage:    gputypes.BufferUsageVertex,
		Contents: vb.Bytes(),
	})
	if err != nil {
		return nil, fmt.Errorf("create vertex buffer: %w", err)
	}
	ibuf, err := device.CreateBuffer(&BufferDescriptor{
		Label:    "mesh_indices",
		Size:     uint64(ib.Len()),
		Usage:    gputypes.BufferUsageIndex,
		Contents: ib.Bytes(),
	})
	if err != nil {
		vbuf.Destroy()
		return nil, fmt.Errorf("create index buffer: %w", err)
	}
	return &Mesh{vertices: vbuf, indices: ibuf, count: uint32(len(indices))}, nil
}

// LoadMesh decodes an OBJ blob into a GPU mesh.
func LoadMesh(device Device, data []byte) (*Mesh, error) {
	vertices, indices, err := ParseOBJ(data)
	if err != nil {
		return nil, err
	}
	return NewMesh(device, vertices, indices)
}

// IndexCount is the number of indices drawn per instance.
func (m *Mesh) IndexCount() uint32 {
	return m.count
}

// Draw records an indexed draw of the whole mesh.
func (m *Mesh) Draw(pass RenderPass, instances uint32) {
	pass.SetVertexBuffer(0, m.vertices)
	pass.SetIndexBuffer(m.indices)
	pass.DrawIndexed(m.count, instances)
}

func (m *Mesh) Destroy() {
	m.vertices.Destroy()
	m.indices.Destroy()
}
