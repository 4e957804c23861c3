package headless

import (
	"fmt"
	"maps"

	"github.com/zeusync/miau/internal/core/gfx"
)

// Draw is one recorded indexed draw with the state it was issued under.
type Draw struct {
	Pipeline   gfx.RenderPipeline
	BindGroups map[uint32]gfx.BindGroup
	Vertices   gfx.Buffer
	Indices    gfx.Buffer
	IndexCount uint32
	Instances  uint32
}

// Pass is a recorded render pass.
type Pass struct {
	Desc  gfx.RenderPassDescriptor
	Draws []Draw
}

// CommandBuffer holds the passes of one finished encoder.
type CommandBuffer struct {
	Label  string
	Passes []*Pass
}

// Draws counts draws across passes.
func (c *CommandBuffer) Draws() int {
	n := 0
	for _, p := range c.Passes {
		n += len(p.Draws)
	}
	return n
}

type CommandEncoder struct {
	gpu      *GPU
	buf      *CommandBuffer
	open     *RenderPass
	finished bool
}

func (e *CommandEncoder) BeginRenderPass(desc *gfx.RenderPassDescriptor) (gfx.RenderPass, error) {
	if e.finished {
		return nil, fmt.Errorf("begin pass %s: encoder finished", desc.Label)
	}
	if e.open != nil && !e.open.ended {
		return nil, fmt.Errorf("begin pass %s: %w", desc.Label, ErrNotEnded)
	}
	p := &Pass{Desc: *desc}
	e.buf.Passes = append(e.buf.Passes, p)
	e.open = &RenderPass{gpu: e.gpu, pass: p, groups: make(map[uint32]gfx.BindGroup)}
	e.gpu.stats.Passes++
	return e.open, nil
}

func (e *CommandEncoder) Finish() (gfx.CommandBuffer, error) {
	if e.open != nil && !e.open.ended {
		return nil, fmt.Errorf("finish %s: %w", e.buf.Label, ErrNotEnded)
	}
	e.finished = true
	return e.buf, nil
}

type RenderPass struct {
	gpu      *GPU
	pass     *Pass
	pipeline gfx.RenderPipeline
	groups   map[uint32]gfx.BindGroup
	vertices gfx.Buffer
	indices  gfx.Buffer
	ended    bool
}

func (p *RenderPass) SetPipeline(pl gfx.RenderPipeline)              { p.pipeline = pl }
func (p *RenderPass) SetBindGroup(index uint32, group gfx.BindGroup) { p.groups[index] = group }
func (p *RenderPass) SetVertexBuffer(_ uint32, buf gfx.Buffer)       { p.vertices = buf }
func (p *RenderPass) SetIndexBuffer(buf gfx.Buffer)                  { p.indices = buf }

func (p *RenderPass) DrawIndexed(indexCount, instanceCount uint32) {
	p.pass.Draws = append(p.pass.Draws, Draw{
		Pipeline:   p.pipeline,
		BindGroups: maps.Clone(p.groups),
		Vertices:   p.vertices,
		Indices:    p.indices,
		IndexCount: indexCount,
		Instances:  instanceCount,
	})
	p.gpu.stats.Draws++
}

func (p *RenderPass) End() error {
	if p.ended {
		return fmt.Errorf("end pass %s: already ended", p.pass.Desc.Label)
	}
	p.ended = true
	return nil
}
