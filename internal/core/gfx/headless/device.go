package headless

import (
	"fmt"

	"github.com/gogpu/gputypes"

	"github.com/zeusync/miau/internal/core/gfx"
)

// Stats counts what the device was asked to do.
type Stats struct {
	Buffers       int
	Textures      int
	BufferWrites  int
	TextureWrites int
	Submits       int
	Presents      int
	Passes        int
	Draws         int
	Configures    int
}

// GPU is a recording device, queue and surface in one.
type GPU struct {
	stats     Stats
	config    *gfx.SurfaceConfiguration
	current   *SurfaceTexture
	submitted []*CommandBuffer

	// FailAcquire, when set, is returned by the next surface acquire.
	FailAcquire error
	// FailBuffers, when set, is returned by the next CreateBuffer.
	FailBuffers error
}

func New() *GPU {
	return &GPU{}
}

// Backend exposes g as every part of the gfx backend.
func (g *GPU) Backend() gfx.Backend {
	return gfx.Backend{Device: g, Queue: g, Surface: g}
}

func (g *GPU) Stats() Stats {
	return g.stats
}

// Config is the last surface configuration, or nil.
func (g *GPU) Config() *gfx.SurfaceConfiguration {
	return g.config
}

// Submitted returns every command buffer submitted so far.
func (g *GPU) Submitted() []*CommandBuffer {
	return g.submitted
}

func (g *GPU) CreateBuffer(desc *gfx.BufferDescriptor) (gfx.Buffer, error) {
	if err := g.FailBuffers; err != nil {
		g.FailBuffers = nil
		return nil, fmt.Errorf("create buffer %s: %w", desc.Label, err)
	}
	size := desc.Size
	if size < uint64(len(desc.Contents)) {
		return nil, fmt.Errorf("create buffer %s: contents larger than size: %w", desc.Label, ErrOutOfBounds)
	}
	b := &Buffer{object: newObject(desc.Label), Usage: desc.Usage, Data: make([]byte, size)}
	copy(b.Data, desc.Contents)
	g.stats.Buffers++
	return b, nil
}

func (g *GPU) CreateTexture(desc *gfx.TextureDescriptor) (gfx.GPUTexture, error) {
	if desc.Size.Width == 0 || desc.Size.Height == 0 {
		return nil, fmt.Errorf("create texture %s: %w", desc.Label, gfx.ErrInvalidSize)
	}
	g.stats.Textures++
	return &Texture{
		object: newObject(desc.Label),
		size:   desc.Size,
		format: desc.Format,
		Usage:  desc.Usage,
	}, nil
}

func (g *GPU) CreateSampler(desc *gfx.SamplerDescriptor) (gfx.Sampler, error) {
	return &Sampler{object: newObject(desc.Label)}, nil
}

func (g *GPU) CreateBindGroupLayout(desc *gfx.BindGroupLayoutDescriptor) (gfx.BindGroupLayout, error) {
	return &BindGroupLayout{object: newObject(desc.Label), Entries: desc.Entries}, nil
}

func (g *GPU) CreateBindGroup(desc *gfx.BindGroupDescriptor) (gfx.BindGroup, error) {
	if desc.Layout == nil {
		return nil, fmt.Errorf("create bind group %s: no layout", desc.Label)
	}
	return &BindGroup{object: newObject(desc.Label), Layout: desc.Layout, Entries: desc.Entries}, nil
}

func (g *GPU) CreatePipelineLayout(desc *gfx.PipelineLayoutDescriptor) (gfx.PipelineLayout, error) {
	return &PipelineLayout{object: newObject(desc.Label)}, nil
}

func (g *GPU) CreateShaderModule(desc *gfx.ShaderModuleDescriptor) (gfx.ShaderModule, error) {
	if !gfx.IsSPIRV(desc.SPIRV) {
		return nil, fmt.Errorf("create shader %s: %w", desc.Label, gfx.ErrInvalidShader)
	}
	return &ShaderModule{object: newObject(desc.Label), SPIRV: desc.SPIRV}, nil
}

func (g *GPU) CreateRenderPipeline(desc *gfx.RenderPipelineDescriptor) (gfx.RenderPipeline, error) {
	if desc.Module == nil {
		return nil, fmt.Errorf("create pipeline %s: no shader module", desc.Label)
	}
	return &RenderPipeline{object: newObject(desc.Label), Desc: *desc}, nil
}

func (g *GPU) CreateCommandEncoder(label string) (gfx.CommandEncoder, error) {
	return &CommandEncoder{gpu: g, buf: &CommandBuffer{Label: label}}, nil
}

func (g *GPU) WriteBuffer(buf gfx.Buffer, offset uint64, data []byte) error {
	b, ok := buf.(*Buffer)
	if !ok {
		return fmt.Errorf("write buffer: foreign buffer %T", buf)
	}
	if b.destroyed {
		return fmt.Errorf("write buffer %s: %w", b.label, ErrDestroyed)
	}
	if offset+uint64(len(data)) > uint64(len(b.Data)) {
		return fmt.Errorf("write buffer %s: %w", b.label, ErrOutOfBounds)
	}
	copy(b.Data[offset:], data)
	g.stats.BufferWrites++
	return nil
}

func (g *GPU) WriteTexture(tex gfx.GPUTexture, data []byte, bytesPerRow uint32) error {
	t, ok := tex.(*Texture)
	if !ok {
		return fmt.Errorf("write texture: foreign texture %T", tex)
	}
	if want := int(bytesPerRow * t.size.Height); len(data) < want {
		return fmt.Errorf("write texture %s: %w", t.label, ErrOutOfBounds)
	}
	t.Pixels = append(t.Pixels[:0], data...)
	g.stats.TextureWrites++
	return nil
}

func (g *GPU) Submit(cmds ...gfx.CommandBuffer) error {
	for _, c := range cmds {
		cb, ok := c.(*CommandBuffer)
		if !ok {
			return fmt.Errorf("submit: foreign command buffer %T", c)
		}
		g.submitted = append(g.submitted, cb)
	}
	g.stats.Submits++
	return nil
}

func (g *GPU) Configure(cfg *gfx.SurfaceConfiguration) error {
	if cfg.Width == 0 || cfg.Height == 0 {
		return fmt.Errorf("configure surface: %w", gfx.ErrInvalidSize)
	}
	c := *cfg
	g.config = &c
	g.stats.Configures++
	return nil
}

func (g *GPU) Acquire() (gfx.SurfaceTexture, error) {
	if err := g.FailAcquire; err != nil {
		g.FailAcquire = nil
		return nil, err
	}
	if g.config == nil {
		return nil, ErrNoSurface
	}
	if g.current != nil {
		return nil, ErrUnpresented
	}
	tex := &Texture{
		object: newObject("surface"),
		size:   gputypes.Extent3D{Width: g.config.Width, Height: g.config.Height, DepthOrArrayLayers: 1},
		format: g.config.Format,
		Usage:  g.config.Usage,
	}
	view, _ := tex.CreateView()
	g.current = &SurfaceTexture{gpu: g, tex: tex, view: view}
	return g.current, nil
}

type SurfaceTexture struct {
	gpu       *GPU
	tex       *Texture
	view      gfx.TextureView
	presented bool
}

func (s *SurfaceTexture) Texture() gfx.GPUTexture { return s.tex }
func (s *SurfaceTexture) View() gfx.TextureView   { return s.view }

func (s *SurfaceTexture) Present() error {
	if s.presented {
		return fmt.Errorf("present: %w", ErrDestroyed)
	}
	s.presented = true
	s.gpu.current = nil
	s.gpu.stats.Presents++
	return nil
}
