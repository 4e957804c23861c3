package gfx

import "github.com/gogpu/gputypes"

// The interfaces below are the slice of a WebGPU-style device the engine
// needs. A native backend adapts its device to them; package headless
// provides a recording implementation.

// Resource is any GPU object owned by the caller.
type Resource interface {
	Destroy()
}

type Buffer interface {
	Resource
	Size() uint64
}

type GPUTexture interface {
	Resource
	Size() gputypes.Extent3D
	Format() gputypes.TextureFormat
	CreateView() (TextureView, error)
}

type (
	TextureView     interface{ Resource }
	Sampler         interface{ Resource }
	BindGroupLayout interface{ Resource }
	BindGroup       interface{ Resource }
	PipelineLayout  interface{ Resource }
	ShaderModule    interface{ Resource }
	RenderPipeline  interface{ Resource }
	CommandBuffer   interface{}
)

type Device interface {
	CreateBuffer(desc *BufferDescriptor) (Buffer, error)
	CreateTexture(desc *TextureDescriptor) (GPUTexture, error)
	CreateSampler(desc *SamplerDescriptor) (Sampler, error)
	CreateBindGroupLayout(desc *BindGroupLayoutDescriptor) (BindGroupLayout, error)
	CreateBindGroup(desc *BindGroupDescriptor) (BindGroup, error)
	CreatePipelineLayout(desc *PipelineLayoutDescriptor) (PipelineLayout, error)
	CreateShaderModule(desc *ShaderModuleDescriptor) (ShaderModule, error)
	CreateRenderPipeline(desc *RenderPipelineDescriptor) (RenderPipeline, error)
	CreateCommandEncoder(label string) (CommandEncoder, error)
}

type Queue interface {
	WriteBuffer(buf Buffer, offset uint64, data []byte) error
	WriteTexture(tex GPUTexture, data []byte, bytesPerRow uint32) error
	Submit(cmds ...CommandBuffer) error
}

// Surface is the presentable side of a window.
type Surface interface {
	Configure(cfg *SurfaceConfiguration) error
	Acquire() (SurfaceTexture, error)
}

// SurfaceTexture is the image a single frame renders into.
type SurfaceTexture interface {
	Texture() GPUTexture
	View() TextureView
	Present() error
}

// CommandEncoder records passes for one submission.
type CommandEncoder interface {
	BeginRenderPass(desc *RenderPassDescriptor) (RenderPass, error)
	Finish() (CommandBuffer, error)
}

// RenderPass records draw commands. Indices are always uint32.
type RenderPass interface {
	SetPipeline(p RenderPipeline)
	SetBindGroup(index uint32, group BindGroup)
	SetVertexBuffer(slot uint32, buf Buffer)
	SetIndexBuffer(buf Buffer)
	DrawIndexed(indexCount, instanceCount uint32)
	End() error
}

// Backend bundles what the renderer needs from the GPU layer.
type Backend struct {
	Device  Device
	Queue   Queue
	Surface Surface
}

type BufferDescriptor struct {
	Label string
	Size  uint64
	Usage gputypes.BufferUsage
	// Contents, when set, initializes the buffer.
	Contents []byte
}

type TextureDescriptor struct {
	Label       string
	Size        gputypes.Extent3D
	SampleCount uint32
	Format      gputypes.TextureFormat
	Usage       gputypes.TextureUsage
}

type SamplerDescriptor struct {
	Label       string
	AddressMode gputypes.AddressMode
	Filter      gputypes.FilterMode
}

type BindGroupLayoutDescriptor struct {
	Label   string
	Entries []gputypes.BindGroupLayoutEntry
}

// BindGroupEntry binds exactly one of Buffer, View or Sampler.
type BindGroupEntry struct {
	Binding uint32
	Buffer  Buffer
	View    TextureView
	Sampler Sampler
}

type BindGroupDescriptor struct {
	Label   string
	Layout  BindGroupLayout
	Entries []BindGroupEntry
}

type PipelineLayoutDescriptor struct {
	Label            string
	BindGroupLayouts []BindGroupLayout
}

// ShaderModuleDescriptor carries SPIR-V words as little-endian bytes.
type ShaderModuleDescriptor struct {
	Label string
	SPIRV []byte
}

type RenderPipelineDescriptor struct {
	Label         string
	Layout        PipelineLayout
	Module        ShaderModule
	VertexEntry   string
	FragmentEntry string
	Buffers       []gputypes.VertexBufferLayout
	ColorFormat   gputypes.TextureFormat
	DepthFormat   gputypes.TextureFormat
	SampleCount   uint32
}

type SurfaceConfiguration struct {
	Format gputypes.TextureFormat
	Usage  gputypes.TextureUsage
	Width  uint32
	Height uint32
}

type ColorAttachment struct {
	View          TextureView
	ResolveTarget TextureView
	Load          gputypes.LoadOp
	Store         gputypes.StoreOp
	Clear         gputypes.Color
}

type DepthAttachment struct {
	View  TextureView
	Load  gputypes.LoadOp
	Store gputypes.StoreOp
	Clear float32
}

type RenderPassDescriptor struct {
	Label string
	Color []ColorAttachment
	Depth *DepthAttachment
}
