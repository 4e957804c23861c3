package gfx

import (
	"fmt"

	"github.com/gogpu/gputypes"

	"github.com/zeusync/miau/internal/core/ecs"
	"github.com/zeusync/miau/internal/core/observability/log"
	"github.com/zeusync/miau/pkg/math3d"
)

// Layouts are the bind group layouts shared by the built-in pipelines.
type Layouts struct {
	Texture BindGroupLayout
	Scene   BindGroupLayout
	Object  BindGroupLayout
}

type targets struct {
	color     GPUTexture
	colorView TextureView
	depth     GPUTexture
	depthView TextureView
}

func (t *targets) destroy() {
	t.colorView.Destroy()
	t.color.Destroy()
	t.depthView.Destroy()
	t.depth.Destroy()
}

// Renderer owns the device, the surface and the multisampled render targets.
// It is stored in the world as a *Renderer resource.
type Renderer struct {
	device  Device
	queue   Queue
	surface Surface
	log     log.Log

	width, height uint32
	targets       *targets
	layouts       Layouts
	scene         *Binding[SceneConst]

	inFlight bool
	frames   uint64
}

type Option func(*Renderer)

func WithLogger(l log.Log) Option {
	return func(r *Renderer) {
		if l != nil {
			r.log = l
		}
	}
}

func NewRenderer(b Backend, width, height uint32, opts ...Option) (*Renderer, error) {
	if width == 0 || height == 0 {
		return nil, fmt.Errorf("%w: %dx%d", ErrInvalidSize, width, height)
	}
	r := &Renderer{
		device:  b.Device,
		queue:   b.Queue,
		surface: b.Surface,
		log:     log.Nop(),
	}
	for _, opt := range opts {
		opt(r)
	}

	if err := r.createLayouts(); err != nil {
		return nil, err
	}
	if err := r.configure(width, height); err != nil {
		return nil, err
	}

	scene, err := NewBinding(r.device, r.layouts.Scene, "scene", SceneConst{
		Cam:  math3d.Identity,
		Size: [2]float32{float32(width), float32(height)},
	})
	if err != nil {
		return nil, err
	}
	r.scene = scene

	r.log.Info("renderer ready",
		log.Uint32("width", width),
		log.Uint32("height", height),
		log.Stringer("format", ColorFormat),
	)
	return r, nil
}

func (r *Renderer) createLayouts() error {
	var err error
	r.layouts.Texture, err = r.device.CreateBindGroupLayout(&BindGroupLayoutDescriptor{
		Label: "texture_layout",
		Entries: []gputypes.BindGroupLayoutEntry{
			{
				Binding:    0,
				Visibility: gputypes.ShaderStageFragment,
				Texture: &gputypes.TextureBindingLayout{
					SampleType:    gputypes.TextureSampleTypeFloat,
					ViewDimension: gputypes.TextureViewDimension2D,
				},
			},
			{
				Binding:    1,
				Visibility: gputypes.ShaderStageFragment,
				Sampler:    &gputypes.SamplerBindingLayout{Type: gputypes.SamplerBindingTypeFiltering},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("create texture layout: %w", err)
	}

	uniform := func(label string) (BindGroupLayout, error) {
		return r.device.CreateBindGroupLayout(&BindGroupLayoutDescriptor{
			Label: label,
			Entries: []gputypes.BindGroupLayoutEntry{{
				Binding:    0,
				Visibility: gputypes.ShaderStageVertex | gputypes.ShaderStageFragment,
				Buffer:     &gputypes.BufferBindingLayout{Type: gputypes.BufferBindingTypeUniform},
			}},
		})
	}
	if r.layouts.Scene, err = uniform("scene_layout"); err != nil {
		return fmt.Errorf("create scene layout: %w", err)
	}
	if r.layouts.Object, err = uniform("object_layout"); err != nil {
		return fmt.Errorf("create object layout: %w", err)
	}
	return nil
}

// configure sets the surface size and recreates the render targets.
func (r *Renderer) configure(width, height uint32) error {
	err := r.surface.Configure(&SurfaceConfiguration{
		Format: ColorFormat,
		Usage:  gputypes.TextureUsageRenderAttachment,
		Width:  width,
		Height: height,
	})
	if err != nil {
		return fmt.Errorf("configure surface: %w", err)
	}

	t, err := r.createTargets(width, height)
	if err != nil {
		return err
	}
	if r.targets != nil {
		r.targets.destroy()
	}
	r.targets = t
	r.width, r.height = width, height
	return nil
}

func (r *Renderer) createTargets(width, height uint32) (*targets, error) {
	size := gputypes.Extent3D{Width: width, Height: height, DepthOrArrayLayers: 1}

	color, err := r.device.CreateTexture(&TextureDescriptor{
		Label:       "msaa_color",
		Size:        size,
		SampleCount: SampleCount,
		Format:      ColorFormat,
		Usage:       gputypes.TextureUsageRenderAttachment,
	})
	if err != nil {
		return nil, fmt.Errorf("create color target: %w", err)
	}
	depth, err := r.device.CreateTexture(&TextureDescriptor{
		Label:       "depth",
		Size:        size,
		SampleCount: SampleCount,
		Format:      DepthFormat,
		Usage:       gputypes.TextureUsageRenderAttachment,
	})
	if err != nil {
		color.Destroy()
		return nil, fmt.Errorf("create depth target: %w", err)
	}

	t := &targets{color: color, depth: depth}
	if t.colorView, err = color.CreateView(); err != nil {
		return nil, fmt.Errorf("create color view: %w", err)
	}
	if t.depthView, err = depth.CreateView(); err != nil {
		return nil, fmt.Errorf("create depth view: %w", err)
	}
	return t, nil
}

// Resize reconfigures the surface. A zero dimension, as reported for
// minimized windows, is ignored.
func (r *Renderer) Resize(width, height uint32) error {
	if width == 0 || height == 0 {
		return nil
	}
	if width == r.width && height == r.height {
		return nil
	}
	if err := r.configure(width, height); err != nil {
		return err
	}
	r.scene.Mutate(func(s *SceneConst) {
		s.Size = [2]float32{float32(width), float32(height)}
	})
	r.log.Debug("surface resized", log.Uint32("width", width), log.Uint32("height", height))
	return nil
}

// Frame runs one redraw: it opens a Frame, publishes it as a *Frame resource,
// runs the PRE_DRAW, DRAW and POST_DRAW stages, takes the Frame back, submits
// the recorded commands and presents the surface image.
func (r *Renderer) Frame(w *ecs.World) error {
	if r.inFlight || ecs.HasResource[*Frame](w) {
		return ErrFrameInFlight
	}

	encoder, err := r.device.CreateCommandEncoder("frame")
	if err != nil {
		return fmt.Errorf("create command encoder: %w", err)
	}
	surface, err := r.surface.Acquire()
	if err != nil {
		// nothing was recorded; finishing closes the encoder
		_, _ = encoder.Finish()
		return fmt.Errorf("acquire surface texture: %w", err)
	}

	r.inFlight = true
	defer func() {
		r.inFlight = false
		// only left behind when a stage panicked
		ecs.TakeResource[*Frame](w)
	}()

	ecs.AddResource(w, &Frame{
		renderer: r,
		encoder:  encoder,
		surface:  surface,
		targets:  r.targets,
		width:    r.width,
		height:   r.height,
	})

	w.RunSystem(ecs.StagePreDraw)
	w.RunSystem(ecs.StageDraw)
	w.RunSystem(ecs.StagePostDraw)

	frame, ok := ecs.TakeResource[*Frame](w)
	if !ok {
		return ErrFrameTaken
	}
	cmd, err := frame.encoder.Finish()
	if err != nil {
		return fmt.Errorf("finish frame: %w", err)
	}
	if err = r.queue.Submit(cmd); err != nil {
		return fmt.Errorf("submit frame: %w", err)
	}
	if err = frame.surface.Present(); err != nil {
		return fmt.Errorf("present frame: %w", err)
	}
	r.frames++
	return nil
}

func (r *Renderer) Device() Device {
	return r.device
}

func (r *Renderer) Queue() Queue {
	return r.queue
}

func (r *Renderer) Layouts() Layouts {
	return r.layouts
}

// Scene is the per-frame uniform binding, bound at GroupScene.
func (r *Renderer) Scene() *Binding[SceneConst] {
	return r.scene
}

func (r *Renderer) Size() (width, height uint32) {
	return r.width, r.height
}

// Frames counts presented frames.
func (r *Renderer) Frames() uint64 {
	return r.frames
}

func (r *Renderer) Destroy() {
	r.scene.Destroy()
	r.targets.destroy()
	r.layouts.Texture.Destroy()
	r.layouts.Scene.Destroy()
	r.layouts.Object.Destroy()
}
