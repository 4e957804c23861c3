package gfx

import (
	"fmt"

	"github.com/gogpu/gputypes"

	"github.com/zeusync/miau/internal/core/assets"
	"github.com/zeusync/miau/internal/core/ecs"
	"github.com/zeusync/miau/internal/core/scene"
)

// StandardPass draws every Model that has a scene.Transform with a textured,
// depth-tested pipeline. It lives in the world as a *StandardPass resource.
type StandardPass struct {
	pipeline RenderPipeline
	layout   PipelineLayout
	objects  []*Binding[ObjConst]
	clear    gputypes.Color
}

// NewStandardPass builds the pipeline from the shader at shaderPath, stores
// the pass as a resource and registers its DRAW system.
func NewStandardPass(w *ecs.World, r *Renderer, a *assets.Assets, shaderPath string) (*StandardPass, error) {
	shader, err := assets.Load[Shader](a, shaderPath)
	if err != nil {
		return nil, err
	}

	layout, err := r.device.CreatePipelineLayout(&PipelineLayoutDescriptor{
		Label:            "standard_layout",
		BindGroupLayouts: []BindGroupLayout{r.layouts.Texture, r.layouts.Scene, r.layouts.Object},
	})
	if err != nil {
		return nil, fmt.Errorf("create standard pipeline layout: %w", err)
	}
	pipeline, err := r.device.CreateRenderPipeline(&RenderPipelineDescriptor{
		Label:         "standard",
		Layout:        layout,
		Module:        shader.Get().Module(),
		VertexEntry:   "main_v",
		FragmentEntry: "main_f",
		Buffers:       []gputypes.VertexBufferLayout{VertexLayout()},
		ColorFormat:   ColorFormat,
		DepthFormat:   DepthFormat,
		SampleCount:   SampleCount,
	})
	if err != nil {
		layout.Destroy()
		return nil, fmt.Errorf("create standard pipeline: %w", err)
	}

	p := &StandardPass{
		pipeline: pipeline,
		layout:   layout,
		clear:    DefaultClear,
	}
	ecs.AddResource(w, p)
	if !ecs.HasResource[Camera](w) {
		ecs.AddResource(w, DefaultCamera())
	}
	w.AddNamedSystem(ecs.StageDraw, "gfx.StandardPass.Draw", p.Draw)
	return p, nil
}

// Draw records the pass into the current Frame. The pass is ended on
// every return path.
func (p *StandardPass) Draw(w *ecs.World) (err error) {
	frame := ecs.MustResource[*Frame](w)
	r := frame.Renderer()

	cam, ok := ecs.Resource[Camera](w)
	if !ok {
		cam = DefaultCamera()
	}
	if vp := cam.ViewProj(frame.Aspect()); r.scene.Data().Cam != vp {
		r.scene.Mutate(func(s *SceneConst) { s.Cam = vp })
	}
	if _, err := r.scene.Update(r.queue); err != nil {
		return err
	}

	pass, err := frame.BeginPass("standard", p.clear)
	if err != nil {
		return err
	}
	defer func() {
		if endErr := pass.End(); err == nil {
			err = endErr
		}
	}()
	pass.SetPipeline(p.pipeline)
	r.scene.Bind(pass, GroupScene)

	models := ecs.Get[Model](w)
	defer models.Release()

	drawn := 0
	for _, row := range models {
		t, ok := ecs.GetOne[scene.Transform](row.Entity)
		if !ok {
			continue
		}
		matrix := t.Get().Matrix()
		t.Release()

		obj, err := p.object(r, drawn)
		if err != nil {
			return err
		}
		obj.Set(ObjConst{Transform: matrix})
		if _, err = obj.Update(r.queue); err != nil {
			return err
		}
		obj.Bind(pass, GroupObject)

		m := row.Get()
		m.Tex.Must().Bind(pass)
		m.Mesh.Must().Draw(pass, 1)
		drawn++
	}
	return nil
}

// object returns the i-th per-draw binding, growing the pool on demand.
// Every draw of a frame needs its own buffer since all writes land before
// the frame is submitted.
func (p *StandardPass) object(r *Renderer, i int) (*Binding[ObjConst], error) {
	for len(p.objects) <= i {
		b, err := NewBinding(r.device, r.layouts.Object, "object", ObjConst{})
		if err != nil {
			return nil, err
		}
		p.objects = append(p.objects, b)
	}
	return p.objects[i], nil
}

// SetClearColor changes the color the pass clears to.
func (p *StandardPass) SetClearColor(c gputypes.Color) {
	p.clear = c
}

func (p *StandardPass) Destroy() {
	for _, b := range p.objects {
		b.Destroy()
	}
	p.objects = nil
	p.pipeline.Destroy()
	p.layout.Destroy()
}
