package gfx_test

import (
	"bytes"
	"encoding/binary"
	"errors"
	"image"
	"image/color"
	"image/png"
	"math"
	"testing"
	"testing/fstest"
	"time"

	"github.com/gogpu/gputypes"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zeusync/miau/internal/core/assets"
	"github.com/zeusync/miau/internal/core/ecs"
	"github.com/zeusync/miau/internal/core/gfx"
	"github.com/zeusync/miau/internal/core/gfx/headless"
	"github.com/zeusync/miau/internal/core/scene"
	"github.com/zeusync/miau/internal/core/schema/registry"
	"github.com/zeusync/miau/pkg/math3d"
)

const quadOBJ = `# quad
v 0 0 0
v 1 0 0
v 1 1 0
v 0 1 0
vt 0 0
vt 1 0
vt 1 1
vt 0 1
vn 0 0 1
f 1/1/1 2/2/1 3/3/1 4/4/1
`

// spirvStub starts with the SPIR-V magic number.
var spirvStub = []byte{0x03, 0x02, 0x23, 0x07, 0, 0, 1, 0}

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.NRGBA{R: uint8(x * 60), G: uint8(y * 60), B: 200, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

type fixture struct {
	gpu      *headless.GPU
	renderer *gfx.Renderer
	assets   *assets.Assets
	world    *ecs.World
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	g := headless.New()
	r, err := gfx.NewRenderer(g.Backend(), 64, 32)
	require.NoError(t, err)

	a := assets.New(fstest.MapFS{
		"shaders/standard.spv": {Data: spirvStub},
		"cube.obj":             {Data: []byte(quadOBJ)},
		"cat.png":              {Data: pngBytes(t, 2, 2)},
	})
	gfx.RegisterLoaders(a, r)

	w := ecs.NewWorld()
	ecs.AddResource(w, r)
	return &fixture{gpu: g, renderer: r, assets: a, world: w}
}

func TestNewRendererRejectsEmptySurface(t *testing.T) {
	_, err := gfx.NewRenderer(headless.New().Backend(), 0, 10)
	assert.ErrorIs(t, err, gfx.ErrInvalidSize)
}

func TestBindingUploadsOnlyWhenDirty(t *testing.T) {
	f := newFixture(t)
	b, err := gfx.NewBinding(f.renderer.Device(), f.renderer.Layouts().Object, "obj", gfx.ObjConst{Transform: math3d.Identity})
	require.NoError(t, err)
	assert.Equal(t, uint64(64), b.Buffer().Size())

	uploaded, err := b.Update(f.renderer.Queue())
	require.NoError(t, err)
	assert.False(t, uploaded)
	assert.Equal(t, 0, f.gpu.Stats().BufferWrites)

	b.Set(gfx.ObjConst{Transform: math3d.Translation(math3d.V3(7, 0, 0))})
	assert.True(t, b.Dirty())
	uploaded, err = b.Update(f.renderer.Queue())
	require.NoError(t, err)
	assert.True(t, uploaded)
	assert.False(t, b.Dirty())
	assert.Equal(t, 1, f.gpu.Stats().BufferWrites)

	data := b.Buffer().(*headless.Buffer).Data
	assert.Equal(t, float32(7), math.Float32frombits(binary.LittleEndian.Uint32(data[48:])))

	uploaded, err = b.Update(f.renderer.Queue())
	require.NoError(t, err)
	assert.False(t, uploaded)

	b.Mutate(func(o *gfx.ObjConst) { o.Transform = math3d.Identity })
	uploaded, err = b.Update(f.renderer.Queue())
	require.NoError(t, err)
	assert.True(t, uploaded)
	assert.Equal(t, 2, f.gpu.Stats().BufferWrites)
	assert.Equal(t, math3d.Identity, b.Data().Transform)
}

func TestBindingNeedsFixedSize(t *testing.T) {
	f := newFixture(t)
	_, err := gfx.NewBinding(f.renderer.Device(), f.renderer.Layouts().Object, "bad", struct{ S string }{})
	assert.ErrorIs(t, err, gfx.ErrNotFixedSize)
}

func TestFrameLifecycle(t *testing.T) {
	f := newFixture(t)
	var order []string
	for _, stage := range []ecs.Stage{ecs.StagePreDraw, ecs.StageDraw, ecs.StagePostDraw} {
		f.world.AddNamedSystem(stage, stage.String(), func(w *ecs.World) error {
			frame := ecs.MustResource[*gfx.Frame](w)
			assert.Same(t, f.renderer, frame.Renderer())
			order = append(order, stage.String())
			return nil
		})
	}
	f.world.AddNamedSystem(ecs.StageDraw, "pass", func(w *ecs.World) error {
		pass, err := ecs.MustResource[*gfx.Frame](w).BeginPass("p", gfx.DefaultClear)
		if err != nil {
			return err
		}
		return pass.End()
	})

	require.NoError(t, f.renderer.Frame(f.world))
	assert.Equal(t, []string{"PRE_DRAW", "DRAW", "POST_DRAW"}, order)
	assert.False(t, ecs.HasResource[*gfx.Frame](f.world))

	stats := f.gpu.Stats()
	assert.Equal(t, 1, stats.Submits)
	assert.Equal(t, 1, stats.Presents)
	assert.Equal(t, 1, stats.Passes)
	assert.Equal(t, uint64(1), f.renderer.Frames())

	require.NoError(t, f.renderer.Frame(f.world))
	assert.Equal(t, uint64(2), f.renderer.Frames())
}

func TestFramePassesLoadAfterFirst(t *testing.T) {
	f := newFixture(t)
	f.world.AddNamedSystem(ecs.StageDraw, "two passes", func(w *ecs.World) error {
		frame := ecs.MustResource[*gfx.Frame](w)
		for range 2 {
			pass, err := frame.BeginPass("p", gfx.DefaultClear)
			if err != nil {
				return err
			}
			if err = pass.End(); err != nil {
				return err
			}
		}
		return nil
	})
	require.NoError(t, f.renderer.Frame(f.world))

	passes := f.gpu.Submitted()[0].Passes
	require.Len(t, passes, 2)
	assert.Equal(t, "LoadOpClear", loadOpName(passes[0].Desc.Color[0]))
	assert.Equal(t, "LoadOpLoad", loadOpName(passes[1].Desc.Color[0]))
}

func TestNestedFrameIsRefused(t *testing.T) {
	f := newFixture(t)
	var nested error
	f.world.AddNamedSystem(ecs.StageDraw, "nested", func(w *ecs.World) error {
		nested = ecs.MustResource[*gfx.Renderer](w).Frame(w)
		return nil
	})
	require.NoError(t, f.renderer.Frame(f.world))
	assert.ErrorIs(t, nested, gfx.ErrFrameInFlight)
	assert.Equal(t, 1, f.gpu.Stats().Submits)
}

func TestFrameTakenByASystem(t *testing.T) {
	f := newFixture(t)
	f.world.AddNamedSystem(ecs.StageDraw, "thief", func(w *ecs.World) error {
		ecs.TakeResource[*gfx.Frame](w)
		return nil
	})
	assert.ErrorIs(t, f.renderer.Frame(f.world), gfx.ErrFrameTaken)
	assert.Equal(t, 0, f.gpu.Stats().Submits)
}

func TestFailingDrawSystemClearsFrame(t *testing.T) {
	f := newFixture(t)
	boom := errors.New("boom")
	f.world.AddNamedSystem(ecs.StageDraw, "broken", func(*ecs.World) error { return boom })

	assert.Panics(t, func() { _ = f.renderer.Frame(f.world) })
	assert.False(t, ecs.HasResource[*gfx.Frame](f.world))

	// the frame is released; only the unpresented surface image remains
	assert.ErrorIs(t, f.renderer.Frame(f.world), headless.ErrUnpresented)
}

func TestAcquireFailure(t *testing.T) {
	f := newFixture(t)
	f.gpu.FailAcquire = errors.New("surface lost")
	require.Error(t, f.renderer.Frame(f.world))
	assert.False(t, ecs.HasResource[*gfx.Frame](f.world))
	require.NoError(t, f.renderer.Frame(f.world))
}

func TestAcquireFailureFinishesEncoder(t *testing.T) {
	f := newFixture(t)
	f.gpu.FailAcquire = errors.New("surface lost")
	require.Error(t, f.renderer.Frame(f.world))
	assert.Zero(t, f.gpu.Stats().Submits)
	assert.Zero(t, f.renderer.Frames())

	require.NoError(t, f.renderer.Frame(f.world))
	assert.Equal(t, 1, f.gpu.Stats().Submits)
	assert.Equal(t, uint64(1), f.renderer.Frames())
}

func TestResize(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.renderer.Resize(0, 100))
	w, h := f.renderer.Size()
	assert.Equal(t, [2]uint32{64, 32}, [2]uint32{w, h})

	require.NoError(t, f.renderer.Resize(128, 64))
	assert.Equal(t, uint32(128), f.gpu.Config().Width)
	assert.Equal(t, uint32(64), f.gpu.Config().Height)
	assert.True(t, f.renderer.Scene().Dirty())
	assert.Equal(t, [2]float32{128, 64}, f.renderer.Scene().Data().Size)
}

func TestParseOBJ(t *testing.T) {
	vertices, indices, err := gfx.ParseOBJ([]byte(quadOBJ))
	require.NoError(t, err)
	assert.Len(t, vertices, 4)
	assert.Equal(t, []uint32{0, 1, 2, 0, 2, 3}, indices)
	assert.Equal(t, [2]float32{0, 1}, vertices[0].UV)
	assert.Equal(t, [3]float32{0, 0, 1}, vertices[0].Normal)

	vertices, indices, err = gfx.ParseOBJ([]byte("v 0 0 0\nv 1 0 0\nv 0 1 0\nf -3 -2 -1\nf 1 2 3\n"))
	require.NoError(t, err)
	assert.Len(t, vertices, 3)
	assert.Equal(t, []uint32{0, 1, 2, 0, 1, 2}, indices)

	for _, bad := range []string{
		"v 0 0\n",
		"v 0 0 0\nf 1 2\n",
		"v 0 0 0\nf 1 2 4\n",
		"v 0 0 0\nf 0 1 1\n",
		"v x 0 0\n",
	} {
		_, _, err = gfx.ParseOBJ([]byte(bad))
		assert.ErrorIs(t, err, gfx.ErrMalformedOBJ, bad)
	}
	_, _, err = gfx.ParseOBJ([]byte("v 0 0 0\n"))
	assert.ErrorIs(t, err, gfx.ErrEmptyMesh)
}

func TestShaderInput(t *testing.T) {
	code, err := gfx.ToSPIRV(spirvStub)
	require.NoError(t, err)
	assert.Equal(t, spirvStub, code)

	_, err = gfx.ToSPIRV([]byte{0x03, 0x02, 0x23, 0x07, 1})
	assert.ErrorIs(t, err, gfx.ErrInvalidShader)

	_, err = gfx.ToSPIRV([]byte{0xff, 0xfe, 0xfd})
	assert.ErrorIs(t, err, gfx.ErrInvalidShader)

	_, err = gfx.ToSPIRV([]byte("@vertex\nfn main( {\n"))
	assert.ErrorIs(t, err, gfx.ErrInvalidShader)
}

func TestAssetLoaders(t *testing.T) {
	f := newFixture(t)

	mesh, err := assets.Load[gfx.Mesh](f.assets, "cube.obj")
	require.NoError(t, err)
	assert.Equal(t, uint32(6), mesh.Get().IndexCount())

	tex, err := assets.Load[gfx.Texture](f.assets, "cat.png")
	require.NoError(t, err)
	w, h := tex.Get().Size()
	assert.Equal(t, [2]uint32{2, 2}, [2]uint32{w, h})
	assert.Equal(t, 1, f.gpu.Stats().TextureWrites)

	shader, err := assets.Load[gfx.Shader](f.assets, "shaders/standard.spv")
	require.NoError(t, err)
	assert.Equal(t, spirvStub, shader.Get().SPIRV())

	_, err = assets.Load[gfx.Texture](f.assets, "cube.obj")
	assert.Error(t, err)
}

func TestToRGBA(t *testing.T) {
	src := image.NewNRGBA(image.Rect(3, 3, 5, 4))
	src.Set(3, 3, color.NRGBA{R: 255, A: 255})
	rgba := gfx.ToRGBA(src)
	assert.Equal(t, image.Rect(0, 0, 2, 1), rgba.Bounds())
	assert.Equal(t, uint8(255), rgba.Pix[0])
	assert.Len(t, rgba.Pix, 8)
}

func TestStandardPassDrawsModelsWithTransform(t *testing.T) {
	f := newFixture(t)
	pass, err := gfx.NewStandardPass(f.world, f.renderer, f.assets, "shaders/standard.spv")
	require.NoError(t, err)
	assert.Same(t, pass, ecs.MustResource[*gfx.StandardPass](f.world))
	assert.True(t, ecs.HasResource[gfx.Camera](f.world))

	model, err := gfx.LoadModel(f.assets, "cube.obj", "cat.png")
	require.NoError(t, err)
	f.world.Spawn().Insert(scene.NewTransform()).Insert(model)
	f.world.Spawn().Insert(scene.NewTransform().Pos(math3d.V3(1, 0, 0))).Insert(model)
	f.world.Spawn().Insert(model)

	require.NoError(t, f.renderer.Frame(f.world))
	submitted := f.gpu.Submitted()
	require.Len(t, submitted, 1)
	require.Len(t, submitted[0].Passes, 1)

	draws := submitted[0].Passes[0].Draws
	require.Len(t, draws, 2)
	for _, d := range draws {
		assert.Equal(t, uint32(6), d.IndexCount)
		assert.Equal(t, uint32(1), d.Instances)
		assert.Contains(t, d.BindGroups, gfx.GroupTexture)
		assert.Contains(t, d.BindGroups, gfx.GroupScene)
		assert.Contains(t, d.BindGroups, gfx.GroupObject)
	}
	assert.NotSame(t, draws[0].BindGroups[gfx.GroupObject], draws[1].BindGroups[gfx.GroupObject])

	buffers := f.gpu.Stats().Buffers
	require.NoError(t, f.renderer.Frame(f.world))
	assert.Equal(t, buffers, f.gpu.Stats().Buffers)
	assert.False(t, f.renderer.Scene().Dirty())
}

func TestStandardPassEndsPassOnError(t *testing.T) {
	f := newFixture(t)
	pass, err := gfx.NewStandardPass(f.world, f.renderer, f.assets, "shaders/standard.spv")
	require.NoError(t, err)
	model, err := gfx.LoadModel(f.assets, "cube.obj", "cat.png")
	require.NoError(t, err)
	f.world.Spawn().Insert(scene.NewTransform()).Insert(model)

	oom := errors.New("out of memory")
	var drawErr, nextErr error
	f.world.AddNamedSystem(ecs.StagePreDraw, "failing draw", func(w *ecs.World) error {
		f.gpu.FailBuffers = oom
		drawErr = pass.Draw(w)
		next, err := ecs.MustResource[*gfx.Frame](w).BeginPass("next", gfx.DefaultClear)
		if err != nil {
			nextErr = err
			return nil
		}
		nextErr = next.End()
		return nil
	})

	require.NoError(t, f.renderer.Frame(f.world))
	assert.ErrorIs(t, drawErr, oom)
	assert.NoError(t, nextErr)

	passes := f.gpu.Submitted()[0].Passes
	require.Len(t, passes, 3)
	assert.Empty(t, passes[0].Draws)
	assert.Empty(t, passes[1].Draws)
	assert.Len(t, passes[2].Draws, 1)
}

func TestStandardPassMissingShader(t *testing.T) {
	f := newFixture(t)
	_, err := gfx.NewStandardPass(f.world, f.renderer, f.assets, "shaders/missing.spv")
	assert.ErrorIs(t, err, assets.ErrNotFound)
	assert.False(t, ecs.HasResource[*gfx.StandardPass](f.world))
}

func TestModelSceneRoundTrip(t *testing.T) {
	f := newFixture(t)
	reg := registry.New()
	require.NoError(t, reg.Apply(scene.Components()...))
	require.NoError(t, reg.Apply(gfx.Components()...))

	model, err := gfx.LoadModel(f.assets, "cube.obj", "cat.png")
	require.NoError(t, err)
	spinner := f.world.Spawn().Insert(scene.NewTransform().RotEuler(45, 0, 0)).Insert(model)

	var buf bytes.Buffer
	require.NoError(t, scene.Save(f.world, reg, &buf))
	assert.Contains(t, buf.String(), "mesh: cube.obj")
	assert.Contains(t, buf.String(), "tex: cat.png")

	loaded := ecs.NewWorld()
	require.NoError(t, scene.Load(loaded, reg, &buf, f.assets))

	rows := ecs.Get[gfx.Model](loaded)
	defer rows.Release()
	require.Len(t, rows, 1)
	assert.Equal(t, spinner.ID(), rows[0].Entity.ID())
	got := rows[0].Get()
	assert.Equal(t, "cube.obj", got.Mesh.Path())
	assert.Same(t, model.Mesh.Get(), got.Mesh.Get())
	assert.Same(t, model.Tex.Get(), got.Tex.Get())
	assert.True(t, ecs.Has[scene.Transform](rows[0].Entity))
}

func TestSceneSurvivesClearAndReload(t *testing.T) {
	f := newFixture(t)
	reg := registry.New()
	require.NoError(t, reg.Apply(scene.Components()...))
	require.NoError(t, reg.Apply(gfx.Components()...))

	model, err := gfx.LoadModel(f.assets, "cube.obj", "cat.png")
	require.NoError(t, err)
	cube := f.world.Spawn().Insert(scene.NewTransform()).Insert(model)
	marker := f.world.Spawn().Insert(scene.NewTransform().
		Pos(math3d.V3(-4, 0, 2)).
		WithScale(math3d.V3(0.5, 0.5, 0.5)))

	var buf bytes.Buffer
	require.NoError(t, scene.Save(f.world, reg, &buf))

	f.world.Storage().Clear()
	assert.False(t, ecs.Has[scene.Transform](cube))
	require.NoError(t, scene.Load(f.world, reg, &buf, f.assets))

	tr, ok := ecs.GetOne[scene.Transform](f.world.Entity(cube.ID()))
	require.True(t, ok)
	assert.Equal(t, scene.NewTransform(), *tr.Get())
	tr.Release()

	m, ok := ecs.GetOne[gfx.Model](f.world.Entity(cube.ID()))
	require.True(t, ok)
	assert.Equal(t, "cube.obj", m.Get().Mesh.Path())
	assert.Equal(t, "cat.png", m.Get().Tex.Path())
	m.Release()

	tr, ok = ecs.GetOne[scene.Transform](f.world.Entity(marker.ID()))
	require.True(t, ok)
	assert.Equal(t, math3d.V3(-4, 0, 2), tr.Get().Position)
	assert.Equal(t, math3d.V3(0.5, 0.5, 0.5), tr.Get().Scale)
	assert.Equal(t, math3d.IdentityQuat, tr.Get().Rotation)
	tr.Release()
	assert.False(t, ecs.Has[gfx.Model](f.world.Entity(marker.ID())))

	require.NoError(t, f.renderer.Frame(f.world))
}

func TestDeltaTime(t *testing.T) {
	var dt gfx.DeltaTime
	start := time.Unix(100, 0)
	dt.Tick(start)
	assert.Zero(t, dt.Delta)
	dt.Tick(start.Add(16 * time.Millisecond))
	assert.Equal(t, 16*time.Millisecond, dt.Delta)
	assert.InDelta(t, 0.016, dt.Seconds(), 1e-6)
}

func loadOpName(c gfx.ColorAttachment) string {
	if c.Load == gputypes.LoadOpClear {
		return "LoadOpClear"
	}
	return "LoadOpLoad"
}
