package engine

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"math"
	"os"
	"path/filepath"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/zeusync/miau/internal/config"
	"github.com/zeusync/miau/internal/core/assets"
	"github.com/zeusync/miau/internal/core/ecs"
	"github.com/zeusync/miau/internal/core/events/bus"
	"github.com/zeusync/miau/internal/core/gfx"
	"github.com/zeusync/miau/internal/core/gfx/headless"
	"github.com/zeusync/miau/internal/core/observability/log"
	"github.com/zeusync/miau/internal/core/platform"
	"github.com/zeusync/miau/internal/core/scene"
	"github.com/zeusync/miau/internal/core/schema/registry"
	"github.com/zeusync/miau/pkg/math3d"
)

const triangleOBJ = `v 0 0 0
v 1 0 0
v 0 1 0
f 1 2 3
`

func whitePNG(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 1, 1))
	img.Set(0, 0, color.White)
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

var spirvStub = []byte{0x03, 0x02, 0x23, 0x07, 0, 0, 1, 0}

type harness struct {
	cfg    *config.Config
	gpu    *headless.GPU
	window *platform.Headless
	assets *assets.Assets
	logs   *observer.ObservedLogs
	logger log.Log
}

func newHarness(t *testing.T, frames int) *harness {
	t.Helper()
	cfg := config.Default()
	cfg.Window.Width, cfg.Window.Height = 64, 32
	cfg.Window.Frames = frames
	cfg.Renderer.Shader = "shaders/standard.spv"
	cfg.Renderer.Mesh = "tri.obj"
	cfg.Renderer.Tex = "white.png"

	core, logs := observer.New(zapcore.DebugLevel)
	return &harness{
		cfg:    cfg,
		gpu:    headless.New(),
		window: platform.NewHeadless(64, 32, platform.WithFrameLimit(frames)),
		assets: assets.New(fstest.MapFS{
			"shaders/standard.spv": {Data: spirvStub},
			"tri.obj":              {Data: []byte(triangleOBJ)},
			"white.png":            {Data: whitePNG(t)},
		}),
		logs:   logs,
		logger: log.FromZap(zap.New(core), log.LevelDebug),
	}
}

func (h *harness) engine(opts ...Option) *Engine {
	opts = append([]Option{
		WithWindow(h.window),
		WithBackend(h.gpu.Backend()),
		WithAssets(h.assets),
	}, opts...)
	return New(h.cfg, h.logger, opts...)
}

func TestRunDrawsFramesUntilClose(t *testing.T) {
	h := newHarness(t, 3)
	e := h.engine()
	e.AddSystem(ecs.StageStart, "spawn", SpawnModel(h.cfg.Renderer.Mesh, h.cfg.Renderer.Tex, 1))

	var events []string
	e.AddSystem(ecs.StageEvent, "record", func(w *ecs.World) error {
		events = append(events, ecs.MustResource[platform.Event](w).Type())
		return nil
	})
	var published int
	_, err := e.Bus().Subscribe(bus.Wildcard, func(bus.Event) error {
		published++
		return nil
	})
	require.NoError(t, err)

	require.NoError(t, e.Run(context.Background()))

	assert.Equal(t, []string{
		platform.TypeResized,
		platform.TypeRedrawRequested,
		platform.TypeRedrawRequested,
		platform.TypeRedrawRequested,
		platform.TypeCloseRequested,
	}, events)
	assert.Equal(t, len(events), published)

	stats := h.gpu.Stats()
	assert.Equal(t, 3, stats.Presents)
	assert.Equal(t, 3, stats.Draws)
	assert.Len(t, h.logs.FilterMessage("engine stopped").All(), 1)

	assert.ErrorIs(t, e.Run(context.Background()), ErrRunning)
}

func TestRegistryManifest(t *testing.T) {
	h := newHarness(t, 0)
	e := h.engine()
	e.AddSystem(ecs.StageStart, "close", func(*ecs.World) error {
		return h.window.Close()
	})
	require.NoError(t, e.Run(context.Background()))

	names := []string{}
	for _, entry := range e.Registry().Entries() {
		names = append(names, entry.Name)
	}
	assert.Equal(t, []string{scene.TransformName, gfx.ModelName, SpinName}, names)
}

func TestSpinRotatesTransform(t *testing.T) {
	w := ecs.NewWorld()
	ecs.AddResource(w, gfx.DeltaTime{Delta: 500_000_000})
	e := w.Spawn().Insert(scene.NewTransform()).Insert(Spin{Speed: math.Pi})
	w.Spawn().Insert(Spin{Speed: 1})

	require.NoError(t, spin(w))

	ref, ok := ecs.GetOne[scene.Transform](e)
	require.True(t, ok)
	defer ref.Release()
	got := ref.Get().Rotation.Rotate(math3d.UnitX)
	assert.InDelta(t, 0, got.X, 1e-5)
	assert.InDelta(t, -1, got.Z, 1e-5)
}

func TestSpinWithoutDeltaIsNoop(t *testing.T) {
	w := ecs.NewWorld()
	ecs.AddResource(w, gfx.DeltaTime{})
	e := w.Spawn().Insert(scene.NewTransform()).Insert(Spin{Speed: 1})
	require.NoError(t, spin(w))

	ref, _ := ecs.GetOne[scene.Transform](e)
	defer ref.Release()
	assert.Equal(t, math3d.IdentityQuat, ref.Get().Rotation)
}

func TestResizeEventReconfiguresSurface(t *testing.T) {
	h := newHarness(t, 1)
	e := h.engine()
	e.AddSystem(ecs.StageStart, "resize", func(*ecs.World) error {
		if err := h.window.Push(platform.Resized{Width: 128, Height: 96}); err != nil {
			return err
		}
		return h.window.Push(platform.Resized{Width: 0, Height: 0})
	})

	require.NoError(t, e.Run(context.Background()))
	cfg := h.gpu.Config()
	require.NotNil(t, cfg)
	assert.Equal(t, uint32(128), cfg.Width)
	assert.Equal(t, uint32(96), cfg.Height)
}

func TestSystemErrorStopsRun(t *testing.T) {
	h := newHarness(t, 0)
	boom := errors.New("boom")
	e := h.engine()
	e.AddSystem(ecs.StageUpdate, "broken", func(*ecs.World) error { return boom })

	err := e.Run(context.Background())
	var serr *ecs.SystemError
	require.ErrorAs(t, err, &serr)
	assert.Equal(t, "broken", serr.System)
	assert.ErrorIs(t, err, boom)

	assert.ErrorIs(t, h.window.Push(platform.RedrawRequested{}), platform.ErrClosed)
}

func TestMissingShaderFailsInit(t *testing.T) {
	h := newHarness(t, 1)
	h.cfg.Renderer.Shader = "shaders/missing.wgsl"
	err := h.engine().Run(context.Background())
	assert.ErrorIs(t, err, assets.ErrNotFound)
}

func TestCancelledContextStopsLoop(t *testing.T) {
	h := newHarness(t, 0)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.NoError(t, h.engine().Run(ctx))
	assert.Zero(t, h.gpu.Stats().Presents)
}

func TestSceneSaveAndLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scene.yaml")

	h := newHarness(t, 2)
	h.cfg.Scene.Save = path
	first := h.engine()
	first.AddSystem(ecs.StageStart, "spawn", SpawnModel("tri.obj", "white.png", 0))
	require.NoError(t, first.Run(context.Background()))

	h2 := newHarness(t, 1)
	h2.cfg.Scene.Load = path
	second := h2.engine()
	// skipped, the loaded scene already has entities
	second.AddSystem(ecs.StageStart, "spawn", SpawnModel("tri.obj", "white.png", 0))
	var models int
	second.AddSystem(ecs.StagePostDraw, "count", func(w *ecs.World) error {
		models = ecs.Count[gfx.Model](w)
		return nil
	})
	require.NoError(t, second.Run(context.Background()))

	assert.Equal(t, 1, models)
	assert.Equal(t, 1, h2.gpu.Stats().Draws)
}

func TestFailedInitDoesNotOverwriteScene(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scene.yaml")
	doc := fmt.Sprintf("%d:\n  - entity: 7\n    component:\n      mesh: gone.obj\n      tex: white.png\n",
		registry.IDOf(gfx.ModelName))
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o644))

	h := newHarness(t, 1)
	h.cfg.Scene.Load = path
	h.cfg.Scene.Save = path

	err := h.engine().Run(context.Background())
	assert.ErrorIs(t, err, assets.ErrNotFound)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, doc, string(data))
	assert.Len(t, h.logs.FilterMessage("init did not complete, scene not saved").All(), 1)
}
