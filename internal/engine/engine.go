package engine

import (
	"context"
	"errors"
	"fmt"

	"github.com/gogpu/gputypes"

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
)

// Engine owns the World and wires the built-in systems into it. Systems and
// resources added before Run see the engine's INIT resources from START on.
type Engine struct {
	cfg      *config.Config
	log      log.Log
	world    *ecs.World
	registry *registry.Registry
	bus      bus.EventBus

	window     platform.Window
	backend    *gfx.Backend
	assets     *assets.Assets
	components []registry.Registration

	ctx     context.Context
	running bool
	// ready is set once INIT completed; nothing is saved before that.
	ready bool
}

type Option func(*Engine)

// WithWindow replaces the headless window built from the config.
func WithWindow(w platform.Window) Option {
	return func(e *Engine) {
		e.window = w
	}
}

// WithBackend replaces the headless GPU.
func WithBackend(b gfx.Backend) Option {
	return func(e *Engine) {
		e.backend = &b
	}
}

// WithAssets replaces the asset system opened from the config location.
func WithAssets(a *assets.Assets) Option {
	return func(e *Engine) {
		e.assets = a
	}
}

// WithComponents appends registrations to the registry manifest.
func WithComponents(regs ...registry.Registration) Option {
	return func(e *Engine) {
		e.components = append(e.components, regs...)
	}
}

func New(cfg *config.Config, logger log.Log, opts ...Option) *Engine {
	if logger == nil {
		logger = log.Nop()
	}
	e := &Engine{
		cfg:      cfg,
		log:      logger.Named("engine"),
		registry: registry.New(),
		bus:      bus.New(),
	}
	for _, opt := range opts {
		opt(e)
	}
	e.world = ecs.NewWorld(ecs.WithLogger(logger))
	e.bus.AddObserver(bus.NewLogObserver(logger))
	e.world.AddNamedSystem(ecs.StageInit, "engine.init", e.init)
	e.world.AddNamedSystem(ecs.StageUpdate, "engine.tick", tick)
	e.world.AddNamedSystem(ecs.StageUpdate, "engine.spin", spin)
	return e
}

func (e *Engine) World() *ecs.World {
	return e.world
}

func (e *Engine) Registry() *registry.Registry {
	return e.registry
}

func (e *Engine) Bus() bus.EventBus {
	return e.bus
}

// AddSystem registers fn under name and returns e for chaining.
func (e *Engine) AddSystem(stage ecs.Stage, name string, fn ecs.System) *Engine {
	e.world.AddNamedSystem(stage, name, fn)
	return e
}

// AddResource stores v in the engine's world.
func AddResource[T any](e *Engine, v T) *Engine {
	ecs.AddResource(e.world, v)
	return e
}

// Run executes INIT and START. START owns the event loop, so Run returns
// once the window closes, ctx is cancelled or a system fails. Resources are
// released and the scene is saved (when configured) on the way out.
func (e *Engine) Run(ctx context.Context) (err error) {
	if e.running {
		return ErrRunning
	}
	e.running = true
	e.ctx = ctx

	defer func() {
		if r := recover(); r != nil {
			var serr *ecs.SystemError
			pe, ok := r.(error)
			switch {
			case ok && errors.As(pe, &serr):
				err = serr
			case ok:
				err = fmt.Errorf("%w: %w", ErrPanic, pe)
			default:
				err = fmt.Errorf("%w: %v", ErrPanic, r)
			}
		}
		err = errors.Join(err, e.shutdown())
	}()

	e.log.Info("engine starting",
		log.String("title", e.cfg.Window.Title),
		log.Uint32("width", e.cfg.Window.Width),
		log.Uint32("height", e.cfg.Window.Height),
	)
	e.world.RunSystem(ecs.StageInit)
	e.world.RunSystem(ecs.StageStart)
	return nil
}

func (e *Engine) init(w *ecs.World) error {
	win := e.window
	if win == nil {
		win = platform.NewHeadless(e.cfg.Window.Width, e.cfg.Window.Height,
			platform.WithFrameLimit(e.cfg.Window.Frames))
	}
	ecs.AddResource(w, win)

	a := e.assets
	if a == nil {
		opened, err := assets.Open(e.cfg.Assets.Location,
			assets.WithPrefix(e.cfg.Assets.Prefix),
			assets.WithPreloadLimit(e.cfg.Assets.PreloadLimit),
			assets.WithLogger(e.log),
		)
		if err != nil {
			return err
		}
		a = opened
	}
	ecs.AddResource(w, a)
	if len(e.cfg.Assets.Preload) > 0 {
		if err := a.Preload(e.ctx, e.cfg.Assets.Preload...); err != nil {
			return err
		}
	}

	backend := headless.New().Backend()
	if e.backend != nil {
		backend = *e.backend
	}
	width, height := win.Size()
	r, err := gfx.NewRenderer(backend, width, height, gfx.WithLogger(e.log))
	if err != nil {
		return err
	}
	ecs.AddResource(w, r)
	gfx.RegisterLoaders(a, r)

	if err := e.registry.Apply(Manifest(e.components...)...); err != nil {
		return err
	}
	ecs.AddResource(w, e.registry)
	ecs.AddResource(w, e.bus)
	ecs.AddResource(w, gfx.DeltaTime{})

	pass, err := gfx.NewStandardPass(w, r, a, e.cfg.Renderer.Shader)
	if err != nil {
		return err
	}
	c := e.cfg.Renderer.Clear
	pass.SetClearColor(gputypes.Color{R: c[0], G: c[1], B: c[2], A: c[3]})

	if path := e.cfg.Scene.Load; path != "" {
		if err := scene.LoadFile(w, e.registry, path, a); err != nil {
			return err
		}
		e.log.Info("scene loaded", log.String("path", path), log.Int("rows", w.Storage().Total()))
	}

	w.AddNamedSystem(ecs.StageStart, "engine.start", e.start)
	w.AddNamedSystem(ecs.StageUpdate, "engine.update", update)
	e.ready = true
	return nil
}

// Manifest lists every built-in component registration followed by extra.
func Manifest(extra ...registry.Registration) []registry.Registration {
	regs := append([]registry.Registration{}, scene.Components()...)
	regs = append(regs, gfx.Components()...)
	regs = append(regs, Components()...)
	return append(regs, extra...)
}

// start is the event loop. Every event is stored as the platform.Event
// resource, published on the bus and followed by an EVENT stage run.
func (e *Engine) start(w *ecs.World) error {
	win := ecs.MustResource[platform.Window](w)
	acker, _ := win.(platform.Acker)

	for {
		if err := e.ctx.Err(); err != nil {
			e.log.Info("engine cancelled", log.Error(err))
			return nil
		}
		var ev platform.Event
		select {
		case <-e.ctx.Done():
			e.log.Info("engine cancelled", log.Error(e.ctx.Err()))
			return nil
		case next, ok := <-win.Events():
			if !ok {
				return nil
			}
			ev = next
		}
		if acker != nil {
			acker.Delivered(ev)
		}

		exit := false
		switch ev := ev.(type) {
		case platform.Resized:
			if err := ecs.MustResource[*gfx.Renderer](w).Resize(ev.Width, ev.Height); err != nil {
				e.log.Warn("resize failed", log.Stringer("size", ev), log.Error(err))
			}
		case platform.CloseRequested:
			exit = true
		case platform.RedrawRequested:
			w.RunSystem(ecs.StageUpdate)
		}

		ecs.AddResource(w, ev)
		if err := e.bus.Publish(ev); err != nil {
			e.log.Warn("event subscribers failed", log.String("event", ev.Type()), log.Error(err))
		}
		w.RunSystem(ecs.StageEvent)

		if exit {
			return nil
		}
		win.RequestRedraw()
	}
}

func update(w *ecs.World) error {
	return ecs.MustResource[*gfx.Renderer](w).Frame(w)
}

func (e *Engine) shutdown() error {
	var errs []error
	w := e.world

	switch path := e.cfg.Scene.Save; {
	case path == "":
	case !e.ready:
		e.log.Warn("init did not complete, scene not saved", log.String("path", path))
	default:
		if err := scene.SaveFile(w, e.registry, path); err != nil {
			errs = append(errs, fmt.Errorf("save scene: %w", err))
		} else {
			e.log.Info("scene saved", log.String("path", path))
		}
	}
	if p, ok := ecs.TakeResource[*gfx.StandardPass](w); ok {
		p.Destroy()
	}
	if r, ok := ecs.TakeResource[*gfx.Renderer](w); ok {
		e.log.Info("renderer stopped", log.Uint64("frames", r.Frames()))
		r.Destroy()
	}
	if a, ok := ecs.TakeResource[*assets.Assets](w); ok {
		if err := a.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if win, ok := ecs.TakeResource[platform.Window](w); ok {
		if err := win.Close(); err != nil {
			errs = append(errs, err)
		}
	}

	e.log.Info("engine stopped")
	_ = e.log.Sync()
	return errors.Join(errs...)
}
