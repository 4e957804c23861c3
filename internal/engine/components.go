package engine

import (
	"time"

	"github.com/zeusync/miau/internal/core/assets"
	"github.com/zeusync/miau/internal/core/ecs"
	"github.com/zeusync/miau/internal/core/gfx"
	"github.com/zeusync/miau/internal/core/scene"
	"github.com/zeusync/miau/internal/core/schema/registry"
	"github.com/zeusync/miau/pkg/math3d"
)

const SpinName = "miau.Spin"

// Spin turns an entity's Transform around the Y axis.
type Spin struct {
	// Speed in radians per second.
	Speed float32 `yaml:"speed"`
}

func Components() []registry.Registration {
	return []registry.Registration{
		registry.Component[Spin](SpinName),
	}
}

func tick(w *ecs.World) error {
	ecs.ResourceMut[gfx.DeltaTime](w).Tick(time.Now())
	return nil
}

// spin applies every Spin to the first Transform of its entity.
func spin(w *ecs.World) error {
	dt := ecs.MustResource[gfx.DeltaTime](w).Seconds()
	if dt == 0 {
		return nil
	}
	ecs.Each(w, func(e ecs.Entity, s *Spin) {
		ref, ok := ecs.GetOneMut[scene.Transform](e)
		if !ok {
			return
		}
		defer ref.Release()
		t := ref.Get()
		t.Rotation = math3d.QuatFromRotationY(s.Speed * dt).Mul(t.Rotation).Normalize()
	})
	return nil
}

// SpawnModel returns a START system that spawns one spinning model at the
// origin unless the world already holds entities, e.g. from a loaded scene.
func SpawnModel(mesh, tex string, speed float32) ecs.System {
	return func(w *ecs.World) error {
		if w.Storage().Total() > 0 {
			return nil
		}
		model, err := gfx.LoadModel(ecs.MustResource[*assets.Assets](w), mesh, tex)
		if err != nil {
			return err
		}
		w.Spawn().
			Insert(scene.NewTransform()).
			Insert(model).
			Insert(Spin{Speed: speed})
		return nil
	}
}
