package gfx

import (
	"time"

	"github.com/zeusync/miau/pkg/math3d"
)

// Camera is the resource StandardPass builds the scene matrix from.
type Camera struct {
	Eye    math3d.Vec3
	Target math3d.Vec3
	Up     math3d.Vec3
	FovY   float32
	ZNear  float32
}

// DefaultCamera looks at the origin from (5, 5, 5).
func DefaultCamera() Camera {
	return Camera{
		Eye:   math3d.Splat(5),
		Up:    math3d.UnitY,
		FovY:  1.4,
		ZNear: 0.01,
	}
}

// ViewProj is the left-handed infinite perspective times the view matrix.
func (c Camera) ViewProj(aspect float32) math3d.Mat4 {
	proj := math3d.PerspectiveInfiniteLH(c.FovY, aspect, c.ZNear)
	return proj.Mul(math3d.LookAtLH(c.Eye, c.Target, c.Up))
}

// DeltaTime is the resource holding the time between the last two UPDATE
// runs.
type DeltaTime struct {
	Delta time.Duration
	last  time.Time
}

// Tick advances to now. The first tick yields a zero delta.
func (d *DeltaTime) Tick(now time.Time) {
	if !d.last.IsZero() {
		d.Delta = now.Sub(d.last)
	}
	d.last = now
}

func (d DeltaTime) Seconds() float32 {
	return float32(d.Delta.Seconds())
}
