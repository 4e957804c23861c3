package scene

import "github.com/zeusync/miau/pkg/math3d"

// Transform places an entity in world space.
type Transform struct {
	Position math3d.Vec3 `yaml:"position"`
	Rotation math3d.Quat `yaml:"rotation"`
	Scale    math3d.Vec3 `yaml:"scale"`
}

// NewTransform returns the identity transform.
func NewTransform() Transform {
	return Transform{
		Rotation: math3d.IdentityQuat,
		Scale:    math3d.One3,
	}
}

func (t Transform) Pos(p math3d.Vec3) Transform {
	t.Position = p
	return t
}

func (t Transform) Rot(q math3d.Quat) Transform {
	t.Rotation = q
	return t
}

// RotEuler sets the rotation from yaw, pitch and roll in degrees.
func (t Transform) RotEuler(yaw, pitch, roll float32) Transform {
	t.Rotation = math3d.QuatFromEulerYXZ(yaw, pitch, roll)
	return t
}

func (t Transform) WithScale(s math3d.Vec3) Transform {
	t.Scale = s
	return t
}

// Matrix returns the model matrix, scale first, then rotation, then translation.
func (t Transform) Matrix() math3d.Mat4 {
	return math3d.FromScaleRotationTranslation(t.Scale, t.Rotation, t.Position)
}
