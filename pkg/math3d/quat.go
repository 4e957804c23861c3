package math3d

import (
	"fmt"
	"math"

	"gopkg.in/yaml.v3"
)

// Quat is a rotation quaternion stored as x, y, z, w. It serializes as a flow
// sequence [x, y, z, w].
type Quat struct{ X, Y, Z, W float32 }

var IdentityQuat = Quat{W: 1}

func QuatFromAxisAngle(axis Vec3, angle float32) Quat {
	axis = axis.Normalize()
	s, c := math.Sincos(float64(angle) / 2)
	return Quat{axis.X * float32(s), axis.Y * float32(s), axis.Z * float32(s), float32(c)}
}

func QuatFromRotationX(angle float32) Quat { return QuatFromAxisAngle(UnitX, angle) }
func QuatFromRotationY(angle float32) Quat { return QuatFromAxisAngle(UnitY, angle) }
func QuatFromRotationZ(angle float32) Quat { return QuatFromAxisAngle(UnitZ, angle) }

// QuatFromEulerYXZ composes yaw about Y, then pitch about X, then roll about
// Z. Angles are in degrees.
func QuatFromEulerYXZ(yaw, pitch, roll float32) Quat {
	y := QuatFromRotationY(float32(radians(yaw)))
	x := QuatFromRotationX(float32(radians(pitch)))
	z := QuatFromRotationZ(float32(radians(roll)))
	return y.Mul(x).Mul(z)
}

// Mul returns the Hamilton product q*o, which applies o first.
func (q Quat) Mul(o Quat) Quat {
	return Quat{
		X: q.W*o.X + q.X*o.W + q.Y*o.Z - q.Z*o.Y,
		Y: q.W*o.Y - q.X*o.Z + q.Y*o.W + q.Z*o.X,
		Z: q.W*o.Z + q.X*o.Y - q.Y*o.X + q.Z*o.W,
		W: q.W*o.W - q.X*o.X - q.Y*o.Y - q.Z*o.Z,
	}
}

func (q Quat) Length() float32 {
	return float32(math.Sqrt(float64(q.X*q.X + q.Y*q.Y + q.Z*q.Z + q.W*q.W)))
}

func (q Quat) Normalize() Quat {
	l := q.Length()
	if l == 0 {
		return IdentityQuat
	}
	return Quat{q.X / l, q.Y / l, q.Z / l, q.W / l}
}

// Rotate applies q to v.
func (q Quat) Rotate(v Vec3) Vec3 {
	u := Vec3{q.X, q.Y, q.Z}
	t := u.Cross(v).Scale(2)
	return v.Add(t.Scale(q.W)).Add(u.Cross(t))
}

func (q Quat) MarshalYAML() (any, error) {
	return flowSeq(q.X, q.Y, q.Z, q.W), nil
}

func (q *Quat) UnmarshalYAML(node *yaml.Node) error {
	var xs []float32
	if err := node.Decode(&xs); err != nil {
		return err
	}
	if len(xs) != 4 {
		return fmt.Errorf("quat: want 4 components, got %d", len(xs))
	}
	*q = Quat{xs[0], xs[1], xs[2], xs[3]}
	return nil
}
