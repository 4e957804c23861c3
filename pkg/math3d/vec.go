package math3d

import (
	"fmt"
	"math"

	"gopkg.in/yaml.v3"
)

// Vec3 is a three component float32 vector. It serializes as a flow sequence
// [x, y, z].
type Vec3 struct{ X, Y, Z float32 }

var (
	Zero3 = Vec3{}
	One3  = Vec3{1, 1, 1}
	UnitX = Vec3{X: 1}
	UnitY = Vec3{Y: 1}
	UnitZ = Vec3{Z: 1}
)

func V3(x, y, z float32) Vec3 { return Vec3{x, y, z} }

// Splat returns a vector with every component set to v.
func Splat(v float32) Vec3 { return Vec3{v, v, v} }

func (v Vec3) Add(o Vec3) Vec3         { return Vec3{v.X + o.X, v.Y + o.Y, v.Z + o.Z} }
func (v Vec3) Sub(o Vec3) Vec3         { return Vec3{v.X - o.X, v.Y - o.Y, v.Z - o.Z} }
func (v Vec3) Scale(s float32) Vec3    { return Vec3{v.X * s, v.Y * s, v.Z * s} }
func (v Vec3) Dot(o Vec3) float32      { return v.X*o.X + v.Y*o.Y + v.Z*o.Z }
func (v Vec3) Length() float32         { return float32(math.Sqrt(float64(v.Dot(v)))) }
func (v Vec3) Mul(o Vec3) Vec3         { return Vec3{v.X * o.X, v.Y * o.Y, v.Z * o.Z} }
func (v Vec3) Neg() Vec3               { return Vec3{-v.X, -v.Y, -v.Z} }
func (v Vec3) Array() [3]float32       { return [3]float32{v.X, v.Y, v.Z} }
func (v Vec3) Distance(o Vec3) float32 { return v.Sub(o).Length() }

func (v Vec3) Cross(o Vec3) Vec3 {
	return Vec3{
		v.Y*o.Z - v.Z*o.Y,
		v.Z*o.X - v.X*o.Z,
		v.X*o.Y - v.Y*o.X,
	}
}

// Normalize returns v scaled to unit length; the zero vector stays zero.
func (v Vec3) Normalize() Vec3 {
	l := v.Length()
	if l == 0 {
		return v
	}
	return v.Scale(1 / l)
}

func (v Vec3) MarshalYAML() (any, error) {
	return flowSeq(v.X, v.Y, v.Z), nil
}

func (v *Vec3) UnmarshalYAML(node *yaml.Node) error {
	var xs []float32
	if err := node.Decode(&xs); err != nil {
		return err
	}
	if len(xs) != 3 {
		return fmt.Errorf("vec3: want 3 components, got %d", len(xs))
	}
	*v = Vec3{xs[0], xs[1], xs[2]}
	return nil
}

// Vec4 is used for homogeneous coordinates and colors.
type Vec4 struct{ X, Y, Z, W float32 }

func (v Vec4) XYZ() Vec3 { return Vec3{v.X, v.Y, v.Z} }

func flowSeq(xs ...float32) *yaml.Node {
	n := &yaml.Node{Kind: yaml.SequenceNode, Style: yaml.FlowStyle}
	for _, x := range xs {
		var item yaml.Node
		_ = item.Encode(x)
		n.Content = append(n.Content, &item)
	}
	return n
}

func radians(deg float32) float64 {
	return float64(deg) * math.Pi / 180
}
