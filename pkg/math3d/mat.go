package math3d

import "math"

// Mat4 is a column-major 4x4 matrix; element (row r, column c) lives at
// index c*4+r, matching the layout shaders expect.
type Mat4 [16]float32

var Identity = Mat4{
	1, 0, 0, 0,
	0, 1, 0, 0,
	0, 0, 1, 0,
	0, 0, 0, 1,
}

func (m Mat4) At(row, col int) float32 { return m[col*4+row] }

func (m Mat4) Col(c int) Vec4 {
	return Vec4{m[c*4], m[c*4+1], m[c*4+2], m[c*4+3]}
}

func mat4FromCols(x, y, z, w Vec4) Mat4 {
	return Mat4{
		x.X, x.Y, x.Z, x.W,
		y.X, y.Y, y.Z, y.W,
		z.X, z.Y, z.Z, z.W,
		w.X, w.Y, w.Z, w.W,
	}
}

// Mul returns m*o, so o is applied first.
func (m Mat4) Mul(o Mat4) Mat4 {
	var out Mat4
	for c := 0; c < 4; c++ {
		for r := 0; r < 4; r++ {
			var sum float32
			for k := 0; k < 4; k++ {
				sum += m[k*4+r] * o[c*4+k]
			}
			out[c*4+r] = sum
		}
	}
	return out
}

func (m Mat4) MulVec4(v Vec4) Vec4 {
	return Vec4{
		m[0]*v.X + m[4]*v.Y + m[8]*v.Z + m[12]*v.W,
		m[1]*v.X + m[5]*v.Y + m[9]*v.Z + m[13]*v.W,
		m[2]*v.X + m[6]*v.Y + m[10]*v.Z + m[14]*v.W,
		m[3]*v.X + m[7]*v.Y + m[11]*v.Z + m[15]*v.W,
	}
}

// TransformPoint applies m to p with w = 1.
func (m Mat4) TransformPoint(p Vec3) Vec3 {
	return m.MulVec4(Vec4{p.X, p.Y, p.Z, 1}).XYZ()
}

// FromScaleRotationTranslation builds T*R*S.
func FromScaleRotationTranslation(scale Vec3, rot Quat, pos Vec3) Mat4 {
	x2, y2, z2 := rot.X+rot.X, rot.Y+rot.Y, rot.Z+rot.Z
	xx, xy, xz := rot.X*x2, rot.X*y2, rot.X*z2
	yy, yz, zz := rot.Y*y2, rot.Y*z2, rot.Z*z2
	wx, wy, wz := rot.W*x2, rot.W*y2, rot.W*z2

	return mat4FromCols(
		Vec4{(1 - (yy + zz)) * scale.X, (xy + wz) * scale.X, (xz - wy) * scale.X, 0},
		Vec4{(xy - wz) * scale.Y, (1 - (xx + zz)) * scale.Y, (yz + wx) * scale.Y, 0},
		Vec4{(xz + wy) * scale.Z, (yz - wx) * scale.Z, (1 - (xx + yy)) * scale.Z, 0},
		Vec4{pos.X, pos.Y, pos.Z, 1},
	)
}

func Translation(pos Vec3) Mat4 {
	return FromScaleRotationTranslation(One3, IdentityQuat, pos)
}

// PerspectiveInfiniteLH is a left-handed perspective projection with an
// infinite far plane, mapping depth to [0, 1].
func PerspectiveInfiniteLH(fovY, aspect, zNear float32) Mat4 {
	s, c := math.Sincos(0.5 * float64(fovY))
	h := float32(c / s)
	w := h / aspect
	return mat4FromCols(
		Vec4{w, 0, 0, 0},
		Vec4{0, h, 0, 0},
		Vec4{0, 0, 1, 1},
		Vec4{0, 0, -zNear, 0},
	)
}

// LookAtLH builds a left-handed view matrix for a camera at eye facing center.
func LookAtLH(eye, center, up Vec3) Mat4 {
	f := center.Sub(eye).Normalize()
	s := up.Cross(f).Normalize()
	u := f.Cross(s)
	return mat4FromCols(
		Vec4{s.X, u.X, f.X, 0},
		Vec4{s.Y, u.Y, f.Y, 0},
		Vec4{s.Z, u.Z, f.Z, 0},
		Vec4{-eye.Dot(s), -eye.Dot(u), -eye.Dot(f), 1},
	)
}
