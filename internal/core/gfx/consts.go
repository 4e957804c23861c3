package gfx

import (
	"github.com/gogpu/gputypes"

	"github.com/zeusync/miau/pkg/math3d"
)

const (
	ColorFormat = gputypes.TextureFormatBGRA8UnormSrgb
	DepthFormat = gputypes.TextureFormatDepth32Float
	SampleCount = 4
)

// Bind group slots shared by the built-in pipelines.
const (
	GroupTexture uint32 = iota
	GroupScene
	GroupObject
)

// Vertex is the layout of every mesh vertex buffer.
type Vertex struct {
	Pos    [3]float32
	UV     [2]float32
	Normal [3]float32
}

const vertexSize = 32

// VertexLayout describes Vertex to pipelines.
func VertexLayout() gputypes.VertexBufferLayout {
	return gputypes.VertexBufferLayout{
		ArrayStride: vertexSize,
		StepMode:    gputypes.VertexStepModeVertex,
		Attributes: []gputypes.VertexAttribute{
			{Format: gputypes.VertexFormatFloat32x3, Offset: 0, ShaderLocation: 0},
			{Format: gputypes.VertexFormatFloat32x2, Offset: 12, ShaderLocation: 1},
			{Format: gputypes.VertexFormatFloat32x3, Offset: 20, ShaderLocation: 2},
		},
	}
}

// SceneConst is the per-frame uniform block.
type SceneConst struct {
	Cam  math3d.Mat4
	Size [2]float32
}

// ObjConst is the per-draw uniform block.
type ObjConst struct {
	Transform math3d.Mat4
}
