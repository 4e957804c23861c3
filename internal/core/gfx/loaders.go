package gfx

import (
	"github.com/zeusync/miau/internal/core/assets"
)

// Default asset paths of the built-in pipeline.
const (
	StandardShaderPath = "shaders/standard.wgsl"
)

// RegisterLoaders installs the Mesh, Texture and Shader loaders on a. They
// create GPU objects through r.
func RegisterLoaders(a *assets.Assets, r *Renderer) {
	assets.RegisterLoader(a, func(data []byte) (*Mesh, error) {
		return LoadMesh(r.device, data)
	})
	assets.RegisterLoader(a, func(data []byte) (*Texture, error) {
		return LoadTexture(r.device, r.queue, r.layouts.Texture, data)
	})
	assets.RegisterLoader(a, func(data []byte) (*Shader, error) {
		return LoadShader(r.device, data)
	})
}
