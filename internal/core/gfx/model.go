package gfx

import (
	"github.com/zeusync/miau/internal/core/assets"
	"github.com/zeusync/miau/internal/core/schema/registry"
)

const ModelName = "miau.Model"

// Model is the renderable part of an entity; StandardPass draws it at the
// entity's scene.Transform.
type Model struct {
	Mesh assets.Handle[Mesh]    `yaml:"mesh"`
	Tex  assets.Handle[Texture] `yaml:"tex"`
}

func (m *Model) ResolveAssets(src registry.AssetSource) error {
	if err := m.Mesh.Resolve(src); err != nil {
		return err
	}
	return m.Tex.Resolve(src)
}

// LoadModel loads both assets of a model.
func LoadModel(a *assets.Assets, mesh, tex string) (Model, error) {
	m, err := assets.Load[Mesh](a, mesh)
	if err != nil {
		return Model{}, err
	}
	t, err := assets.Load[Texture](a, tex)
	if err != nil {
		return Model{}, err
	}
	return Model{Mesh: m, Tex: t}, nil
}

// Components is the registry manifest of this package.
func Components() []registry.Registration {
	return []registry.Registration{
		registry.Component[Model](ModelName),
	}
}
