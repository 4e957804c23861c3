package assets

import (
	"fmt"
	"reflect"

	"gopkg.in/yaml.v3"

	"github.com/zeusync/miau/internal/core/schema/registry"
)

// Handle shares a loaded asset. It persists as its path only; a decoded
// handle must be resolved against an asset source before use.
type Handle[T any] struct {
	path string
	data *T
}

func (h Handle[T]) Path() string {
	return h.path
}

// Get returns the shared asset, or nil when the handle is unresolved.
func (h Handle[T]) Get() *T {
	return h.data
}

func (h Handle[T]) Loaded() bool {
	return h.data != nil
}

func (h Handle[T]) String() string {
	return h.path
}

func (h Handle[T]) MarshalYAML() (any, error) {
	return h.path, nil
}

func (h *Handle[T]) UnmarshalYAML(node *yaml.Node) error {
	var p string
	if err := node.Decode(&p); err != nil {
		return fmt.Errorf("asset handle: %w", err)
	}
	*h = Handle[T]{path: p}
	return nil
}

// Resolve loads the asset behind the persisted path.
func (h *Handle[T]) Resolve(src registry.AssetSource) error {
	t := reflect.TypeFor[T]()
	v, err := src.LoadAsset(t, h.path)
	if err != nil {
		return fmt.Errorf("could not load %s from %q: %w", t, h.path, err)
	}
	data, ok := v.(*T)
	if !ok {
		return fmt.Errorf("%w: %q resolved to %T", ErrTypeMismatch, h.path, v)
	}
	h.data = data
	return nil
}

// Must panics when the handle has not been resolved.
func (h Handle[T]) Must() *T {
	if h.data == nil {
		panic(fmt.Errorf("%w: %q", ErrUnresolved, h.path))
	}
	return h.data
}
