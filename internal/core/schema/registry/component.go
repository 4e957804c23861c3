package registry

import (
	"fmt"
	"reflect"

	"gopkg.in/yaml.v3"
)

// AssetSource resolves a persisted asset path back into a loaded value of
// type t. The asset system implements it.
type AssetSource interface {
	LoadAsset(t reflect.Type, path string) (any, error)
}

// Resolvable is implemented by components holding asset handles that must be
// resolved after their payload was decoded.
type Resolvable interface {
	ResolveAssets(src AssetSource) error
}

// DecodeContext carries what a decoder needs beyond the payload itself.
type DecodeContext struct {
	Assets AssetSource
}

// Component registers T under name with yaml-based encode/decode functions.
func Component[T any](name string) Registration {
	return func(r *Registry) error {
		return r.Add(Entry{
			Name:   name,
			Type:   reflect.TypeFor[T](),
			Encode: encode[T],
			Decode: decode[T],
		})
	}
}

func encode[T any](ptr any) (any, error) {
	v, ok := ptr.(*T)
	if !ok {
		return nil, fmt.Errorf("%w: want *%s, got %T", ErrTypeMismatch, reflect.TypeFor[T](), ptr)
	}
	return v, nil
}

func decode[T any](node *yaml.Node, ctx *DecodeContext) (any, error) {
	v := new(T)
	if err := node.Decode(v); err != nil {
		return nil, fmt.Errorf("decode %s: %w", reflect.TypeFor[T](), err)
	}
	if res, ok := any(v).(Resolvable); ok {
		if ctx == nil || ctx.Assets == nil {
			return nil, fmt.Errorf("decode %s: %w", reflect.TypeFor[T](), ErrNoAssetSource)
		}
		if err := res.ResolveAssets(ctx.Assets); err != nil {
			return nil, fmt.Errorf("decode %s: %w", reflect.TypeFor[T](), err)
		}
	}
	return v, nil
}
