package ecs

import (
	"fmt"
	"reflect"
)

// AddResource stores v as the single resource of type T, replacing any
// previous value.
func AddResource[T any](w *World, v T) {
	box := new(T)
	*box = v
	w.resources[reflect.TypeFor[T]()] = box
}

func Resource[T any](w *World) (T, bool) {
	if box, ok := w.resources[reflect.TypeFor[T]()]; ok {
		return *box.(*T), true
	}
	var zero T
	return zero, false
}

// ResourceMut returns a pointer to the stored resource, or nil.
func ResourceMut[T any](w *World) *T {
	if box, ok := w.resources[reflect.TypeFor[T]()]; ok {
		return box.(*T)
	}
	return nil
}

// MustResource panics when no resource of type T exists.
func MustResource[T any](w *World) T {
	v, ok := Resource[T](w)
	if !ok {
		panic(fmt.Errorf("%s: %w", reflect.TypeFor[T](), ErrResourceNotFound))
	}
	return v
}

// TakeResource removes the resource and hands ownership to the caller.
func TakeResource[T any](w *World) (T, bool) {
	t := reflect.TypeFor[T]()
	box, ok := w.resources[t]
	if !ok {
		var zero T
		return zero, false
	}
	delete(w.resources, t)
	return *box.(*T), true
}

func HasResource[T any](w *World) bool {
	_, ok := w.resources[reflect.TypeFor[T]()]
	return ok
}
