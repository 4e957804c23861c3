package ecs

import "reflect"

// Row pairs an entity with a borrow of one of its components.
type Row[T any] struct {
	Entity Entity
	*Ref[T]
}

type Rows[T any] []Row[T]

// Release ends every borrow in the set.
func (rs Rows[T]) Release() {
	for _, r := range rs {
		r.Ref.Release()
	}
}

// Get borrows every T row in storage order. A type with no rows yields an
// empty set. Conflicting borrows panic.
func Get[T any](w *World) Rows[T] {
	return query[T](w, false)
}

// GetMut exclusively borrows every T row in storage order.
func GetMut[T any](w *World) Rows[T] {
	return query[T](w, true)
}

func query[T any](w *World, mut bool) Rows[T] {
	out, err := tryQuery[T](w, mut)
	if err != nil {
		panic(err)
	}
	return out
}

// TryGet is Get returning the borrow failure instead of panicking.
func TryGet[T any](w *World) (Rows[T], error) {
	return tryQuery[T](w, false)
}

// TryGetMut is GetMut returning the borrow failure instead of panicking.
func TryGetMut[T any](w *World) (Rows[T], error) {
	return tryQuery[T](w, true)
}

// tryQuery borrows all rows or none: on failure the rows borrowed so far
// are released.
func tryQuery[T any](w *World, mut bool) (Rows[T], error) {
	rows := w.storage.rows(reflect.TypeFor[T]())
	out := make(Rows[T], 0, len(rows))
	for _, r := range rows {
		ref, err := borrow[T](r.cell, mut)
		if err != nil {
			out.Release()
			return nil, err
		}
		out = append(out, Row[T]{Entity: Entity{world: w, id: r.entity}, Ref: ref})
	}
	return out, nil
}

// Each borrows one row at a time and calls fn with it.
func Each[T any](w *World, fn func(e Entity, v *T)) {
	each(w, false, fn)
}

// EachMut is Each with exclusive borrows.
func EachMut[T any](w *World, fn func(e Entity, v *T)) {
	each(w, true, fn)
}

func each[T any](w *World, mut bool, fn func(e Entity, v *T)) {
	for _, r := range w.storage.rows(reflect.TypeFor[T]()) {
		ref := mustBorrow[T](r.cell, mut)
		func() {
			defer ref.Release()
			fn(Entity{world: w, id: r.entity}, ref.Get())
		}()
	}
}

// Count returns the number of T rows.
func Count[T any](w *World) int {
	return w.storage.Len(reflect.TypeFor[T]())
}
