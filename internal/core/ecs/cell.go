package ecs

import (
	"fmt"
	"reflect"
)

// cell boxes one component value and tracks dynamic borrows of it.
// borrows > 0 counts shared borrows, -1 marks an exclusive one.
type cell struct {
	value any // always a pointer to the concrete component
	typ   reflect.Type
	state int
}

func newCell(v any) *cell {
	t := reflect.TypeOf(v)
	ptr := reflect.New(t)
	ptr.Elem().Set(reflect.ValueOf(v))
	return &cell{value: ptr.Interface(), typ: t}
}

func (c *cell) tryBorrow() error {
	if c.state < 0 {
		return fmt.Errorf("%s: %w", c.typ, ErrAlreadyMutablyBorrowed)
	}
	c.state++
	return nil
}

func (c *cell) tryBorrowMut() error {
	if c.state != 0 {
		return fmt.Errorf("%s: %w", c.typ, ErrAlreadyBorrowed)
	}
	c.state = -1
	return nil
}

func (c *cell) release(mut bool) {
	if mut {
		c.state = 0
		return
	}
	if c.state > 0 {
		c.state--
	}
}

// Ref is a live borrow of one component row. It must be released before a
// conflicting borrow of the same row is taken.
type Ref[T any] struct {
	ptr      *T
	cell     *cell
	mut      bool
	released bool
}

func borrow[T any](c *cell, mut bool) (*Ref[T], error) {
	var err error
	if mut {
		err = c.tryBorrowMut()
	} else {
		err = c.tryBorrow()
	}
	if err != nil {
		return nil, err
	}
	return &Ref[T]{ptr: c.value.(*T), cell: c, mut: mut}, nil
}

func mustBorrow[T any](c *cell, mut bool) *Ref[T] {
	r, err := borrow[T](c, mut)
	if err != nil {
		panic(err)
	}
	return r
}

// Get returns the borrowed value. Writes through a shared borrow are a bug.
func (r *Ref[T]) Get() *T {
	if r.released {
		panic(ErrReleased)
	}
	return r.ptr
}

// Mutable reports whether this is an exclusive borrow.
func (r *Ref[T]) Mutable() bool {
	return r.mut
}

// Release ends the borrow. Releasing twice is a no-op.
func (r *Ref[T]) Release() {
	if r == nil || r.released {
		return
	}
	r.released = true
	r.cell.release(r.mut)
}
