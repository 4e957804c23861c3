package ecs

import (
	"reflect"
	"strconv"
)

// EntityID is an opaque random identifier; it exists while any row uses it.
type EntityID uint64

func (id EntityID) String() string {
	return strconv.FormatUint(uint64(id), 10)
}

// Entity is a lightweight handle binding an id to its world.
type Entity struct {
	world *World
	id    EntityID
}

func (e Entity) ID() EntityID {
	return e.id
}

func (e Entity) World() *World {
	return e.world
}

func (e Entity) String() string {
	return e.id.String()
}

// Insert appends a copy of component to this entity's rows of its dynamic
// type. Components are inserted by value.
func (e Entity) Insert(component any) Entity {
	e.world.storage.insert(e.id, newCell(component))
	return e
}

// GetOne borrows the first T row of e.
func GetOne[T any](e Entity) (*Ref[T], bool) {
	return getOne[T](e, false)
}

// GetOneMut exclusively borrows the first T row of e.
func GetOneMut[T any](e Entity) (*Ref[T], bool) {
	return getOne[T](e, true)
}

func getOne[T any](e Entity, mut bool) (*Ref[T], bool) {
	ref, ok, err := tryGetOne[T](e, mut)
	if err != nil {
		panic(err)
	}
	return ref, ok
}

// TryGetOne is GetOne returning the borrow failure instead of panicking.
func TryGetOne[T any](e Entity) (*Ref[T], bool, error) {
	return tryGetOne[T](e, false)
}

// TryGetOneMut is GetOneMut returning the borrow failure instead of panicking.
func TryGetOneMut[T any](e Entity) (*Ref[T], bool, error) {
	return tryGetOne[T](e, true)
}

func tryGetOne[T any](e Entity, mut bool) (*Ref[T], bool, error) {
	for _, r := range e.world.storage.rows(reflect.TypeFor[T]()) {
		if r.entity == e.id {
			ref, err := borrow[T](r.cell, mut)
			if err != nil {
				return nil, true, err
			}
			return ref, true, nil
		}
	}
	return nil, false, nil
}

// GetAll borrows every T row of e.
func GetAll[T any](e Entity) []*Ref[T] {
	return getAll[T](e, false)
}

func GetAllMut[T any](e Entity) []*Ref[T] {
	return getAll[T](e, true)
}

func getAll[T any](e Entity, mut bool) []*Ref[T] {
	var out []*Ref[T]
	for _, r := range e.world.storage.rows(reflect.TypeFor[T]()) {
		if r.entity == e.id {
			out = append(out, mustBorrow[T](r.cell, mut))
		}
	}
	return out
}

// Has reports whether e owns at least one T row.
func Has[T any](e Entity) bool {
	for _, r := range e.world.storage.rows(reflect.TypeFor[T]()) {
		if r.entity == e.id {
			return true
		}
	}
	return false
}
