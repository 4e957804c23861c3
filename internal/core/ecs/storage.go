package ecs

import (
	"fmt"
	"reflect"
)

type row struct {
	entity EntityID
	cell   *cell
}

// Storage maps a component type to its rows in insertion order. An entity may
// own several rows of the same type; inserts accumulate.
type Storage struct {
	columns map[reflect.Type][]row
	order   []reflect.Type
}

func NewStorage() *Storage {
	return &Storage{columns: make(map[reflect.Type][]row)}
}

func (s *Storage) insert(id EntityID, c *cell) {
	if _, ok := s.columns[c.typ]; !ok {
		s.order = append(s.order, c.typ)
	}
	s.columns[c.typ] = append(s.columns[c.typ], row{entity: id, cell: c})
}

// Append adds a row from an already boxed value. ptr must be a non-nil pointer
// to a value of type t.
func (s *Storage) Append(id EntityID, t reflect.Type, ptr any) error {
	pv := reflect.ValueOf(ptr)
	if pv.Kind() != reflect.Pointer || pv.IsNil() || pv.Type().Elem() != t {
		return fmt.Errorf("append %s: got %T", t, ptr)
	}
	s.insert(id, &cell{value: ptr, typ: t})
	return nil
}

// Types lists component types in first-insertion order.
func (s *Storage) Types() []reflect.Type {
	out := make([]reflect.Type, 0, len(s.order))
	for _, t := range s.order {
		if len(s.columns[t]) > 0 {
			out = append(out, t)
		}
	}
	return out
}

func (s *Storage) Len(t reflect.Type) int {
	return len(s.columns[t])
}

// Total counts rows across all types.
func (s *Storage) Total() int {
	n := 0
	for _, rows := range s.columns {
		n += len(rows)
	}
	return n
}

// Visit calls fn for every row of t with a shared borrow held for the call.
func (s *Storage) Visit(t reflect.Type, fn func(id EntityID, ptr any) error) error {
	for _, r := range s.columns[t] {
		if err := visitRow(r, fn); err != nil {
			return err
		}
	}
	return nil
}

func visitRow(r row, fn func(id EntityID, ptr any) error) error {
	if err := r.cell.tryBorrow(); err != nil {
		panic(err)
	}
	defer r.cell.release(false)
	return fn(r.entity, r.cell.value)
}

// Entities returns the distinct entity ids present, in first-seen order.
func (s *Storage) Entities() []EntityID {
	seen := make(map[EntityID]struct{})
	var out []EntityID
	for _, t := range s.order {
		for _, r := range s.columns[t] {
			if _, ok := seen[r.entity]; ok {
				continue
			}
			seen[r.entity] = struct{}{}
			out = append(out, r.entity)
		}
	}
	return out
}

func (s *Storage) Clear() {
	s.columns = make(map[reflect.Type][]row)
	s.order = nil
}

func (s *Storage) rows(t reflect.Type) []row {
	return s.columns[t]
}
