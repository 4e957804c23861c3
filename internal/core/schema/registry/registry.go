package registry

import (
	"fmt"
	"reflect"
	"strconv"

	"github.com/cespare/xxhash/v2"
	"gopkg.in/yaml.v3"
)

// TypeID is the stable identifier of a registered component type. It is the
// xxhash of the registered name, so it survives rebuilds while names do.
type TypeID uint64

func (id TypeID) String() string {
	return strconv.FormatUint(uint64(id), 10)
}

// IDOf derives the TypeID for a component name.
func IDOf(name string) TypeID {
	return TypeID(xxhash.Sum64String(name))
}

// EncodeFunc erases a boxed component (*T) into a value the scene encoder
// can marshal.
type EncodeFunc func(ptr any) (any, error)

// DecodeFunc parses one component payload into a boxed *T.
type DecodeFunc func(node *yaml.Node, ctx *DecodeContext) (any, error)

// Entry is the registered encode/decode pair of one component type.
type Entry struct {
	ID     TypeID
	Name   string
	Type   reflect.Type
	Encode EncodeFunc
	Decode DecodeFunc
}

// Registry is built once during startup and read-only afterwards.
type Registry struct {
	byID   map[TypeID]*Entry
	byType map[reflect.Type]*Entry
	order  []*Entry
}

func New() *Registry {
	return &Registry{
		byID:   make(map[TypeID]*Entry),
		byType: make(map[reflect.Type]*Entry),
	}
}

// Registration is one manifest line; component packages export a list of them.
type Registration func(r *Registry) error

// Apply runs every registration in order and stops at the first failure.
func (r *Registry) Apply(regs ...Registration) error {
	for _, reg := range regs {
		if err := reg(r); err != nil {
			return err
		}
	}
	return nil
}

// Add registers e. Adding the same type under the same name again is a no-op.
func (r *Registry) Add(e Entry) error {
	if e.Name == "" || e.Type == nil || e.Encode == nil || e.Decode == nil {
		return fmt.Errorf("%w: incomplete entry %q", ErrInvalidEntry, e.Name)
	}
	e.ID = IDOf(e.Name)

	if prev, ok := r.byType[e.Type]; ok {
		if prev.Name == e.Name {
			return nil
		}
		return fmt.Errorf("%w: %s already registered as %q", ErrConflict, e.Type, prev.Name)
	}
	if prev, ok := r.byID[e.ID]; ok {
		return fmt.Errorf("%w: id %s of %q already used by %s", ErrConflict, e.ID, e.Name, prev.Type)
	}

	entry := e
	r.byID[entry.ID] = &entry
	r.byType[entry.Type] = &entry
	r.order = append(r.order, &entry)
	return nil
}

func (r *Registry) Lookup(id TypeID) (*Entry, bool) {
	e, ok := r.byID[id]
	return e, ok
}

func (r *Registry) ByType(t reflect.Type) (*Entry, bool) {
	e, ok := r.byType[t]
	return e, ok
}

// Entries returns registrations in the order they were applied.
func (r *Registry) Entries() []*Entry {
	out := make([]*Entry, len(r.order))
	copy(out, r.order)
	return out
}

func (r *Registry) Len() int {
	return len(r.order)
}
