package ecs

import (
	"math/rand/v2"
	"reflect"
	"runtime"
	"strings"

	"github.com/zeusync/miau/internal/core/observability/log"
)

// System is a callback run once per stage run.
type System func(w *World) error

type namedSystem struct {
	name string
	run  System
}

// World owns component storage, typed resources and the stage schedule.
// It is not safe for concurrent use.
type World struct {
	storage   *Storage
	resources map[reflect.Type]any
	systems   map[Stage][]namedSystem
	nextID    func() uint64
	log       log.Log
}

type Option func(*World)

func WithLogger(l log.Log) Option {
	return func(w *World) {
		if l != nil {
			w.log = l
		}
	}
}

// WithIDSource replaces the random entity id generator.
func WithIDSource(next func() uint64) Option {
	return func(w *World) {
		if next != nil {
			w.nextID = next
		}
	}
}

func NewWorld(opts ...Option) *World {
	w := &World{
		storage:   NewStorage(),
		resources: make(map[reflect.Type]any),
		systems:   make(map[Stage][]namedSystem),
		nextID:    rand.Uint64,
		log:       log.Nop(),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

func (w *World) Logger() log.Log {
	return w.log
}

// Spawn returns a handle with a fresh random id. Storage is untouched until
// the first Insert.
func (w *World) Spawn() Entity {
	return Entity{world: w, id: EntityID(w.nextID())}
}

// Entity rebuilds a handle for a known id.
func (w *World) Entity(id EntityID) Entity {
	return Entity{world: w, id: id}
}

func (w *World) Storage() *Storage {
	return w.storage
}

// ReplaceStorage swaps in a fully built storage, e.g. after a scene load.
func (w *World) ReplaceStorage(s *Storage) {
	w.storage = s
}

// AddSystem registers fn for stage under the name of its function symbol.
func (w *World) AddSystem(stage Stage, fn System) {
	w.AddNamedSystem(stage, funcName(fn), fn)
}

func (w *World) AddNamedSystem(stage Stage, name string, fn System) {
	w.systems[stage] = append(w.systems[stage], namedSystem{name: name, run: fn})
}

// Systems lists system names registered for stage, in run order.
func (w *World) Systems(stage Stage) []string {
	list := w.systems[stage]
	names := make([]string, len(list))
	for i, s := range list {
		names[i] = s.name
	}
	return names
}

// RunSystem runs every system registered for stage when the run starts, in
// registration order. Systems added to the same stage during the run are
// picked up by the next run. A system error is logged and escalated to a
// panic carrying *SystemError; a panic inside a system is logged with the
// system name and re-raised.
func (w *World) RunSystem(stage Stage) {
	for _, s := range w.systems[stage] {
		w.runOne(stage, s)
	}
}

func (w *World) runOne(stage Stage, s namedSystem) {
	defer func() {
		if r := recover(); r != nil {
			if _, ok := r.(*SystemError); !ok {
				w.log.Error("panic in system",
					log.String("system", s.name),
					log.Stringer("stage", stage),
					log.Any("panic", r),
				)
			}
			panic(r)
		}
	}()

	if err := s.run(w); err != nil {
		w.log.Error("error in system",
			log.String("system", s.name),
			log.Stringer("stage", stage),
			log.Error(err),
		)
		panic(&SystemError{Stage: stage, System: s.name, Err: err})
	}
}

func funcName(fn System) string {
	f := runtime.FuncForPC(reflect.ValueOf(fn).Pointer())
	if f == nil {
		return "unknown"
	}
	name := f.Name()
	if i := strings.LastIndex(name, "/"); i >= 0 {
		name = name[i+1:]
	}
	return name
}
