package scene

import (
	"cmp"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"reflect"
	"slices"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/zeusync/miau/internal/core/ecs"
	"github.com/zeusync/miau/internal/core/observability/log"
	"github.com/zeusync/miau/internal/core/schema/registry"
)

type row struct {
	Entity    ecs.EntityID `yaml:"entity"`
	Component yaml.Node    `yaml:"component"`
}

// Save writes every registered component of w as a yaml mapping keyed by
// TypeID, sorted by id. Types missing from reg are skipped with a warning and
// will not be part of the document.
func Save(w *ecs.World, reg *registry.Registry, out io.Writer) error {
	doc, err := encodeStorage(w, reg)
	if err != nil {
		return err
	}
	enc := yaml.NewEncoder(out)
	enc.SetIndent(2)
	if err = enc.Encode(doc); err != nil {
		return fmt.Errorf("write scene: %w", err)
	}
	return enc.Close()
}

func encodeStorage(w *ecs.World, reg *registry.Registry) (*yaml.Node, error) {
	storage := w.Storage()

	var entries []*registry.Entry
	for _, t := range storage.Types() {
		e, ok := reg.ByType(t)
		if !ok {
			w.Logger().Warn("component type not registered, skipping on save",
				log.Stringer("type", t),
				log.Int("rows", storage.Len(t)),
			)
			continue
		}
		entries = append(entries, e)
	}
	slices.SortFunc(entries, func(a, b *registry.Entry) int {
		return cmp.Compare(a.ID, b.ID)
	})

	doc := &yaml.Node{Kind: yaml.MappingNode}
	for _, e := range entries {
		key := &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!int", Value: e.ID.String()}
		rows := &yaml.Node{Kind: yaml.SequenceNode}

		err := storage.Visit(e.Type, func(id ecs.EntityID, ptr any) error {
			view, err := e.Encode(ptr)
			if err != nil {
				return err
			}
			r := row{Entity: id}
			if err = r.Component.Encode(view); err != nil {
				return err
			}
			var item yaml.Node
			if err = item.Encode(&r); err != nil {
				return err
			}
			rows.Content = append(rows.Content, &item)
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("encode %s: %w", e.Name, err)
		}
		doc.Content = append(doc.Content, key, rows)
	}
	return doc, nil
}

// Load replaces the storage of w with the rows of the scene read from in.
// A key whose TypeID is not in reg panics with registry.ErrUnknownComponent;
// nothing is replaced when Load fails or panics.
func Load(w *ecs.World, reg *registry.Registry, in io.Reader, assets registry.AssetSource) error {
	doc, err := readDocument(in)
	if err != nil {
		return err
	}

	ctx := &registry.DecodeContext{Assets: assets}
	storage := ecs.NewStorage()
	err = eachKey(doc, func(id registry.TypeID, rows *yaml.Node) error {
		entry, ok := reg.Lookup(id)
		if !ok {
			panic(fmt.Errorf("%w: type id %s", registry.ErrUnknownComponent, id))
		}
		return decodeRows(storage, entry, rows, ctx)
	})
	if err != nil {
		return err
	}

	w.ReplaceStorage(storage)
	w.Logger().Debug("scene loaded",
		log.Int("types", len(storage.Types())),
		log.Int("rows", storage.Total()),
	)
	return nil
}

func decodeRows(s *ecs.Storage, entry *registry.Entry, rows *yaml.Node, ctx *registry.DecodeContext) error {
	if rows.Kind != yaml.SequenceNode {
		return fmt.Errorf("%w: rows of %s at line %d are not a sequence", ErrMalformedScene, entry.Name, rows.Line)
	}
	for _, item := range rows.Content {
		var r row
		if err := item.Decode(&r); err != nil {
			return fmt.Errorf("%w: row of %s at line %d: %v", ErrMalformedScene, entry.Name, item.Line, err)
		}
		v, err := entry.Decode(&r.Component, ctx)
		if err != nil {
			return fmt.Errorf("load %s of entity %s: %w", entry.Name, r.Entity, err)
		}
		if err = s.Append(r.Entity, entry.Type, v); err != nil {
			return err
		}
	}
	return nil
}

func readDocument(in io.Reader) (*yaml.Node, error) {
	var root yaml.Node
	if err := yaml.NewDecoder(in).Decode(&root); err != nil {
		if errors.Is(err, io.EOF) {
			return &yaml.Node{Kind: yaml.MappingNode}, nil
		}
		return nil, fmt.Errorf("read scene: %w", err)
	}
	if len(root.Content) == 0 {
		return &yaml.Node{Kind: yaml.MappingNode}, nil
	}
	doc := root.Content[0]
	if doc.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("%w: top level is not a mapping", ErrMalformedScene)
	}
	return doc, nil
}

func eachKey(doc *yaml.Node, fn func(id registry.TypeID, rows *yaml.Node) error) error {
	for i := 0; i+1 < len(doc.Content); i += 2 {
		key := doc.Content[i]
		id, err := strconv.ParseUint(key.Value, 10, 64)
		if err != nil {
			return fmt.Errorf("%w: key %q at line %d is not a type id", ErrMalformedScene, key.Value, key.Line)
		}
		if err = fn(registry.TypeID(id), doc.Content[i+1]); err != nil {
			return err
		}
	}
	return nil
}

// SaveFile writes the scene next to path and renames it into place, so a
// failed save leaves an existing file untouched.
func SaveFile(w *ecs.World, reg *registry.Registry, path string) error {
	f, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("create scene file: %w", err)
	}
	tmp := f.Name()
	defer func() {
		if err != nil {
			_ = os.Remove(tmp)
		}
	}()

	if err = f.Chmod(0o644); err != nil {
		_ = f.Close()
		return fmt.Errorf("create scene file: %w", err)
	}
	if err = Save(w, reg, f); err != nil {
		_ = f.Close()
		return err
	}
	if err = f.Close(); err != nil {
		return fmt.Errorf("write scene file: %w", err)
	}
	if err = os.Rename(tmp, path); err != nil {
		return fmt.Errorf("replace scene file: %w", err)
	}
	return nil
}

func LoadFile(w *ecs.World, reg *registry.Registry, path string, assets registry.AssetSource) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open scene file: %w", err)
	}
	defer func() { _ = f.Close() }()
	return Load(w, reg, f, assets)
}

// TypeSummary describes one key of a scene document.
type TypeSummary struct {
	ID   registry.TypeID
	Name string
	Type reflect.Type
	Rows int
}

// Known reports whether the key resolved to a registered component.
func (s TypeSummary) Known() bool {
	return s.Type != nil
}

// Inspect lists the keys of a scene document with their row counts without
// decoding any component. Unknown ids are reported, not rejected.
func Inspect(reg *registry.Registry, in io.Reader) ([]TypeSummary, error) {
	doc, err := readDocument(in)
	if err != nil {
		return nil, err
	}
	var out []TypeSummary
	err = eachKey(doc, func(id registry.TypeID, rows *yaml.Node) error {
		s := TypeSummary{ID: id, Rows: len(rows.Content)}
		if e, ok := reg.Lookup(id); ok {
			s.Name = e.Name
			s.Type = e.Type
		}
		out = append(out, s)
		return nil
	})
	return out, err
}
