package assets

import (
	"archive/zip"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"reflect"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/zeusync/miau/internal/core/observability/log"
)

// DefaultPrefix is the directory inside an archive that holds the assets.
const DefaultPrefix = "assets"

// LoaderFunc turns a raw blob into a boxed *T.
type LoaderFunc func(data []byte) (any, error)

type cacheKey struct {
	typ  reflect.Type
	path string
}

// Assets loads blobs from a file system and decodes them with per-type
// loaders. Decoded values are cached by (type, path) for the process lifetime.
// Only Preload is safe to run concurrently with itself; everything else
// belongs to the world's goroutine.
type Assets struct {
	fsys    fs.FS
	prefix  string
	closer  io.Closer
	loaders map[reflect.Type]LoaderFunc
	cache   map[cacheKey]any
	log     log.Log

	mu  sync.Mutex
	raw map[string][]byte

	preloadLimit int
}

type Option func(*Assets)

func WithLogger(l log.Log) Option {
	return func(a *Assets) {
		if l != nil {
			a.log = l
		}
	}
}

// WithPrefix sets the directory all asset paths are relative to.
func WithPrefix(prefix string) Option {
	return func(a *Assets) {
		a.prefix = strings.Trim(prefix, "/")
	}
}

// WithPreloadLimit bounds the number of concurrent reads in Preload.
func WithPreloadLimit(n int) Option {
	return func(a *Assets) {
		if n > 0 {
			a.preloadLimit = n
		}
	}
}

func New(fsys fs.FS, opts ...Option) *Assets {
	a := &Assets{
		fsys:         fsys,
		loaders:      make(map[reflect.Type]LoaderFunc),
		cache:        make(map[cacheKey]any),
		raw:          make(map[string][]byte),
		log:          log.Nop(),
		preloadLimit: 4,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Open serves assets from a directory, or from a zip archive when location
// names a .zip file.
func Open(location string, opts ...Option) (*Assets, error) {
	info, err := os.Stat(location)
	if err != nil {
		return nil, fmt.Errorf("open assets: %w", err)
	}
	if info.IsDir() {
		return New(os.DirFS(location), opts...), nil
	}
	if !strings.EqualFold(path.Ext(location), ".zip") {
		return nil, fmt.Errorf("open assets: %s is neither a directory nor a zip archive", location)
	}
	zr, err := zip.OpenReader(location)
	if err != nil {
		return nil, fmt.Errorf("open assets archive: %w", err)
	}
	a := New(zr, opts...)
	a.closer = zr
	return a, nil
}

func (a *Assets) Close() error {
	if a.closer == nil {
		return nil
	}
	return a.closer.Close()
}

// RegisterLoader installs the decoder for T, replacing any previous one.
func RegisterLoader[T any](a *Assets, fn func(data []byte) (*T, error)) {
	a.loaders[reflect.TypeFor[T]()] = func(data []byte) (any, error) {
		return fn(data)
	}
}

// HasLoader reports whether values of type t can be loaded.
func (a *Assets) HasLoader(t reflect.Type) bool {
	_, ok := a.loaders[t]
	return ok
}

// Load returns the cached T for path, decoding it on first use.
func Load[T any](a *Assets, path string) (Handle[T], error) {
	v, err := a.LoadAsset(reflect.TypeFor[T](), path)
	if err != nil {
		return Handle[T]{}, err
	}
	return Handle[T]{path: path, data: v.(*T)}, nil
}

// LoadAsset is the type-erased form of Load; it returns a boxed *T.
func (a *Assets) LoadAsset(t reflect.Type, path string) (any, error) {
	key := cacheKey{typ: t, path: path}
	if v, ok := a.cache[key]; ok {
		return v, nil
	}

	loader, ok := a.loaders[t]
	if !ok {
		return nil, fmt.Errorf("load %q: %w: %s", path, ErrNoLoader, t)
	}
	data, err := a.LoadRaw(path)
	if err != nil {
		return nil, err
	}
	v, err := loader(data)
	if err != nil {
		return nil, fmt.Errorf("could not load %s from %q: %w", t, path, err)
	}
	if rv := reflect.ValueOf(v); rv.Kind() != reflect.Pointer || rv.IsNil() || rv.Type().Elem() != t {
		return nil, fmt.Errorf("load %q: %w: loader returned %T for %s", path, ErrTypeMismatch, v, t)
	}

	a.cache[key] = v
	a.log.Debug("asset loaded", log.String("path", path), log.Stringer("type", t))
	return v, nil
}

// LoadRaw returns the blob at path, taking it from the preload buffer when
// Preload fetched it.
func (a *Assets) LoadRaw(p string) ([]byte, error) {
	a.mu.Lock()
	data, ok := a.raw[p]
	if ok {
		delete(a.raw, p)
	}
	a.mu.Unlock()
	if ok {
		return data, nil
	}
	return a.read(p)
}

func (a *Assets) read(p string) ([]byte, error) {
	full := path.Clean(p)
	if a.prefix != "" {
		full = path.Join(a.prefix, p)
	}
	data, err := fs.ReadFile(a.fsys, full)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, full)
		}
		return nil, fmt.Errorf("read asset %s: %w", full, err)
	}
	return data, nil
}

// Preload fetches blobs in parallel so the following loads only decode. All
// read failures are reported together.
func (a *Assets) Preload(ctx context.Context, paths ...string) error {
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(a.preloadLimit)

	var (
		errMu sync.Mutex
		errs  []error
	)
	for _, p := range paths {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			data, err := a.read(p)
			if err != nil {
				errMu.Lock()
				errs = append(errs, err)
				errMu.Unlock()
				return nil
			}
			a.mu.Lock()
			a.raw[p] = data
			a.mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("preload: %w", err)
	}
	a.log.Debug("assets preloaded", log.Int("count", len(paths)))
	return nil
}

// Cached counts decoded assets.
func (a *Assets) Cached() int {
	return len(a.cache)
}
