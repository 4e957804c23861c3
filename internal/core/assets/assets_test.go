package assets

import (
	"archive/zip"
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

type text struct {
	Body string
}

type blob struct {
	Size int
}

func newTestAssets(t *testing.T, files map[string]string) (*Assets, *int) {
	t.Helper()
	fsys := fstest.MapFS{}
	for name, body := range files {
		fsys["assets/"+name] = &fstest.MapFile{Data: []byte(body)}
	}
	a := New(fsys, WithPrefix(DefaultPrefix))
	decodes := new(int)
	RegisterLoader(a, func(data []byte) (*text, error) {
		*decodes++
		if strings.HasPrefix(string(data), "!") {
			return nil, errors.New("corrupt")
		}
		return &text{Body: string(data)}, nil
	})
	return a, decodes
}

func TestLoadCachesByTypeAndPath(t *testing.T) {
	a, decodes := newTestAssets(t, map[string]string{"hello.txt": "hi"})
	RegisterLoader(a, func(data []byte) (*blob, error) {
		return &blob{Size: len(data)}, nil
	})

	h1, err := Load[text](a, "hello.txt")
	require.NoError(t, err)
	h2, err := Load[text](a, "hello.txt")
	require.NoError(t, err)

	assert.Equal(t, "hi", h1.Get().Body)
	assert.Same(t, h1.Get(), h2.Get())
	assert.Equal(t, 1, *decodes)

	b, err := Load[blob](a, "hello.txt")
	require.NoError(t, err)
	assert.Equal(t, 2, b.Get().Size)
	assert.Equal(t, 2, a.Cached())
}

func TestLoadErrors(t *testing.T) {
	a, _ := newTestAssets(t, map[string]string{"bad.txt": "!oops"})

	_, err := Load[text](a, "missing.txt")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = Load[blob](a, "bad.txt")
	assert.ErrorIs(t, err, ErrNoLoader)

	_, err = Load[text](a, "bad.txt")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bad.txt")
	assert.Equal(t, 0, a.Cached())
}

func TestPreload(t *testing.T) {
	a, decodes := newTestAssets(t, map[string]string{"a.txt": "a", "b.txt": "b", "c.txt": "c"})
	require.NoError(t, a.Preload(context.Background(), "a.txt", "b.txt", "c.txt"))
	assert.Equal(t, 0, *decodes)

	for _, p := range []string{"a.txt", "b.txt", "c.txt"} {
		h, err := Load[text](a, p)
		require.NoError(t, err)
		assert.Equal(t, strings.TrimSuffix(p, ".txt"), h.Get().Body)
	}
	assert.Equal(t, 3, *decodes)
}

func TestPreloadJoinsFailures(t *testing.T) {
	a, _ := newTestAssets(t, map[string]string{"a.txt": "a"})
	err := a.Preload(context.Background(), "a.txt", "x.txt", "y.txt")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Contains(t, err.Error(), "x.txt")
	assert.Contains(t, err.Error(), "y.txt")
}

func TestPreloadCancelled(t *testing.T) {
	a, _ := newTestAssets(t, map[string]string{"a.txt": "a"})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, a.Preload(ctx, "a.txt"), context.Canceled)
}

func TestHandleYAML(t *testing.T) {
	type model struct {
		Mesh Handle[text] `yaml:"mesh"`
	}
	a, _ := newTestAssets(t, map[string]string{"cube.obj": "cube"})
	h, err := Load[text](a, "cube.obj")
	require.NoError(t, err)

	out, err := yaml.Marshal(model{Mesh: h})
	require.NoError(t, err)
	assert.Equal(t, "mesh: cube.obj\n", string(out))

	var back model
	require.NoError(t, yaml.Unmarshal(out, &back))
	assert.Equal(t, "cube.obj", back.Mesh.Path())
	assert.False(t, back.Mesh.Loaded())
	assert.Panics(t, func() { back.Mesh.Must() })

	require.NoError(t, back.Mesh.Resolve(a))
	assert.Same(t, h.Get(), back.Mesh.Get())
}

type wrongSource struct{}

func (wrongSource) LoadAsset(reflect.Type, string) (any, error) {
	return &blob{}, nil
}

func TestResolveTypeMismatch(t *testing.T) {
	h := Handle[text]{path: "x"}
	assert.ErrorIs(t, h.Resolve(wrongSource{}), ErrTypeMismatch)
}

func TestOpenDirectoryAndZip(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "assets"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "assets", "a.txt"), []byte("disk"), 0o644))

	a, err := Open(dir, WithPrefix(DefaultPrefix))
	require.NoError(t, err)
	data, err := a.LoadRaw("a.txt")
	require.NoError(t, err)
	assert.Equal(t, "disk", string(data))
	require.NoError(t, a.Close())

	archive := filepath.Join(t.TempDir(), "assets.zip")
	f, err := os.Create(archive)
	require.NoError(t, err)
	zw := zip.NewWriter(f)
	fw, err := zw.Create("assets/a.txt")
	require.NoError(t, err)
	_, err = fw.Write([]byte("zipped"))
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	require.NoError(t, f.Close())

	z, err := Open(archive, WithPrefix(DefaultPrefix))
	require.NoError(t, err)
	defer func() { _ = z.Close() }()
	data, err = z.LoadRaw("a.txt")
	require.NoError(t, err)
	assert.Equal(t, "zipped", string(data))

	_, err = Open(filepath.Join(dir, "assets", "a.txt"))
	assert.Error(t, err)
}
