package config

import (
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/zeusync/miau/internal/core/observability/log"
)

// Config is the engine configuration file.
type Config struct {
	Window   WindowConfig   `yaml:"window"`
	Assets   AssetsConfig   `yaml:"assets"`
	Renderer RendererConfig `yaml:"renderer"`
	Log      LogConfig      `yaml:"log"`
	Scene    SceneConfig    `yaml:"scene"`
}

type WindowConfig struct {
	Title  string `yaml:"title"`
	Width  uint32 `yaml:"width"`
	Height uint32 `yaml:"height"`
	// Frames stops the headless window after that many redraws; 0 runs until closed.
	Frames int `yaml:"frames,omitempty"`
}

type AssetsConfig struct {
	// Location is a directory or a .zip archive.
	Location string `yaml:"location"`
	Prefix   string `yaml:"prefix"`
	// Preload lists blobs fetched in parallel before INIT finishes.
	Preload      []string `yaml:"preload,omitempty"`
	PreloadLimit int      `yaml:"preload_limit,omitempty"`
}

type RendererConfig struct {
	Shader string     `yaml:"shader"`
	Clear  [4]float64 `yaml:"clear"`
	Mesh   string     `yaml:"mesh"`
	Tex    string     `yaml:"tex"`
}

type LogConfig struct {
	Level    string   `yaml:"level"`
	Encoding string   `yaml:"encoding"`
	Outputs  []string `yaml:"outputs,omitempty"`
}

type SceneConfig struct {
	// Load is read after START when set.
	Load string `yaml:"load,omitempty"`
	// Save is written on shutdown when set.
	Save string `yaml:"save,omitempty"`
}

func Default() *Config {
	return &Config{
		Window: WindowConfig{Title: "miau", Width: 1280, Height: 720},
		Assets: AssetsConfig{Location: ".", Prefix: "assets", PreloadLimit: 4},
		Renderer: RendererConfig{
			Shader: "shaders/standard.wgsl",
			Clear:  [4]float64{0, 0, 0, 1},
			Mesh:   "cube.obj",
			Tex:    "cat.png",
		},
		Log: LogConfig{Level: "info", Encoding: "console"},
	}
}

// Load reads path on top of Default and validates the result.
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open config: %w", err)
	}
	defer func() { _ = f.Close() }()
	return Read(f)
}

func Read(r io.Reader) (*Config, error) {
	cfg := Default()
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate validates the whole configuration
func (c *Config) Validate() error {
	if err := c.Window.Validate(); err != nil {
		return fmt.Errorf("window config: %w", err)
	}
	if err := c.Assets.Validate(); err != nil {
		return fmt.Errorf("assets config: %w", err)
	}
	if err := c.Renderer.Validate(); err != nil {
		return fmt.Errorf("renderer config: %w", err)
	}
	if err := c.Log.Validate(); err != nil {
		return fmt.Errorf("log config: %w", err)
	}
	return nil
}

func (wc *WindowConfig) Validate() error {
	if wc.Width == 0 || wc.Height == 0 {
		return fmt.Errorf("%w: window size %dx%d", ErrInvalid, wc.Width, wc.Height)
	}
	if wc.Frames < 0 {
		return fmt.Errorf("%w: negative frame count", ErrInvalid)
	}
	return nil
}

func (ac *AssetsConfig) Validate() error {
	if ac.Location == "" {
		return fmt.Errorf("%w: assets location is required", ErrInvalid)
	}
	if ac.PreloadLimit < 0 {
		return fmt.Errorf("%w: negative preload limit", ErrInvalid)
	}
	return nil
}

func (rc *RendererConfig) Validate() error {
	if rc.Shader == "" {
		return fmt.Errorf("%w: shader path is required", ErrInvalid)
	}
	for _, c := range rc.Clear {
		if c < 0 || c > 1 {
			return fmt.Errorf("%w: clear color %v out of range", ErrInvalid, rc.Clear)
		}
	}
	return nil
}

func (lc *LogConfig) Validate() error {
	if _, err := log.ParseLevel(lc.Level); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	switch lc.Encoding {
	case "", "json", "console":
	default:
		return fmt.Errorf("%w: log encoding %q", ErrInvalid, lc.Encoding)
	}
	return nil
}

// Logger builds the zap-backed logger described by lc.
func (lc *LogConfig) Logger() (*log.Logger, error) {
	level, err := log.ParseLevel(lc.Level)
	if err != nil {
		return nil, err
	}
	opts := []log.Option{}
	if lc.Encoding != "" {
		opts = append(opts, log.WithEncoding(lc.Encoding))
	}
	if len(lc.Outputs) > 0 {
		opts = append(opts, log.WithOutputPaths(lc.Outputs...))
	}
	return log.New(level, opts...), nil
}
