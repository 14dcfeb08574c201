// Package config loads the TOML configuration for oxy-cube.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

// Backend names accepted by the renderer.
const (
	BackendGL   = "gl"
	BackendWGPU = "wgpu"
)

// DefaultTextureSource is the image shown on the cube when no source is configured.
const DefaultTextureSource = "assets/cubetexture.png"

type Config struct {
	Window   WindowConfig   `toml:"window"`
	Renderer RendererConfig `toml:"renderer"`
	Camera   CameraConfig   `toml:"camera"`
	Texture  TextureConfig  `toml:"texture"`
	Log      LogConfig      `toml:"log"`
	Engine   EngineConfig   `toml:"engine"`
}

type WindowConfig struct {
	Title  string `toml:"title"`
	Width  int    `toml:"width"`
	Height int    `toml:"height"`
	// The user can resize the window within these bounds; the initial size is clamped to them.
	MinWidth  int `toml:"min_width"`
	MinHeight int `toml:"min_height"`
	MaxWidth  int `toml:"max_width"`
	MaxHeight int `toml:"max_height"`
}

type RendererConfig struct {
	// Backend is "gl" or "wgpu".
	Backend string `toml:"backend"`
	// VSync paces frames to the display refresh (swap interval 1 / FIFO present).
	VSync bool `toml:"vsync"`
	// ClearColor is RGBA in [0, 1].
	ClearColor [4]float32 `toml:"clear_color"`
	// MSAA is the wgpu sample count: 1 (off), 4, 8 or 16.
	MSAA int `toml:"msaa"`
	// ForceSoftware asks wgpu for the fallback (CPU) adapter.
	ForceSoftware bool `toml:"force_software"`
}

type CameraConfig struct {
	FovDegrees float32 `toml:"fov_degrees"`
	Near       float32 `toml:"near"`
	Far        float32 `toml:"far"`
	Distance   float32 `toml:"distance"`
}

type TextureConfig struct {
	// Source is a file path, file:// URL or http(s):// URL.
	Source string `toml:"source"`
	// Workers is the number of decode workers.
	Workers int `toml:"workers"`
}

type LogConfig struct {
	Level string `toml:"level"`
}

type EngineConfig struct {
	// Profiling logs FPS and heap usage once per second.
	Profiling bool `toml:"profiling"`
	// FrameLimit caps ticks per second; 0 leaves pacing to vsync.
	FrameLimit int `toml:"frame_limit"`
}

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		Window: WindowConfig{
			Title:     "oxy-cube",
			Width:     640,
			Height:    480,
			MinWidth:  64,
			MinHeight: 64,
			MaxWidth:  3840,
			MaxHeight: 2160,
		},
		Renderer: RendererConfig{
			Backend:    BackendGL,
			VSync:      true,
			ClearColor: [4]float32{0, 0, 0, 1},
			MSAA:       1,
		},
		Camera: CameraConfig{
			FovDegrees: 45,
			Near:       0.1,
			Far:        100,
			Distance:   6,
		},
		Texture: TextureConfig{
			Source:  DefaultTextureSource,
			Workers: 2,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// Load reads the TOML file at path over the defaults. An empty path returns the defaults.
//
// Parameters:
//   - path: path to a TOML file, or "" for defaults only
//
// Returns:
//   - Config: the merged configuration
//   - error: an error if the file cannot be read, parsed or validated
func Load(path string) (Config, error) {
	if path == "" {
		return Default(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %s: %w", path, err)
	}
	cfg, err := Decode(bytes.NewReader(data))
	if err != nil {
		return Config{}, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Decode parses TOML from r over the defaults. Unknown keys are rejected so typos surface early.
//
// Parameters:
//   - r: TOML input
//
// Returns:
//   - Config: the merged configuration
//   - error: an error if the input is malformed or fails validation
func Decode(r io.Reader) (Config, error) {
	cfg := Default()
	dec := toml.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&cfg); err != nil {
		var strict *toml.StrictMissingError
		if errors.As(err, &strict) {
			return Config{}, fmt.Errorf("unknown config keys:\n%s", strict.String())
		}
		var decErr *toml.DecodeError
		if errors.As(err, &decErr) {
			row, col := decErr.Position()
			return Config{}, fmt.Errorf("failed to parse config at %d:%d: %w", row, col, err)
		}
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks the values the renderer cannot recover from.
func (c Config) Validate() error {
	var errs []error
	switch strings.ToLower(c.Renderer.Backend) {
	case BackendGL, BackendWGPU:
	default:
		errs = append(errs, fmt.Errorf("renderer.backend %q must be %q or %q", c.Renderer.Backend, BackendGL, BackendWGPU))
	}
	if c.Window.Width <= 0 || c.Window.Height <= 0 {
		errs = append(errs, fmt.Errorf("window size %dx%d must be positive", c.Window.Width, c.Window.Height))
	}
	if c.Window.MinWidth <= 0 || c.Window.MinHeight <= 0 {
		errs = append(errs, fmt.Errorf("window minimum size %dx%d must be positive", c.Window.MinWidth, c.Window.MinHeight))
	}
	if c.Window.MaxWidth < c.Window.MinWidth || c.Window.MaxHeight < c.Window.MinHeight {
		errs = append(errs, fmt.Errorf("window maximum size %dx%d is below the minimum %dx%d",
			c.Window.MaxWidth, c.Window.MaxHeight, c.Window.MinWidth, c.Window.MinHeight))
	}
	switch c.Renderer.MSAA {
	case 1, 4, 8, 16:
	default:
		errs = append(errs, fmt.Errorf("renderer.msaa %d must be 1, 4, 8 or 16", c.Renderer.MSAA))
	}
	if c.Camera.FovDegrees <= 0 || c.Camera.FovDegrees >= 180 {
		errs = append(errs, fmt.Errorf("camera.fov_degrees %v must be in (0, 180)", c.Camera.FovDegrees))
	}
	if c.Camera.Near <= 0 || c.Camera.Far <= c.Camera.Near {
		errs = append(errs, fmt.Errorf("camera planes near=%v far=%v must satisfy 0 < near < far", c.Camera.Near, c.Camera.Far))
	}
	if c.Texture.Workers < 1 {
		errs = append(errs, fmt.Errorf("texture.workers %d must be at least 1", c.Texture.Workers))
	}
	if c.Engine.FrameLimit < 0 {
		errs = append(errs, fmt.Errorf("engine.frame_limit %d must not be negative", c.Engine.FrameLimit))
	}
	return errors.Join(errs...)
}

// Encode writes c as TOML.
func (c Config) Encode(w io.Writer) error {
	enc := toml.NewEncoder(w)
	enc.SetIndentTables(true)
	return enc.Encode(c)
}
