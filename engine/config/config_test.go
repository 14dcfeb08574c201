package config

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, BackendGL, cfg.Renderer.Backend)
	assert.Equal(t, float32(45), cfg.Camera.FovDegrees)
	assert.Equal(t, float32(0.1), cfg.Camera.Near)
	assert.Equal(t, float32(100), cfg.Camera.Far)
	assert.Equal(t, float32(6), cfg.Camera.Distance)
	assert.Equal(t, [4]float32{0, 0, 0, 1}, cfg.Renderer.ClearColor)
	assert.True(t, cfg.Renderer.VSync)
	assert.Equal(t, 1, cfg.Renderer.MSAA)
	assert.False(t, cfg.Renderer.ForceSoftware)
	assert.Equal(t, 64, cfg.Window.MinWidth)
	assert.Equal(t, 2160, cfg.Window.MaxHeight)
}

func TestLoadEmptyPath(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestDecodeOverridesDefaults(t *testing.T) {
	cfg, err := Decode(strings.NewReader(`
[window]
title = "cube"
width = 800
height = 600

min_width = 320
max_height = 1200

[renderer]
backend = "wgpu"
vsync = false
msaa = 4
force_software = true

[texture]
source = "https://example.com/cubetexture.png"

[log]
level = "debug"
`))
	require.NoError(t, err)

	assert.Equal(t, "cube", cfg.Window.Title)
	assert.Equal(t, 800, cfg.Window.Width)
	assert.Equal(t, BackendWGPU, cfg.Renderer.Backend)
	assert.False(t, cfg.Renderer.VSync)
	assert.Equal(t, 4, cfg.Renderer.MSAA)
	assert.True(t, cfg.Renderer.ForceSoftware)
	assert.Equal(t, 320, cfg.Window.MinWidth)
	assert.Equal(t, 1200, cfg.Window.MaxHeight)
	assert.Equal(t, 64, cfg.Window.MinHeight, "unset limits keep their defaults")
	assert.Equal(t, "https://example.com/cubetexture.png", cfg.Texture.Source)
	assert.Equal(t, "debug", cfg.Log.Level)

	// untouched sections keep their defaults
	assert.Equal(t, Default().Camera, cfg.Camera)
	assert.Equal(t, 2, cfg.Texture.Workers)
}

func TestDecodeRejectsUnknownKeys(t *testing.T) {
	_, err := Decode(strings.NewReader("[window]\ntitel = \"typo\"\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "titel")
}

func TestDecodeRejectsMalformedInput(t *testing.T) {
	_, err := Decode(strings.NewReader("[window\nwidth = 1"))
	require.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"backend", func(c *Config) { c.Renderer.Backend = "vulkan" }, "renderer.backend"},
		{"size", func(c *Config) { c.Window.Height = 0 }, "window size"},
		{"min size", func(c *Config) { c.Window.MinWidth = 0 }, "minimum size"},
		{"max below min", func(c *Config) { c.Window.MaxHeight = 32 }, "below the minimum"},
		{"msaa", func(c *Config) { c.Renderer.MSAA = 2 }, "renderer.msaa"},
		{"fov", func(c *Config) { c.Camera.FovDegrees = 180 }, "fov_degrees"},
		{"planes", func(c *Config) { c.Camera.Far = c.Camera.Near }, "near"},
		{"workers", func(c *Config) { c.Texture.Workers = 0 }, "texture.workers"},
		{"frame limit", func(c *Config) { c.Engine.FrameLimit = -1 }, "frame_limit"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "oxycube.toml")
	require.NoError(t, os.WriteFile(path, []byte("[camera]\ndistance = 8.5\n"), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, float32(8.5), cfg.Camera.Distance)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

func TestEncodeRoundTrip(t *testing.T) {
	cfg := Default()
	cfg.Texture.Source = "bee.jpg"

	var buf bytes.Buffer
	require.NoError(t, cfg.Encode(&buf))

	got, err := Decode(&buf)
	require.NoError(t, err)
	assert.Equal(t, cfg, got)
}
