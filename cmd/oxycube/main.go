// Command oxycube opens a window and draws a textured, lit cube tumbling about two axes.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	"github.com/Carmen-Shannon/oxy-cube/common"
	"github.com/Carmen-Shannon/oxy-cube/engine"
	"github.com/Carmen-Shannon/oxy-cube/engine/config"
	"github.com/Carmen-Shannon/oxy-cube/engine/renderer"
	"github.com/Carmen-Shannon/oxy-cube/engine/window"
)

func init() {
	// glfw must be driven from the main OS thread.
	runtime.LockOSThread()
}

func main() {
	if err := run(os.Args[1:]); err != nil {
		common.LogError("%v", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	cfg, err := loadConfig(args)
	if err != nil {
		return err
	}
	if err := common.SetLogLevel(cfg.Log.Level); err != nil {
		return fmt.Errorf("log level %q: %w", cfg.Log.Level, err)
	}

	backendType, err := renderer.ParseBackendType(cfg.Renderer.Backend)
	if err != nil {
		return err
	}

	win, err := window.NewWindow(windowOptions(cfg, backendType)...)
	if err != nil {
		return err
	}
	defer func() {
		if err := win.Close(); err != nil {
			common.LogWarn("closing window: %v", err)
		}
	}()

	r := renderer.NewRenderer(win, rendererOptions(cfg, backendType)...)

	eng := engine.NewEngine(
		engine.WithWindow(win),
		engine.WithRenderer(r),
		engine.WithProfiling(cfg.Engine.Profiling),
		engine.WithRenderFrameLimit(float64(cfg.Engine.FrameLimit)),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	common.LogInfo("starting renderer %s on %s", r.ID(), backendType)
	return eng.Run(ctx)
}

// loadConfig parses the flags, loads the config file they name and applies flag overrides.
func loadConfig(args []string) (config.Config, error) {
	fs := flag.NewFlagSet("oxycube", flag.ContinueOnError)
	configPath := fs.String("config", "", "path to a TOML config file")
	backend := fs.String("backend", "", "rendering backend: gl or wgpu")
	texture := fs.String("texture", "", "texture image path or http(s) URL")
	logLevel := fs.String("log-level", "", "log level: debug, info, warn, error")
	if err := fs.Parse(args); err != nil {
		return config.Config{}, err
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		return config.Config{}, err
	}
	cfg.Renderer.Backend = common.Coalesce(*backend, cfg.Renderer.Backend)
	cfg.Texture.Source = common.Coalesce(*texture, cfg.Texture.Source)
	cfg.Log.Level = common.Coalesce(*logLevel, cfg.Log.Level)
	if err := cfg.Validate(); err != nil {
		return config.Config{}, err
	}
	return cfg, nil
}
