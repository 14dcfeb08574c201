package main

import (
	"github.com/Carmen-Shannon/oxy-cube/engine/camera"
	"github.com/Carmen-Shannon/oxy-cube/engine/config"
	"github.com/Carmen-Shannon/oxy-cube/engine/renderer"
	"github.com/Carmen-Shannon/oxy-cube/engine/renderer/gpu"
	"github.com/Carmen-Shannon/oxy-cube/engine/window"
)

func clientAPI(backendType renderer.RendererBackendType) window.ClientAPI {
	if backendType == renderer.BackendTypeWGPU {
		return window.ClientAPINone
	}
	return window.ClientAPIOpenGL
}

func presentMode(vsync bool) gpu.PresentMode {
	if vsync {
		return gpu.PresentModeVSync
	}
	return gpu.PresentModeUncapped
}

func windowOptions(cfg config.Config, backendType renderer.RendererBackendType) []window.WindowBuilderOption {
	return []window.WindowBuilderOption{
		window.WithTitle(cfg.Window.Title),
		window.WithSize(cfg.Window.Width, cfg.Window.Height),
		window.WithSizeLimits(sizeLimits(cfg.Window)),
		window.WithClientAPI(clientAPI(backendType)),
	}
}

func sizeLimits(w config.WindowConfig) window.SizeLimits {
	return window.SizeLimits{
		MinWidth:  w.MinWidth,
		MinHeight: w.MinHeight,
		MaxWidth:  w.MaxWidth,
		MaxHeight: w.MaxHeight,
	}
}

func rendererOptions(cfg config.Config, backendType renderer.RendererBackendType) []renderer.RendererBuilderOption {
	clearState := gpu.DefaultClearState()
	clearState.Color = cfg.Renderer.ClearColor

	return []renderer.RendererBuilderOption{
		renderer.WithBackendType(backendType),
		renderer.WithPresentMode(presentMode(cfg.Renderer.VSync)),
		renderer.WithMSAA(gpu.MSAASampleCount(cfg.Renderer.MSAA)),
		renderer.WithForceSoftwareRenderer(cfg.Renderer.ForceSoftware),
		renderer.WithClearState(clearState),
		renderer.WithTextureSource(cfg.Texture.Source),
		renderer.WithTextureWorkers(cfg.Texture.Workers),
		renderer.WithCamera(camera.NewCamera(
			camera.WithFovDegrees(cfg.Camera.FovDegrees),
			camera.WithNear(cfg.Camera.Near),
			camera.WithFar(cfg.Camera.Far),
			camera.WithDistance(cfg.Camera.Distance),
		)),
	}
}
