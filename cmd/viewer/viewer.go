package main

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/Carmen-Shannon/oxy-draw/common"
	"github.com/Carmen-Shannon/oxy-draw/engine/camera"
	"github.com/Carmen-Shannon/oxy-draw/engine/gpu"
	"github.com/Carmen-Shannon/oxy-draw/engine/light"
	"github.com/Carmen-Shannon/oxy-draw/engine/model"
	"github.com/Carmen-Shannon/oxy-draw/engine/profiler"
	"github.com/Carmen-Shannon/oxy-draw/engine/renderer"
	"github.com/Carmen-Shannon/oxy-draw/engine/texture"
	"github.com/Carmen-Shannon/oxy-draw/engine/window"
	"github.com/chewxy/math32"
	"github.com/cogentcore/webgpu/wgpu"
)

// viewer owns every resource of a running session. Fields are only touched from the
// window thread.
type viewer struct {
	win      window.Window
	backend  gpu.WGPUBackend
	depth    *texture.Texture
	camera   camera.Camera
	light    light.Light
	renderer *renderer.ModelRenderer

	instanceBuffer *wgpu.Buffer
	instances      renderer.Range
	profiler       *profiler.Profiler

	// err is the first frame error; it stops the message loop.
	err error
}

// run builds the session described by cfg and blocks until the window closes.
func run(cfg Config) error {
	v := &viewer{}
	defer v.release()
	if err := v.init(cfg); err != nil {
		return err
	}

	v.win.SetResizeCallback(v.resize)
	v.win.SetScrollCallback(func(delta float32) {
		v.camera.Controller().Zoom(delta)
	})
	v.win.SetKeyDownCallback(v.keyDown)
	// Input callbacks run inside event polling, where the window must not be destroyed,
	// so failures are recorded there and acted on here.
	v.win.SetUpdateCallback(func() {
		if v.err == nil {
			v.err = v.frame()
		}
		if v.err != nil {
			v.closeWindow()
		}
	})
	v.win.ProcessMessages()
	return v.err
}

func (v *viewer) init(cfg Config) error {
	var err error
	v.win, err = window.NewWindow(
		window.WithTitle(cfg.Window.Title),
		window.WithSize(cfg.Window.Width, cfg.Window.Height),
	)
	if err != nil {
		return err
	}

	v.backend, err = gpu.NewWGPUBackend(v.win.SurfaceDescriptor(), false)
	if err != nil {
		return err
	}
	v.backend.SetVSync(*cfg.VSync)

	width, height := v.win.Size()
	format, err := v.backend.ConfigureSurface(width, height)
	if err != nil {
		return err
	}
	if v.depth, err = texture.CreateDepthTexture(v.backend, width, height); err != nil {
		return err
	}

	radius, azimuth, elevation := cfg.Camera.Orbit()
	v.camera, err = camera.NewCamera(v.backend,
		camera.WithFov(cfg.Camera.Fov*math32.Pi/180),
		camera.WithAspect(float32(width)/float32(height)),
		camera.WithController(camera.NewCameraController(
			camera.WithTarget(cfg.Camera.Target),
			camera.WithRadius(radius),
			camera.WithAzimuth(azimuth),
			camera.WithElevation(elevation),
		)),
	)
	if err != nil {
		return err
	}

	v.light, err = light.NewLight(v.backend,
		light.WithPosition(cfg.Light.Position),
		light.WithColor(cfg.Light.Color),
		light.WithIntensity(cfg.Light.Intensity),
	)
	if err != nil {
		return err
	}

	source := renderer.DefaultShaderSource
	if cfg.Shader != "" {
		data, err := os.ReadFile(cfg.Shader)
		if err != nil {
			return fmt.Errorf("failed to read shader: %w", err)
		}
		source = string(data)
	}

	m, err := model.Load(v.backend, cfg.Asset, model.WithMissingMaterialPolicy(cfg.Policy()))
	if err != nil {
		return err
	}
	v.renderer, err = renderer.NewModelRenderer(v.backend, format, v.camera, v.light, source, m)
	if err != nil {
		m.Release()
		return err
	}

	instances := cfg.Instances.Grid()
	v.instanceBuffer, err = model.NewInstanceBuffer(v.backend, "Instance Buffer", instances)
	if err != nil {
		return err
	}
	v.instances = renderer.Range{Start: 0, End: uint32(len(instances))}

	if cfg.Profile {
		v.profiler = profiler.NewProfiler(time.Second)
	}
	common.Logger().Info("viewer ready", "asset", cfg.Asset, "meshes", len(m.Meshes), "materials", len(m.Materials), "instances", len(instances))
	return nil
}

// frame uploads the uniforms, records one pass and presents it. A surface that cannot be
// acquired skips the frame.
func (v *viewer) frame() error {
	if err := v.camera.Update(); err != nil {
		return err
	}
	if err := v.light.Update(); err != nil {
		return err
	}

	pass, err := v.backend.BeginFrame(v.depth.View)
	if err != nil {
		common.Logger().Debug("frame skipped", "error", err)
		return nil
	}
	ctx := renderer.NewDrawContext(renderer.WrapRenderPass(pass))
	ctx.SetInstanceBuffer(v.instanceBuffer)
	drawErr := v.renderer.Draw(ctx, v.instances)

	if err := v.backend.EndFrame(); err != nil {
		return err
	}
	v.backend.Present()

	if v.profiler != nil {
		v.profiler.Tick()
	}
	return drawErr
}

// resize reconfigures the surface, replaces the depth attachment and updates the aspect.
// A failure stops the viewer on the next update.
func (v *viewer) resize(width, height int) {
	if _, err := v.backend.ConfigureSurface(width, height); err != nil {
		v.err = err
		return
	}
	depth, err := texture.CreateDepthTexture(v.backend, width, height)
	if err != nil {
		v.err = err
		return
	}
	v.depth.Release()
	v.depth = depth
	v.camera.SetAspect(float32(width) / float32(height))
}

func (v *viewer) keyDown(key window.Key) {
	ctrl := v.camera.Controller()
	switch key {
	case window.KeyLeft, window.KeyA:
		ctrl.Orbit(-1, 0)
	case window.KeyRight, window.KeyD:
		ctrl.Orbit(1, 0)
	case window.KeyUp, window.KeyW:
		ctrl.Orbit(0, 1)
	case window.KeyDown, window.KeyS:
		ctrl.Orbit(0, -1)
	case window.KeyEqual:
		ctrl.Zoom(1)
	case window.KeyMinus:
		ctrl.Zoom(-1)
	}
}

// release frees everything init created, in reverse order. Nil fields are skipped.
func (v *viewer) release() {
	if v.instanceBuffer != nil {
		v.backend.Release(v.instanceBuffer)
	}
	if v.renderer != nil {
		v.renderer.Release()
	}
	if v.light != nil {
		v.light.Release()
	}
	if v.camera != nil {
		v.camera.Release()
	}
	if v.depth != nil {
		v.depth.Release()
	}
	if v.backend != nil {
		v.backend.Destroy()
	}
	if v.win != nil {
		v.closeWindow()
	}
}

// closeWindow closes the window. Closing it twice is expected once the frame loop has failed.
func (v *viewer) closeWindow() {
	if err := v.win.Close(); err != nil && !errors.Is(err, window.ErrClosed) {
		common.Logger().Warn("window close failed", "error", err)
	}
}
