// Package main is the interactive scene viewer.
package main

import (
	"context"
	_ "embed"
	"flag"
	"fmt"
	gomath "math"
	"os"
	"os/signal"

	"github.com/veandco/go-sdl2/sdl"
	"go.uber.org/zap"

	"github.com/Faultbox/trellis/internal/config"
	"github.com/Faultbox/trellis/internal/engine/camera"
	"github.com/Faultbox/trellis/internal/engine/director"
	"github.com/Faultbox/trellis/internal/engine/renderer"
	"github.com/Faultbox/trellis/internal/engine/renderer/gldevice"
	"github.com/Faultbox/trellis/internal/engine/scene"
	"github.com/Faultbox/trellis/internal/engine/window"
	"github.com/Faultbox/trellis/internal/logger"
	"github.com/Faultbox/trellis/internal/scenefile"
)

//go:embed demo.yaml
var demoScene []byte

func main() {
	// Parse CLI flags first
	config.ParseFlags()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Config error: %v\n", err)
		os.Exit(1)
	}

	if err := logger.Init(cfg.Logging.Level, cfg.Logging.LogFile); err != nil {
		fmt.Fprintf(os.Stderr, "Logger error: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("=== trellis viewer ===")
	logger.Sugar.Debugf("Config: %+v", cfg)

	if err := run(cfg, flag.Arg(0)); err != nil {
		logger.Error("viewer error", zap.Error(err))
		os.Exit(1)
	}
	logger.Info("viewer closed normally")
}

func run(cfg *config.Config, scenePath string) error {
	file, err := loadScene(scenePath)
	if err != nil {
		return err
	}

	win, err := window.New(cfg.Window)
	if err != nil {
		return err
	}
	defer win.Close()

	width, height := win.Size()
	dev, err := gldevice.New(gldevice.Options{
		Width:            width,
		Height:           height,
		Shadows:          cfg.Render.Shadows,
		ShadowResolution: cfg.Render.ShadowResolution,
	})
	if err != nil {
		return fmt.Errorf("opengl device: %w", err)
	}
	defer dev.Close()

	lens := camera.LensByName(cfg.Camera.Lens, cfg.Camera.Focus, cfg.Camera.Zoom)
	cam := camera.New(lens)
	cam.SetPerspective(cfg.Render.FieldOfView*gomath.Pi/180, cfg.Render.Near, cfg.Render.Far)
	cam.SetViewport(float32(width), float32(height))

	s := scene.New(renderer.New(dev), cam, scene.OptionsFromConfig(cfg.Render))
	defer s.Close()

	if file.Animation == nil {
		file.Animation = &scenefile.AnimationDesc{FPS: cfg.Animation.FramesPerSecond, Loop: cfg.Animation.Loop}
	}
	res, err := file.Build(s)
	if err != nil {
		return fmt.Errorf("building scene: %w", err)
	}

	var orbit *camera.OrbitController
	switch ctl := cam.Controller().(type) {
	case *camera.SpringController:
		ctl.Stiffness = cfg.Camera.Stiffness
		ctl.Damping = cfg.Camera.Damping
		ctl.RealTime = cfg.Camera.RealTimeSpring
	case nil:
		orbit = camera.NewOrbit()
		cam.SetController(orbit)
	}

	d := director.New(s)
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	fitted := false
	return d.Run(ctx, func() bool {
		win.SwapBuffers()
		if orbit != nil && !fitted {
			if b, ok := s.Bounds(); ok {
				orbit.FitToBounds(b)
				fitted = true
			}
		}
		if !win.Poll() {
			return false
		}
		return handleEvents(win, dev, s, orbit, res)
	})
}

func loadScene(path string) (*scenefile.File, error) {
	if path == "" {
		logger.Info("no scene file given, using the built-in demo")
		return scenefile.Parse(demoScene)
	}
	return scenefile.Load(path)
}

// handleEvents applies viewer controls. It returns false to quit.
func handleEvents(win *window.Window, dev *gldevice.Device, s *scene.Scene, orbit *camera.OrbitController, res *scenefile.Result) bool {
	for _, e := range win.Events() {
		switch e.Type {
		case window.EventResize:
			w, h := win.Size()
			dev.Resize(w, h)
			s.Camera().SetViewport(float32(w), float32(h))
		case window.EventMouseMove:
			if orbit != nil && e.Buttons&sdl.ButtonLMask() != 0 {
				orbit.HandleDrag(e.DX, e.DY)
			}
		case window.EventMouseWheel:
			if orbit != nil {
				orbit.HandleZoom(e.DY)
			}
		case window.EventKeyDown:
			switch e.Key {
			case sdl.SCANCODE_ESCAPE:
				return false
			case sdl.SCANCODE_SPACE:
				for _, p := range res.Players {
					if p.Playing() {
						p.Pause()
					} else {
						p.Play()
					}
				}
			case sdl.SCANCODE_O:
				o := s.Options()
				o.OcclusionTesting = !o.OcclusionTesting
				s.SetOptions(o)
				logger.Info("occlusion testing", zap.Bool("enabled", o.OcclusionTesting))
			case sdl.SCANCODE_F2:
				o := s.Options()
				o.Shadows = !o.Shadows
				s.SetOptions(o)
				logger.Info("shadows", zap.Bool("enabled", o.Shadows))
			case sdl.SCANCODE_F3:
				fmt.Println(s.Root())
				logger.Info("frame", zap.Stringer("stats", s.Renderer().Stats()), zap.Strings("order", s.DrawOrder()))
			}
		}
	}
	return true
}
