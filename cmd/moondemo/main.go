// Command moondemo opens a window and renders one of the built-in scenes.
//
// Usage:
//
//	moondemo [-config moon.yaml] [-scene triangle|quad] [-backend name] [-frames n] [-headless]
//
// Flags override values from the config file.
package main

import (
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/gogpu/moon"

	_ "github.com/gogpu/wgpu/hal/allbackends"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "moondemo:", err)
		os.Exit(1)
	}
}

func run() error {
	var (
		configPath = flag.String("config", "", "YAML config file")
		scene      = flag.String("scene", "", "scene to render: triangle or quad")
		backend    = flag.String("backend", "", "HAL backend (dx12, vulkan, metal, gl, software)")
		frames     = flag.Int("frames", -1, "stop after n frames (0 runs until closed)")
		headless   = flag.Bool("headless", false, "render without a window")
		texture    = flag.String("texture", "", "texture for the quad scene (TGA, PNG, JPEG, ...)")
		verbose    = flag.Bool("v", false, "debug logging")
	)
	flag.Parse()

	cfg := moon.DefaultConfig()
	if *configPath != "" {
		var err error
		if cfg, err = moon.LoadConfig(*configPath); err != nil {
			return err
		}
	}
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "scene":
			cfg.Scene = *scene
		case "backend":
			cfg.Backend = *backend
		case "frames":
			cfg.Frames = *frames
		case "headless":
			cfg.Headless = *headless
		case "texture":
			cfg.Texture = *texture
		case "v":
			if *verbose {
				cfg.LogLevel = "debug"
			}
		}
	})
	if err := cfg.Validate(); err != nil {
		return err
	}

	level, _ := cfg.Level()
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	moon.SetLogger(logger)

	app, err := moon.NewApp(cfg.AppConfig())
	if errors.Is(err, moon.ErrNoWindow) {
		logger.Warn("no native window on this OS, rendering headless with the software backend")
		cfg.Headless = true
		cfg.Backend = "software"
		if cfg.Frames == 0 {
			cfg.Frames = 60
		}
		app, err = moon.NewApp(cfg.AppConfig())
	}
	if err != nil {
		return err
	}
	defer app.Close()

	s, err := newScene(app.Context(), cfg)
	if err != nil {
		return err
	}
	defer s.Destroy()

	app.SetUpdate(s.Update)
	app.SetRender(s.Render)
	if err := app.Run(); err != nil {
		return err
	}
	logger.Info("moondemo: done", "frames", app.Context().Frames())
	return nil
}
