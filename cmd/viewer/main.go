// Command viewer opens a window and draws an OBJ model as a grid of lit instances.
//
// Usage:
//
//	viewer -config viewer.yaml
//
// Arrow keys or WASD orbit the camera; the mouse wheel and +/- zoom. Escape quits.
package main

import (
	"flag"
	"log/slog"
	"os"

	"github.com/Carmen-Shannon/oxy-draw/common"
)

func main() {
	configPath := flag.String("config", "viewer.yaml", "path to the viewer configuration file")
	debug := flag.Bool("debug", false, "log resource construction")
	flag.Parse()

	level := slog.LevelInfo
	if *debug {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	common.SetLogger(logger)

	cfg, err := LoadConfig(*configPath)
	if err != nil {
		logger.Error("invalid configuration", "path", *configPath, "error", err)
		os.Exit(2)
	}

	if err := run(cfg); err != nil {
		logger.Error("viewer failed", "error", err)
		os.Exit(1)
	}
}
