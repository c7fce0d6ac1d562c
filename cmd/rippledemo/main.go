// Command rippledemo simulates a ripple surface on the CPU and writes the
// displaced plane as PNG frames.
//
// Usage:
//
//	rippledemo -config scene.toml -frames 60 -out frames -size 512
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"

	"github.com/gogpu/ripple"
	"github.com/gogpu/ripple/host/software"
)

// surfaceName is the registry name of the demo surface.
const surfaceName = "demo"

type options struct {
	config string
	frames int
	out    string
	size   int
}

func main() {
	var (
		opts    options
		verbose bool
	)
	flag.StringVar(&opts.config, "config", "", "TOML scene file (default scene when empty)")
	flag.IntVar(&opts.frames, "frames", 60, "number of frames to render")
	flag.StringVar(&opts.out, "out", "frames", "output directory")
	flag.IntVar(&opts.size, "size", 512, "output image size in pixels")
	flag.BoolVar(&verbose, "v", false, "enable debug logging")
	flag.Parse()

	logger := newLogger(verbose)
	ripple.SetLogger(logger)

	if err := run(opts, logger); err != nil {
		logger.Error("rippledemo failed", "err", err)
		os.Exit(1)
	}
}

// newLogger installs charmbracelet/log as the slog handler.
func newLogger(verbose bool) *slog.Logger {
	level := log.InfoLevel
	if verbose {
		level = log.DebugLevel
	}
	handler := log.NewWithOptions(os.Stderr, log.Options{
		Level:           level,
		ReportTimestamp: true,
		TimeFormat:      time.Kitchen,
		Prefix:          "rippledemo",
	})
	return slog.New(handler)
}

func run(opts options, logger *slog.Logger) error {
	if opts.frames < 0 || opts.size < 1 {
		return fmt.Errorf("rippledemo: need frames >= 0 and size >= 1, got %d and %d", opts.frames, opts.size)
	}
	sc, err := loadScene(opts.config)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(opts.out, 0o755); err != nil {
		return fmt.Errorf("rippledemo: %w", err)
	}

	dev := software.New()
	sim := sc.Simulation
	reg := ripple.NewRegistry(dev,
		ripple.WithInitialDrops(sim.InitialDrops),
		ripple.WithSurfaceOptions(
			ripple.WithSize(sim.Width, sim.Height),
			ripple.WithAttenuation(sim.Attenuation),
			ripple.WithStrength(sim.Strength),
			ripple.WithRand(rand.New(rand.NewPCG(sim.Seed, sim.Seed^0x9e3779b97f4a7c15))), //nolint:gosec // reproducible scenes
		),
	)
	defer reg.Close()

	if err := reg.SetPlane(surfaceName, ripple.NewPlane(sc.Surface.Detail)); err != nil {
		return err
	}
	logger.Info("rendering",
		"frames", opts.frames, "width", sim.Width, "height", sim.Height,
		"detail", sc.Surface.Detail, "out", opts.out)

	for frame := range opts.frames {
		path, err := renderFrame(reg, dev, sc, frame, opts)
		if err != nil {
			return err
		}
		logger.Debug("frame written", "frame", frame, "path", path)
	}

	s, err := reg.Surface(surfaceName)
	if err != nil {
		return err
	}
	if s.Failed() {
		return s.Err()
	}
	stats := dev.Stats()
	logger.Info("done",
		"passes", stats.Draws, "mesh_draws", stats.MeshDraws,
		"meshes_cached", reg.Meshes().Len())
	return nil
}

// renderFrame simulates one frame the way a host layout would: inject the
// scheduled drops, show the surface, draw it, then discard the placement.
func renderFrame(reg *ripple.Registry, dev *software.Host, sc Scene, frame int, opts options) (string, error) {
	for _, d := range sc.dropsAt(frame) {
		reg.Drop(surfaceName, d.X, d.Y, d.Radius, d.Strength)
	}
	if n := sc.Surface.RandomDropsPerFrame; n > 0 {
		reg.RandomDrops(surfaceName, n)
	}

	h, err := reg.Show(surfaceName)
	if err != nil {
		return "", err
	}
	defer reg.Delete(h)

	dev.ResetFrames()
	if err := reg.Draw(h); err != nil {
		return "", err
	}
	f, ok := dev.LastFrame()
	if !ok {
		return "", fmt.Errorf("rippledemo: frame %d: nothing drawn", frame)
	}
	img, err := heightImage(f)
	if err != nil {
		return "", err
	}

	path := filepath.Join(opts.out, fmt.Sprintf("frame_%04d.png", frame))
	return path, writePNG(path, scaleImage(img, opts.size))
}
