package main

import (
	"bytes"
	"errors"
	"fmt"
	"os"

	"github.com/pelletier/go-toml/v2"

	"github.com/gogpu/ripple"
)

// Scene is the TOML scene file driving a demo run.
type Scene struct {
	Simulation Simulation    `toml:"simulation"`
	Surface    SurfaceConfig `toml:"surface"`
	Drops      []DropEvent   `toml:"drop"`
}

// Simulation configures the ripple surface.
type Simulation struct {
	Width        int     `toml:"width"`
	Height       int     `toml:"height"`
	Attenuation  float64 `toml:"attenuation"`
	Strength     float64 `toml:"strength"`
	Seed         uint64  `toml:"seed"`
	InitialDrops int     `toml:"initial_drops"`
}

// SurfaceConfig configures the plane the surface is drawn on.
type SurfaceConfig struct {
	Detail              int `toml:"detail"`
	RandomDropsPerFrame int `toml:"random_drops_per_frame"`
}

// DropEvent adds one drop before the given frame is simulated.
type DropEvent struct {
	Frame    int     `toml:"frame"`
	X        float64 `toml:"x"`
	Y        float64 `toml:"y"`
	Radius   float64 `toml:"radius"`
	Strength float64 `toml:"strength"`
}

var errInvalidScene = errors.New("rippledemo: invalid scene")

func defaultScene() Scene {
	return Scene{
		Simulation: Simulation{
			Width:        ripple.DefaultWidth,
			Height:       ripple.DefaultHeight,
			Attenuation:  ripple.DefaultAttenuation,
			Strength:     ripple.DefaultStrength,
			Seed:         1,
			InitialDrops: ripple.DefaultInitialDrops,
		},
		Surface: SurfaceConfig{
			Detail: ripple.DefaultDetail,
		},
	}
}

// loadScene reads a scene file. An empty path yields the default scene.
func loadScene(path string) (Scene, error) {
	if path == "" {
		return defaultScene(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Scene{}, fmt.Errorf("rippledemo: read scene: %w", err)
	}
	sc, err := parseScene(data)
	if err != nil {
		return Scene{}, fmt.Errorf("%s: %w", path, err)
	}
	return sc, nil
}

// parseScene decodes a scene over the defaults. Unknown keys are rejected.
func parseScene(data []byte) (Scene, error) {
	sc := defaultScene()
	dec := toml.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&sc); err != nil {
		return Scene{}, fmt.Errorf("rippledemo: decode scene: %w", err)
	}
	if err := sc.validate(); err != nil {
		return Scene{}, err
	}
	return sc, nil
}

func (sc Scene) validate() error {
	switch {
	case sc.Simulation.Width <= 0 || sc.Simulation.Height <= 0:
		return fmt.Errorf("%w: size %dx%d", errInvalidScene, sc.Simulation.Width, sc.Simulation.Height)
	case sc.Surface.Detail < 1:
		return fmt.Errorf("%w: detail %d", errInvalidScene, sc.Surface.Detail)
	case sc.Simulation.InitialDrops < 0 || sc.Surface.RandomDropsPerFrame < 0:
		return fmt.Errorf("%w: negative drop count", errInvalidScene)
	}
	for i, d := range sc.Drops {
		if d.Frame < 0 {
			return fmt.Errorf("%w: drop %d: negative frame", errInvalidScene, i)
		}
	}
	return nil
}

// dropsAt returns the drops scheduled for frame.
func (sc Scene) dropsAt(frame int) []DropEvent {
	var out []DropEvent
	for _, d := range sc.Drops {
		if d.Frame == frame {
			out = append(out, d)
		}
	}
	return out
}
