package ripple

import (
	"math/rand/v2"
)

// Default surface parameters.
const (
	// DefaultWidth and DefaultHeight are the simulation buffer size in texels.
	DefaultWidth  = 256
	DefaultHeight = 256

	// DefaultAttenuation is the velocity damping ratio applied every step.
	DefaultAttenuation = 0.95

	// DefaultStrength multiplies the strength of every drop.
	DefaultStrength = 1.0

	// DefaultDetail is the plane tessellation used by scenes that do not
	// choose one.
	DefaultDetail = 150
)

// Option configures a Surface during creation.
//
// Example:
//
//	s, err := ripple.NewSurface(dev,
//	    ripple.WithSize(512, 512),
//	    ripple.WithAttenuation(0.98),
//	)
type Option func(*surfaceOptions)

// surfaceOptions holds optional configuration for Surface creation.
type surfaceOptions struct {
	width, height int
	attenuation   float64
	strength      float64
	programs      *Programs
	rng           *rand.Rand
}

// defaultOptions returns the default surface options.
func defaultOptions() surfaceOptions {
	return surfaceOptions{
		width:       DefaultWidth,
		height:      DefaultHeight,
		attenuation: DefaultAttenuation,
		strength:    DefaultStrength,
	}
}

// WithSize sets the simulation buffer size in texels.
// NewSurface fails with ErrInvalidSize for non-positive values.
func WithSize(width, height int) Option {
	return func(o *surfaceOptions) {
		o.width = width
		o.height = height
	}
}

// WithAttenuation sets the initial attenuation ratio.
// Values above 1 are clamped, see [Surface.SetAttenuation].
func WithAttenuation(ratio float64) Option {
	return func(o *surfaceOptions) {
		o.attenuation = ratio
	}
}

// WithStrength sets the factor applied to every drop strength.
func WithStrength(scale float64) Option {
	return func(o *surfaceOptions) {
		o.strength = scale
	}
}

// WithPrograms shares drop and update programs between surfaces.
// Without it each surface builds its own.
func WithPrograms(p *Programs) Option {
	return func(o *surfaceOptions) {
		o.programs = p
	}
}

// WithRand sets the random source used by RandomDrops.
//
// Example:
//
//	// Reproducible drops:
//	s, _ := ripple.NewSurface(dev, ripple.WithRand(rand.New(rand.NewPCG(1, 2))))
func WithRand(r *rand.Rand) Option {
	return func(o *surfaceOptions) {
		o.rng = r
	}
}
