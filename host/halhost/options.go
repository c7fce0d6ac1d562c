package halhost

import "github.com/gogpu/gputypes"

// Option configures a Host.
type Option func(*options)

type options struct {
	spirv  bool
	limits gputypes.Limits
}

func defaultOptions() options {
	return options{limits: gputypes.DefaultLimits()}
}

// WithSPIRV compiles WGSL to SPIR-V with naga before creating shader
// modules.
func WithSPIRV() Option {
	return func(o *options) {
		o.spirv = true
	}
}

// WithLimits sets the limits the device was opened with. The default is
// gputypes.DefaultLimits.
func WithLimits(l gputypes.Limits) Option {
	return func(o *options) {
		o.limits = l
	}
}
