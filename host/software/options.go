package software

import "github.com/gogpu/ripple/host"

// Option configures a Host.
type Option func(*config)

type config struct {
	maxColorAttachments int
	caps                map[host.Capability]bool
}

func defaultConfig() config {
	return config{
		maxColorAttachments: 8,
		caps: map[host.Capability]bool{
			host.CapFloatRenderTarget:  true,
			host.CapVertexTextureFetch: true,
		},
	}
}

// WithMaxColorAttachments sets the reported color attachment limit.
// Framebuffers with more attachments are incomplete.
func WithMaxColorAttachments(n int) Option {
	return func(c *config) {
		c.maxColorAttachments = n
	}
}

// WithCapability enables or disables a capability.
func WithCapability(capability host.Capability, enabled bool) Option {
	return func(c *config) {
		c.caps[capability] = enabled
	}
}
