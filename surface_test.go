package ripple

import (
	"math/rand/v2"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gogpu/ripple/host"
)

func newTestSurface(t *testing.T, d host.Device, opts ...Option) *Surface {
	t.Helper()
	s, err := NewSurface(d, opts...)
	require.NoError(t, err)
	return s
}

func TestNewSurfaceDefaults(t *testing.T) {
	d := newFakeDevice()
	s := newTestSurface(t, d)

	w, h := s.Size()
	assert.Equal(t, DefaultWidth, w)
	assert.Equal(t, DefaultHeight, h)
	assert.InDelta(t, DefaultAttenuation, s.Attenuation(), 1e-12)
	assert.Equal(t, Idle, s.State())
	assert.Equal(t, host.NoContext, s.Epoch())
	assert.False(t, s.Failed())
	assert.Equal(t, host.TextureID(host.InvalidID), s.Texture())

	// GPU work is deferred to first use.
	assert.Empty(t, d.textures)
	assert.Empty(t, d.programs)
}

func TestNewSurfaceInvalidSize(t *testing.T) {
	for _, size := range [][2]int{{0, 256}, {256, 0}, {-1, -1}} {
		_, err := NewSurface(newFakeDevice(), WithSize(size[0], size[1]))
		assert.ErrorIs(t, err, ErrInvalidSize, "size %v", size)
	}
}

func TestSetAttenuation(t *testing.T) {
	s := newTestSurface(t, newFakeDevice())

	tests := []struct {
		in, want float64
	}{
		{1.5, 1.0},
		{1.0, 1.0},
		{0.5, 0.5},
		{0.01, 0.01},
		{0, 0},
		{-0.25, -0.25},
	}
	for _, tt := range tests {
		s.SetAttenuation(tt.in)
		assert.Equal(t, tt.want, s.Attenuation(), "SetAttenuation(%v)", tt.in)
	}
}

func TestWithAttenuationClamps(t *testing.T) {
	s := newTestSurface(t, newFakeDevice(), WithAttenuation(3))
	assert.Equal(t, 1.0, s.Attenuation())
}

func TestFirstUseBuildsResources(t *testing.T) {
	d := newFakeDevice()
	s := newTestSurface(t, d, WithSize(64, 32))

	assert.True(t, s.RefreshIfContextChanged())
	assert.False(t, s.RefreshIfContextChanged(), "second refresh in the same epoch")

	assert.Equal(t, host.ContextEpoch(1), s.Epoch())
	assert.Len(t, d.programs, 2)
	require.Len(t, d.textures, 2)
	require.Len(t, d.framebuffers, 1)

	for _, desc := range d.textures {
		assert.Equal(t, 64, desc.Width)
		assert.Equal(t, 32, desc.Height)
		assert.Equal(t, host.TextureFormatRGBA16Float, desc.Format)
		assert.Equal(t, host.AddressClampToEdge, desc.Address)
		assert.Equal(t, host.FilterLinear, desc.MinFilter)
		assert.Equal(t, host.FilterLinear, desc.MagFilter)
	}
	for _, atts := range d.framebuffers {
		assert.Len(t, atts, 2)
		assert.NotEqual(t, atts[0], atts[1])
	}
	assert.Equal(t, Idle, s.State())
	assert.Empty(t, d.commands, "building issues no draw commands")
}

func TestDropCommands(t *testing.T) {
	d := newFakeDevice()
	s := newTestSurface(t, d, WithStrength(2))

	s.Drop(0.5, -0.25, 3, 1)

	// Programs get IDs 1 and 2, textures 3 and 4, the framebuffer 5.
	assert.Equal(t, []string{
		"program 1",
		"uniform 0 [0.5 -0.25]",
		"uniform 1 [3]",
		"uniform 2 [2]",
		"target 0",
		"texture 0 4",
		"draw",
		"release",
	}, d.commands)
	assert.Equal(t, UsingPing, s.State())
}

func TestAdvanceCommands(t *testing.T) {
	d := newFakeDevice()
	s := newTestSurface(t, d)
	s.Drop(0, 0, 1, 1)
	d.resetCommands()

	s.Advance()

	assert.Equal(t, []string{
		"program 2",
		"uniform 0 [0.00390625 0.00390625]",
		"uniform 1 [0.95]",
		"target 1",
		"texture 0 3",
		"draw",
		"release",
	}, d.commands)
	assert.Equal(t, UsingPong, s.State())
}

func TestPassStateAlternates(t *testing.T) {
	d := newFakeDevice()
	s := newTestSurface(t, d)
	rng := rand.New(rand.NewPCG(7, 11))

	want := UsingPing
	for i := range 40 {
		if rng.IntN(2) == 0 {
			s.Drop(rng.Float64()*2-1, rng.Float64()*2-1, 5, 1)
		} else {
			s.Advance()
		}
		require.Equal(t, want, s.State(), "after call %d", i)
		want = want.Next()
	}

	require.Len(t, d.written, 40)
	for i := 1; i < len(d.written); i++ {
		assert.NotEqual(t, d.written[i-1], d.written[i], "write target repeated at pass %d", i)
	}
}

func TestDropThenAdvanceThenDraw(t *testing.T) {
	d := newFakeDevice()
	s := newTestSurface(t, d, WithSize(256, 256))

	s.Drop(0, 0, 1.0, 1.0)
	assert.Equal(t, UsingPing, s.State())
	s.Advance()
	assert.Equal(t, UsingPong, s.State())

	d.resetCommands()
	s.Draw()

	last := d.written[len(d.written)-1]
	assert.Equal(t, last, d.units[0], "draw binds the buffer written by the last advance")
	assert.Equal(t, last, s.Texture())
	assert.Equal(t, []string{
		"texture 0 " + strconv.FormatUint(uint64(last), 10),
		"filter " + strconv.FormatUint(uint64(last), 10) + " linear linear",
	}, d.commands)
}

func TestDrawWhenIdleBindsSecondBuffer(t *testing.T) {
	d := newFakeDevice()
	s := newTestSurface(t, d)

	s.Draw()

	var fb []host.TextureID
	for _, atts := range d.framebuffers {
		fb = atts
	}
	require.Len(t, fb, 2)
	assert.Equal(t, fb[1], d.units[0])
	assert.Equal(t, Idle, s.State())
}

func TestContextChangeRebuilds(t *testing.T) {
	d := newFakeDevice()
	s := newTestSurface(t, d)

	s.Drop(0, 0, 4, 1)
	s.Advance()
	s.Drop(0.5, 0.5, 4, 1)
	require.Equal(t, UsingPing, s.State())

	d.loseContext()
	assert.True(t, s.RefreshIfContextChanged())
	assert.Equal(t, Idle, s.State())
	assert.Equal(t, host.ContextEpoch(2), s.Epoch())
	assert.Len(t, d.textures, 2)
	assert.Len(t, d.framebuffers, 1)
	assert.Len(t, d.programs, 2)

	s.Advance()
	assert.Equal(t, UsingPing, s.State())
}

func TestContextChangeResetsStateOnNextOperation(t *testing.T) {
	d := newFakeDevice()
	s := newTestSurface(t, d)
	s.Drop(0, 0, 4, 1)
	s.Advance()
	require.Equal(t, UsingPong, s.State())

	d.loseContext()
	s.Drop(0, 0, 4, 1)

	// Rebuilt to Idle, then one pass.
	assert.Equal(t, UsingPing, s.State())
	assert.Equal(t, host.ContextEpoch(2), s.Epoch())
}

func TestNoContextIsNoop(t *testing.T) {
	d := newFakeDevice()
	d.epoch = host.NoContext
	s := newTestSurface(t, d)

	assert.False(t, s.RefreshIfContextChanged())
	s.Drop(0, 0, 4, 1)
	s.Advance()
	s.Draw()

	assert.Empty(t, d.commands)
	assert.False(t, s.Failed())
	assert.Equal(t, Idle, s.State())
}

func TestInsufficientColorAttachments(t *testing.T) {
	d := newFakeDevice()
	d.maxAttachments = 1
	s := newTestSurface(t, d)

	s.Drop(0, 0, 4, 1)
	s.Advance()
	s.Draw()
	s.RandomDrops(5)

	assert.True(t, s.Failed())
	assert.ErrorIs(t, s.Err(), ErrInsufficientColorAttachments)
	assert.Empty(t, d.commands, "a failed surface issues no commands")
	assert.Empty(t, d.textures)
	assert.Empty(t, d.framebuffers)
	assert.Equal(t, Idle, s.State())
}

func TestMissingCapability(t *testing.T) {
	for _, c := range []host.Capability{host.CapFloatRenderTarget, host.CapVertexTextureFetch} {
		t.Run(string(c), func(t *testing.T) {
			d := newFakeDevice()
			d.caps[c] = false
			s := newTestSurface(t, d)

			s.Drop(0, 0, 4, 1)

			assert.ErrorIs(t, s.Err(), ErrMissingCapability)
			assert.Contains(t, s.Err().Error(), string(c))
			assert.Empty(t, d.commands)
			assert.Empty(t, d.textures)
		})
	}
}

func TestProgramFailureIsStickyPerEpoch(t *testing.T) {
	d := newFakeDevice()
	d.failProgram = errFake
	p := NewPrograms()
	s := newTestSurface(t, d, WithPrograms(p))

	s.Drop(0, 0, 4, 1)
	require.True(t, s.Failed())
	assert.ErrorIs(t, s.Err(), ErrProgramBuild)
	assert.ErrorIs(t, s.Err(), errFake)
	assert.Equal(t, 1, p.Builds())

	// Same epoch: the failure persists even though the device recovered.
	d.failProgram = nil
	s.Drop(0, 0, 4, 1)
	s.Advance()
	assert.True(t, s.Failed())
	assert.Equal(t, 1, p.Builds())
	assert.Empty(t, d.commands)

	d.loseContext()
	s.Drop(0, 0, 4, 1)
	assert.False(t, s.Failed())
	assert.NoError(t, s.Err())
	assert.Equal(t, 2, p.Builds())
	assert.Equal(t, UsingPing, s.State())
}

func TestFramebufferIncomplete(t *testing.T) {
	d := newFakeDevice()
	d.failFramebuffer = host.ErrIncompleteFramebuffer
	s := newTestSurface(t, d)

	s.Advance()

	assert.ErrorIs(t, s.Err(), ErrFramebufferIncomplete)
	assert.ErrorIs(t, s.Err(), host.ErrIncompleteFramebuffer)
	assert.Empty(t, d.commands)
}

func TestPassFailure(t *testing.T) {
	d := newFakeDevice()
	d.failDraw = errFake
	s := newTestSurface(t, d)

	s.Drop(0, 0, 4, 1)

	assert.ErrorIs(t, s.Err(), ErrPassFailed)
	assert.Equal(t, Idle, s.State(), "a failed pass does not flip the state")

	d.resetCommands()
	s.Advance()
	assert.Empty(t, d.commands)
}

func TestDropNonPositiveRadiusIsNoop(t *testing.T) {
	d := newFakeDevice()
	s := newTestSurface(t, d)

	s.Drop(0, 0, 0, 1)
	s.Drop(0, 0, -3, 1)

	assert.Empty(t, d.commands)
	assert.Equal(t, Idle, s.State())
	assert.False(t, s.Failed())
}

func TestRandomDrops(t *testing.T) {
	d := newFakeDevice()
	s := newTestSurface(t, d, WithRand(rand.New(rand.NewPCG(1, 2))))

	s.RandomDrops(4)

	var radii, strengths []string
	for _, c := range d.commands {
		switch {
		case strings.HasPrefix(c, "uniform 1 "):
			radii = append(radii, strings.TrimPrefix(c, "uniform 1 "))
		case strings.HasPrefix(c, "uniform 2 "):
			strengths = append(strengths, strings.TrimPrefix(c, "uniform 2 "))
		}
	}
	assert.Equal(t, []string{"[1]", "[1]", "[1]", "[1]"}, radii)
	assert.Equal(t, []string{"[-1]", "[1]", "[-1]", "[1]"}, strengths)
	assert.Equal(t, UsingPong, s.State())
}

func TestResize(t *testing.T) {
	d := newFakeDevice()
	s := newTestSurface(t, d)
	s.Drop(0, 0, 4, 1)

	assert.ErrorIs(t, s.Resize(0, 10), ErrInvalidSize)
	require.NoError(t, s.Resize(64, 48))

	w, h := s.Size()
	assert.Equal(t, 64, w)
	assert.Equal(t, 48, h)
	assert.Empty(t, d.textures, "old buffers are released")
	assert.Equal(t, Idle, s.State())

	s.Advance()
	require.Len(t, d.textures, 2)
	for _, desc := range d.textures {
		assert.Equal(t, 64, desc.Width)
		assert.Equal(t, 48, desc.Height)
	}
}

func TestRelease(t *testing.T) {
	d := newFakeDevice()
	s := newTestSurface(t, d)
	s.Drop(0, 0, 4, 1)

	s.Release()

	assert.Empty(t, d.textures)
	assert.Empty(t, d.framebuffers)
	assert.Len(t, d.programs, 2, "shared programs outlive the surface")
	assert.Equal(t, Idle, s.State())
	assert.Equal(t, host.NoContext, s.Epoch())

	s.Drop(0, 0, 4, 1)
	assert.Len(t, d.textures, 2)
	assert.Equal(t, UsingPing, s.State())
}

func TestSharedPrograms(t *testing.T) {
	d := newFakeDevice()
	p := NewPrograms()
	a := newTestSurface(t, d, WithPrograms(p))
	b := newTestSurface(t, d, WithPrograms(p))

	a.Drop(0, 0, 4, 1)
	b.Drop(0, 0, 4, 1)

	assert.Equal(t, 1, p.Builds())
	assert.Len(t, d.programs, 2)
	assert.Len(t, d.textures, 4)
}

func TestNewSurfacePropagatesLogger(t *testing.T) {
	d := newFakeDevice()
	newTestSurface(t, d)
	assert.Same(t, Logger(), d.logger)
}
