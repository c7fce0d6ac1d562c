package ripple

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gogpu/ripple/host"
	"github.com/gogpu/ripple/host/software"
	"github.com/gogpu/ripple/mesh"
)

func countCommands(d *fakeDevice, prefix string) int {
	n := 0
	for _, c := range d.commands {
		if strings.HasPrefix(c, prefix) {
			n++
		}
	}
	return n
}

func TestRegistrySurfaceGetOrCreate(t *testing.T) {
	r := NewRegistry(newFakeDevice(), WithInitialDrops(0))
	t.Cleanup(func() { r.Close() })

	a, err := r.Surface("pond")
	require.NoError(t, err)
	b, err := r.Surface("pond")
	require.NoError(t, err)
	c, err := r.Surface("lake")
	require.NoError(t, err)

	assert.Same(t, a, b)
	assert.NotSame(t, a, c)
	assert.Equal(t, []string{"lake", "pond"}, r.Names())
}

func TestRegistryNamesAreNormalized(t *testing.T) {
	r := NewRegistry(newFakeDevice(), WithInitialDrops(0))
	t.Cleanup(func() { r.Close() })

	composed, err := r.Surface("caf\u00e9")
	require.NoError(t, err)
	decomposed, err := r.Surface("cafe\u0301")
	require.NoError(t, err)

	assert.Same(t, composed, decomposed)
	assert.Equal(t, []string{"caf\u00e9"}, r.Names())
	assert.True(t, r.Remove("cafe\u0301"))
	assert.Empty(t, r.Names())
}

func TestRegistryInitialDrops(t *testing.T) {
	d := newFakeDevice()
	r := NewRegistry(d)
	t.Cleanup(func() { r.Close() })

	s, err := r.Surface("pond")
	require.NoError(t, err)

	assert.Equal(t, DefaultInitialDrops, countCommands(d, "draw"))
	assert.Equal(t, UsingPong, s.State())
}

func TestRegistrySurfaceOptions(t *testing.T) {
	r := NewRegistry(newFakeDevice(),
		WithInitialDrops(0),
		WithSurfaceOptions(WithSize(32, 16), WithAttenuation(0.5)),
	)
	t.Cleanup(func() { r.Close() })

	s, err := r.Surface("pond")
	require.NoError(t, err)

	w, h := s.Size()
	assert.Equal(t, 32, w)
	assert.Equal(t, 16, h)
	assert.Equal(t, 0.5, s.Attenuation())
}

func TestRegistryInvalidSurfaceOptions(t *testing.T) {
	r := NewRegistry(newFakeDevice(), WithSurfaceOptions(WithSize(0, 0)))
	t.Cleanup(func() { r.Close() })

	_, err := r.Surface("pond")
	assert.ErrorIs(t, err, ErrInvalidSize)
	assert.False(t, r.Drop("pond", 0, 0, 1, 1))
	assert.Empty(t, r.Names())
}

func TestRegistrySharesPrograms(t *testing.T) {
	d := newFakeDevice()
	r := NewRegistry(d, WithInitialDrops(1))
	t.Cleanup(func() { r.Close() })

	_, err := r.Surface("a")
	require.NoError(t, err)
	_, err = r.Surface("b")
	require.NoError(t, err)

	assert.Equal(t, 1, r.Programs().Builds())
	assert.Len(t, d.programs, 2)
	assert.Len(t, d.textures, 4)
}

func TestRegistryShowAndDraw(t *testing.T) {
	d := newFakeDevice()
	r := NewRegistry(d, WithInitialDrops(0))
	t.Cleanup(func() { r.Close() })

	h, err := r.Show("pond")
	require.NoError(t, err)
	s, _ := r.Surface("pond")
	assert.Equal(t, UsingPing, s.State(), "show advances once")

	d.resetCommands()
	require.NoError(t, r.Draw(h))
	assert.Equal(t, s.Texture(), d.units[0])
	assert.Zero(t, countCommands(d, "mesh"), "no plane attached")

	err = r.Draw(Handle{})
	assert.ErrorIs(t, err, ErrUnknownHandle)
}

func TestRegistryHandlesAreUnique(t *testing.T) {
	r := NewRegistry(newFakeDevice(), WithInitialDrops(0))
	t.Cleanup(func() { r.Close() })

	a, err := r.Show("pond")
	require.NoError(t, err)
	b, err := r.Show("pond")
	require.NoError(t, err)

	assert.NotEqual(t, a, b)
	parsed, err := ParseHandle(a.String())
	require.NoError(t, err)
	assert.Equal(t, a, parsed)

	_, err = ParseHandle("not-a-handle")
	assert.Error(t, err)
}

func TestRegistryDeleteForgetsHandle(t *testing.T) {
	d := newFakeDevice()
	r := NewRegistry(d, WithInitialDrops(0))
	t.Cleanup(func() { r.Close() })

	a, err := r.Show("pond")
	require.NoError(t, err)
	b, err := r.Show("pond")
	require.NoError(t, err)
	s, _ := r.Surface("pond")
	require.Equal(t, UsingPong, s.State())

	require.NoError(t, r.Delete(a))
	assert.ErrorIs(t, r.Delete(a), ErrUnknownHandle)
	assert.ErrorIs(t, r.Draw(a), ErrUnknownHandle)
	assert.NoError(t, r.Draw(b))

	require.NoError(t, r.Delete(b))
	assert.Len(t, d.textures, 2, "the simulation survives its placements")
	assert.Equal(t, UsingPong, s.State())
	assert.Equal(t, []string{"pond"}, r.Names())
}

func TestRegistryOnly(t *testing.T) {
	d := newFakeDevice()
	r := NewRegistry(d, WithInitialDrops(0))
	t.Cleanup(func() { r.Close() })

	ha, err := r.Show("a")
	require.NoError(t, err)
	hb, err := r.Show("b")
	require.NoError(t, err)
	_, err = r.Show("c")
	require.NoError(t, err)

	r.Only("b")

	assert.Equal(t, []string{"b"}, r.Names())
	assert.ErrorIs(t, r.Draw(ha), ErrUnknownHandle)
	assert.NoError(t, r.Draw(hb))
	assert.Len(t, d.textures, 2)

	r.Only("")
	assert.Empty(t, r.Names())
	assert.Empty(t, d.textures)
}

func TestRegistryRemove(t *testing.T) {
	r := NewRegistry(newFakeDevice(), WithInitialDrops(0))
	t.Cleanup(func() { r.Close() })

	_, err := r.Surface("pond")
	require.NoError(t, err)

	assert.True(t, r.Remove("pond"))
	assert.False(t, r.Remove("pond"))
	assert.False(t, r.Remove("never"))
}

func TestRegistryPrimitives(t *testing.T) {
	d := newFakeDevice()
	r := NewRegistry(d, WithInitialDrops(0))
	t.Cleanup(func() { r.Close() })

	assert.True(t, r.SetAttenuation("pond", 2))
	s, _ := r.Surface("pond")
	assert.Equal(t, 1.0, s.Attenuation())

	assert.True(t, r.Drop("pond", 0, 0, 5, 1))
	assert.Equal(t, UsingPing, s.State())

	assert.True(t, r.RandomDrops("pond", 3))
	assert.Equal(t, UsingPong, s.State())
	assert.Equal(t, 4, countCommands(d, "draw"))

	assert.True(t, r.Drop("other", 0, 0, 5, 1), "surfaces are created on first reference")
	assert.Equal(t, []string{"other", "pond"}, r.Names())
}

func TestRegistryDrawPlane(t *testing.T) {
	dev := software.New()
	meshes := mesh.NewCache(4)
	r := NewRegistry(dev,
		WithInitialDrops(0),
		WithMeshCache(meshes),
		WithSurfaceOptions(WithSize(32, 32)),
	)
	t.Cleanup(func() { r.Close() })

	require.NoError(t, r.SetPlane("pond", Plane{Width: 2, Height: 2, Rows: 8, Columns: 8}))
	require.True(t, r.Drop("pond", 0, 0, 20, 1))
	h, err := r.Show("pond")
	require.NoError(t, err)

	require.NoError(t, r.Draw(h))

	frame, ok := dev.LastFrame()
	require.True(t, ok)
	assert.Same(t, meshes, r.Meshes())
	assert.Equal(t, 1, meshes.Len())
	require.Len(t, frame.Heights, 81)
	s, _ := r.Surface("pond")
	assert.Equal(t, s.Texture(), frame.Texture)

	centre := frame.Draw.Mesh.VertexIndex(4, 4)
	assert.Greater(t, frame.Heights[centre], float32(0))
	assert.Zero(t, frame.Heights[0])
}

func TestRegistryDrawPlaneNeedsMeshDrawer(t *testing.T) {
	d := deviceOnly{newFakeDevice()}
	r := NewRegistry(d, WithInitialDrops(0))
	t.Cleanup(func() { r.Close() })

	require.NoError(t, r.SetPlane("pond", NewPlane(4)))
	h, err := r.Show("pond")
	require.NoError(t, err)

	assert.NoError(t, r.Draw(h))
	assert.Empty(t, d.fakeDevice.meshes)
}

func TestRegistryDrawSkipsPlaneWhenFailed(t *testing.T) {
	d := newFakeDevice()
	d.maxAttachments = 1
	r := NewRegistry(d, WithInitialDrops(0))
	t.Cleanup(func() { r.Close() })

	require.NoError(t, r.SetPlane("pond", NewPlane(4)))
	h, err := r.Show("pond")
	require.NoError(t, err)

	assert.NoError(t, r.Draw(h))
	assert.Empty(t, d.commands)
}

// deviceOnly hides the MeshDrawer side of a fake device.
type deviceOnly struct {
	*fakeDevice
}

func (d deviceOnly) DrawMesh() {}

func TestRegistryClose(t *testing.T) {
	d := newFakeDevice()
	r := NewRegistry(d, WithInitialDrops(1))

	_, err := r.Surface("pond")
	require.NoError(t, err)
	require.NoError(t, r.Close())

	assert.Empty(t, d.textures)
	assert.Empty(t, d.programs)
	assert.Empty(t, r.Names())

	_, err = r.Surface("pond")
	assert.ErrorIs(t, err, ErrClosed)
	assert.False(t, r.Drop("pond", 0, 0, 1, 1))
	assert.NoError(t, r.Close())
}

func TestRegistryForwardsLogger(t *testing.T) {
	orig := Logger()
	t.Cleanup(func() { SetLogger(orig) })

	d := newFakeDevice()
	r := NewRegistry(d)
	assert.Same(t, Logger(), d.logger)

	custom := slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
	SetLogger(custom)
	assert.Same(t, custom, d.logger)

	require.NoError(t, r.Close())
	SetLogger(nil)
	assert.Same(t, custom, d.logger, "closed registries stop forwarding")
}

var _ host.Device = deviceOnly{}
