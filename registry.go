package ripple

import (
	"fmt"
	"slices"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/text/unicode/norm"

	"github.com/gogpu/ripple/host"
	"github.com/gogpu/ripple/mesh"
)

// DefaultInitialDrops is the number of random drops a registry adds to a
// surface when it creates it.
const DefaultInitialDrops = 20

// Handle identifies one placement of a surface in the host layout. The
// host passes it back to Draw every frame and to Delete when it discards
// the placement.
type Handle uuid.UUID

// String returns the canonical UUID form.
func (h Handle) String() string { return uuid.UUID(h).String() }

// ParseHandle parses the String form of a Handle.
func ParseHandle(s string) (Handle, error) {
	u, err := uuid.Parse(s)
	if err != nil {
		return Handle{}, fmt.Errorf("ripple: parse handle: %w", err)
	}
	return Handle(u), nil
}

// RegistryOption configures a Registry during creation.
type RegistryOption func(*registryOptions)

type registryOptions struct {
	initialDrops int
	meshes       *mesh.Cache
	surface      []Option
}

// WithInitialDrops sets the number of random drops added to new surfaces.
func WithInitialDrops(n int) RegistryOption {
	return func(o *registryOptions) {
		o.initialDrops = n
	}
}

// WithMeshCache shares a mesh cache with the registry's planes.
func WithMeshCache(c *mesh.Cache) RegistryOption {
	return func(o *registryOptions) {
		o.meshes = c
	}
}

// WithSurfaceOptions sets the options every new surface is created with.
func WithSurfaceOptions(opts ...Option) RegistryOption {
	return func(o *registryOptions) {
		o.surface = append(o.surface, opts...)
	}
}

type entry struct {
	surface *Surface
	plane   *Plane
}

// Registry is a name-keyed store of surfaces sharing one device, one set of
// programs and one mesh cache.
//
// Surfaces are created on first reference. Names are compared after Unicode
// NFC normalization.
//
// Registry is safe for concurrent use; surface work runs under its lock.
type Registry struct {
	mu       sync.Mutex
	device   host.Device
	drawer   host.MeshDrawer
	programs *Programs
	meshes   *mesh.Cache
	opts     registryOptions

	entries map[string]*entry
	handles map[Handle]string
	closed  bool
}

// NewRegistry creates a registry for d. Planes are drawn only when d also
// implements host.MeshDrawer.
func NewRegistry(d host.Device, opts ...RegistryOption) *Registry {
	o := registryOptions{initialDrops: DefaultInitialDrops}
	for _, opt := range opts {
		opt(&o)
	}
	if o.meshes == nil {
		o.meshes = mesh.NewCache(mesh.DefaultCapacity)
	}

	r := &Registry{
		device:   d,
		programs: NewPrograms(),
		meshes:   o.meshes,
		opts:     o,
		entries:  make(map[string]*entry),
		handles:  make(map[Handle]string),
	}
	r.drawer, _ = d.(host.MeshDrawer)
	attachDevice(d)
	return r
}

// Meshes returns the registry's mesh cache.
func (r *Registry) Meshes() *mesh.Cache { return r.meshes }

// Programs returns the programs shared by the registry's surfaces.
func (r *Registry) Programs() *Programs { return r.programs }

// Surface returns the surface called name, creating it if needed.
func (r *Registry) Surface(name string) (*Surface, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, err := r.lookupLocked(name)
	if err != nil {
		return nil, err
	}
	return e.surface, nil
}

// lookupLocked returns the entry for name, creating its surface on first
// reference. Caller must hold r.mu.
func (r *Registry) lookupLocked(name string) (*entry, error) {
	if r.closed {
		return nil, ErrClosed
	}
	key := norm.NFC.String(name)
	if e, ok := r.entries[key]; ok {
		return e, nil
	}

	opts := append(slices.Clone(r.opts.surface), WithPrograms(r.programs))
	s, err := NewSurface(r.device, opts...)
	if err != nil {
		return nil, fmt.Errorf("ripple: surface %q: %w", key, err)
	}
	s.RandomDrops(r.opts.initialDrops)

	e := &entry{surface: s}
	r.entries[key] = e
	Logger().Info("ripple: surface created", "name", key)
	return e, nil
}

// Show advances the named surface one step and returns a new handle for
// placing it in the host layout.
func (r *Registry) Show(name string) (Handle, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, err := r.lookupLocked(name)
	if err != nil {
		return Handle{}, err
	}
	e.surface.Advance()

	h := Handle(uuid.New())
	r.handles[h] = norm.NFC.String(name)
	return h, nil
}

// Draw is the host's per-frame draw callback. It binds the surface's latest
// state and draws its plane, if one is set and the device draws meshes.
func (r *Registry) Draw(h Handle) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	name, ok := r.handles[h]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownHandle, h)
	}
	e := r.entries[name]
	e.surface.Draw()
	if e.plane == nil || r.drawer == nil || e.surface.Failed() {
		return nil
	}
	return e.plane.Draw(r.drawer, r.meshes)
}

// Delete is the host's delete callback. It forgets the handle; the surface
// keeps its state and GPU resources until Remove, Only or Close.
func (r *Registry) Delete(h Handle) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.handles[h]; !ok {
		return fmt.Errorf("%w: %s", ErrUnknownHandle, h)
	}
	delete(r.handles, h)
	return nil
}

// Only removes every surface except the named one.
func (r *Registry) Only(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	keep := norm.NFC.String(name)
	for key := range r.entries {
		if key != keep {
			r.removeLocked(key)
		}
	}
}

// Remove removes the named surface and releases its resources. It reports
// whether the surface existed.
func (r *Registry) Remove(name string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.removeLocked(norm.NFC.String(name))
}

// removeLocked drops an entry and every handle that shows it.
// Caller must hold r.mu.
func (r *Registry) removeLocked(key string) bool {
	e, ok := r.entries[key]
	if !ok {
		return false
	}
	e.surface.Release()
	delete(r.entries, key)
	for h, n := range r.handles {
		if n == key {
			delete(r.handles, h)
		}
	}
	Logger().Info("ripple: surface removed", "name", key)
	return true
}

// SetAttenuation sets the damping ratio of the named surface. It reports
// false when the surface cannot be created.
func (r *Registry) SetAttenuation(name string, ratio float64) bool {
	return r.with(name, func(s *Surface) { s.SetAttenuation(ratio) })
}

// Drop adds one drop to the named surface.
func (r *Registry) Drop(name string, x, y, radius, strength float64) bool {
	return r.with(name, func(s *Surface) { s.Drop(x, y, radius, strength) })
}

// RandomDrops adds n random drops to the named surface.
func (r *Registry) RandomDrops(name string, n int) bool {
	return r.with(name, func(s *Surface) { s.RandomDrops(n) })
}

func (r *Registry) with(name string, fn func(*Surface)) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, err := r.lookupLocked(name)
	if err != nil {
		Logger().Warn("ripple: surface unavailable", "name", name, "err", err)
		return false
	}
	fn(e.surface)
	return true
}

// SetPlane attaches the plane drawn with the named surface.
func (r *Registry) SetPlane(name string, p Plane) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, err := r.lookupLocked(name)
	if err != nil {
		return err
	}
	e.plane = &p
	return nil
}

// Names returns the registered surface names in sorted order.
func (r *Registry) Names() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	names := make([]string, 0, len(r.entries))
	for key := range r.entries {
		names = append(names, key)
	}
	slices.Sort(names)
	return names
}

// Close releases every surface and the shared programs. Later calls that
// would create a surface fail with ErrClosed.
func (r *Registry) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return nil
	}
	for key := range r.entries {
		r.removeLocked(key)
	}
	r.programs.Release()
	r.closed = true
	detachDevice(r.device)
	return nil
}
