package ripple

import (
	"fmt"
	"sync"

	"github.com/gogpu/ripple/host"
)

// ProgramSet holds the drop and update programs built for one context
// epoch, with their uniform locations resolved at link time.
type ProgramSet struct {
	Drop   host.ProgramID
	Update host.ProgramID

	center   host.UniformLocation
	radius   host.UniformLocation
	strength host.UniformLocation
	delta    host.UniformLocation
	ratio    host.UniformLocation

	epoch host.ContextEpoch
}

// Epoch returns the context epoch the programs belong to.
func (ps *ProgramSet) Epoch() host.ContextEpoch { return ps.epoch }

// Programs builds the drop and update programs lazily, once per device and
// context epoch, and shares them between surfaces. Each device keeps its own
// set; acquiring on one device never touches another device's programs.
//
// A failed build is remembered: later requests for the same epoch return
// the same error without rebuilding. A new epoch always triggers a fresh
// build.
//
// Programs is safe for concurrent use.
type Programs struct {
	mu      sync.Mutex
	entries map[host.Device]*programEntry
	epoch   host.ContextEpoch
	builds  int
}

// programEntry is the cached build result for one device.
type programEntry struct {
	epoch host.ContextEpoch
	set   *ProgramSet
	err   error
}

// NewPrograms returns an empty program store. Nothing is built until the
// first Acquire.
func NewPrograms() *Programs {
	return &Programs{entries: make(map[host.Device]*programEntry)}
}

// Acquire returns the programs for d's active context, building them if
// d has no programs yet or its epoch changed since the last call.
func (p *Programs) Acquire(d host.Device) (*ProgramSet, error) {
	epoch := d.Epoch()
	if epoch == host.NoContext {
		return nil, ErrNoContext
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.entries == nil {
		p.entries = make(map[host.Device]*programEntry)
	}
	e, ok := p.entries[d]
	if ok && e.epoch == epoch {
		return e.set, e.err
	}
	if ok {
		// Stale epoch: destroying its IDs is a no-op on the new context.
		e.destroy(d)
	} else {
		e = &programEntry{}
		p.entries[d] = e
	}

	e.epoch = epoch
	p.epoch = epoch
	p.builds++
	e.set, e.err = buildPrograms(d, epoch)
	if e.err != nil {
		Logger().Warn("ripple: shader programs unavailable",
			"epoch", uint64(epoch), "err", e.err)
		return nil, e.err
	}
	Logger().Debug("ripple: shader programs built",
		"epoch", uint64(epoch), "drop", uint64(e.set.Drop), "update", uint64(e.set.Update))
	return e.set, nil
}

// Release destroys the programs on every device and forgets the cached
// epochs, so the next Acquire rebuilds.
func (p *Programs) Release() {
	p.mu.Lock()
	defer p.mu.Unlock()

	for d, e := range p.entries {
		e.destroy(d)
		delete(p.entries, d)
	}
	p.epoch = host.NoContext
}

// Epoch returns the epoch of the last build attempt, or host.NoContext.
func (p *Programs) Epoch() host.ContextEpoch {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.epoch
}

// Builds returns the number of build attempts so far.
func (p *Programs) Builds() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.builds
}

// Devices returns the number of devices with cached programs or a cached
// build failure.
func (p *Programs) Devices() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.entries)
}

func (e *programEntry) destroy(d host.Device) {
	if e.set == nil {
		return
	}
	d.DestroyProgram(e.set.Drop)
	d.DestroyProgram(e.set.Update)
	e.set = nil
}

// buildPrograms compiles both programs and resolves their uniforms.
// A partial build is rolled back.
func buildPrograms(d host.Device, epoch host.ContextEpoch) (*ProgramSet, error) {
	drop, err := d.CreateProgram(&dropProgram)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrProgramBuild, dropProgram.Label, err)
	}
	update, err := d.CreateProgram(&updateProgram)
	if err != nil {
		d.DestroyProgram(drop)
		return nil, fmt.Errorf("%w: %s: %w", ErrProgramBuild, updateProgram.Label, err)
	}

	ps := &ProgramSet{
		Drop:     drop,
		Update:   update,
		center:   d.UniformLocation(drop, uniformCenter),
		radius:   d.UniformLocation(drop, uniformRadius),
		strength: d.UniformLocation(drop, uniformStrength),
		delta:    d.UniformLocation(update, uniformDelta),
		ratio:    d.UniformLocation(update, uniformRatio),
		epoch:    epoch,
	}

	for name, loc := range map[string]host.UniformLocation{
		uniformCenter:   ps.center,
		uniformRadius:   ps.radius,
		uniformStrength: ps.strength,
		uniformDelta:    ps.delta,
		uniformRatio:    ps.ratio,
	} {
		if loc == host.NoLocation {
			d.DestroyProgram(drop)
			d.DestroyProgram(update)
			return nil, fmt.Errorf("%w: uniform %q not found", ErrProgramBuild, name)
		}
	}
	return ps, nil
}
