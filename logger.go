package ripple

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/gogpu/ripple/host"
	"github.com/gogpu/ripple/mesh"
)

// nopHandler is a slog.Handler that silently discards all log records.
// The Enabled method returns false so the caller skips message formatting
// entirely, making disabled logging effectively zero-cost.
type nopHandler struct{}

func (nopHandler) Enabled(context.Context, slog.Level) bool  { return false }
func (nopHandler) Handle(context.Context, slog.Record) error { return nil }
func (nopHandler) WithAttrs([]slog.Attr) slog.Handler        { return nopHandler{} }
func (nopHandler) WithGroup(string) slog.Handler             { return nopHandler{} }

// newNopLogger creates a logger that silently discards all output.
func newNopLogger() *slog.Logger { return slog.New(nopHandler{}) }

// loggerPtr stores the active logger. Accessed atomically so that
// SetLogger can be called concurrently with logging from any goroutine.
var loggerPtr atomic.Pointer[slog.Logger]

func init() {
	l := newNopLogger()
	loggerPtr.Store(l)
}

// attached holds the devices of open registries, counted by registry.
// SetLogger forwards the new logger to each of them.
var (
	attachedMu sync.Mutex
	attached   = make(map[host.Device]int)
)

// SetLogger configures the logger for ripple, its mesh cache and the
// devices it drives.
// By default, ripple produces no log output. Call SetLogger to enable logging.
//
// SetLogger is safe for concurrent use: it stores the new logger atomically.
// Pass nil to disable logging (restore default silent behavior).
//
// Log levels used by ripple:
//   - [slog.LevelDebug]: resource rebuilds, program builds, pass state
//   - [slog.LevelInfo]: lifecycle events (registry entries created or removed)
//   - [slog.LevelWarn]: capability shortfalls, shader build failures, odd attenuation
//
// Example:
//
//	// Enable debug-level logging for full diagnostics:
//	ripple.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
//	    Level: slog.LevelDebug,
//	})))
func SetLogger(l *slog.Logger) {
	if l == nil {
		l = newNopLogger()
	}
	loggerPtr.Store(l)
	mesh.SetLogger(l)

	attachedMu.Lock()
	devices := make([]host.Device, 0, len(attached))
	for d := range attached {
		devices = append(devices, d)
	}
	attachedMu.Unlock()

	for _, d := range devices {
		propagateLogger(d, l)
	}
}

// Logger returns the current logger used by ripple.
//
// Logger is safe for concurrent use.
func Logger() *slog.Logger {
	return loggerPtr.Load()
}

// loggerSetter is implemented by devices that accept a logger.
type loggerSetter interface {
	SetLogger(*slog.Logger)
}

// propagateLogger passes the logger to a device if it implements the
// loggerSetter interface.
func propagateLogger(d host.Device, l *slog.Logger) {
	if ls, ok := d.(loggerSetter); ok {
		ls.SetLogger(l)
	}
}

// attachDevice hands the current logger to d and keeps forwarding later
// loggers until detachDevice is called as many times.
func attachDevice(d host.Device) {
	attachedMu.Lock()
	attached[d]++
	attachedMu.Unlock()
	propagateLogger(d, Logger())
}

func detachDevice(d host.Device) {
	attachedMu.Lock()
	defer attachedMu.Unlock()

	if attached[d] <= 1 {
		delete(attached, d)
		return
	}
	attached[d]--
}
