// Package runtime defines the uniform adapter contract the shell drives
// the script engines through, and the mode registry that keeps exactly one
// runtime active at a time.
package runtime

import (
	"github.com/SandeepSethia/mysql-shell/internal/errs"
	"github.com/SandeepSethia/mysql-shell/internal/logger"
	"github.com/SandeepSethia/mysql-shell/internal/shcore"
)

// Mode names the three interactive surfaces.
type Mode string

const (
	ModeSQL    Mode = "sql"
	ModeJS     Mode = "js"
	ModePython Mode = "py"
)

// Runtime is the adapter every script engine implements. A runtime call
// executes to completion on the invoking goroutine before the shell regains
// control; adapters never suspend a bridge call.
type Runtime interface {
	// Evaluate runs a chunk of script text and returns its value.
	Evaluate(text string) (shcore.Value, error)

	// InstallModule exposes a bridge as a global module.
	InstallModule(name string, module shcore.ObjectBridge) error

	// ToNative lowers a tagged value into the engine's own representation.
	ToNative(v shcore.Value) any

	// FromNative lifts an engine value into a tagged value.
	FromNative(native any) (shcore.Value, error)
}

// Registry owns the adapters and the current mode. Switching modes is a
// synchronous transition: it resets the pending statement buffer and
// leaves every session handle open; the registry holds no sessions.
type Registry struct {
	runtimes map[Mode]Runtime
	mode     Mode
	buffer   string
}

// NewRegistry starts in SQL mode with no adapters registered.
func NewRegistry() *Registry {
	return &Registry{runtimes: make(map[Mode]Runtime), mode: ModeSQL}
}

// Register adds an adapter for a mode.
func (r *Registry) Register(mode Mode, rt Runtime) {
	r.runtimes[mode] = rt
}

// Mode returns the active mode.
func (r *Registry) Mode() Mode { return r.mode }

// Current returns the active runtime, or nil in SQL mode.
func (r *Registry) Current() Runtime { return r.runtimes[r.mode] }

// Switch activates a mode. The pending statement buffer is discarded.
func (r *Registry) Switch(mode Mode) error {
	if mode != ModeSQL {
		if _, ok := r.runtimes[mode]; !ok {
			return errs.Newf(errs.KindArgument, "", "No runtime registered for mode %s", mode)
		}
	}
	r.buffer = ""
	r.mode = mode
	logger.Info("switched mode")
	return nil
}

// Buffer returns the pending interactive statement text.
func (r *Registry) Buffer() string { return r.buffer }

// SetBuffer stores partial statement text between prompt lines.
func (r *Registry) SetBuffer(text string) { r.buffer = text }
