// Package trace provides the leveled event tracer used across the
// compiler: driver phases, per-script compiles and node-level emission
// detail all route through one Tracer.
package trace

import "time"

// Tracer is the main interface for emitting trace events.
type Tracer interface {
	// Emit records a trace event. Must be goroutine-safe.
	Emit(ev Event)

	// Flush ensures all buffered events are written.
	Flush() error

	// Close flushes and releases resources.
	Close() error

	// Level returns the current tracing level.
	Level() Level

	// Enabled returns true if tracing is active (Level > LevelOff).
	Enabled() bool
}

// Scope indicates the granularity of an event. Lower values are coarser.
type Scope uint8

const (
	// ScopeDriver covers whole-program compile runs.
	ScopeDriver Scope = iota + 1
	// ScopeScript covers one script's compilation.
	ScopeScript
	// ScopeNode covers individual node emissions.
	ScopeNode
)

// String returns the string representation of Scope.
func (s Scope) String() string {
	switch s {
	case ScopeDriver:
		return "driver"
	case ScopeScript:
		return "script"
	case ScopeNode:
		return "node"
	default:
		return "unknown"
	}
}

// Event is one trace record.
type Event struct {
	Time  time.Time
	Scope Scope
	Warn  bool
	Msg   string
	Attrs map[string]string
}

// Point builds an instant event stamped now.
func Point(scope Scope, msg string, attrs map[string]string) Event {
	return Event{Time: time.Now(), Scope: scope, Msg: msg, Attrs: attrs}
}

// Warning builds a warning event stamped now.
func Warning(scope Scope, msg string, attrs map[string]string) Event {
	return Event{Time: time.Now(), Scope: scope, Warn: true, Msg: msg, Attrs: attrs}
}
