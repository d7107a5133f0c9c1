package trace

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"
)

// StreamTracer writes events immediately to an io.Writer, one line each.
type StreamTracer struct {
	mu    sync.Mutex
	w     io.Writer
	level Level
}

// NewStreamTracer creates a new StreamTracer.
func NewStreamTracer(w io.Writer, level Level) *StreamTracer {
	return &StreamTracer{w: w, level: level}
}

// Emit writes an event to the output.
func (t *StreamTracer) Emit(ev Event) {
	if !t.level.ShouldEmit(ev) {
		return
	}
	var b strings.Builder
	b.WriteString(ev.Time.Format("15:04:05.000"))
	b.WriteByte(' ')
	if ev.Warn {
		b.WriteString("warn ")
	}
	b.WriteString(ev.Scope.String())
	b.WriteString(": ")
	b.WriteString(ev.Msg)
	if len(ev.Attrs) > 0 {
		keys := make([]string, 0, len(ev.Attrs))
		for k := range ev.Attrs {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			fmt.Fprintf(&b, " %s=%q", k, ev.Attrs[k])
		}
	}
	b.WriteByte('\n')

	t.mu.Lock()
	defer t.mu.Unlock()
	// Best-effort write; tracing must never fail a compilation.
	if _, err := t.w.Write([]byte(b.String())); err != nil {
		_ = err
	}
}

// Flush ensures all buffered data is written.
func (t *StreamTracer) Flush() error {
	if flusher, ok := t.w.(interface{ Flush() error }); ok {
		return flusher.Flush()
	}
	return nil
}

// Close flushes and closes the writer if it implements io.Closer.
func (t *StreamTracer) Close() error {
	if err := t.Flush(); err != nil {
		return err
	}
	if closer, ok := t.w.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}

// Level returns the configured level.
func (t *StreamTracer) Level() Level { return t.level }

// Enabled reports whether any events can emit.
func (t *StreamTracer) Enabled() bool { return t.level > LevelOff }
