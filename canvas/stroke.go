// Package canvas models the stroke lifecycle a consumer tracks while
// applying draw events, whether they arrive live or as a load-canvas
// replay. The server forwards events without pairing starts and ends, so
// suppression of orphan strokes (an end with no move in between, which
// would otherwise render a stray dot) is the consumer's job; this package
// makes that contract testable without a renderer.
package canvas

import "github.com/Zfocc31/collab-canvas/domain"

// StrokeTracker follows one event stream. Zero value is ready to use.
type StrokeTracker struct {
	active bool
	moved  bool
}

// Start opens a stroke and resets the movement flag.
func (t *StrokeTracker) Start() {
	t.active = true
	t.moved = false
}

// Move extends the open stroke. Reports false when no stroke is open, which
// a consumer should treat as a stray event and ignore.
func (t *StrokeTracker) Move() bool {
	if !t.active {
		return false
	}
	t.moved = true
	return true
}

// End closes the open stroke and reports whether it produced a renderable
// path. A start followed directly by an end is an orphan and reports false.
func (t *StrokeTracker) End() bool {
	rendered := t.active && t.moved
	t.active = false
	t.moved = false
	return rendered
}

// Replay runs a recorded sequence through a fresh tracker, counting the
// strokes a renderer would draw and the orphans it would suppress.
func Replay(records []domain.CanvasRecord) (rendered, orphans int) {
	var t StrokeTracker
	for _, rec := range records {
		switch rec.Type {
		case domain.EventDrawStart:
			t.Start()
		case domain.EventDrawMove:
			t.Move()
		case domain.EventDrawEnd:
			if t.End() {
				rendered++
			} else {
				orphans++
			}
		}
	}
	return rendered, orphans
}
