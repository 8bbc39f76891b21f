package canvas

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Zfocc31/collab-canvas/domain"
)

func record(kind, payload string) domain.CanvasRecord {
	return domain.CanvasRecord{Type: kind, Payload: json.RawMessage(payload)}
}

func TestStrokeTracker_NormalStroke(t *testing.T) {
	var tr StrokeTracker

	tr.Start()
	assert.True(t, tr.Move())
	assert.True(t, tr.Move())
	assert.True(t, tr.End())
}

func TestStrokeTracker_OrphanSuppressed(t *testing.T) {
	var tr StrokeTracker

	tr.Start()
	assert.False(t, tr.End(), "end with no move must not render")
}

func TestStrokeTracker_StrayEvents(t *testing.T) {
	var tr StrokeTracker

	assert.False(t, tr.Move(), "move with no open stroke")
	assert.False(t, tr.End(), "end with no open stroke")

	// a stray move must not leak into the next stroke's flag.
	tr.Start()
	assert.False(t, tr.End())
}

func TestReplay(t *testing.T) {
	tests := []struct {
		name         string
		records      []domain.CanvasRecord
		wantRendered int
		wantOrphans  int
	}{
		{
			name: "two full strokes",
			records: []domain.CanvasRecord{
				record(domain.EventDrawStart, `{"roomId":"r1","offsetX":10,"offsetY":10,"color":"#000","strokeWidth":4}`),
				record(domain.EventDrawMove, `{"roomId":"r1","offsetX":20,"offsetY":15}`),
				record(domain.EventDrawEnd, `{"roomId":"r1"}`),
				record(domain.EventDrawStart, `{"roomId":"r1","offsetX":50,"offsetY":50,"color":"#fff","strokeWidth":8}`),
				record(domain.EventDrawMove, `{"roomId":"r1","offsetX":60,"offsetY":60}`),
				record(domain.EventDrawEnd, `{"roomId":"r1"}`),
			},
			wantRendered: 2,
		},
		{
			name: "click without drag is an orphan",
			records: []domain.CanvasRecord{
				record(domain.EventDrawStart, `{"roomId":"r1","offsetX":10,"offsetY":10,"color":"#000","strokeWidth":4}`),
				record(domain.EventDrawEnd, `{"roomId":"r1"}`),
			},
			wantOrphans: 1,
		},
		{
			name: "orphan between real strokes",
			records: []domain.CanvasRecord{
				record(domain.EventDrawStart, `{"roomId":"r1","offsetX":1,"offsetY":1,"color":"#000","strokeWidth":4}`),
				record(domain.EventDrawMove, `{"roomId":"r1","offsetX":2,"offsetY":2}`),
				record(domain.EventDrawEnd, `{"roomId":"r1"}`),
				record(domain.EventDrawStart, `{"roomId":"r1","offsetX":3,"offsetY":3,"color":"#000","strokeWidth":4}`),
				record(domain.EventDrawEnd, `{"roomId":"r1"}`),
			},
			wantRendered: 1,
			wantOrphans:  1,
		},
		{
			name: "empty log",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rendered, orphans := Replay(tt.records)

			assert.Equal(t, tt.wantRendered, rendered)
			assert.Equal(t, tt.wantOrphans, orphans)
		})
	}
}
