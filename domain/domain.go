package domain

import "encoding/json"

// Inbound event names.
const (
	EventJoinRoom    = "join-room"
	EventDrawStart   = "draw-start"
	EventDrawMove    = "draw-move"
	EventDrawEnd     = "draw-end"
	EventClearCanvas = "clear-canvas"
	EventCursorMove  = "cursor-move"
)

// Outbound-only event names. Draw and clear events go back out under their
// inbound names.
const (
	EventUserCount    = "user-count"
	EventLoadCanvas   = "load-canvas"
	EventCursorUpdate = "cursor-update"
)

// Envelope frames every message on the wire. Data stays raw because draw
// and cursor payloads are forwarded byte-for-byte; the server only ever
// decodes the roomId out of them.
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// RoomRef extracts the room id from any inbound payload.
type RoomRef struct {
	RoomID string `json:"roomId"`
}

// CanvasRecord is one logged draw event. A room's log is the ordered
// sequence of these, replayed as a single load-canvas burst to late joiners.
type CanvasRecord struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type Connection interface {
	ID() string
	Send(data []byte) error
	Close() error
}

// RoomHub is the room service: membership, the per-room canvas log, and
// fan-out. Delivery is best-effort; a failed send closes the connection and
// its read loop handles the cleanup.
type RoomHub interface {
	Join(conn Connection, roomID string) (count int, rejoined bool)
	Leave(conn Connection) (roomID string, count int, left bool)
	RoomOf(connID string) (roomID string, bound bool)
	CountMembers(roomID string) int

	Append(roomID string, rec CanvasRecord)
	Replay(roomID string) []CanvasRecord
	Clear(roomID string)

	ToRoom(roomID string, data []byte)
	ToRoomExceptSender(roomID, senderID string, data []byte)

	Stats() (rooms, clients int)
}

type MessageHandler interface {
	Handle(conn Connection, data []byte)
	Disconnected(conn Connection)
}
