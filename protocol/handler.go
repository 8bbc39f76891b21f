package protocol

import (
	"encoding/json"
	"log/slog"
	"sync"

	"golang.org/x/time/rate"

	"github.com/Zfocc31/collab-canvas/domain"
)

// Cursor updates are transient and never logged, so flooding clients can be
// throttled without affecting replay. Draw events are canonical log state
// and are never rate limited.
const (
	cursorRate  = rate.Limit(60)
	cursorBurst = 120
)

// Handler drives the per-connection lifecycle: room binding, draw event
// logging and fan-out, clear and cursor forwarding, disconnect cleanup.
//
// The room id used for storage and broadcast is always the one carried in
// the event payload, not the room the connection is bound to. The original
// protocol trusts the payload, and validating it against the binding would
// change observable behavior, so the trust boundary stays open here too.
type Handler struct {
	hub    domain.RoomHub
	routes map[string]func(domain.Connection, json.RawMessage)

	mu      sync.Mutex
	cursors map[string]*rate.Limiter
}

func NewHandler(h domain.RoomHub) *Handler {
	hd := &Handler{
		hub:     h,
		cursors: make(map[string]*rate.Limiter),
	}
	hd.routes = map[string]func(domain.Connection, json.RawMessage){
		domain.EventJoinRoom:    hd.handleJoin,
		domain.EventDrawStart:   hd.drawHandler(domain.EventDrawStart),
		domain.EventDrawMove:    hd.drawHandler(domain.EventDrawMove),
		domain.EventDrawEnd:     hd.drawHandler(domain.EventDrawEnd),
		domain.EventClearCanvas: hd.handleClear,
		domain.EventCursorMove:  hd.handleCursor,
	}
	return hd
}

// Handle dispatches one inbound message. Malformed or unroutable input is
// dropped; no error is ever sent back to the client.
func (h *Handler) Handle(conn domain.Connection, data []byte) {
	var env domain.Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		slog.Warn("invalid message", "clientId", conn.ID(), "error", err)
		return
	}

	route, ok := h.routes[env.Event]
	if !ok {
		slog.Warn("unknown event", "clientId", conn.ID(), "event", env.Event)
		return
	}
	route(conn, env.Data)
}

// Disconnected removes the connection from its room and tells the survivors
// the new member count. When the room emptied there is nobody left to tell.
func (h *Handler) Disconnected(conn domain.Connection) {
	h.mu.Lock()
	delete(h.cursors, conn.ID())
	h.mu.Unlock()

	roomID, count, left := h.hub.Leave(conn)
	if left && count > 0 {
		h.hub.ToRoom(roomID, encode(domain.EventUserCount, count))
	}
}

func (h *Handler) handleJoin(conn domain.Connection, data json.RawMessage) {
	roomID := roomOf(data)
	if roomID == "" {
		return
	}

	if current, bound := h.hub.RoomOf(conn.ID()); bound {
		if current == roomID {
			slog.Debug("already in room", "room", roomID, "clientId", conn.ID())
			return
		}
		// A connection holds at most one room at a time: switching rooms
		// leaves the old one first so its survivors see a fresh count.
		if prev, count, left := h.hub.Leave(conn); left && count > 0 {
			h.hub.ToRoom(prev, encode(domain.EventUserCount, count))
		}
	}

	count, rejoined := h.hub.Join(conn, roomID)
	if rejoined {
		return
	}
	h.hub.ToRoom(roomID, encode(domain.EventUserCount, count))

	if records := h.hub.Replay(roomID); len(records) > 0 {
		if err := conn.Send(encode(domain.EventLoadCanvas, records)); err != nil {
			slog.Warn("replay send failed", "room", roomID, "clientId", conn.ID(), "error", err)
		}
	}
}

func (h *Handler) drawHandler(kind string) func(domain.Connection, json.RawMessage) {
	return func(conn domain.Connection, data json.RawMessage) {
		roomID := roomOf(data)
		if roomID == "" {
			return
		}

		h.hub.Append(roomID, domain.CanvasRecord{Type: kind, Payload: data})
		h.hub.ToRoomExceptSender(roomID, conn.ID(), encode(kind, data))
	}
}

func (h *Handler) handleClear(conn domain.Connection, data json.RawMessage) {
	roomID := roomOf(data)
	if roomID == "" {
		return
	}

	h.hub.Clear(roomID)
	h.hub.ToRoom(roomID, encode(domain.EventClearCanvas, nil))
}

func (h *Handler) handleCursor(conn domain.Connection, data json.RawMessage) {
	roomID := roomOf(data)
	if roomID == "" {
		return
	}
	if !h.cursorLimiter(conn.ID()).Allow() {
		return
	}

	h.hub.ToRoomExceptSender(roomID, conn.ID(), encode(domain.EventCursorUpdate, data))
}

func (h *Handler) cursorLimiter(connID string) *rate.Limiter {
	h.mu.Lock()
	defer h.mu.Unlock()

	l, ok := h.cursors[connID]
	if !ok {
		l = rate.NewLimiter(cursorRate, cursorBurst)
		h.cursors[connID] = l
	}
	return l
}

func roomOf(data json.RawMessage) string {
	var ref domain.RoomRef
	if err := json.Unmarshal(data, &ref); err != nil {
		return ""
	}
	return ref.RoomID
}

// encode frames an outbound event. A nil value yields an envelope with no
// data, used for clear-canvas notifications.
func encode(event string, v any) []byte {
	env := domain.Envelope{Event: event}
	if v != nil {
		data, err := json.Marshal(v)
		if err != nil {
			slog.Warn("marshal error", "event", event, "error", err)
			return nil
		}
		env.Data = data
	}
	raw, err := json.Marshal(env)
	if err != nil {
		slog.Warn("marshal error", "event", event, "error", err)
		return nil
	}
	return raw
}
