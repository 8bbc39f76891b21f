package hub

import (
	"log/slog"
	"sync"

	"github.com/Zfocc31/collab-canvas/domain"
)

// room holds one broadcast domain: its members and its canvas log. Both are
// guarded by the room's own lock so unrelated rooms never serialize against
// each other.
type room struct {
	members map[string]domain.Connection
	log     []domain.CanvasRecord
	mu      sync.RWMutex
}

func newRoom() *room {
	return &room{members: make(map[string]domain.Connection)}
}

// Hub tracks every room and which room each connection is bound to. Rooms
// are created lazily on the first join or the first appended draw event,
// and dropped together with their log when the last member leaves.
type Hub struct {
	rooms  map[string]*room
	byConn map[string]string
	mu     sync.RWMutex
}

func New() *Hub {
	return &Hub{
		rooms:  make(map[string]*room),
		byConn: make(map[string]string),
	}
}

// Join binds the connection to the room. Joining the room the connection is
// already bound to is a no-op; callers that want to switch rooms must Leave
// first. Returns the member count after the join.
func (h *Hub) Join(conn domain.Connection, roomID string) (count int, rejoined bool) {
	h.mu.Lock()
	if h.byConn[conn.ID()] == roomID {
		r := h.rooms[roomID]
		h.mu.Unlock()

		r.mu.RLock()
		count = len(r.members)
		r.mu.RUnlock()
		return count, true
	}

	r, exists := h.rooms[roomID]
	if !exists {
		r = newRoom()
		h.rooms[roomID] = r
	}
	h.byConn[conn.ID()] = roomID
	h.mu.Unlock()

	r.mu.Lock()
	r.members[conn.ID()] = conn
	count = len(r.members)
	r.mu.Unlock()

	slog.Info("client joined", "room", roomID, "clientId", conn.ID(), "clients", count)
	return count, false
}

// Leave unbinds the connection from whatever room it is in. When the room
// empties, the room and its canvas log are removed. Returns the room the
// connection was bound to and the member count after removal.
func (h *Hub) Leave(conn domain.Connection) (roomID string, count int, left bool) {
	h.mu.Lock()
	roomID, left = h.byConn[conn.ID()]
	if !left {
		h.mu.Unlock()
		return "", 0, false
	}
	delete(h.byConn, conn.ID())
	r, exists := h.rooms[roomID]
	h.mu.Unlock()

	if !exists {
		return roomID, 0, true
	}

	r.mu.Lock()
	delete(r.members, conn.ID())
	count = len(r.members)
	r.mu.Unlock()

	slog.Info("client left", "room", roomID, "clientId", conn.ID(), "clients", count)

	if count == 0 {
		h.mu.Lock()
		delete(h.rooms, roomID)
		h.mu.Unlock()
		slog.Info("room removed", "room", roomID)
	}
	return roomID, count, true
}

// RoomOf reports which room the connection is currently bound to.
func (h *Hub) RoomOf(connID string) (string, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	roomID, bound := h.byConn[connID]
	return roomID, bound
}

// CountMembers returns the member count, 0 for an unknown room.
func (h *Hub) CountMembers(roomID string) int {
	h.mu.RLock()
	r, exists := h.rooms[roomID]
	h.mu.RUnlock()

	if !exists {
		return 0
	}

	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.members)
}

// Append adds a record to the room's canvas log, creating the room if this
// is the first event to reference it. The room id comes from the event
// payload, so the sender need not be a member.
func (h *Hub) Append(roomID string, rec domain.CanvasRecord) {
	h.mu.Lock()
	r, exists := h.rooms[roomID]
	if !exists {
		r = newRoom()
		h.rooms[roomID] = r
	}
	h.mu.Unlock()

	r.mu.Lock()
	r.log = append(r.log, rec)
	r.mu.Unlock()
}

// Replay returns a snapshot of the room's log in append order, empty for an
// unknown room.
func (h *Hub) Replay(roomID string) []domain.CanvasRecord {
	h.mu.RLock()
	r, exists := h.rooms[roomID]
	h.mu.RUnlock()

	if !exists {
		return nil
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]domain.CanvasRecord, len(r.log))
	copy(out, r.log)
	return out
}

// Clear resets the room's log. Unknown rooms are left alone.
func (h *Hub) Clear(roomID string) {
	h.mu.RLock()
	r, exists := h.rooms[roomID]
	h.mu.RUnlock()

	if !exists {
		return
	}

	r.mu.Lock()
	r.log = nil
	r.mu.Unlock()

	slog.Info("canvas cleared", "room", roomID)
}

// ToRoom delivers to every member of the room, sender included.
func (h *Hub) ToRoom(roomID string, data []byte) {
	h.fanOut(roomID, "", data)
}

// ToRoomExceptSender delivers to every member of the room other than the
// sender.
func (h *Hub) ToRoomExceptSender(roomID, senderID string, data []byte) {
	h.fanOut(roomID, senderID, data)
}

func (h *Hub) fanOut(roomID, excludeID string, data []byte) {
	h.mu.RLock()
	r, exists := h.rooms[roomID]
	h.mu.RUnlock()

	if !exists {
		return
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	for id, conn := range r.members {
		if id == excludeID {
			continue
		}
		if err := conn.Send(data); err != nil {
			slog.Warn("send failed, closing", "room", roomID, "clientId", id, "error", err)
			// Closing forces the connection's read loop into the normal
			// disconnect path, which handles unbinding and notifications.
			conn.Close()
		}
	}
}

func (h *Hub) Stats() (rooms, clients int) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	rooms = len(h.rooms)
	for _, r := range h.rooms {
		r.mu.RLock()
		clients += len(r.members)
		r.mu.RUnlock()
	}
	return rooms, clients
}
