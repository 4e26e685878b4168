package server

import (
	"errors"
	"log/slog"
	"sort"
	"sync"
)

// ErrNameTaken is returned by Join when the display name is already in use
// inside the requested room.
var ErrNameTaken = errors.New("display name already taken in this room")

// room pairs a membership set with the broadcast channel its members share.
// The channel is created with the room and lives as long as the process.
type room struct {
	mu      sync.Mutex
	members map[string]struct{}
	channel *Channel
}

// Registry owns every chat room in the process. Rooms are created lazily on
// first join and are never destroyed; membership entries are removed when a
// session tears down so display names can be reused. Each room carries its
// own lock, so traffic in one room never serializes against another.
type Registry struct {
	mu     sync.Mutex
	rooms  map[int]*room
	buffer int
	log    *slog.Logger
}

// NewRegistry creates an empty registry whose rooms fan out through buffers
// of the given size.
func NewRegistry(buffer int, log *slog.Logger) *Registry {
	return &Registry{
		rooms:  make(map[int]*room),
		buffer: buffer,
		log:    log,
	}
}

// Join adds user to the room, creating the room on first use, and returns
// the room's broadcast channel. A duplicate display name yields ErrNameTaken
// and leaves the room untouched; concurrent joins racing to create the same
// new room id always end up sharing a single room and channel.
func (reg *Registry) Join(roomID int, user string) (*Channel, error) {
	rm := reg.room(roomID)

	rm.mu.Lock()
	defer rm.mu.Unlock()

	if _, taken := rm.members[user]; taken {
		return nil, ErrNameTaken
	}
	rm.members[user] = struct{}{}
	return rm.channel, nil
}

// Leave removes user from the room's membership set. The room itself and
// its channel stay alive for present and future members.
func (reg *Registry) Leave(roomID int, user string) {
	reg.mu.Lock()
	rm := reg.rooms[roomID]
	reg.mu.Unlock()
	if rm == nil {
		return
	}

	rm.mu.Lock()
	delete(rm.members, user)
	rm.mu.Unlock()
}

// Members returns the display names currently joined to the room, sorted
// for stable output.
func (reg *Registry) Members(roomID int) []string {
	reg.mu.Lock()
	rm := reg.rooms[roomID]
	reg.mu.Unlock()
	if rm == nil {
		return nil
	}

	rm.mu.Lock()
	names := make([]string, 0, len(rm.members))
	for name := range rm.members {
		names = append(names, name)
	}
	rm.mu.Unlock()

	sort.Strings(names)
	return names
}

// Subscribers returns the number of active subscriptions on the room's
// broadcast channel, or zero for an unknown room.
func (reg *Registry) Subscribers(roomID int) int {
	reg.mu.Lock()
	rm := reg.rooms[roomID]
	reg.mu.Unlock()
	if rm == nil {
		return 0
	}
	return rm.channel.Subscribers()
}

// RoomCount returns the number of rooms created since startup.
func (reg *Registry) RoomCount() int {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	return len(reg.rooms)
}

// room returns the room for id, creating it if needed. The registry lock is
// held only for the map access, never across channel operations.
func (reg *Registry) room(roomID int) *room {
	reg.mu.Lock()
	defer reg.mu.Unlock()

	rm := reg.rooms[roomID]
	if rm == nil {
		reg.log.Debug("creating room", "room", roomID)
		rm = &room{
			members: make(map[string]struct{}),
			channel: newChannel(reg.buffer),
		}
		reg.rooms[roomID] = rm
	}
	return rm
}
