// Package server coordinates room membership and message fan-out for the
// Perch chat system via the Registry and Channel types.
package server

import "sync"

// Channel is the broadcast primitive shared by every member of a room.
// Delivery is best effort: a subscriber with a full buffer misses the
// message, and a message published with no subscribers at all is lost.
// Safe for concurrent publish and subscribe without external locking.
type Channel struct {
	mu     sync.RWMutex
	buffer int
	nextID uint64
	subs   map[uint64]*Subscription
}

func newChannel(buffer int) *Channel {
	return &Channel{
		buffer: buffer,
		subs:   make(map[uint64]*Subscription),
	}
}

// Subscribe returns a fresh receive-only view of the channel. Only messages
// published after the call are visible to it.
func (ch *Channel) Subscribe() *Subscription {
	ch.mu.Lock()
	defer ch.mu.Unlock()

	sub := &Subscription{
		ch: ch,
		id: ch.nextID,
		c:  make(chan RoomMessage, ch.buffer),
	}
	ch.nextID++
	ch.subs[sub.id] = sub
	return sub
}

// Publish delivers msg to every current subscriber without blocking and
// returns how many buffers accepted it.
func (ch *Channel) Publish(msg RoomMessage) int {
	ch.mu.RLock()
	defer ch.mu.RUnlock()

	delivered := 0
	for _, sub := range ch.subs {
		select {
		case sub.c <- msg:
			delivered++
		default:
			// subscriber buffer full, drop for that subscriber only
		}
	}
	return delivered
}

// Subscribers returns the number of active subscriptions.
func (ch *Channel) Subscribers() int {
	ch.mu.RLock()
	defer ch.mu.RUnlock()
	return len(ch.subs)
}

// Subscription is one member's private view of a room channel.
type Subscription struct {
	ch   *Channel
	id   uint64
	c    chan RoomMessage
	once sync.Once
}

// C returns the channel messages arrive on. It is closed by Cancel.
func (s *Subscription) C() <-chan RoomMessage {
	return s.c
}

// Cancel detaches the subscription from its room and closes C. Safe to call
// more than once. Publishers never see the subscription again once Cancel
// has returned.
func (s *Subscription) Cancel() {
	s.once.Do(func() {
		s.ch.mu.Lock()
		delete(s.ch.subs, s.id)
		close(s.c)
		s.ch.mu.Unlock()
	})
}
