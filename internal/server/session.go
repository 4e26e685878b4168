// Package server manages individual chat sessions, handling read/write
// pumps, rate limiting, and lifecycle control for each connection.
package server

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/gorilla/websocket"
)

const (
	// pongWait is how long a connection may stay silent before the read
	// side gives up. writePump pings often enough to keep it refreshed,
	// so an idle but healthy client is never disconnected.
	pongWait   = 60 * time.Second
	pingPeriod = 54 * time.Second
	writeWait  = 10 * time.Second

	// maxFrameBytes bounds a single inbound frame as protection against
	// transport abuse. It is deliberately far above any legal encoding of
	// a maximum-length message (escaped astral runes cost twelve bytes
	// per character on the wire): oversized messages are the validator's
	// job to drop, and hitting this limit closes the connection.
	maxFrameBytes = 64 * 1024
)

// session relays messages between one WebSocket client and its room. It
// owns exactly two goroutines: readPump republishes client frames to the
// room channel and writePump drains the room subscription back onto the
// socket. Either pump terminating tears the whole session down.
type session struct {
	id       string
	user     string
	roomID   int
	conn     *websocket.Conn
	channel  *Channel
	sub      *Subscription
	views    *ViewCounter
	limiter  *inboundLimiter
	maxChars int
	log      *slog.Logger
	metrics  *Metrics
}

// run subscribes to the room and blocks until both pumps have stopped.
func (s *session) run(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	s.sub = s.channel.Subscribe()
	defer s.sub.Cancel()

	s.metrics.ActiveSessions.Inc()
	defer s.metrics.ActiveSessions.Dec()

	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		s.writePump(ctx)
	}()

	// readPump returns when the client goes away, sends a malformed frame,
	// or the writer has closed the connection under it.
	s.readPump()

	cancel()
	<-writerDone

	s.log.Info("session closed", "session", s.id, "room", s.roomID, "user", s.user)
}

// readPump reads client frames and republishes them to the room. A frame
// that does not decode as a UserMessage is fatal to this session only;
// oversized or rate-limited messages are dropped and the loop continues.
func (s *session) readPump() {
	s.conn.SetReadLimit(maxFrameBytes)
	_ = s.conn.SetReadDeadline(time.Now().Add(pongWait))
	s.conn.SetPongHandler(func(string) error {
		return s.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, raw, err := s.conn.ReadMessage()
		if err != nil {
			if !isExpectedCloseError(err) && websocket.IsUnexpectedCloseError(err,
				websocket.CloseNormalClosure,
				websocket.CloseGoingAway,
				websocket.CloseAbnormalClosure) {
				s.log.Debug("read failed", "session", s.id, "err", err)
			}
			return
		}

		var msg UserMessage
		if err := json.Unmarshal(raw, &msg); err != nil {
			s.log.Info("malformed frame, closing session",
				"session", s.id, "user", s.user, "err", err)
			return
		}

		if s.limiter != nil && !s.limiter.allow() {
			s.metrics.MessagesDropped.Inc()
			s.log.Debug("rate limit exceeded, dropping message",
				"session", s.id, "user", s.user)
			continue
		}

		if !ValidMessage(msg.Message, s.maxChars) {
			s.metrics.MessagesDropped.Inc()
			s.log.Info("message too long, dropping",
				"session", s.id, "user", s.user)
			continue
		}

		// Best effort: lost if no one is subscribed to receive it.
		s.channel.Publish(RoomMessage{User: s.user, Message: msg.Message})
	}
}

// writePump serializes room messages onto the socket, counting each
// successful write, and keeps the connection alive with periodic pings.
// Closing the connection on exit is what unblocks a reader still waiting
// for client input.
func (s *session) writePump(ctx context.Context) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		if err := s.conn.Close(); err != nil && !isExpectedCloseError(err) {
			s.log.Debug("close failed", "session", s.id, "err", err)
		}
	}()

	for {
		select {
		case msg, ok := <-s.sub.C():
			if !ok {
				return
			}
			payload, err := json.Marshal(msg)
			if err != nil {
				s.log.Error("marshal failed", "session", s.id, "err", err)
				continue
			}
			_ = s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				return
			}
			s.views.Increment()
			s.metrics.MessagesDelivered.Inc()

		case <-ticker.C:
			_ = s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}

		case <-ctx.Done():
			_ = s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			_ = s.conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return
		}
	}
}
