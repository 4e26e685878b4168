// Package server defines the wire-level message types and utility helpers
// that are shared across session and registry logic.
package server

import (
	"strings"
	"unicode/utf8"
)

// UserMessage is the inbound frame format: the text a client wants to say
// to its room.
type UserMessage struct {
	Message string `json:"message"`
}

// RoomMessage is the outbound envelope fanned out to every member of a
// room, including the sender. It is immutable once constructed.
type RoomMessage struct {
	User    string `json:"user"`
	Message string `json:"message"`
}

// ValidMessage reports whether a chat message is short enough to broadcast.
// The limit counts characters, not bytes, so multi-byte text gets the same
// budget as ASCII.
func ValidMessage(text string, maxChars int) bool {
	return utf8.RuneCountInString(text) <= maxChars
}

// isExpectedCloseError checks if an error is expected during connection closure.
func isExpectedCloseError(err error) bool {
	if err == nil {
		return true
	}
	errStr := err.Error()
	return strings.Contains(errStr, "use of closed network connection") ||
		strings.Contains(errStr, "websocket: close sent") ||
		strings.Contains(errStr, "broken pipe")
}
