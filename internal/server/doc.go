// Package server implements the core HTTP and WebSocket functionality for
// the Perch chat service.
//
// The implementation is organized into specialized files for configuration,
// the room registry, broadcast fan-out, connection sessions, routing, and
// HTTP handlers to keep the codebase maintainable and testable as the
// project grows.
package server
