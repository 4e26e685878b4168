package server

import "github.com/gorilla/websocket"

// readyLoop implements the serve/ping/pong readiness handshake on a single
// connection. The session starts NotReady; the literal frame "serve" makes
// it Ready for good, after which every "ping" is answered with "pong".
// Anything else is ignored. Nothing here touches shared state: the loop
// owns the socket until the client disconnects or sends a non-text frame.
func (s *Server) readyLoop(conn *websocket.Conn) {
	defer func() {
		_ = conn.Close()
	}()

	ready := false
	for {
		kind, raw, err := conn.ReadMessage()
		if err != nil {
			return
		}
		if kind != websocket.TextMessage {
			return
		}

		switch {
		case string(raw) == "serve":
			ready = true
		case string(raw) == "ping" && ready:
			if err := conn.WriteMessage(websocket.TextMessage, []byte("pong")); err != nil {
				return
			}
		default:
			// not part of the handshake, ignore
		}
	}
}
