// Package server exposes HTTP handlers, including WebSocket upgrades, the
// view counter endpoints, health checks, and the built-in test page.
package server

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
)

// Server ties the room registry, view counter, metrics, and configuration
// together and exposes the HTTP surface. Handlers are methods so all state
// is owned explicitly; the package has no globals.
type Server struct {
	cfg      *Config
	log      *slog.Logger
	rooms    *Registry
	views    *ViewCounter
	metrics  *Metrics
	upgrader websocket.Upgrader
}

// New constructs a Server from the given configuration and logger.
func New(cfg *Config, log *slog.Logger) *Server {
	cfg.sanitize()

	rooms := NewRegistry(cfg.RoomBuffer, log)
	metrics := NewMetrics()
	metrics.ObserveRooms(rooms)

	policy := newOriginPolicy(cfg.AllowedOrigins, log)

	return &Server{
		cfg:     cfg,
		log:     log,
		rooms:   rooms,
		views:   NewViewCounter(),
		metrics: metrics,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     policy.check,
		},
	}
}

// Rooms returns the server's room registry.
func (s *Server) Rooms() *Registry {
	return s.rooms
}

// Views returns the server's global view counter.
func (s *Server) Views() *ViewCounter {
	return s.views
}

// ChatHandler upgrades a chat request and relays messages between the
// client and its room until either direction stops. A duplicate display
// name is rejected with 409 Conflict before the upgrade; the registry is
// never left holding a half-joined member.
func (s *Server) ChatHandler(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)

	roomID, err := strconv.Atoi(vars["room"])
	if err != nil || roomID < 0 {
		http.Error(w, "room must be a non-negative integer", http.StatusBadRequest)
		return
	}

	user := vars["user"]
	if user == "" {
		http.Error(w, "user name required", http.StatusBadRequest)
		return
	}

	channel, err := s.rooms.Join(roomID, user)
	if err != nil {
		if errors.Is(err, ErrNameTaken) {
			s.log.Info("join rejected", "room", roomID, "user", user, "err", err)
			http.Error(w, err.Error(), http.StatusConflict)
			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.rooms.Leave(roomID, user)
		s.log.Error("websocket upgrade failed", "err", err)
		return
	}

	sess := &session{
		id:       uuid.NewString(),
		user:     user,
		roomID:   roomID,
		conn:     conn,
		channel:  channel,
		views:    s.views,
		limiter:  newInboundLimiter(s.cfg.RateLimit.Burst, s.cfg.RateLimit.RefillInterval),
		maxChars: s.cfg.MaxMessageChars,
		log:      s.log,
		metrics:  s.metrics,
	}

	s.log.Info("user joined room", "session", sess.id, "room", roomID, "user", user)
	sess.run(r.Context())
	s.rooms.Leave(roomID, user)
}

// ReadyHandler upgrades a readiness-handshake request and runs the
// serve/ping/pong loop until the connection closes.
func (s *Server) ReadyHandler(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Error("websocket upgrade failed", "err", err)
		return
	}
	s.readyLoop(conn)
}

// ViewsHandler reports the number of messages delivered to clients so far
// as plain decimal text.
func (s *Server) ViewsHandler(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain")
	_, _ = fmt.Fprintf(w, "%d", s.views.Value())
}

// ResetHandler zeroes the view counter. The response has no body.
func (s *Server) ResetHandler(w http.ResponseWriter, _ *http.Request) {
	s.views.Reset()
	w.WriteHeader(http.StatusOK)
}

// HealthHandler provides a simple health check endpoint that returns
// server status as plain text.
func (s *Server) HealthHandler(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain")
	_, _ = fmt.Fprint(w, "Perch server is running!")
}

// TestPageHandler serves a small HTML page for poking at the chat endpoint
// from a browser.
func (s *Server) TestPageHandler(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/html")
	html := `<!DOCTYPE html>
<html>
<head><title>Perch Chat Test</title></head>
<body>
    <h1>Perch Chat Test</h1>
    <div>
        <input type="number" id="room" placeholder="Room" value="7">
        <input type="text" id="user" placeholder="Name" value="alice">
        <button onclick="connect()">Join</button>
    </div>
    <div>
        <input type="text" id="text" placeholder="Say something...">
        <button onclick="send()">Send</button>
    </div>
    <pre id="log"></pre>
    <script>
        let ws = null;
        const log = (line) => {
            document.getElementById('log').textContent += line + '\n';
        };
        function connect() {
            const room = document.getElementById('room').value;
            const user = document.getElementById('user').value;
            ws = new WebSocket('ws://' + location.host + '/ws/room/' + room + '/user/' + user);
            ws.onopen = () => log('joined room ' + room + ' as ' + user);
            ws.onmessage = (ev) => {
                const msg = JSON.parse(ev.data);
                log(msg.user + ': ' + msg.message);
            };
            ws.onclose = () => log('disconnected');
        }
        function send() {
            const input = document.getElementById('text');
            if (ws && ws.readyState === WebSocket.OPEN && input.value) {
                ws.send(JSON.stringify({message: input.value}));
                input.value = '';
            }
        }
    </script>
</body>
</html>`
	if _, err := fmt.Fprint(w, html); err != nil {
		s.log.Error("error writing HTML response", "err", err)
	}
}
