// Package testhelpers provides common utilities and helper functions for
// testing the Perch server.
//
// This package contains reusable test utilities that are shared across unit
// and integration tests. It provides functions for creating test servers,
// dialing WebSocket endpoints, exchanging chat frames, and asserting
// response properties to reduce code duplication in test files.
package testhelpers

import (
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/perchlabs/perch/internal/server"
)

// NewChatServer builds a Server with test-friendly configuration and wraps
// it in a running httptest.Server. The customize callback, if non-nil, can
// adjust the configuration before the server is constructed. The test
// server is closed automatically when the test finishes.
func NewChatServer(t *testing.T, customize func(cfg *server.Config)) (*server.Server, *httptest.Server) {
	t.Helper()

	cfg := server.NewConfig()
	cfg.AllowedOrigins = []string{"*"}
	if customize != nil {
		customize(cfg)
	}

	srv := server.New(cfg, server.NewLogger("test"))
	ts := httptest.NewServer(srv.SetupRoutes())
	t.Cleanup(ts.Close)
	return srv, ts
}

// WSURL rewrites a test server URL into a ws:// URL for the given path.
func WSURL(ts *httptest.Server, path string) string {
	return "ws" + strings.TrimPrefix(ts.URL, "http") + path
}

// ConnectWebSocket dials the given WebSocket URL. The HTTP response is
// returned alongside the connection so callers can inspect rejected
// upgrades; its body is closed here.
func ConnectWebSocket(url string) (*websocket.Conn, *http.Response, error) {
	dialer := websocket.Dialer{
		HandshakeTimeout: 5 * time.Second,
	}

	conn, resp, err := dialer.Dial(url, nil)
	if resp != nil {
		_ = resp.Body.Close()
	}
	return conn, resp, err
}

// MustConnect dials the URL and fails the test if the upgrade does not
// succeed. The connection is closed automatically at test cleanup.
func MustConnect(t *testing.T, url string) *websocket.Conn {
	t.Helper()

	conn, _, err := ConnectWebSocket(url)
	if err != nil {
		t.Fatalf("Failed to connect to %s: %v", url, err)
	}
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

// SendChatMessage sends a {"message": ...} frame over the connection.
func SendChatMessage(conn *websocket.Conn, text string) error {
	return conn.WriteJSON(server.UserMessage{Message: text})
}

// ReceiveRoomMessage reads one broadcast frame, failing the test if nothing
// arrives before the timeout.
func ReceiveRoomMessage(t *testing.T, conn *websocket.Conn, timeout time.Duration) server.RoomMessage {
	t.Helper()

	if err := conn.SetReadDeadline(time.Now().Add(timeout)); err != nil {
		t.Fatalf("Failed to set read deadline: %v", err)
	}

	var msg server.RoomMessage
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("Failed to read room message: %v", err)
	}
	return msg
}

// ExpectNoMessage asserts that no frame arrives on the connection within
// the timeout.
func ExpectNoMessage(t *testing.T, conn *websocket.Conn, timeout time.Duration) {
	t.Helper()

	if err := conn.SetReadDeadline(time.Now().Add(timeout)); err != nil {
		t.Fatalf("Failed to set read deadline: %v", err)
	}

	_, _, err := conn.ReadMessage()
	if err == nil {
		t.Fatalf("Expected no message, but received one")
	}
	if netErr, ok := err.(net.Error); ok && netErr.Timeout() {
		return
	}
	if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
		return
	}
	t.Fatalf("Unexpected error while waiting for absence of message: %v", err)
}

// CloseWebSocket gracefully closes a WebSocket connection.
func CloseWebSocket(conn *websocket.Conn) error {
	err := conn.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	if err != nil {
		return err
	}
	return conn.Close()
}

// MakeRequest creates and executes an HTTP request, returning the response.
// It includes a 5-second timeout and fails the test if the request cannot
// be created or executed successfully.
func MakeRequest(t *testing.T, method, url string) *http.Response {
	t.Helper()

	client := &http.Client{
		Timeout: 5 * time.Second,
	}

	req, err := http.NewRequest(method, url, http.NoBody)
	if err != nil {
		t.Fatalf("Failed to create request: %v", err)
	}

	resp, err := client.Do(req)
	if err != nil {
		t.Fatalf("Failed to make request: %v", err)
	}

	return resp
}

// ReadBody drains and closes the response body, returning it as a string.
func ReadBody(t *testing.T, resp *http.Response) string {
	t.Helper()

	defer func() { _ = resp.Body.Close() }()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("Failed to read response body: %v", err)
	}
	return string(body)
}

// AssertStatusCode checks if the HTTP response has the expected status code.
func AssertStatusCode(t *testing.T, resp *http.Response, expected int) {
	t.Helper()
	if resp.StatusCode != expected {
		t.Errorf("Expected status code %d, got %d", expected, resp.StatusCode)
	}
}

// AssertContentType checks if the HTTP response has the expected
// Content-Type header.
func AssertContentType(t *testing.T, resp *http.Response, expected string) {
	t.Helper()
	contentType := resp.Header.Get("Content-Type")
	if contentType != expected {
		t.Errorf("Expected content type %s, got %s", expected, contentType)
	}
}

// WaitForViews polls the /views endpoint until it reports want or the
// deadline passes. Delivery counting is asynchronous with respect to frame
// reads, so callers cannot assert the counter immediately.
func WaitForViews(t *testing.T, baseURL, want string) {
	t.Helper()

	deadline := time.Now().Add(3 * time.Second)
	var got string
	for time.Now().Before(deadline) {
		resp := MakeRequest(t, http.MethodGet, baseURL+"/views")
		got = ReadBody(t, resp)
		if got == want {
			return
		}
		time.Sleep(20 * time.Millisecond)
	}
	t.Fatalf("views counter never reached %s, last value %s", want, got)
}
