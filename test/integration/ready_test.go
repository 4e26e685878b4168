package integration

import (
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/perchlabs/perch/test/testhelpers"
)

func sendText(t *testing.T, conn *websocket.Conn, text string) {
	t.Helper()
	if err := conn.WriteMessage(websocket.TextMessage, []byte(text)); err != nil {
		t.Fatalf("Failed to send %q: %v", text, err)
	}
}

func expectText(t *testing.T, conn *websocket.Conn, want string) {
	t.Helper()
	if err := conn.SetReadDeadline(time.Now().Add(recvTimeout)); err != nil {
		t.Fatalf("Failed to set read deadline: %v", err)
	}
	_, raw, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("Failed to read reply: %v", err)
	}
	if string(raw) != want {
		t.Errorf("Expected reply %q, got %q", want, raw)
	}
}

// TestPingBeforeServeIsIgnored verifies that "ping" yields no reply while
// the handshake session is still NotReady. The frames are processed in
// order, so if the early ping had been answered the first reply read here
// would precede the post-serve pong.
func TestPingBeforeServeIsIgnored(t *testing.T) {
	_, ts := testhelpers.NewChatServer(t, nil)

	conn := testhelpers.MustConnect(t, testhelpers.WSURL(ts, "/ws/ping"))

	sendText(t, conn, "ping")
	sendText(t, conn, "serve")
	sendText(t, conn, "ping")

	expectText(t, conn, "pong")
	testhelpers.ExpectNoMessage(t, conn, 300*time.Millisecond)
}

// TestServeThenPingPongs verifies the Ready transition: after "serve",
// every "ping" is answered with exactly one "pong".
func TestServeThenPingPongs(t *testing.T) {
	_, ts := testhelpers.NewChatServer(t, nil)

	conn := testhelpers.MustConnect(t, testhelpers.WSURL(ts, "/ws/ping"))

	sendText(t, conn, "serve")
	sendText(t, conn, "ping")
	expectText(t, conn, "pong")

	sendText(t, conn, "ping")
	expectText(t, conn, "pong")

	// Exactly one pong per ping, nothing queued beyond that.
	testhelpers.ExpectNoMessage(t, conn, 300*time.Millisecond)
}

// TestUnknownPayloadIgnored verifies that frames outside the serve/ping
// vocabulary neither reply nor reset the state machine: the only reply is
// the pong for the trailing ping.
func TestUnknownPayloadIgnored(t *testing.T) {
	_, ts := testhelpers.NewChatServer(t, nil)

	conn := testhelpers.MustConnect(t, testhelpers.WSURL(ts, "/ws/ping"))

	sendText(t, conn, "serve")
	sendText(t, conn, "volley")
	sendText(t, conn, "ping")

	expectText(t, conn, "pong")
	testhelpers.ExpectNoMessage(t, conn, 300*time.Millisecond)
}

// TestBinaryFrameEndsHandshake verifies that a non-text frame terminates
// the handshake session.
func TestBinaryFrameEndsHandshake(t *testing.T) {
	_, ts := testhelpers.NewChatServer(t, nil)

	conn := testhelpers.MustConnect(t, testhelpers.WSURL(ts, "/ws/ping"))

	if err := conn.WriteMessage(websocket.BinaryMessage, []byte{0x01}); err != nil {
		t.Fatalf("Failed to send binary frame: %v", err)
	}

	_ = conn.SetReadDeadline(time.Now().Add(recvTimeout))
	if _, _, err := conn.ReadMessage(); err == nil {
		t.Fatal("Expected connection to be closed after binary frame")
	}
}
