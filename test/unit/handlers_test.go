package unit

import (
	"net/http"
	"strings"
	"testing"

	"github.com/perchlabs/perch/test/testhelpers"
)

// TestHealthEndpoint verifies the health check response.
func TestHealthEndpoint(t *testing.T) {
	_, ts := testhelpers.NewChatServer(t, nil)

	resp := testhelpers.MakeRequest(t, http.MethodGet, ts.URL+"/healthz")
	testhelpers.AssertStatusCode(t, resp, http.StatusOK)
	testhelpers.AssertContentType(t, resp, "text/plain")

	body := testhelpers.ReadBody(t, resp)
	if body != "Perch server is running!" {
		t.Errorf("Unexpected health body: %q", body)
	}
}

// TestViewsEndpointStartsAtZero verifies the initial counter value over HTTP.
func TestViewsEndpointStartsAtZero(t *testing.T) {
	_, ts := testhelpers.NewChatServer(t, nil)

	resp := testhelpers.MakeRequest(t, http.MethodGet, ts.URL+"/views")
	testhelpers.AssertStatusCode(t, resp, http.StatusOK)

	if body := testhelpers.ReadBody(t, resp); body != "0" {
		t.Errorf("Expected views body %q, got %q", "0", body)
	}
}

// TestResetThenQueryReturnsZero verifies the reset/query round trip even
// after the counter was bumped directly.
func TestResetThenQueryReturnsZero(t *testing.T) {
	srv, ts := testhelpers.NewChatServer(t, nil)

	srv.Views().Increment()
	srv.Views().Increment()

	resp := testhelpers.MakeRequest(t, http.MethodGet, ts.URL+"/views")
	if body := testhelpers.ReadBody(t, resp); body != "2" {
		t.Fatalf("Expected views body %q, got %q", "2", body)
	}

	resp = testhelpers.MakeRequest(t, http.MethodPost, ts.URL+"/reset")
	testhelpers.AssertStatusCode(t, resp, http.StatusOK)
	if body := testhelpers.ReadBody(t, resp); body != "" {
		t.Errorf("Expected empty reset body, got %q", body)
	}

	resp = testhelpers.MakeRequest(t, http.MethodGet, ts.URL+"/views")
	if body := testhelpers.ReadBody(t, resp); body != "0" {
		t.Errorf("Expected views body %q after reset, got %q", "0", body)
	}
}

// TestEndpointMethodRestrictions verifies that wrong HTTP methods are
// rejected by the router.
func TestEndpointMethodRestrictions(t *testing.T) {
	_, ts := testhelpers.NewChatServer(t, nil)

	resp := testhelpers.MakeRequest(t, http.MethodPost, ts.URL+"/views")
	testhelpers.AssertStatusCode(t, resp, http.StatusMethodNotAllowed)
	testhelpers.ReadBody(t, resp)

	resp = testhelpers.MakeRequest(t, http.MethodGet, ts.URL+"/reset")
	testhelpers.AssertStatusCode(t, resp, http.StatusMethodNotAllowed)
	testhelpers.ReadBody(t, resp)
}

// TestChatEndpointRejectsBadRoomID verifies that a non-numeric room id does
// not reach the upgrade path.
func TestChatEndpointRejectsBadRoomID(t *testing.T) {
	_, ts := testhelpers.NewChatServer(t, nil)

	resp := testhelpers.MakeRequest(t, http.MethodGet, ts.URL+"/ws/room/abc/user/alice")
	testhelpers.AssertStatusCode(t, resp, http.StatusNotFound)
	testhelpers.ReadBody(t, resp)
}

// TestMetricsEndpoint verifies that the Prometheus collectors are exposed.
func TestMetricsEndpoint(t *testing.T) {
	_, ts := testhelpers.NewChatServer(t, nil)

	resp := testhelpers.MakeRequest(t, http.MethodGet, ts.URL+"/metrics")
	testhelpers.AssertStatusCode(t, resp, http.StatusOK)

	body := testhelpers.ReadBody(t, resp)
	for _, metric := range []string{
		"perch_messages_delivered_total",
		"perch_messages_dropped_total",
		"perch_active_sessions",
		"perch_rooms",
	} {
		if !strings.Contains(body, metric) {
			t.Errorf("Metrics output missing %s", metric)
		}
	}
}

// TestTestPageServed verifies the built-in test page renders.
func TestTestPageServed(t *testing.T) {
	_, ts := testhelpers.NewChatServer(t, nil)

	resp := testhelpers.MakeRequest(t, http.MethodGet, ts.URL+"/test")
	testhelpers.AssertStatusCode(t, resp, http.StatusOK)
	testhelpers.AssertContentType(t, resp, "text/html")

	if body := testhelpers.ReadBody(t, resp); !strings.Contains(body, "Perch Chat Test") {
		t.Error("Test page missing expected title")
	}
}
