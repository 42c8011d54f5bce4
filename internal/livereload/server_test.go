package livereload

import (
	"bufio"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"assetpipe/internal/logs"
)

func testLogger() *logs.Logger {
	return logs.NewLogger(io.Discard, logs.LevelError)
}

func TestHealthz(t *testing.T) {
	s := New(":0", testLogger())
	ts := httptest.NewServer(s.Handler())
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestEventsStreamReceivesBroadcast(t *testing.T) {
	s := New(":0", testLogger())
	ts := httptest.NewServer(s.Handler())
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/events")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	reader := bufio.NewReader(resp.Body)

	// First frame is the connection comment.
	line, err := reader.ReadString('\n')
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(line, ": connected"))

	require.Eventually(t, func() bool {
		return s.ClientCount() == 1
	}, 2*time.Second, 10*time.Millisecond)

	s.Broadcast("styles")

	deadline := time.Now().Add(2 * time.Second)
	var event, data string
	for time.Now().Before(deadline) && (event == "" || data == "") {
		line, err := reader.ReadString('\n')
		require.NoError(t, err)
		switch {
		case strings.HasPrefix(line, "event:"):
			event = strings.TrimSpace(strings.TrimPrefix(line, "event:"))
		case strings.HasPrefix(line, "data:"):
			data = strings.TrimSpace(strings.TrimPrefix(line, "data:"))
		}
	}

	require.Equal(t, "reload", event)
	require.Contains(t, data, `"rule":"styles"`)
}

func TestBroadcastWithoutClientsDoesNotBlock(t *testing.T) {
	s := New(":0", testLogger())

	done := make(chan struct{})
	go func() {
		s.Broadcast("styles")
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("broadcast blocked with no clients")
	}
}

func TestClientDisconnectUnregisters(t *testing.T) {
	s := New(":0", testLogger())
	ts := httptest.NewServer(s.Handler())
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/events")
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		return s.ClientCount() == 1
	}, 2*time.Second, 10*time.Millisecond)

	resp.Body.Close()

	require.Eventually(t, func() bool {
		return s.ClientCount() == 0
	}, 2*time.Second, 10*time.Millisecond)
}
