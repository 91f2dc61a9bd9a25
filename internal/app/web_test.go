package app

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/relabs-tech/orientation_panel/internal/panel"
	"github.com/relabs-tech/orientation_panel/internal/render"
)

func dialHub(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	return conn
}

func (h *frameHub) connCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.conns)
}

func TestFrameHub_ReplaysToLateJoiner(t *testing.T) {
	hub := newFrameHub()
	hub.BroadcastSettings(panel.BuildSettings(panel.DefaultState(), nil))
	hub.BroadcastFrame(render.Frame{Labels: []render.LabelDraw{{Name: "imu"}}})

	srv := httptest.NewServer(http.HandlerFunc(hub.handleWS))
	defer srv.Close()

	conn := dialHub(t, srv)
	defer conn.Close()

	conn.SetReadDeadline(time.Now().Add(time.Second))
	var first, second wsEnvelope
	require.NoError(t, conn.ReadJSON(&first))
	require.NoError(t, conn.ReadJSON(&second))
	assert.Equal(t, "settings", first.Type)
	assert.Equal(t, "frame", second.Type)
	require.NotNil(t, second.Frame)
	assert.Equal(t, "imu", second.Frame.Labels[0].Name)
}

func TestFrameHub_DropsDeadConns(t *testing.T) {
	hub := newFrameHub()
	srv := httptest.NewServer(http.HandlerFunc(hub.handleWS))
	defer srv.Close()

	conn := dialHub(t, srv)
	require.Eventually(t, func() bool { return hub.connCount() == 1 },
		time.Second, 10*time.Millisecond)

	// Either the read drain or a failed broadcast write may notice the
	// close first; both funnel through dropConn and must leave the hub
	// empty either way.
	conn.Close()
	assert.Eventually(t, func() bool {
		hub.BroadcastFrame(render.Frame{})
		return hub.connCount() == 0
	}, time.Second, 10*time.Millisecond)
}
