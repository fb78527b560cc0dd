package server

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/thornpw/steuer/internal/gamepad"
	"github.com/thornpw/steuer/internal/hub"
	"github.com/thornpw/steuer/internal/mapping"
)

type fixture struct {
	srv     *Server
	http    *httptest.Server
	changes chan gamepad.DeviceState
	metrics *Metrics
	b       *hub.Broadcaster
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	store, err := mapping.NewStore("test", nil, nil)
	require.NoError(t, err)
	m := mapping.New()
	require.NoError(t, m.Bind(mapping.ButtonTable, "0", "BUTTON_TOP"))
	require.NoError(t, m.Bind(mapping.HatTable, "0:0:1", "DPAD_TOP"))
	require.NoError(t, store.Upsert("Pad", m))

	h := hub.NewHub(nil)
	go h.Run(ctx)
	changes := make(chan gamepad.DeviceState)
	b := hub.NewBroadcaster(h, changes, nil)
	go b.Run(ctx)

	metrics := NewMetrics()
	srv := New(h, b, store, metrics, "", nil)
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return &fixture{srv: srv, http: ts, changes: changes, metrics: metrics, b: b}
}

func (f *fixture) get(t *testing.T, path string) (int, string) {
	t.Helper()
	res, err := http.Get(f.http.URL + path)
	require.NoError(t, err)
	defer res.Body.Close()
	body, err := io.ReadAll(res.Body)
	require.NoError(t, err)
	return res.StatusCode, string(body)
}

func TestMappingsAPI(t *testing.T) {
	f := newFixture(t)

	code, body := f.get(t, "/api/mappings")
	assert.Equal(t, http.StatusOK, code)
	assert.JSONEq(t, `["Pad"]`, body)

	code, body = f.get(t, "/api/mappings/Pad")
	assert.Equal(t, http.StatusOK, code)
	assert.JSONEq(t, `{
		"button": {"0": {"Function": "BUTTON_TOP"}},
		"axis": {},
		"hat": {"0:0:1": {"Function": "DPAD_TOP"}}
	}`, body)

	code, _ = f.get(t, "/api/mappings/Unknown")
	assert.Equal(t, http.StatusNotFound, code)
}

func TestMetrics(t *testing.T) {
	f := newFixture(t)
	f.metrics.Event("button_down")
	f.metrics.Event("button_down")
	f.metrics.Action("BUTTON_TOP")
	f.metrics.Acquisition("duplicate")

	code, body := f.get(t, "/metrics")
	assert.Equal(t, http.StatusOK, code)
	assert.Contains(t, body, `steuer_events_total{kind="button_down"} 2`)
	assert.Contains(t, body, `steuer_actions_total{action="BUTTON_TOP"} 1`)
	assert.Contains(t, body, `steuer_acquisitions_total{result="duplicate"} 1`)
}

func TestStatusPage(t *testing.T) {
	f := newFixture(t)
	f.changes <- gamepad.DeviceState{Index: 0, Name: "Pad", Mapped: true, Actions: []string{"BUTTON_TOP"}}
	require.Eventually(t, func() bool { return len(f.b.States()) == 1 }, time.Second, time.Millisecond)

	code, body := f.get(t, "/")
	assert.Equal(t, http.StatusOK, code)
	assert.Contains(t, body, "BUTTON_TOP")
	assert.Contains(t, body, "/api/mappings/Pad")
	assert.NotContains(t, body, "\n\t")

	code, _ = f.get(t, "/nothing-here")
	assert.Equal(t, http.StatusNotFound, code)
}

func TestWebSocketInitialState(t *testing.T) {
	f := newFixture(t)
	f.changes <- gamepad.DeviceState{Index: 0, Name: "Pad", Mapped: true, Actions: []string{}}
	require.Eventually(t, func() bool { return len(f.b.States()) == 1 }, time.Second, time.Millisecond)

	url := "ws" + strings.TrimPrefix(f.http.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(time.Second)))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)

	var msg hub.WSMessage
	require.NoError(t, json.Unmarshal(data, &msg))
	assert.Equal(t, "full", msg.Type)
	require.NotNil(t, msg.Data)
	assert.Equal(t, "Pad", msg.Data.Name)
}
