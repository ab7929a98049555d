package web

import (
	"context"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teslashibe/go-evergreen/pkg/protocol"
	"github.com/teslashibe/go-evergreen/pkg/session"
)

const frame = 1.0 / 60

func newRunner(t *testing.T) *session.Runner {
	t.Helper()
	cfg := session.DefaultConfig()
	cfg.Particles.FoliageCount = 200
	cfg.Particles.OrnamentCount = 20
	cfg.Particles.LightCount = 10
	cfg.Particles.DustCount = 10
	cfg.Particles.Seed = 3
	s, err := session.New(cfg)
	require.NoError(t, err)
	return session.NewRunner(s)
}

func newServer(t *testing.T) (*Server, *session.Runner) {
	t.Helper()
	r := newRunner(t)
	srv := NewServer(r, DefaultConfig())
	r.OnTick(srv.Publish)
	return srv, r
}

func do(t *testing.T, srv *Server, method, path, body string) (*http.Response, []byte) {
	t.Helper()
	var rd io.Reader
	if body != "" {
		rd = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, rd)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := srv.App().Test(req)
	require.NoError(t, err)
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, data
}

func getState(t *testing.T, srv *Server) protocol.StateData {
	t.Helper()
	resp, body := do(t, srv, "GET", "/api/state", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var state protocol.StateData
	require.NoError(t, json.Unmarshal(body, &state))
	return state
}

func TestGetState(t *testing.T) {
	srv, _ := newServer(t)

	state := getState(t, srv)
	assert.Equal(t, "FORMED", state.Mode)
	assert.Equal(t, uint64(0), state.Seq)
	assert.NotEmpty(t, state.SessionID)
	assert.Equal(t, 0.5, state.Control.Zoom)
	assert.Equal(t, 2.5, state.Tuning.LerpSpeed)
}

func TestToggleAndMode(t *testing.T) {
	srv, r := newServer(t)

	resp, _ := do(t, srv, "POST", "/api/toggle", "")
	assert.Equal(t, http.StatusAccepted, resp.StatusCode)
	r.Step(frame)
	assert.Equal(t, "CHAOS", getState(t, srv).Mode)

	resp, _ = do(t, srv, "POST", "/api/mode/formed", "")
	assert.Equal(t, http.StatusAccepted, resp.StatusCode)
	r.Step(frame)
	assert.Equal(t, "FORMED", getState(t, srv).Mode)

	resp, _ = do(t, srv, "POST", "/api/mode/sideways", "")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestPositions(t *testing.T) {
	srv, _ := newServer(t)

	resp, body := do(t, srv, "GET", "/api/positions/foliage", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var pos PositionsResponse
	require.NoError(t, json.Unmarshal(body, &pos))
	assert.Equal(t, 200, pos.Count)
	assert.Len(t, pos.Positions, 600)
	assert.Equal(t, "FORMED", pos.Mode)

	resp, body = do(t, srv, "GET", "/api/positions/lights?format=binary", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, body, 10*3*4)
	assert.Equal(t, "0", resp.Header.Get("X-Seq"))

	resp, _ = do(t, srv, "GET", "/api/positions/snow", "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestSettle(t *testing.T) {
	srv, _ := newServer(t)

	resp, body := do(t, srv, "GET", "/api/settle", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), `"max":0`)
}

func TestTuning(t *testing.T) {
	srv, r := newServer(t)

	resp, _ := do(t, srv, "POST", "/api/tuning", `{"lerp_speed":4,"spin_friction":0.9}`)
	assert.Equal(t, http.StatusAccepted, resp.StatusCode)
	r.Step(frame)

	resp, body := do(t, srv, "GET", "/api/tuning", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var tuning session.Tuning
	require.NoError(t, json.Unmarshal(body, &tuning))
	assert.Equal(t, 4.0, tuning.LerpSpeed)
	assert.Equal(t, 0.9, tuning.SpinFriction)
	assert.Equal(t, 0.005, tuning.SpinSensitivity)

	for _, bad := range []string{`{"spin_friction":1.5}`, `{"lerp_speed":-1}`, `{}`, `{nope`} {
		resp, _ := do(t, srv, "POST", "/api/tuning", bad)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode, bad)
	}
}

func TestStats(t *testing.T) {
	srv, r := newServer(t)
	srv.AddStats("ingest", func() any { return map[string]int{"tracker_count": 2} })
	r.Step(frame)

	resp, body := do(t, srv, "GET", "/api/stats", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var stats struct {
		Runner  session.RunnerStats `json:"runner"`
		Viewers int                 `json:"viewers"`
		Ingest  map[string]int      `json:"ingest"`
	}
	require.NoError(t, json.Unmarshal(body, &stats))
	assert.Equal(t, uint64(1), stats.Runner.Ticks)
	assert.Equal(t, 0, stats.Viewers)
	assert.Equal(t, 2, stats.Ingest["tracker_count"])
}

func TestStateWebSocket(t *testing.T) {
	srv, r := newServer(t)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	go srv.Serve(ctx, ln)

	ws, _, err := websocket.DefaultDialer.Dial("ws://"+ln.Addr().String()+"/ws/state", nil)
	require.NoError(t, err)
	defer ws.Close()

	readState := func() (*protocol.Message, *protocol.StateData) {
		ws.SetReadDeadline(time.Now().Add(2 * time.Second))
		_, data, err := ws.ReadMessage()
		require.NoError(t, err)
		msg, err := protocol.ParseMessage(data)
		require.NoError(t, err)
		if msg.Type != protocol.TypeState {
			return msg, nil
		}
		state, err := msg.GetStateData()
		require.NoError(t, err)
		return msg, state
	}

	_, initial := readState()
	require.NotNil(t, initial)
	assert.Equal(t, "FORMED", initial.Mode)

	cmd, _ := protocol.NewCommandMessage(protocol.ActionSet, "chaos")
	data, _ := cmd.Bytes()
	require.NoError(t, ws.WriteMessage(websocket.TextMessage, data))
	require.Eventually(t, func() bool { return r.Stats().CommandsSubmitted == 1 }, 2*time.Second, 10*time.Millisecond)

	r.Step(frame)
	_, state := readState()
	require.NotNil(t, state)
	assert.Equal(t, "CHAOS", state.Mode)
	assert.Equal(t, uint64(1), state.Seq)

	bad, _ := protocol.NewCommandMessage("explode", "")
	data, _ = bad.Bytes()
	require.NoError(t, ws.WriteMessage(websocket.TextMessage, data))
	msg, _ := readState()
	assert.Equal(t, protocol.TypeError, msg.Type)
}

func TestTuningFrom(t *testing.T) {
	got, err := tuningFrom(protocol.TuningData{SpinSensitivity: 0.01})
	require.NoError(t, err)
	assert.Equal(t, session.Tuning{SpinSensitivity: 0.01}, got)

	_, err = tuningFrom(protocol.TuningData{SpinFriction: 1})
	assert.ErrorIs(t, err, ErrInvalidTuning)
}
