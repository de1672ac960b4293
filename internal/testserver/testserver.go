// Package testserver runs the whole TeamDash stack behind an httptest server.
package testserver

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"

	"github.com/teamdash/teamdash/internal/app"
	"github.com/teamdash/teamdash/internal/config"
	"github.com/teamdash/teamdash/internal/realtime"
	"github.com/teamdash/teamdash/internal/transport"
)

// Secret signs the tokens of test principals.
const Secret = "test-secret"

type TestServer struct {
	Server *httptest.Server
	App    *app.App
}

// New starts an authenticated server on an in-memory database.
func New(t *testing.T, opts ...app.Option) *TestServer {
	t.Helper()

	cfg := config.Default()
	cfg.DB.Path = ":memory:"
	cfg.Auth.Enabled = true
	cfg.Auth.JWTSecret = Secret

	a, err := app.New(context.Background(), cfg, nil, opts...)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	hubDone := make(chan struct{})
	go func() {
		defer close(hubDone)
		_ = a.Hub.Run(ctx)
	}()

	server := httptest.NewServer(a.Handler())
	t.Cleanup(func() {
		server.Close()
		cancel()
		<-hubDone
		_ = a.Close()
	})

	return &TestServer{Server: server, App: a}
}

// Token issues a bearer token for p.
func (ts *TestServer) Token(t *testing.T, p transport.Principal) string {
	t.Helper()
	token, err := ts.App.Auth.Issue(p, time.Hour)
	require.NoError(t, err)
	return token
}

// Do sends a JSON request and decodes the JSON response into out, if given.
func (ts *TestServer) Do(t *testing.T, token, method, path string, body, out any) int {
	t.Helper()

	var payload bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&payload).Encode(body))
	}
	req, err := http.NewRequest(method, ts.Server.URL+path, &payload)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	if out != nil {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp.StatusCode
}

// Dial opens a websocket to the hub.
func (ts *TestServer) Dial(t *testing.T, token string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(ts.Server.URL, "http") + "/ws?access_token=" + token
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

// Subscribe joins channel and waits for the hub's acknowledgement.
func Subscribe(t *testing.T, conn *websocket.Conn, channel string) {
	t.Helper()
	require.NoError(t, conn.WriteJSON(map[string]string{"action": "subscribe", "channel": channel}))
	ev := NextEvent(t, conn, func(ev realtime.Event) bool { return ev.Topic == channel })
	require.Equal(t, realtime.KindAck, ev.Kind, "subscribe %s: %s", channel, ev.Name)
}

// NextEvent reads events until match accepts one.
func NextEvent(t *testing.T, conn *websocket.Conn, match func(realtime.Event) bool) realtime.Event {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(3*time.Second)))
	for {
		var ev realtime.Event
		require.NoError(t, conn.ReadJSON(&ev))
		if match(ev) {
			return ev
		}
	}
}
