package guard_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/RobertWHurst/wrs"
	"github.com/RobertWHurst/wrs/interceptors/guard"
	"github.com/coder/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type response struct {
	OK         bool            `json:"ok"`
	StatusCode string          `json:"statusCode"`
	Message    json.RawMessage `json:"message"`
}

func newServer() *wrs.Server {
	server := wrs.NewServer()
	server.Module(wrs.NewModule("Account").Controller(
		wrs.NewController("SessionController", "Session").
			Page("login", func(ctx *wrs.Context) wrs.Outcome {
				ctx.SetOnConnection(wrs.KeyAuth, "ada")
				return ctx.Ok("login", true)
			}),
		wrs.NewController("ProfileController", "Profile").
			Page("get", func(ctx *wrs.Context) wrs.Outcome {
				return ctx.Ok("profile", ctx.GetFromConnection(wrs.KeyAuth))
			}).
			Page("touch", func(ctx *wrs.Context) wrs.Outcome {
				return ctx.Ok("touched", true)
			}),
	))
	return server
}

func dial(t *testing.T, server *wrs.Server, header http.Header) *websocket.Conn {
	t.Helper()
	httpServer := httptest.NewServer(server)
	t.Cleanup(httpServer.Close)

	conn, _, err := websocket.Dial(context.Background(), httpServer.URL, &websocket.DialOptions{
		Subprotocols: []string{wrs.DefaultProtocol},
		HTTPHeader:   header,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close(websocket.StatusNormalClosure, "") })
	return conn
}

func read(t *testing.T, conn *websocket.Conn) (*response, string) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	_, data, err := conn.Read(ctx)
	require.NoError(t, err)
	r := &response{}
	if err := json.Unmarshal(data, r); err != nil {
		return nil, string(data)
	}
	return r, string(data)
}

func write(t *testing.T, conn *websocket.Conn, section string, page string) {
	t.Helper()
	data, err := json.Marshal(map[string]any{"target": "account", "section": section, "page": page})
	require.NoError(t, err)
	require.NoError(t, conn.Write(context.Background(), websocket.MessageText, data))
}

func TestRequireConnectionValue(t *testing.T) {
	server := newServer()
	server.Interceptors().
		AttachController("ProfileController").
		Handle(guard.RequireConnectionValue(wrs.KeyAuth, wrs.CodeNoAuth))
	conn := dial(t, server, nil)
	read(t, conn)

	write(t, conn, "Profile", "get")
	r, _ := read(t, conn)
	assert.False(t, r.OK)
	assert.Equal(t, wrs.CodeNoAuth, r.StatusCode)

	write(t, conn, "Session", "login")
	r, _ = read(t, conn)
	assert.True(t, r.OK)

	write(t, conn, "Profile", "get")
	r, _ = read(t, conn)
	assert.True(t, r.OK)
	assert.JSONEq(t, `{"class":"profile","data":"ada"}`, string(r.Message))
}

func TestDenyOnPage(t *testing.T) {
	server := newServer()
	server.Interceptors().
		AttachPage("ProfileController", "touch").
		Handle(guard.Deny(wrs.CodeNoAccess, func(ctx *wrs.Context) bool {
			return ctx.Message.Option != "allowed"
		}))
	conn := dial(t, server, nil)
	read(t, conn)

	write(t, conn, "Profile", "touch")
	r, _ := read(t, conn)
	assert.Equal(t, wrs.CodeNoAccess, r.StatusCode)

	data, err := json.Marshal(map[string]any{"target": "account", "section": "Profile", "page": "touch", "option": "allowed"})
	require.NoError(t, err)
	require.NoError(t, conn.Write(context.Background(), websocket.MessageText, data))
	r, _ = read(t, conn)
	assert.True(t, r.OK)
}

func TestSilence(t *testing.T) {
	server := newServer()
	server.Interceptors().AttachPage("ProfileController", "touch").Handle(guard.Silence())
	conn := dial(t, server, nil)
	read(t, conn)

	write(t, conn, "Profile", "touch")
	require.NoError(t, conn.Write(context.Background(), websocket.MessageText, []byte("ping")))

	_, raw := read(t, conn)
	assert.Equal(t, "pong", raw)
}

func TestGreeting(t *testing.T) {
	server := newServer()
	server.Interceptors().AttachConnection("rise").Handle(guard.Greeting(func(connection *wrs.Connection) string {
		if connection.Headers().Get("X-Client") == "" {
			return "unknown client"
		}
		return ""
	}))

	r, _ := read(t, dial(t, server, nil))
	assert.False(t, r.OK)
	assert.Equal(t, wrs.CodeUnknown, r.StatusCode)
	assert.JSONEq(t, `"unknown client"`, string(r.Message))

	r, _ = read(t, dial(t, server, http.Header{"X-Client": []string{"test"}}))
	assert.True(t, r.OK)
}
