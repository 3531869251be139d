package wrs_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/RobertWHurst/wrs"
	"github.com/coder/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dialServer(t *testing.T, url string) *websocket.Conn {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	conn, _, err := websocket.Dial(ctx, url, &websocket.DialOptions{
		Subprotocols: []string{wrs.DefaultProtocol},
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close(websocket.StatusNormalClosure, "") })
	return conn
}

func readResponse(t *testing.T, conn *websocket.Conn) (*testResponse, *testOkMessage) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	_, data, err := conn.Read(ctx)
	require.NoError(t, err)

	response := &testResponse{}
	require.NoError(t, json.Unmarshal(data, response), string(data))
	if !response.OK {
		return response, nil
	}
	message := &testOkMessage{}
	require.NoError(t, json.Unmarshal(response.Message, message))
	return response, message
}

func writeJSON(t *testing.T, conn *websocket.Conn, value any) {
	t.Helper()
	data, err := json.Marshal(value)
	require.NoError(t, err)
	require.NoError(t, conn.Write(context.Background(), websocket.MessageText, data))
}

func TestServerRoundTrip(t *testing.T) {
	server := newProfileServer()
	httpServer := httptest.NewServer(server)
	defer httpServer.Close()

	conn := dialServer(t, httpServer.URL)
	assert.Equal(t, wrs.DefaultProtocol, conn.Subprotocol())

	_, greeting := readResponse(t, conn)
	assert.Equal(t, "codes", greeting.Class)

	writeJSON(t, conn, map[string]any{"target": "user", "section": "Profile", "page": "get", "id": 1})
	response, message := readResponse(t, conn)
	assert.Equal(t, int64(1), response.ID)
	assert.Equal(t, "profile", message.Class)

	require.NoError(t, conn.Write(context.Background(), websocket.MessageText, []byte("ping")))
	_, data, err := conn.Read(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "pong", string(data))
}

func TestServerRejectsUnknownProtocol(t *testing.T) {
	server := newProfileServer()
	rejected := make(chan *wrs.ConnectionInfo, 1)
	server.Events().On(wrs.EventWebsocketReject, func(event *wrs.Event) {
		rejected <- event.Data().(*wrs.ConnectionInfo)
	})
	httpServer := httptest.NewServer(server)
	defer httpServer.Close()

	_, res, err := websocket.Dial(context.Background(), httpServer.URL, &websocket.DialOptions{
		Subprotocols: []string{"other"},
	})
	require.Error(t, err)
	require.NotNil(t, res)
	assert.Equal(t, http.StatusForbidden, res.StatusCode)
	assert.NotNil(t, <-rejected)
}

func TestServerWithoutProtocolAcceptsAnyClient(t *testing.T) {
	server := newProfileServer()
	server.SetProtocol("")
	httpServer := httptest.NewServer(server)
	defer httpServer.Close()

	conn, _, err := websocket.Dial(context.Background(), httpServer.URL, nil)
	require.NoError(t, err)
	defer func() { _ = conn.Close(websocket.StatusNormalClosure, "") }()

	_, greeting := readResponse(t, conn)
	assert.Equal(t, "codes", greeting.Class)
}

func TestServerRejectsPlainHTTP(t *testing.T) {
	httpServer := httptest.NewServer(newProfileServer())
	defer httpServer.Close()

	res, err := http.Get(httpServer.URL)
	require.NoError(t, err)
	defer res.Body.Close()
	assert.Equal(t, http.StatusBadRequest, res.StatusCode)
}

func TestServerBroadcast(t *testing.T) {
	server := newProfileServer()
	httpServer := httptest.NewServer(server)
	defer httpServer.Close()

	a := dialServer(t, httpServer.URL)
	b := dialServer(t, httpServer.URL)
	readResponse(t, a)
	readResponse(t, b)
	require.Eventually(t, func() bool { return len(server.Connections()) == 2 }, time.Second, time.Millisecond)

	require.NoError(t, server.Broadcast("notice", "hello", nil))

	for _, conn := range []*websocket.Conn{a, b} {
		_, message := readResponse(t, conn)
		assert.Equal(t, "notice", message.Class)
		assert.JSONEq(t, `"hello"`, string(message.Data))
	}
}

func TestServerSendTo(t *testing.T) {
	server := newProfileServer()
	httpServer := httptest.NewServer(server)
	defer httpServer.Close()

	conn := dialServer(t, httpServer.URL)
	readResponse(t, conn)
	require.Eventually(t, func() bool { return len(server.Connections()) == 1 }, time.Second, time.Millisecond)

	id := server.Connections()[0].ID()
	handle, ok := server.Socket(id)
	require.True(t, ok)
	assert.Equal(t, id, handle.ID())

	require.NoError(t, server.SendTo(id, "direct", 42))
	response, message := readResponse(t, conn)
	assert.Equal(t, int64(0), response.ID)
	assert.Equal(t, "direct", message.Class)

	err := server.SendTo("missing", "direct", 42)
	assert.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "missing"))
}

func TestServerModuleDependencies(t *testing.T) {
	base := wrs.NewModule("Base").Codes("base failure")
	app := wrs.NewModule("App").Depends(base)

	server := wrs.NewServer()
	server.Module(app, app)

	assert.Len(t, server.Modules(), 2)
	assert.NotEqual(t, -1, server.Codes().IndexOf("BASE_FAILURE"))
}
