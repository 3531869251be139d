package httpserver_test

import (
	"context"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/RobertWHurst/wrs"
	"github.com/RobertWHurst/wrs/internal/httpserver"
	"github.com/coder/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRoot(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "index.html"), []byte("<h1>wrs</h1>"), 0o600))
	return root
}

func TestServesStaticFiles(t *testing.T) {
	httpServer := httptest.NewServer(httpserver.NewRouter(wrs.NewServer(), newRoot(t)))
	defer httpServer.Close()

	res, err := http.Get(httpServer.URL + "/")
	require.NoError(t, err)
	defer res.Body.Close()
	body, err := io.ReadAll(res.Body)
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, res.StatusCode)
	assert.Equal(t, "<h1>wrs</h1>", string(body))
}

func TestBadMethod(t *testing.T) {
	server := wrs.NewServer()
	badMethods := 0
	server.Events().On(wrs.EventServerBadMethod, func(*wrs.Event) { badMethods += 1 })
	httpServer := httptest.NewServer(httpserver.NewRouter(server, newRoot(t)))
	defer httpServer.Close()

	res, err := http.Post(httpServer.URL+"/anything", "text/plain", strings.NewReader("x"))
	require.NoError(t, err)
	defer res.Body.Close()

	response := struct {
		Code       int    `json:"code"`
		OK         bool   `json:"ok"`
		StatusCode string `json:"statusCode"`
	}{}
	require.NoError(t, json.NewDecoder(res.Body).Decode(&response))

	assert.Equal(t, http.StatusMethodNotAllowed, res.StatusCode)
	assert.False(t, response.OK)
	assert.Equal(t, wrs.CodeBadMethod, response.StatusCode)
	assert.Equal(t, server.Codes().IndexOf(wrs.CodeBadMethod), response.Code)
	assert.Equal(t, 1, badMethods)
}

func TestListenServesWebSockets(t *testing.T) {
	server := wrs.NewServer()
	server.Module(wrs.NewModule("Echo").Controller(
		wrs.NewController("EchoController", "Echo").Page("say", func(ctx *wrs.Context) wrs.Outcome {
			var text string
			if err := ctx.Bind(&text); err != nil {
				return wrs.BadDigestion()
			}
			return ctx.Ok("said", text)
		}),
	))

	s := httpserver.New(server, newRoot(t))
	require.NoError(t, s.Listen(0))
	assert.Equal(t, 1, server.Events().HasFired(wrs.EventServerReady))

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	_, port, err := net.SplitHostPort(s.Addr())
	require.NoError(t, err)
	conn, _, err := websocket.Dial(ctx, "ws://127.0.0.1:"+port+"/", &websocket.DialOptions{
		Subprotocols: []string{wrs.DefaultProtocol},
	})
	require.NoError(t, err)

	_, _, err = conn.Read(ctx)
	require.NoError(t, err)

	require.NoError(t, conn.Write(ctx, websocket.MessageText, []byte(`{"target":"echo","section":"Echo","page":"say","data":"hi"}`)))
	_, data, err := conn.Read(ctx)
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":0,"code":0,"ok":true,"statusCode":"SUCCESS","message":{"class":"said","data":"hi"}}`, string(data))

	require.NoError(t, s.Shutdown(ctx))
	_, _, err = conn.Read(ctx)
	assert.Error(t, err)
}
