package main

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/RobertWHurst/wrs"
	"github.com/coder/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSystemRoutes(t *testing.T) {
	server := wrs.NewServer()
	server.Module(NewSystemModule(server))
	httpServer := httptest.NewServer(server)
	defer httpServer.Close()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	conn, _, err := websocket.Dial(ctx, httpServer.URL, &websocket.DialOptions{
		Subprotocols: []string{wrs.DefaultProtocol},
	})
	require.NoError(t, err)
	defer func() { _ = conn.Close(websocket.StatusNormalClosure, "") }()

	_, _, err = conn.Read(ctx)
	require.NoError(t, err)

	require.NoError(t, conn.Write(ctx, websocket.MessageText, []byte(`{"target":"system","section":"System","page":"routes"}`)))
	_, data, err := conn.Read(ctx)
	require.NoError(t, err)

	response := struct {
		Message struct {
			Data []string `json:"data"`
		} `json:"message"`
	}{}
	require.NoError(t, json.Unmarshal(data, &response))
	assert.Equal(t, []string{"system/System/codes", "system/System/routes", "system/System/time"}, response.Message.Data)
}

func TestRunPrintsVersion(t *testing.T) {
	assert.NoError(t, run([]string{"wrs", "--version"}))
}
