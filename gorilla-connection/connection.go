// Package gorillaconnection runs wrs connections on github.com/gorilla/websocket
// instead of the default github.com/coder/websocket transport.
package gorillaconnection

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/RobertWHurst/wrs"
	coderws "github.com/coder/websocket"
	"github.com/gorilla/websocket"
)

const closeTimeout = time.Second

// Connection adapts a gorilla connection to wrs.SocketConnection.
type Connection struct {
	conn    *websocket.Conn
	writeMu sync.Mutex
}

var _ wrs.SocketConnection = &Connection{}

func New(conn *websocket.Conn) *Connection {
	return &Connection{conn: conn}
}

// Read blocks until a frame arrives, the peer closes or ctx ends. Close
// frames are reported as coder websocket.CloseError values so the server
// treats them as a client close.
func (c *Connection) Read(ctx context.Context) (*wrs.SocketMessage, error) {
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			_ = c.conn.SetReadDeadline(time.Now())
		case <-done:
		}
	}()

	messageType, data, err := c.conn.ReadMessage()
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		var closeErr *websocket.CloseError
		if errors.As(err, &closeErr) {
			return nil, coderws.CloseError{Code: coderws.StatusCode(closeErr.Code), Reason: closeErr.Text}
		}
		return nil, err
	}

	msg := &wrs.SocketMessage{Type: wrs.MessageText, Data: data}
	if messageType == websocket.BinaryMessage {
		msg.Type = wrs.MessageBinary
	}
	return msg, nil
}

func (c *Connection) Write(ctx context.Context, msg *wrs.SocketMessage) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	if deadline, ok := ctx.Deadline(); ok {
		_ = c.conn.SetWriteDeadline(deadline)
	} else {
		_ = c.conn.SetWriteDeadline(time.Time{})
	}

	messageType := websocket.TextMessage
	if msg.Type == wrs.MessageBinary {
		messageType = websocket.BinaryMessage
	}
	return c.conn.WriteMessage(messageType, msg.Data)
}

// Close sends a close frame and closes the underlying connection.
func (c *Connection) Close(status wrs.Status, reason string) error {
	c.writeMu.Lock()
	_ = c.conn.WriteControl(
		websocket.CloseMessage,
		websocket.FormatCloseMessage(int(status), reason),
		time.Now().Add(closeTimeout),
	)
	c.writeMu.Unlock()
	return c.conn.Close()
}

// Handler upgrades requests with upgrader and runs them on server. The wrs
// subprotocol is offered unless the upgrader lists its own.
func Handler(server *wrs.Server, upgrader websocket.Upgrader) http.Handler {
	if len(upgrader.Subprotocols) == 0 {
		upgrader.Subprotocols = []string{wrs.DefaultProtocol}
	}
	return http.HandlerFunc(func(res http.ResponseWriter, req *http.Request) {
		info := &wrs.ConnectionInfo{
			RemoteAddr: req.RemoteAddr,
			Headers:    req.Header,
		}

		conn, err := upgrader.Upgrade(res, req, nil)
		if err != nil {
			server.Events().Emit(wrs.EventWebsocketReject, info)
			return
		}

		server.Events().Emit(wrs.EventWebsocketAccept, info)
		server.HandleConnection(info, New(conn))
	})
}
