package wrs

import (
	"context"

	"github.com/coder/websocket"
)

// MessageType is the frame type of a socket message.
type MessageType = websocket.MessageType

const (
	MessageText   MessageType = websocket.MessageText
	MessageBinary MessageType = websocket.MessageBinary
)

// SocketMessage is a single frame read from or written to a socket.
type SocketMessage struct {
	Type MessageType
	Data []byte
}

// SocketConnection is the transport a Connection runs on. The server uses
// WebSocketConnection for HTTP upgrades; other WebSocket libraries can be
// plugged in through Server.HandleConnection.
//
// Read must return an error once the socket is closed. Errors carrying a
// websocket.CloseError are treated as a close, anything else as a socket
// error.
type SocketConnection interface {
	Read(ctx context.Context) (*SocketMessage, error)
	Write(ctx context.Context, msg *SocketMessage) error
	Close(status Status, reason string) error
}

// WebSocketConnection is a SocketConnection implementation that wraps
// github.com/coder/websocket.Conn.
type WebSocketConnection struct {
	webSocketConnection *websocket.Conn
}

var _ SocketConnection = &WebSocketConnection{}

// NewWebSocketConnection creates a WebSocketConnection from a
// github.com/coder/websocket.Conn.
func NewWebSocketConnection(websocketConnection *websocket.Conn) *WebSocketConnection {
	return &WebSocketConnection{
		webSocketConnection: websocketConnection,
	}
}

// Read reads the next frame. Blocks until a frame arrives or an error occurs.
func (c *WebSocketConnection) Read(ctx context.Context) (*SocketMessage, error) {
	messageType, data, err := c.webSocketConnection.Read(ctx)
	if err != nil {
		return nil, err
	}

	return &SocketMessage{
		Type: messageType,
		Data: data,
	}, nil
}

// Write sends a frame.
func (c *WebSocketConnection) Write(ctx context.Context, msg *SocketMessage) error {
	return c.webSocketConnection.Write(ctx, msg.Type, msg.Data)
}

// Close closes the socket with the given status code and reason.
func (c *WebSocketConnection) Close(status Status, reason string) error {
	return c.webSocketConnection.Close(websocket.StatusCode(status), reason)
}
