package wrs

import "encoding/json"

// SocketHandle sends to a connection that may live on this node or on
// another node reachable through the interplexer.
type SocketHandle interface {
	// ID returns the id of the connection.
	ID() string

	// Send sends a raw text frame.
	Send(data []byte) error

	// SendJSON encodes a value as JSON and sends it.
	SendJSON(value any) error
}

type SocketHandleKind int

const (
	SocketHandleKindLocal SocketHandleKind = iota
	SocketHandleKindRemote
)

type socketHandle struct {
	kind     SocketHandleKind
	socketID string

	localSocket *Connection

	remoteInterplexerID string
	localInterplexer    *interplexer
}

var _ SocketHandle = &socketHandle{}

func (h *socketHandle) ID() string {
	return h.socketID
}

// Kind reports whether the socket is local or remote.
func (h *socketHandle) Kind() SocketHandleKind {
	return h.kind
}

func (h *socketHandle) Send(data []byte) error {
	if h.kind == SocketHandleKindLocal {
		return h.localSocket.Send(MessageText, data)
	}
	return h.localInterplexer.dispatch(h.remoteInterplexerID, h.socketID, data)
}

func (h *socketHandle) SendJSON(value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return h.Send(data)
}
