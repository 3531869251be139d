package wrs

import "github.com/coder/websocket"

// Status is a WebSocket close status code as defined in RFC 6455. Pass one to
// Connection.Close to tell the client why the socket is being closed.
type Status = websocket.StatusCode

// Close statuses used by the server. Any other RFC 6455 code can be passed
// as Status(code).
const (
	StatusNormalClosure   Status = websocket.StatusNormalClosure
	StatusGoingAway       Status = websocket.StatusGoingAway
	StatusNoStatusRcvd    Status = websocket.StatusNoStatusRcvd
	StatusPolicyViolation Status = websocket.StatusPolicyViolation
	StatusInternalError   Status = websocket.StatusInternalError
)

// CloseSource tells whether a close was initiated by the client or the
// server. It is part of the CloseInfo carried by connection.close events.
type CloseSource int

const (
	ClientCloseSource CloseSource = iota
	ServerCloseSource
)

func (s CloseSource) String() string {
	if s == ServerCloseSource {
		return "server"
	}
	return "client"
}

// CloseInfo is the data of a connection.close event.
type CloseInfo struct {
	Connection *Connection
	Status     Status
	Reason     string
	Source     CloseSource
}
