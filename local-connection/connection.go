package localconnection

import (
	"sync"

	"github.com/RobertWHurst/wrs"
)

// Connection links servers running in the same process. Every server bound
// to it sees the others' sockets as if they were its own.
type Connection struct {
	opened announcer
	closed announcer

	mu                sync.Mutex
	dispatchHandlers  map[string]func(string, []byte) bool
	broadcastHandlers map[string]func(string, []byte)
}

var _ wrs.InterplexerConnection = &Connection{}

func New() *Connection {
	return &Connection{
		dispatchHandlers:  map[string]func(string, []byte) bool{},
		broadcastHandlers: map[string]func(string, []byte){},
	}
}
