package wrs

import (
	"sync"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// interplexer tracks the connections of this node and, once an
// InterplexerConnection is set, the sockets owned by other nodes.
type interplexer struct {
	mu sync.Mutex

	id         string
	connection InterplexerConnection

	localSockets         map[string]*Connection
	remoteInterplexerIDs map[string]string

	onRemoteBroadcast func(message []byte)
}

func newInterplexer(onRemoteBroadcast func(message []byte)) *interplexer {
	return &interplexer{
		id:                   uuid.NewString(),
		localSockets:         map[string]*Connection{},
		remoteInterplexerIDs: map[string]string{},
		onRemoteBroadcast:    onRemoteBroadcast,
	}
}

func (i *interplexer) setConnection(connection InterplexerConnection) error {
	i.mu.Lock()
	defer i.mu.Unlock()

	if i.connection != nil {
		_ = i.connection.UnbindDispatch(i.id)
		_ = i.connection.UnbindBroadcast(i.id)
		_ = i.connection.UnbindSocketOpenAnnounce()
		_ = i.connection.UnbindSocketCloseAnnounce()
		for socketID := range i.localSockets {
			_ = i.connection.AnnounceSocketClose(i.id, socketID)
		}
		i.remoteInterplexerIDs = map[string]string{}
	}

	if err := connection.BindDispatch(i.id, i.handleDispatch); err != nil {
		return errors.Wrap(err, "failed to bind dispatch")
	}
	if err := connection.BindBroadcast(i.id, i.handleBroadcast); err != nil {
		return errors.Wrap(err, "failed to bind broadcast")
	}
	if err := connection.BindSocketOpenAnnounce(i.handleSocketOpenAnnounce); err != nil {
		return errors.Wrap(err, "failed to bind socket open announcements")
	}
	if err := connection.BindSocketCloseAnnounce(i.handleSocketCloseAnnounce); err != nil {
		return errors.Wrap(err, "failed to bind socket close announcements")
	}

	for socketID := range i.localSockets {
		if err := connection.AnnounceSocketOpen(i.id, socketID); err != nil {
			return errors.Wrap(err, "failed to announce socket")
		}
	}

	i.connection = connection

	return nil
}

func (i *interplexer) addLocalSocket(connection *Connection) error {
	i.mu.Lock()
	i.localSockets[connection.id] = connection
	interplexerConnection := i.connection
	i.mu.Unlock()

	if interplexerConnection != nil {
		return interplexerConnection.AnnounceSocketOpen(i.id, connection.id)
	}
	return nil
}

func (i *interplexer) removeLocalSocket(socketID string) error {
	i.mu.Lock()
	delete(i.localSockets, socketID)
	interplexerConnection := i.connection
	i.mu.Unlock()

	if interplexerConnection != nil {
		return interplexerConnection.AnnounceSocketClose(i.id, socketID)
	}
	return nil
}

func (i *interplexer) localConnections() []*Connection {
	i.mu.Lock()
	defer i.mu.Unlock()
	connections := make([]*Connection, 0, len(i.localSockets))
	for _, connection := range i.localSockets {
		connections = append(connections, connection)
	}
	return connections
}

func (i *interplexer) withSocket(socketID string) (*socketHandle, bool) {
	i.mu.Lock()
	localSocket, hasLocalSocket := i.localSockets[socketID]
	interplexerID, hasRemoteSocket := i.remoteInterplexerIDs[socketID]
	i.mu.Unlock()

	if hasLocalSocket {
		return &socketHandle{
			kind:        SocketHandleKindLocal,
			socketID:    socketID,
			localSocket: localSocket,
		}, true
	}
	if hasRemoteSocket {
		return &socketHandle{
			kind:                SocketHandleKindRemote,
			socketID:            socketID,
			remoteInterplexerID: interplexerID,
			localInterplexer:    i,
		}, true
	}
	return nil, false
}

func (i *interplexer) dispatch(interplexerID string, socketID string, message []byte) error {
	i.mu.Lock()
	interplexerConnection := i.connection
	i.mu.Unlock()

	if interplexerConnection == nil {
		return errors.New("no interplexer connection set")
	}
	return interplexerConnection.Dispatch(interplexerID, socketID, message)
}

func (i *interplexer) broadcast(message []byte) error {
	i.mu.Lock()
	interplexerConnection := i.connection
	i.mu.Unlock()

	if interplexerConnection == nil {
		return nil
	}
	return interplexerConnection.Broadcast(i.id, message)
}

func (i *interplexer) handleDispatch(socketID string, message []byte) bool {
	i.mu.Lock()
	localSocket, ok := i.localSockets[socketID]
	i.mu.Unlock()

	if !ok {
		return false
	}

	return localSocket.Send(MessageText, message) == nil
}

func (i *interplexer) handleBroadcast(originInterplexerID string, message []byte) {
	if originInterplexerID == i.id || i.onRemoteBroadcast == nil {
		return
	}
	i.onRemoteBroadcast(message)
}

func (i *interplexer) handleSocketOpenAnnounce(interplexerID string, socketID string) {
	if interplexerID == i.id {
		return
	}
	i.mu.Lock()
	i.remoteInterplexerIDs[socketID] = interplexerID
	i.mu.Unlock()
}

func (i *interplexer) handleSocketCloseAnnounce(interplexerID string, socketID string) {
	if interplexerID == i.id {
		return
	}
	i.mu.Lock()
	delete(i.remoteInterplexerIDs, socketID)
	i.mu.Unlock()
}
