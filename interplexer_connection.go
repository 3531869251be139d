package wrs

// InterplexerConnection links the interplexers of several server nodes. It
// announces which node owns which socket, carries frames to a socket owned
// by another node and relays broadcasts to every node.
//
// Implementations live in the local-connection (single process) and
// nats-connection packages.
type InterplexerConnection interface {
	AnnounceSocketOpen(interplexerID string, socketID string) error
	BindSocketOpenAnnounce(handler func(interplexerID string, socketID string)) error
	UnbindSocketOpenAnnounce() error

	AnnounceSocketClose(interplexerID string, socketID string) error
	BindSocketCloseAnnounce(handler func(interplexerID string, socketID string)) error
	UnbindSocketCloseAnnounce() error

	Dispatch(interplexerID string, socketID string, message []byte) error
	BindDispatch(interplexerID string, handler func(socketID string, message []byte) bool) error
	UnbindDispatch(interplexerID string) error

	Broadcast(interplexerID string, message []byte) error
	BindBroadcast(interplexerID string, handler func(originInterplexerID string, message []byte)) error
	UnbindBroadcast(interplexerID string) error
}
