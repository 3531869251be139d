package localconnection

import "sync"

type announceHandler func(interplexerID string, socketID string)

// announcer fans socket ownership changes out to every bound interplexer.
type announcer struct {
	mu       sync.Mutex
	handlers []announceHandler
}

func (a *announcer) notify(interplexerID string, socketID string) {
	a.mu.Lock()
	handlers := make([]announceHandler, len(a.handlers))
	copy(handlers, a.handlers)
	a.mu.Unlock()

	for _, handler := range handlers {
		handler(interplexerID, socketID)
	}
}

func (a *announcer) bind(handler announceHandler) {
	a.mu.Lock()
	a.handlers = append(a.handlers, handler)
	a.mu.Unlock()
}

// reset drops every handler. The local connection has no per-node handler
// identity, so unbinding is all or nothing.
func (a *announcer) reset() {
	a.mu.Lock()
	a.handlers = nil
	a.mu.Unlock()
}

func (c *Connection) AnnounceSocketOpen(interplexerID string, socketID string) error {
	c.opened.notify(interplexerID, socketID)
	return nil
}

func (c *Connection) BindSocketOpenAnnounce(handler func(interplexerID string, socketID string)) error {
	c.opened.bind(handler)
	return nil
}

func (c *Connection) UnbindSocketOpenAnnounce() error {
	c.opened.reset()
	return nil
}

func (c *Connection) AnnounceSocketClose(interplexerID string, socketID string) error {
	c.closed.notify(interplexerID, socketID)
	return nil
}

func (c *Connection) BindSocketCloseAnnounce(handler func(interplexerID string, socketID string)) error {
	c.closed.bind(handler)
	return nil
}

func (c *Connection) UnbindSocketCloseAnnounce() error {
	c.closed.reset()
	return nil
}
