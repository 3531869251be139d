package localconnection

import "github.com/pkg/errors"

// Dispatch hands a frame to the interplexer that owns the socket. It fails
// when that interplexer is gone or no longer holds the socket.
func (c *Connection) Dispatch(interplexerID string, socketID string, message []byte) error {
	c.mu.Lock()
	handler, ok := c.dispatchHandlers[interplexerID]
	c.mu.Unlock()

	if !ok {
		return errors.Errorf("interplexer %s is not bound", interplexerID)
	}
	if !handler(socketID, message) {
		return errors.Errorf("socket %s was not delivered", socketID)
	}
	return nil
}

func (c *Connection) BindDispatch(interplexerID string, handler func(socketID string, message []byte) bool) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.dispatchHandlers[interplexerID] = handler
	return nil
}

func (c *Connection) UnbindDispatch(interplexerID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.dispatchHandlers, interplexerID)
	return nil
}
