package localconnection

// Broadcast delivers a message to every bound interplexer, the origin
// included. Interplexers ignore their own broadcasts.
func (c *Connection) Broadcast(interplexerID string, message []byte) error {
	c.mu.Lock()
	handlers := make([]func(string, []byte), 0, len(c.broadcastHandlers))
	for _, handler := range c.broadcastHandlers {
		handlers = append(handlers, handler)
	}
	c.mu.Unlock()

	for _, handler := range handlers {
		handler(interplexerID, message)
	}
	return nil
}

func (c *Connection) BindBroadcast(interplexerID string, handler func(originInterplexerID string, message []byte)) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.broadcastHandlers[interplexerID] = handler
	return nil
}

func (c *Connection) UnbindBroadcast(interplexerID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.broadcastHandlers, interplexerID)
	return nil
}
