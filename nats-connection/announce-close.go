package natsconnection

import (
	"encoding/json"

	"github.com/nats-io/nats.go"
	"github.com/pkg/errors"
)

func (c *Connection) AnnounceSocketClose(interplexerID string, socketID string) error {
	messageBytes, err := json.Marshal(SocketIDs{
		InterplexerID: interplexerID,
		SocketID:      socketID,
	})
	if err != nil {
		return err
	}
	return c.publish(c.namespace("socket", "close"), messageBytes)
}

func (c *Connection) BindSocketCloseAnnounce(handler func(interplexerID string, socketID string)) error {
	sub, err := c.NatsConnection.Subscribe(c.namespace("socket", "close"), func(msg *nats.Msg) {
		socketIDs := &SocketIDs{}
		if err := json.Unmarshal(msg.Data, socketIDs); err != nil {
			c.reportError(errors.Wrap(err, "invalid socket close announcement"))
			return
		}
		handler(socketIDs.InterplexerID, socketIDs.SocketID)
	})
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.unbindSocketCloseAnnounce = append(c.unbindSocketCloseAnnounce, sub.Unsubscribe)

	return nil
}

func (c *Connection) UnbindSocketCloseAnnounce() error {
	c.mu.Lock()
	unbinders := c.unbindSocketCloseAnnounce
	c.unbindSocketCloseAnnounce = nil
	c.mu.Unlock()

	return unbindAll(unbinders)
}
