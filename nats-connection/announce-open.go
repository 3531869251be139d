package natsconnection

import (
	"encoding/json"

	"github.com/nats-io/nats.go"
	"github.com/pkg/errors"
)

func (c *Connection) AnnounceSocketOpen(interplexerID string, socketID string) error {
	messageBytes, err := json.Marshal(SocketIDs{
		InterplexerID: interplexerID,
		SocketID:      socketID,
	})
	if err != nil {
		return err
	}
	return c.publish(c.namespace("socket", "open"), messageBytes)
}

func (c *Connection) BindSocketOpenAnnounce(handler func(interplexerID string, socketID string)) error {
	sub, err := c.NatsConnection.Subscribe(c.namespace("socket", "open"), func(msg *nats.Msg) {
		socketIDs := &SocketIDs{}
		if err := json.Unmarshal(msg.Data, socketIDs); err != nil {
			c.reportError(errors.Wrap(err, "invalid socket open announcement"))
			return
		}
		handler(socketIDs.InterplexerID, socketIDs.SocketID)
	})
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.unbindSocketOpenAnnounce = append(c.unbindSocketOpenAnnounce, sub.Unsubscribe)

	return nil
}

func (c *Connection) UnbindSocketOpenAnnounce() error {
	c.mu.Lock()
	unbinders := c.unbindSocketOpenAnnounce
	c.unbindSocketOpenAnnounce = nil
	c.mu.Unlock()

	return unbindAll(unbinders)
}
