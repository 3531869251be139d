package natsconnection

import (
	"encoding/json"

	"github.com/nats-io/nats.go"
	"github.com/pkg/errors"
)

type BroadcastMessage struct {
	InterplexerID string `json:"interplexerId"`
	Message       []byte `json:"message"`
}

func (c *Connection) Broadcast(interplexerID string, message []byte) error {
	messageBytes, err := json.Marshal(&BroadcastMessage{
		InterplexerID: interplexerID,
		Message:       message,
	})
	if err != nil {
		return err
	}
	return c.publish(c.namespace("broadcast"), messageBytes)
}

func (c *Connection) BindBroadcast(interplexerID string, handler func(originInterplexerID string, message []byte)) error {
	sub, err := c.NatsConnection.Subscribe(c.namespace("broadcast"), func(msg *nats.Msg) {
		broadcastMessage := &BroadcastMessage{}
		if err := json.Unmarshal(msg.Data, broadcastMessage); err != nil {
			c.reportError(errors.Wrap(err, "invalid broadcast message"))
			return
		}
		handler(broadcastMessage.InterplexerID, broadcastMessage.Message)
	})
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.unbindBroadcast[interplexerID] = sub.Unsubscribe

	return nil
}

func (c *Connection) UnbindBroadcast(interplexerID string) error {
	c.mu.Lock()
	unbind, ok := c.unbindBroadcast[interplexerID]
	delete(c.unbindBroadcast, interplexerID)
	c.mu.Unlock()

	if !ok {
		return nil
	}
	return unbind()
}
