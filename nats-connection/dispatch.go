package natsconnection

import (
	"encoding/json"

	"github.com/nats-io/nats.go"
	"github.com/pkg/errors"
)

type DispatchMessage struct {
	SocketID string `json:"socketId"`
	Message  []byte `json:"message"`
}

func (c *Connection) Dispatch(interplexerID string, socketID string, message []byte) error {
	messageBytes, err := json.Marshal(&DispatchMessage{
		SocketID: socketID,
		Message:  message,
	})
	if err != nil {
		return err
	}
	return c.publish(c.namespace("socket", "dispatch", interplexerID), messageBytes)
}

func (c *Connection) BindDispatch(interplexerID string, handler func(socketID string, message []byte) bool) error {
	sub, err := c.NatsConnection.Subscribe(c.namespace("socket", "dispatch", interplexerID), func(msg *nats.Msg) {
		dispatchMessage := &DispatchMessage{}
		if err := json.Unmarshal(msg.Data, dispatchMessage); err != nil {
			c.reportError(errors.Wrap(err, "invalid dispatch message"))
			return
		}
		if !handler(dispatchMessage.SocketID, dispatchMessage.Message) {
			c.reportError(errors.Errorf("socket %s was not delivered", dispatchMessage.SocketID))
		}
	})
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.unbindDispatch[interplexerID] = sub.Unsubscribe

	return nil
}

func (c *Connection) UnbindDispatch(interplexerID string) error {
	c.mu.Lock()
	unbind, ok := c.unbindDispatch[interplexerID]
	delete(c.unbindDispatch, interplexerID)
	c.mu.Unlock()

	if !ok {
		return nil
	}
	return unbind()
}
