package natsconnection

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/assert"
)

func TestNamespace(t *testing.T) {
	c := New(nil)
	assert.Equal(t, "wrs.socket.dispatch.abc", c.namespace("socket", "dispatch", "abc"))

	c.Prefix = "chat"
	assert.Equal(t, "chat.broadcast", c.namespace("broadcast"))
}

func TestPublishTripsBreaker(t *testing.T) {
	c := New(nil)

	for i := 0; i < 5; i += 1 {
		err := c.Broadcast("node", []byte("x"))
		assert.Error(t, err)
		assert.False(t, errors.Is(err, gobreaker.ErrOpenState))
	}

	err := c.Broadcast("node", []byte("x"))
	assert.True(t, errors.Is(err, gobreaker.ErrOpenState))
	assert.Equal(t, gobreaker.StateOpen, c.breaker.State())
}

func TestUnbindWithoutBind(t *testing.T) {
	c := New(nil)

	assert.NoError(t, c.UnbindDispatch("node"))
	assert.NoError(t, c.UnbindBroadcast("node"))
	assert.NoError(t, c.UnbindSocketOpenAnnounce())
	assert.NoError(t, c.UnbindSocketCloseAnnounce())
}
