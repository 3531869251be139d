package natsconnection

import (
	"strings"
	"sync"
	"time"

	"github.com/RobertWHurst/wrs"
	"github.com/nats-io/nats.go"
	"github.com/pkg/errors"
	"github.com/sony/gobreaker"
)

// DefaultPrefix namespaces every subject used by the connection.
const DefaultPrefix = "wrs"

// Connection links servers running on different hosts through NATS.
// Publishes go through a circuit breaker so a failing NATS link fails fast
// instead of stalling every broadcast.
type Connection struct {
	NatsConnection *nats.Conn
	Prefix         string
	// OnError receives messages that could not be decoded. Defaults to a
	// no-op.
	OnError func(err error)

	breaker *gobreaker.CircuitBreaker

	mu                        sync.Mutex
	unbindSocketOpenAnnounce  []func() error
	unbindSocketCloseAnnounce []func() error
	unbindDispatch            map[string]func() error
	unbindBroadcast           map[string]func() error
}

var _ wrs.InterplexerConnection = &Connection{}

func New(conn *nats.Conn) *Connection {
	return &Connection{
		NatsConnection: conn,
		Prefix:         DefaultPrefix,
		OnError:        func(error) {},
		breaker: gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:        "wrs-nats",
			MaxRequests: 1,
			Timeout:     5 * time.Second,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= 5
			},
		}),
		unbindDispatch:  map[string]func() error{},
		unbindBroadcast: map[string]func() error{},
	}
}

type SocketIDs struct {
	InterplexerID string `json:"interplexerId"`
	SocketID      string `json:"socketId"`
}

func (c *Connection) namespace(parts ...string) string {
	return strings.Join(append([]string{c.Prefix}, parts...), ".")
}

func (c *Connection) publish(subject string, data []byte) error {
	_, err := c.breaker.Execute(func() (interface{}, error) {
		return nil, c.NatsConnection.Publish(subject, data)
	})
	return errors.Wrapf(err, "failed to publish to %s", subject)
}

func (c *Connection) reportError(err error) {
	if c.OnError != nil {
		c.OnError(err)
	}
}

func unbindAll(unbinders []func() error) error {
	var firstErr error
	for _, unbind := range unbinders {
		if err := unbind(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
