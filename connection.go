package wrs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"runtime/debug"
	"strings"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"
)

// Connection keys with a meaning to the server.
const (
	KeyWSID        = "wsid"
	KeyLastPing    = "lastPing"
	KeyLastMessage = "lastMessage"
	KeyAuth        = "auth"
)

const pingMessage = "ping"
const pongMessage = "pong"

// ConnectionInfo contains information about a WebSocket connection, including
// the remote address and HTTP headers from the upgrade request.
type ConnectionInfo struct {
	RemoteAddr string
	Headers    http.Header
}

// BroadcastFilter selects the connections a broadcast is delivered to.
type BroadcastFilter func(connection *Connection) bool

// BroadcastRequest is the data of a server.broadcast event.
type BroadcastRequest struct {
	Class  string
	Data   any
	Filter BroadcastFilter
}

// Connection wraps a single client socket. It owns the per connection data
// bag and runs the dispatch pipeline for every frame read from the socket.
type Connection struct {
	id     string
	info   *ConnectionInfo
	socket SocketConnection
	server *Server

	interceptors *InterceptorCollection

	ctx    context.Context
	cancel context.CancelFunc

	dataMu sync.Mutex
	data   map[string]any

	writeMu sync.Mutex

	closeMu     sync.Mutex
	closed      bool
	closeStatus Status
	closeReason string

	dropOnce sync.Once
	finished chan struct{}
}

func newConnection(server *Server, info *ConnectionInfo, socket SocketConnection) *Connection {
	if info == nil {
		info = &ConnectionInfo{}
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Connection{
		id:           uuid.NewString(),
		info:         info,
		socket:       socket,
		server:       server,
		interceptors: server.interceptors.Collection(),
		ctx:          ctx,
		cancel:       cancel,
		data:         map[string]any{KeyWSID: int64(0)},
		closeStatus:  StatusNormalClosure,
		finished:     make(chan struct{}),
	}
}

// ID returns the unique id of the connection.
func (c *Connection) ID() string {
	return c.id
}

// RemoteAddr returns the remote address of the client.
func (c *Connection) RemoteAddr() string {
	return c.info.RemoteAddr
}

// Headers returns the HTTP headers of the upgrade request.
func (c *Connection) Headers() http.Header {
	return c.info.Headers
}

// Get returns a value from the connection data bag.
func (c *Connection) Get(key string) any {
	c.dataMu.Lock()
	defer c.dataMu.Unlock()
	return c.data[key]
}

// Set stores a value in the connection data bag.
func (c *Connection) Set(key string, value any) {
	c.dataMu.Lock()
	defer c.dataMu.Unlock()
	c.data[key] = value
}

// SetDefault stores a value only if the key holds nothing yet.
func (c *Connection) SetDefault(key string, value any) {
	c.dataMu.Lock()
	defer c.dataMu.Unlock()
	if c.data[key] == nil {
		c.data[key] = value
	}
}

// WSID returns the current correlation id: the last nonzero id received
// from the client.
func (c *Connection) WSID() int64 {
	id, _ := c.Get(KeyWSID).(int64)
	return id
}

// Send writes a raw frame to the socket.
func (c *Connection) Send(messageType MessageType, data []byte) error {
	c.server.events.Emit(EventConnectionSend, data)

	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return c.socket.Write(c.ctx, &SocketMessage{Type: messageType, Data: data})
}

// SendJSON encodes a value as JSON and writes it as a text frame.
func (c *Connection) SendJSON(value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return c.Send(MessageText, data)
}

// Pong answers a ping.
func (c *Connection) Pong() error {
	c.server.events.Emit(EventConnectionPong, c)
	return c.Send(MessageText, []byte(pongMessage))
}

// Bad sends a failure response for a code name with the current id.
func (c *Connection) Bad(code string, message any) error {
	return c.BadWithID(code, message, c.WSID())
}

// BadWithID sends a failure response for a code name with an explicit id.
func (c *Connection) BadWithID(code string, message any, id int64) error {
	if message == nil {
		message = ""
	}
	return c.SendJSON(NewResponse(c.server.codes, id, c.server.codes.Resolve(code), message))
}

// Ok sends a successful response with the current id. With the class "code"
// the data is a code name and is sent as its numeric code.
func (c *Connection) Ok(class string, data any) error {
	return c.OkWithID(class, data, c.WSID())
}

// OkWithID sends a successful response with an explicit id.
func (c *Connection) OkWithID(class string, data any, id int64) error {
	if class == "code" {
		data = c.server.codes.Resolve(data)
	}
	message := &OkMessage{Class: class, Data: toSendable(data)}
	return c.SendJSON(NewResponse(c.server.codes, id, 0, message))
}

// File sends the contents of a file as Ok data. JSON files are sent decoded,
// anything else as a string. Missing files are answered with NOT_FOUND.
func (c *Connection) File(class string, path string) error {
	contents, err := os.ReadFile(path)
	if err != nil {
		return c.Bad(CodeNotFound, "")
	}
	if json.Valid(contents) {
		return c.Ok(class, json.RawMessage(contents))
	}
	return c.Ok(class, string(contents))
}

// Broadcast asks the server to send an Ok response to every connection the
// filter accepts. A nil filter selects all connections.
func (c *Connection) Broadcast(class string, data any, filter BroadcastFilter) {
	c.server.events.Emit(EventServerBroadcast, &BroadcastRequest{
		Class:  class,
		Data:   data,
		Filter: filter,
	})
}

// Close closes the connection with a status and reason. The message loop
// stops and the connection drops.
func (c *Connection) Close(status Status, reason string) {
	c.closeMu.Lock()
	defer c.closeMu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	c.closeStatus = status
	c.closeReason = reason
	c.cancel()
}

// IsClosed reports whether Close was called.
func (c *Connection) IsClosed() bool {
	c.closeMu.Lock()
	defer c.closeMu.Unlock()
	return c.closed
}

// Done returns a channel closed when the connection is closed.
func (c *Connection) Done() <-chan struct{} {
	return c.ctx.Done()
}

func (c *Connection) handleOpen() {
	c.contain(c.rise)
}

func (c *Connection) rise() {
	events := c.server.events
	events.Emit(EventConnectionRise, c)
	c.interceptors.Intercept(EventConnectionRise, []any{c},
		OnString(func(v any) BranchResult {
			return Resolved(c.BadWithID(CodeUnknown, v, c.WSID()))
		}),
		OnAny(func(any) BranchResult {
			return Resolved(c.OkWithID("codes", c.server.codes.Names(), -1))
		}),
	)
}

// handleNextMessage reads and handles one frame. It returns false once the
// socket is closed or failed.
func (c *Connection) handleNextMessage() bool {
	msg, err := c.socket.Read(c.ctx)
	if err != nil {
		c.handleReadError(err)
		return false
	}
	c.handleMessage(msg)
	return true
}

func (c *Connection) handleReadError(err error) {
	c.closeMu.Lock()
	serverClosed := c.closed
	status, reason := c.closeStatus, c.closeReason
	c.closeMu.Unlock()

	if serverClosed {
		c.handleClose(status, reason, ServerCloseSource)
		return
	}

	var closeErr websocket.CloseError
	if errors.As(err, &closeErr) {
		c.handleClose(closeErr.Code, closeErr.Reason, ClientCloseSource)
		return
	}
	if errors.Is(err, io.EOF) {
		c.handleClose(StatusNoStatusRcvd, "", ClientCloseSource)
		return
	}
	c.handleError(err)
}

func (c *Connection) handleMessage(msg *SocketMessage) {
	c.contain(func() { c.digestFrame(msg) })
}

func (c *Connection) digestFrame(msg *SocketMessage) {
	events := c.server.events
	events.Emit(EventConnectionMessage, msg)
	c.Set(KeyLastMessage, time.Now())
	c.interceptors.Intercept(EventConnectionMessage, []any{c, msg})

	if msg.Type != MessageText {
		_ = c.Bad(CodeBadFormat, "")
		return
	}

	if string(msg.Data) == pingMessage {
		c.handlePing()
		return
	}

	incoming := &IncomingMessage{}
	if err := json.Unmarshal(msg.Data, incoming); err != nil {
		_ = c.Bad(CodeBadFormat, "")
		return
	}

	c.handleParsed(incoming)
}

func (c *Connection) handlePing() {
	c.server.events.Emit(EventConnectionPing, c)
	c.Set(KeyLastPing, time.Now())
	c.interceptors.Intercept(EventConnectionPing, []any{c})
	_ = c.Pong()
}

func (c *Connection) handleParsed(msg *IncomingMessage) {
	events := c.server.events
	events.Emit(EventConnectionParsed, msg)
	c.interceptors.Intercept(EventConnectionParsed, []any{c, msg})

	if msg.ID != 0 {
		c.Set(KeyWSID, msg.ID)
	}
	if msg.Target == "" {
		_ = c.Bad(CodeBadTarget, "")
		return
	}

	module, ok := c.server.findModule(msg.Target)
	if !ok {
		_ = c.Bad(CodeBadTarget, "")
		return
	}
	events.Emit(EventConnectionDigest, module)

	ctx := newContext(c, module, msg)
	defer ctx.free()

	outcome := interceptDispatch(c.interceptors.Filter(ModuleInterceptor), module.name, ctx, func() Outcome {
		return module.digest(ctx)
	})
	c.respond(outcome)
}

// respond converts an outcome to a response.
func (c *Connection) respond(outcome Outcome) {
	outcome = outcome.normalize()
	switch outcome.kind {
	case outcomeSuppressed:
		return
	case outcomeOk:
		id := c.WSID()
		if outcome.id != nil {
			id = *outcome.id
		}
		_ = c.OkWithID(outcome.class, outcome.data, id)
	case outcomeBad:
		_ = c.Bad(outcome.code, outcome.message)
	default:
		_ = c.Bad(outcome.CodeName(), "")
	}
}

func (c *Connection) handleClose(status Status, reason string, source CloseSource) {
	c.execWithRecovery(func() {
		c.server.events.Emit(EventConnectionClose, &CloseInfo{
			Connection: c,
			Status:     status,
			Reason:     reason,
			Source:     source,
		})
		c.interceptors.Intercept(EventConnectionClose, []any{c})
	})
	c.handleDrop()
}

func (c *Connection) handleError(err error) {
	c.execWithRecovery(func() {
		c.server.events.Emit(EventConnectionError, err)
		c.interceptors.Intercept(EventConnectionError, []any{c, err})
	})

	c.closeMu.Lock()
	c.closed = true
	c.closeStatus = StatusInternalError
	c.closeReason = "socket error"
	c.closeMu.Unlock()
	c.cancel()

	c.handleDrop()
}

// handleDrop runs once per connection, however the connection ended.
func (c *Connection) handleDrop() {
	c.dropOnce.Do(func() {
		c.execWithRecovery(func() {
			c.server.events.Emit(EventConnectionDrop, c)
			c.interceptors.Intercept(EventConnectionDrop, []any{c})
		})
		c.execWithRecovery(c.disconnectAuth)
	})
}

func (c *Connection) disconnectAuth() {
	events := c.server.events
	auth := c.Get(KeyAuth)
	if auth == nil {
		return
	}
	if disconnecter, ok := auth.(Disconnecter); ok {
		disconnecter.Disconnect()
	}
	events.Emit(EventAuthDisconnect, auth)
}

// finish closes the underlying socket once the message loop has ended.
func (c *Connection) finish() {
	c.closeMu.Lock()
	c.closed = true
	status, reason := c.closeStatus, c.closeReason
	c.closeMu.Unlock()
	c.cancel()
	defer close(c.finished)

	_ = c.socket.Close(status, reason)
}

// contain runs a pipeline step and answers a panic with SERVER_ERROR. A
// panic while answering is only reported.
func (c *Connection) contain(step func()) {
	stack, ok := c.execWithRecovery(step)
	if ok {
		return
	}
	c.execWithRecovery(func() { _ = c.Bad(CodeServerError, stack) })
}

func (c *Connection) execWithRecovery(fn func()) (stack []string, ok bool) {
	defer func() {
		if maybeErr := recover(); maybeErr != nil {
			err := panicError(maybeErr)
			c.server.events.Emit(EventServerError, err)

			stackLines := strings.Split(string(debug.Stack()), "\n")
			if len(stackLines) > 6 {
				stackLines = stackLines[6:]
			}
			stack = append([]string{err.Error()}, stackLines...)
			ok = false
		}
	}()
	fn()
	return nil, true
}

func panicError(maybeErr any) error {
	if err, ok := maybeErr.(error); ok {
		return err
	}
	return fmt.Errorf("%v", maybeErr)
}

// interceptDispatch runs an interceptor check in front of a dispatch step.
// A substituted override takes over, falsy substitutes suppress the
// response and everything else lets the default dispatch run.
func interceptDispatch(interceptors *InterceptorCollection, key string, ctx *Context, digest func() Outcome) Outcome {
	result, ok := interceptors.Intercept(key, []any{ctx},
		OnFunction(func(v any) BranchResult {
			override, ok := asOverride(v)
			if !ok {
				return Continue()
			}
			return Resolved(override(ctx))
		}),
		OnNull(func(any) BranchResult {
			return Resolved(digest())
		}),
		OnFalsy(nil),
		OnAny(func(any) BranchResult {
			return Resolved(digest())
		}),
	)
	if !ok {
		return Suppressed()
	}
	outcome, _ := result.(Outcome)
	return outcome
}
