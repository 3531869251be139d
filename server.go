package wrs

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"sync"

	"github.com/RobertWHurst/navaros"
	"github.com/coder/websocket"
	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"
)

// DefaultProtocol is the WebSocket subprotocol clients must request unless
// another one is set with SetProtocol.
const DefaultProtocol = "wrs_prtc"

// Server accepts WebSocket connections and dispatches their messages to the
// registered modules. It implements http.Handler for use with Go's standard
// HTTP servers, and can also be used as middleware with Navaros.
type Server struct {
	mu sync.Mutex

	events       *EventBus
	interceptors *InterceptorRegistry
	codes        *Codes
	services     *serviceRegistry
	modules      []*Module
	origins      []string
	protocol     string
	interplexer  *interplexer

	started   bool
	ready     chan struct{}
	readyOnce sync.Once
}

var _ http.Handler = &Server{}

// NewServer creates and returns a new server.
func NewServer() *Server {
	s := &Server{
		events:       NewEventBus(),
		interceptors: NewInterceptorRegistry(),
		codes:        NewCodes(),
		services:     newServiceRegistry(),
		protocol:     DefaultProtocol,
		ready:        make(chan struct{}),
	}
	s.interplexer = newInterplexer(s.handleRemoteBroadcast)

	s.events.On(EventServerBroadcast, func(event *Event) {
		request, ok := event.Data().(*BroadcastRequest)
		if !ok {
			return
		}
		if err := s.broadcast(request.Class, request.Data, request.Filter); err != nil {
			s.events.Emit(EventServerError, err)
		}
	})

	return s
}

// SetOrigins configures the allowed origin patterns for WebSocket
// connections. If not set, all origins are allowed.
//
// Origin patterns support wildcards, for example:
//   - "https://example.com" - exact match
//   - "https://*.example.com" - subdomain wildcard
//   - "*" - allow all origins (default)
func (s *Server) SetOrigins(origins []string) {
	s.origins = origins
}

// SetProtocol sets the WebSocket subprotocol clients must request. An empty
// protocol accepts every client.
func (s *Server) SetProtocol(protocol string) {
	s.protocol = strings.ToLower(protocol)
}

// Events returns the event bus of the server.
func (s *Server) Events() *EventBus {
	return s.events
}

// Interceptors returns the interceptor registry of the server.
func (s *Server) Interceptors() *InterceptorRegistry {
	return s.interceptors
}

// Codes returns the response code table of the server.
func (s *Server) Codes() *Codes {
	return s.codes
}

// Module registers modules together with the modules they depend on. Each
// module is registered once and its codes are appended to the code table.
func (s *Server) Module(modules ...*Module) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.addModules(modules)
}

func (s *Server) addModules(modules []*Module) {
	for _, module := range modules {
		if s.hasModule(module) {
			continue
		}
		s.modules = append(s.modules, module)
		s.codes.Append(module.codes...)
		s.addModules(module.dependencies)
	}
}

func (s *Server) hasModule(module *Module) bool {
	for _, existing := range s.modules {
		if existing == module || existing.matches(module.name) {
			return true
		}
	}
	return false
}

// Modules returns the registered modules.
func (s *Server) Modules() []*Module {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]*Module(nil), s.modules...)
}

// Service registers services. A service registered twice under the same
// name is kept once.
func (s *Server) Service(services ...Service) {
	s.services.add(services...)
}

// Start injects the declared services into their modules and initializes
// every service in dependency order. Ready is closed once every service
// signalled readiness.
func (s *Server) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.started {
		s.mu.Unlock()
		return nil
	}
	s.started = true
	modules := append([]*Module(nil), s.modules...)
	s.mu.Unlock()

	for _, module := range modules {
		for _, name := range module.serviceNames {
			service, ok := s.services.get(name)
			if !ok {
				return errors.Wrapf(ErrUnknownService, "module %s uses %s", module.name, name)
			}
			module.services[strings.ToLower(name)] = service
		}
	}

	if err := ctx.Err(); err != nil {
		return err
	}

	return s.services.init(s.events, s.interceptors, func() {
		s.readyOnce.Do(func() {
			s.events.Fire(EventServiceAllReady, nil)
			close(s.ready)
		})
	})
}

// Ready returns a channel closed once every service is ready.
func (s *Server) Ready() <-chan struct{} {
	return s.ready
}

// WaitReady blocks until every service is ready or the context ends.
func (s *Server) WaitReady(ctx context.Context) error {
	select {
	case <-s.ready:
		return nil
	case <-ctx.Done():
		return errors.Wrap(ctx.Err(), "services not ready")
	}
}

// SetInterplexerConnection links this server with other nodes. Broadcasts
// and SendTo reach connections held by any linked node.
func (s *Server) SetInterplexerConnection(connection InterplexerConnection) error {
	return s.interplexer.setConnection(connection)
}

// Middleware returns a Navaros middleware function that handles WebSocket
// upgrade requests. Other requests are passed to the next handler in the
// Navaros chain.
func (s *Server) Middleware() navaros.HandlerFunc {
	return func(ctx *navaros.Context) {
		if isWebsocketUpgradeRequest(ctx.Request()) {
			navaros.CtxInhibitResponse(ctx)
			s.handleWebsocketConnection(ctx.ResponseWriter(), ctx.Request())
			return
		}
		ctx.Next()
	}
}

// ServeHTTP handles WebSocket upgrade requests and runs the connection
// until it closes. Other requests get a 400 Bad Request.
func (s *Server) ServeHTTP(res http.ResponseWriter, req *http.Request) {
	if isWebsocketUpgradeRequest(req) {
		s.handleWebsocketConnection(res, req)
		return
	}
	res.WriteHeader(http.StatusBadRequest)
	_, _ = res.Write([]byte("Bad Request. Expected websocket upgrade request"))
}

// HandleConnection drives a connection on a custom SocketConnection until it
// closes. Most applications should use ServeHTTP or Middleware instead.
func (s *Server) HandleConnection(info *ConnectionInfo, socket SocketConnection) {
	connection := newConnection(s, info, socket)

	if err := s.interplexer.addLocalSocket(connection); err != nil {
		s.events.Emit(EventServerError, err)
	}

	defer func() {
		recovered := recover()
		if recovered != nil {
			recoverPanic(connection.handleDrop)
		}

		removeErr := s.interplexer.removeLocalSocket(connection.id)
		connection.finish()

		if removeErr != nil {
			s.events.Emit(EventServerError, removeErr)
		}
		if recovered != nil {
			s.events.Emit(EventServerError, panicError(recovered))
		}
	}()

	connection.handleOpen()
	for connection.handleNextMessage() {
	}
}

// recoverPanic runs fn and swallows a panic. It is used on the way out of a
// connection that already failed.
func recoverPanic(fn func()) {
	defer func() { _ = recover() }()
	fn()
}

// Connections returns the connections held by this node.
func (s *Server) Connections() []*Connection {
	return s.interplexer.localConnections()
}

// Broadcast sends an Ok response to every connection the filter accepts and
// relays it to linked nodes, which deliver it to all of their connections.
func (s *Server) Broadcast(class string, data any, filter BroadcastFilter) error {
	return s.broadcast(class, data, filter)
}

func (s *Server) broadcast(class string, data any, filter BroadcastFilter) error {
	s.broadcastLocal(class, data, filter)

	message, err := json.Marshal(&OkMessage{Class: class, Data: toSendable(data)})
	if err != nil {
		return errors.Wrap(err, "failed to encode broadcast")
	}
	return s.interplexer.broadcast(message)
}

func (s *Server) broadcastLocal(class string, data any, filter BroadcastFilter) {
	for _, connection := range s.interplexer.localConnections() {
		if filter != nil && !filter(connection) {
			continue
		}
		_ = connection.Ok(class, data)
	}
}

func (s *Server) handleRemoteBroadcast(message []byte) {
	remote := struct {
		Class string          `json:"class"`
		Data  json.RawMessage `json:"data"`
	}{}
	if err := json.Unmarshal(message, &remote); err != nil {
		s.events.Emit(EventServerError, errors.Wrap(err, "invalid remote broadcast"))
		return
	}
	s.broadcastLocal(remote.Class, remote.Data, nil)
}

// Socket returns a handle for a connection held by this or a linked node.
func (s *Server) Socket(socketID string) (SocketHandle, bool) {
	handle, ok := s.interplexer.withSocket(socketID)
	if !ok {
		return nil, false
	}
	return handle, true
}

// SendTo sends an Ok response with id 0 to a connection held by this or a
// linked node.
func (s *Server) SendTo(socketID string, class string, data any) error {
	handle, ok := s.interplexer.withSocket(socketID)
	if !ok {
		return errors.Errorf("socket %s not found", socketID)
	}
	return handle.SendJSON(NewResponse(s.codes, 0, 0, &OkMessage{Class: class, Data: toSendable(data)}))
}

// Shutdown closes every connection of this node and waits for them to drop.
func (s *Server) Shutdown(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)
	for _, connection := range s.interplexer.localConnections() {
		connection := connection
		g.Go(func() error {
			connection.Close(StatusGoingAway, "server shutting down")
			select {
			case <-connection.finished:
				return nil
			case <-ctx.Done():
				return errors.Wrapf(ctx.Err(), "connection %s did not close", connection.id)
			}
		})
	}
	return g.Wait()
}

// RouteDescriptors lists every page of every registered module.
func (s *Server) RouteDescriptors() []*RouteDescriptor {
	var descriptors []*RouteDescriptor
	for _, module := range s.Modules() {
		descriptors = append(descriptors, routeDescriptorsOf(module)...)
	}
	return descriptors
}

func (s *Server) findModule(target string) (*Module, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, module := range s.modules {
		if module.matches(target) {
			return module, true
		}
	}
	return nil, false
}

func isWebsocketUpgradeRequest(req *http.Request) bool {
	return strings.EqualFold(req.Header.Get("Upgrade"), "websocket")
}

func (s *Server) protocolAllowed(req *http.Request) bool {
	if s.protocol == "" {
		return true
	}
	for _, header := range req.Header.Values("Sec-WebSocket-Protocol") {
		for _, protocol := range strings.Split(header, ",") {
			if strings.EqualFold(strings.TrimSpace(protocol), s.protocol) {
				return true
			}
		}
	}
	return false
}

func (s *Server) handleWebsocketConnection(res http.ResponseWriter, req *http.Request) {
	info := &ConnectionInfo{
		RemoteAddr: req.RemoteAddr,
		Headers:    req.Header,
	}

	if !s.protocolAllowed(req) {
		s.events.Emit(EventWebsocketReject, info)
		res.WriteHeader(http.StatusForbidden)
		_, _ = res.Write([]byte("Forbidden. Unsupported websocket protocol"))
		return
	}

	origins := s.origins
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	var subprotocols []string
	if s.protocol != "" {
		subprotocols = []string{s.protocol}
	}

	conn, err := websocket.Accept(res, req, &websocket.AcceptOptions{
		OriginPatterns: origins,
		Subprotocols:   subprotocols,
	})
	if err != nil {
		s.events.Emit(EventWebsocketReject, info)
		return
	}

	s.events.Emit(EventWebsocketAccept, info)
	s.HandleConnection(info, NewWebSocketConnection(conn))
}
