// Package httpserver serves a wrs server over HTTP: upgrade requests reach
// the WebSocket server, other GET requests are answered from a static
// directory and every other method gets a structured BAD_METHOD response.
package httpserver

import (
	"context"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/RobertWHurst/wrs"
	"github.com/go-chi/chi/v5"
	"github.com/pkg/errors"
)

type HTTPServer struct {
	server   *wrs.Server
	handler  http.Handler
	http     *http.Server
	listener net.Listener
}

// NewRouter builds the HTTP routes for a wrs server and a static root.
func NewRouter(server *wrs.Server, root string) http.Handler {
	files := http.FileServer(http.Dir(root))

	r := chi.NewRouter()
	r.Get("/*", func(res http.ResponseWriter, req *http.Request) {
		if req.Header.Get("Upgrade") != "" {
			server.ServeHTTP(res, req)
			return
		}
		files.ServeHTTP(res, req)
	})
	r.MethodNotAllowed(func(res http.ResponseWriter, req *http.Request) {
		server.Events().Emit(wrs.EventServerBadMethod, req)
		_ = wrs.WriteHTTPBad(res, http.StatusMethodNotAllowed, server.Codes(), wrs.CodeBadMethod)
	})
	return r
}

func New(server *wrs.Server, root string) *HTTPServer {
	handler := NewRouter(server, root)
	return &HTTPServer{
		server:  server,
		handler: handler,
		http: &http.Server{
			Handler:           handler,
			ReadHeaderTimeout: 10 * time.Second,
		},
	}
}

// Listen binds the port and serves in the background. Once listening it
// fires server.ready with the bound address. Port 0 picks a free port.
func (s *HTTPServer) Listen(port int) error {
	listener, err := net.Listen("tcp", ":"+strconv.Itoa(port))
	if err != nil {
		return errors.Wrapf(err, "failed to listen on port %d", port)
	}
	s.listener = listener

	go func() {
		if err := s.http.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.server.Events().Emit(wrs.EventServerError, errors.Wrap(err, "http server stopped"))
		}
	}()

	s.server.Events().Fire(wrs.EventServerReady, listener.Addr().String())
	return nil
}

// Addr returns the bound address, or an empty string before Listen.
func (s *HTTPServer) Addr() string {
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// Shutdown stops accepting requests, closes every WebSocket connection and
// waits for in flight requests.
func (s *HTTPServer) Shutdown(ctx context.Context) error {
	if err := s.server.Shutdown(ctx); err != nil {
		return err
	}
	return s.http.Shutdown(ctx)
}
