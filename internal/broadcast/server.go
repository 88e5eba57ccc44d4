package broadcast

import (
	"context"
	"net/http"

	"github.com/specialistvlad/stepflow/internal/ctxlog"
	"github.com/zishang520/engine.io/v2/types"
	"github.com/zishang520/socket.io/v2/socket"
)

// DefaultPath is where the socket.io endpoint is mounted.
const DefaultPath = "/socket.io/"

// Server is a socket.io server that only pushes events; it ignores anything
// clients send.
type Server struct {
	io      *socket.Server
	handler http.Handler
}

var _ Emitter = (*Server)(nil)

// NewServer creates a socket.io server mounted at path. Cross-origin clients
// are accepted so an editor served from another origin can subscribe.
func NewServer(ctx context.Context, path string) *Server {
	logger := ctxlog.FromContext(ctx).With("component", "socketio")
	if path == "" {
		path = DefaultPath
	}

	opts := socket.DefaultServerOptions()
	opts.SetPath(path)
	opts.SetCors(&types.Cors{Origin: "*", Credentials: false})

	io := socket.NewServer(nil, opts)
	io.On("connection", func(clients ...any) {
		client, ok := clients[0].(*socket.Socket)
		if !ok {
			return
		}
		logger.Info("🔌 Status subscriber connected.", "sid", client.Id())
		client.On("disconnect", func(reason ...any) {
			logger.Info("Status subscriber disconnected.", "sid", client.Id(), "reason", reason)
		})
	})

	return &Server{io: io, handler: io.ServeHandler(nil)}
}

// Handler returns the http.Handler serving the socket.io protocol.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Emit implements Emitter.
func (s *Server) Emit(event string, payload any) {
	s.io.Emit(event, payload)
}

// Close disconnects every client.
func (s *Server) Close() {
	s.io.Close(nil)
}
