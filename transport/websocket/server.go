package websocket

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/rocketscienceinc/tictactoe-sync/internal/hub"
	"github.com/rocketscienceinc/tictactoe-sync/internal/protocol"
)

const (
	defaultWriteTimeout = 10 * time.Second
	shutdownTimeout     = 5 * time.Second

	// maxFrameSize is where the transport gives up on a peer. Requests below it but
	// above maxRequestSize are answered with an error record.
	maxFrameSize   = 64 << 10
	maxRequestSize = 4096
)

type gameUseCase interface {
	Connect(ctx context.Context, connID string) error
	MakeMove(ctx context.Context, connID string, row, col int) error
	Restart(ctx context.Context, connID string) error
	Disconnect(ctx context.Context, connID string) error
	Drop(ctx context.Context, connID string)
}

type connections interface {
	Register(id string) *hub.Conn
	Unregister(id string)
	Send(id string, msg any) error
}

type Options struct {
	// PingInterval enables keepalive pings. A peer that misses two pongs is dropped. Zero disables it.
	PingInterval time.Duration
	WriteTimeout time.Duration
}

type handlerFunc func(ctx context.Context, connID string, req *protocol.Request) error

type Server struct {
	logger      *slog.Logger
	gameUseCase gameUseCase
	connections connections

	upgrader     websocket.Upgrader
	pingInterval time.Duration
	writeTimeout time.Duration

	handlers map[string]handlerFunc
}

func New(logger *slog.Logger, gameUseCase gameUseCase, connections connections, opts Options) *Server {
	if opts.WriteTimeout <= 0 {
		opts.WriteTimeout = defaultWriteTimeout
	}

	server := &Server{
		logger:      logger.With("component", "websocket"),
		gameUseCase: gameUseCase,
		connections: connections,

		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// the game is open to any origin, there is no authentication
			CheckOrigin: func(*http.Request) bool { return true },
		},
		pingInterval: opts.PingInterval,
		writeTimeout: opts.WriteTimeout,

		handlers: make(map[string]handlerFunc),
	}

	server.handlers[protocol.TypeConnect] = server.handleConnect
	server.handlers[protocol.TypeMove] = server.handleMove
	server.handlers[protocol.TypeRestart] = server.handleRestart
	server.handlers[protocol.TypeRequestDisconnect] = server.handleDisconnect

	return server
}

// Handler returns the mux serving the game endpoint at /ws.
func (that *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", that.serveWS)

	return mux
}

// Start - starts WebSocket server and blocks until ctx is canceled or the listener fails.
func (that *Server) Start(ctx context.Context, port string) error {
	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           that.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       30 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("failed to start server: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	// hijacked connections are not tracked by Shutdown; they end with their read loops
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shutdown server: %w", err)
	}

	return nil
}

func (that *Server) serveWS(writer http.ResponseWriter, req *http.Request) {
	log := that.logger.With("method", "serveWS")

	ws, err := that.upgrader.Upgrade(writer, req, nil)
	if err != nil {
		// the upgrader has already answered with an http error
		log.Warn("failed to upgrade connection", "error", err)
		return
	}

	connID := uuid.NewString()
	log = log.With("connID", connID)

	conn := that.connections.Register(connID)
	log.Debug("connection opened", "remote", req.RemoteAddr)

	ctx := req.Context()

	defer func() {
		that.gameUseCase.Drop(ctx, connID)
		that.connections.Unregister(connID)

		_ = ws.Close()
		log.Debug("connection closed")
	}()

	go that.writePump(ws, conn)

	that.readLoop(ctx, ws, connID)
}
