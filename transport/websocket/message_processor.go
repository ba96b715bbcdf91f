package websocket

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gorilla/websocket"

	"github.com/rocketscienceinc/tictactoe-sync/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-sync/internal/hub"
	"github.com/rocketscienceinc/tictactoe-sync/internal/protocol"
)

// readLoop routes client messages until the peer goes away or the connection is closed by the write pump.
func (that *Server) readLoop(ctx context.Context, ws *websocket.Conn, connID string) {
	log := that.logger.With("method", "readLoop", "connID", connID)

	ws.SetReadLimit(maxFrameSize)

	if that.pingInterval > 0 {
		pongWait := 2 * that.pingInterval

		_ = ws.SetReadDeadline(time.Now().Add(pongWait))
		ws.SetPongHandler(func(string) error {
			return ws.SetReadDeadline(time.Now().Add(pongWait))
		})
	} else {
		_ = ws.SetReadDeadline(time.Time{})
	}

	for {
		_, data, err := ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Warn("connection lost", "error", err)
			}
			return
		}

		that.processMessage(ctx, connID, data)
	}
}

func (that *Server) processMessage(ctx context.Context, connID string, data []byte) {
	log := that.logger.With("method", "processMessage", "connID", connID)

	if len(data) > maxRequestSize {
		log.Warn("message too large", "size", len(data))
		that.sendError(connID, fmt.Errorf("%w: %d bytes, limit is %d", apperror.ErrMalformedMessage, len(data), maxRequestSize))
		return
	}

	req, err := protocol.ParseRequest(data)
	if err != nil {
		log.Warn("failed to parse message", "error", err)
		that.sendError(connID, err)
		return
	}

	handler, ok := that.handlers[req.Type]
	if !ok {
		log.Warn("unknown message type", "type", req.Type)
		that.sendError(connID, fmt.Errorf("%w: %s", apperror.ErrUnknownMessageType, req.Type))
		return
	}

	if err = handler(ctx, connID, req); err != nil {
		if isRejection(err) {
			log.Info("request rejected", "type", req.Type, "reason", err)
			return
		}
		log.Error("failed to handle message", "type", req.Type, "error", err)
	}
}

func (that *Server) sendError(connID string, cause error) {
	if err := that.connections.Send(connID, protocol.NewError(cause)); err != nil {
		that.logger.Warn("failed to send error", "connID", connID, "error", err)
	}
}

// writePump is the only writer of ws. It exits when the hub drops the connection
// or after a message marked Close has been written.
func (that *Server) writePump(ws *websocket.Conn, conn *hub.Conn) {
	log := that.logger.With("method", "writePump", "connID", conn.ID)

	var pings <-chan time.Time
	if that.pingInterval > 0 {
		ticker := time.NewTicker(that.pingInterval)
		defer ticker.Stop()
		pings = ticker.C
	}

	defer ws.Close()

	for {
		select {
		case out := <-conn.Outbound():
			_ = ws.SetWriteDeadline(time.Now().Add(that.writeTimeout))
			if err := ws.WriteMessage(websocket.TextMessage, out.Payload); err != nil {
				log.Warn("failed to write message", "error", err)
				return
			}

			if out.Close {
				closing := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
				_ = ws.WriteControl(websocket.CloseMessage, closing, time.Now().Add(that.writeTimeout))
				return
			}

		case <-pings:
			if err := ws.WriteControl(websocket.PingMessage, nil, time.Now().Add(that.writeTimeout)); err != nil {
				log.Warn("failed to ping", "error", err)
				return
			}

		case <-conn.Done():
			return
		}
	}
}

var rejections = []error{
	apperror.ErrGameFinished,
	apperror.ErrGameIsNotStarted,
	apperror.ErrGameIsRunning,
	apperror.ErrNotYourTurn,
	apperror.ErrCellOccupied,
	apperror.ErrOutOfBounds,
	apperror.ErrSessionExists,
	apperror.ErrSessionNotFound,
}

// isRejection reports whether err is a protocol level refusal already answered to the client.
func isRejection(err error) bool {
	for _, target := range rejections {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
