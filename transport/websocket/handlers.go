package websocket

import (
	"context"

	"github.com/rocketscienceinc/tictactoe-sync/internal/protocol"
)

func (that *Server) handleConnect(ctx context.Context, connID string, _ *protocol.Request) error {
	return that.gameUseCase.Connect(ctx, connID)
}

func (that *Server) handleMove(ctx context.Context, connID string, req *protocol.Request) error {
	return that.gameUseCase.MakeMove(ctx, connID, req.Move.Row, req.Move.Col)
}

func (that *Server) handleRestart(ctx context.Context, connID string, _ *protocol.Request) error {
	return that.gameUseCase.Restart(ctx, connID)
}

func (that *Server) handleDisconnect(ctx context.Context, connID string, _ *protocol.Request) error {
	return that.gameUseCase.Disconnect(ctx, connID)
}
