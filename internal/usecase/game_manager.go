package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/rocketscienceinc/tictactoe-sync/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-sync/internal/entity"
	"github.com/rocketscienceinc/tictactoe-sync/internal/protocol"
	"github.com/rocketscienceinc/tictactoe-sync/internal/session"
)

const recordTimeout = 3 * time.Second

type notifier interface {
	Send(connID string, msg any) error
	SendAndClose(connID string, msg any) error
	Broadcast(msg any) error
}

type scoreboard interface {
	Record(ctx context.Context, outcome entity.Outcome) error
}

// GameManager is the server side protocol handler. Every request runs under one mutex,
// and the messages a request produces are queued before the next request may mutate state,
// so all connections observe the same order of events.
type GameManager struct {
	logger *slog.Logger

	mu       sync.Mutex
	game     *entity.Game
	registry *session.Registry

	notifier   notifier
	scoreboard scoreboard
}

func NewGameManager(logger *slog.Logger, game *entity.Game, registry *session.Registry, notifier notifier, scoreboard scoreboard) *GameManager {
	return &GameManager{
		logger: logger.With("component", "game_manager"),

		game:     game,
		registry: registry,

		notifier:   notifier,
		scoreboard: scoreboard,
	}
}

// Connect opens the session of a connection and sends it the start_game snapshot.
func (that *GameManager) Connect(_ context.Context, connID string) error {
	log := that.logger.With("method", "Connect", "connID", connID)

	that.mu.Lock()
	defer that.mu.Unlock()

	sess, err := that.registry.Open(connID)
	if err != nil {
		return that.reply(connID, protocol.NewError(err), err)
	}

	if err = that.notifier.Send(connID, that.snapshot(sess.Role)); err != nil {
		return fmt.Errorf("failed to send snapshot: %w", err)
	}

	log.Info("player connected", "role", sess.Role.String())

	return nil
}

// MakeMove validates a move from connID and broadcasts the result to every connection.
// A rejected move is answered to the sender only and returned as an error.
func (that *GameManager) MakeMove(ctx context.Context, connID string, row, col int) error {
	outcome, finished, err := that.makeMove(connID, row, col)
	if err != nil {
		return err
	}

	if finished {
		that.recordOutcome(ctx, outcome)
	}

	return nil
}

func (that *GameManager) makeMove(connID string, row, col int) (entity.Outcome, bool, error) {
	log := that.logger.With("method", "MakeMove", "connID", connID)

	that.mu.Lock()
	defer that.mu.Unlock()

	if err := that.confirmTurn(connID, row, col); err != nil {
		return entity.Outcome{}, false, that.reply(connID, protocol.NewMoveRejected(err), err)
	}

	move := entity.Move{Row: row, Col: col, Label: that.game.CurrentPlayer().Label}
	if err := that.game.ConfirmPlayable(move); err != nil {
		return entity.Outcome{}, false, that.reply(connID, protocol.NewMoveRejected(err), err)
	}

	that.game.ProcessMove(move)

	var status string
	switch {
	case that.game.IsTied():
		status = entity.StatusTie
	case that.game.HasWinner():
		status = entity.StatusWin
	default:
		that.game.TogglePlayer()
		status = entity.StatusRunning
	}

	msg := protocol.NewMoveAccepted(move, that.game.CurrentPlayer(), status, that.game.WinnerCombo())
	if err := that.notifier.Broadcast(msg); err != nil {
		return entity.Outcome{}, false, fmt.Errorf("failed to broadcast move: %w", err)
	}

	log.Info("move accepted", "row", row, "col", col, "label", move.Label, "status", status)

	outcome, finished := that.game.Outcome()

	return outcome, finished, nil
}

func (that *GameManager) confirmTurn(connID string, row, col int) error {
	sess, ok := that.registry.Get(connID)
	if !ok {
		return apperror.ErrSessionNotFound
	}

	if !sess.Role.IsPlayer() || sess.Role.Label() != that.game.CurrentPlayer().Label {
		return apperror.ErrNotYourTurn
	}

	if !that.game.InBounds(row, col) {
		return fmt.Errorf("%w: (%d, %d)", apperror.ErrOutOfBounds, row, col)
	}

	return nil
}

// Restart resets a won or tied game and tells every connection to clear its board.
func (that *GameManager) Restart(_ context.Context, connID string) error {
	log := that.logger.With("method", "Restart", "connID", connID)

	that.mu.Lock()
	defer that.mu.Unlock()

	if _, ok := that.registry.Get(connID); !ok {
		err := apperror.ErrSessionNotFound
		return that.reply(connID, protocol.NewRestartRejected(err), err)
	}

	if err := that.game.ConfirmFinishedState(); err != nil {
		return that.reply(connID, protocol.NewRestartRejected(err), err)
	}

	that.game.ResetGame()

	if err := that.notifier.Broadcast(protocol.NewRestartAccepted()); err != nil {
		return fmt.Errorf("failed to broadcast restart: %w", err)
	}

	log.Info("game restarted", "next", that.game.CurrentPlayer().Label)

	return nil
}

// Disconnect handles request_disconnect: the role is released, the sender gets
// confirm_disconnect and its connection is closed afterwards.
func (that *GameManager) Disconnect(_ context.Context, connID string) error {
	log := that.logger.With("method", "Disconnect", "connID", connID)

	that.mu.Lock()
	defer that.mu.Unlock()

	sess, err := that.registry.Close(connID)
	if err != nil {
		return that.reply(connID, protocol.NewError(err), err)
	}

	if err = that.notifier.SendAndClose(connID, protocol.NewConfirmDisconnect()); err != nil {
		return fmt.Errorf("failed to confirm disconnect: %w", err)
	}

	log.Info("player disconnected", "role", sess.Role.String())

	return nil
}

// Drop handles a connection that went away without asking. The game is not paused.
func (that *GameManager) Drop(_ context.Context, connID string) {
	log := that.logger.With("method", "Drop", "connID", connID)

	that.mu.Lock()
	defer that.mu.Unlock()

	sess, err := that.registry.Close(connID)
	if err != nil {
		// already closed by request_disconnect, or never connected
		return
	}

	log.Info("connection lost, role released", "role", sess.Role.String())
}

// Snapshot returns the start_game message a connection with the given role would receive.
func (that *GameManager) Snapshot(role entity.Role) protocol.StartGame {
	that.mu.Lock()
	defer that.mu.Unlock()

	return that.snapshot(role)
}

func (that *GameManager) snapshot(role entity.Role) protocol.StartGame {
	msg := protocol.StartGame{
		Type:           protocol.TypeStartGame,
		AlreadyStarted: that.game.Running(),
		GameStatus:     that.game.Status(),
		WinnerCombo:    that.game.WinnerCombo(),
		BoardData: protocol.BoardData{
			BoardSize:      that.game.Size(),
			CurrentPlayer:  that.game.CurrentPlayer(),
			AssignedPlayer: role,
			AllPlayers:     that.game.Players(),
		},
	}

	if msg.AlreadyStarted {
		msg.BoardData.BoardState = that.game.Board()
	}

	return msg
}

// reply answers the sender of a rejected request and returns the rejection.
func (that *GameManager) reply(connID string, msg any, cause error) error {
	if err := that.notifier.Send(connID, msg); err != nil {
		return errors.Join(cause, fmt.Errorf("failed to send reply: %w", err))
	}
	return cause
}

func (that *GameManager) recordOutcome(ctx context.Context, outcome entity.Outcome) {
	log := that.logger.With("method", "recordOutcome")

	ctx, cancel := context.WithTimeout(ctx, recordTimeout)
	defer cancel()

	if err := that.scoreboard.Record(ctx, outcome); err != nil {
		log.Error("failed to record game outcome", "outcome", outcome, "error", err)
	}
}
