package protocol

import (
	"encoding/json"
	"fmt"

	"github.com/rocketscienceinc/tictactoe-sync/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-sync/internal/entity"
)

// Messages sent by clients.
const (
	TypeConnect           = "connect"
	TypeMove              = "move"
	TypeRestart           = "restart"
	TypeRequestDisconnect = "request_disconnect"
)

// Messages sent by the server.
const (
	TypeStartGame         = "start_game"
	TypeIsValidMove       = "is_valid_move"
	TypeIsValidRestart    = "is_valid_restart"
	TypeConfirmDisconnect = "confirm_disconnect"
	TypeError             = "error"
)

// Request is any client message. Move is set only for TypeMove.
type Request struct {
	Type string       `json:"type"`
	Move *entity.Move `json:"move,omitempty"`
}

// StartGame is the snapshot a client receives after connect.
type StartGame struct {
	Type           string        `json:"type"`
	AlreadyStarted bool          `json:"already_started"`
	GameStatus     string        `json:"game_status"`
	WinnerCombo    []entity.Cell `json:"winner_combo,omitempty"`
	BoardData      BoardData     `json:"board_data"`
}

type BoardData struct {
	BoardSize      int             `json:"board_size"`
	CurrentPlayer  entity.Player   `json:"current_player"`
	AssignedPlayer entity.Role     `json:"assigned_player"`
	AllPlayers     []entity.Player `json:"all_players"`
	BoardState     [][]entity.Move `json:"board_state,omitempty"`
}

// MoveResult is broadcast on an accepted move and sent to the sender alone on a rejected one.
type MoveResult struct {
	Type          string         `json:"type"`
	Valid         bool           `json:"valid"`
	Move          *entity.Move   `json:"move,omitempty"`
	CurrentPlayer *entity.Player `json:"current_player,omitempty"`
	GameStatus    string         `json:"game_status,omitempty"`
	WinnerCombo   []entity.Cell  `json:"winner_combo,omitempty"`
	Error         string         `json:"error,omitempty"`
}

type RestartResult struct {
	Type  string `json:"type"`
	Valid bool   `json:"valid"`
	Error string `json:"error,omitempty"`
}

type ConfirmDisconnect struct {
	Type string `json:"type"`
}

type Error struct {
	Type  string `json:"type"`
	Error string `json:"error"`
}

func NewMoveAccepted(move entity.Move, current entity.Player, status string, combo []entity.Cell) MoveResult {
	return MoveResult{
		Type:          TypeIsValidMove,
		Valid:         true,
		Move:          &move,
		CurrentPlayer: &current,
		GameStatus:    status,
		WinnerCombo:   combo,
	}
}

func NewMoveRejected(err error) MoveResult {
	return MoveResult{Type: TypeIsValidMove, Error: errorText(err)}
}

func NewRestartAccepted() RestartResult {
	return RestartResult{Type: TypeIsValidRestart, Valid: true}
}

func NewRestartRejected(err error) RestartResult {
	return RestartResult{Type: TypeIsValidRestart, Error: errorText(err)}
}

func NewConfirmDisconnect() ConfirmDisconnect {
	return ConfirmDisconnect{Type: TypeConfirmDisconnect}
}

func NewError(err error) Error {
	return Error{Type: TypeError, Error: errorText(err)}
}

func errorText(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}

// ParseRequest decodes a client message and checks the fields its type requires.
// Unknown types are returned as is; routing decides what to do with them.
func ParseRequest(data []byte) (*Request, error) {
	var req Request
	if err := json.Unmarshal(data, &req); err != nil {
		return nil, fmt.Errorf("%w: %w", apperror.ErrMalformedMessage, err)
	}

	if req.Type == "" {
		return nil, fmt.Errorf("%w: missing type", apperror.ErrMalformedMessage)
	}

	if req.Type == TypeMove && req.Move == nil {
		return nil, fmt.Errorf("%w: move without coordinates", apperror.ErrMalformedMessage)
	}

	return &req, nil
}

// PeekType returns the type tag of any message.
func PeekType(data []byte) (string, error) {
	var envelope struct {
		Type string `json:"type"`
	}

	if err := json.Unmarshal(data, &envelope); err != nil {
		return "", fmt.Errorf("%w: %w", apperror.ErrMalformedMessage, err)
	}

	if envelope.Type == "" {
		return "", fmt.Errorf("%w: missing type", apperror.ErrMalformedMessage)
	}

	return envelope.Type, nil
}

// Decode unmarshals a message whose type is already known.
func Decode[T any](data []byte) (T, error) {
	var msg T
	if err := json.Unmarshal(data, &msg); err != nil {
		return msg, fmt.Errorf("%w: %w", apperror.ErrMalformedMessage, err)
	}
	return msg, nil
}
