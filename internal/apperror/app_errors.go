package apperror

import "errors"

var (
	ErrGameFinished     = errors.New("game is already finished")
	ErrGameIsNotStarted = errors.New("game is not started")
	ErrGameIsRunning    = errors.New("game is still running")
	ErrNotYourTurn      = errors.New("it's not your turn")
	ErrCellOccupied     = errors.New("cell is already occupied")
	ErrOutOfBounds      = errors.New("cell is out of the board")

	ErrSessionExists   = errors.New("session already initialized")
	ErrSessionNotFound = errors.New("session not found")

	ErrMalformedMessage   = errors.New("malformed message")
	ErrUnknownMessageType = errors.New("unknown message type")

	// ErrDesync is returned by the client mirror when the server references state the mirror never saw.
	ErrDesync = errors.New("client state diverged from server")
)
