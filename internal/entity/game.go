package entity

import (
	"errors"
	"fmt"

	"github.com/rocketscienceinc/tictactoe-sync/internal/apperror"
)

const (
	StatusNotStarted = "not_started"
	StatusRunning    = "running"
	StatusWin        = "win"
	StatusTie        = "tie"
)

const (
	DefaultBoardSize = 3
	MaxBoardSize     = 9
)

var (
	ErrInvalidBoardSize   = errors.New("invalid board size")
	ErrNoPlayers          = errors.New("at least one player is required")
	ErrInvalidPlayer      = errors.New("invalid player")
	ErrDuplicatePlayer    = errors.New("duplicate player label")
	ErrInvalidCoordinates = errors.New("invalid coordinates")

	DefaultPlayers = []Player{
		{Label: "X", Color: "blue"},
		{Label: "O", Color: "green"},
	}
)

// Game is the authoritative state of a single game instance.
// It is not safe for concurrent use; the protocol handler serializes access.
type Game struct {
	size    int
	players []Player
	turn    int

	board  [][]Move
	combos [][]Cell

	hasWinner   bool
	winnerCombo []Cell
	running     bool
}

func NewGame(size int, players []Player) (*Game, error) {
	if size < 1 || size > MaxBoardSize {
		return nil, fmt.Errorf("%w: %d", ErrInvalidBoardSize, size)
	}

	if err := ValidatePlayers(players); err != nil {
		return nil, err
	}

	game := &Game{
		size:    size,
		players: append([]Player(nil), players...),
		combos:  WinningCombos(size),
	}
	game.board = emptyBoard(size)

	return game, nil
}

// ValidatePlayers checks that the turn order is non-empty and labels are unique and usable.
func ValidatePlayers(players []Player) error {
	if len(players) == 0 {
		return ErrNoPlayers
	}

	seen := make(map[string]struct{}, len(players))
	for _, player := range players {
		switch player.Label {
		case EmptyCell, SpectatorLabel, PlayerTie:
			return fmt.Errorf("%w: label %q is reserved", ErrInvalidPlayer, player.Label)
		}

		if _, ok := seen[player.Label]; ok {
			return fmt.Errorf("%w: %s", ErrDuplicatePlayer, player.Label)
		}
		seen[player.Label] = struct{}{}
	}

	return nil
}

// WinningCombos lists every row, then every column, then the main and the anti diagonal.
func WinningCombos(size int) [][]Cell {
	combos := make([][]Cell, 0, 2*size+2)

	for row := 0; row < size; row++ {
		combo := make([]Cell, 0, size)
		for col := 0; col < size; col++ {
			combo = append(combo, Cell{Row: row, Col: col})
		}
		combos = append(combos, combo)
	}

	for col := 0; col < size; col++ {
		combo := make([]Cell, 0, size)
		for row := 0; row < size; row++ {
			combo = append(combo, Cell{Row: row, Col: col})
		}
		combos = append(combos, combo)
	}

	diagonal := make([]Cell, 0, size)
	antiDiagonal := make([]Cell, 0, size)
	for i := 0; i < size; i++ {
		diagonal = append(diagonal, Cell{Row: i, Col: i})
		antiDiagonal = append(antiDiagonal, Cell{Row: i, Col: size - 1 - i})
	}

	return append(combos, diagonal, antiDiagonal)
}

func emptyBoard(size int) [][]Move {
	board := make([][]Move, size)
	for row := range board {
		board[row] = make([]Move, size)
		for col := range board[row] {
			board[row][col] = EmptyMove(row, col)
		}
	}
	return board
}

func (that *Game) Size() int {
	return that.size
}

func (that *Game) InBounds(row, col int) bool {
	return row >= 0 && row < that.size && col >= 0 && col < that.size
}

// IsValidMove reports whether the targeted cell is empty and nobody has won yet.
// Turn ownership is not checked here. Coordinates must be in range.
func (that *Game) IsValidMove(move Move) bool {
	return that.ConfirmPlayable(move) == nil
}

// ConfirmPlayable explains why IsValidMove would return false.
func (that *Game) ConfirmPlayable(move Move) error {
	if that.hasWinner {
		return apperror.ErrGameFinished
	}

	if !that.board[move.Row][move.Col].IsEmpty() {
		return apperror.ErrCellOccupied
	}

	return nil
}

// ProcessMove writes the move and scans the combos for a winner. It never advances the turn.
// Callers must check IsValidMove first.
func (that *Game) ProcessMove(move Move) {
	that.running = true
	that.board[move.Row][move.Col] = move

	for _, combo := range that.combos {
		label := that.board[combo[0].Row][combo[0].Col].Label
		if label == EmptyCell {
			continue
		}

		won := true
		for _, cell := range combo[1:] {
			if that.board[cell.Row][cell.Col].Label != label {
				won = false
				break
			}
		}

		if won {
			that.hasWinner = true
			that.winnerCombo = append([]Cell(nil), combo...)
			return
		}
	}
}

func (that *Game) HasWinner() bool {
	return that.hasWinner
}

// IsTied is true when every cell is occupied and no winner was declared.
func (that *Game) IsTied() bool {
	if that.hasWinner {
		return false
	}

	for _, row := range that.board {
		for _, move := range row {
			if move.IsEmpty() {
				return false
			}
		}
	}

	return true
}

// TogglePlayer advances the turn to the next player, wrapping around.
func (that *Game) TogglePlayer() {
	that.turn = (that.turn + 1) % len(that.players)
}

// ResetGame clears the board and the winner. The current player is kept.
func (that *Game) ResetGame() {
	that.running = false
	that.board = emptyBoard(that.size)
	that.hasWinner = false
	that.winnerCombo = nil
}

func (that *Game) CurrentPlayer() Player {
	return that.players[that.turn]
}

func (that *Game) Players() []Player {
	return append([]Player(nil), that.players...)
}

func (that *Game) Running() bool {
	return that.running
}

func (that *Game) WinnerCombo() []Cell {
	return append([]Cell(nil), that.winnerCombo...)
}

func (that *Game) CellAt(row, col int) Move {
	return that.board[row][col]
}

// Board returns a copy of the grid.
func (that *Game) Board() [][]Move {
	board := make([][]Move, that.size)
	for row := range that.board {
		board[row] = append([]Move(nil), that.board[row]...)
	}
	return board
}

func (that *Game) Status() string {
	switch {
	case that.hasWinner:
		return StatusWin
	case that.IsTied():
		return StatusTie
	case that.running:
		return StatusRunning
	default:
		return StatusNotStarted
	}
}

func (that *Game) IsFinished() bool {
	return that.hasWinner || that.IsTied()
}

// ConfirmFinishedState allows a restart only from a won or tied game.
func (that *Game) ConfirmFinishedState() error {
	switch that.Status() {
	case StatusWin, StatusTie:
		return nil
	case StatusRunning:
		return apperror.ErrGameIsRunning
	default:
		return apperror.ErrGameIsNotStarted
	}
}

// Outcome is the result of a finished game.
type Outcome struct {
	Status string `json:"status"`
	Winner string `json:"winner"`
}

// Outcome returns the result when the game is over. A tie is reported with PlayerTie as the winner.
func (that *Game) Outcome() (Outcome, bool) {
	switch {
	case that.hasWinner:
		combo := that.winnerCombo[0]
		return Outcome{Status: StatusWin, Winner: that.board[combo.Row][combo.Col].Label}, true
	case that.IsTied():
		return Outcome{Status: StatusTie, Winner: PlayerTie}, true
	default:
		return Outcome{}, false
	}
}
