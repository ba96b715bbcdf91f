package client

import (
	"fmt"

	"github.com/rocketscienceinc/tictactoe-sync/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-sync/internal/entity"
	"github.com/rocketscienceinc/tictactoe-sync/internal/protocol"
)

const (
	colorDefault = "black"
	colorTie     = "red"
)

// Mirror is the client copy of the game. It changes only when the server confirms something,
// never on local input.
type Mirror struct {
	size     int
	current  entity.Player
	assigned entity.Role
	players  []entity.Player
	board    [][]entity.Move

	status      string
	winnerCombo []entity.Cell

	message      string
	messageColor string
}

// NewMirror builds the mirror from the start_game snapshot.
func NewMirror(msg protocol.StartGame) (*Mirror, error) {
	data := msg.BoardData

	if data.BoardSize < 1 || data.BoardSize > entity.MaxBoardSize {
		return nil, fmt.Errorf("%w: board size %d", apperror.ErrDesync, data.BoardSize)
	}

	if len(data.AllPlayers) == 0 {
		return nil, fmt.Errorf("%w: no players", apperror.ErrDesync)
	}

	mirror := &Mirror{
		size:     data.BoardSize,
		assigned: data.AssignedPlayer,
		players:  append([]entity.Player(nil), data.AllPlayers...),
		status:   msg.GameStatus,
	}

	if err := mirror.setCurrent(data.CurrentPlayer); err != nil {
		return nil, err
	}

	if mirror.assigned.IsPlayer() && !mirror.knows(mirror.assigned.Label()) {
		return nil, fmt.Errorf("%w: assigned unknown player %q", apperror.ErrDesync, mirror.assigned.Label())
	}

	mirror.clearBoard()

	if msg.AlreadyStarted {
		if err := mirror.loadBoard(data.BoardState); err != nil {
			return nil, err
		}
	}

	if err := mirror.setWinnerCombo(msg.WinnerCombo); err != nil {
		return nil, err
	}

	if mirror.status == "" {
		mirror.status = entity.StatusNotStarted
	}

	mirror.describe(true)

	return mirror, nil
}

// ApplyMove writes a confirmed move. Rejected moves leave the mirror as is.
func (that *Mirror) ApplyMove(msg protocol.MoveResult) error {
	if !msg.Valid {
		return nil
	}

	if msg.Move == nil || msg.CurrentPlayer == nil {
		return fmt.Errorf("%w: move result without move or current player", apperror.ErrDesync)
	}

	move := *msg.Move
	if !that.inBounds(move.Row, move.Col) {
		return fmt.Errorf("%w: move (%d, %d) outside a %dx%d board", apperror.ErrDesync, move.Row, move.Col, that.size, that.size)
	}

	if !that.knows(move.Label) {
		return fmt.Errorf("%w: move by unknown player %q", apperror.ErrDesync, move.Label)
	}

	if occupant := that.board[move.Row][move.Col]; !occupant.IsEmpty() {
		return fmt.Errorf("%w: cell (%d, %d) already holds %q", apperror.ErrDesync, move.Row, move.Col, occupant.Label)
	}

	if err := that.setCurrent(*msg.CurrentPlayer); err != nil {
		return err
	}

	if err := that.setWinnerCombo(msg.WinnerCombo); err != nil {
		return err
	}

	that.board[move.Row][move.Col] = move
	that.status = msg.GameStatus
	that.describe(false)

	return nil
}

// ApplyRestart clears the board after a confirmed restart. The turn is kept.
func (that *Mirror) ApplyRestart(msg protocol.RestartResult) {
	if !msg.Valid {
		return
	}

	that.clearBoard()
	that.winnerCombo = nil
	that.status = entity.StatusNotStarted
	that.describe(true)
}

func (that *Mirror) Size() int {
	return that.size
}

func (that *Mirror) Assigned() entity.Role {
	return that.assigned
}

func (that *Mirror) CurrentPlayer() entity.Player {
	return that.current
}

func (that *Mirror) Status() string {
	return that.status
}

func (that *Mirror) CellAt(row, col int) entity.Move {
	return that.board[row][col]
}

// Message is the status line with the color it is drawn in.
func (that *Mirror) Message() (string, string) {
	return that.message, that.messageColor
}

// Frame derives what the view draws.
func (that *Mirror) Frame() Frame {
	frame := Frame{
		Cells:        make([][]FrameCell, that.size),
		Message:      that.message,
		MessageColor: that.messageColor,
		Role:         that.assigned,
		Finished:     that.status == entity.StatusWin || that.status == entity.StatusTie,
	}

	for row := range that.board {
		frame.Cells[row] = make([]FrameCell, that.size)
		for col, move := range that.board[row] {
			frame.Cells[row][col] = FrameCell{
				Label: move.Label,
				Color: that.colorOf(move.Label),
			}
		}
	}

	for _, cell := range that.winnerCombo {
		frame.Cells[cell.Row][cell.Col].Highlight = true
	}

	return frame
}

// describe sets the status line. fresh is true on start and restart, where the turn line ends with a dot.
func (that *Mirror) describe(fresh bool) {
	mine := that.assigned.IsPlayer() && that.assigned.Label() == that.current.Label

	that.messageColor = colorDefault

	switch that.status {
	case entity.StatusTie:
		that.message = "Tied game!"
		that.messageColor = colorTie
	case entity.StatusWin:
		if mine {
			that.message = "You won!"
		} else {
			that.message = fmt.Sprintf("Player %q won!", that.current.Label)
		}
		that.messageColor = that.current.Color
	default:
		switch {
		case mine:
			that.message = "Your turn!"
		case fresh:
			that.message = that.current.Label + "'s turn."
		default:
			that.message = that.current.Label + "'s turn"
		}
	}
}

func (that *Mirror) setCurrent(player entity.Player) error {
	known, ok := that.find(player.Label)
	if !ok {
		return fmt.Errorf("%w: unknown current player %q", apperror.ErrDesync, player.Label)
	}

	that.current = known

	return nil
}

func (that *Mirror) setWinnerCombo(combo []entity.Cell) error {
	for _, cell := range combo {
		if !that.inBounds(cell.Row, cell.Col) {
			return fmt.Errorf("%w: winner cell (%d, %d) outside the board", apperror.ErrDesync, cell.Row, cell.Col)
		}
	}

	that.winnerCombo = append([]entity.Cell(nil), combo...)

	return nil
}

func (that *Mirror) loadBoard(state [][]entity.Move) error {
	if len(state) != that.size {
		return fmt.Errorf("%w: board has %d rows, expected %d", apperror.ErrDesync, len(state), that.size)
	}

	for row := range state {
		if len(state[row]) != that.size {
			return fmt.Errorf("%w: row %d has %d cells", apperror.ErrDesync, row, len(state[row]))
		}

		for col, move := range state[row] {
			if move.Label != entity.EmptyCell && !that.knows(move.Label) {
				return fmt.Errorf("%w: cell (%d, %d) owned by unknown player %q", apperror.ErrDesync, row, col, move.Label)
			}
			that.board[row][col] = entity.Move{Row: row, Col: col, Label: move.Label}
		}
	}

	return nil
}

func (that *Mirror) clearBoard() {
	that.board = make([][]entity.Move, that.size)
	for row := range that.board {
		that.board[row] = make([]entity.Move, that.size)
		for col := range that.board[row] {
			that.board[row][col] = entity.EmptyMove(row, col)
		}
	}
}

func (that *Mirror) inBounds(row, col int) bool {
	return row >= 0 && row < that.size && col >= 0 && col < that.size
}

func (that *Mirror) find(label string) (entity.Player, bool) {
	for _, player := range that.players {
		if player.Label == label {
			return player, true
		}
	}
	return entity.Player{}, false
}

func (that *Mirror) knows(label string) bool {
	_, ok := that.find(label)
	return ok
}

func (that *Mirror) colorOf(label string) string {
	if player, ok := that.find(label); ok && player.Color != "" {
		return player.Color
	}
	return colorDefault
}
