package entity

import (
	"testing"

	"github.com/rocketscienceinc/tictactoe-sync/internal/apperror"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

var (
	playerX = Player{Label: "X", Color: "blue"}
	playerO = Player{Label: "O", Color: "green"}
)

func newTestGame(t *testing.T) *Game {
	t.Helper()

	game, err := NewGame(DefaultBoardSize, DefaultPlayers)
	require.NoError(t, err)

	return game
}

// play processes the moves in order, toggling the turn while the game keeps running.
func play(game *Game, cells ...Cell) {
	for _, cell := range cells {
		move := Move{Row: cell.Row, Col: cell.Col, Label: game.CurrentPlayer().Label}
		game.ProcessMove(move)
		if !game.IsFinished() {
			game.TogglePlayer()
		}
	}
}

func TestNewGame(t *testing.T) {
	t.Run("Creates an empty board with the first player to move", func(t *testing.T) {
		// When: a default game is created
		game := newTestGame(t)

		// Then: every cell is empty and the first configured player moves first
		for row := 0; row < game.Size(); row++ {
			for col := 0; col < game.Size(); col++ {
				assert.Equal(t, EmptyMove(row, col), game.CellAt(row, col))
			}
		}
		assert.Equal(t, playerX, game.CurrentPlayer())
		assert.False(t, game.Running())
		assert.Equal(t, StatusNotStarted, game.Status())
	})

	t.Run("Rejects invalid configuration", func(t *testing.T) {
		_, err := NewGame(0, DefaultPlayers)
		require.ErrorIs(t, err, ErrInvalidBoardSize)

		_, err = NewGame(MaxBoardSize+1, DefaultPlayers)
		require.ErrorIs(t, err, ErrInvalidBoardSize)

		_, err = NewGame(3, nil)
		require.ErrorIs(t, err, ErrNoPlayers)

		_, err = NewGame(3, []Player{playerX, {Label: "X", Color: "red"}})
		require.ErrorIs(t, err, ErrDuplicatePlayer)

		_, err = NewGame(3, []Player{{Label: SpectatorLabel}})
		require.ErrorIs(t, err, ErrInvalidPlayer)
	})
}

func TestWinningCombos(t *testing.T) {
	// When: combos for a 3x3 board are computed
	combos := WinningCombos(3)

	// Then: rows come first, then columns, then both diagonals
	expected := [][]Cell{
		{{0, 0}, {0, 1}, {0, 2}},
		{{1, 0}, {1, 1}, {1, 2}},
		{{2, 0}, {2, 1}, {2, 2}},
		{{0, 0}, {1, 0}, {2, 0}},
		{{0, 1}, {1, 1}, {2, 1}},
		{{0, 2}, {1, 2}, {2, 2}},
		{{0, 0}, {1, 1}, {2, 2}},
		{{0, 2}, {1, 1}, {2, 0}},
	}
	assert.Equal(t, expected, combos)
}

func TestGame_IsValidMove(t *testing.T) {
	t.Run("Empty cell is valid", func(t *testing.T) {
		game := newTestGame(t)

		assert.True(t, game.IsValidMove(Move{Row: 1, Col: 1, Label: "X"}))
	})

	t.Run("Occupied cell is invalid", func(t *testing.T) {
		// Given: X played the center
		game := newTestGame(t)
		play(game, Cell{1, 1})

		// When: O targets the same cell
		err := game.ConfirmPlayable(Move{Row: 1, Col: 1, Label: "O"})

		// Then: the move is rejected as occupied
		require.ErrorIs(t, err, apperror.ErrCellOccupied)
		assert.False(t, game.IsValidMove(Move{Row: 1, Col: 1, Label: "O"}))
	})

	t.Run("Any move after a win is invalid", func(t *testing.T) {
		// Given: X completed the top row
		game := newTestGame(t)
		play(game, Cell{0, 0}, Cell{1, 1}, Cell{0, 1}, Cell{2, 2}, Cell{0, 2})
		require.True(t, game.HasWinner())

		// When: someone targets an empty cell
		err := game.ConfirmPlayable(Move{Row: 2, Col: 0, Label: "O"})

		// Then: the game is over
		require.ErrorIs(t, err, apperror.ErrGameFinished)
	})
}

func TestGame_ProcessMove(t *testing.T) {
	t.Run("Marks the game as running without advancing the turn", func(t *testing.T) {
		game := newTestGame(t)

		game.ProcessMove(Move{Row: 0, Col: 0, Label: "X"})

		assert.True(t, game.Running())
		assert.Equal(t, Move{Row: 0, Col: 0, Label: "X"}, game.CellAt(0, 0))
		assert.Equal(t, playerX, game.CurrentPlayer())
		assert.Equal(t, StatusRunning, game.Status())
	})

	t.Run("Detects a column win", func(t *testing.T) {
		game := newTestGame(t)

		play(game, Cell{0, 1}, Cell{0, 0}, Cell{1, 1}, Cell{2, 2}, Cell{2, 1})

		require.True(t, game.HasWinner())
		assert.Equal(t, []Cell{{0, 1}, {1, 1}, {2, 1}}, game.WinnerCombo())
		assert.Equal(t, playerX, game.CurrentPlayer())
	})

	t.Run("Detects an anti diagonal win", func(t *testing.T) {
		game := newTestGame(t)

		play(game, Cell{0, 2}, Cell{0, 0}, Cell{1, 1}, Cell{0, 1}, Cell{2, 0})

		require.True(t, game.HasWinner())
		assert.Equal(t, []Cell{{0, 2}, {1, 1}, {2, 0}}, game.WinnerCombo())
	})

	t.Run("Reports the first combo in scan order when several complete at once", func(t *testing.T) {
		// Given: X holds (0,1), (0,2), (1,0), (2,0)
		game := newTestGame(t)
		for _, cell := range []Cell{{0, 1}, {0, 2}, {1, 0}, {2, 0}} {
			game.ProcessMove(Move{Row: cell.Row, Col: cell.Col, Label: "X"})
		}
		require.False(t, game.HasWinner())

		// When: X plays the corner that completes row 0 and column 0
		game.ProcessMove(Move{Row: 0, Col: 0, Label: "X"})

		// Then: the row wins because rows are scanned before columns
		assert.Equal(t, []Cell{{0, 0}, {0, 1}, {0, 2}}, game.WinnerCombo())
	})

	t.Run("Single cell board is won by the first move", func(t *testing.T) {
		game, err := NewGame(1, DefaultPlayers)
		require.NoError(t, err)

		game.ProcessMove(Move{Label: "X"})

		assert.True(t, game.HasWinner())
		assert.False(t, game.IsTied())
		assert.Equal(t, []Cell{{0, 0}}, game.WinnerCombo())
	})
}

func TestGame_IsTied(t *testing.T) {
	t.Run("Full board without a line is a tie", func(t *testing.T) {
		// Given: X O X / X O O / O X X played alternately
		game := newTestGame(t)
		play(game,
			Cell{0, 0}, Cell{0, 1}, Cell{0, 2}, Cell{1, 1}, Cell{1, 0},
			Cell{1, 2}, Cell{2, 1}, Cell{2, 0}, Cell{2, 2},
		)

		// Then: the game is tied and nobody won
		assert.True(t, game.IsTied())
		assert.False(t, game.HasWinner())
		assert.Equal(t, StatusTie, game.Status())

		outcome, ok := game.Outcome()
		require.True(t, ok)
		assert.Equal(t, Outcome{Status: StatusTie, Winner: PlayerTie}, outcome)
	})

	t.Run("Full board with a line is a win, not a tie", func(t *testing.T) {
		// Given: the last move fills the board and completes the main diagonal
		game := newTestGame(t)
		play(game,
			Cell{0, 0}, Cell{0, 1}, Cell{0, 2}, Cell{1, 0}, Cell{1, 1},
			Cell{2, 0}, Cell{1, 2}, Cell{2, 1}, Cell{2, 2},
		)

		assert.True(t, game.HasWinner())
		assert.False(t, game.IsTied())
		assert.Equal(t, StatusWin, game.Status())
	})

	t.Run("Partially filled board is not tied", func(t *testing.T) {
		game := newTestGame(t)
		play(game, Cell{0, 0})

		assert.False(t, game.IsTied())
	})
}

func TestGame_TogglePlayer(t *testing.T) {
	game, err := NewGame(3, []Player{playerX, playerO, {Label: "Z", Color: "red"}})
	require.NoError(t, err)

	game.TogglePlayer()
	assert.Equal(t, playerO, game.CurrentPlayer())

	game.TogglePlayer()
	assert.Equal(t, "Z", game.CurrentPlayer().Label)

	game.TogglePlayer()
	assert.Equal(t, playerX, game.CurrentPlayer())
}

func TestGame_ResetGame(t *testing.T) {
	// Given: O won the game, so O is still the current player
	game := newTestGame(t)
	play(game, Cell{1, 0}, Cell{0, 0}, Cell{1, 1}, Cell{0, 1}, Cell{2, 2}, Cell{0, 2})
	require.True(t, game.HasWinner())
	require.Equal(t, playerO, game.CurrentPlayer())

	// When: the game is reset
	game.ResetGame()

	// Then: the board is empty, the winner cleared, and the current player kept
	assert.False(t, game.HasWinner())
	assert.Empty(t, game.WinnerCombo())
	assert.False(t, game.Running())
	assert.Equal(t, StatusNotStarted, game.Status())
	assert.Equal(t, playerO, game.CurrentPlayer())
	assert.Equal(t, emptyBoard(3), game.Board())
}

func TestGame_ConfirmFinishedState(t *testing.T) {
	game := newTestGame(t)
	require.ErrorIs(t, game.ConfirmFinishedState(), apperror.ErrGameIsNotStarted)

	play(game, Cell{0, 0})
	require.ErrorIs(t, game.ConfirmFinishedState(), apperror.ErrGameIsRunning)

	play(game, Cell{1, 0}, Cell{0, 1}, Cell{1, 1}, Cell{0, 2})
	require.NoError(t, game.ConfirmFinishedState())

	outcome, ok := game.Outcome()
	require.True(t, ok)
	assert.Equal(t, Outcome{Status: StatusWin, Winner: "X"}, outcome)
}

func TestGame_Board_ReturnsCopy(t *testing.T) {
	game := newTestGame(t)

	board := game.Board()
	board[0][0].Label = "O"

	assert.True(t, game.CellAt(0, 0).IsEmpty())
}

func TestPropertyToggleIsCyclic(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		count := rapid.IntRange(1, 6).Draw(t, "players")
		players := make([]Player, count)
		for i := range players {
			players[i] = Player{Label: string(rune('A' + i)), Color: "white"}
		}

		game, err := NewGame(3, players)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		skip := rapid.IntRange(0, count-1).Draw(t, "skip")
		for i := 0; i < skip; i++ {
			game.TogglePlayer()
		}
		start := game.CurrentPlayer()

		for i := 0; i < count; i++ {
			game.TogglePlayer()
		}

		if game.CurrentPlayer() != start {
			t.Fatalf("expected %v after a full cycle, got %v", start, game.CurrentPlayer())
		}
	})
}

func TestPropertyRandomGamesKeepInvariants(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		size := rapid.IntRange(1, 5).Draw(t, "size")
		game, err := NewGame(size, DefaultPlayers)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		for !game.IsFinished() {
			row := rapid.IntRange(0, size-1).Draw(t, "row")
			col := rapid.IntRange(0, size-1).Draw(t, "col")
			move := Move{Row: row, Col: col, Label: game.CurrentPlayer().Label}
			before := game.CellAt(row, col)

			if !game.IsValidMove(move) {
				if before.IsEmpty() {
					t.Fatalf("empty cell %v rejected on a running game", before)
				}
				continue
			}

			game.ProcessMove(move)
			if !game.IsFinished() {
				game.TogglePlayer()
			}
		}

		if game.HasWinner() {
			combo := game.WinnerCombo()
			if len(combo) != size {
				t.Fatalf("winner combo has %d cells on a %d board", len(combo), size)
			}
			label := game.CellAt(combo[0].Row, combo[0].Col).Label
			for _, cell := range combo {
				got := game.CellAt(cell.Row, cell.Col)
				if got.Label != label || got.IsEmpty() {
					t.Fatalf("winner combo is not mono-labeled: %v", combo)
				}
			}
		}

		if game.HasWinner() == game.IsTied() {
			t.Fatalf("finished game must be exactly one of won or tied")
		}

		game.ResetGame()
		for row := 0; row < size; row++ {
			for col := 0; col < size; col++ {
				if !game.IsValidMove(Move{Row: row, Col: col, Label: "X"}) {
					t.Fatalf("cell (%d,%d) not playable after reset", row, col)
				}
			}
		}
	})
}
