package entity

import (
	"encoding/json"
	"fmt"
)

// EmptyCell is the label of a cell nobody has played yet.
const EmptyCell = ""

// Cell is a zero-based (row, col) board coordinate.
type Cell struct {
	Row int
	Col int
}

func (that Cell) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]int{that.Row, that.Col})
}

func (that *Cell) UnmarshalJSON(data []byte) error {
	var pair []int
	if err := json.Unmarshal(data, &pair); err != nil {
		return fmt.Errorf("cell must be a [row, col] pair: %w", err)
	}

	if len(pair) != 2 {
		return fmt.Errorf("%w: got %d elements", ErrInvalidCoordinates, len(pair))
	}

	that.Row, that.Col = pair[0], pair[1]

	return nil
}

// Move is the content of one board cell. A move with an empty label is an unplayed cell.
type Move struct {
	Row   int
	Col   int
	Label string
}

func EmptyMove(row, col int) Move {
	return Move{Row: row, Col: col}
}

func (that Move) Cell() Cell {
	return Cell{Row: that.Row, Col: that.Col}
}

func (that Move) IsEmpty() bool {
	return that.Label == EmptyCell
}

// MarshalJSON encodes a move as [row, col, label].
func (that Move) MarshalJSON() ([]byte, error) {
	return json.Marshal([]any{that.Row, that.Col, that.Label})
}

// UnmarshalJSON accepts [row, col] or [row, col, label].
func (that *Move) UnmarshalJSON(data []byte) error {
	var parts []json.RawMessage
	if err := json.Unmarshal(data, &parts); err != nil {
		return fmt.Errorf("move must be an array: %w", err)
	}

	if len(parts) != 2 && len(parts) != 3 {
		return fmt.Errorf("%w: got %d elements", ErrInvalidCoordinates, len(parts))
	}

	var move Move
	if err := json.Unmarshal(parts[0], &move.Row); err != nil {
		return fmt.Errorf("failed to decode row: %w", err)
	}

	if err := json.Unmarshal(parts[1], &move.Col); err != nil {
		return fmt.Errorf("failed to decode col: %w", err)
	}

	if len(parts) == 3 {
		if err := json.Unmarshal(parts[2], &move.Label); err != nil {
			return fmt.Errorf("failed to decode label: %w", err)
		}
	}

	*that = move

	return nil
}
