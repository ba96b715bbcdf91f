package client

import "github.com/rocketscienceinc/tictactoe-sync/internal/entity"

type IntentKind int

const (
	IntentMove IntentKind = iota
	IntentRestart
	IntentQuit
)

// Intent is something the user asked for. Row and Col are set for IntentMove.
type Intent struct {
	Kind IntentKind
	Row  int
	Col  int
}

func Move(row, col int) Intent {
	return Intent{Kind: IntentMove, Row: row, Col: col}
}

type FrameCell struct {
	Label     string
	Color     string
	Highlight bool
}

// Frame is everything a view needs to draw one screen.
type Frame struct {
	Cells        [][]FrameCell
	Message      string
	MessageColor string
	// Notice is the last rejection reason, cleared by the next confirmed event.
	Notice   string
	Role     entity.Role
	Finished bool
}

// View draws frames and reports user intents. Render is never called concurrently.
type View interface {
	Render(frame Frame) error
	Intents() <-chan Intent
}
