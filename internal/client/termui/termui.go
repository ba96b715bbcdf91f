package termui

import (
	"fmt"
	"sync"

	"github.com/nsf/termbox-go"

	"github.com/rocketscienceinc/tictactoe-sync/internal/client"
)

// board layout: every cell is cellWidth columns wide and two lines high including the separator
const (
	cellWidth  = 4
	boardTop   = 3
	intentsBuf = 8
)

var colors = map[string]termbox.Attribute{
	"black":   termbox.ColorDefault,
	"red":     termbox.ColorRed,
	"green":   termbox.ColorGreen,
	"yellow":  termbox.ColorYellow,
	"blue":    termbox.ColorBlue,
	"magenta": termbox.ColorMagenta,
	"cyan":    termbox.ColorCyan,
	"white":   termbox.ColorWhite,
}

// View draws the game with termbox. Arrow keys or the mouse select a cell,
// Enter or a click plays it, r asks for a restart and q or Esc leaves.
type View struct {
	intents chan client.Intent
	done    chan struct{}

	mu     sync.Mutex
	frame  client.Frame
	row    int
	col    int
	closed bool
}

// Open takes over the terminal. Close must be called to give it back.
func Open() (*View, error) {
	if err := termbox.Init(); err != nil {
		return nil, fmt.Errorf("failed to init terminal: %w", err)
	}

	termbox.SetInputMode(termbox.InputEsc | termbox.InputMouse)

	view := &View{
		intents: make(chan client.Intent, intentsBuf),
		done:    make(chan struct{}),
	}

	go view.poll()

	return view, nil
}

func (that *View) Intents() <-chan client.Intent {
	return that.intents
}

func (that *View) Render(frame client.Frame) error {
	that.mu.Lock()
	defer that.mu.Unlock()

	that.frame = frame
	that.row, that.col = clamp(that.row, len(frame.Cells)), clamp(that.col, len(frame.Cells))

	return that.draw()
}

func (that *View) Close() {
	that.mu.Lock()
	if that.closed {
		that.mu.Unlock()
		return
	}
	that.closed = true
	that.mu.Unlock()

	close(that.done)
	termbox.Interrupt()
	termbox.Close()
}

func (that *View) poll() {
	for {
		event := termbox.PollEvent()

		switch event.Type {
		case termbox.EventInterrupt, termbox.EventError:
			return
		case termbox.EventKey:
			if intent, ok := that.onKey(event); ok {
				that.emit(intent)
			}
		case termbox.EventMouse:
			if intent, ok := that.onMouse(event); ok {
				that.emit(intent)
			}
		case termbox.EventResize:
			that.mu.Lock()
			_ = that.draw()
			that.mu.Unlock()
		}
	}
}

func (that *View) emit(intent client.Intent) {
	select {
	case that.intents <- intent:
	case <-that.done:
	}
}

func (that *View) onKey(event termbox.Event) (client.Intent, bool) {
	that.mu.Lock()
	defer that.mu.Unlock()

	size := len(that.frame.Cells)

	switch {
	case event.Key == termbox.KeyEsc || event.Key == termbox.KeyCtrlC || event.Ch == 'q':
		return client.Intent{Kind: client.IntentQuit}, true
	case event.Ch == 'r':
		return client.Intent{Kind: client.IntentRestart}, true
	case event.Key == termbox.KeyEnter || event.Key == termbox.KeySpace:
		if size == 0 {
			return client.Intent{}, false
		}
		return client.Move(that.row, that.col), true
	case event.Key == termbox.KeyArrowUp:
		that.row = clamp(that.row-1, size)
	case event.Key == termbox.KeyArrowDown:
		that.row = clamp(that.row+1, size)
	case event.Key == termbox.KeyArrowLeft:
		that.col = clamp(that.col-1, size)
	case event.Key == termbox.KeyArrowRight:
		that.col = clamp(that.col+1, size)
	default:
		return client.Intent{}, false
	}

	_ = that.draw()

	return client.Intent{}, false
}

func (that *View) onMouse(event termbox.Event) (client.Intent, bool) {
	if event.Key != termbox.MouseLeft {
		return client.Intent{}, false
	}

	that.mu.Lock()
	defer that.mu.Unlock()

	row, col, ok := cellAt(event.MouseX, event.MouseY, len(that.frame.Cells))
	if !ok {
		return client.Intent{}, false
	}

	that.row, that.col = row, col
	_ = that.draw()

	return client.Move(row, col), true
}

// draw must be called with mu held.
func (that *View) draw() error {
	if that.closed {
		return nil
	}

	if err := termbox.Clear(termbox.ColorDefault, termbox.ColorDefault); err != nil {
		return fmt.Errorf("failed to clear terminal: %w", err)
	}

	frame := that.frame

	drawText(0, 0, frame.Message, colorOf(frame.MessageColor)|termbox.AttrBold, termbox.ColorDefault)
	drawText(0, 1, roleLine(frame), termbox.ColorDefault, termbox.ColorDefault)

	size := len(frame.Cells)
	for row := range frame.Cells {
		y := boardTop + 2*row

		for col, cell := range frame.Cells[row] {
			x := col * cellWidth

			fg, bg := colorOf(cell.Color), termbox.ColorDefault
			if cell.Highlight {
				fg |= termbox.AttrBold
				bg = termbox.ColorYellow
			}
			if row == that.row && col == that.col {
				fg |= termbox.AttrReverse
			}

			drawText(x, y, cellText(cell.Label), fg, bg)
			if col < size-1 {
				termbox.SetCell(x+cellWidth-1, y, '|', termbox.ColorDefault, termbox.ColorDefault)
			}
		}

		if row < size-1 {
			for x := 0; x < size*cellWidth-1; x++ {
				termbox.SetCell(x, y+1, '-', termbox.ColorDefault, termbox.ColorDefault)
			}
		}
	}

	footer := boardTop + 2*size
	drawText(0, footer, frame.Notice, termbox.ColorRed, termbox.ColorDefault)
	drawText(0, footer+1, helpLine(frame), termbox.ColorDefault, termbox.ColorDefault)

	if err := termbox.Flush(); err != nil {
		return fmt.Errorf("failed to flush terminal: %w", err)
	}

	return nil
}

func drawText(x, y int, text string, fg, bg termbox.Attribute) {
	for _, ch := range text {
		termbox.SetCell(x, y, ch, fg, bg)
		x++
	}
}

func cellText(label string) string {
	if label == "" {
		label = " "
	}
	return " " + label + " "
}

func roleLine(frame client.Frame) string {
	if !frame.Role.IsPlayer() {
		return "You are spectating"
	}
	return "You play " + frame.Role.Label()
}

func helpLine(frame client.Frame) string {
	if frame.Finished {
		return "r: play again  q: quit"
	}
	return "arrows/mouse: select  enter: play  q: quit"
}

// cellAt maps a terminal position to the board cell under it.
func cellAt(x, y, size int) (int, int, bool) {
	if x < 0 || y < boardTop {
		return 0, 0, false
	}

	offset := y - boardTop
	if offset%2 != 0 {
		return 0, 0, false
	}

	row, col := offset/2, x/cellWidth
	if row >= size || col >= size || x%cellWidth == cellWidth-1 {
		return 0, 0, false
	}

	return row, col, true
}

func colorOf(name string) termbox.Attribute {
	if color, ok := colors[name]; ok {
		return color
	}
	return termbox.ColorDefault
}

func clamp(value, size int) int {
	if value < 0 || size == 0 {
		return 0
	}
	if value >= size {
		return size - 1
	}
	return value
}
