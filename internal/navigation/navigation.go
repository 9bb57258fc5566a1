// Package navigation runs the input loop: it decodes events, keeps the
// cursor inside the visible grid and composes one frame per iteration.
package navigation

import (
	"github.com/gdamore/tcell/v2"

	"github.com/kobzarvs/qview/internal/config"
	"github.com/kobzarvs/qview/internal/logger"
	"github.com/kobzarvs/qview/internal/terminal"
)

// Farewell is printed on the last frame before the loop exits.
const Farewell = "Goodbye.\r\n"

type State int

const (
	StateRunning State = iota
	StateQuitting
)

func (s State) String() string {
	if s == StateQuitting {
		return "quitting"
	}
	return "running"
}

// Terminal is the part of *terminal.Driver the controller drives.
type Terminal interface {
	HideCursor() error
	ShowCursor() error
	MoveCursorTo(pos terminal.Position) error
	ClearScreen() error
	Print(text string) error
	Execute() error
	Size() terminal.Size
	PollEvent() tcell.Event
}

// Grid is the content drawn under the cursor. *view.View implements it.
type Grid interface {
	Render() error
	Resize(size terminal.Size)
}

type Controller struct {
	term   Terminal
	grid   Grid
	keymap config.Keymap

	pos   terminal.Position
	state State
}

// New returns a running controller with the cursor at the origin. A nil
// keymap falls back to the default bindings.
func New(term Terminal, grid Grid, keymap config.Keymap) *Controller {
	if keymap == nil {
		keymap = config.Default().Keymap
	}
	return &Controller{
		term:   term,
		grid:   grid,
		keymap: keymap,
		pos:    terminal.Origin(),
		state:  StateRunning,
	}
}

func (c *Controller) State() State {
	return c.state
}

func (c *Controller) Position() terminal.Position {
	return c.pos
}

// Run draws a frame, then waits for input, until a quit input arrives or the
// event source closes. The farewell frame is drawn before Run returns on
// quit. Errors from rendering or flushing end the loop.
func (c *Controller) Run() error {
	for {
		if err := c.refreshScreen(); err != nil {
			return err
		}
		if c.state == StateQuitting {
			return nil
		}
		ev := c.term.PollEvent()
		if ev == nil {
			logger.Debug("event source closed")
			return nil
		}
		c.Dispatch(Translate(ev, c.keymap))
	}
}

// Dispatch applies one decoded input to the controller state.
func (c *Controller) Dispatch(in Input) {
	switch in := in.(type) {
	case QuitInput:
		logger.Info("quit requested", "reason", in.Reason)
		c.state = StateQuitting
	case MoveInput:
		c.moveCursor(in.Dir)
	case ResizeInput:
		logger.Debug("terminal resized", "rows", in.Size.Height, "cols", in.Size.Width)
		c.grid.Resize(in.Size)
	case IgnoredInput:
	}
}

// moveCursor moves one step, or to an edge, saturating at the borders of the
// grid as it is right now.
func (c *Controller) moveCursor(dir Direction) {
	size := c.term.Size()
	lastRow := max(size.Height-1, 0)
	lastCol := max(size.Width-1, 0)

	row, col := c.pos.Row, c.pos.Col
	switch dir {
	case DirUp:
		row = max(row-1, 0)
	case DirDown:
		row++
	case DirLeft:
		col = max(col-1, 0)
	case DirRight:
		col++
	case DirPageUp:
		row = 0
	case DirPageDown:
		row = lastRow
	case DirHome:
		col = 0
	case DirEnd:
		col = lastCol
	}
	c.pos = terminal.Position{Row: min(row, lastRow), Col: min(col, lastCol)}
}

func (c *Controller) refreshScreen() error {
	if err := c.term.HideCursor(); err != nil {
		return err
	}
	if err := c.term.MoveCursorTo(terminal.Origin()); err != nil {
		return err
	}
	if c.state == StateQuitting {
		if err := c.term.ClearScreen(); err != nil {
			return err
		}
		if err := c.term.Print(Farewell); err != nil {
			return err
		}
	} else {
		if err := c.grid.Render(); err != nil {
			return err
		}
		if err := c.term.MoveCursorTo(c.visiblePosition()); err != nil {
			return err
		}
	}
	if err := c.term.ShowCursor(); err != nil {
		return err
	}
	return c.term.Execute()
}

// visiblePosition keeps a cursor left behind by a shrinking grid on screen.
func (c *Controller) visiblePosition() terminal.Position {
	size := c.term.Size()
	return terminal.Position{
		Row: min(c.pos.Row, max(size.Height-1, 0)),
		Col: min(c.pos.Col, max(size.Width-1, 0)),
	}
}
