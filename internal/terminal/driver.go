package terminal

import (
	"errors"
	"fmt"
	"sync"

	"github.com/gdamore/tcell/v2"
	"github.com/mattn/go-runewidth"

	"github.com/kobzarvs/qview/internal/config"
	"github.com/kobzarvs/qview/internal/logger"
)

type opKind int

const (
	opClearScreen opKind = iota
	opClearLine
	opMoveTo
	opHideCursor
	opShowCursor
	opPrint
	opStyle
)

type op struct {
	kind opKind
	pos  Position
	text string
	role Role
}

// Driver wraps a tcell.Screen behind an explicit operation queue.
// It is not safe for concurrent use; only Interrupt may be called from
// another goroutine.
type Driver struct {
	screen tcell.Screen
	styles styles

	queue []op

	// replay state, only touched by Execute
	pen           Position
	style         tcell.Style
	cursorVisible bool

	mu          sync.Mutex
	initialized bool
	terminated  bool
}

type Option func(*Driver)

// WithTheme sets the colors used for text and filler rows.
func WithTheme(theme config.Theme) Option {
	return func(d *Driver) {
		d.styles = newStyles(theme)
	}
}

func New(screen tcell.Screen, opts ...Option) *Driver {
	d := &Driver{
		screen: screen,
		styles: newStyles(config.Theme{}),
	}
	for _, opt := range opts {
		opt(d)
	}
	d.style = d.styles.text
	return d
}

// Initialize enters raw mode and the alternate screen, clears it and homes
// the cursor. It must be paired with Terminate.
func (d *Driver) Initialize() error {
	d.mu.Lock()
	if d.initialized {
		d.mu.Unlock()
		return &SetupError{Err: errors.New("already initialized")}
	}
	if err := d.screen.Init(); err != nil {
		d.mu.Unlock()
		return &SetupError{Err: err}
	}
	d.screen.SetStyle(d.styles.text)
	d.initialized = true
	d.mu.Unlock()

	if err := d.ClearScreen(); err != nil {
		return err
	}
	if err := d.MoveCursorTo(Origin()); err != nil {
		return err
	}
	return d.Execute()
}

// Terminate shows the cursor, flushes whatever is still queued and leaves
// raw mode. Calls after the first are no-ops.
func (d *Driver) Terminate() error {
	d.mu.Lock()
	if !d.initialized {
		d.mu.Unlock()
		return ErrNotInitialized
	}
	if d.terminated {
		d.mu.Unlock()
		return nil
	}
	d.mu.Unlock()

	err := d.ShowCursor()
	if err == nil {
		err = d.Execute()
	}

	d.mu.Lock()
	d.terminated = true
	d.mu.Unlock()
	d.screen.Fini()
	return err
}

// Session runs fn inside Initialize/Terminate. Terminate runs on every exit
// path: normal return, error, and panic. A panic is re-raised after the
// terminal has been restored.
func (d *Driver) Session(fn func() error) (err error) {
	if err := d.Initialize(); err != nil {
		return err
	}
	defer func() {
		r := recover()
		if r != nil {
			logger.Error("panic in terminal session", "panic", r)
		}
		if terr := d.Terminate(); terr != nil {
			logger.Error("terminal teardown failed", "err", terr)
			err = errors.Join(err, fmt.Errorf("terminal teardown: %w", terr))
		}
		if r != nil {
			panic(r)
		}
	}()
	return fn()
}

// Active reports whether the driver is between Initialize and Terminate.
func (d *Driver) Active() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.initialized && !d.terminated
}

// Terminated reports whether Terminate has run.
func (d *Driver) Terminated() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.terminated
}

func (d *Driver) push(o op) error {
	if !d.Active() {
		return ErrNotInitialized
	}
	d.queue = append(d.queue, o)
	return nil
}

func (d *Driver) ClearScreen() error {
	return d.push(op{kind: opClearScreen})
}

// ClearLine clears the row the cursor is on.
func (d *Driver) ClearLine() error {
	return d.push(op{kind: opClearLine})
}

// MoveCursorTo clamps pos to the protocol's 16-bit range.
func (d *Driver) MoveCursorTo(pos Position) error {
	return d.push(op{kind: opMoveTo, pos: Position{Row: clampCoord(pos.Row), Col: clampCoord(pos.Col)}})
}

func (d *Driver) HideCursor() error {
	return d.push(op{kind: opHideCursor})
}

func (d *Driver) ShowCursor() error {
	return d.push(op{kind: opShowCursor})
}

// Print writes text at the cursor. It neither wraps nor clips.
func (d *Driver) Print(text string) error {
	return d.push(op{kind: opPrint, text: text})
}

// UseStyle switches the style of subsequent prints.
func (d *Driver) UseStyle(role Role) error {
	return d.push(op{kind: opStyle, role: role})
}

// PrintRow moves to the start of row, clears it and prints text.
func (d *Driver) PrintRow(row int, text string) error {
	if err := d.MoveCursorTo(Position{Row: row}); err != nil {
		return err
	}
	if err := d.ClearLine(); err != nil {
		return err
	}
	return d.Print(text)
}

// Pending returns the number of queued operations.
func (d *Driver) Pending() int {
	return len(d.queue)
}

// Size queries the current grid. It returns the zero Size when the screen is
// not active; callers treat that as "nothing to draw".
func (d *Driver) Size() Size {
	if !d.Active() {
		return Size{}
	}
	w, h := d.screen.Size()
	if w < 0 || h < 0 {
		return Size{}
	}
	return Size{Height: h, Width: w}
}

// Execute replays the queue onto the screen and flushes it with one Show.
func (d *Driver) Execute() error {
	if !d.Active() {
		d.queue = d.queue[:0]
		return ErrNotInitialized
	}
	for _, o := range d.queue {
		d.apply(o)
	}
	d.queue = d.queue[:0]
	if d.cursorVisible {
		d.screen.ShowCursor(d.pen.Col, d.pen.Row)
	} else {
		d.screen.HideCursor()
	}
	d.screen.Show()
	return nil
}

func (d *Driver) apply(o op) {
	switch o.kind {
	case opClearScreen:
		d.screen.SetStyle(d.styles.text)
		d.screen.Clear()
	case opClearLine:
		w, _ := d.screen.Size()
		for x := 0; x < w; x++ {
			d.screen.SetContent(x, d.pen.Row, ' ', nil, d.styles.text)
		}
	case opMoveTo:
		d.pen = o.pos
	case opHideCursor:
		d.cursorVisible = false
	case opShowCursor:
		d.cursorVisible = true
	case opStyle:
		d.style = d.styles.forRole(o.role)
	case opPrint:
		d.draw(o.text)
	}
}

func (d *Driver) draw(text string) {
	lastX := -1
	var last rune
	var comb []rune
	for _, r := range text {
		switch {
		case r == '\r':
			d.pen.Col = 0
			lastX = -1
			continue
		case r == '\n':
			d.pen.Row++
			lastX = -1
			continue
		case r < ' ' || r == 0x7f || (r >= 0x80 && r < 0xa0):
			r = '?'
		}
		w := runewidth.RuneWidth(r)
		if w == 0 {
			// combining mark joins the previous cell
			if lastX >= 0 {
				comb = append(comb, r)
				d.screen.SetContent(lastX, d.pen.Row, last, comb, d.style)
			}
			continue
		}
		d.screen.SetContent(d.pen.Col, d.pen.Row, r, nil, d.style)
		lastX, last, comb = d.pen.Col, r, nil
		d.pen.Col += w
	}
}

// PollEvent blocks until the next input or resize event. It returns nil once
// the screen has been finalized.
func (d *Driver) PollEvent() tcell.Event {
	if !d.Active() {
		return nil
	}
	return d.screen.PollEvent()
}

// Interrupt posts a synthetic event carrying data into the input queue.
// Safe to call from any goroutine.
func (d *Driver) Interrupt(data any) error {
	if !d.Active() {
		return ErrNotInitialized
	}
	return d.screen.PostEvent(tcell.NewEventInterrupt(data))
}
