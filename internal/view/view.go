// Package view turns the loaded buffer into the rows shown on screen: the
// buffer's lines clipped to the grid, or a welcome block when nothing is
// loaded.
package view

import (
	"fmt"
	"strings"

	"github.com/mattn/go-runewidth"

	"github.com/kobzarvs/qview"
	"github.com/kobzarvs/qview/internal/buffer"
	"github.com/kobzarvs/qview/internal/logger"
	"github.com/kobzarvs/qview/internal/terminal"
)

// RowPrinter queues one output row. *terminal.Driver implements it.
type RowPrinter interface {
	PrintRow(row int, text string) error
	UseStyle(role terminal.Role) error
}

// Welcome is the text of the first-run screen.
type Welcome struct {
	Banner       string
	Credit       string
	CallToAction string
}

func DefaultWelcome() Welcome {
	return Welcome{
		Banner:       fmt.Sprintf("Welcome to %s %s", qview.Name, qview.VersionTag()),
		Credit:       "Written by " + qview.Author,
		CallToAction: "Open a file to start reading",
	}
}

// welcomeHeight is the number of rows the welcome block occupies.
const welcomeHeight = 4

// RenderError is a row that could not be queued.
type RenderError struct {
	Row int
	Err error
}

func (e *RenderError) Error() string {
	return fmt.Sprintf("render row %d: %v", e.Row, e.Err)
}

func (e *RenderError) Unwrap() error {
	return e.Err
}

type View struct {
	out         RowPrinter
	buf         *buffer.Buffer
	size        terminal.Size
	needsRedraw bool

	tabWidth int
	filler   string
	strict   bool
	welcome  Welcome
}

type Option func(*View)

func WithTabWidth(n int) Option {
	return func(v *View) {
		if n > 0 {
			v.tabWidth = n
		}
	}
}

// WithFiller sets the marker drawn on rows with no content.
func WithFiller(s string) Option {
	return func(v *View) {
		if s != "" {
			v.filler = s
		}
	}
}

// WithStrict makes Render return row failures instead of logging them.
func WithStrict(strict bool) Option {
	return func(v *View) {
		v.strict = strict
	}
}

func WithWelcome(w Welcome) Option {
	return func(v *View) {
		v.welcome = w
	}
}

// New returns a view over an empty buffer that needs a redraw.
func New(out RowPrinter, size terminal.Size, opts ...Option) *View {
	v := &View{
		out:         out,
		buf:         buffer.New(),
		size:        size,
		needsRedraw: true,
		tabWidth:    4,
		filler:      "~",
		welcome:     DefaultWelcome(),
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

func (v *View) NeedsRedraw() bool {
	return v.needsRedraw
}

func (v *View) Size() terminal.Size {
	return v.size
}

func (v *View) Buffer() *buffer.Buffer {
	return v.buf
}

// Resize records a size reported by a resize event. It does not query the
// terminal.
func (v *View) Resize(size terminal.Size) {
	v.size = size
	v.needsRedraw = true
}

// Load replaces the buffer with the contents of name. On failure the
// current buffer and redraw state are kept and the error is returned.
func (v *View) Load(name string) error {
	buf, err := buffer.Load(name)
	if err != nil {
		return err
	}
	v.buf = buf
	v.needsRedraw = true
	logger.Debug("buffer loaded", "path", name, "lines", buf.Len())
	return nil
}

// Render queues every row of the grid. It does nothing when the view is
// clean or the grid is empty. The redraw flag is cleared only after all
// rows were queued.
func (v *View) Render() error {
	if !v.needsRedraw || v.size.Empty() {
		return nil
	}
	height, width := v.size.Height, v.size.Width

	var welcome []string
	top := height / 3
	if v.buf.IsEmpty() {
		welcome = v.welcomeLines(width)
	}

	role := terminal.RoleText
	for row := 0; row < height; row++ {
		text, want := v.row(row, top, welcome, width)
		if want != role {
			if err := v.check(row, v.out.UseStyle(want)); err != nil {
				return err
			}
			role = want
		}
		if err := v.check(row, v.out.PrintRow(row, text)); err != nil {
			return err
		}
	}
	if role != terminal.RoleText {
		if err := v.check(height-1, v.out.UseStyle(terminal.RoleText)); err != nil {
			return err
		}
	}

	v.needsRedraw = false
	return nil
}

// row returns the text for one grid row and the style it is drawn in.
func (v *View) row(row, top int, welcome []string, width int) (string, terminal.Role) {
	if welcome != nil {
		if i := row - top; i >= 0 && i < len(welcome) {
			if welcome[i] == v.fillerRow(width) {
				return welcome[i], terminal.RoleFiller
			}
			return welcome[i], terminal.RoleText
		}
		return v.fillerRow(width), terminal.RoleFiller
	}
	if line, ok := v.buf.Line(row); ok {
		return runewidth.Truncate(expandTabs(visible(line), v.tabWidth), width, ""), terminal.RoleText
	}
	return v.fillerRow(width), terminal.RoleFiller
}

// check downgrades a row failure to a debug log unless the view is strict.
func (v *View) check(row int, err error) error {
	if err == nil {
		return nil
	}
	rerr := &RenderError{Row: row, Err: err}
	if v.strict {
		logger.Error("render failed", "row", row, "err", err)
		return rerr
	}
	logger.Debug("render failed", "row", row, "err", err)
	return nil
}

func (v *View) fillerRow(width int) string {
	return runewidth.Truncate(v.filler, width, "")
}

func (v *View) welcomeLines(width int) []string {
	lines := make([]string, 0, welcomeHeight)
	lines = append(lines,
		v.centered(v.welcome.Banner, width),
		v.centered(v.welcome.Credit, width),
		v.fillerRow(width),
		v.centered(v.welcome.CallToAction, width),
	)
	return lines
}

// centered puts msg in the middle of the columns right of the filler. A
// message that does not fit degrades to a plain filler row.
func (v *View) centered(msg string, width int) string {
	cols := width - runewidth.StringWidth(v.filler)
	msgWidth := runewidth.StringWidth(msg)
	if cols < msgWidth {
		return v.fillerRow(width)
	}
	pad := cols - msgWidth
	left := pad / 2
	return v.filler + strings.Repeat(" ", left) + msg + strings.Repeat(" ", pad-left)
}

// visible replaces control runes other than tab with '?', so the width measured
// here is the width the driver draws.
func visible(line string) string {
	return strings.Map(func(r rune) rune {
		if r == '\t' {
			return r
		}
		if r < ' ' || r == 0x7f || (r >= 0x80 && r < 0xa0) {
			return '?'
		}
		return r
	}, line)
}

func expandTabs(line string, tabWidth int) string {
	if !strings.ContainsRune(line, '\t') {
		return line
	}
	var b strings.Builder
	col := 0
	for _, r := range line {
		if r == '\t' {
			n := tabWidth - col%tabWidth
			b.WriteString(strings.Repeat(" ", n))
			col += n
			continue
		}
		b.WriteRune(r)
		col += runewidth.RuneWidth(r)
	}
	return b.String()
}
