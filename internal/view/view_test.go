package view

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gdamore/tcell/v2"
	"github.com/mattn/go-runewidth"

	"github.com/kobzarvs/qview/internal/buffer"
	"github.com/kobzarvs/qview/internal/terminal"
)

type recorder struct {
	rows    map[int]string
	roles   map[int]terminal.Role
	role    terminal.Role
	order   []int
	failRow int
}

func newRecorder() *recorder {
	return &recorder{
		rows:    map[int]string{},
		roles:   map[int]terminal.Role{},
		failRow: -1,
	}
}

var errPrint = errors.New("write failed")

func (r *recorder) PrintRow(row int, text string) error {
	if row == r.failRow {
		return errPrint
	}
	r.rows[row] = text
	r.roles[row] = r.role
	r.order = append(r.order, row)
	return nil
}

func (r *recorder) UseStyle(role terminal.Role) error {
	r.role = role
	return nil
}

func writeFile(t *testing.T, lines ...string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "doc.txt")
	if err := os.WriteFile(path, []byte(strings.Join(lines, "\n")), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	return path
}

func TestWelcomeLayout(t *testing.T) {
	rec := newRecorder()
	v := New(rec, terminal.Size{Height: 10, Width: 40})
	if err := v.Render(); err != nil {
		t.Fatalf("Render: %v", err)
	}
	if len(rec.order) != 10 {
		t.Fatalf("rows printed = %v, want exactly 0..9", rec.order)
	}

	w := DefaultWelcome()
	want := map[int]string{3: w.Banner, 4: w.Credit, 6: w.CallToAction}
	for row := 0; row < 10; row++ {
		got := rec.rows[row]
		msg, ok := want[row]
		if !ok {
			if got != "~" {
				t.Fatalf("row %d = %q, want filler", row, got)
			}
			if rec.roles[row] != terminal.RoleFiller {
				t.Fatalf("row %d role = %v, want filler", row, rec.roles[row])
			}
			continue
		}
		if runewidth.StringWidth(got) != 40 {
			t.Fatalf("row %d width = %d, want 40", row, runewidth.StringWidth(got))
		}
		if !strings.HasPrefix(got, "~") {
			t.Fatalf("row %d = %q, want ~ prefix", row, got)
		}
		body := got[1:]
		left := len(body) - len(strings.TrimLeft(body, " "))
		right := len(body) - len(strings.TrimRight(body, " "))
		if strings.TrimSpace(body) != msg {
			t.Fatalf("row %d text = %q, want %q", row, strings.TrimSpace(body), msg)
		}
		if right-left < 0 || right-left > 1 {
			t.Fatalf("row %d not centered: left=%d right=%d", row, left, right)
		}
		if rec.roles[row] != terminal.RoleText {
			t.Fatalf("row %d role = %v, want text", row, rec.roles[row])
		}
	}
	if v.NeedsRedraw() {
		t.Fatalf("NeedsRedraw = true after Render")
	}
}

func TestWelcomeDegradesWhenTooNarrow(t *testing.T) {
	rec := newRecorder()
	v := New(rec, terminal.Size{Height: 6, Width: 10})
	if err := v.Render(); err != nil {
		t.Fatalf("Render: %v", err)
	}
	for row := 0; row < 6; row++ {
		if got := rec.rows[row]; got != "~" {
			t.Fatalf("row %d = %q, want filler", row, got)
		}
	}
}

func TestWelcomeFitBoundary(t *testing.T) {
	w := Welcome{Banner: "123456789", Credit: "x", CallToAction: "y"}

	rec := newRecorder()
	v := New(rec, terminal.Size{Height: 3, Width: 10}, WithWelcome(w))
	_ = v.Render()
	if got := rec.rows[1]; got != "~123456789" {
		t.Fatalf("banner at width 10 = %q, want %q", got, "~123456789")
	}

	rec = newRecorder()
	v = New(rec, terminal.Size{Height: 3, Width: 9}, WithWelcome(w))
	_ = v.Render()
	if got := rec.rows[1]; got != "~" {
		t.Fatalf("banner at width 9 = %q, want filler", got)
	}
}

func TestWelcomeBlockClippedAtBottom(t *testing.T) {
	rec := newRecorder()
	v := New(rec, terminal.Size{Height: 2, Width: 80})
	if err := v.Render(); err != nil {
		t.Fatalf("Render: %v", err)
	}
	if len(rec.order) != 2 {
		t.Fatalf("rows printed = %v, want 2", rec.order)
	}
	if !strings.Contains(rec.rows[0], DefaultWelcome().Banner) {
		t.Fatalf("row 0 = %q, want banner", rec.rows[0])
	}
	if !strings.Contains(rec.rows[1], DefaultWelcome().Credit) {
		t.Fatalf("row 1 = %q, want credit", rec.rows[1])
	}
}

func TestContentRendering(t *testing.T) {
	rec := newRecorder()
	v := New(rec, terminal.Size{Height: 5, Width: 20})
	if err := v.Load(writeFile(t, "alpha", "beta", "gamma")); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if err := v.Render(); err != nil {
		t.Fatalf("Render: %v", err)
	}
	want := []string{"alpha", "beta", "gamma", "~", "~"}
	for row, w := range want {
		if got := rec.rows[row]; got != w {
			t.Fatalf("row %d = %q, want %q", row, got, w)
		}
	}
	if rec.roles[2] != terminal.RoleText || rec.roles[3] != terminal.RoleFiller {
		t.Fatalf("roles = %v, want text then filler", rec.roles)
	}
	if rec.role != terminal.RoleText {
		t.Fatalf("style left at %v, want text", rec.role)
	}
}

func TestContentFollowsLoadedLineCount(t *testing.T) {
	for _, n := range []int{1, 4, 7, 12} {
		t.Run(fmt.Sprint(n), func(t *testing.T) {
			lines := make([]string, n)
			for i := range lines {
				lines[i] = fmt.Sprintf("line %d", i)
			}
			rec := newRecorder()
			v := New(rec, terminal.Size{Height: 7, Width: 30})
			if err := v.Load(writeFile(t, lines...)); err != nil {
				t.Fatalf("Load: %v", err)
			}
			_ = v.Render()
			for row := 0; row < 7; row++ {
				want := "~"
				if row < n {
					want = lines[row]
				}
				if got := rec.rows[row]; got != want {
					t.Fatalf("row %d = %q, want %q", row, got, want)
				}
			}
		})
	}
}

func TestSingleEmptyLineLeavesWelcome(t *testing.T) {
	path := filepath.Join(t.TempDir(), "blank.txt")
	if err := os.WriteFile(path, []byte("\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	rec := newRecorder()
	v := New(rec, terminal.Size{Height: 9, Width: 40})
	if err := v.Load(path); err != nil {
		t.Fatalf("Load: %v", err)
	}
	_ = v.Render()
	if got := rec.rows[0]; got != "" {
		t.Fatalf("row 0 = %q, want empty line", got)
	}
	for row := 1; row < 9; row++ {
		if got := rec.rows[row]; got != "~" {
			t.Fatalf("row %d = %q, want filler", row, got)
		}
	}
}

func TestResizeTruncatesContent(t *testing.T) {
	lines := make([]string, 30)
	for i := range lines {
		lines[i] = fmt.Sprintf("%02d:%s", i, strings.Repeat("x", 60))
	}
	rec := newRecorder()
	v := New(rec, terminal.Size{Height: 24, Width: 80})
	if err := v.Load(writeFile(t, lines...)); err != nil {
		t.Fatalf("Load: %v", err)
	}
	_ = v.Render()

	v.Resize(terminal.Size{Height: 10, Width: 20})
	if !v.NeedsRedraw() {
		t.Fatalf("NeedsRedraw = false after Resize")
	}
	rec = newRecorder()
	v.out = rec
	if err := v.Render(); err != nil {
		t.Fatalf("Render: %v", err)
	}
	if len(rec.order) != 10 {
		t.Fatalf("rows printed = %v, want 10", rec.order)
	}
	for row := 0; row < 10; row++ {
		if got, want := rec.rows[row], lines[row][:20]; got != want {
			t.Fatalf("row %d = %q, want %q", row, got, want)
		}
	}
}

func TestRenderSkipsWhenClean(t *testing.T) {
	rec := newRecorder()
	v := New(rec, terminal.Size{Height: 4, Width: 20})
	_ = v.Render()
	rec.order = nil
	_ = v.Render()
	if len(rec.order) != 0 {
		t.Fatalf("clean Render printed rows %v", rec.order)
	}
}

func TestRenderSkipsEmptyGrid(t *testing.T) {
	for _, size := range []terminal.Size{{Height: 0, Width: 40}, {Height: 10, Width: 0}} {
		rec := newRecorder()
		v := New(rec, size)
		if err := v.Render(); err != nil {
			t.Fatalf("Render(%+v): %v", size, err)
		}
		if len(rec.order) != 0 {
			t.Fatalf("Render(%+v) printed %v", size, rec.order)
		}
		if !v.NeedsRedraw() {
			t.Fatalf("Render(%+v) cleared redraw flag", size)
		}
	}
}

func TestFailedLoadKeepsState(t *testing.T) {
	rec := newRecorder()
	v := New(rec, terminal.Size{Height: 4, Width: 20})
	if err := v.Load(writeFile(t, "keep")); err != nil {
		t.Fatalf("Load: %v", err)
	}
	_ = v.Render()
	before := v.Buffer()

	err := v.Load(filepath.Join(t.TempDir(), "missing"))
	var loadErr *buffer.LoadError
	if !errors.As(err, &loadErr) || loadErr.Kind != buffer.LoadNotFound {
		t.Fatalf("Load err = %v, want not-found LoadError", err)
	}
	if v.Buffer() != before {
		t.Fatalf("buffer replaced after failed load")
	}
	if v.NeedsRedraw() {
		t.Fatalf("failed load set redraw flag")
	}
}

func TestRenderErrorDowngradedByDefault(t *testing.T) {
	rec := newRecorder()
	rec.failRow = 1
	v := New(rec, terminal.Size{Height: 3, Width: 20})
	if err := v.Render(); err != nil {
		t.Fatalf("Render err = %v, want nil", err)
	}
	if v.NeedsRedraw() {
		t.Fatalf("NeedsRedraw = true, want cleared")
	}
	if _, ok := rec.rows[2]; !ok {
		t.Fatalf("rows after failure were not printed")
	}
}

func TestRenderErrorStrict(t *testing.T) {
	rec := newRecorder()
	rec.failRow = 1
	v := New(rec, terminal.Size{Height: 3, Width: 20}, WithStrict(true))
	err := v.Render()
	var rerr *RenderError
	if !errors.As(err, &rerr) {
		t.Fatalf("Render err = %v, want *RenderError", err)
	}
	if rerr.Row != 1 || !errors.Is(err, errPrint) {
		t.Fatalf("RenderError = %+v", rerr)
	}
	if !v.NeedsRedraw() {
		t.Fatalf("NeedsRedraw cleared after failed render")
	}
}

func TestTabsAndWideRunes(t *testing.T) {
	rec := newRecorder()
	v := New(rec, terminal.Size{Height: 2, Width: 5}, WithTabWidth(4))
	if err := v.Load(writeFile(t, "a\tbcd", "日本語")); err != nil {
		t.Fatalf("Load: %v", err)
	}
	_ = v.Render()
	if got := rec.rows[0]; got != "a   b" {
		t.Fatalf("row 0 = %q, want %q", got, "a   b")
	}
	if got := rec.rows[1]; got != "日本" {
		t.Fatalf("row 1 = %q, want %q", got, "日本")
	}
	if line, _ := v.Buffer().Line(0); line != "a\tbcd" {
		t.Fatalf("buffer line modified: %q", line)
	}
}

func TestCustomFiller(t *testing.T) {
	rec := newRecorder()
	v := New(rec, terminal.Size{Height: 3, Width: 10}, WithFiller("."), WithWelcome(Welcome{}))
	_ = v.Render()
	if got := rec.rows[0]; got != "." {
		t.Fatalf("row 0 = %q, want %q", got, ".")
	}
}

func TestRenderThroughDriver(t *testing.T) {
	s := tcell.NewSimulationScreen("UTF-8")
	d := terminal.New(s)
	if err := d.Initialize(); err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	defer d.Terminate()
	s.SetSize(12, 4)

	v := New(d, d.Size())
	if err := v.Load(writeFile(t, "first line is long", "second")); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if err := v.Render(); err != nil {
		t.Fatalf("Render: %v", err)
	}
	if err := d.Execute(); err != nil {
		t.Fatalf("Execute: %v", err)
	}

	cells, w, h := s.GetContents()
	rows := make([]string, h)
	for y := 0; y < h; y++ {
		var b strings.Builder
		for x := 0; x < w; x++ {
			c := cells[y*w+x]
			if len(c.Runes) == 0 {
				b.WriteRune(' ')
				continue
			}
			b.WriteRune(c.Runes[0])
		}
		rows[y] = strings.TrimRight(b.String(), " ")
	}
	want := []string{"first line i", "second", "~", "~"}
	for y, line := range want {
		if rows[y] != line {
			t.Fatalf("screen row %d = %q, want %q", y, rows[y], line)
		}
	}
}

func TestControlRunesShownAsPlaceholders(t *testing.T) {
	rec := newRecorder()
	v := New(rec, terminal.Size{Height: 3, Width: 6})
	if err := v.Load(writeFile(t, "abc\rX", "a\x01\x02\x03bcdef", "\x1b[31mred")); err != nil {
		t.Fatalf("Load: %v", err)
	}
	_ = v.Render()
	want := []string{"abc?X", "a???bc", "?[31mr"}
	for row, line := range want {
		if got := rec.rows[row]; got != line {
			t.Fatalf("row %d = %q, want %q", row, got, line)
		}
		if w := runewidth.StringWidth(rec.rows[row]); w > 6 {
			t.Fatalf("row %d width = %d, want at most 6", row, w)
		}
	}
}

func TestCarriageReturnDoesNotRewindRow(t *testing.T) {
	s := tcell.NewSimulationScreen("UTF-8")
	d := terminal.New(s)
	if err := d.Initialize(); err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	defer d.Terminate()
	s.SetSize(10, 2)

	v := New(d, d.Size())
	if err := v.Load(writeFile(t, "abc\rX")); err != nil {
		t.Fatalf("Load: %v", err)
	}
	_ = v.Render()
	_ = d.Execute()

	cells, w, _ := s.GetContents()
	var b strings.Builder
	for x := 0; x < w; x++ {
		if r := cells[x].Runes; len(r) > 0 {
			b.WriteRune(r[0])
		}
	}
	if got := strings.TrimRight(b.String(), " "); got != "abc?X" {
		t.Fatalf("screen row 0 = %q, want %q", got, "abc?X")
	}
}
