package navigation

import (
	"os"
	"strings"

	"github.com/gdamore/tcell/v2"

	"github.com/kobzarvs/qview/internal/config"
	"github.com/kobzarvs/qview/internal/terminal"
)

const (
	actionQuit      = "quit"
	actionMoveUp    = "move_up"
	actionMoveDown  = "move_down"
	actionMoveLeft  = "move_left"
	actionMoveRight = "move_right"
	actionPageUp    = "page_up"
	actionPageDown  = "page_down"
	actionLineStart = "line_start"
	actionLineEnd   = "line_end"
)

type Direction int

const (
	DirUp Direction = iota
	DirDown
	DirLeft
	DirRight
	DirPageUp
	DirPageDown
	DirHome
	DirEnd
)

var directionNames = [...]string{
	DirUp:       "up",
	DirDown:     "down",
	DirLeft:     "left",
	DirRight:    "right",
	DirPageUp:   "page-up",
	DirPageDown: "page-down",
	DirHome:     "home",
	DirEnd:      "end",
}

func (d Direction) String() string {
	if d < 0 || int(d) >= len(directionNames) {
		return "unknown"
	}
	return directionNames[d]
}

var moveActions = map[string]Direction{
	actionMoveUp:    DirUp,
	actionMoveDown:  DirDown,
	actionMoveLeft:  DirLeft,
	actionMoveRight: DirRight,
	actionPageUp:    DirPageUp,
	actionPageDown:  DirPageDown,
	actionLineStart: DirHome,
	actionLineEnd:   DirEnd,
}

// Input is one decoded input event. The set of implementations is closed:
// QuitInput, MoveInput, ResizeInput and IgnoredInput.
type Input interface {
	isInput()
}

type QuitInput struct {
	Reason string
}

type MoveInput struct {
	Dir Direction
}

type ResizeInput struct {
	Size terminal.Size
}

type IgnoredInput struct{}

func (QuitInput) isInput()    {}
func (MoveInput) isInput()    {}
func (ResizeInput) isInput()  {}
func (IgnoredInput) isInput() {}

// Translate decodes a terminal event through keymap.
func Translate(ev tcell.Event, keymap config.Keymap) Input {
	switch ev := ev.(type) {
	case *tcell.EventKey:
		key := keyString(ev)
		if key == "" {
			return IgnoredInput{}
		}
		action := keymap[key]
		if action == actionQuit {
			return QuitInput{Reason: key}
		}
		if dir, ok := moveActions[action]; ok {
			return MoveInput{Dir: dir}
		}
		return IgnoredInput{}
	case *tcell.EventResize:
		w, h := ev.Size()
		return ResizeInput{Size: terminal.Size{Height: max(h, 0), Width: max(w, 0)}}
	case *tcell.EventInterrupt:
		if sig, ok := ev.Data().(os.Signal); ok {
			return QuitInput{Reason: sig.String()}
		}
		return IgnoredInput{}
	default:
		return IgnoredInput{}
	}
}

// keyString names a key event the way keymaps spell it: "up", "pgdn",
// "ctrl+q", "k".
func keyString(ev *tcell.EventKey) string {
	mods := ev.Modifiers()
	if mods&tcell.ModCtrl != 0 {
		switch ev.Key() {
		case tcell.KeyHome:
			return "ctrl+home"
		case tcell.KeyEnd:
			return "ctrl+end"
		case tcell.KeyRune:
			return "ctrl+" + strings.ToLower(string(ev.Rune()))
		}
		// raw control bytes carry the letter as their rune
		if r := ev.Rune(); r >= 'a' && r <= 'z' {
			return "ctrl+" + string(r)
		}
	}
	if mods&tcell.ModAlt != 0 {
		switch ev.Key() {
		case tcell.KeyUp:
			return "alt+up"
		case tcell.KeyDown:
			return "alt+down"
		case tcell.KeyLeft:
			return "alt+left"
		case tcell.KeyRight:
			return "alt+right"
		case tcell.KeyRune:
			return "alt+" + string(ev.Rune())
		}
	}
	if ev.Key() == tcell.KeyRune {
		r := ev.Rune()
		if r == ' ' {
			return "space"
		}
		return string(r)
	}
	// KeyTab and KeyEnter may alias KeyCtrlI and KeyCtrlM
	switch ev.Key() {
	case tcell.KeyTab:
		return "tab"
	case tcell.KeyBacktab:
		return "shift+tab"
	case tcell.KeyEnter:
		return "enter"
	case tcell.KeyBackspace, tcell.KeyBackspace2:
		return "backspace"
	case tcell.KeyEscape:
		return "esc"
	}
	if name := ctrlKeyName(ev.Key()); name != "" {
		return name
	}
	switch ev.Key() {
	case tcell.KeyUp:
		return "up"
	case tcell.KeyDown:
		return "down"
	case tcell.KeyLeft:
		return "left"
	case tcell.KeyRight:
		return "right"
	case tcell.KeyPgUp:
		return "pgup"
	case tcell.KeyPgDn:
		return "pgdn"
	case tcell.KeyHome:
		return "home"
	case tcell.KeyEnd:
		return "end"
	case tcell.KeyDelete:
		return "del"
	}
	return ""
}

func ctrlKeyName(key tcell.Key) string {
	if key >= tcell.KeyCtrlA && key <= tcell.KeyCtrlZ {
		return "ctrl+" + string(rune('a'+int(key-tcell.KeyCtrlA)))
	}
	return ""
}
