package terminal

import (
	"strconv"
	"strings"

	"github.com/gdamore/tcell/v2"

	"github.com/kobzarvs/qview/internal/config"
)

// Role selects the style subsequent Print calls use.
type Role int

const (
	RoleText Role = iota
	RoleFiller
)

type styles struct {
	text   tcell.Style
	filler tcell.Style
}

func newStyles(theme config.Theme) styles {
	fg := parseColor(theme.Foreground, tcell.ColorDefault)
	bg := parseColor(theme.Background, tcell.ColorDefault)
	fillerFg := parseColor(theme.FillerForeground, fg)
	return styles{
		text:   tcell.StyleDefault.Foreground(fg).Background(bg),
		filler: tcell.StyleDefault.Foreground(fillerFg).Background(bg),
	}
}

func (s styles) forRole(r Role) tcell.Style {
	if r == RoleFiller {
		return s.filler
	}
	return s.text
}

func parseColor(name string, fallback tcell.Color) tcell.Color {
	name = strings.TrimSpace(name)
	if name == "" {
		return fallback
	}
	if strings.HasPrefix(name, "#") && len(name) == 7 {
		r, err1 := strconv.ParseInt(name[1:3], 16, 32)
		g, err2 := strconv.ParseInt(name[3:5], 16, 32)
		b, err3 := strconv.ParseInt(name[5:7], 16, 32)
		if err1 == nil && err2 == nil && err3 == nil {
			return tcell.NewRGBColor(int32(r), int32(g), int32(b))
		}
		return fallback
	}
	name = strings.ToLower(name)
	if name == "default" {
		return tcell.ColorDefault
	}
	c := tcell.GetColor(name)
	if c == tcell.ColorDefault {
		return fallback
	}
	return c
}
