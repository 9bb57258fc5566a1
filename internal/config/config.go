package config

import (
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

type ViewOptions struct {
	TabWidth int    `toml:"tab-width"`
	Filler   string `toml:"filler"`
}

type LogOptions struct {
	Debug bool   `toml:"debug"`
	File  string `toml:"file"`
}

type Theme struct {
	Theme            string `toml:"theme"`
	Foreground       string `toml:"foreground"`
	Background       string `toml:"background"`
	FillerForeground string `toml:"filler-foreground"`
}

// Keymap maps key strings ("ctrl+q", "pgdn", "k") to action names.
type Keymap map[string]string

type Config struct {
	View   ViewOptions `toml:"view"`
	Log    LogOptions  `toml:"log"`
	Theme  Theme       `toml:"theme"`
	Keymap Keymap      `toml:"keymap"`
}

func Default() Config {
	return Config{
		View: ViewOptions{
			TabWidth: 4,
			Filler:   "~",
		},
		Theme: Theme{
			Foreground:       "#B3B1AD",
			Background:       "#0A0E14",
			FillerForeground: "#3E4B59",
		},
		Keymap: Keymap{
			"ctrl+q": "quit",

			"up":    "move_up",
			"down":  "move_down",
			"left":  "move_left",
			"right": "move_right",
			"pgup":  "page_up",
			"pgdn":  "page_down",
			"home":  "line_start",
			"end":   "line_end",

			// vi-style
			"k": "move_up",
			"j": "move_down",
			"h": "move_left",
			"l": "move_right",
			"0": "line_start",
			"$": "line_end",
		},
	}
}

// Load reads config.toml on top of Default. A missing file is not an error.
func Load() (Config, error) {
	cfg := Default()
	path, err := ConfigPath()
	if err != nil {
		return cfg, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, err
	}

	var userCfg Config
	if _, err := toml.Decode(string(data), &userCfg); err != nil {
		return cfg, err
	}

	if userCfg.View.TabWidth > 0 {
		cfg.View.TabWidth = userCfg.View.TabWidth
	}
	if userCfg.View.Filler != "" {
		cfg.View.Filler = userCfg.View.Filler
	}
	if userCfg.Log.Debug {
		cfg.Log.Debug = true
	}
	if userCfg.Log.File != "" {
		cfg.Log.File = userCfg.Log.File
	}
	if userCfg.Theme.Theme != "" {
		cfg.Theme.Theme = userCfg.Theme.Theme
	}
	if cfg.Theme.Theme != "" {
		theme, err := LoadTheme(cfg.Theme.Theme)
		if err != nil {
			return cfg, err
		}
		mergeTheme(&cfg.Theme, theme)
	}
	mergeTheme(&cfg.Theme, userCfg.Theme)
	for k, v := range userCfg.Keymap {
		if v == "" {
			delete(cfg.Keymap, k)
			continue
		}
		cfg.Keymap[k] = v
	}

	return cfg, nil
}

func mergeTheme(dst *Theme, src Theme) {
	if src.Foreground != "" {
		dst.Foreground = src.Foreground
	}
	if src.Background != "" {
		dst.Background = src.Background
	}
	if src.FillerForeground != "" {
		dst.FillerForeground = src.FillerForeground
	}
}

func ThemePath(name string) (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "theme", name+".toml"), nil
}

// LoadTheme reads theme/<name>.toml, either flat or wrapped in a [theme] table.
func LoadTheme(name string) (Theme, error) {
	path, err := ThemePath(name)
	if err != nil {
		return Theme{}, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Theme{}, err
	}
	var wrap struct {
		Theme *Theme `toml:"theme"`
	}
	if _, err := toml.Decode(string(data), &wrap); err == nil && wrap.Theme != nil {
		return *wrap.Theme, nil
	}
	var t Theme
	if _, err := toml.Decode(string(data), &t); err != nil {
		return Theme{}, err
	}
	return t, nil
}

func ConfigDir() (string, error) {
	if v := os.Getenv("QVIEW_CONFIG_HOME"); v != "" {
		return filepath.Clean(v), nil
	}
	if v := os.Getenv("XDG_CONFIG_HOME"); v != "" {
		return filepath.Join(v, "qview"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "qview"), nil
}

func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}
