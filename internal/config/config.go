package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	toml "github.com/pelletier/go-toml/v2"

	"msafara/internal/search"
)

const (
	DefaultConfigFileName = "config.toml"
	DefaultDBName         = "msafara.db"
	EnvConfigPath         = "MSAFARA_CONFIG"
)

type Keymap struct {
	Quit        string `toml:"quit"`
	Up          string `toml:"up"`
	Down        string `toml:"down"`
	Left        string `toml:"left"`
	Right       string `toml:"right"`
	Top         string `toml:"top"`
	Bottom      string `toml:"bottom"`
	Select      string `toml:"select"`
	Invert      string `toml:"invert"`
	SelectAll   string `toml:"select_all"`
	Confirm     string `toml:"confirm"`
	Cancel      string `toml:"cancel"`
	LabelSearch string `toml:"label_search"`
	SeqSearch   string `toml:"seq_search"`
	ToolSearch  string `toml:"tool_search"`
	Command     string `toml:"command"`
	NextMatch   string `toml:"next_match"`
	PrevMatch   string `toml:"prev_match"`
	NextOrder   string `toml:"next_order"`
	PrevOrder   string `toml:"prev_order"`
	NextMetric  string `toml:"next_metric"`
	Reject      string `toml:"reject"`
	Remove      string `toml:"remove"`
	Yank        string `toml:"yank"`
	Realign     string `toml:"realign"`
	TreeOrder   string `toml:"tree_order"`
	NextView    string `toml:"next_view"`
}

type Tools struct {
	EmbossBinDir string `toml:"emboss_bin_dir"`
	MafftBinDir  string `toml:"mafft_bin_dir"`
}

type Search struct {
	Palette       []string `toml:"palette"`
	CurrentSearch string   `toml:"current_search"`
}

type Config struct {
	DBPath   string `toml:"db_path"`
	LogFile  string `toml:"log_file"`
	LogLevel string `toml:"log_level"`
	Tools    Tools  `toml:"tools"`
	Search   Search `toml:"search"`
	Keys     Keymap `toml:"keys"`
}

// ResolveConfigPath returns the first of $MSAFARA_CONFIG,
// $XDG_CONFIG_HOME/msafara/config.toml and ~/.config/msafara/config.toml
// that can be determined, falling back to ./config.toml.
func ResolveConfigPath() string {
	if p := strings.TrimSpace(os.Getenv(EnvConfigPath)); p != "" {
		return p
	}
	if xdg := strings.TrimSpace(os.Getenv("XDG_CONFIG_HOME")); xdg != "" {
		return filepath.Join(xdg, "msafara", DefaultConfigFileName)
	}
	if home, err := os.UserHomeDir(); err == nil && home != "" {
		return filepath.Join(home, ".config", "msafara", DefaultConfigFileName)
	}
	return DefaultConfigFileName
}

func LoadOrCreate(path string) (Config, error) {
	cfg := defaultConfig(filepath.Dir(path))
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		if err := write(path, cfg); err != nil {
			return cfg, err
		}
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse %s: %w", path, err)
	}
	if cfg.DBPath == "" {
		cfg.DBPath = filepath.Join(filepath.Dir(path), DefaultDBName)
	}
	if _, err := cfg.Palette(); err != nil {
		return cfg, err
	}
	if _, err := cfg.CurrentSearchColor(); err != nil {
		return cfg, err
	}
	if _, err := cfg.Level(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func write(path string, cfg Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := toml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// Palette parses the saved-search colours. An empty palette means the
// built-in one.
func (c Config) Palette() ([]search.Color, error) {
	if len(c.Search.Palette) == 0 {
		return search.DefaultPalette, nil
	}
	out := make([]search.Color, 0, len(c.Search.Palette))
	for _, hex := range c.Search.Palette {
		col, err := search.ParseHexColor(hex)
		if err != nil {
			return nil, fmt.Errorf("search.palette: %w", err)
		}
		out = append(out, col)
	}
	return out, nil
}

func (c Config) CurrentSearchColor() (search.Color, error) {
	if strings.TrimSpace(c.Search.CurrentSearch) == "" {
		return search.DefaultCurrentColor, nil
	}
	col, err := search.ParseHexColor(c.Search.CurrentSearch)
	if err != nil {
		return col, fmt.Errorf("search.current_search: %w", err)
	}
	return col, nil
}

func (c Config) Level() (log.Level, error) {
	if strings.TrimSpace(c.LogLevel) == "" {
		return log.InfoLevel, nil
	}
	lvl, err := log.ParseLevel(c.LogLevel)
	if err != nil {
		return lvl, fmt.Errorf("log_level: %w", err)
	}
	return lvl, nil
}

func defaultConfig(dir string) Config {
	palette := make([]string, len(search.DefaultPalette))
	for i, c := range search.DefaultPalette {
		palette[i] = c.Hex()
	}
	return Config{
		DBPath:   filepath.Join(dir, DefaultDBName),
		LogLevel: "info",
		Search: Search{
			Palette:       palette,
			CurrentSearch: search.DefaultCurrentColor.Hex(),
		},
		Keys: Keymap{
			Quit:        "q",
			Up:          "k",
			Down:        "j",
			Left:        "h",
			Right:       "l",
			Top:         "g",
			Bottom:      "G",
			Select:      " ",
			Invert:      "i",
			SelectAll:   "a",
			Confirm:     "enter",
			Cancel:      "esc",
			LabelSearch: "\"",
			SeqSearch:   "/",
			ToolSearch:  "\\",
			Command:     ":",
			NextMatch:   "n",
			PrevMatch:   "N",
			NextOrder:   "o",
			PrevOrder:   "O",
			NextMetric:  "m",
			Reject:      "x",
			Remove:      "d",
			Yank:        "y",
			Realign:     "R",
			TreeOrder:   "t",
			NextView:    "v",
		},
	}
}
