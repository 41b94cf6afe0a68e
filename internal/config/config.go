// Package config loads rtable settings from the embedded defaults and an
// optional user file.
package config

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"github.com/oakwood-commons/rtable/internal/field"
)

//go:embed default_config.yaml
var embeddedDefaultConfig []byte

// AppDir is the directory name under the user config home.
const AppDir = "rtable"

// Config is the merged configuration.
type Config struct {
	Table   TableConfig   `yaml:"table" json:"table" toml:"table"`
	Display DisplayConfig `yaml:"display" json:"display" toml:"display"`
	UI      UIConfig      `yaml:"ui" json:"ui" toml:"ui"`
	Log     LogConfig     `yaml:"log" json:"log" toml:"log"`
}

type TableConfig struct {
	RowsPerPage       int    `yaml:"rows_per_page" json:"rows_per_page" toml:"rows_per_page"`
	ResetPageOnChange bool   `yaml:"reset_page_on_change" json:"reset_page_on_change" toml:"reset_page_on_change"`
	Fields            []any  `yaml:"fields" json:"fields" toml:"fields"`
	Sort              string `yaml:"sort" json:"sort" toml:"sort"`
	Descending        bool   `yaml:"descending" json:"descending" toml:"descending"`
}

type DisplayConfig struct {
	Output  string      `yaml:"output" json:"output" toml:"output"`
	NoColor bool        `yaml:"no_color" json:"no_color" toml:"no_color"`
	Width   int         `yaml:"width" json:"width" toml:"width"`
	Colors  ColorConfig `yaml:"colors" json:"colors" toml:"colors"`
}

// ColorConfig holds lipgloss color strings (ANSI numbers or hex).
type ColorConfig struct {
	HeaderFG string `yaml:"header_fg" json:"header_fg" toml:"header_fg"`
	HeaderBG string `yaml:"header_bg" json:"header_bg" toml:"header_bg"`
	Active   string `yaml:"active" json:"active" toml:"active"`
	Disabled string `yaml:"disabled" json:"disabled" toml:"disabled"`
	Filter   string `yaml:"filter" json:"filter" toml:"filter"`
}

type UIConfig struct {
	KeyMode string `yaml:"key_mode" json:"key_mode" toml:"key_mode"`
}

type LogConfig struct {
	Level string `yaml:"level" json:"level" toml:"level"`
}

// DefaultYAML returns a copy of the embedded default config.
func DefaultYAML() []byte {
	return append([]byte(nil), embeddedDefaultConfig...)
}

// Default decodes the embedded defaults.
func Default() (Config, error) {
	var cfg Config
	if len(embeddedDefaultConfig) == 0 {
		return cfg, errors.New("embedded default config is empty")
	}
	if err := yaml.Unmarshal(embeddedDefaultConfig, &cfg); err != nil {
		return cfg, fmt.Errorf("decode default config: %w", err)
	}
	return cfg, nil
}

// Load returns the defaults with the file at path merged on top. An empty
// path yields the defaults. Files ending in .toml are read as TOML, anything
// else as YAML. Unknown keys are rejected.
func Load(path string) (Config, error) {
	cfg, err := Default()
	if err != nil {
		return cfg, err
	}
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config %s: %w", path, err)
	}
	if err := merge(&cfg, data, strings.EqualFold(filepath.Ext(path), ".toml")); err != nil {
		return cfg, fmt.Errorf("decode config %s: %w", path, err)
	}
	return cfg, cfg.Validate()
}

func merge(cfg *Config, data []byte, isTOML bool) error {
	if isTOML {
		dec := toml.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		return dec.Decode(cfg)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

// Validate checks values that would otherwise fail later.
func (c Config) Validate() error {
	if c.Table.RowsPerPage <= 0 {
		return fmt.Errorf("table.rows_per_page must be positive, got %d", c.Table.RowsPerPage)
	}
	if c.Display.Width < 0 {
		return fmt.Errorf("display.width must not be negative, got %d", c.Display.Width)
	}
	_, err := c.FieldList()
	return err
}

// FieldList converts table.fields into fields. Entries are either a key
// string, a "key:label:format" spec or a mapping with key, label and format.
func (c Config) FieldList() ([]field.Field, error) {
	out := make([]field.Field, 0, len(c.Table.Fields))
	for i, raw := range c.Table.Fields {
		var (
			f   field.Field
			err error
		)
		if s, ok := raw.(string); ok {
			f, err = field.ParseSpec(s)
		} else {
			f, err = field.FromConfig(raw)
		}
		if err != nil {
			return nil, fmt.Errorf("table.fields[%d]: %w", i, err)
		}
		out = append(out, f)
	}
	return out, nil
}

// ResolvePath returns explicit when set, otherwise the first existing file
// among $XDG_CONFIG_HOME/rtable/config.{yaml,toml} or
// ~/.config/rtable/config.{yaml,toml}. It returns "" when none exists.
func ResolvePath(explicit string) string {
	if explicit != "" {
		return explicit
	}
	dir := ""
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		dir = filepath.Join(xdg, AppDir)
	} else if home, err := os.UserHomeDir(); err == nil {
		dir = filepath.Join(home, ".config", AppDir)
	}
	if dir == "" {
		return ""
	}
	for _, name := range []string{"config.yaml", "config.yml", "config.toml"} {
		candidate := filepath.Join(dir, name)
		if st, err := os.Stat(candidate); err == nil && !st.IsDir() {
			return candidate
		}
	}
	return ""
}
