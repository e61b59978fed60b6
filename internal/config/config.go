package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"unicode/utf8"

	toml "github.com/pelletier/go-toml/v2"
)

// Backend names a storage adapter.
type Backend string

const (
	BackendJSON   Backend = "json"
	BackendSQLite Backend = "sqlite"
)

// FileName returns the default data file name for the backend.
func (b Backend) FileName() string {
	if b == BackendSQLite {
		return "todo.db"
	}
	return "tasks.json"
}

// ParseBackend normalizes a backend name from a flag or env value.
func ParseBackend(raw string) (Backend, error) {
	switch b := Backend(strings.TrimSpace(strings.ToLower(raw))); b {
	case BackendJSON, BackendSQLite:
		return b, nil
	case "":
		return BackendJSON, nil
	default:
		return "", fmt.Errorf("invalid storage backend %q (want json or sqlite)", raw)
	}
}

type Config struct {
	Storage StorageConfig `toml:"storage"`
	Logging LoggingConfig `toml:"logging"`
	Display DisplayConfig `toml:"display"`
	Keys    KeyConfig     `toml:"keys"`

	dataDir string
}

type StorageConfig struct {
	Backend Backend `toml:"backend"`
	Path    string  `toml:"path"` // empty means <data dir>/<backend file name>
}

type LoggingConfig struct {
	Level string `toml:"level"` // debug | info | warn | error
	File  string `toml:"file"`
}

type DisplayConfig struct {
	DateFormat     string `toml:"date_format"`
	ShowOverdue    bool   `toml:"show_overdue"`
	RenderMarkdown bool   `toml:"render_markdown"`
}

// KeyConfig overrides the interactive bindings for the task actions.
type KeyConfig struct {
	Add     string `toml:"add"`
	Delete  string `toml:"delete"`
	Done    string `toml:"done"`
	Archive string `toml:"archive"`
	Undo    string `toml:"undo"`
}

var logLevels = []string{"debug", "info", "warn", "error"}

func Default(dataDir string) Config {
	return Config{
		Storage: StorageConfig{
			Backend: BackendJSON,
		},
		Logging: LoggingConfig{
			Level: "warn",
		},
		Display: DisplayConfig{
			DateFormat:     "2006-01-02",
			ShowOverdue:    true,
			RenderMarkdown: true,
		},
		Keys: KeyConfig{
			Add:     "a",
			Delete:  "d",
			Done:    "D",
			Archive: "r",
			Undo:    "u",
		},
		dataDir: dataDir,
	}
}

func Load(path string, defaults Config) (Config, error) {
	cfg := defaults
	if strings.TrimSpace(path) == "" {
		return cfg, nil
	}

	content, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	if len(content) == 0 {
		return cfg, nil
	}

	if err := toml.Unmarshal(content, &cfg); err != nil {
		return Config{}, fmt.Errorf("decode toml: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func (c Config) Validate() error {
	if _, err := ParseBackend(string(c.Storage.Backend)); err != nil {
		return fmt.Errorf("storage.backend: %w", err)
	}

	if !slices.Contains(logLevels, strings.TrimSpace(strings.ToLower(c.Logging.Level))) {
		return fmt.Errorf("invalid logging.level: %q", c.Logging.Level)
	}

	if strings.TrimSpace(c.Display.DateFormat) == "" {
		return errors.New("display.date_format is required")
	}

	seen := map[string]string{}
	for _, binding := range []struct {
		name string
		key  string
	}{
		{"add", c.Keys.Add},
		{"delete", c.Keys.Delete},
		{"done", c.Keys.Done},
		{"archive", c.Keys.Archive},
		{"undo", c.Keys.Undo},
	} {
		key := normalizeKey(binding.key)
		if key == "" {
			return fmt.Errorf("keys.%s is required", binding.name)
		}
		if slices.Contains(reservedKeys, key) {
			return fmt.Errorf("keys.%s %q is reserved for navigation", binding.name, binding.key)
		}
		if other, ok := seen[key]; ok {
			return fmt.Errorf("keys.%s duplicates keys.%s: %q", binding.name, other, key)
		}
		seen[key] = binding.name
	}

	return nil
}

// reservedKeys are the fixed browse bindings; overrides may not shadow them.
var reservedKeys = []string{
	"q", "ctrl+c", "?", "y",
	"k", "up", "j", "down",
	"h", "left", "l", "right",
}

// normalizeKey mirrors how the TUI parses a binding: single characters are
// case sensitive, named keys are not.
func normalizeKey(raw string) string {
	key := strings.TrimSpace(raw)
	if utf8.RuneCountInString(key) > 1 {
		return strings.ToLower(key)
	}
	return key
}

// StoragePath returns the configured data file, falling back to the
// backend's default file inside the data directory.
func (c Config) StoragePath() string {
	if p := strings.TrimSpace(c.Storage.Path); p != "" {
		return p
	}
	backend, err := ParseBackend(string(c.Storage.Backend))
	if err != nil {
		backend = BackendJSON
	}
	return filepath.Join(c.dataDir, backend.FileName())
}
