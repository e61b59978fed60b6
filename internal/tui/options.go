package tui

import "github.com/hylla/todo/internal/domain"

// KeyConfig overrides the task-action bindings. Blank fields keep the defaults.
type KeyConfig struct {
	Add     string
	Delete  string
	Done    string
	Archive string
	Undo    string
}

// DisplayConfig controls how task details are drawn.
type DisplayConfig struct {
	DateFormat     string
	ShowOverdue    bool
	RenderMarkdown bool
}

type Option func(*Model)

func DefaultDisplayConfig() DisplayConfig {
	return DisplayConfig{
		DateFormat:     domain.DueDateLayout,
		ShowOverdue:    true,
		RenderMarkdown: true,
	}
}

func WithKeyConfig(cfg KeyConfig) Option {
	return func(m *Model) {
		m.keys.applyConfig(cfg)
	}
}

func WithDisplayConfig(cfg DisplayConfig) Option {
	return func(m *Model) {
		if cfg.DateFormat == "" {
			cfg.DateFormat = domain.DueDateLayout
		}
		m.display = cfg
	}
}

// WithClipboard sets the function used by the copy action.
func WithClipboard(copyText func(string) error) Option {
	return func(m *Model) {
		m.copyText = copyText
	}
}
