package tui

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"charm.land/bubbles/v2/key"
	tea "charm.land/bubbletea/v2"
	"github.com/hylla/todo/internal/domain"
)

// keyMap holds the bindings for both modes.
type keyMap struct {
	quit       key.Binding
	toggleHelp key.Binding
	moveUp     key.Binding
	moveDown   key.Binding
	tabLeft    key.Binding
	tabRight   key.Binding
	deleteTask key.Binding
	doneTask   key.Binding
	addTask    key.Binding
	archive    key.Binding
	undo       key.Binding
	copyTask   key.Binding

	confirm   key.Binding
	cancel    key.Binding
	backspace key.Binding
	priority  key.Binding
}

func newKeyMap() keyMap {
	return keyMap{
		quit:       key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
		toggleHelp: key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "toggle help")),
		moveUp:     key.NewBinding(key.WithKeys("k", "up"), key.WithHelp("k/↑", "up")),
		moveDown:   key.NewBinding(key.WithKeys("j", "down"), key.WithHelp("j/↓", "down")),
		tabLeft:    key.NewBinding(key.WithKeys("h", "left"), key.WithHelp("h/←", "active")),
		tabRight:   key.NewBinding(key.WithKeys("l", "right"), key.WithHelp("l/→", "archived")),
		deleteTask: key.NewBinding(key.WithKeys("d"), key.WithHelp("d", "delete")),
		doneTask:   key.NewBinding(key.WithKeys("D", "shift+d"), key.WithHelp("D", "done")),
		addTask:    key.NewBinding(key.WithKeys("a"), key.WithHelp("a", "add")),
		archive:    key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "archive done")),
		undo:       key.NewBinding(key.WithKeys("u"), key.WithHelp("u", "undo")),
		copyTask:   key.NewBinding(key.WithKeys("y"), key.WithHelp("y", "copy")),

		confirm:   key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "next")),
		cancel:    key.NewBinding(key.WithKeys("esc", "ctrl+c"), key.WithHelp("esc", "cancel")),
		backspace: key.NewBinding(key.WithKeys("backspace"), key.WithHelp("backspace", "erase")),
		priority:  key.NewBinding(key.WithKeys("1", "2", "3"), key.WithHelp("1/2/3", "priority")),
	}
}

// applyConfig replaces the configurable task-action bindings.
func (k *keyMap) applyConfig(cfg KeyConfig) {
	configureBinding(&k.addTask, cfg.Add, "a", "add")
	configureBinding(&k.deleteTask, cfg.Delete, "d", "delete")
	configureBinding(&k.doneTask, cfg.Done, "D", "done")
	configureBinding(&k.archive, cfg.Archive, "r", "archive done")
	configureBinding(&k.undo, cfg.Undo, "u", "undo")
}

func configureBinding(b *key.Binding, raw, fallback, desc string) {
	keys, helpKey := parseBindingKeys(raw, fallback)
	b.SetKeys(keys...)
	b.SetHelp(helpKey, desc)
}

// parseBindingKeys turns a configured key into matcher strings and a help label.
func parseBindingKeys(raw, fallback string) ([]string, string) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		raw = fallback
	}
	if strings.EqualFold(raw, "space") {
		return []string{" ", "space"}, "space"
	}
	if utf8.RuneCountInString(raw) == 1 {
		r, _ := utf8.DecodeRuneInString(raw)
		if unicode.IsUpper(r) {
			return []string{raw, "shift+" + string(unicode.ToLower(r))}, raw
		}
		return []string{raw}, raw
	}
	return []string{strings.ToLower(raw)}, raw
}

// ShortHelp lists the browse bindings shown in the footer.
func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.addTask, k.doneTask, k.deleteTask, k.archive, k.undo, k.toggleHelp, k.quit}
}

// FullHelp lists every browse binding.
func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.moveUp, k.moveDown, k.tabLeft, k.tabRight},
		{k.addTask, k.doneTask, k.deleteTask, k.archive},
		{k.undo, k.copyTask, k.toggleHelp, k.quit},
	}
}

// composeHelp exposes the wizard bindings to the help bubble.
type composeHelp struct {
	keys     keyMap
	choosing bool
}

func (c composeHelp) ShortHelp() []key.Binding {
	if c.choosing {
		return []key.Binding{c.keys.priority, c.keys.confirm, c.keys.cancel}
	}
	return []key.Binding{c.keys.confirm, c.keys.backspace, c.keys.cancel}
}

func (c composeHelp) FullHelp() [][]key.Binding {
	return [][]key.Binding{c.ShortHelp()}
}

// decodeKey maps one key press to logical events. Text input can yield
// several Char events; keys without a meaning in the current mode yield none.
func (k keyMap) decodeKey(msg tea.KeyPressMsg, mode Mode, acceptsText bool) []Event {
	if mode == ModeCompose {
		return k.decodeComposeKey(msg, acceptsText)
	}
	if mode != ModeBrowse {
		return nil
	}
	kind := EventNone
	switch {
	case key.Matches(msg, k.quit):
		kind = EventQuit
	case key.Matches(msg, k.moveUp):
		kind = EventMoveUp
	case key.Matches(msg, k.moveDown):
		kind = EventMoveDown
	case key.Matches(msg, k.tabLeft):
		kind = EventSwitchTabLeft
	case key.Matches(msg, k.tabRight):
		kind = EventSwitchTabRight
	case key.Matches(msg, k.doneTask):
		kind = EventMarkDone
	case key.Matches(msg, k.deleteTask):
		kind = EventDeleteCurrent
	case key.Matches(msg, k.addTask):
		kind = EventAddTrigger
	case key.Matches(msg, k.archive):
		kind = EventArchiveTrigger
	case key.Matches(msg, k.undo):
		kind = EventUndo
	case key.Matches(msg, k.copyTask):
		kind = EventCopyCurrent
	}
	if kind == EventNone {
		return nil
	}
	return []Event{{Kind: kind}}
}

func (k keyMap) decodeComposeKey(msg tea.KeyPressMsg, acceptsText bool) []Event {
	switch {
	case msg.Code == tea.KeyEnter || key.Matches(msg, k.confirm):
		return []Event{{Kind: EventConfirm}}
	case msg.Code == tea.KeyEscape || key.Matches(msg, k.cancel):
		return []Event{{Kind: EventCancel}}
	case msg.Code == tea.KeyBackspace || key.Matches(msg, k.backspace):
		return []Event{{Kind: EventBackspace}}
	}
	if !acceptsText {
		switch msg.String() {
		case "1":
			return []Event{{Kind: EventSelectPriority, Priority: domain.PriorityLow}}
		case "2":
			return []Event{{Kind: EventSelectPriority, Priority: domain.PriorityMedium}}
		case "3":
			return []Event{{Kind: EventSelectPriority, Priority: domain.PriorityHigh}}
		}
		return nil
	}
	if msg.Text == "" {
		return nil
	}
	out := make([]Event, 0, len(msg.Text))
	for _, r := range msg.Text {
		if unicode.IsPrint(r) {
			out = append(out, Event{Kind: EventChar, Rune: r})
		}
	}
	return out
}
