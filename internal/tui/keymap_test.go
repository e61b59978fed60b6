package tui

import (
	"testing"

	"charm.land/bubbles/v2/key"
	tea "charm.land/bubbletea/v2"
	"github.com/hylla/todo/internal/domain"
)

func TestParseBindingKeys(t *testing.T) {
	t.Run("space aliases", func(t *testing.T) {
		keys, help := parseBindingKeys("space", "a")
		if len(keys) != 2 || keys[0] != " " || keys[1] != "space" {
			t.Fatalf("unexpected parsed space keys %#v", keys)
		}
		if help != "space" {
			t.Fatalf("unexpected space help text %q", help)
		}
	})

	t.Run("uppercase rune includes shift alias", func(t *testing.T) {
		keys, help := parseBindingKeys("X", "x")
		if len(keys) != 2 || keys[0] != "X" || keys[1] != "shift+x" {
			t.Fatalf("unexpected uppercase parsed keys %#v", keys)
		}
		if help != "X" {
			t.Fatalf("unexpected uppercase help text %q", help)
		}
	})

	t.Run("multi rune lowercases key matcher", func(t *testing.T) {
		keys, help := parseBindingKeys("Ctrl+Z", "u")
		if len(keys) != 1 || keys[0] != "ctrl+z" {
			t.Fatalf("unexpected multi-rune parsed keys %#v", keys)
		}
		if help != "Ctrl+Z" {
			t.Fatalf("unexpected multi-rune help text %q", help)
		}
	})

	t.Run("blank uses fallback", func(t *testing.T) {
		keys, help := parseBindingKeys(" ", "u")
		if len(keys) != 1 || keys[0] != "u" || help != "u" {
			t.Fatalf("unexpected fallback parse %#v %q", keys, help)
		}
	})
}

func TestConfigureBinding(t *testing.T) {
	b := key.NewBinding(key.WithKeys("u"), key.WithHelp("u", "old"))
	configureBinding(&b, "z", "u", "undo")
	keys := b.Keys()
	if len(keys) != 1 || keys[0] != "z" {
		t.Fatalf("unexpected configured keys %#v", keys)
	}
	if b.Help().Key != "z" || b.Help().Desc != "undo" {
		t.Fatalf("unexpected configured help %#v", b.Help())
	}
}

func TestDecodeBrowseKeys(t *testing.T) {
	k := newKeyMap()
	cases := []struct {
		msg  tea.KeyPressMsg
		want EventKind
	}{
		{keyRune('j'), EventMoveDown},
		{tea.KeyPressMsg{Code: tea.KeyDown}, EventMoveDown},
		{keyRune('k'), EventMoveUp},
		{tea.KeyPressMsg{Code: tea.KeyUp}, EventMoveUp},
		{keyRune('h'), EventSwitchTabLeft},
		{keyRune('l'), EventSwitchTabRight},
		{tea.KeyPressMsg{Code: tea.KeyRight}, EventSwitchTabRight},
		{keyRune('d'), EventDeleteCurrent},
		{keyRune('D'), EventMarkDone},
		{keyRune('a'), EventAddTrigger},
		{keyRune('r'), EventArchiveTrigger},
		{keyRune('u'), EventUndo},
		{keyRune('y'), EventCopyCurrent},
		{keyRune('q'), EventQuit},
		{tea.KeyPressMsg{Code: 'c', Mod: tea.ModCtrl}, EventQuit},
	}
	for _, tc := range cases {
		events := k.decodeKey(tc.msg, ModeBrowse, false)
		if len(events) != 1 || events[0].Kind != tc.want {
			t.Fatalf("decodeKey(%q) = %#v, want kind %v", tc.msg.String(), events, tc.want)
		}
	}
	if events := k.decodeKey(keyRune('z'), ModeBrowse, false); len(events) != 0 {
		t.Fatalf("expected unbound key to decode to nothing, got %#v", events)
	}
}

func TestDecodeComposeKeys(t *testing.T) {
	k := newKeyMap()
	if events := k.decodeKey(tea.KeyPressMsg{Code: tea.KeyEnter}, ModeCompose, true); len(events) != 1 || events[0].Kind != EventConfirm {
		t.Fatalf("unexpected enter decode %#v", events)
	}
	if events := k.decodeKey(tea.KeyPressMsg{Code: tea.KeyEscape}, ModeCompose, true); len(events) != 1 || events[0].Kind != EventCancel {
		t.Fatalf("unexpected esc decode %#v", events)
	}
	if events := k.decodeKey(tea.KeyPressMsg{Code: tea.KeyBackspace}, ModeCompose, true); len(events) != 1 || events[0].Kind != EventBackspace {
		t.Fatalf("unexpected backspace decode %#v", events)
	}
	// Browse bindings become plain text while typing.
	events := k.decodeKey(keyRune('q'), ModeCompose, true)
	if len(events) != 1 || events[0].Kind != EventChar || events[0].Rune != 'q' {
		t.Fatalf("expected q to type a character, got %#v", events)
	}
	events = k.decodeKey(keyRune('2'), ModeCompose, true)
	if len(events) != 1 || events[0].Kind != EventChar {
		t.Fatalf("expected digits to type while accepting text, got %#v", events)
	}
	events = k.decodeKey(keyRune('3'), ModeCompose, false)
	if len(events) != 1 || events[0].Kind != EventSelectPriority || events[0].Priority != domain.PriorityHigh {
		t.Fatalf("expected priority select on priority step, got %#v", events)
	}
	if events := k.decodeKey(keyRune('x'), ModeCompose, false); len(events) != 0 {
		t.Fatalf("expected text ignored on priority step, got %#v", events)
	}
}

func TestKeyMapApplyConfig(t *testing.T) {
	k := newKeyMap()
	k.applyConfig(KeyConfig{Undo: "z", Done: "X"})
	if events := k.decodeKey(keyRune('z'), ModeBrowse, false); len(events) != 1 || events[0].Kind != EventUndo {
		t.Fatalf("expected z to undo, got %#v", events)
	}
	if events := k.decodeKey(keyRune('u'), ModeBrowse, false); len(events) != 0 {
		t.Fatalf("expected default undo key unbound, got %#v", events)
	}
	if got := k.doneTask.Keys(); len(got) != 2 || got[0] != "X" || got[1] != "shift+x" {
		t.Fatalf("unexpected done keys %#v", got)
	}
	if got := k.addTask.Keys(); len(got) != 1 || got[0] != "a" {
		t.Fatalf("expected blank override to keep default, got %#v", got)
	}
}
