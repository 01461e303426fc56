package ui

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
)

func TestKeybindRegistry_BindLookup(t *testing.T) {
	reg := NewKeybindRegistry()
	reg.Bind("q", tea.Quit)
	reg.Bind("SPC q", tea.Quit)
	reg.Bind("j", nil)

	if reg.Lookup("q") == nil {
		t.Error("expected q to be bound")
	}
	if reg.Lookup("SPC q") == nil {
		t.Error("expected SPC q to be bound")
	}
	if reg.Lookup("unknown") != nil {
		t.Error("expected unknown to be unbound")
	}
}

func TestKeyHandler_LeaderKey(t *testing.T) {
	reg := NewKeybindRegistry()
	var executed bool
	reg.Bind("SPC x", func() tea.Msg {
		executed = true
		return nil
	})
	h := NewKeyHandler(reg)

	// Press space -> leader waiting (Bubble Tea reports space as " ")
	consumed, cmd := h.Handle(keyMsg(" "))
	if !consumed || cmd != nil {
		t.Errorf("space: consumed=%v cmd=%v", consumed, cmd)
	}
	if !h.LeaderWaiting {
		t.Error("expected leader waiting after space")
	}

	// Press x -> execute SPC x
	consumed, cmd = h.Handle(keyMsg("x"))
	if !consumed {
		t.Errorf("x: expected consumed")
	}
	if h.LeaderWaiting {
		t.Error("leader should not be waiting after completing sequence")
	}
	if cmd != nil {
		cmd()
		if !executed {
			t.Error("expected command to execute")
		}
	}
}

func TestKeyHandler_EscCancelsLeader(t *testing.T) {
	reg := NewKeybindRegistry()
	reg.Bind("SPC x", tea.Quit)
	h := NewKeyHandler(reg)

	h.Handle(keyMsg(" "))
	if !h.LeaderWaiting {
		t.Fatal("expected leader waiting")
	}

	consumed, cmd := h.Handle(keyMsg("esc"))
	if !consumed || cmd != nil {
		t.Errorf("esc: consumed=%v cmd=%v", consumed, cmd)
	}
	if h.LeaderWaiting {
		t.Error("esc should cancel leader mode")
	}
}

func TestKeyHandler_SingleKey(t *testing.T) {
	reg := NewKeybindRegistry()
	reg.Bind("q", tea.Quit)
	h := NewKeyHandler(reg)

	consumed, cmd := h.Handle(keyMsg("q"))
	if !consumed || cmd == nil {
		t.Errorf("q: consumed=%v cmd=%v", consumed, cmd)
	}
}

func TestKeyHandler_UnboundFallsThrough(t *testing.T) {
	reg := NewKeybindRegistry()
	reg.Bind("q", tea.Quit)
	h := NewKeyHandler(reg)

	consumed, _ := h.Handle(keyMsg("j"))
	if consumed {
		t.Error("unbound j should not be consumed")
	}
}

func TestKeyHandler_ModeFilter(t *testing.T) {
	reg := NewKeybindRegistry()
	reg.BindWithDescForMode("SPC k", tea.Quit, "Close tab", []AppMode{ModeHome})
	h := NewKeyHandler(reg)

	h.Mode = ModeScreen
	h.Handle(keyMsg(" "))
	if _, cmd := h.Handle(keyMsg("k")); cmd != nil {
		t.Error("SPC k should not run outside ModeHome")
	}

	h.Mode = ModeHome
	h.Handle(keyMsg(" "))
	if _, cmd := h.Handle(keyMsg("k")); cmd == nil {
		t.Error("SPC k should run in ModeHome")
	}
}

func TestKeybindRegistry_LeaderHintsSubmenu(t *testing.T) {
	reg := NewKeybindRegistry()
	reg.BindWithDesc("SPC g h", tea.Quit, "History")
	reg.BindWithDesc("SPC g s", tea.Quit, "Saved")
	reg.BindWithDesc("SPC t", tea.Quit, "Traces")

	top := reg.LeaderHints("", ModeHome)
	if top["g"] != "Go to" {
		t.Errorf("g hint = %q, want Go to", top["g"])
	}
	if top["t"] != "Traces" {
		t.Errorf("t hint = %q, want Traces", top["t"])
	}

	sub := reg.LeaderHints("SPC g", ModeHome)
	if len(sub) != 2 || sub["h"] != "History" || sub["s"] != "Saved" {
		t.Errorf("SPC g hints = %v", sub)
	}
}

func TestKeyHandler_SubmenuSequence(t *testing.T) {
	reg := NewKeybindRegistry()
	var ran bool
	reg.Bind("SPC g h", func() tea.Msg { ran = true; return nil })
	h := NewKeyHandler(reg)

	h.Handle(keyMsg(" "))
	if consumed, cmd := h.Handle(keyMsg("g")); !consumed || cmd != nil || !h.LeaderWaiting {
		t.Fatalf("g: consumed=%v cmd=%v waiting=%v", consumed, cmd, h.LeaderWaiting)
	}
	_, cmd := h.Handle(keyMsg("h"))
	if cmd == nil {
		t.Fatal("expected SPC g h command")
	}
	cmd()
	if !ran {
		t.Error("expected SPC g h to run")
	}
}

func TestRenderKeybindHelp(t *testing.T) {
	reg := NewKeybindRegistry()
	reg.BindWithDesc("SPC t", tea.Quit, "Traces")
	h := NewKeyHandler(reg)
	if got := RenderKeybindHelp(h, ModeHome); !strings.Contains(got, "Traces") {
		t.Errorf("help = %q, want Traces hint", got)
	}
	if got := RenderKeybindHelp(nil, ModeHome); got != "" {
		t.Errorf("nil handler help = %q", got)
	}
}

// keyMsg creates a tea.KeyMsg for testing. Bubble Tea uses KeyType and Runes.
// KeySpace.String() returns " ", KeyEsc returns "esc", etc.
func keyMsg(s string) tea.KeyMsg {
	switch s {
	case "space", " ":
		return tea.KeyMsg{Type: tea.KeySpace}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "q":
		return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'q'}}
	case "x":
		return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'x'}}
	case "j":
		return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'j'}}
	default:
		return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
	}
}
