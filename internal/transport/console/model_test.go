package console

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/imamik/nodeup/internal/bot"
)

func typeText(m Model, text string) Model {
	for _, r := range text {
		var msg tea.KeyMsg
		if r == ' ' {
			msg = tea.KeyMsg{Type: tea.KeySpace}
		} else {
			msg = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}}
		}
		next, _ := m.Update(msg)
		m = next.(Model)
	}
	return m
}

func press(m Model, key tea.KeyType) Model {
	next, _ := m.Update(tea.KeyMsg{Type: key})
	return next.(Model)
}

func TestSubmitTextDispatchesUpdate(t *testing.T) {
	updates := make(chan bot.Update, 1)
	m := newModel(42, updates)

	m = typeText(m, "203.0.113.5")
	m = press(m, tea.KeyEnter)

	select {
	case u := <-updates:
		if u.AdminID != 42 {
			t.Errorf("admin ID = %d, want 42", u.AdminID)
		}
		if u.Text != "203.0.113.5" {
			t.Errorf("text = %q, want the typed IP", u.Text)
		}
	default:
		t.Fatal("expected a dispatched update")
	}

	if m.input != "" {
		t.Errorf("input not cleared after submit: %q", m.input)
	}
}

func TestNumberPressesButton(t *testing.T) {
	updates := make(chan bot.Update, 1)
	m := newModel(42, updates)

	next, _ := m.Update(deliveredMsg{id: 1, text: "Select ports:", buttons: []bot.Button{
		{Label: "8443:8880 (Default)", Payload: "ports_8443_8880"},
		{Label: "Enter manually", Payload: "ports_manual"},
	}})
	m = next.(Model)

	m = typeText(m, "2")
	m = press(m, tea.KeyEnter)

	u := <-updates
	if u.ButtonPayload != "ports_manual" {
		t.Errorf("payload = %q, want ports_manual", u.ButtonPayload)
	}
}

func TestMenuButtonDispatchesLabelAsText(t *testing.T) {
	updates := make(chan bot.Update, 1)
	m := newModel(42, updates)

	next, _ := m.Update(deliveredMsg{id: 1, text: "Welcome", buttons: []bot.Button{
		{Label: bot.MenuConfigureNode},
	}})
	m = next.(Model)

	m = typeText(m, "1")
	m = press(m, tea.KeyEnter)

	u := <-updates
	if u.Text != bot.MenuConfigureNode {
		t.Errorf("text = %q, want the menu label", u.Text)
	}
	if u.ButtonPayload != "" {
		t.Errorf("payload = %q, want empty for menu buttons", u.ButtonPayload)
	}
}

func TestNewKeyboardSupersedesOld(t *testing.T) {
	updates := make(chan bot.Update, 1)
	m := newModel(42, updates)

	next, _ := m.Update(deliveredMsg{id: 1, text: "old", buttons: []bot.Button{{Label: "old", Payload: "old"}}})
	m = next.(Model)
	next, _ = m.Update(deliveredMsg{id: 2, text: "new", buttons: []bot.Button{{Label: "new", Payload: "new"}}})
	m = next.(Model)

	m = typeText(m, "1")
	m = press(m, tea.KeyEnter)

	u := <-updates
	if u.ButtonPayload != "new" {
		t.Errorf("payload = %q, want the latest keyboard's button", u.ButtonPayload)
	}
}

func TestOutOfRangeNumberIsText(t *testing.T) {
	updates := make(chan bot.Update, 1)
	m := newModel(42, updates)

	next, _ := m.Update(deliveredMsg{id: 1, text: "pick", buttons: []bot.Button{{Label: "a", Payload: "a"}}})
	m = next.(Model)

	m = typeText(m, "9")
	m = press(m, tea.KeyEnter)

	u := <-updates
	if u.Text != "9" || u.ButtonPayload != "" {
		t.Errorf("update = %+v, want plain text \"9\"", u)
	}
}

func TestEditReplacesMessageText(t *testing.T) {
	updates := make(chan bot.Update, 1)
	m := newModel(42, updates)

	next, _ := m.Update(deliveredMsg{id: 5, text: "🔄 [1/8] connect…"})
	m = next.(Model)
	next, _ = m.Update(editedMsg{id: 5, text: "✅ [1/8] connect done"})
	m = next.(Model)

	view := m.View()
	if !strings.Contains(view, "connect done") {
		t.Error("edited text missing from view")
	}
	if strings.Contains(view, "connect…") {
		t.Error("stale text still rendered after edit")
	}
}

func TestBackspace(t *testing.T) {
	m := newModel(42, make(chan bot.Update, 1))
	m = typeText(m, "ab")
	m = press(m, tea.KeyBackspace)
	if m.input != "a" {
		t.Errorf("input = %q, want %q", m.input, "a")
	}
}

func TestViewRendersTranscript(t *testing.T) {
	m := newModel(42, make(chan bot.Update, 1))

	next, _ := m.Update(deliveredMsg{id: 1, text: "hello", buttons: []bot.Button{{Label: "Go", Payload: "go"}}})
	m = next.(Model)
	m = typeText(m, "hi")

	view := m.View()
	for _, want := range []string{"hello", "1 Go", "hi"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q", want)
		}
	}
}
