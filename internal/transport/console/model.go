package console

import (
	"strconv"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/imamik/nodeup/internal/bot"
)

// entry is one line of the chat transcript.
type entry struct {
	id       int64
	fromBot  bool
	text     string
	buttons  []bot.Button
	obsolete bool
}

// Model is the Bubble Tea model for the local chat console.
type Model struct {
	adminID    int64
	transcript []entry
	input      string

	// updates receives what the operator submits, to be handled outside
	// the UI loop.
	updates chan<- bot.Update

	Width  int
	Height int
}

func newModel(adminID int64, updates chan<- bot.Update) Model {
	return Model{adminID: adminID, updates: updates}
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "esc":
			return m, tea.Quit
		case "enter":
			m.submit()
		case "backspace":
			if len(m.input) > 0 {
				m.input = m.input[:len(m.input)-1]
			}
		default:
			switch msg.Type {
			case tea.KeyRunes:
				m.input += string(msg.Runes)
			case tea.KeySpace:
				m.input += " "
			}
		}

	case tea.WindowSizeMsg:
		m.Width = msg.Width
		m.Height = msg.Height

	case deliveredMsg:
		// A new message with buttons supersedes earlier keyboards.
		if len(msg.buttons) > 0 {
			for i := range m.transcript {
				m.transcript[i].obsolete = true
			}
		}
		m.transcript = append(m.transcript, entry{
			id:      msg.id,
			fromBot: true,
			text:    msg.text,
			buttons: msg.buttons,
		})

	case editedMsg:
		for i := range m.transcript {
			if m.transcript[i].id == msg.id && m.transcript[i].fromBot {
				m.transcript[i].text = msg.text
			}
		}
	}

	return m, nil
}

// submit turns the current input line into an update. A bare number that
// matches a live button presses that button; anything else is sent as text.
func (m *Model) submit() {
	text := strings.TrimSpace(m.input)
	if text == "" {
		return
	}
	m.input = ""

	if btn, ok := m.buttonAt(text); ok {
		m.transcript = append(m.transcript, entry{text: btn.Label})
		update := bot.Update{AdminID: m.adminID, ButtonPayload: btn.Payload}
		if btn.Payload == "" {
			// Menu buttons carry no payload; they are plain text commands.
			update = bot.Update{AdminID: m.adminID, Text: btn.Label}
		}
		m.dispatch(update)
		return
	}

	m.transcript = append(m.transcript, entry{text: text})
	m.dispatch(bot.Update{AdminID: m.adminID, Text: text})
}

// buttonAt resolves a numeric input against the most recent live keyboard.
func (m *Model) buttonAt(text string) (bot.Button, bool) {
	n, err := strconv.Atoi(text)
	if err != nil || n < 1 {
		return bot.Button{}, false
	}
	for i := len(m.transcript) - 1; i >= 0; i-- {
		e := m.transcript[i]
		if e.obsolete || len(e.buttons) == 0 {
			continue
		}
		if n > len(e.buttons) {
			return bot.Button{}, false
		}
		return e.buttons[n-1], true
	}
	return bot.Button{}, false
}

func (m *Model) dispatch(u bot.Update) {
	select {
	case m.updates <- u:
	default:
		// The handler is behind; dropping beats blocking the UI loop.
	}
}

// View implements tea.Model.
func (m Model) View() string {
	var b strings.Builder

	for _, e := range m.transcript {
		if e.fromBot {
			b.WriteString(botLabelStyle.Render("bot") + "  " + e.text + "\n")
			if len(e.buttons) > 0 && !e.obsolete {
				for i, btn := range e.buttons {
					b.WriteString("     " + buttonStyle.Render(strconv.Itoa(i+1)+" "+btn.Label) + "\n")
				}
			}
		} else {
			b.WriteString(youLabelStyle.Render("you") + "  " + e.text + "\n")
		}
		b.WriteString("\n")
	}

	b.WriteString(promptStyle.Render("> ") + m.input + "█\n")
	b.WriteString(footerStyle.Render("type a message, a button number, or esc to quit"))
	return b.String()
}
