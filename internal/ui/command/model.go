// Package command is the ':' command palette.
package command

import (
	"fmt"
	"slices"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/hospital-admin/internal/theme"
	"github.com/nhle/hospital-admin/internal/ui"
)

// CommandMsg is emitted when the user executes a known command.
type CommandMsg string

// CancelMsg is emitted when the user leaves the palette without a command.
type CancelMsg struct{}

// Commands lists every command the palette accepts.
var Commands = []string{
	"users",
	"resources",
	"hospital",
	"broadcast",
	"history",
	"notifications",
	"refresh",
	"logout",
	"quit",
}

// aliases maps short forms onto Commands entries.
var aliases = map[string]string{
	"q":       "quit",
	"journal": "history",
	"notify":  "notifications",
	"config":  "hospital",
}

// Resolve maps input onto a command name, or returns false.
func Resolve(input string) (string, bool) {
	s := strings.ToLower(strings.TrimSpace(input))
	if a, ok := aliases[s]; ok {
		return a, true
	}
	if slices.Contains(Commands, s) {
		return s, true
	}
	return "", false
}

// Model is the command palette view.
type Model struct {
	input  textinput.Model
	errMsg string
	width  int
	height int
}

// New creates a new command palette model.
func New(width, height int) Model {
	ti := textinput.New()
	ti.Placeholder = "type a command..."
	ti.Prompt = ": "
	ti.ShowSuggestions = true
	ti.SetSuggestions(Commands)
	ti.Focus()
	ti.Width = width - 6

	return Model{
		input:  ti,
		width:  width,
		height: height,
	}
}

// Init returns the initial command.
func (m Model) Init() tea.Cmd {
	return textinput.Blink
}

// Update handles messages for the command palette.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		switch msg.String() {
		case "enter":
			raw := strings.TrimSpace(m.input.Value())
			if raw == "" {
				return m, nil
			}
			name, ok := Resolve(raw)
			if !ok {
				m.errMsg = fmt.Sprintf("Unknown command %q", raw)
				return m, nil
			}
			m.input.Reset()
			m.errMsg = ""
			return m, ui.Emit(CommandMsg(name))

		case "esc":
			m.input.Reset()
			m.errMsg = ""
			return m, ui.Emit(CancelMsg{})
		}
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// View renders the command palette.
func (m Model) View() string {
	parts := []string{theme.TitleStyle.Render("Command Palette"), m.input.View()}
	if m.errMsg != "" {
		parts = append(parts, theme.ErrorStyle.Render(m.errMsg))
	}
	parts = append(parts, theme.HelpStyle.Render(strings.Join(Commands, " · ")))

	return theme.PanelStyle.
		Width(m.width - 4).
		Render(lipgloss.JoinVertical(lipgloss.Left, parts...))
}

// SetSize updates the command palette dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.input.Width = width - 6
}

// Focus gives keyboard focus to the text input.
func (m *Model) Focus() tea.Cmd {
	return m.input.Focus()
}
