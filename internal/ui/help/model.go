// Package help renders the keyboard shortcut overlay.
package help

import (
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/hospital-admin/internal/keys"
	"github.com/nhle/hospital-admin/internal/theme"
)

// contextKeys adapts a view's bindings to help.KeyMap.
type contextKeys []key.Binding

func (c contextKeys) ShortHelp() []key.Binding  { return c }
func (c contextKeys) FullHelp() [][]key.Binding { return [][]key.Binding{c} }

// Model is the help overlay view.
type Model struct {
	keys    *keys.KeyMap
	help    help.Model
	section string
	local   contextKeys
	width   int
	height  int
}

// New creates a new help view model.
func New(k *keys.KeyMap, width, height int) Model {
	h := help.New()
	h.Width = width
	return Model{
		keys:   k,
		help:   h,
		width:  width,
		height: height,
	}
}

// SetContext sets the bindings of the view the overlay was opened from.
func (m *Model) SetContext(section string, bindings ...key.Binding) {
	m.section = section
	m.local = bindings
}

// Init returns the initial command.
func (m Model) Init() tea.Cmd {
	return nil
}

// Update handles messages for the help view.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	return m, nil
}

// View renders the help overlay.
func (m Model) View() string {
	title := theme.TitleStyle.Render("Keyboard Shortcuts")

	m.help.Width = m.width - 4
	m.help.ShowAll = true
	sections := []string{title, m.help.View(m.keys)}

	if len(m.local) > 0 {
		sections = append(sections,
			"",
			theme.TitleStyle.Render(m.section),
			m.help.View(m.local),
		)
	}

	return theme.PanelStyle.
		Width(m.width - 4).
		Height(m.height - 4).
		Render(lipgloss.JoinVertical(lipgloss.Left, sections...))
}

// SetSize updates the help view dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.help.Width = width - 4
}
