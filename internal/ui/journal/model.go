// Package journal lists the mutations recorded in the local journal.
package journal

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/hospital-admin/internal/keys"
	"github.com/nhle/hospital-admin/internal/model"
	"github.com/nhle/hospital-admin/internal/store"
	"github.com/nhle/hospital-admin/internal/theme"
	"github.com/nhle/hospital-admin/internal/ui"
)

// CloseMsg asks the parent to leave this view.
type CloseMsg struct{}

// Reader loads journal entries.
type Reader interface {
	Recent(ctx context.Context, filter store.JournalFilter) ([]model.JournalEntry, error)
}

type entriesLoadedMsg struct {
	entries []model.JournalEntry
	err     error
}

// Model is the Bubble Tea model for the journal view.
type Model struct {
	reader     Reader
	keys       *keys.KeyMap
	entries    []model.JournalEntry
	failedOnly bool
	cursor     int
	offset     int
	errMsg     string
	now        func() time.Time
	width      int
	height     int
}

// New creates a journal view. A nil reader shows an empty journal.
func New(r Reader, k *keys.KeyMap, width, height int) Model {
	return Model{
		reader: r,
		keys:   k,
		now:    time.Now,
		width:  width,
		height: height,
	}
}

// Init loads the newest entries.
func (m Model) Init() tea.Cmd {
	return m.load()
}

// Entries returns the entries currently shown.
func (m Model) Entries() []model.JournalEntry {
	return m.entries
}

// Update handles messages for the journal view.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case entriesLoadedMsg:
		if msg.err != nil {
			m.errMsg = fmt.Sprintf("Failed to read history: %v", msg.err)
			return m, nil
		}
		m.errMsg = ""
		m.entries = msg.entries
		if m.cursor >= len(m.entries) {
			m.cursor = max(len(m.entries)-1, 0)
		}
		m.clampOffset()
		return m, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Back):
			return m, ui.Emit(CloseMsg{})
		case key.Matches(msg, m.keys.Down):
			if m.cursor < len(m.entries)-1 {
				m.cursor++
				m.clampOffset()
			}
		case key.Matches(msg, m.keys.Up):
			if m.cursor > 0 {
				m.cursor--
				m.clampOffset()
			}
		case key.Matches(msg, m.keys.Filter):
			m.failedOnly = !m.failedOnly
			m.cursor, m.offset = 0, 0
			return m, m.load()
		case key.Matches(msg, m.keys.Refresh):
			return m, m.load()
		}
	}
	return m, nil
}

func (m Model) visibleRows() int {
	return max(m.height-8, 3)
}

func (m *Model) clampOffset() {
	rows := m.visibleRows()
	if m.cursor < m.offset {
		m.offset = m.cursor
	}
	if m.cursor >= m.offset+rows {
		m.offset = m.cursor - rows + 1
	}
}

// View renders the journal.
func (m Model) View() string {
	var b strings.Builder
	b.WriteString(theme.TitleStyle.Render("History"))
	if m.failedOnly {
		b.WriteString(theme.DimmedStyle.Render("  failed only"))
	}
	b.WriteString("\n\n")

	if m.errMsg != "" {
		b.WriteString(theme.ErrorStyle.Render(m.errMsg) + "\n")
	}

	if len(m.entries) == 0 {
		b.WriteString(theme.DimmedStyle.Italic(true).Render("Nothing recorded yet."))
	}

	now := m.now()
	end := min(m.offset+m.visibleRows(), len(m.entries))
	for i := m.offset; i < end; i++ {
		e := m.entries[i]
		outcome := theme.SuccessStyle.Render("ok")
		if !e.OK {
			outcome = theme.ErrorStyle.Render("failed")
		}
		line := fmt.Sprintf("%-10s %-26s %-24s %s",
			ui.RelativeTime(e.CreatedAt, now), e.Action, e.Target, outcome)
		if !e.OK && e.Error != "" {
			line += theme.DimmedStyle.Render("  " + e.Error)
		}
		style := theme.ListItemStyle
		if i == m.cursor {
			style = theme.SelectedItemStyle
		}
		b.WriteString(style.Render(line) + "\n")
	}

	b.WriteString("\n")
	b.WriteString(theme.HelpStyle.Render("f failed only | r reload | esc back"))

	return lipgloss.NewStyle().Padding(1, 2).Render(b.String())
}

// SetSize updates the view dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
}

func (m Model) load() tea.Cmd {
	r := m.reader
	filter := store.JournalFilter{FailedOnly: m.failedOnly}
	return func() tea.Msg {
		if r == nil {
			return entriesLoadedMsg{}
		}
		entries, err := r.Recent(context.Background(), filter)
		return entriesLoadedMsg{entries: entries, err: err}
	}
}
