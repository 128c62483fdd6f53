// Package notifications renders the notification dropdown. State lives in a
// notify.Center; this view only draws its snapshots and forwards actions.
package notifications

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/hospital-admin/internal/keys"
	"github.com/nhle/hospital-admin/internal/notify"
	"github.com/nhle/hospital-admin/internal/theme"
	"github.com/nhle/hospital-admin/internal/ui"
)

// SnapshotMsg carries the center's latest state into the Bubble Tea loop.
// A dropdown ignores snapshots from any center other than its own.
type SnapshotMsg struct {
	Snapshot notify.Snapshot
	center   *notify.Center
}

// Model is the Bubble Tea model for the notification dropdown.
type Model struct {
	center  *notify.Center
	keys    *keys.KeyMap
	updates <-chan notify.Snapshot
	stop    func()
	done    chan struct{}
	snap    notify.Snapshot
	open    bool
	cursor  int
	authHit bool
	now     func() time.Time
	width   int
	height  int
}

// New subscribes to center. Call Init to start receiving snapshots and
// Stop when the session ends.
func New(center *notify.Center, k *keys.KeyMap) Model {
	updates, stop := center.Watch()
	return Model{
		center:  center,
		keys:    k,
		updates: updates,
		stop:    stop,
		done:    make(chan struct{}),
		snap:    center.Snapshot(),
		now:     time.Now,
	}
}

// Init starts listening for snapshots.
func (m Model) Init() tea.Cmd {
	return m.listen()
}

// Stop unsubscribes from the center and releases the pending listen command.
func (m Model) Stop() {
	select {
	case <-m.done:
		return
	default:
	}
	m.stop()
	close(m.done)
}

// IsOpen reports whether the dropdown is visible.
func (m Model) IsOpen() bool {
	return m.open
}

// Unread returns the unread count of the latest snapshot.
func (m Model) Unread() int {
	return m.snap.Unread
}

// Snapshot returns the latest snapshot received.
func (m Model) Snapshot() notify.Snapshot {
	return m.snap
}

// Toggle opens or closes the dropdown. Opening fetches.
func (m *Model) Toggle() tea.Cmd {
	m.open = !m.open
	if m.open {
		m.cursor = 0
	}
	center, open := m.center, m.open
	return m.call(func(ctx context.Context) error {
		return center.SetOpen(ctx, open)
	})
}

// Update handles messages for the dropdown.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case SnapshotMsg:
		if msg.center != m.center {
			return m, nil
		}
		m.snap = msg.Snapshot
		if m.cursor >= len(m.snap.Items) {
			m.cursor = max(len(m.snap.Items)-1, 0)
		}
		var authCmd tea.Cmd
		if m.snap.AuthExpired && !m.authHit {
			m.authHit = true
			authCmd = ui.Emit(ui.AuthExpiredMsg{})
		}
		return m, tea.Batch(m.listen(), authCmd)

	case tea.KeyMsg:
		if !m.open {
			return m, nil
		}
		return m.handleKey(msg)
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	center := m.center
	switch {
	case key.Matches(msg, m.keys.Back, m.keys.Notifications, m.keys.NotificationsGlobal):
		return m, m.Toggle()

	case key.Matches(msg, m.keys.Down):
		if n := len(m.snap.Items); n > 0 {
			m.cursor = (m.cursor + 1) % n
		}
		return m, nil

	case key.Matches(msg, m.keys.Up):
		if n := len(m.snap.Items); n > 0 {
			m.cursor = (m.cursor - 1 + n) % n
		}
		return m, nil

	case key.Matches(msg, m.keys.Select):
		id, ok := m.selectedID()
		if !ok {
			return m, nil
		}
		return m, m.call(func(ctx context.Context) error {
			return center.MarkAsRead(ctx, id)
		})

	case key.Matches(msg, m.keys.MarkAllRead):
		return m, m.call(center.MarkAllAsRead)

	case key.Matches(msg, m.keys.Delete):
		id, ok := m.selectedID()
		if !ok {
			return m, nil
		}
		return m, m.call(func(ctx context.Context) error {
			return center.Delete(ctx, id)
		})

	case key.Matches(msg, m.keys.Refresh):
		return m, m.call(center.Fetch)
	}
	return m, nil
}

func (m Model) selectedID() (int64, bool) {
	if m.cursor < 0 || m.cursor >= len(m.snap.Items) {
		return 0, false
	}
	return m.snap.Items[m.cursor].ID, true
}

// call runs fn against the center off the UI loop. Results arrive as
// snapshots; failures are logged by the center.
func (m Model) call(fn func(context.Context) error) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := ui.RequestContext()
		defer cancel()
		_ = fn(ctx)
		return nil
	}
}

func (m Model) listen() tea.Cmd {
	updates := m.updates
	done := m.done
	center := m.center
	return func() tea.Msg {
		select {
		case s := <-updates:
			return SnapshotMsg{Snapshot: s, center: center}
		case <-done:
			return nil
		}
	}
}

// Badge renders the unread counter for the header, or "" when nothing is unread.
func (m Model) Badge() string {
	if m.snap.Unread <= 0 {
		return ""
	}
	label := fmt.Sprintf("%d", m.snap.Unread)
	if m.snap.Unread > 99 {
		label = "99+"
	}
	return theme.BadgeStyle.Render(label)
}

// View renders the dropdown panel.
func (m Model) View() string {
	var b strings.Builder

	title := "Notifications"
	if m.snap.Unread > 0 {
		title = fmt.Sprintf("Notifications (%d unread)", m.snap.Unread)
	}
	b.WriteString(theme.TitleStyle.Render(title))
	if m.snap.Loading {
		b.WriteString(theme.DimmedStyle.Render("  refreshing..."))
	}
	b.WriteString("\n")

	if m.snap.Err != "" {
		b.WriteString(theme.ErrorStyle.Render(m.snap.Err) + "\n")
	}

	if len(m.snap.Items) == 0 {
		b.WriteString(theme.DimmedStyle.Italic(true).Render("No notifications"))
	}

	now := m.now()
	for i, n := range m.snap.Items {
		marker := "  "
		if !n.IsRead {
			marker = lipgloss.NewStyle().Foreground(theme.ColorBlue).Render("● ")
		}
		line := fmt.Sprintf("%s%s %s  %s",
			marker,
			theme.NotificationTypeStyle(string(n.Type)).Render(n.Type.Label()),
			n.Title,
			theme.DimmedStyle.Render(ui.RelativeTime(n.CreatedAt, now)),
		)
		style := theme.ListItemStyle
		if i == m.cursor {
			style = theme.SelectedItemStyle
		}
		b.WriteString(style.Render(line) + "\n")
		if n.Message != "" {
			b.WriteString(theme.DimmedStyle.PaddingLeft(4).Render(truncate(n.Message, m.panelWidth()-6)) + "\n")
		}
	}

	b.WriteString("\n")
	b.WriteString(theme.HelpStyle.Render("enter read | A all read | d delete | r refresh | esc close"))

	return theme.DropdownStyle.Width(m.panelWidth()).Render(b.String())
}

// SetSize updates the dimensions the dropdown is laid out against.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
}

func (m Model) panelWidth() int {
	w := m.width / 2
	if w < 40 {
		w = 40
	}
	if w > 80 {
		w = 80
	}
	return w
}

func truncate(s string, n int) string {
	if n <= 1 {
		return ""
	}
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
