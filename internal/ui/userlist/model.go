// Package userlist renders the user directory with role and status filters.
package userlist

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/hospital-admin/internal/api"
	"github.com/nhle/hospital-admin/internal/keys"
	"github.com/nhle/hospital-admin/internal/model"
	"github.com/nhle/hospital-admin/internal/service"
	"github.com/nhle/hospital-admin/internal/theme"
	"github.com/nhle/hospital-admin/internal/ui"
)

const owner = "userlist"

// EditUserMsg asks the parent to open the edit dialog for User.
type EditUserMsg struct {
	User model.User
}

// CloseMsg asks the parent to leave this view.
type CloseMsg struct{}

type listMode int

const (
	modeList listMode = iota
	modeConfirmToggle
	modeToggling
)

type usersLoadedMsg struct {
	seq   int
	users []model.User
	err   error
}

type toggledMsg struct {
	user     model.User
	activate bool
	err      error
}

// roleFilters is the cycle order of the role filter; empty means all roles.
var roleFilters = append([]model.Role{""}, model.Roles...)

var statusFilters = []model.UserStatus{"", model.UserStatusActive, model.UserStatusInactive}

type formBindings struct {
	confirm bool
}

// Model is the Bubble Tea model for the user list.
type Model struct {
	svc         service.Users
	keys        *keys.KeyMap
	mode        listMode
	users       []model.User
	filter      model.UserFilter
	table       table.Model
	confirmForm *huh.Form
	fb          *formBindings
	pending     model.User // the user named in the open prompt
	loading     bool
	reqSeq      int
	trigger     int
	spinner     spinner.Model
	errMsg      string
	success     string
	seq         int
	width       int
	height      int
}

// New creates a user list model. Call Init to load users.
func New(svc service.Users, k *keys.KeyMap, width, height int) Model {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(theme.ColorBlue)

	t := table.New(
		table.WithColumns(columns(width)),
		table.WithFocused(true),
		table.WithHeight(tableHeight(height)),
	)
	t.SetStyles(tableStyles())

	return Model{
		svc:     svc,
		keys:    k,
		table:   t,
		fb:      &formBindings{},
		spinner: sp,
		width:   width,
		height:  height,
	}
}

// Init loads the first page of users.
func (m *Model) Init() tea.Cmd {
	return m.fetch()
}

// Filter returns the active filter.
func (m Model) Filter() model.UserFilter {
	return m.filter
}

// Users returns the rows currently shown.
func (m Model) Users() []model.User {
	return m.users
}

// Confirming reports whether a status change is being confirmed or is in
// flight.
func (m Model) Confirming() bool {
	return m.mode != modeList
}

// SetRefreshTrigger re-fetches when n differs from the last value seen.
func (m *Model) SetRefreshTrigger(n int) tea.Cmd {
	if n == m.trigger {
		return nil
	}
	m.trigger = n
	return m.fetch()
}

// Update handles messages for the user list.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case usersLoadedMsg:
		if msg.seq != m.reqSeq {
			return m, nil
		}
		m.loading = false
		if msg.err != nil {
			m.errMsg = api.Message(msg.err, "Failed to load users")
			return m, ui.AuthCheck(msg.err)
		}
		m.errMsg = ""
		m.users = msg.users
		m.table.SetRows(rows(m.users))
		if c := m.table.Cursor(); c >= len(m.users) && len(m.users) > 0 {
			m.table.SetCursor(len(m.users) - 1)
		}
		return m, nil

	case toggledMsg:
		m.mode = modeList
		m.pending = model.User{}
		if msg.err != nil {
			m.errMsg = api.Message(msg.err, "Failed to update user status")
			return m, ui.AuthCheck(msg.err)
		}
		verb := "deactivated"
		if msg.activate {
			verb = "activated"
		}
		m.errMsg = ""
		m.success = fmt.Sprintf("%s %s", msg.user.FullName(), verb)
		m.seq++
		return m, tea.Batch(m.fetch(), ui.ClearAfter(owner, m.seq))

	case ui.ClearStatusMsg:
		if msg.Owner == owner && msg.Seq == m.seq {
			m.success = ""
		}
		return m, nil

	case spinner.TickMsg:
		if !m.loading {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		switch m.mode {
		case modeConfirmToggle:
			return m.updateConfirm(msg)
		case modeToggling:
			return m, nil
		}
		return m.handleListKey(msg)
	}

	if m.mode == modeConfirmToggle {
		return m.updateConfirm(msg)
	}
	return m, nil
}

func (m Model) handleListKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Back):
		return m, ui.Emit(CloseMsg{})

	case key.Matches(msg, m.keys.Down):
		m.table.MoveDown(1)
		return m, nil

	case key.Matches(msg, m.keys.Up):
		m.table.MoveUp(1)
		return m, nil

	case key.Matches(msg, m.keys.Refresh):
		return m, m.fetch()

	case key.Matches(msg, m.keys.Filter):
		m.filter.Role = nextRole(m.filter.Role)
		return m, m.fetch()

	case key.Matches(msg, m.keys.FilterStatus):
		m.filter.Status = nextStatus(m.filter.Status)
		return m, m.fetch()

	case key.Matches(msg, m.keys.Select), key.Matches(msg, m.keys.Edit):
		if u, ok := m.selected(); ok {
			return m, ui.Emit(EditUserMsg{User: u})
		}
		return m, nil

	case key.Matches(msg, m.keys.Toggle):
		u, ok := m.selected()
		if !ok {
			return m, nil
		}
		m.fb.confirm = false
		m.pending = u
		m.confirmForm = m.buildConfirmForm(u)
		m.mode = modeConfirmToggle
		return m, m.confirmForm.Init()
	}
	return m, nil
}

func (m Model) updateConfirm(msg tea.Msg) (Model, tea.Cmd) {
	if m.confirmForm == nil {
		m.mode = modeList
		return m, nil
	}
	mdl, cmd := m.confirmForm.Update(msg)
	if f, ok := mdl.(*huh.Form); ok {
		m.confirmForm = f
	}

	switch m.confirmForm.State {
	case huh.StateCompleted:
		if !m.fb.confirm {
			m.mode = modeList
			m.pending = model.User{}
			return m, nil
		}
		m.mode = modeToggling
		return m, m.toggle(m.pending)
	case huh.StateAborted:
		m.mode = modeList
		m.pending = model.User{}
		return m, nil
	}
	return m, cmd
}

func (m Model) buildConfirmForm(u model.User) *huh.Form {
	title := fmt.Sprintf("Deactivate %s?", u.FullName())
	desc := "The user will no longer be able to sign in."
	affirm := "Yes, deactivate"
	if !u.IsActive {
		title = fmt.Sprintf("Activate %s?", u.FullName())
		desc = "The user will be able to sign in again."
		affirm = "Yes, activate"
	}
	return huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title(title).
				Description(desc).
				Affirmative(affirm).
				Negative("Cancel").
				Value(&m.fb.confirm),
		),
	).WithKeyMap(ui.FormKeyMap()).WithWidth(ui.FormWidth(m.width)).WithHeight(ui.FormHeight(m.height))
}

func (m Model) selected() (model.User, bool) {
	c := m.table.Cursor()
	if c < 0 || c >= len(m.users) {
		return model.User{}, false
	}
	return m.users[c], true
}

func nextRole(r model.Role) model.Role {
	for i, f := range roleFilters {
		if f == r {
			return roleFilters[(i+1)%len(roleFilters)]
		}
	}
	return ""
}

func nextStatus(s model.UserStatus) model.UserStatus {
	for i, f := range statusFilters {
		if f == s {
			return statusFilters[(i+1)%len(statusFilters)]
		}
	}
	return ""
}

// View renders the user list.
func (m Model) View() string {
	if m.mode == modeConfirmToggle && m.confirmForm != nil {
		return lipgloss.NewStyle().Padding(1, 2).Render(m.confirmForm.View())
	}

	var b strings.Builder
	b.WriteString(theme.TitleStyle.Render("Users"))
	b.WriteString("  ")
	status := "All statuses"
	if m.filter.Status != "" {
		status = strings.ToUpper(string(m.filter.Status[:1])) + string(m.filter.Status[1:])
	}
	b.WriteString(theme.DimmedStyle.Render(fmt.Sprintf("role: %s · status: %s", m.filter.Role.Label(), status)))
	b.WriteString("\n\n")

	if m.errMsg != "" {
		b.WriteString(theme.ErrorStyle.Render(m.errMsg) + "\n")
	}
	if m.success != "" {
		b.WriteString(theme.SuccessStyle.Render(m.success) + "\n")
	}
	if m.mode == modeToggling {
		b.WriteString(theme.DimmedStyle.Render("Updating "+m.pending.FullName()+"...") + "\n")
	}

	switch {
	case m.loading && len(m.users) == 0:
		b.WriteString(m.spinner.View() + " Loading users...")
	case len(m.users) == 0:
		b.WriteString(theme.DimmedStyle.Italic(true).Render("No users match the current filters."))
	default:
		b.WriteString(m.table.View())
		b.WriteString("\n")
		b.WriteString(activeSummary(m.users))
	}

	b.WriteString("\n\n")
	b.WriteString(theme.HelpStyle.Render("e edit | x activate/deactivate | f role | s status | r refresh | esc back"))

	return lipgloss.NewStyle().Padding(1, 2).Render(b.String())
}

// SetSize updates the list dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.table.SetColumns(columns(width))
	m.table.SetHeight(tableHeight(height))
}

func columns(width int) []table.Column {
	name := 24
	email := 28
	if width > 110 {
		email = width - 80
	}
	return []table.Column{
		{Title: "Name", Width: name},
		{Title: "Username", Width: 14},
		{Title: "Email", Width: email},
		{Title: "Role", Width: 10},
		{Title: "Status", Width: 10},
	}
}

func rows(users []model.User) []table.Row {
	out := make([]table.Row, len(users))
	for i, u := range users {
		role := u.Role.Label()
		if u.Speciality != "" && u.Role.HasSpeciality() {
			role = fmt.Sprintf("%s (%s)", role, u.Speciality)
		}
		out[i] = table.Row{u.FullName(), u.Username, u.Email, role, string(u.Status())}
	}
	return out
}

func activeSummary(users []model.User) string {
	active := 0
	for _, u := range users {
		if u.IsActive {
			active++
		}
	}
	return theme.UserStatusStyle(true).Render(fmt.Sprintf("%d active", active)) +
		theme.DimmedStyle.Render(" · ") +
		theme.UserStatusStyle(false).Render(fmt.Sprintf("%d inactive", len(users)-active))
}

func tableHeight(h int) int {
	th := h - 10
	if th < 5 {
		th = 5
	}
	return th
}

func tableStyles() table.Styles {
	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(theme.ColorGray).
		BorderBottom(true).
		Bold(true)
	s.Selected = s.Selected.
		Foreground(theme.ColorWhite).
		Background(theme.ColorBlue).
		Bold(false)
	return s
}

// fetch issues one list request for the current filter. Responses to
// superseded requests are dropped.
func (m *Model) fetch() tea.Cmd {
	m.reqSeq++
	m.loading = true
	seq := m.reqSeq
	svc := m.svc
	filter := m.filter
	return tea.Batch(m.spinner.Tick, func() tea.Msg {
		ctx, cancel := ui.RequestContext()
		defer cancel()
		users, err := svc.List(ctx, filter)
		return usersLoadedMsg{seq: seq, users: users, err: err}
	})
}

func (m Model) toggle(u model.User) tea.Cmd {
	svc := m.svc
	activate := !u.IsActive
	return func() tea.Msg {
		ctx, cancel := ui.RequestContext()
		defer cancel()
		var err error
		if activate {
			err = svc.Activate(ctx, u.ID)
		} else {
			err = svc.Deactivate(ctx, u.ID)
		}
		return toggledMsg{user: u, activate: activate, err: err}
	}
}
