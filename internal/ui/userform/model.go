// Package userform is the edit dialog for a single user account.
package userform

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/hospital-admin/internal/api"
	"github.com/nhle/hospital-admin/internal/model"
	"github.com/nhle/hospital-admin/internal/service"
	"github.com/nhle/hospital-admin/internal/theme"
	"github.com/nhle/hospital-admin/internal/ui"
	"github.com/nhle/hospital-admin/internal/validate"
)

const owner = "userform"

// SavedMsg is dispatched after the user was updated.
type SavedMsg struct {
	User model.User
}

// CancelMsg is dispatched when the user closes the dialog.
type CancelMsg struct{}

type savedResultMsg struct {
	user *model.User
	err  error
}

// Values holds the editable fields of a user. It lives on the heap so huh's
// Value() pointers remain valid across Bubble Tea model copies.
type Values struct {
	FirstName  string
	LastName   string
	Email      string
	Phone      string
	Role       model.Role
	Speciality string
}

// ValuesFrom copies the editable fields of u.
func ValuesFrom(u model.User) Values {
	return Values{
		FirstName:  u.FirstName,
		LastName:   u.LastName,
		Email:      u.Email,
		Phone:      u.Phone,
		Role:       u.Role,
		Speciality: u.Speciality,
	}
}

// Validate returns the first failing rule.
func (v Values) Validate() error {
	return validate.First(
		validate.Required("First name", v.FirstName),
		validate.Required("Last name", v.LastName),
		validate.Required("Email", v.Email),
		validate.Email(v.Email),
		validate.MinPhoneLength(v.Phone, 10),
		validate.OneOf("Role", string(v.Role), roleNames()...),
	)
}

// BuildUpdate returns the PATCH payload. Speciality is included only when
// the role carries one and the value is non-empty.
func BuildUpdate(v Values) model.UserUpdate {
	trim := func(s string) *string {
		s = strings.TrimSpace(s)
		return &s
	}

	upd := model.UserUpdate{
		FirstName: trim(v.FirstName),
		LastName:  trim(v.LastName),
		Email:     trim(v.Email),
		Phone:     trim(v.Phone),
	}
	if v.Role != "" {
		role := v.Role
		upd.Role = &role
	}
	if v.Role.HasSpeciality() && strings.TrimSpace(v.Speciality) != "" {
		upd.Speciality = trim(v.Speciality)
	}
	return upd
}

func roleNames() []string {
	names := make([]string, len(model.Roles))
	for i, r := range model.Roles {
		names[i] = string(r)
	}
	return names
}

// Model is the Bubble Tea model for the edit-user dialog.
type Model struct {
	svc     service.Users
	user    model.User
	values  *Values
	form    *huh.Form
	saving  bool
	spinner spinner.Model
	errMsg  string
	success string
	seq     int
	width   int
	height  int
}

// New creates an idle dialog. Call Start to edit a user.
func New(svc service.Users, width, height int) Model {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(theme.ColorBlue)

	return Model{
		svc:     svc,
		values:  &Values{},
		spinner: sp,
		width:   width,
		height:  height,
	}
}

// Start initializes the dialog for u.
func (m *Model) Start(u model.User) tea.Cmd {
	m.user = u
	*m.values = ValuesFrom(u)
	m.saving = false
	m.errMsg = ""
	m.success = ""
	m.form = m.buildForm()
	return m.form.Init()
}

// User returns the user being edited.
func (m Model) User() model.User {
	return m.user
}

// Update handles messages for the dialog.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case savedResultMsg:
		return m.handleSaved(msg)

	case ui.ClearStatusMsg:
		if msg.Owner == owner && msg.Seq == m.seq {
			m.success = ""
		}
		return m, nil

	case spinner.TickMsg:
		if !m.saving {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	if m.form == nil || m.saving {
		return m, nil
	}

	mdl, cmd := m.form.Update(msg)
	if f, ok := mdl.(*huh.Form); ok {
		m.form = f
	}

	if m.form.State == huh.StateCompleted {
		return m.submit()
	}
	if m.form.State == huh.StateAborted {
		return m, ui.Emit(CancelMsg{})
	}

	return m, cmd
}

// submit validates and, on success, issues exactly one update call.
func (m Model) submit() (Model, tea.Cmd) {
	if err := m.values.Validate(); err != nil {
		m.errMsg = err.Error()
		m.success = ""
		m.form = m.buildForm()
		return m, m.form.Init()
	}

	m.saving = true
	m.errMsg = ""
	return m, tea.Batch(m.spinner.Tick, m.save())
}

func (m Model) handleSaved(msg savedResultMsg) (Model, tea.Cmd) {
	m.saving = false
	m.form = m.buildForm()

	if msg.err != nil {
		m.errMsg = api.Message(msg.err, "Failed to update user")
		return m, tea.Batch(m.form.Init(), ui.AuthCheck(msg.err))
	}

	m.user = *msg.user
	*m.values = ValuesFrom(*msg.user)
	m.success = fmt.Sprintf("%s updated", msg.user.FullName())
	m.seq++

	return m, tea.Batch(
		m.form.Init(),
		ui.ClearAfter(owner, m.seq),
		ui.Emit(SavedMsg{User: *msg.user}),
	)
}

func (m Model) buildForm() *huh.Form {
	roleOpts := make([]huh.Option[model.Role], len(model.Roles))
	for i, r := range model.Roles {
		roleOpts[i] = huh.NewOption(r.Label(), r)
	}
	values := m.values

	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().Title("First name").Value(&values.FirstName),
			huh.NewInput().Title("Last name").Value(&values.LastName),
			huh.NewInput().Title("Email").Value(&values.Email),
			huh.NewInput().Title("Phone").Placeholder("optional, at least 10 digits").Value(&values.Phone),
			huh.NewSelect[model.Role]().
				Title("Role").
				Options(roleOpts...).
				Value(&values.Role),
		),
		huh.NewGroup(
			huh.NewInput().
				Title("Speciality").
				Placeholder("e.g. Cardiology").
				Value(&values.Speciality),
		).WithHideFunc(func() bool {
			return !values.Role.HasSpeciality()
		}),
	).WithKeyMap(ui.FormKeyMap()).WithWidth(ui.FormWidth(m.width)).WithHeight(ui.FormHeight(m.height))
}

// View renders the dialog.
func (m Model) View() string {
	var b strings.Builder
	b.WriteString(theme.TitleStyle.Render(fmt.Sprintf("Edit user · %s", m.user.Username)))
	b.WriteString("\n")

	if m.errMsg != "" {
		b.WriteString(theme.ErrorStyle.Render(m.errMsg) + "\n")
	}
	if m.success != "" {
		b.WriteString(theme.SuccessStyle.Render(m.success) + "\n")
	}

	if m.saving {
		b.WriteString(m.spinner.View() + " Saving...")
	} else if m.form != nil {
		b.WriteString(m.form.View())
	}

	return lipgloss.NewStyle().Padding(1, 2).Render(b.String())
}

// SetSize updates the dialog dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
}

func (m Model) save() tea.Cmd {
	svc := m.svc
	id := m.user.ID
	upd := BuildUpdate(*m.values)
	return func() tea.Msg {
		ctx, cancel := ui.RequestContext()
		defer cancel()
		u, err := svc.Update(ctx, id, upd)
		return savedResultMsg{user: u, err: err}
	}
}
