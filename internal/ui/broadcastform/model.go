// Package broadcastform sends a notification to every user, or to every user
// with a given role.
package broadcastform

import (
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

const owner = "broadcastform"

// SentMsg is dispatched after a broadcast was accepted by the server.
type SentMsg struct {
	Request model.BroadcastRequest
}

// CancelMsg is dispatched when the user aborts the form.
type CancelMsg struct{}

type sentResultMsg struct {
	req model.BroadcastRequest
	err error
}

// Values holds the form fields.
type Values struct {
	Title   string
	Message string
	Role    model.Role
	Type    model.NotificationType
}

func defaultValues() Values {
	return Values{Type: model.NotificationGeneral}
}

// Validate returns the first failing rule.
func (v Values) Validate() error {
	return validate.First(
		validate.Required("Title", v.Title),
		validate.Required("Message", v.Message),
	)
}

// Request builds the broadcast payload. An empty role targets everyone.
func (v Values) Request() model.BroadcastRequest {
	t := v.Type
	if !t.Valid() {
		t = model.NotificationGeneral
	}
	return model.BroadcastRequest{
		Title:   strings.TrimSpace(v.Title),
		Message: strings.TrimSpace(v.Message),
		Role:    v.Role,
		Type:    t,
	}
}

// Model is the Bubble Tea model for the broadcast form.
type Model struct {
	svc     service.Notifications
	values  *Values
	form    *huh.Form
	sending bool
	spinner spinner.Model
	errMsg  string
	success string
	seq     int
	width   int
	height  int
}

// New creates a broadcast form with default values.
func New(svc service.Notifications, width, height int) Model {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(theme.ColorBlue)

	v := defaultValues()
	m := Model{
		svc:     svc,
		values:  &v,
		spinner: sp,
		width:   width,
		height:  height,
	}
	m.form = m.buildForm()
	return m
}

// Init initializes the form.
func (m Model) Init() tea.Cmd {
	return m.form.Init()
}

// Reset clears the fields and messages.
func (m *Model) Reset() tea.Cmd {
	*m.values = defaultValues()
	m.errMsg = ""
	m.sending = false
	m.form = m.buildForm()
	return m.form.Init()
}

// Update handles messages for the broadcast form.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case sentResultMsg:
		return m.handleSent(msg)

	case ui.ClearStatusMsg:
		if msg.Owner == owner && msg.Seq == m.seq {
			m.success = ""
		}
		return m, nil

	case spinner.TickMsg:
		if !m.sending {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	if m.sending {
		return m, nil
	}

	mdl, cmd := m.form.Update(msg)
	if f, ok := mdl.(*huh.Form); ok {
		m.form = f
	}

	switch m.form.State {
	case huh.StateCompleted:
		return m.submit()
	case huh.StateAborted:
		return m, ui.Emit(CancelMsg{})
	}

	return m, cmd
}

func (m Model) submit() (Model, tea.Cmd) {
	if err := m.values.Validate(); err != nil {
		m.errMsg = err.Error()
		m.success = ""
		m.form = m.buildForm()
		return m, m.form.Init()
	}

	m.sending = true
	m.errMsg = ""
	return m, tea.Batch(m.spinner.Tick, m.send())
}

func (m Model) handleSent(msg sentResultMsg) (Model, tea.Cmd) {
	m.sending = false

	if msg.err != nil {
		m.errMsg = api.Message(msg.err, "Failed to send notification")
		m.form = m.buildForm()
		return m, tea.Batch(m.form.Init(), ui.AuthCheck(msg.err))
	}

	initCmd := m.Reset()
	m.success = "Notification sent"
	m.seq++

	return m, tea.Batch(
		initCmd,
		ui.ClearAfter(owner, m.seq),
		ui.Emit(SentMsg{Request: msg.req}),
	)
}

func (m Model) buildForm() *huh.Form {
	roleOpts := []huh.Option[model.Role]{huh.NewOption(model.Role("").Label(), model.Role(""))}
	for _, r := range model.Roles {
		roleOpts = append(roleOpts, huh.NewOption(r.Label(), r))
	}
	typeOpts := make([]huh.Option[model.NotificationType], len(model.NotificationTypes))
	for i, t := range model.NotificationTypes {
		typeOpts[i] = huh.NewOption(t.Label(), t)
	}

	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().Title("Title").Value(&m.values.Title),
			huh.NewText().Title("Message").Lines(4).Value(&m.values.Message),
			huh.NewSelect[model.Role]().
				Title("Recipients").
				Options(roleOpts...).
				Value(&m.values.Role),
			huh.NewSelect[model.NotificationType]().
				Title("Type").
				Options(typeOpts...).
				Value(&m.values.Type),
		),
	).WithKeyMap(ui.FormKeyMap()).WithWidth(ui.FormWidth(m.width)).WithHeight(ui.FormHeight(m.height))
}

// View renders the form.
func (m Model) View() string {
	var b strings.Builder
	b.WriteString(theme.TitleStyle.Render("Broadcast notification"))
	b.WriteString("\n")

	if m.errMsg != "" {
		b.WriteString(theme.ErrorStyle.Render(m.errMsg) + "\n")
	}
	if m.success != "" {
		b.WriteString(theme.SuccessStyle.Render(m.success) + "\n")
	}

	if m.sending {
		b.WriteString(m.spinner.View() + " Sending...")
	} else {
		b.WriteString(m.form.View())
	}

	return lipgloss.NewStyle().Padding(1, 2).Render(b.String())
}

// SetSize updates the form dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
}

func (m Model) send() tea.Cmd {
	svc := m.svc
	req := m.values.Request()
	return func() tea.Msg {
		ctx, cancel := ui.RequestContext()
		defer cancel()
		return sentResultMsg{req: req, err: svc.Broadcast(ctx, req)}
	}
}
