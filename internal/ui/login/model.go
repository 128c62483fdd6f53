// Package login is the sign-in screen.
package login

import (
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/hospital-admin/internal/api"
	"github.com/nhle/hospital-admin/internal/credential"
	"github.com/nhle/hospital-admin/internal/logger"
	"github.com/nhle/hospital-admin/internal/model"
	"github.com/nhle/hospital-admin/internal/service"
	"github.com/nhle/hospital-admin/internal/theme"
	"github.com/nhle/hospital-admin/internal/ui"
	"github.com/nhle/hospital-admin/internal/validate"
)

// LoggedInMsg is dispatched after a successful sign-in.
type LoggedInMsg struct {
	Session model.Session
}

type loginResultMsg struct {
	session *model.Session
	err     error
}

type formBindings struct {
	username string
	password string
}

// TokenSaver persists the session token.
type TokenSaver func(token string) error

func keyringSaver(token string) error {
	return credential.Set(credential.SessionTokenKey, token)
}

// Model is the Bubble Tea model for the sign-in screen.
type Model struct {
	auth      service.Auth
	saveToken TokenSaver
	fb        *formBindings
	form      *huh.Form
	busy      bool
	spinner   spinner.Model
	notice    string
	errMsg    string
	width     int
	height    int
}

// New creates a sign-in screen that stores the token in the system keyring.
func New(auth service.Auth, width, height int) Model {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(theme.ColorBlue)

	m := Model{
		auth:      auth,
		saveToken: keyringSaver,
		fb:        &formBindings{},
		spinner:   sp,
		width:     width,
		height:    height,
	}
	m.form = m.buildForm()
	return m
}

// WithTokenSaver replaces the keyring token store.
func (m Model) WithTokenSaver(save TokenSaver) Model {
	m.saveToken = save
	return m
}

// Init initializes the form.
func (m Model) Init() tea.Cmd {
	return m.form.Init()
}

// Reset clears the form and shows notice above it.
func (m *Model) Reset(notice string) tea.Cmd {
	m.fb.password = ""
	m.busy = false
	m.errMsg = ""
	m.notice = notice
	m.form = m.buildForm()
	return m.form.Init()
}

// Update handles messages for the sign-in screen.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case loginResultMsg:
		m.busy = false
		if msg.err != nil {
			m.errMsg = api.Message(msg.err, "Login failed")
			m.fb.password = ""
			m.form = m.buildForm()
			return m, m.form.Init()
		}
		m.errMsg = ""
		m.notice = ""
		return m, ui.Emit(LoggedInMsg{Session: *msg.session})

	case spinner.TickMsg:
		if !m.busy {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	if m.busy {
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
		return m, tea.Quit
	}
	return m, cmd
}

func (m Model) submit() (Model, tea.Cmd) {
	err := validate.First(
		validate.Required("Username", m.fb.username),
		validate.Required("Password", m.fb.password),
	)
	if err != nil {
		m.errMsg = err.Error()
		m.form = m.buildForm()
		return m, m.form.Init()
	}

	m.busy = true
	m.errMsg = ""
	return m, tea.Batch(m.spinner.Tick, m.login())
}

func (m Model) buildForm() *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().Title("Username").Value(&m.fb.username),
			huh.NewInput().Title("Password").EchoMode(huh.EchoModePassword).Value(&m.fb.password),
		),
	).WithKeyMap(ui.FormKeyMap()).WithWidth(ui.FormWidth(m.width)).WithHeight(ui.FormHeight(m.height))
}

// View renders the sign-in screen.
func (m Model) View() string {
	var b strings.Builder
	b.WriteString(theme.TitleStyle.Render("Sign in"))
	b.WriteString("\n")

	if m.notice != "" {
		b.WriteString(theme.HelpStyle.Render(m.notice) + "\n")
	}
	if m.errMsg != "" {
		b.WriteString(theme.ErrorStyle.Render(m.errMsg) + "\n")
	}

	if m.busy {
		b.WriteString(m.spinner.View() + " Signing in...")
	} else {
		b.WriteString(m.form.View())
	}

	return lipgloss.NewStyle().Padding(1, 2).Render(b.String())
}

// SetSize updates the screen dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
}

func (m Model) login() tea.Cmd {
	auth := m.auth
	save := m.saveToken
	username := strings.TrimSpace(m.fb.username)
	password := m.fb.password
	return func() tea.Msg {
		ctx, cancel := ui.RequestContext()
		defer cancel()

		session, err := auth.Login(ctx, username, password)
		if err != nil {
			return loginResultMsg{err: err}
		}
		if save != nil {
			if err := save(session.Token); err != nil {
				logger.Warnf("saving session token: %v", err)
			}
		}
		return loginResultMsg{session: session}
	}
}
