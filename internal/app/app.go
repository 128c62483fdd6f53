package app

import (
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/nhle/hospital-admin/internal/api"
	"github.com/nhle/hospital-admin/internal/keys"
	"github.com/nhle/hospital-admin/internal/logger"
	"github.com/nhle/hospital-admin/internal/model"
	"github.com/nhle/hospital-admin/internal/notify"
	"github.com/nhle/hospital-admin/internal/service"
	"github.com/nhle/hospital-admin/internal/theme"
	"github.com/nhle/hospital-admin/internal/ui"
	"github.com/nhle/hospital-admin/internal/ui/broadcastform"
	"github.com/nhle/hospital-admin/internal/ui/command"
	helpview "github.com/nhle/hospital-admin/internal/ui/help"
	"github.com/nhle/hospital-admin/internal/ui/hospitalform"
	journalview "github.com/nhle/hospital-admin/internal/ui/journal"
	"github.com/nhle/hospital-admin/internal/ui/login"
	"github.com/nhle/hospital-admin/internal/ui/notifications"
	"github.com/nhle/hospital-admin/internal/ui/resourcelist"
	"github.com/nhle/hospital-admin/internal/ui/userform"
	"github.com/nhle/hospital-admin/internal/ui/userlist"
)

const owner = "app"

// ViewState represents the current active view in the application.
type ViewState int

const (
	ViewLogin ViewState = iota
	ViewUsers
	ViewUserEdit
	ViewResources
	ViewHospital
	ViewBroadcast
	ViewJournal
	ViewHelp
	ViewCommand
)

// Deps are the collaborators the console runs against.
type Deps struct {
	Client        *api.Client
	Auth          service.Auth
	Users         service.Users
	Resources     service.Resources
	Hospitals     service.Hospitals
	Notifications service.Notifications
	Journal       journalview.Reader

	// PollInterval overrides notify.DefaultPollInterval when positive.
	PollInterval time.Duration

	// Token is the stored session token. Empty starts at the login view.
	Token string

	// SaveToken and ClearToken persist the session token. Nil skips.
	SaveToken  login.TokenSaver
	ClearToken func() error
}

type meLoadedMsg struct {
	user *model.User
	err  error
}

type loggedOutMsg struct{}

// resumeMsg starts a session from a stored token.
type resumeMsg struct{}

// Model is the root Bubble Tea model that manages view routing, layout and
// the lifetime of the signed-in session.
type Model struct {
	deps         Deps
	currentView  ViewState
	previousView ViewState
	layout       ui.Layout
	keys         *keys.KeyMap

	// Session state. center and dropdown exist only while signed in.
	user     *model.User
	center   *notify.Center
	dropdown notifications.Model
	signedIn bool

	loginView     login.Model
	userList      userlist.Model
	userForm      userform.Model
	resourceList  resourcelist.Model
	hospitalForm  hospitalform.Model
	broadcastForm broadcastform.Model
	journalView   journalview.Model
	helpView      helpview.Model
	commandView   command.Model

	usersRefresh     int
	resourcesRefresh int
	statusMsg        string
	statusSeq        int
	ready            bool
}

// New creates the root model.
func New(deps Deps) Model {
	k := keys.DefaultKeyMap()

	lv := login.New(deps.Auth, 80, 24)
	if deps.SaveToken != nil {
		lv = lv.WithTokenSaver(deps.SaveToken)
	}

	return Model{
		deps:          deps,
		currentView:   ViewLogin,
		keys:          k,
		layout:        ui.NewLayout(80, 24),
		loginView:     lv,
		userList:      userlist.New(deps.Users, k, 80, 24),
		userForm:      userform.New(deps.Users, 80, 24),
		resourceList:  resourcelist.New(deps.Resources, k, 80, 24),
		hospitalForm:  hospitalform.New(deps.Hospitals, k, 80, 24),
		broadcastForm: broadcastform.New(deps.Notifications, 80, 24),
		journalView:   journalview.New(deps.Journal, k, 80, 24),
		helpView:      helpview.New(k, 80, 24),
		commandView:   command.New(80, 24),
	}
}

// Init resumes a stored session or shows the login view.
func (m Model) Init() tea.Cmd {
	if m.deps.Token == "" {
		return m.loginView.Init()
	}
	m.deps.Client.SetToken(m.deps.Token)
	return ui.Emit(resumeMsg{})
}

// CurrentView returns the active view.
func (m Model) CurrentView() ViewState {
	return m.currentView
}

// SignedIn reports whether a session is active.
func (m Model) SignedIn() bool {
	return m.signedIn
}

// Update handles messages and dispatches to the active view.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.layout = ui.NewLayout(msg.Width, msg.Height)
		m.ready = true
		m.setSizes(m.layout.ContentWidth(), m.layout.ContentHeight())
		return m.updateActiveView(msg)

	case resumeMsg:
		cmd := m.startSession()
		return m, cmd

	case login.LoggedInMsg:
		m.deps.Client.SetToken(msg.Session.Token)
		user := msg.Session.User
		m.user = &user
		cmd := m.startSession()
		return m, cmd

	case meLoadedMsg:
		if msg.err != nil {
			logger.Warnf("loading signed-in user: %v", msg.err)
			return m, ui.AuthCheck(msg.err)
		}
		m.user = msg.user
		return m, nil

	case ui.AuthExpiredMsg:
		if !m.signedIn {
			return m, nil
		}
		logger.Infof("session rejected by server, returning to login")
		cmd := m.endSession("Your session has expired. Please sign in again.")
		return m, cmd

	case loggedOutMsg:
		cmd := m.endSession("Signed out.")
		return m, cmd

	case notifications.SnapshotMsg:
		if !m.signedIn {
			return m, nil
		}
		var cmd tea.Cmd
		m.dropdown, cmd = m.dropdown.Update(msg)
		return m, cmd

	case ui.ClearStatusMsg:
		if msg.Owner == owner {
			if msg.Seq == m.statusSeq {
				m.statusMsg = ""
			}
			return m, nil
		}
		return m.updateActiveView(msg)

	case userlist.EditUserMsg:
		m.previousView = m.currentView
		m.currentView = ViewUserEdit
		return m, m.userForm.Start(msg.User)

	case userform.SavedMsg:
		m.currentView = ViewUsers
		m.usersRefresh++
		return m, tea.Batch(
			m.userList.SetRefreshTrigger(m.usersRefresh),
			m.flash(fmt.Sprintf("%s updated", msg.User.FullName())),
		)

	case userform.CancelMsg:
		m.currentView = ViewUsers
		return m, nil

	case hospitalform.SavedMsg:
		if msg.Created {
			logger.Infof("hospital record %d created", msg.Hospital.ID)
		}
		return m, nil

	case hospitalform.CloseMsg, broadcastform.CancelMsg, resourcelist.CloseMsg, journalview.CloseMsg:
		return m, m.switchTo(ViewUsers)

	case userlist.CloseMsg:
		return m, nil

	case command.CommandMsg:
		m.currentView = m.previousView
		return m, m.executeCommand(string(msg))

	case command.CancelMsg:
		m.currentView = m.previousView
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	return m.updateActiveView(msg)
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "ctrl+c" {
		m.shutdown()
		return m, tea.Quit
	}

	if m.currentView == ViewLogin {
		return m.updateActiveView(msg)
	}

	if m.signedIn && m.dropdown.IsOpen() {
		var cmd tea.Cmd
		m.dropdown, cmd = m.dropdown.Update(msg)
		return m, cmd
	}

	// The palette's text input uses ctrl+n for suggestions.
	if m.signedIn && m.currentView != ViewCommand && key.Matches(msg, m.keys.NotificationsGlobal) {
		return m, m.dropdown.Toggle()
	}

	if m.currentView == ViewHelp {
		if key.Matches(msg, m.keys.Help) || key.Matches(msg, m.keys.Back) {
			m.currentView = m.previousView
		}
		return m, nil
	}

	// Forms and the palette own the keyboard.
	if !m.acceptsShortcuts() {
		return m.updateActiveView(msg)
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		m.shutdown()
		return m, tea.Quit

	case key.Matches(msg, m.keys.Help):
		m.helpView.SetContext(m.sectionTitle(), m.viewBindings()...)
		m.previousView = m.currentView
		m.currentView = ViewHelp
		return m, nil

	case key.Matches(msg, m.keys.Command):
		m.previousView = m.currentView
		m.currentView = ViewCommand
		return m, m.commandView.Focus()

	case key.Matches(msg, m.keys.Notifications):
		return m, m.dropdown.Toggle()

	case key.Matches(msg, m.keys.Users):
		return m, m.switchTo(ViewUsers)
	case key.Matches(msg, m.keys.Resources):
		return m, m.switchTo(ViewResources)
	case key.Matches(msg, m.keys.Hospital):
		return m, m.switchTo(ViewHospital)
	case key.Matches(msg, m.keys.Broadcast):
		return m, m.switchTo(ViewBroadcast)
	case key.Matches(msg, m.keys.Journal):
		return m, m.switchTo(ViewJournal)
	}

	return m.updateActiveView(msg)
}

// acceptsShortcuts reports whether single-key global shortcuts apply. Views
// that host text input receive every key instead.
func (m Model) acceptsShortcuts() bool {
	switch m.currentView {
	case ViewUsers, ViewResources, ViewJournal:
		return !m.inConfirm()
	}
	return false
}

func (m Model) inConfirm() bool {
	switch m.currentView {
	case ViewUsers:
		return m.userList.Confirming()
	case ViewResources:
		return m.resourceList.Confirming()
	}
	return false
}

// updateActiveView dispatches the message to the currently active view.
func (m Model) updateActiveView(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch m.currentView {
	case ViewLogin:
		m.loginView, cmd = m.loginView.Update(msg)
	case ViewUsers:
		m.userList, cmd = m.userList.Update(msg)
	case ViewUserEdit:
		m.userForm, cmd = m.userForm.Update(msg)
	case ViewResources:
		m.resourceList, cmd = m.resourceList.Update(msg)
	case ViewHospital:
		m.hospitalForm, cmd = m.hospitalForm.Update(msg)
	case ViewBroadcast:
		m.broadcastForm, cmd = m.broadcastForm.Update(msg)
	case ViewJournal:
		m.journalView, cmd = m.journalView.Update(msg)
	case ViewHelp:
		m.helpView, cmd = m.helpView.Update(msg)
	case ViewCommand:
		m.commandView, cmd = m.commandView.Update(msg)
	}

	return m, cmd
}

// switchTo activates a section view and reloads it.
func (m *Model) switchTo(v ViewState) tea.Cmd {
	if !m.signedIn {
		return nil
	}
	m.previousView = m.currentView
	m.currentView = v

	switch v {
	case ViewUsers:
		return m.userList.Init()
	case ViewResources:
		return m.resourceList.Init()
	case ViewHospital:
		return m.hospitalForm.Reload()
	case ViewBroadcast:
		return m.broadcastForm.Reset()
	case ViewJournal:
		return m.journalView.Init()
	}
	return nil
}

// startSession creates the notification center for a new session, starts
// polling and opens the user list.
func (m *Model) startSession() tea.Cmd {
	if m.signedIn {
		m.closeCenter()
	}

	var opts []notify.Option
	if m.deps.PollInterval > 0 {
		opts = append(opts, notify.WithPollInterval(m.deps.PollInterval))
	}
	m.center = notify.New(m.deps.Notifications, opts...)
	m.dropdown = notifications.New(m.center, m.keys)
	m.dropdown.SetSize(m.layout.ContentWidth(), m.layout.ContentHeight())
	if err := m.center.Mount(); err != nil {
		logger.Errorf("starting notification polling: %v", err)
	}
	m.signedIn = true

	cmds := []tea.Cmd{m.dropdown.Init(), m.switchTo(ViewUsers)}
	if m.user == nil {
		cmds = append(cmds, m.loadMe())
	}
	return tea.Batch(cmds...)
}

// endSession disposes the notification center, forgets the token and
// returns to the login view.
func (m *Model) endSession(notice string) tea.Cmd {
	m.closeCenter()
	m.signedIn = false
	m.user = nil
	m.deps.Client.SetToken("")
	if m.deps.ClearToken != nil {
		if err := m.deps.ClearToken(); err != nil {
			logger.Warnf("clearing stored session token: %v", err)
		}
	}
	m.currentView = ViewLogin
	return m.loginView.Reset(notice)
}

func (m *Model) closeCenter() {
	if m.center == nil {
		return
	}
	m.dropdown.Stop()
	if err := m.center.Close(); err != nil {
		logger.Warnf("stopping notification polling: %v", err)
	}
	m.center = nil
}

func (m *Model) shutdown() {
	m.closeCenter()
	m.signedIn = false
}

// flash shows msg in the status bar for ui.MessageClearDelay.
func (m *Model) flash(msg string) tea.Cmd {
	m.statusMsg = msg
	m.statusSeq++
	return ui.ClearAfter(owner, m.statusSeq)
}

func (m *Model) setSizes(w, h int) {
	m.loginView.SetSize(w, h)
	m.userList.SetSize(w, h)
	m.userForm.SetSize(w, h)
	m.resourceList.SetSize(w, h)
	m.hospitalForm.SetSize(w, h)
	m.broadcastForm.SetSize(w, h)
	m.journalView.SetSize(w, h)
	m.helpView.SetSize(w, h)
	m.commandView.SetSize(w, h)
	if m.signedIn {
		m.dropdown.SetSize(w, h)
	}
}

// View renders the full terminal UI using the layout manager.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}

	header := m.layout.RenderHeader("Hospital Admin · "+m.sectionTitle(), m.sessionStatus())
	content := m.renderContent()
	if m.signedIn && m.dropdown.IsOpen() {
		content = m.layout.RenderOverlay(content, m.dropdown.View())
	}
	statusBar := m.layout.RenderStatusBar(m.keyHints())

	return m.layout.RenderWithFrame(header, content, statusBar)
}

// renderContent returns the rendered string for the current active view.
func (m Model) renderContent() string {
	switch m.currentView {
	case ViewLogin:
		return m.loginView.View()
	case ViewUsers:
		return m.userList.View()
	case ViewUserEdit:
		return m.userForm.View()
	case ViewResources:
		return m.resourceList.View()
	case ViewHospital:
		return m.hospitalForm.View()
	case ViewBroadcast:
		return m.broadcastForm.View()
	case ViewJournal:
		return m.journalView.View()
	case ViewHelp:
		return m.helpView.View()
	case ViewCommand:
		return m.commandView.View()
	default:
		return ""
	}
}

func (m Model) sectionTitle() string {
	switch m.currentView {
	case ViewLogin:
		return "Sign in"
	case ViewUsers, ViewUserEdit:
		return "Users"
	case ViewResources:
		return "Resources"
	case ViewHospital:
		return "Hospital"
	case ViewBroadcast:
		return "Broadcast"
	case ViewJournal:
		return "History"
	case ViewHelp:
		return "Help"
	case ViewCommand:
		return "Command"
	}
	return ""
}

// sessionStatus renders the signed-in user and the unread badge.
func (m Model) sessionStatus() string {
	if !m.signedIn {
		return "signed out"
	}
	name := "…"
	if m.user != nil {
		name = m.user.FullName()
	}
	if badge := m.dropdown.Badge(); badge != "" {
		return name + "  🔔 " + badge
	}
	return name + "  🔔"
}

// viewBindings returns the bindings specific to the active view for the
// help overlay.
func (m Model) viewBindings() []key.Binding {
	switch m.currentView {
	case ViewUsers:
		return []key.Binding{m.keys.Edit, m.keys.Toggle, m.keys.Filter, m.keys.FilterStatus, m.keys.Refresh}
	case ViewResources:
		return []key.Binding{m.keys.Filter, m.keys.Delete, m.keys.Refresh}
	case ViewJournal:
		return []key.Binding{m.keys.Filter, m.keys.Refresh}
	}
	return nil
}

// keyHints returns keyboard shortcut hints for the status bar.
func (m Model) keyHints() string {
	if m.statusMsg != "" {
		return theme.SuccessStyle.Render(m.statusMsg)
	}
	if m.signedIn && m.dropdown.IsOpen() {
		return "enter read | A all read | d delete | esc close"
	}

	switch m.currentView {
	case ViewLogin:
		return "enter submit | esc quit"
	case ViewHelp:
		return "? close help | esc back"
	case ViewCommand:
		return "enter execute | tab complete | esc back"
	case ViewUserEdit, ViewHospital, ViewBroadcast:
		return "enter submit | esc cancel | ctrl+n notifications"
	default:
		return "q quit | ? help | : command | N notifications | 1 users 2 resources 3 hospital 4 broadcast 5 history"
	}
}
