package app

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/nhle/hospital-admin/internal/logger"
	"github.com/nhle/hospital-admin/internal/ui"
)

// executeCommand handles a command name from the command palette.
func (m *Model) executeCommand(name string) tea.Cmd {
	switch name {
	case "users":
		return m.switchTo(ViewUsers)
	case "resources":
		return m.switchTo(ViewResources)
	case "hospital":
		return m.switchTo(ViewHospital)
	case "broadcast":
		return m.switchTo(ViewBroadcast)
	case "history":
		return m.switchTo(ViewJournal)
	case "notifications":
		if !m.signedIn {
			return nil
		}
		return m.dropdown.Toggle()
	case "refresh":
		return m.refresh()
	case "logout":
		return m.logout()
	case "quit":
		m.shutdown()
		return tea.Quit
	default:
		return nil
	}
}

// refresh reloads the active section and the notification list.
func (m *Model) refresh() tea.Cmd {
	if !m.signedIn {
		return nil
	}
	center := m.center
	fetch := func() tea.Msg {
		ctx, cancel := ui.RequestContext()
		defer cancel()
		_ = center.Fetch(ctx)
		return nil
	}

	var reload tea.Cmd
	switch m.currentView {
	case ViewUsers:
		m.usersRefresh++
		reload = m.userList.SetRefreshTrigger(m.usersRefresh)
	case ViewResources:
		m.resourcesRefresh++
		reload = m.resourceList.SetRefreshTrigger(m.resourcesRefresh)
	case ViewHospital:
		reload = m.hospitalForm.Reload()
	case ViewJournal:
		reload = m.journalView.Init()
	}
	return tea.Batch(fetch, reload)
}

// logout ends the server session. The local session ends whether or not the
// server call succeeds.
func (m *Model) logout() tea.Cmd {
	if !m.signedIn {
		return nil
	}
	auth := m.deps.Auth
	return func() tea.Msg {
		ctx, cancel := ui.RequestContext()
		defer cancel()
		if err := auth.Logout(ctx); err != nil {
			logger.Warnf("logging out: %v", err)
		}
		return loggedOutMsg{}
	}
}

func (m Model) loadMe() tea.Cmd {
	auth := m.deps.Auth
	return func() tea.Msg {
		ctx, cancel := ui.RequestContext()
		defer cancel()
		u, err := auth.Me(ctx)
		return meLoadedMsg{user: u, err: err}
	}
}
