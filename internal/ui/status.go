package ui

import (
	"context"
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/nhle/hospital-admin/internal/api"
)

// MessageClearDelay is how long transient success messages stay on screen.
var MessageClearDelay = 3 * time.Second

// RequestTimeout bounds the context views hand to service calls.
var RequestTimeout = 30 * time.Second

// AuthExpiredMsg tells the root model that the server rejected the session.
type AuthExpiredMsg struct{}

// ClearStatusMsg clears a view's success message. Views ignore it unless
// Owner and Seq match the message they showed last.
type ClearStatusMsg struct {
	Owner string
	Seq   int
}

// ClearAfter returns a command that emits ClearStatusMsg after
// MessageClearDelay.
func ClearAfter(owner string, seq int) tea.Cmd {
	return tea.Tick(MessageClearDelay, func(time.Time) tea.Msg {
		return ClearStatusMsg{Owner: owner, Seq: seq}
	})
}

// Emit wraps msg in a command.
func Emit(msg tea.Msg) tea.Cmd {
	return func() tea.Msg { return msg }
}

// AuthCheck returns a command emitting AuthExpiredMsg when err is a 401,
// otherwise nil.
func AuthCheck(err error) tea.Cmd {
	if api.IsAuthError(err) {
		return Emit(AuthExpiredMsg{})
	}
	return nil
}

// RequestContext returns a context bounded by RequestTimeout.
func RequestContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), RequestTimeout)
}

// RelativeTime formats t relative to now, e.g. "5m ago".
func RelativeTime(t, now time.Time) string {
	if t.IsZero() {
		return ""
	}

	d := now.Sub(t)
	switch {
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		return fmt.Sprintf("%dm ago", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(d.Hours()))
	case d < 7*24*time.Hour:
		return fmt.Sprintf("%dd ago", int(d.Hours()/24))
	default:
		return t.Format("2006-01-02")
	}
}
