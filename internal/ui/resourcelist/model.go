// Package resourcelist renders hospital resources filtered by type.
package resourcelist

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

const owner = "resourcelist"

// DeletedMsg is dispatched after a resource was deleted.
type DeletedMsg struct {
	Resource model.Resource
}

// CloseMsg asks the parent to leave this view.
type CloseMsg struct{}

type listMode int

const (
	modeList listMode = iota
	modeConfirmDelete
	modeDeleting
)

type resourcesLoadedMsg struct {
	seq       int
	resources []model.Resource
	err       error
}

type deletedResultMsg struct {
	resource model.Resource
	err      error
}

type formBindings struct {
	confirm bool
}

// Model is the Bubble Tea model for the resource list.
type Model struct {
	svc         service.Resources
	keys        *keys.KeyMap
	mode        listMode
	resources   []model.Resource
	typeFilter  model.ResourceType
	table       table.Model
	confirmForm *huh.Form
	fb          *formBindings
	pending     model.Resource // the resource named in the open prompt
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

// New creates a resource list model. Call Init to load resources.
func New(svc service.Resources, k *keys.KeyMap, width, height int) Model {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(theme.ColorBlue)

	t := table.New(
		table.WithColumns(columns(width)),
		table.WithFocused(true),
		table.WithHeight(tableHeight(height)),
	)
	s := table.DefaultStyles()
	s.Header = s.Header.BorderStyle(lipgloss.NormalBorder()).BorderForeground(theme.ColorGray).BorderBottom(true).Bold(true)
	s.Selected = s.Selected.Foreground(theme.ColorWhite).Background(theme.ColorBlue).Bold(false)
	t.SetStyles(s)

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

// Init loads resources for the current filter.
func (m *Model) Init() tea.Cmd {
	return m.fetch()
}

// TypeFilter returns the active resource type filter.
func (m Model) TypeFilter() model.ResourceType {
	return m.typeFilter
}

// Resources returns the rows currently shown.
func (m Model) Resources() []model.Resource {
	return m.resources
}

// Confirming reports whether a delete is being confirmed or is in flight.
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

// Update handles messages for the resource list.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case resourcesLoadedMsg:
		if msg.seq != m.reqSeq {
			return m, nil
		}
		m.loading = false
		if msg.err != nil {
			m.errMsg = api.Message(msg.err, "Failed to load resources")
			return m, ui.AuthCheck(msg.err)
		}
		m.errMsg = ""
		m.resources = msg.resources
		m.table.SetRows(rows(m.resources))
		if c := m.table.Cursor(); c >= len(m.resources) && len(m.resources) > 0 {
			m.table.SetCursor(len(m.resources) - 1)
		}
		return m, nil

	case deletedResultMsg:
		m.mode = modeList
		m.pending = model.Resource{}
		if msg.err != nil {
			m.errMsg = api.Message(msg.err, "Failed to delete resource")
			return m, ui.AuthCheck(msg.err)
		}
		m.errMsg = ""
		m.success = fmt.Sprintf("Deleted %s", msg.resource.Name)
		m.seq++
		return m, tea.Batch(
			m.fetch(),
			ui.ClearAfter(owner, m.seq),
			ui.Emit(DeletedMsg{Resource: msg.resource}),
		)

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
		case modeConfirmDelete:
			return m.updateConfirm(msg)
		case modeDeleting:
			return m, nil
		}
		return m.handleListKey(msg)
	}

	if m.mode == modeConfirmDelete {
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
		m.typeFilter = nextType(m.typeFilter)
		return m, m.fetch()

	case key.Matches(msg, m.keys.Delete):
		r, ok := m.selected()
		if !ok {
			return m, nil
		}
		m.fb.confirm = false
		m.pending = r
		m.confirmForm = m.buildConfirmForm(r)
		m.mode = modeConfirmDelete
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
			m.pending = model.Resource{}
			return m, nil
		}
		m.mode = modeDeleting
		return m, m.delete(m.pending)
	case huh.StateAborted:
		m.mode = modeList
		m.pending = model.Resource{}
		return m, nil
	}
	return m, cmd
}

func (m Model) buildConfirmForm(r model.Resource) *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title(fmt.Sprintf("Delete %s %q?", strings.ToLower(r.Type.Label()), r.Name)).
				Description("This cannot be undone.").
				Affirmative("Yes, delete").
				Negative("Cancel").
				Value(&m.fb.confirm),
		),
	).WithKeyMap(ui.FormKeyMap()).WithWidth(ui.FormWidth(m.width)).WithHeight(ui.FormHeight(m.height))
}

func (m Model) selected() (model.Resource, bool) {
	c := m.table.Cursor()
	if c < 0 || c >= len(m.resources) {
		return model.Resource{}, false
	}
	return m.resources[c], true
}

func nextType(t model.ResourceType) model.ResourceType {
	for i, f := range model.ResourceTypeFilters {
		if f == t {
			return model.ResourceTypeFilters[(i+1)%len(model.ResourceTypeFilters)]
		}
	}
	return ""
}

// View renders the resource list.
func (m Model) View() string {
	if m.mode == modeConfirmDelete && m.confirmForm != nil {
		return lipgloss.NewStyle().Padding(1, 2).Render(m.confirmForm.View())
	}

	var b strings.Builder
	b.WriteString(theme.TitleStyle.Render("Resources"))
	b.WriteString("  ")
	b.WriteString(theme.DimmedStyle.Render("type: " + m.typeFilter.Label()))
	b.WriteString("\n\n")

	if m.errMsg != "" {
		b.WriteString(theme.ErrorStyle.Render(m.errMsg) + "\n")
	}
	if m.success != "" {
		b.WriteString(theme.SuccessStyle.Render(m.success) + "\n")
	}
	if m.mode == modeDeleting {
		b.WriteString(theme.DimmedStyle.Render("Deleting "+m.pending.Name+"...") + "\n")
	}

	switch {
	case m.loading && len(m.resources) == 0:
		b.WriteString(m.spinner.View() + " Loading resources...")
	case len(m.resources) == 0:
		b.WriteString(theme.DimmedStyle.Italic(true).Render("No resources found."))
	default:
		b.WriteString(m.table.View())
		b.WriteString("\n")
		b.WriteString(statusSummary(m.resources))
	}

	b.WriteString("\n\n")
	b.WriteString(theme.HelpStyle.Render("f type | d delete | r refresh | esc back"))

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
	loc := 20
	if width > 110 {
		loc = width - 90
	}
	return []table.Column{
		{Title: "Name", Width: 24},
		{Title: "Type", Width: 18},
		{Title: "Status", Width: 12},
		{Title: "Location", Width: loc},
	}
}

func rows(resources []model.Resource) []table.Row {
	out := make([]table.Row, len(resources))
	for i, r := range resources {
		out[i] = table.Row{r.Name, r.Type.Label(), string(r.Status), r.Location}
	}
	return out
}

func statusSummary(resources []model.Resource) string {
	counts := make(map[model.ResourceStatus]int)
	for _, r := range resources {
		counts[r.Status]++
	}
	var parts []string
	for _, st := range []model.ResourceStatus{model.ResourceAvailable, model.ResourceOccupied, model.ResourceMaintenance} {
		if counts[st] == 0 {
			continue
		}
		parts = append(parts, theme.ResourceStatusStyle(string(st)).Render(fmt.Sprintf("%d %s", counts[st], st)))
	}
	return strings.Join(parts, theme.DimmedStyle.Render(" · "))
}

func tableHeight(h int) int {
	th := h - 10
	if th < 5 {
		th = 5
	}
	return th
}

// fetch issues one list request for the current type filter. Responses to
// superseded requests are dropped.
func (m *Model) fetch() tea.Cmd {
	m.reqSeq++
	m.loading = true
	seq := m.reqSeq
	svc := m.svc
	rt := m.typeFilter
	return tea.Batch(m.spinner.Tick, func() tea.Msg {
		ctx, cancel := ui.RequestContext()
		defer cancel()
		res, err := svc.List(ctx, rt)
		return resourcesLoadedMsg{seq: seq, resources: res, err: err}
	})
}

func (m Model) delete(r model.Resource) tea.Cmd {
	svc := m.svc
	return func() tea.Msg {
		ctx, cancel := ui.RequestContext()
		defer cancel()
		return deletedResultMsg{resource: r, err: svc.Delete(ctx, r.ID)}
	}
}
