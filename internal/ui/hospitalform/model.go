// Package hospitalform is the hospital configuration screen. It edits the
// single hospital record, or creates it when the server has none yet.
package hospitalform

import (
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/hospital-admin/internal/api"
	"github.com/nhle/hospital-admin/internal/keys"
	"github.com/nhle/hospital-admin/internal/model"
	"github.com/nhle/hospital-admin/internal/service"
	"github.com/nhle/hospital-admin/internal/theme"
	"github.com/nhle/hospital-admin/internal/ui"
	"github.com/nhle/hospital-admin/internal/validate"
)

const owner = "hospitalform"

// SavedMsg is dispatched after the hospital record was created or updated.
type SavedMsg struct {
	Hospital model.Hospital
	Created  bool
}

// CloseMsg asks the parent to leave this view.
type CloseMsg struct{}

type phase int

const (
	phaseLoading phase = iota
	phaseLoadFailed
	phaseEdit
	phaseSaving
)

type loadedMsg struct {
	hospital *model.Hospital
	err      error
}

type savedResultMsg struct {
	hospital *model.Hospital
	created  bool
	err      error
}

// formBindings holds form field values on the heap so that huh's Value()
// pointers remain valid across Bubble Tea model copies. Numeric fields are
// kept as text and parsed on submit.
type formBindings struct {
	name              string
	address           string
	city              string
	phone             string
	email             string
	website           string
	totalBeds         string
	icuBeds           string
	operationTheatres string
	emergencyContact  string
}

// Model is the Bubble Tea model for the hospital configuration form.
type Model struct {
	svc     service.Hospitals
	keys    *keys.KeyMap
	phase   phase
	exists  bool
	id      int64
	fb      *formBindings
	form    *huh.Form
	spinner spinner.Model
	errMsg  string
	success string
	seq     int
	width   int
	height  int
}

// New creates a hospital form model. Call Init to load the record.
func New(svc service.Hospitals, k *keys.KeyMap, width, height int) Model {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(theme.ColorBlue)

	return Model{
		svc:     svc,
		keys:    k,
		fb:      &formBindings{},
		spinner: sp,
		width:   width,
		height:  height,
	}
}

// Init loads the hospital record.
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.load())
}

// Reload re-enters the loading phase and fetches the record again.
func (m *Model) Reload() tea.Cmd {
	m.phase = phaseLoading
	m.errMsg = ""
	return tea.Batch(m.spinner.Tick, m.load())
}

// Update handles messages for the hospital form.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case loadedMsg:
		return m.handleLoaded(msg)

	case savedResultMsg:
		return m.handleSaved(msg)

	case ui.ClearStatusMsg:
		if msg.Owner == owner && msg.Seq == m.seq {
			m.success = ""
		}
		return m, nil

	case spinner.TickMsg:
		if m.phase != phaseLoading && m.phase != phaseSaving {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		if m.phase == phaseLoading && key.Matches(msg, m.keys.Back) {
			return m, ui.Emit(CloseMsg{})
		}
		if m.phase == phaseLoadFailed {
			switch {
			case key.Matches(msg, m.keys.Refresh):
				return m, m.Reload()
			case key.Matches(msg, m.keys.Back):
				return m, ui.Emit(CloseMsg{})
			}
			return m, nil
		}
	}

	if m.phase != phaseEdit || m.form == nil {
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
		return m, ui.Emit(CloseMsg{})
	}

	return m, cmd
}

func (m Model) handleLoaded(msg loadedMsg) (Model, tea.Cmd) {
	switch {
	case msg.err == nil:
		m.exists = true
		m.id = msg.hospital.ID
		m.fill(*msg.hospital)
	case api.IsNotFound(msg.err):
		// No record yet: the form creates one.
		m.exists = false
		m.id = 0
		m.fill(model.Hospital{})
	default:
		m.phase = phaseLoadFailed
		m.errMsg = api.Message(msg.err, "Failed to load hospital configuration")
		return m, ui.AuthCheck(msg.err)
	}

	m.phase = phaseEdit
	m.errMsg = ""
	m.form = m.buildForm()
	return m, m.form.Init()
}

func (m Model) handleSaved(msg savedResultMsg) (Model, tea.Cmd) {
	m.phase = phaseEdit
	m.form = m.buildForm()

	if msg.err != nil {
		m.errMsg = api.Message(msg.err, "Failed to save hospital configuration")
		m.success = ""
		return m, tea.Batch(m.form.Init(), ui.AuthCheck(msg.err))
	}

	m.exists = true
	m.id = msg.hospital.ID
	m.fill(*msg.hospital)
	m.errMsg = ""
	m.success = "Hospital configuration saved"
	if msg.created {
		m.success = "Hospital configuration created"
	}
	m.seq++

	return m, tea.Batch(
		m.form.Init(),
		ui.ClearAfter(owner, m.seq),
		ui.Emit(SavedMsg{Hospital: *msg.hospital, Created: msg.created}),
	)
}

// submit validates the bindings and, if they pass, issues exactly one
// create or update call. A validation failure issues no request.
func (m Model) submit() (Model, tea.Cmd) {
	if err := m.validate(); err != nil {
		m.errMsg = err.Error()
		m.success = ""
		m.form = m.buildForm()
		return m, m.form.Init()
	}

	m.phase = phaseSaving
	m.errMsg = ""
	return m, tea.Batch(m.spinner.Tick, m.save())
}

func (m Model) validate() error {
	fb := m.fb
	return validate.First(
		validate.Required("Hospital name", fb.name),
		validate.Required("Address", fb.address),
		validate.Required("Phone", fb.phone),
		validate.Required("Email", fb.email),
		validate.Email(fb.email),
		validate.MinPhoneLength(fb.phone, 10),
		validate.NonNegativeInt("Total beds", fb.totalBeds),
		validate.NonNegativeInt("ICU beds", fb.icuBeds),
		validate.NonNegativeInt("Operation theatres", fb.operationTheatres),
		validate.MinPhoneLength(fb.emergencyContact, 10),
	)
}

func (m *Model) fill(h model.Hospital) {
	m.fb.name = h.Name
	m.fb.address = h.Address
	m.fb.city = h.City
	m.fb.phone = h.Phone
	m.fb.email = h.Email
	m.fb.website = h.Website
	m.fb.totalBeds = countText(h.TotalBeds)
	m.fb.icuBeds = countText(h.ICUBeds)
	m.fb.operationTheatres = countText(h.OperationTheatres)
	m.fb.emergencyContact = h.EmergencyContact
}

func countText(n int) string {
	if n == 0 {
		return ""
	}
	return strconv.Itoa(n)
}

// hospital builds the payload from the bindings.
func (m Model) hospital() model.Hospital {
	fb := m.fb
	return model.Hospital{
		ID:                m.id,
		Name:              strings.TrimSpace(fb.name),
		Address:           strings.TrimSpace(fb.address),
		City:              strings.TrimSpace(fb.city),
		Phone:             strings.TrimSpace(fb.phone),
		Email:             strings.TrimSpace(fb.email),
		Website:           strings.TrimSpace(fb.website),
		TotalBeds:         validate.ParseCount(fb.totalBeds),
		ICUBeds:           validate.ParseCount(fb.icuBeds),
		OperationTheatres: validate.ParseCount(fb.operationTheatres),
		EmergencyContact:  strings.TrimSpace(fb.emergencyContact),
	}
}

func (m Model) buildForm() *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().Title("Hospital name").Value(&m.fb.name),
			huh.NewInput().Title("Address").Value(&m.fb.address),
			huh.NewInput().Title("City").Value(&m.fb.city),
			huh.NewInput().Title("Phone").Placeholder("at least 10 digits").Value(&m.fb.phone),
			huh.NewInput().Title("Email").Placeholder("admin@hospital.org").Value(&m.fb.email),
			huh.NewInput().Title("Website").Placeholder("optional").Value(&m.fb.website),
		).Title("Details"),
		huh.NewGroup(
			huh.NewInput().Title("Total beds").Placeholder("0").Value(&m.fb.totalBeds),
			huh.NewInput().Title("ICU beds").Placeholder("0").Value(&m.fb.icuBeds),
			huh.NewInput().Title("Operation theatres").Placeholder("0").Value(&m.fb.operationTheatres),
			huh.NewInput().Title("Emergency contact").Placeholder("optional").Value(&m.fb.emergencyContact),
		).Title("Capacity"),
	).WithKeyMap(ui.FormKeyMap()).WithWidth(ui.FormWidth(m.width)).WithHeight(ui.FormHeight(m.height))
}

// View renders the hospital form.
func (m Model) View() string {
	title := "Hospital configuration"
	if m.phase >= phaseEdit && !m.exists {
		title += " (new)"
	}

	var b strings.Builder
	b.WriteString(theme.TitleStyle.Render(title))
	b.WriteString("\n")

	switch m.phase {
	case phaseLoading:
		b.WriteString(m.spinner.View() + " Loading hospital configuration...")
	case phaseLoadFailed:
		b.WriteString(theme.ErrorStyle.Render(m.errMsg))
		b.WriteString("\n\n")
		b.WriteString(theme.HelpStyle.Render("r retry | esc back"))
	case phaseSaving:
		b.WriteString(m.spinner.View() + " Saving...")
	default:
		if m.errMsg != "" {
			b.WriteString(theme.ErrorStyle.Render(m.errMsg) + "\n")
		}
		if m.success != "" {
			b.WriteString(theme.SuccessStyle.Render(m.success) + "\n")
		}
		if m.form != nil {
			b.WriteString(m.form.View())
		}
	}

	return lipgloss.NewStyle().Padding(1, 2).Render(b.String())
}

// SetSize updates the form dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
}

func (m Model) load() tea.Cmd {
	svc := m.svc
	return func() tea.Msg {
		ctx, cancel := ui.RequestContext()
		defer cancel()
		h, err := svc.Get(ctx)
		return loadedMsg{hospital: h, err: err}
	}
}

func (m Model) save() tea.Cmd {
	svc := m.svc
	h := m.hospital()
	create := !m.exists
	return func() tea.Msg {
		ctx, cancel := ui.RequestContext()
		defer cancel()
		if create {
			out, err := svc.Create(ctx, h)
			return savedResultMsg{hospital: out, created: true, err: err}
		}
		out, err := svc.Update(ctx, h)
		return savedResultMsg{hospital: out, err: err}
	}
}
