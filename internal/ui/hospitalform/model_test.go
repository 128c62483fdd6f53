package hospitalform

import (
	"context"
	"net/http"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/hospital-admin/internal/api"
	"github.com/nhle/hospital-admin/internal/keys"
	"github.com/nhle/hospital-admin/internal/model"
	"github.com/nhle/hospital-admin/internal/ui"
	"github.com/nhle/hospital-admin/tests/testutil"
)

type fakeHospitals struct {
	mu      sync.Mutex
	current *model.Hospital
	getErr  error
	saveErr error
	creates []model.Hospital
	updates []model.Hospital
}

func (f *fakeHospitals) Get(context.Context) (*model.Hospital, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErr != nil {
		return nil, f.getErr
	}
	if f.current == nil {
		return nil, &api.Error{Status: http.StatusNotFound}
	}
	h := *f.current
	return &h, nil
}

func (f *fakeHospitals) Create(_ context.Context, h model.Hospital) (*model.Hospital, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.creates = append(f.creates, h)
	if f.saveErr != nil {
		return nil, f.saveErr
	}
	h.ID = 1
	f.current = &h
	return &h, nil
}

func (f *fakeHospitals) Update(_ context.Context, h model.Hospital) (*model.Hospital, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.updates = append(f.updates, h)
	if f.saveErr != nil {
		return nil, f.saveErr
	}
	f.current = &h
	return &h, nil
}

func (f *fakeHospitals) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.creates) + len(f.updates)
}

// loadedModel runs Init and feeds the load result back into the model.
func loadedModel(t *testing.T, svc *fakeHospitals) Model {
	t.Helper()
	m := New(svc, keys.DefaultKeyMap(), 100, 40)
	msg, ok := testutil.Find[loadedMsg](testutil.Drain(m.Init()))
	require.True(t, ok)
	m, _ = m.Update(msg)
	return m
}

func fillValid(m Model) {
	m.fb.name = "St. Mary"
	m.fb.address = "1 Main St"
	m.fb.phone = "5550100200"
	m.fb.email = "admin@stmary.org"
	m.fb.totalBeds = "120"
}

func TestInvalidEmailBlocksSubmit(t *testing.T) {
	svc := &fakeHospitals{current: &model.Hospital{ID: 1, Name: "St. Mary"}}
	m := loadedModel(t, svc)
	fillValid(m)
	m.fb.email = "not-an-email"

	m, cmd := m.submit()
	_, saved := testutil.Find[savedResultMsg](testutil.Drain(cmd))

	assert.False(t, saved)
	assert.Equal(t, "Please enter a valid email address", m.errMsg)
	assert.Equal(t, phaseEdit, m.phase)
	assert.Equal(t, 0, svc.calls())
}

func TestFirstFailingRuleWins(t *testing.T) {
	m := loadedModel(t, &fakeHospitals{})
	m.fb.email = "bad"
	m.fb.phone = "123"

	m, _ = m.submit()
	assert.Equal(t, "Hospital name is required", m.errMsg)
}

func TestNegativeBedCountRejected(t *testing.T) {
	svc := &fakeHospitals{}
	m := loadedModel(t, svc)
	fillValid(m)
	m.fb.icuBeds = "-2"

	m, _ = m.submit()
	assert.Equal(t, "ICU beds must be a non-negative whole number", m.errMsg)
	assert.Equal(t, 0, svc.calls())
}

func TestNotFoundEntersCreateMode(t *testing.T) {
	svc := &fakeHospitals{}
	m := loadedModel(t, svc)

	assert.Equal(t, phaseEdit, m.phase)
	assert.False(t, m.exists)
	assert.Empty(t, m.errMsg)
	assert.Contains(t, m.View(), "(new)")

	fillValid(m)
	m, cmd := m.submit()
	assert.Equal(t, phaseSaving, m.phase)

	res, ok := testutil.Find[savedResultMsg](testutil.Drain(cmd))
	require.True(t, ok)
	m, cmd = m.Update(res)

	require.Len(t, svc.creates, 1)
	assert.Empty(t, svc.updates)
	assert.Equal(t, 120, svc.creates[0].TotalBeds)
	assert.True(t, m.exists)
	assert.Equal(t, "Hospital configuration created", m.success)

	savedMsg, ok := testutil.Find[SavedMsg](testutil.Drain(cmd))
	require.True(t, ok)
	assert.True(t, savedMsg.Created)
}

func TestExistingRecordUpdates(t *testing.T) {
	svc := &fakeHospitals{current: &model.Hospital{
		ID: 7, Name: "General", Address: "2 Side St", Phone: "5550100999",
		Email: "ops@general.org", TotalBeds: 80,
	}}
	m := loadedModel(t, svc)
	assert.True(t, m.exists)
	assert.Equal(t, "80", m.fb.totalBeds)

	m.fb.city = "Springfield"
	m, cmd := m.submit()
	res, ok := testutil.Find[savedResultMsg](testutil.Drain(cmd))
	require.True(t, ok)
	m, _ = m.Update(res)

	require.Len(t, svc.updates, 1)
	assert.Equal(t, int64(7), svc.updates[0].ID)
	assert.Equal(t, "Springfield", svc.updates[0].City)
	assert.Equal(t, "Hospital configuration saved", m.success)
}

func TestSaveFailureShowsServerMessage(t *testing.T) {
	svc := &fakeHospitals{saveErr: &api.Error{Status: 400, Message: "Email already registered"}}
	m := loadedModel(t, svc)
	fillValid(m)

	m, cmd := m.submit()
	res, _ := testutil.Find[savedResultMsg](testutil.Drain(cmd))
	m, _ = m.Update(res)

	assert.Equal(t, "Email already registered", m.errMsg)
	assert.Empty(t, m.success)
}

func TestSuccessMessageClears(t *testing.T) {
	m := loadedModel(t, &fakeHospitals{})
	fillValid(m)
	m, cmd := m.submit()
	res, _ := testutil.Find[savedResultMsg](testutil.Drain(cmd))
	m, _ = m.Update(res)
	require.NotEmpty(t, m.success)

	// A stale clear from an earlier save is ignored.
	m, _ = m.Update(ui.ClearStatusMsg{Owner: owner, Seq: m.seq - 1})
	assert.NotEmpty(t, m.success)

	m, _ = m.Update(ui.ClearStatusMsg{Owner: owner, Seq: m.seq})
	assert.Empty(t, m.success)
}

func TestLoadFailureShowsError(t *testing.T) {
	svc := &fakeHospitals{getErr: &api.AuthError{}}
	m := New(svc, keys.DefaultKeyMap(), 100, 40)
	msg, _ := testutil.Find[loadedMsg](testutil.Drain(m.Init()))

	m, cmd := m.Update(msg)
	assert.Equal(t, phaseLoadFailed, m.phase)
	assert.Equal(t, "Failed to load hospital configuration", m.errMsg)

	_, expired := testutil.Find[ui.AuthExpiredMsg](testutil.Drain(cmd))
	assert.True(t, expired)
}
