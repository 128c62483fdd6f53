package userform

import (
	"context"
	"encoding/json"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/hospital-admin/internal/api"
	"github.com/nhle/hospital-admin/internal/model"
	"github.com/nhle/hospital-admin/tests/testutil"
)

type fakeUsers struct {
	mu      sync.Mutex
	updates []model.UserUpdate
	err     error
}

func (f *fakeUsers) List(context.Context, model.UserFilter) ([]model.User, error) {
	return nil, nil
}

func (f *fakeUsers) Update(_ context.Context, id int64, upd model.UserUpdate) (*model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.updates = append(f.updates, upd)
	if f.err != nil {
		return nil, f.err
	}
	u := model.User{ID: id, Username: "jdoe"}
	if upd.FirstName != nil {
		u.FirstName = *upd.FirstName
	}
	if upd.LastName != nil {
		u.LastName = *upd.LastName
	}
	if upd.Role != nil {
		u.Role = *upd.Role
	}
	return &u, nil
}

func (f *fakeUsers) Activate(context.Context, int64) error   { return nil }
func (f *fakeUsers) Deactivate(context.Context, int64) error { return nil }

func TestBuildUpdateOmitsEmptySpecialityForDoctor(t *testing.T) {
	upd := BuildUpdate(Values{
		FirstName: "Ada", LastName: "Lovelace", Email: "ada@h.org",
		Role: model.RoleDoctor, Speciality: "",
	})

	data, err := json.Marshal(upd)
	require.NoError(t, err)

	var body map[string]any
	require.NoError(t, json.Unmarshal(data, &body))
	assert.NotContains(t, body, "speciality")
	assert.Equal(t, "doctor", body["role"])
}

func TestBuildUpdateSpecialityCapability(t *testing.T) {
	doctor := BuildUpdate(Values{Role: model.RoleDoctor, Speciality: " Cardiology "})
	require.NotNil(t, doctor.Speciality)
	assert.Equal(t, "Cardiology", *doctor.Speciality)

	staff := BuildUpdate(Values{Role: model.RoleStaff, Speciality: "Radiology"})
	assert.NotNil(t, staff.Speciality)

	nurse := BuildUpdate(Values{Role: model.RoleNurse, Speciality: "Cardiology"})
	assert.Nil(t, nurse.Speciality, "nurses carry no speciality")
}

func TestValuesValidate(t *testing.T) {
	valid := Values{FirstName: "A", LastName: "B", Email: "a@b.io", Role: model.RoleNurse}
	assert.NoError(t, valid.Validate())

	noLast := valid
	noLast.LastName = " "
	assert.EqualError(t, noLast.Validate(), "Last name is required")

	shortPhone := valid
	shortPhone.Phone = "12345"
	assert.EqualError(t, shortPhone.Validate(), "Phone number must be at least 10 digits")

	badEmail := valid
	badEmail.Email = "nope"
	assert.EqualError(t, badEmail.Validate(), "Please enter a valid email address")
}

func TestSubmitInvalidIssuesNoRequest(t *testing.T) {
	svc := &fakeUsers{}
	m := New(svc, 100, 40)
	m.Start(model.User{ID: 3, Username: "jdoe", FirstName: "J", LastName: "Doe", Email: "bad", Role: model.RoleNurse})

	m, cmd := m.submit()
	_, saved := testutil.Find[savedResultMsg](testutil.Drain(cmd))
	assert.False(t, saved)
	assert.Equal(t, "Please enter a valid email address", m.errMsg)
	assert.Empty(t, svc.updates)
}

func TestSubmitSendsOneUpdate(t *testing.T) {
	svc := &fakeUsers{}
	m := New(svc, 100, 40)
	m.Start(model.User{
		ID: 3, Username: "jdoe", FirstName: "Jane", LastName: "Doe",
		Email: "jane@h.org", Role: model.RoleDoctor,
	})
	m.values.FirstName = "Janet"

	m, cmd := m.submit()
	assert.True(t, m.saving)
	res, ok := testutil.Find[savedResultMsg](testutil.Drain(cmd))
	require.True(t, ok)

	m, cmd = m.Update(res)
	require.Len(t, svc.updates, 1)
	assert.Equal(t, "Janet", *svc.updates[0].FirstName)
	assert.Nil(t, svc.updates[0].Speciality)
	assert.Equal(t, "Janet Doe updated", m.success)

	saved, ok := testutil.Find[SavedMsg](testutil.Drain(cmd))
	require.True(t, ok)
	assert.Equal(t, int64(3), saved.User.ID)
}

func TestSubmitFailureShowsFallback(t *testing.T) {
	svc := &fakeUsers{err: &api.Error{Status: 500}}
	m := New(svc, 100, 40)
	m.Start(model.User{ID: 3, FirstName: "J", LastName: "D", Email: "j@d.io", Role: model.RolePatient})

	m, cmd := m.submit()
	res, _ := testutil.Find[savedResultMsg](testutil.Drain(cmd))
	m, _ = m.Update(res)

	assert.False(t, m.saving)
	assert.Equal(t, "Failed to update user", m.errMsg)
}
