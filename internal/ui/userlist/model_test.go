package userlist

import (
	"context"
	"sync"
	"testing"

	"github.com/charmbracelet/huh"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/hospital-admin/internal/api"
	"github.com/nhle/hospital-admin/internal/keys"
	"github.com/nhle/hospital-admin/internal/model"
	"github.com/nhle/hospital-admin/tests/testutil"
)

type fakeUsers struct {
	mu          sync.Mutex
	users       []model.User
	filters     []model.UserFilter
	activated   []int64
	deactivated []int64
	listErr     error
}

func (f *fakeUsers) List(_ context.Context, filter model.UserFilter) ([]model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.filters = append(f.filters, filter)
	if f.listErr != nil {
		return nil, f.listErr
	}
	var out []model.User
	for _, u := range f.users {
		if filter.Role != "" && u.Role != filter.Role {
			continue
		}
		if filter.Status != "" && u.Status() != filter.Status {
			continue
		}
		out = append(out, u)
	}
	return out, nil
}

func (f *fakeUsers) Update(context.Context, int64, model.UserUpdate) (*model.User, error) {
	return nil, nil
}

func (f *fakeUsers) Activate(_ context.Context, id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.activated = append(f.activated, id)
	return nil
}

func (f *fakeUsers) Deactivate(_ context.Context, id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deactivated = append(f.deactivated, id)
	return nil
}

func seeded() *fakeUsers {
	return &fakeUsers{users: []model.User{
		testutil.User(1, model.RoleDoctor),
		testutil.User(2, model.RoleNurse),
		testutil.User(3, model.RoleDoctor),
	}}
}

func loaded(t *testing.T, svc *fakeUsers) Model {
	t.Helper()
	m := New(svc, keys.DefaultKeyMap(), 120, 40)
	res, ok := testutil.Find[usersLoadedMsg](testutil.Drain(m.Init()))
	require.True(t, ok)
	m, _ = m.Update(res)
	return m
}

func TestInitialLoad(t *testing.T) {
	svc := seeded()
	m := loaded(t, svc)
	assert.Len(t, m.Users(), 3)
	assert.False(t, m.loading)
}

func TestRoleFilterRefetchesAndReplaces(t *testing.T) {
	svc := seeded()
	m := loaded(t, svc)

	m, cmd := m.Update(testutil.Key("f"))
	assert.Equal(t, model.RoleDoctor, m.Filter().Role)

	res, ok := testutil.Find[usersLoadedMsg](testutil.Drain(cmd))
	require.True(t, ok)
	m, _ = m.Update(res)

	require.Len(t, svc.filters, 2)
	assert.Equal(t, model.UserFilter{Role: model.RoleDoctor}, svc.filters[1])
	assert.Len(t, m.Users(), 2)
}

func TestStatusFilterCycles(t *testing.T) {
	m := New(seeded(), keys.DefaultKeyMap(), 120, 40)
	var seen []model.UserStatus
	for range 3 {
		m, _ = m.Update(testutil.Key("s"))
		seen = append(seen, m.Filter().Status)
	}
	assert.Equal(t, []model.UserStatus{model.UserStatusActive, model.UserStatusInactive, ""}, seen)
}

func TestStaleResponseIgnored(t *testing.T) {
	svc := seeded()
	m := loaded(t, svc)

	m, first := m.Update(testutil.Key("f"))
	m, second := m.Update(testutil.Key("f"))
	stale, _ := testutil.Find[usersLoadedMsg](testutil.Drain(first))
	fresh, _ := testutil.Find[usersLoadedMsg](testutil.Drain(second))

	m, _ = m.Update(fresh)
	m, _ = m.Update(stale)
	for _, u := range m.Users() {
		assert.Equal(t, model.RoleNurse, u.Role)
	}
}

func TestLoadFailureShowsMessage(t *testing.T) {
	svc := &fakeUsers{listErr: &api.Error{Status: 500, Message: "db down"}}
	m := loaded(t, svc)
	assert.Equal(t, "db down", m.errMsg)
}

func TestRefreshTrigger(t *testing.T) {
	svc := seeded()
	m := loaded(t, svc)

	assert.NotNil(t, m.SetRefreshTrigger(1))
	assert.Nil(t, m.SetRefreshTrigger(1))
}

func TestEditEmitsSelectedUser(t *testing.T) {
	m := loaded(t, seeded())
	m, _ = m.Update(testutil.Key("down"))

	_, cmd := m.Update(testutil.Key("e"))
	msg, ok := testutil.Find[EditUserMsg](testutil.Drain(cmd))
	require.True(t, ok)
	assert.Equal(t, int64(2), msg.User.ID)
}

func TestToggleRequiresConfirmation(t *testing.T) {
	svc := seeded()
	m := loaded(t, svc)

	m, _ = m.Update(testutil.Key("x"))
	require.Equal(t, modeConfirmToggle, m.mode)
	assert.Empty(t, svc.deactivated)

	m.fb.confirm = true
	m.confirmForm.State = huh.StateCompleted
	m, cmd := m.updateConfirm(nil)
	res, ok := testutil.Find[toggledMsg](testutil.Drain(cmd))
	require.True(t, ok)

	m, _ = m.Update(res)
	assert.Equal(t, []int64{1}, svc.deactivated)
	assert.Equal(t, modeList, m.mode)
	assert.Contains(t, m.success, "deactivated")
}

func TestToggleDeclinedIssuesNothing(t *testing.T) {
	svc := seeded()
	m := loaded(t, svc)

	m, _ = m.Update(testutil.Key("x"))
	m.fb.confirm = false
	m.confirmForm.State = huh.StateCompleted
	m, cmd := m.updateConfirm(nil)

	assert.Nil(t, cmd)
	assert.Equal(t, modeList, m.mode)
	assert.Empty(t, svc.deactivated)
	assert.Empty(t, svc.activated)
}

func TestConfirmedToggleIgnoresFurtherKeys(t *testing.T) {
	svc := seeded()
	m := loaded(t, svc)

	m, _ = m.Update(testutil.Key("x"))
	m.fb.confirm = true
	m.confirmForm.State = huh.StateCompleted
	m, cmd := m.updateConfirm(nil)
	require.NotNil(t, cmd)
	assert.True(t, m.Confirming())

	m, again := m.Update(testutil.Key("enter"))
	assert.Nil(t, again)
	m, again = m.Update(testutil.Key("x"))
	assert.Nil(t, again)

	res, ok := testutil.Find[toggledMsg](testutil.Drain(cmd))
	require.True(t, ok)
	m, _ = m.Update(res)

	assert.Equal(t, []int64{1}, svc.deactivated)
	assert.False(t, m.Confirming())
}

func TestToggleTargetsPromptedUserAfterReload(t *testing.T) {
	svc := seeded()
	m := loaded(t, svc)

	m, _ = m.Update(testutil.Key("down"))
	m, reload := m.Update(testutil.Key("f"))
	m, _ = m.Update(testutil.Key("x"))
	require.True(t, m.Confirming())

	// The doctor-only rows land while the prompt for user 2 is open.
	res, ok := testutil.Find[usersLoadedMsg](testutil.Drain(reload))
	require.True(t, ok)
	m, _ = m.Update(res)
	require.Len(t, m.Users(), 2)

	m.fb.confirm = true
	m.confirmForm.State = huh.StateCompleted
	_, cmd := m.updateConfirm(nil)
	toggled, ok := testutil.Find[toggledMsg](testutil.Drain(cmd))
	require.True(t, ok)

	assert.Equal(t, int64(2), toggled.user.ID)
	assert.Equal(t, []int64{2}, svc.deactivated)
}
