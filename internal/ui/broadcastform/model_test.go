package broadcastform

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/hospital-admin/internal/api"
	"github.com/nhle/hospital-admin/internal/model"
	"github.com/nhle/hospital-admin/tests/testutil"
)

type fakeNotifications struct {
	sent []model.BroadcastRequest
	err  error
}

func (f *fakeNotifications) List(context.Context, model.NotificationFilter) (*model.NotificationList, error) {
	return &model.NotificationList{}, nil
}
func (f *fakeNotifications) MarkRead(context.Context, int64) error { return nil }
func (f *fakeNotifications) MarkAllRead(context.Context) error     { return nil }
func (f *fakeNotifications) Delete(context.Context, int64) error   { return nil }

func (f *fakeNotifications) Broadcast(_ context.Context, req model.BroadcastRequest) error {
	f.sent = append(f.sent, req)
	return f.err
}

func TestMissingMessageBlocksSend(t *testing.T) {
	svc := &fakeNotifications{}
	m := New(svc, 100, 40)
	m.values.Title = "Fire drill"

	m, cmd := m.submit()
	_, ok := testutil.Find[sentResultMsg](testutil.Drain(cmd))
	assert.False(t, ok)
	assert.Equal(t, "Message is required", m.errMsg)
	assert.Empty(t, svc.sent)
}

func TestSendResetsForm(t *testing.T) {
	svc := &fakeNotifications{}
	m := New(svc, 100, 40)
	m.values.Title = " Fire drill "
	m.values.Message = "At 3pm"
	m.values.Role = model.RoleNurse

	m, cmd := m.submit()
	res, ok := testutil.Find[sentResultMsg](testutil.Drain(cmd))
	require.True(t, ok)

	m, cmd = m.Update(res)
	require.Len(t, svc.sent, 1)
	assert.Equal(t, model.BroadcastRequest{
		Title: "Fire drill", Message: "At 3pm", Role: model.RoleNurse, Type: model.NotificationGeneral,
	}, svc.sent[0])

	assert.Equal(t, "Notification sent", m.success)
	assert.Empty(t, m.values.Title)
	assert.Equal(t, model.NotificationGeneral, m.values.Type)

	_, ok = testutil.Find[SentMsg](testutil.Drain(cmd))
	assert.True(t, ok)
}

func TestSendFailureKeepsValues(t *testing.T) {
	svc := &fakeNotifications{err: &api.Error{Status: 400, Message: "title too long"}}
	m := New(svc, 100, 40)
	m.values.Title = "x"
	m.values.Message = "y"

	m, cmd := m.submit()
	res, _ := testutil.Find[sentResultMsg](testutil.Drain(cmd))
	m, _ = m.Update(res)

	assert.Equal(t, "title too long", m.errMsg)
	assert.Equal(t, "x", m.values.Title)
	assert.Empty(t, m.success)
}
