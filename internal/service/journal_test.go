package service_test

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/hospital-admin/internal/model"
	"github.com/nhle/hospital-admin/internal/service"
	"github.com/nhle/hospital-admin/internal/store"
	"github.com/nhle/hospital-admin/tests/testutil"
)

type brokenRecorder struct{}

func (brokenRecorder) Record(context.Context, model.JournalEntry) error {
	return errors.New("disk full")
}

func TestJournaledUsersRecordsOutcome(t *testing.T) {
	b := testutil.NewBackend(t)
	b.SetUsers(testutil.User(3, model.RoleDoctor))
	b.Fail(http.MethodPost, "/users/9/deactivate", http.StatusNotFound, "User not found")
	s := testutil.NewTestStore(t)
	ctx := context.Background()

	users := service.NewJournaledUsers(service.NewUserService(b.Client()), s)

	require.NoError(t, users.Deactivate(ctx, 3))
	require.Error(t, users.Deactivate(ctx, 9))

	// Reads are not journaled.
	_, err := users.List(ctx, model.UserFilter{})
	require.NoError(t, err)

	entries, err := s.Recent(ctx, store.JournalFilter{})
	require.NoError(t, err)
	require.Len(t, entries, 2)

	byTarget := map[string]model.JournalEntry{}
	for _, e := range entries {
		byTarget[e.Target] = e
	}
	assert.True(t, byTarget["user 3"].OK)
	assert.False(t, byTarget["user 9"].OK)
	assert.Equal(t, "User not found", byTarget["user 9"].Error)
	assert.Equal(t, "user.deactivate", byTarget["user 9"].Action)
}

func TestJournalFailureDoesNotChangeResult(t *testing.T) {
	b := testutil.NewBackend(t)
	b.SetResources(model.Resource{ID: 4, Name: "Ventilator", Type: model.ResourceMachine})

	resources := service.NewJournaledResources(service.NewResourceService(b.Client()), brokenRecorder{})
	assert.NoError(t, resources.Delete(context.Background(), 4))
}

func TestJournaledBroadcastStoresPayload(t *testing.T) {
	b := testutil.NewBackend(t)
	s := testutil.NewTestStore(t)
	ctx := context.Background()

	notifications := service.NewJournaledNotifications(service.NewNotificationService(b.Client()), s)
	require.NoError(t, notifications.Broadcast(ctx, model.BroadcastRequest{
		Title: "Maintenance", Message: "Lift B offline", Type: model.NotificationGeneral,
	}))

	entries, err := s.Recent(ctx, store.JournalFilter{Action: "notification.broadcast"})
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "All users", entries[0].Target)
	assert.Contains(t, entries[0].Detail, "Lift B offline")
}
