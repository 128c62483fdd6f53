package notify

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/hospital-admin/internal/api"
	"github.com/nhle/hospital-admin/internal/model"
	hsync "github.com/nhle/hospital-admin/internal/sync"
)

// fakeService is an in-memory service.Notifications. A non-nil gate blocks
// the named call until a value is sent on it.
type fakeService struct {
	mu      sync.Mutex
	list    model.NotificationList
	listErr error
	mutErr  error
	gates   map[string]chan struct{}

	listCalls   atomic.Int32
	markCalls   atomic.Int32
	deleteCalls atomic.Int32
	allCalls    atomic.Int32
}

func (f *fakeService) wait(ctx context.Context, name string) error {
	f.mu.Lock()
	gate := f.gates[name]
	f.mu.Unlock()
	if gate == nil {
		return nil
	}
	select {
	case <-gate:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (f *fakeService) gate(name string) chan struct{} {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.gates == nil {
		f.gates = map[string]chan struct{}{}
	}
	ch := make(chan struct{})
	f.gates[name] = ch
	return ch
}

func (f *fakeService) setList(unread int, ns ...model.Notification) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.list = model.NotificationList{Notifications: ns, UnreadCount: unread}
}

func (f *fakeService) List(ctx context.Context, _ model.NotificationFilter) (*model.NotificationList, error) {
	f.listCalls.Add(1)
	if err := f.wait(ctx, "list"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.listErr != nil {
		return nil, f.listErr
	}
	out := f.list
	out.Notifications = append([]model.Notification(nil), f.list.Notifications...)
	return &out, nil
}

func (f *fakeService) mutation(ctx context.Context, name string) error {
	if err := f.wait(ctx, name); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.mutErr
}

func (f *fakeService) MarkRead(ctx context.Context, _ int64) error {
	f.markCalls.Add(1)
	return f.mutation(ctx, "mark")
}

func (f *fakeService) MarkAllRead(ctx context.Context) error {
	f.allCalls.Add(1)
	return f.mutation(ctx, "all")
}

func (f *fakeService) Delete(ctx context.Context, _ int64) error {
	f.deleteCalls.Add(1)
	return f.mutation(ctx, "delete")
}

func (f *fakeService) Broadcast(context.Context, model.BroadcastRequest) error {
	return nil
}

func note(id int64, read bool) model.Notification {
	return model.Notification{ID: id, Title: "n", Type: model.NotificationGeneral, IsRead: read}
}

func loaded(t *testing.T, unread int, ns ...model.Notification) (*Center, *fakeService) {
	t.Helper()
	svc := &fakeService{}
	svc.setList(unread, ns...)
	c := New(svc)
	require.NoError(t, c.Fetch(context.Background()))
	return c, svc
}

func TestFetchReplacesStateVerbatim(t *testing.T) {
	c, svc := loaded(t, 7, note(1, false), note(2, true))

	snap := c.Snapshot()
	assert.Len(t, snap.Items, 2)
	assert.Equal(t, 7, snap.Unread, "unread count is not recomputed")
	assert.Empty(t, snap.Err)
	assert.False(t, snap.Loading)

	svc.setList(0, note(3, true))
	require.NoError(t, c.Fetch(context.Background()))
	snap = c.Snapshot()
	require.Len(t, snap.Items, 1)
	assert.Equal(t, int64(3), snap.Items[0].ID)
	assert.Equal(t, 0, snap.Unread)
}

func TestFetchFailureKeepsPreviousData(t *testing.T) {
	c, svc := loaded(t, 1, note(1, false))

	svc.mu.Lock()
	svc.listErr = errors.New("connection refused")
	svc.mu.Unlock()

	require.Error(t, c.Fetch(context.Background()))
	snap := c.Snapshot()
	assert.Equal(t, "Failed to load notifications", snap.Err)
	assert.Len(t, snap.Items, 1)
	assert.Equal(t, 1, snap.Unread)

	svc.mu.Lock()
	svc.listErr = &api.Error{Status: 500, Message: "Database unavailable"}
	svc.mu.Unlock()
	require.Error(t, c.Fetch(context.Background()))
	assert.Equal(t, "Database unavailable", c.Snapshot().Err)

	svc.mu.Lock()
	svc.listErr = nil
	svc.mu.Unlock()
	require.NoError(t, c.Fetch(context.Background()))
	assert.Empty(t, c.Snapshot().Err)
}

func TestFetchAuthErrorFlagsSession(t *testing.T) {
	svc := &fakeService{listErr: &api.AuthError{}}
	c := New(svc)

	require.Error(t, c.Fetch(context.Background()))
	assert.True(t, c.Snapshot().AuthExpired)
}

func TestMarkAsReadDecrementsUnread(t *testing.T) {
	c, svc := loaded(t, 2, note(1, false), note(2, false))

	require.NoError(t, c.MarkAsRead(context.Background(), 1))

	snap := c.Snapshot()
	assert.True(t, snap.Items[0].IsRead)
	assert.False(t, snap.Items[1].IsRead)
	assert.Equal(t, 1, snap.Unread)
	assert.Equal(t, int32(1), svc.markCalls.Load())
}

func TestMarkAsReadIsIdempotent(t *testing.T) {
	c, svc := loaded(t, 1, note(1, false), note(2, true))
	ctx := context.Background()

	require.NoError(t, c.MarkAsRead(ctx, 2))
	assert.Equal(t, 1, c.Snapshot().Unread)

	require.NoError(t, c.MarkAsRead(ctx, 1))
	require.NoError(t, c.MarkAsRead(ctx, 1))
	assert.Equal(t, 0, c.Snapshot().Unread)

	require.NoError(t, c.MarkAsRead(ctx, 99))
	assert.Equal(t, 0, c.Snapshot().Unread)
	assert.Equal(t, int32(1), svc.markCalls.Load())
}

func TestUnreadNeverNegative(t *testing.T) {
	// Server count already zero while the list still shows an unread entry.
	c, _ := loaded(t, 0, note(1, false))

	require.NoError(t, c.MarkAsRead(context.Background(), 1))
	assert.Equal(t, 0, c.Snapshot().Unread)
}

func TestMarkAllAsRead(t *testing.T) {
	c, svc := loaded(t, 2, note(1, false), note(2, false), note(3, true))

	require.NoError(t, c.MarkAllAsRead(context.Background()))

	snap := c.Snapshot()
	assert.Equal(t, 0, snap.Unread)
	for _, n := range snap.Items {
		assert.True(t, n.IsRead)
	}
	assert.Equal(t, int32(1), svc.allCalls.Load())
}

func TestDelete(t *testing.T) {
	c, svc := loaded(t, 1, note(1, false), note(2, true))
	ctx := context.Background()

	require.NoError(t, c.Delete(ctx, 2))
	snap := c.Snapshot()
	require.Len(t, snap.Items, 1)
	assert.Equal(t, 1, snap.Unread, "deleting a read entry keeps the count")

	require.NoError(t, c.Delete(ctx, 1))
	snap = c.Snapshot()
	assert.Empty(t, snap.Items)
	assert.Equal(t, 0, snap.Unread)

	require.NoError(t, c.Delete(ctx, 42))
	assert.Empty(t, c.Snapshot().Items)
	assert.Equal(t, int32(2), svc.deleteCalls.Load())
}

func TestMutationFailureRollsBackSilently(t *testing.T) {
	c, svc := loaded(t, 2, note(1, false), note(2, false), note(3, true))
	svc.mutErr = &api.Error{Status: 500, Message: "boom"}
	ctx := context.Background()

	assert.Error(t, c.MarkAsRead(ctx, 1))
	snap := c.Snapshot()
	assert.False(t, snap.Items[0].IsRead)
	assert.Equal(t, 2, snap.Unread)
	assert.Empty(t, snap.Err, "mutation failures are not surfaced")

	assert.Error(t, c.MarkAllAsRead(ctx))
	snap = c.Snapshot()
	assert.False(t, snap.Items[0].IsRead)
	assert.False(t, snap.Items[1].IsRead)
	assert.True(t, snap.Items[2].IsRead)
	assert.Equal(t, 2, snap.Unread)

	assert.Error(t, c.Delete(ctx, 2))
	snap = c.Snapshot()
	require.Len(t, snap.Items, 3)
	assert.Equal(t, int64(2), snap.Items[1].ID, "restored at its original position")
	assert.Equal(t, 2, snap.Unread)
	assert.Empty(t, snap.Err)
}

func TestRollbackSkippedAfterNewerFetch(t *testing.T) {
	c, svc := loaded(t, 1, note(1, false))
	svc.mutErr = errors.New("timeout")
	release := svc.gate("mark")

	done := make(chan error, 1)
	go func() { done <- c.MarkAsRead(context.Background(), 1) }()

	require.Eventually(t, func() bool { return svc.markCalls.Load() == 1 }, time.Second, time.Millisecond)
	assert.Equal(t, 0, c.Snapshot().Unread)

	// The server state changed in the meantime; the fetch wins.
	svc.setList(0, note(1, true), note(4, true))
	require.NoError(t, c.Fetch(context.Background()))

	close(release)
	require.Error(t, <-done)

	snap := c.Snapshot()
	assert.Equal(t, 0, snap.Unread)
	require.Len(t, snap.Items, 2)
	assert.True(t, snap.Items[0].IsRead)
}

func TestSetOpenFetchesOnOpenTransition(t *testing.T) {
	svc := &fakeService{}
	svc.setList(1, note(1, false))
	c := New(svc)
	ctx := context.Background()

	require.NoError(t, c.SetOpen(ctx, true))
	assert.Equal(t, int32(1), svc.listCalls.Load())
	assert.True(t, c.Snapshot().Open)
	assert.Len(t, c.Snapshot().Items, 1)

	require.NoError(t, c.SetOpen(ctx, true))
	assert.Equal(t, int32(1), svc.listCalls.Load(), "already open")

	require.NoError(t, c.SetOpen(ctx, false))
	assert.Equal(t, int32(1), svc.listCalls.Load())

	require.NoError(t, c.SetOpen(ctx, true))
	assert.Equal(t, int32(2), svc.listCalls.Load())
}

func TestMountPollsImmediatelyAndPeriodically(t *testing.T) {
	svc := &fakeService{}
	svc.setList(3, note(1, false))
	c := New(svc, WithPollInterval(25*time.Millisecond))
	require.NoError(t, c.Mount())
	t.Cleanup(func() { _ = c.Close() })

	require.Eventually(t, func() bool { return c.Snapshot().Unread == 3 }, time.Second, 5*time.Millisecond)
	assert.Eventually(t, func() bool { return svc.listCalls.Load() >= 3 }, 2*time.Second, 10*time.Millisecond)
}

func TestCloseDropsLateResponses(t *testing.T) {
	svc := &fakeService{}
	svc.setList(5, note(1, false))
	release := svc.gate("list")
	c := New(svc)

	var calls atomic.Int32
	c.Subscribe(func(Snapshot) { calls.Add(1) })

	done := make(chan struct{})
	go func() {
		_ = c.Fetch(context.Background())
		close(done)
	}()
	require.Eventually(t, func() bool { return svc.listCalls.Load() == 1 }, time.Second, time.Millisecond)

	require.NoError(t, c.Close())
	before := calls.Load()
	close(release)
	<-done

	assert.Equal(t, before, calls.Load())
	assert.Empty(t, c.Snapshot().Items)
	assert.Equal(t, 0, c.Snapshot().Unread)

	// Everything after Close is a no-op.
	require.NoError(t, c.Fetch(context.Background()))
	assert.Equal(t, int32(1), svc.listCalls.Load())
	assert.ErrorIs(t, c.Mount(), hsync.ErrStopped)
}

func TestCloseStopsPolling(t *testing.T) {
	svc := &fakeService{}
	c := New(svc, WithPollInterval(20*time.Millisecond))
	require.NoError(t, c.Mount())
	require.Eventually(t, func() bool { return svc.listCalls.Load() >= 1 }, time.Second, 5*time.Millisecond)

	require.NoError(t, c.Close())
	after := svc.listCalls.Load()
	time.Sleep(100 * time.Millisecond)
	assert.Equal(t, after, svc.listCalls.Load())
}

func TestSubscribersSeeEveryChangeInOrder(t *testing.T) {
	c, _ := loaded(t, 2, note(1, false), note(2, false))

	var mu sync.Mutex
	var unread []int
	unsubscribe := c.Subscribe(func(s Snapshot) {
		mu.Lock()
		unread = append(unread, s.Unread)
		mu.Unlock()
	})

	ctx := context.Background()
	require.NoError(t, c.MarkAsRead(ctx, 1))
	require.NoError(t, c.MarkAsRead(ctx, 2))
	unsubscribe()
	require.NoError(t, c.MarkAllAsRead(ctx))

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []int{1, 0}, unread)
}

func TestWatchDeliversLatest(t *testing.T) {
	c, _ := loaded(t, 3, note(1, false), note(2, false), note(3, false))
	ch, stop := c.Watch()
	defer stop()

	ctx := context.Background()
	require.NoError(t, c.MarkAsRead(ctx, 1))
	require.NoError(t, c.MarkAsRead(ctx, 2))

	select {
	case s := <-ch:
		assert.Equal(t, 1, s.Unread)
	case <-time.After(time.Second):
		t.Fatal("no snapshot delivered")
	}
}
