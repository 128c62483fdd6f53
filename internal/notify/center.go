// Package notify keeps the console's view of the recipient's notifications
// in step with the server. The server is authoritative: every fetch replaces
// the local list and unread count wholesale, and local mutations are applied
// optimistically and rolled back if the server rejects them.
package notify

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/nhle/hospital-admin/internal/api"
	"github.com/nhle/hospital-admin/internal/logger"
	"github.com/nhle/hospital-admin/internal/model"
	"github.com/nhle/hospital-admin/internal/service"
	hsync "github.com/nhle/hospital-admin/internal/sync"
)

// DefaultPollInterval is how often a mounted center re-fetches.
const DefaultPollInterval = 30 * time.Second

// fetchFailedMessage is shown when a fetch fails without a server message.
const fetchFailedMessage = "Failed to load notifications"

// Snapshot is a consistent copy of the center's state.
type Snapshot struct {
	Items  []model.Notification
	Unread int

	// Err is the message of the last failed fetch; cleared by the next
	// successful one. Mutation failures never set it.
	Err string

	// AuthExpired is set when the last fetch was rejected with 401.
	AuthExpired bool

	Open      bool
	Loading   bool
	FetchedAt time.Time

	// Seq increases with every change.
	Seq uint64
}

// Option configures a Center.
type Option func(*Center)

// WithPollInterval overrides DefaultPollInterval.
func WithPollInterval(d time.Duration) Option {
	return func(c *Center) {
		if d > 0 {
			c.interval = d
		}
	}
}

// WithClock overrides time.Now for FetchedAt.
func WithClock(now func() time.Time) Option {
	return func(c *Center) {
		c.now = now
	}
}

// Center is the notification read-through cache.
type Center struct {
	svc      service.Notifications
	interval time.Duration
	now      func() time.Time

	mu          sync.Mutex
	items       []model.Notification
	unread      int
	err         string
	authExpired bool
	open        bool
	inflight    int
	fetchedAt   time.Time
	gen         uint64 // bumped by every successful fetch
	seq         uint64
	disposed    bool
	poller      *hsync.Poller
	listeners   map[int]func(Snapshot)
	nextID      int

	// emitMu serialises listener calls so snapshots arrive in Seq order.
	emitMu   sync.Mutex
	lastSeen uint64
}

// New creates an unmounted center.
func New(svc service.Notifications, opts ...Option) *Center {
	c := &Center{
		svc:       svc,
		interval:  DefaultPollInterval,
		now:       time.Now,
		listeners: make(map[int]func(Snapshot)),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Snapshot returns a copy of the current state.
func (c *Center) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

func (c *Center) snapshotLocked() Snapshot {
	return Snapshot{
		Items:       slices.Clone(c.items),
		Unread:      c.unread,
		Err:         c.err,
		AuthExpired: c.authExpired,
		Open:        c.open,
		Loading:     c.inflight > 0,
		FetchedAt:   c.fetchedAt,
		Seq:         c.seq,
	}
}

// Subscribe registers fn to be called with a snapshot after every change.
// The returned func removes it.
func (c *Center) Subscribe(fn func(Snapshot)) func() {
	c.mu.Lock()
	defer c.mu.Unlock()

	id := c.nextID
	c.nextID++
	c.listeners[id] = fn

	return func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		delete(c.listeners, id)
	}
}

// changedLocked records a state change and returns what emit needs. Callers
// must hold c.mu and call emit after unlocking.
func (c *Center) changedLocked() (Snapshot, []func(Snapshot)) {
	c.seq++
	fns := make([]func(Snapshot), 0, len(c.listeners))
	for _, fn := range c.listeners {
		fns = append(fns, fn)
	}
	return c.snapshotLocked(), fns
}

func (c *Center) emit(snap Snapshot, fns []func(Snapshot)) {
	c.emitMu.Lock()
	defer c.emitMu.Unlock()

	c.mu.Lock()
	disposed := c.disposed
	c.mu.Unlock()
	if disposed || snap.Seq <= c.lastSeen {
		return
	}
	c.lastSeen = snap.Seq

	for _, fn := range fns {
		fn(snap)
	}
}

// Fetch loads the full list and replaces local state with the server's,
// taking the unread count verbatim. On failure the previous list and count
// are kept and the error message is recorded.
func (c *Center) Fetch(ctx context.Context) error {
	c.mu.Lock()
	if c.disposed {
		c.mu.Unlock()
		return nil
	}
	c.inflight++
	snap, fns := c.changedLocked()
	c.mu.Unlock()
	c.emit(snap, fns)

	list, err := c.svc.List(ctx, model.NotificationFilter{})

	c.mu.Lock()
	if c.disposed {
		c.mu.Unlock()
		return nil
	}
	c.inflight--
	if err != nil {
		c.err = api.Message(err, fetchFailedMessage)
		c.authExpired = api.IsAuthError(err)
	} else {
		c.items = slices.Clone(list.Notifications)
		c.unread = list.UnreadCount
		c.err = ""
		c.authExpired = false
		c.fetchedAt = c.now()
		c.gen++
	}
	snap, fns = c.changedLocked()
	c.mu.Unlock()
	c.emit(snap, fns)

	if err != nil {
		logger.WithFields(logrus.Fields{"action": "fetch"}).Warnf("fetching notifications: %v", err)
	}
	return err
}

// MarkAsRead marks one notification read. The unread count drops by one only
// if the entry is present and unread, and never below zero. Marking an
// absent or already-read entry changes nothing and sends no request.
func (c *Center) MarkAsRead(ctx context.Context, id int64) error {
	c.mu.Lock()
	idx := c.indexLocked(id)
	if c.disposed || idx < 0 || c.items[idx].IsRead {
		c.mu.Unlock()
		return nil
	}
	gen := c.gen
	c.items[idx].IsRead = true
	c.unread = max(c.unread-1, 0)
	snap, fns := c.changedLocked()
	c.mu.Unlock()
	c.emit(snap, fns)

	err := c.svc.MarkRead(ctx, id)
	if err == nil {
		return nil
	}

	c.logRollback("mark_read", id, err)
	c.rollback(gen, func() {
		if i := c.indexLocked(id); i >= 0 && c.items[i].IsRead {
			c.items[i].IsRead = false
			c.unread++
		}
	})
	return err
}

// MarkAllAsRead marks every notification read and zeroes the unread count.
func (c *Center) MarkAllAsRead(ctx context.Context) error {
	c.mu.Lock()
	if c.disposed {
		c.mu.Unlock()
		return nil
	}
	gen := c.gen
	var flipped []int64
	for i := range c.items {
		if !c.items[i].IsRead {
			c.items[i].IsRead = true
			flipped = append(flipped, c.items[i].ID)
		}
	}
	prevUnread := c.unread
	c.unread = 0
	snap, fns := c.changedLocked()
	c.mu.Unlock()
	c.emit(snap, fns)

	err := c.svc.MarkAllRead(ctx)
	if err == nil {
		return nil
	}

	c.logRollback("mark_all_read", 0, err)
	c.rollback(gen, func() {
		restored := 0
		for _, id := range flipped {
			if i := c.indexLocked(id); i >= 0 && c.items[i].IsRead {
				c.items[i].IsRead = false
				restored++
			}
		}
		// Unread entries not in the list (the server count may exceed it)
		// come back with the counter.
		c.unread += max(prevUnread-len(flipped), 0) + restored
	})
	return err
}

// Delete removes one notification, decrementing the unread count if it was
// unread. Deleting an absent id changes nothing and sends no request.
func (c *Center) Delete(ctx context.Context, id int64) error {
	c.mu.Lock()
	idx := c.indexLocked(id)
	if c.disposed || idx < 0 {
		c.mu.Unlock()
		return nil
	}
	gen := c.gen
	removed := c.items[idx]
	c.items = slices.Delete(c.items, idx, idx+1)
	if !removed.IsRead {
		c.unread = max(c.unread-1, 0)
	}
	snap, fns := c.changedLocked()
	c.mu.Unlock()
	c.emit(snap, fns)

	err := c.svc.Delete(ctx, id)
	if err == nil {
		return nil
	}

	c.logRollback("delete", id, err)
	c.rollback(gen, func() {
		if c.indexLocked(id) >= 0 {
			return
		}
		at := min(idx, len(c.items))
		c.items = slices.Insert(c.items, at, removed)
		if !removed.IsRead {
			c.unread++
		}
	})
	return err
}

// rollback applies undo unless the center was disposed or a fetch replaced
// the state since the mutation started.
func (c *Center) rollback(gen uint64, undo func()) {
	c.mu.Lock()
	if c.disposed || c.gen != gen {
		c.mu.Unlock()
		return
	}
	undo()
	snap, fns := c.changedLocked()
	c.mu.Unlock()
	c.emit(snap, fns)
}

func (c *Center) logRollback(action string, id int64, err error) {
	fields := logrus.Fields{"action": action}
	if id != 0 {
		fields["notification_id"] = id
	}
	logger.WithFields(fields).Warnf("server rejected notification update, rolling back: %v", err)
}

func (c *Center) indexLocked(id int64) int {
	return slices.IndexFunc(c.items, func(n model.Notification) bool {
		return n.ID == id
	})
}

// SetOpen records whether the dropdown is visible. Opening a closed
// dropdown fetches immediately.
func (c *Center) SetOpen(ctx context.Context, open bool) error {
	c.mu.Lock()
	if c.disposed {
		c.mu.Unlock()
		return nil
	}
	opening := open && !c.open
	changed := open != c.open
	c.open = open
	var (
		snap Snapshot
		fns  []func(Snapshot)
	)
	if changed {
		snap, fns = c.changedLocked()
	}
	c.mu.Unlock()

	if changed {
		c.emit(snap, fns)
	}
	if opening {
		return c.Fetch(ctx)
	}
	return nil
}

// Mount starts polling: one fetch now, then one every poll interval,
// whether or not the dropdown is open.
func (c *Center) Mount() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.disposed {
		return hsync.ErrStopped
	}
	if c.poller != nil {
		return nil
	}

	c.poller = hsync.New(c.interval, func(ctx context.Context) {
		_ = c.Fetch(ctx)
	})
	return c.poller.Start()
}

// Close stops polling and cancels in-flight polls. Responses that arrive
// afterwards are dropped and listeners are not called again.
func (c *Center) Close() error {
	c.mu.Lock()
	if c.disposed {
		c.mu.Unlock()
		return nil
	}
	c.disposed = true
	c.listeners = make(map[int]func(Snapshot))
	poller := c.poller
	c.mu.Unlock()

	// Wait out a listener call that started before disposal.
	c.emitMu.Lock()
	c.emitMu.Unlock()

	if poller == nil {
		return nil
	}
	return poller.Stop()
}
