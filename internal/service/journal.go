package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/nhle/hospital-admin/internal/api"
	"github.com/nhle/hospital-admin/internal/logger"
	"github.com/nhle/hospital-admin/internal/model"
)

// Recorder persists journal entries. *store.SQLiteStore satisfies it.
type Recorder interface {
	Record(ctx context.Context, entry model.JournalEntry) error
}

// journal records the outcome of one mutation. Recording failures are logged
// and never change the result returned to the caller.
type journal struct {
	rec Recorder
	now func() time.Time
}

func (j journal) record(ctx context.Context, action, target string, detail any, callErr error) {
	if j.rec == nil {
		return
	}

	entry := model.JournalEntry{
		Action:    action,
		Target:    target,
		OK:        callErr == nil,
		CreatedAt: j.now(),
	}
	if detail != nil {
		if data, err := json.Marshal(detail); err == nil {
			entry.Detail = string(data)
		}
	}
	if callErr != nil {
		entry.Error = api.Message(callErr, callErr.Error())
	}

	// Record even when the request context was cancelled.
	if err := j.rec.Record(context.WithoutCancel(ctx), entry); err != nil {
		logger.WithFields(logrus.Fields{"action": action, "target": target}).
			Warnf("recording journal entry: %v", err)
	}
}

func newJournal(rec Recorder) journal {
	return journal{rec: rec, now: time.Now}
}

// JournaledNotifications records every notification mutation. Reads pass
// through unrecorded.
type JournaledNotifications struct {
	Notifications
	j journal
}

// NewJournaledNotifications wraps next.
func NewJournaledNotifications(next Notifications, rec Recorder) *JournaledNotifications {
	return &JournaledNotifications{Notifications: next, j: newJournal(rec)}
}

func (s *JournaledNotifications) MarkRead(ctx context.Context, id int64) error {
	err := s.Notifications.MarkRead(ctx, id)
	s.j.record(ctx, "notification.read", fmt.Sprintf("notification %d", id), nil, err)
	return err
}

func (s *JournaledNotifications) MarkAllRead(ctx context.Context) error {
	err := s.Notifications.MarkAllRead(ctx)
	s.j.record(ctx, "notification.read_all", "notifications", nil, err)
	return err
}

func (s *JournaledNotifications) Delete(ctx context.Context, id int64) error {
	err := s.Notifications.Delete(ctx, id)
	s.j.record(ctx, "notification.delete", fmt.Sprintf("notification %d", id), nil, err)
	return err
}

func (s *JournaledNotifications) Broadcast(ctx context.Context, req model.BroadcastRequest) error {
	err := s.Notifications.Broadcast(ctx, req)
	s.j.record(ctx, "notification.broadcast", req.Role.Label(), req, err)
	return err
}

// JournaledHospitals records hospital creates and updates.
type JournaledHospitals struct {
	Hospitals
	j journal
}

// NewJournaledHospitals wraps next.
func NewJournaledHospitals(next Hospitals, rec Recorder) *JournaledHospitals {
	return &JournaledHospitals{Hospitals: next, j: newJournal(rec)}
}

func (s *JournaledHospitals) Create(ctx context.Context, h model.Hospital) (*model.Hospital, error) {
	out, err := s.Hospitals.Create(ctx, h)
	s.j.record(ctx, "hospital.create", h.Name, h, err)
	return out, err
}

func (s *JournaledHospitals) Update(ctx context.Context, h model.Hospital) (*model.Hospital, error) {
	out, err := s.Hospitals.Update(ctx, h)
	s.j.record(ctx, "hospital.update", h.Name, h, err)
	return out, err
}

// JournaledUsers records user updates and activation changes.
type JournaledUsers struct {
	Users
	j journal
}

// NewJournaledUsers wraps next.
func NewJournaledUsers(next Users, rec Recorder) *JournaledUsers {
	return &JournaledUsers{Users: next, j: newJournal(rec)}
}

func (s *JournaledUsers) Update(ctx context.Context, id int64, update model.UserUpdate) (*model.User, error) {
	out, err := s.Users.Update(ctx, id, update)
	s.j.record(ctx, "user.update", fmt.Sprintf("user %d", id), update, err)
	return out, err
}

func (s *JournaledUsers) Activate(ctx context.Context, id int64) error {
	err := s.Users.Activate(ctx, id)
	s.j.record(ctx, "user.activate", fmt.Sprintf("user %d", id), nil, err)
	return err
}

func (s *JournaledUsers) Deactivate(ctx context.Context, id int64) error {
	err := s.Users.Deactivate(ctx, id)
	s.j.record(ctx, "user.deactivate", fmt.Sprintf("user %d", id), nil, err)
	return err
}

// JournaledResources records resource deletions.
type JournaledResources struct {
	Resources
	j journal
}

// NewJournaledResources wraps next.
func NewJournaledResources(next Resources, rec Recorder) *JournaledResources {
	return &JournaledResources{Resources: next, j: newJournal(rec)}
}

func (s *JournaledResources) Delete(ctx context.Context, id int64) error {
	err := s.Resources.Delete(ctx, id)
	s.j.record(ctx, "resource.delete", fmt.Sprintf("resource %d", id), nil, err)
	return err
}
