// Package service wraps the hospital REST API: one method per endpoint,
// exactly one HTTP call per method, no business logic.
package service

import (
	"context"

	"github.com/nhle/hospital-admin/internal/model"
)

// Auth covers session endpoints.
type Auth interface {
	Login(ctx context.Context, username, password string) (*model.Session, error)
	Me(ctx context.Context) (*model.User, error)
	Logout(ctx context.Context) error
}

// Notifications covers the notification endpoints.
type Notifications interface {
	List(ctx context.Context, filter model.NotificationFilter) (*model.NotificationList, error)
	MarkRead(ctx context.Context, id int64) error
	MarkAllRead(ctx context.Context) error
	Delete(ctx context.Context, id int64) error
	Broadcast(ctx context.Context, req model.BroadcastRequest) error
}

// Hospitals covers the hospital metadata endpoint.
type Hospitals interface {
	Get(ctx context.Context) (*model.Hospital, error)
	Create(ctx context.Context, h model.Hospital) (*model.Hospital, error)
	Update(ctx context.Context, h model.Hospital) (*model.Hospital, error)
}

// Users covers user management endpoints.
type Users interface {
	List(ctx context.Context, filter model.UserFilter) ([]model.User, error)
	Update(ctx context.Context, id int64, update model.UserUpdate) (*model.User, error)
	Activate(ctx context.Context, id int64) error
	Deactivate(ctx context.Context, id int64) error
}

// Resources covers hospital resource endpoints.
type Resources interface {
	List(ctx context.Context, resourceType model.ResourceType) ([]model.Resource, error)
	Delete(ctx context.Context, id int64) error
}
