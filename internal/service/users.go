package service

import (
	"context"
	"fmt"
	"net/url"

	"github.com/nhle/hospital-admin/internal/api"
	"github.com/nhle/hospital-admin/internal/model"
)

// UserService calls the /users endpoints.
type UserService struct {
	client *api.Client
}

var _ Users = (*UserService)(nil)

// NewUserService creates a UserService.
func NewUserService(client *api.Client) *UserService {
	return &UserService{client: client}
}

// List fetches users narrowed by role and status. Empty filter values are
// sent as empty parameters.
func (s *UserService) List(ctx context.Context, filter model.UserFilter) ([]model.User, error) {
	query := url.Values{
		"role":   {string(filter.Role)},
		"status": {string(filter.Status)},
	}

	var list model.UserList
	if err := s.client.Get(ctx, "/users/", query, &list); err != nil {
		return nil, fmt.Errorf("listing users: %w", err)
	}
	return list.Users, nil
}

// Update applies a partial update to one user.
func (s *UserService) Update(ctx context.Context, id int64, update model.UserUpdate) (*model.User, error) {
	var user model.User
	if err := s.client.Patch(ctx, fmt.Sprintf("/users/%d", id), update, &user); err != nil {
		return nil, fmt.Errorf("updating user %d: %w", id, err)
	}
	return &user, nil
}

func (s *UserService) Activate(ctx context.Context, id int64) error {
	if err := s.client.Post(ctx, fmt.Sprintf("/users/%d/activate", id), nil, nil); err != nil {
		return fmt.Errorf("activating user %d: %w", id, err)
	}
	return nil
}

func (s *UserService) Deactivate(ctx context.Context, id int64) error {
	if err := s.client.Post(ctx, fmt.Sprintf("/users/%d/deactivate", id), nil, nil); err != nil {
		return fmt.Errorf("deactivating user %d: %w", id, err)
	}
	return nil
}
