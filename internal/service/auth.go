package service

import (
	"context"
	"fmt"

	"github.com/nhle/hospital-admin/internal/api"
	"github.com/nhle/hospital-admin/internal/model"
)

// AuthService calls the /auth endpoints.
type AuthService struct {
	client *api.Client
}

var _ Auth = (*AuthService)(nil)

// NewAuthService creates an AuthService.
func NewAuthService(client *api.Client) *AuthService {
	return &AuthService{client: client}
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Login exchanges credentials for a session. The caller decides whether to
// install the returned token on the client.
func (s *AuthService) Login(ctx context.Context, username, password string) (*model.Session, error) {
	var session model.Session
	err := s.client.Post(ctx, "/auth/login/", loginRequest{Username: username, Password: password}, &session)
	if err != nil {
		return nil, fmt.Errorf("logging in: %w", err)
	}
	return &session, nil
}

// Me returns the authenticated user.
func (s *AuthService) Me(ctx context.Context) (*model.User, error) {
	var user model.User
	if err := s.client.Get(ctx, "/auth/me/", nil, &user); err != nil {
		return nil, fmt.Errorf("fetching current user: %w", err)
	}
	return &user, nil
}

// Logout invalidates the current token on the server.
func (s *AuthService) Logout(ctx context.Context) error {
	if err := s.client.Post(ctx, "/auth/logout/", nil, nil); err != nil {
		return fmt.Errorf("logging out: %w", err)
	}
	return nil
}
