package service

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	"github.com/nhle/hospital-admin/internal/api"
	"github.com/nhle/hospital-admin/internal/model"
)

// NotificationService calls the /notifications endpoints.
type NotificationService struct {
	client *api.Client
}

var _ Notifications = (*NotificationService)(nil)

// NewNotificationService creates a NotificationService.
func NewNotificationService(client *api.Client) *NotificationService {
	return &NotificationService{client: client}
}

// List fetches the recipient's notifications with the server's unread count.
// Both query parameters are always sent; empty means unfiltered.
func (s *NotificationService) List(
	ctx context.Context,
	filter model.NotificationFilter,
) (*model.NotificationList, error) {
	isRead := ""
	if filter.IsRead != nil {
		isRead = strconv.FormatBool(*filter.IsRead)
	}
	query := url.Values{
		"is_read": {isRead},
		"type":    {string(filter.Type)},
	}

	var list model.NotificationList
	if err := s.client.Get(ctx, "/notifications/", query, &list); err != nil {
		return nil, fmt.Errorf("listing notifications: %w", err)
	}
	return &list, nil
}

// MarkRead marks one notification as read.
func (s *NotificationService) MarkRead(ctx context.Context, id int64) error {
	if err := s.client.Post(ctx, fmt.Sprintf("/notifications/%d/read/", id), nil, nil); err != nil {
		return fmt.Errorf("marking notification %d read: %w", id, err)
	}
	return nil
}

// MarkAllRead marks every notification of the recipient as read.
func (s *NotificationService) MarkAllRead(ctx context.Context) error {
	if err := s.client.Post(ctx, "/notifications/mark-all-read/", nil, nil); err != nil {
		return fmt.Errorf("marking all notifications read: %w", err)
	}
	return nil
}

// Delete removes one notification.
func (s *NotificationService) Delete(ctx context.Context, id int64) error {
	if err := s.client.Delete(ctx, fmt.Sprintf("/notifications/%d/", id)); err != nil {
		return fmt.Errorf("deleting notification %d: %w", id, err)
	}
	return nil
}

// Broadcast sends a notification to all users, or to one role.
func (s *NotificationService) Broadcast(ctx context.Context, req model.BroadcastRequest) error {
	if err := s.client.Post(ctx, "/notifications/broadcast/", req, nil); err != nil {
		return fmt.Errorf("broadcasting notification: %w", err)
	}
	return nil
}
