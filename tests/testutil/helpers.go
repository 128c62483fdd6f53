package testutil

import (
	"fmt"
	"time"

	"github.com/nhle/hospital-admin/internal/model"
)

// Notification builds a notification with sensible defaults.
func Notification(id int64, read bool) model.Notification {
	return model.Notification{
		ID:          id,
		RecipientID: 1,
		Title:       "Notification",
		Message:     "Bed 4 is ready",
		Type:        model.NotificationGeneral,
		IsRead:      read,
		CreatedAt:   time.Date(2026, 1, 2, 8, 0, 0, 0, time.UTC).Add(time.Duration(id) * time.Minute),
	}
}

// User builds an active user with the given role.
func User(id int64, role model.Role) model.User {
	return model.User{
		ID:        id,
		Username:  fmt.Sprintf("user%d", id),
		Email:     "user@hospital.org",
		FirstName: "Test",
		LastName:  "User",
		Phone:     "5550100200",
		Role:      role,
		IsActive:  true,
	}
}
