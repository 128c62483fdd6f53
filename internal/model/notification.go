package model

import (
	"encoding/json"
	"time"
)

// NotificationType classifies a notification. The set is closed; values the
// server sends outside of it decode as NotificationGeneral.
type NotificationType string

const (
	NotificationBooking   NotificationType = "booking"
	NotificationDischarge NotificationType = "discharge"
	NotificationAlert     NotificationType = "alert"
	NotificationGeneral   NotificationType = "general"
)

// NotificationTypes lists every notification type in display order.
var NotificationTypes = []NotificationType{
	NotificationGeneral,
	NotificationBooking,
	NotificationDischarge,
	NotificationAlert,
}

// Valid reports whether t is one of the known notification types.
func (t NotificationType) Valid() bool {
	switch t {
	case NotificationBooking, NotificationDischarge, NotificationAlert, NotificationGeneral:
		return true
	}
	return false
}

// Label returns the human-readable name of the type.
func (t NotificationType) Label() string {
	switch t {
	case NotificationBooking:
		return "Booking"
	case NotificationDischarge:
		return "Discharge"
	case NotificationAlert:
		return "Alert"
	default:
		return "General"
	}
}

// UnmarshalJSON maps unknown server values onto NotificationGeneral.
func (t *NotificationType) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	nt := NotificationType(s)
	if !nt.Valid() {
		nt = NotificationGeneral
	}
	*t = nt
	return nil
}

// Notification is a message addressed to one recipient. The server owns the
// canonical record; the console only reads, marks read, or deletes it.
type Notification struct {
	ID          int64            `json:"id"`
	RecipientID int64            `json:"recipient_id"`
	Title       string           `json:"title"`
	Message     string           `json:"message"`
	Type        NotificationType `json:"type"`
	IsRead      bool             `json:"is_read"`
	RelatedID   *int64           `json:"related_id,omitempty"`
	CreatedAt   time.Time        `json:"created_at"`
}

// NotificationList is the response of the notification list endpoint.
type NotificationList struct {
	Notifications []Notification `json:"notifications"`
	UnreadCount   int            `json:"unread_count"`
}

// NotificationFilter narrows a notification list query. Zero values mean
// "no filter".
type NotificationFilter struct {
	IsRead *bool
	Type   NotificationType
}

// BroadcastRequest is the payload for sending a notification to all users,
// or to all users with a given role when Role is set.
type BroadcastRequest struct {
	Title   string           `json:"title"`
	Message string           `json:"message"`
	Role    Role             `json:"role,omitempty"`
	Type    NotificationType `json:"type"`
}
