package models

import (
	"time"

	"github.com/Temutjin2k/ride-dispatch/internal/domain/types"
	"github.com/Temutjin2k/ride-dispatch/pkg/uuid"
)

// Notification is an append-only per-user record created once per
// (ride, transition, recipient). Only the IsRead flag ever mutates.
type Notification struct {
	ID        uuid.UUID              `json:"id"`
	UserID    int64                  `json:"user_id"`
	RideID    uuid.UUID              `json:"ride_id"`
	Type      types.NotificationType `json:"type"`
	Title     string                 `json:"title"`
	Message   string                 `json:"message"`
	IsRead    bool                   `json:"is_read"`
	CreatedAt time.Time              `json:"created_at"`
}

// NotificationList is the envelope returned by list/unread/poll endpoints.
type NotificationList struct {
	Count         int             `json:"count"`
	UnreadCount   int             `json:"unread_count,omitempty"`
	Notifications []*Notification `json:"notifications"`
}
