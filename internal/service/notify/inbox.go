package notify

import (
	"context"
	"slices"
	"time"

	"github.com/Temutjin2k/ride-dispatch/internal/domain/models"
	"github.com/Temutjin2k/ride-dispatch/pkg/logger"
	wrap "github.com/Temutjin2k/ride-dispatch/pkg/logger/wrapper"
	"github.com/Temutjin2k/ride-dispatch/pkg/uuid"
)

type NotificationRepo interface {
	ListByUser(ctx context.Context, userID int64, isRead *bool) ([]*models.Notification, error)
	Poll(ctx context.Context, userID int64, since time.Time) ([]*models.Notification, error)
	CountUnread(ctx context.Context, userID int64) (int, error)
	MarkRead(ctx context.Context, id uuid.UUID, userID int64) (*models.Notification, error)
	MarkAllRead(ctx context.Context, userID int64) (int64, error)
}

// Inbox is the pull-based complement to the fan-out push: list, filter,
// poll for catch-up, and mark as read.
type Inbox struct {
	repo NotificationRepo

	l logger.Logger
}

func NewInbox(repo NotificationRepo, log logger.Logger) *Inbox {
	return &Inbox{
		repo: repo,
		l:    log,
	}
}

func (s *Inbox) List(ctx context.Context, userID int64, isRead *bool) (*models.NotificationList, error) {
	items, err := s.repo.ListByUser(ctx, userID, isRead)
	if err != nil {
		return nil, wrap.Error(ctx, err)
	}

	unread, err := s.repo.CountUnread(ctx, userID)
	if err != nil {
		return nil, wrap.Error(ctx, err)
	}

	return &models.NotificationList{
		Count:         len(items),
		UnreadCount:   unread,
		Notifications: items,
	}, nil
}

func (s *Inbox) Unread(ctx context.Context, userID int64) (*models.NotificationList, error) {
	unreadOnly := false
	items, err := s.repo.ListByUser(ctx, userID, &unreadOnly)
	if err != nil {
		return nil, wrap.Error(ctx, err)
	}

	return &models.NotificationList{
		Count:         len(items),
		UnreadCount:   len(items),
		Notifications: items,
	}, nil
}

func (s *Inbox) Poll(ctx context.Context, userID int64, since time.Time) (*models.NotificationList, error) {
	items, err := s.repo.Poll(ctx, userID, since)
	if err != nil {
		return nil, wrap.Error(ctx, err)
	}

	// Newest first, regardless of store ordering.
	slices.SortFunc(items, func(a, b *models.Notification) int {
		return b.CreatedAt.Compare(a.CreatedAt)
	})

	return &models.NotificationList{
		Count:         len(items),
		Notifications: items,
	}, nil
}

func (s *Inbox) MarkRead(ctx context.Context, id uuid.UUID, userID int64) (*models.Notification, error) {
	note, err := s.repo.MarkRead(ctx, id, userID)
	if err != nil {
		return nil, wrap.Error(ctx, err)
	}
	return note, nil
}

func (s *Inbox) MarkAllRead(ctx context.Context, userID int64) (int64, error) {
	updated, err := s.repo.MarkAllRead(ctx, userID)
	if err != nil {
		return 0, wrap.Error(ctx, err)
	}
	return updated, nil
}
