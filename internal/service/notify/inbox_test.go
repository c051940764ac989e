package notify

import (
	"context"
	"testing"
	"time"

	"github.com/Temutjin2k/ride-dispatch/internal/domain/models"
	"github.com/Temutjin2k/ride-dispatch/internal/domain/types"
	"github.com/Temutjin2k/ride-dispatch/pkg/logger"
	"github.com/Temutjin2k/ride-dispatch/pkg/uuid"
)

type fakeNotificationRepo struct {
	notes []*models.Notification
}

func (f *fakeNotificationRepo) ListByUser(_ context.Context, userID int64, isRead *bool) ([]*models.Notification, error) {
	var out []*models.Notification
	for _, n := range f.notes {
		if n.UserID != userID {
			continue
		}
		if isRead != nil && n.IsRead != *isRead {
			continue
		}
		out = append(out, n)
	}
	return out, nil
}

func (f *fakeNotificationRepo) Poll(_ context.Context, userID int64, since time.Time) ([]*models.Notification, error) {
	var out []*models.Notification
	for _, n := range f.notes {
		if n.UserID == userID && n.CreatedAt.After(since) {
			out = append(out, n)
		}
	}
	return out, nil
}

func (f *fakeNotificationRepo) CountUnread(_ context.Context, userID int64) (int, error) {
	count := 0
	for _, n := range f.notes {
		if n.UserID == userID && !n.IsRead {
			count++
		}
	}
	return count, nil
}

func (f *fakeNotificationRepo) MarkRead(_ context.Context, id uuid.UUID, userID int64) (*models.Notification, error) {
	for _, n := range f.notes {
		if n.ID == id && n.UserID == userID {
			n.IsRead = true
			return n, nil
		}
	}
	return nil, types.ErrNotificationNotFound
}

func (f *fakeNotificationRepo) MarkAllRead(_ context.Context, userID int64) (int64, error) {
	var updated int64
	for _, n := range f.notes {
		if n.UserID == userID && !n.IsRead {
			n.IsRead = true
			updated++
		}
	}
	return updated, nil
}

func seedNotes(t *testing.T) *fakeNotificationRepo {
	t.Helper()
	now := time.Now()
	mk := func(userID int64, isRead bool, age time.Duration) *models.Notification {
		id, err := uuid.New()
		if err != nil {
			t.Fatalf("uuid: %v", err)
		}
		return &models.Notification{
			ID:        id,
			UserID:    userID,
			Type:      types.NotifyRideRequested,
			Title:     "Ride Request Received",
			IsRead:    isRead,
			CreatedAt: now.Add(-age),
		}
	}
	return &fakeNotificationRepo{notes: []*models.Notification{
		mk(7, false, time.Minute),
		mk(7, true, 10*time.Minute),
		mk(7, false, time.Hour),
		mk(9, false, time.Minute),
	}}
}

func newTestInbox(repo NotificationRepo) *Inbox {
	return NewInbox(repo, logger.InitLogger("test", logger.LevelError))
}

func TestInbox_List(t *testing.T) {
	inbox := newTestInbox(seedNotes(t))

	list, err := inbox.List(context.Background(), 7, nil)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if list.Count != 3 {
		t.Errorf("count = %d, want 3", list.Count)
	}
	if list.UnreadCount != 2 {
		t.Errorf("unread = %d, want 2", list.UnreadCount)
	}
}

func TestInbox_ListReadFilter(t *testing.T) {
	inbox := newTestInbox(seedNotes(t))

	readOnly := true
	list, err := inbox.List(context.Background(), 7, &readOnly)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if list.Count != 1 {
		t.Errorf("count = %d, want 1 read notification", list.Count)
	}
}

func TestInbox_Unread(t *testing.T) {
	inbox := newTestInbox(seedNotes(t))

	list, err := inbox.Unread(context.Background(), 7)
	if err != nil {
		t.Fatalf("unread: %v", err)
	}
	if list.Count != 2 || list.UnreadCount != 2 {
		t.Errorf("count = %d unread = %d, want 2/2", list.Count, list.UnreadCount)
	}
}

func TestInbox_Poll(t *testing.T) {
	inbox := newTestInbox(seedNotes(t))

	list, err := inbox.Poll(context.Background(), 7, time.Now().Add(-5*time.Minute))
	if err != nil {
		t.Fatalf("poll: %v", err)
	}
	if list.Count != 1 {
		t.Errorf("count = %d, want 1 notification in the window", list.Count)
	}
}

func TestInbox_PollNewestFirst(t *testing.T) {
	now := time.Now()
	mk := func(age time.Duration) *models.Notification {
		id, err := uuid.New()
		if err != nil {
			t.Fatalf("uuid: %v", err)
		}
		return &models.Notification{
			ID:        id,
			UserID:    7,
			Type:      types.NotifyRideRequested,
			CreatedAt: now.Add(-age),
		}
	}

	// Insertion order is deliberately scrambled.
	repo := &fakeNotificationRepo{notes: []*models.Notification{
		mk(2 * time.Minute),
		mk(30 * time.Second),
		mk(4 * time.Minute),
	}}
	inbox := newTestInbox(repo)

	list, err := inbox.Poll(context.Background(), 7, now.Add(-5*time.Minute))
	if err != nil {
		t.Fatalf("poll: %v", err)
	}
	if list.Count != 3 {
		t.Fatalf("count = %d, want 3", list.Count)
	}
	for i := 1; i < len(list.Notifications); i++ {
		prev, cur := list.Notifications[i-1], list.Notifications[i]
		if cur.CreatedAt.After(prev.CreatedAt) {
			t.Fatalf("notifications out of order at %d: %s before %s", i, prev.CreatedAt, cur.CreatedAt)
		}
	}
}

func TestInbox_MarkAllRead(t *testing.T) {
	repo := seedNotes(t)
	inbox := newTestInbox(repo)

	updated, err := inbox.MarkAllRead(context.Background(), 7)
	if err != nil {
		t.Fatalf("mark all read: %v", err)
	}
	if updated != 2 {
		t.Errorf("updated = %d, want 2", updated)
	}

	count, _ := repo.CountUnread(context.Background(), 7)
	if count != 0 {
		t.Errorf("unread after mark-all = %d, want 0", count)
	}
	if other, _ := repo.CountUnread(context.Background(), 9); other != 1 {
		t.Errorf("other user's notifications must be untouched")
	}
}
