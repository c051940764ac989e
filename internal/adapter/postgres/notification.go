package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Temutjin2k/ride-dispatch/internal/domain/models"
	"github.com/Temutjin2k/ride-dispatch/internal/domain/types"
	"github.com/Temutjin2k/ride-dispatch/pkg/postgres"
	"github.com/Temutjin2k/ride-dispatch/pkg/uuid"
)

// NotificationRepo owns the notifications table. Records are append-only;
// only the is_read flag ever changes after creation.
type NotificationRepo struct {
	db *pgxpool.Pool
}

func NewNotificationRepo(db *pgxpool.Pool) *NotificationRepo {
	return &NotificationRepo{db: db}
}

const notificationColumns = `id, user_id, ride_id, type, title, message, is_read, created_at`

func scanNotification(row pgx.Row) (*models.Notification, error) {
	var n models.Notification
	err := row.Scan(
		&n.ID, &n.UserID, &n.RideID, &n.Type,
		&n.Title, &n.Message, &n.IsRead, &n.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, types.ErrNotificationNotFound
		}
		return nil, err
	}
	return &n, nil
}

func (r *NotificationRepo) Create(ctx context.Context, n *models.Notification) (*models.Notification, error) {
	q := TxorDB(ctx, r.db)

	query := `
        INSERT INTO notifications (id, user_id, ride_id, type, title, message)
        VALUES ($1, $2, $3, $4, $5, $6)
        RETURNING is_read, created_at;`

	err := q.QueryRow(ctx, query,
		n.ID, n.UserID, n.RideID, n.Type, n.Title, n.Message,
	).Scan(&n.IsRead, &n.CreatedAt)
	if err != nil {
		if postgres.IsForeignKeyViolation(err) {
			return nil, types.ErrRideNotFound
		}
		return nil, fmt.Errorf("notification repo: Create: %w", err)
	}

	return n, nil
}

// ListByUser returns the user's notifications, newest first.
// isRead filters by the read flag when non-nil.
func (r *NotificationRepo) ListByUser(ctx context.Context, userID int64, isRead *bool) ([]*models.Notification, error) {
	query := `SELECT ` + notificationColumns + `
        FROM notifications
        WHERE user_id = $1 AND ($2::boolean IS NULL OR is_read = $2)
        ORDER BY created_at DESC;`
	return r.list(ctx, query, userID, isRead)
}

// Poll returns notifications created strictly after since, newest first.
func (r *NotificationRepo) Poll(ctx context.Context, userID int64, since time.Time) ([]*models.Notification, error) {
	query := `SELECT ` + notificationColumns + `
        FROM notifications
        WHERE user_id = $1 AND created_at > $2
        ORDER BY created_at DESC;`
	return r.list(ctx, query, userID, since)
}

// CountUnread returns the number of unread notifications for the user.
func (r *NotificationRepo) CountUnread(ctx context.Context, userID int64) (int, error) {
	q := TxorDB(ctx, r.db)

	var count int
	query := `SELECT COUNT(*) FROM notifications WHERE user_id = $1 AND is_read = false;`
	if err := q.QueryRow(ctx, query, userID).Scan(&count); err != nil {
		return 0, fmt.Errorf("notification repo: CountUnread: %w", err)
	}
	return count, nil
}

// MarkRead sets is_read on one notification owned by the user.
func (r *NotificationRepo) MarkRead(ctx context.Context, id uuid.UUID, userID int64) (*models.Notification, error) {
	q := TxorDB(ctx, r.db)

	query := `
        UPDATE notifications
        SET is_read = true
        WHERE id = $1 AND user_id = $2
        RETURNING ` + notificationColumns + `;`

	n, err := scanNotification(q.QueryRow(ctx, query, id, userID))
	if err != nil {
		if errors.Is(err, types.ErrNotificationNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("notification repo: MarkRead: %w", err)
	}
	return n, nil
}

// MarkAllRead sets is_read on every unread notification for the user and
// returns how many rows changed.
func (r *NotificationRepo) MarkAllRead(ctx context.Context, userID int64) (int64, error) {
	q := TxorDB(ctx, r.db)

	query := `UPDATE notifications SET is_read = true WHERE user_id = $1 AND is_read = false;`
	tag, err := q.Exec(ctx, query, userID)
	if err != nil {
		return 0, fmt.Errorf("notification repo: MarkAllRead: %w", err)
	}
	return tag.RowsAffected(), nil
}

func (r *NotificationRepo) list(ctx context.Context, query string, args ...any) ([]*models.Notification, error) {
	q := TxorDB(ctx, r.db)

	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("notification repo: list: %w", err)
	}
	defer rows.Close()

	var out []*models.Notification
	for rows.Next() {
		n, err := scanNotification(rows)
		if err != nil {
			return nil, fmt.Errorf("notification repo: list scan: %w", err)
		}
		out = append(out, n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("notification repo: list rows: %w", err)
	}

	return out, nil
}
