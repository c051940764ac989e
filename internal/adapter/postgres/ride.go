package postgres

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Temutjin2k/ride-dispatch/internal/domain/models"
	"github.com/Temutjin2k/ride-dispatch/internal/domain/types"
	wrap "github.com/Temutjin2k/ride-dispatch/pkg/logger/wrapper"
	"github.com/Temutjin2k/ride-dispatch/pkg/trm"
	"github.com/Temutjin2k/ride-dispatch/pkg/uuid"
)

// RideRepo owns the rides table and is the only writer to it.
// All mutations go through Transition; Create is the single exception
// because a ride does not exist before it.
type RideRepo struct {
	db  *pgxpool.Pool
	trm trm.TxManager
}

func NewRideRepo(db *pgxpool.Pool, trm trm.TxManager) *RideRepo {
	return &RideRepo{db: db, trm: trm}
}

const rideColumns = `id, passenger_id, driver_id, origin, destination, status, price, created_at, updated_at`

func scanRide(row pgx.Row) (*models.Ride, error) {
	var ride models.Ride
	err := row.Scan(
		&ride.ID, &ride.PassengerID, &ride.DriverID,
		&ride.Origin, &ride.Destination, &ride.Status,
		&ride.Price, &ride.CreatedAt, &ride.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, types.ErrRideNotFound
		}
		return nil, err
	}
	return &ride, nil
}

func (r *RideRepo) Create(ctx context.Context, ride *models.Ride) (*models.Ride, error) {
	q := TxorDB(ctx, r.db)

	query := `
        INSERT INTO rides (id, passenger_id, origin, destination, status)
        VALUES ($1, $2, $3, $4, $5)
        RETURNING created_at, updated_at;`

	err := q.QueryRow(ctx, query,
		ride.ID, ride.PassengerID, ride.Origin, ride.Destination, ride.Status,
	).Scan(&ride.CreatedAt, &ride.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("ride repo: Create: %w", err)
	}

	return ride, nil
}

func (r *RideRepo) Get(ctx context.Context, rideID uuid.UUID) (*models.Ride, error) {
	q := TxorDB(ctx, r.db)

	query := `SELECT ` + rideColumns + ` FROM rides WHERE id = $1;`

	ride, err := scanRide(q.QueryRow(ctx, query, rideID))
	if err != nil {
		if errors.Is(err, types.ErrRideNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("ride repo: Get: %w", err)
	}
	return ride, nil
}

// ListAll returns every ride, newest first. Admin-only surface.
func (r *RideRepo) ListAll(ctx context.Context) ([]*models.Ride, error) {
	query := `SELECT ` + rideColumns + ` FROM rides ORDER BY created_at DESC;`
	return r.list(ctx, query)
}

// ListByParticipant returns rides where the user is the passenger or the
// assigned driver, newest first.
func (r *RideRepo) ListByParticipant(ctx context.Context, userID int64) ([]*models.Ride, error) {
	query := `SELECT ` + rideColumns + `
        FROM rides
        WHERE passenger_id = $1 OR driver_id = $1
        ORDER BY created_at DESC;`
	return r.list(ctx, query, userID)
}

func (r *RideRepo) list(ctx context.Context, query string, args ...any) ([]*models.Ride, error) {
	q := TxorDB(ctx, r.db)

	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("ride repo: list: %w", err)
	}
	defer rows.Close()

	var rides []*models.Ride
	for rows.Next() {
		ride, err := scanRide(rows)
		if err != nil {
			return nil, fmt.Errorf("ride repo: list scan: %w", err)
		}
		rides = append(rides, ride)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ride repo: list rows: %w", err)
	}

	return rides, nil
}

// Transition is the guarded compare-and-transition primitive. It locks the
// ride row, rejects with TransitionError when the current status is outside
// the from set, otherwise applies mutate, sets the target status, bumps
// updated_at and persists - all in one transaction, so concurrent callers
// on the same ride serialize on the row lock.
func (r *RideRepo) Transition(
	ctx context.Context,
	rideID uuid.UUID,
	from []types.RideStatus,
	to types.RideStatus,
	mutate func(*models.Ride) error,
) (*models.Ride, error) {
	var updated *models.Ride

	err := r.trm.Do(ctx, func(ctx context.Context) error {
		q := TxorDB(ctx, r.db)

		lockQuery := `SELECT ` + rideColumns + ` FROM rides WHERE id = $1 FOR UPDATE;`
		ride, err := scanRide(q.QueryRow(ctx, lockQuery, rideID))
		if err != nil {
			if errors.Is(err, types.ErrRideNotFound) {
				return err
			}
			return wrap.Error(ctx, fmt.Errorf("ride repo: Transition lock: %w", err))
		}

		if !slices.Contains(from, ride.Status) {
			return wrap.Error(ctx, &types.TransitionError{Current: ride.Status})
		}

		if mutate != nil {
			if err := mutate(ride); err != nil {
				return wrap.Error(ctx, err)
			}
		}
		ride.Status = to

		updateQuery := `
            UPDATE rides
            SET status = $2, driver_id = $3, price = $4, updated_at = now()
            WHERE id = $1
            RETURNING updated_at;`

		if err := q.QueryRow(ctx, updateQuery,
			ride.ID, ride.Status, ride.DriverID, ride.Price,
		).Scan(&ride.UpdatedAt); err != nil {
			return wrap.Error(wrap.WithAction(ctx, types.ActionDatabaseTransactionFailed),
				fmt.Errorf("ride repo: Transition update: %w", err))
		}

		updated = ride
		return nil
	})
	if err != nil {
		return nil, err
	}

	return updated, nil
}
