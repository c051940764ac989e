package ride

import (
	"context"
	"fmt"

	"github.com/Temutjin2k/ride-dispatch/internal/domain/models"
	"github.com/Temutjin2k/ride-dispatch/internal/domain/types"
	wrap "github.com/Temutjin2k/ride-dispatch/pkg/logger/wrapper"
	"github.com/Temutjin2k/ride-dispatch/pkg/uuid"
)

/* Trusted internal surface: the idempotent mutation API used by the dispatch
worker. No caller identity here; event publication is the worker's job, the
store side (transition + notification record) is done in-process so producing
and persisting stay on one side of the channel. */

// AssignDriver binds a driver to a requested ride (requested -> offered) and
// records the driver's offer notification. Duplicate calls for the same ride
// fail the precondition, which is how redelivered messages are deduplicated.
func (s *Service) AssignDriver(ctx context.Context, rideID uuid.UUID, driverID int64) (*models.Ride, error) {
	if driverID <= 0 {
		return nil, wrap.Error(ctx, fmt.Errorf("%w: driver_id must be positive", types.ErrMalformed))
	}

	ride, err := s.transition(ctx, rideID, types.OfferSources, types.StatusOffered, func(r *models.Ride) error {
		r.DriverID = &driverID
		return nil
	})
	if err != nil {
		return nil, err
	}

	typ, title, message := offeredNotification(ride)
	s.notify(ctx, driverID, ride, typ, title, message)

	return ride, nil
}

func (s *Service) GetRide(ctx context.Context, rideID uuid.UUID) (*models.Ride, error) {
	ride, err := s.repo.Get(ctx, rideID)
	if err != nil {
		return nil, wrap.Error(ctx, err)
	}
	return ride, nil
}

// UpdateStatus applies a status change through the guarded transition. The
// source set is the same one the equivalent public verb would use.
func (s *Service) UpdateStatus(ctx context.Context, rideID uuid.UUID, to types.RideStatus) (*models.Ride, error) {
	if !to.Valid() {
		return nil, wrap.Error(ctx, fmt.Errorf("%w: unknown status %q", types.ErrMalformed, to))
	}
	if to == types.StatusOffered {
		// Offering needs a driver binding; that is AssignDriver's job.
		return nil, wrap.Error(ctx, fmt.Errorf("%w: use assign-driver to offer a ride", types.ErrMalformed))
	}

	return s.transition(ctx, rideID, sourcesFor(to), to, func(r *models.Ride) error {
		switch to {
		case types.StatusRequested:
			r.DriverID = nil
		case types.StatusCompleted:
			price := s.pricing.Fare(r)
			r.Price = &price
		}
		return nil
	})
}

// sourcesFor returns the allowed source statuses when moving to the target.
func sourcesFor(to types.RideStatus) []types.RideStatus {
	switch to {
	case types.StatusRequested:
		return types.RejectSources
	case types.StatusOffered:
		return types.OfferSources
	case types.StatusAccepted:
		return types.AcceptSources
	case types.StatusCompleted:
		return types.CompleteSources
	case types.StatusCancelled:
		return types.CancelSources
	default:
		return nil
	}
}
