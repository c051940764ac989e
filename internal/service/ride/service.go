package ride

import (
	"context"
	"errors"
	"fmt"

	"github.com/Temutjin2k/ride-dispatch/internal/domain/models"
	"github.com/Temutjin2k/ride-dispatch/internal/domain/types"
	"github.com/Temutjin2k/ride-dispatch/pkg/logger"
	wrap "github.com/Temutjin2k/ride-dispatch/pkg/logger/wrapper"
	"github.com/Temutjin2k/ride-dispatch/pkg/metrics"
	"github.com/Temutjin2k/ride-dispatch/pkg/uuid"
)

type (
	// RideRepo is the ride store. Transition is the single guarded mutation
	// entry point: it loads the row under lock, checks the status against
	// from, applies mutate and writes back, all in one transaction.
	RideRepo interface {
		Create(ctx context.Context, ride *models.Ride) (*models.Ride, error)
		Get(ctx context.Context, rideID uuid.UUID) (*models.Ride, error)
		ListAll(ctx context.Context) ([]*models.Ride, error)
		ListByParticipant(ctx context.Context, userID int64) ([]*models.Ride, error)
		Transition(ctx context.Context, rideID uuid.UUID, from []types.RideStatus, to types.RideStatus, mutate func(*models.Ride) error) (*models.Ride, error)
	}

	NotificationRepo interface {
		Create(ctx context.Context, n *models.Notification) (*models.Notification, error)
	}

	Broker interface {
		PublishRideRequested(ctx context.Context, msg models.RideRequestedMessage) error
		PublishRideOffer(ctx context.Context, msg models.RideOfferMessage) error
		PublishRideAccepted(ctx context.Context, msg models.RideAcceptedMessage) error
		PublishRideCompleted(ctx context.Context, msg models.RideCompletedMessage) error
		PublishRideCancelled(ctx context.Context, msg models.RideCancelledMessage) error
		PublishNotification(ctx context.Context, msg models.NotificationMessage) error
	}
)

// Service implements the ride lifecycle: every write verb authorizes the
// caller, applies the guarded transition, then publishes the corresponding
// event and notification.
type Service struct {
	repo          RideRepo
	notifications NotificationRepo
	broker        Broker
	pricing       PricingStrategy
	service       string

	l logger.Logger
}

func NewService(
	repo RideRepo,
	notifications NotificationRepo,
	broker Broker,
	pricing PricingStrategy,
	service string,
	log logger.Logger,
) *Service {
	return &Service{
		repo:          repo,
		notifications: notifications,
		broker:        broker,
		pricing:       pricing,
		service:       service,
		l:             log,
	}
}

// Create makes a new requested ride for the passenger and enqueues it for
// dispatch.
func (s *Service) Create(ctx context.Context, who *models.Identity, origin, destination string) (*models.Ride, error) {
	if who == nil || who.IsAnonymous() {
		return nil, wrap.Error(ctx, types.ErrUnauthorized)
	}

	id, err := uuid.New()
	if err != nil {
		return nil, wrap.Error(ctx, fmt.Errorf("failed to generate ride id: %w", err))
	}

	ride := &models.Ride{
		ID:          id,
		PassengerID: who.ID,
		Origin:      origin,
		Destination: destination,
		Status:      types.StatusRequested,
	}

	ride, err = s.repo.Create(ctx, ride)
	if err != nil {
		return nil, wrap.Error(ctx, err)
	}

	event := models.RideRequestedMessage{
		RideID:      ride.ID,
		Origin:      ride.Origin,
		Destination: ride.Destination,
		PassengerID: ride.PassengerID,
	}
	if err := s.broker.PublishRideRequested(ctx, event); err != nil {
		// The ride exists but will never reach the worker; surface the
		// failure so the client knows dispatch did not start.
		return nil, wrap.Error(ctx, fmt.Errorf("ride created but not enqueued: %w: %w", types.ErrUpstreamUnavailable, err))
	}

	typ, title, message := requestedNotification(ride)
	s.notify(ctx, ride.PassengerID, ride, typ, title, message)

	return ride, nil
}

// List returns the rides visible to the caller: admins see everything,
// passengers and drivers see the rides they participate in.
func (s *Service) List(ctx context.Context, who *models.Identity) ([]*models.Ride, error) {
	if who == nil || who.IsAnonymous() {
		return nil, wrap.Error(ctx, types.ErrUnauthorized)
	}

	if who.Role == types.RoleAdmin {
		rides, err := s.repo.ListAll(ctx)
		if err != nil {
			return nil, wrap.Error(ctx, err)
		}
		return rides, nil
	}

	rides, err := s.repo.ListByParticipant(ctx, who.ID)
	if err != nil {
		return nil, wrap.Error(ctx, err)
	}
	return rides, nil
}

func (s *Service) Get(ctx context.Context, who *models.Identity, rideID uuid.UUID) (*models.Ride, error) {
	ride, err := s.repo.Get(ctx, rideID)
	if err != nil {
		return nil, wrap.Error(ctx, err)
	}

	if !ride.VisibleTo(who) {
		return nil, wrap.Error(ctx, types.ErrForbidden)
	}

	return ride, nil
}

// Offer is the admin's manual dispatch: requested -> offered with the driver
// bound. The dispatch worker uses AssignDriver instead.
func (s *Service) Offer(ctx context.Context, who *models.Identity, rideID uuid.UUID, driverID int64) (*models.Ride, error) {
	if who == nil || who.Role != types.RoleAdmin {
		return nil, wrap.Error(ctx, types.ErrForbidden)
	}

	ride, err := s.transition(ctx, rideID, types.OfferSources, types.StatusOffered, func(r *models.Ride) error {
		r.DriverID = &driverID
		return nil
	})
	if err != nil {
		return nil, err
	}

	event := models.RideOfferMessage{
		RideID:      ride.ID,
		DriverID:    driverID,
		Origin:      ride.Origin,
		Destination: ride.Destination,
		PassengerID: ride.PassengerID,
	}
	if err := s.broker.PublishRideOffer(ctx, event); err != nil {
		s.l.Error(wrap.ErrorCtx(ctx, err), "failed to publish ride.offer", err)
	}

	typ, title, message := offeredNotification(ride)
	s.notify(ctx, driverID, ride, typ, title, message)

	return ride, nil
}

// Accept moves an offered ride to accepted. Only the driver the ride was
// offered to may accept; anyone else gets Forbidden, not PreconditionFailed.
func (s *Service) Accept(ctx context.Context, who *models.Identity, rideID uuid.UUID) (*models.Ride, error) {
	if who == nil || who.IsAnonymous() {
		return nil, wrap.Error(ctx, types.ErrUnauthorized)
	}

	ride, err := s.transition(ctx, rideID, types.AcceptSources, types.StatusAccepted, func(r *models.Ride) error {
		if !r.AssignedTo(who.ID) {
			return types.ErrForbidden
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	event := models.RideAcceptedMessage{RideID: ride.ID, DriverID: who.ID}
	if err := s.broker.PublishRideAccepted(ctx, event); err != nil {
		s.l.Error(wrap.ErrorCtx(ctx, err), "failed to publish ride.accepted", err)
	}

	typ, title, message := acceptedNotification(ride)
	s.notify(ctx, ride.PassengerID, ride, typ, title, message)

	return ride, nil
}

// Reject returns an offered ride to the requested pool: the driver binding
// is cleared and the ride is republished for dispatch.
func (s *Service) Reject(ctx context.Context, who *models.Identity, rideID uuid.UUID) (*models.Ride, error) {
	if who == nil || who.IsAnonymous() {
		return nil, wrap.Error(ctx, types.ErrUnauthorized)
	}

	ride, err := s.transition(ctx, rideID, types.RejectSources, types.StatusRequested, func(r *models.Ride) error {
		if !r.AssignedTo(who.ID) {
			return types.ErrForbidden
		}
		r.DriverID = nil
		return nil
	})
	if err != nil {
		return nil, err
	}

	event := models.RideRequestedMessage{
		RideID:      ride.ID,
		Origin:      ride.Origin,
		Destination: ride.Destination,
		PassengerID: ride.PassengerID,
	}
	if err := s.broker.PublishRideRequested(ctx, event); err != nil {
		s.l.Error(wrap.ErrorCtx(ctx, err), "failed to republish ride.requested", err)
	}

	typ, title, message := rejectedNotification(ride)
	s.notify(ctx, ride.PassengerID, ride, typ, title, message)

	return ride, nil
}

// Complete finishes an accepted ride. The fare is computed by the pricing
// strategy and set inside the same transition that flips the status, so a
// completed ride always carries a price.
func (s *Service) Complete(ctx context.Context, who *models.Identity, rideID uuid.UUID) (*models.Ride, error) {
	if who == nil || who.IsAnonymous() {
		return nil, wrap.Error(ctx, types.ErrUnauthorized)
	}

	ride, err := s.transition(ctx, rideID, types.CompleteSources, types.StatusCompleted, func(r *models.Ride) error {
		if !r.AssignedTo(who.ID) {
			return types.ErrForbidden
		}
		price := s.pricing.Fare(r)
		r.Price = &price
		return nil
	})
	if err != nil {
		return nil, err
	}

	price := 0.0
	if ride.Price != nil {
		price = *ride.Price
	}
	event := models.RideCompletedMessage{RideID: ride.ID, Price: price}
	if err := s.broker.PublishRideCompleted(ctx, event); err != nil {
		s.l.Error(wrap.ErrorCtx(ctx, err), "failed to publish ride.completed", err)
	}

	typ, title, message := completedNotification(ride)
	s.notify(ctx, ride.PassengerID, ride, typ, title, message)
	if ride.DriverID != nil {
		s.notify(ctx, *ride.DriverID, ride, typ, title, message)
	}

	return ride, nil
}

// Cancel ends a non-terminal ride. The passenger may cancel their own ride,
// the assigned driver theirs; the other party is notified.
func (s *Service) Cancel(ctx context.Context, who *models.Identity, rideID uuid.UUID) (*models.Ride, error) {
	if who == nil || who.IsAnonymous() {
		return nil, wrap.Error(ctx, types.ErrUnauthorized)
	}

	ride, err := s.transition(ctx, rideID, types.CancelSources, types.StatusCancelled, func(r *models.Ride) error {
		if r.PassengerID != who.ID && !r.AssignedTo(who.ID) {
			return types.ErrForbidden
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	event := models.RideCancelledMessage{RideID: ride.ID}
	if err := s.broker.PublishRideCancelled(ctx, event); err != nil {
		s.l.Error(wrap.ErrorCtx(ctx, err), "failed to publish ride.cancelled", err)
	}

	typ, title, message := cancelledNotification(who.Role)
	switch {
	case ride.PassengerID == who.ID && ride.DriverID != nil:
		s.notify(ctx, *ride.DriverID, ride, typ, title, message)
	case ride.PassengerID != who.ID:
		s.notify(ctx, ride.PassengerID, ride, typ, title, message)
	}

	return ride, nil
}

// transition runs the guarded transition and records the outcome metric.
func (s *Service) transition(ctx context.Context, rideID uuid.UUID, from []types.RideStatus, to types.RideStatus, mutate func(*models.Ride) error) (*models.Ride, error) {
	ctx = wrap.WithRideID(ctx, rideID.String())

	ride, err := s.repo.Transition(ctx, rideID, from, to, mutate)

	outcome := "ok"
	switch {
	case errors.Is(err, types.ErrPreconditionFailed):
		outcome = "precondition"
	case err != nil:
		outcome = "error"
	}
	metrics.RideTransitionsTotal.WithLabelValues(s.service, to.String(), outcome).Inc()

	if err != nil {
		return nil, wrap.Error(ctx, err)
	}
	return ride, nil
}
