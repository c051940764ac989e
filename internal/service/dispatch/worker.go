package dispatch

import (
	"context"
	"errors"
	"fmt"

	"github.com/Temutjin2k/ride-dispatch/config"
	"github.com/Temutjin2k/ride-dispatch/internal/domain/models"
	"github.com/Temutjin2k/ride-dispatch/internal/domain/types"
	"github.com/Temutjin2k/ride-dispatch/pkg/logger"
	wrap "github.com/Temutjin2k/ride-dispatch/pkg/logger/wrapper"
	"github.com/Temutjin2k/ride-dispatch/pkg/metrics"
	"github.com/Temutjin2k/ride-dispatch/pkg/uuid"
)

type (
	// Assigner applies the requested -> offered transition. In production it
	// is the internal API client; tests plug in a fake.
	Assigner interface {
		AssignDriver(ctx context.Context, rideID uuid.UUID, driverID int64) (*models.Ride, error)
	}

	OfferPublisher interface {
		PublishRideOffer(ctx context.Context, msg models.RideOfferMessage) error
	}
)

// Worker matches requested rides to drivers. One message at a time: select a
// driver, bind it through the guarded transition, publish the offer.
type Worker struct {
	matcher  Matcher
	assigner Assigner
	broker   OfferPublisher
	cfg      config.DispatchConfig
	service  string

	l logger.Logger
}

func NewWorker(
	matcher Matcher,
	assigner Assigner,
	broker OfferPublisher,
	cfg config.DispatchConfig,
	service string,
	log logger.Logger,
) *Worker {
	return &Worker{
		matcher:  matcher,
		assigner: assigner,
		broker:   broker,
		cfg:      cfg,
		service:  service,
		l:        log,
	}
}

// HandleRideRequested processes one ride.requested message. The returned
// error drives the consumer's ack/retry decision: nil and PreconditionFailed
// mean handled, anything else is judged by the retry policy.
func (w *Worker) HandleRideRequested(ctx context.Context, msg models.RideRequestedMessage) error {
	ctx = wrap.WithAction(ctx, "dispatch_match")

	driverID, err := w.matcher.SelectDriver(ctx, msg)
	if err != nil {
		metrics.DispatchMatchesTotal.WithLabelValues(w.service, "no_driver").Inc()
		ctx = wrap.WithAction(ctx, types.ActionDispatchMatchFailed)
		w.l.Warn(ctx, "no driver available", "ride_id", msg.RideID)
		return fmt.Errorf("select driver: %w", err)
	}

	assignCtx, cancel := context.WithTimeout(ctx, w.cfg.StoreTimeout)
	defer cancel()

	ride, err := w.assigner.AssignDriver(assignCtx, msg.RideID, driverID)
	if err != nil {
		switch {
		case errors.Is(err, types.ErrPreconditionFailed):
			// The ride moved on since the message was enqueued; a duplicate
			// delivery or a manual offer beat us to it.
			metrics.DispatchMatchesTotal.WithLabelValues(w.service, "conflict").Inc()
			if current, ok := types.CurrentStatus(err); ok {
				w.l.Info(ctx, "ride already handled", "ride_id", msg.RideID, "current_status", current)
			}
		default:
			metrics.DispatchMatchesTotal.WithLabelValues(w.service, "error").Inc()
		}
		return err
	}

	event := models.RideOfferMessage{
		RideID:      ride.ID,
		DriverID:    driverID,
		Origin:      ride.Origin,
		Destination: ride.Destination,
		PassengerID: ride.PassengerID,
	}
	if err := w.broker.PublishRideOffer(ctx, event); err != nil {
		// The assignment is committed; only the offer event is missing.
		// Returning the error would redeliver and hit the precondition, so
		// log and move on.
		w.l.Error(wrap.ErrorCtx(ctx, err), "failed to publish ride.offer", err, "ride_id", ride.ID)
	}

	metrics.DispatchMatchesTotal.WithLabelValues(w.service, "matched").Inc()
	w.l.Info(ctx, "ride matched", "ride_id", ride.ID, "driver_id", driverID)

	return nil
}
