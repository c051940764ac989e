package notify

import (
	"context"
	"errors"
	"fmt"

	"github.com/Temutjin2k/ride-dispatch/internal/domain/models"
	"github.com/Temutjin2k/ride-dispatch/pkg/logger"
	wrap "github.com/Temutjin2k/ride-dispatch/pkg/logger/wrapper"
	"github.com/Temutjin2k/ride-dispatch/pkg/metrics"
)

// Fanout delivers consumed notification events through an ordered chain of
// sinks: the first sink that can reach the user wins. A sink reporting the
// user offline is skipped; a sink failing outright fails the delivery so the
// message is redelivered.
type Fanout struct {
	sinks   []Sink
	service string

	l logger.Logger
}

func NewFanout(service string, log logger.Logger, sinks ...Sink) *Fanout {
	return &Fanout{
		sinks:   sinks,
		service: service,
		l:       log,
	}
}

func (f *Fanout) HandleNotification(ctx context.Context, msg models.NotificationMessage) error {
	ctx = wrap.WithAction(wrap.WithUserID(ctx, fmt.Sprintf("%d", msg.UserID)), "notification_fanout")

	for _, sink := range f.sinks {
		err := sink.Deliver(ctx, msg)
		if err == nil {
			metrics.NotificationsDeliveredTotal.WithLabelValues(f.service, sink.Name(), "ok").Inc()
			f.l.Debug(ctx, "notification delivered", "sink", sink.Name(), "type", msg.Type)
			return nil
		}
		if errors.Is(err, ErrUserOffline) {
			metrics.NotificationsDeliveredTotal.WithLabelValues(f.service, sink.Name(), "offline").Inc()
			continue
		}

		metrics.NotificationsDeliveredTotal.WithLabelValues(f.service, sink.Name(), "error").Inc()
		return wrap.Error(ctx, fmt.Errorf("sink %s: %w", sink.Name(), err))
	}

	// Every sink reported the user offline. Delivery is best effort and the
	// record is already persisted for pull-based catch-up, so this is done.
	f.l.Debug(ctx, "user offline on all sinks", "type", msg.Type)
	return nil
}
