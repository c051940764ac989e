package notify

import (
	"context"
	"errors"

	"github.com/Temutjin2k/ride-dispatch/internal/domain/models"
	"github.com/Temutjin2k/ride-dispatch/pkg/logger"
	wrap "github.com/Temutjin2k/ride-dispatch/pkg/logger/wrapper"
	wshub "github.com/Temutjin2k/ride-dispatch/pkg/wsHub"
)

// ErrUserOffline means the sink has no channel to the user right now. It is
// not a delivery failure: the fan-out falls through to the next sink.
var ErrUserOffline = errors.New("user has no active delivery channel")

// Sink delivers one notification to a user out of band (push/email/SMS).
type Sink interface {
	Name() string
	Deliver(ctx context.Context, msg models.NotificationMessage) error
}

// HubSink pushes over the user's live WebSocket connection.
type HubSink struct {
	hub *wshub.ConnectionHub
}

func NewHubSink(hub *wshub.ConnectionHub) *HubSink {
	return &HubSink{hub: hub}
}

func (s *HubSink) Name() string { return "websocket" }

func (s *HubSink) Deliver(_ context.Context, msg models.NotificationMessage) error {
	err := s.hub.SendTo(msg.UserID, msg)
	if errors.Is(err, wshub.ErrConnIsNotFound) {
		return ErrUserOffline
	}
	return err
}

// LogSink writes the notification to the service log. The terminal fallback:
// it never fails, so fan-out always terminates with a delivery.
type LogSink struct {
	l logger.Logger
}

func NewLogSink(l logger.Logger) *LogSink {
	return &LogSink{l: l}
}

func (s *LogSink) Name() string { return "log" }

func (s *LogSink) Deliver(ctx context.Context, msg models.NotificationMessage) error {
	ctx = wrap.WithAction(ctx, "notification_delivered")
	s.l.Info(ctx,
		"notification",
		"user_id", msg.UserID,
		"type", msg.Type,
		"title", msg.Title,
		"message", msg.Message,
		"ride_id", msg.RideID,
	)
	return nil
}
