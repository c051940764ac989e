package rabbit

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/Temutjin2k/ride-dispatch/internal/domain/models"
	"github.com/Temutjin2k/ride-dispatch/pkg/logger"
	wrap "github.com/Temutjin2k/ride-dispatch/pkg/logger/wrapper"
	"github.com/Temutjin2k/ride-dispatch/pkg/metrics"
	"github.com/Temutjin2k/ride-dispatch/pkg/rabbit"
)

// headerRetryCount carries the bounded-retry attempt counter across
// republishes of the same logical message.
const headerRetryCount = "x-retry-count"

type validatable interface {
	Validate() error
}

// DispatchBroker is the message channel of the dispatch pipeline: named
// durable queues on the default exchange, at-least-once delivery,
// manual acknowledgement on the consumer side.
type DispatchBroker struct {
	client  *rabbit.RabbitMQ
	service string

	l logger.Logger
}

func NewDispatchBroker(client *rabbit.RabbitMQ, service string, log logger.Logger) *DispatchBroker {
	return &DispatchBroker{
		client:  client,
		service: service,
		l:       log,
	}
}

// DeclareQueues declares the pipeline topology. Idempotent, safe to repeat;
// every producer and consumer calls it so start order does not matter.
// ride.requested dead-letters into its DLQ so rejected messages survive
// for inspection instead of vanishing.
func (b *DispatchBroker) DeclareQueues(ctx context.Context) error {
	if err := b.client.EnsureConnection(ctx); err != nil {
		return wrap.Error(ctx, err)
	}

	requestArgs := amqp.Table{
		"x-dead-letter-exchange":    "",
		"x-dead-letter-routing-key": models.QueueRideRequestedDLQ,
	}
	if _, err := b.client.Channel.QueueDeclare(models.QueueRideRequested, true, false, false, false, requestArgs); err != nil {
		return wrap.Error(ctx, fmt.Errorf("declare %s: %w", models.QueueRideRequested, err))
	}

	plain := []string{
		models.QueueRideRequestedDLQ,
		models.QueueRideOffer,
		models.QueueRideAccepted,
		models.QueueRideCompleted,
		models.QueueRideCancelled,
		models.QueueNotifications,
	}
	for _, queue := range plain {
		if _, err := b.client.Channel.QueueDeclare(queue, true, false, false, false, nil); err != nil {
			return wrap.Error(ctx, fmt.Errorf("declare %s: %w", queue, err))
		}
	}

	return nil
}

func (b *DispatchBroker) PublishRideRequested(ctx context.Context, msg models.RideRequestedMessage) error {
	ctx = wrap.WithAction(wrap.WithRideID(ctx, msg.RideID.String()), "rabbitmq_publish_ride_requested")
	return b.publish(ctx, models.QueueRideRequested, msg, nil)
}

func (b *DispatchBroker) PublishRideOffer(ctx context.Context, msg models.RideOfferMessage) error {
	ctx = wrap.WithAction(wrap.WithRideID(ctx, msg.RideID.String()), "rabbitmq_publish_ride_offer")
	return b.publish(ctx, models.QueueRideOffer, msg, nil)
}

func (b *DispatchBroker) PublishRideAccepted(ctx context.Context, msg models.RideAcceptedMessage) error {
	ctx = wrap.WithAction(wrap.WithRideID(ctx, msg.RideID.String()), "rabbitmq_publish_ride_accepted")
	return b.publish(ctx, models.QueueRideAccepted, msg, nil)
}

func (b *DispatchBroker) PublishRideCompleted(ctx context.Context, msg models.RideCompletedMessage) error {
	ctx = wrap.WithAction(wrap.WithRideID(ctx, msg.RideID.String()), "rabbitmq_publish_ride_completed")
	return b.publish(ctx, models.QueueRideCompleted, msg, nil)
}

func (b *DispatchBroker) PublishRideCancelled(ctx context.Context, msg models.RideCancelledMessage) error {
	ctx = wrap.WithAction(wrap.WithRideID(ctx, msg.RideID.String()), "rabbitmq_publish_ride_cancelled")
	return b.publish(ctx, models.QueueRideCancelled, msg, nil)
}

func (b *DispatchBroker) PublishNotification(ctx context.Context, msg models.NotificationMessage) error {
	ctx = wrap.WithAction(wrap.WithRideID(ctx, msg.RideID.String()), "rabbitmq_publish_notification")
	return b.publish(ctx, models.QueueNotifications, msg, nil)
}

// publish validates the payload at the channel boundary, then enqueues a
// persistent message on the named queue via the default exchange.
func (b *DispatchBroker) publish(ctx context.Context, queue string, msg any, headers amqp.Table) (err error) {
	defer func() { metrics.RecordPublish(b.service, queue, err) }()

	if v, ok := msg.(validatable); ok {
		if err = v.Validate(); err != nil {
			return wrap.Error(ctx, err)
		}
	}

	if err = b.client.EnsureConnection(ctx); err != nil {
		b.l.Error(ctx, "ensure connection failed", err)
		return wrap.Error(ctx, err)
	}

	body, err := json.Marshal(msg)
	if err != nil {
		return wrap.Error(ctx, fmt.Errorf("failed to marshal message: %w", err))
	}

	if err = retry(5, time.Second, func() error {
		return b.client.Channel.PublishWithContext(
			ctx,
			"",    // default exchange
			queue, // routing key = queue name
			false, // mandatory
			false, // immediate
			amqp.Publishing{
				ContentType:  "application/json",
				DeliveryMode: amqp.Persistent,
				Timestamp:    time.Now(),
				Headers:      headers,
				Body:         body,
			},
		)
	}); err != nil {
		return wrap.Error(ctx, fmt.Errorf("failed to publish to %s: %w", queue, err))
	}

	return nil
}
