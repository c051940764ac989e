package rabbit

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/Temutjin2k/ride-dispatch/internal/domain/models"
	"github.com/Temutjin2k/ride-dispatch/internal/domain/types"
	wrap "github.com/Temutjin2k/ride-dispatch/pkg/logger/wrapper"
	"github.com/Temutjin2k/ride-dispatch/pkg/metrics"
)

// RetryPolicy bounds redelivery of ride.requested messages. Without a cap a
// ride with no available driver would hot-loop between worker and queue.
type RetryPolicy struct {
	MaxAttempts int
	BaseBackoff time.Duration
	MaxBackoff  time.Duration
}

type (
	RideRequestedHandler func(ctx context.Context, msg models.RideRequestedMessage) error
	NotificationHandler  func(ctx context.Context, msg models.NotificationMessage) error
)

// ConsumeRideRequested runs the dispatch worker's consume loop: prefetch 1,
// one in-flight message, manual acknowledgement. Blocks until ctx is
// cancelled; the in-flight handler always finishes before return.
func (b *DispatchBroker) ConsumeRideRequested(ctx context.Context, policy RetryPolicy, fn RideRequestedHandler) error {
	const op = "DispatchBroker.ConsumeRideRequested"
	ctx = wrap.WithAction(ctx, "rabbitmq_consume_ride_requested")

	for {
		if ctx.Err() != nil {
			b.l.Debug(ctx, "consume ride.requested stopped by context")
			return nil
		}

		msgs, err := b.subscribe(ctx, models.QueueRideRequested, op)
		if err != nil {
			sleepCtx(ctx, 2*time.Second)
			continue
		}

		b.l.Info(ctx, "start consuming ride requests", "queue", models.QueueRideRequested)

	consumeLoop:
		for {
			select {
			case <-ctx.Done():
				b.l.Info(ctx, "ride request consumer shutting down", "op", op)
				return nil

			case msg, ok := <-msgs:
				if !ok {
					b.l.Warn(ctx, "message channel closed, reconnecting...", "op", op)
					sleepCtx(ctx, 2*time.Second)
					break consumeLoop
				}

				// Inline, not in a goroutine: prefetch=1 means exactly one
				// in-flight message, and shutdown waits for it to finish.
				b.handleRideRequested(ctx, policy, fn, msg)
			}
		}
	}
}

func (b *DispatchBroker) handleRideRequested(ctx context.Context, policy RetryPolicy, fn RideRequestedHandler, msg amqp.Delivery) {
	const op = "DispatchBroker.handleRideRequested"

	// A panicking handler must not kill the consume loop; the message is
	// returned to the queue as if the failure were transient.
	defer func() {
		if p := recover(); p != nil {
			b.l.Error(ctx, "handler panicked", fmt.Errorf("%v", p), "op", op)
			_ = msg.Nack(false, true)
			metrics.RecordConsume(b.service, models.QueueRideRequested, "requeue")
		}
	}()

	var req models.RideRequestedMessage
	if err := json.Unmarshal(msg.Body, &req); err != nil {
		b.l.Error(ctx, "decode failed", err, "op", op)
		_ = msg.Reject(false) // dead-letters via the queue's DLX
		metrics.RecordConsume(b.service, models.QueueRideRequested, "reject")
		return
	}
	if err := req.Validate(); err != nil {
		b.l.Error(ctx, "invalid ride.requested payload", err, "op", op)
		_ = msg.Reject(false)
		metrics.RecordConsume(b.service, models.QueueRideRequested, "reject")
		return
	}

	ctxx := wrap.WithRideID(ctx, req.RideID.String())

	err := fn(ctxx, req)
	if err == nil {
		if err := msg.Ack(false); err != nil {
			b.l.Warn(ctxx, "ack failed", "err", err.Error(), "op", op)
		}
		metrics.RecordConsume(b.service, models.QueueRideRequested, "ack")
		return
	}

	b.l.Error(wrap.ErrorCtx(ctxx, err), "handler failed", err, "op", op)

	if oneOf(err, types.ErrPreconditionFailed) {
		// Duplicate delivery of an already-dispatched ride. Expected under
		// at-least-once delivery; acknowledge and move on.
		b.l.Warn(ctxx, "ride already handled, acknowledging duplicate")
		_ = msg.Ack(false)
		metrics.RecordConsume(b.service, models.QueueRideRequested, "ack")
		return
	}

	if !isRetryable(err) {
		b.l.Warn(ctxx, "dropping poison message", "reason", err.Error())
		_ = msg.Reject(false)
		metrics.RecordConsume(b.service, models.QueueRideRequested, "reject")
		return
	}

	b.retryLater(ctxx, policy, msg, req)
}

// retryLater applies the bounded retry policy: wait out a capped exponential
// backoff, republish the message with an incremented attempt counter and
// acknowledge the original. Past the cap the message goes to the DLQ.
func (b *DispatchBroker) retryLater(ctx context.Context, policy RetryPolicy, msg amqp.Delivery, req models.RideRequestedMessage) {
	attempt := retryCount(msg.Headers) + 1

	if attempt >= policy.MaxAttempts {
		b.l.Warn(ctx, "retry budget exhausted, dead-lettering",
			"attempts", attempt, "queue", models.QueueRideRequestedDLQ)

		if err := b.publish(ctx, models.QueueRideRequestedDLQ, req, amqp.Table{headerRetryCount: int32(attempt)}); err != nil {
			b.l.Error(ctx, "failed to dead-letter, requeueing instead", err)
			_ = msg.Nack(false, true)
			metrics.RecordConsume(b.service, models.QueueRideRequested, "requeue")
			return
		}
		_ = msg.Ack(false)
		metrics.RecordConsume(b.service, models.QueueRideRequested, "dead-letter")
		return
	}

	wait := backoffFor(attempt, policy.BaseBackoff, policy.MaxBackoff)
	b.l.Debug(ctx, "scheduling retry", "attempt", attempt, "backoff", wait.String())
	sleepCtx(ctx, wait)

	if err := b.publish(ctx, models.QueueRideRequested, req, amqp.Table{headerRetryCount: int32(attempt)}); err != nil {
		b.l.Error(ctx, "failed to republish for retry, requeueing instead", err)
		_ = msg.Nack(false, true)
		metrics.RecordConsume(b.service, models.QueueRideRequested, "requeue")
		return
	}
	_ = msg.Ack(false)
	metrics.RecordConsume(b.service, models.QueueRideRequested, "retry")
}

// ConsumeNotifications runs the fan-out consumer loop. Delivery errors from
// the sink requeue the message; malformed payloads are rejected.
func (b *DispatchBroker) ConsumeNotifications(ctx context.Context, fn NotificationHandler) error {
	const op = "DispatchBroker.ConsumeNotifications"
	ctx = wrap.WithAction(ctx, "rabbitmq_consume_notifications")

	for {
		if ctx.Err() != nil {
			b.l.Debug(ctx, "consume notifications stopped by context")
			return nil
		}

		msgs, err := b.subscribe(ctx, models.QueueNotifications, op)
		if err != nil {
			sleepCtx(ctx, 2*time.Second)
			continue
		}

		b.l.Info(ctx, "start consuming notifications", "queue", models.QueueNotifications)

	consumeLoop:
		for {
			select {
			case <-ctx.Done():
				b.l.Info(ctx, "notification consumer shutting down", "op", op)
				return nil

			case msg, ok := <-msgs:
				if !ok {
					b.l.Warn(ctx, "message channel closed, reconnecting...", "op", op)
					sleepCtx(ctx, 2*time.Second)
					break consumeLoop
				}

				b.handleNotification(ctx, fn, msg)
			}
		}
	}
}

func (b *DispatchBroker) handleNotification(ctx context.Context, fn NotificationHandler, msg amqp.Delivery) {
	const op = "DispatchBroker.handleNotification"

	defer func() {
		if p := recover(); p != nil {
			b.l.Error(ctx, "handler panicked", fmt.Errorf("%v", p), "op", op)
			_ = msg.Nack(false, true)
			metrics.RecordConsume(b.service, models.QueueNotifications, "requeue")
		}
	}()

	var note models.NotificationMessage
	if err := json.Unmarshal(msg.Body, &note); err != nil {
		b.l.Error(ctx, "decode failed", err, "op", op)
		_ = msg.Reject(false)
		metrics.RecordConsume(b.service, models.QueueNotifications, "reject")
		return
	}
	if err := note.Validate(); err != nil {
		b.l.Error(ctx, "invalid notification payload", err, "op", op)
		_ = msg.Reject(false)
		metrics.RecordConsume(b.service, models.QueueNotifications, "reject")
		return
	}

	ctxx := wrap.WithRideID(ctx, note.RideID.String())

	if err := fn(ctxx, note); err != nil {
		b.l.Error(wrap.ErrorCtx(ctxx, err), "delivery failed, requeueing", err, "op", op)
		_ = msg.Nack(false, true)
		metrics.RecordConsume(b.service, models.QueueNotifications, "requeue")
		return
	}

	if err := msg.Ack(false); err != nil {
		b.l.Warn(ctxx, "ack failed", "err", err.Error(), "op", op)
	}
	metrics.RecordConsume(b.service, models.QueueNotifications, "ack")
}

// subscribe restores the connection, declares the topology and opens a
// prefetch=1 delivery channel on the queue.
func (b *DispatchBroker) subscribe(ctx context.Context, queue, op string) (<-chan amqp.Delivery, error) {
	if err := b.client.EnsureConnection(ctx); err != nil {
		b.l.Error(ctx, "ensure connection failed", err, "op", op)
		return nil, err
	}

	if err := b.DeclareQueues(ctx); err != nil {
		b.l.Error(ctx, "declare queues failed", err, "op", op)
		return nil, err
	}

	// One unacknowledged message per consumer connection at a time.
	if err := b.client.Channel.Qos(1, 0, false); err != nil {
		b.l.Error(ctx, "set qos failed", err, "op", op)
		return nil, err
	}

	msgs, err := b.client.Channel.Consume(queue, "", false, false, false, false, nil)
	if err != nil {
		b.l.Error(ctx, "consume failed", err, "op", op)
		return nil, err
	}

	return msgs, nil
}

func sleepCtx(ctx context.Context, d time.Duration) {
	select {
	case <-ctx.Done():
	case <-time.After(d):
	}
}
