package services

import (
	"context"
	"fmt"

	"github.com/Temutjin2k/ride-dispatch/config"
	rabbitAdapter "github.com/Temutjin2k/ride-dispatch/internal/adapter/rabbit"
	dispatchService "github.com/Temutjin2k/ride-dispatch/internal/service/dispatch"
	"github.com/Temutjin2k/ride-dispatch/pkg/logger"
	wrap "github.com/Temutjin2k/ride-dispatch/pkg/logger/wrapper"
	"github.com/Temutjin2k/ride-dispatch/pkg/rabbit"
)

// Dispatch is the matching worker: consumes ride.requested, binds drivers
// through the internal ride API, publishes offers.
type Dispatch struct {
	cfg config.Config
	log logger.Logger

	mq     *rabbit.RabbitMQ
	broker *rabbitAdapter.DispatchBroker
	worker *dispatchService.Worker
}

func NewDispatch(ctx context.Context, cfg config.Config, log logger.Logger) (*Dispatch, error) {
	ctx = wrap.WithAction(ctx, "init_dispatch_worker")

	mq, err := rabbit.New(ctx, cfg.RabbitMQ.GetDSN(), log)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to rabbitmq: %w", err)
	}

	broker := rabbitAdapter.NewDispatchBroker(mq, string(cfg.Mode), log)
	if err := broker.DeclareQueues(ctx); err != nil {
		return nil, fmt.Errorf("failed to declare queues: %w", err)
	}

	matcher := dispatchService.NewPoolMatcher(cfg.Dispatch.DriverPool)
	client := dispatchService.NewClient(cfg.Services.InternalAPIBase, log)
	worker := dispatchService.NewWorker(matcher, client, broker, cfg.Dispatch, string(cfg.Mode), log)

	return &Dispatch{
		cfg:    cfg,
		log:    log,
		mq:     mq,
		broker: broker,
		worker: worker,
	}, nil
}

// Start blocks in the consume loop until the context is cancelled.
func (s *Dispatch) Start(ctx context.Context) error {
	policy := rabbitAdapter.RetryPolicy{
		MaxAttempts: s.cfg.Dispatch.MaxAttempts,
		BaseBackoff: s.cfg.Dispatch.BaseBackoff,
		MaxBackoff:  s.cfg.Dispatch.MaxBackoff,
	}

	err := s.broker.ConsumeRideRequested(ctx, policy, s.worker.HandleRideRequested)

	closeCtx := context.WithoutCancel(ctx)
	if cerr := s.mq.Close(closeCtx); cerr != nil {
		s.log.Error(closeCtx, "failed to close rabbitmq connection", cerr)
	}

	return err
}
