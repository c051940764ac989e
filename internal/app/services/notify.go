package services

import (
	"context"
	"fmt"

	"github.com/Temutjin2k/ride-dispatch/config"
	"github.com/Temutjin2k/ride-dispatch/internal/adapter/http/server"
	"github.com/Temutjin2k/ride-dispatch/internal/adapter/http/ws"
	rabbitAdapter "github.com/Temutjin2k/ride-dispatch/internal/adapter/rabbit"
	notifyService "github.com/Temutjin2k/ride-dispatch/internal/service/notify"
	"github.com/Temutjin2k/ride-dispatch/pkg/logger"
	wrap "github.com/Temutjin2k/ride-dispatch/pkg/logger/wrapper"
	"github.com/Temutjin2k/ride-dispatch/pkg/rabbit"
	wshub "github.com/Temutjin2k/ride-dispatch/pkg/wsHub"
)

// Notify is the fan-out worker: consumes notification events and pushes them
// to connected users, with the service log as the terminal fallback sink.
type Notify struct {
	cfg config.Config
	log logger.Logger

	mq     *rabbit.RabbitMQ
	broker *rabbitAdapter.DispatchBroker
	fanout *notifyService.Fanout
	hub    *wshub.ConnectionHub
	server *server.API
}

func NewNotify(ctx context.Context, cfg config.Config, log logger.Logger) (*Notify, error) {
	ctx = wrap.WithAction(ctx, "init_notify_worker")

	mq, err := rabbit.New(ctx, cfg.RabbitMQ.GetDSN(), log)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to rabbitmq: %w", err)
	}

	broker := rabbitAdapter.NewDispatchBroker(mq, string(cfg.Mode), log)
	if err := broker.DeclareQueues(ctx); err != nil {
		return nil, fmt.Errorf("failed to declare queues: %w", err)
	}

	hub := wshub.NewConnHub(log)
	fanout := notifyService.NewFanout(string(cfg.Mode), log,
		notifyService.NewHubSink(hub),
		notifyService.NewLogSink(log),
	)

	srv, err := server.New(cfg, nil, nil, nil, nil, ws.NewNotifyWS(hub, log), log)
	if err != nil {
		return nil, fmt.Errorf("failed to build ws server: %w", err)
	}

	return &Notify{
		cfg:    cfg,
		log:    log,
		mq:     mq,
		broker: broker,
		fanout: fanout,
		hub:    hub,
		server: srv,
	}, nil
}

// Start runs the ws endpoint and the consume loop; the in-flight message is
// always finished before shutdown completes.
func (s *Notify) Start(ctx context.Context) error {
	errCh := make(chan error, 1)
	s.server.Run(ctx, errCh)

	consumeDone := make(chan error, 1)
	go func() {
		consumeDone <- s.broker.ConsumeNotifications(ctx, s.fanout.HandleNotification)
	}()

	var err error
	select {
	case err = <-errCh:
		s.log.Error(ctx, "ws server failed", err)
	case err = <-consumeDone:
	case <-ctx.Done():
		s.log.Info(ctx, "shutting down notify worker")
		err = <-consumeDone // consume loop returns after the in-flight handler
	}

	stopCtx := context.WithoutCancel(ctx)
	if serr := s.server.Stop(stopCtx); serr != nil {
		s.log.Error(stopCtx, "failed to stop ws server", serr)
	}
	s.hub.Close()
	if cerr := s.mq.Close(stopCtx); cerr != nil {
		s.log.Error(stopCtx, "failed to close rabbitmq connection", cerr)
	}

	return err
}
