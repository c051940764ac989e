package services

import (
	"context"
	"fmt"

	"github.com/Temutjin2k/ride-dispatch/config"
	"github.com/Temutjin2k/ride-dispatch/internal/adapter/identity"
	"github.com/Temutjin2k/ride-dispatch/internal/adapter/http/server"
	postgresAdapter "github.com/Temutjin2k/ride-dispatch/internal/adapter/postgres"
	rabbitAdapter "github.com/Temutjin2k/ride-dispatch/internal/adapter/rabbit"
	notifyService "github.com/Temutjin2k/ride-dispatch/internal/service/notify"
	rideService "github.com/Temutjin2k/ride-dispatch/internal/service/ride"
	"github.com/Temutjin2k/ride-dispatch/pkg/logger"
	wrap "github.com/Temutjin2k/ride-dispatch/pkg/logger/wrapper"
	"github.com/Temutjin2k/ride-dispatch/pkg/postgres"
	"github.com/Temutjin2k/ride-dispatch/pkg/rabbit"
	"github.com/Temutjin2k/ride-dispatch/pkg/trm"
)

// API is the synchronous ride lifecycle service: HTTP surface, ride store,
// event publication.
type API struct {
	cfg config.Config
	log logger.Logger

	db     *postgres.PostgreDB
	mq     *rabbit.RabbitMQ
	server *server.API
}

func NewAPI(ctx context.Context, cfg config.Config, log logger.Logger) (*API, error) {
	ctx = wrap.WithAction(ctx, "init_api_service")

	db, err := postgres.New(ctx, cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to postgres: %w", err)
	}
	log.Info(ctx, "connected to postgres")

	if err := postgresAdapter.Migrate(ctx, db.Pool); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	mq, err := rabbit.New(ctx, cfg.RabbitMQ.GetDSN(), log)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to rabbitmq: %w", err)
	}

	broker := rabbitAdapter.NewDispatchBroker(mq, string(cfg.Mode), log)
	if err := broker.DeclareQueues(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to declare queues: %w", err)
	}

	txManager := trm.New(db.Pool)
	rideRepo := postgresAdapter.NewRideRepo(db.Pool, txManager)
	notificationRepo := postgresAdapter.NewNotificationRepo(db.Pool)

	pricing := rideService.NewFixedFare(cfg.Pricing.FixedFare)
	rides := rideService.NewService(rideRepo, notificationRepo, broker, pricing, string(cfg.Mode), log)
	inbox := notifyService.NewInbox(notificationRepo, log)

	verifier := identity.NewVerifier(cfg.Identity, log)

	srv, err := server.New(cfg, verifier, rides, rides, inbox, nil, log)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to build http server: %w", err)
	}

	return &API{
		cfg:    cfg,
		log:    log,
		db:     db,
		mq:     mq,
		server: srv,
	}, nil
}

// Start runs the HTTP server until the context is cancelled or the server
// fails, then releases broker and database resources.
func (s *API) Start(ctx context.Context) error {
	errCh := make(chan error, 1)
	s.server.Run(ctx, errCh)

	select {
	case err := <-errCh:
		s.close(ctx)
		return err
	case <-ctx.Done():
		s.log.Info(ctx, "shutting down api service")
		stopCtx := context.WithoutCancel(ctx)
		if err := s.server.Stop(stopCtx); err != nil {
			s.log.Error(stopCtx, "failed to stop http server", err)
		}
		s.close(stopCtx)
		return nil
	}
}

func (s *API) close(ctx context.Context) {
	if err := s.mq.Close(ctx); err != nil {
		s.log.Error(ctx, "failed to close rabbitmq connection", err)
	}
	s.db.Close()
}
