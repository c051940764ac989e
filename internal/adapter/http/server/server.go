package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/Temutjin2k/ride-dispatch/config"
	"github.com/Temutjin2k/ride-dispatch/internal/adapter/http/handler"
	"github.com/Temutjin2k/ride-dispatch/internal/adapter/http/middleware"
	"github.com/Temutjin2k/ride-dispatch/internal/adapter/http/ws"
	"github.com/Temutjin2k/ride-dispatch/internal/domain/types"
	"github.com/Temutjin2k/ride-dispatch/pkg/logger"
	wrap "github.com/Temutjin2k/ride-dispatch/pkg/logger/wrapper"
)

const serverIPAddress = "%s:%s"

// API is the HTTP surface of one service mode: the full ride and
// notification API in api mode, the notification push endpoint in
// notify-worker mode. The dispatch worker runs no HTTP server.
type API struct {
	mode   types.ServiceMode
	mux    *http.ServeMux
	server *http.Server
	routes *handlers
	m      *middleware.Middleware

	addr string
	cfg  config.Config
	log  logger.Logger
}

type handlers struct {
	ride         *handler.Ride
	internal     *handler.Internal
	notification *handler.Notification
	health       *handler.Health
	notifyWS     *ws.NotifyWS
}

func New(
	cfg config.Config,
	verifier middleware.IdentityVerifier,
	rideService handler.RideService,
	internalService handler.InternalRideService,
	notificationService handler.NotificationService,
	notifyWS *ws.NotifyWS,
	log logger.Logger,
) (*API, error) {
	var addr string
	routes := &handlers{}

	switch cfg.Mode {
	case types.APIService:
		if verifier == nil {
			return nil, errors.New("identity verifier is required")
		}
		addr = fmt.Sprintf(serverIPAddress, "0.0.0.0", cfg.Services.APIPort)
		routes.ride = handler.NewRide(rideService, log)
		routes.internal = handler.NewInternal(internalService, log)
		routes.notification = handler.NewNotification(notificationService, log)
	case types.NotifyWorker:
		if notifyWS == nil {
			return nil, errors.New("notification ws handler is required")
		}
		addr = fmt.Sprintf(serverIPAddress, "0.0.0.0", cfg.Services.NotifyWSPort)
		routes.notifyWS = notifyWS
	default:
		return nil, fmt.Errorf("no http server for mode: %s", cfg.Mode)
	}

	routes.health = handler.NewHealth(string(cfg.Mode), log)

	api := &API{
		mode:   cfg.Mode,
		mux:    http.NewServeMux(),
		routes: routes,
		m:      middleware.NewMiddleware(verifier, log),
		addr:   addr,
		cfg:    cfg,
		log:    log,
	}

	api.setupRoutes()

	api.server = &http.Server{
		Addr:    api.addr,
		Handler: api.withMiddleware(),
	}

	return api, nil
}

func (a *API) Run(ctx context.Context, errCh chan<- error) {
	go func() {
		ctx = wrap.WithAction(ctx, "http_server_start")
		a.log.Info(ctx, "started http server", "address", a.addr, "mode", a.mode)
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("failed to start HTTP server: %w", err)
			return
		}
	}()
}

func (a *API) Stop(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	ctx = wrap.WithAction(ctx, "http_server_stop")

	a.log.Debug(ctx, "shutting down HTTP server...", "address", a.addr)
	if err := a.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("error shutting down server: %w", err)
	}
	a.log.Debug(ctx, "shutting down HTTP server completed")

	return nil
}

// withMiddleware applies the middleware chain to the mux. The notify-worker
// surface is unauthenticated, so it skips the identity round trip.
func (a *API) withMiddleware() http.Handler {
	chain := a.m.Metrics(string(a.mode))(a.mux)
	if a.mode == types.APIService {
		chain = a.m.Auth(chain)
	}
	return a.m.Recover(a.m.RequestID(a.m.Logging(chain)))
}
