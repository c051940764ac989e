package server

import (
	"net/http"

	"github.com/Temutjin2k/ride-dispatch/internal/adapter/http/middleware"
	"github.com/Temutjin2k/ride-dispatch/internal/domain/types"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger"
)

// setupRoutes - setups http routes
func (a *API) setupRoutes() {
	// System Health
	a.mux.HandleFunc("/health", a.routes.health.HealthCheck)

	setupMetricsRoute(a.mux)

	switch a.mode {
	case types.APIService:
		setupSwaggerRoutes(a.mux)
		setupRideRoutes(a.mux, a.routes, a.m)
		setupNotificationRoutes(a.mux, a.routes, a.m)
		setupInternalRoutes(a.mux, a.routes)
	case types.NotifyWorker:
		a.mux.HandleFunc("GET /ws/users/{user_id}", a.routes.notifyWS.HandleUserWS)
	}
}

// setupRideRoutes setups the passenger/driver/admin facing ride lifecycle
func setupRideRoutes(mux *http.ServeMux, routes *handlers, m *middleware.Middleware) {
	mux.Handle("POST /rides", m.RequireRoles(routes.ride.Create, types.RolePassenger))                                  // Request a ride
	mux.Handle("GET /rides", m.RequireRoles(routes.ride.List))                                                          // List visible rides
	mux.Handle("GET /rides/{ride_id}", m.RequireRoles(routes.ride.Get))                                                 // Get one ride
	mux.Handle("POST /rides/{ride_id}/accept", m.RequireRoles(routes.ride.Accept, types.RoleDriver))                    // Offered driver accepts
	mux.Handle("POST /rides/{ride_id}/reject", m.RequireRoles(routes.ride.Reject, types.RoleDriver))                    // Offered driver rejects
	mux.Handle("POST /rides/{ride_id}/complete", m.RequireRoles(routes.ride.Complete, types.RoleDriver))                // Assigned driver completes
	mux.Handle("POST /rides/{ride_id}/cancel", m.RequireRoles(routes.ride.Cancel, types.RolePassenger, types.RoleDriver)) // Either party cancels
	mux.Handle("POST /rides/{ride_id}/offer", m.RequireRoles(routes.ride.Offer, types.RoleAdmin))                       // Manual dispatch
}

// setupNotificationRoutes setups the pull-based notification surface
func setupNotificationRoutes(mux *http.ServeMux, routes *handlers, m *middleware.Middleware) {
	mux.Handle("GET /notifications", m.RequireRoles(routes.notification.List))
	mux.Handle("GET /notifications/unread", m.RequireRoles(routes.notification.Unread))
	mux.Handle("GET /notifications/poll", m.RequireRoles(routes.notification.Poll))
	mux.Handle("POST /notifications/{notification_id}/read", m.RequireRoles(routes.notification.MarkRead))
	mux.Handle("POST /notifications/read-all", m.RequireRoles(routes.notification.MarkAllRead))
}

// setupInternalRoutes setups the trusted mutation surface used by the
// dispatch worker. No credential: reachable on the internal network only.
func setupInternalRoutes(mux *http.ServeMux, routes *handlers) {
	mux.HandleFunc("POST /internal/rides/{ride_id}/assign-driver", routes.internal.AssignDriver)
	mux.HandleFunc("GET /internal/rides/{ride_id}", routes.internal.GetRide)
	mux.HandleFunc("POST /internal/rides/{ride_id}/update-status", routes.internal.UpdateStatus)
}

// setupSwaggerRoutes configures the Swagger UI endpoint
func setupSwaggerRoutes(mux *http.ServeMux) {
	swaggerURL := httpSwagger.InstanceName("dispatch")
	mux.HandleFunc("/swagger/", httpSwagger.Handler(swaggerURL))
}

// setupMetricsRoute configures the Prometheus metrics endpoint
func setupMetricsRoute(mux *http.ServeMux) {
	mux.Handle("/metrics", promhttp.Handler())
}
