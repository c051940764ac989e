package docs

// @title           Ride Dispatch API
// @version         1.0
// @description     Ride dispatch pipeline: ride lifecycle API, driver matching worker and notification fan-out. Rides move through a guarded state machine; every transition publishes an event and a user notification.

// @host      localhost:8000
// @BasePath  /

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.
