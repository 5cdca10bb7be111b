package routes

import (
	"context"
	"net/http"

	"hotelops/internal/handlers"
	"hotelops/internal/middleware"
	"hotelops/internal/models"
	"hotelops/internal/utils"
	"hotelops/pkg/logger"
	"hotelops/pkg/websocket"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Handlers struct {
	RideRequests *handlers.RideRequestHandler
	Trips        *handlers.TripHandler
	Incidents    *handlers.IncidentHandler
	// WebSocket is nil when realtime push is disabled.
	WebSocket *websocket.Handler
}

type Options struct {
	JWTSecret      string
	AllowedOrigins []string
	TrustedProxies []string
	WebSocketPath  string
	// HealthCheck reports whether the backing stores are reachable.
	HealthCheck func(ctx context.Context) error
	// Connections counts open websocket clients; nil leaves it out of /health.
	Connections func() int
}

func NewRouter(log *logger.Logger, opts Options, h Handlers) *gin.Engine {
	router := gin.New()
	if err := router.SetTrustedProxies(opts.TrustedProxies); err != nil {
		log.WithError(err).Warn("Invalid trusted proxies, trusting none")
		_ = router.SetTrustedProxies(nil)
	}

	router.Use(
		middleware.RequestIDMiddleware(),
		middleware.AccessLogMiddleware(log),
		middleware.RecoveryMiddleware(log),
		middleware.CORSMiddleware(opts.AllowedOrigins),
		middleware.ErrorHandler(log),
	)

	router.GET("/health", healthHandler(opts.HealthCheck, opts.Connections))
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	auth := middleware.AuthRequired(opts.JWTSecret, log)
	if h.WebSocket != nil {
		path := opts.WebSocketPath
		if path == "" {
			path = "/ws"
		}
		router.GET(path, auth, h.WebSocket.HandleWebSocket)
	}

	api := router.Group("/api")
	api.Use(auth)
	SetupRideRequestRoutes(api, h.RideRequests)
	SetupTripRoutes(api, h.Trips)
	SetupIncidentRoutes(api, h.Incidents)

	router.NoRoute(func(c *gin.Context) {
		_ = c.Error(utils.NewNotFoundError("route not found"))
	})

	return router
}

func SetupRideRequestRoutes(r *gin.RouterGroup, handler *handlers.RideRequestHandler) {
	client := middleware.RequireRoles(models.RoleClient)

	requests := r.Group("/demandes")
	{
		requests.GET("/me", client, handler.GetMine)
		requests.GET("/en-attente", middleware.RequireRoles(models.RoleDriver, models.RoleAdmin), handler.GetPending)
		requests.GET("/:id", handler.GetByID)
		requests.POST("", client, handler.Create)
		requests.PATCH("/:id", client, handler.Update)
		requests.PATCH("/:id/statut", handler.ChangeStatus)
		requests.DELETE("/:id", middleware.RequireRoles(models.RoleClient, models.RoleAdmin), handler.Delete)
	}
}

func SetupTripRoutes(r *gin.RouterGroup, handler *handlers.TripHandler) {
	driver := middleware.RequireRoles(models.RoleDriver)

	trips := r.Group("/trajets")
	{
		trips.GET("/me", driver, handler.GetMine)
		trips.GET("/planning", driver, handler.GetPlanning)
		trips.GET("/:id", driver, handler.GetByID)
		trips.POST("", driver, handler.Create)
		trips.PATCH("/:id/horaires", middleware.RequireRoles(models.RoleClient), handler.UpdateSchedule)
		trips.PATCH("/:id/statut", driver, handler.ChangeStatus)
	}
}

func SetupIncidentRoutes(r *gin.RouterGroup, handler *handlers.IncidentHandler) {
	incidents := r.Group("/incidents")
	incidents.POST("", middleware.RequireRoles(models.RoleClient, models.RoleDriver), handler.Report)

	admin := incidents.Group("")
	admin.Use(middleware.RequireRoles(models.RoleAdmin))
	{
		admin.GET("", handler.GetAll)
		admin.GET("/trajet/:id", handler.GetByTrip)
		admin.GET("/:id", handler.GetByID)
		admin.PATCH("/:id/traite", handler.Resolve)
	}
}

func healthHandler(check func(ctx context.Context) error, connections func() int) gin.HandlerFunc {
	return func(c *gin.Context) {
		if check != nil {
			if err := check(c.Request.Context()); err != nil {
				utils.ErrorResponse(c, http.StatusServiceUnavailable, "unhealthy: "+err.Error())
				return
			}
		}
		payload := gin.H{"status": "up"}
		if connections != nil {
			payload["websocket_clients"] = connections()
		}
		utils.SuccessResponse(c, "healthy", payload)
	}
}
