package main

import (
	"context"
	"errors"
	stdlog "log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"hotelops/internal/config"
	"hotelops/internal/handlers"
	"hotelops/internal/repositories/cached"
	"hotelops/internal/services"
	"hotelops/pkg/cache"
	"hotelops/pkg/events"
	"hotelops/pkg/logger"
	"hotelops/pkg/websocket"
	"hotelops/routes"

	"github.com/gin-gonic/gin"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		stdlog.Fatalf("Failed to load config: %v", err)
	}

	log, err := logger.NewLogger(&logger.Config{
		Level:      logger.LogLevel(cfg.App.LogLevel),
		Format:     cfg.App.LogFormat,
		Output:     "stdout",
		TimeFormat: time.RFC3339,
		AppName:    cfg.App.Name,
		Version:    cfg.App.Version,
	})
	if err != nil {
		stdlog.Fatalf("Failed to create logger: %v", err)
	}

	if cfg.App.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.WithError(err).Fatal("Server stopped with error")
	}
}

func run(ctx context.Context, cfg *config.Config, log *logger.Logger) error {
	st, err := openStores(ctx, cfg.Database, log)
	if err != nil {
		return err
	}
	defer func() {
		if err := st.close(); err != nil {
			log.WithError(err).Warn("Failed to close database")
		}
	}()

	rideRequests, trips := st.rideRequests, st.trips
	publisher := events.NewFanout()
	var locker cache.Locker
	health := st.ping

	if cfg.Redis.Enabled {
		redisCache, err := cache.NewRedisCache(ctx, &cache.RedisConfig{
			Addr:         cfg.Redis.Addr,
			Password:     cfg.Redis.Password,
			DB:           cfg.Redis.DB,
			PoolSize:     cfg.Redis.PoolSize,
			MinIdleConns: cfg.Redis.MinIdleConns,
			DialTimeout:  cfg.Redis.DialTimeout,
			ReadTimeout:  cfg.Redis.ReadTimeout,
			WriteTimeout: cfg.Redis.WriteTimeout,
		})
		if err != nil {
			return err
		}
		defer redisCache.Close()

		rideRequests = cached.NewRideRequestRepository(rideRequests, redisCache, cfg.Redis.CacheTTL, log)
		trips = cached.NewTripRepository(trips, redisCache, cfg.Redis.CacheTTL, log)
		locker = redisCache
		if cfg.Events.RedisChannel != "" {
			publisher.Add(events.NewRedisPublisher(redisCache, cfg.Events.RedisChannel))
		}
		health = func(ctx context.Context) error {
			return errors.Join(st.ping(ctx), redisCache.Ping(ctx))
		}
		log.Info("Redis cache and trip creation lock enabled")
	}

	if len(cfg.Events.KafkaBrokers) > 0 {
		kafkaPublisher := events.NewKafkaPublisher(cfg.Events.KafkaBrokers, cfg.Events.KafkaTopic, cfg.Events.KafkaWriteTimeout)
		defer kafkaPublisher.Close()
		publisher.Add(kafkaPublisher)
		log.WithField("topic", cfg.Events.KafkaTopic).Info("Publishing domain events to kafka")
	}

	var (
		wsHandler   *websocket.Handler
		connections func() int
	)
	if cfg.WebSocket.Enabled {
		hub := websocket.NewHub(log)
		go hub.Run(ctx)
		publisher.Add(hub)
		connections = hub.ClientCount
		wsHandler = websocket.NewHandler(hub, handlers.WebSocketSubscriber, websocket.Config{
			ReadBufferSize:  cfg.WebSocket.ReadBufferSize,
			WriteBufferSize: cfg.WebSocket.WriteBufferSize,
			SendBufferSize:  cfg.WebSocket.SendBufferSize,
			AllowedOrigins:  cfg.WebSocket.AllowedOrigins,
		})
	}

	rideRequestService := services.NewRideRequestService(rideRequests, trips, publisher, log)
	// Trip creation gates on the request status, so it reads the store directly.
	tripService := services.NewTripService(trips, st.rideRequests, locker, cfg.Redis.LockTTL, publisher, log)
	incidentService := services.NewIncidentService(st.incidents, trips, publisher, log)

	router := routes.NewRouter(log, routes.Options{
		JWTSecret:      cfg.Security.JWTSecret,
		AllowedOrigins: cfg.Security.CORSAllowedOrigins,
		TrustedProxies: cfg.Security.TrustedProxies,
		WebSocketPath:  cfg.WebSocket.Path,
		HealthCheck:    health,
		Connections:    connections,
	}, routes.Handlers{
		RideRequests: handlers.NewRideRequestHandler(rideRequestService),
		Trips:        handlers.NewTripHandler(tripService),
		Incidents:    handlers.NewIncidentHandler(incidentService),
		WebSocket:    wsHandler,
	})

	server := &http.Server{
		Addr:         cfg.App.Addr(),
		Handler:      router,
		ReadTimeout:  cfg.App.ReadTimeout,
		WriteTimeout: cfg.App.WriteTimeout,
	}

	serverErr := make(chan error, 1)
	go func() {
		log.WithFields(map[string]interface{}{
			"addr":   server.Addr,
			"driver": cfg.Database.Driver,
			"env":    cfg.App.Environment,
		}).Info("Server starting")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	select {
	case err := <-serverErr:
		return err
	case <-ctx.Done():
	}

	log.Info("Shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.App.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return err
	}
	log.Info("Server stopped")
	return nil
}
