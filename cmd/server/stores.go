package main

import (
	"context"
	"fmt"

	"hotelops/internal/config"
	"hotelops/internal/repositories/interfaces"
	"hotelops/internal/repositories/memory"
	"hotelops/internal/repositories/mongodb"
	"hotelops/internal/repositories/sqldb"
	"hotelops/pkg/database"
	"hotelops/pkg/logger"
)

type stores struct {
	rideRequests interfaces.RideRequestRepository
	trips        interfaces.TripRepository
	incidents    interfaces.IncidentRepository
	ping         func(ctx context.Context) error
	close        func() error
}

func openStores(ctx context.Context, cfg *config.DatabaseConfig, log *logger.Logger) (*stores, error) {
	switch cfg.Driver {
	case config.DriverPostgres, config.DriverSQLite:
		return openSQLStores(cfg, log)
	case config.DriverMongoDB:
		return openMongoStores(ctx, cfg, log)
	case config.DriverMemory:
		log.Warn("Using in-memory stores; data is lost on restart")
		return &stores{
			rideRequests: memory.NewRideRequestRepository(),
			trips:        memory.NewTripRepository(),
			incidents:    memory.NewIncidentRepository(),
			ping:         func(context.Context) error { return nil },
			close:        func() error { return nil },
		}, nil
	}
	return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
}

func openSQLStores(cfg *config.DatabaseConfig, log *logger.Logger) (*stores, error) {
	db, err := database.NewGormDB(&database.SQLConfig{
		Driver:          cfg.Driver,
		DSN:             cfg.DSN,
		MaxOpenConns:    cfg.MaxOpenConns,
		MaxIdleConns:    cfg.MaxIdleConns,
		ConnMaxLifetime: cfg.ConnMaxLifetime,
		Debug:           cfg.Debug,
	})
	if err != nil {
		return nil, err
	}

	if cfg.AutoMigrate {
		if err := sqldb.Migrate(db); err != nil {
			_ = database.CloseGormDB(db)
			return nil, err
		}
		log.Info("Database schema migrated")
	}

	return &stores{
		rideRequests: sqldb.NewRideRequestRepository(db),
		trips:        sqldb.NewTripRepository(db),
		incidents:    sqldb.NewIncidentRepository(db),
		ping: func(ctx context.Context) error {
			sqlDB, err := db.DB()
			if err != nil {
				return err
			}
			return sqlDB.PingContext(ctx)
		},
		close: func() error { return database.CloseGormDB(db) },
	}, nil
}

func openMongoStores(ctx context.Context, cfg *config.DatabaseConfig, log *logger.Logger) (*stores, error) {
	mongoDB, err := database.NewMongoDB(ctx, &database.MongoConfig{
		URI:            cfg.MongoURI,
		Database:       cfg.MongoDatabase,
		MaxPoolSize:    cfg.MongoMaxPoolSize,
		MinPoolSize:    cfg.MongoMinPoolSize,
		ConnectTimeout: cfg.MongoConnectTimeout,
		SocketTimeout:  cfg.MongoSocketTimeout,
	})
	if err != nil {
		return nil, err
	}

	if cfg.AutoMigrate {
		if err := database.NewMigrator(mongoDB.Database, log).Up(ctx); err != nil {
			_ = mongoDB.Close()
			return nil, err
		}
	}

	return &stores{
		rideRequests: mongodb.NewRideRequestRepository(mongoDB.Database),
		trips:        mongodb.NewTripRepository(mongoDB.Database),
		incidents:    mongodb.NewIncidentRepository(mongoDB.Database),
		ping:         mongoDB.Ping,
		close:        mongoDB.Close,
	}, nil
}
