package config

import (
	"fmt"
	"time"
)

// Storage drivers.
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
	DriverMongoDB  = "mongodb"
	DriverMemory   = "memory"
)

type DatabaseConfig struct {
	Driver          string        `yaml:"driver"`
	DSN             string        `yaml:"dsn"`
	MaxOpenConns    int           `yaml:"max_open_conns"`
	MaxIdleConns    int           `yaml:"max_idle_conns"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime"`
	AutoMigrate     bool          `yaml:"auto_migrate"`
	Debug           bool          `yaml:"debug"`

	MongoURI            string        `yaml:"mongo_uri"`
	MongoDatabase       string        `yaml:"mongo_database"`
	MongoMaxPoolSize    int           `yaml:"mongo_max_pool_size"`
	MongoMinPoolSize    int           `yaml:"mongo_min_pool_size"`
	MongoConnectTimeout time.Duration `yaml:"mongo_connect_timeout"`
	MongoSocketTimeout  time.Duration `yaml:"mongo_socket_timeout"`
}

func loadDatabaseConfig() *DatabaseConfig {
	return &DatabaseConfig{
		Driver:          getEnv("DB_DRIVER", DriverSQLite),
		DSN:             getEnv("DATABASE_DSN", "file:hotelops.db?_busy_timeout=5000"),
		MaxOpenConns:    getEnvAsInt("DB_MAX_OPEN_CONNS", 25),
		MaxIdleConns:    getEnvAsInt("DB_MAX_IDLE_CONNS", 5),
		ConnMaxLifetime: getEnvAsDuration("DB_CONN_MAX_LIFETIME", 30*time.Minute),
		AutoMigrate:     getEnvAsBool("DB_AUTO_MIGRATE", true),
		Debug:           getEnvAsBool("DB_DEBUG", false),

		MongoURI:            getEnv("MONGODB_URI", "mongodb://localhost:27017"),
		MongoDatabase:       getEnv("MONGODB_DATABASE", "hotelops"),
		MongoMaxPoolSize:    getEnvAsInt("MONGODB_MAX_POOL_SIZE", 100),
		MongoMinPoolSize:    getEnvAsInt("MONGODB_MIN_POOL_SIZE", 5),
		MongoConnectTimeout: getEnvAsDuration("MONGODB_CONNECT_TIMEOUT", 10*time.Second),
		MongoSocketTimeout:  getEnvAsDuration("MONGODB_SOCKET_TIMEOUT", 30*time.Second),
	}
}

func (d *DatabaseConfig) validate() []error {
	var errs []error
	switch d.Driver {
	case DriverPostgres, DriverSQLite:
		if d.DSN == "" {
			errs = append(errs, fmt.Errorf("DATABASE_DSN is required for driver %s", d.Driver))
		}
	case DriverMongoDB:
		if d.MongoURI == "" || d.MongoDatabase == "" {
			errs = append(errs, fmt.Errorf("MONGODB_URI and MONGODB_DATABASE are required for driver %s", d.Driver))
		}
	case DriverMemory:
	default:
		errs = append(errs, fmt.Errorf("DB_DRIVER must be one of postgres, sqlite, mongodb, memory; got %q", d.Driver))
	}
	return errs
}
