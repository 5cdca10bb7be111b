// Package sqldb stores ride requests, trips and incidents in a relational
// database through gorm. Postgres is used in production, sqlite locally and
// in tests.
package sqldb

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"hotelops/internal/models"
	"hotelops/internal/repositories/interfaces"

	"gorm.io/gorm"
)

// Migrate creates or updates the three tables, including the unique index on
// trajets.id_demande_course.
func Migrate(db *gorm.DB) error {
	for _, model := range []interface{}{&models.RideRequest{}, &models.Trip{}, &models.Incident{}} {
		if err := db.AutoMigrate(model); err != nil {
			return fmt.Errorf("automigrate %T: %w", model, err)
		}
	}
	return nil
}

func isDuplicateKey(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique constraint") || strings.Contains(msg, "duplicate key")
}

func translateNotFound(err error, action string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return interfaces.ErrNotFound
	}
	return fmt.Errorf("failed to %s: %w", action, err)
}

func utc(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}
