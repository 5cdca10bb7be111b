package services

import (
	"context"
	"errors"
	"time"

	"hotelops/internal/observability"
	"hotelops/internal/repositories/interfaces"
	"hotelops/internal/utils"
	"hotelops/internal/validators"
	"hotelops/pkg/events"
	"hotelops/pkg/logger"
)

func validID(id int64) bool {
	return id > 0
}

func invalidID(field string) error {
	return utils.NewValidationErrorWithDetails(utils.ErrInvalidID, map[string]string{field: utils.ErrInvalidID})
}

func validationFailed(errs validators.ValidationErrors) error {
	return utils.NewValidationErrorWithDetails(utils.ErrValidationFailed, errs.Details())
}

// notFound maps the store sentinel to a NotFoundError and passes every other
// error through unchanged.
func notFound(err error, message string) error {
	if errors.Is(err, interfaces.ErrNotFound) {
		return utils.NewNotFoundError(message)
	}
	return err
}

// checkRange rejects an inverted date window.
func checkRange(dateMin, dateMax *time.Time) error {
	if dateMin != nil && dateMax != nil && dateMin.After(*dateMax) {
		return utils.NewValidationErrorWithDetails(utils.ErrValidationFailed, map[string]string{
			"dateMin": "dateMin must not be after dateMax",
		})
	}
	return nil
}

// publish hands the event to the sinks. Delivery is best-effort: a failure is
// logged and counted but never fails the operation that already committed.
func publish(ctx context.Context, publisher events.Publisher, log *logger.Logger, event events.Event) {
	if err := publisher.Publish(ctx, event); err != nil {
		observability.EventPublishFailures.WithLabelValues(event.Type).Inc()
		log.WithContext(ctx).WithError(err).WithField("event", event.Type).Warn("Failed to publish event")
	}
}
