package handlers

import (
	"strconv"
	"time"

	"hotelops/internal/middleware"
	"hotelops/internal/models"
	"hotelops/internal/utils"
	"hotelops/internal/validators"

	"github.com/gin-gonic/gin"
)

func currentActor(c *gin.Context) (*models.Actor, error) {
	actor, ok := middleware.ActorFromContext(c)
	if !ok {
		return nil, utils.NewUnauthorizedError(utils.ErrUnauthorized)
	}
	return actor, nil
}

// pathID reads a positive integer path parameter.
func pathID(c *gin.Context, name, field string) (int64, error) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, utils.NewValidationErrorWithDetails(utils.ErrInvalidID, map[string]string{field: utils.ErrInvalidID})
	}
	return id, nil
}

func bindJSON(c *gin.Context, dst interface{}) error {
	if err := c.ShouldBindJSON(dst); err != nil {
		return utils.NewValidationErrorWithDetails("invalid request body", map[string]string{"body": err.Error()})
	}
	return nil
}

// checked turns validator findings into a ValidationError, or nil when there
// are none.
func checked(errs validators.ValidationErrors) error {
	if len(errs) == 0 {
		return nil
	}
	return utils.NewValidationErrorWithDetails(utils.ErrValidationFailed, errs.Details())
}

// dateFilters reads the optional dateMin/dateMax query parameters.
func dateFilters(c *gin.Context) (*time.Time, *time.Time, error) {
	dateMin, err := queryDate(c, "dateMin", false)
	if err != nil {
		return nil, nil, err
	}
	dateMax, err := queryDate(c, "dateMax", true)
	if err != nil {
		return nil, nil, err
	}
	return dateMin, dateMax, nil
}

func queryDate(c *gin.Context, name string, upper bool) (*time.Time, error) {
	value := c.Query(name)
	if value == "" {
		return nil, nil
	}
	t, err := utils.ParseDateBound(value, upper)
	if err != nil {
		return nil, utils.NewValidationErrorWithDetails(utils.ErrValidationFailed, map[string]string{name: err.Error()})
	}
	return &t, nil
}

// profileID returns the client or personnel id carried by the token, which
// must be set for the routes that act on it.
func profileID(id int64, profile string) (int64, error) {
	if id <= 0 {
		return 0, utils.NewPermissionError("token has no " + profile + " profile")
	}
	return id, nil
}
