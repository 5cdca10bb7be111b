package middleware

import (
	"net/http"

	"hotelops/internal/utils"
	"hotelops/pkg/logger"

	"github.com/gin-gonic/gin"
)

// ErrorHandler turns the last error attached to the context into the error
// envelope. Unknown errors become 500 and are logged; their text is not
// exposed.
func ErrorHandler(log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 || c.Writer.Written() {
			return
		}

		err := c.Errors.Last().Err
		status := utils.HTTPStatus(err)
		if status == http.StatusInternalServerError {
			log.WithContext(c.Request.Context()).
				WithError(err).
				WithField("route", c.FullPath()).
				Error("Request failed")
			utils.ErrorResponse(c, status, utils.ErrInternalServer)
			return
		}

		var details map[string]string
		message := err.Error()
		var appErr *utils.AppError
		if utils.AsAppError(err, &appErr) {
			message = appErr.Message
			details = appErr.Details
		}
		utils.ErrorResponseWithDetails(c, status, message, details)
	}
}
