package utils

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// APIResponse always carries the data key, even when it is null.
type APIResponse struct {
	Status  string      `json:"status"`
	Message string      `json:"message"`
	Data    interface{} `json:"data"`
}

type ErrorBody struct {
	Status  string            `json:"status"`
	Message string            `json:"message"`
	Details map[string]string `json:"details,omitempty"`
}

func SuccessResponse(c *gin.Context, message string, data interface{}) {
	c.JSON(http.StatusOK, APIResponse{
		Status:  StatusOK,
		Message: message,
		Data:    data,
	})
}

func CreatedResponse(c *gin.Context, message string, data interface{}) {
	c.JSON(http.StatusCreated, APIResponse{
		Status:  StatusCreated,
		Message: message,
		Data:    data,
	})
}

func ErrorResponse(c *gin.Context, statusCode int, message string) {
	c.JSON(statusCode, ErrorBody{
		Status:  StatusError,
		Message: message,
	})
}

func ErrorResponseWithDetails(c *gin.Context, statusCode int, message string, details map[string]string) {
	c.JSON(statusCode, ErrorBody{
		Status:  StatusError,
		Message: message,
		Details: details,
	})
}
