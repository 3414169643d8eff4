package controllers

import (
	"errors"
	"log"
	"net/http"

	"github.com/arjundev/vidtubebackend/service"
	"github.com/gin-gonic/gin"
)

// ApiResponse is the success envelope shared by every endpoint.
type ApiResponse struct {
	StatusCode int         `json:"statusCode"`
	Data       interface{} `json:"data"`
	Message    string      `json:"message"`
	Success    bool        `json:"success"`
}

type ApiError struct {
	StatusCode int    `json:"statusCode"`
	Message    string `json:"message"`
	Success    bool   `json:"success"`
}

func respond(c *gin.Context, status int, data interface{}, message string) {
	c.JSON(status, ApiResponse{
		StatusCode: status,
		Data:       data,
		Message:    message,
		Success:    true,
	})
}

// respondError is the single place where service errors become status
// codes. Unknown errors are logged and flattened to a generic 500.
func respondError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	message := err.Error()

	switch {
	case errors.Is(err, service.ErrValidation):
		status = http.StatusBadRequest
	case errors.Is(err, service.ErrAuth):
		status = http.StatusUnauthorized
	case errors.Is(err, service.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, service.ErrConflict):
		status = http.StatusConflict
	case errors.Is(err, service.ErrUpstream), errors.Is(err, service.ErrInternal):
		status = http.StatusInternalServerError
	default:
		log.Println("unexpected error:", err)
		message = "internal server error"
	}

	c.JSON(status, ApiError{
		StatusCode: status,
		Message:    message,
		Success:    false,
	})
}

func respondBindError(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, ApiError{
		StatusCode: http.StatusBadRequest,
		Message:    err.Error(),
		Success:    false,
	})
}
