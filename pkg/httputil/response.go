package httputil

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/asadi-yousef/personal-trainer-app-sub001/pkg/errors"
)

// Response wraps all API responses
type Response struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   *Error      `json:"error,omitempty"`
}

// Error represents API error
type Error struct {
	Code    int               `json:"code"`
	Message string            `json:"message"`
	Fields  map[string]string `json:"fields,omitempty"`
}

// RespondWithSuccess sends a success response
func RespondWithSuccess(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Response{
		Success: true,
		Data:    data,
	})
}

// RespondWithCreated sends a success response for newly created resources
func RespondWithCreated(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, Response{
		Success: true,
		Data:    data,
	})
}

// RespondWithError sends an error response, mapping the application
// error taxonomy onto HTTP status codes.
func RespondWithError(c *gin.Context, err error) {
	statusCode := http.StatusInternalServerError
	message := "internal server error"
	var fields map[string]string

	if appErr, ok := err.(*errors.AppError); ok {
		statusCode = httpStatus(appErr.Code)
		message = appErr.Message
		fields = appErr.Fields
	}

	c.Error(err)
	c.JSON(statusCode, Response{
		Success: false,
		Error: &Error{
			Code:    statusCode,
			Message: message,
			Fields:  fields,
		},
	})
}

func httpStatus(code errors.ErrorCode) int {
	switch code {
	case errors.ErrValidation:
		return http.StatusBadRequest
	case errors.ErrNotFound:
		return http.StatusNotFound
	case errors.ErrConflict:
		return http.StatusConflict
	case errors.ErrExpired:
		return http.StatusGone
	case errors.ErrAuthorization:
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}
