package response

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/go-user-management/internal/domain/apperror"
)

// ErrorBody is the JSON shape of every error response.
type ErrorBody struct {
	Detail    string            `json:"detail"`
	Errors    map[string]string `json:"errors,omitempty"`
	RequestID string            `json:"request_id,omitempty"`
}

// Success writes data as the response body.
func Success[T any](c *gin.Context, status int, data T) {
	if status == 0 {
		status = http.StatusOK
	}
	c.JSON(status, data)
}

// Error aborts the request with a detail message.
func Error(c *gin.Context, status int, detail string) {
	if status == 0 {
		status = http.StatusBadRequest
	}
	c.AbortWithStatusJSON(status, ErrorBody{Detail: detail, RequestID: c.GetString("request_id")})
}

// StatusOf maps a domain error kind to an HTTP status code.
func StatusOf(err error) int {
	switch apperror.KindOf(err) {
	case apperror.KindValidation:
		return http.StatusUnprocessableEntity
	case apperror.KindConflict, apperror.KindLocked, apperror.KindBadRequest:
		return http.StatusBadRequest
	case apperror.KindAuthentication:
		return http.StatusUnauthorized
	case apperror.KindAuthorization:
		return http.StatusForbidden
	case apperror.KindNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// FromError aborts the request with the status and body matching err.
// Internal errors are logged and never leak their cause.
func FromError(c *gin.Context, err error, logger *logrus.Logger) {
	status := StatusOf(err)
	body := ErrorBody{Detail: apperror.DetailOf(err), RequestID: c.GetString("request_id")}

	var ve *apperror.ValidationError
	if errors.As(err, &ve) {
		body.Errors = ve.Fields
	}
	if status == http.StatusUnauthorized {
		c.Header("WWW-Authenticate", "Bearer")
	}
	if status >= http.StatusInternalServerError && logger != nil {
		logger.WithError(err).WithFields(logrus.Fields{
			"request_id": c.GetString("request_id"),
			"method":     c.Request.Method,
			"path":       c.FullPath(),
		}).Error("request failed")
	}
	c.AbortWithStatusJSON(status, body)
}
