package response

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oksasatya/go-user-management/internal/domain/apperror"
)

func init() { gin.SetMode(gin.TestMode) }

func TestStatusOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"validation", apperror.NewValidationError("nickname", "bad"), http.StatusUnprocessableEntity},
		{"duplicate email", apperror.ErrEmailExists, http.StatusBadRequest},
		{"locked", apperror.ErrAccountLocked, http.StatusBadRequest},
		{"bad credentials", apperror.ErrBadCredentials, http.StatusUnauthorized},
		{"invalid token", apperror.ErrInvalidToken, http.StatusUnauthorized},
		{"forbidden", apperror.ErrForbidden, http.StatusForbidden},
		{"not found", apperror.ErrUserNotFound, http.StatusNotFound},
		{"unknown", errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, StatusOf(tt.err))
		})
	}
}

func serve(t *testing.T, h gin.HandlerFunc) (*httptest.ResponseRecorder, ErrorBody) {
	t.Helper()
	r := gin.New()
	r.GET("/x", func(c *gin.Context) { c.Set("request_id", "req-1") }, h)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/x", nil))

	var body ErrorBody
	_ = json.Unmarshal(w.Body.Bytes(), &body)
	return w, body
}

func TestFromError_Validation(t *testing.T) {
	w, body := serve(t, func(c *gin.Context) {
		FromError(c, &apperror.ValidationError{Fields: map[string]string{"nickname": "too short"}}, nil)
	})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Equal(t, "Validation failed", body.Detail)
	assert.Equal(t, "too short", body.Errors["nickname"])
	assert.Equal(t, "req-1", body.RequestID)
}

func TestFromError_Unauthorized(t *testing.T) {
	w, body := serve(t, func(c *gin.Context) { FromError(c, apperror.ErrBadCredentials, nil) })
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "Incorrect email or password.", body.Detail)
	assert.Equal(t, "Bearer", w.Header().Get("WWW-Authenticate"))
}

func TestFromError_InternalHidesCause(t *testing.T) {
	logger := logrus.New()
	logger.SetOutput(io.Discard)

	w, body := serve(t, func(c *gin.Context) {
		FromError(c, apperror.Internal(errors.New("pq: password authentication failed")), logger)
	})
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "Internal server error", body.Detail)
	assert.NotContains(t, w.Body.String(), "password authentication")
}

func TestSuccessAndError(t *testing.T) {
	r := gin.New()
	r.GET("/ok", func(c *gin.Context) { Success(c, 0, map[string]string{"a": "b"}) })
	r.GET("/err", func(c *gin.Context) { Error(c, 0, "nope") })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ok", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"a":"b"}`, w.Body.String())

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/err", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.JSONEq(t, `{"detail":"nope"}`, w.Body.String())
}
