package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oksasatya/go-user-management/internal/domain/apperror"
	"github.com/oksasatya/go-user-management/internal/domain/entity"
	"github.com/oksasatya/go-user-management/internal/domain/repository"
	"github.com/oksasatya/go-user-management/pkg/helpers"
)

func init() { gin.SetMode(gin.TestMode) }

type loaderFunc func(ctx context.Context, id string) (*entity.User, error)

func (f loaderFunc) GetByID(ctx context.Context, id string) (*entity.User, error) { return f(ctx, id) }

func authEngine(tokens *helpers.TokenService, loader UserLoader) *gin.Engine {
	r := gin.New()
	r.GET("/me", Auth(tokens, loader, nil), func(c *gin.Context) {
		a := ActorFrom(c)
		c.JSON(http.StatusOK, gin.H{"id": a.ID, "role": a.Role})
	})
	return r
}

func get(r http.Handler, path string, header map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	for k, v := range header {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAuth(t *testing.T) {
	tokens := helpers.NewTokenService("secret", time.Hour, "test")
	u := &entity.User{ID: "u1", Email: "john@example.com", Role: entity.RoleManager}
	token, _, err := tokens.Issue(u)
	require.NoError(t, err)

	other := helpers.NewTokenService("other-secret", time.Hour, "test")
	forged, _, err := other.Issue(u)
	require.NoError(t, err)

	tests := []struct {
		name   string
		header string
		status int
	}{
		{"missing header", "", http.StatusUnauthorized},
		{"wrong scheme", "Basic " + token, http.StatusUnauthorized},
		{"empty token", "Bearer ", http.StatusUnauthorized},
		{"forged", "Bearer " + forged, http.StatusUnauthorized},
		{"garbage", "Bearer not.a.jwt", http.StatusUnauthorized},
		{"valid", "Bearer " + token, http.StatusOK},
		{"lower-case scheme", "bearer " + token, http.StatusOK},
	}
	r := authEngine(tokens, nil)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := get(r, "/me", map[string]string{"Authorization": tt.header})
			assert.Equal(t, tt.status, w.Code)
			if tt.status == http.StatusUnauthorized {
				assert.Equal(t, "Bearer", w.Header().Get("WWW-Authenticate"))
				var body map[string]any
				require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
				assert.Equal(t, apperror.MsgInvalidToken, body["detail"])
			}
		})
	}

	w := get(r, "/me", map[string]string{"Authorization": "Bearer " + token})
	assert.JSONEq(t, `{"id":"u1","role":"MANAGER"}`, w.Body.String())
}

func TestAuth_Revalidate(t *testing.T) {
	tokens := helpers.NewTokenService("secret", time.Hour, "test")
	token, _, err := tokens.Issue(&entity.User{ID: "u1", Role: entity.RoleAdmin})
	require.NoError(t, err)
	header := map[string]string{"Authorization": "Bearer " + token}

	demoted := authEngine(tokens, loaderFunc(func(_ context.Context, id string) (*entity.User, error) {
		return &entity.User{ID: id, Role: entity.RoleAuthenticated}, nil
	}))
	w := get(demoted, "/me", header)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"id":"u1","role":"AUTHENTICATED"}`, w.Body.String())

	locked := authEngine(tokens, loaderFunc(func(_ context.Context, id string) (*entity.User, error) {
		return &entity.User{ID: id, Role: entity.RoleAdmin, IsLocked: true}, nil
	}))
	assert.Equal(t, http.StatusUnauthorized, get(locked, "/me", header).Code)

	deleted := authEngine(tokens, loaderFunc(func(context.Context, string) (*entity.User, error) {
		return nil, repository.ErrNotFound
	}))
	assert.Equal(t, http.StatusUnauthorized, get(deleted, "/me", header).Code)
}

func TestRateLimit(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	r := gin.New()
	r.Use(RealIP())
	r.GET("/login", RateLimit(rdb, 2, time.Minute, KeyByIPAndPath(), nil, nil), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	h := map[string]string{"X-Forwarded-For": "203.0.113.7"}
	w := get(r, "/login", h)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "2", w.Header().Get("X-RateLimit-Limit"))
	assert.Equal(t, "1", w.Header().Get("X-RateLimit-Remaining"))

	assert.Equal(t, http.StatusOK, get(r, "/login", h).Code)

	w = get(r, "/login", h)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "0", w.Header().Get("X-RateLimit-Remaining"))
	assert.NotEmpty(t, w.Header().Get("Retry-After"))

	assert.Equal(t, http.StatusOK, get(r, "/login", map[string]string{"X-Forwarded-For": "203.0.113.8"}).Code, "other clients have their own window")

	mr.FastForward(time.Minute)
	assert.Equal(t, http.StatusOK, get(r, "/login", h).Code, "window expired")
}

func TestRateLimit_AllowAndFailOpen(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	r := gin.New()
	r.Use(RealIP())
	r.GET("/debug", RateLimit(rdb, 1, time.Minute, KeyByIP(), AllowPrivateIP(), nil), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})
	private := map[string]string{"X-Forwarded-For": "10.0.0.5"}
	for range 3 {
		assert.Equal(t, http.StatusOK, get(r, "/debug", private).Code)
	}

	mr.Close()
	public := map[string]string{"X-Forwarded-For": "203.0.113.9"}
	for range 3 {
		assert.Equal(t, http.StatusOK, get(r, "/debug", public).Code, "redis outage does not block traffic")
	}
}

func TestKeyByUserID(t *testing.T) {
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
	c.Set("real_ip", "198.51.100.1")
	assert.Equal(t, "rl:user:anon:ip:198.51.100.1", KeyByUserID()(c))

	c.Set(CtxUserIDKey, "u1")
	assert.Equal(t, "rl:user:u1", KeyByUserID()(c))
}

func TestRequestID(t *testing.T) {
	r := gin.New()
	r.Use(RequestIDMiddleware())
	r.GET("/", func(c *gin.Context) { c.String(http.StatusOK, c.GetString("request_id")) })

	w := get(r, "/", nil)
	generated := w.Header().Get(HeaderRequestID)
	assert.Len(t, generated, 36)
	assert.Equal(t, generated, w.Body.String())

	incoming := "2f1c3f0e-4b7a-4c1e-9a53-0d7f4b9c2e11"
	w = get(r, "/", map[string]string{HeaderRequestID: incoming})
	assert.Equal(t, incoming, w.Body.String())

	w = get(r, "/", map[string]string{HeaderRequestID: "<script>"})
	assert.NotEqual(t, "<script>", w.Body.String())
}

func TestRealIP(t *testing.T) {
	r := gin.New()
	r.Use(RealIP())
	r.GET("/", func(c *gin.Context) { c.String(http.StatusOK, c.GetString("real_ip")) })

	tests := []struct {
		name   string
		header map[string]string
		want   string
	}{
		{"cloudflare wins", map[string]string{"CF-Connecting-IP": "198.51.100.1", "X-Forwarded-For": "203.0.113.1"}, "198.51.100.1"},
		{"left-most forwarded", map[string]string{"X-Forwarded-For": "203.0.113.1, 10.0.0.1"}, "203.0.113.1"},
		{"x-real-ip", map[string]string{"X-Real-IP": "203.0.113.2"}, "203.0.113.2"},
		{"garbage falls through", map[string]string{"X-Real-IP": "nope", "X-Forwarded-For": "203.0.113.3"}, "203.0.113.3"},
		{"remote addr", nil, "192.0.2.1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, get(r, "/", tt.header).Body.String())
		})
	}
}
