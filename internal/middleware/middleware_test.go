package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AnshRaj112/mindfulkids-backend/internal/logger"
	"github.com/AnshRaj112/mindfulkids-backend/internal/models"
	"github.com/AnshRaj112/mindfulkids-backend/pkg/clientip"
)

var ok = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
})

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestSubmissionLimiterFixedWindow(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer rdb.Close()

	limiter := NewSubmissionLimiter(rdb, "clinic_applications", 2, time.Minute, clientip.RealClientIP, logger.NewTestLogger(t))
	h := limiter.Handler(ok)

	send := func(addr string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/api/clinic-applications", nil)
		req.RemoteAddr = addr
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec
	}

	assert.Equal(t, http.StatusOK, send("10.0.0.1:1111").Code)
	assert.Equal(t, http.StatusOK, send("10.0.0.1:2222").Code)

	rec := send("10.0.0.1:3333")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	body := decodeEnvelope(t, rec)
	assert.Equal(t, false, body["success"])
	assert.Equal(t, "RATE_LIMITED", body["code"])
	assert.NotEmpty(t, rec.Header().Get("Retry-After"))

	assert.Equal(t, http.StatusOK, send("10.0.0.2:1111").Code, "other clients keep their own window")

	mr.FastForward(time.Minute + time.Second)
	assert.Equal(t, http.StatusOK, send("10.0.0.1:4444").Code)
}

func TestSubmissionLimiterRepairsCounterWithoutExpiry(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer rdb.Close()

	// A counter whose EXPIRE never landed.
	key := RateLimitKeyPrefix + "clinic_applications:10.0.0.9"
	require.NoError(t, mr.Set(key, "7"))
	require.Equal(t, time.Duration(0), mr.TTL(key))

	limiter := NewSubmissionLimiter(rdb, "clinic_applications", 2, time.Minute, clientip.RealClientIP, logger.NewTestLogger(t))
	send := func() int {
		req := httptest.NewRequest(http.MethodPost, "/api/clinic-applications", nil)
		req.RemoteAddr = "10.0.0.9:1111"
		rec := httptest.NewRecorder()
		limiter.Handler(ok).ServeHTTP(rec, req)
		return rec.Code
	}

	assert.Equal(t, http.StatusTooManyRequests, send())
	assert.Equal(t, time.Minute, mr.TTL(key))

	mr.FastForward(time.Minute + time.Second)
	assert.Equal(t, http.StatusOK, send())
}

func TestSubmissionLimiterFailsOpen(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer rdb.Close()
	mr.Close()

	limiter := NewSubmissionLimiter(rdb, "reports", 1, time.Minute, clientip.RealClientIP, logger.NewNoOpLogger())
	rec := httptest.NewRecorder()
	limiter.Handler(ok).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

type staticResolver struct {
	tokens map[string]models.Identity
	err    error
}

func (s staticResolver) Resolve(_ context.Context, token string) (models.Identity, error) {
	return s.tokens[token], s.err
}

func TestAuthenticateAndRequireAuth(t *testing.T) {
	resolver := staticResolver{tokens: map[string]models.Identity{
		"good": {UserID: "u-1", Role: models.RoleParent},
	}}

	var seen models.Identity
	h := Authenticate(resolver, logger.NewNoOpLogger())(RequireAuth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = IdentityFrom(r.Context())
	})))

	req := httptest.NewRequest(http.MethodGet, "/api/auth/me", nil)
	req.Header.Set("Authorization", "Bearer good")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "u-1", seen.UserID)

	for _, header := range []string{"", "Bearer expired", "Basic Zm9vOmJhcg=="} {
		req := httptest.NewRequest(http.MethodGet, "/api/auth/me", nil)
		if header != "" {
			req.Header.Set("Authorization", header)
		}
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code, header)
		assert.Equal(t, "UNAUTHORIZED", decodeEnvelope(t, rec)["code"])
	}
}

func TestAuthenticateSurfacesResolverFailure(t *testing.T) {
	h := Authenticate(staticResolver{err: errors.New("redis down")}, logger.NewNoOpLogger())(ok)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer anything")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "SERVER_ERROR", decodeEnvelope(t, rec)["code"])
}

func TestHostCheck(t *testing.T) {
	h := HostCheck("api.mindfulkids.app")(ok)

	req := httptest.NewRequest(http.MethodGet, "http://api.mindfulkids.app:443/health", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)

	req = httptest.NewRequest(http.MethodGet, "http://evil.example/health", nil)
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestLoginRateLimitOnlyCoversCredentialRoutes(t *testing.T) {
	h := LoginRateLimit(clientip.RealClientIP)(ok)

	send := func(path string) int {
		req := httptest.NewRequest(http.MethodPost, path, nil)
		req.RemoteAddr = "192.0.2.7:5000"
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec.Code
	}

	for i := 0; i < loginRateLimitBurst; i++ {
		assert.Equal(t, http.StatusOK, send("/api/auth/signin"))
	}
	assert.Equal(t, http.StatusTooManyRequests, send("/api/auth/signin"))
	assert.Equal(t, http.StatusOK, send("/api/psychologists"))
}

func TestSecurityHeaders(t *testing.T) {
	rec := httptest.NewRecorder()
	SecurityHeaders(ok).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "DENY", rec.Header().Get("X-Frame-Options"))
}
