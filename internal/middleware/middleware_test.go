package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"antiromantic-be/internal/auth"
	"antiromantic-be/internal/logger"
	"antiromantic-be/internal/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

const testSecret = "test-secret"

func TestAuth(t *testing.T) {
	t.Run("Missing Token", func(t *testing.T) {
		next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, ok := utils.GetUserIDFromContext(r.Context())
			assert.False(t, ok, "Context should not contain user ID")
			w.WriteHeader(http.StatusOK)
		})

		req := httptest.NewRequest(http.MethodGet, "/protected", nil)
		w := httptest.NewRecorder()

		AuthMiddleware(testSecret)(next).ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("Invalid Token", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/protected", nil)
		req.Header.Set("Authorization", "Bearer invalid-token")
		w := httptest.NewRecorder()

		AuthMiddleware(testSecret)(http.NotFoundHandler()).ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.JSONEq(t, `{"success":false,"error":"invalid or expired token"}`, w.Body.String())
	})

	t.Run("Valid Token", func(t *testing.T) {
		tokenString, err := auth.GenerateToken(testSecret, "user-1", "u@example.com", utils.RoleCustomer, time.Hour)
		require.NoError(t, err)

		req := httptest.NewRequest(http.MethodGet, "/protected", nil)
		req.Header.Set("Authorization", "Bearer "+tokenString)
		w := httptest.NewRecorder()

		next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID, ok := utils.GetUserIDFromContext(r.Context())
			assert.True(t, ok)
			assert.Equal(t, "user-1", userID)
			assert.Equal(t, utils.RoleCustomer, utils.GetUserRoleFromContext(r.Context()))
			w.WriteHeader(http.StatusOK)
		})

		AuthMiddleware(testSecret)(next).ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("Expired Token", func(t *testing.T) {
		tokenString, err := auth.GenerateToken(testSecret, "user-1", "", utils.RoleCustomer, -time.Hour)
		require.NoError(t, err)

		req := httptest.NewRequest(http.MethodGet, "/protected", nil)
		req.Header.Set("Authorization", "Bearer "+tokenString)
		w := httptest.NewRecorder()

		AuthMiddleware(testSecret)(http.NotFoundHandler()).ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("Malformed Header", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/protected", nil)
		req.Header.Set("Authorization", "Basic user:pass")
		w := httptest.NewRecorder()

		next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, ok := utils.GetUserIDFromContext(r.Context())
			assert.False(t, ok)
			w.WriteHeader(http.StatusOK)
		})

		AuthMiddleware(testSecret)(next).ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
	})
}

func TestRequireRole(t *testing.T) {
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusNoContent) })
	h := RequireRole(utils.RoleAdmin)(ok)

	t.Run("Anonymous", func(t *testing.T) {
		w := httptest.NewRecorder()
		h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/admin/orders", nil))
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("Customer", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/admin/orders", nil)
		req = req.WithContext(utils.SetUserContext(req.Context(), "u1", "", utils.RoleCustomer))
		w := httptest.NewRecorder()
		h.ServeHTTP(w, req)
		assert.Equal(t, http.StatusForbidden, w.Code)
	})

	t.Run("Admin", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/admin/orders", nil)
		req = req.WithContext(utils.SetUserContext(req.Context(), "u1", "", utils.RoleAdmin))
		w := httptest.NewRecorder()
		h.ServeHTTP(w, req)
		assert.Equal(t, http.StatusNoContent, w.Code)
	})
}

func TestRateLimiter(t *testing.T) {
	limiter := NewRateLimiter(time.Minute)
	handler := limiter.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	t.Run("Strict tier on checkout", func(t *testing.T) {
		var codes []int
		for i := 0; i < burstStrict+1; i++ {
			req := httptest.NewRequest(http.MethodPost, "/api/checkout", nil)
			req.RemoteAddr = "10.0.0.1:1234"
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, req)
			codes = append(codes, w.Code)
		}
		assert.Equal(t, http.StatusTooManyRequests, codes[len(codes)-1])
		assert.Equal(t, http.StatusOK, codes[0])
	})

	t.Run("Tiers are separate buckets", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/orders", nil)
		req.RemoteAddr = "10.0.0.1:1234"
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("Cleanup drops idle visitors", func(t *testing.T) {
		l := NewRateLimiter(0)
		l.get("ip:1:general", limitGeneral, burstGeneral)
		time.Sleep(time.Millisecond)
		l.Cleanup()
		assert.Empty(t, l.visitors)
	})
}

func TestResolveRateTier(t *testing.T) {
	_, _, tier := resolveRateTier(httptest.NewRequest(http.MethodPost, "/api/coupons/validate", nil))
	assert.Equal(t, "strict", tier)

	_, _, tier = resolveRateTier(httptest.NewRequest(http.MethodGet, "/api/admin/orders", nil))
	assert.Equal(t, "admin", tier)

	_, _, tier = resolveRateTier(httptest.NewRequest(http.MethodGet, "/api/orders/AR1", nil))
	assert.Equal(t, "general", tier)
}

func TestLoggingMiddleware(t *testing.T) {
	core, observed := observer.New(zapcore.InfoLevel)
	restore := logger.Replace(zap.New(core))
	defer restore()

	handler := LoggingMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
	}))

	req := httptest.NewRequest(http.MethodPost, "/api/checkout", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	logs := observed.TakeAll()
	require.Len(t, logs, 1)
	assert.Equal(t, "incoming request", logs[0].Message)
	assert.Equal(t, "/api/checkout", logs[0].ContextMap()["path"])
	assert.EqualValues(t, http.StatusCreated, logs[0].ContextMap()["status"])
}

func TestLoggingMiddleware_IncludesAuthenticatedUser(t *testing.T) {
	core, observed := observer.New(zapcore.InfoLevel)
	restore := logger.Replace(zap.New(core))
	defer restore()

	tokenStr, err := auth.GenerateToken(testSecret, "user-42", "ana@example.com", utils.RoleCustomer, time.Hour)
	require.NoError(t, err)

	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	handler := LoggingMiddleware(AuthMiddleware(testSecret)(inner))

	t.Run("Authenticated", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/orders", nil)
		req.Header.Set("Authorization", "Bearer "+tokenStr)
		handler.ServeHTTP(httptest.NewRecorder(), req)

		logs := observed.TakeAll()
		require.Len(t, logs, 1)
		assert.Equal(t, "user-42", logs[0].ContextMap()["user_id"])
	})

	t.Run("Anonymous", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/orders", nil)
		handler.ServeHTTP(httptest.NewRecorder(), req)

		logs := observed.TakeAll()
		require.Len(t, logs, 1)
		_, ok := logs[0].ContextMap()["user_id"]
		assert.False(t, ok)
	})
}
