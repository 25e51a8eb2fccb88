package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/example/inventory-backend/internal/config"
	"github.com/example/inventory-backend/internal/models"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type stubVerifier struct {
	users map[string]*models.User
	calls int
}

func (s *stubVerifier) VerifyToken(_ context.Context, idToken string) (*models.User, error) {
	s.calls++
	if u, ok := s.users[idToken]; ok {
		return u, nil
	}
	return nil, errors.New("token rejected")
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestAuthMiddleware(t *testing.T) {
	alice := &models.User{ID: 7, Email: "alice@example.com"}
	verifier := &stubVerifier{users: map[string]*models.User{"good-token": alice}}
	auth := NewAuthMiddleware(verifier, zap.NewNop())

	router := gin.New()
	router.GET("/private", auth.VerifyToken(), func(c *gin.Context) {
		user, ok := CurrentUser(c)
		require.True(t, ok)
		c.JSON(http.StatusOK, gin.H{"id": user.ID})
	})

	tests := []struct {
		name       string
		header     string
		wantStatus int
		wantVerify int
		wantDetail string
	}{
		{"missing header", "", http.StatusUnauthorized, 0, "No token provided"},
		{"wrong scheme", "Basic abc", http.StatusUnauthorized, 0, "Authorization header format must be 'Bearer {token}'"},
		{"no token", "Bearer", http.StatusUnauthorized, 0, "Authorization header format must be 'Bearer {token}'"},
		{"rejected token", "Bearer bad-token", http.StatusUnauthorized, 1, "Invalid or expired token"},
		{"valid token", "Bearer good-token", http.StatusOK, 1, ""},
		{"lowercase scheme", "bearer good-token", http.StatusOK, 1, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			verifier.calls = 0
			req := httptest.NewRequest(http.MethodGet, "/private", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, tt.wantVerify, verifier.calls)
			body := decodeBody(t, rec)
			if tt.wantStatus == http.StatusOK {
				assert.Equal(t, float64(7), body["id"])
				return
			}
			assert.Equal(t, false, body["success"])
			assert.Equal(t, "Authentication required", body["message"])
			assert.Equal(t, tt.wantDetail, body["error"])
		})
	}
}

func TestCurrentUser_Absent(t *testing.T) {
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	user, ok := CurrentUser(c)
	assert.False(t, ok)
	assert.Nil(t, user)
}

func TestRequestID(t *testing.T) {
	router := gin.New()
	router.Use(RequestID())
	router.GET("/", func(c *gin.Context) { c.String(http.StatusOK, GetRequestID(c)) })

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	generated := rec.Header().Get(RequestIDHeader)
	assert.Len(t, generated, 36)
	assert.Equal(t, generated, rec.Body.String())

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, "abc-123")
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, "abc-123", rec.Header().Get(RequestIDHeader))
}

func TestRequestLogger_LevelByStatus(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	router := gin.New()
	router.Use(RequestID(), RequestLogger(zap.New(core)))
	router.GET("/status/:code", func(c *gin.Context) {
		switch c.Param("code") {
		case "500":
			c.Status(http.StatusInternalServerError)
		case "404":
			c.Status(http.StatusNotFound)
		default:
			c.Status(http.StatusOK)
		}
	})

	for _, code := range []string{"200", "404", "500"} {
		router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/status/"+code, nil))
	}

	entries := logs.All()
	require.Len(t, entries, 3)
	assert.Equal(t, zapcore.InfoLevel, entries[0].Level)
	assert.Equal(t, zapcore.WarnLevel, entries[1].Level)
	assert.Equal(t, zapcore.ErrorLevel, entries[2].Level)
	assert.Equal(t, int64(404), entries[1].ContextMap()["status_code"])
	assert.NotEmpty(t, entries[2].ContextMap()["request_id"])
}

func TestRecoveryMiddleware(t *testing.T) {
	core, logs := observer.New(zapcore.ErrorLevel)
	router := gin.New()
	router.Use(RecoveryMiddleware(zap.New(core)))
	router.GET("/boom", func(c *gin.Context) { panic("kaboom") })

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/boom", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, false, body["success"])
	assert.Equal(t, "Something went wrong", body["error"])
	require.Equal(t, 1, logs.FilterMessage("Panic recovered").Len())
}

func TestCORSMiddleware(t *testing.T) {
	router := gin.New()
	router.Use(CORSMiddleware(&config.Config{ClientURL: "http://localhost:5173, https://app.example.com"}))
	router.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodOptions, "/", nil)
	req.Header.Set("Origin", "https://app.example.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodGet)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, "https://app.example.com", rec.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Origin", "https://evil.example.com")
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	assert.Panics(t, func() { CORSMiddleware(&config.Config{}) })
}

type fakeRateStore struct {
	mu     sync.Mutex
	counts map[string]int64
	err    error
}

func newFakeRateStore() *fakeRateStore {
	return &fakeRateStore{counts: map[string]int64{}}
}

func (f *fakeRateStore) IncrWithTTL(_ context.Context, key string, _ time.Duration) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return 0, f.err
	}
	f.counts[key]++
	return f.counts[key], nil
}

func rateLimitedRouter(policy AuthRateLimitPolicy, store RateLimitStore) *gin.Engine {
	router := gin.New()
	router.POST("/api/auth/login", AuthRateLimit(policy, store, zap.NewNop()), func(c *gin.Context) {
		body, _ := io.ReadAll(c.Request.Body)
		c.String(http.StatusOK, string(body))
	})
	return router
}

func postLogin(router *gin.Engine, email, ip string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api/auth/login",
		strings.NewReader(`{"email":"`+email+`","password":"secret"}`))
	req.RemoteAddr = ip + ":5678"
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestAuthRateLimit_EmailLimit(t *testing.T) {
	router := rateLimitedRouter(NewAuthRateLimitPolicy("login", time.Minute, 0, 2), newFakeRateStore())

	for i := 0; i < 2; i++ {
		rec := postLogin(router, "Blocked@Example.com", "1.2.3.4")
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), `"email":"Blocked@Example.com"`)
	}

	rec := postLogin(router, "blocked@example.com", "9.9.9.9")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "60", rec.Header().Get("Retry-After"))
	assert.Equal(t, false, decodeBody(t, rec)["success"])

	assert.Equal(t, http.StatusOK, postLogin(router, "other@example.com", "1.2.3.4").Code)
}

func TestAuthRateLimit_IPLimit(t *testing.T) {
	router := rateLimitedRouter(NewAuthRateLimitPolicy("login", time.Minute, 1, 0), newFakeRateStore())

	assert.Equal(t, http.StatusOK, postLogin(router, "a@example.com", "5.6.7.8").Code)
	assert.Equal(t, http.StatusTooManyRequests, postLogin(router, "b@example.com", "5.6.7.8").Code)
	assert.Equal(t, http.StatusOK, postLogin(router, "b@example.com", "5.6.7.9").Code)
}

func TestAuthRateLimit_RejectsOversizedBody(t *testing.T) {
	store := newFakeRateStore()
	router := rateLimitedRouter(NewAuthRateLimitPolicy("login", time.Minute, 0, 5), store)

	payload := `{"email":"a@example.com","password":"` + strings.Repeat("x", maxAuthBodyBytes) + `"}`
	req := httptest.NewRequest(http.MethodPost, "/api/auth/login", strings.NewReader(payload))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
	assert.Equal(t, false, decodeBody(t, rec)["success"])
	assert.Empty(t, store.counts)
}

func TestAuthRateLimit_FailsOpen(t *testing.T) {
	store := newFakeRateStore()
	store.err = errors.New("redis down")
	router := rateLimitedRouter(NewAuthRateLimitPolicy("login", time.Minute, 1, 1), store)

	for i := 0; i < 3; i++ {
		assert.Equal(t, http.StatusOK, postLogin(router, "a@example.com", "5.6.7.8").Code)
	}
}

func TestAuthRateLimit_DisabledWithoutStore(t *testing.T) {
	router := rateLimitedRouter(NewAuthRateLimitPolicy("login", time.Minute, 1, 1), nil)

	for i := 0; i < 3; i++ {
		assert.Equal(t, http.StatusOK, postLogin(router, "a@example.com", "5.6.7.8").Code)
	}
}

func TestHTTPMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := NewHTTPMetrics(reg)

	router := gin.New()
	router.Use(metrics.Middleware())
	router.GET("/api/products/:id", func(c *gin.Context) { c.Status(http.StatusNotFound) })

	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/products/1", nil))
	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/products/2", nil))
	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/nowhere", nil))

	assert.Equal(t, float64(2), testutil.ToFloat64(metrics.requests.WithLabelValues("GET", "/api/products/:id", "404")))
	assert.Equal(t, float64(1), testutil.ToFloat64(metrics.requests.WithLabelValues("GET", "unmatched", "404")))
}
