package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/example/inventory-backend/internal/config"
	"github.com/example/inventory-backend/internal/core"
	"github.com/example/inventory-backend/internal/db"
	"github.com/example/inventory-backend/internal/middleware"
	"github.com/example/inventory-backend/internal/models"
)

func init() {
	gin.SetMode(gin.TestMode)
}

const aliceToken = "alice-token"

var alice = &models.User{ID: 1, FirebaseUID: "uid-alice", Email: "alice@example.com", Status: models.UserStatusActive}

// memProducts is an in-memory db.ProductRepository.
type memProducts struct {
	mu      sync.Mutex
	nextID  int64
	rows    map[int64]models.Product
	failErr error
}

func newMemProducts() *memProducts {
	return &memProducts{rows: map[int64]models.Product{}}
}

func (r *memProducts) Create(_ context.Context, in models.NewProduct) (*models.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failErr != nil {
		return nil, r.failErr
	}
	r.nextID++
	now := time.Now().UTC()
	p := models.Product{ID: r.nextID, Name: in.Name, Price: in.Price, Stock: in.Stock, CreatedAt: now, UpdatedAt: now}
	r.rows[p.ID] = p
	return &p, nil
}

func (r *memProducts) List(context.Context) ([]models.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failErr != nil {
		return nil, r.failErr
	}
	out := make([]models.Product, 0, len(r.rows))
	for _, p := range r.rows {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (r *memProducts) GetByID(_ context.Context, id int64) (*models.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.rows[id]
	if !ok {
		return nil, fmt.Errorf("product %d: %w", id, db.ErrNotFound)
	}
	return &p, nil
}

func (r *memProducts) Update(_ context.Context, id int64, patch models.ProductPatch) (*models.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.rows[id]
	if !ok {
		return nil, fmt.Errorf("product %d: %w", id, db.ErrNotFound)
	}
	if patch.Name != nil {
		p.Name = *patch.Name
	}
	if patch.Price != nil {
		p.Price = *patch.Price
	}
	if patch.Stock != nil {
		p.Stock = *patch.Stock
	}
	r.rows[id] = p
	return &p, nil
}

func (r *memProducts) Delete(_ context.Context, id int64) (*models.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.rows[id]
	if !ok {
		return nil, fmt.Errorf("product %d: %w", id, db.ErrNotFound)
	}
	delete(r.rows, id)
	return &p, nil
}

// eventLog captures published product events. With refuse set it rejects
// every event, like a full dispatcher queue.
type eventLog struct {
	mu      sync.Mutex
	events  []models.ProductEvent
	refuse  bool
	refused int
}

func (l *eventLog) Publish(event models.ProductEvent) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.refuse {
		l.refused++
		return false
	}
	l.events = append(l.events, event)
	return true
}

func (l *eventLog) all() []models.ProductEvent {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]models.ProductEvent(nil), l.events...)
}

// stubAuth is a programmable core.AuthService.
type stubAuth struct {
	tokens      map[string]*models.User
	users       map[int64]*models.User
	registerErr error
	loginErr    error
	serviceErr  error
	deleted     []int64
	patches     []models.UserPatch
}

func newStubAuth() *stubAuth {
	return &stubAuth{
		tokens: map[string]*models.User{aliceToken: alice},
		users:  map[int64]*models.User{alice.ID: alice},
	}
}

func (s *stubAuth) Register(_ context.Context, req models.RegisterRequest) (*models.AuthResult, error) {
	if s.registerErr != nil {
		return nil, s.registerErr
	}
	return &models.AuthResult{User: &models.User{ID: 2, Email: req.Email, Username: req.Username}, Token: "custom-token"}, nil
}

func (s *stubAuth) Login(_ context.Context, req models.LoginRequest) (*models.AuthResult, error) {
	if s.loginErr != nil {
		return nil, s.loginErr
	}
	return &models.AuthResult{User: alice, Token: "custom-token"}, nil
}

func (s *stubAuth) VerifyToken(_ context.Context, idToken string) (*models.User, error) {
	if u, ok := s.tokens[idToken]; ok {
		return u, nil
	}
	return nil, core.ErrUnauthenticated
}

func (s *stubAuth) GetUser(_ context.Context, id int64) (*models.User, error) {
	if s.serviceErr != nil {
		return nil, s.serviceErr
	}
	if u, ok := s.users[id]; ok {
		return u, nil
	}
	return nil, core.ErrUserNotFound
}

func (s *stubAuth) UpdateProfile(ctx context.Context, id int64, patch models.UserPatch) (*models.User, error) {
	u, err := s.GetUser(ctx, id)
	if err != nil {
		return nil, err
	}
	s.patches = append(s.patches, patch)
	updated := *u
	if patch.Username != nil {
		updated.Username = patch.Username
	}
	return &updated, nil
}

func (s *stubAuth) DeleteUser(ctx context.Context, id int64) error {
	if _, err := s.GetUser(ctx, id); err != nil {
		return err
	}
	s.deleted = append(s.deleted, id)
	return nil
}

type testServer struct {
	router   *gin.Engine
	products *memProducts
	events   *eventLog
	auth     *stubAuth
}

func testConfig(appEnv string) *config.Config {
	return &config.Config{AppEnv: appEnv, ClientURL: "http://localhost:5173", FeedLimit: 50}
}

func newTestServer(t *testing.T, cfg *config.Config, mutate func(*Dependencies)) *testServer {
	t.Helper()
	logger := zap.NewNop()
	ts := &testServer{products: newMemProducts(), events: &eventLog{}, auth: newStubAuth()}

	deps := Dependencies{
		ProductService: core.NewProductService(ts.products, core.NewAuditService(ts.events, logger), logger),
		AuthService:    ts.auth,
	}
	if mutate != nil {
		mutate(&deps)
	}

	router := gin.New()
	router.Use(middleware.RequestID(), middleware.RecoveryMiddleware(logger))
	SetupRoutes(router, cfg, logger, deps)
	ts.router = router
	return ts
}

type response struct {
	Code int
	Body map[string]any
}

func (ts *testServer) do(t *testing.T, method, path, token string, body any) response {
	t.Helper()
	var reader *bytes.Reader
	switch b := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case string:
		reader = bytes.NewReader([]byte(b))
	default:
		raw, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	ts.router.ServeHTTP(rec, req)

	out := response{Code: rec.Code}
	if rec.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out.Body), rec.Body.String())
	}
	return out
}

func (r response) data(t *testing.T) map[string]any {
	t.Helper()
	d, ok := r.Body["data"].(map[string]any)
	require.True(t, ok, "data is not an object: %v", r.Body["data"])
	return d
}

func fieldsOf(t *testing.T, r response) []string {
	t.Helper()
	require.Equal(t, http.StatusBadRequest, r.Code)
	require.Equal(t, "Validation error", r.Body["message"])
	errs, ok := r.Body["errors"].([]any)
	require.True(t, ok)
	var fields []string
	for _, e := range errs {
		fields = append(fields, e.(map[string]any)["field"].(string))
	}
	return fields
}
