package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/modernshop/shop-api/internal/api/handler"
	"github.com/modernshop/shop-api/internal/api/middleware"
	"github.com/modernshop/shop-api/internal/core/domain"
	"github.com/modernshop/shop-api/internal/core/service"
)

// memUserRepo is an in-memory ports.UserRepository with the same
// version-guarded cart writes as the Mongo repository.
type memUserRepo struct {
	mu     sync.Mutex
	users  map[string]domain.User
	nextID int
}

func newMemUserRepo() *memUserRepo {
	return &memUserRepo{users: make(map[string]domain.User)}
}

func (r *memUserRepo) Create(_ context.Context, u *domain.User) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.users {
		if existing.Email == u.Email {
			return nil, domain.ErrDuplicateEmail
		}
	}
	r.nextID++
	stored := *u
	stored.ID = fmt.Sprintf("%024x", r.nextID)
	r.users[stored.ID] = stored
	return &stored, nil
}

func (r *memUserRepo) FindByEmail(_ context.Context, email string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email == email {
			return &u, nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (r *memUserRepo) FindByID(_ context.Context, id string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	u.Cart = append(domain.Cart{}, u.Cart...)
	return &u, nil
}

func (r *memUserRepo) ReplaceCart(_ context.Context, id string, cart domain.Cart, expectedVersion int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return domain.ErrUserNotFound
	}
	if u.CartVersion != expectedVersion {
		return domain.ErrCartConflict
	}
	u.Cart = append(domain.Cart{}, cart...)
	u.CartVersion++
	r.users[id] = u
	return nil
}

func (r *memUserRepo) delete(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.users, id)
}

type testServer struct {
	e        *echo.Echo
	repo     *memUserRepo
	sessions *service.SessionIssuer
}

func newTestServer(t *testing.T, rateLimit int) *testServer {
	t.Helper()
	repo := newMemUserRepo()
	sessions := service.NewSessionIssuer("test-secret", time.Hour)
	log := zerolog.Nop()
	registry := prometheus.NewRegistry()

	e := NewRouter(Dependencies{
		Logger:             log,
		Environment:        "test",
		ExposeErrorDetails: false,
		FrontendURL:        "http://localhost:3000",
		BodyLimit:          "10M",
		Auth:               service.NewAuthService(repo, sessions, bcrypt.MinCost, log),
		Cart:               service.NewCartService(repo, 3, log),
		Sessions:           sessions,
		Users:              repo,
		RateLimit: middleware.RateLimitConfig{
			Store:   middleware.NewMemoryRateLimitStore(rateLimit, time.Hour),
			Backend: "memory",
			Logger:  log,
		},
		Checks:     map[string]handler.DependencyCheck{"mongodb": func(context.Context) error { return nil }},
		Registerer: registry,
		Gatherer:   registry,
	})
	return &testServer{e: e, repo: repo, sessions: sessions}
}

func (s *testServer) do(t *testing.T, method, path, token, body string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	if token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.e.ServeHTTP(rec, req)

	var resp map[string]any
	if strings.HasPrefix(rec.Header().Get(echo.HeaderContentType), echo.MIMEApplicationJSON) {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp), rec.Body.String())
	}
	return rec, resp
}

func (s *testServer) register(t *testing.T, name, email, password string) (string, string) {
	t.Helper()
	rec, resp := s.do(t, http.MethodPost, "/api/auth/register", "",
		fmt.Sprintf(`{"name":%q,"email":%q,"password":%q}`, name, email, password))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	user := resp["user"].(map[string]any)
	return resp["token"].(string), user["id"].(string)
}

func cartLines(t *testing.T, resp map[string]any, key string) []map[string]any {
	t.Helper()
	raw, ok := resp[key].([]any)
	require.True(t, ok, "expected %s array in %v", key, resp)
	lines := make([]map[string]any, 0, len(raw))
	for _, l := range raw {
		lines = append(lines, l.(map[string]any))
	}
	return lines
}

func TestRouter_RegisterLoginProfile(t *testing.T) {
	s := newTestServer(t, 1000)

	_, userID := s.register(t, "Ann", "ann@x.com", "secret1")

	rec, resp := s.do(t, http.MethodPost, "/api/auth/login", "", `{"email":"ANN@x.com","password":"secret1"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	token := resp["token"].(string)

	rec, resp = s.do(t, http.MethodGet, "/api/auth/profile", token, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, userID, resp["id"])
	assert.Equal(t, "ann@x.com", resp["email"])
	assert.Empty(t, cartLines(t, resp, "cart"))
	assert.NotContains(t, rec.Body.String(), "password")

	rec, resp = s.do(t, http.MethodPost, "/api/auth/register", "", `{"name":"Ann2","email":"ann@x.com","password":"secret2"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, CodeDuplicateEmail, resp["code"])

	rec, resp = s.do(t, http.MethodPost, "/api/auth/login", "", `{"email":"ann@x.com","password":"wrong"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, CodeInvalidCredentials, resp["code"])

	rec, resp = s.do(t, http.MethodPost, "/api/auth/login", "", `{"email":"nobody@x.com","password":"wrong"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, CodeInvalidCredentials, resp["code"], "unknown email is indistinguishable from wrong password")
}

func TestRouter_CartScenario(t *testing.T) {
	s := newTestServer(t, 1000)
	token, _ := s.register(t, "Ann", "ann@x.com", "secret1")

	item := `{"productId":"p1","title":"Mug","price":10,"image":"m.png","quantity":2}`
	rec, resp := s.do(t, http.MethodPost, "/api/cart", token, item)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	lines := cartLines(t, resp, "cart")
	require.Len(t, lines, 1)
	assert.EqualValues(t, 2, lines[0]["quantity"])

	rec, resp = s.do(t, http.MethodPost, "/api/cart", token, `{"productId":"p1","title":"Mug","price":10,"image":"m.png","quantity":1}`)
	require.Equal(t, http.StatusOK, rec.Code)
	lines = cartLines(t, resp, "cart")
	require.Len(t, lines, 1)
	assert.EqualValues(t, 3, lines[0]["quantity"])

	rec, resp = s.do(t, http.MethodPut, "/api/cart/p1", token, `{"quantity":0}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, CodeValidationFailed, resp["code"])

	rec, resp = s.do(t, http.MethodGet, "/api/cart", token, "")
	require.Equal(t, http.StatusOK, rec.Code)
	lines = cartLines(t, resp, "items")
	require.Len(t, lines, 1)
	assert.EqualValues(t, 3, lines[0]["quantity"], "failed update must leave the cart unchanged")
	assert.EqualValues(t, 3, resp["count"])
	assert.EqualValues(t, 30, resp["total"])

	rec, resp = s.do(t, http.MethodPut, "/api/cart/ghost", token, `{"quantity":2}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, CodeNotFound, resp["code"])

	rec, resp = s.do(t, http.MethodDelete, "/api/cart/p1", token, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, cartLines(t, resp, "cart"))

	rec, resp = s.do(t, http.MethodDelete, "/api/cart/p1", token, "")
	require.Equal(t, http.StatusOK, rec.Code, "removing an absent item is not an error")
	assert.Empty(t, cartLines(t, resp, "cart"))

	_, _ = s.do(t, http.MethodPost, "/api/cart", token, item)
	rec, resp = s.do(t, http.MethodDelete, "/api/cart", token, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Cart cleared successfully", resp["message"])
	assert.Empty(t, cartLines(t, resp, "cart"))
}

func TestRouter_CartsAreIsolatedPerUser(t *testing.T) {
	s := newTestServer(t, 1000)
	annToken, _ := s.register(t, "Ann", "ann@x.com", "secret1")
	bobToken, _ := s.register(t, "Bob", "bob@x.com", "secret1")

	_, _ = s.do(t, http.MethodPost, "/api/cart", annToken, `{"productId":1,"title":"Mug","price":10,"image":"m.png"}`)

	_, resp := s.do(t, http.MethodGet, "/api/cart", bobToken, "")
	assert.Empty(t, cartLines(t, resp, "items"))

	_, resp = s.do(t, http.MethodGet, "/api/cart", annToken, "")
	lines := cartLines(t, resp, "items")
	require.Len(t, lines, 1)
	assert.Equal(t, "1", lines[0]["productId"])
}

func TestRouter_CartArithmeticStaysInRange(t *testing.T) {
	s := newTestServer(t, 1000)
	token, _ := s.register(t, "Ann", "ann@x.com", "secret1")

	rec, _ := s.do(t, http.MethodPost, "/api/cart", token, `{"productId":"p1","title":"Mug","price":1,"image":"m.png","quantity":9223372036854775807}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec, resp := s.do(t, http.MethodPost, "/api/cart", token, `{"productId":"p1","title":"Mug","price":1,"image":"m.png","quantity":1}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, CodeValidationFailed, resp["code"])

	rec, resp = s.do(t, http.MethodPost, "/api/cart", token, `{"productId":"p2","title":"Gold","price":1e308,"image":"g.png","quantity":2}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, CodeValidationFailed, resp["code"])

	rec, resp = s.do(t, http.MethodGet, "/api/cart", token, "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	lines := cartLines(t, resp, "items")
	require.Len(t, lines, 1)
	assert.Greater(t, lines[0]["quantity"].(float64), float64(0))
}

func TestRouter_LoginWithEmptyPasswordIsInvalidCredentials(t *testing.T) {
	s := newTestServer(t, 1000)
	s.register(t, "Ann", "ann@x.com", "secret1")

	rec, resp := s.do(t, http.MethodPost, "/api/auth/login", "", `{"email":"ann@x.com","password":""}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, CodeInvalidCredentials, resp["code"])
}

func TestRouter_AuthGate(t *testing.T) {
	s := newTestServer(t, 1000)
	token, userID := s.register(t, "Ann", "ann@x.com", "secret1")

	rec, resp := s.do(t, http.MethodGet, "/api/cart", "", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, CodeMissingToken, resp["code"])

	rec, resp = s.do(t, http.MethodGet, "/api/auth/profile", "garbage", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, CodeInvalidToken, resp["code"])

	expired := service.NewSessionIssuer("test-secret", time.Nanosecond)
	stale, _, err := expired.Issue(userID)
	require.NoError(t, err)
	time.Sleep(1100 * time.Millisecond)
	rec, resp = s.do(t, http.MethodGet, "/api/cart", stale, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, CodeExpiredToken, resp["code"])

	s.repo.delete(userID)
	rec, resp = s.do(t, http.MethodGet, "/api/cart", token, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, CodeInvalidToken, resp["code"])
}

func TestRouter_HealthAndUnknownRoute(t *testing.T) {
	s := newTestServer(t, 1000)

	rec, resp := s.do(t, http.MethodGet, "/api/health", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ModernShop API is running!", resp["message"])
	assert.Equal(t, "test", resp["environment"])
	assert.NotEmpty(t, rec.Header().Get(echo.HeaderXRequestID))

	rec, _ = s.do(t, http.MethodGet, "/api/health/ready", "", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec, resp = s.do(t, http.MethodGet, "/api/nope", "", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Route not found", resp["message"])
	assert.Equal(t, "/api/nope", resp["path"])

	rec, _ = s.do(t, http.MethodGet, "/metrics", "", "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRouter_RateLimit(t *testing.T) {
	s := newTestServer(t, 2)

	for i := 0; i < 2; i++ {
		rec, _ := s.do(t, http.MethodGet, "/api/health", "", "")
		require.Equal(t, http.StatusOK, rec.Code)
	}

	rec, resp := s.do(t, http.MethodGet, "/api/health", "", "")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, CodeRateLimited, resp["code"])
	assert.Equal(t, middleware.RateLimitMessage, resp["message"])
}
