package router

import (
	"bytes"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/writing-practice-api/internal/config"
	"github.com/iliyamo/writing-practice-api/internal/logger"
	"github.com/iliyamo/writing-practice-api/internal/metrics"
	"github.com/iliyamo/writing-practice-api/internal/middleware"
	"github.com/iliyamo/writing-practice-api/internal/model"
	"github.com/iliyamo/writing-practice-api/internal/repository"
	"github.com/iliyamo/writing-practice-api/internal/service"
	"github.com/iliyamo/writing-practice-api/internal/testutil"
)

type api struct {
	t  *testing.T
	e  *echo.Echo
	db *sql.DB
}

func newAPI(t *testing.T) *api {
	t.Helper()
	db := testutil.SetupTestDB(t)
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	log := logger.Discard()
	cache := config.CacheConfig{
		Enabled:      true,
		Methods:      map[string]bool{http.MethodGet: true},
		TTL:          time.Minute,
		KeyStrategy:  "route_query",
		Prefix:       "cache:ideas",
		MaxBodyBytes: 1 << 20,
	}
	ideas := repository.NewIdeaRepo(db)
	e := New(Deps{
		DB:        db,
		Redis:     rdb,
		Log:       log,
		Metrics:   metrics.New("writing"),
		JWTSecret: testutil.TestSecret,
		Cache:     cache,
		RateLimit: config.RateLimitConfig{Enabled: false},
		Auth:      service.NewAuthService(repository.NewUserRepo(db), testutil.TestSecret, time.Hour, testutil.TestBcryptCost),
		Ideas:     service.NewIdeaService(ideas, middleware.NewCachePurger(rdb, cache.Prefix), log),
		Texts:     service.NewTextService(repository.NewTextRepo(db), ideas, service.NopPublisher{}, log),
	})
	return &api{t: t, e: e, db: db}
}

func (a *api) do(method, path, token string, body any) (*httptest.ResponseRecorder, map[string]any) {
	a.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(a.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	if token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	a.e.ServeHTTP(rec, req)

	out := map[string]any{}
	if ct := rec.Header().Get(echo.HeaderContentType); ct == echo.MIMEApplicationJSON && rec.Body.Len() > 0 {
		require.NoError(a.t, json.Unmarshal(rec.Body.Bytes(), &out))
	}
	return rec, out
}

func (a *api) register(email string) (string, uint64) {
	a.t.Helper()
	rec, body := a.do(http.MethodPost, "/api/auth/register", "", map[string]any{
		"name": "Writer", "email": email, "password": "secret1",
	})
	require.Equal(a.t, http.StatusCreated, rec.Code, rec.Body.String())
	user := body["user"].(map[string]any)
	return body["token"].(string), uint64(user["id"].(float64))
}

func (a *api) adminToken() string {
	a.t.Helper()
	testutil.CreateUser(a.t, a.db, "admin@x.com", model.RoleAdmin)
	rec, body := a.do(http.MethodPost, "/api/auth/login", "", map[string]any{
		"email": "admin@x.com", "password": "password1",
	})
	require.Equal(a.t, http.StatusOK, rec.Code, rec.Body.String())
	return body["token"].(string)
}

func id(m map[string]any) string {
	return strconv.FormatUint(uint64(m["id"].(float64)), 10)
}

func TestAuthFlow(t *testing.T) {
	a := newAPI(t)
	token, uid := a.register("ana@x.com")

	rec, body := a.do(http.MethodGet, "/api/auth/me", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.EqualValues(t, uid, body["id"])
	assert.Equal(t, "USER", body["role"])
	assert.NotContains(t, body, "passwordHash")
	assert.NotContains(t, body, "PasswordHash")

	rec, body = a.do(http.MethodPost, "/api/auth/register", "", map[string]any{
		"name": "Again", "email": "ANA@x.com", "password": "secret2",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "user already exists", body["message"])

	rec, body = a.do(http.MethodPost, "/api/auth/login", "", map[string]any{"email": "ana@x.com", "password": "nope-nope"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "invalid credentials", body["message"])

	rec, body = a.do(http.MethodPost, "/api/auth/register", "", map[string]any{"name": "A", "email": "bad", "password": "1"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "validation failed", body["message"])
	assert.Len(t, body["errors"], 3)

	rec, _ = a.do(http.MethodGet, "/api/auth/me", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	rec, _ = a.do(http.MethodGet, "/api/auth/me", "garbage", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestIdeas_AdminOnlyWrites(t *testing.T) {
	a := newAPI(t)
	admin := a.adminToken()
	user, _ := a.register("ana@x.com")

	rec, body := a.do(http.MethodPost, "/api/ideas", admin, map[string]any{"title": "ab", "content": "cd"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Equal(t, "ab", body["title"])
	ideaID := id(body)

	rec, _ = a.do(http.MethodPost, "/api/ideas", user, map[string]any{"title": "ab", "content": "cd"})
	assert.Equal(t, http.StatusForbidden, rec.Code)
	rec, _ = a.do(http.MethodPut, "/api/ideas/"+ideaID, user, map[string]any{"title": "xy", "content": "zw"})
	assert.Equal(t, http.StatusForbidden, rec.Code)
	rec, _ = a.do(http.MethodDelete, "/api/ideas/"+ideaID, user, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec, body = a.do(http.MethodPost, "/api/ideas", admin, map[string]any{"title": "a"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	errs := body["errors"].(map[string]any)
	assert.Equal(t, "title must be at least 2 characters", errs["title"])
	assert.Equal(t, "content is required", errs["content"])

	rec, _ = a.do(http.MethodPut, "/api/ideas/9999", admin, map[string]any{"title": "xy", "content": "zw"})
	assert.Equal(t, http.StatusNotFound, rec.Code)
	rec, _ = a.do(http.MethodGet, "/api/ideas/abc", user, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestIdeas_ReadsAndCache(t *testing.T) {
	a := newAPI(t)
	admin := a.adminToken()
	user, _ := a.register("ana@x.com")

	rec, body := a.do(http.MethodGet, "/api/ideas/random", user, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "no ideas available", body["message"])

	rec, created := a.do(http.MethodPost, "/api/ideas", admin, map[string]any{"title": "sea", "content": "Write about the sea"})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec, body = a.do(http.MethodGet, "/api/ideas/random", user, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, created["id"], body["id"])

	rec, body = a.do(http.MethodGet, "/api/ideas?search=SEA", user, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "MISS", rec.Header().Get("X-Cache"))
	assert.EqualValues(t, 1, body["total"])
	assert.EqualValues(t, 1, body["page"])
	assert.EqualValues(t, 1, body["totalPages"])

	rec, _ = a.do(http.MethodGet, "/api/ideas?search=SEA", user, nil)
	assert.Equal(t, "HIT", rec.Header().Get("X-Cache"))

	rec, _ = a.do(http.MethodPut, "/api/ideas/"+id(created), admin, map[string]any{"title": "lake", "content": "Write about a lake"})
	require.Equal(t, http.StatusOK, rec.Code)

	rec, body = a.do(http.MethodGet, "/api/ideas?search=SEA", user, nil)
	assert.Equal(t, "MISS", rec.Header().Get("X-Cache"), "writes purge the cache")
	assert.EqualValues(t, 0, body["total"])
	assert.Empty(t, body["data"])

	rec, _ = a.do(http.MethodGet, "/api/ideas", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestIdeas_CacheKeysPerID(t *testing.T) {
	a := newAPI(t)
	admin := a.adminToken()
	user, _ := a.register("ana@x.com")

	_, one := a.do(http.MethodPost, "/api/ideas", admin, map[string]any{"title": "one", "content": "first prompt"})
	_, two := a.do(http.MethodPost, "/api/ideas", admin, map[string]any{"title": "two", "content": "second prompt"})

	rec, body := a.do(http.MethodGet, "/api/ideas/"+id(one), user, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "one", body["title"])

	rec, body = a.do(http.MethodGet, "/api/ideas/"+id(two), user, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "MISS", rec.Header().Get("X-Cache"), "a different id is a different entry")
	assert.Equal(t, "two", body["title"])

	rec, body = a.do(http.MethodGet, "/api/ideas/"+id(one), user, nil)
	assert.Equal(t, "HIT", rec.Header().Get("X-Cache"))
	assert.Equal(t, "one", body["title"])
}

func TestIdeas_PaddedInputStillMeetsLengthRules(t *testing.T) {
	a := newAPI(t)
	admin := a.adminToken()

	rec, body := a.do(http.MethodPost, "/api/ideas", admin, map[string]any{"title": "  a  ", "content": " b  "})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	errs := body["errors"].(map[string]any)
	assert.Equal(t, "title must be at least 2 characters", errs["title"])
	assert.Equal(t, "content must be at least 2 characters", errs["content"])

	rec, body = a.do(http.MethodPost, "/api/ideas", admin, map[string]any{"title": "  sea ", "content": " waves "})
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "sea", body["title"])
	assert.Equal(t, "waves", body["content"])

	rec, _ = a.do(http.MethodPut, "/api/ideas/"+id(body), admin, map[string]any{"title": "ok", "content": "  x "})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAuth_LongPasswordIsAValidationError(t *testing.T) {
	a := newAPI(t)
	rec, body := a.do(http.MethodPost, "/api/auth/register", "", map[string]any{
		"name": "Writer", "email": "long@x.com", "password": strings.Repeat("p", 80),
	})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "validation failed", body["message"])
	assert.Equal(t, "password must be at most 72 bytes", body["errors"].(map[string]any)["password"])

	rec, _ = a.do(http.MethodPost, "/api/auth/register", "", map[string]any{
		"name": "Writer", "email": "long@x.com", "password": strings.Repeat("p", 72),
	})
	assert.Equal(t, http.StatusCreated, rec.Code)
}

func TestTexts_TypeErrorsReportEveryField(t *testing.T) {
	a := newAPI(t)
	token, _ := a.register("ana@x.com")

	rec, body := a.do(http.MethodPost, "/api/texts", token, map[string]any{"content": "short", "time": "5", "ideaId": 0})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "validation failed", body["message"])
	assert.Equal(t, map[string]any{
		"time":    "time must be an integer",
		"content": "content must be at least 10 characters",
		"ideaId":  "ideaId is required",
	}, body["errors"])

	rec, _ = a.do(http.MethodGet, "/api/texts?limit=101", token, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestTexts_OwnershipScenario(t *testing.T) {
	a := newAPI(t)
	admin := a.adminToken()
	tokenA, uidA := a.register("a@x.com")
	tokenB, _ := a.register("b@x.com")

	_, idea := a.do(http.MethodPost, "/api/ideas", admin, map[string]any{"title": "ab", "content": "cd"})
	ideaID := idea["id"]

	rec, text := a.do(http.MethodPost, "/api/texts", tokenA, map[string]any{
		"content": "0123456789", "time": 5, "ideaId": ideaID, "userId": 999,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.EqualValues(t, uidA, text["userId"], "owner comes from the token")
	textPath := "/api/texts/" + id(text)

	rec, _ = a.do(http.MethodGet, textPath, tokenB, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	rec, _ = a.do(http.MethodGet, textPath, tokenA, nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec, body := a.do(http.MethodPut, textPath, tokenA, map[string]any{"content": "a revised version", "time": 9, "ideaId": ideaID})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "a revised version", body["content"])
	rec, _ = a.do(http.MethodPut, textPath, tokenB, map[string]any{"content": "b tries to edit", "time": 1, "ideaId": ideaID})
	assert.Equal(t, http.StatusForbidden, rec.Code)
	rec, _ = a.do(http.MethodGet, textPath, tokenB, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec, body = a.do(http.MethodPost, "/api/texts", tokenA, map[string]any{"content": "short", "time": 0, "ideaId": 0})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Len(t, body["errors"], 3)

	rec, body = a.do(http.MethodPost, "/api/texts", tokenA, map[string]any{"content": "0123456789", "time": 1, "ideaId": 4242})
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "idea not found", body["message"])

	rec, body = a.do(http.MethodDelete, "/api/ideas/"+id(idea), admin, nil)
	assert.Equal(t, http.StatusConflict, rec.Code)
	rec, _ = a.do(http.MethodGet, "/api/ideas/"+id(idea), tokenA, nil)
	assert.Equal(t, http.StatusOK, rec.Code, "referenced idea survives")

	rec, body = a.do(http.MethodGet, "/api/texts?ideaId="+id(idea), tokenB, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.EqualValues(t, 0, body["total"], "listing is scoped to the caller")

	today := time.Now().UTC().Format("2006-01-02")
	rec, body = a.do(http.MethodGet, "/api/texts?startDate="+today+"&endDate="+today, tokenA, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.EqualValues(t, 1, body["total"])

	rec, _ = a.do(http.MethodGet, "/api/texts?page=zero", tokenA, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, _ = a.do(http.MethodDelete, textPath, tokenB, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	rec, body = a.do(http.MethodDelete, textPath, tokenA, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text deleted", body["message"])
	rec, _ = a.do(http.MethodGet, textPath, tokenA, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec, body = a.do(http.MethodDelete, "/api/ideas/"+id(idea), admin, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "idea deleted", body["message"])
}

func TestHealthzAndMetrics(t *testing.T) {
	a := newAPI(t)
	rec, _ := a.do(http.MethodGet, "/healthz", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())

	rec, _ = a.do(http.MethodGet, "/metrics", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `writing_http_requests_total{method="GET",path="/healthz",status="200"} 1`)

	require.NoError(t, a.db.Close())
	rec, _ = a.do(http.MethodGet, "/healthz", "", nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
