package router

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"compliance_backend/internal/events"
	apphttp "compliance_backend/internal/http"
	"compliance_backend/platform/httpkit"
	"compliance_backend/platform/logger"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "router-test-secret"

type testConfig struct{}

func (testConfig) GetHTTPAddr() string        { return ":0" }
func (testConfig) GetCORSAllowAll() bool      { return false }
func (testConfig) GetCORSOrigins() []string   { return []string{"http://localhost:4200"} }
func (testConfig) GetCORSAllowCreds() bool    { return true }
func (testConfig) GetJWTAccessSecret() string { return testSecret }

type pingModule struct{}

func (pingModule) Name() string { return "ping" }

func (pingModule) RegisterRoutes(ctx *apphttp.RouterContext) {
	handler := func(c *gin.Context) {
		_, tenantID, ok := httpkit.MustGetActor(c)
		if !ok {
			return
		}
		httpkit.OK(c, gin.H{"tenant": tenantID})
	}
	ctx.Protected.GET("/ping", handler)
	ctx.Admin.GET("/ping", handler)
}

type pinger struct{ err error }

func (p pinger) Ping(context.Context) error { return p.err }

func newEngine(health apphttp.HealthChecker) *gin.Engine {
	gin.SetMode(gin.TestMode)
	return New(&apphttp.App{
		Config:  testConfig{},
		Logger:  logger.NewNop(),
		Health:  health,
		Modules: []apphttp.Module{pingModule{}},
	})
}

func token(t *testing.T, roles ...string) string {
	t.Helper()
	claims := jwt.MapClaims{
		"sub":       uuid.NewString(),
		"tenant_id": uuid.NewString(),
		"roles":     roles,
		"type":      "access",
		"exp":       time.Now().Add(time.Hour).Unix(),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	require.NoError(t, err)
	return signed
}

func do(engine *gin.Engine, path, bearer string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, req)
	return rec
}

func TestHealth(t *testing.T) {
	rec := do(newEngine(pinger{}), "/api/health", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))

	rec = do(newEngine(pinger{err: errors.New("db down")}), "/api/health", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	engine := newEngine(nil)

	assert.Equal(t, http.StatusUnauthorized, do(engine, "/api/v1/ping", "").Code)
	assert.Equal(t, http.StatusUnauthorized, do(engine, "/api/v1/ping", "not-a-jwt").Code)
	assert.Equal(t, http.StatusOK, do(engine, "/api/v1/ping", token(t, "technician")).Code)
}

func TestAdminRoutesRequireRole(t *testing.T) {
	engine := newEngine(nil)

	assert.Equal(t, http.StatusForbidden, do(engine, "/api/v1/admin/ping", token(t, "technician")).Code)
	assert.Equal(t, http.StatusOK, do(engine, "/api/v1/admin/ping", token(t, httpkit.RoleAdmin)).Code)
}

func TestMetricsEndpoint(t *testing.T) {
	engine := newEngine(nil)
	do(engine, "/api/health", "")

	rec := do(engine, "/metrics", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "compliance_http_requests_total")
}

type listeningModule struct {
	subscribed *events.InMemoryBus
}

func (m *listeningModule) Name() string { return "listening" }

func (m *listeningModule) RegisterRoutes(*apphttp.RouterContext) {}

func (m *listeningModule) RegisterHandlers(bus events.Bus) {
	m.subscribed, _ = bus.(*events.InMemoryBus)
}

func TestNewSubscribesListeningModules(t *testing.T) {
	gin.SetMode(gin.TestMode)
	bus := events.NewInMemoryBus(logger.NewNop())
	listener := &listeningModule{}

	New(&apphttp.App{
		Config:   testConfig{},
		Logger:   logger.NewNop(),
		EventBus: bus,
		Modules:  []apphttp.Module{pingModule{}, listener},
	})

	assert.Same(t, bus, listener.subscribed)
}
