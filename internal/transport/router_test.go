package transport_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	domainagent "github.com/alanyang/agentflow/internal/domain/agent"
	"github.com/alanyang/agentflow/internal/domain/event"
	domainuser "github.com/alanyang/agentflow/internal/domain/user"
	"github.com/alanyang/agentflow/internal/metrics"
	"github.com/alanyang/agentflow/internal/mocks"
	agentsvc "github.com/alanyang/agentflow/internal/service/agent"
	authsvc "github.com/alanyang/agentflow/internal/service/auth"
	distsvc "github.com/alanyang/agentflow/internal/service/distribution"
	"github.com/alanyang/agentflow/internal/service/distributor"
	"github.com/alanyang/agentflow/internal/transport"
	authhandler "github.com/alanyang/agentflow/internal/transport/auth"
	mcptransport "github.com/alanyang/agentflow/internal/transport/mcp"
)

const allowedOrigin = "http://localhost:5173"

type fakePinger struct{ err error }

func (p fakePinger) Ping(context.Context) error { return p.err }

type fixture struct {
	router    *gin.Engine
	agentRepo *mocks.MockAgentRepository
	users     *mocks.MockUserRepository
	tokens    *mocks.MockTokenManager
}

func newFixture(t *testing.T, db transport.Pinger, staticDir string) fixture {
	t.Helper()
	ctrl := gomock.NewController(t)

	agentRepo := mocks.NewMockAgentRepository(ctrl)
	distRepo := mocks.NewMockDistributionRepository(ctrl)
	users := mocks.NewMockUserRepository(ctrl)
	hasher := mocks.NewMockPasswordHasher(ctrl)
	tokens := mocks.NewMockTokenManager(ctrl)
	bus := mocks.NewMockEventBus(ctrl)

	bus.EXPECT().Subscribe(gomock.Any(), event.ChannelAgent, gomock.Any()).Return(mocks.NewMockSubscription(ctrl), nil)
	bus.EXPECT().Subscribe(gomock.Any(), event.ChannelDistribution, gomock.Any()).Return(nil, errors.New("listen failed"))

	agentSvc := agentsvc.NewService(agentRepo, hasher, bus)
	distSvc := distsvc.NewService(
		distributor.NewService(mocks.NewMockRosterReader(ctrl)),
		distRepo, mocks.NewMockIdempotencyStore(ctrl), bus, distsvc.Limits{},
	)

	r := transport.NewRouter(context.Background(), transport.Deps{
		DB:             db,
		AuthSvc:        authsvc.NewService(users, hasher, tokens),
		AgentSvc:       agentSvc,
		DistSvc:        distSvc,
		MCP:            mcptransport.New(agentSvc, distSvc),
		Metrics:        metrics.New(),
		EventBus:       bus,
		Cookie:         authhandler.CookieOptions{TTL: time.Hour},
		CORSOrigins:    []string{allowedOrigin},
		MaxUploadBytes: 1 << 20,
		StaticDir:      staticDir,
	})
	return fixture{router: r, agentRepo: agentRepo, users: users, tokens: tokens}
}

func serve(r *gin.Engine, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func newRequest(method, path string) *http.Request {
	req, _ := http.NewRequestWithContext(context.Background(), method, path, nil)
	return req
}

func TestHealthz(t *testing.T) {
	f := newFixture(t, fakePinger{}, "")
	w := serve(f.router, newRequest(http.MethodGet, "/healthz"))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
}

func TestHealthz_DatabaseDown(t *testing.T) {
	f := newFixture(t, fakePinger{err: errors.New("connection refused")}, "")
	w := serve(f.router, newRequest(http.MethodGet, "/healthz"))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestMetricsEndpoint(t *testing.T) {
	f := newFixture(t, fakePinger{}, "")
	serve(f.router, newRequest(http.MethodGet, "/healthz"))

	w := serve(f.router, newRequest(http.MethodGet, "/metrics"))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "agentflow_http_request_duration_seconds")
}

func TestAdminRoutesRequireSession(t *testing.T) {
	f := newFixture(t, fakePinger{}, "")

	for _, tc := range []struct{ method, path string }{
		{http.MethodGet, "/api/agents"},
		{http.MethodPost, "/api/agents"},
		{http.MethodDelete, "/api/agents/" + uuid.NewString()},
		{http.MethodPost, "/api/upload"},
		{http.MethodGet, "/api/distributions"},
		{http.MethodGet, "/api/ws"},
		{http.MethodPost, "/mcp"},
	} {
		t.Run(tc.method+" "+tc.path, func(t *testing.T) {
			w := serve(f.router, newRequest(tc.method, tc.path))
			assert.Equal(t, http.StatusUnauthorized, w.Code)
			assert.JSONEq(t, `{"message":"Not authenticated"}`, w.Body.String())
		})
	}
}

func TestSetupRejectedOnceAdminExists(t *testing.T) {
	f := newFixture(t, fakePinger{}, "")
	f.users.EXPECT().AdminExists(gomock.Any()).Return(true, nil)

	req, _ := http.NewRequestWithContext(context.Background(), http.MethodPost, "/api/auth/setup",
		strings.NewReader(`{"email":"stranger@example.net","password":"letmein"}`))
	req.Header.Set("Content-Type", "application/json")
	w := serve(f.router, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.JSONEq(t, `{"message":"Admin already exists"}`, w.Body.String())
}

func TestAdminRoute_WithBearerToken(t *testing.T) {
	f := newFixture(t, fakePinger{}, "")
	admin := domainuser.NewAdmin("admin@example.com", "hash")

	f.tokens.EXPECT().Validate("good-token").Return(domainuser.Session{UserID: admin.ID, Email: admin.Email}, nil)
	f.users.EXPECT().GetByID(gomock.Any(), admin.ID).Return(admin, nil)
	f.agentRepo.EXPECT().List(gomock.Any()).Return([]domainagent.Agent{}, nil)

	req := newRequest(http.MethodGet, "/api/agents")
	req.Header.Set("Authorization", "Bearer good-token")
	w := serve(f.router, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"agents":[]}`, w.Body.String())
}

func TestCORS_AllowedOrigin(t *testing.T) {
	f := newFixture(t, fakePinger{}, "")

	req := newRequest(http.MethodOptions, "/api/agents")
	req.Header.Set("Origin", allowedOrigin)
	w := serve(f.router, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, allowedOrigin, w.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", w.Header().Get("Access-Control-Allow-Credentials"))
}

func TestCORS_ForeignOrigin(t *testing.T) {
	f := newFixture(t, fakePinger{}, "")

	req := newRequest(http.MethodOptions, "/api/agents")
	req.Header.Set("Origin", "https://evil.example")
	w := serve(f.router, req)

	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Credentials"))
}

func TestNoRoute_WithoutStaticDir(t *testing.T) {
	f := newFixture(t, fakePinger{}, "")
	w := serve(f.router, newRequest(http.MethodGet, "/dashboard"))
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.JSONEq(t, `{"message":"Route not found"}`, w.Body.String())
}

func TestStaticSPA(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "index.html"), []byte("<html>app</html>"), 0o600))
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "assets"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "assets", "app.js"), []byte("console.log(1)"), 0o600))

	f := newFixture(t, fakePinger{}, dir)

	t.Run("asset", func(t *testing.T) {
		w := serve(f.router, newRequest(http.MethodGet, "/assets/app.js"))
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "console.log(1)", w.Body.String())
	})

	t.Run("client route falls back to index", func(t *testing.T) {
		w := serve(f.router, newRequest(http.MethodGet, "/agents/123"))
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "app")
	})

	t.Run("unknown api path stays json", func(t *testing.T) {
		w := serve(f.router, newRequest(http.MethodGet, "/api/nope"))
		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.JSONEq(t, `{"message":"Route not found"}`, w.Body.String())
	})
}
