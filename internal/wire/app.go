package wire

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	pgdb "github.com/alanyang/agentflow/internal/adapter/postgres"
	pgagent "github.com/alanyang/agentflow/internal/adapter/postgres/agent"
	pgdist "github.com/alanyang/agentflow/internal/adapter/postgres/distribution"
	pgeventbus "github.com/alanyang/agentflow/internal/adapter/postgres/eventbus"
	pgidem "github.com/alanyang/agentflow/internal/adapter/postgres/idempotency"
	pguser "github.com/alanyang/agentflow/internal/adapter/postgres/user"
	"github.com/alanyang/agentflow/internal/adapter/security"
	"github.com/alanyang/agentflow/internal/config"
	"github.com/alanyang/agentflow/internal/metrics"

	agentsvc "github.com/alanyang/agentflow/internal/service/agent"
	authsvc "github.com/alanyang/agentflow/internal/service/auth"
	distsvc "github.com/alanyang/agentflow/internal/service/distribution"
	"github.com/alanyang/agentflow/internal/service/distributor"

	"github.com/alanyang/agentflow/internal/transport"
	authhandler "github.com/alanyang/agentflow/internal/transport/auth"
	mcptransport "github.com/alanyang/agentflow/internal/transport/mcp"
)

// App holds the top-level resources needed to run and gracefully stop the server.
type App struct {
	Pool   *pgxpool.Pool
	Server *http.Server
	Events *pgeventbus.Bus
}

// Close stops the event listeners before closing the pool they borrow from.
func (a *App) Close() {
	a.Events.Close()
	a.Pool.Close()
}

// Build is the composition root: the only place concrete types are wired to their
// interface dependencies. The schema is migrated before anything is served.
func Build(ctx context.Context, cfg config.Config) (*App, error) {
	// ── Database ─────────────────────────────────────────────────────────────
	pool, err := pgdb.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("connecting to database: %w", err)
	}
	if err := pgdb.Migrate(ctx, pool); err != nil {
		pool.Close()
		return nil, fmt.Errorf("migrating database: %w", err)
	}

	// ── Adapters ─────────────────────────────────────────────────────────────
	agentRepo := pgagent.New(pool)
	distRepo := pgdist.New(pool)
	userRepo := pguser.New(pool)
	idemStore := pgidem.New(pool)
	eventBus := pgeventbus.New(pool)
	hasher := security.NewBcryptHasher(cfg.BcryptCost)
	tokens := security.NewJWTManager(cfg.JWTSecret, cfg.JWTTTL)
	m := metrics.New()

	// ── Services ─────────────────────────────────────────────────────────────

	// The distributor reads the roster in round-robin order.
	dist := distributor.NewService(agentRepo)

	authSvcInstance := authsvc.NewService(userRepo, hasher, tokens)
	agentSvcInstance := agentsvc.NewService(agentRepo, hasher, eventBus)
	distSvcInstance := distsvc.NewService(
		dist,
		distRepo,
		idemStore,
		eventBus,
		distsvc.Limits{MaxRecords: cfg.MaxUploadRecords},
		distsvc.WithRecorder(m),
	)

	mcpServer := mcptransport.New(agentSvcInstance, distSvcInstance)

	// ── Transport ─────────────────────────────────────────────────────────────
	router := transport.NewRouter(ctx, transport.Deps{
		DB:             pool,
		AuthSvc:        authSvcInstance,
		AgentSvc:       agentSvcInstance,
		DistSvc:        distSvcInstance,
		MCP:            mcpServer,
		Metrics:        m,
		EventBus:       eventBus,
		Cookie:         authhandler.CookieOptions{Secure: cfg.CookieSecure, TTL: cfg.JWTTTL},
		CORSOrigins:    cfg.CORSOrigins,
		MaxUploadBytes: cfg.MaxUploadBytes,
		StaticDir:      cfg.StaticDir,
	})

	server := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	slog.Info("application wired", "port", cfg.Port, "static_dir", cfg.StaticDir)

	return &App{Pool: pool, Server: server, Events: eventBus}, nil
}
