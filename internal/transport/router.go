package transport

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/alanyang/agentflow/internal/domain/event"
	"github.com/alanyang/agentflow/internal/metrics"
	porteventbus "github.com/alanyang/agentflow/internal/port/eventbus"
	agentsvc "github.com/alanyang/agentflow/internal/service/agent"
	authsvc "github.com/alanyang/agentflow/internal/service/auth"
	distsvc "github.com/alanyang/agentflow/internal/service/distribution"

	agenthandler "github.com/alanyang/agentflow/internal/transport/agent"
	authhandler "github.com/alanyang/agentflow/internal/transport/auth"
	disthandler "github.com/alanyang/agentflow/internal/transport/distribution"
	mcptransport "github.com/alanyang/agentflow/internal/transport/mcp"
	"github.com/alanyang/agentflow/internal/transport/respond"
	uploadhandler "github.com/alanyang/agentflow/internal/transport/upload"
	wshandler "github.com/alanyang/agentflow/internal/transport/ws"
)

// Pinger reports whether the database is reachable. *pgxpool.Pool satisfies it.
type Pinger interface {
	Ping(ctx context.Context) error
}

type Deps struct {
	DB       Pinger
	AuthSvc  *authsvc.Service
	AgentSvc *agentsvc.Service
	DistSvc  *distsvc.Service
	MCP      *mcptransport.Server
	Metrics  *metrics.Metrics
	EventBus porteventbus.EventBus

	Cookie         authhandler.CookieOptions
	CORSOrigins    []string
	MaxUploadBytes int64
	// StaticDir, when set, is served at / with index.html as the fallback for
	// client-side routes.
	StaticDir string
}

func NewRouter(ctx context.Context, d Deps) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()

	r.Use(gin.Recovery())
	r.Use(RequestLogger())
	r.Use(CORSMiddleware(d.CORSOrigins))
	r.Use(d.Metrics.Middleware())

	r.GET("/healthz", healthz(d.DB))
	r.GET("/metrics", gin.WrapH(d.Metrics.Handler()))

	requireAdmin := authhandler.RequireAdmin(d.AuthSvc)

	api := r.Group("/api")
	authhandler.Register(api.Group("/auth"), d.AuthSvc, d.Cookie)
	agenthandler.Register(api.Group("/agents", requireAdmin), d.AgentSvc)
	uploadhandler.Register(api.Group("/upload", requireAdmin), d.DistSvc, d.MaxUploadBytes)
	disthandler.Register(api.Group("/distributions", requireAdmin), d.DistSvc)

	hub := wshandler.NewHub(d.CORSOrigins)
	hub.Register(api.Group("/ws"), requireAdmin)

	r.Any("/mcp", requireAdmin, gin.WrapH(d.MCP.Handler()))

	// Bridge: one subscription per domain channel. Every event is forwarded;
	// event.Type in the payload lets the dashboard decide what to refetch.
	for _, ch := range []event.Channel{
		event.ChannelAgent,
		event.ChannelDistribution,
	} {
		if _, err := d.EventBus.Subscribe(ctx, ch, func(_ context.Context, e event.Event) {
			hub.Broadcast(e)
		}); err != nil {
			slog.Error("failed to subscribe channel to WS hub", "channel", ch, "error", err)
		}
	}

	r.NoRoute(noRoute(d.StaticDir))

	return r
}

func healthz(db Pinger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := db.Ping(c.Request.Context()); err != nil {
			slog.ErrorContext(c.Request.Context(), "health check failed", "error", err)
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	}
}

// noRoute answers unknown API paths with JSON and, when a static directory is
// configured, serves the SPA for everything else.
func noRoute(staticDir string) gin.HandlerFunc {
	notFound := func(c *gin.Context) {
		respond.Message(c, http.StatusNotFound, "Route not found")
	}
	if staticDir == "" {
		return notFound
	}

	static := os.DirFS(staticDir)
	files := http.FileServer(http.FS(static))

	return func(c *gin.Context) {
		path := c.Request.URL.Path
		if strings.HasPrefix(path, "/api") || path == "/mcp" {
			notFound(c)
			return
		}

		if f, err := static.Open(strings.TrimPrefix(path, "/")); err == nil {
			_ = f.Close()
			files.ServeHTTP(c.Writer, c.Request)
			return
		}
		c.FileFromFS("/", http.FS(static))
	}
}
