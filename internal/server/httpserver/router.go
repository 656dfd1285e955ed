package httpserver

import (
	"log/slog"
	"net/http"

	"github.com/yndnr/kvsession/internal/core/session"
	"github.com/yndnr/kvsession/internal/server/httpserver/handler"
	"github.com/yndnr/kvsession/internal/storage"
	"github.com/yndnr/kvsession/internal/telemetry/metric"
)

// RouterConfig holds configuration for the HTTP router.
type RouterConfig struct {
	// Manager runs the session middleware and operations.
	Manager *session.Manager

	// Store is attached to every application request.
	Store storage.Store

	// Logger for request logging.
	Logger *slog.Logger

	// Metrics, when set, observes requests and serves MetricsPath.
	Metrics     *metric.Registry
	MetricsPath string

	// RateLimit is the per-IP limit in requests/second; 0 disables it.
	RateLimit int

	// CORSAllowedOrigins lists origins allowed to send credentialed
	// requests. Empty disables CORS headers.
	CORSAllowedOrigins []string

	// HandlerOptions are passed to handler.New.
	HandlerOptions []handler.Option
}

// NewRouter creates and configures the HTTP router with all routes and middleware.
func NewRouter(cfg *RouterConfig) http.Handler {
	h := handler.New(cfg.Manager, cfg.Store, cfg.Logger, cfg.HandlerOptions...)

	// Order: Recover -> RequestID -> RateLimit -> Audit -> route
	common := []Middleware{Recover(cfg.Logger), RequestID()}
	if cfg.RateLimit > 0 {
		common = append(common, RateLimit(cfg.RateLimit))
	}
	var obs RequestObserver
	if cfg.Metrics != nil {
		obs = cfg.Metrics
	}
	common = append(common, Audit(cfg.Logger, obs))

	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", h.HandleHealth)

	if cfg.Metrics != nil {
		path := cfg.MetricsPath
		if path == "" {
			path = "/metrics"
		}
		mux.Handle("GET "+path, cfg.Metrics.Handler())
	}

	app := []Middleware{}
	if len(cfg.CORSAllowedOrigins) > 0 {
		app = append(app, CORS(cfg.CORSAllowedOrigins))
	}
	app = append(app, storage.Middleware(cfg.Store), cfg.Manager.Middleware)
	mux.Handle("/", Chain(h, app...))

	return Chain(mux, common...)
}
