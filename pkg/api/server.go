package api

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/platinummonkey/fleetgate/pkg/audit"
	"github.com/platinummonkey/fleetgate/pkg/auth"
	"github.com/platinummonkey/fleetgate/pkg/edge"
	"github.com/platinummonkey/fleetgate/pkg/httputil"
	"github.com/platinummonkey/fleetgate/pkg/middleware"
	"github.com/platinummonkey/fleetgate/pkg/observability"
	"github.com/platinummonkey/fleetgate/pkg/resolver"
)

// Server is the fleet API server.
type Server struct {
	router     *mux.Router
	dispatcher *resolver.Dispatcher
	logger     *observability.Logger
	metrics    *observability.Metrics
	handler    http.Handler
}

// Options configures the middleware chain around the server.
type Options struct {
	// Verifier authenticates bearer tokens. Required.
	Verifier auth.ClaimsVerifier
	// EdgeFilter, when set, gates requests ahead of authentication the
	// same way the CDN edge does in production.
	EdgeFilter *edge.Filter
	// RateLimit, when set, throttles requests per tenant.
	RateLimit *middleware.RateLimitConfig
	// Audit receives edge rejection and token failure events. May be nil.
	Audit audit.Sink
	// Logger and Metrics may be nil.
	Logger  *observability.Logger
	Metrics *observability.Metrics
}

// NewServer creates the API server with its full middleware chain:
// request ID, optional edge filter, authentication, then per-tenant rate
// limiting.
func NewServer(dispatcher *resolver.Dispatcher, opts Options) (*Server, error) {
	s := &Server{
		router:     mux.NewRouter(),
		dispatcher: dispatcher,
		logger:     opts.Logger,
		metrics:    opts.Metrics,
	}
	s.setupRoutes()

	authMW, err := middleware.NewAuthMiddleware(opts.Verifier, opts.Audit)
	if err != nil {
		return nil, err
	}

	var handler http.Handler = s.router
	handler = middleware.NewRateLimiter(opts.RateLimit).Handler(handler)
	handler = authMW.Handler(handler)
	if opts.EdgeFilter != nil {
		handler = edge.NewMiddleware(opts.EdgeFilter, opts.Logger, opts.Metrics, opts.Audit).Handler(handler)
	}
	if opts.Metrics != nil {
		handler = opts.Metrics.InstrumentHandler("/", handler)
	}
	handler = middleware.RequestID(handler)
	s.handler = handler

	return s, nil
}

func (s *Server) setupRoutes() {
	s.router.HandleFunc("/tenants/{tenant_id}/robots/{robot_id}", s.getRobot).Methods("GET")
	s.router.HandleFunc("/tenants/{tenant_id}/robots/{robot_id}/status", s.updateRobotStatus).Methods("PUT")
	s.router.HandleFunc("/api/v1/dispatch", s.dispatch).Methods("POST")

	s.router.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		httputil.WriteNotFound(w, "route not found")
	})
}

// ServeHTTP implements http.Handler, running the full middleware chain.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.handler.ServeHTTP(w, r)
}
