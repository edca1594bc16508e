// Package http serves the cost dashboard, its JSON views and ticket intake.
package http

import (
	"context"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"time"

	"costboard/internal/core"
	"costboard/internal/log"
	"costboard/internal/middleware/ratelimit"
	"costboard/internal/middleware/security"
	"costboard/internal/middleware/trace"
	appweb "costboard/web"
)

// DashboardSource yields every dashboard view from one fresh load.
type DashboardSource interface {
	Snapshot(ctx context.Context) (core.Dashboard, error)
}

// TicketSubmitter stores support tickets.
type TicketSubmitter interface {
	Submit(ctx context.Context, message string) (core.Ticket, error)
}

// Server wraps http.Server with the dashboard routes and middleware chain.
type Server struct {
	http.Server
	templates *template.Template
	dashboard DashboardSource
	tickets   TicketSubmitter
	ready     func(ctx context.Context) error
	logger    *log.Logger
	limiter   *ratelimit.Limiter
	detector  *security.Detector
	tracer    *trace.Middleware
	started   time.Time
	now       func() time.Time
}

type Option func(*Server)

// WithReadiness sets the dependency check behind /readyz.
func WithReadiness(check func(ctx context.Context) error) Option {
	return func(s *Server) { s.ready = check }
}

func WithLogger(l *log.Logger) Option {
	return func(s *Server) { s.logger = l }
}

// WithRateLimit overrides the ticket intake limiter configuration.
func WithRateLimit(cfg ratelimit.Config) Option {
	return func(s *Server) {
		if s.limiter != nil {
			s.limiter.Stop()
		}
		s.limiter = ratelimit.NewLimiter(cfg)
	}
}

// NewServer builds the handler tree. Templates and static files come from the embedded web FS.
func NewServer(addr string, dashboard DashboardSource, tickets TicketSubmitter, opts ...Option) (*Server, error) {
	tmpl, err := template.New("").Funcs(templateFuncs).ParseFS(appweb.TemplatesFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}
	static, err := fs.Sub(appweb.StaticFS, "static")
	if err != nil {
		return nil, fmt.Errorf("static fs: %w", err)
	}

	s := &Server{
		templates: tmpl,
		dashboard: dashboard,
		tickets:   tickets,
		logger:    log.Default(log.ComponentHTTP),
		started:   time.Now(),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.limiter == nil {
		s.limiter = ratelimit.NewLimiter(ratelimit.DefaultConfig())
	}
	s.detector = security.NewDetector(s.logger.WithComponent(log.ComponentSecurity))
	s.tracer = trace.NewMiddleware(s.logger, s.detector.ExtractClientIP)

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", s.handleHealth)
	mux.HandleFunc("/readyz", s.handleReady)
	mux.Handle("/static/", http.StripPrefix("/static/",
		security.StaticAssetMiddleware(3600)(http.FileServer(http.FS(static)))))

	mux.Handle("/api/daily-totals", security.NoStore(http.HandlerFunc(s.handleDailyTotals)))
	mux.Handle("/api/pivot", security.NoStore(http.HandlerFunc(s.handlePivot)))
	mux.Handle("/api/raw", security.NoStore(http.HandlerFunc(s.handleRaw)))
	mux.Handle("/tickets", s.limiter.Middleware(s.detector.ExtractClientIP, http.MethodPost)(http.HandlerFunc(s.handleCreateTicket)))
	mux.Handle("/", security.NoStore(http.HandlerFunc(s.handleDashboard)))

	var handler http.Handler = mux
	handler = log.Middleware(s.logger, trace.GetRequestID)(handler)
	handler = s.detector.Middleware(handler)
	handler = security.NewHeadersMiddleware(security.DefaultHeadersConfig()).Middleware(handler)
	handler = s.tracer.Middleware(handler)

	s.Server = http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return s, nil
}

// Shutdown stops accepting requests and releases the limiter.
func (s *Server) Shutdown(ctx context.Context) error {
	s.limiter.Stop()
	return s.Server.Shutdown(ctx)
}
