package core

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// RouteRegistrar is implemented by every HTTP handler module.
type RouteRegistrar interface {
	RegisterRoutes(r chi.Router)
}

// Starter and Stopper are detected on lifecycle components.
type Starter interface {
	Start(ctx context.Context) error
}

type Stopper interface {
	Stop(ctx context.Context) error
}

// LifecycleHooks adapts plain functions into a lifecycle component.
type LifecycleHooks struct {
	OnStart func(ctx context.Context) error
	OnStop  func(ctx context.Context) error
}

func (h LifecycleHooks) Start(ctx context.Context) error {
	if h.OnStart == nil {
		return nil
	}
	return h.OnStart(ctx)
}

func (h LifecycleHooks) Stop(ctx context.Context) error {
	if h.OnStop == nil {
		return nil
	}
	return h.OnStop(ctx)
}

type Option func(*Micro)

// Micro runs one HTTP service plus its lifecycle components.
type Micro struct {
	config       *Config
	logger       Logger
	middleware   []func(http.Handler) http.Handler
	portKey      string
	modules      []RouteRegistrar
	lifecycle    []interface{}
	healthName   string
	shutdownWait time.Duration
	server       *http.Server
}

func WithConfig(cfg *Config) Option {
	return func(m *Micro) { m.config = cfg }
}

func WithLogger(logger Logger) Option {
	return func(m *Micro) { m.logger = logger }
}

func WithHTTPMiddleware(mw ...func(http.Handler) http.Handler) Option {
	return func(m *Micro) { m.middleware = append(m.middleware, mw...) }
}

// WithHTTPServerModules mounts modules on a server listening on the address
// stored under portKey.
func WithHTTPServerModules(portKey string, modules ...RouteRegistrar) Option {
	return func(m *Micro) {
		m.portKey = portKey
		m.modules = append(m.modules, modules...)
	}
}

func WithLifecycle(components ...interface{}) Option {
	return func(m *Micro) { m.lifecycle = append(m.lifecycle, components...) }
}

// WithHealthChecks exposes GET /healthz and GET /readyz.
func WithHealthChecks(name string) Option {
	return func(m *Micro) { m.healthName = name }
}

func NewMicro(opts ...Option) *Micro {
	m := &Micro{
		portKey:      "web.port",
		shutdownWait: 10 * time.Second,
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.logger == nil {
		m.logger = NewNoopLogger()
	}
	if m.config == nil {
		m.config = NewConfig()
	}
	return m
}

// Router builds the chi router with middleware, modules and health routes.
func (m *Micro) Router() chi.Router {
	r := chi.NewRouter()
	r.Use(m.middleware...)

	if m.healthName != "" {
		r.Get("/healthz", m.health)
		r.Get("/readyz", m.health)
	}

	for _, mod := range m.modules {
		mod.RegisterRoutes(r)
	}
	return r
}

func (m *Micro) health(w http.ResponseWriter, r *http.Request) {
	RespondSuccess(w, map[string]string{"service": m.healthName, "status": "ok"})
}

// Run starts lifecycle components in order, serves HTTP until ctx is done,
// then shuts down and stops components in reverse order.
func (m *Micro) Run(ctx context.Context) error {
	started := make([]interface{}, 0, len(m.lifecycle))
	for _, c := range m.lifecycle {
		if s, ok := c.(Starter); ok {
			if err := s.Start(ctx); err != nil {
				m.stopAll(started)
				return fmt.Errorf("cannot start component: %w", err)
			}
		}
		started = append(started, c)
	}

	addr := m.config.GetStringOrDef(m.portKey, ":8080")
	m.server = &http.Server{
		Addr:              addr,
		Handler:           m.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		m.logger.Infof("HTTP server listening on %s", addr)
		if err := m.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	var runErr error
	select {
	case <-ctx.Done():
	case err := <-errCh:
		runErr = err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), m.shutdownWait)
	defer cancel()
	if err := m.server.Shutdown(shutdownCtx); err != nil {
		m.logger.Error("HTTP server shutdown failed", "error", err)
	}

	m.stopAll(started)
	return runErr
}

func (m *Micro) stopAll(components []interface{}) {
	ctx, cancel := context.WithTimeout(context.Background(), m.shutdownWait)
	defer cancel()
	for i := len(components) - 1; i >= 0; i-- {
		if s, ok := components[i].(Stopper); ok {
			if err := s.Stop(ctx); err != nil {
				m.logger.Error("component stop failed", "error", err)
			}
		}
	}
}

// StackOptions tunes DefaultStack.
type StackOptions struct {
	Logger         Logger
	RequestTimeout time.Duration
}

// DefaultStack is the middleware chain shared by every service.
func DefaultStack(opts StackOptions) []func(http.Handler) http.Handler {
	timeout := opts.RequestTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	logger := opts.Logger
	if logger == nil {
		logger = NewNoopLogger()
	}
	return []func(http.Handler) http.Handler{
		middleware.RequestID,
		middleware.RealIP,
		requestLogger(logger),
		middleware.Recoverer,
		middleware.Timeout(timeout),
	}
}

func requestLogger(logger Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)
			logger.Debug("request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"duration", time.Since(start),
				"request_id", middleware.GetReqID(r.Context()),
			)
		})
	}
}

// RequestLogger returns logger scoped to the request id.
func RequestLogger(logger Logger, r *http.Request) Logger {
	if reqID := middleware.GetReqID(r.Context()); reqID != "" {
		return logger.With("request_id", reqID)
	}
	return logger
}
