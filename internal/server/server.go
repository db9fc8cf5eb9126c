// Package server provides the HTTP server for taskdata.
//
// The server wires the router, middleware, and connection limiting
// around the request handlers and owns startup and graceful shutdown.
package server

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"golang.org/x/net/netutil"
	"golang.org/x/sync/errgroup"

	"github.com/eeglab/taskdata/internal/handler"
	"github.com/eeglab/taskdata/internal/logging"
)

var log = logging.Component("server")

// Config configures the server.
type Config struct {
	// Listen is the host:port listen address.
	Listen string

	// Threads caps the number of concurrently served connections.
	// Zero means no cap.
	Threads int

	// CORSOrigins lists the allowed CORS origins. Empty allows any
	// origin; recording tasks run in browsers on arbitrary hosts.
	CORSOrigins []string

	// RateLimit is requests per client IP per RateWindow. Zero
	// disables rate limiting.
	RateLimit  int
	RateWindow time.Duration

	// ShutdownTimeout bounds how long in-flight requests get to finish.
	ShutdownTimeout time.Duration

	// Handler supplies the routes.
	Handler *handler.Handler
}

// Server is the taskdata HTTP server.
type Server struct {
	cfg  *Config
	http *http.Server
	log  *slog.Logger
}

// New creates a server.
func New(cfg *Config) *Server {
	r := chi.NewRouter()

	r.Use(middleware.RealIP)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)

	origins := cfg.CORSOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	if cfg.RateLimit > 0 {
		window := cfg.RateWindow
		if window <= 0 {
			window = time.Minute
		}
		r.Use(httprate.LimitByIP(cfg.RateLimit, window))
	}

	cfg.Handler.Routes(r)

	return &Server{
		cfg: cfg,
		http: &http.Server{
			Addr:              cfg.Listen,
			Handler:           r,
			ReadHeaderTimeout: 10 * time.Second,
		},
		log: log,
	}
}

// Run starts the server and blocks until ctx is canceled or the
// listener fails. In-flight requests get ShutdownTimeout to finish
// once ctx is canceled.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.Listen)
	if err != nil {
		return err
	}
	if s.cfg.Threads > 0 {
		ln = netutil.LimitListener(ln, s.cfg.Threads)
	}

	s.log.Info("listening", "addr", s.cfg.Listen, "threads", s.cfg.Threads)

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if err := s.http.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		s.log.Info("shutting down")

		timeout := s.cfg.ShutdownTimeout
		if timeout <= 0 {
			timeout = 10 * time.Second
		}
		shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()

		return s.http.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

// requestLogger logs one line per completed request.
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		log.Info("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"remote", r.RemoteAddr,
			"duration", time.Since(start))
	})
}
