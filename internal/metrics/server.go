package metrics

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

// shutdownTimeout bounds how long the debug server waits for in-flight
// requests to finish when the supervisor tree tears it down.
const shutdownTimeout = 5 * time.Second

// Server is the localhost-only debug HTTP surface (§6): /metrics for
// Prometheus scraping, /healthz for a liveness probe. It is deliberately
// not part of the UI-facing command/event transport — nothing but an
// operator's scrape job or a local curl talks to it.
//
// Wrapping http.Server as a suture.Service this way is grounded on the
// teacher's HTTPServerService: start ListenAndServe in a goroutine, select
// on context cancellation vs. a server error, call Shutdown with a bounded
// timeout on the way out.
type Server struct {
	server *http.Server
	log    zerolog.Logger
}

// NewServer builds the debug mux, locked to loopback origins via cors and
// rate-limited via httprate the same way the teacher locks down its own
// HTTP surface, scoped down to two routes instead of a full API.
func NewServer(addr string, log zerolog.Logger) *Server {
	log = log.With().Str("component", "metrics-http").Logger()

	r := chi.NewRouter()
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:*", "http://127.0.0.1:*"},
		AllowedMethods:   []string{http.MethodGet},
		AllowCredentials: false,
	}))
	r.Use(httprate.LimitByIP(60, time.Minute))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Handle("/metrics", promhttp.Handler())

	return &Server{
		server: &http.Server{
			Addr:              addr,
			Handler:           r,
			ReadHeaderTimeout: 5 * time.Second,
		},
		log: log,
	}
}

// Serve implements suture.Service.
func (s *Server) Serve(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("metrics server failed: %w", err)
		}
		return nil

	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err := s.server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("metrics server shutdown failed: %w", err)
		}
		<-errCh
		return ctx.Err()
	}
}

// String implements fmt.Stringer; suture uses it to name the service in
// its own logs.
func (s *Server) String() string {
	return "metrics-http"
}
