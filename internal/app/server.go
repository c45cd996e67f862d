package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/MrWong99/deskscribe/internal/health"
	"github.com/MrWong99/deskscribe/internal/observe"
)

// shutdownTimeout bounds the graceful stop of the status listener.
const shutdownTimeout = 5 * time.Second

// statusServer serves /healthz, /readyz and /metrics.
type statusServer struct {
	addr    string
	handler http.Handler
}

func newStatusServer(addr string, m *observe.Metrics, checks []health.Checker) *statusServer {
	return &statusServer{
		addr:    addr,
		handler: newStatusHandler(m, prometheus.DefaultGatherer, checks),
	}
}

// newStatusHandler builds the status mux wrapped in the observe middleware.
func newStatusHandler(m *observe.Metrics, g prometheus.Gatherer, checks []health.Checker) http.Handler {
	mux := http.NewServeMux()
	health.New(checks...).Register(mux)
	mux.Handle("GET /metrics", promhttp.HandlerFor(g, promhttp.HandlerOpts{}))
	return observe.Middleware(m)(mux)
}

// serve listens until ctx is done, then shuts down gracefully. It returns nil
// after a clean shutdown.
func (s *statusServer) serve(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("app: status listener: %w", err)
	}
	srv := &http.Server{
		Handler:           s.handler,
		ReadHeaderTimeout: 5 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Serve(ln) }()
	slog.Info("status listener started", "addr", ln.Addr().String())

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("app: status listener: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Warn("status listener shutdown", "err", err)
	}
	return nil
}

// readinessChecks returns the /readyz checkers. Audio is not one of them.
func (a *App) readinessChecks() []health.Checker {
	return []health.Checker{
		health.DirWritable("output_dir", a.cfg.Capture.OutputDir),
		{
			Name: "vision",
			Check: func(context.Context) error {
				if p, _, _ := a.snapshot(); p == nil {
					return errors.New("no vision provider configured")
				}
				return nil
			},
		},
		health.Fresh("loop", a.LastIteration, 3*a.Interval()+time.Minute, a.Interval()+5*time.Minute),
	}
}
