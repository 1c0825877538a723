package metrics

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/angelmondragon/gearhub-backend/pkg/logger"
)

// Server exposes /metrics and /health/live for the background workers, which
// have no API router of their own.
type Server struct {
	srv  *http.Server
	logg *logger.Logger
}

func NewServer(addr string, gatherer prometheus.Gatherer, logg *logger.Logger) *Server {
	if logg == nil {
		logg = logger.Nop()
	}
	r := chi.NewRouter()
	r.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	r.Get("/health/live", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	return &Server{
		srv:  &http.Server{Addr: addr, Handler: r, ReadHeaderTimeout: 5 * time.Second},
		logg: logg,
	}
}

func (s *Server) Handler() http.Handler { return s.srv.Handler }

// Start listens in the background until ctx ends. An empty or "off" address
// disables the server.
func (s *Server) Start(ctx context.Context) error {
	if s.srv.Addr == "" || s.srv.Addr == "off" {
		return nil
	}
	ln, err := net.Listen("tcp", s.srv.Addr)
	if err != nil {
		return err
	}
	go func() {
		if err := s.srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logg.Error(ctx, "metrics server stopped", err)
		}
	}()
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer cancel()
		_ = s.srv.Shutdown(shutdownCtx)
	}()
	s.logg.Info(s.logg.WithField(ctx, "addr", ln.Addr().String()), "metrics server listening")
	return nil
}
