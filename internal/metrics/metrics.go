package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/jfmyers9/encore/pkg/resilient"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

// Observer records resilient call activity as Prometheus metrics.
// It implements resilient.Observer.
type Observer struct {
	attempts    *prometheus.CounterVec
	retries     *prometheus.CounterVec
	waitSeconds *prometheus.CounterVec
	results     *prometheus.CounterVec
}

// NewObserver registers the API call metrics with reg.
func NewObserver(reg prometheus.Registerer) *Observer {
	return &Observer{
		attempts: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "encore_api_attempts_total",
				Help: "API call attempts, including retries.",
			}, []string{"operation"},
		),
		retries: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "encore_api_retries_total",
				Help: "API call retries by failure category.",
			}, []string{"operation", "category"},
		),
		waitSeconds: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "encore_api_wait_seconds_total",
				Help: "Time spent waiting before retries.",
			}, []string{"operation", "category"},
		),
		results: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "encore_api_results_total",
				Help: "Finished API calls by outcome.",
			}, []string{"operation", "outcome"},
		),
	}
}

func (o *Observer) OnAttempt(operation string, _ int) {
	o.attempts.WithLabelValues(operation).Inc()
}

func (o *Observer) OnRetry(operation string, c resilient.Classification, wait time.Duration) {
	category := c.Category.String()
	o.retries.WithLabelValues(operation, category).Inc()
	o.waitSeconds.WithLabelValues(operation, category).Add(wait.Seconds())
}

func (o *Observer) OnResult(operation string, outcome resilient.Outcome, _ int) {
	o.results.WithLabelValues(operation, outcome.String()).Inc()
}

// Server exposes a registry on /metrics.
type Server struct {
	*http.Server
	logger zerolog.Logger
}

// NewServer returns a metrics server for reg listening on addr.
func NewServer(addr string, reg *prometheus.Registry, logger zerolog.Logger) *Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))

	return &Server{
		Server: &http.Server{
			Addr:              addr,
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		},
		logger: logger.With().Str("component", "metrics").Logger(),
	}
}

// Run serves until ctx is done, then shuts down.
func (s *Server) Run(ctx context.Context) {
	go func() {
		if err := s.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error().Err(err).Str("addr", s.Addr).Msg("Metrics server exited")
		}
	}()

	s.logger.Info().Str("addr", s.Addr).Msg("Started metrics server")

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := s.Shutdown(shutdownCtx); err != nil {
		s.logger.Error().Err(err).Msg("Error shutting down metrics server")
		return
	}

	s.logger.Info().Msg("Stopped metrics server")
}
