// Package server exposes the query API over HTTP and a gRPC endpoint
// carrying the standard health and reflection services. The read path
// is fully decoupled from the core: every handler goes through
// query.Service against Postgres, never the in-memory store.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"MarketGraph/internal/observability"
	"MarketGraph/internal/query"
)

// HTTPServer serves the JSON query API plus health probes and the
// Prometheus scrape endpoint.
type HTTPServer struct {
	addr    string
	svc     *query.Service
	health  *observability.HealthChecker
	metrics *observability.Metrics
	log     zerolog.Logger

	srv *http.Server
}

func NewHTTPServer(
	addr string,
	svc *query.Service,
	health *observability.HealthChecker,
	metrics *observability.Metrics,
	log zerolog.Logger,
) *HTTPServer {
	return &HTTPServer{
		addr:    addr,
		svc:     svc,
		health:  health,
		metrics: metrics,
		log:     log.With().Str("component", "http_server").Logger(),
	}
}

// Start runs the HTTP server until ctx is cancelled, then shuts it
// down gracefully.
func (s *HTTPServer) Start(ctx context.Context) error {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /v1/entities/{kind}", s.handleListEntities)
	mux.HandleFunc("GET /v1/entities/{kind}/{key}", s.handleGetEntity)
	mux.HandleFunc("GET /v1/markets/{id}", s.handleMarketDetail)
	mux.HandleFunc("GET /v1/markets/{id}/predictions", s.handleMarketPredictions)
	mux.HandleFunc("GET /v1/users/{id}/markets", s.handleUserMarkets)
	mux.HandleFunc("GET /v1/rollups/{kind}", s.handleRollupSeries)
	mux.HandleFunc("GET /v1/integrity", s.handleIntegrity)

	mux.HandleFunc("GET /healthz", s.health.LivenessHandler)
	mux.HandleFunc("GET /readyz", s.health.ReadinessHandler)
	mux.Handle("GET /metrics", promhttp.Handler())

	s.srv = &http.Server{
		Addr:         s.addr,
		Handler:      mux,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	errChan := make(chan error, 1)
	go func() {
		s.log.Info().Str("addr", s.addr).Msg("http server listening")
		if err := s.srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errChan <- err
		}
	}()

	select {
	case err := <-errChan:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return s.srv.Shutdown(shutdownCtx)
	}
}

func (s *HTTPServer) handleGetEntity(w http.ResponseWriter, r *http.Request) {
	s.serve(w, r, "get_entity", func(ctx context.Context) (interface{}, error) {
		return s.svc.GetEntity(ctx, r.PathValue("kind"), r.PathValue("key"))
	})
}

func (s *HTTPServer) handleListEntities(w http.ResponseWriter, r *http.Request) {
	s.serve(w, r, "list_entities", func(ctx context.Context) (interface{}, error) {
		return s.svc.ListEntities(ctx, r.PathValue("kind"), limitParam(r), r.URL.Query().Get("after_key"))
	})
}

func (s *HTTPServer) handleMarketDetail(w http.ResponseWriter, r *http.Request) {
	s.serve(w, r, "market_detail", func(ctx context.Context) (interface{}, error) {
		return s.svc.GetMarketDetail(ctx, r.PathValue("id"))
	})
}

func (s *HTTPServer) handleMarketPredictions(w http.ResponseWriter, r *http.Request) {
	s.serve(w, r, "market_predictions", func(ctx context.Context) (interface{}, error) {
		return s.svc.GetMarketPredictions(ctx, r.PathValue("id"), limitParam(r), r.URL.Query().Get("after_key"))
	})
}

func (s *HTTPServer) handleUserMarkets(w http.ResponseWriter, r *http.Request) {
	s.serve(w, r, "user_markets", func(ctx context.Context) (interface{}, error) {
		return s.svc.GetUserMarkets(ctx, r.PathValue("id"), limitParam(r))
	})
}

func (s *HTTPServer) handleRollupSeries(w http.ResponseWriter, r *http.Request) {
	s.serve(w, r, "rollup_series", func(ctx context.Context) (interface{}, error) {
		q := r.URL.Query()
		return s.svc.GetRollupSeries(ctx,
			r.PathValue("kind"), q.Get("parent"),
			int64Param(r, "from"), int64Param(r, "to"),
			limitParam(r))
	})
}

func (s *HTTPServer) handleIntegrity(w http.ResponseWriter, r *http.Request) {
	s.serve(w, r, "integrity", func(ctx context.Context) (interface{}, error) {
		return s.svc.VerifyIntegrity(ctx)
	})
}

// serve wraps one query endpoint: timeout, metrics, error mapping,
// JSON encoding.
func (s *HTTPServer) serve(w http.ResponseWriter, r *http.Request, endpoint string, fn func(ctx context.Context) (interface{}, error)) {
	start := time.Now()
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	resp, err := fn(ctx)

	if s.metrics != nil {
		s.metrics.QueryDuration.WithLabelValues(endpoint).Observe(time.Since(start).Seconds())
	}

	if err != nil {
		s.writeError(w, endpoint, err)
		return
	}

	if s.metrics != nil {
		s.metrics.QueryRequests.WithLabelValues(endpoint, "ok").Inc()
	}
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		s.log.Warn().Err(err).Str("endpoint", endpoint).Msg("response encode failed")
	}
}

func (s *HTTPServer) writeError(w http.ResponseWriter, endpoint string, err error) {
	status := http.StatusInternalServerError
	code := "internal"

	switch {
	case errors.Is(err, query.ErrNotFound):
		status = http.StatusNotFound
		code = "not_found"
	case errors.Is(err, context.DeadlineExceeded):
		status = http.StatusGatewayTimeout
		code = "timeout"
	}

	if s.metrics != nil {
		s.metrics.QueryRequests.WithLabelValues(endpoint, "error").Inc()
		s.metrics.QueryErrors.WithLabelValues(endpoint, code).Inc()
	}
	if status == http.StatusInternalServerError {
		s.log.Error().Err(err).Str("endpoint", endpoint).Msg("query failed")
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": code})
}

func limitParam(r *http.Request) int {
	v := r.URL.Query().Get("limit")
	if v == "" {
		return 0
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0
	}
	return n
}

func int64Param(r *http.Request, name string) int64 {
	v := r.URL.Query().Get(name)
	if v == "" {
		return 0
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return 0
	}
	return n
}
