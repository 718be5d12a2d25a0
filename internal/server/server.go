package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/neox5/meterbox/internal/ingest"
	"github.com/neox5/meterbox/internal/metric"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Server provides the HTTP ingestion and scrape endpoints.
type Server struct {
	addr   string
	path   string
	server *http.Server
	mux    *http.ServeMux
}

// Options configures a Server.
type Options struct {
	Addr            string
	MetricsPath     string
	InternalMetrics bool
}

// route pairs a mux pattern with its handler.
type route struct {
	pattern string
	handler http.Handler
}

// New creates a new HTTP server.
func New(opts Options, svc *ingest.Service, registry *metric.Registry) *Server {
	mux := http.NewServeMux()

	routes := []route{
		{"POST /meterreading", handle(svc.RecordMeterReading, "Reading recorded")},
		{"POST /building/meterreading", handle(svc.RecordBuildingMeterReading, "Reading recorded")},
		{"POST /tanklevel", handle(svc.RecordTankLevel, "Tank level recorded")},
		{"POST /tankvolume", handle(svc.RecordTankVolume, "Tank volume and added consumption recorded")},
		{"POST /htPanelMeterReading", handle(svc.RecordHTPanelMeterReading, "Reading recorded")},
	}

	metricsHandler := registry.Handler()

	if opts.InternalMetrics {
		requests := prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "meterbox_http_requests_total",
			Help: "Total number of ingestion requests by handler and status code",
		}, []string{"handler", "code", "method"})
		registry.Registerer().MustRegister(requests)

		for i, rt := range routes {
			routes[i].handler = promhttp.InstrumentHandlerCounter(
				requests.MustCurryWith(prometheus.Labels{"handler": rt.pattern}),
				rt.handler,
			)
		}
		metricsHandler = promhttp.InstrumentMetricHandler(registry.Registerer(), metricsHandler)

		slog.Info("enabled internal metrics",
			"metrics", []string{
				"meterbox_http_requests_total",
				"promhttp_metric_handler_requests_total",
				"promhttp_metric_handler_requests_in_flight",
			})
	}

	for _, rt := range routes {
		mux.Handle(rt.pattern, rt.handler)
	}
	mux.Handle("GET "+opts.MetricsPath, loggingMiddleware(metricsHandler))

	return &Server{
		addr: opts.Addr,
		path: opts.MetricsPath,
		mux:  mux,
		server: &http.Server{
			Addr:              opts.Addr,
			Handler:           recoverMiddleware(mux),
			ReadHeaderTimeout: 10 * time.Second,
		},
	}
}

// Handler returns the root handler.
func (s *Server) Handler() http.Handler {
	return s.server.Handler
}

// Start begins serving HTTP requests.
func (s *Server) Start(ctx context.Context) error {
	errChan := make(chan error, 1)

	go func() {
		slog.Info("starting server", "addr", s.addr, "path", s.path)
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errChan <- err
		}
	}()

	select {
	case err := <-errChan:
		return err
	case <-ctx.Done():
		return s.shutdown()
	}
}

// shutdown gracefully stops the server.
func (s *Server) shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	slog.Info("shutting down server")
	return s.server.Shutdown(ctx)
}

// writeError maps an ingestion error to a status code.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	var verr *ingest.ValidationError
	switch {
	case errors.As(err, &verr):
		slog.Debug("rejected request", "path", r.URL.Path, "missing", verr.Missing)
		http.Error(w, verr.Error(), http.StatusBadRequest)
	case errors.Is(err, metric.ErrDuplicateName):
		slog.Error("metric name conflict", "path", r.URL.Path, "error", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
	default:
		slog.Error("request failed", "path", r.URL.Path, "error", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
	}
}

// recoverMiddleware turns handler panics into 500 responses.
func recoverMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				if rec == http.ErrAbortHandler {
					panic(rec)
				}
				writeError(w, r, fmt.Errorf("panic: %v", rec))
			}
		}()
		next.ServeHTTP(w, r)
	})
}

// loggingMiddleware logs scrape requests when debug logging is enabled
func loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		slog.Debug("prometheus scrape", "remote", r.RemoteAddr)
		next.ServeHTTP(w, r)
	})
}
