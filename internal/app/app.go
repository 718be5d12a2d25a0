package app

import (
	"fmt"

	"github.com/neox5/meterbox/internal/config"
	"github.com/neox5/meterbox/internal/exporter"
	"github.com/neox5/meterbox/internal/ingest"
	"github.com/neox5/meterbox/internal/metric"
	"github.com/neox5/meterbox/internal/server"
	"github.com/neox5/meterbox/internal/tank"
)

// App holds initialized application components.
type App struct {
	Config       *config.Config
	Metrics      *metric.Registry
	Factory      *metric.Factory
	Tanks        *tank.Tracker
	Ingest       *ingest.Service
	Server       *server.Server
	OTELExporter *exporter.OTELExporter
}

// New initializes the application from a resolved configuration.
func New(cfg *config.Config) (*App, error) {
	var opts []metric.Option
	if cfg.Settings.DefaultCollectors {
		opts = append(opts, metric.WithDefaultCollectors())
	}
	metrics := metric.NewRegistry(opts...)

	factory := metric.NewFactory(metrics)
	tanks := tank.NewTracker()

	svc, err := ingest.New(metrics, factory, tanks)
	if err != nil {
		return nil, fmt.Errorf("failed to create ingest service: %w", err)
	}

	srv := server.New(server.Options{
		Addr:            cfg.Server.Addr(),
		MetricsPath:     cfg.Server.MetricsPath,
		InternalMetrics: cfg.Settings.InternalMetrics.Enabled,
	}, svc, metrics)

	// Create OTEL exporter if enabled
	var otelExporter *exporter.OTELExporter
	if cfg.Export.OTEL != nil && cfg.Export.OTEL.Enabled {
		otelExporter, err = exporter.NewOTELExporter(cfg.Export.OTEL, metrics)
		if err != nil {
			return nil, fmt.Errorf("failed to create OTEL exporter: %w", err)
		}
	}

	return &App{
		Config:       cfg,
		Metrics:      metrics,
		Factory:      factory,
		Tanks:        tanks,
		Ingest:       svc,
		Server:       srv,
		OTELExporter: otelExporter,
	}, nil
}
