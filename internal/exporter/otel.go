package exporter

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/neox5/meterbox/internal/config"
	"github.com/neox5/meterbox/internal/metric"
	otelmetric "go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
)

// OTELExporter pushes every registered metric to an OTEL collector.
// Metrics created after startup are picked up as they are registered.
type OTELExporter struct {
	config        *config.OTELExportConfig
	meterProvider *sdkmetric.MeterProvider
	meter         otelmetric.Meter

	mu          sync.Mutex
	instruments map[string]otelmetric.Registration
}

// NewOTELExporter creates a new OTEL exporter.
func NewOTELExporter(cfg *config.OTELExportConfig, registry *metric.Registry) (*OTELExporter, error) {
	res, err := createOTELResource(cfg.Resource)
	if err != nil {
		return nil, err
	}

	meterProvider, err := createMeterProvider(cfg, res)
	if err != nil {
		return nil, err
	}

	return newOTELExporter(cfg, registry, meterProvider)
}

// newOTELExporter mirrors registry into meterProvider.
func newOTELExporter(
	cfg *config.OTELExportConfig,
	registry *metric.Registry,
	meterProvider *sdkmetric.MeterProvider,
) (*OTELExporter, error) {
	e := &OTELExporter{
		config:        cfg,
		meterProvider: meterProvider,
		meter:         meterProvider.Meter("meterbox"),
		instruments:   make(map[string]otelmetric.Registration),
	}

	// Subscribe before the initial pass; registerInstrument skips duplicates.
	registry.OnRegister(func(m *metric.Metric) {
		if err := e.registerInstrument(m); err != nil {
			slog.Error("failed to register otel instrument", "name", m.Name(), "error", err)
		}
	})

	for _, m := range registry.Metrics() {
		if err := e.registerInstrument(m); err != nil {
			return nil, err
		}
	}

	return e, nil
}

// Start blocks until ctx is cancelled, then flushes and shuts down.
// The periodic reader handles the pushes.
func (e *OTELExporter) Start(ctx context.Context) error {
	slog.Info("starting otel exporter",
		"transport", e.config.Transport,
		"endpoint", e.config.GetEndpoint(),
		"push_interval", e.config.Interval,
	)

	<-ctx.Done()
	return e.Stop()
}

// Stop gracefully stops the exporter.
func (e *OTELExporter) Stop() error {
	slog.Info("shutting down otel exporter")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := e.meterProvider.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shut down meter provider: %w", err)
	}
	return nil
}
