package exporter

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/neox5/meterbox/internal/metric"
	"go.opentelemetry.io/otel/attribute"
	otelmetric "go.opentelemetry.io/otel/metric"
)

// registerInstrument creates an observable instrument for m and a callback
// reporting each of its series.
func (e *OTELExporter) registerInstrument(m *metric.Metric) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	def := m.Definition()
	if _, exists := e.instruments[def.Name]; exists {
		return nil
	}

	var (
		observable otelmetric.Observable
		observe    func(otelmetric.Observer, float64, otelmetric.ObserveOption)
	)

	switch def.Type {
	case metric.MetricTypeCounter:
		counter, err := e.meter.Float64ObservableCounter(
			def.Name,
			otelmetric.WithDescription(def.Help),
		)
		if err != nil {
			return fmt.Errorf("failed to create counter %q: %w", def.Name, err)
		}
		observable = counter
		observe = func(o otelmetric.Observer, v float64, opt otelmetric.ObserveOption) {
			o.ObserveFloat64(counter, v, opt)
		}

	case metric.MetricTypeGauge:
		gauge, err := e.meter.Float64ObservableGauge(
			def.Name,
			otelmetric.WithDescription(def.Help),
		)
		if err != nil {
			return fmt.Errorf("failed to create gauge %q: %w", def.Name, err)
		}
		observable = gauge
		observe = func(o otelmetric.Observer, v float64, opt otelmetric.ObserveOption) {
			o.ObserveFloat64(gauge, v, opt)
		}

	default:
		return fmt.Errorf("unsupported metric type: %s", def.Type)
	}

	reg, err := e.meter.RegisterCallback(
		func(ctx context.Context, observer otelmetric.Observer) error {
			for _, s := range m.Samples() {
				observe(observer, s.Value, otelmetric.WithAttributes(attributes(s.Labels)...))
			}
			return nil
		},
		observable,
	)
	if err != nil {
		return fmt.Errorf("failed to register callback for %q: %w", def.Name, err)
	}

	e.instruments[def.Name] = reg

	slog.Debug("registered otel metric",
		"name", def.Name,
		"type", def.Type,
		"labels", def.LabelNames)

	return nil
}

// attributes converts series labels to OTEL attributes.
func attributes(labels map[string]string) []attribute.KeyValue {
	attrs := make([]attribute.KeyValue, 0, len(labels))
	for k, v := range labels {
		attrs = append(attrs, attribute.String(k, v))
	}
	return attrs
}
