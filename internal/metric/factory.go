package metric

import (
	"fmt"
	"log/slog"
	"strings"
	"sync"
)

// Scheme derives a metric name from a dynamic entity key.
type Scheme struct {
	Category string
	Pattern  string // fmt pattern with a single %s for the entity key
}

// Naming schemes for dynamically created gauges.
var (
	MeterScheme    = Scheme{Category: "meter", Pattern: "meter_reading_%s"}
	BuildingScheme = Scheme{Category: "building", Pattern: "%s_meter_reading"}
	HTPanelScheme  = Scheme{Category: "ht_panel", Pattern: "ht_panel_meter_reading_%s"}
)

// MetricName returns the canonical metric name for key.
func (s Scheme) MetricName(key string) string {
	return SanitizeName(fmt.Sprintf(s.Pattern, key))
}

// SanitizeName maps name onto the Prometheus metric name charset.
// Invalid characters become underscores and a leading digit is prefixed.
func SanitizeName(name string) string {
	var b strings.Builder
	b.Grow(len(name) + 1)

	for i, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r == '_', r == ':':
			b.WriteRune(r)
		case r >= '0' && r <= '9':
			if i == 0 {
				b.WriteByte('_')
			}
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	return b.String()
}

type entityKey struct {
	category string
	key      string
}

// Factory creates gauges on first observation of an entity key and returns
// the same gauge for every later observation.
type Factory struct {
	registry *Registry

	mu    sync.Mutex
	table map[entityKey]*Metric
}

// NewFactory creates a factory registering into registry.
func NewFactory(registry *Registry) *Factory {
	return &Factory{
		registry: registry,
		table:    make(map[entityKey]*Metric),
	}
}

// GetOrCreate returns the gauge for (scheme, key), registering it on first use.
// Help text and label names of later calls are ignored.
func (f *Factory) GetOrCreate(scheme Scheme, key, help string, labelNames []string) (*Metric, error) {
	k := entityKey{category: scheme.Category, key: key}

	f.mu.Lock()
	defer f.mu.Unlock()

	if m, ok := f.table[k]; ok {
		return m, nil
	}

	m, err := f.registry.Register(Definition{
		Name:       scheme.MetricName(key),
		Type:       MetricTypeGauge,
		Help:       help,
		LabelNames: labelNames,
	})
	if err != nil {
		return nil, err
	}

	f.table[k] = m
	slog.Info("created dynamic metric",
		"category", scheme.Category,
		"key", key,
		"name", m.Name())

	return m, nil
}

// Len returns the number of dynamic entries.
func (f *Factory) Len() int {
	f.mu.Lock()
	defer f.mu.Unlock()

	return len(f.table)
}
