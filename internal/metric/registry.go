package metric

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"slices"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/prometheus/common/expfmt"
)

// ErrDuplicateName is returned when a metric name is registered twice.
var ErrDuplicateName = errors.New("metric name already registered")

// Registry owns the set of metric definitions and renders them in the
// Prometheus text exposition format.
type Registry struct {
	mu        sync.RWMutex
	prom      *prometheus.Registry
	metrics   []*Metric
	byName    map[string]*Metric
	listeners []func(*Metric)
}

// Option configures a Registry.
type Option func(*Registry)

// WithDefaultCollectors registers the Go runtime and process collectors.
func WithDefaultCollectors() Option {
	return func(r *Registry) {
		r.prom.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
	}
}

// NewRegistry creates an empty registry.
func NewRegistry(opts ...Option) *Registry {
	r := &Registry{
		prom:   prometheus.NewRegistry(),
		byName: make(map[string]*Metric),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Register adds a metric definition and returns its handle.
// It fails with ErrDuplicateName if the name is already present.
func (r *Registry) Register(def Definition) (*Metric, error) {
	m, err := newMetric(def)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	if _, exists := r.byName[def.Name]; exists {
		r.mu.Unlock()
		return nil, fmt.Errorf("%w: %s", ErrDuplicateName, def.Name)
	}

	if err := r.prom.Register(m.collector()); err != nil {
		r.mu.Unlock()
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateName, def.Name)
		}
		return nil, fmt.Errorf("failed to register metric %q: %w", def.Name, err)
	}

	m.initialize()
	r.metrics = append(r.metrics, m)
	r.byName[def.Name] = m
	listeners := slices.Clone(r.listeners)
	r.mu.Unlock()

	slog.Info("registered metric",
		"name", def.Name,
		"type", def.Type,
		"labels", def.LabelNames)

	for _, fn := range listeners {
		fn(m)
	}

	return m, nil
}

// MustRegister registers def and panics on error.
// Intended for fixed metrics declared at startup.
func (r *Registry) MustRegister(def Definition) *Metric {
	m, err := r.Register(def)
	if err != nil {
		panic(err)
	}
	return m
}

// Lookup returns the metric registered under name.
func (r *Registry) Lookup(name string) (*Metric, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	m, ok := r.byName[name]
	return m, ok
}

// Metrics returns all registered metrics in registration order.
func (r *Registry) Metrics() []*Metric {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return append([]*Metric(nil), r.metrics...)
}

// Len returns the number of registered definitions.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.metrics)
}

// SeriesCount returns the number of series across all definitions.
func (r *Registry) SeriesCount() int {
	n := 0
	for _, m := range r.Metrics() {
		n += len(m.Samples())
	}
	return n
}

// OnRegister adds fn to the functions called after each new registration.
func (r *Registry) OnRegister(fn func(*Metric)) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.listeners = append(r.listeners, fn)
}

// Render returns the text exposition of every registered metric.
// Families are sorted by name and metrics without series are omitted.
func (r *Registry) Render() (string, error) {
	families, err := r.prom.Gather()
	if err != nil {
		return "", fmt.Errorf("failed to gather metrics: %w", err)
	}

	var buf bytes.Buffer
	for _, mf := range families {
		if _, err := expfmt.MetricFamilyToText(&buf, mf); err != nil {
			return "", fmt.Errorf("failed to encode %q: %w", mf.GetName(), err)
		}
	}
	return buf.String(), nil
}

// Handler returns the scrape endpoint handler.
func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.prom, promhttp.HandlerOpts{
		EnableOpenMetrics: true,
		ErrorHandling:     promhttp.ContinueOnError,
	})
}

// Registerer exposes the underlying Prometheus registry for auxiliary
// collectors that are not part of the definition set.
func (r *Registry) Registerer() prometheus.Registerer {
	return r.prom
}
