package metric

import (
	"fmt"
	"slices"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

// MetricType defines the semantic type of a metric.
type MetricType string

const (
	MetricTypeCounter MetricType = "counter"
	MetricTypeGauge   MetricType = "gauge"
)

// Definition holds the immutable metadata of a registered metric.
type Definition struct {
	Name       string
	Type       MetricType
	Help       string
	LabelNames []string
}

// Sample is the current value of one series.
type Sample struct {
	Labels map[string]string
	Value  float64
}

// Metric is a registered definition together with its series.
// Each distinct tuple of label values is one series holding the latest value.
type Metric struct {
	def     Definition
	gauge   *prometheus.GaugeVec
	counter *prometheus.CounterVec
}

func newMetric(def Definition) (*Metric, error) {
	if def.Name == "" {
		return nil, fmt.Errorf("metric name cannot be empty")
	}

	def.LabelNames = slices.Clone(def.LabelNames)
	m := &Metric{def: def}

	switch def.Type {
	case MetricTypeGauge:
		m.gauge = prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: def.Name,
			Help: def.Help,
		}, def.LabelNames)
	case MetricTypeCounter:
		m.counter = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: def.Name,
			Help: def.Help,
		}, def.LabelNames)
	default:
		return nil, fmt.Errorf("unsupported metric type: %s", def.Type)
	}

	return m, nil
}

// Name returns the metric name.
func (m *Metric) Name() string {
	return m.def.Name
}

// Definition returns a copy of the metric metadata.
func (m *Metric) Definition() Definition {
	def := m.def
	def.LabelNames = slices.Clone(m.def.LabelNames)
	return def
}

// Set stores value in the series identified by labelValues.
// Label values are given in the order of the definition's label names.
func (m *Metric) Set(value float64, labelValues ...string) error {
	if m.gauge == nil {
		return fmt.Errorf("metric %q: set is not supported for %s", m.def.Name, m.def.Type)
	}

	g, err := m.gauge.GetMetricWithLabelValues(labelValues...)
	if err != nil {
		return fmt.Errorf("metric %q: %w", m.def.Name, err)
	}
	g.Set(value)
	return nil
}

// Add increases the counter series identified by labelValues.
func (m *Metric) Add(value float64, labelValues ...string) error {
	if m.counter == nil {
		return fmt.Errorf("metric %q: add is not supported for %s", m.def.Name, m.def.Type)
	}
	if value < 0 {
		return fmt.Errorf("metric %q: counter cannot decrease", m.def.Name)
	}

	c, err := m.counter.GetMetricWithLabelValues(labelValues...)
	if err != nil {
		return fmt.Errorf("metric %q: %w", m.def.Name, err)
	}
	c.Add(value)
	return nil
}

// Inc increments the counter series identified by labelValues by one.
func (m *Metric) Inc(labelValues ...string) error {
	return m.Add(1, labelValues...)
}

// Samples returns the current value of every series.
func (m *Metric) Samples() []Sample {
	ch := make(chan prometheus.Metric)
	go func() {
		m.collector().Collect(ch)
		close(ch)
	}()

	var samples []Sample
	for pm := range ch {
		var d dto.Metric
		if err := pm.Write(&d); err != nil {
			continue
		}

		labels := make(map[string]string, len(d.GetLabel()))
		for _, lp := range d.GetLabel() {
			labels[lp.GetName()] = lp.GetValue()
		}

		var val float64
		switch {
		case d.Gauge != nil:
			val = d.GetGauge().GetValue()
		case d.Counter != nil:
			val = d.GetCounter().GetValue()
		}

		samples = append(samples, Sample{Labels: labels, Value: val})
	}
	return samples
}

// collector returns the underlying Prometheus vector.
func (m *Metric) collector() prometheus.Collector {
	if m.gauge != nil {
		return m.gauge
	}
	return m.counter
}

// initialize creates the single series of a label-less metric so it is
// exposed before its first write.
func (m *Metric) initialize() {
	if len(m.def.LabelNames) > 0 {
		return
	}
	if m.gauge != nil {
		m.gauge.WithLabelValues()
	} else {
		m.counter.WithLabelValues()
	}
}
