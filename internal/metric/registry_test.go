package metric

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry_Register(t *testing.T) {
	t.Run("registers a new definition", func(t *testing.T) {
		r := NewRegistry()

		m, err := r.Register(Definition{
			Name:       "tank_level",
			Type:       MetricTypeGauge,
			Help:       "Current level of the tank",
			LabelNames: []string{"tankName", "date"},
		})
		require.NoError(t, err)
		assert.Equal(t, "tank_level", m.Name())
		assert.Equal(t, 1, r.Len())

		got, ok := r.Lookup("tank_level")
		require.True(t, ok)
		assert.Same(t, m, got)
	})

	t.Run("rejects a duplicate name", func(t *testing.T) {
		r := NewRegistry()
		_, err := r.Register(Definition{Name: "tank_level", Type: MetricTypeGauge, Help: "a"})
		require.NoError(t, err)

		_, err = r.Register(Definition{Name: "tank_level", Type: MetricTypeCounter, Help: "b"})
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrDuplicateName))
		assert.Equal(t, 1, r.Len())
	})

	t.Run("rejects an unknown type", func(t *testing.T) {
		r := NewRegistry()
		_, err := r.Register(Definition{Name: "x", Type: "summary", Help: "x"})
		assert.Error(t, err)
		assert.Equal(t, 0, r.Len())
	})

	t.Run("rejects an invalid label name", func(t *testing.T) {
		r := NewRegistry()
		_, err := r.Register(Definition{Name: "x", Type: MetricTypeGauge, Help: "x", LabelNames: []string{"__reserved"}})
		assert.Error(t, err)
		assert.Equal(t, 0, r.Len())
	})

	t.Run("keeps registration order", func(t *testing.T) {
		r := NewRegistry()
		for _, name := range []string{"c_metric", "a_metric", "b_metric"} {
			r.MustRegister(Definition{Name: name, Type: MetricTypeGauge, Help: name})
		}

		var names []string
		for _, m := range r.Metrics() {
			names = append(names, m.Name())
		}
		assert.Equal(t, []string{"c_metric", "a_metric", "b_metric"}, names)
	})

	t.Run("listeners added concurrently see later registrations", func(t *testing.T) {
		r := NewRegistry()

		var (
			mu    sync.Mutex
			calls int
			wg    sync.WaitGroup
		)
		for i := range 10 {
			wg.Go(func() {
				r.OnRegister(func(*Metric) {
					mu.Lock()
					calls++
					mu.Unlock()
				})
			})
			wg.Go(func() {
				r.MustRegister(Definition{Name: fmt.Sprintf("m_%d", i), Type: MetricTypeGauge, Help: "m"})
			})
		}
		wg.Wait()

		r.MustRegister(Definition{Name: "last", Type: MetricTypeGauge, Help: "last"})
		mu.Lock()
		defer mu.Unlock()
		assert.GreaterOrEqual(t, calls, 10)
	})

	t.Run("logs each registration once", func(t *testing.T) {
		var buf bytes.Buffer
		prev := slog.Default()
		slog.SetDefault(slog.New(slog.NewTextHandler(&buf, nil)))
		t.Cleanup(func() { slog.SetDefault(prev) })

		r := NewRegistry()
		r.MustRegister(Definition{Name: "tank_level", Type: MetricTypeGauge, Help: "level"})

		assert.Equal(t, 1, strings.Count(buf.String(), `msg="registered metric"`))
		assert.Contains(t, buf.String(), "level=INFO")
	})

	t.Run("notifies listeners", func(t *testing.T) {
		r := NewRegistry()
		var seen []string
		r.OnRegister(func(m *Metric) { seen = append(seen, m.Name()) })

		r.MustRegister(Definition{Name: "one", Type: MetricTypeGauge, Help: "one"})
		r.MustRegister(Definition{Name: "two", Type: MetricTypeCounter, Help: "two"})

		assert.Equal(t, []string{"one", "two"}, seen)
	})
}

func TestMetric_SetAndAdd(t *testing.T) {
	r := NewRegistry()
	gauge := r.MustRegister(Definition{Name: "g", Type: MetricTypeGauge, Help: "g", LabelNames: []string{"timestamp"}})
	counter := r.MustRegister(Definition{Name: "c_total", Type: MetricTypeCounter, Help: "c"})

	require.NoError(t, gauge.Set(5, "t1"))
	require.NoError(t, gauge.Set(7, "t1"))
	assert.Equal(t, 7.0, testutil.ToFloat64(gauge.gauge.WithLabelValues("t1")))

	assert.Error(t, gauge.Set(1), "wrong label cardinality")
	assert.Error(t, gauge.Add(1, "t1"), "add on gauge")
	assert.Error(t, counter.Set(1), "set on counter")
	assert.Error(t, counter.Add(-1), "negative add")

	require.NoError(t, counter.Inc())
	require.NoError(t, counter.Add(2))
	assert.Equal(t, 3.0, testutil.ToFloat64(counter.counter))
}

func TestMetric_Samples(t *testing.T) {
	r := NewRegistry()
	m := r.MustRegister(Definition{Name: "tank_volume", Type: MetricTypeGauge, Help: "v", LabelNames: []string{"tankName", "date"}})

	assert.Empty(t, m.Samples())

	require.NoError(t, m.Set(1.5, "T1", "2024-01-01"))
	require.NoError(t, m.Set(2.5, "T2", "2024-01-01"))

	samples := m.Samples()
	require.Len(t, samples, 2)

	byTank := map[string]float64{}
	for _, s := range samples {
		assert.Equal(t, "2024-01-01", s.Labels["date"])
		byTank[s.Labels["tankName"]] = s.Value
	}
	assert.Equal(t, map[string]float64{"T1": 1.5, "T2": 2.5}, byTank)
	assert.Equal(t, 2, r.SeriesCount())
}

func TestRegistry_Render(t *testing.T) {
	t.Run("empty registry renders nothing", func(t *testing.T) {
		out, err := NewRegistry().Render()
		require.NoError(t, err)
		assert.Empty(t, out)
	})

	t.Run("omits labelled metrics without series", func(t *testing.T) {
		r := NewRegistry()
		r.MustRegister(Definition{Name: "tank_level", Type: MetricTypeGauge, Help: "Current level of the tank", LabelNames: []string{"tankName", "date"}})

		out, err := r.Render()
		require.NoError(t, err)
		assert.NotContains(t, out, "tank_level")
	})

	t.Run("renders label-less counter at zero", func(t *testing.T) {
		r := NewRegistry()
		r.MustRegister(Definition{Name: "meter_readings_total", Type: MetricTypeCounter, Help: "Total number of meter readings received"})

		out, err := r.Render()
		require.NoError(t, err)
		assert.Contains(t, out, "# TYPE meter_readings_total counter\n")
		assert.Contains(t, out, "meter_readings_total 0\n")
	})

	t.Run("renders help, type and series", func(t *testing.T) {
		r := NewRegistry()
		m := r.MustRegister(Definition{Name: "tank_level", Type: MetricTypeGauge, Help: "Current level of the tank", LabelNames: []string{"tankName", "date"}})
		require.NoError(t, m.Set(10, "T1", "2024-01-01"))

		out, err := r.Render()
		require.NoError(t, err)
		assert.Contains(t, out, "# HELP tank_level Current level of the tank\n")
		assert.Contains(t, out, "# TYPE tank_level gauge\n")
		assert.Contains(t, out, `tank_level{date="2024-01-01",tankName="T1"} 10`+"\n")
	})

	t.Run("is deterministic", func(t *testing.T) {
		r := NewRegistry()
		for _, name := range []string{"b", "a", "c"} {
			m := r.MustRegister(Definition{Name: name, Type: MetricTypeGauge, Help: name, LabelNames: []string{"k"}})
			require.NoError(t, m.Set(1, "y"))
			require.NoError(t, m.Set(2, "x"))
		}

		first, err := r.Render()
		require.NoError(t, err)
		second, err := r.Render()
		require.NoError(t, err)
		assert.Equal(t, first, second)
		assert.Less(t, strings.Index(first, "# HELP a"), strings.Index(first, "# HELP b"))
	})

	t.Run("is safe during concurrent writes", func(t *testing.T) {
		r := NewRegistry()
		f := NewFactory(r)

		var wg sync.WaitGroup
		for i := range 20 {
			wg.Go(func() {
				m, err := f.GetOrCreate(MeterScheme, "m1", "help", []string{"timestamp"})
				if assert.NoError(t, err) {
					assert.NoError(t, m.Set(float64(i), "t"))
				}
			})
			wg.Go(func() {
				_, err := r.Render()
				assert.NoError(t, err)
			})
		}
		wg.Wait()
	})
}

func TestRegistry_DefaultCollectors(t *testing.T) {
	r := NewRegistry(WithDefaultCollectors())

	out, err := r.Render()
	require.NoError(t, err)
	assert.Contains(t, out, "go_goroutines")
}

func TestRegistry_Handler(t *testing.T) {
	r := NewRegistry()
	m := r.MustRegister(Definition{Name: "tank_level", Type: MetricTypeGauge, Help: "Current level of the tank", LabelNames: []string{"tankName", "date"}})
	require.NoError(t, m.Set(10, "T1", "2024-01-01"))

	rec := httptest.NewRecorder()
	r.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/plain")
	assert.Contains(t, rec.Body.String(), `tank_level{date="2024-01-01",tankName="T1"} 10`)
}
