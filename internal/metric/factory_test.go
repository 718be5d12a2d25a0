package metric

import (
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScheme_MetricName(t *testing.T) {
	tests := []struct {
		scheme Scheme
		key    string
		want   string
	}{
		{MeterScheme, "main", "meter_reading_main"},
		{MeterScheme, "block-A 1", "meter_reading_block_A_1"},
		{BuildingScheme, "hq", "hq_meter_reading"},
		{BuildingScheme, "7th", "_7th_meter_reading"},
		{HTPanelScheme, "p1", "ht_panel_meter_reading_p1"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.scheme.MetricName(tt.key))
		})
	}
}

func TestFactory_GetOrCreate(t *testing.T) {
	labels := []string{"timestamp"}

	t.Run("creates one metric per key", func(t *testing.T) {
		r := NewRegistry()
		f := NewFactory(r)

		for _, key := range []string{"m1", "m2", "m3"} {
			_, err := f.GetOrCreate(MeterScheme, key, "help "+key, labels)
			require.NoError(t, err)
		}

		assert.Equal(t, 3, r.Len())
		assert.Equal(t, 3, f.Len())
	})

	t.Run("keeps first help text", func(t *testing.T) {
		r := NewRegistry()
		f := NewFactory(r)

		first, err := f.GetOrCreate(MeterScheme, "m1", "first", labels)
		require.NoError(t, err)
		second, err := f.GetOrCreate(MeterScheme, "m1", "second", labels)
		require.NoError(t, err)

		assert.Same(t, first, second)
		assert.Equal(t, "first", second.Definition().Help)
		assert.Equal(t, 1, r.Len())
	})

	t.Run("separates categories", func(t *testing.T) {
		r := NewRegistry()
		f := NewFactory(r)

		meter, err := f.GetOrCreate(MeterScheme, "x", "meter", labels)
		require.NoError(t, err)
		panel, err := f.GetOrCreate(HTPanelScheme, "x", "panel", labels)
		require.NoError(t, err)

		assert.NotSame(t, meter, panel)
		assert.Equal(t, 2, r.Len())
	})

	t.Run("fails when sanitised names collide", func(t *testing.T) {
		r := NewRegistry()
		f := NewFactory(r)

		_, err := f.GetOrCreate(MeterScheme, "a-b", "help", labels)
		require.NoError(t, err)
		_, err = f.GetOrCreate(MeterScheme, "a_b", "help", labels)

		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrDuplicateName))
		assert.Equal(t, 1, f.Len())
	})

	t.Run("creates exactly one metric under concurrency", func(t *testing.T) {
		r := NewRegistry()
		f := NewFactory(r)

		const n = 64
		results := make([]*Metric, n)

		var wg sync.WaitGroup
		for i := range n {
			wg.Go(func() {
				m, err := f.GetOrCreate(MeterScheme, "shared", "help", labels)
				assert.NoError(t, err)
				results[i] = m
			})
		}
		wg.Wait()

		assert.Equal(t, 1, r.Len())
		for _, m := range results {
			assert.Same(t, results[0], m)
		}
	})
}
