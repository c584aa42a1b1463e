package space

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetricString(t *testing.T) {
	tests := []struct {
		m        Metric
		expected string
	}{
		{MetricL2, "L2"},
		{MetricInnerProduct, "InnerProduct"},
		{MetricCosine, "Cosine"},
		{Metric(99), "Unknown(99)"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, tt.m.String())
	}
}

func TestNew(t *testing.T) {
	t.Run("InvalidDimension", func(t *testing.T) {
		_, err := New(MetricL2, 0)
		assert.Error(t, err)

		_, err = New(MetricL2, -4)
		assert.Error(t, err)
	})

	t.Run("UnsupportedMetric", func(t *testing.T) {
		_, err := New(Metric(99), 8)
		assert.Error(t, err)
	})

	t.Run("Dim", func(t *testing.T) {
		s, err := New(MetricCosine, 16)
		require.NoError(t, err)
		assert.Equal(t, 16, s.Dim())
	})
}

func TestL2Distance(t *testing.T) {
	s, err := New(MetricL2, 3)
	require.NoError(t, err)

	tests := []struct {
		name     string
		a, b     []float32
		expected float32
	}{
		{"Identical", []float32{1, 2, 3}, []float32{1, 2, 3}, 0},
		{"UnitApart", []float32{0, 0, 0}, []float32{1, 0, 0}, 1},
		{"Squared", []float32{0, 0, 0}, []float32{3, 4, 0}, 25},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.expected, s.Distance(tt.a, tt.b), 1e-5)
		})
	}
}

func TestInnerProductDistance(t *testing.T) {
	s, err := New(MetricInnerProduct, 3)
	require.NoError(t, err)

	tests := []struct {
		name     string
		a, b     []float32
		expected float32
	}{
		{"Orthogonal", []float32{1, 0, 0}, []float32{0, 1, 0}, 1},
		{"Parallel", []float32{1, 0, 0}, []float32{1, 0, 0}, 0},
		{"Scaled", []float32{2, 0, 0}, []float32{3, 0, 0}, -5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.expected, s.Distance(tt.a, tt.b), 1e-5)
		})
	}
}

func TestNormalize(t *testing.T) {
	t.Run("UnitNorm", func(t *testing.T) {
		v := []float32{3, 4}
		dst := make([]float32, 2)
		Normalize(dst, v)

		assert.InDelta(t, 0.6, dst[0], 1e-5)
		assert.InDelta(t, 0.8, dst[1], 1e-5)
	})

	t.Run("ZeroVector", func(t *testing.T) {
		v := []float32{0, 0, 0}
		NormalizeInPlace(v)

		for _, x := range v {
			assert.Equal(t, float32(0), x)
		}
	})

	t.Run("InPlace", func(t *testing.T) {
		v := []float32{2, 0, 0}
		NormalizeInPlace(v)

		assert.InDelta(t, 1.0, v[0], 1e-5)
	})

	t.Run("AlreadyUnit", func(t *testing.T) {
		v := []float32{1, 0, 0, 0}
		dst := make([]float32, 4)
		Normalize(dst, v)

		assert.InDelta(t, 1.0, dst[0], 1e-5)
	})
}
