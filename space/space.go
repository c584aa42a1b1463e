// Package space provides metric spaces for vector distance calculations.
// All distance kernels use SIMD-accelerated implementations from
// github.com/viterin/vek when available.
package space

import (
	"fmt"

	"github.com/viterin/vek/vek32"
)

// Metric identifies the distance metric of a space.
type Metric int

const (
	// MetricL2 is the squared Euclidean distance.
	MetricL2 Metric = iota
	// MetricInnerProduct is 1 - <a, b>.
	MetricInnerProduct
	// MetricCosine is the inner-product distance over L2-normalized vectors.
	// Normalization is the caller's responsibility; the space itself is
	// identical to MetricInnerProduct.
	MetricCosine
)

// String returns a string representation of the Metric.
func (m Metric) String() string {
	switch m {
	case MetricL2:
		return "L2"
	case MetricInnerProduct:
		return "InnerProduct"
	case MetricCosine:
		return "Cosine"
	default:
		return fmt.Sprintf("Unknown(%d)", int(m))
	}
}

// Space calculates distances between vectors of a fixed dimension.
type Space interface {
	// Distance returns the distance between a and b.
	// Both vectors must have length Dim.
	Distance(a, b []float32) float32

	// Dim returns the vector dimension of the space.
	Dim() int
}

// New creates a space for the given metric and dimension.
func New(m Metric, dim int) (Space, error) {
	if dim <= 0 {
		return nil, fmt.Errorf("space: invalid dimension: %d", dim)
	}

	switch m {
	case MetricL2:
		return &l2Space{dim: dim}, nil
	case MetricInnerProduct, MetricCosine:
		return &ipSpace{dim: dim}, nil
	default:
		return nil, fmt.Errorf("space: unsupported metric: %v", m)
	}
}

type l2Space struct {
	dim int
}

func (s *l2Space) Distance(a, b []float32) float32 {
	d := vek32.Distance(a, b)
	return d * d
}

func (s *l2Space) Dim() int { return s.dim }

type ipSpace struct {
	dim int
}

func (s *ipSpace) Distance(a, b []float32) float32 {
	return 1 - vek32.Dot(a, b)
}

func (s *ipSpace) Dim() int { return s.dim }
