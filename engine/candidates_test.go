package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var distances = []float32{0.4, 9, 0.001, 0.0534, 0.234, 2.03, 2.042, 2.532, 1.0009, 0.329}

func TestCandidates(t *testing.T) {
	t.Run("Empty", func(t *testing.T) {
		c := NewCandidates(0)

		assert.Equal(t, 0, c.Len())

		_, ok := c.Top()
		assert.False(t, ok)

		_, ok = c.Pop()
		assert.False(t, ok)
	})

	t.Run("MaxOnTop", func(t *testing.T) {
		c := NewCandidates(len(distances))
		for i, d := range distances {
			c.Push(Candidate{Label: uint64(i), Distance: d})
		}

		require.Equal(t, len(distances), c.Len())

		top, ok := c.Top()
		require.True(t, ok)
		assert.Equal(t, float32(9), top.Distance)
		assert.Equal(t, uint64(1), top.Label)
	})

	t.Run("PopDescending", func(t *testing.T) {
		c := NewCandidates(len(distances))
		for i, d := range distances {
			c.Push(Candidate{Label: uint64(i), Distance: d})
		}

		prev := float32(1e30)
		for c.Len() > 0 {
			item, ok := c.Pop()
			require.True(t, ok)
			assert.LessOrEqual(t, item.Distance, prev)
			prev = item.Distance
		}

		assert.Equal(t, float32(0.001), prev)
	})

	t.Run("Prune", func(t *testing.T) {
		c := NewCandidates(len(distances))
		for i, d := range distances {
			c.Push(Candidate{Label: uint64(i), Distance: d})
		}

		for c.Len() > 3 {
			c.Pop()
		}

		top, ok := c.Top()
		require.True(t, ok)
		assert.Equal(t, float32(0.234), top.Distance)
	})
}
