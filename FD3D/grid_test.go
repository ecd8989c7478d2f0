package FD3D

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGrid(t *testing.T) {
	{ // Construction errors
		var (
			err error
		)
		_, err = NewGrid([3]int{0, 10, 10}, [3]float64{1, 1, 1}, [3]float64{})
		assert.ErrorIs(t, err, ErrInvalidDimension)
		_, err = NewGrid([3]int{10, 10, -1}, [3]float64{1, 1, 1}, [3]float64{})
		assert.ErrorIs(t, err, ErrInvalidDimension)
		_, err = NewGrid([3]int{10, 10, 10}, [3]float64{1, 0, 1}, [3]float64{})
		assert.ErrorIs(t, err, ErrInvalidDimension)
		_, err = NewGrid([3]int{10, 10, 10}, [3]float64{1, 1, math.Inf(1)}, [3]float64{})
		assert.ErrorIs(t, err, ErrInvalidDimension)
		_, err = NewGrid([3]int{10, 10, 10}, [3]float64{1, 1, 1}, [3]float64{math.NaN(), 0, 0})
		assert.ErrorIs(t, err, ErrInvalidDimension)
	}
	{
		g, err := NewGrid([3]int{11, 21, 31}, [3]float64{10, 5, 2}, [3]float64{-50, 0, 1})
		require.NoError(t, err)
		assert.Equal(t, 11*21*31, g.NumPoints())
		assert.Equal(t, [3]float64{100, 100, 60}, g.Extent())
		assert.Equal(t, "nx,ny,nz;    11    21    31", g.String())
		sm := g.SpacingMap()
		assert.Equal(t, 3, len(sm))
		assert.Equal(t, 5., sm[Y])
		assert.True(t, g.Contains([3]float64{50, 100, 61}))
		assert.False(t, g.Contains([3]float64{50.1, 100, 61}))
		assert.False(t, g.Contains([3]float64{0, math.NaN(), 10}))
	}
	{ // Nearest node lookup
		g, err := NewGrid([3]int{11, 11, 11}, [3]float64{10, 10, 10}, [3]float64{})
		require.NoError(t, err)
		ijk, err := g.NearestNode([3]float64{51, 49, 100})
		require.NoError(t, err)
		assert.Equal(t, [3]int{5, 5, 10}, ijk)
		_, err = g.NearestNode([3]float64{-20, 0, 0})
		assert.ErrorIs(t, err, ErrSourcePlacement)
	}
	assert.Equal(t, "t", T.String())
	assert.Equal(t, "z", Axes[2].String())
}

func TestTimeAxis(t *testing.T) {
	{
		ta, err := NewTimeAxis(0, 249, 1)
		require.NoError(t, err)
		assert.Equal(t, 250, ta.NumSteps())
		assert.Equal(t, 249., ta.Time(249))
		assert.Equal(t, 250, len(ta.Values()))
	}
	{ // Steps that do not divide exactly in binary
		ta, err := NewTimeAxis(0, 10, 0.1)
		require.NoError(t, err)
		assert.Equal(t, 101, ta.NumSteps())
		ta, err = NewTimeAxis(1, 1, 0.5)
		require.NoError(t, err)
		assert.Equal(t, 1, ta.NumSteps())
	}
	{
		_, err := NewTimeAxis(0, 1, 0)
		assert.ErrorIs(t, err, ErrInvalidDimension)
		_, err = NewTimeAxis(2, 1, 0.1)
		assert.ErrorIs(t, err, ErrInvalidDimension)
	}
	{
		g, _ := NewGrid([3]int{3, 3, 3}, [3]float64{1, 2, 3}, [3]float64{})
		ta := TimeAxis{Start: 0, Stop: 1, Step: 0.25}
		sm := ta.SpacingMap(g)
		assert.Equal(t, 0.25, sm[T])
		assert.Equal(t, 3., sm[Z])
		assert.Equal(t, "TimeAxis: start=0, stop=1, step=0.25, num=5", ta.String())
	}
}
