package FD3D

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStencilOperator(t *testing.T) {
	{ // Tables are scaled by the axis spacing
		g, _ := NewGrid([3]int{5, 5, 5}, [3]float64{0.5, 2, 4}, [3]float64{})
		op, err := NewStencilOperator[float64](g, 2)
		require.NoError(t, err)
		assert.Equal(t, 1, op.Radius())
		assert.Equal(t, []float64{-2, 2}, op.Table(X, ShiftPlus, 1).Weights)
		assert.Equal(t, []float64{-0.25, 0.25}, op.Table(Z, ShiftMinus, 1).Weights)
		assert.Equal(t, []float64{0.25, -0.5, 0.25}, op.Table(Y, Centered, 2).Weights)
		f, _ := NewField[float64]("f", g, 2, [3]Staggering{})
		assert.Equal(t, []int{-7, 0, 7}, op.Table(Y, Centered, 2).Strided(f.Strides()))
		_, err = NewStencilOperator[float64](g, 5)
		assert.ErrorIs(t, err, ErrInvalidDimension)
	}
	{ // Staggered derivative of a quadratic is exact
		var (
			h     = 0.5
			n     = 16
			g, _  = NewGrid([3]int{n, 3, n}, [3]float64{h, 1, h}, [3]float64{})
			f, _  = NewField[float64]("f", g, 4, [3]Staggering{})
			op, _ = NewStencilOperator[float64](g, 4)
		)
		f.SetFunc(func(i, j, k int) float64 {
			x, z := float64(i)*h, float64(k)*h
			return x*x + 3*z*z
		})
		dfx, err := op.Derivative(f, X, ShiftPlus, 1)
		require.NoError(t, err)
		assert.Equal(t, StaggerPlus, dfx.Stagger[X])
		assert.Equal(t, NodeCentered, dfx.Stagger[Z])
		dfz, err := op.Derivative(f, Z, ShiftMinus, 1)
		require.NoError(t, err)
		assert.Equal(t, StaggerMinus, dfz.Stagger[Z])
		for i := 1; i < n-2; i++ {
			v, _ := dfx.At(i, 1, 5)
			assert.InDelta(t, 2*(float64(i)*h+h/2), v, 1.e-10)
		}
		for k := 2; k < n-1; k++ {
			v, _ := dfz.At(3, 1, k)
			assert.InDelta(t, 6*(float64(k)*h-h/2), v, 1.e-10)
		}
		d2, err := op.Derivative(f, X, Centered, 2)
		require.NoError(t, err)
		v, _ := d2.At(7, 0, 7)
		assert.InDelta(t, 2., v, 1.e-10)
		// A staggered field shifted back lands on the nodes
		back, err := op.Derivative(dfx, X, ShiftMinus, 1)
		require.NoError(t, err)
		assert.Equal(t, NodeCentered, back.Stagger[X])
	}
	{ // Mismatched inputs
		g := newTestGrid(t, [3]int{6, 6, 6})
		op, _ := NewStencilOperator[float32](g, 8)
		narrow, _ := NewField[float32]("narrow", g, 2, [3]Staggering{})
		_, err := op.Derivative(narrow, X, ShiftPlus, 1)
		assert.ErrorIs(t, err, ErrInvalidDimension)
		f, _ := NewField[float32]("f", g, 8, [3]Staggering{})
		_, err = op.Derivative(f, T, ShiftPlus, 1)
		assert.ErrorIs(t, err, ErrInvalidDimension)
		other, _ := NewField[float32]("other", newTestGrid(t, [3]int{6, 6, 7}), 8, [3]Staggering{})
		_, err = op.Derivative(other, X, ShiftPlus, 1)
		assert.ErrorIs(t, err, ErrInvalidDimension)
		wide, _ := NewField[float32]("wide", g, 10, [3]Staggering{})
		assert.ErrorIs(t, op.DerivativeInto(wide, f, Y, ShiftPlus, 1, FullTile(g)), ErrInvalidDimension)
	}
}

func randomField(t *testing.T, name string, g *Grid, so int, rnd *rand.Rand, lo, hi float64) *Field[float64] {
	f, err := NewField[float64](name, g, so, [3]Staggering{})
	require.NoError(t, err)
	f.SetFunc(func(i, j, k int) float64 { return lo + (hi-lo)*rnd.Float64() })
	return f
}

func TestSelfAdjoint(t *testing.T) {
	var (
		rnd = rand.New(rand.NewSource(1))
	)
	for _, so := range []int{2, 4, 8, 12} {
		var (
			g, _  = NewGrid([3]int{12, 10, 9}, [3]float64{10, 12, 9}, [3]float64{})
			op, _ = NewStencilOperator[float64](g, so)
			b     = randomField(t, "b", g, so, rnd, 0.5, 1.5)
			u     = randomField(t, "u", g, so, rnd, -1, 1)
			v     = randomField(t, "v", g, so, rnd, -1, 1)
		)
		Lu, err := op.SelfAdjoint(u, b)
		require.NoError(t, err)
		Lv, err := op.SelfAdjoint(v, b)
		require.NoError(t, err)
		d1, err := Dot(Lu, v)
		require.NoError(t, err)
		d2, err := Dot(u, Lv)
		require.NoError(t, err)
		assert.Less(t, math.Abs(d1-d2)/math.Max(math.Abs(d1), math.Abs(d2)), 1.e-6, "so=%d", so)
		// Positive buoyancy makes the operator negative definite
		uLu, _ := Dot(u, Lu)
		assert.Less(t, uLu, 0., "so=%d", so)
	}
}

func TestFieldArithmetic(t *testing.T) {
	g := newTestGrid(t, [3]int{4, 4, 4})
	a, _ := NewField[float32]("a", g, 2, [3]Staggering{})
	b, _ := a.Like("b")
	c, _ := a.Like("c")
	a.Fill(2)
	b.Fill(3)
	require.NoError(t, MulInto(c, a, b))
	v, _ := c.At(3, 3, 3)
	assert.Equal(t, float32(6), v)
	// Only the interior is written
	assert.Equal(t, float32(0), c.Data()[0])
	require.NoError(t, AddInto(c, c, a))
	v, _ = c.At(0, 0, 0)
	assert.Equal(t, float32(8), v)
	tile := Tile{Lo: [3]int{1, 1, 0}, Hi: [3]int{2, 2, 4}}
	c.Zero()
	require.NoError(t, MulTile(c, a, a, tile))
	assert.Equal(t, 8., Norm(c))
	wide, _ := NewField[float32]("wide", g, 4, [3]Staggering{})
	assert.ErrorIs(t, MulInto(c, a, wide), ErrInvalidDimension)
	assert.ErrorIs(t, AddInto(wide, a, b), ErrInvalidDimension)
}
