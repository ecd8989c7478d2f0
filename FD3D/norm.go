package FD3D

import (
	"math"

	"github.com/exascience/pargo/parallel"
	"gonum.org/v1/gonum/floats"
)

/*
Plane partial sums are computed in parallel and combined in plane order,
so reductions are bit reproducible for any number of workers.
*/
func planeSums[T Real](f *Field[T], term func(ind int) float64) (partials []float64) {
	shape := f.Grid.Shape()
	partials = make([]float64, shape[0])
	parallel.Range(0, shape[0], 0, func(low, high int) {
		for i := low; i < high; i++ {
			var sum float64
			for j := 0; j < shape[1]; j++ {
				base := f.Index(i, j, 0)
				for k := 0; k < shape[2]; k++ {
					sum += term(base + k)
				}
			}
			partials[i] = sum
		}
	})
	return
}

func sumSquares[T Real](f *Field[T]) float64 {
	d := f.Data()
	return floats.Sum(planeSums(f, func(ind int) float64 {
		v := float64(d[ind])
		return v * v
	}))
}

// Norm is the L2 norm over the interior, accumulated in float64
func Norm[T Real](f *Field[T]) float64 {
	return math.Sqrt(sumSquares(f))
}

// NormLevels is the L2 norm over the interior of every buffered time level, taken in slot order
func NormLevels[T Real](tf *TimeFunction[T]) float64 {
	levels := make([]float64, len(tf.buffers))
	for n, f := range tf.buffers {
		levels[n] = sumSquares(f)
	}
	return math.Sqrt(floats.Sum(levels))
}

// Dot is the inner product of a and b over the interior
func Dot[T Real](a, b *Field[T]) (dot float64, err error) {
	if err = sameLayout(a, b); err != nil {
		return
	}
	ad, bd := a.Data(), b.Data()
	dot = floats.Sum(planeSums(a, func(ind int) float64 {
		return float64(ad[ind]) * float64(bd[ind])
	}))
	return
}

// MaxAbs is the largest interior magnitude
func MaxAbs[T Real](f *Field[T]) float64 {
	var (
		shape = f.Grid.Shape()
		d     = f.Data()
	)
	return parallel.RangeReduceFloat64(0, shape[0], 0,
		func(low, high int) (result float64) {
			for i := low; i < high; i++ {
				for j := 0; j < shape[1]; j++ {
					base := f.Index(i, j, 0)
					for k := 0; k < shape[2]; k++ {
						result = math.Max(result, math.Abs(float64(d[base+k])))
					}
				}
			}
			return
		},
		math.Max,
	)
}
