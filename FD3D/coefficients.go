package FD3D

import (
	"fmt"
	"math"
	"sync"

	"gonum.org/v1/gonum/mat"
)

// Shift is the evaluation offset of a derivative in half cells
type Shift int8

const (
	ShiftMinus Shift = -1 // x - h/2
	Centered   Shift = 0
	ShiftPlus  Shift = 1 // x + h/2
)

func (s Shift) String() string {
	switch s {
	case ShiftMinus:
		return "-1/2"
	case ShiftPlus:
		return "+1/2"
	}
	return "0"
}

// Position of the evaluation point relative to node i, in cells
func (s Shift) Position() float64 { return 0.5 * float64(s) }

const MaxSpaceOrder = 32

/*
Stencil is a finite difference table: the derivative of order Order at
x_i + Shift*h/2 is

	sum_n Weights[n] * f[i+Offsets[n]] / h^Order

Tables are shared between all users and must not be modified.
*/
type Stencil struct {
	SpaceOrder int
	Shift      Shift
	Order      int
	Offsets    []int
	Weights    []float64
}

func (st Stencil) Radius() (r int) {
	for _, o := range st.Offsets {
		if o < 0 {
			o = -o
		}
		if o > r {
			r = o
		}
	}
	return
}

type stencilKey struct {
	spaceOrder, order int
	shift             Shift
}

type stencilEntry struct {
	once sync.Once
	st   Stencil
	err  error
}

var stencilCache sync.Map // stencilKey -> *stencilEntry

// Coefficients returns the cached table for a (space order, shift, order) triple, computing it on first use
func Coefficients(spaceOrder int, shift Shift, order int) (st Stencil, err error) {
	if err = validateStencil(spaceOrder, shift, order); err != nil {
		return
	}
	key := stencilKey{spaceOrder: spaceOrder, order: order, shift: shift}
	v, _ := stencilCache.LoadOrStore(key, &stencilEntry{})
	e := v.(*stencilEntry)
	e.once.Do(func() {
		e.st, e.err = computeStencil(spaceOrder, shift, order)
	})
	return e.st, e.err
}

func validateStencil(spaceOrder int, shift Shift, order int) (err error) {
	switch {
	case spaceOrder < 2 || spaceOrder%2 != 0 || spaceOrder > MaxSpaceOrder:
		err = fmt.Errorf("%w: space order %d must be even, between 2 and %d",
			ErrInvalidDimension, spaceOrder, MaxSpaceOrder)
	case shift < ShiftMinus || shift > ShiftPlus:
		err = fmt.Errorf("%w: unsupported shift %d", ErrInvalidDimension, shift)
	case order == 2 && shift != Centered:
		err = fmt.Errorf("%w: second derivative only supported centered", ErrInvalidDimension)
	case order < 1 || order > 2:
		err = fmt.Errorf("%w: derivative order %d not supported", ErrInvalidDimension, order)
	}
	return
}

func stencilOffsets(spaceOrder int, shift Shift) (offsets []int) {
	var (
		r      = spaceOrder / 2
		lo, hi int
	)
	switch shift {
	case ShiftPlus:
		lo, hi = -(r - 1), r
	case ShiftMinus:
		lo, hi = -r, r-1
	default:
		lo, hi = -r, r
	}
	offsets = make([]int, 0, hi-lo+1)
	for o := lo; o <= hi; o++ {
		offsets = append(offsets, o)
	}
	return
}

func computeStencil(spaceOrder int, shift Shift, order int) (st Stencil, err error) {
	var (
		offsets = stencilOffsets(spaceOrder, shift)
		x       = make([]float64, len(offsets))
	)
	for n, o := range offsets {
		x[n] = float64(o) - shift.Position()
	}
	st = Stencil{
		SpaceOrder: spaceOrder,
		Shift:      shift,
		Order:      order,
		Offsets:    offsets,
		Weights:    FornbergWeights(0, x, order)[order],
	}
	// Centered odd derivatives have an exact zero at the center node
	for n := range st.Weights {
		if math.Abs(st.Weights[n]) < 1.e-14 {
			st.Weights[n] = 0
		}
	}
	if resid := VerifyCoefficients(st); resid > 1.e-8 {
		err = fmt.Errorf("stencil so=%d shift=%s order=%d fails moment check, residual %g",
			spaceOrder, shift, order, resid)
	}
	return
}

/*
FornbergWeights returns finite difference weights at z for nodes x, for
all derivative orders 0..m: w[d][n] is the weight of node n for the d-th
derivative. From B. Fornberg, "Calculation of weights in finite
difference formulas", SIAM Review 40 (1998).
*/
func FornbergWeights(z float64, x []float64, m int) (w [][]float64) {
	var (
		n      = len(x)
		c1, c4 = 1., x[0] - z
	)
	w = make([][]float64, m+1)
	for d := range w {
		w[d] = make([]float64, n)
	}
	w[0][0] = 1
	for i := 1; i < n; i++ {
		var (
			mn = min(i, m)
			c2 = 1.
			c5 = c4
		)
		c4 = x[i] - z
		for j := 0; j < i; j++ {
			c3 := x[i] - x[j]
			c2 *= c3
			if j == i-1 {
				for k := mn; k >= 1; k-- {
					w[k][i] = c1 * (float64(k)*w[k-1][i-1] - c5*w[k][i-1]) / c2
				}
				w[0][i] = -c1 * c5 * w[0][i-1] / c2
			}
			for k := mn; k >= 1; k-- {
				w[k][j] = (c4*w[k][j] - float64(k)*w[k-1][j]) / c3
			}
			w[0][j] = c4 * w[0][j] / c3
		}
		c1 = c2
	}
	return
}

/*
VerifyCoefficients checks that a stencil differentiates monomials exactly
up to the degree its node count allows. With the moment matrix
A[m][n] = x_n^m the weights must satisfy A w = Order! e_Order. Returns
the largest residual, scaled by the magnitude of each row's terms.
*/
func VerifyCoefficients(st Stencil) (resid float64) {
	var (
		np = len(st.Offsets)
		A  = mat.NewDense(np, np, nil)
		W  = mat.NewVecDense(np, st.Weights)
		AW mat.VecDense
	)
	for n, o := range st.Offsets {
		x := float64(o) - st.Shift.Position()
		xm := 1.
		for m := 0; m < np; m++ {
			A.Set(m, n, xm)
			xm *= x
		}
	}
	AW.MulVec(A, W)
	for m := 0; m < np; m++ {
		var target, scale float64
		if m == st.Order {
			target = factorial(st.Order)
		}
		for n := 0; n < np; n++ {
			scale += math.Abs(A.At(m, n) * st.Weights[n])
		}
		r := math.Abs(AW.AtVec(m)-target) / (scale + 1)
		resid = math.Max(resid, r)
	}
	return
}

func factorial(n int) (f float64) {
	f = 1
	for i := 2; i <= n; i++ {
		f *= float64(i)
	}
	return
}
