package FD3D

import "fmt"

// AxisStencil is a Stencil along one axis with weights scaled by 1/h^Order
type AxisStencil[T Real] struct {
	Axis    Dimension
	Shift   Shift
	Offsets []int
	Weights []T
}

// Strided converts cell offsets to storage offsets for a field with the given strides
func (as AxisStencil[T]) Strided(strides [3]int) (so []int) {
	so = make([]int, len(as.Offsets))
	for n, o := range as.Offsets {
		so[n] = o * strides[as.Axis]
	}
	return
}

// Eval applies weights w at storage offsets so around ind
func Eval[T Real](data []T, ind int, so []int, w []T) (sum T) {
	for n, o := range so {
		sum += w[n] * data[ind+o]
	}
	return
}

/*
StencilOperator differentiates Fields on one grid with a fixed space
order. It binds the cached coefficient tables for each axis and shift,
scaled by that axis' spacing.

	g(f)  = Derivative(f, axis, ShiftPlus, 1)
	g~(f) = Derivative(f, axis, ShiftMinus, 1)

With zero halos g~ is the negative transpose of g over the interior,
so sum_axis g~(b g(f)) is self adjoint.
*/
type StencilOperator[T Real] struct {
	SpaceOrder int
	Grid       *Grid
	first      [3][3]AxisStencil[T] // [axis][shift+1]
	second     [3]AxisStencil[T]
}

func NewStencilOperator[T Real](g *Grid, spaceOrder int) (op *StencilOperator[T], err error) {
	op = &StencilOperator[T]{
		SpaceOrder: spaceOrder,
		Grid:       g,
	}
	spacing := g.Spacing()
	for _, axis := range Axes {
		h := spacing[axis]
		for _, shift := range []Shift{ShiftMinus, Centered, ShiftPlus} {
			var st Stencil
			if st, err = Coefficients(spaceOrder, shift, 1); err != nil {
				op = nil
				return
			}
			op.first[axis][shift+1] = scaleStencil[T](axis, st, h)
		}
		var st Stencil
		if st, err = Coefficients(spaceOrder, Centered, 2); err != nil {
			op = nil
			return
		}
		op.second[axis] = scaleStencil[T](axis, st, h*h)
	}
	return
}

func scaleStencil[T Real](axis Dimension, st Stencil, scale float64) (as AxisStencil[T]) {
	as = AxisStencil[T]{
		Axis:    axis,
		Shift:   st.Shift,
		Offsets: st.Offsets,
		Weights: make([]T, len(st.Weights)),
	}
	for n, w := range st.Weights {
		as.Weights[n] = T(w / scale)
	}
	return
}

func (op *StencilOperator[T]) Table(axis Dimension, shift Shift, order int) AxisStencil[T] {
	if order == 2 {
		return op.second[axis]
	}
	return op.first[axis][shift+1]
}

func (op *StencilOperator[T]) Radius() int { return op.SpaceOrder / 2 }

func (op *StencilOperator[T]) check(f *Field[T], axis Dimension, shift Shift, order int) (err error) {
	switch {
	case f.Grid.Shape() != op.Grid.Shape() || f.Grid.Spacing() != op.Grid.Spacing():
		err = fmt.Errorf("%w: field %s is not on the operator grid", ErrInvalidDimension, f.Name)
	case f.Halo < op.Radius():
		err = fmt.Errorf("%w: field %s halo %d is narrower than stencil radius %d",
			ErrInvalidDimension, f.Name, f.Halo, op.Radius())
	case axis > Z:
		err = fmt.Errorf("%w: %s is not a spatial axis", ErrInvalidDimension, axis)
	default:
		err = validateStencil(op.SpaceOrder, shift, order)
	}
	return
}

// Derivative returns a new Field holding the derivative over the interior, its halo is zero
func (op *StencilOperator[T]) Derivative(f *Field[T], axis Dimension, shift Shift, order int) (df *Field[T], err error) {
	if err = op.check(f, axis, shift, order); err != nil {
		return
	}
	stagger := f.Stagger
	stagger[axis] = combineStagger(stagger[axis], shift)
	if df, err = NewField[T](fmt.Sprintf("d%s%s", axis, f.Name), f.Grid, f.SpaceOrder, stagger); err != nil {
		return
	}
	err = op.DerivativeInto(df, f, axis, shift, order, FullTile(f.Grid))
	return
}

// DerivativeInto overwrites dst over tile with the derivative of f
func (op *StencilOperator[T]) DerivativeInto(dst, f *Field[T], axis Dimension, shift Shift, order int, tile Tile) (err error) {
	if err = op.check(f, axis, shift, order); err != nil {
		return
	}
	if dst.Padded() != f.Padded() {
		err = fmt.Errorf("%w: derivative target %s layout %v differs from %s %v",
			ErrInvalidDimension, dst.Name, dst.Padded(), f.Name, f.Padded())
		return
	}
	var (
		as       = op.Table(axis, shift, order)
		so       = as.Strided(f.Strides())
		w        = as.Weights
		src, out = f.Data(), dst.Data()
	)
	for i := tile.Lo[0]; i < tile.Hi[0]; i++ {
		for j := tile.Lo[1]; j < tile.Hi[1]; j++ {
			base := f.Index(i, j, 0)
			for k := tile.Lo[2]; k < tile.Hi[2]; k++ {
				out[base+k] = Eval(src, base+k, so, w)
			}
		}
	}
	return
}

// SelfAdjoint returns sum over axes of g~(b * g(f)), evaluated through intermediate Fields
func (op *StencilOperator[T]) SelfAdjoint(f, b *Field[T]) (lf *Field[T], err error) {
	if lf, err = f.Like("L" + f.Name); err != nil {
		return
	}
	for _, axis := range Axes {
		var gf, ggf *Field[T]
		if gf, err = op.Derivative(f, axis, ShiftPlus, 1); err != nil {
			return
		}
		if err = MulInto(gf, gf, b); err != nil {
			return
		}
		if ggf, err = op.Derivative(gf, axis, ShiftMinus, 1); err != nil {
			return
		}
		if err = AddInto(lf, lf, ggf); err != nil {
			return
		}
	}
	return
}

func combineStagger(s Staggering, shift Shift) Staggering {
	switch {
	case shift == ShiftPlus && s == NodeCentered:
		return StaggerPlus
	case shift == ShiftMinus && s == NodeCentered:
		return StaggerMinus
	}
	// A half shift back onto the node, or a full cell shift which lands on a node as well
	return NodeCentered
}

func sameLayout[T Real](fields ...*Field[T]) (err error) {
	for _, f := range fields[1:] {
		if f.Padded() != fields[0].Padded() {
			err = fmt.Errorf("%w: fields %s %v and %s %v differ in layout",
				ErrInvalidDimension, fields[0].Name, fields[0].Padded(), f.Name, f.Padded())
			return
		}
	}
	return
}

// MulInto sets dst = a*b over the interior
func MulInto[T Real](dst, a, b *Field[T]) (err error) {
	return MulTile(dst, a, b, FullTile(dst.Grid))
}

// MulTile sets dst = a*b over one tile
func MulTile[T Real](dst, a, b *Field[T], tile Tile) (err error) {
	if err = sameLayout(dst, a, b); err != nil {
		return
	}
	for i := tile.Lo[0]; i < tile.Hi[0]; i++ {
		for j := tile.Lo[1]; j < tile.Hi[1]; j++ {
			base := dst.Index(i, j, 0)
			for k := tile.Lo[2]; k < tile.Hi[2]; k++ {
				dst.data[base+k] = a.data[base+k] * b.data[base+k]
			}
		}
	}
	return
}

// AddInto sets dst = a+b over the interior
func AddInto[T Real](dst, a, b *Field[T]) (err error) {
	if err = sameLayout(dst, a, b); err != nil {
		return
	}
	forInterior(dst, func(ind int) {
		dst.data[ind] = a.data[ind] + b.data[ind]
	})
	return
}

func forInterior[T Real](f *Field[T], fn func(ind int)) {
	shape := f.Grid.Shape()
	for i := 0; i < shape[0]; i++ {
		for j := 0; j < shape[1]; j++ {
			base := f.Index(i, j, 0)
			for k := 0; k < shape[2]; k++ {
				fn(base + k)
			}
		}
	}
}
