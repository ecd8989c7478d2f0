package FD3D

import (
	"fmt"
	"math"
	"unsafe"

	"github.com/exascience/pargo/parallel"
)

// Real is the element type of field storage, fixed per run
type Real interface {
	~float32 | ~float64
}

// Staggering is the per dimension offset at which a Field's values live
type Staggering uint8

const (
	NodeCentered Staggering = iota
	StaggerPlus             // +1/2 cell
	StaggerMinus            // -1/2 cell
)

func (s Staggering) String() string {
	switch s {
	case StaggerPlus:
		return "+1/2"
	case StaggerMinus:
		return "-1/2"
	}
	return "node"
}

// AllocLimitBytes caps the storage of a single Field, zero disables the cap
var AllocLimitBytes int64 = 1 << 40

/*
Field is a dense 3D array over a Grid with a halo of width SpaceOrder/2
on every face. Storage is x major with z contiguous:

	index = ((i+h)*nyp + (j+h))*nzp + (k+h)

where nyp, nzp are the padded extents. Interior logical indices run
from 0 to Shape-1, the halo is internal to the Field.
*/
type Field[T Real] struct {
	Name       string
	Grid       *Grid
	SpaceOrder int
	Halo       int
	Stagger    [3]Staggering
	padded     [3]int
	strides    [3]int
	data       []T
}

func NewField[T Real](name string, g *Grid, spaceOrder int, stagger [3]Staggering) (f *Field[T], err error) {
	if g == nil {
		err = fmt.Errorf("%w: field %s has no grid", ErrInvalidDimension, name)
		return
	}
	if spaceOrder < 2 || spaceOrder%2 != 0 {
		err = fmt.Errorf("%w: space order %d for field %s must be even and >= 2",
			ErrInvalidDimension, spaceOrder, name)
		return
	}
	var (
		halo   = spaceOrder / 2
		shape  = g.Shape()
		padded [3]int
		size   = 1
	)
	for n := 0; n < 3; n++ {
		padded[n] = shape[n] + 2*halo
		if size > math.MaxInt/padded[n] {
			err = fmt.Errorf("%w: field %s size overflows with padded shape %v",
				ErrOutOfMemory, name, padded)
			return
		}
		size *= padded[n]
	}
	var zero T
	elSize := int64(unsafe.Sizeof(zero))
	if AllocLimitBytes > 0 && int64(size) > AllocLimitBytes/elSize {
		err = fmt.Errorf("%w: field %s needs %d bytes, limit is %d",
			ErrOutOfMemory, name, int64(size)*elSize, AllocLimitBytes)
		return
	}
	f = &Field[T]{
		Name:       name,
		Grid:       g,
		SpaceOrder: spaceOrder,
		Halo:       halo,
		Stagger:    stagger,
		padded:     padded,
		strides:    [3]int{padded[1] * padded[2], padded[2], 1},
	}
	if f.data, err = allocate[T](size); err != nil {
		f = nil
		err = fmt.Errorf("field %s: %w", name, err)
	}
	return
}

func allocate[T Real](n int) (data []T, err error) {
	defer func() {
		if r := recover(); r != nil {
			data = nil
			err = fmt.Errorf("%w: %v", ErrOutOfMemory, r)
		}
	}()
	data = make([]T, n)
	return
}

func (f *Field[T]) Shape() [3]int   { return f.Grid.Shape() }
func (f *Field[T]) Padded() [3]int  { return f.padded }
func (f *Field[T]) Strides() [3]int { return f.strides }

// Data is the raw padded storage, kernels index it with Index
func (f *Field[T]) Data() []T { return f.data }

// Index is the unchecked storage offset of interior point (i,j,k)
func (f *Field[T]) Index(i, j, k int) int {
	h := f.Halo
	return ((i+h)*f.padded[1]+(j+h))*f.padded[2] + (k + h)
}

func (f *Field[T]) checkBounds(i, j, k int) (err error) {
	shape := f.Grid.Shape()
	if i < 0 || i >= shape[0] || j < 0 || j >= shape[1] || k < 0 || k >= shape[2] {
		err = fmt.Errorf("%w: index (%d,%d,%d) outside field %s of shape %v",
			ErrInvalidDimension, i, j, k, f.Name, shape)
	}
	return
}

func (f *Field[T]) At(i, j, k int) (val T, err error) {
	if err = f.checkBounds(i, j, k); err != nil {
		return
	}
	val = f.data[f.Index(i, j, k)]
	return
}

func (f *Field[T]) Set(i, j, k int, val T) (err error) {
	if err = f.checkBounds(i, j, k); err != nil {
		return
	}
	f.data[f.Index(i, j, k)] = val
	return
}

// Fill sets interior and halo to val
func (f *Field[T]) Fill(val T) {
	parallel.Range(0, len(f.data), 0, func(low, high int) {
		d := f.data[low:high]
		for i := range d {
			d[i] = val
		}
	})
}

func (f *Field[T]) Zero() { f.Fill(0) }

// SetFunc assigns every interior point from fn, the halo is untouched
func (f *Field[T]) SetFunc(fn func(i, j, k int) T) {
	shape := f.Grid.Shape()
	for i := 0; i < shape[0]; i++ {
		for j := 0; j < shape[1]; j++ {
			ind := f.Index(i, j, 0)
			for k := 0; k < shape[2]; k++ {
				f.data[ind+k] = fn(i, j, k)
			}
		}
	}
}

// SetInterior copies x major interior values into the field
func (f *Field[T]) SetInterior(values []T) (err error) {
	shape := f.Grid.Shape()
	if len(values) != f.Grid.NumPoints() {
		err = fmt.Errorf("%w: field %s has %d interior points, got %d values",
			ErrInvalidDimension, f.Name, f.Grid.NumPoints(), len(values))
		return
	}
	var n int
	for i := 0; i < shape[0]; i++ {
		for j := 0; j < shape[1]; j++ {
			ind := f.Index(i, j, 0)
			n += copy(f.data[ind:ind+shape[2]], values[n:n+shape[2]])
		}
	}
	return
}

// Snapshot returns an x major copy of the interior
func (f *Field[T]) Snapshot() (values []T) {
	shape := f.Grid.Shape()
	values = make([]T, 0, f.Grid.NumPoints())
	for i := 0; i < shape[0]; i++ {
		for j := 0; j < shape[1]; j++ {
			ind := f.Index(i, j, 0)
			values = append(values, f.data[ind:ind+shape[2]]...)
		}
	}
	return
}

// Copy returns a new Field with the same metadata and contents
func (f *Field[T]) Copy() (fc *Field[T]) {
	fc = &Field[T]{}
	*fc = *f
	fc.data = make([]T, len(f.data))
	copy(fc.data, f.data)
	return
}

func (f *Field[T]) CopyFrom(src *Field[T]) (err error) {
	if src.padded != f.padded || src.Halo != f.Halo {
		err = fmt.Errorf("%w: cannot copy field %s %v into %s %v",
			ErrInvalidDimension, src.Name, src.padded, f.Name, f.padded)
		return
	}
	copy(f.data, src.data)
	return
}

// Like allocates an empty Field sharing grid, order and staggering
func (f *Field[T]) Like(name string) (*Field[T], error) {
	return NewField[T](name, f.Grid, f.SpaceOrder, f.Stagger)
}
