package FD3D

import (
	"fmt"
	"math"
)

type Dimension uint8

const (
	X Dimension = iota
	Y
	Z
	T // Time, only present in spacing maps that carry the time step
)

// Axes is the fixed enumeration of spatial dimensions used by all kernels
var Axes = [3]Dimension{X, Y, Z}

func (d Dimension) String() string {
	switch d {
	case X:
		return "x"
	case Y:
		return "y"
	case Z:
		return "z"
	case T:
		return "t"
	}
	return fmt.Sprintf("Dimension(%d)", uint8(d))
}

/*
Grid is the discretized domain. It is immutable once created, Fields
hold a pointer to it and never modify it.

	Extent[i] = Spacing[i] * (Shape[i]-1)
*/
type Grid struct {
	shape   [3]int
	spacing [3]float64
	origin  [3]float64
}

func NewGrid(shape [3]int, spacing, origin [3]float64) (g *Grid, err error) {
	for n := 0; n < 3; n++ {
		if shape[n] <= 0 {
			err = fmt.Errorf("%w: shape[%s] = %d, must be positive",
				ErrInvalidDimension, Axes[n], shape[n])
			return
		}
		if !(spacing[n] > 0) || math.IsInf(spacing[n], 0) {
			err = fmt.Errorf("%w: spacing[%s] = %g, must be positive",
				ErrInvalidDimension, Axes[n], spacing[n])
			return
		}
		if math.IsNaN(origin[n]) || math.IsInf(origin[n], 0) {
			err = fmt.Errorf("%w: origin[%s] = %g, must be finite",
				ErrInvalidDimension, Axes[n], origin[n])
			return
		}
	}
	g = &Grid{
		shape:   shape,
		spacing: spacing,
		origin:  origin,
	}
	return
}

func (g *Grid) Shape() [3]int       { return g.shape }
func (g *Grid) Spacing() [3]float64 { return g.spacing }
func (g *Grid) Origin() [3]float64  { return g.origin }
func (g *Grid) NumPoints() (np int) { return g.shape[0] * g.shape[1] * g.shape[2] }

func (g *Grid) Extent() (extent [3]float64) {
	for n := 0; n < 3; n++ {
		extent[n] = g.spacing[n] * float64(g.shape[n]-1)
	}
	return
}

// SpacingMap maps each spatial dimension to its grid spacing
func (g *Grid) SpacingMap() (sm map[Dimension]float64) {
	sm = make(map[Dimension]float64, 4)
	for n, d := range Axes {
		sm[d] = g.spacing[n]
	}
	return
}

func (g *Grid) Contains(p [3]float64) bool {
	var (
		extent = g.Extent()
	)
	for n := 0; n < 3; n++ {
		// Tolerate roundoff at the upper face
		tol := 1.e-9 * math.Max(1, math.Abs(extent[n]))
		if p[n] < g.origin[n]-tol || p[n] > g.origin[n]+extent[n]+tol ||
			math.IsNaN(p[n]) {
			return false
		}
	}
	return true
}

// NearestNode resolves a physical coordinate to the closest interior node
func (g *Grid) NearestNode(p [3]float64) (ijk [3]int, err error) {
	if !g.Contains(p) {
		err = fmt.Errorf("%w: point (%g, %g, %g) outside domain %v + %v",
			ErrSourcePlacement, p[0], p[1], p[2], g.origin, g.Extent())
		return
	}
	for n := 0; n < 3; n++ {
		i := int(math.Round((p[n] - g.origin[n]) / g.spacing[n]))
		if i < 0 {
			i = 0
		}
		if i > g.shape[n]-1 {
			i = g.shape[n] - 1
		}
		ijk[n] = i
	}
	return
}

func (g *Grid) String() string {
	return fmt.Sprintf("nx,ny,nz; %5d %5d %5d", g.shape[0], g.shape[1], g.shape[2])
}
