package FD3D

import (
	"errors"
	"fmt"
	"math"

	"github.com/notargets/gofdtd/logger"
)

/*
SourceTerm is a set of point sources sharing one time series. The series
is aligned 1:1 with the solver's time axis.
*/
type SourceTerm struct {
	Name        string
	Coordinates [][3]float64
	TimeSeries  []float64
}

func NewSourceTerm(name string, coords [][3]float64, series []float64) (st *SourceTerm, err error) {
	if len(coords) == 0 {
		err = fmt.Errorf("%w: source %s has no points", ErrSourcePlacement, name)
		return
	}
	if len(series) == 0 {
		err = fmt.Errorf("%w: source %s has an empty time series", ErrInvalidDimension, name)
		return
	}
	st = &SourceTerm{
		Name:        name,
		Coordinates: coords,
		TimeSeries:  series,
	}
	return
}

// Ricker returns a*(1-2r^2)*exp(-r^2), r = pi*f0*(t-t0), sampled on the time axis; t0 <= 0 selects 1/f0
func Ricker(f0 float64, ta TimeAxis, amplitude, t0 float64) (w []float64) {
	if t0 <= 0 {
		t0 = 1 / f0
	}
	w = make([]float64, ta.NumSteps())
	for n := range w {
		r := math.Pi * f0 * (ta.Time(n) - t0)
		r2 := r * r
		w[n] = amplitude * (1 - 2*r2) * math.Exp(-r2)
	}
	return
}

func NewRickerSource(name string, coords [][3]float64, f0 float64, ta TimeAxis) (st *SourceTerm, err error) {
	if !(f0 > 0) {
		err = fmt.Errorf("%w: ricker peak frequency %g must be positive", ErrInvalidDimension, f0)
		return
	}
	return NewSourceTerm(name, coords, Ricker(f0, ta, 1, 0))
}

// ScaleFunc gives the injection scale at a node, e.g. dt^2 v^2 / b
type ScaleFunc[T Real] func(i, j, k int) T

/*
Injector adds a SourceTerm into a Field at nearest nodes. Node lookup is
done once, at construction.
*/
type Injector[T Real] struct {
	Source *SourceTerm
	Nodes  [][3]int
}

/*
NewInjector resolves every source point to a grid node. An out of domain
point fails with ErrSourcePlacement, unless dropMisplaced is set, in which
case the point is logged and skipped. Dropping every point is an error.
*/
func NewInjector[T Real](src *SourceTerm, g *Grid, dropMisplaced bool) (inj *Injector[T], err error) {
	inj = &Injector[T]{Source: src}
	var errs []error
	for n, p := range src.Coordinates {
		ijk, perr := g.NearestNode(p)
		if perr != nil {
			if !dropMisplaced {
				inj = nil
				err = fmt.Errorf("source %s point %d: %w", src.Name, n, perr)
				return
			}
			logger.Logger().Warnw("dropping misplaced source point",
				"source", src.Name, "point", n, "error", perr)
			errs = append(errs, perr)
			continue
		}
		inj.Nodes = append(inj.Nodes, ijk)
	}
	if len(inj.Nodes) == 0 {
		inj = nil
		err = fmt.Errorf("source %s has no points inside the domain: %w", src.Name, errors.Join(errs...))
	}
	return
}

func (inj *Injector[T]) NumSteps() int { return len(inj.Source.TimeSeries) }

/*
Inject adds scale(node)*TimeSeries[timeIndex] into target at every source
node. Contributions accumulate, several points may share a node.
*/
func (inj *Injector[T]) Inject(target *Field[T], timeIndex int, scale ScaleFunc[T]) (err error) {
	if timeIndex < 0 || timeIndex >= len(inj.Source.TimeSeries) {
		err = fmt.Errorf("%w: time index %d outside source %s series of length %d",
			ErrInvalidDimension, timeIndex, inj.Source.Name, len(inj.Source.TimeSeries))
		return
	}
	var (
		amp  = T(inj.Source.TimeSeries[timeIndex])
		data = target.Data()
	)
	for _, ijk := range inj.Nodes {
		if err = target.checkBounds(ijk[0], ijk[1], ijk[2]); err != nil {
			return
		}
		s := T(1)
		if scale != nil {
			s = scale(ijk[0], ijk[1], ijk[2])
		}
		data[target.Index(ijk[0], ijk[1], ijk[2])] += s * amp
	}
	return
}
