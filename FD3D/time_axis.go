package FD3D

import (
	"fmt"
	"math"
)

type TimeAxis struct {
	Start, Stop, Step float64
}

func NewTimeAxis(start, stop, step float64) (ta TimeAxis, err error) {
	if !(step > 0) || math.IsInf(step, 0) {
		err = fmt.Errorf("%w: time step %g must be positive", ErrInvalidDimension, step)
		return
	}
	if !(stop >= start) {
		err = fmt.Errorf("%w: time axis stop %g before start %g", ErrInvalidDimension, stop, start)
		return
	}
	ta = TimeAxis{Start: start, Stop: stop, Step: step}
	return
}

// NumSteps is floor((Stop-Start)/Step)+1, guarded against roundoff in the division
func (ta TimeAxis) NumSteps() int {
	ratio := (ta.Stop - ta.Start) / ta.Step
	return int(math.Floor(ratio*(1+1.e-12))) + 1
}

func (ta TimeAxis) Time(n int) float64 {
	return ta.Start + float64(n)*ta.Step
}

func (ta TimeAxis) Values() (t []float64) {
	t = make([]float64, ta.NumSteps())
	for n := range t {
		t[n] = ta.Time(n)
	}
	return
}

// SpacingMap extends the grid spacing map with the time step
func (ta TimeAxis) SpacingMap(g *Grid) (sm map[Dimension]float64) {
	sm = g.SpacingMap()
	sm[T] = ta.Step
	return
}

func (ta TimeAxis) String() string {
	return fmt.Sprintf("TimeAxis: start=%g, stop=%g, step=%g, num=%d",
		ta.Start, ta.Stop, ta.Step, ta.NumSteps())
}
