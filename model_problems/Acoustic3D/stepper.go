package Acoustic3D

import (
	"fmt"
	"strings"

	"github.com/notargets/gofdtd/FD3D"
	"github.com/notargets/gofdtd/utils"
)

type Formulation uint8

const (
	FusedIso Formulation = iota // g~(b g(p)) evaluated per tile through tile local scratch
	Tensor                      // explicit P = B grad(p) fields followed by div(P)
)

var (
	formulationNames = map[string]Formulation{
		"iso":    FusedIso,
		"fused":  FusedIso,
		"tensor": Tensor,
	}
	formulationPrint = []string{"Iso, fused stencil", "Iso, explicit tensor"}
)

func NewFormulation(label string) (f Formulation, err error) {
	var ok bool
	if f, ok = formulationNames[strings.ToLower(strings.TrimSpace(label))]; !ok {
		err = fmt.Errorf("unknown formulation %q, must be one of iso, tensor", label)
	}
	return
}

func (f Formulation) Print() string {
	if int(f) < len(formulationPrint) {
		return formulationPrint[f]
	}
	return fmt.Sprintf("Formulation(%d)", uint8(f))
}

type State uint8

const (
	Uninitialized State = iota
	Ready
	Stepping
	Finished
)

func (s State) String() string {
	names := [...]string{"Uninitialized", "Ready", "Stepping", "Finished"}
	if int(s) < len(names) {
		return names[s]
	}
	return fmt.Sprintf("State(%d)", uint8(s))
}

/*
Materials are the medium properties: buoyancy b, velocity and the
attenuation rate omega/Q. BTensor holds optional diagonal components of
the buoyancy tensor used by the Tensor formulation, nil entries use B.
*/
type Materials[T FD3D.Real] struct {
	B, Vel, WOverQ *FD3D.Field[T]
	BTensor        [3]*FD3D.Field[T]
}

func (m Materials[T]) bAxis(axis FD3D.Dimension) *FD3D.Field[T] {
	if m.BTensor[axis] != nil {
		return m.BTensor[axis]
	}
	return m.B
}

type StepperConfig struct {
	Grid           *FD3D.Grid
	SpaceOrder     int
	TimeAxis       FD3D.TimeAxis
	Formulation    Formulation
	BlockSize      [2]int // x, y block sizes, performance only
	ParallelDegree int    // 0 selects NumCPU
}

// workspace is per worker scratch for the fused kernel
type workspace[T FD3D.Real] struct {
	q, lap []T
	so     []int
}

type axisTable[T FD3D.Real] struct {
	so []int // storage offsets in padded field layout
	w  []T
}

/*
TimeStepper advances the second order in time visco-acoustic update

	forward = dt^2 v^2/b * sum_axis g~(b g(current))
	        + (2 - dt w/Q) current + (dt w/Q - 1) backward
	        + dt^2 v^2/b * source

over blocked tiles of the interior. Tiles are spread over worker
goroutines and joined before sources are injected and the time levels
rotate.
*/
type TimeStepper[T FD3D.Real] struct {
	Cfg       StepperConfig
	Op        *FD3D.StencilOperator[T]
	P         *FD3D.TimeFunction[T]
	Materials Materials[T]
	Injectors []*FD3D.Injector[T]
	Tiles     []FD3D.Tile
	Scale     *FD3D.Field[T] // dt^2 v^2 / b
	Flux      [3]*FD3D.Field[T]
	pm        *utils.PartitionMap
	ws        []*workspace[T]
	g, gt     [3]axisTable[T]
	state     State
	step      int
	numSteps  int
}

func NewTimeStepper[T FD3D.Real](cfg StepperConfig) (ts *TimeStepper[T], err error) {
	if cfg.Grid == nil {
		err = fmt.Errorf("%w: time stepper needs a grid", FD3D.ErrInvalidDimension)
		return
	}
	ts = &TimeStepper[T]{
		Cfg:      cfg,
		numSteps: cfg.TimeAxis.NumSteps(),
	}
	if !(cfg.TimeAxis.Step > 0) {
		err = fmt.Errorf("%w: time axis step %g must be positive", FD3D.ErrInvalidDimension, cfg.TimeAxis.Step)
		ts = nil
		return
	}
	if ts.Op, err = FD3D.NewStencilOperator[T](cfg.Grid, cfg.SpaceOrder); err != nil {
		ts = nil
		return
	}
	if ts.P, err = FD3D.NewTimeFunction[T]("p", cfg.Grid, cfg.SpaceOrder, 2); err != nil {
		ts = nil
		return
	}
	ts.Tiles = FD3D.NewTiling(cfg.Grid, cfg.BlockSize)
	ts.pm = utils.NewPartitionMap(utils.ParallelDegree(cfg.ParallelDegree, len(ts.Tiles)), len(ts.Tiles))
	return
}

func (ts *TimeStepper[T]) State() State   { return ts.state }
func (ts *TimeStepper[T]) StepIndex() int { return ts.step }
func (ts *TimeStepper[T]) NumSteps() int  { return ts.numSteps }
func (ts *TimeStepper[T]) Workers() int   { return ts.pm.ParallelDegree }

func (ts *TimeStepper[T]) SetMaterials(m Materials[T]) (err error) {
	if ts.state != Uninitialized {
		err = fmt.Errorf("%w: materials set in state %s", FD3D.ErrInvalidState, ts.state)
		return
	}
	ts.Materials = m
	return
}

// AddSource registers a source; its time series must match the time axis sample for sample
func (ts *TimeStepper[T]) AddSource(inj *FD3D.Injector[T]) (err error) {
	if ts.state != Uninitialized {
		err = fmt.Errorf("%w: source added in state %s", FD3D.ErrInvalidState, ts.state)
		return
	}
	if inj.NumSteps() != ts.numSteps {
		err = fmt.Errorf("%w: source %s has %d samples, time axis has %d steps",
			FD3D.ErrInvalidDimension, inj.Source.Name, inj.NumSteps(), ts.numSteps)
		return
	}
	ts.Injectors = append(ts.Injectors, inj)
	return
}

/*
Initialize validates materials, precomputes the injection scale and the
strided stencil tables, allocates formulation storage and moves the
stepper to Ready. Initial conditions must already be in P.
*/
func (ts *TimeStepper[T]) Initialize() (err error) {
	if ts.state != Uninitialized {
		err = fmt.Errorf("%w: initialize called in state %s", FD3D.ErrInvalidState, ts.state)
		return
	}
	m := ts.Materials
	if m.B == nil || m.Vel == nil || m.WOverQ == nil {
		err = fmt.Errorf("%w: materials b, vel and wOverQ must be set before initialize", FD3D.ErrInvalidState)
		return
	}
	var (
		cur    = ts.P.Current()
		fields = []*FD3D.Field[T]{m.B, m.Vel, m.WOverQ}
	)
	for _, axis := range FD3D.Axes {
		if m.BTensor[axis] != nil {
			fields = append(fields, m.BTensor[axis])
		}
	}
	for _, f := range fields {
		if f.Padded() != cur.Padded() {
			err = fmt.Errorf("%w: material %s layout %v differs from wavefield %v",
				FD3D.ErrInvalidDimension, f.Name, f.Padded(), cur.Padded())
			return
		}
	}
	if ts.Scale, err = cur.Like("dt2v2b"); err != nil {
		return
	}
	var (
		dt           = T(ts.Cfg.TimeAxis.Step)
		sd           = ts.Scale.Data()
		bd, vd       = m.B.Data(), m.Vel.Data()
		strides      = cur.Strides()
		r            = ts.Op.Radius()
		maxTile      [3]int
		qSize, lSize int
	)
	for i := range sd {
		if bd[i] != 0 {
			sd[i] = dt * dt * vd[i] * vd[i] / bd[i]
		}
	}
	for _, axis := range FD3D.Axes {
		g := ts.Op.Table(axis, FD3D.ShiftPlus, 1)
		gt := ts.Op.Table(axis, FD3D.ShiftMinus, 1)
		ts.g[axis] = axisTable[T]{so: g.Strided(strides), w: g.Weights}
		ts.gt[axis] = axisTable[T]{w: gt.Weights}
		if ts.Cfg.Formulation == Tensor {
			ts.gt[axis].so = gt.Strided(strides)
			if ts.Flux[axis], err = cur.Like("P" + axis.String()); err != nil {
				return
			}
			ts.Flux[axis].Stagger[axis] = FD3D.StaggerPlus
		}
	}
	if ts.Cfg.Formulation == FusedIso {
		for _, tile := range ts.Tiles {
			for n := 0; n < 3; n++ {
				maxTile[n] = max(maxTile[n], tile.Hi[n]-tile.Lo[n])
			}
		}
		lSize = maxTile[0] * maxTile[1] * maxTile[2]
		for _, axis := range FD3D.Axes {
			ext := maxTile
			ext[axis] += 2 * r
			qSize = max(qSize, ext[0]*ext[1]*ext[2])
		}
		ts.ws = make([]*workspace[T], ts.pm.ParallelDegree)
		for np := range ts.ws {
			ts.ws[np] = &workspace[T]{
				q:   make([]T, qSize),
				lap: make([]T, lSize),
				so:  make([]int, len(ts.Op.Table(FD3D.X, FD3D.ShiftMinus, 1).Offsets)),
			}
		}
	}
	ts.state = Ready
	return
}

// Step advances one time level, it fails with ErrInvalidState before Initialize or after the last step
func (ts *TimeStepper[T]) Step() (err error) {
	switch ts.state {
	case Uninitialized, Finished:
		err = fmt.Errorf("%w: step called in state %s", FD3D.ErrInvalidState, ts.state)
		return
	}
	ts.state = Stepping
	switch ts.Cfg.Formulation {
	case Tensor:
		ts.pm.Run(func(np, kMin, kMax int) {
			for _, tile := range ts.Tiles[kMin:kMax] {
				ts.fluxTile(tile)
			}
		})
		ts.pm.Run(func(np, kMin, kMax int) {
			for _, tile := range ts.Tiles[kMin:kMax] {
				ts.divergenceTile(tile)
			}
		})
	default:
		ts.pm.Run(func(np, kMin, kMax int) {
			for _, tile := range ts.Tiles[kMin:kMax] {
				ts.fusedTile(ts.ws[np], tile)
			}
		})
	}
	var (
		fwd   = ts.P.Forward()
		sd    = ts.Scale.Data()
		scale = func(i, j, k int) T { return sd[fwd.Index(i, j, k)] }
	)
	for _, inj := range ts.Injectors {
		if err = inj.Inject(fwd, ts.step, scale); err != nil {
			return
		}
	}
	ts.P.Rotate()
	ts.step++
	if ts.step == ts.numSteps {
		ts.state = Finished
	}
	return
}
