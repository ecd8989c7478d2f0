package Acoustic3D

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/notargets/gofdtd/FD3D"
	"github.com/notargets/gofdtd/logger"
	"github.com/notargets/gofdtd/utils"
)

// ErrUnstable is returned when the wavefield norm stops being finite
var ErrUnstable = errors.New("solution is not finite")

type Precision uint8

const (
	Float32 Precision = iota
	Float64
)

func NewPrecision(label string) (p Precision, err error) {
	switch strings.ToLower(strings.TrimSpace(label)) {
	case "float32", "single", "":
		p = Float32
	case "float64", "double":
		p = Float64
	default:
		err = fmt.Errorf("unknown precision %q, must be float32 or float64", label)
	}
	return
}

func (p Precision) String() string {
	if p == Float64 {
		return "float64"
	}
	return "float32"
}

// MaterialInit initializes a material Field, Values (x major over the interior) win over Uniform
type MaterialInit struct {
	Uniform float64
	Values  []float64
}

type SourceConfig struct {
	Coordinates   [][3]float64
	F0            float64   // Ricker peak frequency
	Amplitude     float64   // Ricker amplitude, 0 means 1
	T0            float64   // Ricker delay, 0 means 1/F0
	TimeSeries    []float64 // explicit wavelet, replaces the Ricker when set
	DropMisplaced bool      // skip out of domain points instead of failing
}

type Config struct {
	Title          string
	Shape          [3]int
	Spacing        [3]float64
	Origin         [3]float64
	SpaceOrder     int
	Precision      Precision
	TimeAxis       FD3D.TimeAxis
	B, Vel, WOverQ MaterialInit
	BTensor        [3]*MaterialInit // optional diagonal buoyancy components, nil falls back to B
	Source         SourceConfig
	Formulation    Formulation
	BlockSize      [2]int
	ParallelDegree int
	LogFrequency   int // steps between progress reports, 0 disables
}

/*
ScenarioConfig is the iso example: an n^3 grid of 10m cells, space order
8, a single Ricker source of peak frequency 0.01 at the centre, 250 steps
of dt=1 in a uniform medium with vel=1.5, b=1 and omega/Q=1.
*/
func ScenarioConfig(n int) (cfg Config) {
	var (
		spacing = 10.
		center  = spacing * float64((n-1)/2)
	)
	cfg = Config{
		Title:      "Iso visco-acoustic",
		Shape:      [3]int{n, n, n},
		Spacing:    [3]float64{spacing, spacing, spacing},
		SpaceOrder: 8,
		Precision:  Float32,
		TimeAxis:   FD3D.TimeAxis{Start: 0, Stop: 249, Step: 1},
		B:          MaterialInit{Uniform: 1},
		Vel:        MaterialInit{Uniform: 1.5},
		WOverQ:     MaterialInit{Uniform: 1},
		Source: SourceConfig{
			Coordinates: [][3]float64{{center, center, center}},
			F0:          0.010,
		},
		Formulation: FusedIso,
		BlockSize:   [2]int{19, 8},
	}
	return
}

type Result struct {
	Title       string
	Norm        float64 // over every buffered time level of the wavefield
	CurrentNorm float64 // over the most recent level only
	MaxAbs      float64
	Steps       int
	Elapsed     time.Duration
	BlockSize   [2]int
	Shape       [3]int
	TimeAxis    FD3D.TimeAxis
	Formulation Formulation
	Precision   Precision
}

func (r Result) Summary() string {
	return fmt.Sprintf("bx,by,norm; %3d %3d %12.6e\n\n%s\nnx,ny,nz; %5d %5d %5d",
		r.BlockSize[0], r.BlockSize[1], r.Norm, r.TimeAxis, r.Shape[0], r.Shape[1], r.Shape[2])
}

func (r Result) Print() {
	fmt.Printf("\n%s\n", r.Summary())
}

/*
Solver owns every Field of a run: the materials, the wavefield held by
the TimeStepper and the sources.
*/
type Solver[T FD3D.Real] struct {
	Cfg            Config
	Grid           *FD3D.Grid
	Stepper        *TimeStepper[T]
	Source         *FD3D.SourceTerm
	B, Vel, WOverQ *FD3D.Field[T]
	BTensor        [3]*FD3D.Field[T]
}

func NewSolver[T FD3D.Real](cfg Config) (s *Solver[T], err error) {
	s = &Solver[T]{Cfg: cfg}
	if s.Grid, err = FD3D.NewGrid(cfg.Shape, cfg.Spacing, cfg.Origin); err != nil {
		return nil, err
	}
	if _, err = FD3D.NewTimeAxis(cfg.TimeAxis.Start, cfg.TimeAxis.Stop, cfg.TimeAxis.Step); err != nil {
		return nil, err
	}
	if s.Stepper, err = NewTimeStepper[T](StepperConfig{
		Grid:           s.Grid,
		SpaceOrder:     cfg.SpaceOrder,
		TimeAxis:       cfg.TimeAxis,
		Formulation:    cfg.Formulation,
		BlockSize:      cfg.BlockSize,
		ParallelDegree: cfg.ParallelDegree,
	}); err != nil {
		return nil, err
	}
	if s.B, err = s.newMaterial("b", cfg.B); err != nil {
		return nil, err
	}
	if s.Vel, err = s.newMaterial("vel", cfg.Vel); err != nil {
		return nil, err
	}
	if s.WOverQ, err = s.newMaterial("wOverQ", cfg.WOverQ); err != nil {
		return nil, err
	}
	for _, axis := range FD3D.Axes {
		if cfg.BTensor[axis] == nil {
			continue
		}
		if s.BTensor[axis], err = s.newMaterial("b"+axis.String(), *cfg.BTensor[axis]); err != nil {
			return nil, err
		}
	}
	if err = s.Stepper.SetMaterials(Materials[T]{
		B: s.B, Vel: s.Vel, WOverQ: s.WOverQ, BTensor: s.BTensor,
	}); err != nil {
		return nil, err
	}
	if err = s.buildSource(); err != nil {
		return nil, err
	}
	if err = s.Stepper.Initialize(); err != nil {
		return nil, err
	}
	return
}

func (s *Solver[T]) newMaterial(name string, mi MaterialInit) (f *FD3D.Field[T], err error) {
	if f, err = FD3D.NewField[T](name, s.Grid, s.Cfg.SpaceOrder, [3]FD3D.Staggering{}); err != nil {
		return
	}
	if len(mi.Values) == 0 {
		// Uniform materials extend through the halo
		f.Fill(T(mi.Uniform))
		return
	}
	values := make([]T, len(mi.Values))
	for i, v := range mi.Values {
		values[i] = T(v)
	}
	if err = f.SetInterior(values); err != nil {
		err = fmt.Errorf("material %s: %w", name, err)
	}
	return
}

func (s *Solver[T]) buildSource() (err error) {
	var (
		sc  = s.Cfg.Source
		inj *FD3D.Injector[T]
	)
	if len(sc.Coordinates) == 0 {
		return
	}
	switch {
	case len(sc.TimeSeries) != 0:
		s.Source, err = FD3D.NewSourceTerm("src", sc.Coordinates, sc.TimeSeries)
	default:
		amp := sc.Amplitude
		if amp == 0 {
			amp = 1
		}
		if !(sc.F0 > 0) {
			return fmt.Errorf("%w: ricker peak frequency %g must be positive", FD3D.ErrInvalidDimension, sc.F0)
		}
		s.Source, err = FD3D.NewSourceTerm("src", sc.Coordinates, FD3D.Ricker(sc.F0, s.Cfg.TimeAxis, amp, sc.T0))
	}
	if err != nil {
		return
	}
	if inj, err = FD3D.NewInjector[T](s.Source, s.Grid, sc.DropMisplaced); err != nil {
		return
	}
	return s.Stepper.AddSource(inj)
}

// Norm is the L2 norm of the current wavefield level
func (s *Solver[T]) Norm() float64 { return FD3D.Norm(s.Stepper.P.Current()) }

// NormLevels is the L2 norm over all buffered wavefield levels, the figure reported in Result.Summary
func (s *Solver[T]) NormLevels() float64 { return FD3D.NormLevels(s.Stepper.P) }

// Snapshot copies the current wavefield together with the number of completed steps
func (s *Solver[T]) Snapshot() FD3D.FieldSnapshot[T] { return s.Stepper.P.Snapshot() }

/*
Courant returns vmax*dt*sqrt(sum 1/h^2) and its stability limit 2/K,
where K is the sum of magnitudes of the staggered first derivative
weights. The limit ignores attenuation.
*/
func (s *Solver[T]) Courant() (courant, limit float64) {
	var (
		vmax    = FD3D.MaxAbs(s.Vel)
		spacing = s.Grid.Spacing()
		sum, K  float64
	)
	for n := 0; n < 3; n++ {
		sum += 1 / (spacing[n] * spacing[n])
	}
	courant = vmax * s.Cfg.TimeAxis.Step * math.Sqrt(sum)
	st, _ := FD3D.Coefficients(s.Cfg.SpaceOrder, FD3D.ShiftPlus, 1)
	for _, w := range st.Weights {
		K += math.Abs(w)
	}
	limit = 2 / K
	return
}

/*
Run steps the solution to the end of the time axis. Cancellation of ctx
is checked between steps, a cancelled run returns the context error and
the Result of the completed steps.
*/
func (s *Solver[T]) Run(ctx context.Context) (res Result, err error) {
	var (
		ts        = s.Stepper
		log       = logger.Logger()
		logFreq   = s.Cfg.LogFrequency
		start     = time.Now()
		courant   float64
		limit     float64
		normCheck float64
	)
	res = Result{
		Title:       s.Cfg.Title,
		BlockSize:   s.Cfg.BlockSize,
		Shape:       s.Cfg.Shape,
		TimeAxis:    s.Cfg.TimeAxis,
		Formulation: s.Cfg.Formulation,
		Precision:   s.Cfg.Precision,
	}
	courant, limit = s.Courant()
	log.Infow("starting solve",
		"title", s.Cfg.Title,
		"formulation", s.Cfg.Formulation.Print(),
		"precision", s.Cfg.Precision.String(),
		"shape", s.Cfg.Shape,
		"spaceOrder", s.Cfg.SpaceOrder,
		"steps", ts.NumSteps(),
		"tiles", len(ts.Tiles),
		"workers", ts.Workers(),
		"tilesPerWorker", ts.pm.Len(0),
		"courant", courant)
	if courant > limit {
		log.Warnw("courant number exceeds the stability limit", "courant", courant, "limit", limit)
	}
	for ts.State() != Finished {
		if err = ctx.Err(); err != nil {
			err = fmt.Errorf("solve cancelled after %d steps: %w", ts.StepIndex(), err)
			break
		}
		if err = ts.Step(); err != nil {
			break
		}
		if logFreq > 0 && (ts.StepIndex()%logFreq == 0 || ts.State() == Finished) {
			normCheck = s.Norm()
			if math.IsNaN(normCheck) || math.IsInf(normCheck, 0) {
				err = fmt.Errorf("%w: norm %g at step %d", ErrUnstable, normCheck, ts.StepIndex())
				break
			}
			log.Infow("step",
				"step", ts.StepIndex(),
				"time", s.Cfg.TimeAxis.Time(ts.StepIndex()),
				"norm", normCheck,
				"elapsed", time.Since(start))
			log.Debugw("memory", utils.MemUsage()...)
		}
	}
	res.Steps = ts.StepIndex()
	res.Elapsed = time.Since(start)
	res.Norm = s.NormLevels()
	res.CurrentNorm = s.Norm()
	res.MaxAbs = FD3D.MaxAbs(s.Stepper.P.Current())
	if err == nil && !utils.IsFinite(s.Stepper.P.Current().Data()) {
		err = fmt.Errorf("%w: final norm %g", ErrUnstable, res.CurrentNorm)
	}
	if err == nil {
		log.Infow("solve finished", "steps", res.Steps, "norm", res.Norm, "elapsed", res.Elapsed)
	}
	return
}

// RunConfig builds and runs a solver at the configured precision
func RunConfig(ctx context.Context, cfg Config) (res Result, err error) {
	switch cfg.Precision {
	case Float64:
		var s *Solver[float64]
		if s, err = NewSolver[float64](cfg); err != nil {
			return
		}
		return s.Run(ctx)
	default:
		var s *Solver[float32]
		if s, err = NewSolver[float32](cfg); err != nil {
			return
		}
		return s.Run(ctx)
	}
}
