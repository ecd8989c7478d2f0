package Acoustic3D

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/notargets/gofdtd/FD3D"
)

func newTestStepper(t *testing.T, f Formulation) (ts *TimeStepper[float64], m Materials[float64]) {
	g, err := FD3D.NewGrid([3]int{9, 8, 7}, [3]float64{10, 10, 10}, [3]float64{})
	require.NoError(t, err)
	ts, err = NewTimeStepper[float64](StepperConfig{
		Grid:        g,
		SpaceOrder:  4,
		TimeAxis:    FD3D.TimeAxis{Start: 0, Stop: 4, Step: 1},
		Formulation: f,
		BlockSize:   [2]int{4, 3},
	})
	require.NoError(t, err)
	for _, fp := range []**FD3D.Field[float64]{&m.B, &m.Vel, &m.WOverQ} {
		*fp, err = FD3D.NewField[float64]("m", g, 4, [3]FD3D.Staggering{})
		require.NoError(t, err)
	}
	m.B.Fill(1)
	m.Vel.Fill(1.5)
	m.WOverQ.Fill(0.1)
	return
}

func TestTimeStepperStates(t *testing.T) {
	{
		ts, m := newTestStepper(t, FusedIso)
		assert.Equal(t, Uninitialized, ts.State())
		assert.ErrorIs(t, ts.Step(), FD3D.ErrInvalidState)
		assert.ErrorIs(t, ts.Initialize(), FD3D.ErrInvalidState)
		require.NoError(t, ts.SetMaterials(m))
		require.NoError(t, ts.Initialize())
		assert.Equal(t, Ready, ts.State())
		assert.ErrorIs(t, ts.Initialize(), FD3D.ErrInvalidState)
		assert.ErrorIs(t, ts.SetMaterials(m), FD3D.ErrInvalidState)
		for n := 0; n < ts.NumSteps(); n++ {
			require.NoError(t, ts.Step())
			if n < ts.NumSteps()-1 {
				assert.Equal(t, Stepping, ts.State())
			}
		}
		assert.Equal(t, Finished, ts.State())
		assert.Equal(t, 5, ts.StepIndex())
		assert.Equal(t, 5, ts.P.Rotations())
		assert.ErrorIs(t, ts.Step(), FD3D.ErrInvalidState)
	}
	{ // Sources must match the time axis
		ts, _ := newTestStepper(t, Tensor)
		src, err := FD3D.NewSourceTerm("s", [][3]float64{{40, 40, 30}}, []float64{1, 2, 3})
		require.NoError(t, err)
		inj, err := FD3D.NewInjector[float64](src, ts.Cfg.Grid, false)
		require.NoError(t, err)
		assert.ErrorIs(t, ts.AddSource(inj), FD3D.ErrInvalidDimension)
	}
	{ // Material layout must match the wavefield
		ts, m := newTestStepper(t, FusedIso)
		var err error
		m.WOverQ, err = FD3D.NewField[float64]("wq", ts.Cfg.Grid, 2, [3]FD3D.Staggering{})
		require.NoError(t, err)
		require.NoError(t, ts.SetMaterials(m))
		assert.ErrorIs(t, ts.Initialize(), FD3D.ErrInvalidDimension)
	}
	{
		_, err := NewTimeStepper[float32](StepperConfig{})
		assert.ErrorIs(t, err, FD3D.ErrInvalidDimension)
	}
}

func TestTimeStepperUpdate(t *testing.T) {
	{ // A single step from a uniform field reproduces the damping recurrence
		ts, m := newTestStepper(t, FusedIso)
		require.NoError(t, ts.SetMaterials(m))
		require.NoError(t, ts.Initialize())
		ts.P.Current().Fill(2)
		ts.P.Backward().Fill(1)
		require.NoError(t, ts.Step())
		// Away from the faces the operator term vanishes on a constant
		v, _ := ts.P.Current().At(4, 4, 3)
		assert.InDelta(t, (2-0.1)*2+(0.1-1)*1, v, 1.e-12)
		prev, _ := ts.P.Backward().At(4, 4, 3)
		assert.Equal(t, 2., prev)
		// The halo of the new level is never written
		assert.Equal(t, 0., ts.P.Current().Data()[0])
	}
	{ // Fused and tensor steps agree from an arbitrary initial state
		var (
			fields [2]*FD3D.Field[float64]
		)
		for n, f := range []Formulation{FusedIso, Tensor} {
			ts, m := newTestStepper(t, f)
			m.B.SetFunc(func(i, j, k int) float64 { return 1 + 0.01*float64(i+2*j+3*k) })
			require.NoError(t, ts.SetMaterials(m))
			require.NoError(t, ts.Initialize())
			ts.P.Current().SetFunc(func(i, j, k int) float64 { return float64((i*7+j*3+k)%5) - 2 })
			for ts.State() != Finished {
				require.NoError(t, ts.Step())
			}
			fields[n] = ts.P.Current()
		}
		diff, scale := maxDiff(fields[0].Snapshot(), fields[1].Snapshot())
		assert.Less(t, diff, 1.e-12*scale)
	}
}

func TestEnumNames(t *testing.T) {
	assert.Equal(t, "Finished", Finished.String())
	assert.Equal(t, "State(9)", State(9).String())
	assert.Equal(t, "Iso, explicit tensor", Tensor.Print())
	assert.Equal(t, "Formulation(7)", Formulation(7).Print())
}
