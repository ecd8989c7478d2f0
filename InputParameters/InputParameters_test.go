package InputParameters

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	var (
		ip        = &InputParameters3D{}
		fileInput = []byte(`
########################################
Title: "Iso example"
Shape: [101, 101, 101]
Spacing: [10, 10, 10]
SpaceOrder: 8
Precision: float32
TimeAxis:
  Start: 0
  Stop: 249
  Step: 1
Materials:
  B: 1.0
  Vel: 1.5
  WOverQ: 1.0
  BTensor: [null, 0, 0.5]
Source:
  F0: 0.01
  Coordinates:
    - [500, 500, 500]
  DropMisplaced: true
Formulation: tensor
BlockSize: [19, 8]
LogFrequency: 50
########################################
`)
	)
	require.NoError(t, ip.Parse(fileInput))
	assert.Equal(t, "Iso example", ip.Title)
	assert.Equal(t, [3]int{101, 101, 101}, ip.Shape)
	assert.Equal(t, [3]float64{10, 10, 10}, ip.Spacing)
	assert.Equal(t, [3]float64{}, ip.Origin)
	assert.Equal(t, 8, ip.SpaceOrder)
	assert.Equal(t, 249., ip.TimeAxis.Stop)
	require.NotNil(t, ip.Materials.Vel)
	assert.Equal(t, 1.5, *ip.Materials.Vel)
	assert.Nil(t, ip.Materials.BTensor[0])
	require.NotNil(t, ip.Materials.BTensor[1])
	assert.Equal(t, 0., *ip.Materials.BTensor[1])
	assert.Equal(t, 0.5, *ip.Materials.BTensor[2])
	assert.Equal(t, [][3]float64{{500, 500, 500}}, ip.Source.Coordinates)
	assert.True(t, ip.Source.DropMisplaced)
	assert.Equal(t, "tensor", ip.Formulation)
	assert.Equal(t, [2]int{19, 8}, ip.BlockSize)
	assert.Equal(t, 50, ip.LogFrequency)
	ip.Print()

	assert.Error(t, ip.Parse([]byte("Shape: [1, 2")))

	{ // Omitted materials stay unset, explicit zeros are kept
		ip := &InputParameters3D{}
		require.NoError(t, ip.Parse([]byte("Materials: {Vel: 2, WOverQ: 0}")))
		assert.Nil(t, ip.Materials.B)
		require.NotNil(t, ip.Materials.WOverQ)
		assert.Equal(t, 0., *ip.Materials.WOverQ)
		ip.Print()
	}
}
