package utils

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsFinite(t *testing.T) {
	assert.False(t, IsFinite([]float32{1, float32(math.NaN())}))
	assert.True(t, IsFinite([]float32{0, -1}))
	assert.False(t, IsFinite([]float64{1, math.Inf(-1)}))
}

func TestMemUsage(t *testing.T) {
	kv := MemUsage()
	assert.Equal(t, 8, len(kv))
	assert.Equal(t, "allocMiB", kv[0])
}
