package utils

import (
	"math"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPartitionMap(t *testing.T) {
	{ // Test PartitionMap
		getHisto := func(K, Np int) (histo map[int]int) {
			pm := NewPartitionMap(Np, K)
			histo = make(map[int]int)
			for np := 0; np < pm.ParallelDegree; np++ {
				maxK := pm.Len(np)
				histo[maxK]++
			}
			return
		}
		getTotal := func(histo map[int]int) (total int) {
			for key, count := range histo {
				total += key * count
			}
			return
		}
		assert.Equal(t, map[int]int{0: 30, 1: 2}, getHisto(2, 32))
		assert.Equal(t, map[int]int{1: 32}, getHisto(32, 32))
		assert.Equal(t, map[int]int{8: 32}, getHisto(256, 32))
		assert.Equal(t, map[int]int{8: 1, 9: 31}, getHisto(287, 32))
		assert.Equal(t, 287, getTotal(getHisto(287, 32)))
		for n := 64; n < 2000; n++ {
			var (
				keys   [2]float64
				keyNum int
			)
			histo := getHisto(n, 32)
			for key := range histo {
				keys[keyNum] = float64(key)
				keyNum++
			}
			if keyNum == 2 {
				assert.Equal(t, 1., math.Abs(keys[0]-keys[1])) // Maximum imbalance of 1
			}
			assert.Equal(t, n, getTotal(histo))
		}
	}
	{ // Partitions are contiguous and ordered
		for maxIndex := 10; maxIndex < 300; maxIndex++ {
			pm := NewPartitionMap(5, maxIndex)
			var next int
			for np := 0; np < pm.ParallelDegree; np++ {
				kMin, kMax := pm.GetBucketRange(np)
				assert.Equal(t, next, kMin)
				next = kMax
			}
			assert.Equal(t, maxIndex, next)
		}
	}
}

func TestPartitionMapRun(t *testing.T) {
	var (
		pm      = NewPartitionMap(4, 103)
		visited = make([]int32, 103)
		calls   int32
	)
	pm.Run(func(np, kMin, kMax int) {
		atomic.AddInt32(&calls, 1)
		for k := kMin; k < kMax; k++ {
			atomic.AddInt32(&visited[k], 1)
		}
	})
	assert.Equal(t, int32(4), calls)
	for k := range visited {
		assert.Equal(t, int32(1), visited[k], "index %d", k)
	}
	// Empty partitions are skipped
	calls = 0
	NewPartitionMap(8, 3).Run(func(np, kMin, kMax int) {
		atomic.AddInt32(&calls, 1)
	})
	assert.Equal(t, int32(3), calls)
}

func TestParallelDegree(t *testing.T) {
	assert.Equal(t, 3, ParallelDegree(3, 100))
	assert.Equal(t, 5, ParallelDegree(8, 5))
	assert.Equal(t, 1, ParallelDegree(0, 0))
	assert.True(t, ParallelDegree(0, 1000) >= 1)
}
