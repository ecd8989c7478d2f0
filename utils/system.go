package utils

import (
	"math"
	"runtime"
)

// MemUsage returns heap statistics as key value pairs for structured logging
func MemUsage() (kv []interface{}) {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	// For info on each, see: https://golang.org/pkg/runtime/#MemStats
	bToMb := func(b uint64) uint64 {
		return b / 1024 / 1024
	}
	return []interface{}{
		"allocMiB", bToMb(m.Alloc),
		"totalAllocMiB", bToMb(m.TotalAlloc),
		"sysMiB", bToMb(m.Sys),
		"numGC", m.NumGC,
	}
}

// IsFinite reports whether every element is neither NaN nor infinite
func IsFinite[T ~float32 | ~float64](A []T) bool {
	for _, f := range A {
		if math.IsNaN(float64(f)) || math.IsInf(float64(f), 0) {
			return false
		}
	}
	return true
}
