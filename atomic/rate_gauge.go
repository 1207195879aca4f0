// Package atomic provides a lock-free float64 gauge. The contest loop uses
// it to count finished contests, from which the driver derives the running
// contests-per-second rate it logs, without a mutex.
package atomic

import (
	"math"
	"sync/atomic"
	"unsafe"
)

// RateGauge encapsulates a float64 for non-locking atomic updates.
// WARNING: relies on the same unsafe-pointer trick as the teacher's
// AtomicFloat64; keep critical regions around the unsafe.Pointer short so
// the GC never has a chance to relocate the backing value out from under
// it.
type RateGauge struct {
	val float64
}

// NewRateGauge returns a gauge initialized to val.
func NewRateGauge(val float64) *RateGauge {
	return &RateGauge{val: val}
}

// Read atomically reads the current value, synchronized with main memory
// rather than a possibly-stale local copy.
func (g *RateGauge) Read() float64 {
	bits := atomic.LoadUint64((*uint64)(unsafe.Pointer(&g.val)))
	return math.Float64frombits(bits)
}

// Add atomically adds addend to the gauge. If another goroutine updates the
// value between the read and the compare-and-swap, the add fails instead of
// silently retrying: the caller decides whether to recompute and retry or
// drop the update.
func (g *RateGauge) Add(addend float64) (newVal float64, succeeded bool) {
	old := g.Read()
	newVal = old + addend
	succeeded = atomic.CompareAndSwapUint64(
		(*uint64)(unsafe.Pointer(&g.val)),
		math.Float64bits(old),
		math.Float64bits(newVal))
	return
}

// Set atomically overwrites the gauge, returning true on success.
func (g *RateGauge) Set(newVal float64) (succeeded bool) {
	old := g.Read()
	succeeded = atomic.CompareAndSwapUint64(
		(*uint64)(unsafe.Pointer(&g.val)),
		math.Float64bits(old),
		math.Float64bits(newVal))
	return
}
