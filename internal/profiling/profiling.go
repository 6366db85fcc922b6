// Package profiling provides a tiny per-frame CPU timer: a package-level,
// mutex-guarded map from operation name to accumulated duration, reset once
// per frame by the caller. Adapted from the teacher's
// internal/profiling/profiling.go, trimmed to the calls this module's
// allocator, mesher and world façade actually make (the teacher's render-
// loop-oriented top-N console formatting has no caller here, since the
// core has no render loop of its own).
package profiling

import (
	"maps"
	"sync"
	"time"
)

var (
	mu          sync.Mutex
	frameTotals = make(map[string]time.Duration)
)

// Track returns a stop function that records the elapsed time under name.
// Usage: defer profiling.Track("world.UpdateState")()
func Track(name string) func() {
	start := time.Now()
	return func() {
		d := time.Since(start)
		mu.Lock()
		frameTotals[name] += d
		mu.Unlock()
	}
}

// ResetFrame clears current per-frame totals. A host application calls
// this once per frame, before the next SetVoxel/UpdateState/UpdatePosition/
// BuildDrawList cycle; the core itself never calls it.
func ResetFrame() {
	mu.Lock()
	for k := range frameTotals {
		delete(frameTotals, k)
	}
	mu.Unlock()
}

// Snapshot returns a copy of the current per-frame totals.
func Snapshot() map[string]time.Duration {
	mu.Lock()
	defer mu.Unlock()
	out := make(map[string]time.Duration, len(frameTotals))
	maps.Copy(out, frameTotals)
	return out
}

// Total returns the sum of all tracked durations this frame.
func Total() time.Duration {
	ss := Snapshot()
	var sum time.Duration
	for _, v := range ss {
		sum += v
	}
	return sum
}

// Add adds an arbitrary duration under name to the current frame totals,
// for callers that measure elapsed time themselves instead of using Track.
func Add(name string, d time.Duration) {
	if d <= 0 {
		return
	}
	mu.Lock()
	frameTotals[name] += d
	mu.Unlock()
}
