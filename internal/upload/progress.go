package upload

import (
	"context"
	"iter"
	"time"
)

// DefaultProgressInterval is the tick of the simulated progress bar.
const DefaultProgressInterval = 200 * time.Millisecond

// Ramp is a simulated progress bar: Steps values from Base towards Target,
// never above Cap. It does not measure transferred bytes.
type Ramp struct {
	Base   int
	Target int
	Steps  int
	Cap    int
}

// singleRamp is 9, 18, ... 90 for one file.
var singleRamp = Ramp{Base: 0, Target: 90, Steps: 10, Cap: 95}

// batchRamp spans file i's share of the 0..100 range of an n-file batch.
func batchRamp(i, n int) Ramp {
	return Ramp{Base: i * 100 / n, Target: (i + 1) * 100 / n, Steps: 10, Cap: 95}
}

// Seq yields the ramp's values lazily.
func (r Ramp) Seq() iter.Seq[int] {
	return func(yield func(int) bool) {
		for step := 1; step <= r.Steps; step++ {
			v := r.Base + (r.Target-r.Base)*step/r.Steps
			if v > r.Cap {
				v = r.Cap
			}
			if !yield(v) {
				return
			}
		}
	}
}

// Run emits one value per interval until the ramp is exhausted or ctx ends.
func (r Ramp) Run(ctx context.Context, interval time.Duration, emit func(int)) {
	if interval <= 0 {
		interval = DefaultProgressInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for v := range r.Seq() {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			emit(v)
		}
	}
}

// runRamp starts r in the background and returns a func that stops it and
// waits for the last emit to return.
func runRamp(ctx context.Context, r Ramp, interval time.Duration, emit func(int)) (stop func()) {
	rctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	go func() {
		defer close(done)
		r.Run(rctx, interval, emit)
	}()
	return func() {
		cancel()
		<-done
	}
}
