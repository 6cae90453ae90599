// Package stream implements the adaptive-resampling stream pair, Sink and
// Source, that each straddle the boundary between a real-time device
// callback and the application thread via an SPSC ring, engaging
// Hermite-interpolated resampling when the drift controller detects
// sustained rate mismatch.
package stream

import "github.com/agalue/streambridge/internal/ring"

// alignmentSpinLimit bounds the busy-wait an alignment guard may perform
// per burned slot. The audio callback must never suspend, but spec.md's
// concurrency model explicitly allows a bounded spin here: the guard only
// runs after a pathological xrun, and the opposite side is expected to
// catch up within microseconds, not indefinitely.
const alignmentSpinLimit = 4096

// alignAfterPopFailure restores the ring's read cursor to a frame boundary
// after a pop failed partway through frame at channel index failedAt. It
// discards whatever samples arrive for the remainder of that frame.
func alignAfterPopFailure(r *ring.Ring, channels, failedAt int) {
	remaining := (channels - failedAt) % channels
	for i := 0; i < remaining; i++ {
		for spin := 0; spin < alignmentSpinLimit; spin++ {
			if _, ok := r.Pop(); ok {
				break
			}
		}
	}
}

// alignAfterPushFailure restores the ring's write cursor to a frame
// boundary after a push failed partway through a frame, by pushing
// silence for the remainder of that frame.
func alignAfterPushFailure(r *ring.Ring, channels, failedAt int) {
	remaining := (channels - failedAt) % channels
	for i := 0; i < remaining; i++ {
		for spin := 0; spin < alignmentSpinLimit; spin++ {
			if r.Push(0) {
				break
			}
		}
	}
}
