// Package resample implements the low-latency, 4-point cubic Hermite
// interpolator used to pull a stream back to equilibrium when the device's
// actual sample rate drifts from its nominal rate. It is deliberately not
// an offline/high-quality resampler: it trades spectral purity for O(1)
// work per output sample on the real-time callback path.
package resample

import "math"

// maxNewSamplesPerOutput bounds new_samples_needed for the ratio range the
// controller is allowed to produce ([0.87, 1.15], see drift.Settings), with
// headroom for the wider [0, 1.5] range spec.md's testable properties use.
// Callers preallocate scratch buffers of this size.
const maxNewSamplesPerOutput = 2

// MaxNewSamplesPerOutput is the capacity callers must reserve per channel
// in their scratch buffers before calling Step.
const MaxNewSamplesPerOutput = maxNewSamplesPerOutput

// Hermite performs 4-point cubic Hermite (Catmull-Rom-like) interpolation
// between x1 and x2, at fractional position t in [0,1). At t=0 it returns
// x1 exactly; as t approaches 1 it approaches x2.
func Hermite(x0, x1, x2, x3 float64, t float64) float64 {
	diff := x1 - x2
	c1 := x2 - x0
	c3 := x3 - x0 + 3*diff
	c2 := -(2*diff + c1 + c3)
	return 0.5*(((c3*t+c2)*t)+c1)*t + x1
}

// NewSamplesNeeded returns the number of fresh input samples the caller
// must supply before the next call to Step, given the current resampling
// ratio and fractional time index.
func NewSamplesNeeded(ratio, t float64) int {
	return int(math.Floor(t + ratio))
}

// LookbackMatrix holds, for each channel, the 4 most recently consumed
// input samples used as Hermite control points. It is a flat
// channel-major buffer rather than a slice of [4]float32 so that Column
// returns a directly mutable view, per the per-channel-lookback design
// note: a 2-D matrix with column views eases passing individual channels
// into the resampler without copying.
type LookbackMatrix struct {
	data     []float32
	channels int
}

// NewLookbackMatrix allocates a zero-initialized lookback buffer for the
// given channel count.
func NewLookbackMatrix(channels int) *LookbackMatrix {
	return &LookbackMatrix{
		data:     make([]float32, 4*channels),
		channels: channels,
	}
}

// Column returns the mutable 4-sample lookback window for channel ch.
func (m *LookbackMatrix) Column(ch int) []float32 {
	return m.data[ch*4 : ch*4+4]
}

// Reset zeroes every channel's lookback window.
func (m *LookbackMatrix) Reset() {
	for i := range m.data {
		m.data[i] = 0
	}
}

// Seed primes a channel's lookback window with the last 3 freshly popped
// samples, as required when compensation first engages: L[1..3] are set
// and L[0] stays at whatever it held before (zero on first arm).
func (m *LookbackMatrix) Seed(ch int, s1, s2, s3 float32) {
	col := m.Column(ch)
	col[1], col[2], col[3] = s1, s2, s3
}

// Step computes one interpolated output sample for channel column using
// the current fractional time t, then consumes newSamples (as many as
// NewSamplesNeeded(ratio, t) returned) by rotating them into the lookback
// window. It does not itself advance t; callers advance the shared
// fractional time once per output frame via Advance, since t and ratio are
// shared across all channels of a frame.
func Step(column []float32, t float64, newSamples []float32) float32 {
	out := Hermite(float64(column[0]), float64(column[1]), float64(column[2]), float64(column[3]), t)
	for _, s := range newSamples {
		column[0], column[1], column[2] = column[1], column[2], column[3]
		column[3] = s
	}
	return float32(out)
}

// Advance returns the fractional time index after producing one output
// sample at the given ratio, i.e. t+ratio folded back into [0,1). The
// number of whole input samples consumed while folding equals
// NewSamplesNeeded(ratio, t).
func Advance(ratio, t float64) float64 {
	t += ratio
	for t >= 1 {
		t -= 1
	}
	return t
}
