// Package intermittent implements the timestamp-normalizing source wrapper
// used for device-local event streams (MIDI, control messages) whose
// timestamps arrive on a clock unrelated to the audio stream's epoch.
package intermittent

import "time"

// DeltaDuration is a signed duration: the difference between two
// monotonic timestamps, kept as a magnitude plus a sign so that
// subtracting a later timestamp from an earlier one is representable
// without wrapping, per spec.md's D type.
type DeltaDuration struct {
	magnitude time.Duration
	negative  bool
}

// PositiveDelta returns the delta +d; it is negative if d is negative.
func PositiveDelta(d time.Duration) DeltaDuration {
	if d < 0 {
		return DeltaDuration{magnitude: -d, negative: true}
	}
	return DeltaDuration{magnitude: d}
}

// NegativeDelta returns the delta -d; it is positive if d is negative.
func NegativeDelta(d time.Duration) DeltaDuration {
	if d < 0 {
		return DeltaDuration{magnitude: -d}
	}
	return DeltaDuration{magnitude: d, negative: d != 0}
}

// DeltaBetween returns the signed delta from - to, i.e. the duration that,
// added to from, yields to.
func DeltaBetween(from, to time.Time) DeltaDuration {
	d := to.Sub(from)
	if d < 0 {
		return DeltaDuration{magnitude: -d, negative: true}
	}
	return DeltaDuration{magnitude: d}
}

// AddTo applies the delta to t, producing the corresponding instant on t's
// clock.
func (d DeltaDuration) AddTo(t time.Time) time.Time {
	if d.negative {
		return t.Add(-d.magnitude)
	}
	return t.Add(d.magnitude)
}

// IsNegative reports whether the delta moves time backwards.
func (d DeltaDuration) IsNegative() bool { return d.negative }

// Duration returns the unsigned magnitude of the delta.
func (d DeltaDuration) Duration() time.Duration { return d.magnitude }
