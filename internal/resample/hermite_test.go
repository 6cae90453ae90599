package resample

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"pgregory.net/rapid"
)

func TestHermiteAtZeroReturnsX1Exactly(t *testing.T) {
	got := Hermite(1, 2, 3, 4, 0)
	assert.Equal(t, 2.0, got)
}

func TestHermiteApproachesX2NearOne(t *testing.T) {
	got := Hermite(1, 2, 3, 4, 1-1e-9)
	assert.InDelta(t, 3.0, got, 1e-6)
}

// TestHermiteBoundaries is invariant 4 from the testable properties.
func TestHermiteBoundaries(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		x0 := rapid.Float64Range(-1000, 1000).Draw(t, "x0")
		x1 := rapid.Float64Range(-1000, 1000).Draw(t, "x1")
		x2 := rapid.Float64Range(-1000, 1000).Draw(t, "x2")
		x3 := rapid.Float64Range(-1000, 1000).Draw(t, "x3")

		assert.Equal(t, x1, Hermite(x0, x1, x2, x3, 0))
		assert.InDelta(t, x2, Hermite(x0, x1, x2, x3, 1-1e-9), 1e-3)
	})
}

// TestNewSamplesNeededRange is invariant 3 from the testable properties:
// new_samples_needed(ratio, t) in {0,1,2} for ratio in [0,1.5], t in [0,1).
func TestNewSamplesNeededRange(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		ratio := rapid.Float64Range(0, 1.5).Draw(t, "ratio")
		ft := rapid.Float64Range(0, 0.999999).Draw(t, "t")

		n := NewSamplesNeeded(ratio, ft)
		if n < 0 || n > 2 {
			t.Fatalf("new_samples_needed(%v, %v) = %d, want in {0,1,2}", ratio, ft, n)
		}
	})
}

func TestStepRotatesLookbackByConsumedCount(t *testing.T) {
	m := NewLookbackMatrix(1)
	col := m.Column(0)
	col[0], col[1], col[2], col[3] = 1, 2, 3, 4

	ratio := 1.3
	tt := 0.5
	n := NewSamplesNeeded(ratio, tt)
	newSamples := []float32{5, 6}[:n]

	out := Step(col, tt, newSamples)
	assert.InDelta(t, float64(Hermite(1, 2, 3, 4, tt)), float64(out), 1e-6)
	assert.Equal(t, []float32{2, 3, 4, 5}, col)

	newT := Advance(ratio, tt)
	assert.GreaterOrEqual(t, newT, 0.0)
	assert.Less(t, newT, 1.0)
}

func TestLookbackSeedSetsTrailingThree(t *testing.T) {
	m := NewLookbackMatrix(2)
	m.Seed(1, 10, 20, 30)
	col := m.Column(1)
	assert.Equal(t, float32(0), col[0])
	assert.Equal(t, []float32{10, 20, 30}, col[1:])
}
