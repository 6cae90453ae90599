package stream

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/agalue/streambridge/internal/drift"
	"github.com/agalue/streambridge/internal/ring"
)

func TestSourcePassesThroughSamplesUnchangedWhenNotArmed(t *testing.T) {
	r := ring.New(32)
	src := NewSource(r, 2, drift.DefaultSettings(), 4)

	samples := []float32{1, 2, 3, 4, 5, 6}
	src.InputSamples(samples, true)

	got := make([]float32, 0, 6)
	for {
		s, ok := r.Pop()
		if !ok {
			break
		}
		got = append(got, s)
	}
	assert.Equal(t, samples, got)
}

func TestSourceArmsAfterSustainedLowWatermarkBreaches(t *testing.T) {
	capacity := 64
	r := ring.New(capacity)
	settings := drift.DefaultSettings()
	settings.CompensationThreshold = 5
	src := NewSource(r, 1, settings, 100) // watermark above capacity: always "lagging"

	for i := 0; i < 10; i++ {
		src.InputSamples([]float32{float32(i)}, true)
		for r.Slots() > 0 {
			r.Pop()
		}
	}

	assert.Equal(t, drift.StrategyArmed, src.Controller().Strategy())
}

func TestSourceNeverOverflowsRingCapacity(t *testing.T) {
	capacity := 16
	r := ring.New(capacity)
	src := NewSource(r, 1, drift.DefaultSettings(), 0)

	src.InputSamples(make([]float32, 64), true)
	assert.LessOrEqual(t, r.Slots(), capacity)
	assert.Equal(t, uint64(1), src.Controller().XrunCount())
}

func TestSourceQueueIsDroppedOnSustainedOverrun(t *testing.T) {
	capacity := 16
	r := ring.New(capacity)
	src := NewSource(r, 1, drift.DefaultSettings(), 0)

	for i := 0; i < 20; i++ {
		src.InputSamples(make([]float32, 8), true)
	}
	assert.Empty(t, src.queue)
}

// TestSourceRatioTrendsBelowOneUnderSustainedFreeSlotShortage is boundary
// scenario B's mirror of the Sink test above: a producer (this source)
// supplying the ring faster than a slow downstream consumer drains it, the
// shape of a claimed 48000Hz capture stream actually arriving faster than
// the nominal rate. The rolling average of free slots trends well below the
// controller's 0.5 target for the whole run, pinning the PID's error term
// negative once armed, same as Sink's deficit case above (Source averages
// free slots rather than occupied ones, but the arithmetic is identical).
func TestSourceRatioTrendsBelowOneUnderSustainedFreeSlotShortage(t *testing.T) {
	capacity := 512
	r := ring.New(capacity)
	src := NewSource(r, 1, drift.DefaultSettings(), 64)

	samples := make([]float32, 300) // more than the slow consumer below drains
	const drainPerCallback = 250

	for i := 0; i < 15000; i++ {
		src.InputSamples(samples, true)
		for j := 0; j < drainPerCallback; j++ {
			if _, ok := r.Pop(); !ok {
				break
			}
		}
	}

	assert.Equal(t, drift.StrategyArmed, src.Controller().Strategy())
	assert.Less(t, src.Controller().Ratio(), 1.0)
}

func TestSourceQueueDoesNotGrowUnboundedWhenRingDrained(t *testing.T) {
	capacity := 64
	r := ring.New(capacity)
	src := NewSource(r, 2, drift.DefaultSettings(), 0)

	for i := 0; i < 20; i++ {
		src.InputSamples([]float32{1, 2, 3, 4}, true)
		for r.Slots() > 0 {
			r.Pop()
		}
	}
	assert.Empty(t, src.queue)
}
