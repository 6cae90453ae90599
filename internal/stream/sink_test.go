package stream

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agalue/streambridge/internal/drift"
	"github.com/agalue/streambridge/internal/ring"
)

// TestSinkUnderrunLeavesRemainderUntouched is boundary scenario F.
func TestSinkUnderrunLeavesRemainderUntouched(t *testing.T) {
	r := ring.New(512)
	for i := 0; i < 100; i++ {
		require.True(t, r.Push(float32(i+1)))
	}
	sink := NewSink(r, 1, drift.DefaultSettings())

	buf := make([]float32, 256)
	for i := range buf {
		buf[i] = -1
	}
	sink.OutputSamples(buf, true)

	for i := 0; i < 100; i++ {
		assert.Equal(t, float32(i+1), buf[i])
	}
	for i := 100; i < 256; i++ {
		assert.Equal(t, float32(-1), buf[i])
	}
	assert.Equal(t, uint64(1), sink.Controller().XrunCount())
	assert.Equal(t, 0, r.Slots()) // read cursor drained, and on a frame boundary (mono)
}

func TestSinkPassesThroughSamplesUnchangedWhenNotArmed(t *testing.T) {
	r := ring.New(16)
	for i := 0; i < 8; i++ {
		r.Push(float32(i))
	}
	sink := NewSink(r, 2, drift.DefaultSettings())
	buf := make([]float32, 8)
	sink.OutputSamples(buf, true)
	for i := 0; i < 8; i++ {
		assert.Equal(t, float32(i), buf[i])
	}
}

func TestSinkArmsAfterSustainedOverruns(t *testing.T) {
	capacity := 64
	r := ring.New(capacity)
	settings := drift.DefaultSettings()
	settings.CompensationThreshold = 5
	sink := NewSink(r, 1, settings)

	// Fill the ring to capacity and keep it there: a producer outpacing
	// this sink's consumption looks, from the sink's side, like the ring
	// is always full when it checks at the top of each callback.
	for i := 0; i < capacity; i++ {
		r.Push(float32(i))
	}

	buf := make([]float32, 4)
	for i := 0; i < 10; i++ {
		sink.OutputSamples(buf, true)
		for r.Slots() < capacity {
			r.Push(0)
		}
	}

	assert.Equal(t, drift.StrategyArmed, sink.Controller().Strategy())
}

// TestSinkRatioTrendsBelowOneUnderSustainedSupplyDeficit drives Sink through
// many simulated callbacks under a constant supply deficit (boundary
// scenario A: the upstream producer feeding the ring slower than this sink
// drains it, the same shape as a claimed 48000Hz stream actually arriving
// at a slower device rate). The ring starts half full and loses 6 samples
// per callback until it first runs dry after 42 callbacks; from then on
// every callback underruns and the occupancy recorded at each callback is
// 250, just below the controller's 256-sample (half-full) target. After
// that value has filled the rolling window the PID's error term stays
// negative, so the integral term pulls the resampling ratio below 1.0 by
// the end of the run.
func TestSinkRatioTrendsBelowOneUnderSustainedSupplyDeficit(t *testing.T) {
	capacity := 512
	r := ring.New(capacity)
	for i := 0; i < capacity/2; i++ {
		r.Push(float32(i))
	}
	sink := NewSink(r, 1, drift.DefaultSettings())

	buf := make([]float32, 256)
	const supplyPerCallback = 250 // short of the 256 this sink drains each call

	for i := 0; i < 15000; i++ {
		for j := 0; j < supplyPerCallback; j++ {
			if !r.Push(float32(i)) {
				break
			}
		}
		sink.OutputSamples(buf, true)
	}

	assert.Equal(t, drift.StrategyArmed, sink.Controller().Strategy())
	assert.Less(t, sink.Controller().Ratio(), 1.0)
}

func TestSinkRingSlotsNeverExceedCapacityAcrossCallbacks(t *testing.T) {
	capacity := 128
	r := ring.New(capacity)
	sink := NewSink(r, 2, drift.DefaultSettings())
	buf := make([]float32, 32)

	for i := 0; i < 50; i++ {
		for r.Slots() < capacity {
			if !r.Push(float32(i)) {
				break
			}
		}
		sink.OutputSamples(buf, true)
		assert.GreaterOrEqual(t, r.Slots(), 0)
		assert.LessOrEqual(t, r.Slots(), capacity)
	}
}
