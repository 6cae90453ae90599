package stream

import (
	"github.com/agalue/streambridge/internal/drift"
	"github.com/agalue/streambridge/internal/resample"
	"github.com/agalue/streambridge/internal/ring"
)

// Sink consumes interleaved samples from a ring and writes them into a
// device output callback's buffer, resampling through a Hermite driver
// whenever the embedded drift controller has armed compensation. It is
// owned and called exclusively by the real-time output callback thread;
// the application thread only ever touches the ring's producer half.
type Sink struct {
	ring       *ring.Ring
	channels   int
	controller *drift.Controller
	lookback   *resample.LookbackMatrix
	scratch    [][]float32 // [channel][row], preallocated to MaxNewSamplesPerOutput
}

// NewSink builds a sink reading from r, emitting channels-wide interleaved
// frames, with the given PID/arming settings.
func NewSink(r *ring.Ring, channels int, settings drift.Settings) *Sink {
	scratch := make([][]float32, channels)
	for ch := range scratch {
		scratch[ch] = make([]float32, resample.MaxNewSamplesPerOutput)
	}
	return &Sink{
		ring:       r,
		channels:   channels,
		controller: drift.New(settings),
		lookback:   resample.NewLookbackMatrix(channels),
		scratch:    scratch,
	}
}

// Controller exposes the embedded drift controller for introspection
// (xrun counts, current strategy/ratio) and operator overrides
// (Disable/Reset).
func (s *Sink) Controller() *drift.Controller { return s.controller }

// OutputSamples fills bufOut, whose length must be a multiple of the
// sink's channel count, with samples popped (and possibly resampled) from
// the ring. measureXruns should be false during a startup window so early
// xruns don't prematurely arm compensation.
func (s *Sink) OutputSamples(bufOut []float32, measureXruns bool) {
	if len(bufOut)%s.channels != 0 {
		panic("stream: OutputSamples buffer length not a multiple of channel count")
	}

	ringSlots := s.ring.Slots()
	if ringSlots == s.ring.Capacity() {
		s.controller.RecordXrun(measureXruns)
	}

	if s.controller.Strategy() == drift.StrategyArmed {
		s.controller.Step(s.ring.Capacity())
	} else if s.controller.XrunCount() >= s.controller.CompensationThreshold() {
		if s.controller.TryArm(s.ring.Capacity()) {
			s.seedLookback()
		}
	}
	s.controller.RecordOccupancy(ringSlots)

	if s.controller.Strategy() == drift.StrategyArmed {
		s.outputArmed(bufOut)
		return
	}
	s.outputDirect(bufOut, measureXruns)
}

func (s *Sink) outputDirect(bufOut []float32, measureXruns bool) {
	for i := 0; i < len(bufOut); i++ {
		sample, ok := s.ring.Pop()
		if !ok {
			alignAfterPopFailure(s.ring, s.channels, i%s.channels)
			s.controller.RecordXrun(measureXruns)
			return
		}
		bufOut[i] = sample
	}
}

func (s *Sink) outputArmed(bufOut []float32) {
	frames := len(bufOut) / s.channels
	ratio := s.controller.Ratio()
	t := s.controller.Time()

	for frame := 0; frame < frames; frame++ {
		k := resample.NewSamplesNeeded(ratio, t)
		if !s.popColumn(k) {
			return
		}
		for ch := 0; ch < s.channels; ch++ {
			out := resample.Step(s.lookback.Column(ch), t, s.scratch[ch][:k])
			bufOut[frame*s.channels+ch] = out
		}
		t = resample.Advance(ratio, t)
	}
	s.controller.SetTime(t)
}

// popColumn pops k frames from the ring into the scratch matrix, row =
// new-sample index, column = channel. On a mid-frame pop failure it runs
// the alignment guard, counts an xrun, and reports failure so the caller
// stops filling the buffer for this call.
func (s *Sink) popColumn(k int) bool {
	for row := 0; row < k; row++ {
		for ch := 0; ch < s.channels; ch++ {
			sample, ok := s.ring.Pop()
			if !ok {
				alignAfterPopFailure(s.ring, s.channels, ch)
				s.controller.RecordXrun(true)
				return false
			}
			s.scratch[ch][row] = sample
		}
	}
	return true
}

func (s *Sink) seedLookback() {
	s.lookback.Reset()
	samples := make([][]float32, s.channels)
	for ch := range samples {
		samples[ch] = make([]float32, 3)
	}
	for row := 0; row < 3; row++ {
		for ch := 0; ch < s.channels; ch++ {
			sample, ok := s.ring.Pop()
			if ok {
				samples[ch][row] = sample
			}
		}
	}
	for ch := 0; ch < s.channels; ch++ {
		s.lookback.Seed(ch, samples[ch][0], samples[ch][1], samples[ch][2])
	}
}
