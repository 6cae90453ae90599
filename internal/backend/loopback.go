package backend

import (
	"sync"
	"time"
)

// LoopbackBackend is an in-memory AudioBackend for tests and headless
// operation: it drives callbacks on a timer instead of real hardware, and
// lets a test capture what playback wrote or inject what capture reads.
// Mirrors the null/headless device pattern used when no real sound card
// is available.
type LoopbackBackend struct {
	mu      sync.Mutex
	handles []*loopbackHandle
}

// NewLoopbackBackend returns a backend that drives callbacks itself; no
// native resources are held.
func NewLoopbackBackend() *LoopbackBackend {
	return &LoopbackBackend{}
}

type loopbackHandle struct {
	stop chan struct{}
	wg   sync.WaitGroup

	mu  sync.Mutex
	buf []float32 // playback: samples written so far; capture: samples pending to feed
}

func (h *loopbackHandle) Close() error {
	close(h.stop)
	h.wg.Wait()
	return nil
}

// Captured returns everything a playback loopback has received so far.
func (h *loopbackHandle) Captured() []float32 {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]float32, len(h.buf))
	copy(out, h.buf)
	return out
}

// Inject appends samples a capture loopback will hand to its callback on
// subsequent periods.
func (h *loopbackHandle) Inject(samples []float32) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.buf = append(h.buf, samples...)
}

func (b *LoopbackBackend) OpenPlayback(cfg StreamConfig, cb Callback) (Handle, error) {
	h := &loopbackHandle{stop: make(chan struct{})}
	frames := periodFrames(cfg)
	out := make([]float32, frames*cfg.Channels)

	h.wg.Add(1)
	go func() {
		defer h.wg.Done()
		ticker := time.NewTicker(periodDuration(cfg, frames))
		defer ticker.Stop()
		for {
			select {
			case <-h.stop:
				return
			case <-ticker.C:
				for i := range out {
					out[i] = 0
				}
				cb(out, nil, frames)
				h.mu.Lock()
				h.buf = append(h.buf, out...)
				h.mu.Unlock()
			}
		}
	}()

	b.register(h)
	return h, nil
}

func (b *LoopbackBackend) OpenCapture(cfg StreamConfig, cb Callback) (Handle, error) {
	h := &loopbackHandle{stop: make(chan struct{})}
	frames := periodFrames(cfg)
	n := frames * cfg.Channels

	h.wg.Add(1)
	go func() {
		defer h.wg.Done()
		ticker := time.NewTicker(periodDuration(cfg, frames))
		defer ticker.Stop()
		for {
			select {
			case <-h.stop:
				return
			case <-ticker.C:
				h.mu.Lock()
				take := n
				if take > len(h.buf) {
					take = len(h.buf)
				}
				chunk := append([]float32(nil), h.buf[:take]...)
				h.buf = h.buf[take:]
				h.mu.Unlock()

				padded := make([]float32, n)
				copy(padded, chunk)
				cb(nil, padded, frames)
			}
		}
	}()

	b.register(h)
	return h, nil
}

func (b *LoopbackBackend) register(h *loopbackHandle) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handles = append(b.handles, h)
}

func periodFrames(cfg StreamConfig) int {
	ms := cfg.PeriodMillis
	if ms == 0 {
		ms = 20
	}
	return int(cfg.SampleRate) * int(ms) / 1000
}

func periodDuration(cfg StreamConfig, frames int) time.Duration {
	if cfg.SampleRate == 0 {
		return 20 * time.Millisecond
	}
	return time.Duration(frames) * time.Second / time.Duration(cfg.SampleRate)
}
