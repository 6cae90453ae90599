package backend

import (
	"sync"
	"time"
)

// MIDIBackend is the transport contract for raw MIDI byte streams: a
// concrete implementation might be a USB-MIDI device, an RTP-MIDI
// session, or (as provided here) an in-memory loopback for tests and
// demos. Wiring a real MIDI transport is left external to this module,
// matching spec.md's treatment of the MIDI backend as an outside
// collaborator.
type MIDIBackend interface {
	// OpenInput starts delivering received MIDI bytes to cb, tagged with
	// the device-local time each chunk arrived, until the Handle closes.
	OpenInput(cb func(deviceTime time.Time, data []byte)) (Handle, error)
	// Send transmits raw MIDI bytes.
	Send(data []byte) error
}

// LoopbackMIDI pairs an input side and output side in memory: whatever is
// sent via Send is delivered to every open input callback, each tagged
// with the loopback's own clock.
type LoopbackMIDI struct {
	mu     sync.Mutex
	nextID int
	inputs map[int]func(time.Time, []byte)
	now    func() time.Time
}

// NewLoopbackMIDI returns a loopback MIDI transport. nowFn lets tests
// supply a deterministic clock; nil uses time.Now.
func NewLoopbackMIDI(nowFn func() time.Time) *LoopbackMIDI {
	if nowFn == nil {
		nowFn = time.Now
	}
	return &LoopbackMIDI{now: nowFn, inputs: make(map[int]func(time.Time, []byte))}
}

type loopbackMIDIHandle struct {
	backend *LoopbackMIDI
	id      int
}

func (h *loopbackMIDIHandle) Close() error {
	h.backend.mu.Lock()
	defer h.backend.mu.Unlock()
	delete(h.backend.inputs, h.id)
	return nil
}

func (m *LoopbackMIDI) OpenInput(cb func(deviceTime time.Time, data []byte)) (Handle, error) {
	m.mu.Lock()
	id := m.nextID
	m.nextID++
	m.inputs[id] = cb
	m.mu.Unlock()
	return &loopbackMIDIHandle{backend: m, id: id}, nil
}

func (m *LoopbackMIDI) Send(data []byte) error {
	m.mu.Lock()
	inputs := make([]func(time.Time, []byte), 0, len(m.inputs))
	for _, cb := range m.inputs {
		inputs = append(inputs, cb)
	}
	m.mu.Unlock()

	at := m.now()
	for _, cb := range inputs {
		cb(at, data)
	}
	return nil
}
