package backend

import (
	"fmt"

	"github.com/gen2brain/malgo"
)

// MalgoBackend opens real audio devices via gen2brain/malgo. It always
// negotiates 32-bit float with the hardware (the format every platform
// backend malgo wraps can produce natively without an extra conversion
// pass of its own) and hands callbacks float32 samples decoded with the
// FormatF32 codec. StreamConfig.Format is not consulted: no other wire
// format is negotiated or converted.
type MalgoBackend struct {
	ctx *malgo.AllocatedContext
}

// NewMalgoBackend initializes a malgo audio context. The context is
// shared by every stream opened through this backend and freed when
// Close is called.
func NewMalgoBackend() (*MalgoBackend, error) {
	ctx, err := malgo.InitContext(nil, malgo.ContextConfig{}, nil)
	if err != nil {
		return nil, fmt.Errorf("backend: initialize audio context: %w", err)
	}
	return &MalgoBackend{ctx: ctx}, nil
}

// Close releases the underlying malgo context. Every Handle returned by
// this backend must be closed first.
func (m *MalgoBackend) Close() error {
	if m.ctx == nil {
		return nil
	}
	if err := m.ctx.Uninit(); err != nil {
		return fmt.Errorf("backend: uninit audio context: %w", err)
	}
	m.ctx.Free()
	m.ctx = nil
	return nil
}

type malgoHandle struct {
	device *malgo.Device
}

func (h *malgoHandle) Close() error {
	h.device.Stop()
	h.device.Uninit()
	return nil
}

func (m *MalgoBackend) OpenPlayback(cfg StreamConfig, cb Callback) (Handle, error) {
	return m.open(malgo.Playback, cfg, cb)
}

func (m *MalgoBackend) OpenCapture(cfg StreamConfig, cb Callback) (Handle, error) {
	return m.open(malgo.Capture, cfg, cb)
}

func (m *MalgoBackend) open(kind malgo.DeviceType, cfg StreamConfig, cb Callback) (Handle, error) {
	deviceConfig := malgo.DefaultDeviceConfig(kind)
	switch kind {
	case malgo.Playback:
		deviceConfig.Playback.Format = malgo.FormatF32
		deviceConfig.Playback.Channels = uint32(cfg.Channels)
	case malgo.Capture:
		deviceConfig.Capture.Format = malgo.FormatF32
		deviceConfig.Capture.Channels = uint32(cfg.Channels)
	}
	deviceConfig.SampleRate = cfg.SampleRate
	if cfg.PeriodMillis > 0 {
		deviceConfig.PeriodSizeInMilliseconds = cfg.PeriodMillis
	}

	// Scratch float32 buffers reused across callbacks; malgo hands us raw
	// bytes in the negotiated device format (always f32 here), so only the
	// slice header needs reinterpreting, not a copy per sample.
	var inFloats, outFloats []float32

	deviceCallbacks := malgo.DeviceCallbacks{
		Data: func(pOutputSample, pInputSamples []byte, framecount uint32) {
			frames := int(framecount)
			n := frames * cfg.Channels

			switch kind {
			case malgo.Capture:
				if cap(inFloats) < n {
					inFloats = make([]float32, 0, n)
				}
				inFloats = decodeInterleaved(FormatF32, pInputSamples, inFloats[:0])
				cb(nil, inFloats, frames)
			case malgo.Playback:
				if cap(outFloats) < n {
					outFloats = make([]float32, n)
				}
				outFloats = outFloats[:n]
				for i := range outFloats {
					outFloats[i] = 0
				}
				cb(outFloats, nil, frames)
				encodeInterleaved(FormatF32, outFloats, pOutputSample)
			}
		},
	}

	device, err := malgo.InitDevice(m.ctx.Context, deviceConfig, deviceCallbacks)
	if err != nil {
		return nil, fmt.Errorf("backend: init device: %w", err)
	}
	if err := device.Start(); err != nil {
		device.Uninit()
		return nil, fmt.Errorf("backend: start device: %w", err)
	}
	return &malgoHandle{device: device}, nil
}
