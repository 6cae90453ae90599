// Package backend defines the device-facing contracts StreamSink and
// StreamSource are built against, plus a real implementation (malgo) and
// a loopback/in-memory one for tests and headless operation.
package backend

import "fmt"

// SampleFormat enumerates the interleaved PCM encodings a device may
// negotiate, per spec.md's hardware sample format list.
type SampleFormat int

const (
	FormatI8 SampleFormat = iota
	FormatU8
	FormatI16
	FormatU16
	FormatI32
	FormatU32
	FormatI64
	FormatU64
	FormatF32
	FormatF64
)

func (f SampleFormat) String() string {
	switch f {
	case FormatI8:
		return "i8"
	case FormatU8:
		return "u8"
	case FormatI16:
		return "i16"
	case FormatU16:
		return "u16"
	case FormatI32:
		return "i32"
	case FormatU32:
		return "u32"
	case FormatI64:
		return "i64"
	case FormatU64:
		return "u64"
	case FormatF32:
		return "f32"
	case FormatF64:
		return "f64"
	default:
		return "unknown"
	}
}

// BytesPerSample returns the on-wire width of one sample in this format.
func (f SampleFormat) BytesPerSample() int {
	switch f {
	case FormatI8, FormatU8:
		return 1
	case FormatI16, FormatU16:
		return 2
	case FormatI32, FormatU32, FormatF32:
		return 4
	case FormatI64, FormatU64, FormatF64:
		return 8
	default:
		panic(fmt.Sprintf("backend: unknown sample format %d", f))
	}
}

// StreamConfig describes the fixed parameters of one audio stream
// direction (capture or playback): sample rate, channel count, and wire
// format. Negotiated once at Open time; the stream runs at this
// configuration for its whole lifetime.
type StreamConfig struct {
	SampleRate uint32
	Channels   int
	Format     SampleFormat
	// PeriodMillis hints the device's preferred callback period. Zero lets
	// the backend choose.
	PeriodMillis uint32
}

// Callback is invoked on the device's real-time thread once per period.
// out holds interleaved samples already converted to float32 for a
// playback stream and must be filled by the callback; in holds
// interleaved float32 samples already converted from the device's wire
// format for a capture stream. Exactly one of in/out is non-empty,
// depending on direction. frames is the number of sample-frames (not
// individual samples) this callback covers.
//
// A Callback implementation must not allocate, block, or take a lock that
// a non-real-time goroutine might hold; this is the same discipline the
// device vendor's own callback contract imposes.
type Callback func(out, in []float32, frames int)

// Handle represents one open device stream. Closing it stops the device
// and releases any native resources.
type Handle interface {
	Close() error
}

// AudioBackend opens capture and playback streams against real or
// simulated hardware. Implementations: MalgoBackend (real audio I/O via
// gen2brain/malgo) and LoopbackBackend (in-memory, for tests and headless
// operation).
type AudioBackend interface {
	// OpenPlayback starts a playback stream at cfg, invoking cb once per
	// period on the device's callback thread until the returned Handle is
	// closed.
	OpenPlayback(cfg StreamConfig, cb Callback) (Handle, error)
	// OpenCapture starts a capture stream at cfg, invoking cb once per
	// period on the device's callback thread until the returned Handle is
	// closed.
	OpenCapture(cfg StreamConfig, cb Callback) (Handle, error)
}
