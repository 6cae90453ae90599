package backend

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestF32RoundTripIsExact(t *testing.T) {
	src := []float32{-1, -0.5, 0, 0.25, 0.999}
	wire := make([]byte, len(src)*4)
	encodeInterleaved(FormatF32, src, wire)
	got := decodeInterleaved(FormatF32, wire, nil)
	assert.Equal(t, src, got)
}

func TestI16RoundTripIsNearLossless(t *testing.T) {
	src := []float32{-1, -0.5, 0, 0.5, 0.999}
	wire := make([]byte, len(src)*2)
	encodeInterleaved(FormatI16, src, wire)
	got := decodeInterleaved(FormatI16, wire, nil)
	for i := range src {
		assert.InDelta(t, src[i], got[i], 1.0/32768)
	}
}

func TestU8FullScaleRoundTrip(t *testing.T) {
	src := []float32{-1, 0, 1}
	wire := make([]byte, len(src))
	encodeInterleaved(FormatU8, src, wire)
	got := decodeInterleaved(FormatU8, wire, nil)
	for i := range src {
		assert.InDelta(t, src[i], got[i], 1.0/128)
	}
}

func TestEncodeClampsOutOfRangeValues(t *testing.T) {
	wire := make([]byte, 4)
	assert.NotPanics(t, func() {
		encodeInterleaved(FormatI16, []float32{5.0, -5.0}, wire)
	})
	got := decodeInterleaved(FormatI16, wire, nil)
	assert.Equal(t, []float32{32767.0 / 32768, -1}, got)
}
