package backend

import (
	"encoding/binary"
	"math"
)

// formatCodec converts one sample between a format's wire bytes and the
// float32 the rest of this module works in. formatCodecs is a
// package-level dispatch table keyed by SampleFormat, built once at
// package initialization; decodeInterleaved/encodeInterleaved look the
// codec up once per call rather than branching in the per-sample loop.
type formatCodec struct {
	decode func(b []byte) float32
	encode func(v float32, b []byte)
}

var formatCodecs = map[SampleFormat]formatCodec{
	FormatI8: {
		decode: func(b []byte) float32 { return float32(int8(b[0])) / 128 },
		encode: func(v float32, b []byte) { b[0] = byte(clampToInt(v*128, -128, 127)) },
	},
	FormatU8: {
		decode: func(b []byte) float32 { return float32(b[0])/128 - 1 },
		encode: func(v float32, b []byte) { b[0] = byte(clampToInt((v+1)*128, 0, 255)) },
	},
	FormatI16: {
		decode: func(b []byte) float32 {
			return float32(int16(binary.LittleEndian.Uint16(b))) / 32768
		},
		encode: func(v float32, b []byte) {
			binary.LittleEndian.PutUint16(b, uint16(int16(clampToInt(v*32768, -32768, 32767))))
		},
	},
	FormatU16: {
		decode: func(b []byte) float32 {
			return float32(binary.LittleEndian.Uint16(b))/32768 - 1
		},
		encode: func(v float32, b []byte) {
			binary.LittleEndian.PutUint16(b, uint16(clampToInt((v+1)*32768, 0, 65535)))
		},
	},
	FormatI32: {
		decode: func(b []byte) float32 {
			return float32(int32(binary.LittleEndian.Uint32(b))) / 2147483648
		},
		encode: func(v float32, b []byte) {
			binary.LittleEndian.PutUint32(b, uint32(int32(clampToFloat64(float64(v)*2147483648, -2147483648, 2147483647))))
		},
	},
	FormatU32: {
		decode: func(b []byte) float32 {
			return float32(binary.LittleEndian.Uint32(b))/2147483648 - 1
		},
		encode: func(v float32, b []byte) {
			binary.LittleEndian.PutUint32(b, uint32(clampToFloat64((float64(v)+1)*2147483648, 0, 4294967295)))
		},
	},
	FormatI64: {
		decode: func(b []byte) float32 {
			return float32(float64(int64(binary.LittleEndian.Uint64(b))) / 9223372036854775808)
		},
		encode: func(v float32, b []byte) {
			binary.LittleEndian.PutUint64(b, uint64(int64(clampToFloat64(float64(v)*9223372036854775808, -9223372036854775808, 9223372036854775807))))
		},
	},
	FormatU64: {
		decode: func(b []byte) float32 {
			return float32(float64(binary.LittleEndian.Uint64(b))/9223372036854775808 - 1)
		},
		encode: func(v float32, b []byte) {
			binary.LittleEndian.PutUint64(b, uint64(clampToFloat64((float64(v)+1)*9223372036854775808, 0, 18446744073709551615)))
		},
	},
	FormatF32: {
		decode: func(b []byte) float32 { return math.Float32frombits(binary.LittleEndian.Uint32(b)) },
		encode: func(v float32, b []byte) { binary.LittleEndian.PutUint32(b, math.Float32bits(v)) },
	},
	FormatF64: {
		decode: func(b []byte) float32 { return float32(math.Float64frombits(binary.LittleEndian.Uint64(b))) },
		encode: func(v float32, b []byte) { binary.LittleEndian.PutUint64(b, math.Float64bits(float64(v))) },
	},
}

func clampToInt(v float32, lo, hi int32) int32 {
	r := int32(v)
	if r < lo {
		return lo
	}
	if r > hi {
		return hi
	}
	return r
}

func clampToFloat64(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// decodeInterleaved converts a wire-format byte buffer into an
// interleaved float32 slice, appending to dst.
func decodeInterleaved(format SampleFormat, src []byte, dst []float32) []float32 {
	codec := formatCodecs[format]
	width := format.BytesPerSample()
	for i := 0; i+width <= len(src); i += width {
		dst = append(dst, codec.decode(src[i:i+width]))
	}
	return dst
}

// encodeInterleaved converts an interleaved float32 slice into dst's wire
// format bytes. dst must already be sized for len(src)*format.BytesPerSample().
func encodeInterleaved(format SampleFormat, src []float32, dst []byte) {
	codec := formatCodecs[format]
	width := format.BytesPerSample()
	for i, v := range src {
		codec.encode(v, dst[i*width:(i+1)*width])
	}
}
