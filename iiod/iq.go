package iiod

import (
	"encoding/binary"
	"errors"
)

// Sample is one signed 16-bit (I, Q) pair, already scaled and shifted
// by the caller to the target DAC's bit width.
type Sample struct {
	I int16
	Q int16
}

// EncodeSamples interleaves samples into little-endian I16 pairs, the
// wire format every supported device variant's streaming device
// expects for its TX DMA buffer.
func EncodeSamples(samples []Sample) []byte {
	buf := make([]byte, len(samples)*4)
	for n, s := range samples {
		off := n * 4
		binary.LittleEndian.PutUint16(buf[off:off+2], uint16(s.I))
		binary.LittleEndian.PutUint16(buf[off+2:off+4], uint16(s.Q))
	}
	return buf
}

// DecodeSamples reverses EncodeSamples; only the package's tests call
// it.
func DecodeSamples(buf []byte) ([]Sample, error) {
	if len(buf)%4 != 0 {
		return nil, errors.New("iiod: buffer length not a multiple of 4")
	}
	out := make([]Sample, len(buf)/4)
	for n := range out {
		off := n * 4
		out[n] = Sample{
			I: int16(binary.LittleEndian.Uint16(buf[off : off+2])),
			Q: int16(binary.LittleEndian.Uint16(buf[off+2 : off+4])),
		}
	}
	return out, nil
}
