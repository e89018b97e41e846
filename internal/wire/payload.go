package wire

import (
	"encoding/binary"
	"io"
	"math"
)

// DecodeMatrix reads n_rows*n_cols little-endian float64 values from r
// and reshapes them row-major into a nested slice: n_rows·n_cols·8 bytes
// of little-endian IEEE-754 doubles.
func DecodeMatrix(r io.Reader, rows, cols int) ([][]float64, error) {
	flat, err := decodeFloats(r, rows*cols)
	if err != nil {
		return nil, err
	}
	out := make([][]float64, rows)
	for i := 0; i < rows; i++ {
		out[i] = flat[i*cols : (i+1)*cols]
	}
	return out, nil
}

// DecodeVector reads n little-endian float64 values from r, the payload
// shape for a single weight vector (the "weights" command).
func DecodeVector(r io.Reader, n int) ([]float64, error) {
	return decodeFloats(r, n)
}

func decodeFloats(r io.Reader, n int) ([]float64, error) {
	buf := make([]byte, n*8)
	if _, err := io.ReadFull(r, buf); err != nil {
		return nil, NewProtocolError("short payload: want %d bytes: %v", len(buf), err)
	}
	out := make([]float64, n)
	for i := 0; i < n; i++ {
		bits := binary.LittleEndian.Uint64(buf[i*8 : i*8+8])
		out[i] = math.Float64frombits(bits)
	}
	return out, nil
}
