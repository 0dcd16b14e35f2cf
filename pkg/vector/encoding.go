package vector

import (
	"encoding/binary"
	"fmt"
	"math"
)

// SerializeFloat32 encodes v as a little-endian float32 blob, the format
// sqlite-vec reads.
func SerializeFloat32(v []float32) []byte {
	buf := make([]byte, len(v)*4)
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}

// DeserializeFloat32 decodes a blob produced by SerializeFloat32.
// An empty blob decodes to nil.
func DeserializeFloat32(b []byte) ([]float32, error) {
	if len(b) == 0 {
		return nil, nil
	}
	if len(b)%4 != 0 {
		return nil, fmt.Errorf("%w: length %d is not divisible by 4", ErrInvalidBlob, len(b))
	}

	v := make([]float32, len(b)/4)
	for i := range v {
		v[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[i*4:]))
	}
	return v, nil
}
