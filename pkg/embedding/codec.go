package embedding

import (
	"encoding/binary"
	"math"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/memoria/pkg/model"
)

const floatWidth = 4

// Encode converts a float32 vector into its persisted representation: a raw
// little-endian byte buffer of len(vec)*4 bytes with no header. Dimensionality
// is implicit and externally known.
func Encode(vec []float32) []byte {
	buf := make([]byte, len(vec)*floatWidth)
	for i, v := range vec {
		binary.LittleEndian.PutUint32(buf[i*floatWidth:], math.Float32bits(v))
	}
	return buf
}

// Decode is the inverse of Encode. It fails with model.ErrMalformedEmbedding
// when the buffer length is not a multiple of 4.
func Decode(buf []byte) ([]float32, error) {
	if len(buf)%floatWidth != 0 {
		return nil, goerr.Wrap(model.ErrMalformedEmbedding, "buffer length is not a multiple of 4", goerr.V("length", len(buf)))
	}

	vec := make([]float32, len(buf)/floatWidth)
	for i := range vec {
		vec[i] = math.Float32frombits(binary.LittleEndian.Uint32(buf[i*floatWidth:]))
	}
	return vec, nil
}
