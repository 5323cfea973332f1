package embedding_test

import (
	"errors"
	"math"
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/m-mizutani/memoria/pkg/embedding"
	"github.com/m-mizutani/memoria/pkg/model"
)

func TestEncodeDecodeRoundTrip(t *testing.T) {
	vectors := [][]float32{
		{0.1, 0.2, 0.3},
		{-1.5, 0, 2.25},
		{math.MaxFloat32, math.SmallestNonzeroFloat32},
		{0.000001, -0.000001, 123456.789},
	}

	for _, vec := range vectors {
		buf := embedding.Encode(vec)
		gt.Equal(t, len(buf), len(vec)*4)

		decoded, err := embedding.Decode(buf)
		gt.NoError(t, err)
		gt.Equal(t, decoded, vec)
	}
}

func TestEncodeEmpty(t *testing.T) {
	buf := embedding.Encode(nil)
	gt.A(t, buf).Length(0)

	decoded, err := embedding.Decode(buf)
	gt.NoError(t, err)
	gt.A(t, decoded).Length(0)
}

func TestDecodeMalformed(t *testing.T) {
	for _, n := range []int{1, 2, 3, 5, 7} {
		_, err := embedding.Decode(make([]byte, n))
		gt.Error(t, err)
		gt.True(t, errors.Is(err, model.ErrMalformedEmbedding))
	}
}
