package codec

import (
	"bytes"
	"encoding/binary"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func randomGraph(t *testing.T, numPoints, m int, seed int64) *Graph {
	t.Helper()

	rng := rand.New(rand.NewSource(seed))
	g := &Graph{
		M:     m,
		Sizes: make([]uint32, numPoints),
		Links: make([]uint32, numPoints*m),
	}
	for p := 0; p < numPoints; p++ {
		size := rng.Intn(m + 1)
		g.Sizes[p] = uint32(size)
		for i := 0; i < size; i++ {
			g.Links[p*m+i] = uint32(rng.Intn(numPoints))
		}
	}
	return g
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	testCases := []struct {
		name string
		c    Compression
	}{
		{name: "none", c: CompressionNone},
		{name: "lz4", c: CompressionLZ4},
		{name: "zstd", c: CompressionZSTD},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			g := randomGraph(t, 200, 8, 11)

			var buf bytes.Buffer
			require.NoError(t, Encode(&buf, g, tc.c))

			got, err := Decode(&buf)
			require.NoError(t, err)
			assert.Equal(t, g, got)
		})
	}
}

// Pure noise does not compress under lz4; the encoder must fall back to a raw
// frame the decoder still accepts.
func TestEncodeIncompressibleFallsBack(t *testing.T) {
	rng := rand.New(rand.NewSource(12))
	g := &Graph{
		M:     4,
		Sizes: make([]uint32, 64),
		Links: make([]uint32, 64*4),
	}
	for i := range g.Sizes {
		g.Sizes[i] = rng.Uint32()
	}
	for i := range g.Links {
		g.Links[i] = rng.Uint32()
	}

	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, g, CompressionLZ4))

	got, err := Decode(&buf)
	require.NoError(t, err)
	assert.Equal(t, g, got)
}

func TestEncodeRejectsMalformedGraph(t *testing.T) {
	g := &Graph{M: 4, Sizes: make([]uint32, 3), Links: make([]uint32, 5)}

	var buf bytes.Buffer
	require.ErrorIs(t, Encode(&buf, g, CompressionNone), ErrCorruptFrame)
}

func TestDecodeBadMagic(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, randomGraph(t, 8, 2, 13), CompressionNone))

	raw := buf.Bytes()
	raw[0] = 'X'

	_, err := Decode(bytes.NewReader(raw))
	require.ErrorIs(t, err, ErrBadMagic)
}

func TestDecodeCorruptFrames(t *testing.T) {
	encode := func(t *testing.T) []byte {
		var buf bytes.Buffer
		require.NoError(t, Encode(&buf, randomGraph(t, 8, 2, 14), CompressionNone))
		return buf.Bytes()
	}

	t.Run("truncated payload", func(t *testing.T) {
		raw := encode(t)
		_, err := Decode(bytes.NewReader(raw[:len(raw)-3]))
		require.Error(t, err)
	})

	t.Run("inconsistent payload length", func(t *testing.T) {
		raw := encode(t)
		raw[13] ^= 0xff
		_, err := Decode(bytes.NewReader(raw))
		require.ErrorIs(t, err, ErrCorruptFrame)
	})

	t.Run("unknown compression", func(t *testing.T) {
		raw := encode(t)
		raw[4] = 0x7f
		_, err := Decode(bytes.NewReader(raw))
		require.Error(t, err)
	})
}

// A header is 21 bytes; the numbers it declares must not be trusted into an
// allocation. Hostile shape fields have to fail fast and cheap.
func TestDecodeRejectsHostileHeaders(t *testing.T) {
	header := func(numPoints, m, rawLen, compLen uint32) []byte {
		h := []byte{'P', 'X', 'G', '1', 0}
		h = binary.LittleEndian.AppendUint32(h, numPoints)
		h = binary.LittleEndian.AppendUint32(h, m)
		h = binary.LittleEndian.AppendUint32(h, rawLen)
		h = binary.LittleEndian.AppendUint32(h, compLen)
		return h
	}

	testCases := []struct {
		name string
		raw  []byte
	}{
		{
			// 2^32 points times 2^32 slots overflows any naive product.
			name: "overflowing shape",
			raw:  header(^uint32(0), ^uint32(0), 16, 16),
		},
		{
			// Internally consistent shape, but the payload it declares is
			// gigabytes from a 21-byte input.
			name: "oversized frame",
			raw:  header(1<<26, 7, 1<<31, 64),
		},
		{
			// Chosen so 4*(n+n*m) wraps uint64 to exactly zero; the declared
			// length matches the wrapped product but not the true size.
			name: "wrapping shape",
			raw:  header(1<<30, ^uint32(0), 0, 0),
		},
		{
			name: "oversized compressed block",
			raw:  header(8, 2, 4*(8+8*2), ^uint32(0)),
		},
		{
			name: "zero m",
			raw:  header(8, 0, 32, 32),
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Decode(bytes.NewReader(tc.raw))
			require.ErrorIs(t, err, ErrCorruptFrame)
		})
	}
}
