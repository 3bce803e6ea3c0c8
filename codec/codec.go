// Package codec encodes and decodes the adjacency hand-off format: the frame
// a build pass produces for the external adjacency storage engine to persist.
//
// The frame is self-describing. Changing the compression of a writer does not
// affect readers; the decoder dispatches on the header.
package codec

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// Compression selects the block compression of an encoded frame.
type Compression uint8

const (
	// CompressionNone stores the payload raw.
	CompressionNone Compression = 0
	// CompressionLZ4 uses LZ4 block compression (fast, hot hand-offs).
	CompressionLZ4 Compression = 1
	// CompressionZSTD uses zstd block compression (better ratio, cold hand-offs).
	CompressionZSTD Compression = 2
)

var (
	// ErrBadMagic is returned when the frame header is not recognized.
	ErrBadMagic = errors.New("codec: bad magic")

	// ErrCorruptFrame is returned when the frame is structurally invalid.
	ErrCorruptFrame = errors.New("codec: corrupt frame")
)

var magic = [4]byte{'P', 'X', 'G', '1'}

// maxFrameBytes caps the payload a frame may declare. A corrupt or hostile
// 21-byte header must not drive a multi-gigabyte allocation before any data
// is read.
const maxFrameBytes = 1 << 30

// Graph is the flat adjacency dump exchanged with the storage engine:
// fixed-stride rows of M slots plus a parallel size array.
type Graph struct {
	M     int
	Sizes []uint32
	Links []uint32 // len(Sizes) * M, row-major
}

// NumPoints returns the number of points covered by the dump.
func (g *Graph) NumPoints() int { return len(g.Sizes) }

var (
	zstdEncoderPool sync.Pool
	zstdDecoderPool sync.Pool
)

func getZstdEncoder() *zstd.Encoder {
	if v := zstdEncoderPool.Get(); v != nil {
		return v.(*zstd.Encoder)
	}
	enc, _ := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	return enc
}

func getZstdDecoder() *zstd.Decoder {
	if v := zstdDecoderPool.Get(); v != nil {
		return v.(*zstd.Decoder)
	}
	dec, _ := zstd.NewReader(nil)
	return dec
}

// Encode writes g to w as one frame using the given compression.
func Encode(w io.Writer, g *Graph, c Compression) error {
	if g.M <= 0 || len(g.Links) != len(g.Sizes)*g.M {
		return fmt.Errorf("%w: %d links for %d points with M=%d", ErrCorruptFrame, len(g.Links), len(g.Sizes), g.M)
	}

	payload := make([]byte, 4*(len(g.Sizes)+len(g.Links)))
	off := 0
	for _, v := range g.Sizes {
		binary.LittleEndian.PutUint32(payload[off:], v)
		off += 4
	}
	for _, v := range g.Links {
		binary.LittleEndian.PutUint32(payload[off:], v)
		off += 4
	}

	compressed, err := compressBlock(payload, c)
	if err != nil {
		return err
	}
	if compressed == nil {
		// Incompressible payload; store it raw.
		c = CompressionNone
		compressed = payload
	}

	header := make([]byte, 0, 21)
	header = append(header, magic[:]...)
	header = append(header, byte(c))
	header = binary.LittleEndian.AppendUint32(header, uint32(len(g.Sizes)))
	header = binary.LittleEndian.AppendUint32(header, uint32(g.M))
	header = binary.LittleEndian.AppendUint32(header, uint32(len(payload)))
	header = binary.LittleEndian.AppendUint32(header, uint32(len(compressed)))
	if _, err := w.Write(header); err != nil {
		return err
	}
	_, err = w.Write(compressed)
	return err
}

// Decode reads one frame from r.
func Decode(r io.Reader) (*Graph, error) {
	header := make([]byte, 21)
	if _, err := io.ReadFull(r, header); err != nil {
		return nil, err
	}
	if [4]byte(header[:4]) != magic {
		return nil, ErrBadMagic
	}
	c := Compression(header[4])
	nu := binary.LittleEndian.Uint32(header[5:])
	mu := binary.LittleEndian.Uint32(header[9:])
	ru := binary.LittleEndian.Uint32(header[13:])
	cu := binary.LittleEndian.Uint32(header[17:])

	// Shape checks run in uint64 and the size cap is applied before the
	// times-four step, so a hostile header can neither wrap the expected
	// length nor drive an allocation sized from unchecked fields. Two
	// uint32 factors cannot overflow a uint64 product.
	if ru > maxFrameBytes || cu > maxFrameBytes {
		return nil, fmt.Errorf("%w: declared frame size %d exceeds limit %d", ErrCorruptFrame, max(ru, cu), maxFrameBytes)
	}
	words := uint64(nu) + uint64(nu)*uint64(mu)
	if mu == 0 || words > maxFrameBytes/4 || uint64(ru) != 4*words {
		return nil, fmt.Errorf("%w: payload length %d for %d points with M=%d", ErrCorruptFrame, ru, nu, mu)
	}
	numPoints := int(nu)
	m := int(mu)
	rawLen := int(ru)
	compLen := int(cu)

	compressed := make([]byte, compLen)
	if _, err := io.ReadFull(r, compressed); err != nil {
		return nil, err
	}

	payload, err := decompressBlock(compressed, rawLen, c)
	if err != nil {
		return nil, err
	}

	g := &Graph{
		M:     m,
		Sizes: make([]uint32, numPoints),
		Links: make([]uint32, numPoints*m),
	}
	off := 0
	for i := range g.Sizes {
		g.Sizes[i] = binary.LittleEndian.Uint32(payload[off:])
		off += 4
	}
	for i := range g.Links {
		g.Links[i] = binary.LittleEndian.Uint32(payload[off:])
		off += 4
	}
	return g, nil
}

func compressBlock(payload []byte, c Compression) ([]byte, error) {
	switch c {
	case CompressionNone:
		return payload, nil
	case CompressionLZ4:
		dst := make([]byte, lz4.CompressBlockBound(len(payload)))
		var compressor lz4.Compressor
		n, err := compressor.CompressBlock(payload, dst)
		if err != nil {
			return nil, fmt.Errorf("codec: lz4 compress: %w", err)
		}
		if n == 0 {
			// Incompressible.
			return nil, nil
		}
		return dst[:n], nil
	case CompressionZSTD:
		enc := getZstdEncoder()
		out := enc.EncodeAll(payload, nil)
		zstdEncoderPool.Put(enc)
		return out, nil
	default:
		return nil, fmt.Errorf("codec: unknown compression %d", c)
	}
}

func decompressBlock(compressed []byte, rawLen int, c Compression) ([]byte, error) {
	switch c {
	case CompressionNone:
		if len(compressed) != rawLen {
			return nil, ErrCorruptFrame
		}
		return compressed, nil
	case CompressionLZ4:
		dst := make([]byte, rawLen)
		n, err := lz4.UncompressBlock(compressed, dst)
		if err != nil {
			return nil, fmt.Errorf("codec: lz4 decompress: %w", err)
		}
		if n != rawLen {
			return nil, ErrCorruptFrame
		}
		return dst, nil
	case CompressionZSTD:
		dec := getZstdDecoder()
		out, err := dec.DecodeAll(compressed, nil)
		zstdDecoderPool.Put(dec)
		if err != nil {
			return nil, fmt.Errorf("codec: zstd decompress: %w", err)
		}
		if len(out) != rawLen {
			return nil, ErrCorruptFrame
		}
		return out, nil
	default:
		return nil, fmt.Errorf("codec: unknown compression %d", c)
	}
}
