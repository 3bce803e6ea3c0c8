package vectorstore

import (
	"errors"
	"fmt"
	"os"
	"unsafe"
)

// ErrMMapUnsupported is returned by OpenMMap on platforms without mmap
// support.
var ErrMMapUnsupported = errors.New("vectorstore: mmap not supported on this platform")

// MMap is a read-only vector store backed by a memory-mapped file of raw
// little-endian float32 rows. It is safe for concurrent readers.
type MMap struct {
	dim   int
	data  []float32
	raw   []byte
	unmap func([]byte) error
}

// OpenMMap maps path, a file of densely packed float32 vectors, as a
// read-only store of the given dimension. The file length must be a whole
// number of rows.
func OpenMMap(path string, dim int) (*MMap, error) {
	if dim <= 0 {
		return nil, ErrInvalidDimension
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("vectorstore: open %s: %w", path, err)
	}
	defer f.Close()

	st, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("vectorstore: stat %s: %w", path, err)
	}
	size := st.Size()
	rowBytes := int64(dim) * 4
	if size == 0 || size%rowBytes != 0 {
		return nil, fmt.Errorf("vectorstore: %s: size %d is not a multiple of row size %d", path, size, rowBytes)
	}

	raw, unmap, err := mmapFile(f, int(size))
	if err != nil {
		return nil, fmt.Errorf("vectorstore: mmap %s: %w", path, err)
	}

	return &MMap{
		dim:   dim,
		data:  unsafe.Slice((*float32)(unsafe.Pointer(&raw[0])), int(size)/4),
		raw:   raw,
		unmap: unmap,
	}, nil
}

// Vector returns the mapped vector for id, aliasing the mapping.
func (m *MMap) Vector(id uint32) []float32 {
	off := int(id) * m.dim
	return m.data[off : off+m.dim]
}

// Dimension returns the vector dimensionality.
func (m *MMap) Dimension() int { return m.dim }

// Len returns the number of mapped rows.
func (m *MMap) Len() int { return len(m.data) / m.dim }

// Close unmaps the file. Vectors handed out earlier must not be used after
// Close returns.
func (m *MMap) Close() error {
	if m.raw == nil {
		return nil
	}
	raw := m.raw
	m.raw = nil
	m.data = nil
	return m.unmap(raw)
}
