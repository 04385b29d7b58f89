package mmap

import (
	"encoding/binary"
	"io"
	"math"
	"os"
	"sync/atomic"
)

// Mapping is a read-only memory-mapped file.
type Mapping struct {
	data   []byte
	closed atomic.Bool
	unmap  func([]byte) error
}

// Open maps the file at path into memory.
func Open(path string) (*Mapping, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	fi, err := f.Stat()
	if err != nil {
		return nil, err
	}

	size := fi.Size()
	if size < 0 || size > math.MaxInt {
		return nil, ErrInvalidSize
	}
	if size == 0 {
		return &Mapping{}, nil
	}

	data, unmap, err := osMap(f, int(size))
	if err != nil {
		return nil, err
	}
	return &Mapping{data: data, unmap: unmap}, nil
}

// Close unmaps the memory. It is idempotent.
func (m *Mapping) Close() error {
	if m.closed.Swap(true) {
		return nil
	}
	if m.unmap != nil && m.data != nil {
		return m.unmap(m.data)
	}
	return nil
}

// Bytes returns the mapped bytes, or nil after Close.
func (m *Mapping) Bytes() []byte {
	if m.closed.Load() {
		return nil
	}
	return m.data
}

// Size returns the size of the mapping in bytes.
func (m *Mapping) Size() int {
	return len(m.data)
}

// Advise provides hints to the kernel about how the memory will be accessed.
func (m *Mapping) Advise(pattern AccessPattern) error {
	if m.closed.Load() {
		return ErrClosed
	}
	if m.data == nil {
		return nil
	}
	return osAdvise(m.data, pattern)
}

// ReadAt implements io.ReaderAt.
func (m *Mapping) ReadAt(p []byte, off int64) (int, error) {
	if m.closed.Load() {
		return 0, ErrClosed
	}
	if off < 0 {
		return 0, ErrInvalidOffset
	}
	if off >= int64(len(m.data)) {
		return 0, io.EOF
	}
	n := copy(p, m.data[off:])
	if n < len(p) {
		return n, io.EOF
	}
	return n, nil
}

// Float32Rows decodes the little-endian float32 matrix that starts at
// offset into rows of length dim.
func (m *Mapping) Float32Rows(offset, dim int) ([][]float64, error) {
	if m.closed.Load() {
		return nil, ErrClosed
	}
	if offset < 0 || offset > len(m.data) {
		return nil, ErrOutOfBounds
	}
	return DecodeFloat32Rows(m.data[offset:], dim)
}

// DecodeFloat32Rows decodes a little-endian float32 matrix with rows of
// length dim. len(b) must be a multiple of 4*dim.
func DecodeFloat32Rows(b []byte, dim int) ([][]float64, error) {
	if dim <= 0 {
		return nil, ErrInvalidSize
	}
	stride := 4 * dim
	if len(b)%stride != 0 {
		return nil, ErrInvalidSize
	}

	n := len(b) / stride
	backing := make([]float64, n*dim)
	rows := make([][]float64, n)
	for i := range n {
		row := backing[i*dim : (i+1)*dim : (i+1)*dim]
		for j := range row {
			bits := binary.LittleEndian.Uint32(b[i*stride+4*j:])
			row[j] = float64(math.Float32frombits(bits))
		}
		rows[i] = row
	}
	return rows, nil
}

// Uint32At decodes the little-endian uint32 at offset.
func (m *Mapping) Uint32At(offset int) (uint32, error) {
	if m.closed.Load() {
		return 0, ErrClosed
	}
	if offset < 0 || offset+4 > len(m.data) {
		return 0, ErrOutOfBounds
	}
	return binary.LittleEndian.Uint32(m.data[offset:]), nil
}
