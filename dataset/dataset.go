package dataset

import (
	"bytes"
	"context"
	"encoding/binary"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/hupe1980/hyperlsh/blobstore"
	"github.com/hupe1980/hyperlsh/distance"
	"github.com/hupe1980/hyperlsh/internal/compress"
	"github.com/hupe1980/hyperlsh/internal/mmap"
	"github.com/hupe1980/hyperlsh/model"
)

// Format is the on-disk layout of a dataset.
type Format int

const (
	// CSV is one comma-separated vector per line.
	CSV Format = iota
	// Bin is a headerless little-endian float32 matrix.
	Bin
	// FBin is a float32 matrix behind uint32 row and column counts.
	FBin
)

const fbinHeader = 8

// ErrNeedDimension is returned when a headerless binary file is read
// without a dimension.
var ErrNeedDimension = errors.New("dataset: dimension required for .bin input")

// DetectFormat returns the layout and codec implied by a file name.
func DetectFormat(name string) (Format, compress.Type) {
	codec, base := compress.Detect(name)
	switch strings.ToLower(filepath.Ext(base)) {
	case ".bin":
		return Bin, codec
	case ".fbin":
		return FBin, codec
	default:
		return CSV, codec
	}
}

// Read parses comma-separated vectors, one per line. Blank lines are
// skipped and every row must have the length of the first.
func Read(r io.Reader) ([][]float64, error) {
	cr := csv.NewReader(r)
	cr.ReuseRecord = true
	cr.TrimLeadingSpace = true

	var data [][]float64
	for {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			var perr *csv.ParseError
			if errors.As(err, &perr) && errors.Is(perr.Err, csv.ErrFieldCount) && len(data) > 0 {
				return nil, fmt.Errorf("line %d: %w", perr.Line, &model.ErrDimensionMismatch{Expected: len(data[0]), Actual: len(record)})
			}
			return nil, err
		}

		row := make([]float64, len(record))
		for i, field := range record {
			v, err := strconv.ParseFloat(strings.TrimSpace(field), 64)
			if err != nil {
				line, _ := cr.FieldPos(i)
				return nil, fmt.Errorf("line %d: %w", line, err)
			}
			row[i] = v
		}
		data = append(data, row)
	}
	if len(data) == 0 {
		return nil, model.ErrEmptyDataset
	}
	return data, nil
}

// Write formats vectors as comma-separated lines, the inverse of Read.
func Write(w io.Writer, data [][]float64) error {
	cw := csv.NewWriter(w)
	record := make([]string, 0)
	for _, row := range data {
		record = record[:0]
		for _, v := range row {
			record = append(record, strconv.FormatFloat(v, 'g', -1, 64))
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// Open reads a local dataset file. dim is only consulted for ".bin".
func Open(path string, dim int) ([][]float64, error) {
	format, codec := DetectFormat(path)
	if format != CSV && codec == compress.None {
		m, err := mmap.Open(path)
		if err != nil {
			return nil, err
		}
		defer m.Close()
		if err := m.Advise(mmap.AccessSequential); err != nil {
			return nil, fmt.Errorf("advise %s: %w", path, err)
		}
		return readMapped(m, format, dim)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return decode(f, format, codec, dim)
}

// Load reads a dataset blob from store. dim is only consulted for ".bin".
func Load(ctx context.Context, store blobstore.BlobStore, name string, dim int) ([][]float64, error) {
	format, codec := DetectFormat(name)

	raw, err := blobstore.ReadAll(ctx, store, name)
	if err != nil {
		return nil, err
	}
	return decode(bytes.NewReader(raw), format, codec, dim)
}

func decode(r io.Reader, format Format, codec compress.Type, dim int) ([][]float64, error) {
	zr, err := compress.NewReader(r, codec)
	if err != nil {
		return nil, err
	}
	defer zr.Close()

	if format == CSV {
		return Read(zr)
	}
	raw, err := io.ReadAll(zr)
	if err != nil {
		return nil, err
	}
	return decodeBinary(raw, format, dim)
}

// readMapped decodes a mapped binary file in place, reading the fbin header
// straight from the mapping.
func readMapped(m *mmap.Mapping, format Format, dim int) ([][]float64, error) {
	offset := 0
	if format == FBin {
		n, errN := m.Uint32At(0)
		d, errD := m.Uint32At(4)
		if errN != nil || errD != nil {
			return nil, fmt.Errorf("dataset: truncated fbin header: %w", io.ErrUnexpectedEOF)
		}
		if dim > 0 && dim != int(d) {
			return nil, &model.ErrDimensionMismatch{Expected: dim, Actual: int(d)}
		}
		if body := m.Size() - fbinHeader; body != 4*int(n)*int(d) {
			return nil, fmt.Errorf("dataset: fbin holds %d bytes for %dx%d: %w", body, n, d, io.ErrUnexpectedEOF)
		}
		offset, dim = fbinHeader, int(d)
	} else if dim <= 0 {
		return nil, ErrNeedDimension
	}

	data, err := m.Float32Rows(offset, dim)
	if err != nil {
		return nil, fmt.Errorf("dataset: %d bytes is not a %d-column float32 matrix: %w", m.Size()-offset, dim, err)
	}
	if len(data) == 0 {
		return nil, model.ErrEmptyDataset
	}
	return data, nil
}

func decodeBinary(raw []byte, format Format, dim int) ([][]float64, error) {
	if format == FBin {
		if len(raw) < fbinHeader {
			return nil, fmt.Errorf("dataset: truncated fbin header: %w", io.ErrUnexpectedEOF)
		}
		n := int(binary.LittleEndian.Uint32(raw))
		d := int(binary.LittleEndian.Uint32(raw[4:]))
		if dim > 0 && dim != d {
			return nil, &model.ErrDimensionMismatch{Expected: dim, Actual: d}
		}
		if len(raw)-fbinHeader != 4*n*d {
			return nil, fmt.Errorf("dataset: fbin holds %d bytes for %dx%d: %w", len(raw)-fbinHeader, n, d, io.ErrUnexpectedEOF)
		}
		raw, dim = raw[fbinHeader:], d
	} else if dim <= 0 {
		return nil, ErrNeedDimension
	}

	data, err := mmap.DecodeFloat32Rows(raw, dim)
	if err != nil {
		return nil, fmt.Errorf("dataset: %d bytes is not a %d-column float32 matrix: %w", len(raw), dim, err)
	}
	if len(data) == 0 {
		return nil, model.ErrEmptyDataset
	}
	return data, nil
}

// Prepare optionally normalizes data and appends a constant 1 column, the
// homogeneous coordinate DP2H needs for the plane offset.
func Prepare(data [][]float64, normalize, extend bool) [][]float64 {
	if normalize {
		data = distance.Normalize(data)
	}
	if extend {
		data = distance.Concat(data, distance.Fill(len(data), 1))
	}
	return data
}
