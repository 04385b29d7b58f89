// Package compress selects stream codecs for dataset and report files by
// file-name suffix.
package compress

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// Type identifies a stream codec.
type Type uint8

const (
	// None reads and writes the stream unchanged.
	None Type = iota
	// Gzip is the gzip format (".gz").
	Gzip
	// Zstd is the Zstandard format (".zst").
	Zstd
	// LZ4 is the LZ4 frame format (".lz4").
	LZ4
)

var suffixes = [...]string{None: "", Gzip: ".gz", Zstd: ".zst", LZ4: ".lz4"}

// ErrUnknownType is returned for an out-of-range Type.
var ErrUnknownType = errors.New("compress: unknown type")

func (t Type) String() string {
	switch t {
	case None:
		return "none"
	case Gzip:
		return "gzip"
	case Zstd:
		return "zstd"
	case LZ4:
		return "lz4"
	default:
		return fmt.Sprintf("Type(%d)", uint8(t))
	}
}

// Suffix returns the file-name suffix of t.
func (t Type) Suffix() string {
	if int(t) >= len(suffixes) {
		return ""
	}
	return suffixes[t]
}

// Detect returns the codec of a file name and the name without its suffix.
func Detect(name string) (Type, string) {
	for t := Gzip; t <= LZ4; t++ {
		if s := t.Suffix(); strings.HasSuffix(name, s) {
			return t, strings.TrimSuffix(name, s)
		}
	}
	return None, name
}

var zstdDecoderPool sync.Pool

func getZstdDecoder(r io.Reader) (*zstd.Decoder, error) {
	if v := zstdDecoderPool.Get(); v != nil {
		dec := v.(*zstd.Decoder)
		if err := dec.Reset(r); err != nil {
			return nil, err
		}
		return dec, nil
	}
	return zstd.NewReader(r, zstd.WithDecoderConcurrency(1))
}

type zstdReader struct {
	*zstd.Decoder
}

func (z zstdReader) Close() error {
	zstdDecoderPool.Put(z.Decoder)
	return nil
}

// NewReader wraps r with the decoder for t. Closing the result releases
// the decoder, not r.
func NewReader(r io.Reader, t Type) (io.ReadCloser, error) {
	switch t {
	case None:
		return io.NopCloser(r), nil
	case Gzip:
		return gzip.NewReader(r)
	case Zstd:
		dec, err := getZstdDecoder(r)
		if err != nil {
			return nil, err
		}
		return zstdReader{dec}, nil
	case LZ4:
		return io.NopCloser(lz4.NewReader(r)), nil
	default:
		return nil, ErrUnknownType
	}
}

type nopWriteCloser struct {
	io.Writer
}

func (nopWriteCloser) Close() error { return nil }

// NewWriter wraps w with the encoder for t. Close flushes the encoder but
// does not close w.
func NewWriter(w io.Writer, t Type) (io.WriteCloser, error) {
	switch t {
	case None:
		return nopWriteCloser{w}, nil
	case Gzip:
		return gzip.NewWriter(w), nil
	case Zstd:
		return zstd.NewWriter(w, zstd.WithEncoderLevel(zstd.SpeedDefault))
	case LZ4:
		return lz4.NewWriter(w), nil
	default:
		return nil, ErrUnknownType
	}
}
