package report

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"

	"github.com/hupe1980/hyperlsh/internal/compress"
)

// Table is a header plus string rows. Rows may be shorter than the header.
type Table struct {
	Header []string
	Rows   [][]string
}

// Column returns the index of name in the header, or -1.
func (t *Table) Column(name string) int {
	return slices.Index(t.Header, name)
}

// Concat returns the rows of t followed by the rows of o under the union of
// both headers. Columns keep their first-seen order.
func (t *Table) Concat(o *Table) *Table {
	header := slices.Clone(t.Header)
	for _, h := range o.Header {
		if !slices.Contains(header, h) {
			header = append(header, h)
		}
	}

	out := &Table{Header: header, Rows: make([][]string, 0, len(t.Rows)+len(o.Rows))}
	for _, src := range []*Table{t, o} {
		pos := make([]int, len(src.Header))
		for i, h := range src.Header {
			pos[i] = slices.Index(header, h)
		}
		for _, row := range src.Rows {
			r := make([]string, len(header))
			for i, v := range row {
				if i < len(pos) {
					r[pos[i]] = v
				}
			}
			out.Rows = append(out.Rows, r)
		}
	}
	return out
}

// ReadCSV reads a table whose first record is the header.
func ReadCSV(r io.Reader) (*Table, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	records, err := cr.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return &Table{}, nil
	}
	return &Table{Header: records[0], Rows: records[1:]}, nil
}

// WriteCSV writes the header and rows. Short rows are padded.
func (t *Table) WriteCSV(w io.Writer) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(t.Header); err != nil {
		return err
	}
	for _, row := range t.Rows {
		if len(row) < len(t.Header) {
			row = append(slices.Clone(row), make([]string, len(t.Header)-len(row))...)
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// LoadCSV reads a table from path, decompressing by suffix.
func LoadCSV(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	codec, _ := compress.Detect(path)
	r, err := compress.NewReader(f, codec)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer r.Close()

	t, err := ReadCSV(r)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return t, nil
}

// SaveCSV writes t to path, creating parent directories and compressing
// by suffix. An existing file is replaced.
func SaveCSV(path string, t *Table) (err error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()

	codec, _ := compress.Detect(path)
	w, err := compress.NewWriter(f, codec)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := t.WriteCSV(w); err != nil {
		w.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	return w.Close()
}

// AppendCSV appends the rows of t to the table at path, merging headers.
// A missing file is created.
func AppendCSV(path string, t *Table) error {
	existing, err := LoadCSV(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
		return SaveCSV(path, t)
	case err != nil:
		return err
	}
	return SaveCSV(path, existing.Concat(t))
}
