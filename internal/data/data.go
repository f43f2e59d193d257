// Package data loads the records a template is filled with.
package data

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/ohler55/ojg/oj"
	"github.com/pkg/errors"
)

// Record is one structured data unit bound to a single rendered document.
type Record = map[string]any

// Data is a loaded data source. A source holding several records (a CSV
// file, a JSON array) is a sequence; anything else is a single record stored
// as the only element of Records.
type Data struct {
	Records  []any
	Sequence bool
}

// UnsupportedFormatError is returned for data files that are neither JSON
// nor CSV.
type UnsupportedFormatError struct {
	Path string
	Ext  string
}

func (e *UnsupportedFormatError) Error() string {
	return fmt.Sprintf("unsupported file format %s", e.Path)
}

// ParseError wraps a failure of the JSON or CSV parser.
type ParseError struct {
	Path   string
	Format string
	Err    error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse %s data %s: %v", e.Format, e.Path, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// Load reads the data file at path, choosing the parser by extension. The
// extension match is case-sensitive: "data.JSON" is unsupported.
func Load(ctx context.Context, path string) (*Data, error) {
	ext := filepath.Ext(path)
	if ext != ".json" && ext != ".csv" {
		return nil, errors.WithStack(&UnsupportedFormatError{Path: path, Ext: ext})
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "read data file")
	}

	var d *Data
	if ext == ".json" {
		d, err = ParseJSON(content)
	} else {
		d, err = ParseCSV(ctx, bytes.NewReader(content))
	}

	var pe *ParseError
	if errors.As(err, &pe) {
		pe.Path = path
	}
	return d, err
}

// ParseJSON parses one JSON value. A top-level array is a sequence with one
// record per element.
func ParseJSON(content []byte) (*Data, error) {
	var v any
	if err := oj.Unmarshal(content, &v); err != nil {
		return nil, errors.WithStack(&ParseError{Format: "json", Err: err})
	}
	if list, ok := v.([]any); ok {
		return &Data{Records: list, Sequence: true}, nil
	}
	return &Data{Records: []any{v}}, nil
}

// ParseCSV reads CSV with a header row. Header names are used verbatim as
// flat keys, so "a.b" stays one field. Values are trimmed strings; missing
// cells are empty and cells beyond the header are named field<N>.
func ParseCSV(ctx context.Context, r io.Reader) (*Data, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	d := &Data{Records: []any{}, Sequence: true}
	header, err := cr.Read()
	if err == io.EOF {
		return d, nil
	}
	if err != nil {
		return nil, errors.WithStack(&ParseError{Format: "csv", Err: err})
	}
	for i, h := range header {
		if i == 0 {
			h = strings.TrimPrefix(h, "\ufeff")
		}
		header[i] = strings.TrimSpace(h)
	}

	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.WithStack(&ParseError{Format: "csv", Err: err})
		}

		rec := make(Record, max(len(header), len(row)))
		for i, h := range header {
			rec[h] = ""
			if i < len(row) {
				rec[h] = strings.TrimSpace(row[i])
			}
		}
		for i := len(header); i < len(row); i++ {
			rec[fmt.Sprintf("field%d", i+1)] = strings.TrimSpace(row[i])
		}
		d.Records = append(d.Records, rec)
	}
	return d, nil
}
