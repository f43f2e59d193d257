// Package merge renders loaded data into one or more documents.
package merge

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/pkg/errors"

	"github.com/Navl-bm/docxtemplater/internal/data"
	"github.com/Navl-bm/docxtemplater/internal/logging"
	"github.com/Navl-bm/docxtemplater/internal/output"
)

// Renderer fills a template with one record. *godocx.Template implements it.
type Renderer interface {
	Render(data any) ([]byte, error)
}

// WriteFunc stores a rendered document.
type WriteFunc func(path string, content []byte) error

// RenderError is the failure of one record. Index is 1-based within a
// sequence and 0 for a single record.
type RenderError struct {
	Index  int
	Target string
	Err    error
}

func (e *RenderError) Error() string {
	if e.Index > 0 {
		return fmt.Sprintf("render record %d (%s): %v", e.Index, e.Target, e.Err)
	}
	return fmt.Sprintf("render %s: %v", e.Target, e.Err)
}

func (e *RenderError) Unwrap() error { return e.Err }

// Merger renders records and writes them to their targets.
type Merger struct {
	renderer Renderer
	write    WriteFunc
	logger   *slog.Logger
}

// New creates a Merger. A nil write uses output.Write and a nil logger
// discards.
func New(r Renderer, write WriteFunc, logger *slog.Logger) *Merger {
	if write == nil {
		write = output.Write
	}
	if logger == nil {
		logger = logging.Nop()
	}
	return &Merger{renderer: r, write: write, logger: logger}
}

// Run renders d. A single record goes to base; every record of a sequence
// goes to its own target. The first failure stops the run; documents written
// before it are kept. Run returns the paths written, in order.
func (m *Merger) Run(ctx context.Context, d *data.Data, base string) ([]string, error) {
	if !d.Sequence {
		var record any
		if len(d.Records) > 0 {
			record = d.Records[0]
		}
		if err := m.render(0, record, base); err != nil {
			return nil, err
		}
		return []string{base}, nil
	}

	written := make([]string, 0, len(d.Records))
	for i, record := range d.Records {
		if err := ctx.Err(); err != nil {
			return written, errors.WithStack(err)
		}

		target := output.Target(record, i+1, base)
		if err := m.render(i+1, record, target); err != nil {
			return written, err
		}
		written = append(written, target)
	}
	return written, nil
}

func (m *Merger) render(index int, record any, target string) error {
	m.logger.Debug("rendering record", "index", index, "target", target)

	content, err := m.renderer.Render(record)
	if err != nil {
		return errors.WithStack(&RenderError{Index: index, Target: target, Err: err})
	}
	if err := m.write(target, content); err != nil {
		return err
	}

	m.logger.Info("document written", "path", target, "bytes", len(content))
	return nil
}
