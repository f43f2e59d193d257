package godocx

import (
	"os"

	"github.com/pkg/errors"
)

// NewFromFile compiles the docx template at path.
func NewFromFile(path string, opts Options) (*Template, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "read template %s", path)
	}
	return New(content, opts)
}

// RenderToFile renders data and writes the document to path, replacing any
// existing file.
func (t *Template) RenderToFile(data any, path string) error {
	out, err := t.Render(data)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, out, 0o644); err != nil {
		return errors.Wrapf(err, "write %s", path)
	}
	return nil
}

// ProcessDocx fills the template at templatePath with data and writes the
// result to outputPath.
func ProcessDocx(templatePath, outputPath string, data any, opts Options) error {
	t, err := NewFromFile(templatePath, opts)
	if err != nil {
		return err
	}
	if err := t.RenderToFile(data, outputPath); err != nil {
		return err
	}
	t.opts.Logger.Debug("document generated", "template", templatePath, "output", outputPath)
	return nil
}
