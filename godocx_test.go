package godocx_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	godocx "github.com/Navl-bm/docxtemplater"
	"github.com/Navl-bm/docxtemplater/internal/docxtest"
)

func TestProcessDocx(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "template.docx")
	output := filepath.Join(dir, "modified.docx")
	require.NoError(t, os.WriteFile(input, docxtest.Build(t, p("{greeting}, {name}")), 0o644))
	require.NoError(t, os.WriteFile(output, []byte("stale"), 0o644))

	err := godocx.ProcessDocx(input, output, map[string]any{"greeting": "Hello", "name": "Ivan"}, godocx.Options{})
	require.NoError(t, err)

	content, err := os.ReadFile(output)
	require.NoError(t, err)
	assert.Equal(t, "Hello, Ivan", docxtest.Text(t, content))
}

func TestProcessDocx_MissingTemplate(t *testing.T) {
	dir := t.TempDir()

	err := godocx.ProcessDocx(filepath.Join(dir, "missing.docx"), filepath.Join(dir, "out.docx"), nil, godocx.Options{})
	assert.ErrorIs(t, err, os.ErrNotExist)
	assert.NoFileExists(t, filepath.Join(dir, "out.docx"))
}

func TestRenderToFile_RenderError(t *testing.T) {
	dir := t.TempDir()
	tmpl, err := godocx.New(docxtest.Build(t, p("{@xml}")), godocx.Options{})
	require.NoError(t, err)

	out := filepath.Join(dir, "out.docx")
	err = tmpl.RenderToFile(map[string]any{"xml": "<broken"}, out)
	assert.Error(t, err)
	assert.NoFileExists(t, out)
}
