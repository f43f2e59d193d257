// Package docxtest builds small docx packages in memory and reads text back
// out of rendered ones. It is used by tests only.
package docxtest

import (
	"archive/zip"
	"bytes"
	"io"
	"strings"
	"testing"

	"github.com/beevik/etree"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
)

const (
	contentTypes = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types"><Default Extension="rels" ContentType="application/vnd.openxmlformats-package.relationships+xml"/><Default Extension="xml" ContentType="application/xml"/><Override PartName="/word/document.xml" ContentType="application/vnd.openxmlformats-officedocument.wordprocessingml.document.main+xml"/></Types>`
	rels = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships"><Relationship Id="rId1" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/officeDocument" Target="word/document.xml"/></Relationships>`
)

// Document wraps body in a word/document.xml root.
func Document(body string) string {
	return `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>` + "\n" +
		`<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:body>` +
		body + `</w:body></w:document>`
}

// Paragraph returns a paragraph with one run per element of runs.
func Paragraph(runs ...string) string {
	var b strings.Builder
	b.WriteString("<w:p>")
	for _, r := range runs {
		b.WriteString(`<w:r><w:rPr><w:b/></w:rPr><w:t xml:space="preserve">`)
		b.WriteString(escape(r))
		b.WriteString("</w:t></w:r>")
	}
	b.WriteString("</w:p>")
	return b.String()
}

// Table returns a table whose rows hold one paragraph per cell.
func Table(rows ...[]string) string {
	var b strings.Builder
	b.WriteString("<w:tbl>")
	for _, row := range rows {
		b.WriteString("<w:tr>")
		for _, cell := range row {
			b.WriteString("<w:tc>" + Paragraph(cell) + "</w:tc>")
		}
		b.WriteString("</w:tr>")
	}
	b.WriteString("</w:tbl>")
	return b.String()
}

// Build returns a docx package whose body is made of the given paragraphs
// and tables.
func Build(t testing.TB, body ...string) []byte {
	t.Helper()
	return BuildParts(t, map[string]string{"word/document.xml": Document(strings.Join(body, ""))})
}

// BuildParts returns a docx package with the given parts plus the content
// types and package relationships.
func BuildParts(t testing.TB, parts map[string]string) []byte {
	t.Helper()

	docx, err := Package(parts)
	require.NoError(t, err)
	return docx
}

// Package is BuildParts for callers without a testing.TB.
func Package(parts map[string]string) ([]byte, error) {
	var buf bytes.Buffer
	w := zip.NewWriter(&buf)
	write := func(name, content string) error {
		f, err := w.Create(name)
		if err != nil {
			return err
		}
		_, err = f.Write([]byte(content))
		return err
	}

	if err := write("[Content_Types].xml", contentTypes); err != nil {
		return nil, err
	}
	if err := write("_rels/.rels", rels); err != nil {
		return nil, err
	}
	for name, content := range parts {
		if err := write(name, content); err != nil {
			return nil, err
		}
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Part returns the content of one part of a docx package.
func Part(t testing.TB, docx []byte, name string) string {
	t.Helper()

	content, err := readPart(docx, name)
	require.NoError(t, err)
	return content
}

func readPart(docx []byte, name string) (string, error) {
	r, err := zip.NewReader(bytes.NewReader(docx), int64(len(docx)))
	if err != nil {
		return "", err
	}
	for _, f := range r.File {
		if f.Name != name {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return "", err
		}
		defer rc.Close()
		content, err := io.ReadAll(rc)
		if err != nil {
			return "", err
		}
		return string(content), nil
	}
	return "", errors.Errorf("part %s not found", name)
}

// Text returns the text of word/document.xml, one line per paragraph in
// document order. A w:br inside a paragraph is written as "\n" as well.
func Text(t testing.TB, docx []byte) string {
	t.Helper()

	text, err := DocumentText(docx)
	require.NoError(t, err)
	return text
}

// DocumentText is Text for callers without a testing.TB.
func DocumentText(docx []byte) (string, error) {
	part, err := readPart(docx, "word/document.xml")
	if err != nil {
		return "", err
	}
	doc := etree.NewDocument()
	if err := doc.ReadFromString(part); err != nil {
		return "", err
	}

	var lines []string
	var walk func(el *etree.Element)
	walk = func(el *etree.Element) {
		for _, c := range el.ChildElements() {
			if c.FullTag() == "w:p" {
				var b strings.Builder
				paragraphText(c, &b)
				lines = append(lines, b.String())
				continue
			}
			walk(c)
		}
	}
	walk(&doc.Element)
	return strings.Join(lines, "\n"), nil
}

func paragraphText(el *etree.Element, b *strings.Builder) {
	for _, c := range el.ChildElements() {
		switch c.FullTag() {
		case "w:t":
			b.WriteString(c.Text())
		case "w:br":
			b.WriteString("\n")
		default:
			paragraphText(c, b)
		}
	}
}

func escape(s string) string {
	return strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;").Replace(s)
}
