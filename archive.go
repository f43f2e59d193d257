package godocx

import (
	"archive/zip"
	"bytes"
	"io"
	"regexp"
	"strings"
	"time"
)

const mainDocument = "word/document.xml"

// templatedPart matches the parts whose text is searched for tags.
var templatedPart = regexp.MustCompile(`^word/(document|header\d*|footer\d*|footnotes|endnotes)\.xml$`)

// part is one entry of the docx package, held in memory.
type part struct {
	name     string
	modified time.Time
	dir      bool
	content  []byte
}

// unzipDocx reads every entry of a docx package, keeping archive order.
func unzipDocx(content []byte) ([]*part, error) {
	r, err := zip.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		e := newError(NameTemplate, "zip_invalid", "The input is not a valid zip archive")
		e.RootError = err
		return nil, e
	}

	parts := make([]*part, 0, len(r.File))
	for _, f := range r.File {
		p, err := extractPart(f)
		if err != nil {
			e := newError(NameTemplate, "zip_invalid", "Could not read archive entry")
			e.File = f.Name
			e.RootError = err
			return nil, e
		}
		parts = append(parts, p)
	}
	return parts, nil
}

// extractPart reads a single archive entry.
func extractPart(f *zip.File) (*part, error) {
	p := &part{name: f.Name, modified: f.Modified}
	if f.FileInfo().IsDir() || strings.HasSuffix(f.Name, "/") {
		p.dir = true
		return p, nil
	}

	rc, err := f.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	p.content, err = io.ReadAll(rc)
	if err != nil {
		return nil, err
	}
	return p, nil
}

// zipDocx writes parts as a docx package, taking the content of rendered
// parts from rendered instead of the original.
func zipDocx(w io.Writer, parts []*part, rendered map[string][]byte) error {
	writer := zip.NewWriter(w)

	for _, p := range parts {
		header := &zip.FileHeader{
			Name:     p.name,
			Modified: p.modified,
			Method:   zip.Deflate,
		}
		if p.dir {
			header.Method = zip.Store
		}

		entry, err := writer.CreateHeader(header)
		if err != nil {
			return err
		}
		if p.dir {
			continue
		}

		content := p.content
		if r, ok := rendered[p.name]; ok {
			content = r
		}
		if _, err := entry.Write(content); err != nil {
			return err
		}
	}
	return writer.Close()
}
