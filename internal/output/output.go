// Package output decides where each rendered document is written.
package output

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// FilenameField is the record field that overrides the output path.
const FilenameField = "_filename"

const docxExt = ".docx"

// Target returns the output path for the record at the 1-based index of a
// sequence. A non-empty _filename field is used verbatim; otherwise the index
// is inserted into the file name of base before its first ".docx". An empty
// string counts as absent, as CSV cells are never null.
func Target(record any, index int, base string) string {
	if m, ok := record.(map[string]any); ok {
		switch v := m[FilenameField].(type) {
		case nil:
		case string:
			if v != "" {
				return v
			}
		default:
			return fmt.Sprint(v)
		}
	}
	return Indexed(base, index)
}

// Indexed inserts index into the file name of base. Only the file name is
// looked at, so directories containing ".docx" are left alone. Without a
// ".docx" in the name the index goes before the extension.
func Indexed(base string, index int) string {
	dir, name := filepath.Split(base)
	n := strconv.Itoa(index)
	if i := strings.Index(name, docxExt); i >= 0 {
		return dir + name[:i] + n + name[i:]
	}
	ext := filepath.Ext(name)
	return dir + strings.TrimSuffix(name, ext) + n + ext
}

// Write replaces the file at path with content.
func Write(path string, content []byte) error {
	if err := os.WriteFile(path, content, 0o644); err != nil {
		return errors.Wrapf(err, "write %s", path)
	}
	return nil
}
