package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/pkg/errors"

	godocx "github.com/Navl-bm/docxtemplater"
)

// reportNode is the JSON form of one error in the report written on
// failure.
type reportNode struct {
	Name       string            `json:"name"`
	Message    string            `json:"message"`
	Stack      string            `json:"stack,omitempty"`
	Properties *reportProperties `json:"properties,omitempty"`
}

type reportProperties struct {
	ID          string        `json:"id,omitempty"`
	Explanation string        `json:"explanation,omitempty"`
	XTag        string        `json:"xtag,omitempty"`
	File        string        `json:"file,omitempty"`
	Offset      *int          `json:"offset,omitempty"`
	RootError   *reportNode   `json:"rootError,omitempty"`
	Errors      []*reportNode `json:"errors,omitempty"`
}

type stackTracer interface {
	StackTrace() errors.StackTrace
}

func writeReport(w io.Writer, err error) error {
	out, merr := json.MarshalIndent(map[string]*reportNode{"error": newReport(err)}, "", "  ")
	if merr != nil {
		return merr
	}
	_, werr := fmt.Fprintf(w, "%s\n", out)
	return werr
}

func newReport(err error) *reportNode {
	n := &reportNode{
		Name:    errorName(err),
		Message: err.Error(),
	}

	var st stackTracer
	if errors.As(err, &st) {
		n.Stack = strings.TrimSpace(fmt.Sprintf("%+v", st.StackTrace()))
	}

	var ge *godocx.Error
	if errors.As(err, &ge) {
		n.Properties = newProperties(ge)
	}
	return n
}

func newProperties(ge *godocx.Error) *reportProperties {
	p := &reportProperties{
		ID:          ge.ID,
		Explanation: ge.Explanation,
		XTag:        ge.Tag,
		File:        ge.File,
	}
	if ge.Offset >= 0 {
		offset := ge.Offset
		p.Offset = &offset
	}
	if ge.RootError != nil {
		p.RootError = newReport(ge.RootError)
	}
	for _, e := range ge.Errors {
		p.Errors = append(p.Errors, newReport(e))
	}
	return p
}

// errorName names err after its engine error name or, for other errors,
// the type of the innermost cause.
func errorName(err error) string {
	cause := errors.Cause(err)
	if ge, ok := cause.(*godocx.Error); ok {
		return ge.Name
	}

	name := fmt.Sprintf("%T", cause)
	if i := strings.LastIndex(name, "."); i >= 0 {
		name = name[i+1:]
	}
	if name == "" || strings.ToLower(name[:1]) == name[:1] {
		return "Error"
	}
	return name
}
