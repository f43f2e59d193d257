// Package godocx fills Word (.docx) templates with data.
//
// A template is compiled once with New and can then be rendered any number
// of times with different data:
//
//	tmpl, err := godocx.New(content, godocx.Options{ParagraphLoop: true})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	out, err := tmpl.Render(map[string]any{"name": "Ivan"})
//
// Tags use single braces by default: {name} is replaced by a value,
// {#items}...{/items} repeats its body for every element of a list (or shows
// it once for a truthy value), {^items}...{/items} shows its body when the
// value is empty or false, and {@xml} replaces its paragraph by raw XML.
package godocx

import (
	"bytes"

	"github.com/beevik/etree"
)

// Template is a compiled docx template. It is not modified by Render and
// may be rendered concurrently.
type Template struct {
	opts     Options
	parts    []*part
	compiled map[string][]node
	tags     []string
}

// New compiles a docx template. All template problems found are returned
// together as a *Error named "Multi error".
func New(content []byte, opts Options) (*Template, error) {
	opts = opts.withDefaults()
	if err := opts.validate(); err != nil {
		return nil, err
	}

	parts, err := unzipDocx(content)
	if err != nil {
		return nil, err
	}

	t := &Template{
		opts:     opts,
		parts:    parts,
		compiled: make(map[string][]node),
	}

	found := false
	resolvers := make(map[string]resolved)
	var errs []error
	for _, p := range parts {
		if p.name == mainDocument {
			found = true
		}
		if p.dir || !templatedPart.MatchString(p.name) {
			continue
		}

		doc := etree.NewDocument()
		if err := doc.ReadFromBytes(p.content); err != nil {
			e := newError(NameTemplate, "malformed_xml", "The part is not well-formed XML")
			e.File = p.name
			e.RootError = err
			errs = append(errs, e)
			continue
		}

		c := newCompiler(p.name, opts, resolvers)
		t.compiled[p.name] = c.compile(doc)
		errs = append(errs, c.errs...)
		for _, ref := range c.refs {
			if ref.tok.kind != kindClose {
				t.tags = appendUnique(t.tags, ref.tok.expr)
			}
		}
		opts.Logger.Debug("compiled template part", "part", p.name, "tags", len(c.refs))
	}

	if !found {
		e := newError(NameTemplate, "filetype_not_identified", "The filetype for this file could not be identified")
		e.Explanation = "The archive has no " + mainDocument
		return nil, e
	}
	if err := multiError(errs); err != nil {
		return nil, err
	}
	return t, nil
}

// Tags returns the distinct tag expressions of the template in document
// order.
func (t *Template) Tags() []string {
	return append([]string(nil), t.tags...)
}

// Render fills the template with data and returns the resulting docx
// package. The template itself is left untouched.
func (t *Template) Render(data any) ([]byte, error) {
	r := &renderer{opts: t.opts}
	scope := NewScope(data)

	rendered := make(map[string][]byte, len(t.compiled))
	for _, p := range t.parts {
		nodes, ok := t.compiled[p.name]
		if !ok {
			continue
		}
		doc := etree.NewDocument()
		doc.WriteSettings = etree.WriteSettings{
			CanonicalAttrVal: true,
			CanonicalText:    true,
			CanonicalEndTags: true,
		}
		renderAll(r, nodes, &doc.Element, scope)

		out, err := doc.WriteToBytes()
		if err != nil {
			e := newError(NameRendering, "write_failed", "Could not serialize the rendered part")
			e.File = p.name
			e.RootError = err
			return nil, e
		}
		rendered[p.name] = out
	}
	if err := multiError(r.errs); err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := zipDocx(&buf, t.parts, rendered); err != nil {
		e := newError(NameRendering, "zip_failed", "Could not write the output archive")
		e.RootError = err
		return nil, e
	}
	return buf.Bytes(), nil
}

func appendUnique(list []string, s string) []string {
	for _, v := range list {
		if v == s {
			return list
		}
	}
	return append(list, s)
}
