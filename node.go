package godocx

import (
	"strings"

	"github.com/beevik/etree"
	"github.com/pkg/errors"
)

// node is an immutable piece of a compiled part. render appends the output
// for one scope to dst.
type node interface {
	render(r *renderer, dst *etree.Element, s Scope)
}

type renderer struct {
	opts Options
	errs []error
}

func (r *renderer) eval(ref *tagRef, file string, s Scope) (any, bool) {
	if ref.parsed == nil {
		return nil, false
	}
	v, err := ref.parsed.Get(s)
	if err != nil {
		e := newError(NameScopeParser, "scopeparser_execution_failed", "Scope parser execution failed")
		e.Tag = ref.tok.text
		e.File = file
		e.Offset = ref.offset
		e.RootError = err
		r.errs = append(r.errs, e)
		return nil, false
	}
	return v, true
}

func renderAll(r *renderer, nodes []node, dst *etree.Element, s Scope) {
	for _, n := range nodes {
		n.render(r, dst, s)
	}
}

// staticNode copies a non-element token.
type staticNode struct {
	tok etree.Token
}

func (n *staticNode) render(_ *renderer, dst *etree.Element, _ Scope) {
	switch t := n.tok.(type) {
	case *etree.CharData:
		if t.IsCData() {
			dst.CreateCData(t.Data)
		} else {
			dst.CreateText(t.Data)
		}
	case *etree.Comment:
		dst.CreateComment(t.Data)
	case *etree.Directive:
		dst.CreateDirective(t.Data)
	case *etree.ProcInst:
		dst.CreateProcInst(t.Target, t.Inst)
	}
}

type elementNode struct {
	space, tag string
	attrs      []etree.Attr
	children   []node
}

func (n *elementNode) render(r *renderer, dst *etree.Element, s Scope) {
	el := createElement(dst, n.space, n.tag, n.attrs)
	renderAll(r, n.children, el, s)
}

// segment is a piece of a text node: literal text, a value tag, or an
// inline section with its body.
type segment struct {
	literal string
	ref     *tagRef
	section *section
	body    []segment
}

// textNode is a w:t element holding tags.
type textNode struct {
	space, tag string
	attrs      []etree.Attr
	file       string
	segments   []segment
}

func (n *textNode) render(r *renderer, dst *etree.Element, s Scope) {
	var b strings.Builder
	n.write(r, &b, n.segments, s)
	text := b.String()

	lines := []string{text}
	if r.opts.Linebreaks {
		lines = strings.Split(text, "\n")
	}
	for i, line := range lines {
		if i > 0 {
			createElement(dst, n.space, "br", nil)
		}
		t := createElement(dst, n.space, n.tag, n.attrs)
		t.CreateAttr("xml:space", "preserve")
		t.SetText(line)
	}
}

func (n *textNode) write(r *renderer, b *strings.Builder, segs []segment, s Scope) {
	for _, seg := range segs {
		switch {
		case seg.section != nil:
			v, ok := r.eval(seg.section.open, n.file, s)
			if !ok {
				continue
			}
			for _, inner := range sectionScopes(v, seg.section.inverted, s) {
				n.write(r, b, seg.body, inner)
			}
		case seg.ref != nil:
			v, ok := r.eval(seg.ref, n.file, s)
			if ok {
				b.WriteString(formatValue(v, r.opts.NullValue))
			}
		default:
			b.WriteString(seg.literal)
		}
	}
}

// sectionNode repeats sibling elements.
type sectionNode struct {
	section *section
	file    string
	body    []node
}

func (n *sectionNode) render(r *renderer, dst *etree.Element, s Scope) {
	v, ok := r.eval(n.section.open, n.file, s)
	if !ok {
		return
	}
	for _, inner := range sectionScopes(v, n.section.inverted, s) {
		renderAll(r, n.body, dst, inner)
	}
}

// rawNode replaces a paragraph with the XML its tag evaluates to.
type rawNode struct {
	ref  *tagRef
	file string
}

func (n *rawNode) render(r *renderer, dst *etree.Element, s Scope) {
	v, ok := r.eval(n.ref, n.file, s)
	if !ok {
		return
	}
	text := formatValue(v, "")
	if strings.TrimSpace(text) == "" {
		return
	}

	frag := etree.NewDocument()
	err := frag.ReadFromString(text)
	if err == nil && len(frag.ChildElements()) == 0 {
		err = errors.Errorf("raw value %q has no XML element", text)
	}
	if err != nil {
		e := newError(NameRendering, "raw_xml_invalid", "Raw tag value is not valid XML")
		e.Tag = n.ref.tok.text
		e.File = n.file
		e.Offset = n.ref.offset
		e.RootError = err
		r.errs = append(r.errs, e)
		return
	}
	for _, el := range frag.ChildElements() {
		dst.AddChild(el.Copy())
	}
}

func createElement(dst *etree.Element, space, tag string, attrs []etree.Attr) *etree.Element {
	full := tag
	if space != "" {
		full = space + ":" + tag
	}
	el := dst.CreateElement(full)
	for _, a := range attrs {
		el.CreateAttr(a.FullKey(), a.Value)
	}
	return el
}
