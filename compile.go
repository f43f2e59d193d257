package godocx

import (
	"strings"

	"github.com/beevik/etree"
)

// tagRef is one tag occurrence inside a w:t element.
type tagRef struct {
	tok     token
	elem    *etree.Element
	seq     int
	offset  int
	section *section
	parsed  Resolver
}

// section is a paired open/close tag.
type section struct {
	open, close *tagRef
	inverted    bool
	// inline sections live inside a single text node.
	inline bool

	lca, first, last    *etree.Element
	dropFirst, dropLast bool
}

// compiler turns one parsed XML part into a node tree.
type compiler struct {
	opts      Options
	file      string
	resolvers map[string]resolved

	errs     []error
	refs     []*tagRef
	texts    map[*etree.Element][]token
	elemRefs map[*etree.Element][]*tagRef
	starts   map[*etree.Element][]*section
	raws     map[*etree.Element]*tagRef
	consumed map[*section]bool
	offset   int
}

type resolved struct {
	r   Resolver
	err error
}

func newCompiler(file string, opts Options, resolvers map[string]resolved) *compiler {
	return &compiler{
		opts:      opts,
		file:      file,
		resolvers: resolvers,
		texts:     make(map[*etree.Element][]token),
		elemRefs:  make(map[*etree.Element][]*tagRef),
		starts:    make(map[*etree.Element][]*section),
		raws:      make(map[*etree.Element]*tagRef),
		consumed:  make(map[*section]bool),
	}
}

func (c *compiler) compile(doc *etree.Document) []node {
	walk(&doc.Element, func(el *etree.Element) bool {
		if isW(el, "p") {
			c.normalizeParagraph(el)
		}
		return true
	})

	c.collectTags(doc)
	c.pairSections()
	c.placeRawTags()

	return c.compileSequence(&doc.Element, doc.Child)
}

func (c *compiler) addError(name, id, msg string, ref *tagRef, root error) {
	e := newError(name, id, msg)
	e.File = c.file
	e.RootError = root
	if ref != nil {
		e.Tag = ref.tok.text
		e.Offset = ref.offset
	}
	c.errs = append(c.errs, e)
}

// normalizeParagraph moves every tag that is split over several w:t
// elements of p into the element holding its first character, so each tag
// can be lexed from a single text node. The concatenated paragraph text does
// not change.
func (c *compiler) normalizeParagraph(p *etree.Element) {
	nodes := paragraphTexts(p)
	if len(nodes) == 0 {
		return
	}

	texts := make([]string, len(nodes))
	var full strings.Builder
	for i, t := range nodes {
		texts[i] = t.Text()
		full.WriteString(texts[i])
	}
	fullText := full.String()

	spans, issues := scanTags(fullText, c.opts.Delimiters)
	for _, is := range issues {
		e := newError(NameTemplate, "unopened_tag", "Unopened tag")
		e.Explanation = "A closing delimiter has no matching opening delimiter"
		if is.unclosed {
			e = newError(NameTemplate, "unclosed_tag", "Unclosed tag")
			e.Explanation = "An opening delimiter is not closed in the same paragraph"
			e.Tag = excerpt(fullText, is.offset, 12)
		} else {
			start := max(0, is.offset-10)
			e.Tag = fullText[start : is.offset+len(c.opts.Delimiters.End)]
		}
		e.File = c.file
		e.Offset = c.offset + is.offset
		c.errs = append(c.errs, e)
	}
	c.offset += len(fullText)

	changed := make([]bool, len(nodes))
	for _, sp := range spans {
		si, so := locate(texts, sp.start)
		ei, eo := locate(texts, sp.end-1)
		if si == ei {
			continue
		}
		texts[si] = texts[si][:so] + fullText[sp.start:sp.end]
		for k := si + 1; k < ei; k++ {
			texts[k] = ""
			changed[k] = true
		}
		texts[ei] = texts[ei][eo+1:]
		changed[si], changed[ei] = true, true
	}

	for i, t := range nodes {
		if changed[i] {
			t.SetText(texts[i])
			t.CreateAttr("xml:space", "preserve")
		}
	}
}

// locate maps an offset in the concatenation of texts to a node index and
// an offset inside that node.
func locate(texts []string, pos int) (int, int) {
	cur := 0
	for i, t := range texts {
		if pos < cur+len(t) {
			return i, pos - cur
		}
		cur += len(t)
	}
	return len(texts) - 1, len(texts[len(texts)-1])
}

func (c *compiler) collectTags(doc *etree.Document) {
	base := 0
	walk(&doc.Element, func(el *etree.Element) bool {
		if !isW(el, "t") {
			return true
		}
		text := el.Text()
		toks := lexText(text, c.opts.Delimiters)
		c.texts[el] = toks
		for _, tok := range toks {
			if !tok.isTag {
				continue
			}
			ref := &tagRef{tok: tok, elem: el, seq: len(c.refs), offset: base + tok.offset}
			if tok.kind != kindClose {
				ref.parsed = c.resolve(ref)
			}
			c.refs = append(c.refs, ref)
			c.elemRefs[el] = append(c.elemRefs[el], ref)
		}
		base += len(text)
		return false
	})
}

// resolve compiles a tag once per distinct expression. Failures are
// reported for every occurrence.
func (c *compiler) resolve(ref *tagRef) Resolver {
	expr := ref.tok.expr
	res, ok := c.resolvers[expr]
	if !ok {
		r, err := c.opts.Parser(expr)
		res = resolved{r: r, err: err}
		c.resolvers[expr] = res
	}
	if res.err != nil {
		c.addError(NameScopeParser, "scopeparser_compilation_failed", "Scope parser compilation failed", ref, res.err)
		return nil
	}
	return res.r
}

func (c *compiler) pairSections() {
	var stack []*tagRef
	for _, ref := range c.refs {
		switch ref.tok.kind {
		case kindOpen, kindInverted:
			stack = append(stack, ref)
		case kindClose:
			if len(stack) == 0 {
				c.addError(NameTemplate, "unopened_loop", "Unopened loop", ref, nil)
				continue
			}
			open := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			if ref.tok.expr != "" && ref.tok.expr != open.tok.expr {
				c.addError(NameTemplate, "closing_tag_does_not_match_opening_tag", "Closing tag does not match opening tag", ref, nil)
				continue
			}
			c.placeSection(open, ref)
		}
	}
	for _, open := range stack {
		c.addError(NameTemplate, "unclosed_loop", "Unclosed loop", open, nil)
	}
}

func (c *compiler) placeSection(open, close *tagRef) {
	s := &section{open: open, close: close, inverted: open.tok.kind == kindInverted}
	open.section, close.section = s, s
	if open.elem == close.elem {
		s.inline = true
		return
	}

	pa, pb := ancestors(open.elem), ancestors(close.elem)
	k := 0
	for k+1 < len(pa) && k+1 < len(pb) && pa[k+1] == pb[k+1] {
		k++
	}
	s.lca, s.first, s.last = pa[k], pa[k+1], pb[k+1]
	// Cells of one row repeat the whole row.
	if isW(s.lca, "tr") && s.lca.Parent() != nil {
		s.first, s.last = s.lca, s.lca
		s.lca = s.lca.Parent()
	}

	if c.opts.ParagraphLoop {
		s.dropFirst = c.paragraphOnly(s.first, open)
		s.dropLast = c.paragraphOnly(s.last, close)
	}
	c.starts[s.first] = append(c.starts[s.first], s)
}

// paragraphOnly reports whether el is a paragraph whose only content is
// the tag ref, apart from whitespace.
func (c *compiler) paragraphOnly(el *etree.Element, ref *tagRef) bool {
	if !isW(el, "p") {
		return false
	}
	found := false
	for _, t := range paragraphTexts(el) {
		for _, tok := range c.texts[t] {
			switch {
			case !tok.isTag:
				if strings.TrimSpace(tok.text) != "" {
					return false
				}
			case t == ref.elem && tok.offset == ref.tok.offset:
				found = true
			default:
				return false
			}
		}
	}
	return found
}

func (c *compiler) placeRawTags() {
	for _, ref := range c.refs {
		if ref.tok.kind != kindRaw {
			continue
		}
		p := ref.elem.Parent()
		for p != nil && !isW(p, "p") {
			p = p.Parent()
		}
		if p == nil || !c.paragraphOnly(p, ref) {
			c.addError(NameTemplate, "raw_xml_tag_should_be_only_text_in_paragraph", "Raw tag should be the only text in paragraph", ref, nil)
			continue
		}
		c.raws[p] = ref
	}
}

// sectionAt returns the outermost section not yet compiled whose body
// starts at el among the children of parent.
func (c *compiler) sectionAt(parent, el *etree.Element) *section {
	var best *section
	for _, s := range c.starts[el] {
		if c.consumed[s] || s.lca != parent {
			continue
		}
		if best == nil || s.open.seq < best.open.seq {
			best = s
		}
	}
	return best
}

func (c *compiler) compileSequence(parent *etree.Element, toks []etree.Token) []node {
	var out []node
	for i := 0; i < len(toks); i++ {
		el, ok := toks[i].(*etree.Element)
		if !ok {
			out = append(out, &staticNode{tok: toks[i]})
			continue
		}

		s := c.sectionAt(parent, el)
		if s == nil {
			out = append(out, c.compileElement(el))
			continue
		}
		c.consumed[s] = true

		j := i
		for j < len(toks) && toks[j] != s.last {
			j++
		}
		if j == len(toks) {
			j = len(toks) - 1
		}
		body := toks[i : j+1]
		if s.dropFirst {
			body = body[1:]
		}
		if s.dropLast && len(body) > 0 && body[len(body)-1] == s.last {
			body = body[:len(body)-1]
		}
		out = append(out, &sectionNode{section: s, file: c.file, body: c.compileSequence(parent, body)})
		i = j
	}
	return out
}

func (c *compiler) compileElement(el *etree.Element) node {
	if ref, ok := c.raws[el]; ok {
		return &rawNode{ref: ref, file: c.file}
	}
	if refs := c.elemRefs[el]; len(refs) > 0 {
		return &textNode{
			space:    el.Space,
			tag:      el.Tag,
			attrs:    el.Attr,
			file:     c.file,
			segments: c.segments(el),
		}
	}
	return &elementNode{
		space:    el.Space,
		tag:      el.Tag,
		attrs:    el.Attr,
		children: c.compileSequence(el, el.Child),
	}
}

// segments builds the segment tree of a text node. Inline sections nest
// their body; tags of sections spanning elements render as nothing.
func (c *compiler) segments(el *etree.Element) []segment {
	refs := c.elemRefs[el]
	stack := [][]segment{nil}
	var open []*section

	r := 0
	for _, tok := range c.texts[el] {
		top := len(stack) - 1
		if !tok.isTag {
			stack[top] = append(stack[top], segment{literal: tok.text})
			continue
		}
		ref := refs[r]
		r++

		switch tok.kind {
		case kindValue:
			stack[top] = append(stack[top], segment{ref: ref})
		case kindOpen, kindInverted:
			if ref.section != nil && ref.section.inline {
				stack = append(stack, nil)
				open = append(open, ref.section)
			}
		case kindClose:
			if ref.section == nil || !ref.section.inline || len(open) == 0 || open[len(open)-1] != ref.section {
				continue
			}
			body := stack[top]
			stack = stack[:top]
			open = open[:len(open)-1]
			stack[top-1] = append(stack[top-1], segment{section: ref.section, body: body})
		}
	}
	return stack[0]
}

func walk(el *etree.Element, fn func(*etree.Element) bool) {
	for _, child := range el.ChildElements() {
		if fn(child) {
			walk(child, fn)
		}
	}
}

// paragraphTexts returns the w:t elements of p in document order, leaving
// out those of nested paragraphs.
func paragraphTexts(p *etree.Element) []*etree.Element {
	var out []*etree.Element
	walk(p, func(el *etree.Element) bool {
		switch {
		case isW(el, "p"):
			return false
		case isW(el, "t"):
			out = append(out, el)
			return false
		}
		return true
	})
	return out
}

// ancestors returns the chain from the document down to el.
func ancestors(el *etree.Element) []*etree.Element {
	var chain []*etree.Element
	for e := el; e != nil; e = e.Parent() {
		chain = append(chain, e)
	}
	for i, j := 0, len(chain)-1; i < j; i, j = i+1, j-1 {
		chain[i], chain[j] = chain[j], chain[i]
	}
	return chain
}

func isW(el *etree.Element, tag string) bool {
	return el.Space == "w" && el.Tag == tag
}
