package godocx

import "strings"

type tagKind int

const (
	kindValue tagKind = iota
	kindOpen
	kindInverted
	kindClose
	kindRaw
)

// span is a delimited tag found in a text, [start, end) in bytes.
type span struct {
	start, end int
}

type delimiterIssue struct {
	unclosed bool
	offset   int
}

// scanTags finds every delimited tag in text. Delimiters that do not pair
// up are reported as issues and otherwise treated as literal text.
func scanTags(text string, d Delimiters) ([]span, []delimiterIssue) {
	var (
		spans  []span
		issues []delimiterIssue
		open   = -1
	)
	for i := 0; i < len(text); {
		switch {
		case open >= 0 && strings.HasPrefix(text[i:], d.End):
			i += len(d.End)
			spans = append(spans, span{start: open, end: i})
			open = -1
		case strings.HasPrefix(text[i:], d.Start):
			if open >= 0 {
				issues = append(issues, delimiterIssue{unclosed: true, offset: open})
			}
			open = i
			i += len(d.Start)
		case open < 0 && strings.HasPrefix(text[i:], d.End):
			issues = append(issues, delimiterIssue{offset: i})
			i += len(d.End)
		default:
			i++
		}
	}
	if open >= 0 {
		issues = append(issues, delimiterIssue{unclosed: true, offset: open})
	}
	return spans, issues
}

// token is a piece of a single text node: literal text or one tag.
type token struct {
	text   string
	isTag  bool
	kind   tagKind
	expr   string
	offset int
}

// lexText splits text into literal and tag tokens. Unpaired delimiters stay
// in the literal text; scanTags reports them at paragraph level.
func lexText(text string, d Delimiters) []token {
	spans, _ := scanTags(text, d)
	var toks []token
	pos := 0
	for _, sp := range spans {
		if sp.start > pos {
			toks = append(toks, token{text: text[pos:sp.start], offset: pos})
		}
		toks = append(toks, newTag(text[sp.start:sp.end], d, sp.start))
		pos = sp.end
	}
	if pos < len(text) {
		toks = append(toks, token{text: text[pos:], offset: pos})
	}
	return toks
}

func newTag(raw string, d Delimiters, offset int) token {
	inner := strings.TrimSpace(raw[len(d.Start) : len(raw)-len(d.End)])
	t := token{text: raw, isTag: true, offset: offset, expr: inner}
	if inner == "" {
		return t
	}
	switch inner[0] {
	case '#':
		t.kind = kindOpen
	case '^':
		t.kind = kindInverted
	case '/':
		t.kind = kindClose
	case '@':
		t.kind = kindRaw
	default:
		return t
	}
	t.expr = strings.TrimSpace(inner[1:])
	return t
}

func excerpt(text string, offset, n int) string {
	if offset < 0 || offset >= len(text) {
		return ""
	}
	r := []rune(text[offset:])
	if len(r) > n {
		r = r[:n]
	}
	return string(r)
}
