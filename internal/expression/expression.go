// Package expression compiles template tags with expr-lang/expr.
//
// Tags may use property access, arithmetic, comparisons, the ternary and
// nil-coalescing operators and anything else expr supports. Evaluation sees
// the keys of every enclosing scope plus "this", the innermost scope.
package expression

import (
	"fmt"
	"strings"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/ast"
	"github.com/expr-lang/expr/vm"
	"github.com/pkg/errors"

	godocx "github.com/Navl-bm/docxtemplater"
)

// TagCompileError reports a tag that could not be compiled.
type TagCompileError struct {
	Tag string
	Err error
}

func (e *TagCompileError) Error() string {
	return fmt.Sprintf("compile tag %q: %v", e.Tag, e.Err)
}

func (e *TagCompileError) Unwrap() error { return e.Err }

// Normalize replaces typographic apostrophes that word processors put into
// tags with plain ones.
func Normalize(tag string) string {
	return strings.ReplaceAll(tag, "’", "'")
}

// NewParser returns a godocx.Parser backed by expr. Extra options are
// passed to expr.Compile.
func NewParser(opts ...expr.Option) godocx.Parser {
	return func(tag string) (godocx.Resolver, error) {
		return Compile(tag, opts...)
	}
}

// Compile compiles one tag.
func Compile(tag string, opts ...expr.Option) (godocx.Resolver, error) {
	code := strings.TrimSpace(Normalize(tag))
	if code == "." {
		return godocx.ResolverFunc(func(s godocx.Scope) (any, error) {
			return s.Current(), nil
		}), nil
	}

	base := []expr.Option{expr.AllowUndefinedVariables(), expr.Patch(nilSafe{})}
	program, err := expr.Compile(code, append(base, opts...)...)
	if err != nil {
		return nil, errors.WithStack(&TagCompileError{Tag: tag, Err: err})
	}
	return &resolver{tag: tag, program: program}, nil
}

// nilSafe turns every property and index access into its "?." form, so
// user.address.city is nil when user or address is missing.
type nilSafe struct{}

func (nilSafe) Visit(node *ast.Node) {
	m, ok := (*node).(*ast.MemberNode)
	if !ok || m.Method || m.Optional {
		return
	}
	m.Optional = true
	ast.Patch(node, &ast.ChainNode{Node: m})
}

type resolver struct {
	tag     string
	program *vm.Program
}

func (r *resolver) Get(s godocx.Scope) (any, error) {
	v, err := expr.Run(r.program, s.Env())
	if err != nil {
		return nil, errors.Wrapf(err, "evaluate %q", r.tag)
	}
	return v, nil
}
