package godocx

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"
)

// Scope is the data visible to a tag while rendering: the value bound with
// Render plus one entry per enclosing section.
type Scope struct {
	chain []any
}

// NewScope returns a scope whose only entry is data.
func NewScope(data any) Scope {
	return Scope{chain: []any{data}}
}

func (s Scope) push(v any) Scope {
	chain := make([]any, len(s.chain), len(s.chain)+1)
	copy(chain, s.chain)
	return Scope{chain: append(chain, v)}
}

// Current returns the innermost scope value.
func (s Scope) Current() any {
	if len(s.chain) == 0 {
		return nil
	}
	return s.chain[len(s.chain)-1]
}

// Lookup resolves name against the scope chain, innermost first.
func (s Scope) Lookup(name string) (any, bool) {
	for i := len(s.chain) - 1; i >= 0; i-- {
		if m, ok := s.chain[i].(map[string]any); ok {
			if v, ok := m[name]; ok {
				return v, true
			}
		}
	}
	return nil, false
}

// Env flattens the chain into one map, inner keys shadowing outer ones.
// "this" is bound to the innermost value.
func (s Scope) Env() map[string]any {
	env := make(map[string]any)
	for _, v := range s.chain {
		if m, ok := v.(map[string]any); ok {
			for k, val := range m {
				env[k] = val
			}
		}
	}
	env["this"] = s.Current()
	return env
}

// Resolver evaluates one compiled tag against a scope.
type Resolver interface {
	Get(scope Scope) (any, error)
}

// ResolverFunc adapts a function to Resolver.
type ResolverFunc func(scope Scope) (any, error)

func (f ResolverFunc) Get(scope Scope) (any, error) { return f(scope) }

// Parser compiles the text of a tag (without delimiters and prefix) into a
// Resolver. It is called once per distinct tag text.
type Parser func(tag string) (Resolver, error)

// DefaultParser treats a tag as a plain key looked up through the scope
// chain; "." is the innermost scope itself.
func DefaultParser(tag string) (Resolver, error) {
	name := strings.TrimSpace(tag)
	if name == "." {
		return ResolverFunc(func(s Scope) (any, error) {
			return s.Current(), nil
		}), nil
	}
	return ResolverFunc(func(s Scope) (any, error) {
		v, _ := s.Lookup(name)
		return v, nil
	}), nil
}

// truthy follows the loose truthiness templates are written against: nil,
// false, zero numbers, empty strings and empty lists are false. Maps are
// always true.
func truthy(v any) bool {
	if v == nil {
		return false
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Bool:
		return rv.Bool()
	case reflect.String:
		return rv.Len() > 0
	case reflect.Slice, reflect.Array:
		return rv.Len() > 0
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return rv.Int() != 0
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return rv.Uint() != 0
	case reflect.Float32, reflect.Float64:
		f := rv.Float()
		return f != 0 && f == f
	case reflect.Pointer, reflect.Interface:
		return !rv.IsNil()
	}
	return true
}

// sectionScopes returns the scopes a section body is rendered with, one per
// repetition.
func sectionScopes(v any, inverted bool, s Scope) []Scope {
	if inverted {
		if truthy(v) {
			return nil
		}
		return []Scope{s}
	}
	if !truthy(v) {
		return nil
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		out := make([]Scope, rv.Len())
		for i := range out {
			out[i] = s.push(rv.Index(i).Interface())
		}
		return out
	case reflect.Map:
		return []Scope{s.push(v)}
	}
	return []Scope{s}
}

func formatValue(v any, null string) string {
	switch x := v.(type) {
	case nil:
		return null
	case string:
		return x
	case bool:
		return strconv.FormatBool(x)
	case int:
		return strconv.Itoa(x)
	case int64:
		return strconv.FormatInt(x, 10)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(x), 'f', -1, 32)
	case fmt.Stringer:
		return x.String()
	}
	return fmt.Sprint(v)
}
