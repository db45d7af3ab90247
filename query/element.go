package query

import (
	"fmt"
	"strings"
)

// Element is one clause of a statement: a keyword, the fragments appended to
// it, and the glue placed between fragments. Fragments are strings or values
// implementing fmt.Stringer, typically nested *Query or *Element values.
//
// A name ending in "()" renders its fragments inside parentheses, so "()"
// alone is an anonymous group and "UNION ()" wraps a subquery.
type Element struct {
	name     string
	elements []any
	glue     string
}

// NewElement creates an element. elements may be a single fragment or a
// slice of strings.
func NewElement(name string, elements any, glue string) *Element {
	e := &Element{name: name, glue: glue}
	e.Append(elements)
	return e
}

// Append adds fragments to the element. A []string or []any is flattened.
func (e *Element) Append(elements any) *Element {
	switch v := elements.(type) {
	case nil:
	case []string:
		for _, s := range v {
			e.elements = append(e.elements, s)
		}
	case []any:
		e.elements = append(e.elements, v...)
	default:
		e.elements = append(e.elements, v)
	}
	return e
}

// Name returns the clause keyword.
func (e *Element) Name() string { return e.name }

// SetName replaces the clause keyword.
func (e *Element) SetName(name string) *Element {
	e.name = name
	return e
}

// Glue returns the separator used between fragments.
func (e *Element) Glue() string { return e.glue }

// Elements returns the fragments. The slice is shared with the element.
func (e *Element) Elements() []any { return e.elements }

// Strings renders every fragment to a string.
func (e *Element) Strings() []string {
	out := make([]string, len(e.elements))
	for i, el := range e.elements {
		out[i] = fragment(el)
	}
	return out
}

func (e *Element) String() string {
	if len(e.elements) == 0 && !strings.HasSuffix(e.name, "()") {
		return "\n" + e.name
	}
	body := strings.Join(e.Strings(), e.glue)
	if prefix, ok := strings.CutSuffix(e.name, "()"); ok {
		if prefix == "" {
			return "(" + body + ")"
		}
		return "\n" + prefix + "(" + body + ")"
	}
	return "\n" + e.name + " " + body
}

// Clone deep-copies the element, including nested queries and elements.
func (e *Element) Clone() *Element {
	if e == nil {
		return nil
	}
	c := &Element{name: e.name, glue: e.glue}
	c.elements = make([]any, len(e.elements))
	for i, el := range e.elements {
		switch v := el.(type) {
		case *Element:
			c.elements[i] = v.Clone()
		case *Query:
			c.elements[i] = v.Clone()
		default:
			c.elements[i] = v
		}
	}
	return c
}

func fragment(v any) string {
	switch x := v.(type) {
	case string:
		return x
	case *Query:
		return strings.TrimLeft(x.String(), "\n")
	case fmt.Stringer:
		return x.String()
	default:
		return fmt.Sprint(x)
	}
}
