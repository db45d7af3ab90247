package query

import (
	"database/sql/driver"
	"fmt"
	"reflect"
	"time"

	"github.com/spf13/cast"
)

// ParamType identifies the SQL type a bound value is sent as.
type ParamType int

const (
	ParamString ParamType = iota
	ParamInt
	ParamBool
	ParamNull
	ParamLOB
)

func (t ParamType) String() string {
	switch t {
	case ParamString:
		return "string"
	case ParamInt:
		return "int"
	case ParamBool:
		return "bool"
	case ParamNull:
		return "null"
	case ParamLOB:
		return "lob"
	default:
		return fmt.Sprintf("ParamType(%d)", int(t))
	}
}

// FetchMode selects the shape of a fetched row.
type FetchMode int

const (
	// FetchDefault defers to the statement's default mode.
	FetchDefault FetchMode = iota
	// FetchAssoc returns map[string]any keyed by column name.
	FetchAssoc
	// FetchNum returns []any in column order.
	FetchNum
	// FetchBoth returns a Row addressable by name and position.
	FetchBoth
	// FetchObject fills a caller supplied struct.
	FetchObject
)

func (m FetchMode) String() string {
	switch m {
	case FetchAssoc:
		return "assoc"
	case FetchNum:
		return "num"
	case FetchBoth:
		return "both"
	case FetchObject:
		return "object"
	default:
		return "default"
	}
}

// Param is a value bound to a named placeholder.
//
// A Param is either an input, carried in Value, or an output slot, carried in
// Out as a pointer the backend writes the result into after execution. Input
// values given as pointers are dereferenced when the statement executes, so
// writes made between Bind and Execute are observed.
type Param struct {
	Value  any
	Out    any
	Type   ParamType
	Length int
	// Options are driver specific hints, such as the wire type a string is
	// sent as. Adapters without a converter ignore them.
	Options map[string]any
}

// IsOutput reports whether the parameter is an output slot.
func (p Param) IsOutput() bool {
	return p.Out != nil
}

// Resolve returns the input value coerced to the parameter's type.
func (p Param) Resolve() (any, error) {
	if p.Type == ParamNull {
		return nil, nil
	}

	v := deref(p.Value)
	if v == nil {
		return nil, nil
	}
	if valuer, ok := v.(driver.Valuer); ok {
		return valuer.Value()
	}

	switch p.Type {
	case ParamInt:
		n, err := cast.ToInt64E(v)
		if err != nil {
			return nil, fmt.Errorf("bind %v as %s: %w", v, p.Type, err)
		}
		return n, nil
	case ParamBool:
		b, err := cast.ToBoolE(v)
		if err != nil {
			return nil, fmt.Errorf("bind %v as %s: %w", v, p.Type, err)
		}
		return b, nil
	case ParamLOB:
		switch x := v.(type) {
		case []byte:
			return x, nil
		case string:
			return []byte(x), nil
		}
		return nil, fmt.Errorf("bind %T as %s: unsupported value", v, p.Type)
	default:
		switch x := v.(type) {
		case string, time.Time:
			return x, nil
		case []byte:
			return string(x), nil
		}
		s, err := cast.ToStringE(v)
		if err != nil {
			return nil, fmt.Errorf("bind %v as %s: %w", v, p.Type, err)
		}
		return s, nil
	}
}

func deref(v any) any {
	rv := reflect.ValueOf(v)
	for rv.IsValid() && rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return nil
		}
		if _, ok := rv.Interface().(driver.Valuer); ok {
			return rv.Interface()
		}
		rv = rv.Elem()
	}
	if !rv.IsValid() {
		return nil
	}
	return rv.Interface()
}
