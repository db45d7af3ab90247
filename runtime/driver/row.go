package driver

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cast"
)

// Row is one fetched row, addressable by column name or position.
type Row struct {
	columns []string
	values  []any
}

func (r Row) Columns() []string { return r.columns }

func (r Row) Values() []any { return r.values }

func (r Row) Len() int { return len(r.values) }

// At returns the value in column i.
func (r Row) At(i int) any {
	if i < 0 || i >= len(r.values) {
		return nil
	}
	return r.values[i]
}

// Get returns the value of the named column. Names match case
// insensitively.
func (r Row) Get(column string) (any, bool) {
	for i, c := range r.columns {
		if strings.EqualFold(c, column) {
			return r.values[i], true
		}
	}
	return nil, false
}

// Map returns the row keyed by column name. A later column wins when two
// share a name.
func (r Row) Map() map[string]any {
	m := make(map[string]any, len(r.columns))
	for i, c := range r.columns {
		m[c] = r.values[i]
	}
	return m
}

// Mixed returns the row keyed both by column name and by position.
func (r Row) Mixed() map[string]any {
	m := r.Map()
	for i, v := range r.values {
		m[strconv.Itoa(i)] = v
	}
	return m
}

// Scan copies the row into the struct dest points to. Fields map to
// columns through the db tag, or the snake cased field name.
func (r Row) Scan(dest any) error {
	v := reflect.ValueOf(dest)
	if v.Kind() != reflect.Pointer || v.IsNil() || v.Elem().Kind() != reflect.Struct {
		return fmt.Errorf("driver: scan into %T: need a pointer to a struct", dest)
	}
	v = v.Elem()
	t := v.Type()

	index := make(map[string]int, len(r.columns))
	for i, c := range r.columns {
		index[strings.ToLower(c)] = i
	}
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		if !field.IsExported() {
			continue
		}
		name, ok := columnName(field)
		if !ok {
			continue
		}
		col, ok := index[strings.ToLower(name)]
		if !ok {
			continue
		}
		if err := setField(v.Field(i), r.values[col]); err != nil {
			return fmt.Errorf("driver: scan column %s into %s: %w", name, field.Name, err)
		}
	}
	return nil
}

// columnName returns the column a struct field maps to.
func columnName(f reflect.StructField) (string, bool) {
	tag := f.Tag.Get("db")
	if tag == "-" {
		return "", false
	}
	if name, _, _ := strings.Cut(tag, ","); name != "" {
		return name, true
	}
	return toSnakeCase(f.Name), true
}

func toSnakeCase(s string) string {
	var b strings.Builder
	for i, r := range s {
		if i > 0 && r >= 'A' && r <= 'Z' {
			b.WriteByte('_')
		}
		b.WriteRune(r)
	}
	return strings.ToLower(b.String())
}

var timeType = reflect.TypeOf(time.Time{})

// setField stores a scanned value into a struct field, converting between
// the driver's representation and the field type.
func setField(field reflect.Value, value any) error {
	if value == nil {
		field.Set(reflect.Zero(field.Type()))
		return nil
	}
	if field.Kind() == reflect.Pointer {
		elem := reflect.New(field.Type().Elem())
		if err := setField(elem.Elem(), value); err != nil {
			return err
		}
		field.Set(elem)
		return nil
	}
	if scanner, ok := field.Addr().Interface().(interface{ Scan(any) error }); ok {
		return scanner.Scan(value)
	}

	rv := reflect.ValueOf(value)
	if rv.Type().AssignableTo(field.Type()) {
		field.Set(rv)
		return nil
	}

	var (
		out any
		err error
	)
	switch {
	case field.Type() == timeType:
		out, err = cast.ToTimeE(value)
	case field.Kind() == reflect.String:
		out, err = cast.ToStringE(value)
	case field.Kind() == reflect.Bool:
		out, err = cast.ToBoolE(value)
	case field.CanInt():
		out, err = cast.ToInt64E(value)
	case field.CanUint():
		out, err = cast.ToUint64E(value)
	case field.CanFloat():
		out, err = cast.ToFloat64E(value)
	case field.Kind() == reflect.Slice && field.Type().Elem().Kind() == reflect.Uint8:
		out, err = []byte(cast.ToString(value)), nil
	default:
		if rv.Type().ConvertibleTo(field.Type()) {
			field.Set(rv.Convert(field.Type()))
			return nil
		}
		return fmt.Errorf("cannot convert %T to %s", value, field.Type())
	}
	if err != nil {
		return err
	}
	field.Set(reflect.ValueOf(out).Convert(field.Type()))
	return nil
}
