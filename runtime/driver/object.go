package driver

import (
	"context"
	sqldriver "database/sql/driver"
	"fmt"
	"reflect"
	"strings"

	"github.com/satishbabariya/dbal/query"
)

var valuerType = reflect.TypeOf((*sqldriver.Valuer)(nil)).Elem()

type objectField struct {
	column string
	index  int
	value  any
	null   bool
}

// objectFields lists the scalar fields of the struct obj points to that
// match a column of table. Fields named with a leading underscore are
// skipped, as are slice, map and struct fields; []byte, time.Time and
// driver.Valuer fields count as scalars.
func (d *Driver) objectFields(ctx context.Context, table string, obj any) (reflect.Value, []objectField, error) {
	v := reflect.ValueOf(obj)
	if v.Kind() != reflect.Pointer || v.IsNil() || v.Elem().Kind() != reflect.Struct {
		return reflect.Value{}, nil, fmt.Errorf("driver: %T is not a pointer to a struct", obj)
	}
	v = v.Elem()

	columns, err := d.TableColumns(ctx, table)
	if err != nil {
		return v, nil, err
	}
	known := make(map[string]string, len(columns))
	for _, c := range columns {
		known[strings.ToLower(c)] = c
	}

	var fields []objectField
	t := v.Type()
	for i := 0; i < t.NumField(); i++ {
		sf := t.Field(i)
		if !sf.IsExported() {
			continue
		}
		name, ok := columnName(sf)
		if !ok || strings.HasPrefix(name, "_") {
			continue
		}
		column, ok := known[strings.ToLower(name)]
		if !ok {
			continue
		}
		value, null, ok := scalar(v.Field(i))
		if !ok {
			continue
		}
		fields = append(fields, objectField{column: column, index: i, value: value, null: null})
	}
	return v, fields, nil
}

// scalar returns the bindable value of a field. ok is false for fields
// that do not map to a single column.
func scalar(f reflect.Value) (value any, null, ok bool) {
	if f.Type().Implements(valuerType) {
		if f.Kind() == reflect.Pointer && f.IsNil() {
			return nil, true, true
		}
		dv, err := f.Interface().(sqldriver.Valuer).Value()
		if err != nil {
			return nil, false, false
		}
		return dv, dv == nil, true
	}
	switch f.Kind() {
	case reflect.Pointer, reflect.Interface:
		if f.IsNil() {
			return nil, true, true
		}
		return scalar(f.Elem())
	case reflect.Map, reflect.Array, reflect.Chan, reflect.Func:
		return nil, false, false
	case reflect.Slice:
		if f.Type().Elem().Kind() != reflect.Uint8 {
			return nil, false, false
		}
		if f.IsNil() {
			return nil, true, true
		}
	case reflect.Struct:
		if f.Type() != timeType {
			return nil, false, false
		}
	}
	return f.Interface(), false, true
}

func paramType(v any) query.ParamType {
	switch v.(type) {
	case nil:
		return query.ParamNull
	case bool:
		return query.ParamBool
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return query.ParamInt
	case []byte:
		return query.ParamLOB
	default:
		return query.ParamString
	}
}

// InsertObject inserts the fields of the struct obj points to that match
// columns of table. Nil fields are left out. When key names a column and
// its field is zero, it is not inserted and the generated id is written
// back into it.
func (d *Driver) InsertObject(ctx context.Context, table string, obj any, key string) error {
	v, fields, err := d.objectFields(ctx, table, obj)
	if err != nil {
		return err
	}

	q := d.NewQuery()
	var columns []string
	var values []any
	var types []query.ParamType
	for _, f := range fields {
		// A zero key is left for the database to generate.
		if f.null || (key != "" && strings.EqualFold(f.column, key) && v.Field(f.index).IsZero()) {
			continue
		}
		columns = append(columns, d.QuoteName(f.column))
		values = append(values, f.value)
		types = append(types, paramType(f.value))
	}
	if len(columns) == 0 {
		return fmt.Errorf("driver: %T has no fields for table %s", obj, table)
	}
	names := q.BindArray(values, types...)
	q.Insert(d.QuoteName(table)).Columns(columns...).Values(strings.Join(names, ","))

	if err := d.Run(ctx, q); err != nil {
		return err
	}
	if key == "" {
		return nil
	}

	for _, f := range fields {
		if !strings.EqualFold(f.column, key) {
			continue
		}
		field := v.Field(f.index)
		if !field.IsZero() {
			return nil
		}
		id, err := d.InsertID(ctx)
		if err != nil {
			return err
		}
		return setField(field, id)
	}
	return nil
}

// UpdateObject updates the row of table identified by the key fields of
// the struct obj points to. Nil key values match with IS NULL. Nil
// non-key fields are written as NULL when nulls is set and skipped
// otherwise. Nothing is executed when no field is left to set.
func (d *Driver) UpdateObject(ctx context.Context, table string, obj any, keys []string, nulls bool) error {
	_, fields, err := d.objectFields(ctx, table, obj)
	if err != nil {
		return err
	}
	isKey := func(column string) bool {
		for _, k := range keys {
			if strings.EqualFold(k, column) {
				return true
			}
		}
		return false
	}

	q := d.NewQuery().Update(d.QuoteName(table))
	n := 0
	set, where := false, false
	for _, f := range fields {
		col := d.QuoteName(f.column)
		n++
		name := fmt.Sprintf(":obj%d", n)
		switch {
		case isKey(f.column) && f.null:
			q.Where(col + " IS NULL")
			where = true
		case isKey(f.column):
			q.Where(col + " = " + name).Bind(name, f.value, paramType(f.value))
			where = true
		case f.null && nulls:
			q.Set(col + " = NULL")
			set = true
		case f.null:
		default:
			q.Set(col + " = " + name).Bind(name, f.value, paramType(f.value))
			set = true
		}
	}
	if !set {
		return nil
	}
	if !where {
		return fmt.Errorf("driver: update %s: no key field among %v", table, keys)
	}
	return d.Run(ctx, q)
}
