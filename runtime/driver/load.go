package driver

import (
	"context"
	"errors"
	"fmt"
	"reflect"

	"github.com/satishbabariya/dbal/query"
)

// rowsOf executes the current query and calls fn for every row. The cursor
// is closed afterwards. fn returns false to stop early.
func (d *Driver) rowsOf(ctx context.Context, fn func(Row) (bool, error)) error {
	if err := d.Execute(ctx); err != nil {
		return err
	}
	defer d.stmt.CloseCursor()
	for {
		row, err := d.stmt.FetchRow(Next, 0)
		if errors.Is(err, ErrNoMoreRows) {
			return nil
		}
		if err != nil {
			return err
		}
		more, err := fn(row)
		if err != nil || !more {
			return err
		}
	}
}

// LoadResult returns the first column of the first row, or nil when the
// query returns no rows.
func (d *Driver) LoadResult(ctx context.Context) (any, error) {
	var out any
	err := d.rowsOf(ctx, func(r Row) (bool, error) {
		out = r.At(0)
		return false, nil
	})
	return out, err
}

// LoadColumn returns column offset of every row.
func (d *Driver) LoadColumn(ctx context.Context, offset int) ([]any, error) {
	var out []any
	err := d.rowsOf(ctx, func(r Row) (bool, error) {
		out = append(out, r.At(offset))
		return true, nil
	})
	return out, err
}

// LoadRow returns the first row as values in column order, or nil.
func (d *Driver) LoadRow(ctx context.Context) ([]any, error) {
	var out []any
	err := d.rowsOf(ctx, func(r Row) (bool, error) {
		out = r.Values()
		return false, nil
	})
	return out, err
}

func (d *Driver) LoadRowList(ctx context.Context) ([][]any, error) {
	var out [][]any
	err := d.rowsOf(ctx, func(r Row) (bool, error) {
		out = append(out, r.Values())
		return true, nil
	})
	return out, err
}

// LoadAssoc returns the first row keyed by column name, or nil.
func (d *Driver) LoadAssoc(ctx context.Context) (map[string]any, error) {
	var out map[string]any
	err := d.rowsOf(ctx, func(r Row) (bool, error) {
		out = r.Map()
		return false, nil
	})
	return out, err
}

func (d *Driver) LoadAssocList(ctx context.Context) ([]map[string]any, error) {
	var out []map[string]any
	err := d.rowsOf(ctx, func(r Row) (bool, error) {
		out = append(out, r.Map())
		return true, nil
	})
	return out, err
}

// LoadAssocMap returns every row keyed by the value of key. A later row
// replaces an earlier one with the same key.
func (d *Driver) LoadAssocMap(ctx context.Context, key string) (map[any]map[string]any, error) {
	out := make(map[any]map[string]any)
	err := d.rowsOf(ctx, func(r Row) (bool, error) {
		k, ok := r.Get(key)
		if !ok {
			return false, fmt.Errorf("driver: result has no column %q", key)
		}
		out[k] = r.Map()
		return true, nil
	})
	return out, err
}

// LoadObject scans the first row into the struct dest points to. It
// reports whether a row was found.
func (d *Driver) LoadObject(ctx context.Context, dest any) (bool, error) {
	found := false
	err := d.rowsOf(ctx, func(r Row) (bool, error) {
		found = true
		return false, r.Scan(dest)
	})
	return found, err
}

// LoadObjectList appends every row to the slice dest points to. The
// element type is a struct or a pointer to one.
func (d *Driver) LoadObjectList(ctx context.Context, dest any) error {
	v := reflect.ValueOf(dest)
	if v.Kind() != reflect.Pointer || v.Elem().Kind() != reflect.Slice {
		return fmt.Errorf("driver: load into %T: need a pointer to a slice", dest)
	}
	slice := v.Elem()
	elem := slice.Type().Elem()
	ptr := elem.Kind() == reflect.Pointer
	if ptr {
		elem = elem.Elem()
	}
	if elem.Kind() != reflect.Struct {
		return fmt.Errorf("driver: load into %T: elements must be structs", dest)
	}
	err := d.rowsOf(ctx, func(r Row) (bool, error) {
		item := reflect.New(elem)
		if err := r.Scan(item.Interface()); err != nil {
			return false, err
		}
		if ptr {
			slice = reflect.Append(slice, item)
		} else {
			slice = reflect.Append(slice, item.Elem())
		}
		return true, nil
	})
	v.Elem().Set(slice)
	return err
}

// Iterator executes the current query and returns an iterator over its
// rows, keyed by keyColumn when set.
func (d *Driver) Iterator(ctx context.Context, keyColumn string, mode query.FetchMode) (*Iterator, error) {
	if err := d.Execute(ctx); err != nil {
		return nil, err
	}
	return d.adapter.iterator(d.stmt, keyColumn, mode)
}
