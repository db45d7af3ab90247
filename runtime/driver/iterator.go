package driver

import (
	"errors"
	"iter"

	"github.com/satishbabariya/dbal/query"
)

// Iterator walks the result set of an executed statement once. It fetches
// the first row on creation and cannot be rewound.
type Iterator struct {
	stmt      *Statement
	keyColumn string
	mode      query.FetchMode

	fetched int
	current any
	key     any
	valid   bool
	err     error
}

// NewIterator wraps stmt. Rows are keyed by keyColumn when it is set and
// by a zero based counter otherwise.
func NewIterator(stmt *Statement, keyColumn string, mode query.FetchMode) (*Iterator, error) {
	it := &Iterator{stmt: stmt, keyColumn: keyColumn, mode: mode}
	if err := it.Next(); err != nil {
		return nil, err
	}
	return it, nil
}

// Count returns the number of rows in the result set.
func (it *Iterator) Count() (int64, error) { return it.stmt.RowCount() }

func (it *Iterator) Current() any { return it.current }

func (it *Iterator) Key() any { return it.key }

func (it *Iterator) Valid() bool { return it.valid }

// Err returns the error that ended the iteration early, if any.
func (it *Iterator) Err() error { return it.err }

// Next advances to the following row. At the end of the result set Valid
// turns false and Next returns nil.
func (it *Iterator) Next() error {
	row, err := it.stmt.FetchRow(Next, 0)
	if err != nil {
		it.valid, it.current, it.key = false, nil, nil
		if errors.Is(err, ErrNoMoreRows) {
			return nil
		}
		it.err = err
		return err
	}

	it.key = it.fetched
	if it.keyColumn != "" {
		if v, ok := row.Get(it.keyColumn); ok {
			it.key = v
		}
	}
	it.fetched++
	it.valid = true

	mode := it.mode
	if mode == query.FetchDefault {
		mode = it.stmt.mode
	}
	switch mode {
	case query.FetchNum:
		it.current = row.Values()
	case query.FetchAssoc:
		it.current = row.Map()
	default:
		it.current = row
	}
	return nil
}

// All yields key and row pairs until the result set ends, then closes the
// cursor.
func (it *Iterator) All() iter.Seq2[any, any] {
	return func(yield func(any, any) bool) {
		defer it.Close()
		for it.valid {
			if !yield(it.key, it.current) {
				return
			}
			if it.Next() != nil {
				return
			}
		}
	}
}

// Close releases the statement's cursor.
func (it *Iterator) Close() error {
	it.valid = false
	return it.stmt.CloseCursor()
}
