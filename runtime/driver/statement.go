package driver

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/satishbabariya/dbal/query"
	"github.com/satishbabariya/dbal/query/lexer"
)

// Orientation selects the row Fetch moves to.
type Orientation int

const (
	Next Orientation = iota
	Prior
	First
	Last
	// Abs moves to the row at the given zero based offset.
	Abs
	// Rel moves offset rows from the current one.
	Rel
)

// Statement is a prepared statement with its open result set, if any.
//
// Named placeholders are rewritten to the backend's positional style when
// the statement is prepared; values bound to a name are sent to every
// position the name occupies.
type Statement struct {
	sql     string
	mapping lexer.Mapping
	stmt    *sql.Stmt
	reads   bool
	mode    query.FetchMode
	bound   map[string]query.Param
	convert ParamConverter

	scrollable bool
	rows       *sql.Rows
	columns    []string
	binary     []bool
	// buffer holds rows read ahead of the caller. A scrollable statement
	// keeps every row and moves pos; a forward only one pops from the
	// front.
	buffer   [][]any
	pos      int
	returned int
	open     bool

	result   sql.Result
	affected int64
}

// Prepare prepares sql on p. Named and ? placeholders are mapped to the
// positional style ph renders.
func Prepare(ctx context.Context, p Preparer, sqlText string, flavor lexer.Flavor, ph lexer.Placeholder, opts StatementOptions) (*Statement, error) {
	mapping, err := flavor.MapNamedParams(sqlText, ph)
	if err != nil {
		return nil, &PrepareStatementFailureError{SQL: sqlText, Err: err}
	}
	stmt, err := p.PrepareContext(ctx, mapping.SQL)
	if err != nil {
		return nil, &PrepareStatementFailureError{SQL: sqlText, Err: err}
	}
	return &Statement{
		sql:        sqlText,
		mapping:    mapping,
		stmt:       stmt,
		reads:      flavor.ReturnsRows(sqlText),
		mode:       query.FetchAssoc,
		bound:      make(map[string]query.Param),
		convert:    opts.Convert,
		scrollable: opts.Scrollable,
		pos:        -1,
	}, nil
}

// SQL returns the statement as supplied, before placeholder mapping.
func (s *Statement) SQL() string { return s.sql }

// PreparedSQL returns the text sent to the backend.
func (s *Statement) PreparedSQL() string { return s.mapping.SQL }

// ReturnsRows reports whether executing the statement opens a result set.
func (s *Statement) ReturnsRows() bool { return s.reads }

func (s *Statement) SetFetchMode(mode query.FetchMode) {
	if mode != query.FetchDefault {
		s.mode = mode
	}
}

// BindParam binds p to key on the statement itself. Parameters passed to
// Execute take precedence.
func (s *Statement) BindParam(key string, p query.Param) {
	s.bound[query.NormalizeKey(key)] = p
}

func (s *Statement) args(params map[string]query.Param) ([]any, error) {
	args := make([]any, s.mapping.Count)
	for key, positions := range s.mapping.Positions {
		p, ok := params[key]
		if !ok {
			p, ok = s.bound[key]
		}
		if !ok {
			return nil, fmt.Errorf("parameter %s is not bound", key)
		}
		var arg any
		if p.IsOutput() {
			arg = sql.Out{Dest: p.Out}
		} else {
			v, err := p.Resolve()
			if err != nil {
				return nil, err
			}
			if len(p.Options) > 0 && s.convert != nil && v != nil {
				if v, err = s.convert(p, v); err != nil {
					return nil, fmt.Errorf("parameter %s: %w", key, err)
				}
			}
			arg = v
		}
		for _, pos := range positions {
			args[pos-1] = arg
		}
	}
	return args, nil
}

// Execute runs the statement with params. Any open result set is closed
// first.
func (s *Statement) Execute(ctx context.Context, params map[string]query.Param) error {
	if err := s.CloseCursor(); err != nil {
		return err
	}
	s.result, s.affected = nil, 0
	args, err := s.args(params)
	if err != nil {
		return newExecutionFailure(s.sql, err)
	}

	if !s.reads {
		res, err := s.stmt.ExecContext(ctx, args...)
		if err != nil {
			return newExecutionFailure(s.sql, err)
		}
		s.result = res
		s.affected, _ = res.RowsAffected()
		return nil
	}

	rows, err := s.stmt.QueryContext(ctx, args...)
	if err != nil {
		return newExecutionFailure(s.sql, err)
	}
	cols, err := rows.Columns()
	if err != nil {
		rows.Close()
		return newExecutionFailure(s.sql, err)
	}
	s.rows, s.columns, s.open = rows, cols, true
	s.binary = make([]bool, len(cols))
	if types, err := rows.ColumnTypes(); err == nil {
		for i, ct := range types {
			name := strings.ToUpper(ct.DatabaseTypeName())
			s.binary[i] = strings.Contains(name, "BLOB") || strings.Contains(name, "BINARY") || name == "BYTEA"
		}
	}
	if s.scrollable {
		if err := s.drain(); err != nil {
			return newExecutionFailure(s.sql, err)
		}
	}
	return nil
}

// read pulls one row from the driver.
func (s *Statement) read() ([]any, bool, error) {
	if s.rows == nil {
		return nil, false, nil
	}
	if !s.rows.Next() {
		err := s.rows.Err()
		s.rows.Close()
		s.rows = nil
		return nil, false, err
	}
	values := make([]any, len(s.columns))
	ptrs := make([]any, len(values))
	for i := range values {
		ptrs[i] = &values[i]
	}
	if err := s.rows.Scan(ptrs...); err != nil {
		return nil, false, err
	}
	for i, v := range values {
		if b, ok := v.([]byte); ok && !s.binary[i] {
			values[i] = string(b)
		}
	}
	return values, true, nil
}

// drain reads every remaining row into the buffer.
func (s *Statement) drain() error {
	for {
		row, ok, err := s.read()
		if err != nil {
			return err
		}
		if !ok {
			return nil
		}
		s.buffer = append(s.buffer, row)
	}
}

// Columns returns the column names of the open result set.
func (s *Statement) Columns() []string { return s.columns }

// Fetch moves the cursor and returns the row shaped per mode: []any for
// FetchNum, map[string]any for FetchAssoc, a Row for FetchBoth and
// FetchObject. ErrNoMoreRows is returned past the last row. Orientations
// other than Next need a scrollable statement.
func (s *Statement) Fetch(mode query.FetchMode, orientation Orientation, offset int) (any, error) {
	row, err := s.FetchRow(orientation, offset)
	if err != nil {
		return nil, err
	}
	if mode == query.FetchDefault {
		mode = s.mode
	}
	switch mode {
	case query.FetchNum:
		return row.Values(), nil
	case query.FetchAssoc:
		return row.Map(), nil
	default:
		return row, nil
	}
}

// FetchRow moves the cursor and returns the row.
func (s *Statement) FetchRow(orientation Orientation, offset int) (Row, error) {
	if !s.open {
		return Row{}, ErrNoMoreRows
	}
	if !s.scrollable {
		if orientation != Next {
			return Row{}, ErrNotScrollable
		}
		if len(s.buffer) > 0 {
			values := s.buffer[0]
			s.buffer = s.buffer[1:]
			s.returned++
			return Row{columns: s.columns, values: values}, nil
		}
		values, ok, err := s.read()
		if err != nil {
			return Row{}, newExecutionFailure(s.sql, err)
		}
		if !ok {
			return Row{}, ErrNoMoreRows
		}
		s.returned++
		return Row{columns: s.columns, values: values}, nil
	}

	target := s.pos
	switch orientation {
	case Next:
		target++
	case Prior:
		target--
	case First:
		target = 0
	case Last:
		target = len(s.buffer) - 1
	case Abs:
		target = offset
	case Rel:
		target += offset
	}
	if target < 0 {
		s.pos = -1
		return Row{}, ErrNoMoreRows
	}
	if target >= len(s.buffer) {
		s.pos = len(s.buffer)
		return Row{}, ErrNoMoreRows
	}
	s.pos = target
	return Row{columns: s.columns, values: s.buffer[target]}, nil
}

// FetchInto fetches the next row into the struct dest points to.
func (s *Statement) FetchInto(dest any) error {
	row, err := s.FetchRow(Next, 0)
	if err != nil {
		return err
	}
	return row.Scan(dest)
}

// RowCount returns the rows affected by a mutation or the rows in the
// result set of a read. Counting a forward only result set reads it to the
// end; the rows stay available to Fetch.
func (s *Statement) RowCount() (int64, error) {
	if !s.reads {
		return s.affected, nil
	}
	if s.scrollable {
		return int64(len(s.buffer)), nil
	}
	if err := s.drain(); err != nil {
		return 0, newExecutionFailure(s.sql, err)
	}
	return int64(s.returned + len(s.buffer)), nil
}

// LastInsertID returns the id the backend reported for the last insert.
func (s *Statement) LastInsertID() (int64, error) {
	if s.result == nil {
		return 0, fmt.Errorf("driver: no insert executed")
	}
	return s.result.LastInsertId()
}

// CloseCursor discards the open result set so the statement can run
// again. It is safe to call repeatedly.
func (s *Statement) CloseCursor() error {
	var err error
	if s.rows != nil {
		err = s.rows.Close()
		s.rows = nil
	}
	s.buffer = nil
	s.pos = -1
	s.returned = 0
	s.open = false
	return err
}

// Close closes the cursor and releases the prepared statement.
func (s *Statement) Close() error {
	cerr := s.CloseCursor()
	if err := s.stmt.Close(); err != nil {
		return err
	}
	return cerr
}
