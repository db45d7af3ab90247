package sqlgen

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/satishbabariya/dbal/query"
	"github.com/satishbabariya/dbal/query/lexer"
)

// SQLite renders SQLite SQL.
type SQLite struct {
	query.StandardDialect
}

func NewSQLite() *SQLite {
	return &SQLite{query.StandardDialect{Quotes: [2]string{`"`, `"`}}}
}

func (d *SQLite) Name() string { return "sqlite" }

func (d *SQLite) NullDate() string { return "1970-01-01 00:00:00" }

// ProcessLimit emits LIMIT -1 when only an offset is given.
func (d *SQLite) ProcessLimit(sql string, limit, offset int) string {
	if limit <= 0 && offset <= 0 {
		return sql
	}
	if limit <= 0 {
		limit = -1
	}
	sql += "\nLIMIT " + strconv.Itoa(limit)
	if offset > 0 {
		sql += "\nOFFSET " + strconv.Itoa(offset)
	}
	return sql
}

func (d *SQLite) CastAs(typ, value string, length int) (string, error) {
	switch strings.ToUpper(typ) {
	case "CHAR":
		if length <= 0 {
			return value, nil
		}
		return "CAST(" + value + " AS TEXT)", nil
	case "INT":
		return "CAST(" + value + " AS INTEGER)", nil
	}
	return "", fmt.Errorf("%w: %s", query.ErrUnknownType, typ)
}

func (d *SQLite) Concatenate(values []string, separator string) string {
	return concatPipes(values, separator, d.Literal)
}

func (d *SQLite) CharLength(field, operator, condition string) string {
	out := "length(" + field + ")"
	if operator != "" && condition != "" {
		out += " " + operator + " " + condition
	}
	return out
}

func (d *SQLite) Length(value string) string { return "length(" + value + ")" }

func (d *SQLite) CurrentTimestamp() string { return "CURRENT_TIMESTAMP" }

func (d *SQLite) DateAdd(date string, interval int, datePart string) string {
	return fmt.Sprintf("datetime(%s, '%+d %s')", date, interval, strings.ToLower(datePart))
}

func (d *SQLite) Rand() string { return "random()" }

// Render handles UPDATE with joins through UPDATE ... FROM.
func (d *SQLite) Render(_ context.Context, q *query.Query) (string, bool, error) {
	if q.Type() != query.TypeUpdate || len(q.Joins()) == 0 {
		return "", false, nil
	}
	return renderUpdateFrom(q, lexer.SQLite), true, nil
}
