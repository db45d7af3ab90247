package sqlgen

import (
	"context"
	"fmt"
	"strings"

	"github.com/satishbabariya/dbal/query"
	"github.com/satishbabariya/dbal/query/lexer"
)

// PostgreSQL renders PostgreSQL SQL.
type PostgreSQL struct {
	query.StandardDialect
}

func NewPostgreSQL() *PostgreSQL {
	return &PostgreSQL{query.StandardDialect{Quotes: [2]string{`"`, `"`}}}
}

func (d *PostgreSQL) Name() string { return "postgres" }

func (d *PostgreSQL) Literal(v any) string {
	if b, ok := v.(bool); ok {
		if b {
			return "TRUE"
		}
		return "FALSE"
	}
	return query.FormatLiteral(v, d.Escape, `'\x%x'`)
}

func (d *PostgreSQL) NullDate() string { return "1970-01-01 00:00:00" }

func (d *PostgreSQL) CastAs(typ, value string, length int) (string, error) {
	switch strings.ToUpper(typ) {
	case "CHAR":
		if length <= 0 {
			return value + "::text", nil
		}
		return fmt.Sprintf("CAST(%s AS CHAR(%d))", value, length), nil
	case "INT":
		return "CAST(" + value + " AS INTEGER)", nil
	}
	return "", fmt.Errorf("%w: %s", query.ErrUnknownType, typ)
}

func (d *PostgreSQL) Concatenate(values []string, separator string) string {
	return concatPipes(values, separator, d.Literal)
}

func (d *PostgreSQL) CurrentTimestamp() string { return "NOW()" }

func (d *PostgreSQL) DateAdd(date string, interval int, datePart string) string {
	return fmt.Sprintf("(%s + INTERVAL '%d %s')", date, interval, strings.ToLower(datePart))
}

func (d *PostgreSQL) Rand() string { return "RANDOM()" }

// Render handles UPDATE with joins, which PostgreSQL expresses with FROM.
func (d *PostgreSQL) Render(_ context.Context, q *query.Query) (string, bool, error) {
	if q.Type() != query.TypeUpdate || len(q.Joins()) == 0 {
		return "", false, nil
	}
	return renderUpdateFrom(q, lexer.PostgreSQL), true, nil
}

func concatPipes(values []string, separator string, literal func(any) string) string {
	glue := " || "
	if separator != "" {
		glue = " || " + literal(separator) + " || "
	}
	return strings.Join(values, glue)
}
