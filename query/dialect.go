package query

import (
	"context"
	"database/sql/driver"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Dialect supplies the backend specific pieces of SQL the builder emits.
type Dialect interface {
	// Name returns the adapter name the dialect belongs to.
	Name() string
	// QuoteName quotes an identifier, splitting dotted names and honoring
	// "name AS alias".
	QuoteName(name string) string
	// Escape escapes text for use inside a string literal. extra also
	// escapes the LIKE wildcards.
	Escape(text string, extra bool) string
	// Literal renders a Go value as an SQL literal.
	Literal(v any) string
	NullDate() string
	// ProcessLimit applies paging to a rendered statement.
	ProcessLimit(sql string, limit, offset int) string
	CastAs(typ, value string, length int) (string, error)
	Concatenate(values []string, separator string) string
	CharLength(field, operator, condition string) string
	Length(value string) string
	CurrentTimestamp() string
	DateAdd(date string, interval int, datePart string) string
	Rand() string
}

// Renderer is implemented by dialects that render some statement types
// themselves. handled reports whether sql should be used.
type Renderer interface {
	Render(ctx context.Context, q *Query) (sql string, handled bool, err error)
}

// StandardDialect renders ANSI SQL: double quoted identifiers, doubled single
// quotes and LIMIT/OFFSET paging. Backend dialects embed it.
type StandardDialect struct {
	// Quotes holds the opening and closing identifier quote.
	Quotes [2]string
}

var _ Dialect = StandardDialect{}

func (d StandardDialect) Name() string { return "standard" }

func (d StandardDialect) quotes() (string, string) {
	if d.Quotes[0] == "" {
		return `"`, `"`
	}
	return d.Quotes[0], d.Quotes[1]
}

func (d StandardDialect) QuoteName(name string) string {
	if before, after, ok := cutFold(name, " AS "); ok {
		return d.QuoteName(before) + " AS " + d.quoteParts(after)
	}
	return d.quoteParts(name)
}

func (d StandardDialect) quoteParts(name string) string {
	open, closing := d.quotes()
	parts := strings.Split(strings.TrimSpace(name), ".")
	for i, p := range parts {
		if p == "*" {
			continue
		}
		parts[i] = open + strings.ReplaceAll(p, closing, closing+closing) + closing
	}
	return strings.Join(parts, ".")
}

func (d StandardDialect) Escape(text string, extra bool) string {
	text = strings.ReplaceAll(text, "'", "''")
	if extra {
		text = strings.ReplaceAll(text, "%", `\%`)
		text = strings.ReplaceAll(text, "_", `\_`)
	}
	return text
}

func (d StandardDialect) Literal(v any) string {
	return FormatLiteral(v, d.Escape, "X'%X'")
}

func (d StandardDialect) NullDate() string { return "1900-01-01 00:00:00" }

func (d StandardDialect) ProcessLimit(sql string, limit, offset int) string {
	if limit > 0 {
		sql += "\nLIMIT " + strconv.Itoa(limit)
	}
	if offset > 0 {
		sql += "\nOFFSET " + strconv.Itoa(offset)
	}
	return sql
}

func (d StandardDialect) CastAs(typ, value string, length int) (string, error) {
	switch strings.ToUpper(typ) {
	case "CHAR":
		if length <= 0 {
			return value, nil
		}
		return fmt.Sprintf("CAST(%s AS CHAR(%d))", value, length), nil
	case "INT":
		return "(" + value + " + 0)", nil
	}
	return "", fmt.Errorf("%w: %s", ErrUnknownType, typ)
}

func (d StandardDialect) Concatenate(values []string, separator string) string {
	if separator == "" {
		return "CONCAT(" + strings.Join(values, ", ") + ")"
	}
	return "CONCAT_WS(" + d.Literal(separator) + ", " + strings.Join(values, ", ") + ")"
}

func (d StandardDialect) CharLength(field, operator, condition string) string {
	out := "CHAR_LENGTH(" + field + ")"
	if operator != "" && condition != "" {
		out += " " + operator + " " + condition
	}
	return out
}

func (d StandardDialect) Length(value string) string { return "LENGTH(" + value + ")" }

func (d StandardDialect) CurrentTimestamp() string { return "CURRENT_TIMESTAMP()" }

func (d StandardDialect) DateAdd(date string, interval int, datePart string) string {
	return fmt.Sprintf("DATE_ADD(%s, INTERVAL %d %s)", date, interval, strings.ToUpper(datePart))
}

func (d StandardDialect) Rand() string { return "RAND()" }

// FormatLiteral renders v as a literal using escape for strings and
// blobFormat (a Printf verb taking the bytes) for binary values.
func FormatLiteral(v any, escape func(string, bool) string, blobFormat string) string {
	v = deref(v)
	if valuer, ok := v.(driver.Valuer); ok {
		if dv, err := valuer.Value(); err == nil {
			v = dv
		}
	}
	switch x := v.(type) {
	case nil:
		return "NULL"
	case string:
		return "'" + escape(x, false) + "'"
	case []byte:
		return fmt.Sprintf(blobFormat, x)
	case bool:
		if x {
			return "1"
		}
		return "0"
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return fmt.Sprint(x)
	case float32:
		return strconv.FormatFloat(float64(x), 'g', -1, 32)
	case float64:
		return strconv.FormatFloat(x, 'g', -1, 64)
	case time.Time:
		return "'" + x.Format("2006-01-02 15:04:05") + "'"
	case fmt.Stringer:
		return "'" + escape(x.String(), false) + "'"
	default:
		return "'" + escape(fmt.Sprint(x), false) + "'"
	}
}

func cutFold(s, sep string) (before, after string, ok bool) {
	i := strings.Index(strings.ToUpper(s), strings.ToUpper(sep))
	if i < 0 {
		return s, "", false
	}
	return s[:i], s[i+len(sep):], true
}
