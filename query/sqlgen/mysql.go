package sqlgen

import (
	"strconv"
	"strings"

	"github.com/satishbabariya/dbal/query"
)

// MySQL renders MySQL and MariaDB SQL.
type MySQL struct {
	query.StandardDialect
}

func NewMySQL() *MySQL {
	return &MySQL{query.StandardDialect{Quotes: [2]string{"`", "`"}}}
}

func (d *MySQL) Name() string { return "mysql" }

var mysqlEscaper = strings.NewReplacer(
	`\`, `\\`,
	"'", `\'`,
	"\x00", `\0`,
	"\n", `\n`,
	"\r", `\r`,
	"\x1a", `\Z`,
)

func (d *MySQL) Escape(text string, extra bool) string {
	text = mysqlEscaper.Replace(text)
	if extra {
		text = strings.ReplaceAll(text, "%", `\%`)
		text = strings.ReplaceAll(text, "_", `\_`)
	}
	return text
}

func (d *MySQL) Literal(v any) string {
	return query.FormatLiteral(v, d.Escape, "X'%X'")
}

func (d *MySQL) NullDate() string { return "0000-00-00 00:00:00" }

// ProcessLimit uses "LIMIT offset, count". An offset without a limit uses
// the largest row count MySQL accepts.
func (d *MySQL) ProcessLimit(sql string, limit, offset int) string {
	switch {
	case limit > 0 && offset > 0:
		return sql + "\nLIMIT " + strconv.Itoa(offset) + ", " + strconv.Itoa(limit)
	case limit > 0:
		return sql + "\nLIMIT " + strconv.Itoa(limit)
	case offset > 0:
		return sql + "\nLIMIT " + strconv.Itoa(offset) + ", 18446744073709551615"
	}
	return sql
}
