package sqlgen

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/hashicorp/go-version"

	"github.com/satishbabariya/dbal/query"
	"github.com/satishbabariya/dbal/query/lexer"
)

// orderPlaceholder marks where a no-op ordering goes if paging needs one.
const orderPlaceholder = "/*ORDER BY (SELECT 0)*/"

// offsetFetchSince is the first SQL Server release (2012) with OFFSET/FETCH.
var offsetFetchSince = version.Must(version.NewVersion("11.0"))

// SQLServer renders T-SQL. It repairs select lists SQL Server rejects:
// computed columns get aliases, and GROUP BY is completed with every plain
// column the select list and ORDER BY use.
type SQLServer struct {
	query.StandardDialect

	env Env

	mu      sync.Mutex
	checked bool
	legacy  bool
}

// NewSQLServer returns the SQL Server dialect. env resolves wildcard columns
// and the server version; it may be nil for rendering without a connection.
func NewSQLServer(env Env) *SQLServer {
	return &SQLServer{
		StandardDialect: query.StandardDialect{Quotes: [2]string{"[", "]"}},
		env:             env,
	}
}

func (d *SQLServer) Name() string { return "sqlserver" }

var likeEscaper = strings.NewReplacer("[", "[[]", "_", "[_]", "%", "[%]")

func (d *SQLServer) Escape(text string, extra bool) string {
	text = strings.ReplaceAll(text, "'", "''")
	if extra {
		text = likeEscaper.Replace(text)
	}
	return text
}

func (d *SQLServer) Literal(v any) string {
	if s, ok := v.(string); ok {
		return "N'" + d.Escape(s, false) + "'"
	}
	return query.FormatLiteral(v, d.Escape, "0x%X")
}

func (d *SQLServer) CastAs(typ, value string, length int) (string, error) {
	switch strings.ToUpper(typ) {
	case "CHAR":
		if length <= 0 {
			length = 30
		}
		return fmt.Sprintf("CAST(%s as NVARCHAR(%d))", value, length), nil
	case "INT":
		return "CAST(" + value + " AS INT)", nil
	}
	return "", fmt.Errorf("%w: %s", query.ErrUnknownType, typ)
}

func (d *SQLServer) Concatenate(values []string, separator string) string {
	if separator == "" {
		return "(" + strings.Join(values, " + ") + ")"
	}
	return "(" + strings.Join(values, " + "+d.Literal(separator)+" + ") + ")"
}

func (d *SQLServer) CharLength(field, operator, condition string) string {
	out := "DATALENGTH(" + field + ")"
	if operator != "" && condition != "" {
		out += " " + operator + " " + condition
	}
	return out
}

func (d *SQLServer) Length(value string) string { return "LEN(" + value + ")" }

func (d *SQLServer) CurrentTimestamp() string { return "GETDATE()" }

func (d *SQLServer) DateAdd(date string, interval int, datePart string) string {
	return fmt.Sprintf("DATEADD(%s, %d, %s)", strings.ToLower(datePart), interval, date)
}

func (d *SQLServer) Rand() string { return "NEWID()" }

// ProcessLimit pages with OFFSET/FETCH, or with TOP when only a limit is
// given. Servers older than 2012 page with ROW_NUMBER().
func (d *SQLServer) ProcessLimit(sql string, limit, offset int) string {
	return d.processLimit(context.Background(), sql, limit, offset)
}

func (d *SQLServer) processLimit(ctx context.Context, sql string, limit, offset int) string {
	if offset > 0 && d.legacyPaging(ctx) {
		return d.pageRowNumber(sql, limit, offset)
	}

	if offset > 0 {
		if pos := strings.LastIndex(sql, orderPlaceholder); pos >= 0 {
			// Only a placeholder that is the statement's last ORDER BY
			// belongs to this statement rather than to a subquery.
			if strings.LastIndex(strings.ToUpper(sql), "ORDER BY") == pos+2 {
				sql = sql[:pos] + "ORDER BY (SELECT 0)" + sql[pos+len(orderPlaceholder):]
			}
		}
		if len(lexer.SQLServer.TopLevel(sql, "ORDER", "BY")) == 0 {
			sql += "\nORDER BY (SELECT 0)"
		}
		sql += "\nOFFSET " + strconv.Itoa(offset) + " ROWS"
		if limit > 0 {
			sql += "\nFETCH NEXT " + strconv.Itoa(limit) + " ROWS ONLY"
		}
		return sql
	}

	if limit > 0 {
		sql = strings.Replace(sql, "\n"+orderPlaceholder, "", 1)
		upper := strings.ToUpper(sql)
		pos := strings.Index(upper, "SELECT")
		if pos < 0 {
			return sql
		}
		top := " TOP " + strconv.Itoa(limit)
		if strings.HasPrefix(upper[pos:], "SELECT DISTINCT") {
			return sql[:pos] + "SELECT DISTINCT" + top + sql[pos+len("SELECT DISTINCT"):]
		}
		return sql[:pos] + "SELECT" + top + sql[pos+len("SELECT"):]
	}
	return sql
}

// pageRowNumber wraps sql in a derived table numbered by ROW_NUMBER().
func (d *SQLServer) pageRowNumber(sql string, limit, offset int) string {
	sql = strings.Replace(sql, orderPlaceholder, "", 1)
	orderBy := "ORDER BY (SELECT 0)"
	if pos := lexer.SQLServer.TopLevel(sql, "ORDER", "BY"); len(pos) > 0 {
		last := pos[len(pos)-1]
		orderBy = strings.TrimSpace(sql[last:])
		sql = sql[:last]
	}
	sql = strings.TrimRight(sql, " \n\t")

	from := lexer.SQLServer.TopLevel(sql, "FROM")
	if len(from) == 0 {
		return sql
	}
	inner := strings.TrimRight(sql[:from[0]], " \n\t") +
		",ROW_NUMBER() OVER (" + orderBy + ") AS RowNumber\n" + sql[from[0]:]

	out := "SELECT * FROM (" + inner + ") AS A WHERE A.RowNumber > " + strconv.Itoa(offset)
	if limit > 0 {
		out += " AND A.RowNumber <= " + strconv.Itoa(offset+limit)
	}
	return out
}

// legacyPaging reports whether the server predates OFFSET/FETCH. The answer
// is cached once the version could be read.
func (d *SQLServer) legacyPaging(ctx context.Context) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.checked || d.env == nil {
		return d.legacy
	}
	raw, err := d.env.ServerVersion(ctx)
	if err != nil || raw == "" {
		return false
	}
	v, err := version.NewVersion(raw)
	if err != nil {
		return false
	}
	d.checked = true
	d.legacy = v.LessThan(offsetFetchSince)
	return d.legacy
}

// Render takes over SELECT rendering, and UPDATE when joins are present.
func (d *SQLServer) Render(ctx context.Context, q *query.Query) (string, bool, error) {
	switch q.Type() {
	case query.TypeSelect:
		sql, err := d.renderSelect(ctx, q)
		return sql, err == nil, err
	case query.TypeUpdate:
		if len(q.Joins()) > 0 {
			return d.renderUpdate(q), true, nil
		}
	}
	return "", false, nil
}

func (d *SQLServer) renderSelect(ctx context.Context, q *query.Query) (string, error) {
	var b strings.Builder
	write := func(el *query.Element) {
		if el != nil {
			b.WriteString(el.String())
		}
	}

	var columns [][]string
	if sel := q.Clause(query.ClauseSelect); sel != nil {
		columns = d.FixSelectAliases(sel.Strings())
		write(query.NewElement("SELECT", joinGroups(columns), ","))
	}
	write(q.Clause(query.ClauseFrom))
	for _, j := range q.Joins() {
		write(j)
	}
	write(q.Clause(query.ClauseWhere))

	group := q.Clause(query.ClauseGroup)
	if info := analyzeSelect(columns); group != nil || (info.aggregated && len(info.entries) > 0) {
		cols, err := d.FixGroupColumns(ctx, columns, q)
		if err != nil {
			return "", err
		}
		group = nil
		if len(cols) > 0 {
			group = query.NewElement("GROUP BY", cols, ",")
		}
	}
	write(group)
	write(q.Clause(query.ClauseHaving))
	for _, u := range q.Unions() {
		write(u)
	}

	if order := q.Clause(query.ClauseOrder); order != nil {
		write(order)
	} else if q.Limit() > 0 || q.Offset() > 0 {
		b.WriteString("\n" + orderPlaceholder)
	}

	sql := strings.TrimPrefix(b.String(), "\n")
	sql = d.processLimit(ctx, sql, q.Limit(), q.Offset())
	return q.WrapAlias(sql), nil
}

// renderUpdate renders "UPDATE alias SET ... FROM table alias JOIN ...".
func (d *SQLServer) renderUpdate(q *query.Query) string {
	var b strings.Builder
	target := ""
	if up := q.Clause(query.ClauseUpdate); up != nil {
		if frags := up.Strings(); len(frags) > 0 {
			target = strings.TrimSpace(frags[0])
		}
	}
	alias := target
	if words := strings.Fields(target); len(words) > 0 {
		alias = words[len(words)-1]
	}

	b.WriteString("UPDATE " + alias)
	if set := q.Clause(query.ClauseSet); set != nil {
		b.WriteString(set.String())
	}
	b.WriteString("\nFROM " + target)
	for _, j := range q.Joins() {
		b.WriteString(j.String())
	}
	if w := q.Clause(query.ClauseWhere); w != nil {
		b.WriteString(w.String())
	}
	return b.String()
}

func joinGroups(groups [][]string) []string {
	out := make([]string, 0, len(groups))
	for _, g := range groups {
		out = append(out, strings.Join(g, " "))
	}
	return out
}
