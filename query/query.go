// Package query builds SQL statements clause by clause and renders them for a
// backend dialect.
package query

import (
	"context"
	"fmt"
	"maps"
	"sort"
	"strconv"
	"strings"
)

// Type is the kind of statement a Query renders.
type Type string

const (
	TypeNone     Type = ""
	TypeSelect   Type = "select"
	TypeInsert   Type = "insert"
	TypeUpdate   Type = "update"
	TypeDelete   Type = "delete"
	TypeCall     Type = "call"
	TypeExec     Type = "exec"
	TypeQuerySet Type = "querySet"
)

// Clause names one clause slot of a Query.
type Clause string

const (
	ClauseSelect   Clause = "select"
	ClauseFrom     Clause = "from"
	ClauseJoin     Clause = "join"
	ClauseWhere    Clause = "where"
	ClauseGroup    Clause = "group"
	ClauseHaving   Clause = "having"
	ClauseOrder    Clause = "order"
	ClauseInsert   Clause = "insert"
	ClauseColumns  Clause = "columns"
	ClauseValues   Clause = "values"
	ClauseUpdate   Clause = "update"
	ClauseSet      Clause = "set"
	ClauseDelete   Clause = "delete"
	ClauseCall     Clause = "call"
	ClauseExec     Clause = "exec"
	ClauseUnion    Clause = "union"
	ClauseQuerySet Clause = "querySet"
	ClauseLimit    Clause = "limit"
	ClauseAlias    Clause = "alias"
	ClauseBounded  Clause = "bounded"
)

// clauseType maps the clauses that fix the statement type.
var clauseType = map[Clause]Type{
	ClauseSelect:   TypeSelect,
	ClauseInsert:   TypeInsert,
	ClauseUpdate:   TypeUpdate,
	ClauseDelete:   TypeDelete,
	ClauseCall:     TypeCall,
	ClauseExec:     TypeExec,
	ClauseQuerySet: TypeQuerySet,
}

type rowNumber struct {
	orderBy string
	alias   string
}

// Query accumulates clauses for one statement.
//
// Builder methods mutate the receiver and return it for chaining. Misuse,
// such as mixing statement types, is recorded and reported by Err and Render;
// later calls on a query that carries an error are still applied so the
// chain never panics.
type Query struct {
	dialect Dialect
	typ     Type
	sql     string
	alias   string
	limit   int
	offset  int

	clauses  map[Clause]*Element
	joins    []*Element
	unions   []*Element
	querySet *Query
	rowNum   *rowNumber

	bounded       map[string]*Param
	preparedIndex int

	err error
}

// New returns an empty query rendered with d. A nil dialect renders standard
// SQL.
func New(d Dialect) *Query {
	return &Query{
		dialect: d,
		clauses: make(map[Clause]*Element),
		bounded: make(map[string]*Param),
	}
}

// Dialect returns the dialect the query renders with.
func (q *Query) Dialect() Dialect {
	if q.dialect == nil {
		return StandardDialect{}
	}
	return q.dialect
}

// SetDialect switches the rendering dialect.
func (q *Query) SetDialect(d Dialect) *Query {
	q.dialect = d
	return q
}

// Err returns the first builder error recorded on the query.
func (q *Query) Err() error { return q.err }

// Type returns the statement type, or TypeNone.
func (q *Query) Type() Type { return q.typ }

// Clause returns the element stored for c, or nil.
func (q *Query) Clause(c Clause) *Element { return q.clauses[c] }

// Joins returns the JOIN elements in call order.
func (q *Query) Joins() []*Element { return q.joins }

// Unions returns the UNION elements in call order.
func (q *Query) Unions() []*Element { return q.unions }

// QuerySetBase returns the query a set operation starts from.
func (q *Query) QuerySetBase() *Query { return q.querySet }

// AliasName returns the subquery alias, or "".
func (q *Query) AliasName() string { return q.alias }

// RawSQL returns the statement assigned with SetQuery, or "".
func (q *Query) RawSQL() string { return q.sql }

// Limit returns the row limit; zero means unlimited.
func (q *Query) Limit() int { return q.limit }

// Offset returns the number of rows skipped.
func (q *Query) Offset() int { return q.offset }

// RowNumber reports the ordering and alias passed to SelectRowNumber.
func (q *Query) RowNumber() (orderBy, alias string, ok bool) {
	if q.rowNum == nil {
		return "", "", false
	}
	return q.rowNum.orderBy, q.rowNum.alias, true
}

func (q *Query) fail(err error) *Query {
	if q.err == nil {
		q.err = err
	}
	return q
}

// setType fixes the statement type, recording ErrQueryTypeAlreadyDefined on
// a conflict.
func (q *Query) setType(t Type) bool {
	if q.typ != TypeNone && q.typ != t {
		q.fail(fmt.Errorf("%w: cannot set %s on a %s query", ErrQueryTypeAlreadyDefined, t, q.typ))
		return false
	}
	q.typ = t
	return true
}

// appendTo creates or extends the element stored for c.
func (q *Query) appendTo(c Clause, name string, elements any, glue string) {
	if el, ok := q.clauses[c]; ok {
		el.Append(elements)
		return
	}
	q.clauses[c] = NewElement(name, elements, glue)
}

// Select adds columns to the SELECT list.
func (q *Query) Select(columns ...string) *Query {
	if q.setType(TypeSelect) {
		q.appendTo(ClauseSelect, "SELECT", columns, ",")
	}
	return q
}

// SelectRowNumber adds ROW_NUMBER() OVER (ORDER BY orderBy) AS alias to the
// select list. It can be called once per query.
func (q *Query) SelectRowNumber(orderBy, alias string) *Query {
	if q.rowNum != nil {
		return q.fail(ErrRowNumberDefined)
	}
	q.rowNum = &rowNumber{orderBy: orderBy, alias: alias}
	return q.Select(fmt.Sprintf("ROW_NUMBER() OVER (ORDER BY %s) AS %s", orderBy, alias))
}

// From adds tables to the FROM clause.
func (q *Query) From(tables ...string) *Query {
	q.appendTo(ClauseFrom, "FROM", tables, ",")
	return q
}

// FromQuery adds a derived table to the FROM clause.
func (q *Query) FromQuery(sub *Query, alias string) *Query {
	if alias != "" {
		sub = sub.Clone().Alias(alias)
	}
	if sub.alias == "" {
		return q.fail(fmt.Errorf("query: derived table needs an alias"))
	}
	q.appendTo(ClauseFrom, "FROM", sub, ",")
	return q
}

// Join adds a join of the given kind. condition is appended after ON.
func (q *Query) Join(kind, table string, condition ...string) *Query {
	if len(condition) > 0 && condition[0] != "" {
		table += " ON " + strings.Join(condition, " AND ")
	}
	name := "JOIN"
	if kind != "" {
		name = strings.ToUpper(kind) + " JOIN"
	}
	q.joins = append(q.joins, NewElement(name, table, ""))
	return q
}

func (q *Query) InnerJoin(table string, condition ...string) *Query {
	return q.Join("INNER", table, condition...)
}

func (q *Query) LeftJoin(table string, condition ...string) *Query {
	return q.Join("LEFT", table, condition...)
}

func (q *Query) RightJoin(table string, condition ...string) *Query {
	return q.Join("RIGHT", table, condition...)
}

func (q *Query) OuterJoin(table string, condition ...string) *Query {
	return q.Join("OUTER", table, condition...)
}

// Where adds conditions joined by AND.
func (q *Query) Where(conditions ...string) *Query {
	return q.WhereGlue("AND", conditions...)
}

// WhereGlue adds conditions to WHERE. The glue is fixed by the first call.
func (q *Query) WhereGlue(glue string, conditions ...string) *Query {
	q.appendTo(ClauseWhere, "WHERE", conditions, " "+strings.ToUpper(glue)+" ")
	return q
}

// WhereIn adds "key IN (...)" with one bound placeholder per value. types may
// be empty (ParamInt for all), hold one type for all values, or one per value.
func (q *Query) WhereIn(key string, values []any, types ...ParamType) *Query {
	return q.whereList(key, "IN", values, types)
}

// WhereNotIn adds "key NOT IN (...)", see WhereIn.
func (q *Query) WhereNotIn(key string, values []any, types ...ParamType) *Query {
	return q.whereList(key, "NOT IN", values, types)
}

func (q *Query) whereList(key, op string, values []any, types []ParamType) *Query {
	if len(values) == 0 {
		if op == "IN" {
			return q.Where("1 = 0")
		}
		return q.Where("1 = 1")
	}
	names, err := q.bindArray(values, types)
	if err != nil {
		return q.fail(err)
	}
	return q.Where(key + " " + op + " (" + strings.Join(names, ",") + ")")
}

// ExtendWhere wraps the current WHERE predicate in parentheses and combines
// it with a new parenthesized group using outerGlue.
func (q *Query) ExtendWhere(outerGlue string, conditions []string, innerGlue string) *Query {
	current, ok := q.clauses[ClauseWhere]
	if !ok {
		return q.WhereGlue(innerGlue, conditions...)
	}
	current.SetName("()")
	where := NewElement("WHERE", current, " "+strings.ToUpper(outerGlue)+" ")
	where.Append(NewElement("()", conditions, " "+strings.ToUpper(innerGlue)+" "))
	q.clauses[ClauseWhere] = where
	return q
}

// AndWhere combines the current WHERE with conditions joined by OR.
func (q *Query) AndWhere(conditions ...string) *Query {
	return q.ExtendWhere("AND", conditions, "OR")
}

// OrWhere combines the current WHERE with conditions joined by AND.
func (q *Query) OrWhere(conditions ...string) *Query {
	return q.ExtendWhere("OR", conditions, "AND")
}

func (q *Query) Group(columns ...string) *Query {
	q.appendTo(ClauseGroup, "GROUP BY", columns, ",")
	return q
}

// Having adds conditions joined by AND.
func (q *Query) Having(conditions ...string) *Query {
	return q.HavingGlue("AND", conditions...)
}

// HavingGlue adds conditions to HAVING. The glue is fixed by the first call.
func (q *Query) HavingGlue(glue string, conditions ...string) *Query {
	q.appendTo(ClauseHaving, "HAVING", conditions, " "+strings.ToUpper(glue)+" ")
	return q
}

func (q *Query) Order(columns ...string) *Query {
	q.appendTo(ClauseOrder, "ORDER BY", columns, ",")
	return q
}

// Insert targets table with an INSERT statement.
func (q *Query) Insert(table string) *Query {
	if q.setType(TypeInsert) {
		q.appendTo(ClauseInsert, "INSERT INTO", table, ",")
	}
	return q
}

func (q *Query) Columns(columns ...string) *Query {
	q.appendTo(ClauseColumns, "()", columns, ",")
	return q
}

// Values adds rows to an INSERT. Each value is one comma separated row.
func (q *Query) Values(values ...string) *Query {
	q.appendTo(ClauseValues, "()", values, "),(")
	return q
}

// ValuesFrom feeds an INSERT from a SELECT.
func (q *Query) ValuesFrom(sub *Query) *Query {
	q.clauses[ClauseValues] = NewElement("", sub, "")
	return q
}

func (q *Query) Update(tables ...string) *Query {
	if q.setType(TypeUpdate) {
		q.appendTo(ClauseUpdate, "UPDATE", tables, ",")
	}
	return q
}

// Set adds assignments joined by commas.
func (q *Query) Set(conditions ...string) *Query {
	return q.SetGlue(",", conditions...)
}

// SetGlue adds assignments to SET. The glue is fixed by the first call.
func (q *Query) SetGlue(glue string, conditions ...string) *Query {
	q.appendTo(ClauseSet, "SET", conditions, "\n\t"+glue+" ")
	return q
}

// Delete starts a DELETE statement; tables go to FROM.
func (q *Query) Delete(tables ...string) *Query {
	if !q.setType(TypeDelete) {
		return q
	}
	if _, ok := q.clauses[ClauseDelete]; !ok {
		q.clauses[ClauseDelete] = NewElement("DELETE", nil, ",")
	}
	if len(tables) > 0 {
		q.From(tables...)
	}
	return q
}

func (q *Query) Call(columns ...string) *Query {
	if q.setType(TypeCall) {
		q.appendTo(ClauseCall, "CALL", columns, ",")
	}
	return q
}

func (q *Query) Exec(columns ...string) *Query {
	if q.setType(TypeExec) {
		q.appendTo(ClauseExec, "EXEC", columns, ",")
	}
	return q
}

// Union appends "UNION (sub)". sub is a *Query or an SQL string.
func (q *Query) Union(sub any) *Query {
	return q.merge("UNION ()", sub)
}

// UnionAll appends "UNION ALL (sub)".
func (q *Query) UnionAll(sub any) *Query {
	return q.merge("UNION ALL ()", sub)
}

func (q *Query) merge(name string, sub any) *Query {
	switch sub.(type) {
	case *Query, string:
	default:
		return q.fail(fmt.Errorf("query: cannot merge %T", sub))
	}
	q.unions = append(q.unions, NewElement(name, sub, ""))
	return q
}

// QuerySet makes q a set operation that starts with base. Unions and ORDER
// BY added to q apply to the combined result.
func (q *Query) QuerySet(base *Query) *Query {
	if q.setType(TypeQuerySet) {
		q.querySet = base
	}
	return q
}

// ToQuerySet returns a new query using q as the base of a set operation.
func (q *Query) ToQuerySet() *Query {
	return New(q.dialect).QuerySet(q)
}

// Alias names the query when it is rendered as a subquery.
func (q *Query) Alias(alias string) *Query {
	q.alias = alias
	return q
}

// SetLimit sets paging; zero values disable limit or offset.
func (q *Query) SetLimit(limit, offset int) *Query {
	q.limit = max(limit, 0)
	q.offset = max(offset, 0)
	return q
}

// SetQuery assigns raw SQL that replaces all clause rendering. Paging is
// still applied.
func (q *Query) SetQuery(sql string) *Query {
	q.sql = sql
	return q
}

// Clear resets the query to its empty state, bound parameters included.
// Placeholder numbering continues so array names stay unique.
func (q *Query) Clear() *Query {
	q.typ = TypeNone
	q.sql = ""
	q.alias = ""
	q.limit, q.offset = 0, 0
	q.clauses = make(map[Clause]*Element)
	q.joins = nil
	q.unions = nil
	q.querySet = nil
	q.rowNum = nil
	q.bounded = make(map[string]*Param)
	q.err = nil
	return q
}

// ClearClause resets a single clause. Clearing the clause that fixed the
// statement type resets the type.
func (q *Query) ClearClause(c Clause) *Query {
	switch c {
	case ClauseJoin:
		q.joins = nil
	case ClauseUnion:
		q.unions = nil
	case ClauseQuerySet:
		q.querySet = nil
	case ClauseLimit:
		q.limit, q.offset = 0, 0
	case ClauseAlias:
		q.alias = ""
	case ClauseBounded:
		q.bounded = make(map[string]*Param)
	default:
		delete(q.clauses, c)
	}
	if c == ClauseSelect {
		q.rowNum = nil
	}
	if t, ok := clauseType[c]; ok && q.typ == t {
		q.typ = TypeNone
	}
	return q
}

// Bind binds an input value to key. A leading ':' on key is optional.
func (q *Query) Bind(key string, value any, typ ParamType) *Query {
	return q.BindParam(key, Param{Value: value, Type: typ})
}

// BindOut binds an output slot. dest must be a pointer.
func (q *Query) BindOut(key string, dest any, typ ParamType, length int) *Query {
	return q.BindParam(key, Param{Out: dest, Type: typ, Length: length})
}

// BindWithOptions binds an input value carrying driver specific options.
// The adapter the query executes on decides which options it honors and
// ignores the rest.
func (q *Query) BindWithOptions(key string, value any, typ ParamType, length int, options map[string]any) *Query {
	return q.BindParam(key, Param{Value: value, Type: typ, Length: length, Options: maps.Clone(options)})
}

// BindParam binds p to key, replacing any previous binding.
func (q *Query) BindParam(key string, p Param) *Query {
	q.bounded[NormalizeKey(key)] = &p
	return q
}

// Unbind removes bindings.
func (q *Query) Unbind(keys ...string) *Query {
	for _, k := range keys {
		delete(q.bounded, NormalizeKey(k))
	}
	return q
}

// BindArray binds each value to a fresh ":preparedArrayN" placeholder and
// returns the placeholders in order. Names are never reused on one query.
func (q *Query) BindArray(values []any, types ...ParamType) []string {
	names, err := q.bindArray(values, types)
	if err != nil {
		q.fail(err)
		return nil
	}
	return names
}

func (q *Query) bindArray(values []any, types []ParamType) ([]string, error) {
	switch len(types) {
	case 0:
		types = []ParamType{ParamInt}
	case 1, len(values):
	default:
		return nil, fmt.Errorf("%w: %d values, %d types", ErrParamCountMismatch, len(values), len(types))
	}
	names := make([]string, len(values))
	for i, v := range values {
		q.preparedIndex++
		names[i] = ":preparedArray" + strconv.Itoa(q.preparedIndex)
		typ := types[0]
		if len(types) > 1 {
			typ = types[i]
		}
		q.bounded[names[i]] = &Param{Value: v, Type: typ}
	}
	return names, nil
}

// Bounded returns a copy of the bound parameters keyed by placeholder.
func (q *Query) Bounded() map[string]Param {
	out := make(map[string]Param, len(q.bounded))
	for k, p := range q.bounded {
		out[k] = *p
	}
	return out
}

// BoundKeys returns the bound placeholder names, sorted.
func (q *Query) BoundKeys() []string {
	keys := make([]string, 0, len(q.bounded))
	for k := range q.bounded {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// NormalizeKey returns key with a leading ':' unless it is a positional
// index.
func NormalizeKey(key string) string {
	if key == "" || strings.HasPrefix(key, ":") {
		return key
	}
	if _, err := strconv.Atoi(key); err == nil {
		return key
	}
	return ":" + key
}

// Clone returns a deep copy. Nested queries and elements are copied; the
// dialect is shared.
func (q *Query) Clone() *Query {
	if q == nil {
		return nil
	}
	c := *q
	c.clauses = make(map[Clause]*Element, len(q.clauses))
	for k, el := range q.clauses {
		c.clauses[k] = el.Clone()
	}
	c.joins = cloneElements(q.joins)
	c.unions = cloneElements(q.unions)
	c.querySet = q.querySet.Clone()
	if q.rowNum != nil {
		rn := *q.rowNum
		c.rowNum = &rn
	}
	c.bounded = make(map[string]*Param, len(q.bounded))
	for k, p := range q.bounded {
		cp := *p
		cp.Options = maps.Clone(p.Options)
		c.bounded[k] = &cp
	}
	return &c
}

func cloneElements(in []*Element) []*Element {
	if in == nil {
		return nil
	}
	out := make([]*Element, len(in))
	for i, el := range in {
		out[i] = el.Clone()
	}
	return out
}

// String renders the query, ignoring errors. Use Render to observe them.
func (q *Query) String() string {
	s, _ := q.Render(context.Background())
	return s
}

// Render returns the SQL for the query. ctx bounds any metadata lookups the
// dialect performs.
func (q *Query) Render(ctx context.Context) (string, error) {
	if q.err != nil {
		return "", q.err
	}
	d := q.Dialect()
	if q.sql != "" {
		return d.ProcessLimit(q.sql, q.limit, q.offset), nil
	}
	if r, ok := d.(Renderer); ok {
		sql, handled, err := r.Render(ctx, q)
		if err != nil {
			return "", err
		}
		if handled {
			return sql, nil
		}
	}
	sql := strings.TrimPrefix(q.RenderBody(), "\n")
	sql = d.ProcessLimit(sql, q.limit, q.offset)
	return q.WrapAlias(sql), nil
}

// WrapAlias wraps a rendered SELECT in parentheses with its alias when the
// query is used as a subquery.
func (q *Query) WrapAlias(sql string) string {
	if q.typ == TypeSelect && q.alias != "" {
		return "(" + sql + ") AS " + q.alias
	}
	return sql
}

// RenderBody concatenates the clauses in statement order without paging
// or alias wrapping.
func (q *Query) RenderBody() string {
	var b strings.Builder
	write := func(c Clause) {
		if el, ok := q.clauses[c]; ok {
			b.WriteString(el.String())
		}
	}

	switch q.typ {
	case TypeSelect:
		write(ClauseSelect)
		write(ClauseFrom)
		for _, j := range q.joins {
			b.WriteString(j.String())
		}
		write(ClauseWhere)
		write(ClauseGroup)
		write(ClauseHaving)
		for _, u := range q.unions {
			b.WriteString(u.String())
		}
		write(ClauseOrder)

	case TypeQuerySet:
		if q.querySet != nil {
			base := fragment(q.querySet)
			if q.querySet.order() || q.querySet.limit > 0 || q.querySet.offset > 0 {
				base = "(" + base + ")"
			}
			b.WriteString("\n" + base)
		}
		for _, u := range q.unions {
			b.WriteString(u.String())
		}
		write(ClauseOrder)

	case TypeInsert:
		write(ClauseInsert)
		if _, ok := q.clauses[ClauseSet]; ok {
			write(ClauseSet)
			break
		}
		values, ok := q.clauses[ClauseValues]
		if !ok {
			break
		}
		write(ClauseColumns)
		if values.Name() == "" {
			for _, v := range values.Elements() {
				b.WriteString("\n" + fragment(v))
			}
			break
		}
		b.WriteString(" VALUES ")
		b.WriteString(strings.TrimPrefix(values.String(), "\n"))

	case TypeUpdate:
		write(ClauseUpdate)
		for _, j := range q.joins {
			b.WriteString(j.String())
		}
		write(ClauseSet)
		write(ClauseWhere)
		write(ClauseOrder)

	case TypeDelete:
		write(ClauseDelete)
		write(ClauseFrom)
		for _, j := range q.joins {
			b.WriteString(j.String())
		}
		write(ClauseWhere)
		write(ClauseOrder)

	case TypeCall:
		write(ClauseCall)

	case TypeExec:
		write(ClauseExec)
	}
	return b.String()
}

func (q *Query) order() bool {
	_, ok := q.clauses[ClauseOrder]
	return ok
}

// QuoteName quotes an identifier for the query's dialect.
func (q *Query) QuoteName(name string) string { return q.Dialect().QuoteName(name) }

// Quote renders text as a string literal.
func (q *Query) Quote(text string) string { return "'" + q.Dialect().Escape(text, false) + "'" }

// Escape escapes text for use inside a string literal.
func (q *Query) Escape(text string, extra bool) string { return q.Dialect().Escape(text, extra) }

func (q *Query) NullDate() string { return q.Dialect().NullDate() }

// CastAs casts value to typ. Only CHAR and INT are portable.
func (q *Query) CastAs(typ, value string, length int) (string, error) {
	return q.Dialect().CastAs(typ, value, length)
}

func (q *Query) Concatenate(values []string, separator string) string {
	return q.Dialect().Concatenate(values, separator)
}

func (q *Query) CharLength(field, operator, condition string) string {
	return q.Dialect().CharLength(field, operator, condition)
}

func (q *Query) Length(value string) string { return q.Dialect().Length(value) }

func (q *Query) CurrentTimestamp() string { return q.Dialect().CurrentTimestamp() }

func (q *Query) DateAdd(date string, interval int, datePart string) string {
	return q.Dialect().DateAdd(date, interval, datePart)
}

func (q *Query) Rand() string { return q.Dialect().Rand() }
