package query

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderClauseOrder(t *testing.T) {
	q := New(nil).
		Order("a").
		Where("b = 1").
		Group("c").
		Select("x").
		Having("COUNT(*) > 1").
		From("t").
		LeftJoin("u", "u.id = t.id")

	want := "SELECT x\nFROM t\nLEFT JOIN u ON u.id = t.id\nWHERE b = 1\nGROUP BY c\nHAVING COUNT(*) > 1\nORDER BY a"
	assert.Equal(t, want, q.String())

	var last int
	for _, kw := range []string{"SELECT", "FROM", "JOIN", "WHERE", "GROUP BY", "HAVING", "ORDER BY"} {
		i := strings.Index(want, kw)
		require.GreaterOrEqual(t, i, last, kw)
		last = i
	}
}

func TestRenderIsIdempotent(t *testing.T) {
	q := New(nil).Select("a").From("t").WhereIn("id", []any{1, 2}).SetLimit(5, 10)
	first := q.String()
	assert.Equal(t, first, q.String())
}

func TestSameTypeAppends(t *testing.T) {
	twice := New(nil).Select("a").Select("b").From("t")
	once := New(nil).Select("a", "b").From("t")
	assert.Equal(t, once.String(), twice.String())
	assert.NoError(t, twice.Err())
}

func TestTypeConflict(t *testing.T) {
	setters := map[string]func(*Query) *Query{
		"insert": func(q *Query) *Query { return q.Insert("t") },
		"update": func(q *Query) *Query { return q.Update("t") },
		"delete": func(q *Query) *Query { return q.Delete("t") },
		"call":   func(q *Query) *Query { return q.Call("p()") },
		"exec":   func(q *Query) *Query { return q.Exec("p") },
	}
	for name, set := range setters {
		t.Run(name, func(t *testing.T) {
			q := set(New(nil).Select("a"))
			require.ErrorIs(t, q.Err(), ErrQueryTypeAlreadyDefined)

			_, err := q.Render(context.Background())
			assert.ErrorIs(t, err, ErrQueryTypeAlreadyDefined)

			q.Clear()
			assert.NoError(t, set(q).Err())
		})
	}
}

func TestClearClauseResetsType(t *testing.T) {
	q := New(nil).Select("a").From("t")
	q.ClearClause(ClauseSelect)
	assert.Equal(t, TypeNone, q.Type())

	q.Update("t").Set("a = 1")
	assert.NoError(t, q.Err())
	assert.Equal(t, "UPDATE t\nSET a = 1", q.String())
}

func TestWhereIn(t *testing.T) {
	q := New(nil).Select("*").From("t").WhereIn("id", []any{1, 2, 3})

	assert.Equal(t, "SELECT *\nFROM t\nWHERE id IN (:preparedArray1,:preparedArray2,:preparedArray3)", q.String())
	bound := q.Bounded()
	require.Len(t, bound, 3)
	assert.Equal(t, 2, bound[":preparedArray2"].Value)
	assert.Equal(t, ParamInt, bound[":preparedArray2"].Type)

	q.WhereNotIn("name", []any{"a", "b"}, ParamString)
	assert.Contains(t, q.String(), "name NOT IN (:preparedArray4,:preparedArray5)")
	assert.Len(t, q.Bounded(), 5)

	q.Clear().Select("*").From("t").WhereIn("id", []any{9})
	assert.Contains(t, q.String(), "id IN (:preparedArray6)")
}

func TestWhereInTypes(t *testing.T) {
	q := New(nil).Select("*").From("t").WhereIn("k", []any{1, "a"}, ParamInt, ParamString)
	require.NoError(t, q.Err())
	assert.Equal(t, ParamString, q.Bounded()[":preparedArray2"].Type)

	bad := New(nil).Select("*").From("t").WhereIn("k", []any{1, 2, 3}, ParamInt, ParamString)
	assert.ErrorIs(t, bad.Err(), ErrParamCountMismatch)
}

func TestWhereInEmpty(t *testing.T) {
	q := New(nil).Select("*").From("t").WhereIn("id", nil)
	assert.Equal(t, "SELECT *\nFROM t\nWHERE 1 = 0", q.String())
	assert.Empty(t, q.Bounded())
}

func TestExtendWhere(t *testing.T) {
	q := New(nil).Select("*").From("t").Where("a = 1", "b = 2").OrWhere("c = 3", "d = 4")
	assert.Equal(t, "SELECT *\nFROM t\nWHERE (a = 1 AND b = 2) OR (c = 3 AND d = 4)", q.String())

	q.AndWhere("e = 5", "f = 6")
	assert.Equal(t, "SELECT *\nFROM t\nWHERE ((a = 1 AND b = 2) OR (c = 3 AND d = 4)) AND (e = 5 OR f = 6)", q.String())
}

func TestWhereGlueFixedOnFirstUse(t *testing.T) {
	q := New(nil).Select("*").From("t").WhereGlue("or", "a = 1").Where("b = 2")
	assert.Equal(t, "SELECT *\nFROM t\nWHERE a = 1 OR b = 2", q.String())
}

func TestInsert(t *testing.T) {
	q := New(nil).Insert("t").Columns("a", "b").Values("1,2", "3,4")
	assert.Equal(t, "INSERT INTO t(a,b) VALUES (1,2),(3,4)", q.String())

	set := New(nil).Insert("t").Set("a = 1")
	assert.Equal(t, "INSERT INTO t\nSET a = 1", set.String())

	sel := New(nil).Insert("t").Columns("a").ValuesFrom(New(nil).Select("b").From("u"))
	assert.Equal(t, "INSERT INTO t(a)\nSELECT b\nFROM u", sel.String())
}

func TestUpdateAndDelete(t *testing.T) {
	u := New(nil).Update("t").Set("a = 1", "b = 2").Where("id = 3")
	assert.Equal(t, "UPDATE t\nSET a = 1\n\t, b = 2\nWHERE id = 3", u.String())

	d := New(nil).Delete("t").Where("id = 1")
	assert.Equal(t, "DELETE\nFROM t\nWHERE id = 1", d.String())
}

func TestCallAndExec(t *testing.T) {
	assert.Equal(t, "CALL p(1)", New(nil).Call("p(1)").String())
	assert.Equal(t, "EXEC p 1,2", New(nil).Exec("p 1").Exec("2").String())
}

func TestSubqueryAlias(t *testing.T) {
	sub := New(nil).Select("id").From("t")
	q := New(nil).Select("s.id").FromQuery(sub, "s")
	assert.Equal(t, "SELECT s.id\nFROM (SELECT id\nFROM t) AS s", q.String())
	assert.Empty(t, sub.AliasName())

	missing := New(nil).Select("*").FromQuery(New(nil).Select("1"), "")
	assert.Error(t, missing.Err())
}

func TestUnionAndQuerySet(t *testing.T) {
	q := New(nil).Select("a").From("t").Union(New(nil).Select("b").From("u")).UnionAll("SELECT c FROM v")
	assert.Equal(t, "SELECT a\nFROM t\nUNION (SELECT b\nFROM u)\nUNION ALL (SELECT c FROM v)", q.String())

	base := New(nil).Select("a").From("t").Order("a")
	set := base.ToQuerySet().Union(New(nil).Select("b").From("u")).Order("1")
	assert.Equal(t, "(SELECT a\nFROM t\nORDER BY a)\nUNION (SELECT b\nFROM u)\nORDER BY 1", set.String())
	assert.Equal(t, TypeQuerySet, set.Type())
}

func TestLimitAndRawSQL(t *testing.T) {
	q := New(nil).Select("a").From("t").SetLimit(10, 5)
	assert.Equal(t, "SELECT a\nFROM t\nLIMIT 10\nOFFSET 5", q.String())

	raw := New(nil).SetQuery("SELECT 1").SetLimit(1, 0)
	assert.Equal(t, "SELECT 1\nLIMIT 1", raw.String())
}

func TestSelectRowNumber(t *testing.T) {
	q := New(nil).Select("a").From("t").SelectRowNumber("a DESC", "rn")
	assert.Equal(t, "SELECT a,ROW_NUMBER() OVER (ORDER BY a DESC) AS rn\nFROM t", q.String())

	q.SelectRowNumber("b", "rn2")
	assert.ErrorIs(t, q.Err(), ErrRowNumberDefined)
}

func TestClone(t *testing.T) {
	sub := New(nil).Select("id").From("t").Alias("s")
	q := New(nil).Select("*").FromQuery(sub, "").Where("x = :x").Bind(":x", 1, ParamInt)

	c := q.Clone()
	require.Equal(t, q.String(), c.String())

	c.Where("y = 2").Bind("x", 2, ParamInt)
	c.Clause(ClauseFrom).Elements()[0].(*Query).Where("z = 3")

	assert.NotContains(t, q.String(), "y = 2")
	assert.NotContains(t, q.String(), "z = 3")
	assert.Equal(t, 1, q.Bounded()[":x"].Value)
	assert.Equal(t, 2, c.Bounded()[":x"].Value)
}

func TestBindKeys(t *testing.T) {
	q := New(nil).Bind("a", 1, ParamInt).Bind(":b", "x", ParamString).Bind("1", true, ParamBool)
	assert.Equal(t, []string{"1", ":a", ":b"}, q.BoundKeys())

	q.Unbind("a", ":b")
	assert.Equal(t, []string{"1"}, q.BoundKeys())
}

func TestBindWithOptions(t *testing.T) {
	opts := map[string]any{"varchar": true}
	q := New(nil).BindWithOptions("a", "x", ParamString, 10, opts)
	opts["varchar"] = false

	p := q.Bounded()[":a"]
	assert.Equal(t, "x", p.Value)
	assert.Equal(t, 10, p.Length)
	assert.Equal(t, map[string]any{"varchar": true}, p.Options)

	c := q.Clone()
	c.Bounded()[":a"].Options["varchar"] = "changed"
	assert.Equal(t, true, q.Bounded()[":a"].Options["varchar"])
}

func TestCastAs(t *testing.T) {
	q := New(nil)
	s, err := q.CastAs("char", "a.id", 0)
	require.NoError(t, err)
	assert.Equal(t, "a.id", s)

	s, err = q.CastAs("CHAR", "a.id", 10)
	require.NoError(t, err)
	assert.Equal(t, "CAST(a.id AS CHAR(10))", s)

	_, err = q.CastAs("BLOB", "a.id", 0)
	assert.ErrorIs(t, err, ErrUnknownType)
}

func TestStandardQuoting(t *testing.T) {
	q := New(nil)
	assert.Equal(t, `"a"."b"`, q.QuoteName("a.b"))
	assert.Equal(t, `"t" AS "x"`, q.QuoteName("t AS x"))
	assert.Equal(t, `"a".*`, q.QuoteName("a.*"))
	assert.Equal(t, `'it''s'`, q.Quote("it's"))
}
