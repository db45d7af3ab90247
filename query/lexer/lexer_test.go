package lexer

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenizeRoundTrip(t *testing.T) {
	inputs := []string{
		"SELECT a.id, COUNT(*) FROM #__users AS a WHERE a.name = 'x''y' -- trailing",
		"SELECT [a b], \"c\" FROM t /* block */ WHERE x::text = :name",
		"INSERT INTO t VALUES ('unterminated",
		"",
	}
	for _, f := range []Flavor{ANSI, MySQL, PostgreSQL, SQLite, SQLServer} {
		for _, in := range inputs {
			toks, err := f.Tokenize(in)
			require.NoError(t, err)

			var b strings.Builder
			for _, tok := range toks {
				b.WriteString(tok.Text)
			}
			assert.Equal(t, in, b.String(), "flavor %s", f.Name)
		}
	}
}

func TestTokenizeKinds(t *testing.T) {
	toks, err := SQLServer.Tokenize("[a] = 'b' AND :c <> ? -- d")
	require.NoError(t, err)

	var kinds []Kind
	for _, tok := range toks {
		if tok.Kind != Whitespace {
			kinds = append(kinds, tok.Kind)
		}
	}
	assert.Equal(t, []Kind{QuotedIdent, Operator, String, Word, Param, Operator, Positional, Comment}, kinds)
}

func TestTokenizeCastIsNotParam(t *testing.T) {
	toks, err := PostgreSQL.Tokenize("a::text")
	require.NoError(t, err)
	require.Len(t, toks, 3)
	assert.Equal(t, Operator, toks[1].Kind)
	assert.Equal(t, Word, toks[2].Kind)
}

func TestReplacePrefix(t *testing.T) {
	tests := []struct {
		name   string
		flavor Flavor
		sql    string
		want   string
	}{
		{
			name:   "literal untouched",
			flavor: MySQL,
			sql:    "SELECT * FROM #__x WHERE name='#__literal'",
			want:   "SELECT * FROM jos_x WHERE name='#__literal'",
		},
		{
			name:   "escaped quote keeps literal open",
			flavor: MySQL,
			sql:    `SELECT * FROM #__a WHERE b = 'it\'s #__c' AND d = #__e.f`,
			want:   `SELECT * FROM jos_a WHERE b = 'it\'s #__c' AND d = jos_e.f`,
		},
		{
			name:   "double quoted string in mysql",
			flavor: MySQL,
			sql:    `SELECT "#__a" FROM #__b`,
			want:   `SELECT "#__a" FROM jos_b`,
		},
		{
			name:   "double quoted identifier in sqlserver",
			flavor: SQLServer,
			sql:    `SELECT "x" FROM "#__b" JOIN [#__c] ON 1 = 1 WHERE y = '#__d'`,
			want:   `SELECT "x" FROM "jos_b" JOIN [jos_c] ON 1 = 1 WHERE y = '#__d'`,
		},
		{
			name:   "doubled quote in sqlserver",
			flavor: SQLServer,
			sql:    `SELECT 'a''#__b' FROM #__c`,
			want:   `SELECT 'a''#__b' FROM jos_c`,
		},
		{
			name:   "escape string in postgresql",
			flavor: PostgreSQL,
			sql:    `SELECT E'it\'s #__a', 'b\' FROM #__c WHERE d = e'#__f'`,
			want:   `SELECT E'it\'s #__a', 'b\' FROM jos_c WHERE d = e'#__f'`,
		},
		{
			name:   "unterminated literal left alone",
			flavor: ANSI,
			sql:    "SELECT #__a WHERE b = '#__c",
			want:   "SELECT jos_a WHERE b = '#__c",
		},
		{
			name:   "no placeholder",
			flavor: ANSI,
			sql:    "  SELECT 1  ",
			want:   "SELECT 1",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.flavor.ReplacePrefix(tt.sql, "#__", "jos_"))
		})
	}
}

func TestMapNamedParams(t *testing.T) {
	m, err := MySQL.MapNamedParams("SELECT * FROM t WHERE a = :id OR b = ':id' OR c = :id AND d = :name -- :x", Question)
	require.NoError(t, err)

	assert.Equal(t, "SELECT * FROM t WHERE a = ? OR b = ':id' OR c = ? AND d = ? -- :x", m.SQL)
	assert.Equal(t, []int{1, 2}, m.Positions[":id"])
	assert.Equal(t, []int{3}, m.Positions[":name"])
	assert.Equal(t, 3, m.Count)
	assert.NotContains(t, m.Positions, ":x")
}

func TestMapNamedParamsPositional(t *testing.T) {
	m, err := PostgreSQL.MapNamedParams("UPDATE t SET a = ?, b = :b WHERE c = ?", Dollar)
	require.NoError(t, err)

	assert.Equal(t, "UPDATE t SET a = $1, b = $2 WHERE c = $3", m.SQL)
	assert.Equal(t, []int{1}, m.Positions["1"])
	assert.Equal(t, []int{2}, m.Positions[":b"])
	assert.Equal(t, []int{3}, m.Positions["2"])
}

func TestSplitExpression(t *testing.T) {
	tests := []struct {
		name string
		expr string
		want [][]string
	}{
		{
			name: "quotes and calls",
			expr: "a, 'x,y', f(b,c)",
			want: [][]string{{"a"}, {"'x,y'"}, {"f(b,c)"}},
		},
		{
			name: "aliases",
			expr: "a.id AS [key], b.name title",
			want: [][]string{{"a.id", "AS", "[key]"}, {"b.name", "title"}},
		},
		{
			name: "operators without spaces",
			expr: "a.x+b.y*2",
			want: [][]string{{"a.x", "+", "b.y", "*", "2"}},
		},
		{
			name: "wildcards",
			expr: "*, a.*",
			want: [][]string{{"*"}, {"a.*"}},
		},
		{
			name: "comments dropped",
			expr: "a -- first\n, /* second */ b",
			want: [][]string{{"a"}, {"b"}},
		},
		{
			name: "dot after whitespace",
			expr: "a .b",
			want: [][]string{{"a.b"}},
		},
		{
			name: "adjacent operators merge",
			expr: "a + -b",
			want: [][]string{{"a", "+-", "b"}},
		},
		{
			name: "nested parentheses keep spacing",
			expr: "COUNT(DISTINCT (a + b)) AS n",
			want: [][]string{{"COUNT(DISTINCT (a + b))", "AS", "n"}},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SQLServer.SplitExpression(tt.expr))
		})
	}
}

func TestSplitStatements(t *testing.T) {
	script := `
-- seed
INSERT INTO a VALUES ('x;y');
/* only a comment */;
UPDATE a SET b = 'c' WHERE d IN (1, 2)
`
	got := SQLite.SplitStatements(script)
	require.Len(t, got, 2)
	assert.Equal(t, "-- seed\nINSERT INTO a VALUES ('x;y')", got[0])
	assert.Equal(t, "UPDATE a SET b = 'c' WHERE d IN (1, 2)", got[1])
}

func TestReturnsRows(t *testing.T) {
	tests := []struct {
		sql  string
		want bool
	}{
		{"SELECT 1", true},
		{"  (SELECT 1) UNION (SELECT 2)", true},
		{"/* hint */ with x as (select 1) select * from x", true},
		{"PRAGMA table_info(t)", true},
		{"INSERT INTO t (a) VALUES (1)", false},
		{"INSERT INTO t (a) VALUES (1) RETURNING id", true},
		{"INSERT INTO t (a) OUTPUT INSERTED.id VALUES (1)", true},
		{"UPDATE t SET a = (SELECT 1)", false},
		{"DELETE FROM t", false},
	}
	for _, tt := range tests {
		t.Run(tt.sql, func(t *testing.T) {
			assert.Equal(t, tt.want, SQLServer.ReturnsRows(tt.sql))
		})
	}
}

func TestTopLevel(t *testing.T) {
	sql := "SELECT a FROM (SELECT b FROM c ORDER BY b) x ORDER BY a"
	from := SQLServer.TopLevel(sql, "FROM")
	require.Len(t, from, 1)
	assert.Equal(t, strings.Index(sql, "FROM"), from[0])

	order := SQLServer.TopLevel(sql, "ORDER", "BY")
	require.Len(t, order, 1)
	assert.Equal(t, strings.LastIndex(sql, "ORDER BY"), order[0])
}
