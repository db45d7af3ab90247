package commands

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/satishbabariya/dbal/query/lexer"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestRenderSQLServerCompletesGroupBy(t *testing.T) {
	out, err := run(t, "render", "-a", "sqlserver", "--prefix", "jos_",
		"--select", "a.id", "--select", "COUNT(a.x)", "--from", "#__a AS a")
	require.NoError(t, err)
	assert.Equal(t, "SELECT a.id,COUNT(a.x) AS [columnAlias1]\nFROM jos_a AS a\nGROUP BY a.id\n", out)
}

func TestRenderWildcardUsesKnownColumns(t *testing.T) {
	out, err := run(t, "render", "-a", "mssql", "--prefix", "jos_",
		"--select", "u.*", "--select", "COUNT(*)", "--from", "#__users AS u",
		"--columns", "#__users=id,name")
	require.NoError(t, err)
	assert.Contains(t, out, "GROUP BY u.[id],u.[name]")
}

func TestRenderJoins(t *testing.T) {
	out, err := run(t, "render", "-a", "pgsql", "--prefix", "p_",
		"--select", "a.id", "--from", "#__a AS a",
		"--join", "LEFT #__b AS b ON b.a = a.id", "--where", "a.x = 1", "--keep-placeholder")
	require.NoError(t, err)
	assert.Contains(t, out, "LEFT JOIN #__b AS b ON b.a = a.id")
	assert.Contains(t, out, "WHERE a.x = 1")
}

func TestRenderUnknownAdapter(t *testing.T) {
	_, err := run(t, "render", "-a", "oracle", "--select", "1")
	assert.Error(t, err)
}

func TestTokens(t *testing.T) {
	out, err := run(t, "tokens", "-a", "mysql", "--split", "--statements", "SELECT a, b AS c FROM t WHERE id = :id")
	require.NoError(t, err)
	assert.Contains(t, out, "Param")
	assert.Contains(t, out, ":id")
	assert.Contains(t, out, "expression split")
	assert.Contains(t, out, "statements")
}

func TestAdaptersPlain(t *testing.T) {
	out, err := run(t, "adapters", "--plain")
	require.NoError(t, err)
	assert.Contains(t, out, "| sqlite | pdosqlite | sqlite | yes |")
	assert.Contains(t, out, "| sqlserver | sqlsrv, mssql | sqlserver | yes |")
}

func TestQueryRequiresDataSource(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	_, err := run(t, "query", "SELECT 1")
	assert.ErrorContains(t, err, "no data source")
}

func TestQueryExportImportRoundTrip(t *testing.T) {
	dir := t.TempDir()
	conn := []string{"--dsn", filepath.Join(dir, "app.db"), "--prefix", "jos_"}
	must := func(args ...string) string {
		t.Helper()
		out, err := run(t, append(conn, args...)...)
		require.NoError(t, err)
		return out
	}

	must("query", "CREATE TABLE #__users (id INTEGER PRIMARY KEY, name TEXT)")
	must("query", "INSERT INTO #__users (id, name) VALUES (1, 'ann'), (2, 'bob')")
	assert.Contains(t, must("query", "SELECT name FROM #__users ORDER BY id", "--limit", "1"), "ann")
	assert.Contains(t, must("tables"), "jos_users")
	assert.Contains(t, must("tables", "#__users"), "name")

	dump := filepath.Join(dir, "users.yaml")
	must("export", "--tables", "jos_users", "--out", dump)
	must("query", "--yes", "DELETE FROM #__users")
	must("import", dump)

	out := must("query", "SELECT name FROM #__users ORDER BY id")
	assert.Contains(t, out, "ann")
	assert.Contains(t, out, "bob")

	script := must("export", "--format", "sql")
	assert.Contains(t, script, `INSERT INTO "jos_users" ("id", "name") VALUES (2, 'bob');`)
}

func TestQueryDeclinedConfirmation(t *testing.T) {
	prev := confirm
	confirm = func(string) (bool, error) { return false, nil }
	t.Cleanup(func() { confirm = prev })

	dsn := filepath.Join(t.TempDir(), "app.db")
	_, err := run(t, "--dsn", dsn, "query", "CREATE TABLE t (id INTEGER)")
	require.NoError(t, err)
	_, err = run(t, "--dsn", dsn, "query", "INSERT INTO t VALUES (1)")
	require.NoError(t, err)
	_, err = run(t, "--dsn", dsn, "query", "DROP TABLE t")
	require.NoError(t, err)

	out, err := run(t, "--dsn", dsn, "query", "SELECT COUNT(*) AS n FROM t")
	require.NoError(t, err)
	assert.Contains(t, out, "1")
}

func TestDestructive(t *testing.T) {
	tests := map[string]bool{
		"DELETE FROM t":               true,
		"  -- cleanup\n drop table t": true,
		"update t set a = 1":          true,
		"SELECT * FROM t":             false,
		"INSERT INTO t VALUES (1)":    false,
	}
	for sql, want := range tests {
		assert.Equal(t, want, destructive(lexer.SQLite, sql), sql)
	}
}

func TestSplitJoin(t *testing.T) {
	kind, table := splitJoin("left b ON b.id = a.id")
	assert.Equal(t, "LEFT", kind)
	assert.Equal(t, "b ON b.id = a.id", table)

	kind, table = splitJoin("b ON b.id = a.id")
	assert.Equal(t, "INNER", kind)
	assert.Equal(t, "b ON b.id = a.id", table)
}

func TestParseColumns(t *testing.T) {
	got := parseColumns([]string{"#__users= id, name", "bad", "t=a"}, "jos_")
	assert.Equal(t, map[string][]string{"jos_users": {"id", "name"}, "t": {"a"}}, got)
}

func TestFormatValue(t *testing.T) {
	ts := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	assert.Equal(t, "NULL", formatValue(nil))
	assert.Equal(t, "abc", formatValue([]byte("abc")))
	assert.Equal(t, "0xff00", formatValue([]byte{0xff, 0x00}))
	assert.Equal(t, "2024-05-01T12:00:00Z", formatValue(ts))
	assert.Equal(t, "42", formatValue(int64(42)))
}
