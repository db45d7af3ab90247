package driver

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/satishbabariya/dbal/query"
	"github.com/satishbabariya/dbal/query/lexer"
	"github.com/satishbabariya/dbal/query/sqlgen"
)

type user struct {
	ID       int64   `db:"id"`
	Name     string  `db:"name"`
	Email    *string `db:"email"`
	Age      int     `db:"age"`
	Tags     []string
	Internal string `db:"_internal"`
}

func openSQLite(t *testing.T, opts ...func(*Options)) *Driver {
	t.Helper()
	o := Options{Adapter: "sqlite", DSN: ":memory:", Prefix: "jos_"}
	for _, fn := range opts {
		fn(&o)
	}
	d, err := Open(context.Background(), o)
	require.NoError(t, err)
	t.Cleanup(func() { d.Close() })

	require.NoError(t, d.Run(context.Background(),
		"CREATE TABLE #__users (id INTEGER PRIMARY KEY AUTOINCREMENT, name TEXT NOT NULL, email TEXT, age INTEGER)"))
	return d
}

func seed(t *testing.T, d *Driver, names ...string) {
	t.Helper()
	for i, name := range names {
		require.NoError(t, d.InsertObject(context.Background(), "#__users", &user{Name: name, Age: 20 + i}, "id"))
	}
}

func count(t *testing.T, d *Driver) int64 {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, d.SetQuery(ctx, "SELECT COUNT(*) FROM #__users"))
	v, err := d.LoadResult(ctx)
	require.NoError(t, err)
	return v.(int64)
}

func TestSQLiteInsertAndUpdateObject(t *testing.T) {
	ctx := context.Background()
	d := openSQLite(t)

	email := "ann@example.com"
	u := &user{Name: "ann", Email: &email, Age: 30, Tags: []string{"x"}, Internal: "skip"}
	require.NoError(t, d.InsertObject(ctx, "#__users", u, "id"))
	assert.Equal(t, int64(1), u.ID)

	u.Name, u.Email = "anne", nil
	require.NoError(t, d.UpdateObject(ctx, "#__users", u, []string{"id"}, false))

	var got user
	require.NoError(t, d.SetQuery(ctx, d.NewQuery().Select("*").From("#__users").Where("id = :id").Bind("id", 1, query.ParamInt)))
	found, err := d.LoadObject(ctx, &got)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "anne", got.Name)
	require.NotNil(t, got.Email, "nil fields are skipped unless nulls is set")
	assert.Equal(t, email, *got.Email)

	require.NoError(t, d.UpdateObject(ctx, "#__users", u, []string{"id"}, true))
	got = user{}
	require.NoError(t, d.SetQuery(ctx, d.NewQuery().Select("*").From("#__users")))
	_, err = d.LoadObject(ctx, &got)
	require.NoError(t, err)
	assert.Nil(t, got.Email)
	assert.Equal(t, 30, got.Age)

	assert.Error(t, d.UpdateObject(ctx, "#__users", u, []string{"missing"}, true))
	assert.Error(t, d.InsertObject(ctx, "#__users", user{}, "id"))
}

func TestSQLiteLoaders(t *testing.T) {
	ctx := context.Background()
	d := openSQLite(t)
	seed(t, d, "ann", "bob", "cid")

	list := func() *query.Query {
		return d.NewQuery().Select("id", "name").From("#__users").Order("id")
	}

	require.NoError(t, d.SetQuery(ctx, list()))
	col, err := d.LoadColumn(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, []any{"ann", "bob", "cid"}, col)

	// The statement can be executed again.
	row, err := d.LoadRow(ctx)
	require.NoError(t, err)
	assert.Equal(t, []any{int64(1), "ann"}, row)

	rows, err := d.LoadRowList(ctx)
	require.NoError(t, err)
	assert.Len(t, rows, 3)

	assoc, err := d.LoadAssoc(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"id": int64(1), "name": "ann"}, assoc)

	assocs, err := d.LoadAssocList(ctx)
	require.NoError(t, err)
	require.Len(t, assocs, 3)
	assert.Equal(t, "cid", assocs[2]["name"])

	byName, err := d.LoadAssocMap(ctx, "name")
	require.NoError(t, err)
	assert.Equal(t, int64(2), byName["bob"]["id"])

	_, err = d.LoadAssocMap(ctx, "nope")
	assert.Error(t, err)

	var users []user
	require.NoError(t, d.LoadObjectList(ctx, &users))
	require.Len(t, users, 3)
	assert.Equal(t, "bob", users[1].Name)

	var ptrs []*user
	require.NoError(t, d.LoadObjectList(ctx, &ptrs))
	require.Len(t, ptrs, 3)
	assert.Equal(t, int64(3), ptrs[2].ID)

	require.NoError(t, d.SetQuery(ctx, list().Where("id > 10")))
	v, err := d.LoadResult(ctx)
	require.NoError(t, err)
	assert.Nil(t, v)
	found, err := d.LoadObject(ctx, &user{})
	require.NoError(t, err)
	assert.False(t, found)
}

func TestSQLiteLimit(t *testing.T) {
	ctx := context.Background()
	d := openSQLite(t)
	seed(t, d, "ann", "bob", "cid", "dan")

	q := d.NewQuery().Select("name").From("#__users").Order("id").SetLimit(2, 1)
	require.NoError(t, d.SetQuery(ctx, q))
	names, err := d.LoadColumn(ctx, 0)
	require.NoError(t, err)
	assert.Equal(t, []any{"bob", "cid"}, names)
}

func TestSQLiteIterator(t *testing.T) {
	ctx := context.Background()
	d := openSQLite(t)
	seed(t, d, "ann", "bob", "cid")

	require.NoError(t, d.SetQuery(ctx, d.NewQuery().Select("id", "name").From("#__users").Order("id")))
	it, err := d.Iterator(ctx, "name", query.FetchAssoc)
	require.NoError(t, err)

	n, err := it.Count()
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)

	var keys []any
	for k, v := range it.All() {
		keys = append(keys, k)
		assert.Equal(t, k, v.(map[string]any)["name"])
	}
	assert.Equal(t, []any{"ann", "bob", "cid"}, keys)
	assert.False(t, it.Valid())
	assert.NoError(t, it.Err())

	it, err = d.Iterator(ctx, "", query.FetchNum)
	require.NoError(t, err)
	assert.Equal(t, 0, it.Key())
	assert.Equal(t, []any{int64(1), "ann"}, it.Current())
	require.NoError(t, it.Next())
	assert.Equal(t, 1, it.Key())
	require.NoError(t, it.Close())
	assert.False(t, it.Valid())
}

func TestSQLiteScrollable(t *testing.T) {
	ctx := context.Background()
	d := openSQLite(t, func(o *Options) { o.Scrollable = true })
	seed(t, d, "ann", "bob", "cid")

	require.NoError(t, d.Run(ctx, "SELECT name FROM #__users ORDER BY id"))
	stmt := d.Statement()
	last, err := stmt.Fetch(query.FetchNum, Last, 0)
	require.NoError(t, err)
	assert.Equal(t, []any{"cid"}, last)
	first, err := stmt.Fetch(query.FetchNum, First, 0)
	require.NoError(t, err)
	assert.Equal(t, []any{"ann"}, first)
	_, err = stmt.Fetch(query.FetchNum, Rel, 5)
	assert.ErrorIs(t, err, ErrNoMoreRows)
}

func TestSQLiteTransactions(t *testing.T) {
	ctx := context.Background()
	d := openSQLite(t)

	require.NoError(t, d.TransactionStart(ctx, false))
	seed(t, d, "ann")
	require.NoError(t, d.TransactionStart(ctx, true))
	seed(t, d, "bob")
	require.NoError(t, d.TransactionRollback(ctx, true))
	require.NoError(t, d.TransactionCommit(ctx, false))
	assert.Equal(t, int64(1), count(t, d))

	err := d.Transact(ctx, func(ctx context.Context) error {
		seed(t, d, "cid")
		return d.Transact(ctx, func(context.Context) error {
			seed(t, d, "dan")
			return errors.New("inner failure")
		})
	})
	assert.EqualError(t, err, "inner failure")
	assert.Equal(t, 0, d.TransactionDepth())
	assert.Equal(t, int64(1), count(t, d))

	require.NoError(t, d.Transact(ctx, func(ctx context.Context) error {
		seed(t, d, "eve")
		return nil
	}))
	assert.Equal(t, int64(2), count(t, d))
}

func TestSQLiteMetadata(t *testing.T) {
	ctx := context.Background()
	d := openSQLite(t)

	cols, err := d.TableColumns(ctx, "#__users")
	require.NoError(t, err)
	assert.Equal(t, []string{"id", "name", "email", "age"}, cols)
	_, err = d.TableColumns(ctx, "jos_users")
	require.NoError(t, err)
	assert.Equal(t, int64(1), d.columns.Stats().Hits)

	tables, err := d.TableList(ctx)
	require.NoError(t, err)
	assert.Contains(t, tables, "jos_users")

	version, err := d.ServerVersion(ctx)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(version, "3."), version)

	seed(t, d, "ann", "bob")
	require.NoError(t, d.TruncateTable(ctx, "#__users"))
	assert.Equal(t, int64(0), count(t, d))

	require.NoError(t, d.DropTable(ctx, "#__users", true))
	_, err = d.TableColumns(ctx, "#__users")
	assert.Error(t, err)
	require.NoError(t, d.DropTable(ctx, "#__users", true))
}

func TestSQLiteExecutionFailureCarriesCode(t *testing.T) {
	ctx := context.Background()
	d := openSQLite(t)

	err := d.Run(ctx, "SELECT * FROM #__missing")
	require.Error(t, err)
	assert.ErrorContains(t, err, "jos_missing")

	require.NoError(t, d.Run(ctx, "CREATE UNIQUE INDEX #__users_name ON #__users (name)"))
	seed(t, d, "ann")
	err = d.InsertObject(ctx, "#__users", &user{Name: "ann"}, "id")
	var execErr *ExecutionFailureError
	require.ErrorAs(t, err, &execErr)
	assert.NotEmpty(t, execErr.Code)
	assert.Equal(t, 1, int(count(t, d)))
}

func TestSQLiteExportImport(t *testing.T) {
	ctx := context.Background()
	fs := afero.NewMemMapFs()

	for _, format := range []Format{FormatSQL, FormatYAML} {
		t.Run(string(format), func(t *testing.T) {
			d := openSQLite(t)
			seed(t, d, "ann", "o'neil")
			path := "dump." + string(format)

			require.NoError(t, d.Exporter(FormatFromPath(path)).ExportFile(ctx, fs, path, "#__users"))
			require.NoError(t, d.TruncateTable(ctx, "#__users"))

			n, err := d.Importer(format).ImportFile(ctx, fs, path)
			require.NoError(t, err)
			assert.Equal(t, 2, n)

			require.NoError(t, d.SetQuery(ctx, d.NewQuery().Select("name").From("#__users").Order("id")))
			names, err := d.LoadColumn(ctx, 0)
			require.NoError(t, err)
			assert.Equal(t, []any{"ann", "o'neil"}, names)
		})
	}

	data, err := afero.ReadFile(fs, "dump.sql")
	require.NoError(t, err)
	assert.Contains(t, string(data),
		`INSERT INTO "#__users" ("id", "name", "email", "age") VALUES (2, 'o''neil', NULL, 21);`)
}

func TestSQLiteStatsMonitor(t *testing.T) {
	ctx := context.Background()
	stats := NewStatsMonitor()
	d := openSQLite(t, func(o *Options) { o.Monitor = stats })
	seed(t, d, "ann")

	_ = d.Run(ctx, "INSERT INTO #__users (id, name) VALUES (1, 'dup')")
	snap := stats.Stats()
	assert.Equal(t, int64(3), snap.Queries)
	assert.Equal(t, int64(1), snap.Errors)

	stats.Reset()
	assert.Zero(t, stats.Stats().Queries)
}

// The SQL Server dialect reads table metadata through its environment;
// running it over a SQLite connection checks that the driver serves it.
func TestDriverServesDialectEnvironment(t *testing.T) {
	reg := NewRegistry()
	a := sqliteAdapter("tsql", "sqlite")
	a.Flavor = lexer.SQLServer
	a.NewDialect = func(env sqlgen.Env) query.Dialect { return sqlgen.NewSQLServer(env) }
	reg.Register(a)

	d := openSQLite(t, func(o *Options) { o.Registry = reg; o.Adapter = "tsql" })
	q := d.NewQuery().Select("u.*", "COUNT(*)").From("#__users AS u")
	sql, err := q.Render(context.Background())
	require.NoError(t, err)
	assert.Contains(t, sql, "GROUP BY u.[id],u.[name],u.[email],u.[age]")
}
