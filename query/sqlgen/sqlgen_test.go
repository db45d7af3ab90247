package sqlgen

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/satishbabariya/dbal/query"
	"github.com/satishbabariya/dbal/query/lexer"
)

func TestNewDialect(t *testing.T) {
	tests := []struct {
		name string
		want string
	}{
		{"mysql", "mysql"},
		{"mariadb", "mysql"},
		{"PostgreSQL", "postgres"},
		{"pgsql", "postgres"},
		{"sqlite3", "sqlite"},
		{"sqlsrv", "sqlserver"},
		{"mssql", "sqlserver"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, err := NewDialect(tt.name, nil)
			require.NoError(t, err)
			assert.Equal(t, tt.want, d.Name())
		})
	}

	_, err := NewDialect("oracle", nil)
	assert.ErrorIs(t, err, ErrUnknownDialect)
}

func TestFlavor(t *testing.T) {
	assert.Equal(t, lexer.MySQL.Name, Flavor(NewMySQL()).Name)
	assert.Equal(t, lexer.SQLServer.Name, Flavor(NewSQLServer(nil)).Name)
	assert.Equal(t, lexer.ANSI.Name, Flavor(query.StandardDialect{}).Name)
}

func TestMySQL(t *testing.T) {
	d := NewMySQL()
	assert.Equal(t, "`a`.`b` AS `c`", d.QuoteName("a.b AS c"))
	assert.Equal(t, `O\'Re\\`, d.Escape(`O'Re\`, false))
	assert.Equal(t, `50\%\_`, d.Escape("50%_", true))
	assert.Equal(t, "X'01AB'", d.Literal([]byte{0x01, 0xab}))

	q := query.New(d).Select("a").From("t")
	assert.Equal(t, "SELECT a\nFROM t\nLIMIT 5, 10", q.Clone().SetLimit(10, 5).String())
	assert.Equal(t, "SELECT a\nFROM t\nLIMIT 10", q.Clone().SetLimit(10, 0).String())
	assert.Equal(t, "SELECT a\nFROM t\nLIMIT 5, 18446744073709551615", q.Clone().SetLimit(0, 5).String())
}

func TestPostgreSQL(t *testing.T) {
	d := NewPostgreSQL()
	assert.Equal(t, "TRUE", d.Literal(true))
	assert.Equal(t, `'\x01ab'`, d.Literal([]byte{0x01, 0xab}))
	assert.Equal(t, "a || '-' || b", d.Concatenate([]string{"a", "b"}, "-"))
	assert.Equal(t, "(d + INTERVAL '3 day')", d.DateAdd("d", 3, "DAY"))

	cast, err := d.CastAs("CHAR", "x", 0)
	require.NoError(t, err)
	assert.Equal(t, "x::text", cast)

	_, err = d.CastAs("BLOB", "x", 0)
	assert.ErrorIs(t, err, query.ErrUnknownType)

	q := query.New(d).
		Update("a").
		Set("x = b.y").
		InnerJoin("b", "b.id = a.bid").
		Where("a.z = 1")
	assert.Equal(t, "UPDATE a\nSET x = b.y\nFROM b\nWHERE a.z = 1 AND b.id = a.bid", q.String())
}

func TestSQLite(t *testing.T) {
	d := NewSQLite()
	q := query.New(d).Select("a").From("t")
	assert.Equal(t, "SELECT a\nFROM t\nLIMIT -1\nOFFSET 5", q.Clone().SetLimit(0, 5).String())
	assert.Equal(t, "SELECT a\nFROM t\nLIMIT 2\nOFFSET 5", q.Clone().SetLimit(2, 5).String())
	assert.Equal(t, "datetime(d, '-2 month')", d.DateAdd("d", -2, "MONTH"))
	assert.Equal(t, "length(a) > 3", d.CharLength("a", ">", "3"))
}
