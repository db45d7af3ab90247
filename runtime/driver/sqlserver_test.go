package driver

import (
	"context"
	"testing"
	"time"

	mssql "github.com/microsoft/go-mssqldb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/satishbabariya/dbal/query"
)

func TestSQLServerParam(t *testing.T) {
	at := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name    string
		value   any
		options map[string]any
		want    any
		wantErr bool
	}{
		{name: "varchar", value: "x", options: map[string]any{OptionVarChar: true}, want: mssql.VarChar("x")},
		{name: "varchar max", value: "x", options: map[string]any{OptionVarChar: true, OptionMax: "true"}, want: mssql.VarCharMax("x")},
		{name: "nvarchar max", value: "x", options: map[string]any{OptionMax: 1}, want: mssql.NVarCharMax("x")},
		{name: "datetime1", value: at, options: map[string]any{OptionDateTime1: true}, want: mssql.DateTime1(at)},
		{name: "unknown option", value: "x", options: map[string]any{"collation": "latin1"}, want: "x"},
		{name: "varchar on int", value: int64(1), options: map[string]any{OptionVarChar: true}, wantErr: true},
		{name: "datetime1 on string", value: "x", options: map[string]any{OptionDateTime1: true}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := sqlServerParam(query.Param{Value: tt.value, Options: tt.options}, tt.value)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestStatementAppliesParamOptions(t *testing.T) {
	ctx := context.Background()
	db, mock := newMock(t)
	mock.ExpectPrepare("UPDATE t SET a = @p1, b = @p2 WHERE c = @p3")

	a, err := Lookup("mssql")
	require.NoError(t, err)
	stmt, err := a.statement(ctx, db, "UPDATE t SET a = :a, b = :b WHERE c = :a", StatementOptions{})
	require.NoError(t, err)

	q := query.New(nil).
		BindWithOptions("a", "x", query.ParamString, 10, map[string]any{OptionVarChar: true}).
		Bind("b", "y", query.ParamString)
	args, err := stmt.args(q.Bounded())
	require.NoError(t, err)
	assert.Equal(t, []any{mssql.VarChar("x"), "y", mssql.VarChar("x")}, args)

	q.BindWithOptions("b", 3, query.ParamInt, 0, map[string]any{OptionVarChar: true})
	_, err = stmt.args(q.Bounded())
	assert.ErrorContains(t, err, ":b")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestParamOptionsIgnoredWithoutConverter(t *testing.T) {
	ctx := context.Background()
	db, mock := newMock(t)
	mock.ExpectPrepare("UPDATE t SET a = ?")

	a, err := Lookup("mysql")
	require.NoError(t, err)
	stmt, err := a.statement(ctx, db, "UPDATE t SET a = :a", StatementOptions{})
	require.NoError(t, err)

	q := query.New(nil).BindWithOptions("a", "x", query.ParamString, 0, map[string]any{OptionVarChar: true})
	args, err := stmt.args(q.Bounded())
	require.NoError(t, err)
	assert.Equal(t, []any{"x"}, args)
	require.NoError(t, mock.ExpectationsWereMet())
}
