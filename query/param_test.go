package query

import (
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParamResolve(t *testing.T) {
	n := 7
	var nilPtr *int

	tests := []struct {
		name  string
		param Param
		want  any
	}{
		{"int from string", Param{Value: "42", Type: ParamInt}, int64(42)},
		{"bool from int", Param{Value: 1, Type: ParamBool}, true},
		{"string from int", Param{Value: 12, Type: ParamString}, "12"},
		{"string from bytes", Param{Value: []byte("ab"), Type: ParamString}, "ab"},
		{"lob from string", Param{Value: "ab", Type: ParamLOB}, []byte("ab")},
		{"null type", Param{Value: 5, Type: ParamNull}, nil},
		{"nil pointer", Param{Value: nilPtr, Type: ParamInt}, nil},
		{"pointer", Param{Value: &n, Type: ParamInt}, int64(7)},
		{"valuer", Param{Value: sql.NullString{String: "x", Valid: true}, Type: ParamString}, "x"},
		{"null valuer", Param{Value: sql.NullInt64{}, Type: ParamInt}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.param.Resolve()
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParamResolveSeesLateWrites(t *testing.T) {
	v := 1
	q := New(nil).Bind("v", &v, ParamInt)
	v = 2

	got, err := q.Bounded()[":v"].Resolve()
	require.NoError(t, err)
	assert.Equal(t, int64(2), got)
}

func TestParamResolveErrors(t *testing.T) {
	_, err := Param{Value: "abc", Type: ParamInt}.Resolve()
	assert.Error(t, err)

	_, err = Param{Value: 3, Type: ParamLOB}.Resolve()
	assert.Error(t, err)
}

func TestParamIsOutput(t *testing.T) {
	var out string
	assert.True(t, Param{Out: &out}.IsOutput())
	assert.False(t, Param{Value: 1}.IsOutput())
}
