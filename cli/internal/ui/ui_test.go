package ui

import (
	"bytes"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/satishbabariya/dbal/query/lexer"
)

func TestHighlightWithoutColor(t *testing.T) {
	prev := color.NoColor
	color.NoColor = true
	t.Cleanup(func() { color.NoColor = prev })

	sql := "SELECT a FROM t WHERE b = :b -- note"
	assert.Equal(t, sql, Highlight(lexer.MySQL.MustTokenize(sql)))
}

func TestPrintTable(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, PrintTable(&buf, []string{"id", "name"}, [][]string{{"1", "ann"}, {"2", "bob"}}))
	out := buf.String()
	assert.Contains(t, out, "name")
	assert.Contains(t, out, "ann")
	assert.Contains(t, out, "bob")
}

func TestIsKeyword(t *testing.T) {
	assert.True(t, isKeyword("select"))
	assert.True(t, isKeyword("SAVEPOINT"))
	assert.False(t, isKeyword("users"))
}
