package sqlgen

import (
	"context"
	"fmt"
	"slices"
	"strconv"
	"strings"
	"unicode"

	"github.com/satishbabariya/dbal/query"
	"github.com/satishbabariya/dbal/query/lexer"
)

const arithmetic = "+-*/%&|~^"

var aggregateFuncs = []string{
	"AVG", "CHECKSUM_AGG", "COUNT", "COUNT_BIG", "GROUPING", "GROUPING_ID",
	"MIN", "MAX", "SUM", "STDEV", "STDEVP", "VAR", "VARP",
}

func isOperatorChar(c byte) bool { return strings.IndexByte(arithmetic, c) >= 0 }

func lastByte(s string) byte {
	if s == "" {
		return 0
	}
	return s[len(s)-1]
}

func isDistinct(word string) bool {
	return strings.EqualFold(word, "DISTINCT") || strings.EqualFold(word, "ALL")
}

func isNumeric(s string) bool {
	_, err := strconv.ParseFloat(s, 64)
	return err == nil
}

// isConstant reports whether expr is a literal that needs no grouping.
func isConstant(expr string) bool {
	if expr == "" {
		return false
	}
	return expr[0] == '\'' || strings.HasPrefix(expr, "N'") || strings.EqualFold(expr, "NULL") || isNumeric(expr)
}

// containsAggregate reports whether expr calls an aggregate function.
// Whitespace between the name and its parenthesis is allowed.
func containsAggregate(expr string) bool {
	toks := lexer.SQLServer.MustTokenize(expr)
	for i, t := range toks {
		if t.Kind != lexer.Word || !slices.ContainsFunc(aggregateFuncs, t.Is) {
			continue
		}
		j := i + 1
		for j < len(toks) && toks[j].Kind == lexer.Whitespace {
			j++
		}
		if j < len(toks) && toks[j].Text == "(" {
			return true
		}
	}
	return false
}

func isIdentChar(r rune) bool {
	return r == '_' || r == '@' || r == '#' || r == '$' || unicode.IsLetter(r) || unicode.IsDigit(r)
}

// unquote strips identifier quotes from every part of a possibly dotted
// name, so [dbo].[users] becomes dbo.users.
func unquote(name string) string {
	toks, err := lexer.SQLServer.Tokenize(name)
	if err != nil {
		return name
	}
	var b strings.Builder
	for _, t := range toks {
		if t.Kind == lexer.QuotedIdent && len(t.Text) >= 2 {
			b.WriteString(t.Text[1 : len(t.Text)-1])
			continue
		}
		b.WriteString(t.Text)
	}
	return b.String()
}

// normalize folds an expression for duplicate detection.
func normalize(expr string) string {
	r := strings.NewReplacer("[", "", "]", "", `"`, "", " ", "")
	return strings.ToLower(r.Replace(expr))
}

// containsWord reports whether word occurs in text as a whole identifier.
func containsWord(text, word string) bool {
	if word == "" {
		return false
	}
	upper, w := strings.ToUpper(text), strings.ToUpper(word)
	for from := 0; ; {
		i := strings.Index(upper[from:], w)
		if i < 0 {
			return false
		}
		i += from
		end := i + len(w)
		before := i == 0 || !isIdentChar(rune(upper[i-1]))
		after := end == len(upper) || !isIdentChar(rune(upper[end]))
		if before && after {
			return true
		}
		from = i + 1
	}
}

// FixSelectAliases splits the select list into column groups and appends
// "AS [columnAliasN]" to every computed column that has no alias: columns
// ending in a function call, a bare literal, NULL, END, a number, an @@
// variable, or a term after an arithmetic operator. An alias written
// without AS gets AS inserted.
func (d *SQLServer) FixSelectAliases(selects []string) [][]string {
	columns := lexer.SQLServer.SplitExpression(strings.Join(selects, ","))

	for i, column := range columns {
		size := len(column)
		if size == 0 {
			continue
		}
		if size > 2 && strings.EqualFold(column[size-2], "AS") {
			columns[i][size-2] = "AS"
			continue
		}

		words := column
		if i == 0 && isDistinct(words[0]) {
			words = words[1:]
			size--
			if size == 0 {
				continue
			}
		}

		last := strings.ToUpper(words[size-1])
		lastChar := lastByte(last)
		if lastChar == 0 || lastChar == '*' {
			continue
		}

		alias := d.QuoteName("columnAlias" + strconv.Itoa(i))
		if lastChar == ')' ||
			(size == 1 && lastChar == '\'') ||
			last[0] == '@' ||
			last == "NULL" ||
			last == "END" ||
			isNumeric(last) {
			columns[i] = append(columns[i], "AS", alias)
			continue
		}
		if size == 1 {
			continue
		}

		lastChar2 := lastByte(words[size-2])
		if isOperatorChar(lastChar2) || (size > 2 && lastChar2 == '.' && isOperatorChar(lastByte(words[size-3]))) {
			// A leading unary plus is not an operator.
			if size != 2 || strings.TrimLeft(words[0], "+") != "" || lastByte(words[1][:1]) == '\'' {
				columns[i] = append(columns[i], "AS", alias)
			}
			continue
		}
		if last[0] != '.' && lastChar2 != '.' {
			n := len(columns[i])
			columns[i] = append(columns[i][:n-1:n-1], "AS", columns[i][n-1])
		}
	}
	return columns
}

type groupEntry struct {
	expr     string
	wildcard bool
	// table is the qualifier of a wildcard; empty for a bare *.
	table string
}

type selectInfo struct {
	entries    []groupEntry
	aliases    map[string]string
	text       string
	aggregated bool
}

// analyzeSelect classifies alias-fixed select columns.
func analyzeSelect(columns [][]string) selectInfo {
	info := selectInfo{aliases: make(map[string]string)}
	var texts []string

	for i, column := range columns {
		column = slices.Clone(column)
		if i == 0 && len(column) > 0 && isDistinct(column[0]) {
			column = column[1:]
		}
		if n := len(column); n > 2 && column[n-2] == "AS" {
			alias := unquote(column[n-1])
			column = column[:n-2]
			if len(column) == 1 && isConstant(column[0]) {
				continue
			}
			info.aliases[strings.ToLower(alias)] = strings.Join(column, " ")
		}
		if len(column) == 0 {
			continue
		}

		aggregated := containsAggregate(strings.Join(column, " "))
		var wildcards []groupEntry
		shrunk := make([]string, len(column))
		for j, block := range column {
			shrunk[j] = block
			switch {
			case block == "*" && len(column) == 1:
				wildcards = append(wildcards, groupEntry{wildcard: true})
			case strings.HasSuffix(block, ".*"):
				wildcards = append(wildcards, groupEntry{wildcard: true, table: unquote(strings.TrimSuffix(block, ".*"))})
			}
			if block != "" && block[0] == '\'' {
				shrunk[j] = "''"
			}
		}
		texts = append(texts, strings.Join(shrunk, " "))

		expr := strings.Join(column, " ")
		switch {
		case aggregated:
			info.aggregated = true
		case len(wildcards) > 0:
			info.entries = append(info.entries, wildcards...)
		case !isConstant(expr):
			info.entries = append(info.entries, groupEntry{expr: expr})
		}
	}
	info.text = strings.Join(texts, ",")
	return info
}

type tableRef struct {
	// name is unquoted with the prefix applied; written is the table as it
	// appears in the query.
	name    string
	written string
	alias   string
}

// sourceTables lists the plain tables in FROM and JOIN with their aliases.
// Derived tables are skipped.
func (d *SQLServer) sourceTables(q *query.Query) []tableRef {
	prefix := ""
	if d.env != nil {
		prefix = d.env.TablePrefix()
	}
	ref := func(words []string) (tableRef, bool) {
		if len(words) == 0 || strings.Contains(words[0], "(") {
			return tableRef{}, false
		}
		t := tableRef{name: strings.ReplaceAll(unquote(words[0]), "#__", prefix), written: words[0]}
		if len(words) > 1 {
			t.alias = unquote(words[len(words)-1])
		}
		return t, true
	}

	var out []tableRef
	if from := q.Clause(query.ClauseFrom); from != nil {
		for _, words := range lexer.SQLServer.SplitExpression(strings.Join(from.Strings(), ",")) {
			if t, ok := ref(words); ok {
				out = append(out, t)
			}
		}
	}
	for _, j := range q.Joins() {
		for _, frag := range j.Strings() {
			if on := lexer.SQLServer.TopLevel(frag, "ON"); len(on) > 0 {
				frag = frag[:on[0]]
			}
			groups := lexer.SQLServer.SplitExpression(frag)
			if len(groups) == 0 {
				continue
			}
			if t, ok := ref(groups[0]); ok {
				out = append(out, t)
			}
		}
	}
	return out
}

// FixGroupColumns returns the GROUP BY list SQL Server needs for the given
// alias-fixed select columns: the existing GROUP BY entries, with select
// aliases resolved to their expressions, followed by every non aggregated
// select column, wildcard columns expanded through table metadata, and
// every plain ORDER BY column.
func (d *SQLServer) FixGroupColumns(ctx context.Context, columns [][]string, q *query.Query) ([]string, error) {
	info := analyzeSelect(columns)

	var groups []string
	seen := make(map[string]bool)
	add := func(expr string) {
		if k := normalize(expr); !seen[k] {
			seen[k] = true
			groups = append(groups, expr)
		}
	}

	if g := q.Clause(query.ClauseGroup); g != nil {
		for _, words := range lexer.SQLServer.SplitExpression(strings.Join(g.Strings(), ",")) {
			expr := strings.Join(words, " ")
			if expr == "" {
				continue
			}
			name := unquote(expr)
			if under, ok := info.aliases[strings.ToLower(name)]; ok && !containsWord(info.text, name) {
				expr = under
			}
			add(expr)
		}
	}

	prefix := ""
	if d.env != nil {
		prefix = d.env.TablePrefix()
	}
	var tables []tableRef
	known := make(map[string][]string)
	for _, e := range info.entries {
		if !e.wildcard {
			add(e.expr)
			continue
		}
		if tables == nil {
			tables = d.sourceTables(q)
		}
		for _, t := range tables {
			if e.table != "" && e.table != t.alias &&
				!(t.alias == "" && strings.EqualFold(strings.ReplaceAll(e.table, "#__", prefix), t.name)) {
				continue
			}
			cols, ok := known[t.name]
			if !ok {
				if d.env == nil {
					return nil, fmt.Errorf("sqlgen: expand %s.*: no table metadata source", t.name)
				}
				var err error
				cols, err = d.env.TableColumns(ctx, t.name)
				if err != nil {
					return nil, fmt.Errorf("sqlgen: expand %s.*: %w", t.name, err)
				}
				known[t.name] = cols
			}
			qualifier := t.alias
			if qualifier == "" {
				qualifier = t.written
			}
			for _, c := range cols {
				if e.table == "" && len(tables) == 1 {
					add(d.QuoteName(c))
				} else {
					add(qualifier + "." + d.QuoteName(c))
				}
			}
		}
	}

	if order := q.Clause(query.ClauseOrder); order != nil {
		for _, words := range lexer.SQLServer.SplitExpression(strings.Join(order.Strings(), ",")) {
			if n := len(words); n > 1 && (strings.EqualFold(words[n-1], "ASC") || strings.EqualFold(words[n-1], "DESC")) {
				words = words[:n-1]
			}
			expr := strings.Join(words, " ")
			if expr == "" || isConstant(expr) || containsAggregate(expr) {
				continue
			}
			if _, ok := info.aliases[strings.ToLower(unquote(expr))]; ok {
				continue
			}
			add(expr)
		}
	}
	return groups, nil
}
