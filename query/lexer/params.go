package lexer

import (
	"strconv"
	"strings"
)

// Placeholder renders the nth (1-based) positional placeholder of a backend.
type Placeholder func(n int) string

// Question renders every placeholder as ?.
func Question(int) string { return "?" }

// Dollar renders $1, $2, ...
func Dollar(n int) string { return "$" + strconv.Itoa(n) }

// AtP renders @p1, @p2, ...
func AtP(n int) string { return "@p" + strconv.Itoa(n) }

// Mapping is the result of rewriting named placeholders to positional ones.
type Mapping struct {
	// SQL is the rewritten statement.
	SQL string
	// Positions maps each key to the 1-based positions it occupies. Named
	// keys keep their leading ':'; bare ? placeholders are keyed "1", "2", ...
	Positions map[string][]int
	// Count is the number of placeholders in SQL.
	Count int
}

// MapNamedParams replaces :name and ? placeholders outside literals,
// identifiers and comments with positional placeholders rendered by ph. A
// name used several times is recorded at every position.
func (f Flavor) MapNamedParams(sql string, ph Placeholder) (Mapping, error) {
	toks, err := f.Tokenize(sql)
	if err != nil {
		return Mapping{}, err
	}
	m := Mapping{Positions: make(map[string][]int)}
	var b strings.Builder
	positional := 0
	for _, t := range toks {
		switch t.Kind {
		case Param:
			m.Count++
			m.Positions[t.Text] = append(m.Positions[t.Text], m.Count)
			b.WriteString(ph(m.Count))
		case Positional:
			m.Count++
			positional++
			key := strconv.Itoa(positional)
			m.Positions[key] = append(m.Positions[key], m.Count)
			b.WriteString(ph(m.Count))
		default:
			b.WriteString(t.Text)
		}
	}
	m.SQL = b.String()
	return m, nil
}
