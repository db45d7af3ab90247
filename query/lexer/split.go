package lexer

import "strings"

const splitOperators = "+-*/%&|~^"

func isSplitOperator(t Token) bool {
	if t.Kind != Operator {
		return false
	}
	for _, r := range t.Text {
		if !strings.ContainsRune(splitOperators, r) {
			return false
		}
	}
	return true
}

// SplitExpression splits a comma separated SQL fragment, such as a select
// list, into groups of tokens. Tokens are separated by whitespace and by the
// arithmetic and bitwise operators, which become tokens of their own.
// Quoted regions and parenthesized text are never split, comments are
// dropped, and a dotted name such as "a . b" is kept as one token.
func (f Flavor) SplitExpression(expr string) [][]string {
	toks, err := f.Tokenize(expr)
	if err != nil {
		return nil
	}

	var (
		groups [][]string
		group  []string
		word   strings.Builder
		depth  int
		lastOp bool
	)
	flush := func() {
		if word.Len() > 0 {
			group = append(group, word.String())
			word.Reset()
			lastOp = false
		}
	}
	end := func() {
		flush()
		groups = append(groups, group)
		group = nil
		lastOp = false
	}

	for _, t := range toks {
		if t.Kind == Comment {
			if depth == 0 {
				flush()
			}
			continue
		}
		if depth > 0 {
			word.WriteString(t.Text)
			if t.Kind == Punct {
				switch t.Text {
				case "(":
					depth++
				case ")":
					depth--
				}
			}
			continue
		}

		switch {
		case t.Kind == Whitespace:
			flush()
		case t.Kind == Punct && t.Text == ",":
			end()
		case t.Kind == Punct && t.Text == "(":
			word.WriteString(t.Text)
			depth++
		case t.Kind == Punct && t.Text == ".":
			if word.Len() == 0 && len(group) > 0 && !lastOp {
				word.WriteString(group[len(group)-1])
				group = group[:len(group)-1]
			}
			word.WriteString(t.Text)
		case isSplitOperator(t) && !(t.Text == "*" && strings.HasSuffix(word.String(), ".")):
			flush()
			if lastOp && len(group) > 0 {
				group[len(group)-1] += t.Text
			} else {
				group = append(group, t.Text)
			}
			lastOp = true
		default:
			word.WriteString(t.Text)
		}
	}
	end()
	return groups
}

// SplitStatements splits a script on semicolons outside quotes, comments
// and parentheses. Statements holding only whitespace or comments are
// dropped.
func (f Flavor) SplitStatements(script string) []string {
	toks, err := f.Tokenize(script)
	if err != nil {
		return nil
	}
	var (
		out         []string
		b           strings.Builder
		significant bool
		depth       int
	)
	emit := func() {
		if significant {
			out = append(out, strings.TrimSpace(b.String()))
		}
		b.Reset()
		significant = false
	}
	for _, t := range toks {
		if t.Kind == Punct {
			switch t.Text {
			case "(":
				depth++
			case ")":
				depth--
			case ";":
				if depth <= 0 {
					emit()
					continue
				}
			}
		}
		b.WriteString(t.Text)
		if t.Kind != Whitespace && t.Kind != Comment {
			significant = true
		}
	}
	emit()
	return out
}

var rowKeywords = map[string]bool{
	"SELECT": true, "WITH": true, "SHOW": true, "PRAGMA": true, "EXPLAIN": true,
	"DESCRIBE": true, "DESC": true, "VALUES": true, "TABLE": true,
	"CALL": true, "EXEC": true, "EXECUTE": true,
}

// ReturnsRows guesses whether sql produces a result set: it starts with a
// reading keyword or carries a top level RETURNING or OUTPUT clause.
func (f Flavor) ReturnsRows(sql string) bool {
	toks, err := f.Tokenize(sql)
	if err != nil {
		return false
	}
	first := true
	depth := 0
	for _, t := range toks {
		switch t.Kind {
		case Whitespace, Comment:
			continue
		case Punct:
			switch t.Text {
			case "(":
				depth++
			case ")":
				depth--
			}
			continue
		case Word:
			if first {
				if rowKeywords[strings.ToUpper(t.Text)] {
					return true
				}
				first = false
				continue
			}
			if depth == 0 && (t.Is("RETURNING") || t.Is("OUTPUT")) {
				return true
			}
		}
		first = false
	}
	return false
}

// TopLevel returns the byte offsets at which the keyword sequence words
// occurs outside parentheses, quotes and comments.
func (f Flavor) TopLevel(sql string, words ...string) []int {
	toks, err := f.Tokenize(sql)
	if err != nil || len(words) == 0 {
		return nil
	}
	type sig struct {
		tok   Token
		depth int
	}
	var list []sig
	depth := 0
	for _, t := range toks {
		if t.Kind == Whitespace || t.Kind == Comment {
			continue
		}
		if t.Kind == Punct && t.Text == ")" {
			depth--
		}
		list = append(list, sig{t, depth})
		if t.Kind == Punct && t.Text == "(" {
			depth++
		}
	}

	var out []int
	for i := 0; i+len(words) <= len(list); i++ {
		match := true
		for j, w := range words {
			if list[i+j].depth != 0 || !list[i+j].tok.Is(w) {
				match = false
				break
			}
		}
		if match {
			out = append(out, list[i].tok.Offset)
		}
	}
	return out
}
